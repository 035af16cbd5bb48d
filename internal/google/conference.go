package google

import (
	"strings"

	"google.golang.org/api/calendar/v3"

	"calnorm/internal/models"
	"calnorm/internal/normalize"
)

const (
	defaultSolutionName = "Google Meet"
	solutionMeet        = "hangoutsMeet"
	solutionAddOn       = "addOn"
)

// parseConference reads native conference data, or falls back to scanning
// the event's link-bearing fields in a fixed order.
func parseConference(item *calendar.Event) *models.Conference {
	if item.ConferenceData != nil {
		c := nativeConference(item.ConferenceData)
		if normalize.IsEmpty(c) {
			return nil
		}
		return c
	}

	candidates := []string{item.HangoutLink, item.Description, item.Location}
	if item.Source != nil {
		candidates = append(candidates, item.Source.Url)
	}
	for _, a := range item.Attachments {
		if a != nil {
			candidates = append(candidates, a.FileUrl)
		}
	}
	if item.Gadget != nil {
		candidates = append(candidates, item.Gadget.Link)
	}
	return normalize.ResolveFallback(candidates...)
}

func nativeConference(cd *calendar.ConferenceData) *models.Conference {
	c := &models.Conference{
		ConferenceID: cd.ConferenceId,
		Notes:        cd.Notes,
	}
	if cd.ConferenceSolution != nil {
		c.Name = cd.ConferenceSolution.Name
		if cd.ConferenceSolution.Key != nil && cd.ConferenceSolution.Key.Type != "" {
			c.Extra = map[string]string{"solutionType": cd.ConferenceSolution.Key.Type}
		}
	}
	if cd.Parameters != nil && cd.Parameters.AddOnParameters != nil {
		for k, v := range cd.Parameters.AddOnParameters.Parameters {
			if c.Extra == nil {
				c.Extra = make(map[string]string)
			}
			c.Extra[k] = v
		}
	}

	for _, ep := range cd.EntryPoints {
		if ep == nil {
			continue
		}
		switch ep.EntryPointType {
		case "video":
			if c.Video == nil {
				c.Video = entryPoint(ep)
			}
		case "sip":
			if c.SIP == nil {
				c.SIP = entryPoint(ep)
			}
		case "phone":
			if ep.Uri != "" {
				c.Phone = append(c.Phone, *entryPoint(ep))
			}
		case "more":
			if c.HostURL == "" {
				c.HostURL = ep.Uri
			}
		}
	}
	if c.Video != nil {
		c.ID = normalize.ServiceID(c.Video.URI)
	}
	return c
}

func entryPoint(ep *calendar.EntryPoint) *models.EntryPoint {
	password := ep.Password
	if password == "" {
		password = ep.Passcode
	}
	return &models.EntryPoint{
		URI:         ep.Uri,
		Label:       ep.Label,
		MeetingCode: ep.MeetingCode,
		AccessCode:  ep.AccessCode,
		Password:    password,
		Pin:         ep.Pin,
		RegionCode:  ep.RegionCode,
	}
}

// formatConference rebuilds conference data. A Google Meet conference without
// entry points turns into a request to create one.
func formatConference(c *models.Conference, requestID func() string) *calendar.ConferenceData {
	if c == nil {
		return nil
	}

	name := c.Name
	if name == "" {
		name = defaultSolutionName
	}
	solutionType := solutionAddOn
	if strings.Contains(strings.ToLower(name), "google") {
		solutionType = solutionMeet
	}

	cd := &calendar.ConferenceData{
		ConferenceId: c.ConferenceID,
		Notes:        c.Notes,
		ConferenceSolution: &calendar.ConferenceSolution{
			Name: name,
			Key:  &calendar.ConferenceSolutionKey{Type: solutionType},
		},
	}
	if c.Video != nil {
		cd.EntryPoints = append(cd.EntryPoints, wireEntryPoint("video", *c.Video))
	}
	if c.SIP != nil {
		cd.EntryPoints = append(cd.EntryPoints, wireEntryPoint("sip", *c.SIP))
	}
	for _, p := range c.Phone {
		ep := wireEntryPoint("phone", p)
		ep.Uri = normalize.TelURI(p.URI)
		cd.EntryPoints = append(cd.EntryPoints, ep)
	}
	if c.HostURL != "" {
		cd.EntryPoints = append(cd.EntryPoints, &calendar.EntryPoint{EntryPointType: "more", Uri: c.HostURL})
	}

	if len(cd.EntryPoints) == 0 && cd.ConferenceId == "" && solutionType == solutionMeet {
		cd.CreateRequest = &calendar.CreateConferenceRequest{
			RequestId:             requestID(),
			ConferenceSolutionKey: &calendar.ConferenceSolutionKey{Type: solutionMeet},
		}
	}

	params := make(map[string]string)
	for k, v := range c.Extra {
		if k != "solutionType" {
			params[k] = v
		}
	}
	if len(params) > 0 {
		cd.Parameters = &calendar.ConferenceParameters{
			AddOnParameters: &calendar.ConferenceParametersAddOnParameters{Parameters: params},
		}
	}
	return cd
}

func wireEntryPoint(kind string, ep models.EntryPoint) *calendar.EntryPoint {
	return &calendar.EntryPoint{
		EntryPointType: kind,
		Uri:            ep.URI,
		Label:          ep.Label,
		MeetingCode:    ep.MeetingCode,
		AccessCode:     ep.AccessCode,
		Password:       ep.Password,
		Pin:            ep.Pin,
		RegionCode:     ep.RegionCode,
	}
}
