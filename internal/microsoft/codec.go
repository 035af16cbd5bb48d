// Package microsoft converts Microsoft Graph calendar resources to and from the
// canonical model and talks to the Graph API.
package microsoft

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/goccy/go-json"
	"github.com/google/uuid"

	"calnorm/internal/datetime"
	"calnorm/internal/models"
	"calnorm/internal/normalize"
)

// BlockedTimeMarker is the fixed name part of the blocked-time extended
// property id.
const BlockedTimeMarker = "calnorm.blockedTime"

var meetingProviders = map[string]string{
	"teamsForBusiness": "Microsoft Teams",
	"skypeForBusiness": "Skype for Business",
	"skypeForConsumer": "Skype",
}

// Codec converts Graph resources to and from the canonical model.
type Codec struct {
	// NewMarker generates the random part of new extended property ids.
	NewMarker func() string
	Logger    *slog.Logger
}

// NewCodec returns a codec using random markers.
func NewCodec(logger *slog.Logger) *Codec {
	return &Codec{NewMarker: uuid.NewString, Logger: logger}
}

func (c *Codec) Provider() models.Provider { return models.ProviderMicrosoft }

// BlockedTimePropertyID returns the extended property id for marker.
func BlockedTimePropertyID(marker string) string {
	return "String {" + marker + "} Name " + BlockedTimeMarker
}

// ParseEvent converts a Graph event. A missing start or end is reported as
// models.ErrMissingField.
func (c *Codec) ParseEvent(item *Event, scope models.Scope) (*models.CalendarEvent, error) {
	if item == nil {
		return nil, fmt.Errorf("%w: event", models.ErrMissingField)
	}
	allDay := item.IsAllDay != nil && *item.IsAllDay
	start, err := parseDateTimeTimeZone(item.Start, item.OriginalStartTimeZone, allDay, "start")
	if err != nil {
		return nil, err
	}
	end, err := parseDateTimeTimeZone(item.End, item.OriginalEndTimeZone, allDay, "end")
	if err != nil {
		return nil, err
	}

	ev := &models.CalendarEvent{
		ID:               item.ID,
		Title:            item.Subject,
		Description:      item.BodyPreview,
		Status:           parseStatus(item),
		Start:            start,
		End:              end,
		AllDay:           allDay,
		RecurringEventID: item.SeriesMasterID,
		Provider:         models.ProviderMicrosoft,
		AccountID:        scope.AccountID,
		CalendarID:       scope.CalendarID,
		ReadOnly:         scope.ReadOnly,
	}
	if item.Location != nil {
		ev.Location = item.Location.DisplayName
		ev.URL = item.Location.LocationURI
	}
	if len(item.Categories) > 0 {
		ev.Color = item.Categories[0]
	}

	var organizer string
	if item.Organizer != nil {
		organizer = item.Organizer.EmailAddress.Address
	}
	organizerPresent := false
	for _, a := range item.Attendees {
		if a.EmailAddress.Address == "" {
			continue
		}
		att := models.Attendee{
			Email:     a.EmailAddress.Address,
			Name:      a.EmailAddress.Name,
			Status:    models.StatusUnknown,
			Type:      normalize.MicrosoftType(a.Type),
			Organizer: organizer != "" && strings.EqualFold(a.EmailAddress.Address, organizer),
		}
		if a.Status != nil {
			att.Status = normalize.MicrosoftStatus(a.Status.Response)
		}
		organizerPresent = organizerPresent || att.Organizer
		ev.Attendees = append(ev.Attendees, att)
	}
	ev.Attendees = normalize.PromoteOrganizer(ev.Attendees)
	// A lone organizer has no meaningful own response.
	if organizerPresent && len(ev.Attendees) > 1 && item.ResponseStatus != nil {
		ev.Response = &models.Response{Status: normalize.MicrosoftStatus(item.ResponseStatus.Response)}
	}

	ev.Recurrence = parseRecurrence(item.Recurrence)
	ev.Conference = parseConference(item)

	meta := &models.MicrosoftMetadata{
		WebLink:               item.WebLink,
		ShowAs:                item.ShowAs,
		OnlineMeetingProvider: item.OnlineMeetingProvider,
		OriginalStartTimeZone: datetime.NewProvenance(item.OriginalStartTimeZone),
		OriginalEndTimeZone:   datetime.NewProvenance(item.OriginalEndTimeZone),
	}
	for _, p := range item.SingleValueExtendedProperties {
		if strings.Contains(p.ID, BlockedTimeMarker) {
			meta.BlockedTime = normalize.ParseBlockedTime(p.Value)
			if meta.BlockedTime == nil {
				c.logDebug("Ignoring blocked time without admissible values", "eventID", item.ID, "raw", p.Value)
			}
			break
		}
	}
	ev.Metadata = meta
	return ev, nil
}

func parseStatus(item *Event) models.EventStatus {
	switch {
	case item.IsCancelled:
		return models.EventStatusCancelled
	case strings.EqualFold(item.ShowAs, "tentative"):
		return models.EventStatusTentative
	default:
		return models.EventStatusConfirmed
	}
}

// parseConference prefers the online meeting, then the bare meeting URL,
// then a meeting link found in the location.
func parseConference(item *Event) *models.Conference {
	if om := item.OnlineMeeting; om != nil && (om.JoinURL != "" || om.ConferenceID != "" || len(om.Phones) > 0) {
		c := &models.Conference{
			ConferenceID: om.ConferenceID,
			Name:         meetingProviders[item.OnlineMeetingProvider],
		}
		if om.JoinURL != "" {
			c.Video = &models.EntryPoint{URI: om.JoinURL, AccessCode: om.ConferenceID}
			c.ID = normalize.ServiceID(om.JoinURL)
		}
		for _, p := range om.Phones {
			if p.Number == "" {
				continue
			}
			c.Phone = append(c.Phone, models.EntryPoint{
				URI:        normalize.TelURI(p.Number),
				Label:      p.Number,
				AccessCode: om.ConferenceID,
			})
		}
		if om.QuickDial != "" || om.TollNumber != "" {
			c.Extra = make(map[string]string)
			if om.QuickDial != "" {
				c.Extra["quickDial"] = om.QuickDial
			}
			if om.TollNumber != "" {
				c.Extra["tollNumber"] = om.TollNumber
			}
		}
		return c
	}

	if item.OnlineMeetingURL != "" {
		c := &models.Conference{
			Name:  meetingProviders[item.OnlineMeetingProvider],
			Video: &models.EntryPoint{URI: item.OnlineMeetingURL},
			ID:    normalize.ServiceID(item.OnlineMeetingURL),
		}
		return c
	}

	if item.Location != nil {
		return normalize.ResolveFallback(item.Location.DisplayName, item.Location.LocationURI)
	}
	return nil
}

// SerializeEvent builds the create payload for in.
func (c *Codec) SerializeEvent(in *models.EventInput) (*Event, error) {
	if err := models.CheckMetadata(models.ProviderMicrosoft, in.Metadata); err != nil {
		return nil, err
	}
	meta, _ := in.Metadata.(*models.MicrosoftMetadata)
	if meta == nil {
		meta = &models.MicrosoftMetadata{}
	}

	ev := &Event{Subject: in.Title}
	if in.Description != "" {
		ev.Body = &ItemBody{ContentType: "text", Content: in.Description}
	}
	if in.Location != "" || in.URL != "" {
		ev.Location = &Location{DisplayName: in.Location, LocationURI: in.URL}
	}
	if in.Color != "" {
		ev.Categories = []string{in.Color}
	}
	ev.ShowAs = showAs(in.Status, meta.ShowAs)

	if in.Start != nil && in.End != nil {
		allDay := in.AllDay
		ev.IsAllDay = &allDay
		start, err := formatDateTimeTimeZone(in.Start, meta.OriginalStartTimeZone)
		if err != nil {
			return nil, fmt.Errorf("failed to format start: %w", err)
		}
		end, err := formatDateTimeTimeZone(in.End, meta.OriginalEndTimeZone)
		if err != nil {
			return nil, fmt.Errorf("failed to format end: %w", err)
		}
		ev.Start, ev.End = start, end
	}

	for _, a := range normalize.PromoteOrganizer(in.Attendees) {
		ev.Attendees = append(ev.Attendees, Attendee{
			EmailAddress: EmailAddress{Address: a.Email, Name: a.Name},
			Type:         normalize.ToMicrosoftType(a.Type),
			Status:       &ResponseStatus{Response: normalize.ToMicrosoftStatus(a.Status)},
		})
	}

	if in.Recurrence != nil {
		if in.Start == nil {
			return nil, fmt.Errorf("%w: start is needed to express a recurrence", models.ErrMissingField)
		}
		zone := ""
		if ev.Start != nil {
			zone = ev.Start.TimeZone
		}
		pr, err := formatRecurrence(in.Recurrence, in.Start, zone)
		if err != nil {
			return nil, fmt.Errorf("failed to convert recurrence: %w", err)
		}
		ev.Recurrence = pr
	}

	c.formatConference(ev, in.Conference, meta)

	if raw, ok := normalize.EncodeBlockedTime(meta.BlockedTime); ok {
		ev.SingleValueExtendedProperties = []SingleValueExtendedProperty{
			{ID: BlockedTimePropertyID(c.marker()), Value: raw},
		}
	}
	return ev, nil
}

// SerializeUpdate builds the patch payload for in. The own response is sent
// separately, see ResponseCallFor.
func (c *Codec) SerializeUpdate(in *models.UpdateEventInput) (*Event, error) {
	ev, err := c.SerializeEvent(&in.EventInput)
	if err != nil {
		return nil, err
	}
	ev.ID = in.EventID
	return ev, nil
}

func (c *Codec) formatConference(ev *Event, conf *models.Conference, meta *models.MicrosoftMetadata) {
	if conf == nil {
		return
	}
	teams := conf.Video == nil || conf.ID == "microsoft-teams"
	if !teams {
		// Third-party links travel in the location, where parsing finds them again.
		if ev.Location == nil {
			ev.Location = &Location{}
		}
		switch loc := ev.Location.DisplayName; {
		case loc == "":
			ev.Location.DisplayName = conf.Video.URI
		case !strings.Contains(loc, conf.Video.URI):
			ev.Location.DisplayName = loc + " / " + conf.Video.URI
		}
		return
	}
	online := true
	ev.IsOnlineMeeting = &online
	ev.OnlineMeetingProvider = meta.OnlineMeetingProvider
	if ev.OnlineMeetingProvider == "" {
		ev.OnlineMeetingProvider = "teamsForBusiness"
	}
}

func showAs(status models.EventStatus, stored string) string {
	switch status {
	case models.EventStatusTentative:
		return "tentative"
	case models.EventStatusConfirmed:
		if stored != "" && !strings.EqualFold(stored, "tentative") {
			return stored
		}
		return "busy"
	default:
		return stored
	}
}

// ResponseCall is the side request that records the account's own response.
type ResponseCall struct {
	Action string
	Body   ResponseRequest
}

// ResponseCallFor returns the side call an update needs, if any. A response
// whose status is unknown never produces one.
func ResponseCallFor(resp *models.Response, sendNotifications bool) (ResponseCall, bool) {
	if resp == nil {
		return ResponseCall{}, false
	}
	var action string
	switch resp.Status {
	case models.StatusAccepted:
		action = "accept"
	case models.StatusTentative:
		action = "tentativelyAccept"
	case models.StatusDeclined:
		action = "decline"
	default:
		return ResponseCall{}, false
	}
	return ResponseCall{
		Action: action,
		Body:   ResponseRequest{Comment: resp.Comment, SendResponse: sendNotifications},
	}, true
}

// ParseCalendar converts a Graph calendar.
func (c *Codec) ParseCalendar(cal *Calendar, accountID string) (*models.Calendar, error) {
	if cal == nil || cal.ID == "" {
		return nil, fmt.Errorf("%w: calendar id", models.ErrMissingField)
	}
	color := cal.HexColor
	if color == "" {
		color = cal.Color
	}
	return &models.Calendar{
		ID:                 cal.ID,
		Name:               cal.Name,
		Color:              color,
		Primary:            cal.IsDefaultCalendar,
		ReadOnly:           !cal.CanEdit,
		ProviderCalendarID: cal.ID,
		AccountID:          accountID,
		Provider:           models.ProviderMicrosoft,
	}, nil
}

// DecodeEvent parses a Graph event in JSON form.
func (c *Codec) DecodeEvent(data []byte, scope models.Scope) (*models.CalendarEvent, error) {
	var item Event
	if err := json.Unmarshal(data, &item); err != nil {
		return nil, fmt.Errorf("failed to unmarshal microsoft event: %w", err)
	}
	return c.ParseEvent(&item, scope)
}

// DecodeCalendar parses a Graph calendar in JSON form.
func (c *Codec) DecodeCalendar(data []byte, accountID string) (*models.Calendar, error) {
	var cal Calendar
	if err := json.Unmarshal(data, &cal); err != nil {
		return nil, fmt.Errorf("failed to unmarshal microsoft calendar: %w", err)
	}
	return c.ParseCalendar(&cal, accountID)
}

// EncodeEvent renders the create payload as JSON.
func (c *Codec) EncodeEvent(in *models.EventInput) ([]byte, error) {
	ev, err := c.SerializeEvent(in)
	if err != nil {
		return nil, err
	}
	return json.Marshal(ev)
}

// EncodeUpdate renders the patch payload as JSON.
func (c *Codec) EncodeUpdate(in *models.UpdateEventInput) ([]byte, error) {
	ev, err := c.SerializeUpdate(in)
	if err != nil {
		return nil, err
	}
	return json.Marshal(ev)
}

func (c *Codec) marker() string {
	if c.NewMarker != nil {
		return c.NewMarker()
	}
	return uuid.NewString()
}

func (c *Codec) logDebug(msg string, args ...any) {
	if c.Logger != nil {
		c.Logger.Debug(msg, args...)
	}
}
