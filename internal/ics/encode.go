// Package ics renders canonical events as iCalendar objects.
package ics

import (
	"fmt"
	"io"
	"time"

	"github.com/emersion/go-ical"
	"github.com/google/uuid"

	"calnorm/internal/datetime"
	"calnorm/internal/models"
	"calnorm/internal/recurrence"
)

// ProductID is written as PRODID on every calendar.
const ProductID = "-//calnorm//EN"

const (
	compactDate     = "20060102"
	compactDateTime = "20060102T150405"
	compactUTC      = "20060102T150405Z"

	// RFC 7986 properties.
	propColor      = "COLOR"
	propConference = "CONFERENCE"
	paramFeature   = "FEATURE"
	paramLabel     = "LABEL"
)

var statuses = map[models.EventStatus]string{
	models.EventStatusConfirmed: "CONFIRMED",
	models.EventStatusTentative: "TENTATIVE",
	models.EventStatusCancelled: "CANCELLED",
}

var partStats = map[models.AttendeeStatus]string{
	models.StatusAccepted:  "ACCEPTED",
	models.StatusTentative: "TENTATIVE",
	models.StatusDeclined:  "DECLINED",
	models.StatusUnknown:   "NEEDS-ACTION",
}

var roles = map[models.AttendeeType]string{
	models.AttendeeRequired: "REQ-PARTICIPANT",
	models.AttendeeOptional: "OPT-PARTICIPANT",
	models.AttendeeResource: "NON-PARTICIPANT",
}

// NewCalendar wraps events in a VCALENDAR carrying the required headers.
func NewCalendar(events ...*ical.Component) *ical.Calendar {
	cal := ical.NewCalendar()
	cal.Props.SetText(ical.PropVersion, "2.0")
	cal.Props.SetText(ical.PropProductID, ProductID)
	cal.Children = append(cal.Children, events...)
	return cal
}

// Encode writes cal to w.
func Encode(w io.Writer, cal *ical.Calendar) error {
	if err := ical.NewEncoder(w).Encode(cal); err != nil {
		return fmt.Errorf("failed to encode event to iCal format: %w", err)
	}
	return nil
}

// StableUID derives a UID from the event key, so repeated exports of the same
// event agree.
func StableUID(ev *models.CalendarEvent) string {
	return uuid.NewSHA1(uuid.NameSpaceURL, []byte(ev.Key())).String()
}

// Event converts ev into a VEVENT identified by uid. stamp becomes DTSTAMP.
func Event(ev *models.CalendarEvent, uid string, stamp time.Time) (*ical.Component, error) {
	if uid == "" {
		return nil, fmt.Errorf("%w: uid", models.ErrMissingField)
	}
	if ev.Start == nil || ev.End == nil {
		return nil, fmt.Errorf("%w: start and end", models.ErrMissingField)
	}

	ve := ical.NewComponent(ical.CompEvent)
	ve.Props.SetText(ical.PropUID, uid)
	ve.Props.SetDateTime(ical.PropDateTimeStamp, stamp.UTC())

	start, err := dateProp(ical.PropDateTimeStart, ev.Start)
	if err != nil {
		return nil, err
	}
	end, err := dateProp(ical.PropDateTimeEnd, ev.End)
	if err != nil {
		return nil, err
	}
	ve.Props.Set(start)
	ve.Props.Set(end)

	if ev.Title != "" {
		ve.Props.SetText(ical.PropSummary, ev.Title)
	}
	if ev.Description != "" {
		ve.Props.SetText(ical.PropDescription, ev.Description)
	}
	if ev.Location != "" {
		ve.Props.SetText(ical.PropLocation, ev.Location)
	}
	if ev.URL != "" {
		p := ical.NewProp(ical.PropURL)
		p.Value = ev.URL
		ve.Props.Set(p)
	}
	if ev.Color != "" {
		ve.Props.SetText(propColor, ev.Color)
	}
	if s, ok := statuses[ev.Status]; ok {
		ve.Props.SetText(ical.PropStatus, s)
	}

	addAttendees(ve, ev.Attendees)

	lines, err := recurrence.Export(ev.Recurrence, ev.AllDay)
	if err != nil {
		return nil, fmt.Errorf("failed to export recurrence: %w", err)
	}
	for _, raw := range lines {
		l := recurrence.SplitLine(raw)
		p := ical.NewProp(l.Name)
		for k, v := range l.Params {
			p.Params.Set(k, v)
		}
		p.Value = l.Value
		ve.Props.Add(p)
	}

	addConference(ve, ev.Conference)
	return ve, nil
}

func addAttendees(ve *ical.Component, attendees []models.Attendee) {
	for _, a := range attendees {
		if a.Organizer {
			p := ical.NewProp(ical.PropOrganizer)
			p.Value = "mailto:" + a.Email
			if a.Name != "" {
				p.Params.Set(ical.ParamCommonName, a.Name)
			}
			ve.Props.Set(p)
		}

		p := ical.NewProp(ical.PropAttendee)
		p.Value = "mailto:" + a.Email
		if a.Name != "" {
			p.Params.Set(ical.ParamCommonName, a.Name)
		}
		if s, ok := partStats[a.Status]; ok {
			p.Params.Set(ical.ParamParticipationStatus, s)
		}
		if r, ok := roles[a.Type]; ok {
			p.Params.Set(ical.ParamRole, r)
		}
		if a.Type == models.AttendeeResource {
			p.Params.Set(ical.ParamCalendarUserType, "RESOURCE")
		}
		ve.Props.Add(p)
	}
}

func addConference(ve *ical.Component, c *models.Conference) {
	if c == nil {
		return
	}
	add := func(ep *models.EntryPoint, features ...string) {
		if ep == nil || ep.URI == "" {
			return
		}
		p := ical.NewProp(propConference)
		p.Params.Set(ical.ParamValue, string(ical.ValueURI))
		p.Params[paramFeature] = features
		label := ep.Label
		if label == "" {
			label = c.Name
		}
		if label != "" {
			p.Params.Set(paramLabel, label)
		}
		p.Value = ep.URI
		ve.Props.Add(p)
	}
	add(c.Video, "AUDIO", "VIDEO")
	for i := range c.Phone {
		add(&c.Phone[i], "PHONE")
	}
}

// dateProp renders v: dates as VALUE=DATE, instants in UTC and zoned values
// as wall time with TZID.
func dateProp(name string, v datetime.Value) (*ical.Prop, error) {
	p := ical.NewProp(name)
	switch v := v.(type) {
	case datetime.Date:
		p.Params.Set(ical.ParamValue, string(ical.ValueDate))
		p.Value = v.In(time.UTC).Format(compactDate)
	case datetime.Instant:
		p.Value = v.Time.UTC().Format(compactUTC)
	case datetime.Zoned:
		p.Params.Set(ical.ParamTimezoneID, v.Zone)
		p.Value = v.Time.Format(compactDateTime)
	default:
		return nil, fmt.Errorf("unsupported %s value %T", name, v)
	}
	return p, nil
}
