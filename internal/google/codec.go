package google

import (
	"fmt"
	"log/slog"
	"maps"
	"slices"
	"strings"

	"github.com/goccy/go-json"
	"github.com/google/uuid"
	"google.golang.org/api/calendar/v3"

	"calnorm/internal/datetime"
	"calnorm/internal/models"
	"calnorm/internal/normalize"
	"calnorm/internal/recurrence"
)

// BlockedTimeKey is the private extended property holding the blocked-time
// JSON blob.
const BlockedTimeKey = "blockedTime"

// EventPayload is what Events.Insert and Events.Patch are called with.
type EventPayload struct {
	Event                 *calendar.Event `json:"event"`
	ConferenceDataVersion int64           `json:"conferenceDataVersion"`
}

// Codec converts Google Calendar resources to and from the canonical model.
type Codec struct {
	// NewRequestID generates conference create request ids.
	NewRequestID func() string
	Logger       *slog.Logger
}

// NewCodec returns a codec using random request ids.
func NewCodec(logger *slog.Logger) *Codec {
	return &Codec{NewRequestID: uuid.NewString, Logger: logger}
}

func (c *Codec) Provider() models.Provider { return models.ProviderGoogle }

// ParseEvent converts a Google event. A missing start or end is reported as
// models.ErrMissingField.
func (c *Codec) ParseEvent(item *calendar.Event, scope models.Scope) (*models.CalendarEvent, error) {
	if item == nil {
		return nil, fmt.Errorf("%w: event", models.ErrMissingField)
	}
	start, err := parseEventDateTime(item.Start, "start")
	if err != nil {
		return nil, err
	}
	end, err := parseEventDateTime(item.End, "end")
	if err != nil {
		return nil, err
	}

	ev := &models.CalendarEvent{
		ID:               item.Id,
		Title:            item.Summary,
		Description:      item.Description,
		Location:         item.Location,
		Color:            item.ColorId,
		Status:           models.EventStatus(item.Status),
		Start:            start,
		End:              end,
		AllDay:           item.Start.DateTime == "",
		RecurringEventID: item.RecurringEventId,
		Provider:         models.ProviderGoogle,
		AccountID:        scope.AccountID,
		CalendarID:       scope.CalendarID,
		ReadOnly:         scope.ReadOnly,
	}
	if !ev.Status.IsValid() {
		c.logDebug("Unknown event status, dropping it", "eventID", item.Id, "status", item.Status)
		ev.Status = ""
	}
	if item.Source != nil {
		ev.URL = item.Source.Url
	}

	for _, a := range item.Attendees {
		if a == nil || a.Email == "" {
			continue
		}
		att := models.Attendee{
			Email:            a.Email,
			Name:             a.DisplayName,
			Status:           normalize.GoogleStatus(a.ResponseStatus),
			Type:             normalize.GoogleType(a.Optional, a.Resource),
			Comment:          a.Comment,
			AdditionalGuests: int(a.AdditionalGuests),
			Organizer:        a.Organizer,
		}
		ev.Attendees = append(ev.Attendees, att)
		if a.Self && ev.Response == nil {
			ev.Response = &models.Response{Status: att.Status, Comment: a.Comment}
		}
	}
	ev.Attendees = normalize.PromoteOrganizer(ev.Attendees)

	ev.Recurrence = recurrence.Parse(item.Recurrence, datetime.SeriesLocation(start))
	if ev.Recurrence == nil && recurrence.HasRule(item.Recurrence) {
		c.logDebug("Ignoring recurrence without a known frequency", "eventID", item.Id, "recurrence", item.Recurrence)
	}
	ev.Conference = parseConference(item)

	meta := &models.GoogleMetadata{
		OriginalRecurrence: slices.Clone(item.Recurrence),
		RecurringEventID:   item.RecurringEventId,
		HTMLLink:           item.HtmlLink,
	}
	if item.ExtendedProperties != nil {
		meta.ExtendedProperties = &models.ExtendedProperties{
			Private: maps.Clone(item.ExtendedProperties.Private),
			Shared:  maps.Clone(item.ExtendedProperties.Shared),
		}
		if raw, ok := item.ExtendedProperties.Private[BlockedTimeKey]; ok {
			meta.BlockedTime = normalize.ParseBlockedTime(raw)
			if meta.BlockedTime == nil {
				c.logDebug("Ignoring blocked time without admissible values", "eventID", item.Id, "raw", raw)
			}
		}
	}
	if !ev.AllDay {
		meta.OriginalStartTimeZone = datetime.NewProvenance(item.Start.TimeZone)
		meta.OriginalEndTimeZone = datetime.NewProvenance(item.End.TimeZone)
	}
	ev.Metadata = meta
	return ev, nil
}

// SerializeEvent builds the insert payload for in.
func (c *Codec) SerializeEvent(in *models.EventInput) (*EventPayload, error) {
	if err := models.CheckMetadata(models.ProviderGoogle, in.Metadata); err != nil {
		return nil, err
	}
	meta, _ := in.Metadata.(*models.GoogleMetadata)
	if meta == nil {
		meta = &models.GoogleMetadata{}
	}

	ev := &calendar.Event{
		Summary:     in.Title,
		Description: in.Description,
		Location:    in.Location,
		ColorId:     in.Color,
		Status:      string(in.Status),
	}
	if in.URL != "" {
		ev.Source = &calendar.EventSource{Url: in.URL, Title: in.Title}
	}

	if in.Start != nil {
		start, err := formatEventDateTime(in.Start, meta.OriginalStartTimeZone)
		if err != nil {
			return nil, fmt.Errorf("failed to format start: %w", err)
		}
		ev.Start = start
	}
	if in.End != nil {
		end, err := formatEventDateTime(in.End, meta.OriginalEndTimeZone)
		if err != nil {
			return nil, fmt.Errorf("failed to format end: %w", err)
		}
		ev.End = end
	}

	for _, a := range normalize.PromoteOrganizer(in.Attendees) {
		ev.Attendees = append(ev.Attendees, &calendar.EventAttendee{
			Email:            a.Email,
			DisplayName:      a.Name,
			Optional:         a.Type == models.AttendeeOptional,
			Resource:         a.Type == models.AttendeeResource,
			ResponseStatus:   normalize.ToGoogleStatus(a.Status),
			Comment:          a.Comment,
			AdditionalGuests: int64(a.AdditionalGuests),
			Organizer:        a.Organizer,
		})
	}

	switch {
	case in.Recurrence != nil:
		lines, err := recurrence.Export(in.Recurrence, in.AllDay)
		if err != nil {
			return nil, fmt.Errorf("failed to export recurrence: %w", err)
		}
		ev.Recurrence = lines
	case len(meta.OriginalRecurrence) > 0:
		ev.Recurrence = slices.Clone(meta.OriginalRecurrence)
	}

	ev.ConferenceData = formatConference(in.Conference, c.requestID)
	ev.ExtendedProperties = extendedProperties(meta)

	return &EventPayload{Event: ev, ConferenceDataVersion: 1}, nil
}

// SerializeUpdate builds the patch payload for in. The own response is not
// part of it: Google records it on the account's attendee entry, which only
// the stored event identifies. See ApplyResponse.
func (c *Codec) SerializeUpdate(in *models.UpdateEventInput) (*EventPayload, error) {
	p, err := c.SerializeEvent(&in.EventInput)
	if err != nil {
		return nil, err
	}
	p.Event.Id = in.EventID
	return p, nil
}

// SelfEmail returns the email of the attendee entry that belongs to the
// account, or "" when the account is not invited.
func SelfEmail(ev *calendar.Event) string {
	if ev == nil {
		return ""
	}
	for _, a := range ev.Attendees {
		if a != nil && a.Self {
			return a.Email
		}
	}
	return ""
}

// ApplyResponse records resp on the attendee entry of self in ev, adding the
// entry when ev does not list it. It reports false, leaving ev untouched, for
// a nil response or one whose status is unknown.
func ApplyResponse(ev *calendar.Event, self string, resp *models.Response) bool {
	if resp == nil || resp.Status == models.StatusUnknown || !resp.Status.IsValid() || self == "" {
		return false
	}
	var entry *calendar.EventAttendee
	for _, a := range ev.Attendees {
		if a != nil && strings.EqualFold(a.Email, self) {
			entry = a
			break
		}
	}
	if entry == nil {
		entry = &calendar.EventAttendee{Email: self}
		ev.Attendees = append(ev.Attendees, entry)
	}
	entry.ResponseStatus = normalize.ToGoogleStatus(resp.Status)
	entry.Comment = resp.Comment
	return true
}

// ParseCalendar converts a calendar list entry.
func (c *Codec) ParseCalendar(entry *calendar.CalendarListEntry, accountID string) (*models.Calendar, error) {
	if entry == nil || entry.Id == "" {
		return nil, fmt.Errorf("%w: calendar id", models.ErrMissingField)
	}
	name := entry.SummaryOverride
	if name == "" {
		name = entry.Summary
	}
	return &models.Calendar{
		ID:                 entry.Id,
		Name:               name,
		Description:        entry.Description,
		TimeZone:           entry.TimeZone,
		Color:              entry.BackgroundColor,
		Primary:            entry.Primary,
		ReadOnly:           entry.AccessRole != "owner" && entry.AccessRole != "writer",
		ProviderCalendarID: entry.Id,
		AccountID:          accountID,
		Provider:           models.ProviderGoogle,
	}, nil
}

// DecodeEvent parses a Google event resource in JSON form.
func (c *Codec) DecodeEvent(data []byte, scope models.Scope) (*models.CalendarEvent, error) {
	var item calendar.Event
	if err := json.Unmarshal(data, &item); err != nil {
		return nil, fmt.Errorf("failed to unmarshal google event: %w", err)
	}
	return c.ParseEvent(&item, scope)
}

// DecodeCalendar parses a Google calendar list entry in JSON form.
func (c *Codec) DecodeCalendar(data []byte, accountID string) (*models.Calendar, error) {
	var entry calendar.CalendarListEntry
	if err := json.Unmarshal(data, &entry); err != nil {
		return nil, fmt.Errorf("failed to unmarshal google calendar: %w", err)
	}
	return c.ParseCalendar(&entry, accountID)
}

// EncodeEvent renders the insert payload as JSON.
func (c *Codec) EncodeEvent(in *models.EventInput) ([]byte, error) {
	p, err := c.SerializeEvent(in)
	if err != nil {
		return nil, err
	}
	return json.Marshal(p)
}

// EncodeUpdate renders the patch payload as JSON.
func (c *Codec) EncodeUpdate(in *models.UpdateEventInput) ([]byte, error) {
	p, err := c.SerializeUpdate(in)
	if err != nil {
		return nil, err
	}
	return json.Marshal(p)
}

// extendedProperties carries the stored properties over and replaces the
// blocked-time entry with the current window.
func extendedProperties(meta *models.GoogleMetadata) *calendar.EventExtendedProperties {
	var private, shared map[string]string
	if meta.ExtendedProperties != nil {
		private = maps.Clone(meta.ExtendedProperties.Private)
		shared = maps.Clone(meta.ExtendedProperties.Shared)
	}
	delete(private, BlockedTimeKey)
	if raw, ok := normalize.EncodeBlockedTime(meta.BlockedTime); ok {
		if private == nil {
			private = make(map[string]string)
		}
		private[BlockedTimeKey] = raw
	}
	if len(private) == 0 && len(shared) == 0 {
		return nil
	}
	return &calendar.EventExtendedProperties{Private: private, Shared: shared}
}

func (c *Codec) requestID() string {
	if c.NewRequestID != nil {
		return c.NewRequestID()
	}
	return uuid.NewString()
}

func (c *Codec) logDebug(msg string, args ...any) {
	if c.Logger != nil {
		c.Logger.Debug(msg, args...)
	}
}
