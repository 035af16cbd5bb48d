package models

import (
	"calnorm/internal/datetime"
)

// Provider identifies the calendar service an entity came from.
type Provider string

const (
	ProviderGoogle    Provider = "google"
	ProviderMicrosoft Provider = "microsoft"
)

// IsValid returns true if the provider is a known value.
func (p Provider) IsValid() bool {
	return p == ProviderGoogle || p == ProviderMicrosoft
}

// EventStatus is the canonical lifecycle status of an event.
type EventStatus string

const (
	EventStatusConfirmed EventStatus = "confirmed"
	EventStatusTentative EventStatus = "tentative"
	EventStatusCancelled EventStatus = "cancelled"
)

// IsValid returns true if the status is empty or a known value.
func (s EventStatus) IsValid() bool {
	switch s {
	case "", EventStatusConfirmed, EventStatusTentative, EventStatusCancelled:
		return true
	}
	return false
}

// Response is the viewing account's own attendance on an event.
type Response struct {
	Status  AttendeeStatus `json:"status"`
	Comment string         `json:"comment,omitempty"`
}

// CalendarEvent is the canonical event, independent of any provider.
// It is rebuilt from the provider payload on every fetch.
type CalendarEvent struct {
	ID          string
	Title       string
	Description string
	Location    string
	URL         string
	Color       string
	Status      EventStatus

	// Start and End are both Date for all-day events.
	Start  datetime.Value
	End    datetime.Value
	AllDay bool

	// Attendees keeps the organizer, if any, at index 0.
	Attendees []Attendee
	Response  *Response

	Conference       *Conference
	Recurrence       *Recurrence
	RecurringEventID string

	Provider   Provider
	AccountID  string
	CalendarID string
	ReadOnly   bool

	// Metadata carries provider-specific round-trip data. Its Provider()
	// always matches Provider.
	Metadata Metadata
}

// Organizer returns the organizer attendee, if present.
func (e *CalendarEvent) Organizer() (Attendee, bool) {
	for _, a := range e.Attendees {
		if a.Organizer {
			return a, true
		}
	}
	return Attendee{}, false
}

// Key identifies the event across sync cycles.
func (e *CalendarEvent) Key() string {
	return string(e.Provider) + ":" + e.AccountID + ":" + e.CalendarID + ":" + e.ID
}

// Scope tells a codec which account and calendar an event belongs to.
type Scope struct {
	AccountID  string
	CalendarID string
	ReadOnly   bool
}

// ScopeOf returns the scope for events of cal.
func ScopeOf(cal *Calendar) Scope {
	if cal == nil {
		return Scope{}
	}
	return Scope{AccountID: cal.AccountID, CalendarID: cal.ProviderCalendarID, ReadOnly: cal.ReadOnly}
}
