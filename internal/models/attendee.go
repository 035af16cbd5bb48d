package models

// AttendeeStatus is the canonical response status.
type AttendeeStatus string

const (
	StatusAccepted  AttendeeStatus = "accepted"
	StatusTentative AttendeeStatus = "tentative"
	StatusDeclined  AttendeeStatus = "declined"
	StatusUnknown   AttendeeStatus = "unknown"
)

// IsValid returns true if the status is a known value.
func (s AttendeeStatus) IsValid() bool {
	switch s {
	case StatusAccepted, StatusTentative, StatusDeclined, StatusUnknown:
		return true
	}
	return false
}

// AttendeeType is the canonical participation type.
type AttendeeType string

const (
	AttendeeRequired AttendeeType = "required"
	AttendeeOptional AttendeeType = "optional"
	AttendeeResource AttendeeType = "resource"
)

// IsValid returns true if the type is a known value.
func (t AttendeeType) IsValid() bool {
	switch t {
	case AttendeeRequired, AttendeeOptional, AttendeeResource:
		return true
	}
	return false
}

// Attendee is one participant of an event.
type Attendee struct {
	Email            string         `json:"email"`
	Name             string         `json:"name,omitempty"`
	Status           AttendeeStatus `json:"status"`
	Type             AttendeeType   `json:"type"`
	Comment          string         `json:"comment,omitempty"`
	AdditionalGuests int            `json:"additionalGuests,omitempty"`
	Organizer        bool           `json:"organizer,omitempty"`
}
