// Package normalize holds the mapping rules shared by the provider codecs:
// attendee status and type tables, organizer ordering, conference resolution
// and the blocked-time window.
package normalize

import (
	"strings"

	"calnorm/internal/models"
)

// PromoteOrganizer moves the first organizer to index 0. Every other attendee
// keeps its relative order. The input slice is not modified.
func PromoteOrganizer(list []models.Attendee) []models.Attendee {
	if len(list) == 0 {
		return list
	}
	idx := -1
	for i, a := range list {
		if a.Organizer {
			idx = i
			break
		}
	}
	out := make([]models.Attendee, 0, len(list))
	if idx <= 0 {
		return append(out, list...)
	}
	out = append(out, list[idx])
	out = append(out, list[:idx]...)
	return append(out, list[idx+1:]...)
}

// GoogleStatus maps a Google responseStatus.
func GoogleStatus(s string) models.AttendeeStatus {
	switch s {
	case "accepted":
		return models.StatusAccepted
	case "tentative":
		return models.StatusTentative
	case "declined":
		return models.StatusDeclined
	default:
		return models.StatusUnknown
	}
}

// ToGoogleStatus is the inverse of GoogleStatus; unknown becomes needsAction.
func ToGoogleStatus(s models.AttendeeStatus) string {
	switch s {
	case models.StatusAccepted:
		return "accepted"
	case models.StatusTentative:
		return "tentative"
	case models.StatusDeclined:
		return "declined"
	default:
		return "needsAction"
	}
}

// GoogleType derives the attendee type from Google's flags.
func GoogleType(optional, resource bool) models.AttendeeType {
	switch {
	case resource:
		return models.AttendeeResource
	case optional:
		return models.AttendeeOptional
	default:
		return models.AttendeeRequired
	}
}

// MicrosoftStatus maps a Graph status.response.
func MicrosoftStatus(s string) models.AttendeeStatus {
	switch strings.ToLower(s) {
	case "accepted", "organizer":
		return models.StatusAccepted
	case "tentativelyaccepted":
		return models.StatusTentative
	case "declined":
		return models.StatusDeclined
	default:
		return models.StatusUnknown
	}
}

// ToMicrosoftStatus is the inverse of MicrosoftStatus; unknown becomes none.
func ToMicrosoftStatus(s models.AttendeeStatus) string {
	switch s {
	case models.StatusAccepted:
		return "accepted"
	case models.StatusTentative:
		return "tentativelyAccepted"
	case models.StatusDeclined:
		return "declined"
	default:
		return "none"
	}
}

// MicrosoftType maps a Graph attendee type. Unrecognized types are required.
func MicrosoftType(t string) models.AttendeeType {
	switch strings.ToLower(t) {
	case "optional":
		return models.AttendeeOptional
	case "resource":
		return models.AttendeeResource
	default:
		return models.AttendeeRequired
	}
}

// ToMicrosoftType is the inverse of MicrosoftType.
func ToMicrosoftType(t models.AttendeeType) string {
	switch t {
	case models.AttendeeOptional:
		return "optional"
	case models.AttendeeResource:
		return "resource"
	default:
		return "required"
	}
}
