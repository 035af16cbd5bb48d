package models

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"calnorm/internal/datetime"
)

// ErrMissingField marks a provider payload that lacks a required field.
var ErrMissingField = errors.New("missing required field")

// ValidationError lists every problem found in an input.
type ValidationError struct {
	Problems []string
}

func (e *ValidationError) Error() string {
	return "invalid event input: " + strings.Join(e.Problems, "; ")
}

func (e *ValidationError) add(format string, args ...any) {
	e.Problems = append(e.Problems, fmt.Sprintf(format, args...))
}

func (e *ValidationError) orNil() error {
	if len(e.Problems) == 0 {
		return nil
	}
	return e
}

// EventInput is a canonical create request. Empty strings mean "not set".
type EventInput struct {
	Provider   Provider
	AccountID  string
	CalendarID string

	Title       string
	Description string
	Location    string
	URL         string
	Color       string
	Status      EventStatus

	Start  datetime.Value
	End    datetime.Value
	AllDay bool

	Attendees  []Attendee
	Conference *Conference
	Recurrence *Recurrence
	Metadata   Metadata
}

// UpdateEventInput is a canonical update request. Nil Start/End leave the
// provider values untouched.
type UpdateEventInput struct {
	EventInput
	EventID string
	// Response, when set, is the account's own attendance.
	Response          *Response
	SendNotifications bool
}

// Validate checks a create request.
func (in *EventInput) Validate() error {
	verr := &ValidationError{}
	if in.Start == nil {
		verr.add("start is required")
	}
	if in.End == nil {
		verr.add("end is required")
	}
	in.validate(verr)
	return verr.orNil()
}

// Validate checks an update request.
func (in *UpdateEventInput) Validate() error {
	verr := &ValidationError{}
	if in.EventID == "" {
		verr.add("event id is required")
	}
	if (in.Start == nil) != (in.End == nil) {
		verr.add("start and end must be updated together")
	}
	in.EventInput.validate(verr)
	if in.Response != nil && !in.Response.Status.IsValid() {
		verr.add("response status %q is invalid", in.Response.Status)
	}
	return verr.orNil()
}

func (in *EventInput) validate(verr *ValidationError) {
	if !in.Provider.IsValid() {
		verr.add("provider %q is invalid", in.Provider)
	}
	if err := CheckMetadata(in.Provider, in.Metadata); err != nil {
		verr.add("%v", err)
	}
	if !in.Status.IsValid() {
		verr.add("status %q is invalid", in.Status)
	}

	if in.Start != nil && in.End != nil {
		startDate, endDate := datetime.IsDate(in.Start), datetime.IsDate(in.End)
		if startDate != endDate {
			verr.add("start and end must both be dates or both be date-times")
		}
		if in.AllDay != startDate {
			verr.add("allDay must be true exactly when start and end are dates")
		}
		start, serr := datetime.Time(in.Start, time.UTC)
		end, eerr := datetime.Time(in.End, time.UTC)
		if serr != nil || eerr != nil {
			verr.add("start or end has an unsupported value")
		} else if end.Before(start) {
			verr.add("end must not be before start")
		}
	}

	for i, a := range in.Attendees {
		if a.Email == "" || !strings.Contains(a.Email, "@") {
			verr.add("attendee %d has invalid email %q", i, a.Email)
		}
		if a.Status != "" && !a.Status.IsValid() {
			verr.add("attendee %d has invalid status %q", i, a.Status)
		}
		if a.Type != "" && !a.Type.IsValid() {
			verr.add("attendee %d has invalid type %q", i, a.Type)
		}
		if a.AdditionalGuests < 0 {
			verr.add("attendee %d has negative additional guests", i)
		}
	}

	if in.Recurrence != nil {
		validateRecurrence(in.Recurrence, verr)
	}
}

func validateRecurrence(r *Recurrence, verr *ValidationError) {
	if !r.Freq.IsValid() {
		verr.add("recurrence frequency %q is invalid", r.Freq)
	}
	if r.Interval < 0 {
		verr.add("recurrence interval must not be negative")
	}
	if r.Count < 0 {
		verr.add("recurrence count must not be negative")
	}
	if r.Count > 0 && r.Until != nil {
		verr.add("recurrence count and until are mutually exclusive")
	}
	for _, d := range r.ByDay {
		if !d.Day.IsValid() {
			verr.add("recurrence weekday %q is invalid", d.Day)
		}
		if d.N < -53 || d.N > 53 {
			verr.add("recurrence weekday ordinal %d is out of range", d.N)
		}
	}
	if r.WeekStart != "" && !r.WeekStart.IsValid() {
		verr.add("recurrence week start %q is invalid", r.WeekStart)
	}
	checkRange(verr, "byMonth", r.ByMonth, 1, 12, false)
	checkRange(verr, "byMonthDay", r.ByMonthDay, 1, 31, true)
	checkRange(verr, "byYearDay", r.ByYearDay, 1, 366, true)
	checkRange(verr, "byWeekNo", r.ByWeekNo, 1, 53, true)
	checkRange(verr, "byHour", r.ByHour, 0, 23, false)
	checkRange(verr, "byMinute", r.ByMinute, 0, 59, false)
	checkRange(verr, "bySecond", r.BySecond, 0, 60, false)
	checkRange(verr, "bySetPos", r.BySetPos, 1, 366, true)
}

// checkRange verifies min <= v <= max, or min <= |v| <= max when signed.
func checkRange(verr *ValidationError, field string, values []int, min, max int, signed bool) {
	for _, v := range values {
		abs := v
		if signed && abs < 0 {
			abs = -abs
		}
		if abs < min || abs > max {
			verr.add("%s value %d is out of range", field, v)
		}
	}
}
