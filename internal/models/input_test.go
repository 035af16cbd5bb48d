package models

import (
	"errors"
	"strings"
	"testing"
	"time"

	"calnorm/internal/datetime"
)

func validInput() EventInput {
	start := time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)
	return EventInput{
		Provider: ProviderGoogle,
		Title:    "Standup",
		Start:    datetime.NewZoned(start, time.UTC),
		End:      datetime.NewZoned(start.Add(30*time.Minute), time.UTC),
		Attendees: []Attendee{
			{Email: "a@example.com", Status: StatusUnknown, Type: AttendeeRequired},
		},
	}
}

func TestEventInputValidate(t *testing.T) {
	tcs := []struct {
		name    string
		mutate  func(in *EventInput)
		wantErr string
	}{
		{"valid", func(in *EventInput) {}, ""},
		{"missingStart", func(in *EventInput) { in.Start = nil }, "start is required"},
		{"badProvider", func(in *EventInput) { in.Provider = "yahoo" }, "provider"},
		{"endBeforeStart", func(in *EventInput) { in.Start, in.End = in.End, in.Start }, "end must not be before start"},
		{"allDayMismatch", func(in *EventInput) { in.AllDay = true }, "allDay"},
		{"badEmail", func(in *EventInput) { in.Attendees[0].Email = "nobody" }, "invalid email"},
		{"zeroSetPos", func(in *EventInput) {
			in.Recurrence = &Recurrence{Freq: FreqMonthly, ByDay: []WeekdayNum{{Day: Monday}}, BySetPos: []int{0}}
		}, "bySetPos value 0"},
		{"largeSetPos", func(in *EventInput) {
			in.Recurrence = &Recurrence{Freq: FreqMonthly, BySetPos: []int{-367}}
		}, "bySetPos value -367"},
		{"negativeSetPosOK", func(in *EventInput) {
			in.Recurrence = &Recurrence{Freq: FreqMonthly, ByDay: []WeekdayNum{{Day: Friday}}, BySetPos: []int{-1}}
		}, ""},
		{"countAndUntil", func(in *EventInput) {
			in.Recurrence = &Recurrence{Freq: FreqDaily, Count: 3, Until: datetime.NewDate(2024, 4, 1)}
		}, "mutually exclusive"},
		{"metadataMismatch", func(in *EventInput) { in.Metadata = &MicrosoftMetadata{} }, "metadata provider"},
	}

	for _, tc := range tcs {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			in := validInput()
			tc.mutate(&in)
			err := in.Validate()
			if tc.wantErr == "" {
				if err != nil {
					t.Fatalf("Validate()=%v, want nil", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tc.wantErr) {
				t.Fatalf("Validate()=%v, want error containing %q", err, tc.wantErr)
			}
			var verr *ValidationError
			if !errors.As(err, &verr) {
				t.Fatalf("expected *ValidationError, got %T", err)
			}
		})
	}
}

func TestUpdateEventInputValidate(t *testing.T) {
	in := UpdateEventInput{EventInput: EventInput{Provider: ProviderMicrosoft}, EventID: "abc"}
	if err := in.Validate(); err != nil {
		t.Fatalf("Validate()=%v, want nil", err)
	}

	in.Start = datetime.NewDate(2024, 3, 1)
	if err := in.Validate(); err == nil || !strings.Contains(err.Error(), "together") {
		t.Fatalf("Validate()=%v, want start/end pairing error", err)
	}

	in.Start = nil
	in.Response = &Response{Status: "maybe"}
	if err := in.Validate(); err == nil || !strings.Contains(err.Error(), "response status") {
		t.Fatalf("Validate()=%v, want response status error", err)
	}
}

func TestCheckMetadata(t *testing.T) {
	if err := CheckMetadata(ProviderGoogle, &GoogleMetadata{}); err != nil {
		t.Fatalf("CheckMetadata(google, google)=%v", err)
	}
	if err := CheckMetadata(ProviderGoogle, nil); err != nil {
		t.Fatalf("CheckMetadata(google, nil)=%v", err)
	}
	if err := CheckMetadata(ProviderGoogle, &MicrosoftMetadata{}); !errors.Is(err, ErrProviderMismatch) {
		t.Fatalf("CheckMetadata(google, microsoft)=%v, want ErrProviderMismatch", err)
	}
}
