package normalize

import (
	"testing"

	"calnorm/internal/models"
)

func TestPromoteOrganizer(t *testing.T) {
	list := []models.Attendee{
		{Email: "a@x.com"},
		{Email: "b@x.com"},
		{Email: "org@x.com", Organizer: true},
		{Email: "c@x.com"},
	}
	got := PromoteOrganizer(list)
	want := []string{"org@x.com", "a@x.com", "b@x.com", "c@x.com"}
	if len(got) != len(want) {
		t.Fatalf("PromoteOrganizer() len=%d, want %d", len(got), len(want))
	}
	for i, e := range want {
		if got[i].Email != e {
			t.Fatalf("PromoteOrganizer()[%d]=%q, want %q", i, got[i].Email, e)
		}
	}
	if list[0].Email != "a@x.com" {
		t.Fatalf("PromoteOrganizer modified its input")
	}

	noOrg := []models.Attendee{{Email: "a@x.com"}, {Email: "b@x.com"}}
	got = PromoteOrganizer(noOrg)
	if got[0].Email != "a@x.com" || got[1].Email != "b@x.com" {
		t.Fatalf("PromoteOrganizer without organizer reordered: %+v", got)
	}
}

func TestStatusRoundTrips(t *testing.T) {
	tcs := []struct {
		name   string
		status models.AttendeeStatus
	}{
		{"accepted", models.StatusAccepted},
		{"tentative", models.StatusTentative},
		{"declined", models.StatusDeclined},
		{"unknown", models.StatusUnknown},
	}

	for _, tc := range tcs {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			if got := GoogleStatus(ToGoogleStatus(tc.status)); got != tc.status {
				t.Fatalf("GoogleStatus(ToGoogleStatus(%q))=%q", tc.status, got)
			}
			if got := MicrosoftStatus(ToMicrosoftStatus(tc.status)); got != tc.status {
				t.Fatalf("MicrosoftStatus(ToMicrosoftStatus(%q))=%q", tc.status, got)
			}
		})
	}

	if got := ToGoogleStatus(models.StatusUnknown); got != "needsAction" {
		t.Fatalf("ToGoogleStatus(unknown)=%q, want %q", got, "needsAction")
	}
	for _, in := range []string{"none", "notResponded", ""} {
		if got := MicrosoftStatus(in); got != models.StatusUnknown {
			t.Fatalf("MicrosoftStatus(%q)=%q, want unknown", in, got)
		}
	}
	if got := MicrosoftStatus("organizer"); got != models.StatusAccepted {
		t.Fatalf("MicrosoftStatus(organizer)=%q, want accepted", got)
	}
}

func TestTypes(t *testing.T) {
	tcs := []struct {
		optional, resource bool
		expected           models.AttendeeType
	}{
		{false, false, models.AttendeeRequired},
		{true, false, models.AttendeeOptional},
		{false, true, models.AttendeeResource},
		{true, true, models.AttendeeResource},
	}
	for _, tc := range tcs {
		if got := GoogleType(tc.optional, tc.resource); got != tc.expected {
			t.Fatalf("GoogleType(%v, %v)=%q, want %q", tc.optional, tc.resource, got, tc.expected)
		}
	}
	if got := MicrosoftType("weird"); got != models.AttendeeRequired {
		t.Fatalf("MicrosoftType(weird)=%q, want required", got)
	}
	if got := ToMicrosoftType(MicrosoftType("Optional")); got != "optional" {
		t.Fatalf("ToMicrosoftType(MicrosoftType(Optional))=%q", got)
	}
}

func TestParseBlockedTime(t *testing.T) {
	tcs := []struct {
		name   string
		input  string
		expect *models.BlockedTime
	}{
		{"negativeDropped", `{"before":-1,"after":15}`, &models.BlockedTime{After: 15}},
		{"zeros", `{"before":0,"after":0}`, nil},
		{"both", `{"before":10,"after":5}`, &models.BlockedTime{Before: 10, After: 5}},
		{"fractional", `{"before":2.5,"after":5}`, &models.BlockedTime{After: 5}},
		{"string", `{"before":"10"}`, nil},
		{"malformed", `{before:10`, nil},
		{"empty", ``, nil},
	}

	for _, tc := range tcs {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			got := ParseBlockedTime(tc.input)
			if (got == nil) != (tc.expect == nil) {
				t.Fatalf("ParseBlockedTime(%q)=%+v, want %+v", tc.input, got, tc.expect)
			}
			if got != nil && *got != *tc.expect {
				t.Fatalf("ParseBlockedTime(%q)=%+v, want %+v", tc.input, *got, *tc.expect)
			}
		})
	}
}

func TestEncodeBlockedTime(t *testing.T) {
	s, ok := EncodeBlockedTime(&models.BlockedTime{Before: -5, After: 15})
	if !ok || s != `{"after":15}` {
		t.Fatalf("EncodeBlockedTime()=%q,%v, want %q", s, ok, `{"after":15}`)
	}
	if _, ok := EncodeBlockedTime(&models.BlockedTime{}); ok {
		t.Fatalf("EncodeBlockedTime(empty) should report nothing to store")
	}
}

func TestResolveFallbackPriority(t *testing.T) {
	c := ResolveFallback(
		"https://meet.google.com/abc-defg-hij",
		"Join at https://zoom.us/j/123456789",
	)
	if c == nil || c.ID != "google-meet" {
		t.Fatalf("ResolveFallback()=%+v, want google-meet", c)
	}
	if c.Video == nil || c.Video.URI != "https://meet.google.com/abc-defg-hij" {
		t.Fatalf("ResolveFallback() video=%+v", c.Video)
	}

	c = ResolveFallback("", "nothing here", "https://example.com")
	if c != nil {
		t.Fatalf("ResolveFallback() without links=%+v, want nil", c)
	}
}

func TestTelURI(t *testing.T) {
	tcs := []struct {
		input    string
		expected string
	}{
		{"+1 555 0100", "tel:+15550100"},
		{"tel:+15550100", "tel:+15550100"},
		{"TEL:+1", "TEL:+1"},
		{"", ""},
	}
	for _, tc := range tcs {
		if got := TelURI(tc.input); got != tc.expected {
			t.Fatalf("TelURI(%q)=%q, want %q", tc.input, got, tc.expected)
		}
	}
}
