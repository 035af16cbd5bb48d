package main

import (
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"

	"github.com/goccy/go-json"

	"calnorm/internal/google"
	"calnorm/internal/models"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestExtractCode(t *testing.T) {
	tcs := []struct {
		in   string
		want string
	}{
		{"4/0AbC", "4/0AbC"},
		{"  abc \n", "abc"},
		{"http://localhost/?code=M.R3_BAY&state=state-token", "M.R3_BAY"},
		{"http://localhost/?error=access_denied", "http://localhost/?error=access_denied"},
	}
	for _, tc := range tcs {
		if got := extractCode(tc.in); got != tc.want {
			t.Fatalf("extractCode(%q)=%q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestSplitDocuments(t *testing.T) {
	tcs := []struct {
		name    string
		in      string
		want    int
		wantErr bool
	}{
		{"object", `{"id":"a"}`, 1, false},
		{"array", ` [{"id":"a"},{"id":"b"}]`, 2, false},
		{"empty", "  ", 0, true},
		{"brokenArray", `[{"id":`, 0, true},
	}
	for _, tc := range tcs {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			docs, err := splitDocuments([]byte(tc.in))
			if (err != nil) != tc.wantErr {
				t.Fatalf("splitDocuments(%q) error=%v", tc.in, err)
			}
			if len(docs) != tc.want {
				t.Fatalf("splitDocuments(%q)=%d docs, want %d", tc.in, len(docs), tc.want)
			}
		})
	}
}

func TestConvertGoogleEvents(t *testing.T) {
	in := `[{"id":"e1","summary":"Offsite","start":{"date":"2024-03-01"},"end":{"date":"2024-03-02"}}]`
	out, err := convertDocuments(google.NewCodec(discardLogger()), "event", models.Scope{AccountID: "acct", CalendarID: "primary"}, []byte(in))
	if err != nil {
		t.Fatalf("convertDocuments: %v", err)
	}
	if len(out) != 1 {
		t.Fatalf("convertDocuments()=%d items, want 1", len(out))
	}
	ev, ok := out[0].(*models.CalendarEvent)
	if !ok || ev.Title != "Offsite" || !ev.AllDay || ev.CalendarID != "primary" {
		t.Fatalf("convertDocuments()=%+v", out[0])
	}

	data, err := json.Marshal(out)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	events, err := readEvents(data)
	if err != nil {
		t.Fatalf("readEvents: %v", err)
	}
	if len(events) != 1 || events[0].ID != "e1" {
		t.Fatalf("readEvents()=%+v", events)
	}

	if _, err := convertDocuments(google.NewCodec(discardLogger()), "task", models.Scope{}, []byte(in)); err == nil {
		t.Fatalf("convertDocuments(kind=task) expected error")
	}
}

func TestEncodeInput(t *testing.T) {
	create := `{"provider":"microsoft","calendarId":"cal","title":"Lunch","allDay":true,
		"start":{"type":"date","value":"2024-03-01"},"end":{"type":"date","value":"2024-03-02"}}`
	payload, err := encodeInput(discardLogger(), []byte(create), false)
	if err != nil {
		t.Fatalf("encodeInput: %v", err)
	}
	if !strings.Contains(string(payload), `"subject":"Lunch"`) || !strings.Contains(string(payload), `"isAllDay":true`) {
		t.Fatalf("encodeInput()=%s", payload)
	}

	update := `{"provider":"google","eventId":"e1","title":"Renamed"}`
	payload, err = encodeInput(discardLogger(), []byte(update), true)
	if err != nil {
		t.Fatalf("encodeInput(update): %v", err)
	}
	if !strings.Contains(string(payload), `"summary":"Renamed"`) {
		t.Fatalf("encodeInput(update)=%s", payload)
	}

	var verr *models.ValidationError
	_, err = encodeInput(discardLogger(), []byte(`{"provider":"google","title":"x"}`), false)
	if err == nil || !errors.As(err, &verr) {
		t.Fatalf("encodeInput(no dates) error=%v, want validation error", err)
	}
}
