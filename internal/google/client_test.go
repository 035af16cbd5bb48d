package google

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/goccy/go-json"
	"google.golang.org/api/calendar/v3"
	"google.golang.org/api/option"

	"calnorm/internal/datetime"
	"calnorm/internal/models"
	"calnorm/internal/provider"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *CalendarClient {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	c, err := NewClientWithOptions(context.Background(), logger, "acct",
		option.WithEndpoint(srv.URL+"/"),
		option.WithHTTPClient(srv.Client()),
	)
	if err != nil {
		t.Fatalf("NewClientWithOptions: %v", err)
	}
	return c
}

func TestListEventsSkipsMalformed(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasSuffix(r.URL.Path, "/calendars/primary/events") {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		io.WriteString(w, `{"items":[
			{"id":"ok","summary":"A","start":{"date":"2024-03-01"},"end":{"date":"2024-03-02"}},
			{"id":"broken","summary":"B","end":{"date":"2024-03-02"}}
		]}`)
	})

	events, err := c.ListEvents(context.Background(), models.Calendar{ProviderCalendarID: "primary", AccountID: "acct"}, provider.Window{})
	if err != nil {
		t.Fatalf("ListEvents: %v", err)
	}
	if len(events) != 1 || events[0].ID != "ok" {
		t.Fatalf("ListEvents()=%+v, want only the well-formed event", events)
	}
	if events[0].AccountID != "acct" || events[0].CalendarID != "primary" {
		t.Fatalf("scope not applied: %+v", events[0])
	}
}

func TestListEventsWrapsFailures(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":{"code":404,"message":"not found"}}`, http.StatusNotFound)
	})

	_, err := c.ListEvents(context.Background(), models.Calendar{ProviderCalendarID: "primary"}, provider.Window{})
	var perr *provider.Error
	if !errors.As(err, &perr) {
		t.Fatalf("ListEvents() error=%v, want *provider.Error", err)
	}
	if perr.Op != "listEvents" || perr.Context != "primary" {
		t.Fatalf("provider error=%+v", perr)
	}
}

func TestCreateEventSendsConferenceVersion(t *testing.T) {
	var gotVersion string
	var sent calendar.Event
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotVersion = r.URL.Query().Get("conferenceDataVersion")
		if err := json.NewDecoder(r.Body).Decode(&sent); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		sent.Id = "new-id"
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(&sent)
	})

	ev, err := c.CreateEvent(context.Background(), &models.EventInput{
		Provider:   models.ProviderGoogle,
		CalendarID: "primary",
		Title:      "Planning",
		Start:      datetime.NewDate(2024, 3, 1),
		End:        datetime.NewDate(2024, 3, 2),
		AllDay:     true,
	})
	if err != nil {
		t.Fatalf("CreateEvent: %v", err)
	}
	if gotVersion != "1" {
		t.Fatalf("conferenceDataVersion=%q, want 1", gotVersion)
	}
	if sent.Start == nil || sent.Start.Date != "2024-03-01" {
		t.Fatalf("sent start=%+v", sent.Start)
	}
	if ev.ID != "new-id" || ev.Title != "Planning" || !ev.AllDay {
		t.Fatalf("CreateEvent()=%+v", ev)
	}
}

func TestCreateEventValidates(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		t.Errorf("unexpected request %s", r.URL)
	})
	_, err := c.CreateEvent(context.Background(), &models.EventInput{Provider: models.ProviderGoogle})
	var verr *models.ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("CreateEvent() error=%v, want validation error", err)
	}
}

func respondHandler(t *testing.T, methods *[]string, patched *calendar.Event, stored string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasSuffix(r.URL.Path, "/calendars/primary/events/ev1") {
			http.NotFound(w, r)
			return
		}
		*methods = append(*methods, r.Method)
		w.Header().Set("Content-Type", "application/json")
		switch r.Method {
		case http.MethodGet:
			io.WriteString(w, stored)
		case http.MethodPatch:
			if err := json.NewDecoder(r.Body).Decode(patched); err != nil {
				http.Error(w, err.Error(), http.StatusBadRequest)
				return
			}
			out := *patched
			out.Id = "ev1"
			out.Start = &calendar.EventDateTime{Date: "2024-03-01"}
			out.End = &calendar.EventDateTime{Date: "2024-03-02"}
			json.NewEncoder(w).Encode(&out)
		default:
			t.Errorf("unexpected %s %s", r.Method, r.URL.Path)
		}
	}
}

const storedInvite = `{"id":"ev1","start":{"date":"2024-03-01"},"end":{"date":"2024-03-02"},"attendees":[
	{"email":"org@x.com","organizer":true,"responseStatus":"accepted"},
	{"email":"me@x.com","self":true,"responseStatus":"needsAction"}
]}`

func TestUpdateEventRecordsOwnResponse(t *testing.T) {
	var methods []string
	var patched calendar.Event
	c := newTestClient(t, respondHandler(t, &methods, &patched, storedInvite))

	ev, err := c.UpdateEvent(context.Background(), &models.UpdateEventInput{
		EventInput: models.EventInput{Provider: models.ProviderGoogle, CalendarID: "primary", Title: "Sync"},
		EventID:    "ev1",
		Response:   &models.Response{Status: models.StatusDeclined, Comment: "travelling"},
	})
	if err != nil {
		t.Fatalf("UpdateEvent: %v", err)
	}
	if len(methods) != 2 || methods[0] != http.MethodGet || methods[1] != http.MethodPatch {
		t.Fatalf("requests=%v, want GET then PATCH", methods)
	}
	if len(patched.Attendees) != 2 {
		t.Fatalf("patched attendees=%+v, want the stored two", patched.Attendees)
	}
	if a := patched.Attendees[0]; a.Email != "org@x.com" || a.ResponseStatus != "accepted" {
		t.Fatalf("organizer entry=%+v, want unchanged", a)
	}
	if a := patched.Attendees[1]; a.Email != "me@x.com" || a.ResponseStatus != "declined" || a.Comment != "travelling" {
		t.Fatalf("own entry=%+v, want declined with comment", a)
	}
	if ev.Response == nil || ev.Response.Status != models.StatusDeclined {
		t.Fatalf("Response=%+v, want declined", ev.Response)
	}
}

func TestUpdateEventUnknownResponseSkipsLookup(t *testing.T) {
	var methods []string
	var patched calendar.Event
	c := newTestClient(t, respondHandler(t, &methods, &patched, storedInvite))

	_, err := c.UpdateEvent(context.Background(), &models.UpdateEventInput{
		EventInput: models.EventInput{Provider: models.ProviderGoogle, CalendarID: "primary", Title: "Sync"},
		EventID:    "ev1",
		Response:   &models.Response{Status: models.StatusUnknown},
	})
	if err != nil {
		t.Fatalf("UpdateEvent: %v", err)
	}
	if len(methods) != 1 || methods[0] != http.MethodPatch {
		t.Fatalf("requests=%v, want only PATCH", methods)
	}
	if len(patched.Attendees) != 0 {
		t.Fatalf("patched attendees=%+v, want none", patched.Attendees)
	}
}

func TestUpdateEventResponseNeedsInvitation(t *testing.T) {
	var methods []string
	var patched calendar.Event
	stored := `{"id":"ev1","start":{"date":"2024-03-01"},"end":{"date":"2024-03-02"},"attendees":[{"email":"org@x.com","organizer":true}]}`
	c := newTestClient(t, respondHandler(t, &methods, &patched, stored))

	_, err := c.UpdateEvent(context.Background(), &models.UpdateEventInput{
		EventInput: models.EventInput{Provider: models.ProviderGoogle, CalendarID: "primary"},
		EventID:    "ev1",
		Response:   &models.Response{Status: models.StatusAccepted},
	})
	var perr *provider.Error
	if !errors.As(err, &perr) || perr.Op != "respond" || perr.Context != "ev1" {
		t.Fatalf("UpdateEvent() error=%v, want respond provider error", err)
	}
	if len(methods) != 1 || methods[0] != http.MethodGet {
		t.Fatalf("requests=%v, want the lookup only", methods)
	}
}
