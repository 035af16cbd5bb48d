package microsoft

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/goccy/go-json"

	"calnorm/internal/datetime"
	"calnorm/internal/models"
	"calnorm/internal/provider"
)

type recorded struct {
	method string
	path   string
	body   string
}

func newTestClient(t *testing.T, handler func(w http.ResponseWriter, r *http.Request)) (*Client, func() []recorded) {
	t.Helper()
	var mu sync.Mutex
	var calls []recorded
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		data, _ := io.ReadAll(r.Body)
		mu.Lock()
		calls = append(calls, recorded{method: r.Method, path: r.URL.Path, body: string(data)})
		mu.Unlock()
		handler(w, r)
	}))
	t.Cleanup(srv.Close)

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	c := NewClient(logger, srv.Client(), srv.URL, "acct")
	return c, func() []recorded {
		mu.Lock()
		defer mu.Unlock()
		return append([]recorded(nil), calls...)
	}
}

func updateInput(status models.AttendeeStatus) *models.UpdateEventInput {
	return &models.UpdateEventInput{
		EventInput: models.EventInput{Provider: models.ProviderMicrosoft, CalendarID: "cal", Title: "Renamed"},
		EventID:    "ev1",
		Response:   &models.Response{Status: status, Comment: "see you"},
	}
}

func okEvent(w http.ResponseWriter, r *http.Request) {
	if strings.HasSuffix(r.URL.Path, "/accept") || strings.HasSuffix(r.URL.Path, "/decline") || strings.HasSuffix(r.URL.Path, "/tentativelyAccept") {
		w.WriteHeader(http.StatusAccepted)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	io.WriteString(w, `{"id":"ev1","subject":"Renamed","start":{"dateTime":"2024-03-01T09:00:00.0000000","timeZone":"UTC"},"end":{"dateTime":"2024-03-01T10:00:00.0000000","timeZone":"UTC"}}`)
}

func TestUpdateEventSendsResponseSideCall(t *testing.T) {
	c, calls := newTestClient(t, okEvent)

	ev, err := c.UpdateEvent(context.Background(), updateInput(models.StatusTentative))
	if err != nil {
		t.Fatalf("UpdateEvent: %v", err)
	}
	if ev.Title != "Renamed" {
		t.Fatalf("UpdateEvent()=%+v", ev)
	}

	got := calls()
	if len(got) != 2 {
		t.Fatalf("requests=%d, want 2", len(got))
	}
	if got[0].method != http.MethodPatch || got[0].path != "/me/events/ev1" {
		t.Fatalf("first request=%+v", got[0])
	}
	if got[1].method != http.MethodPost || got[1].path != "/me/events/ev1/tentativelyAccept" {
		t.Fatalf("second request=%+v", got[1])
	}
	var body ResponseRequest
	if err := json.Unmarshal([]byte(got[1].body), &body); err != nil {
		t.Fatalf("response body: %v", err)
	}
	if body.Comment != "see you" || body.SendResponse {
		t.Fatalf("response body=%+v", body)
	}
}

func TestUpdateEventUnknownResponseSkipsSideCall(t *testing.T) {
	c, calls := newTestClient(t, okEvent)

	if _, err := c.UpdateEvent(context.Background(), updateInput(models.StatusUnknown)); err != nil {
		t.Fatalf("UpdateEvent: %v", err)
	}
	if got := calls(); len(got) != 1 {
		t.Fatalf("requests=%d, want only the update", len(got))
	}

	if err := c.Respond(context.Background(), "ev1", &models.Response{Status: models.StatusUnknown}, true); err != nil {
		t.Fatalf("Respond: %v", err)
	}
	if got := calls(); len(got) != 1 {
		t.Fatalf("Respond(unknown) sent a request")
	}
}

func TestRespondFailureNamesOperation(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if strings.HasSuffix(r.URL.Path, "/decline") {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusForbidden)
			io.WriteString(w, `{"error":{"code":"ErrorAccessDenied","message":"denied"}}`)
			return
		}
		okEvent(w, r)
	})

	_, err := c.UpdateEvent(context.Background(), updateInput(models.StatusDeclined))
	var perr *provider.Error
	if !errors.As(err, &perr) {
		t.Fatalf("UpdateEvent() error=%v, want *provider.Error", err)
	}
	if perr.Op != "respond" || perr.Context != "ev1" || !strings.Contains(perr.Error(), "ErrorAccessDenied") {
		t.Fatalf("provider error=%v", perr)
	}
}

func TestListEventsFollowsNextLink(t *testing.T) {
	var srvURL string
	c, calls := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Prefer") != preferUTC {
			t.Errorf("Prefer header=%q", r.Header.Get("Prefer"))
		}
		w.Header().Set("Content-Type", "application/json")
		if r.URL.Query().Get("page") == "2" {
			io.WriteString(w, `{"value":[{"id":"b","isAllDay":true,"start":{"dateTime":"2024-03-02T00:00:00.0000000","timeZone":"UTC"},"end":{"dateTime":"2024-03-03T00:00:00.0000000","timeZone":"UTC"}}]}`)
			return
		}
		io.WriteString(w, `{"value":[{"id":"a","start":{"dateTime":"2024-03-01T09:00:00.0000000","timeZone":"UTC"},"end":{"dateTime":"2024-03-01T10:00:00.0000000","timeZone":"UTC"}},{"id":"broken"}],"@odata.nextLink":"`+srvURL+`/me/calendars/cal/events?page=2"}`)
	})
	srvURL = c.baseURL

	events, err := c.ListEvents(context.Background(), models.Calendar{ProviderCalendarID: "cal", AccountID: "acct"}, provider.Window{})
	if err != nil {
		t.Fatalf("ListEvents: %v", err)
	}
	if len(events) != 2 || events[0].ID != "a" || events[1].ID != "b" {
		t.Fatalf("ListEvents()=%+v", events)
	}
	if !events[1].AllDay || !datetime.IsDate(events[1].Start) {
		t.Fatalf("second event should be all-day: %+v", events[1])
	}
	if _, ok := events[0].Start.(datetime.Instant); !ok {
		t.Fatalf("UTC wall time should parse as an instant, got %T", events[0].Start)
	}
	if got := calls(); len(got) != 2 {
		t.Fatalf("requests=%d, want 2 pages", len(got))
	}
}

func TestCreateEventPostsToCalendar(t *testing.T) {
	c, calls := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		io.WriteString(w, `{"id":"new","subject":"Lunch","isAllDay":true,"start":{"dateTime":"2024-03-01T00:00:00.0000000","timeZone":"UTC"},"end":{"dateTime":"2024-03-02T00:00:00.0000000","timeZone":"UTC"}}`)
	})

	ev, err := c.CreateEvent(context.Background(), &models.EventInput{
		Provider:   models.ProviderMicrosoft,
		CalendarID: "cal",
		Title:      "Lunch",
		Start:      datetime.NewDate(2024, 3, 1),
		End:        datetime.NewDate(2024, 3, 2),
		AllDay:     true,
	})
	if err != nil {
		t.Fatalf("CreateEvent: %v", err)
	}
	if ev.ID != "new" || !ev.AllDay {
		t.Fatalf("CreateEvent()=%+v", ev)
	}
	got := calls()
	if len(got) != 1 || got[0].method != http.MethodPost || got[0].path != "/me/calendars/cal/events" {
		t.Fatalf("requests=%+v", got)
	}
	if !strings.Contains(got[0].body, `"isAllDay":true`) {
		t.Fatalf("body=%s", got[0].body)
	}
}
