package caldav

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"

	"calnorm/internal/datetime"
	"calnorm/internal/models"
)

type request struct {
	method      string
	path        string
	contentType string
	userAgent   string
	user        string
	body        string
}

func newTestClient(t *testing.T, status int) (*Client, func() []request) {
	t.Helper()
	var mu sync.Mutex
	var got []request
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		data, _ := io.ReadAll(r.Body)
		user, _, _ := r.BasicAuth()
		mu.Lock()
		got = append(got, request{
			method:      r.Method,
			path:        r.URL.Path,
			contentType: r.Header.Get("Content-Type"),
			userAgent:   r.Header.Get("User-Agent"),
			user:        user,
			body:        string(data),
		})
		mu.Unlock()
		w.WriteHeader(status)
	}))
	t.Cleanup(srv.Close)

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	c, err := NewClient(context.Background(), logger, Options{
		Endpoint:     srv.URL + "/",
		Username:     "me@x.com",
		Password:     "secret",
		CalendarPath: "/123/calendars/work/",
	})
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	c.now = func() time.Time { return time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC) }
	return c, func() []request {
		mu.Lock()
		defer mu.Unlock()
		return append([]request(nil), got...)
	}
}

func TestPublishPutsCalendarObject(t *testing.T) {
	c, requests := newTestClient(t, http.StatusCreated)

	ev := &models.CalendarEvent{
		ID:    "e1",
		Title: "Offsite",
		Start: datetime.NewDate(2024, 3, 1),
		End:   datetime.NewDate(2024, 3, 2),
	}
	if err := c.Publish(context.Background(), ev, "uid-1"); err != nil {
		t.Fatalf("Publish: %v", err)
	}

	got := requests()
	if len(got) != 1 {
		t.Fatalf("requests=%d, want 1", len(got))
	}
	r := got[0]
	if r.method != http.MethodPut || r.path != "/123/calendars/work/uid-1.ics" {
		t.Fatalf("request=%s %s", r.method, r.path)
	}
	if !strings.HasPrefix(r.contentType, "text/calendar") {
		t.Fatalf("Content-Type=%q", r.contentType)
	}
	if r.userAgent != "calnorm/1.0" || r.user != "me@x.com" {
		t.Fatalf("headers: agent=%q user=%q", r.userAgent, r.user)
	}
	for _, want := range []string{"BEGIN:VEVENT", "UID:uid-1", "SUMMARY:Offsite", "DTSTART;VALUE=DATE:20240301"} {
		if !strings.Contains(r.body, want) {
			t.Fatalf("body missing %q:\n%s", want, r.body)
		}
	}
}

func TestPublishReportsServerErrors(t *testing.T) {
	c, _ := newTestClient(t, http.StatusForbidden)
	ev := &models.CalendarEvent{Start: datetime.NewDate(2024, 3, 1), End: datetime.NewDate(2024, 3, 2)}
	if err := c.Publish(context.Background(), ev, "uid-1"); err == nil {
		t.Fatalf("Publish() expected error on 403")
	}
}

func TestUnpublishDeletesObject(t *testing.T) {
	c, requests := newTestClient(t, http.StatusNoContent)
	if err := c.Unpublish(context.Background(), "uid-9"); err != nil {
		t.Fatalf("Unpublish: %v", err)
	}
	got := requests()
	if len(got) != 1 || got[0].method != http.MethodDelete || got[0].path != "/123/calendars/work/uid-9.ics" {
		t.Fatalf("requests=%+v", got)
	}
}

func TestGenerateUID(t *testing.T) {
	a, b := GenerateUID(), GenerateUID()
	if a == b {
		t.Fatalf("GenerateUID() returned %q twice", a)
	}
	if _, err := uuid.Parse(a); err != nil {
		t.Fatalf("GenerateUID()=%q is not a UUID: %v", a, err)
	}
}
