// Package caldav publishes canonical events to a CalDAV calendar.
package caldav

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"path"
	"strings"
	"time"

	"github.com/emersion/go-webdav"
	dav "github.com/emersion/go-webdav/caldav"
	"github.com/google/uuid"

	"calnorm/internal/ics"
	"calnorm/internal/models"
)

// DefaultEndpoint is the iCloud CalDAV endpoint.
const DefaultEndpoint = "https://caldav.icloud.com/"

// customTransport handles adding Basic Auth and custom headers to requests.
type customTransport struct {
	Username  string
	Password  string
	Transport http.RoundTripper
}

// RoundTrip adds required headers and authentication to each request.
func (t *customTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	req = req.Clone(req.Context())
	if t.Username != "" {
		req.SetBasicAuth(t.Username, t.Password)
	}
	req.Header.Set("User-Agent", "calnorm/1.0")
	return t.Transport.RoundTrip(req)
}

// Options configures a Client.
type Options struct {
	Endpoint string
	Username string
	Password string
	// Calendar is the display name looked up on the server.
	Calendar string
	// CalendarPath skips discovery when set.
	CalendarPath string
	// Transport defaults to http.DefaultTransport.
	Transport http.RoundTripper
}

// Client writes events into one calendar collection.
type Client struct {
	caldavClient *dav.Client
	webdavClient *webdav.Client
	logger       *slog.Logger
	calendarPath string
	now          func() time.Time
}

// NewClient creates a Client and resolves the target calendar.
func NewClient(ctx context.Context, logger *slog.Logger, opts Options) (*Client, error) {
	endpoint := opts.Endpoint
	if endpoint == "" {
		endpoint = DefaultEndpoint
	}
	base := opts.Transport
	if base == nil {
		base = http.DefaultTransport
	}
	httpClient := &http.Client{Transport: &customTransport{
		Username:  opts.Username,
		Password:  opts.Password,
		Transport: base,
	}}

	caldavClient, err := dav.NewClient(httpClient, endpoint)
	if err != nil {
		return nil, fmt.Errorf("failed to create caldav client: %w", err)
	}
	webdavClient, err := webdav.NewClient(httpClient, endpoint)
	if err != nil {
		return nil, fmt.Errorf("failed to create webdav client: %w", err)
	}

	c := &Client{
		caldavClient: caldavClient,
		webdavClient: webdavClient,
		logger:       logger,
		calendarPath: opts.CalendarPath,
		now:          time.Now,
	}
	if c.calendarPath == "" {
		logger.Info("Finding CalDAV calendar", "calendarName", opts.Calendar)
		calendarPath, err := c.findCalendar(ctx, opts.Calendar)
		if err != nil {
			return nil, fmt.Errorf("could not find calendar '%s': %w", opts.Calendar, err)
		}
		c.calendarPath = calendarPath
		logger.Info("Successfully found CalDAV calendar", "path", calendarPath)
	}
	return c, nil
}

// ObjectPath is where the event with uid lives.
func (c *Client) ObjectPath(uid string) string {
	return path.Join(c.calendarPath, uid+".ics")
}

// Publish creates or replaces the object for uid with ev.
func (c *Client) Publish(ctx context.Context, ev *models.CalendarEvent, uid string) error {
	c.logger.Debug("Publishing event", "eventTitle", ev.Title, "uid", uid)

	vevent, err := ics.Event(ev, uid, c.now())
	if err != nil {
		return fmt.Errorf("failed to convert event: %w", err)
	}
	if _, err := c.caldavClient.PutCalendarObject(ctx, c.ObjectPath(uid), ics.NewCalendar(vevent)); err != nil {
		return fmt.Errorf("failed to create event on CalDAV server: %w", err)
	}

	c.logger.Info("Successfully published event", "eventTitle", ev.Title, "uid", uid)
	return nil
}

// Unpublish removes the object for uid.
func (c *Client) Unpublish(ctx context.Context, uid string) error {
	if err := c.webdavClient.RemoveAll(ctx, c.ObjectPath(uid)); err != nil {
		return fmt.Errorf("failed to delete event on CalDAV server: %w", err)
	}
	c.logger.Info("Removed published event", "uid", uid)
	return nil
}

// findCalendar discovers the user's calendars and returns the path of the one with the matching name.
func (c *Client) findCalendar(ctx context.Context, name string) (string, error) {
	principalPath, err := c.caldavClient.FindCurrentUserPrincipal(ctx)
	if err != nil {
		return "", fmt.Errorf("failed to find principal path: %w", err)
	}

	homeSetPath, err := c.caldavClient.FindCalendarHomeSet(ctx, principalPath)
	if err != nil {
		return "", fmt.Errorf("failed to find calendar home set: %w", err)
	}

	calendars, err := c.caldavClient.FindCalendars(ctx, homeSetPath)
	if err != nil {
		return "", fmt.Errorf("failed to find calendars: %w", err)
	}

	for _, cal := range calendars {
		if strings.EqualFold(cal.Name, name) {
			return cal.Path, nil
		}
	}

	return "", fmt.Errorf("no calendar found with name '%s'", name)
}

// GenerateUID creates a new unique identifier for an event.
func GenerateUID() string {
	return uuid.New().String()
}
