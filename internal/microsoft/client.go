package microsoft

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"

	"github.com/goccy/go-json"

	"calnorm/internal/datetime"
	"calnorm/internal/models"
	"calnorm/internal/provider"
)

const (
	graphBaseURL = "https://graph.microsoft.com/v1.0"
	preferUTC    = `outlook.timezone="UTC"`
)

var (
	_ provider.Codec  = (*Codec)(nil)
	_ provider.Source = (*Client)(nil)
	_ provider.Writer = (*Client)(nil)
)

// Client talks to the Graph calendar endpoints of one account.
type Client struct {
	http      *http.Client
	baseURL   string
	codec     *Codec
	logger    *slog.Logger
	accountID string
}

// NewClient creates a Graph client. httpClient must already carry the
// account's credentials, as an oauth2 client does. An empty baseURL selects
// the public Graph endpoint.
func NewClient(logger *slog.Logger, httpClient *http.Client, baseURL, accountID string) *Client {
	if baseURL == "" {
		baseURL = graphBaseURL
	}
	return &Client{
		http:      httpClient,
		baseURL:   baseURL,
		codec:     NewCodec(logger),
		logger:    logger,
		accountID: accountID,
	}
}

// Codec returns the codec the client uses.
func (c *Client) Codec() *Codec { return c.codec }

func (c *Client) Provider() models.Provider { return models.ProviderMicrosoft }

func (c *Client) AccountID() string { return c.accountID }

// ListCalendars returns every calendar of the account.
func (c *Client) ListCalendars(ctx context.Context) ([]models.Calendar, error) {
	var out []models.Calendar
	err := provider.Call(ctx, c.logger, models.ProviderMicrosoft, "listCalendars", c.accountID, func(ctx context.Context) error {
		next := c.baseURL + "/me/calendars"
		for next != "" {
			var page struct {
				Value    []Calendar `json:"value"`
				NextLink string     `json:"@odata.nextLink"`
			}
			if err := c.do(ctx, http.MethodGet, next, nil, &page); err != nil {
				return err
			}
			for i := range page.Value {
				cal, err := c.codec.ParseCalendar(&page.Value[i], c.accountID)
				if err != nil {
					c.logger.Warn("Skipping calendar", "error", err)
					continue
				}
				out = append(out, *cal)
			}
			next = page.NextLink
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// ListEvents fetches the events and series masters of cal starting within
// window.
func (c *Client) ListEvents(ctx context.Context, cal models.Calendar, window provider.Window) ([]models.CalendarEvent, error) {
	params := url.Values{}
	params.Set("$expand", fmt.Sprintf("singleValueExtendedProperties($filter=contains(id,'%s'))", BlockedTimeMarker))
	filter := ""
	if !window.From.IsZero() {
		filter = fmt.Sprintf("end/dateTime ge '%s'", window.From.UTC().Format(datetime.NaiveLayout))
	}
	if !window.To.IsZero() {
		if filter != "" {
			filter += " and "
		}
		filter += fmt.Sprintf("start/dateTime le '%s'", window.To.UTC().Format(datetime.NaiveLayout))
	}
	if filter != "" {
		params.Set("$filter", filter)
	}

	scope := models.ScopeOf(&cal)
	var out []models.CalendarEvent
	err := provider.Call(ctx, c.logger, models.ProviderMicrosoft, "listEvents", cal.ProviderCalendarID, func(ctx context.Context) error {
		next := c.baseURL + "/me/calendars/" + url.PathEscape(cal.ProviderCalendarID) + "/events?" + params.Encode()
		for next != "" {
			var page struct {
				Value    []Event `json:"value"`
				NextLink string  `json:"@odata.nextLink"`
			}
			if err := c.do(ctx, http.MethodGet, next, nil, &page); err != nil {
				return err
			}
			for i := range page.Value {
				ev, err := c.codec.ParseEvent(&page.Value[i], scope)
				if err != nil {
					c.logger.Error("Failed to parse event", "calendarID", cal.ProviderCalendarID, "eventID", page.Value[i].ID, "error", err)
					continue
				}
				out = append(out, *ev)
			}
			next = page.NextLink
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	c.logger.Info("Successfully fetched events from Microsoft Graph", "count", len(out), "calendarID", cal.ProviderCalendarID)
	return out, nil
}

// CreateEvent creates a new event.
func (c *Client) CreateEvent(ctx context.Context, in *models.EventInput) (*models.CalendarEvent, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}
	body, err := c.codec.SerializeEvent(in)
	if err != nil {
		return nil, fmt.Errorf("failed to serialize event: %w", err)
	}

	var created Event
	endpoint := c.baseURL + "/me/calendars/" + url.PathEscape(in.CalendarID) + "/events"
	err = provider.Call(ctx, c.logger, models.ProviderMicrosoft, "createEvent", in.CalendarID, func(ctx context.Context) error {
		return c.do(ctx, http.MethodPost, endpoint, body, &created)
	})
	if err != nil {
		return nil, err
	}
	return c.codec.ParseEvent(&created, models.Scope{AccountID: c.accountID, CalendarID: in.CalendarID})
}

// UpdateEvent patches an event, then records the own response when the input
// carries one. The two requests are not atomic: if the response fails the
// event stays updated and the error names the "respond" operation.
func (c *Client) UpdateEvent(ctx context.Context, in *models.UpdateEventInput) (*models.CalendarEvent, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}
	body, err := c.codec.SerializeUpdate(in)
	if err != nil {
		return nil, fmt.Errorf("failed to serialize event: %w", err)
	}
	body.ID = ""

	var updated Event
	endpoint := c.baseURL + "/me/events/" + url.PathEscape(in.EventID)
	err = provider.Call(ctx, c.logger, models.ProviderMicrosoft, "updateEvent", in.EventID, func(ctx context.Context) error {
		return c.do(ctx, http.MethodPatch, endpoint, body, &updated)
	})
	if err != nil {
		return nil, err
	}

	if err := c.Respond(ctx, in.EventID, in.Response, in.SendNotifications); err != nil {
		return nil, err
	}
	return c.codec.ParseEvent(&updated, models.Scope{AccountID: c.accountID, CalendarID: in.CalendarID})
}

// Respond records the account's own response to an event. A nil response or
// one whose status is unknown sends nothing.
func (c *Client) Respond(ctx context.Context, eventID string, resp *models.Response, sendNotifications bool) error {
	call, ok := ResponseCallFor(resp, sendNotifications)
	if !ok {
		return nil
	}
	endpoint := c.baseURL + "/me/events/" + url.PathEscape(eventID) + "/" + call.Action
	return provider.Call(ctx, c.logger, models.ProviderMicrosoft, "respond", eventID, func(ctx context.Context) error {
		return c.do(ctx, http.MethodPost, endpoint, call.Body, nil)
	})
}

// do sends a JSON request and decodes a JSON response into out, if given.
func (c *Client) do(ctx context.Context, method, endpoint string, body, out any) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to marshal request: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, reader)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Prefer", preferUTC)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		data, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
		var gerr graphError
		if json.Unmarshal(data, &gerr) == nil && gerr.Error.Code != "" {
			return fmt.Errorf("request failed with status %d: %s: %s", resp.StatusCode, gerr.Error.Code, gerr.Error.Message)
		}
		return fmt.Errorf("request failed with status %d: %s", resp.StatusCode, string(data))
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}
