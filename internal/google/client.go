package google

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"google.golang.org/api/calendar/v3"
	"google.golang.org/api/option"

	"calnorm/internal/models"
	"calnorm/internal/provider"
)

var (
	_ provider.Codec  = (*Codec)(nil)
	_ provider.Source = (*CalendarClient)(nil)
	_ provider.Writer = (*CalendarClient)(nil)
)

// CalendarClient provides a client for interacting with the Google Calendar API.
type CalendarClient struct {
	service   *calendar.Service
	codec     *Codec
	logger    *slog.Logger
	accountID string
}

// NewClient creates a Google Calendar client for accountID from its saved token.
func NewClient(ctx context.Context, logger *slog.Logger, creds Credentials, tokenDir, accountID string) (*CalendarClient, error) {
	config, err := OAuthConfig(creds)
	if err != nil {
		return nil, fmt.Errorf("failed to get OAuth config: %w", err)
	}

	tokenFile := provider.TokenFile(tokenDir, models.ProviderGoogle, accountID)
	token, err := provider.LoadToken(tokenFile)
	if err != nil {
		return nil, fmt.Errorf("could not load token for account %s: %w. Please run the 'auth' command first", accountID, err)
	}

	return NewClientWithOptions(ctx, logger, accountID, option.WithHTTPClient(config.Client(ctx, token)))
}

// NewClientWithOptions creates a client from explicit API options.
func NewClientWithOptions(ctx context.Context, logger *slog.Logger, accountID string, opts ...option.ClientOption) (*CalendarClient, error) {
	service, err := calendar.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create calendar service: %w", err)
	}
	return &CalendarClient{
		service:   service,
		codec:     NewCodec(logger),
		logger:    logger,
		accountID: accountID,
	}, nil
}

func (c *CalendarClient) Provider() models.Provider { return models.ProviderGoogle }

func (c *CalendarClient) AccountID() string { return c.accountID }

// ListCalendars returns every calendar of the account.
func (c *CalendarClient) ListCalendars(ctx context.Context) ([]models.Calendar, error) {
	var out []models.Calendar
	err := provider.Call(ctx, c.logger, models.ProviderGoogle, "listCalendars", c.accountID, func(ctx context.Context) error {
		return c.service.CalendarList.List().Context(ctx).Pages(ctx, func(list *calendar.CalendarList) error {
			for _, item := range list.Items {
				cal, err := c.codec.ParseCalendar(item, c.accountID)
				if err != nil {
					c.logger.Warn("Skipping calendar", "error", err)
					continue
				}
				out = append(out, *cal)
			}
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	c.logger.Debug("Listed Google calendars", "account", c.accountID, "count", len(out))
	return out, nil
}

// ListEvents fetches the events of cal within window. Recurring series are
// returned as their master event.
func (c *CalendarClient) ListEvents(ctx context.Context, cal models.Calendar, window provider.Window) ([]models.CalendarEvent, error) {
	c.logger.Debug("Fetching events", "calendarID", cal.ProviderCalendarID, "from", window.From, "to", window.To)
	scope := models.ScopeOf(&cal)

	var out []models.CalendarEvent
	err := provider.Call(ctx, c.logger, models.ProviderGoogle, "listEvents", cal.ProviderCalendarID, func(ctx context.Context) error {
		call := c.service.Events.List(cal.ProviderCalendarID).
			Context(ctx).
			ShowDeleted(false).
			SingleEvents(false)
		if !window.From.IsZero() {
			call = call.TimeMin(window.From.UTC().Format(time.RFC3339))
		}
		if !window.To.IsZero() {
			call = call.TimeMax(window.To.UTC().Format(time.RFC3339))
		}
		return call.Pages(ctx, func(events *calendar.Events) error {
			for _, item := range events.Items {
				ev, err := c.codec.ParseEvent(item, scope)
				if err != nil {
					// One malformed event does not fail the listing.
					c.logger.Error("Failed to parse event", "calendarID", cal.ProviderCalendarID, "eventID", item.Id, "error", err)
					continue
				}
				out = append(out, *ev)
			}
			return nil
		})
	})
	if err != nil {
		return nil, err
	}

	c.logger.Info("Successfully fetched events from Google Calendar", "count", len(out), "calendarID", cal.ProviderCalendarID)
	return out, nil
}

// CreateEvent inserts a new event.
func (c *CalendarClient) CreateEvent(ctx context.Context, in *models.EventInput) (*models.CalendarEvent, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}
	payload, err := c.codec.SerializeEvent(in)
	if err != nil {
		return nil, fmt.Errorf("failed to serialize event: %w", err)
	}

	var created *calendar.Event
	err = provider.Call(ctx, c.logger, models.ProviderGoogle, "createEvent", in.CalendarID, func(ctx context.Context) error {
		created, err = c.service.Events.Insert(in.CalendarID, payload.Event).
			ConferenceDataVersion(payload.ConferenceDataVersion).
			Context(ctx).
			Do()
		return err
	})
	if err != nil {
		return nil, err
	}
	return c.codec.ParseEvent(created, models.Scope{AccountID: c.accountID, CalendarID: in.CalendarID})
}

// UpdateEvent patches an existing event. An own response travels in the same
// patch, on the account's attendee entry.
func (c *CalendarClient) UpdateEvent(ctx context.Context, in *models.UpdateEventInput) (*models.CalendarEvent, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}
	payload, err := c.codec.SerializeUpdate(in)
	if err != nil {
		return nil, fmt.Errorf("failed to serialize event: %w", err)
	}

	if err := c.applyResponse(ctx, in, payload.Event); err != nil {
		return nil, err
	}

	sendUpdates := "none"
	if in.SendNotifications {
		sendUpdates = "all"
	}
	var updated *calendar.Event
	err = provider.Call(ctx, c.logger, models.ProviderGoogle, "updateEvent", in.EventID, func(ctx context.Context) error {
		updated, err = c.service.Events.Patch(in.CalendarID, in.EventID, payload.Event).
			ConferenceDataVersion(payload.ConferenceDataVersion).
			SendUpdates(sendUpdates).
			Context(ctx).
			Do()
		return err
	})
	if err != nil {
		return nil, err
	}
	return c.codec.ParseEvent(updated, models.Scope{AccountID: c.accountID, CalendarID: in.CalendarID})
}

// applyResponse puts in.Response on the account's attendee entry of ev. The
// account is identified through the stored event. When ev carries no
// attendees the stored list is patched instead.
func (c *CalendarClient) applyResponse(ctx context.Context, in *models.UpdateEventInput, ev *calendar.Event) error {
	if in.Response == nil || in.Response.Status == models.StatusUnknown {
		return nil
	}
	return provider.Call(ctx, c.logger, models.ProviderGoogle, "respond", in.EventID, func(ctx context.Context) error {
		current, err := c.service.Events.Get(in.CalendarID, in.EventID).Context(ctx).Do()
		if err != nil {
			return err
		}
		self := SelfEmail(current)
		if self == "" {
			return errors.New("account is not an attendee of the event")
		}
		if len(ev.Attendees) == 0 {
			ev.Attendees = current.Attendees
		}
		ApplyResponse(ev, self, in.Response)
		return nil
	})
}
