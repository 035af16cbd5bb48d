// Package provider defines what every calendar provider integration offers and
// the error returned at the provider operation boundary.
package provider

import (
	"context"
	"time"

	"calnorm/internal/models"
)

// Codec converts between a provider's JSON wire format and the canonical model.
// Implementations are stateless and safe for concurrent use.
type Codec interface {
	Provider() models.Provider

	// DecodeEvent parses one provider event resource.
	DecodeEvent(data []byte, scope models.Scope) (*models.CalendarEvent, error)
	// DecodeCalendar parses one provider calendar resource.
	DecodeCalendar(data []byte, accountID string) (*models.Calendar, error)
	// EncodeEvent builds the provider create payload.
	EncodeEvent(in *models.EventInput) ([]byte, error)
	// EncodeUpdate builds the provider update payload.
	EncodeUpdate(in *models.UpdateEventInput) ([]byte, error)
}

// Window bounds an event listing. Zero values mean unbounded.
type Window struct {
	From time.Time
	To   time.Time
}

// NextDays returns the window from now to now plus days.
func NextDays(now time.Time, days int) Window {
	return Window{From: now, To: now.AddDate(0, 0, days)}
}

// Source reads canonical calendars and events of one account.
type Source interface {
	Provider() models.Provider
	AccountID() string
	ListCalendars(ctx context.Context) ([]models.Calendar, error)
	ListEvents(ctx context.Context, cal models.Calendar, window Window) ([]models.CalendarEvent, error)
}

// Writer mutates events of one account.
type Writer interface {
	CreateEvent(ctx context.Context, in *models.EventInput) (*models.CalendarEvent, error)
	UpdateEvent(ctx context.Context, in *models.UpdateEventInput) (*models.CalendarEvent, error)
}
