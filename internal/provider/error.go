package provider

import (
	"context"
	"fmt"
	"log/slog"

	"calnorm/internal/models"
)

// Error is returned by every provider operation that failed. Op names the
// operation ("listEvents", "respond", ...) and Context optionally identifies
// the resource it ran against.
type Error struct {
	Provider models.Provider
	Op       string
	Context  string
	Err      error
}

func (e *Error) Error() string {
	if e.Context != "" {
		return fmt.Sprintf("%s %s (%s): %v", e.Provider, e.Op, e.Context, e.Err)
	}
	return fmt.Sprintf("%s %s: %v", e.Provider, e.Op, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// Call runs fn as operation op. A failure is logged with the operation name
// and returned as *Error. Errors that already are *Error are not wrapped twice.
func Call(ctx context.Context, logger *slog.Logger, p models.Provider, op, resource string, fn func(context.Context) error) error {
	err := fn(ctx)
	if err == nil {
		return nil
	}
	if perr, ok := err.(*Error); ok {
		return perr
	}
	logger.Error("Provider operation failed", "provider", p, "op", op, "context", resource, "error", err)
	return &Error{Provider: p, Op: op, Context: resource, Err: err}
}
