// Package syncer mirrors canonical events from provider accounts into a
// publishing target such as a CalDAV calendar.
package syncer

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"slices"
	"time"

	"github.com/goccy/go-json"

	"calnorm/internal/datetime"
	"calnorm/internal/models"
	"calnorm/internal/provider"
)

// DefaultStateFile is used when Options.StateFile is empty.
const DefaultStateFile = "sync-state.json"

// Entry records where an event was published and what was published.
type Entry struct {
	UID  string `json:"uid"`
	Hash string `json:"hash"`
}

// SyncState keeps track of which events have been published.
// The key is the canonical event key.
type SyncState map[string]Entry

// Publisher writes events to the mirror target.
type Publisher interface {
	Publish(ctx context.Context, ev *models.CalendarEvent, uid string) error
	Unpublish(ctx context.Context, uid string) error
}

// Target is one account to mirror. An empty CalendarIDs mirrors every
// calendar of the account.
type Target struct {
	Source      provider.Source
	CalendarIDs []string
}

type Options struct {
	StateFile string
	DryRun    bool
	// Days is the look-ahead of each cycle.
	Days int
	// PrimaryTimeZone, when set, re-anchors instants to this zone before
	// publishing.
	PrimaryTimeZone *time.Location
	// Prune removes published events that no longer appear in any source.
	Prune bool
}

// Syncer orchestrates the mirror from provider accounts to a publisher.
type Syncer struct {
	logger    *slog.Logger
	targets   []Target
	publisher Publisher
	state     SyncState
	opts      Options
	now       func() time.Time
	newUID    func() string
}

// NewSyncer creates a new Syncer and loads its state. newUID names objects
// for events that were never published.
func NewSyncer(logger *slog.Logger, targets []Target, publisher Publisher, newUID func() string, opts Options) (*Syncer, error) {
	if opts.StateFile == "" {
		opts.StateFile = DefaultStateFile
	}
	if opts.Days <= 0 {
		opts.Days = 7
	}

	state, err := loadState(opts.StateFile)
	if err != nil {
		// If the file doesn't exist, we can start with an empty state.
		if errors.Is(err, os.ErrNotExist) {
			logger.Info("No sync state file found, starting fresh.", "file", opts.StateFile)
			state = make(SyncState)
		} else {
			return nil, fmt.Errorf("failed to load sync state: %w", err)
		}
	}

	return &Syncer{
		logger:    logger,
		targets:   targets,
		publisher: publisher,
		state:     state,
		opts:      opts,
		now:       time.Now,
		newUID:    newUID,
	}, nil
}

// State returns a copy of the current state.
func (s *Syncer) State() SyncState {
	out := make(SyncState, len(s.state))
	for k, v := range s.state {
		out[k] = v
	}
	return out
}

// Sync performs a full synchronization cycle.
func (s *Syncer) Sync(ctx context.Context) error {
	s.logger.Info("Starting sync cycle.")

	events, complete := FetchAll(ctx, s.logger, s.targets, provider.NextDays(s.now(), s.opts.Days))
	s.logger.Info("Fetched all provider events.", "count", len(events))

	seen := make(map[string]bool, len(events))
	for i := range events {
		ev := &events[i]
		seen[ev.Key()] = true
		if err := s.syncEvent(ctx, ev); err != nil {
			s.logger.Error("Failed to sync event", "title", ev.Title, "key", ev.Key(), "error", err)
			// Continue with the next event even if one fails.
		}
	}

	if s.opts.Prune {
		if complete {
			s.prune(ctx, seen)
		} else {
			s.logger.Warn("Skipping prune, some calendars could not be fetched")
		}
	}

	if !s.opts.DryRun {
		if err := s.saveState(); err != nil {
			return fmt.Errorf("failed to save sync state: %w", err)
		}
	}

	s.logger.Info("Sync cycle finished.")
	return nil
}

// FetchAll lists the events of every target within window. A failing
// listing is logged and skipped; complete reports whether any failed.
func FetchAll(ctx context.Context, logger *slog.Logger, targets []Target, window provider.Window) (events []models.CalendarEvent, complete bool) {
	complete = true
	events = []models.CalendarEvent{}

	for _, t := range targets {
		cals, err := t.Source.ListCalendars(ctx)
		if err != nil {
			logger.Error("Could not list calendars", "provider", t.Source.Provider(), "account", t.Source.AccountID(), "error", err)
			complete = false
			continue
		}
		for _, cal := range cals {
			if len(t.CalendarIDs) > 0 && !slices.Contains(t.CalendarIDs, cal.ProviderCalendarID) {
				continue
			}
			list, err := t.Source.ListEvents(ctx, cal, window)
			if err != nil {
				logger.Error("Could not fetch events for a calendar", "calendarID", cal.ProviderCalendarID, "error", err)
				complete = false
				continue
			}
			events = append(events, list...)
		}
	}
	return events, complete
}

// syncEvent handles the logic for syncing a single event.
func (s *Syncer) syncEvent(ctx context.Context, ev *models.CalendarEvent) error {
	key := ev.Key()
	entry, exists := s.state[key]

	if ev.Status == models.EventStatusCancelled {
		if !exists {
			return nil
		}
		if s.opts.DryRun {
			s.logger.Info("[DRY RUN] Would remove cancelled event", "title", ev.Title, "uid", entry.UID)
			return nil
		}
		if err := s.publisher.Unpublish(ctx, entry.UID); err != nil {
			return err
		}
		delete(s.state, key)
		return nil
	}

	s.localize(ev)
	hash, err := fingerprint(ev)
	if err != nil {
		return err
	}
	if exists && entry.Hash == hash {
		s.logger.Debug("Event unchanged, skipping.", "title", ev.Title, "key", key)
		return nil
	}

	if !exists {
		entry.UID = s.newUID()
		s.logger.Info("New event found, publishing.", "title", ev.Title)
	} else {
		s.logger.Info("Event changed, republishing.", "title", ev.Title)
	}

	if s.opts.DryRun {
		s.logger.Info("[DRY RUN] Would publish event", "title", ev.Title, "start", ev.Start)
		return nil
	}

	if err := s.publisher.Publish(ctx, ev, entry.UID); err != nil {
		return fmt.Errorf("failed to publish event: %w", err)
	}

	// If successful, update the state.
	entry.Hash = hash
	s.state[key] = entry
	return nil
}

func (s *Syncer) prune(ctx context.Context, seen map[string]bool) {
	for key, entry := range s.state {
		if seen[key] {
			continue
		}
		if s.opts.DryRun {
			s.logger.Info("[DRY RUN] Would remove vanished event", "key", key, "uid", entry.UID)
			continue
		}
		if err := s.publisher.Unpublish(ctx, entry.UID); err != nil {
			s.logger.Error("Failed to remove vanished event", "key", key, "error", err)
			continue
		}
		delete(s.state, key)
	}
}

// localize adjusts instants to the primary time zone. Dates and zoned values
// keep their own anchoring.
func (s *Syncer) localize(ev *models.CalendarEvent) {
	loc := s.opts.PrimaryTimeZone
	if loc == nil {
		return
	}
	anchor := func(v datetime.Value) datetime.Value {
		if i, ok := v.(datetime.Instant); ok {
			return datetime.NewZoned(i.Time, loc)
		}
		return v
	}
	ev.Start = anchor(ev.Start)
	ev.End = anchor(ev.End)
}

// fingerprint hashes the canonical JSON form of ev.
func fingerprint(ev *models.CalendarEvent) (string, error) {
	data, err := json.Marshal(ev)
	if err != nil {
		return "", fmt.Errorf("failed to marshal event: %w", err)
	}
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:]), nil
}

// loadState loads the sync state from the JSON file.
func loadState(path string) (SyncState, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var state SyncState
	if err := json.Unmarshal(data, &state); err != nil {
		return nil, err
	}
	if state == nil {
		state = make(SyncState)
	}
	return state, nil
}

// saveState saves the current sync state to the JSON file.
func (s *Syncer) saveState() error {
	data, err := json.MarshalIndent(s.state, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal sync state: %w", err)
	}
	return os.WriteFile(s.opts.StateFile, data, 0o600)
}
