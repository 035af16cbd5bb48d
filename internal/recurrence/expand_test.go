package recurrence

import (
	"testing"
	"time"

	"calnorm/internal/datetime"
	"calnorm/internal/models"
)

func TestExpandWeeklyWithExceptions(t *testing.T) {
	berlin := mustZone(t, "Europe/Berlin")
	start := time.Date(2024, 3, 4, 9, 0, 0, 0, berlin) // Monday

	r := &models.Recurrence{
		Freq:    models.FreqWeekly,
		Count:   4,
		ExDates: []datetime.Value{datetime.NewZoned(start.AddDate(0, 0, 7), berlin)},
		RDates:  []datetime.Value{datetime.NewZoned(start.AddDate(0, 0, 2), berlin)},
	}

	got, err := Expand(r, datetime.NewZoned(start, berlin), start.AddDate(0, 0, -1), start.AddDate(0, 2, 0))
	if err != nil {
		t.Fatalf("Expand error: %v", err)
	}

	want := []time.Time{
		start,
		start.AddDate(0, 0, 2),
		start.AddDate(0, 0, 14),
		start.AddDate(0, 0, 21),
	}
	if len(got) != len(want) {
		t.Fatalf("Expand returned %d occurrences (%v), want %d", len(got), got, len(want))
	}
	for i := range want {
		if !got[i].Equal(want[i]) {
			t.Fatalf("occurrence %d=%v, want %v", i, got[i], want[i])
		}
	}
}

func TestExpandAllDayUntilIncludesLastDay(t *testing.T) {
	r := &models.Recurrence{Freq: models.FreqDaily, Until: datetime.NewDate(2024, 3, 3)}
	from := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)

	got, err := Expand(r, datetime.NewDate(2024, 3, 1), from, from.AddDate(0, 1, 0))
	if err != nil {
		t.Fatalf("Expand error: %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("Expand returned %v, want 3 days", got)
	}
}

func TestExpandRejectsBadInput(t *testing.T) {
	start := datetime.NewDate(2024, 3, 1)
	now := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)

	if _, err := Expand(nil, start, now, now); err == nil {
		t.Fatalf("expected error for nil recurrence")
	}
	if _, err := Expand(&models.Recurrence{Freq: models.FreqDaily}, start, now, now.Add(-time.Hour)); err == nil {
		t.Fatalf("expected error for inverted range")
	}
	if err := Check(&models.Recurrence{Freq: "fortnightly"}, start); err == nil {
		t.Fatalf("expected error for unknown frequency")
	}
}
