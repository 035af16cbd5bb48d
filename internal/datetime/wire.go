package datetime

import (
	"fmt"
	"strings"
	"time"
)

// ParseDateTime decodes a provider date-time field and its optional zone
// field. The result is:
//   - Instant when zone is empty, cannot be resolved, or is UTC while the
//     date-time carries no offset;
//   - Zoned anchored to the resolved zone otherwise.
//
// A date-time without an offset is read as wall time in the zone.
func ParseDateTime(s, zone string) (Value, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, fmt.Errorf("empty date-time")
	}

	t, err := time.Parse(time.RFC3339Nano, s)
	naive := err != nil
	if naive {
		if t, err = time.Parse(NaiveLayout, s); err != nil {
			return nil, fmt.Errorf("invalid date-time %q: %w", s, err)
		}
	}

	if zone == "" {
		return NewInstant(t), nil
	}
	loc, err := LoadZone(zone)
	if err != nil {
		return NewInstant(t), nil
	}
	if !naive {
		return NewZoned(t, loc), nil
	}
	if loc == time.UTC {
		return NewInstant(t), nil
	}
	wall, err := time.ParseInLocation(NaiveLayout, s, loc)
	if err != nil {
		return nil, fmt.Errorf("invalid date-time %q: %w", s, err)
	}
	return NewZoned(wall, loc), nil
}

// SeriesLocation returns the zone a recurrence anchored at v is decoded in.
// Dates and instants use UTC.
func SeriesLocation(v Value) *time.Location {
	if z, ok := v.(Zoned); ok {
		return z.Location()
	}
	return time.UTC
}
