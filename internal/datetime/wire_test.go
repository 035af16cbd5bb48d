package datetime

import (
	"testing"
	"time"
)

func TestParseDateTime(t *testing.T) {
	berlin, err := LoadZone("Europe/Berlin")
	if err != nil {
		t.Fatalf("LoadZone: %v", err)
	}
	utc10 := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)

	tcs := []struct {
		name     string
		value    string
		zone     string
		expected Value
	}{
		{"offsetWithZone", "2024-03-01T11:00:00+01:00", "Europe/Berlin", NewZoned(utc10, berlin)},
		{"naiveWithZone", "2024-03-01T11:00:00", "Europe/Berlin", NewZoned(utc10, berlin)},
		{"naiveWindowsZone", "2024-03-01T11:00:00.0000000", "W. Europe Standard Time", NewZoned(utc10, berlin)},
		{"naiveUTC", "2024-03-01T10:00:00", "UTC", NewInstant(utc10)},
		{"offsetUTC", "2024-03-01T10:00:00Z", "UTC", NewZoned(utc10, time.UTC)},
		{"noZone", "2024-03-01T10:00:00Z", "", NewInstant(utc10)},
		{"unknownZone", "2024-03-01T10:00:00Z", "Mars/Olympus", NewInstant(utc10)},
	}

	for _, tc := range tcs {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			got, err := ParseDateTime(tc.value, tc.zone)
			if err != nil {
				t.Fatalf("ParseDateTime(%q, %q) error: %v", tc.value, tc.zone, err)
			}
			if !Equal(got, tc.expected) {
				t.Fatalf("ParseDateTime(%q, %q)=%v, want %v", tc.value, tc.zone, got, tc.expected)
			}
		})
	}

	if _, err := ParseDateTime("yesterday", "UTC"); err == nil {
		t.Fatalf("ParseDateTime(yesterday) expected error")
	}
}
