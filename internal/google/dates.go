package google

import (
	"fmt"
	"time"

	"google.golang.org/api/calendar/v3"

	"calnorm/internal/datetime"
	"calnorm/internal/models"
)

// parseEventDateTime converts start or end. A field with only a date yields
// a calendar date.
func parseEventDateTime(edt *calendar.EventDateTime, field string) (datetime.Value, error) {
	if edt == nil || (edt.Date == "" && edt.DateTime == "") {
		return nil, fmt.Errorf("%w: %s", models.ErrMissingField, field)
	}
	if edt.DateTime == "" {
		d, err := datetime.ParseDate(edt.Date)
		if err != nil {
			return nil, fmt.Errorf("failed to parse %s: %w", field, err)
		}
		return d, nil
	}
	v, err := datetime.ParseDateTime(edt.DateTime, edt.TimeZone)
	if err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", field, err)
	}
	return v, nil
}

// formatEventDateTime is the inverse of parseEventDateTime. prov, when it
// denotes the same zone, supplies the zone string that is sent back.
func formatEventDateTime(v datetime.Value, prov *datetime.Provenance) (*calendar.EventDateTime, error) {
	switch v := v.(type) {
	case datetime.Date:
		return &calendar.EventDateTime{Date: v.String()}, nil
	case datetime.Instant:
		return &calendar.EventDateTime{
			DateTime: v.Time.UTC().Format(datetime.NaiveLayout),
			TimeZone: "UTC",
		}, nil
	case datetime.Zoned:
		return &calendar.EventDateTime{
			DateTime: v.Time.Format(time.RFC3339),
			TimeZone: prov.Emit(v.Zone),
		}, nil
	default:
		return nil, fmt.Errorf("unsupported date value %T", v)
	}
}
