package microsoft

import (
	"fmt"
	"time"

	"calnorm/internal/datetime"
	"calnorm/internal/models"
)

// parseDateTimeTimeZone converts start or end. All-day events carry midnight
// date-times; only their date part is kept. Graph answers in UTC, so a timed
// value is anchored back to original, the zone the event was created in, when
// that zone resolves to something other than UTC.
func parseDateTimeTimeZone(dt *DateTimeTimeZone, original string, allDay bool, field string) (datetime.Value, error) {
	if dt == nil || dt.DateTime == "" {
		return nil, fmt.Errorf("%w: %s", models.ErrMissingField, field)
	}
	if allDay {
		if len(dt.DateTime) < len(datetime.DateLayout) {
			return nil, fmt.Errorf("failed to parse %s: invalid date %q", field, dt.DateTime)
		}
		d, err := datetime.ParseDate(dt.DateTime[:len(datetime.DateLayout)])
		if err != nil {
			return nil, fmt.Errorf("failed to parse %s: %w", field, err)
		}
		return d, nil
	}
	v, err := datetime.ParseDateTime(dt.DateTime, dt.TimeZone)
	if err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", field, err)
	}
	if inst, ok := v.(datetime.Instant); ok && original != "" {
		if loc, err := datetime.LoadZone(original); err == nil && loc != time.UTC {
			return datetime.NewZoned(inst.Time, loc), nil
		}
	}
	return v, nil
}

// formatDateTimeTimeZone is the inverse of parseDateTimeTimeZone. Graph
// always wants wall time plus a zone, so dates are sent as UTC midnight.
func formatDateTimeTimeZone(v datetime.Value, prov *datetime.Provenance) (*DateTimeTimeZone, error) {
	switch v := v.(type) {
	case datetime.Date:
		return &DateTimeTimeZone{DateTime: v.In(time.UTC).Format(datetime.NaiveLayout), TimeZone: "UTC"}, nil
	case datetime.Instant:
		return &DateTimeTimeZone{DateTime: v.Time.UTC().Format(datetime.NaiveLayout), TimeZone: "UTC"}, nil
	case datetime.Zoned:
		return &DateTimeTimeZone{DateTime: v.Time.Format(datetime.NaiveLayout), TimeZone: prov.Emit(v.Zone)}, nil
	default:
		return nil, fmt.Errorf("unsupported date value %T", v)
	}
}
