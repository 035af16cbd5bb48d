package recurrence

import (
	"errors"
	"fmt"
	"time"

	"github.com/teambition/rrule-go"

	"calnorm/internal/datetime"
	"calnorm/internal/models"
)

const defaultMaxOccurrences = 5000

var rruleFreqs = map[models.Frequency]rrule.Frequency{
	models.FreqYearly:   rrule.YEARLY,
	models.FreqMonthly:  rrule.MONTHLY,
	models.FreqWeekly:   rrule.WEEKLY,
	models.FreqDaily:    rrule.DAILY,
	models.FreqHourly:   rrule.HOURLY,
	models.FreqMinutely: rrule.MINUTELY,
	models.FreqSecondly: rrule.SECONDLY,
}

var rruleDays = map[models.Weekday]rrule.Weekday{
	models.Monday:    rrule.MO,
	models.Tuesday:   rrule.TU,
	models.Wednesday: rrule.WE,
	models.Thursday:  rrule.TH,
	models.Friday:    rrule.FR,
	models.Saturday:  rrule.SA,
	models.Sunday:    rrule.SU,
}

// Expand returns the occurrence starts of a series beginning at dtstart that
// fall within [from, to]. Exception dates are removed and inclusion dates
// added. Results are capped to protect against unbounded rules.
func Expand(r *models.Recurrence, dtstart datetime.Value, from, to time.Time) ([]time.Time, error) {
	if r == nil {
		return nil, errors.New("expand: recurrence is nil")
	}
	if to.Before(from) {
		return nil, errors.New("expand: range end is before range start")
	}

	loc := datetime.SeriesLocation(dtstart)
	set, err := buildSet(r, dtstart, loc)
	if err != nil {
		return nil, err
	}

	occ := set.Between(from.In(loc), to.In(loc), true)
	if len(occ) > defaultMaxOccurrences {
		occ = occ[:defaultMaxOccurrences]
	}
	return occ, nil
}

// Check reports whether r can be turned into an executable rule.
func Check(r *models.Recurrence, dtstart datetime.Value) error {
	_, err := buildSet(r, dtstart, datetime.SeriesLocation(dtstart))
	return err
}

func buildSet(r *models.Recurrence, dtstart datetime.Value, loc *time.Location) (*rrule.Set, error) {
	freq, ok := rruleFreqs[r.Freq]
	if !ok {
		return nil, fmt.Errorf("expand: unsupported frequency %q", r.Freq)
	}
	start, err := datetime.Time(dtstart, loc)
	if err != nil {
		return nil, fmt.Errorf("expand: %w", err)
	}

	opt := rrule.ROption{
		Freq:       freq,
		Dtstart:    start,
		Interval:   r.EffectiveInterval(),
		Count:      r.Count,
		Bymonth:    r.ByMonth,
		Bymonthday: r.ByMonthDay,
		Byyearday:  r.ByYearDay,
		Byweekno:   r.ByWeekNo,
		Byhour:     r.ByHour,
		Byminute:   r.ByMinute,
		Bysecond:   r.BySecond,
		Bysetpos:   r.BySetPos,
	}
	if r.Until != nil && r.Count == 0 {
		until, err := datetime.Time(r.Until, loc)
		if err != nil {
			return nil, fmt.Errorf("expand: %w", err)
		}
		if datetime.IsDate(r.Until) {
			// A date-only UNTIL includes the whole day.
			until = until.AddDate(0, 0, 1).Add(-time.Second)
		}
		opt.Until = until
	}
	for _, d := range r.ByDay {
		wd, ok := rruleDays[d.Day]
		if !ok {
			return nil, fmt.Errorf("expand: unsupported weekday %q", d.Day)
		}
		if d.N != 0 {
			wd = wd.Nth(d.N)
		}
		opt.Byweekday = append(opt.Byweekday, wd)
	}
	if r.WeekStart != "" {
		if wd, ok := rruleDays[r.WeekStart]; ok {
			opt.Wkst = wd
		}
	}

	rule, err := rrule.NewRRule(opt)
	if err != nil {
		return nil, fmt.Errorf("expand: invalid rule: %w", err)
	}

	set := &rrule.Set{}
	set.RRule(rule)
	for _, v := range r.ExDates {
		t, err := datetime.Time(v, loc)
		if err != nil {
			continue
		}
		set.ExDate(t)
	}
	for _, v := range r.RDates {
		t, err := datetime.Time(v, loc)
		if err != nil {
			continue
		}
		set.RDate(t)
	}
	return set, nil
}
