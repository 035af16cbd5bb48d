package microsoft

import (
	"fmt"
	"strings"
	"time"

	"calnorm/internal/datetime"
	"calnorm/internal/models"
)

var graphDays = map[models.Weekday]string{
	models.Monday:    "monday",
	models.Tuesday:   "tuesday",
	models.Wednesday: "wednesday",
	models.Thursday:  "thursday",
	models.Friday:    "friday",
	models.Saturday:  "saturday",
	models.Sunday:    "sunday",
}

var graphIndexes = map[int]string{1: "first", 2: "second", 3: "third", 4: "fourth", -1: "last"}

func weekdayOf(graph string) (models.Weekday, bool) {
	graph = strings.ToLower(graph)
	for d, name := range graphDays {
		if name == graph {
			return d, true
		}
	}
	return "", false
}

func indexOf(graph string) int {
	for n, name := range graphIndexes {
		if strings.EqualFold(name, graph) {
			return n
		}
	}
	return 0
}

func weekdayFromTime(t time.Time) models.Weekday {
	// time.Sunday is 0.
	return models.Weekdays[(int(t.Weekday())+6)%7]
}

// parseRecurrence converts a patterned recurrence. Pattern types Graph does
// not document are ignored.
func parseRecurrence(pr *PatternedRecurrence) *models.Recurrence {
	if pr == nil || pr.Pattern.Type == "" {
		return nil
	}
	p := pr.Pattern
	r := &models.Recurrence{Interval: max(p.Interval, 1)}

	days := func(n int) []models.WeekdayNum {
		var out []models.WeekdayNum
		for _, name := range p.DaysOfWeek {
			if d, ok := weekdayOf(name); ok {
				out = append(out, models.WeekdayNum{N: n, Day: d})
			}
		}
		return out
	}

	switch p.Type {
	case "daily":
		r.Freq = models.FreqDaily
	case "weekly":
		r.Freq = models.FreqWeekly
		r.ByDay = days(0)
		if d, ok := weekdayOf(p.FirstDayOfWeek); ok {
			r.WeekStart = d
		}
	case "absoluteMonthly":
		r.Freq = models.FreqMonthly
		if p.DayOfMonth != 0 {
			r.ByMonthDay = []int{p.DayOfMonth}
		}
	case "relativeMonthly":
		r.Freq = models.FreqMonthly
		r.ByDay = days(indexOrFirst(p.Index))
	case "absoluteYearly":
		r.Freq = models.FreqYearly
		if p.Month != 0 {
			r.ByMonth = []int{p.Month}
		}
		if p.DayOfMonth != 0 {
			r.ByMonthDay = []int{p.DayOfMonth}
		}
	case "relativeYearly":
		r.Freq = models.FreqYearly
		if p.Month != 0 {
			r.ByMonth = []int{p.Month}
		}
		r.ByDay = days(indexOrFirst(p.Index))
	default:
		return nil
	}

	switch pr.Range.Type {
	case "numbered":
		r.Count = pr.Range.NumberOfOccurrences
	case "endDate":
		if d, err := datetime.ParseDate(pr.Range.EndDate); err == nil {
			r.Until = d
		}
	}
	return r
}

func indexOrFirst(idx string) int {
	if n := indexOf(idx); n != 0 {
		return n
	}
	return 1
}

// formatRecurrence converts r into a patterned recurrence starting at start.
// Exception and inclusion dates, and BY* fields Graph cannot express, are not
// carried over.
func formatRecurrence(r *models.Recurrence, start datetime.Value, zone string) (*PatternedRecurrence, error) {
	if r == nil {
		return nil, nil
	}
	loc := datetime.SeriesLocation(start)
	st, err := datetime.Time(start, loc)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve recurrence start: %w", err)
	}

	p := RecurrencePattern{Interval: r.EffectiveInterval()}
	graphDaysOf := func() ([]string, int) {
		var out []string
		n := 0
		for _, d := range r.ByDay {
			out = append(out, graphDays[d.Day])
			if d.N != 0 {
				n = d.N
			}
		}
		if n == 0 && len(r.BySetPos) > 0 {
			n = r.BySetPos[0]
		}
		return out, n
	}

	switch r.Freq {
	case models.FreqDaily:
		p.Type = "daily"
	case models.FreqWeekly:
		p.Type = "weekly"
		p.DaysOfWeek, _ = graphDaysOf()
		if len(p.DaysOfWeek) == 0 {
			p.DaysOfWeek = []string{graphDays[weekdayFromTime(st)]}
		}
		p.FirstDayOfWeek = graphDays[models.Sunday]
		if r.WeekStart != "" {
			p.FirstDayOfWeek = graphDays[r.WeekStart]
		}
	case models.FreqMonthly, models.FreqYearly:
		yearly := r.Freq == models.FreqYearly
		if yearly {
			p.Month = int(st.Month())
			if len(r.ByMonth) > 0 {
				p.Month = r.ByMonth[0]
			}
		}
		if days, n := graphDaysOf(); len(days) > 0 {
			idx, ok := graphIndexes[n]
			if !ok {
				return nil, fmt.Errorf("weekday ordinal %d cannot be expressed", n)
			}
			p.DaysOfWeek, p.Index = days, idx
			p.Type = "relativeMonthly"
			if yearly {
				p.Type = "relativeYearly"
			}
		} else {
			p.DayOfMonth = st.Day()
			if len(r.ByMonthDay) > 0 {
				p.DayOfMonth = r.ByMonthDay[0]
			}
			p.Type = "absoluteMonthly"
			if yearly {
				p.Type = "absoluteYearly"
			}
		}
	default:
		return nil, fmt.Errorf("recurrence frequency %q cannot be expressed", r.Freq)
	}

	rng := RecurrenceRange{
		Type:               "noEnd",
		StartDate:          st.Format(datetime.DateLayout),
		RecurrenceTimeZone: zone,
	}
	switch {
	case r.Count > 0:
		rng.Type = "numbered"
		rng.NumberOfOccurrences = r.Count
	case r.Until != nil:
		until, err := datetime.Time(r.Until, loc)
		if err != nil {
			return nil, fmt.Errorf("failed to resolve recurrence until: %w", err)
		}
		rng.Type = "endDate"
		rng.EndDate = until.In(loc).Format(datetime.DateLayout)
	}
	return &PatternedRecurrence{Pattern: p, Range: rng}, nil
}
