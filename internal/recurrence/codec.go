// Package recurrence converts between the structured Recurrence model and the
// line-oriented rule strings providers exchange (RRULE, EXDATE, RDATE).
package recurrence

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"calnorm/internal/datetime"
	"calnorm/internal/models"
)

const (
	compactDate     = "20060102"
	compactDateTime = "20060102T150405"
	compactUTC      = "20060102T150405Z"
)

var freqNames = map[models.Frequency]string{
	models.FreqYearly:   "YEARLY",
	models.FreqMonthly:  "MONTHLY",
	models.FreqWeekly:   "WEEKLY",
	models.FreqDaily:    "DAILY",
	models.FreqHourly:   "HOURLY",
	models.FreqMinutely: "MINUTELY",
	models.FreqSecondly: "SECONDLY",
}

// Export encodes r as rule lines. allDay selects date-only formatting for
// every date-bearing field.
func Export(r *models.Recurrence, allDay bool) ([]string, error) {
	if r == nil {
		return nil, nil
	}
	freq, ok := freqNames[r.Freq]
	if !ok {
		return nil, fmt.Errorf("unsupported recurrence frequency %q", r.Freq)
	}

	parts := []string{"FREQ=" + freq}
	if r.Interval > 1 {
		parts = append(parts, "INTERVAL="+strconv.Itoa(r.Interval))
	}
	if r.Count > 0 {
		parts = append(parts, "COUNT="+strconv.Itoa(r.Count))
	} else if r.Until != nil {
		until, err := formatUntil(r.Until, allDay)
		if err != nil {
			return nil, err
		}
		parts = append(parts, "UNTIL="+until)
	}
	if len(r.ByDay) > 0 {
		days := make([]string, len(r.ByDay))
		for i, d := range r.ByDay {
			days[i] = formatWeekdayNum(d)
		}
		parts = append(parts, "BYDAY="+strings.Join(days, ","))
	}
	parts = appendInts(parts, "BYMONTH", r.ByMonth)
	parts = appendInts(parts, "BYMONTHDAY", r.ByMonthDay)
	parts = appendInts(parts, "BYYEARDAY", r.ByYearDay)
	parts = appendInts(parts, "BYWEEKNO", r.ByWeekNo)
	parts = appendInts(parts, "BYHOUR", r.ByHour)
	parts = appendInts(parts, "BYMINUTE", r.ByMinute)
	parts = appendInts(parts, "BYSECOND", r.BySecond)
	parts = appendInts(parts, "BYSETPOS", r.BySetPos)
	if r.WeekStart != "" {
		parts = append(parts, "WKST="+string(r.WeekStart))
	}

	lines := []string{"RRULE:" + strings.Join(parts, ";")}
	for _, v := range r.ExDates {
		line, err := formatDateLine("EXDATE", v, allDay)
		if err != nil {
			return nil, err
		}
		lines = append(lines, line)
	}
	for _, v := range r.RDates {
		line, err := formatDateLine("RDATE", v, allDay)
		if err != nil {
			return nil, err
		}
		lines = append(lines, line)
	}
	return lines, nil
}

func appendInts(parts []string, key string, values []int) []string {
	if len(values) == 0 {
		return parts
	}
	s := make([]string, len(values))
	for i, v := range values {
		s[i] = strconv.Itoa(v)
	}
	return append(parts, key+"="+strings.Join(s, ","))
}

func formatWeekdayNum(d models.WeekdayNum) string {
	if d.N == 0 {
		return string(d.Day)
	}
	return strconv.Itoa(d.N) + string(d.Day)
}

// formatUntil renders UNTIL: a date for all-day series, local wall time for
// zoned values and UTC for instants.
func formatUntil(v datetime.Value, allDay bool) (string, error) {
	switch v := v.(type) {
	case datetime.Date:
		return v.In(time.UTC).Format(compactDate), nil
	case datetime.Instant:
		if allDay {
			return v.Time.UTC().Format(compactDate), nil
		}
		return v.Time.UTC().Format(compactUTC), nil
	case datetime.Zoned:
		if allDay {
			return v.Time.Format(compactDate), nil
		}
		return v.Time.Format(compactDateTime), nil
	default:
		return "", fmt.Errorf("unsupported until value %T", v)
	}
}

func formatDateLine(name string, v datetime.Value, allDay bool) (string, error) {
	switch v := v.(type) {
	case datetime.Date:
		return name + ";VALUE=DATE:" + v.In(time.UTC).Format(compactDate), nil
	case datetime.Instant:
		if allDay {
			return name + ";VALUE=DATE:" + v.Time.UTC().Format(compactDate), nil
		}
		return name + ":" + v.Time.UTC().Format(compactUTC), nil
	case datetime.Zoned:
		if allDay {
			return name + ";VALUE=DATE:" + v.Time.Format(compactDate), nil
		}
		return name + ";TZID=" + v.Zone + ":" + v.Time.Format(compactDateTime), nil
	default:
		return "", fmt.Errorf("unsupported %s value %T", strings.ToLower(name), v)
	}
}

// Line is one rule line split into its name, parameters and value.
type Line struct {
	Name   string
	Params map[string]string
	Value  string
}

// SplitLine tokenizes "NAME;KEY=VAL:VALUE". A line without a name prefix is
// treated as a bare RRULE value.
func SplitLine(raw string) Line {
	raw = strings.TrimSpace(raw)
	head, value, found := strings.Cut(raw, ":")
	if !found {
		return Line{Name: "RRULE", Value: raw}
	}
	fields := strings.Split(head, ";")
	l := Line{Name: strings.ToUpper(strings.TrimSpace(fields[0])), Value: strings.TrimSpace(value)}
	for _, f := range fields[1:] {
		k, v, ok := strings.Cut(f, "=")
		if !ok {
			continue
		}
		if l.Params == nil {
			l.Params = map[string]string{}
		}
		l.Params[strings.ToUpper(strings.TrimSpace(k))] = strings.Trim(strings.TrimSpace(v), `"`)
	}
	return l
}

// Parse decodes rule lines into a Recurrence. loc is the series zone and is
// used for zone-naive date-times. Unknown keys and malformed values are
// skipped. It returns nil when no RRULE line with a known FREQ is present.
func Parse(lines []string, loc *time.Location) *models.Recurrence {
	if loc == nil {
		loc = time.UTC
	}
	var r *models.Recurrence
	var exDates, rDates []datetime.Value

	for _, raw := range lines {
		if strings.TrimSpace(raw) == "" {
			continue
		}
		line := SplitLine(raw)
		switch line.Name {
		case "RRULE":
			if r == nil {
				r = parseRule(line.Value, loc)
			}
		case "EXDATE":
			exDates = append(exDates, parseDateList(line, loc)...)
		case "RDATE":
			rDates = append(rDates, parseDateList(line, loc)...)
		}
	}

	if r == nil {
		return nil
	}
	r.ExDates = exDates
	r.RDates = rDates
	return r
}

// HasRule reports whether lines contain an RRULE line.
func HasRule(lines []string) bool {
	for _, raw := range lines {
		if strings.TrimSpace(raw) != "" && SplitLine(raw).Name == "RRULE" {
			return true
		}
	}
	return false
}

func parseRule(value string, loc *time.Location) *models.Recurrence {
	r := &models.Recurrence{Interval: 1}
	for _, pair := range strings.Split(value, ";") {
		k, v, ok := strings.Cut(pair, "=")
		if !ok {
			continue
		}
		k = strings.ToUpper(strings.TrimSpace(k))
		v = strings.TrimSpace(v)
		switch k {
		case "FREQ":
			if f, ok := parseFreq(v); ok {
				r.Freq = f
			}
		case "INTERVAL":
			if n, err := strconv.Atoi(v); err == nil && n > 0 {
				r.Interval = n
			}
		case "COUNT":
			if n, err := strconv.Atoi(v); err == nil && n > 0 {
				r.Count = n
			}
		case "UNTIL":
			if d, err := parseDateValue(v, "", false, loc); err == nil {
				r.Until = d
			}
		case "BYDAY":
			r.ByDay = parseWeekdayNums(v)
		case "BYMONTH":
			r.ByMonth = parseInts(v)
		case "BYMONTHDAY":
			r.ByMonthDay = parseInts(v)
		case "BYYEARDAY":
			r.ByYearDay = parseInts(v)
		case "BYWEEKNO":
			r.ByWeekNo = parseInts(v)
		case "BYHOUR":
			r.ByHour = parseInts(v)
		case "BYMINUTE":
			r.ByMinute = parseInts(v)
		case "BYSECOND":
			r.BySecond = parseInts(v)
		case "BYSETPOS":
			r.BySetPos = parseInts(v)
		case "WKST":
			if w := models.Weekday(strings.ToUpper(v)); w.IsValid() {
				r.WeekStart = w
			}
		}
	}
	if r.Freq == "" {
		return nil
	}
	if r.Count > 0 {
		r.Until = nil
	}
	return r
}

func parseFreq(v string) (models.Frequency, bool) {
	v = strings.ToUpper(v)
	for f, name := range freqNames {
		if name == v {
			return f, true
		}
	}
	return "", false
}

func parseInts(v string) []int {
	var out []int
	for _, s := range strings.Split(v, ",") {
		n, err := strconv.Atoi(strings.TrimSpace(s))
		if err != nil {
			continue
		}
		out = append(out, n)
	}
	return out
}

func parseWeekdayNums(v string) []models.WeekdayNum {
	var out []models.WeekdayNum
	for _, s := range strings.Split(v, ",") {
		s = strings.ToUpper(strings.TrimSpace(s))
		if len(s) < 2 {
			continue
		}
		day := models.Weekday(s[len(s)-2:])
		if !day.IsValid() {
			continue
		}
		n := 0
		if prefix := s[:len(s)-2]; prefix != "" {
			parsed, err := strconv.Atoi(prefix)
			if err != nil || parsed == 0 {
				continue
			}
			n = parsed
		}
		out = append(out, models.WeekdayNum{N: n, Day: day})
	}
	return out
}

func parseDateList(line Line, loc *time.Location) []datetime.Value {
	dateOnly := strings.EqualFold(line.Params["VALUE"], "DATE")
	var out []datetime.Value
	for _, s := range strings.Split(line.Value, ",") {
		v, err := parseDateValue(strings.TrimSpace(s), line.Params["TZID"], dateOnly, loc)
		if err != nil {
			continue
		}
		out = append(out, v)
	}
	return out
}

// parseDateValue decodes a compact date or date-time. A TZID wins over the
// series zone; a trailing Z yields an instant.
func parseDateValue(s, tzid string, dateOnly bool, loc *time.Location) (datetime.Value, error) {
	if dateOnly || len(s) == len(compactDate) {
		t, err := time.Parse(compactDate, s)
		if err != nil {
			return nil, err
		}
		return datetime.DateOf(t), nil
	}
	if strings.HasSuffix(s, "Z") {
		t, err := time.Parse(compactUTC, s)
		if err != nil {
			return nil, err
		}
		return datetime.NewInstant(t), nil
	}
	zone := loc
	if tzid != "" {
		if z, err := datetime.LoadZone(tzid); err == nil {
			zone = z
		}
	}
	t, err := time.ParseInLocation(compactDateTime, s, zone)
	if err != nil {
		return nil, err
	}
	return datetime.NewZoned(t, zone), nil
}
