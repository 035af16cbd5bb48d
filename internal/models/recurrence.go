package models

import (
	"calnorm/internal/datetime"
)

// Frequency is the recurrence unit.
type Frequency string

const (
	FreqYearly   Frequency = "yearly"
	FreqMonthly  Frequency = "monthly"
	FreqWeekly   Frequency = "weekly"
	FreqDaily    Frequency = "daily"
	FreqHourly   Frequency = "hourly"
	FreqMinutely Frequency = "minutely"
	FreqSecondly Frequency = "secondly"
)

// IsValid returns true if the frequency is one of the seven known units.
func (f Frequency) IsValid() bool {
	switch f {
	case FreqYearly, FreqMonthly, FreqWeekly, FreqDaily, FreqHourly, FreqMinutely, FreqSecondly:
		return true
	}
	return false
}

// Weekday uses the two-letter rule abbreviations.
type Weekday string

const (
	Monday    Weekday = "MO"
	Tuesday   Weekday = "TU"
	Wednesday Weekday = "WE"
	Thursday  Weekday = "TH"
	Friday    Weekday = "FR"
	Saturday  Weekday = "SA"
	Sunday    Weekday = "SU"
)

// Weekdays lists the days Monday first.
var Weekdays = []Weekday{Monday, Tuesday, Wednesday, Thursday, Friday, Saturday, Sunday}

// IsValid returns true if the weekday is a known value.
func (w Weekday) IsValid() bool {
	for _, d := range Weekdays {
		if d == w {
			return true
		}
	}
	return false
}

// WeekdayNum is a BYDAY entry: a weekday with an optional ordinal, e.g. -1FR.
type WeekdayNum struct {
	N   int     `json:"n,omitempty"`
	Day Weekday `json:"day"`
}

// Recurrence is the structured repetition rule of a series. Nil BY* lists mean
// the field was not set.
type Recurrence struct {
	Freq     Frequency
	Interval int
	Count    int
	Until    datetime.Value

	ByDay      []WeekdayNum
	ByMonth    []int
	ByMonthDay []int
	ByYearDay  []int
	ByWeekNo   []int
	ByHour     []int
	ByMinute   []int
	BySecond   []int
	BySetPos   []int
	WeekStart  Weekday

	ExDates []datetime.Value
	RDates  []datetime.Value
}

// EffectiveInterval treats an unset interval as 1.
func (r *Recurrence) EffectiveInterval() int {
	if r.Interval <= 0 {
		return 1
	}
	return r.Interval
}
