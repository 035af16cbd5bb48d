// Package datetime holds the three-variant date/time value shared by every
// provider codec: a calendar date, an absolute instant, or a zone-aware
// date-time.
package datetime

import (
	"fmt"
	"time"
)

const (
	// DateLayout is the date-only wire layout.
	DateLayout = "2006-01-02"
	// NaiveLayout is a date-time without offset or zone.
	NaiveLayout = "2006-01-02T15:04:05"
)

// Value is one of Date, Instant or Zoned. The set is closed: conversion code
// switches over the three types and reports anything else as an error.
type Value interface {
	isValue()
	String() string
}

// Date is a calendar date with no time of day and no zone. All-day events use it.
type Date struct {
	Year  int
	Month time.Month
	Day   int
}

// Instant is an absolute point on the UTC time line.
type Instant struct {
	Time time.Time
}

// Zoned is a point in time anchored to an IANA zone.
type Zoned struct {
	Time time.Time
	Zone string
}

func (Date) isValue()    {}
func (Instant) isValue() {}
func (Zoned) isValue()   {}

// NewDate builds a Date.
func NewDate(year int, month time.Month, day int) Date {
	return Date{Year: year, Month: month, Day: day}
}

// DateOf returns the calendar date of t in t's own location.
func DateOf(t time.Time) Date {
	y, m, d := t.Date()
	return Date{Year: y, Month: m, Day: d}
}

// ParseDate parses a "2006-01-02" string.
func ParseDate(s string) (Date, error) {
	t, err := time.Parse(DateLayout, s)
	if err != nil {
		return Date{}, fmt.Errorf("invalid date %q: %w", s, err)
	}
	return DateOf(t), nil
}

// In returns midnight of the date in loc.
func (d Date) In(loc *time.Location) time.Time {
	return time.Date(d.Year, d.Month, d.Day, 0, 0, 0, 0, loc)
}

func (d Date) String() string {
	return fmt.Sprintf("%04d-%02d-%02d", d.Year, d.Month, d.Day)
}

// NewInstant projects t onto UTC.
func NewInstant(t time.Time) Instant {
	return Instant{Time: t.UTC()}
}

func (i Instant) String() string {
	return i.Time.UTC().Format(time.RFC3339Nano)
}

// NewZoned anchors t to loc.
func NewZoned(t time.Time, loc *time.Location) Zoned {
	return Zoned{Time: t.In(loc), Zone: loc.String()}
}

// Location loads the zone of z. A zone that fails to load falls back to UTC.
func (z Zoned) Location() *time.Location {
	if loc, err := LoadZone(z.Zone); err == nil {
		return loc
	}
	return time.UTC
}

func (z Zoned) String() string {
	return z.Time.Format(time.RFC3339Nano) + "[" + z.Zone + "]"
}

// IsDate reports whether v is a calendar date.
func IsDate(v Value) bool {
	_, ok := v.(Date)
	return ok
}

// Time returns the point in time v denotes. Dates resolve to midnight in loc.
func Time(v Value, loc *time.Location) (time.Time, error) {
	switch v := v.(type) {
	case Date:
		return v.In(loc), nil
	case Instant:
		return v.Time, nil
	case Zoned:
		return v.Time, nil
	default:
		return time.Time{}, fmt.Errorf("unsupported date value %T", v)
	}
}

// Equal reports whether a and b are the same variant denoting the same value.
func Equal(a, b Value) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	switch a := a.(type) {
	case Date:
		bd, ok := b.(Date)
		return ok && a == bd
	case Instant:
		bi, ok := b.(Instant)
		return ok && a.Time.Equal(bi.Time)
	case Zoned:
		bz, ok := b.(Zoned)
		return ok && a.Zone == bz.Zone && a.Time.Equal(bz.Time)
	default:
		return false
	}
}

// Provenance is the zone string exactly as a provider sent it, next to the
// IANA identifier it resolved to.
type Provenance struct {
	Raw string `json:"raw"`
	ID  string `json:"id"`
}

// NewProvenance resolves raw and records both forms. It returns nil when raw
// is empty.
func NewProvenance(raw string) *Provenance {
	if raw == "" {
		return nil
	}
	p := &Provenance{Raw: raw}
	if loc, err := LoadZone(raw); err == nil {
		p.ID = loc.String()
	}
	return p
}

// Emit returns the raw zone string when p denotes zone, and zone otherwise.
func (p *Provenance) Emit(zone string) string {
	if p != nil && p.Raw != "" && p.ID != "" && p.ID == zone {
		return p.Raw
	}
	return zone
}
