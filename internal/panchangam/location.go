/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package panchangam

import (
	"fmt"
	"math"
	"strconv"
	"sync"
	"time"
)

// Location is an observer on the ground. It is a value type; build it with
// NewLocation so the coordinates and zone are known to be valid.
type Location struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	Timezone  string  `json:"timezone"`
}

// NewLocation validates and returns a Location.
func NewLocation(lat, lon float64, tz string) (Location, error) {
	loc := Location{Latitude: lat, Longitude: lon, Timezone: tz}
	if err := loc.Validate(); err != nil {
		return Location{}, err
	}
	return loc, nil
}

// Validate checks coordinate ranges and resolves the zone.
func (l Location) Validate() error {
	if math.IsNaN(l.Latitude) || l.Latitude < -90 || l.Latitude > 90 {
		return invalid("latitude", formatCoord(l.Latitude), "must be within [-90, 90]")
	}
	if math.IsNaN(l.Longitude) || l.Longitude < -180 || l.Longitude > 180 {
		return invalid("longitude", formatCoord(l.Longitude), "must be within [-180, 180]")
	}
	if _, err := l.TZ(); err != nil {
		return err
	}
	return nil
}

// TZ resolves the zone identifier.
func (l Location) TZ() (*time.Location, error) {
	return loadZone(l.Timezone)
}

// Canonical returns the location identity used for cache keys: coordinates
// rounded to four decimals (about 11 m) plus the zone.
func (l Location) Canonical() string {
	return fmt.Sprintf("%.4f,%.4f,%s", l.Latitude, l.Longitude, l.Timezone)
}

func formatCoord(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

var zones sync.Map // name -> *time.Location

func loadZone(name string) (*time.Location, error) {
	if name == "" {
		return nil, invalid("timezone", name, "required")
	}
	if z, ok := zones.Load(name); ok {
		return z.(*time.Location), nil
	}
	z, err := time.LoadLocation(name)
	if err != nil {
		return nil, invalid("timezone", name, "unknown zone")
	}
	actual, _ := zones.LoadOrStore(name, z)
	return actual.(*time.Location), nil
}

// Date is a civil calendar date with no zone attached.
type Date struct {
	Year  int
	Month time.Month
	Day   int
}

// NewDate validates a year, month and day.
func NewDate(year int, month time.Month, day int) (Date, error) {
	t := time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
	if t.Year() != year || t.Month() != month || t.Day() != day {
		return Date{}, invalid("date", fmt.Sprintf("%04d-%02d-%02d", year, int(month), day), "no such calendar date")
	}
	return Date{Year: year, Month: month, Day: day}, nil
}

// ParseDate parses YYYY-MM-DD.
func ParseDate(s string) (Date, error) {
	t, err := time.Parse(time.DateOnly, s)
	if err != nil {
		return Date{}, invalid("date", s, "expected YYYY-MM-DD")
	}
	return DateOf(t), nil
}

// DateOf returns the civil date of t in t's location.
func DateOf(t time.Time) Date {
	y, m, d := t.Date()
	return Date{Year: y, Month: m, Day: d}
}

// In returns local midnight of d in loc.
func (d Date) In(loc *time.Location) time.Time {
	return time.Date(d.Year, d.Month, d.Day, 0, 0, 0, 0, loc)
}

// AddDays returns d shifted by n calendar days.
func (d Date) AddDays(n int) Date {
	return DateOf(time.Date(d.Year, d.Month, d.Day+n, 0, 0, 0, 0, time.UTC))
}

// Weekday returns the day of week.
func (d Date) Weekday() time.Weekday {
	return d.In(time.UTC).Weekday()
}

// Before reports whether d is earlier than o.
func (d Date) Before(o Date) bool {
	return d.In(time.UTC).Before(o.In(time.UTC))
}

func (d Date) String() string {
	return fmt.Sprintf("%04d-%02d-%02d", d.Year, int(d.Month), d.Day)
}

// IsZero reports whether d is the zero Date.
func (d Date) IsZero() bool {
	return d == Date{}
}

// MarshalText encodes the date as YYYY-MM-DD, or empty for the zero Date.
func (d Date) MarshalText() ([]byte, error) {
	if d.IsZero() {
		return []byte{}, nil
	}
	return []byte(d.String()), nil
}

// UnmarshalText decodes YYYY-MM-DD. Empty input yields the zero Date.
func (d *Date) UnmarshalText(b []byte) error {
	if len(b) == 0 {
		*d = Date{}
		return nil
	}
	parsed, err := ParseDate(string(b))
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// DaysIn returns the number of days in a month.
func DaysIn(year int, month time.Month) int {
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}
