/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

// Package panchangam computes the Hindu luni-solar calendar quantities of a
// civil date at a location.
package panchangam

import (
	"math"
	"time"

	"github.com/friendsincode/panchangam/internal/astro"
)

const (
	tithiSpan     = 12.0
	karanaSpan    = 6.0
	nakshatraSpan = 360.0 / 27
)

// Calculator is a pure function of (date, location). It does no I/O and
// holds no mutable state, so one value may be shared by any number of
// goroutines.
type Calculator struct {
	eph astro.Provider
}

// NewCalculator returns a Calculator over the given ephemeris.
func NewCalculator(eph astro.Provider) *Calculator {
	return &Calculator{eph: eph}
}

// Compute returns the panchangam of date at loc.
func (c *Calculator) Compute(date Date, loc Location) (*Day, error) {
	if err := loc.Validate(); err != nil {
		return nil, err
	}
	if _, err := NewDate(date.Year, date.Month, date.Day); err != nil {
		return nil, err
	}
	tz, _ := loc.TZ()

	ev, err := c.eph.SunTimes(date.In(tz), loc.Latitude, loc.Longitude)
	if err != nil {
		return nil, err
	}
	if !ev.OK() {
		return nil, &AstronomicalComputationError{Op: "sun times", Reason: date.String() + " " + ev.Kind.String(), Err: astro.ErrNoSunEvent}
	}

	sunrise, err := c.angas(ev.Sunrise)
	if err != nil {
		return nil, err
	}
	sunset, err := c.angas(ev.Sunset)
	if err != nil {
		return nil, err
	}
	midnight, err := c.angas(date.AddDays(1).In(tz))
	if err != nil {
		return nil, err
	}

	weekday := date.Weekday()
	day := &Day{
		Date:       date,
		Weekday:    WeekdayName(weekday),
		Location:   loc,
		Sunrise:    ev.Sunrise,
		Sunset:     ev.Sunset,
		Observance: AnchorSunrise,
		Reference:  sunrise.Instant,
		Tithi:      sunrise.Tithi,
		Nakshatra:  sunrise.Nakshatra,
		Yoga:       sunrise.Yoga,
		Karana:     sunrise.Karana,
		Anchors:    Anchors{Sunrise: sunrise, Sunset: sunset, Midnight: midnight},
	}

	daylight := Split(ev.Sunrise, ev.Sunset, 8)
	day.Periods = Periods{
		RahuKalam:    daylight[rahuSegment[weekday]],
		YamaGandam:   daylight[yamaSegment[weekday]],
		GulikaiKalam: daylight[gulikaiSegment[weekday]],
	}
	day.Gowri = gowri(daylight, weekday)
	day.Horas = horas(Split(ev.Sunrise, ev.Sunset, 12), weekdayLord[weekday], 1)

	// The night of the last normal day before a polar stretch has no
	// following sunrise; such a day simply carries no night horas.
	next, err := c.eph.SunTimes(date.AddDays(1).In(tz), loc.Latitude, loc.Longitude)
	if err == nil && next.OK() {
		day.NextSunrise = next.Sunrise
		day.NightHoras = horas(Split(ev.Sunset, next.Sunrise, 12), weekdayLord[weekday]+12, 13)
	}

	return day, nil
}

// angas samples the five limbs at t.
func (c *Calculator) angas(t time.Time) (Angas, error) {
	sun, err := c.eph.EclipticLongitude(astro.Sun, t)
	if err != nil {
		return Angas{}, err
	}
	moon, err := c.eph.EclipticLongitude(astro.Moon, t)
	if err != nil {
		return Angas{}, err
	}
	return AngasFromLongitudes(t, sun, moon), nil
}

// AngasFromLongitudes derives tithi, nakshatra, yoga and karana from the
// sidereal longitudes of the sun and moon.
func AngasFromLongitudes(t time.Time, sun, moon float64) Angas {
	elongation := normalizeDegrees(moon - sun)

	ti, tp := segment(elongation, tithiSpan, 30)
	paksha := Shukla
	name := tithiNames[ti%15]
	if ti >= 15 {
		paksha = Krishna
		if ti == 29 {
			name = "Amavasya"
		}
	}

	ni, np := segment(moon, nakshatraSpan, 27)
	yi, yp := segment(normalizeDegrees(sun+moon), nakshatraSpan, 27)
	ki, kp := segment(elongation, karanaSpan, 60)

	return Angas{
		Instant:       t,
		SunLongitude:  sun,
		MoonLongitude: moon,
		Tithi:         Tithi{Number: ti + 1, Name: name, Paksha: paksha, Progress: tp, Percentage: percentage(tp)},
		Nakshatra:     Nakshatra{Number: ni + 1, Name: nakshatraNames[ni], Progress: np, Percentage: percentage(np)},
		Yoga:          Yoga{Number: yi + 1, Name: yogaNames[yi], Progress: yp, Percentage: percentage(yp)},
		Karana:        Karana{Slot: ki + 1, Name: karanaName(ki), Progress: kp, Percentage: percentage(kp)},
	}
}

// segment returns the zero-based index of the span containing deg and the
// fractional position within it. Both are clamped so float rounding at the
// 360 degree wrap cannot yield index n or progress outside [0,1].
func segment(deg, span float64, n int) (int, float64) {
	idx := int(math.Floor(deg / span))
	if idx < 0 {
		idx = 0
	}
	if idx >= n {
		idx = n - 1
	}
	progress := (deg - float64(idx)*span) / span
	return idx, math.Min(1, math.Max(0, progress))
}

func percentage(progress float64) float64 {
	return math.Round(progress*10000) / 100
}

func normalizeDegrees(d float64) float64 {
	d = math.Mod(d, 360)
	if d < 0 {
		d += 360
	}
	if d >= 360 {
		d = 0
	}
	return d
}
