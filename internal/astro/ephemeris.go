/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

// Package astro computes solar and lunar positions and solar events.
//
// The series are the abridged theories from Meeus, Astronomical Algorithms
// (2nd ed.), chapters 25 and 47. They are accurate to a few arcseconds for the
// sun and roughly ten arcseconds for the moon across the supported years,
// which keeps anga boundaries within a minute or two of published almanacs.
package astro

import (
	"fmt"
	"math"
	"time"
)

// Body selects a solar system body.
type Body int

const (
	Sun Body = iota
	Moon
)

func (b Body) String() string {
	switch b {
	case Sun:
		return "sun"
	case Moon:
		return "moon"
	default:
		return fmt.Sprintf("body(%d)", int(b))
	}
}

// Zodiac selects the longitude reference frame.
type Zodiac string

const (
	// ZodiacLahiri is the sidereal frame with the Lahiri (Chitrapaksha) ayanamsa.
	ZodiacLahiri Zodiac = "lahiri"
	// ZodiacTropical measures longitude from the equinox of date.
	ZodiacTropical Zodiac = "tropical"
)

// Supported years, inclusive.
const (
	MinYear = 1800
	MaxYear = 2199
)

// Provider supplies body positions and solar events.
type Provider interface {
	// EclipticLongitude returns the apparent geocentric longitude in [0,360).
	EclipticLongitude(body Body, t time.Time) (float64, error)
	// SunTimes returns the solar events of the civil date of date in date.Location().
	SunTimes(date time.Time, lat, lon float64) (SunEvents, error)
}

// Ephemeris is the analytic Provider. It holds no mutable state.
type Ephemeris struct {
	zodiac Zodiac
}

// New returns an Ephemeris for the given frame. Empty means Lahiri.
func New(zodiac Zodiac) *Ephemeris {
	if zodiac == "" {
		zodiac = ZodiacLahiri
	}
	return &Ephemeris{zodiac: zodiac}
}

// Zodiac reports the configured frame.
func (e *Ephemeris) Zodiac() Zodiac {
	return e.zodiac
}

// EclipticLongitude implements Provider.
func (e *Ephemeris) EclipticLongitude(body Body, t time.Time) (float64, error) {
	if err := checkCoverage(t); err != nil {
		return 0, &ComputationError{Op: body.String() + " longitude", Reason: t.UTC().Format(time.RFC3339), Err: err}
	}

	T := centuriesTT(t)
	var lon float64
	switch body {
	case Sun:
		lon = sunApparentLongitude(T)
	case Moon:
		lon = moonApparentLongitude(T)
	default:
		return 0, &ComputationError{Op: "longitude", Reason: "unsupported body", Err: fmt.Errorf("%s", body)}
	}

	if e.zodiac == ZodiacLahiri {
		lon -= LahiriAyanamsa(T)
	}
	return normalize(lon), nil
}

// LahiriAyanamsa returns the Lahiri ayanamsa in degrees for T Julian
// centuries from J2000.
func LahiriAyanamsa(T float64) float64 {
	return 23.853 + 1.397*T
}

func checkCoverage(t time.Time) error {
	y := t.UTC().Year()
	if y < MinYear || y > MaxYear {
		return fmt.Errorf("%w: year %d not in %d-%d", ErrOutOfCoverage, y, MinYear, MaxYear)
	}
	return nil
}

// julianDayUT converts an instant to a Julian day on the UT scale.
func julianDayUT(t time.Time) float64 {
	return float64(t.Unix())/86400 + float64(t.Nanosecond())/86400e9 + 2440587.5
}

// centuriesTT returns Julian centuries of dynamical time since J2000.
func centuriesTT(t time.Time) float64 {
	jde := julianDayUT(t) + deltaT(t)/86400
	return (jde - 2451545.0) / 36525
}

// deltaT returns TT-UT in seconds using the Espenak-Meeus polynomials.
func deltaT(t time.Time) float64 {
	u := t.UTC()
	y := float64(u.Year()) + (float64(u.Month())-0.5)/12

	switch {
	case y < 1860:
		x := y - 1800
		return 13.72 - 0.332447*x + 0.0068612*x*x + 0.0041116*x*x*x - 0.00037436*math.Pow(x, 4) +
			0.0000121272*math.Pow(x, 5) - 0.0000001699*math.Pow(x, 6) + 0.000000000875*math.Pow(x, 7)
	case y < 1900:
		x := y - 1860
		return 7.62 + 0.5737*x - 0.251754*x*x + 0.01680668*x*x*x - 0.0004473624*math.Pow(x, 4) + math.Pow(x, 5)/233174
	case y < 1920:
		x := y - 1900
		return -2.79 + 1.494119*x - 0.0598939*x*x + 0.0061966*x*x*x - 0.000197*math.Pow(x, 4)
	case y < 1941:
		x := y - 1920
		return 21.20 + 0.84493*x - 0.076100*x*x + 0.0020936*x*x*x
	case y < 1961:
		x := y - 1950
		return 29.07 + 0.407*x - x*x/233 + x*x*x/2547
	case y < 1986:
		x := y - 1975
		return 45.45 + 1.067*x - x*x/260 - x*x*x/718
	case y < 2005:
		x := y - 2000
		return 63.86 + 0.3345*x - 0.060374*x*x + 0.0017275*x*x*x + 0.000651814*math.Pow(x, 4) + 0.00002373599*math.Pow(x, 5)
	case y < 2050:
		x := y - 2000
		return 62.92 + 0.32217*x + 0.005589*x*x
	case y < 2150:
		c := (y - 1820) / 100
		return -20 + 32*c*c - 0.5628*(2150-y)
	default:
		c := (y - 1820) / 100
		return -20 + 32*c*c
	}
}

// nutationLongitude returns the nutation in longitude in degrees.
func nutationLongitude(T float64) float64 {
	omega := rad(125.04452 - 1934.136261*T)
	ls := rad(280.4665 + 36000.7698*T)
	lm := rad(218.3165 + 481267.8813*T)
	arcsec := -17.20*math.Sin(omega) - 1.32*math.Sin(2*ls) - 0.23*math.Sin(2*lm) + 0.21*math.Sin(2*omega)
	return arcsec / 3600
}

func rad(d float64) float64 { return d * math.Pi / 180 }
func deg(r float64) float64 { return r * 180 / math.Pi }

// normalize maps an angle into [0,360).
func normalize(d float64) float64 {
	d = math.Mod(d, 360)
	if d < 0 {
		d += 360
	}
	if d >= 360 {
		d = 0
	}
	return d
}

// signed maps an angle into [-180,180).
func signed(d float64) float64 {
	d = normalize(d)
	if d >= 180 {
		d -= 360
	}
	return d
}
