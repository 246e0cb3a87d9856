/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package astro

import (
	"math"
	"time"
)

// horizonAltitude is the apparent altitude of the solar centre at rise and
// set: refraction plus semidiameter.
const horizonAltitude = -0.833

// EventKind classifies the sun's behaviour on a civil date.
type EventKind int

const (
	EventNormal     EventKind = iota
	EventPolarDay             // sun never sets
	EventPolarNight           // sun never rises
)

func (k EventKind) String() string {
	switch k {
	case EventNormal:
		return "normal"
	case EventPolarDay:
		return "polar_day"
	case EventPolarNight:
		return "polar_night"
	default:
		return "unknown"
	}
}

// SunEvents holds the solar events of one civil date. Sunrise and Sunset are
// zero unless Kind is EventNormal. All instants are truncated to the second.
type SunEvents struct {
	Kind    EventKind
	Sunrise time.Time
	Transit time.Time
	Sunset  time.Time
}

// OK reports whether the sun both rises and sets.
func (s SunEvents) OK() bool {
	return s.Kind == EventNormal
}

// SunTimes implements Provider. Polar dates are not errors: they return a
// SunEvents whose Kind says which way the sun stays.
func (e *Ephemeris) SunTimes(date time.Time, lat, lon float64) (SunEvents, error) {
	loc := date.Location()
	y, m, d := date.Date()
	noon := time.Date(y, m, d, 12, 0, 0, 0, loc)
	if err := checkCoverage(noon); err != nil {
		return SunEvents{}, &ComputationError{Op: "sun times", Reason: noon.Format("2006-01-02"), Err: err}
	}

	transit := noon
	for i := 0; i < 4; i++ {
		ra, _ := sunEquatorial(transit)
		transit = transit.Add(-hourAngleDuration(localHourAngle(transit, lon, ra)))
	}

	_, dec := sunEquatorial(transit)
	switch c := cosRiseHourAngle(lat, dec); {
	case c > 1:
		return SunEvents{Kind: EventPolarNight, Transit: second(transit, loc)}, nil
	case c < -1:
		return SunEvents{Kind: EventPolarDay, Transit: second(transit, loc)}, nil
	}

	rise, ok := refineEvent(transit, lat, lon, -1)
	if !ok {
		return SunEvents{Kind: EventPolarNight, Transit: second(transit, loc)}, nil
	}
	set, ok := refineEvent(transit, lat, lon, 1)
	if !ok {
		return SunEvents{Kind: EventPolarNight, Transit: second(transit, loc)}, nil
	}

	return SunEvents{
		Kind:    EventNormal,
		Sunrise: second(rise, loc),
		Transit: second(transit, loc),
		Sunset:  second(set, loc),
	}, nil
}

// refineEvent iterates from transit towards the instant where the local hour
// angle equals -H0 (sign < 0, rise) or +H0 (sign > 0, set).
func refineEvent(transit time.Time, lat, lon, sign float64) (time.Time, bool) {
	t := transit
	for i := 0; i < 6; i++ {
		ra, dec := sunEquatorial(t)
		c := cosRiseHourAngle(lat, dec)
		if c > 1 || c < -1 {
			return time.Time{}, false
		}
		target := sign * deg(math.Acos(c))
		t = t.Add(hourAngleDuration(signed(target - localHourAngle(t, lon, ra))))
	}
	return t, true
}

func cosRiseHourAngle(lat, dec float64) float64 {
	phi, delta := rad(lat), rad(dec)
	return (math.Sin(rad(horizonAltitude)) - math.Sin(phi)*math.Sin(delta)) / (math.Cos(phi) * math.Cos(delta))
}

// localHourAngle returns the sun's local hour angle in [-180,180).
func localHourAngle(t time.Time, lon, ra float64) float64 {
	return signed(siderealTime(t) + lon - ra)
}

// hourAngleDuration converts hour-angle degrees to solar time.
func hourAngleDuration(d float64) time.Duration {
	return time.Duration(d / 15 * float64(time.Hour))
}

func second(t time.Time, loc *time.Location) time.Time {
	return t.Truncate(time.Second).In(loc)
}
