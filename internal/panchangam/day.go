/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package panchangam

import (
	"fmt"
	"math"
	"strings"
	"time"
)

// Paksha is the lunar fortnight.
type Paksha string

const (
	Shukla  Paksha = "shukla"
	Krishna Paksha = "krishna"
)

// Anchor names the instant of a day at which angas are sampled.
type Anchor string

const (
	AnchorSunrise  Anchor = "sunrise"
	AnchorSunset   Anchor = "sunset"
	AnchorMidnight Anchor = "midnight" // local 00:00 closing the civil date
)

// ParseAnchor accepts sunrise, sunset or midnight. Empty means sunrise.
func ParseAnchor(s string) (Anchor, error) {
	switch a := Anchor(strings.ToLower(strings.TrimSpace(s))); a {
	case "":
		return AnchorSunrise, nil
	case AnchorSunrise, AnchorSunset, AnchorMidnight:
		return a, nil
	default:
		return "", fmt.Errorf("unknown observance anchor %q", s)
	}
}

// Interval is a half-open span [Start, End).
type Interval struct {
	Start         time.Time `json:"start"`
	End           time.Time `json:"end"`
	DurationHours float64   `json:"duration_hours"`
}

// NewInterval builds an Interval and fills in its duration.
func NewInterval(start, end time.Time) Interval {
	return Interval{
		Start:         start,
		End:           end,
		DurationHours: math.Round(end.Sub(start).Hours()*10000) / 10000,
	}
}

// Duration returns End - Start.
func (i Interval) Duration() time.Duration {
	return i.End.Sub(i.Start)
}

// Contains reports whether t lies in [Start, End).
func (i Interval) Contains(t time.Time) bool {
	return !t.Before(i.Start) && t.Before(i.End)
}

// Overlaps reports whether the two intervals share any instant.
func (i Interval) Overlaps(o Interval) bool {
	return i.Start.Before(o.End) && o.Start.Before(i.End)
}

// Tithi is the lunar day.
type Tithi struct {
	Number     int     `json:"number"`
	Name       string  `json:"name"`
	Paksha     Paksha  `json:"paksha"`
	Progress   float64 `json:"progress"`
	Percentage float64 `json:"percentage"`
}

// Label renders the fortnight-relative form, e.g. "Krishna 14".
func (t Tithi) Label() string {
	n := t.Number
	if t.Paksha == Krishna {
		n -= 15
	}
	p := string(t.Paksha)
	if p != "" {
		p = strings.ToUpper(p[:1]) + p[1:]
	}
	return fmt.Sprintf("%s %d", p, n)
}

// Nakshatra is the lunar mansion.
type Nakshatra struct {
	Number     int     `json:"number"`
	Name       string  `json:"name"`
	Progress   float64 `json:"progress"`
	Percentage float64 `json:"percentage"`
}

// Yoga is the sun-moon sum division.
type Yoga struct {
	Number     int     `json:"number"`
	Name       string  `json:"name"`
	Progress   float64 `json:"progress"`
	Percentage float64 `json:"percentage"`
}

// Karana is the half-tithi. Slot runs 1..60 through the lunar month.
type Karana struct {
	Slot       int     `json:"slot"`
	Name       string  `json:"name"`
	Progress   float64 `json:"progress"`
	Percentage float64 `json:"percentage"`
}

// Angas are the five-limb values sampled at one instant (the weekday is
// fixed for the civil day).
type Angas struct {
	Instant       time.Time `json:"instant"`
	SunLongitude  float64   `json:"sun_longitude"`
	MoonLongitude float64   `json:"moon_longitude"`
	Tithi         Tithi     `json:"tithi"`
	Nakshatra     Nakshatra `json:"nakshatra"`
	Yoga          Yoga      `json:"yoga"`
	Karana        Karana    `json:"karana"`
}

// Anchors holds the angas at each observance anchor.
type Anchors struct {
	Sunrise  Angas `json:"sunrise"`
	Sunset   Angas `json:"sunset"`
	Midnight Angas `json:"midnight"`
}

// Periods are the three traditionally inauspicious daylight eighths.
type Periods struct {
	RahuKalam    Interval `json:"rahu_kalam"`
	YamaGandam   Interval `json:"yama_gandam"`
	GulikaiKalam Interval `json:"gulikai_kalam"`
}

// Hora is a planetary hour. Day horas are 1..12, night horas 13..24.
type Hora struct {
	Index  int    `json:"index"`
	Planet string `json:"planet"`
	Interval
}

// GowriSegment is one of the eight daylight divisions.
type GowriSegment struct {
	Name       string `json:"name"`
	Auspicious bool   `json:"auspicious"`
	Interval
}

// Gowri lists the segments in time order plus the static classification.
type Gowri struct {
	Segments     []GowriSegment `json:"segments"`
	Auspicious   []string       `json:"auspicious"`
	Inauspicious []string       `json:"inauspicious"`
}

// Segment returns the segment with the given name.
func (g Gowri) Segment(name string) (GowriSegment, bool) {
	for _, s := range g.Segments {
		if s.Name == name {
			return s, true
		}
	}
	return GowriSegment{}, false
}

// Day is the computed panchangam of one civil date at one location. A Day is
// never mutated after Compute returns it; At returns modified copies.
//
// The top-level Tithi, Nakshatra, Yoga and Karana are the values at
// Observance, which is sunrise unless the Day came from At.
type Day struct {
	Date        Date      `json:"date"`
	Weekday     string    `json:"weekday"`
	Location    Location  `json:"location"`
	Sunrise     time.Time `json:"sunrise"`
	Sunset      time.Time `json:"sunset"`
	NextSunrise time.Time `json:"next_sunrise,omitempty"`
	Observance  Anchor    `json:"observance"`
	Reference   time.Time `json:"reference"`
	Tithi       Tithi     `json:"tithi"`
	Nakshatra   Nakshatra `json:"nakshatra"`
	Yoga        Yoga      `json:"yoga"`
	Karana      Karana    `json:"karana"`
	Periods     Periods   `json:"periods"`
	Horas       []Hora    `json:"horas"`
	NightHoras  []Hora    `json:"night_horas,omitempty"`
	Gowri       Gowri     `json:"gowri"`
	Anchors     Anchors   `json:"anchors"`
}

// Daylight returns sunrise to sunset.
func (d *Day) Daylight() Interval {
	return NewInterval(d.Sunrise, d.Sunset)
}

// Snapshot returns the angas at the day's observance anchor.
func (d *Day) Snapshot() Angas {
	switch d.Observance {
	case AnchorSunset:
		return d.Anchors.Sunset
	case AnchorMidnight:
		return d.Anchors.Midnight
	}
	return d.Anchors.Sunrise
}

// At returns a copy of the day whose top-level angas and reference instant
// are taken at the given anchor.
func (d *Day) At(anchor Anchor) *Day {
	var a Angas
	switch anchor {
	case AnchorSunset:
		a = d.Anchors.Sunset
	case AnchorMidnight:
		a = d.Anchors.Midnight
	default:
		anchor = AnchorSunrise
		a = d.Anchors.Sunrise
	}

	out := *d
	out.Observance = anchor
	out.Reference = a.Instant
	out.Tithi = a.Tithi
	out.Nakshatra = a.Nakshatra
	out.Yoga = a.Yoga
	out.Karana = a.Karana
	return &out
}
