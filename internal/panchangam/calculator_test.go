/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package panchangam

import (
	"encoding/json"
	"errors"
	"math"
	"reflect"
	"testing"
	"time"

	"github.com/friendsincode/panchangam/internal/astro"
)

func newCalc() *Calculator {
	return NewCalculator(astro.New(astro.ZodiacLahiri))
}

func chennai(t *testing.T) Location {
	t.Helper()
	loc, err := NewLocation(13.0827, 80.2707, "Asia/Kolkata")
	if err != nil {
		t.Fatalf("NewLocation: %v", err)
	}
	return loc
}

func mustDate(t *testing.T, s string) Date {
	t.Helper()
	d, err := ParseDate(s)
	if err != nil {
		t.Fatalf("ParseDate(%q): %v", s, err)
	}
	return d
}

func inUnit(v float64) bool { return v >= 0 && v <= 1 }

func TestComputeRanges(t *testing.T) {
	calc := newCalc()
	locations := []Location{
		{Latitude: 13.0827, Longitude: 80.2707, Timezone: "Asia/Kolkata"},
		{Latitude: 28.7041, Longitude: 77.1025, Timezone: "Asia/Kolkata"},
		{Latitude: -33.8688, Longitude: 151.2093, Timezone: "Australia/Sydney"},
		{Latitude: 40.7128, Longitude: -74.0060, Timezone: "America/New_York"},
	}

	start := mustDate(t, "2024-01-01")
	for _, loc := range locations {
		for i := 0; i < 366; i += 5 {
			date := start.AddDays(i)
			day, err := calc.Compute(date, loc)
			if err != nil {
				t.Fatalf("Compute(%s, %s): %v", date, loc.Canonical(), err)
			}

			if day.Tithi.Number < 1 || day.Tithi.Number > 30 {
				t.Errorf("%s: tithi %d out of range", date, day.Tithi.Number)
			}
			if day.Nakshatra.Number < 1 || day.Nakshatra.Number > 27 {
				t.Errorf("%s: nakshatra %d out of range", date, day.Nakshatra.Number)
			}
			if day.Yoga.Number < 1 || day.Yoga.Number > 27 {
				t.Errorf("%s: yoga %d out of range", date, day.Yoga.Number)
			}
			if day.Karana.Slot < 1 || day.Karana.Slot > 60 {
				t.Errorf("%s: karana slot %d out of range", date, day.Karana.Slot)
			}
			for _, p := range []float64{day.Tithi.Progress, day.Nakshatra.Progress, day.Yoga.Progress, day.Karana.Progress} {
				if !inUnit(p) {
					t.Errorf("%s: progress %v outside [0,1]", date, p)
				}
			}
			if want := math.Round(day.Tithi.Progress*10000) / 100; day.Tithi.Percentage != want {
				t.Errorf("%s: percentage %v, want %v", date, day.Tithi.Percentage, want)
			}
			if (day.Tithi.Number <= 15) != (day.Tithi.Paksha == Shukla) {
				t.Errorf("%s: tithi %d has paksha %s", date, day.Tithi.Number, day.Tithi.Paksha)
			}
			if !day.Sunrise.Before(day.Sunset) {
				t.Errorf("%s: sunrise %s not before sunset %s", date, day.Sunrise, day.Sunset)
			}
		}
	}
}

func TestComputeIsDeterministic(t *testing.T) {
	calc := newCalc()
	loc := chennai(t)
	date := mustDate(t, "2025-01-14")

	a, err := calc.Compute(date, loc)
	if err != nil {
		t.Fatalf("Compute: %v", err)
	}
	b, err := NewCalculator(astro.New(astro.ZodiacLahiri)).Compute(date, loc)
	if err != nil {
		t.Fatalf("Compute: %v", err)
	}
	if !reflect.DeepEqual(a, b) {
		t.Fatal("identical inputs produced different days")
	}
}

func TestInauspiciousPeriodsAreDisjointEighths(t *testing.T) {
	calc := newCalc()
	loc := chennai(t)
	start := mustDate(t, "2024-06-02")

	// A full week exercises every weekday table entry.
	for i := 0; i < 7; i++ {
		day, err := calc.Compute(start.AddDays(i), loc)
		if err != nil {
			t.Fatalf("Compute: %v", err)
		}
		eighth := day.Sunset.Sub(day.Sunrise) / 8
		periods := []Interval{day.Periods.RahuKalam, day.Periods.YamaGandam, day.Periods.GulikaiKalam}

		for j, p := range periods {
			if p.Duration() != eighth {
				t.Errorf("%s period %d duration %s, want %s", day.Weekday, j, p.Duration(), eighth)
			}
			if p.Start.Before(day.Sunrise) || p.End.After(day.Sunset) {
				t.Errorf("%s period %d outside daylight", day.Weekday, j)
			}
			for k := j + 1; k < len(periods); k++ {
				if p.Overlaps(periods[k]) {
					t.Errorf("%s periods %d and %d overlap", day.Weekday, j, k)
				}
			}
		}
	}
}

func TestGowriPartitionsDaylight(t *testing.T) {
	calc := newCalc()
	day, err := calc.Compute(mustDate(t, "2024-12-21"), chennai(t))
	if err != nil {
		t.Fatalf("Compute: %v", err)
	}

	segs := day.Gowri.Segments
	if len(segs) != 8 {
		t.Fatalf("expected 8 gowri segments, got %d", len(segs))
	}
	if !segs[0].Start.Equal(day.Sunrise) || !segs[7].End.Equal(day.Sunset) {
		t.Fatalf("segments do not span sunrise to sunset")
	}

	var total time.Duration
	seen := map[string]bool{}
	for i, s := range segs {
		total += s.Duration()
		seen[s.Name] = true
		if i > 0 && !segs[i-1].End.Equal(s.Start) {
			t.Errorf("gap or overlap between segment %d and %d", i-1, i)
		}
		if s.Auspicious != IsGowriAuspicious(s.Name) {
			t.Errorf("segment %s classified %v", s.Name, s.Auspicious)
		}
	}
	if total != day.Sunset.Sub(day.Sunrise) {
		t.Errorf("segments total %s, day length %s", total, day.Sunset.Sub(day.Sunrise))
	}
	if len(seen) != 8 {
		t.Errorf("expected all 8 names once, got %v", seen)
	}
	if !reflect.DeepEqual(day.Gowri.Auspicious, []string{"amrutha", "siddha", "laabha", "dhanam", "sugam"}) {
		t.Errorf("auspicious set = %v", day.Gowri.Auspicious)
	}
	if !reflect.DeepEqual(day.Gowri.Inauspicious, []string{"marana", "rogam", "kantaka"}) {
		t.Errorf("inauspicious set = %v", day.Gowri.Inauspicious)
	}
}

func TestMahaShivaratri2024(t *testing.T) {
	day, err := newCalc().Compute(mustDate(t, "2024-03-08"), chennai(t))
	if err != nil {
		t.Fatalf("Compute: %v", err)
	}

	if day.Weekday != "friday" {
		t.Errorf("weekday = %s, want friday", day.Weekday)
	}
	if day.Tithi.Number != 28 {
		t.Errorf("sunrise tithi = %d, want 28 (Krishna Trayodashi)", day.Tithi.Number)
	}

	night := day.At(AnchorMidnight)
	if night.Tithi.Number != 29 || night.Tithi.Paksha != Krishna || night.Tithi.Name != "Chaturdashi" {
		t.Errorf("midnight tithi = %+v, want Krishna Chaturdashi (29)", night.Tithi)
	}
	if night.Tithi.Label() != "Krishna 14" {
		t.Errorf("label = %q", night.Tithi.Label())
	}
	if !night.Reference.Equal(mustDate(t, "2024-03-09").In(day.Sunrise.Location())) {
		t.Errorf("midnight reference = %s", night.Reference)
	}
	if day.Tithi.Number != 28 {
		t.Error("At mutated the original day")
	}
}

func TestHorasOn20250910(t *testing.T) {
	day, err := newCalc().Compute(mustDate(t, "2025-09-10"), chennai(t))
	if err != nil {
		t.Fatalf("Compute: %v", err)
	}
	if !day.Sunrise.Before(day.Sunset) {
		t.Fatalf("sunrise %s not before sunset %s", day.Sunrise, day.Sunset)
	}
	if day.Tithi.Number < 1 || day.Tithi.Number > 30 {
		t.Fatalf("tithi %d out of range", day.Tithi.Number)
	}

	if len(day.Horas) != 12 {
		t.Fatalf("expected 12 day horas, got %d", len(day.Horas))
	}
	if !day.Horas[0].Start.Equal(day.Sunrise) || !day.Horas[11].End.Equal(day.Sunset) {
		t.Errorf("day horas do not cover sunrise to sunset")
	}
	for i := 1; i < len(day.Horas); i++ {
		if !day.Horas[i-1].End.Equal(day.Horas[i].Start) {
			t.Errorf("hora %d does not abut hora %d", i, i+1)
		}
	}
	// Wednesday opens with Mercury.
	want := []string{"Mercury", "Moon", "Saturn", "Jupiter", "Mars", "Sun", "Venus", "Mercury", "Moon", "Saturn", "Jupiter", "Mars"}
	for i, h := range day.Horas {
		if h.Planet != want[i] || h.Index != i+1 {
			t.Errorf("hora %d = %d %s, want %d %s", i, h.Index, h.Planet, i+1, want[i])
		}
	}

	if len(day.NightHoras) != 12 {
		t.Fatalf("expected 12 night horas, got %d", len(day.NightHoras))
	}
	if day.NightHoras[0].Planet != "Sun" || day.NightHoras[0].Index != 13 {
		t.Errorf("first night hora = %d %s, want 13 Sun", day.NightHoras[0].Index, day.NightHoras[0].Planet)
	}
	if !day.NightHoras[11].End.Equal(day.NextSunrise) {
		t.Errorf("night horas end %s, next sunrise %s", day.NightHoras[11].End, day.NextSunrise)
	}
}

func TestComputeRejectsBadInput(t *testing.T) {
	calc := newCalc()
	date := mustDate(t, "2024-03-08")

	tests := []struct {
		name  string
		loc   Location
		field string
	}{
		{"latitude", Location{Latitude: 91, Longitude: 80, Timezone: "Asia/Kolkata"}, "latitude"},
		{"longitude", Location{Latitude: 13, Longitude: -181, Timezone: "Asia/Kolkata"}, "longitude"},
		{"nan", Location{Latitude: math.NaN(), Longitude: 80, Timezone: "Asia/Kolkata"}, "latitude"},
		{"zone", Location{Latitude: 13, Longitude: 80, Timezone: "Mars/Olympus"}, "timezone"},
		{"empty zone", Location{Latitude: 13, Longitude: 80}, "timezone"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := calc.Compute(date, tt.loc)
			var verr *InputValidationError
			if !errors.As(err, &verr) {
				t.Fatalf("expected InputValidationError, got %v", err)
			}
			if verr.Field != tt.field {
				t.Errorf("field = %q, want %q", verr.Field, tt.field)
			}
		})
	}

	if _, err := calc.Compute(Date{Year: 2024, Month: 2, Day: 30}, chennai(t)); err == nil {
		t.Error("expected error for 2024-02-30")
	}
	for _, s := range []string{"2024-13-01", "08/03/2024", ""} {
		var verr *InputValidationError
		if _, err := ParseDate(s); !errors.As(err, &verr) || verr.Field != "date" {
			t.Errorf("ParseDate(%q) = %v, want date validation error", s, err)
		}
	}
}

func TestComputePolarDayFails(t *testing.T) {
	loc, err := NewLocation(69.6492, 18.9553, "Europe/Oslo")
	if err != nil {
		t.Fatalf("NewLocation: %v", err)
	}
	_, err = newCalc().Compute(mustDate(t, "2024-06-21"), loc)

	var aerr *AstronomicalComputationError
	if !errors.As(err, &aerr) {
		t.Fatalf("expected AstronomicalComputationError, got %v", err)
	}
	if !errors.Is(err, astro.ErrNoSunEvent) {
		t.Errorf("expected ErrNoSunEvent, got %v", err)
	}
}

func TestComputeOutOfCoverage(t *testing.T) {
	_, err := newCalc().Compute(Date{Year: 1750, Month: 1, Day: 1}, chennai(t))
	if !errors.Is(err, astro.ErrOutOfCoverage) {
		t.Fatalf("expected ErrOutOfCoverage, got %v", err)
	}
}

func TestAngasFromLongitudes(t *testing.T) {
	at := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name      string
		sun, moon float64
		tithi     int
		tithiName string
		karana    string
	}{
		{"new moon", 100, 100, 1, "Pratipada", "Kimstughna"},
		{"second karana", 100, 107, 1, "Pratipada", "Bava"},
		{"full moon start", 0, 168, 15, "Purnima", "Vishti"},
		{"krishna pratipada", 0, 180, 16, "Pratipada", "Balava"},
		{"shakuni", 0, 342, 29, "Chaturdashi", "Shakuni"},
		{"amavasya first half", 0, 348, 30, "Amavasya", "Chatushpada"},
		{"amavasya second half", 10, 9.9999, 30, "Amavasya", "Naga"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := AngasFromLongitudes(at, tt.sun, tt.moon)
			if a.Tithi.Number != tt.tithi || a.Tithi.Name != tt.tithiName {
				t.Errorf("tithi = %d %s, want %d %s", a.Tithi.Number, a.Tithi.Name, tt.tithi, tt.tithiName)
			}
			if a.Karana.Name != tt.karana {
				t.Errorf("karana = %s (slot %d), want %s", a.Karana.Name, a.Karana.Slot, tt.karana)
			}
			if !inUnit(a.Tithi.Progress) || !inUnit(a.Karana.Progress) {
				t.Errorf("progress out of range: %+v", a)
			}
		})
	}
}

func TestSplitTilesExactly(t *testing.T) {
	start := time.Date(2024, 1, 1, 6, 0, 0, 0, time.UTC)
	end := start.Add(11*time.Hour + 7*time.Nanosecond)

	parts := Split(start, end, 12)
	if !parts[0].Start.Equal(start) || !parts[11].End.Equal(end) {
		t.Fatal("split does not span the interval")
	}
	for i := 1; i < len(parts); i++ {
		if !parts[i-1].End.Equal(parts[i].Start) {
			t.Fatalf("gap between part %d and %d", i-1, i)
		}
		if d := parts[i].Duration() - parts[0].Duration(); d < -time.Nanosecond || d > time.Nanosecond {
			t.Fatalf("part %d differs from part 0 by %s", i, d)
		}
	}
}

func TestDateJSONRoundTrip(t *testing.T) {
	type record struct {
		Start Date `json:"start"`
		End   Date `json:"end"`
	}
	in := record{End: Date{Year: 2024, Month: time.March, Day: 8}}

	data, err := json.Marshal(in)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	if string(data) != `{"start":"","end":"2024-03-08"}` {
		t.Errorf("Marshal = %s", data)
	}

	var out record
	if err := json.Unmarshal(data, &out); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if out != in || !out.Start.IsZero() || out.End.IsZero() {
		t.Errorf("round trip = %+v, want %+v", out, in)
	}

	var bad record
	if err := json.Unmarshal([]byte(`{"start":"0000-00-00"}`), &bad); err == nil {
		t.Error("expected error for a non-calendar date")
	}
}
