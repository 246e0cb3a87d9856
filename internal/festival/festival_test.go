/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package festival

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	ics "github.com/arran4/golang-ical"

	"github.com/friendsincode/panchangam/internal/astro"
	"github.com/friendsincode/panchangam/internal/festival/dsl"
	"github.com/friendsincode/panchangam/internal/panchangam"
)

// countingCalculator returns a synthetic day whose sunrise and sunset tithi
// equal the day of month and whose midnight tithi is one more.
type countingCalculator struct {
	mu    sync.Mutex
	calls map[panchangam.Date]int
}

func newCounting() *countingCalculator {
	return &countingCalculator{calls: make(map[panchangam.Date]int)}
}

func (c *countingCalculator) Compute(date panchangam.Date, loc panchangam.Location) (*panchangam.Day, error) {
	c.mu.Lock()
	c.calls[date]++
	c.mu.Unlock()

	tithi := func(n int) panchangam.Angas {
		n = (n-1)%30 + 1
		return panchangam.Angas{Tithi: panchangam.Tithi{Number: n}, Nakshatra: panchangam.Nakshatra{Number: 1}}
	}
	tz := time.UTC
	sunrise := date.In(tz).Add(6 * time.Hour)
	sunset := date.In(tz).Add(18 * time.Hour)
	anchors := panchangam.Anchors{
		Sunrise:  tithi(date.Day),
		Sunset:   tithi(date.Day),
		Midnight: tithi(date.Day + 1),
	}
	anchors.Sunrise.Instant = sunrise
	anchors.Sunset.Instant = sunset
	anchors.Midnight.Instant = date.AddDays(1).In(tz)

	return &panchangam.Day{
		Date:       date,
		Weekday:    panchangam.WeekdayName(date.Weekday()),
		Location:   loc,
		Sunrise:    sunrise,
		Sunset:     sunset,
		Observance: panchangam.AnchorSunrise,
		Reference:  sunrise,
		Tithi:      anchors.Sunrise.Tithi,
		Nakshatra:  anchors.Sunrise.Nakshatra,
		Anchors:    anchors,
		Gowri:      panchangam.Gowri{Auspicious: []string{"amrutha"}},
	}, nil
}

func (c *countingCalculator) total() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	n := 0
	for _, v := range c.calls {
		n += v
	}
	return n
}

const testRules = `
- name: Fifth
  when: tithi=5
  observe: sunrise
  region: ALL
- name: Tamil
  when: tithi=5 | tithi=6
  observe: sunset
  region: tn
  type: regional
  importance: high
- name: Night
  when: tithi=6
  observe: midnight
  region: ALL
  lunar_date: Shukla 6
  public_holiday: true
`

func testLocation(t *testing.T) panchangam.Location {
	t.Helper()
	loc, err := panchangam.NewLocation(13.0827, 80.2707, "Asia/Kolkata")
	if err != nil {
		t.Fatalf("NewLocation: %v", err)
	}
	return loc
}

func mustRules(t *testing.T, src string) []Rule {
	t.Helper()
	rules, err := ParseRules([]byte(src))
	if err != nil {
		t.Fatalf("ParseRules: %v", err)
	}
	return rules
}

func names(days []Day) []string {
	out := make([]string, len(days))
	for i, d := range days {
		out[i] = d.Date.String() + " " + d.Name
	}
	return out
}

func TestBuildOrderAndRegions(t *testing.T) {
	rules := mustRules(t, testRules)
	loc := testLocation(t)

	tests := []struct {
		region string
		want   []string
	}{
		{"ALL", []string{"2024-01-05 Fifth", "2024-01-05 Tamil", "2024-01-05 Night", "2024-01-06 Tamil"}},
		{"", []string{"2024-01-05 Fifth", "2024-01-05 Tamil", "2024-01-05 Night", "2024-01-06 Tamil"}},
		{"TN", []string{"2024-01-05 Fifth", "2024-01-05 Tamil", "2024-01-05 Night", "2024-01-06 Tamil"}},
		{"kl", []string{"2024-01-05 Fifth", "2024-01-05 Night"}},
	}

	for _, tt := range tests {
		t.Run(tt.region, func(t *testing.T) {
			b := NewBuilder(newCounting(), rules)
			got, err := b.Build(context.Background(), Query{Year: 2024, Month: time.January, Location: loc, Region: tt.region})
			if err != nil {
				t.Fatalf("Build: %v", err)
			}
			if strings.Join(names(got), ";") != strings.Join(tt.want, ";") {
				t.Errorf("got %v, want %v", names(got), tt.want)
			}
		})
	}
}

func TestBuildComputesEachDayOnce(t *testing.T) {
	rules := mustRules(t, testRules)
	// Rule count must not change the number of computations.
	more := append([]Rule(nil), rules...)
	for i := 0; i < 20; i++ {
		r := rules[0]
		r.Name = r.Name + strings.Repeat("x", i+1)
		more = append(more, r)
	}

	for _, set := range [][]Rule{rules, more} {
		calc := newCounting()
		b := NewBuilder(calc, set)
		if _, err := b.Build(context.Background(), Query{Year: 2024, Month: time.February, Location: testLocation(t), Region: "ALL"}); err != nil {
			t.Fatalf("Build: %v", err)
		}
		if calc.total() != 29 {
			t.Errorf("%d rules: %d computations, want 29", len(set), calc.total())
		}
		for d, n := range calc.calls {
			if n != 1 {
				t.Errorf("%s computed %d times", d, n)
			}
		}
	}
}

func TestBuildWholeYear(t *testing.T) {
	calc := newCounting()
	b := NewBuilder(calc, mustRules(t, testRules))
	got, err := b.Build(context.Background(), Query{Year: 2023, Location: testLocation(t), Region: "KA"})
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if calc.total() != 365 {
		t.Errorf("computations = %d, want 365", calc.total())
	}
	// Fifth and Night fire on the 5th of every month.
	if len(got) != 24 {
		t.Errorf("got %d festivals, want 24", len(got))
	}
	for i := 1; i < len(got); i++ {
		if got[i].Date.Before(got[i-1].Date) {
			t.Fatalf("results out of order at %d", i)
		}
	}
}

func TestBuildMetadata(t *testing.T) {
	b := NewBuilder(newCounting(), mustRules(t, testRules))
	got, err := b.Build(context.Background(), Query{Year: 2024, Month: time.January, Location: testLocation(t), Region: "TN"})
	if err != nil {
		t.Fatalf("Build: %v", err)
	}

	fifth, tamil, night := got[0], got[1], got[2]
	if fifth.LunarDate != "" || fifth.Description != "Festival: Fifth" {
		t.Errorf("fallback metadata = %q %q", fifth.LunarDate, fifth.Description)
	}
	if fifth.Type != TypeReligious || fifth.Importance != ImportanceMedium {
		t.Errorf("defaults = %s %s", fifth.Type, fifth.Importance)
	}
	if fifth.Rituals["general"] != "Follow traditional customs" || fifth.Customs["general"] != "Follow regional traditions" {
		t.Errorf("default rituals/customs = %v %v", fifth.Rituals, fifth.Customs)
	}
	if tamil.States[0] != "Tamil Nadu" || tamil.Regions[0] != "TN" {
		t.Errorf("tamil regions = %v states = %v", tamil.Regions, tamil.States)
	}
	if tamil.AuspiciousTimes.BestTime != "Evening (6:00 PM - 8:00 PM)" {
		t.Errorf("best time = %q", tamil.AuspiciousTimes.BestTime)
	}
	if night.Observance != panchangam.AnchorMidnight || night.Panchangam.Tithi.Number != 6 || !night.PublicHoliday {
		t.Errorf("night = %+v", night)
	}
	if night.LunarDate != "Shukla 6" || night.States[0] != "All States" {
		t.Errorf("night metadata = %q %v", night.LunarDate, night.States)
	}
	if len(night.PujaTimes.AuspiciousPeriods) != 1 || night.PujaTimes.MainPuja != panchangam.AnchorMidnight {
		t.Errorf("puja times = %+v", night.PujaTimes)
	}
}

func TestBuildValidation(t *testing.T) {
	b := NewBuilder(newCounting(), mustRules(t, testRules))
	tests := []struct {
		name  string
		q     Query
		field string
	}{
		{"month", Query{Year: 2024, Month: 13, Location: testLocation(t)}, "month"},
		{"year", Query{Year: 0, Month: 1, Location: testLocation(t)}, "year"},
		{"location", Query{Year: 2024, Month: 1, Location: panchangam.Location{Latitude: 100, Timezone: "UTC"}}, "latitude"},
	}
	for _, tt := range tests {
		_, err := b.Build(context.Background(), tt.q)
		var verr *panchangam.InputValidationError
		if !errors.As(err, &verr) || verr.Field != tt.field {
			t.Errorf("%s: err = %v, want field %s", tt.name, err, tt.field)
		}
	}
}

func TestBuildStopsWhenCancelled(t *testing.T) {
	calc := newCounting()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := NewBuilder(calc, mustRules(t, testRules)).Build(ctx, Query{Year: 2024, Location: testLocation(t)})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("err = %v, want context.Canceled", err)
	}
	if calc.total() != 0 {
		t.Errorf("computed %d days after cancellation", calc.total())
	}
}

func TestParseRulesErrors(t *testing.T) {
	tests := []struct {
		name string
		src  string
		msg  string
	}{
		{"empty", "[]", "empty"},
		{"bad yaml", "- name: [", "decode"},
		{"syntax", "- name: X\n  when: tithi=31", "outside 1-30"},
		{"anchor", "- name: X\n  when: purnima\n  observe: noon", "anchor"},
		{"region", "- name: X\n  when: purnima\n  region: ZZ", "unknown region"},
		{"type", "- name: X\n  when: purnima\n  type: cosmic", "unknown type"},
		{"importance", "- name: X\n  when: purnima\n  importance: huge", "unknown importance"},
		{"name", "- when: purnima", "name is required"},
		{"duplicate", "- name: X\n  when: purnima\n- name: X\n  when: amavasya", "duplicate"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseRules([]byte(tt.src))
			if err == nil || !strings.Contains(err.Error(), tt.msg) {
				t.Fatalf("err = %v, want %q", err, tt.msg)
			}
		})
	}

	_, err := ParseRules([]byte("- name: X\n  when: tithi=14 krishna &"))
	var serr *dsl.SyntaxError
	if !errors.As(err, &serr) {
		t.Errorf("expected wrapped SyntaxError, got %v", err)
	}
}

func TestDefaultRules(t *testing.T) {
	rules, err := DefaultRules()
	if err != nil {
		t.Fatalf("DefaultRules: %v", err)
	}
	if len(rules) != 15 {
		t.Fatalf("got %d rules, want 15", len(rules))
	}
	if rules[0].Name != "Maha Shivaratri" || rules[0].Observe != panchangam.AnchorMidnight {
		t.Errorf("first rule = %s observed at %s", rules[0].Name, rules[0].Observe)
	}
	for _, r := range rules {
		if r.Expr == nil || !KnownRegion(r.Region) {
			t.Errorf("rule %s not compiled", r.Name)
		}
	}
}

func TestRegionMatching(t *testing.T) {
	tests := []struct {
		rule, query string
		want        bool
	}{
		{"ALL", "ALL", true},
		{"ALL", "TN", true},
		{"ALL", "KL", true},
		{"TN", "ALL", true},
		{"TN", "TN", true},
		{"TN", "tn", true},
		{"TN", "KL", false},
		{"KL", "TN", false},
		{"TN", "", true},
	}
	for _, tt := range tests {
		if got := RegionMatches(tt.rule, tt.query); got != tt.want {
			t.Errorf("RegionMatches(%q, %q) = %v, want %v", tt.rule, tt.query, got, tt.want)
		}
	}

	if s := StatesFor("AP"); len(s) != 2 || s[1] != "Telangana" {
		t.Errorf("StatesFor(AP) = %v", s)
	}
	if s := StatesFor("XX"); len(s) != 1 || s[0] != "XX" {
		t.Errorf("StatesFor(XX) = %v", s)
	}
	if got := RegionForState("Telangana"); got != "TS" {
		t.Errorf("RegionForState(Telangana) = %s", got)
	}
	if got := RegionForState("Atlantis"); got != RegionAll {
		t.Errorf("RegionForState(Atlantis) = %s", got)
	}
}

func TestMahaShivaratriMarch2024(t *testing.T) {
	rules, err := DefaultRules()
	if err != nil {
		t.Fatalf("DefaultRules: %v", err)
	}
	calc := panchangam.NewCalculator(astro.New(astro.ZodiacLahiri))
	got, err := NewBuilder(calc, rules).Build(context.Background(), Query{Year: 2024, Month: time.March, Location: testLocation(t), Region: "TN"})
	if err != nil {
		t.Fatalf("Build: %v", err)
	}

	found := false
	for _, d := range got {
		if d.Name == "Maha Shivaratri" && d.Date.String() == "2024-03-08" {
			found = true
			if d.Panchangam.Tithi.Number != 29 {
				t.Errorf("matched tithi %d", d.Panchangam.Tithi.Number)
			}
			if d.Rituals["japa"] != "Om Namah Shivaya mantra" {
				t.Errorf("rituals = %v", d.Rituals)
			}
		}
	}
	if !found {
		t.Errorf("Maha Shivaratri not on 2024-03-08: %v", names(got))
	}
}

func TestICSExport(t *testing.T) {
	b := NewBuilder(newCounting(), mustRules(t, testRules))
	days, err := b.Build(context.Background(), Query{Year: 2024, Month: time.January, Location: testLocation(t), Region: "TN"})
	if err != nil {
		t.Fatalf("Build: %v", err)
	}

	stamp := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	out := ICS(days, ICSOptions{Name: "Festivals", Stamp: stamp})
	if out != ICS(days, ICSOptions{Name: "Festivals", Stamp: stamp}) {
		t.Error("export is not deterministic")
	}

	cal, err := ics.ParseCalendar(strings.NewReader(out))
	if err != nil {
		t.Fatalf("ParseCalendar: %v", err)
	}
	events := cal.Events()
	if len(events) != len(days) {
		t.Fatalf("got %d events, want %d", len(events), len(days))
	}
	for i, ev := range events {
		if p := ev.GetProperty(ics.ComponentPropertySummary); p == nil || p.Value != days[i].Name {
			t.Errorf("event %d summary = %v, want %s", i, p, days[i].Name)
		}
		if p := ev.GetProperty(ics.ComponentPropertyDtStart); p == nil || p.Value != strings.ReplaceAll(days[i].Date.String(), "-", "") {
			t.Errorf("event %d start = %v", i, p)
		}
	}
	if !strings.Contains(out, "BEGIN:VCALENDAR") || !strings.Contains(out, "X-WR-CALNAME:Festivals") {
		t.Errorf("missing calendar header:\n%s", out)
	}
}
