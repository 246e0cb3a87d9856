/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package dsl

import (
	"errors"
	"reflect"
	"strings"
	"testing"
	"time"

	"github.com/friendsincode/panchangam/internal/astro"
	"github.com/friendsincode/panchangam/internal/panchangam"
)

var ist = time.FixedZone("IST", 5*3600+1800)

func syntheticDay(weekday string, tithi, nakshatra, yoga int, karana string, anchor panchangam.Anchor) *panchangam.Day {
	sunrise := time.Date(2024, 3, 8, 6, 21, 0, 0, ist)
	sunset := time.Date(2024, 3, 8, 18, 19, 0, 0, ist)
	ref := sunrise
	switch anchor {
	case panchangam.AnchorSunset:
		ref = sunset
	case panchangam.AnchorMidnight:
		ref = time.Date(2024, 3, 9, 0, 0, 0, 0, ist)
	}
	paksha := panchangam.Shukla
	if tithi > 15 {
		paksha = panchangam.Krishna
	}
	return &panchangam.Day{
		Weekday:    weekday,
		Sunrise:    sunrise,
		Sunset:     sunset,
		Observance: anchor,
		Reference:  ref,
		Tithi:      panchangam.Tithi{Number: tithi, Paksha: paksha},
		Nakshatra:  panchangam.Nakshatra{Number: nakshatra},
		Yoga:       panchangam.Yoga{Number: yoga},
		Karana:     panchangam.Karana{Name: karana},
	}
}

func referenceDays() []*panchangam.Day {
	return []*panchangam.Day{
		syntheticDay("friday", 29, 22, 5, "Shakuni", panchangam.AnchorMidnight),
		syntheticDay("monday", 14, 1, 12, "Vanija", panchangam.AnchorSunset),
		syntheticDay("sunday", 15, 1, 27, "Bava", panchangam.AnchorSunrise),
		syntheticDay("tuesday", 30, 27, 1, "Naga", panchangam.AnchorSunset),
		syntheticDay("saturday", 11, 8, 20, "Garaja", panchangam.AnchorSunrise),
		syntheticDay("thursday", 26, 13, 3, "Vishti", panchangam.AnchorSunset),
	}
}

func TestParseValid(t *testing.T) {
	tests := []struct {
		src  string
		want string
	}{
		{"tithi=14 krishna", "tithi=14 krishna"},
		{"TITHI=14 Krishna", "tithi=14 krishna"},
		{"tithi=29 krishna", "tithi=14 krishna"},
		{"tithi=4 shukla", "tithi=4 shukla"},
		{"tithi=22", "tithi=22"},
		{"nakshatra=27", "nakshatra=27"},
		{"karana=Vishti", "karana=vishti"},
		{"weekday=Monday", "weekday=monday"},
		{"tithi=15 krishna & nakshatra=1", "tithi=15 krishna & nakshatra=1"},
		{"!purnima", "!purnima"},
		{"!!purnima", "!!purnima"},
		{"!(purnima | amavasya)", "!(purnima | amavasya)"},
		{"(ekadashi | purnima) & weekday=monday", "(ekadashi | purnima) & weekday=monday"},
		{"ekadashi | (purnima & weekday=monday)", "ekadashi | purnima & weekday=monday"},
		{"((((pradosha_kala))))", "pradosha_kala"},
		{"amavasya | (purnima | ekadashi)", "amavasya | (purnima | ekadashi)"},
		{"  brahma_muhurta\t&\n!weekday=sunday ", "brahma_muhurta & !weekday=sunday"},
	}

	for _, tt := range tests {
		t.Run(tt.src, func(t *testing.T) {
			e, err := Parse(tt.src)
			if err != nil {
				t.Fatalf("Parse: %v", err)
			}
			if got := e.String(); got != tt.want {
				t.Errorf("String() = %q, want %q", got, tt.want)
			}
			again, err := Parse(e.String())
			if err != nil {
				t.Fatalf("reparse %q: %v", e.String(), err)
			}
			if !reflect.DeepEqual(e, again) {
				t.Errorf("reparse of %q changed the tree", e.String())
			}
		})
	}
}

func TestPrecedence(t *testing.T) {
	tests := []struct {
		src  string
		want Expr
	}{
		{
			"purnima | amavasya & ekadashi",
			&Or{Left: &Term{Kind: TermPurnima}, Right: &And{Left: &Term{Kind: TermAmavasya}, Right: &Term{Kind: TermEkadashi}}},
		},
		{
			"!purnima & amavasya",
			&And{Left: &Not{X: &Term{Kind: TermPurnima}}, Right: &Term{Kind: TermAmavasya}},
		},
		{
			"(purnima | amavasya) & ekadashi",
			&And{Left: &Or{Left: &Term{Kind: TermPurnima}, Right: &Term{Kind: TermAmavasya}}, Right: &Term{Kind: TermEkadashi}},
		},
		{
			"purnima & amavasya & ekadashi",
			&And{Left: &And{Left: &Term{Kind: TermPurnima}, Right: &Term{Kind: TermAmavasya}}, Right: &Term{Kind: TermEkadashi}},
		},
		{
			"tithi=14 krishna",
			&Term{Kind: TermTithi, Number: 29, Paksha: panchangam.Krishna},
		},
	}

	for _, tt := range tests {
		got, err := Parse(tt.src)
		if err != nil {
			t.Fatalf("Parse(%q): %v", tt.src, err)
		}
		if !reflect.DeepEqual(got, tt.want) {
			t.Errorf("Parse(%q) = %s, want %s", tt.src, got, tt.want)
		}
	}
}

func TestRedundantParenthesesDoNotChangeResults(t *testing.T) {
	pairs := [][2]string{
		{"tithi=14 krishna", "(tithi=14 krishna)"},
		{"purnima | amavasya & ekadashi", "purnima | (amavasya & ekadashi)"},
		{"!purnima & nakshatra=1", "(!purnima) & (nakshatra=1)"},
		{"tithi=15 krishna & nakshatra=1 | weekday=monday", "((tithi=15 krishna & nakshatra=1)) | (weekday=monday)"},
		{"!(ekadashi | purnima) & pradosha_kala", "(!((ekadashi) | (purnima))) & ((pradosha_kala))"},
		{"karana=vishti | karana=naga | brahma_muhurta", "((karana=vishti | karana=naga) | brahma_muhurta)"},
		{"yoga=27 & !weekday=sunday | amavasya", "(((yoga=27) & (!(weekday=sunday))) | (amavasya))"},
	}

	days := referenceDays()
	for _, pair := range pairs {
		bare := MustParse(pair[0])
		wrapped := MustParse(pair[1])
		for i, day := range days {
			if a, b := Evaluate(bare, day), Evaluate(wrapped, day); a != b {
				t.Errorf("day %d: %q = %v but %q = %v", i, pair[0], a, pair[1], b)
			}
		}
	}
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		src    string
		offset int
		msg    string
	}{
		{"", 0, "empty expression"},
		{"(purnima", 0, "unbalanced '('"},
		{"purnima)", 7, "unbalanced ')'"},
		{"(purnima | (amavasya)", 0, "unbalanced '('"},
		{"purnima # amavasya", 8, "unexpected character"},
		{"full_moon", 0, "unknown term"},
		{"tithi=0", 6, "outside 1-30"},
		{"tithi=31", 6, "outside 1-30"},
		{"tithi=99999999999999999999", 6, "outside 1-30"},
		{"nakshatra=28", 10, "outside 1-27"},
		{"yoga=0", 5, "outside 1-27"},
		{"tithi=20 shukla", 6, "shukla"},
		{"karana=Bhadra", 7, "unknown karana"},
		{"weekday=funday", 8, "unknown weekday"},
		{"tithi 14", 6, "expected '='"},
		{"nakshatra=ashwini", 10, "expected a number"},
		{"purnima &", 9, "unexpected end of input"},
		{"purnima amavasya", 8, "unexpected identifier"},
		{"& purnima", 0, "unexpected '&'"},
	}

	for _, tt := range tests {
		t.Run(tt.src, func(t *testing.T) {
			_, err := Parse(tt.src)
			var serr *SyntaxError
			if !errors.As(err, &serr) {
				t.Fatalf("expected SyntaxError, got %v", err)
			}
			if serr.Offset != tt.offset {
				t.Errorf("offset = %d, want %d (%v)", serr.Offset, tt.offset, serr)
			}
			if !strings.Contains(serr.Msg, tt.msg) {
				t.Errorf("message %q does not contain %q", serr.Msg, tt.msg)
			}
		})
	}
}

func TestEvaluateKeywords(t *testing.T) {
	tests := []struct {
		src   string
		tithi int
		want  bool
	}{
		{"amavasya", 30, true},
		{"amavasya", 15, false},
		{"purnima", 15, true},
		{"purnima", 30, false},
		{"ekadashi", 11, true},
		{"ekadashi", 26, true},
		{"ekadashi", 12, false},
		{"tithi=11 krishna", 26, true},
		{"tithi=11", 26, false},
	}
	for _, tt := range tests {
		day := syntheticDay("monday", tt.tithi, 1, 1, "Bava", panchangam.AnchorSunrise)
		if got := Evaluate(MustParse(tt.src), day); got != tt.want {
			t.Errorf("%s on tithi %d = %v, want %v", tt.src, tt.tithi, got, tt.want)
		}
	}
}

func TestEvaluateTimeWindows(t *testing.T) {
	day := syntheticDay("monday", 13, 1, 1, "Bava", panchangam.AnchorSunrise)
	pradosha := MustParse("pradosha_kala")
	brahma := MustParse("brahma_muhurta")

	tests := []struct {
		name     string
		ref      time.Time
		pradosha bool
		brahma   bool
	}{
		{"at sunset", day.Sunset, true, false},
		{"window start", day.Sunset.Add(-KeywordWindow), true, false},
		{"before window", day.Sunset.Add(-KeywordWindow - time.Second), false, false},
		{"after sunset", day.Sunset.Add(time.Second), false, false},
		{"at sunrise", day.Sunrise, false, true},
		{"pre-dawn", day.Sunrise.Add(-time.Hour), false, true},
		{"too early", day.Sunrise.Add(-2 * time.Hour), false, false},
	}
	for _, tt := range tests {
		d := *day
		d.Reference = tt.ref
		if got := Evaluate(pradosha, &d); got != tt.pradosha {
			t.Errorf("%s: pradosha_kala = %v, want %v", tt.name, got, tt.pradosha)
		}
		if got := Evaluate(brahma, &d); got != tt.brahma {
			t.Errorf("%s: brahma_muhurta = %v, want %v", tt.name, got, tt.brahma)
		}
	}
}

func TestKeywordsFollowObservance(t *testing.T) {
	pradosha := MustParse("pradosha_kala")
	brahma := MustParse("brahma_muhurta")

	tests := []struct {
		anchor   panchangam.Anchor
		pradosha bool
		brahma   bool
	}{
		{panchangam.AnchorSunrise, false, true},
		{panchangam.AnchorSunset, true, false},
		{panchangam.AnchorMidnight, false, false},
	}
	for _, tt := range tests {
		for _, tithi := range []int{1, 13, 28} {
			day := syntheticDay("friday", tithi, 1, 1, "Bava", tt.anchor)
			if got := Evaluate(pradosha, day); got != tt.pradosha {
				t.Errorf("%s tithi %d: pradosha_kala = %v, want %v", tt.anchor, tithi, got, tt.pradosha)
			}
			if got := Evaluate(brahma, day); got != tt.brahma {
				t.Errorf("%s tithi %d: brahma_muhurta = %v, want %v", tt.anchor, tithi, got, tt.brahma)
			}
		}
	}
}

func TestEvaluateNamesAndNumbers(t *testing.T) {
	day := syntheticDay("friday", 29, 22, 5, "Shakuni", panchangam.AnchorMidnight)
	tests := map[string]bool{
		"karana=shakuni":                    true,
		"karana=SHAKUNI":                    true,
		"karana=naga":                       false,
		"weekday=friday":                    true,
		"weekday=monday":                    false,
		"nakshatra=22 & yoga=5":             true,
		"nakshatra=21 | yoga=6":             false,
		"!(nakshatra=21 | yoga=6)":          true,
		"tithi=14 krishna & !amavasya":      true,
		"tithi=14 shukla | tithi=14":        false,
		"weekday=friday & tithi=29 krishna": true,
	}
	for src, want := range tests {
		if got := Evaluate(MustParse(src), day); got != want {
			t.Errorf("%s = %v, want %v", src, got, want)
		}
	}
}

func TestMahaShivaratriReference(t *testing.T) {
	calc := panchangam.NewCalculator(astro.New(astro.ZodiacLahiri))
	loc, err := panchangam.NewLocation(13.0827, 80.2707, "Asia/Kolkata")
	if err != nil {
		t.Fatalf("NewLocation: %v", err)
	}
	date, _ := panchangam.NewDate(2024, time.March, 8)
	day, err := calc.Compute(date, loc)
	if err != nil {
		t.Fatalf("Compute: %v", err)
	}

	rule := MustParse("tithi=14 krishna")
	if !Evaluate(rule, day.At(panchangam.AnchorMidnight)) {
		t.Errorf("tithi=14 krishna false at midnight closing 2024-03-08 (tithi %d)", day.Anchors.Midnight.Tithi.Number)
	}
}

func TestMustParsePanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatal("expected panic")
		}
	}()
	MustParse("tithi=")
}

func TestTermsAndKeywords(t *testing.T) {
	terms := Terms(MustParse("!(purnima | tithi=3) & weekday=monday"))
	if len(terms) != 3 || terms[0].Kind != TermPurnima || terms[1].Number != 3 || terms[2].Name != "monday" {
		t.Errorf("Terms = %v", terms)
	}
	want := []string{"amavasya", "brahma_muhurta", "ekadashi", "pradosha_kala", "purnima"}
	if got := Keywords(); !reflect.DeepEqual(got, want) {
		t.Errorf("Keywords = %v, want %v", got, want)
	}
}
