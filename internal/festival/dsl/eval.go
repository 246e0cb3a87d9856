/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package dsl

import (
	"strings"
	"time"

	"github.com/friendsincode/panchangam/internal/panchangam"
)

// KeywordWindow is the length of the pradosha_kala and brahma_muhurta
// windows. Pradosha kala ends at sunset, brahma muhurta at sunrise.
//
// The keywords test the day's Reference instant, which Day.At sets to the
// rule's observance anchor. Under a sunset observance pradosha_kala always
// holds, under sunrise brahma_muhurta always holds, and under midnight
// neither does. A keyword therefore constrains which anchor a rule is
// observed at; the angas combined with it must hold at that anchor.
const KeywordWindow = 90 * time.Minute

// Evaluate reports whether e holds on day. The angas tested are the day's
// top-level values, so callers choose the observance with day.At first.
// Time keywords test day.Reference against the keyword window.
func Evaluate(e Expr, day *panchangam.Day) bool {
	switch n := e.(type) {
	case *And:
		return Evaluate(n.Left, day) && Evaluate(n.Right, day)
	case *Or:
		return Evaluate(n.Left, day) || Evaluate(n.Right, day)
	case *Not:
		return !Evaluate(n.X, day)
	case *Term:
		return evalTerm(n, day)
	}
	return false
}

func evalTerm(t *Term, day *panchangam.Day) bool {
	switch t.Kind {
	case TermTithi:
		return day.Tithi.Number == t.Number
	case TermNakshatra:
		return day.Nakshatra.Number == t.Number
	case TermYoga:
		return day.Yoga.Number == t.Number
	case TermKarana:
		return strings.EqualFold(day.Karana.Name, t.Name)
	case TermWeekday:
		return day.Weekday == t.Name
	case TermAmavasya:
		return day.Tithi.Number == 30
	case TermPurnima:
		return day.Tithi.Number == 15
	case TermEkadashi:
		return day.Tithi.Number == 11 || day.Tithi.Number == 26
	case TermPradoshaKala:
		return within(day.Reference, day.Sunset.Add(-KeywordWindow), day.Sunset)
	case TermBrahmaMuhurta:
		return within(day.Reference, day.Sunrise.Add(-KeywordWindow), day.Sunrise)
	}
	return false
}

// within is inclusive at both ends.
func within(t, start, end time.Time) bool {
	return !t.Before(start) && !t.After(end)
}
