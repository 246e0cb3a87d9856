/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

// Package festival maps computed panchangam days to named festivals.
package festival

import (
	"context"
	"fmt"
	"time"

	"github.com/friendsincode/panchangam/internal/festival/dsl"
	"github.com/friendsincode/panchangam/internal/panchangam"
)

// Calculator computes one day. *panchangam.Calculator satisfies it.
type Calculator interface {
	Compute(date panchangam.Date, loc panchangam.Location) (*panchangam.Day, error)
}

// Query selects a festival calendar. Month zero means the whole year.
type Query struct {
	Year     int
	Month    time.Month
	Location panchangam.Location
	Region   string
}

// Validate checks the year, month and location.
func (q Query) Validate() error {
	if q.Month < 0 || q.Month > 12 {
		return &panchangam.InputValidationError{Field: "month", Value: fmt.Sprint(int(q.Month)), Reason: "must be within 1-12"}
	}
	if q.Year < 1 {
		return &panchangam.InputValidationError{Field: "year", Value: fmt.Sprint(q.Year), Reason: "invalid year"}
	}
	return q.Location.Validate()
}

// Days returns the civil dates covered by the query.
func (q Query) Days() []panchangam.Date {
	first, last := time.January, time.December
	if q.Month != 0 {
		first, last = q.Month, q.Month
	}
	var out []panchangam.Date
	for m := first; m <= last; m++ {
		for d := 1; d <= panchangam.DaysIn(q.Year, m); d++ {
			out = append(out, panchangam.Date{Year: q.Year, Month: m, Day: d})
		}
	}
	return out
}

// AuspiciousTimes is descriptive timing advice for a festival.
type AuspiciousTimes struct {
	BestTime   string `json:"best_time"`
	AvoidTimes string `json:"avoid_times"`
	Duration   string `json:"duration"`
}

// PujaTimes lists the day's auspicious Gowri segments for worship.
type PujaTimes struct {
	AuspiciousPeriods []string          `json:"auspicious_periods"`
	MainPuja          panchangam.Anchor `json:"main_puja"`
	Duration          string            `json:"duration"`
}

// Day is one (rule, date) match.
type Day struct {
	Date            panchangam.Date   `json:"date"`
	Name            string            `json:"name"`
	LunarDate       string            `json:"lunar_date"`
	Description     string            `json:"description"`
	Type            Type              `json:"festival_type"`
	Importance      Importance        `json:"importance"`
	Regions         []string          `json:"regions"`
	States          []string          `json:"states"`
	PublicHoliday   bool              `json:"is_public_holiday"`
	BankHoliday     bool              `json:"is_bank_holiday"`
	OptionalHoliday bool              `json:"is_optional_holiday"`
	Rituals         map[string]string `json:"rituals"`
	Customs         map[string]string `json:"customs"`
	AuspiciousTimes AuspiciousTimes   `json:"auspicious_times"`
	PujaTimes       PujaTimes         `json:"puja_times"`
	Observance      panchangam.Anchor `json:"observance"`
	Panchangam      panchangam.Angas  `json:"panchangam"`
}

// Builder evaluates the rule table over a date range.
type Builder struct {
	calc  Calculator
	rules []Rule
}

// NewBuilder returns a builder over the given rules, which must already be
// compiled by ParseRules or DefaultRules.
func NewBuilder(calc Calculator, rules []Rule) *Builder {
	return &Builder{calc: calc, rules: rules}
}

// Rules returns the loaded rules in declaration order.
func (b *Builder) Rules() []Rule {
	return b.rules
}

// Build computes each day of the query once and evaluates every rule that
// applies to the query region against it. Results are ordered by date, then
// by rule declaration order. Build stops between days when ctx is done.
func (b *Builder) Build(ctx context.Context, q Query) ([]Day, error) {
	if err := q.Validate(); err != nil {
		return nil, err
	}

	var applicable []*Rule
	for i := range b.rules {
		if b.rules[i].Matches(q.Region) {
			applicable = append(applicable, &b.rules[i])
		}
	}

	out := []Day{}
	for _, date := range q.Days() {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		day, err := b.calc.Compute(date, q.Location)
		if err != nil {
			return nil, fmt.Errorf("compute %s: %w", date, err)
		}

		var views [3]*panchangam.Day
		for _, r := range applicable {
			view := observe(&views, day, r.Observe)
			if dsl.Evaluate(r.Expr, view) {
				out = append(out, newDay(r, view))
			}
		}
	}
	return out, nil
}

// observe returns day seen at anchor, reusing views already built for it.
func observe(views *[3]*panchangam.Day, day *panchangam.Day, anchor panchangam.Anchor) *panchangam.Day {
	i := 0
	switch anchor {
	case panchangam.AnchorSunset:
		i = 1
	case panchangam.AnchorMidnight:
		i = 2
	}
	if views[i] == nil {
		views[i] = day.At(anchor)
	}
	return views[i]
}

func newDay(r *Rule, view *panchangam.Day) Day {
	lunar := r.LunarDate
	if lunar == "" {
		lunar = view.Tithi.Name
	}
	desc := r.Description
	if desc == "" {
		desc = "Festival: " + r.Name
	}
	best, ok := bestTimes[r.Observe]
	if !ok {
		best = "Morning"
	}

	return Day{
		Date:            view.Date,
		Name:            r.Name,
		LunarDate:       lunar,
		Description:     desc,
		Type:            r.Type,
		Importance:      r.Importance,
		Regions:         []string{r.Region},
		States:          StatesFor(r.Region),
		PublicHoliday:   r.PublicHoliday,
		BankHoliday:     r.BankHoliday,
		OptionalHoliday: r.OptionalHoliday,
		Rituals:         r.rituals(),
		Customs:         r.customs(),
		AuspiciousTimes: AuspiciousTimes{
			BestTime:   best,
			AvoidTimes: "Avoid Rahu Kalam, Yama Gandam, Gulikai Kalam",
			Duration:   "2-3 hours for main rituals",
		},
		PujaTimes: PujaTimes{
			AuspiciousPeriods: view.Gowri.Auspicious,
			MainPuja:          r.Observe,
			Duration:          "1-2 hours",
		},
		Observance: view.Observance,
		Panchangam: view.Snapshot(),
	}
}
