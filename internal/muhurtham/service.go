/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

// Package muhurtham selects auspicious windows of a day for an event type.
package muhurtham

import (
	"time"

	"github.com/friendsincode/panchangam/internal/panchangam"
)

// Rating grades a period for the requested event.
type Rating string

const (
	RatingExcellent Rating = "Excellent"
	RatingGood      Rating = "Good"
	RatingAvoid     Rating = "Avoid"
)

// Period is one rated Gowri segment.
type Period struct {
	Name                  string   `json:"name"`
	Rating                Rating   `json:"suitability"`
	RecommendedActivities []string `json:"recommended_activities"`
	AvoidActivities       []string `json:"avoid_activities"`
	panchangam.Interval
}

// Result is the answer to one muhurtham lookup.
type Result struct {
	Date      panchangam.Date     `json:"date"`
	Location  panchangam.Location `json:"location"`
	EventType string              `json:"event_type"`
	Policy    Policy              `json:"policy"`
	Periods   []Period            `json:"periods"`
}

// Calculator computes one day. *panchangam.Calculator satisfies it.
type Calculator interface {
	Compute(date panchangam.Date, loc panchangam.Location) (*panchangam.Day, error)
}

// Service answers muhurtham lookups.
type Service struct {
	calc Calculator
}

// NewService returns a Service over calc.
func NewService(calc Calculator) *Service {
	return &Service{calc: calc}
}

// Lookup computes the day and rates its Gowri segments for eventType.
func (s *Service) Lookup(date panchangam.Date, loc panchangam.Location, eventType string) (*Result, error) {
	day, err := s.calc.Compute(date, loc)
	if err != nil {
		return nil, err
	}
	p := PolicyFor(eventType)
	return &Result{
		Date:      day.Date,
		Location:  day.Location,
		EventType: p.EventType,
		Policy:    p,
		Periods:   Select(day, p),
	}, nil
}

// Select rates the day's Gowri segments against p, in time order.
//
// A preferred segment is Excellent when the run of adjacent preferred
// segments containing it lasts at least p.MinDuration and it falls in the
// part of the day p.Bias asks for; otherwise it is Good. Segments in the
// avoid set are rated Avoid. Segments in neither set are omitted.
func Select(day *panchangam.Day, p Policy) []Period {
	segs := day.Gowri.Segments
	runs := runLengths(segs, p)

	out := []Period{}
	for i, seg := range segs {
		switch {
		case p.avoids(seg.Name):
			out = append(out, Period{
				Name:                  seg.Name,
				Rating:                RatingAvoid,
				RecommendedActivities: []string{},
				AvoidActivities:       avoided(seg.Name),
				Interval:              seg.Interval,
			})
		case p.prefers(seg.Name):
			rating := RatingGood
			if runs[i] >= p.MinDuration && p.Bias.admits(i) {
				rating = RatingExcellent
			}
			out = append(out, Period{
				Name:                  seg.Name,
				Rating:                rating,
				RecommendedActivities: recommended(seg.Name),
				AvoidActivities:       avoided(seg.Name),
				Interval:              seg.Interval,
			})
		}
	}
	return out
}

// runLengths returns, for each preferred segment, the total length of the
// contiguous preferred run it belongs to.
func runLengths(segs []panchangam.GowriSegment, p Policy) []time.Duration {
	runs := make([]time.Duration, len(segs))
	for i := 0; i < len(segs); {
		if !p.prefers(segs[i].Name) {
			i++
			continue
		}
		j := i
		var total time.Duration
		for j < len(segs) && p.prefers(segs[j].Name) && (j == i || segs[j-1].End.Equal(segs[j].Start)) {
			total += segs[j].Duration()
			j++
		}
		for k := i; k < j; k++ {
			runs[k] = total
		}
		i = j
	}
	return runs
}
