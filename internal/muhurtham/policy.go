/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package muhurtham

import (
	"sort"
	"strings"
	"time"
)

// Bias restricts which part of the day an event prefers.
type Bias string

const (
	BiasAny              Bias = "any"
	BiasMorning          Bias = "morning"
	BiasEvening          Bias = "evening"
	BiasMorningOrEvening Bias = "morning_or_evening"
)

// admits reports whether daylight eighth i (0..7) suits the bias. Morning is
// the first half of daylight and evening the second; morning_or_evening
// excludes the two eighths around midday.
func (b Bias) admits(i int) bool {
	switch b {
	case BiasMorning:
		return i < 4
	case BiasEvening:
		return i >= 4
	case BiasMorningOrEvening:
		return i < 3 || i >= 5
	}
	return true
}

// GeneralEventType is the fallback policy.
const GeneralEventType = "general"

// Policy describes which Gowri segments suit an event type.
type Policy struct {
	EventType   string        `json:"event_type"`
	Preferred   []string      `json:"preferred_periods"`
	Avoid       []string      `json:"avoid_periods"`
	Timing      string        `json:"timing"`
	Duration    string        `json:"duration"`
	Bias        Bias          `json:"bias"`
	MinDuration time.Duration `json:"-"`
	MinHours    float64       `json:"min_duration_hours"`
}

func (p Policy) prefers(name string) bool { return contains(p.Preferred, name) }
func (p Policy) avoids(name string) bool  { return contains(p.Avoid, name) }

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

var policies = map[string]Policy{
	"marriage": {
		Preferred:   []string{"amrutha", "siddha", "laabha", "dhanam"},
		Avoid:       []string{"marana", "rogam", "kantaka"},
		Timing:      "Morning or evening",
		Duration:    "2-4 hours",
		Bias:        BiasMorningOrEvening,
		MinDuration: 2 * time.Hour,
	},
	"house_warming": {
		Preferred:   []string{"amrutha", "siddha", "laabha"},
		Avoid:       []string{"marana", "rogam"},
		Timing:      "Morning",
		Duration:    "1-2 hours",
		Bias:        BiasMorning,
		MinDuration: time.Hour,
	},
	"business_opening": {
		Preferred:   []string{"amrutha", "siddha", "laabha", "dhanam"},
		Avoid:       []string{"marana", "rogam"},
		Timing:      "Morning",
		Duration:    "1-2 hours",
		Bias:        BiasMorning,
		MinDuration: time.Hour,
	},
	"vehicle_purchase": {
		Preferred:   []string{"amrutha", "siddha", "laabha"},
		Avoid:       []string{"marana", "rogam", "kantaka"},
		Timing:      "Morning",
		Duration:    "1 hour",
		Bias:        BiasMorning,
		MinDuration: time.Hour,
	},
	GeneralEventType: {
		Preferred:   []string{"amrutha", "siddha", "laabha", "dhanam", "sugam"},
		Avoid:       []string{"marana", "rogam", "kantaka"},
		Timing:      "Any auspicious time",
		Duration:    "1-2 hours",
		Bias:        BiasAny,
		MinDuration: time.Hour,
	},
}

// PolicyFor returns the policy of an event type. Unknown or empty types get
// the general policy.
func PolicyFor(eventType string) Policy {
	key := strings.ToLower(strings.TrimSpace(eventType))
	p, ok := policies[key]
	if !ok {
		key = GeneralEventType
		p = policies[key]
	}
	p.EventType = key
	p.MinHours = p.MinDuration.Hours()
	return p
}

// EventTypes lists the event types with their own policy.
func EventTypes() []string {
	out := make([]string, 0, len(policies))
	for k := range policies {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

var recommendedActivities = map[string][]string{
	"amrutha": {"All auspicious activities", "Starting new ventures", "Important decisions"},
	"siddha":  {"Spiritual practices", "Learning", "Creative work"},
	"laabha":  {"Financial activities", "Business transactions", "Investments"},
	"dhanam":  {"Charity", "Donations", "Helping others"},
	"sugam":   {"Travel", "Communication", "Social activities"},
}

var avoidActivities = map[string][]string{
	"marana":  {"All important activities", "Starting new projects", "Major decisions"},
	"rogam":   {"Health-related activities", "Medical procedures", "Stressful work"},
	"kantaka": {"Sharp objects", "Cutting activities", "Conflicts"},
}

func recommended(name string) []string {
	if a, ok := recommendedActivities[name]; ok {
		return a
	}
	return []string{"General activities"}
}

func avoided(name string) []string {
	if a, ok := avoidActivities[name]; ok {
		return a
	}
	return []string{"None"}
}
