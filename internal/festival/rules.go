/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package festival

import (
	_ "embed"
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/friendsincode/panchangam/internal/festival/dsl"
	"github.com/friendsincode/panchangam/internal/panchangam"
)

//go:embed rules.yaml
var defaultRulesYAML []byte

// Type classifies a festival.
type Type string

const (
	TypeReligious Type = "religious"
	TypeNational  Type = "national"
	TypeRegional  Type = "regional"
	TypeSeasonal  Type = "seasonal"
	TypePersonal  Type = "personal"
)

// Importance ranks a festival.
type Importance string

const (
	ImportanceLow      Importance = "low"
	ImportanceMedium   Importance = "medium"
	ImportanceHigh     Importance = "high"
	ImportanceVeryHigh Importance = "very_high"
)

// Rule is one entry of the festival table. Rules are read-only once loaded.
type Rule struct {
	Name            string            `yaml:"name" json:"name"`
	When            string            `yaml:"when" json:"when"`
	Observe         panchangam.Anchor `yaml:"observe" json:"observe"`
	Region          string            `yaml:"region" json:"region"`
	Type            Type              `yaml:"type" json:"type"`
	Importance      Importance        `yaml:"importance" json:"importance"`
	Description     string            `yaml:"description" json:"description,omitempty"`
	LunarDate       string            `yaml:"lunar_date" json:"lunar_date,omitempty"`
	PublicHoliday   bool              `yaml:"public_holiday" json:"public_holiday"`
	BankHoliday     bool              `yaml:"bank_holiday" json:"bank_holiday"`
	OptionalHoliday bool              `yaml:"optional_holiday" json:"optional_holiday"`
	Rituals         map[string]string `yaml:"rituals" json:"rituals,omitempty"`
	Customs         map[string]string `yaml:"customs" json:"customs,omitempty"`

	Expr dsl.Expr `yaml:"-" json:"-"`
}

// ParseRules decodes a YAML rule table and compiles every expression. Any
// malformed entry fails the whole table; the error wraps *dsl.SyntaxError
// for expression problems.
func ParseRules(data []byte) ([]Rule, error) {
	var rules []Rule
	if err := yaml.Unmarshal(data, &rules); err != nil {
		return nil, fmt.Errorf("decode rules: %w", err)
	}
	if len(rules) == 0 {
		return nil, fmt.Errorf("rule table is empty")
	}

	seen := make(map[string]bool, len(rules))
	for i := range rules {
		r := &rules[i]
		if err := r.compile(); err != nil {
			return nil, fmt.Errorf("rule %d (%q): %w", i, r.Name, err)
		}
		if seen[r.Name] {
			return nil, fmt.Errorf("rule %d: duplicate name %q", i, r.Name)
		}
		seen[r.Name] = true
	}
	return rules, nil
}

// DefaultRules returns the built-in rule table.
func DefaultRules() ([]Rule, error) {
	return ParseRules(defaultRulesYAML)
}

func (r *Rule) compile() error {
	r.Name = strings.TrimSpace(r.Name)
	if r.Name == "" {
		return fmt.Errorf("name is required")
	}

	expr, err := dsl.Parse(r.When)
	if err != nil {
		return err
	}
	r.Expr = expr

	anchor, err := panchangam.ParseAnchor(string(r.Observe))
	if err != nil {
		return err
	}
	r.Observe = anchor

	r.Region = NormalizeRegion(r.Region)
	if !KnownRegion(r.Region) {
		return fmt.Errorf("unknown region %q", r.Region)
	}

	switch r.Type {
	case "":
		r.Type = TypeReligious
	case TypeReligious, TypeNational, TypeRegional, TypeSeasonal, TypePersonal:
	default:
		return fmt.Errorf("unknown type %q", r.Type)
	}

	switch r.Importance {
	case "":
		r.Importance = ImportanceMedium
	case ImportanceLow, ImportanceMedium, ImportanceHigh, ImportanceVeryHigh:
	default:
		return fmt.Errorf("unknown importance %q", r.Importance)
	}
	return nil
}

// Matches reports whether the rule applies to a query region.
func (r *Rule) Matches(region string) bool {
	return RegionMatches(r.Region, region)
}

var defaultRituals = map[string]map[string]string{
	"Maha Shivaratri": {
		"fasting": "Fasting throughout the day",
		"puja":    "Shiva puja with bilva leaves",
		"japa":    "Om Namah Shivaya mantra",
		"timing":  "Night puja is most important",
	},
	"Diwali": {
		"cleaning": "Clean and decorate the house",
		"puja":     "Lakshmi puja in the evening",
		"lights":   "Light diyas and candles",
		"sweets":   "Prepare and share sweets",
	},
	"Holi": {
		"bonfire": "Holika dahan the night before",
		"colors":  "Play with colors the next day",
		"sweets":  "Prepare gujiya and other sweets",
		"music":   "Sing and dance",
	},
	"Dussehra": {
		"ramlila": "Watch or perform Ramlila",
		"burning": "Burn effigy of Ravana",
		"puja":    "Worship weapons and tools",
		"timing":  "Evening is most auspicious",
	},
}

var defaultCustoms = map[string]map[string]string{
	"Maha Shivaratri": {
		"clothing": "Wear white or light colors",
		"food":     "Simple vegetarian food",
		"behavior": "Stay awake and meditate",
	},
	"Diwali": {
		"clothing": "Wear new clothes",
		"food":     "Prepare festive meals",
		"gifts":    "Exchange gifts with family",
	},
	"Holi": {
		"clothing": "Wear old clothes",
		"food":     "Prepare special sweets",
		"social":   "Visit friends and family",
	},
}

func (r *Rule) rituals() map[string]string {
	if len(r.Rituals) > 0 {
		return r.Rituals
	}
	if m, ok := defaultRituals[r.Name]; ok {
		return m
	}
	return map[string]string{"general": "Follow traditional customs"}
}

func (r *Rule) customs() map[string]string {
	if len(r.Customs) > 0 {
		return r.Customs
	}
	if m, ok := defaultCustoms[r.Name]; ok {
		return m
	}
	return map[string]string{"general": "Follow regional traditions"}
}

var bestTimes = map[panchangam.Anchor]string{
	panchangam.AnchorSunrise:  "Early morning (6:00 AM - 8:00 AM)",
	panchangam.AnchorSunset:   "Evening (6:00 PM - 8:00 PM)",
	panchangam.AnchorMidnight: "Late night (11:00 PM - 1:00 AM)",
}
