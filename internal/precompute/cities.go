/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package precompute

import (
	_ "embed"
	"fmt"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/friendsincode/panchangam/internal/festival"
	"github.com/friendsincode/panchangam/internal/panchangam"
)

//go:embed cities.yaml
var citiesYAML []byte

// City is one precompute target.
type City struct {
	Name       string  `yaml:"name" json:"name"`
	State      string  `yaml:"state" json:"state"`
	Country    string  `yaml:"country" json:"country"`
	Latitude   float64 `yaml:"lat" json:"latitude"`
	Longitude  float64 `yaml:"lon" json:"longitude"`
	Timezone   string  `yaml:"tz" json:"timezone"`
	Population int     `yaml:"population" json:"population,omitempty"`
	Rank       int     `yaml:"rank" json:"rank,omitempty"`
}

// Location returns the observer for the city.
func (c City) Location() panchangam.Location {
	return panchangam.Location{Latitude: c.Latitude, Longitude: c.Longitude, Timezone: c.Timezone}
}

// Region returns the festival region code for the city's state.
func (c City) Region() string {
	return festival.RegionForState(c.State)
}

// Tier selects a subset of the catalogue.
type Tier string

const (
	TierTop10  Tier = "IN_TOP10"
	TierTop50  Tier = "IN_TOP50"
	TierTop200 Tier = "IN_TOP200"
	TierAll    Tier = "ALL"
)

// ParseTier accepts a tier name in any case.
func ParseTier(s string) (Tier, error) {
	t := Tier(strings.ToUpper(strings.TrimSpace(s)))
	switch t {
	case TierTop10, TierTop50, TierTop200, TierAll:
		return t, nil
	case "":
		return TierTop50, nil
	}
	return "", fmt.Errorf("unknown city tier %q", s)
}

func (t Tier) maxRank() int {
	switch t {
	case TierTop10:
		return 10
	case TierTop50:
		return 50
	case TierTop200:
		return 200
	}
	return 0
}

// Catalogue is an ordered city list.
type Catalogue []City

// LoadCatalogue parses the embedded city table.
func LoadCatalogue() (Catalogue, error) {
	return ParseCatalogue(citiesYAML)
}

// ParseCatalogue parses a YAML city table and sorts it by rank.
func ParseCatalogue(data []byte) (Catalogue, error) {
	var doc struct {
		Cities []City `yaml:"cities"`
	}
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse cities: %w", err)
	}
	for i, c := range doc.Cities {
		if err := c.Location().Validate(); err != nil {
			return nil, fmt.Errorf("city %d (%s): %w", i, c.Name, err)
		}
	}
	sort.SliceStable(doc.Cities, func(i, j int) bool {
		return rankOrder(doc.Cities[i]) < rankOrder(doc.Cities[j])
	})
	return doc.Cities, nil
}

// Select returns the cities in tier. Ranked tiers exclude unranked cities.
func (c Catalogue) Select(tier Tier) Catalogue {
	if tier == TierAll {
		return append(Catalogue(nil), c...)
	}
	limit := tier.maxRank()
	var out Catalogue
	for _, city := range c {
		if city.Rank > 0 && city.Rank <= limit {
			out = append(out, city)
		}
	}
	return out
}

// Find looks a city up by name, case-insensitively.
func (c Catalogue) Find(name string) (City, bool) {
	for _, city := range c {
		if strings.EqualFold(city.Name, name) {
			return city, true
		}
	}
	return City{}, false
}

func rankOrder(c City) int {
	if c.Rank <= 0 {
		return int(^uint(0) >> 1)
	}
	return c.Rank
}
