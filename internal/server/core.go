/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package server

import (
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/friendsincode/panchangam/internal/archive"
	"github.com/friendsincode/panchangam/internal/astro"
	"github.com/friendsincode/panchangam/internal/cache"
	"github.com/friendsincode/panchangam/internal/config"
	"github.com/friendsincode/panchangam/internal/events"
	"github.com/friendsincode/panchangam/internal/festival"
	"github.com/friendsincode/panchangam/internal/lookup"
	"github.com/friendsincode/panchangam/internal/panchangam"
	"github.com/friendsincode/panchangam/internal/precompute"
)

// Core is the computation stack without any transport. The CLI one-shot
// commands use it directly.
type Core struct {
	Calculator *panchangam.Calculator
	Rules      []festival.Rule
	Festivals  *festival.Builder
	Lookup     *lookup.Service
}

// NewCore builds the calculator, rule table and lookup service over store.
func NewCore(cfg *config.Config, store cache.Store, arch archive.Archiver, logger zerolog.Logger) (*Core, error) {
	rules, err := festival.DefaultRules()
	if err != nil {
		return nil, fmt.Errorf("load festival rules: %w", err)
	}
	calc := panchangam.NewCalculator(astro.New(astro.Zodiac(cfg.Ayanamsa)))
	svc := lookup.New(calc, rules, store, arch, lookup.Config{
		PanchangamTTL: cfg.PanchangamTTL,
		FestivalTTL:   cfg.FestivalTTL,
		MuhurthamTTL:  cfg.MuhurthamTTL,
		Timeout:       cfg.LookupTimeout,
	}, logger)
	return &Core{
		Calculator: calc,
		Rules:      rules,
		Festivals:  svc.Festivals(),
		Lookup:     svc,
	}, nil
}

// NewScheduler builds the precompute scheduler from cfg.
func (c *Core) NewScheduler(cfg *config.Config, store cache.Store, bus *events.Bus, recorder precompute.RunRecorder, logger zerolog.Logger) (*precompute.Scheduler, error) {
	cities, err := precompute.LoadCatalogue()
	if err != nil {
		return nil, err
	}
	tier, err := precompute.ParseTier(cfg.CityTier)
	if err != nil {
		return nil, err
	}
	hour, minute, err := config.ParseClock(cfg.PrecomputeTime)
	if err != nil {
		return nil, err
	}
	tz, err := time.LoadLocation(cfg.PrecomputeTZ)
	if err != nil {
		return nil, fmt.Errorf("precompute timezone: %w", err)
	}
	return precompute.New(c.Calculator, c.Festivals, store, cities, precompute.Config{
		Tier:          tier,
		Days:          cfg.PrecomputeDays,
		Workers:       cfg.Workers,
		PanchangamTTL: cfg.PanchangamTTL,
		FestivalTTL:   cfg.FestivalTTL,
		SummaryTTL:    cfg.SummaryTTL,
		ItemTimeout:   cfg.LookupTimeout,
		Hour:          hour,
		Minute:        minute,
		Location:      tz,
	}, bus, recorder, logger), nil
}
