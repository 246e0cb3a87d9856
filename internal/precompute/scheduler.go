/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

// Package precompute warms the cache for a tier of cities on a daily
// trigger.
package precompute

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/friendsincode/panchangam/internal/cache"
	"github.com/friendsincode/panchangam/internal/events"
	"github.com/friendsincode/panchangam/internal/festival"
	"github.com/friendsincode/panchangam/internal/models"
	"github.com/friendsincode/panchangam/internal/panchangam"
	"github.com/friendsincode/panchangam/internal/telemetry"
)

// ErrRunning is returned when a trigger fires while a run is active.
var ErrRunning = errors.New("precompute run already in progress")

// Item kinds.
const (
	ItemPanchangam = "panchangam"
	ItemFestivals  = "festivals"
)

// Config controls a Scheduler.
type Config struct {
	Tier          Tier
	Days          int
	Workers       int
	PanchangamTTL time.Duration
	FestivalTTL   time.Duration
	SummaryTTL    time.Duration
	ItemTimeout   time.Duration

	// Daily trigger time in Location.
	Hour     int
	Minute   int
	Location *time.Location
}

// DefaultConfig returns the production defaults.
func DefaultConfig() Config {
	return Config{
		Tier:          TierTop50,
		Days:          30,
		Workers:       4,
		PanchangamTTL: cache.DefaultPanchangamTTL,
		FestivalTTL:   cache.DefaultFestivalTTL,
		SummaryTTL:    cache.DefaultSummaryTTL,
		ItemTimeout:   30 * time.Second,
		Hour:          2,
		Minute:        30,
		Location:      time.UTC,
	}
}

// Summary describes one finished run.
type Summary struct {
	RunID           string          `json:"run_id"`
	Tier            Tier            `json:"tier"`
	StartDate       panchangam.Date `json:"start_date"`
	EndDate         panchangam.Date `json:"end_date"`
	Days            int             `json:"days"`
	Cities          int             `json:"cities"`
	Attempted       int             `json:"attempted"`
	Succeeded       int             `json:"succeeded"`
	Failed          int             `json:"failed"`
	Skipped         int             `json:"skipped"`
	CacheErrors     int             `json:"cache_errors"`
	Cancelled       bool            `json:"cancelled"`
	StartedAt       time.Time       `json:"started_at"`
	FinishedAt      time.Time       `json:"finished_at"`
	DurationSeconds float64         `json:"duration_seconds"`
}

// RunRecorder persists run summaries.
type RunRecorder interface {
	SaveRun(ctx context.Context, run *models.PrecomputeRun) error
}

// Scheduler computes panchangam days and monthly festival calendars for
// every city in the tier and writes them to the cache.
type Scheduler struct {
	calc      festival.Calculator
	festivals *festival.Builder
	store     cache.Store
	cities    Catalogue
	cfg       Config
	bus       *events.Bus
	recorder  RunRecorder
	logger    zerolog.Logger
	now       func() time.Time

	running atomic.Bool
	mu      sync.RWMutex
	last    *Summary
}

// New returns a Scheduler over cities filtered by cfg.Tier. bus and
// recorder may be nil.
func New(calc festival.Calculator, festivals *festival.Builder, store cache.Store, cities Catalogue, cfg Config, bus *events.Bus, recorder RunRecorder, logger zerolog.Logger) *Scheduler {
	def := DefaultConfig()
	if cfg.Tier == "" {
		cfg.Tier = def.Tier
	}
	if cfg.Days <= 0 {
		cfg.Days = def.Days
	}
	if cfg.Workers <= 0 {
		cfg.Workers = def.Workers
	}
	if cfg.PanchangamTTL <= 0 {
		cfg.PanchangamTTL = def.PanchangamTTL
	}
	if cfg.FestivalTTL <= 0 {
		cfg.FestivalTTL = def.FestivalTTL
	}
	if cfg.SummaryTTL <= 0 {
		cfg.SummaryTTL = def.SummaryTTL
	}
	if cfg.ItemTimeout <= 0 {
		cfg.ItemTimeout = def.ItemTimeout
	}
	if cfg.Location == nil {
		cfg.Location = def.Location
	}
	return &Scheduler{
		calc:      calc,
		festivals: festivals,
		store:     store,
		cities:    cities.Select(cfg.Tier),
		cfg:       cfg,
		bus:       bus,
		recorder:  recorder,
		logger:    logger.With().Str("component", "precompute").Logger(),
		now:       time.Now,
	}
}

// Cities returns the cities covered by a run.
func (s *Scheduler) Cities() Catalogue {
	return s.cities
}

// Running reports whether a run is active.
func (s *Scheduler) Running() bool {
	return s.running.Load()
}

// LastSummary returns the summary of the last finished run on this
// instance.
func (s *Scheduler) LastSummary() (*Summary, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.last == nil {
		return nil, false
	}
	cp := *s.last
	return &cp, true
}

// Run fires RunOnce daily at the configured time until ctx is cancelled.
func (s *Scheduler) Run(ctx context.Context) error {
	c := cron.New(cron.WithLocation(s.cfg.Location))
	expr := fmt.Sprintf("%d %d * * *", s.cfg.Minute, s.cfg.Hour)
	if _, err := c.AddFunc(expr, func() {
		if _, err := s.RunOnce(ctx); err != nil && !errors.Is(err, ErrRunning) {
			s.logger.Error().Err(err).Msg("precompute run failed")
		}
	}); err != nil {
		return fmt.Errorf("schedule precompute %q: %w", expr, err)
	}

	c.Start()
	s.logger.Info().
		Str("at", fmt.Sprintf("%02d:%02d", s.cfg.Hour, s.cfg.Minute)).
		Str("tz", s.cfg.Location.String()).
		Str("tier", string(s.cfg.Tier)).
		Int("cities", len(s.cities)).
		Msg("precompute scheduler started")

	<-ctx.Done()
	<-c.Stop().Done()
	s.logger.Info().Msg("precompute scheduler stopped")
	return ctx.Err()
}

// RunOnce performs one run and returns its summary. A run already in
// progress makes it return ErrRunning without queueing.
func (s *Scheduler) RunOnce(ctx context.Context) (*Summary, error) {
	if !s.running.CompareAndSwap(false, true) {
		s.skip()
		return nil, ErrRunning
	}
	defer s.running.Store(false)
	return s.run(ctx, uuid.NewString()), nil
}

// Start begins a run in the background and returns its ID.
func (s *Scheduler) Start(ctx context.Context) (string, error) {
	if !s.running.CompareAndSwap(false, true) {
		s.skip()
		return "", ErrRunning
	}
	id := uuid.NewString()
	go func() {
		defer s.running.Store(false)
		s.run(ctx, id)
	}()
	return id, nil
}

func (s *Scheduler) skip() {
	telemetry.PrecomputeRuns.WithLabelValues("skipped").Inc()
	s.logger.Warn().Msg("precompute trigger skipped, previous run still active")
	s.bus.Publish(events.EventPrecomputeSkipped, events.Payload{"reason": "overlap"})
}

type item struct {
	kind  string
	city  City
	date  panchangam.Date
	month time.Month
	year  int
}

type counters struct {
	attempted, succeeded, failed, skipped, cacheErrors atomic.Int64
}

func (s *Scheduler) run(ctx context.Context, runID string) *Summary {
	started := s.now()
	today := panchangam.DateOf(started.In(s.cfg.Location))
	end := today.AddDays(s.cfg.Days - 1)
	items := s.plan(today)

	log := s.logger.With().Str("run_id", runID).Logger()
	log.Info().
		Str("start", today.String()).
		Str("end", end.String()).
		Int("cities", len(s.cities)).
		Int("items", len(items)).
		Msg("precompute run started")
	s.bus.Publish(events.EventPrecomputeStarted, events.Payload{
		"run_id": runID,
		"tier":   string(s.cfg.Tier),
		"cities": len(s.cities),
		"days":   s.cfg.Days,
	})

	var c counters
	var g errgroup.Group
	g.SetLimit(s.cfg.Workers)
	cancelled := false
	for _, it := range items {
		if ctx.Err() != nil {
			cancelled = true
			break
		}
		c.attempted.Add(1)
		g.Go(func() error {
			s.process(ctx, log, it, &c)
			return nil
		})
	}
	_ = g.Wait()

	finished := s.now()
	sum := &Summary{
		RunID:           runID,
		Tier:            s.cfg.Tier,
		StartDate:       today,
		EndDate:         end,
		Days:            s.cfg.Days,
		Cities:          len(s.cities),
		Attempted:       int(c.attempted.Load()),
		Succeeded:       int(c.succeeded.Load()),
		Failed:          int(c.failed.Load()),
		Skipped:         int(c.skipped.Load()),
		CacheErrors:     int(c.cacheErrors.Load()),
		Cancelled:       cancelled,
		StartedAt:       started.UTC(),
		FinishedAt:      finished.UTC(),
		DurationSeconds: finished.Sub(started).Seconds(),
	}
	s.finish(ctx, log, sum)
	return sum
}

// plan lists the items for [today, today+Days): one panchangam item per
// city and date, one festival item per city and spanned month.
func (s *Scheduler) plan(today panchangam.Date) []item {
	var items []item
	for _, city := range s.cities {
		seen := map[[2]int]bool{}
		for i := 0; i < s.cfg.Days; i++ {
			d := today.AddDays(i)
			items = append(items, item{kind: ItemPanchangam, city: city, date: d})
			ym := [2]int{d.Year, int(d.Month)}
			if !seen[ym] {
				seen[ym] = true
				items = append(items, item{kind: ItemFestivals, city: city, year: d.Year, month: d.Month})
			}
		}
	}
	return items
}

// process runs one item to completion regardless of run cancellation.
func (s *Scheduler) process(parent context.Context, log zerolog.Logger, it item, c *counters) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(parent), s.cfg.ItemTimeout)
	defer cancel()

	loc := it.city.Location()
	var key string
	var ttl time.Duration
	switch it.kind {
	case ItemPanchangam:
		key, ttl = cache.PanchangamKey(loc, it.date), s.cfg.PanchangamTTL
	default:
		key, ttl = cache.FestivalKey(loc, it.city.Region(), it.year, it.month), s.cfg.FestivalTTL
	}

	if ok, err := s.store.Exists(ctx, key); err == nil && ok {
		c.skipped.Add(1)
		telemetry.PrecomputeItems.WithLabelValues(it.kind, "skipped").Inc()
		return
	}

	value, err := s.compute(ctx, it, loc)
	if err != nil {
		c.failed.Add(1)
		telemetry.PrecomputeItems.WithLabelValues(it.kind, "failed").Inc()
		ev := log.Warn().Err(err).Str("kind", it.kind).Str("city", it.city.Name)
		if it.kind == ItemPanchangam {
			ev = ev.Str("date", it.date.String())
		} else {
			ev = ev.Str("month", fmt.Sprintf("%04d-%02d", it.year, int(it.month)))
		}
		ev.Msg("precompute item failed")
		return
	}

	if err := cache.SetJSON(ctx, s.store, key, value, ttl); err != nil {
		c.cacheErrors.Add(1)
		c.failed.Add(1)
		telemetry.PrecomputeItems.WithLabelValues(it.kind, "failed").Inc()
		log.Warn().Err(err).Str("key", key).Msg("precompute cache write failed")
		return
	}
	c.succeeded.Add(1)
	telemetry.PrecomputeItems.WithLabelValues(it.kind, "succeeded").Inc()
}

func (s *Scheduler) compute(ctx context.Context, it item, loc panchangam.Location) (any, error) {
	if it.kind == ItemPanchangam {
		return s.calc.Compute(it.date, loc)
	}
	days, err := s.festivals.Build(ctx, festival.Query{
		Year:     it.year,
		Month:    it.month,
		Location: loc,
		Region:   it.city.Region(),
	})
	if err != nil {
		return nil, err
	}
	if days == nil {
		days = []festival.Day{}
	}
	return days, nil
}

func (s *Scheduler) finish(parent context.Context, log zerolog.Logger, sum *Summary) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(parent), s.cfg.ItemTimeout)
	defer cancel()

	if err := cache.SetJSON(ctx, s.store, cache.SummaryKey, sum, s.cfg.SummaryTTL); err != nil {
		log.Warn().Err(err).Msg("write precompute summary")
	}
	if s.recorder != nil {
		run := &models.PrecomputeRun{
			ID:         sum.RunID,
			Tier:       string(sum.Tier),
			Days:       sum.Days,
			Cities:     sum.Cities,
			Attempted:  sum.Attempted,
			Succeeded:  sum.Succeeded,
			Failed:     sum.Failed,
			Skipped:    sum.Skipped,
			Cancelled:  sum.Cancelled,
			StartedAt:  sum.StartedAt,
			FinishedAt: sum.FinishedAt,
		}
		if err := s.recorder.SaveRun(ctx, run); err != nil {
			log.Warn().Err(err).Msg("record precompute run")
		}
	}

	s.mu.Lock()
	s.last = sum
	s.mu.Unlock()

	outcome := "completed"
	if sum.Cancelled {
		outcome = "cancelled"
	} else {
		telemetry.PrecomputeLastSuccess.Set(float64(sum.FinishedAt.Unix()))
	}
	telemetry.PrecomputeRuns.WithLabelValues(outcome).Inc()
	telemetry.PrecomputeDuration.Observe(sum.DurationSeconds)

	log.Info().
		Str("outcome", outcome).
		Int("attempted", sum.Attempted).
		Int("succeeded", sum.Succeeded).
		Int("failed", sum.Failed).
		Int("skipped", sum.Skipped).
		Int("cache_errors", sum.CacheErrors).
		Float64("duration_s", sum.DurationSeconds).
		Msg("precompute run finished")
	s.bus.Publish(events.EventPrecomputeCompleted, events.Payload{
		"run_id":    sum.RunID,
		"outcome":   outcome,
		"attempted": sum.Attempted,
		"succeeded": sum.Succeeded,
		"failed":    sum.Failed,
		"skipped":   sum.Skipped,
	})
}

// ReadSummary loads the last summary written to store by any instance.
func ReadSummary(ctx context.Context, store cache.Store) (*Summary, error) {
	var sum Summary
	if err := cache.GetJSON(ctx, store, cache.SummaryKey, &sum); err != nil {
		return nil, err
	}
	return &sum, nil
}

// Summary returns the last summary from this instance, or the one another
// instance wrote to the cache.
func (s *Scheduler) Summary(ctx context.Context) (*Summary, error) {
	if sum, ok := s.LastSummary(); ok {
		return sum, nil
	}
	return ReadSummary(ctx, s.store)
}
