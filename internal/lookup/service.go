/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

// Package lookup answers panchangam, festival and muhurtham requests through
// the cache. On a miss at most one computation per key runs at a time;
// concurrent callers for the same key wait for and share its result.
package lookup

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/sync/singleflight"

	"github.com/friendsincode/panchangam/internal/archive"
	"github.com/friendsincode/panchangam/internal/cache"
	"github.com/friendsincode/panchangam/internal/festival"
	"github.com/friendsincode/panchangam/internal/muhurtham"
	"github.com/friendsincode/panchangam/internal/panchangam"
	"github.com/friendsincode/panchangam/internal/telemetry"
)

// Source reports where a result came from.
type Source string

const (
	SourceCache    Source = "cache"
	SourceComputed Source = "computed"
	SourceShared   Source = "shared"
)

// Config holds TTLs and the per-call timeout.
type Config struct {
	PanchangamTTL time.Duration
	FestivalTTL   time.Duration
	MuhurthamTTL  time.Duration
	Timeout       time.Duration
}

// DefaultConfig returns the standard TTLs.
func DefaultConfig() Config {
	return Config{
		PanchangamTTL: cache.DefaultPanchangamTTL,
		FestivalTTL:   cache.DefaultFestivalTTL,
		MuhurthamTTL:  cache.DefaultMuhurthamTTL,
		Timeout:       10 * time.Second,
	}
}

// Service is the cache-through lookup layer.
type Service struct {
	calc      festival.Calculator
	festivals *festival.Builder
	muhurtham *muhurtham.Service
	store     cache.Store
	archive   archive.Archiver
	cfg       Config
	logger    zerolog.Logger

	group singleflight.Group
}

// New builds a Service. store and arch may be nil.
func New(calc festival.Calculator, rules []festival.Rule, store cache.Store, arch archive.Archiver, cfg Config, logger zerolog.Logger) *Service {
	def := DefaultConfig()
	if cfg.PanchangamTTL <= 0 {
		cfg.PanchangamTTL = def.PanchangamTTL
	}
	if cfg.FestivalTTL <= 0 {
		cfg.FestivalTTL = def.FestivalTTL
	}
	if cfg.MuhurthamTTL <= 0 {
		cfg.MuhurthamTTL = def.MuhurthamTTL
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = def.Timeout
	}
	if arch == nil {
		arch = archive.Discard{}
	}
	return &Service{
		calc:      calc,
		festivals: festival.NewBuilder(calc, rules),
		muhurtham: muhurtham.NewService(calc),
		store:     store,
		archive:   arch,
		cfg:       cfg,
		logger:    logger.With().Str("component", "lookup").Logger(),
	}
}

// Festivals exposes the builder, for callers that need the rule table.
func (s *Service) Festivals() *festival.Builder {
	return s.festivals
}

// Panchangam returns the day for date at loc.
func (s *Service) Panchangam(ctx context.Context, date panchangam.Date, loc panchangam.Location) (*panchangam.Day, Source, error) {
	if err := loc.Validate(); err != nil {
		return nil, "", err
	}
	key := cache.PanchangamKey(loc, date)
	var day panchangam.Day
	src, err := s.through(ctx, cache.KindPanchangam, key, s.cfg.PanchangamTTL, &day, func() (any, error) {
		d, err := s.calc.Compute(date, loc)
		if err != nil {
			return nil, err
		}
		s.archiveResult(archive.KindPanchangam, key, loc, date.String(), "", d)
		return d, nil
	})
	if err != nil {
		return nil, "", err
	}
	return &day, src, nil
}

// FestivalCalendar returns the festival days for q.
func (s *Service) FestivalCalendar(ctx context.Context, q festival.Query) ([]festival.Day, Source, error) {
	if err := q.Validate(); err != nil {
		return nil, "", err
	}
	q.Region = festival.NormalizeRegion(q.Region)
	key := cache.FestivalKey(q.Location, q.Region, q.Year, q.Month)

	var days []festival.Day
	src, err := s.through(ctx, cache.KindFestivals, key, s.cfg.FestivalTTL, &days, func() (any, error) {
		// Runs under its own deadline: several callers may share it.
		bctx, cancel := context.WithTimeout(context.Background(), s.cfg.Timeout)
		defer cancel()
		out, err := s.festivals.Build(bctx, q)
		if err != nil {
			return nil, err
		}
		s.archiveResult(archive.KindFestivals, key, q.Location, period(q.Year, q.Month), q.Region, out)
		return out, nil
	})
	if err != nil {
		return nil, "", err
	}
	if days == nil {
		days = []festival.Day{}
	}
	return days, src, nil
}

// Muhurtham returns the rated periods for eventType.
func (s *Service) Muhurtham(ctx context.Context, date panchangam.Date, loc panchangam.Location, eventType string) (*muhurtham.Result, Source, error) {
	if err := loc.Validate(); err != nil {
		return nil, "", err
	}
	policy := muhurtham.PolicyFor(eventType)
	key := cache.MuhurthamKey(loc, date, policy.EventType)

	var res muhurtham.Result
	src, err := s.through(ctx, cache.KindMuhurtham, key, s.cfg.MuhurthamTTL, &res, func() (any, error) {
		r, err := s.muhurtham.Lookup(date, loc, policy.EventType)
		if err != nil {
			return nil, err
		}
		s.archiveResult(archive.KindMuhurtham, key, loc, date.String(), "", r)
		return r, nil
	})
	if err != nil {
		return nil, "", err
	}
	return &res, src, nil
}

// through reads key into dest, computing and storing it on a miss. Cache
// failures are logged and bypassed.
func (s *Service) through(ctx context.Context, kind, key string, ttl time.Duration, dest any, compute func() (any, error)) (Source, error) {
	ctx, span := telemetry.StartSpan(ctx, "lookup."+kind, attribute.String("cache.key", key))
	var err error
	defer func() { telemetry.EndSpan(span, err) }()

	ctx, cancel := context.WithTimeout(ctx, s.cfg.Timeout)
	defer cancel()

	if s.store != nil {
		cerr := cache.GetJSON(ctx, s.store, key, dest)
		switch {
		case cerr == nil:
			telemetry.LookupsTotal.WithLabelValues(kind, string(SourceCache)).Inc()
			span.SetAttributes(attribute.String("lookup.source", string(SourceCache)))
			return SourceCache, nil
		case errors.Is(cerr, cache.ErrMiss):
		default:
			s.logger.Debug().Err(cerr).Str("key", key).Msg("cache read failed, computing directly")
		}
	}

	ch := s.group.DoChan(key, func() (any, error) {
		start := time.Now()
		v, err := compute()
		telemetry.ComputeDuration.WithLabelValues(kind).Observe(time.Since(start).Seconds())
		if err != nil {
			return nil, err
		}
		data, err := encode(v)
		if err != nil {
			return nil, err
		}
		s.fill(kind, key, data, ttl)
		return data, nil
	})

	select {
	case <-ctx.Done():
		err = fmt.Errorf("%s lookup: %w", kind, ctx.Err())
		telemetry.LookupErrors.WithLabelValues(kind, "timeout").Inc()
		return "", err
	case res := <-ch:
		if res.Err != nil {
			err = res.Err
			telemetry.LookupErrors.WithLabelValues(kind, errorClass(err)).Inc()
			return "", err
		}
		if err = decode(res.Val.([]byte), dest); err != nil {
			return "", err
		}
		src := SourceComputed
		if res.Shared {
			src = SourceShared
		}
		telemetry.LookupsTotal.WithLabelValues(kind, string(src)).Inc()
		span.SetAttributes(attribute.String("lookup.source", string(src)))
		return src, nil
	}
}

// fill writes the encoded value under its own deadline.
func (s *Service) fill(kind, key string, data []byte, ttl time.Duration) {
	if s.store == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), s.cfg.Timeout)
	defer cancel()
	if err := s.store.Set(ctx, key, data, ttl); err != nil {
		s.logger.Debug().Err(err).Str("kind", kind).Str("key", key).Msg("cache write failed")
	}
}

func (s *Service) archiveResult(kind, key string, loc panchangam.Location, period, region string, v any) {
	rec, err := archive.NewRecord(kind, key, loc.Canonical(), period, region, v)
	if err != nil {
		s.logger.Warn().Err(err).Str("key", key).Msg("skip archive record")
		return
	}
	s.archive.Enqueue(rec)
}

func period(year int, month time.Month) string {
	if month == 0 {
		return fmt.Sprintf("%04d", year)
	}
	return fmt.Sprintf("%04d-%02d", year, int(month))
}

func errorClass(err error) string {
	var verr *panchangam.InputValidationError
	var cerr *panchangam.AstronomicalComputationError
	switch {
	case errors.As(err, &verr):
		return "validation"
	case errors.As(err, &cerr):
		return "computation"
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
		return "timeout"
	default:
		return "internal"
	}
}
