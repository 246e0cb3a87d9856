/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package precompute

import (
	"context"
	"errors"
	"sync"

	"github.com/rs/zerolog"

	"github.com/friendsincode/panchangam/internal/events"
)

// Elector reports lease ownership.
type Elector interface {
	InstanceID() string
	IsLeader() bool
	LeaderCh() <-chan bool
}

// Runnable is a loop that runs until its context is cancelled.
type Runnable interface {
	Run(ctx context.Context) error
}

// LeaderAware runs a scheduler only while this instance holds the lease.
type LeaderAware struct {
	scheduler Runnable
	elector   Elector
	bus       *events.Bus
	logger    zerolog.Logger

	mu     sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}
}

// NewLeaderAware wraps scheduler. The caller runs the election itself.
func NewLeaderAware(scheduler Runnable, elector Elector, bus *events.Bus, logger zerolog.Logger) *LeaderAware {
	return &LeaderAware{
		scheduler: scheduler,
		elector:   elector,
		bus:       bus,
		logger:    logger.With().Str("component", "leader_aware_precompute").Logger(),
	}
}

// Run follows leadership changes until ctx is cancelled, then stops the
// scheduler and waits for it.
func (l *LeaderAware) Run(ctx context.Context) error {
	l.logger.Info().Str("instance_id", l.elector.InstanceID()).Msg("starting leader-aware precompute")
	defer l.stopScheduler()

	if l.elector.IsLeader() {
		l.startScheduler(ctx)
	}

	leaderCh := l.elector.LeaderCh()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case isLeader := <-leaderCh:
			l.bus.Publish(events.EventLeadershipChanged, events.Payload{
				"instance_id": l.elector.InstanceID(),
				"leader":      isLeader,
			})
			if isLeader {
				l.logger.Info().Msg("became leader, starting precompute scheduler")
				l.startScheduler(ctx)
			} else {
				l.logger.Warn().Msg("lost leadership, stopping precompute scheduler")
				l.stopScheduler()
			}
		}
	}
}

// Active reports whether the wrapped scheduler is running here.
func (l *LeaderAware) Active() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.cancel != nil
}

func (l *LeaderAware) startScheduler(parent context.Context) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.cancel != nil {
		return
	}

	ctx, cancel := context.WithCancel(parent)
	done := make(chan struct{})
	l.cancel, l.done = cancel, done

	go func() {
		defer close(done)
		if err := l.scheduler.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			l.logger.Error().Err(err).Msg("precompute scheduler error")
		}
	}()
}

func (l *LeaderAware) stopScheduler() {
	l.mu.Lock()
	cancel, done := l.cancel, l.done
	l.cancel, l.done = nil, nil
	l.mu.Unlock()

	if cancel == nil {
		return
	}
	cancel()
	<-done
	l.logger.Info().Msg("precompute scheduler stopped")
}
