/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

// Package leadership elects one instance to run the precompute scheduler.
// The lease is a Redis key holding the leader's instance ID with a TTL.
package leadership

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/friendsincode/panchangam/internal/telemetry"
)

const (
	defaultElectionKey   = "panchangd:leader:precompute"
	defaultLeaseDuration = 15 * time.Second
	defaultRetryInterval = 2 * time.Second
)

// renewScript extends the lease only if this instance still owns it.
var renewScript = redis.NewScript(`
if redis.call("get", KEYS[1]) == ARGV[1] then
	return redis.call("pexpire", KEYS[1], ARGV[2])
end
return 0
`)

// releaseScript deletes the lease only if this instance still owns it.
var releaseScript = redis.NewScript(`
if redis.call("get", KEYS[1]) == ARGV[1] then
	return redis.call("del", KEYS[1])
end
return 0
`)

// Config configures leader election.
type Config struct {
	ElectionKey   string
	LeaseDuration time.Duration
	// RetryInterval is how often the leader renews and followers campaign.
	// It must be well under LeaseDuration.
	RetryInterval time.Duration
	InstanceID    string
}

// DefaultConfig returns default election configuration.
func DefaultConfig() Config {
	return Config{
		ElectionKey:   defaultElectionKey,
		LeaseDuration: defaultLeaseDuration,
		RetryInterval: defaultRetryInterval,
		InstanceID:    uuid.NewString(),
	}
}

// Election campaigns for a Redis lease.
type Election struct {
	client *redis.Client
	logger zerolog.Logger
	config Config

	leader   atomic.Bool
	leaderCh chan bool
}

// New returns an Election over a shared client. It does not own the client.
func New(client *redis.Client, cfg Config, logger zerolog.Logger) *Election {
	def := DefaultConfig()
	if cfg.ElectionKey == "" {
		cfg.ElectionKey = def.ElectionKey
	}
	if cfg.LeaseDuration <= 0 {
		cfg.LeaseDuration = def.LeaseDuration
	}
	if cfg.RetryInterval <= 0 {
		cfg.RetryInterval = def.RetryInterval
	}
	if cfg.InstanceID == "" {
		cfg.InstanceID = def.InstanceID
	}
	return &Election{
		client:   client,
		logger:   logger.With().Str("component", "leader_election").Str("instance_id", cfg.InstanceID).Logger(),
		config:   cfg,
		leaderCh: make(chan bool, 1),
	}
}

// InstanceID returns this instance's identity.
func (e *Election) InstanceID() string {
	return e.config.InstanceID
}

// IsLeader reports whether this instance currently holds the lease.
func (e *Election) IsLeader() bool {
	return e.leader.Load()
}

// LeaderCh receives leadership transitions. Only the latest state is kept.
func (e *Election) LeaderCh() <-chan bool {
	return e.leaderCh
}

// Leader returns the current leader's instance ID, or "" if none.
func (e *Election) Leader(ctx context.Context) (string, error) {
	id, err := e.client.Get(ctx, e.config.ElectionKey).Result()
	if errors.Is(err, redis.Nil) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("get leader: %w", err)
	}
	return id, nil
}

// Run campaigns until ctx is cancelled, then releases the lease if held.
func (e *Election) Run(ctx context.Context) {
	e.logger.Info().Dur("lease_duration", e.config.LeaseDuration).Msg("starting leader election")

	e.Campaign(ctx)
	ticker := time.NewTicker(e.config.RetryInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			e.release()
			return
		case <-ticker.C:
			e.Campaign(ctx)
		}
	}
}

// Campaign makes one acquire-or-renew attempt.
func (e *Election) Campaign(ctx context.Context) {
	held, err := e.acquire(ctx)
	if err != nil {
		if ctx.Err() == nil {
			e.logger.Warn().Err(err).Msg("leader election attempt failed")
		}
		e.setLeader(false)
		return
	}
	e.setLeader(held)
}

func (e *Election) acquire(ctx context.Context) (bool, error) {
	if e.leader.Load() {
		n, err := renewScript.Run(ctx, e.client, []string{e.config.ElectionKey},
			e.config.InstanceID, e.config.LeaseDuration.Milliseconds()).Int()
		if err != nil {
			return false, fmt.Errorf("renew lease: %w", err)
		}
		if n == 1 {
			return true, nil
		}
	}

	ok, err := e.client.SetNX(ctx, e.config.ElectionKey, e.config.InstanceID, e.config.LeaseDuration).Result()
	if err != nil {
		return false, fmt.Errorf("acquire lease: %w", err)
	}
	return ok, nil
}

func (e *Election) release() {
	if !e.leader.Load() {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := releaseScript.Run(ctx, e.client, []string{e.config.ElectionKey}, e.config.InstanceID).Err(); err != nil {
		e.logger.Error().Err(err).Msg("failed to release leadership lease")
	} else {
		telemetry.LeaderElectionChanges.WithLabelValues(e.config.InstanceID, "released").Inc()
		e.logger.Info().Msg("released leadership lease")
	}
	e.setLeader(false)
}

func (e *Election) setLeader(leader bool) {
	if e.leader.Swap(leader) == leader {
		return
	}

	id := e.config.InstanceID
	if leader {
		telemetry.LeaderElectionStatus.WithLabelValues(id).Set(1)
		telemetry.LeaderElectionChanges.WithLabelValues(id, "acquired").Inc()
		e.logger.Info().Msg("acquired leadership")
	} else {
		telemetry.LeaderElectionStatus.WithLabelValues(id).Set(0)
		telemetry.LeaderElectionChanges.WithLabelValues(id, "lost").Inc()
		e.logger.Warn().Msg("lost leadership")
	}

	// Replace any unread transition with the latest one.
	select {
	case <-e.leaderCh:
	default:
	}
	select {
	case e.leaderCh <- leader:
	default:
	}
}
