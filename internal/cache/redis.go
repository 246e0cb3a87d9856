/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package cache

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/friendsincode/panchangam/internal/telemetry"
)

// Config contains Redis cache configuration.
type Config struct {
	RedisAddr     string
	RedisPassword string
	RedisDB       int

	// KeyPrefix is prepended to every key, e.g. "panchangd:".
	KeyPrefix string

	// DisableOnError opens the circuit on a backend error. While open,
	// operations fail fast with UnavailableError until RetryAfter passes.
	DisableOnError bool
	RetryAfter     time.Duration
}

// DefaultConfig returns default cache configuration.
func DefaultConfig() Config {
	return Config{
		RedisAddr:      "localhost:6379",
		DisableOnError: true,
		RetryAfter:     30 * time.Second,
	}
}

// RedisStore is a Store on Redis with a simple circuit breaker.
type RedisStore struct {
	client *redis.Client
	logger zerolog.Logger
	config Config
	now    func() time.Time

	mu            sync.RWMutex
	disabledUntil time.Time
}

// NewRedis connects to Redis. An unreachable server is not an error: the
// store starts with its circuit open and retries after RetryAfter.
func NewRedis(cfg Config, logger zerolog.Logger) (*RedisStore, error) {
	client := redis.NewClient(&redis.Options{
		Addr:         cfg.RedisAddr,
		Password:     cfg.RedisPassword,
		DB:           cfg.RedisDB,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  2 * time.Second,
		WriteTimeout: 2 * time.Second,
		PoolSize:     10,
		MinIdleConns: 2,
	})
	return newRedisStore(client, cfg, logger), nil
}

func newRedisStore(client *redis.Client, cfg Config, logger zerolog.Logger) *RedisStore {
	if cfg.RetryAfter <= 0 {
		cfg.RetryAfter = DefaultConfig().RetryAfter
	}
	s := &RedisStore{
		client: client,
		logger: logger.With().Str("component", "cache").Logger(),
		config: cfg,
		now:    time.Now,
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		s.logger.Warn().Err(err).Str("addr", cfg.RedisAddr).Msg("redis cache unavailable, computing without cache")
		s.open()
		return s
	}

	telemetry.CacheAvailable.Set(1)
	s.logger.Info().Str("addr", cfg.RedisAddr).Msg("redis cache initialized")
	return s
}

// Client exposes the underlying client for components sharing the
// connection, such as leader election.
func (s *RedisStore) Client() *redis.Client {
	return s.client
}

// Close closes the Redis connection.
func (s *RedisStore) Close() error {
	return s.client.Close()
}

// IsAvailable reports whether the circuit is closed.
func (s *RedisStore) IsAvailable() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return !s.now().Before(s.disabledUntil)
}

func (s *RedisStore) open() {
	s.mu.Lock()
	s.disabledUntil = s.now().Add(s.config.RetryAfter)
	s.mu.Unlock()
	telemetry.CacheAvailable.Set(0)
}

// handleError applies the circuit breaker and wraps err.
func (s *RedisStore) handleError(err error, op string) error {
	s.logger.Debug().Err(err).Str("operation", op).Msg("cache operation failed")
	telemetry.CacheOperations.WithLabelValues(op, "error").Inc()

	if s.config.DisableOnError && !errors.Is(err, context.Canceled) && !errors.Is(err, context.DeadlineExceeded) {
		s.open()
		s.logger.Warn().Dur("retry_after", s.config.RetryAfter).Msg("disabling cache after redis error")
	}
	return &UnavailableError{Op: op, Err: err}
}

func (s *RedisStore) guard(op string) error {
	if s.IsAvailable() {
		return nil
	}
	telemetry.CacheOperations.WithLabelValues(op, "unavailable").Inc()
	return &UnavailableError{Op: op, Err: errDisabled}
}

// Get implements Store.
func (s *RedisStore) Get(ctx context.Context, key string) ([]byte, error) {
	if err := s.guard("get"); err != nil {
		return nil, err
	}

	data, err := s.client.Get(ctx, s.config.KeyPrefix+key).Bytes()
	if errors.Is(err, redis.Nil) {
		telemetry.CacheOperations.WithLabelValues("get", "miss").Inc()
		return nil, ErrMiss
	}
	if err != nil {
		return nil, s.handleError(err, "get")
	}
	s.recovered()
	telemetry.CacheOperations.WithLabelValues("get", "hit").Inc()
	return data, nil
}

// Set implements Store.
func (s *RedisStore) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if err := s.guard("set"); err != nil {
		return err
	}
	if err := s.client.Set(ctx, s.config.KeyPrefix+key, value, ttl).Err(); err != nil {
		return s.handleError(err, "set")
	}
	s.recovered()
	telemetry.CacheOperations.WithLabelValues("set", "ok").Inc()
	return nil
}

// Exists implements Store.
func (s *RedisStore) Exists(ctx context.Context, key string) (bool, error) {
	if err := s.guard("exists"); err != nil {
		return false, err
	}
	n, err := s.client.Exists(ctx, s.config.KeyPrefix+key).Result()
	if err != nil {
		return false, s.handleError(err, "exists")
	}
	s.recovered()
	return n > 0, nil
}

// Delete implements Store.
func (s *RedisStore) Delete(ctx context.Context, key string) error {
	if err := s.guard("delete"); err != nil {
		return err
	}
	if err := s.client.Del(ctx, s.config.KeyPrefix+key).Err(); err != nil {
		return s.handleError(err, "delete")
	}
	s.recovered()
	return nil
}

// recovered marks the cache available after a successful call, which after
// an open period is the half-open probe.
func (s *RedisStore) recovered() {
	s.mu.Lock()
	wasOpen := !s.disabledUntil.IsZero()
	s.disabledUntil = time.Time{}
	s.mu.Unlock()
	if wasOpen {
		telemetry.CacheAvailable.Set(1)
		s.logger.Info().Msg("redis cache recovered")
	}
}
