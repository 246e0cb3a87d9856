/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package main

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/friendsincode/panchangam/internal/cache"
	"github.com/friendsincode/panchangam/internal/config"
	"github.com/friendsincode/panchangam/internal/server"
)

var (
	precomputeTier string
	precomputeDays int
)

var precomputeCmd = &cobra.Command{
	Use:   "precompute",
	Short: "Run one precompute batch against the configured cache",
	Long: `Compute panchangam days and monthly festival calendars for a city tier and
write them to the cache, then print the run summary.

Interrupting the command stops issuing new items; items already started finish.

Examples:
  panchangd precompute
  panchangd precompute --tier IN_TOP10 --days 7
`,
	RunE: runPrecompute,
}

func init() {
	precomputeCmd.Flags().StringVar(&precomputeTier, "tier", "", "City tier (defaults to PANCHANG_CITY_TIER)")
	precomputeCmd.Flags().IntVar(&precomputeDays, "days", 0, "Days ahead (defaults to PANCHANG_PRECOMPUTE_DAYS)")
	rootCmd.AddCommand(precomputeCmd)
}

func runPrecompute(cmd *cobra.Command, args []string) error {
	if err := loadConfig(); err != nil {
		return err
	}
	if precomputeTier != "" {
		cfg.CityTier = precomputeTier
	}
	if precomputeDays > 0 {
		cfg.PrecomputeDays = precomputeDays
	}

	var store cache.Store
	if cfg.CacheBackend == config.CacheMemory {
		logger.Warn().Msg("memory cache selected, results are discarded when the command exits")
		store = cache.NewMemory()
	} else {
		rs, err := cache.NewRedis(cache.Config{
			RedisAddr:     cfg.RedisAddr,
			RedisPassword: cfg.RedisPassword,
			RedisDB:       cfg.RedisDB,
			KeyPrefix:     cfg.CacheKeyPrefix,
			RetryAfter:    cfg.CacheRetryAfter,
		}, logger)
		if err != nil {
			return err
		}
		defer rs.Close()
		if !rs.IsAvailable() {
			return fmt.Errorf("redis at %s is unreachable", cfg.RedisAddr)
		}
		store = rs
	}

	core, err := server.NewCore(cfg, store, nil, logger)
	if err != nil {
		return err
	}
	sched, err := core.NewScheduler(cfg, store, nil, nil, logger)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(contextOf(cmd), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	sum, err := sched.RunOnce(ctx)
	if err != nil {
		return err
	}
	if err := printJSON(cmd.OutOrStdout(), sum); err != nil {
		return err
	}
	if sum.Cancelled {
		return context.Canceled
	}
	return nil
}
