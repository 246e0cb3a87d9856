/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/friendsincode/panchangam/internal/api"
	"github.com/friendsincode/panchangam/internal/archive"
	"github.com/friendsincode/panchangam/internal/cache"
	"github.com/friendsincode/panchangam/internal/config"
	"github.com/friendsincode/panchangam/internal/db"
	"github.com/friendsincode/panchangam/internal/eventbus"
	"github.com/friendsincode/panchangam/internal/events"
	"github.com/friendsincode/panchangam/internal/leadership"
	"github.com/friendsincode/panchangam/internal/precompute"
	"github.com/friendsincode/panchangam/internal/storage"
	"github.com/friendsincode/panchangam/internal/telemetry"
	"github.com/friendsincode/panchangam/internal/version"
)

// Server bundles HTTP and supporting services.
type Server struct {
	cfg        *config.Config
	logger     zerolog.Logger
	router     chi.Router
	httpServer *http.Server
	closers    []func() error

	bus         *events.Bus
	store       cache.Store
	redis       *cache.RedisStore
	memory      *cache.MemoryStore
	db          *gorm.DB
	archiveSink *archive.DBSink
	archiver    *archive.Writer
	core        *Core
	scheduler   *precompute.Scheduler
	election    *leadership.Election
	leaderAware *precompute.LeaderAware
	bridge      *eventbus.Bridge
	api         *api.API

	bgCtx    context.Context
	bgCancel context.CancelFunc
	bgWG     sync.WaitGroup
}

// New constructs the server and wires dependencies.
func New(cfg *config.Config, logger zerolog.Logger) (*Server, error) {
	for _, warn := range cfg.LegacyEnvWarnings {
		logger.Warn().Msg(warn)
	}

	router := chi.NewRouter()
	router.Use(middleware.RequestID)
	router.Use(middleware.RealIP)
	router.Use(middleware.Recoverer)
	router.Use(securityHeadersMiddleware)
	router.Use(telemetry.TracingMiddleware("panchangd-api"))
	router.Use(telemetry.MetricsMiddleware)
	router.Use(middleware.Timeout(cfg.LookupTimeout + 5*time.Second))

	bgCtx, bgCancel := context.WithCancel(context.Background())
	srv := &Server{
		cfg:      cfg,
		logger:   logger,
		router:   router,
		bus:      events.NewBus(),
		bgCtx:    bgCtx,
		bgCancel: bgCancel,
	}

	if err := srv.initDependencies(); err != nil {
		bgCancel()
		_ = srv.closeResources()
		return nil, err
	}

	srv.configureRoutes()
	srv.startBackgroundWorkers()

	srv.httpServer = &http.Server{
		Addr:              cfg.HTTPAddr(),
		Handler:           srv.router,
		ReadHeaderTimeout: 15 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      cfg.LookupTimeout + 15*time.Second,
		IdleTimeout:       60 * time.Second,
	}
	return srv, nil
}

func securityHeadersMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("Referrer-Policy", "strict-origin-when-cross-origin")
		w.Header().Set("X-Frame-Options", "DENY")
		w.Header().Set("Content-Security-Policy", "default-src 'none'; frame-ancestors 'none'")

		// Only advertise HSTS for requests served over HTTPS.
		if r.TLS != nil || r.Header.Get("X-Forwarded-Proto") == "https" {
			w.Header().Set("Strict-Transport-Security", "max-age=31536000; includeSubDomains")
		}

		next.ServeHTTP(w, r)
	})
}

func (s *Server) initDependencies() error {
	if err := s.initCache(); err != nil {
		return err
	}
	if err := s.initArchive(); err != nil {
		return err
	}

	var arch archive.Archiver
	if s.archiver != nil {
		arch = s.archiver
	}
	core, err := NewCore(s.cfg, s.store, arch, s.logger)
	if err != nil {
		return err
	}
	s.core = core

	var recorder precompute.RunRecorder
	if s.archiveSink != nil {
		recorder = s.archiveSink
	}
	s.scheduler, err = core.NewScheduler(s.cfg, s.store, s.bus, recorder, s.logger)
	if err != nil {
		return fmt.Errorf("precompute scheduler: %w", err)
	}

	if s.cfg.LeaderElectionEnabled {
		if s.redis == nil {
			return errors.New("leader election requires the redis cache backend")
		}
		s.election = leadership.New(s.redis.Client(), leadership.Config{InstanceID: s.cfg.InstanceID}, s.logger)
		s.leaderAware = precompute.NewLeaderAware(s.scheduler, s.election, s.bus, s.logger)
	}

	if err := s.initEventBridge(); err != nil {
		return err
	}

	var pre api.Precompute = s.scheduler
	s.api = api.New(s.bgCtx, core.Lookup, pre, []byte(s.cfg.JWTSigningKey), s.cfg.DefaultTimezone, s.logger)
	return nil
}

func (s *Server) initCache() error {
	switch s.cfg.CacheBackend {
	case config.CacheMemory:
		s.memory = cache.NewMemory()
		s.store = s.memory
		s.logger.Info().Msg("using in-process cache")
	default:
		rs, err := cache.NewRedis(cache.Config{
			RedisAddr:      s.cfg.RedisAddr,
			RedisPassword:  s.cfg.RedisPassword,
			RedisDB:        s.cfg.RedisDB,
			KeyPrefix:      s.cfg.CacheKeyPrefix,
			DisableOnError: true,
			RetryAfter:     s.cfg.CacheRetryAfter,
		}, s.logger)
		if err != nil {
			return fmt.Errorf("redis cache: %w", err)
		}
		s.redis = rs
		s.store = rs
		s.DeferClose(rs.Close)
	}
	return nil
}

func (s *Server) initArchive() error {
	if s.cfg.DBBackend != config.DatabaseNone {
		database, err := db.Connect(s.cfg)
		if err != nil {
			return fmt.Errorf("archive database: %w", err)
		}
		s.DeferClose(func() error { return db.Close(database) })
		if err := db.Migrate(database); err != nil {
			return fmt.Errorf("migrate archive database: %w", err)
		}
		s.db = database
		s.archiveSink = archive.NewDBSink(database)
	}

	var sink archive.Sink
	switch s.cfg.ArchiveSink {
	case config.ArchiveDB:
		sink = s.archiveSink
	case config.ArchiveS3:
		ctx, cancel := context.WithTimeout(s.bgCtx, 10*time.Second)
		defer cancel()
		store, err := storage.NewS3Store(ctx, storage.S3Config{
			AccessKeyID:     s.cfg.S3AccessKeyID,
			SecretAccessKey: s.cfg.S3SecretAccessKey,
			Region:          s.cfg.S3Region,
			Bucket:          s.cfg.S3Bucket,
			Endpoint:        s.cfg.S3Endpoint,
			UsePathStyle:    s.cfg.S3UsePathStyle,
		})
		if err != nil {
			return fmt.Errorf("archive object store: %w", err)
		}
		sink = archive.NewObjectSink(store, s.cfg.S3Prefix)
	default:
		return nil
	}

	wcfg := archive.DefaultWriterConfig()
	if s.cfg.ArchiveQueueSize > 0 {
		wcfg.QueueSize = s.cfg.ArchiveQueueSize
	}
	s.archiver = archive.NewWriter(sink, wcfg, s.logger)
	s.logger.Info().Str("sink", sink.Name()).Msg("archive enabled")
	return nil
}

func (s *Server) initEventBridge() error {
	var pub eventbus.Publisher
	switch {
	case s.cfg.NATSURL != "":
		nc, err := eventbus.ConnectNATS(eventbus.NATSConfig{URL: s.cfg.NATSURL, Name: "panchangd-" + s.instanceID(), MaxReconnects: -1}, s.logger)
		if err != nil {
			return err
		}
		s.DeferClose(nc.Close)
		pub = nc
	case s.redis != nil:
		pub = eventbus.NewRedisPublisher(s.redis.Client())
	default:
		return nil
	}
	s.bridge = eventbus.NewBridge(s.bus, pub, s.cfg.NATSSubject, s.instanceID(), s.logger)
	return nil
}

func (s *Server) instanceID() string {
	if s.election != nil {
		return s.election.InstanceID()
	}
	return s.cfg.InstanceID
}

// HTTPServer exposes the underlying net/http server.
func (s *Server) HTTPServer() *http.Server {
	return s.httpServer
}

// Handler returns the router.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Close stops background work and releases owned resources in reverse
// order.
func (s *Server) Close() error {
	s.stopBackgroundWorkers()
	return s.closeResources()
}

func (s *Server) closeResources() error {
	var firstErr error
	for i := len(s.closers) - 1; i >= 0; i-- {
		if err := s.closers[i](); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	s.closers = nil
	return firstErr
}

// DeferClose registers a cleanup hook.
func (s *Server) DeferClose(fn func() error) {
	s.closers = append(s.closers, fn)
}

func (s *Server) goBackground(name string, fn func(ctx context.Context) error) {
	s.bgWG.Add(1)
	go func() {
		defer s.bgWG.Done()
		if err := fn(s.bgCtx); err != nil && !errors.Is(err, context.Canceled) {
			s.logger.Error().Err(err).Str("worker", name).Msg("background worker exited")
		}
	}()
}

func (s *Server) startBackgroundWorkers() {
	if s.archiver != nil {
		s.goBackground("archive", func(ctx context.Context) error {
			s.archiver.Run(ctx)
			return nil
		})
	}

	if s.bridge != nil {
		s.goBackground("eventbus", func(ctx context.Context) error {
			s.bridge.Run(ctx)
			return nil
		})
	}

	// Precompute: leader-aware if configured, otherwise direct.
	if s.cfg.SchedulerEnabled {
		if s.leaderAware != nil {
			s.goBackground("election", func(ctx context.Context) error {
				s.election.Run(ctx)
				return nil
			})
			s.goBackground("precompute", s.leaderAware.Run)
		} else {
			s.goBackground("precompute", s.scheduler.Run)
		}
	}

	if s.memory != nil {
		s.goBackground("cache-sweep", func(ctx context.Context) error {
			return every(ctx, time.Minute, s.memory.Sweep)
		})
	}

	if s.db != nil {
		s.goBackground("db-metrics", func(ctx context.Context) error {
			return every(ctx, 15*time.Second, func() { db.UpdateConnectionMetrics(s.db) })
		})
	}
}

func every(ctx context.Context, interval time.Duration, fn func()) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			fn()
		}
	}
}

func (s *Server) stopBackgroundWorkers() {
	if s.bgCancel == nil {
		return
	}
	s.bgCancel()
	s.bgWG.Wait()
	if s.archiver != nil {
		<-s.archiver.Done()
	}
	s.bgCancel = nil
}

type health struct {
	Status     string `json:"status"`
	Version    string `json:"version"`
	Cache      string `json:"cache"`
	Archive    string `json:"archive,omitempty"`
	Leader     *bool  `json:"leader,omitempty"`
	Precompute bool   `json:"precompute_running"`
}

func (s *Server) health() health {
	h := health{
		Status:     "ok",
		Version:    version.Version,
		Cache:      string(s.cfg.CacheBackend),
		Precompute: s.scheduler.Running(),
	}
	if s.redis != nil && !s.redis.IsAvailable() {
		// Lookups still compute without the cache.
		h.Status = "degraded"
		h.Cache = "unavailable"
	}
	if s.archiver != nil {
		h.Archive = string(s.cfg.ArchiveSink)
	}
	if s.election != nil {
		leader := s.election.IsLeader()
		h.Leader = &leader
	}
	return h
}

func (s *Server) configureRoutes() {
	s.router.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_ = json.NewEncoder(w).Encode(s.health())
	})

	s.router.Handle("/metrics", telemetry.Handler())

	s.api.Routes(s.router)
}
