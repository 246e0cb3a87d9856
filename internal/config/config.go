/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package config

import (
	"fmt"
	"os"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Database backend selection.
type DatabaseBackend string

const (
	DatabasePostgres DatabaseBackend = "postgres"
	DatabaseMySQL    DatabaseBackend = "mysql"
	DatabaseSQLite   DatabaseBackend = "sqlite"
	DatabaseNone     DatabaseBackend = "none"
)

// Cache backend selection.
type CacheBackend string

const (
	CacheRedis  CacheBackend = "redis"
	CacheMemory CacheBackend = "memory"
)

// Archive sink selection.
type ArchiveSink string

const (
	ArchiveNone ArchiveSink = "none"
	ArchiveDB   ArchiveSink = "db"
	ArchiveS3   ArchiveSink = "s3"
)

// CityTiers lists the accepted PANCHANG_CITY_TIER values.
var CityTiers = []string{"IN_TOP10", "IN_TOP50", "IN_TOP200", "ALL"}

// Config covers process level configuration read from environment variables.
type Config struct {
	Environment     string
	HTTPBind        string
	HTTPPort        int
	DefaultTimezone string
	Ayanamsa        string
	LookupTimeout   time.Duration
	JWTSigningKey   string

	// Cache
	CacheBackend    CacheBackend
	RedisAddr       string
	RedisPassword   string
	RedisDB         int
	CacheKeyPrefix  string
	CacheRetryAfter time.Duration
	PanchangamTTL   time.Duration
	FestivalTTL     time.Duration
	MuhurthamTTL    time.Duration
	SummaryTTL      time.Duration

	// Archive
	DBBackend        DatabaseBackend
	DBDSN            string
	ArchiveSink      ArchiveSink
	ArchiveQueueSize int

	// S3 archive sink
	S3AccessKeyID     string
	S3SecretAccessKey string
	S3Region          string
	S3Bucket          string
	S3Endpoint        string // For S3-compatible services (MinIO, Spaces, etc.)
	S3Prefix          string
	S3UsePathStyle    bool // Required for MinIO

	// Messaging
	NATSURL     string
	NATSSubject string

	// Precompute
	SchedulerEnabled bool
	PrecomputeTime   string // HH:MM in PrecomputeTZ
	PrecomputeTZ     string
	PrecomputeDays   int
	CityTier         string
	Workers          int

	// Tracing configuration
	TracingEnabled    bool
	OTLPEndpoint      string
	TracingSampleRate float64

	// Multi-instance configuration
	LeaderElectionEnabled bool
	InstanceID            string

	LegacyEnvWarnings []string
}

// Load reads .env (when present) and environment variables, applies
// defaults, and validates the result.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		Environment:     getEnvAny([]string{"PANCHANG_ENV", "ENV"}, "development"),
		HTTPBind:        getEnvAny([]string{"PANCHANG_HTTP_BIND"}, "0.0.0.0"),
		HTTPPort:        getEnvIntAny([]string{"PANCHANG_HTTP_PORT", "PORT"}, 8080),
		DefaultTimezone: getEnvAny([]string{"PANCHANG_DEFAULT_TZ", "DEFAULT_TZ"}, "Asia/Kolkata"),
		Ayanamsa:        strings.ToLower(getEnvAny([]string{"PANCHANG_AYANAMSA"}, "lahiri")),
		LookupTimeout:   getEnvDurationAny([]string{"PANCHANG_LOOKUP_TIMEOUT"}, 10*time.Second),
		JWTSigningKey:   getEnvAny([]string{"PANCHANG_JWT_SIGNING_KEY"}, ""),

		CacheBackend:    CacheBackend(strings.ToLower(getEnvAny([]string{"PANCHANG_CACHE_BACKEND"}, string(CacheRedis)))),
		RedisAddr:       getEnvAny([]string{"PANCHANG_REDIS_ADDR", "REDIS_ADDR"}, "localhost:6379"),
		RedisPassword:   getEnvAny([]string{"PANCHANG_REDIS_PASSWORD", "REDIS_PASSWORD"}, ""),
		RedisDB:         getEnvIntAny([]string{"PANCHANG_REDIS_DB", "REDIS_DB"}, 0),
		CacheKeyPrefix:  getEnvAny([]string{"PANCHANG_CACHE_PREFIX"}, ""),
		CacheRetryAfter: getEnvDurationAny([]string{"PANCHANG_CACHE_RETRY_AFTER"}, 30*time.Second),
		PanchangamTTL:   getEnvDurationAny([]string{"PANCHANG_PANCHANGAM_TTL"}, 7*24*time.Hour),
		FestivalTTL:     getEnvDurationAny([]string{"PANCHANG_FESTIVAL_TTL"}, 30*24*time.Hour),
		MuhurthamTTL:    getEnvDurationAny([]string{"PANCHANG_MUHURTHAM_TTL"}, 7*24*time.Hour),
		SummaryTTL:      getEnvDurationAny([]string{"PANCHANG_SUMMARY_TTL"}, 24*time.Hour),

		DBBackend:        DatabaseBackend(strings.ToLower(getEnvAny([]string{"PANCHANG_DB_BACKEND"}, string(DatabaseNone)))),
		DBDSN:            getEnvAny([]string{"PANCHANG_DB_DSN"}, ""),
		ArchiveSink:      ArchiveSink(strings.ToLower(getEnvAny([]string{"PANCHANG_ARCHIVE_SINK"}, string(ArchiveNone)))),
		ArchiveQueueSize: getEnvIntAny([]string{"PANCHANG_ARCHIVE_QUEUE"}, 1024),

		S3AccessKeyID:     getEnvAny([]string{"PANCHANG_S3_ACCESS_KEY_ID", "AWS_ACCESS_KEY_ID"}, ""),
		S3SecretAccessKey: getEnvAny([]string{"PANCHANG_S3_SECRET_ACCESS_KEY", "AWS_SECRET_ACCESS_KEY"}, ""),
		S3Region:          getEnvAny([]string{"PANCHANG_S3_REGION", "AWS_REGION"}, "us-east-1"),
		S3Bucket:          getEnvAny([]string{"PANCHANG_S3_BUCKET", "S3_BUCKET"}, ""),
		S3Endpoint:        getEnvAny([]string{"PANCHANG_S3_ENDPOINT", "S3_ENDPOINT"}, ""),
		S3Prefix:          getEnvAny([]string{"PANCHANG_S3_PREFIX"}, "archive/"),
		S3UsePathStyle:    getEnvBoolAny([]string{"PANCHANG_S3_USE_PATH_STYLE", "S3_USE_PATH_STYLE"}, false),

		NATSURL:     getEnvAny([]string{"PANCHANG_NATS_URL", "NATS_URL"}, ""),
		NATSSubject: getEnvAny([]string{"PANCHANG_NATS_SUBJECT"}, "panchangd"),

		SchedulerEnabled: getEnvBoolAny([]string{"PANCHANG_SCHED_ENABLED"}, false),
		PrecomputeTime:   getEnvAny([]string{"PANCHANG_PRECOMPUTE_TIME", "PRECOMPUTE_TIME"}, "02:30"),
		PrecomputeTZ:     getEnvAny([]string{"PANCHANG_PRECOMPUTE_TZ"}, "Asia/Kolkata"),
		PrecomputeDays:   getEnvIntAny([]string{"PANCHANG_PRECOMPUTE_DAYS", "PRECOMPUTE_DAYS"}, 30),
		CityTier:         strings.ToUpper(getEnvAny([]string{"PANCHANG_CITY_TIER", "CITY_TIER"}, "IN_TOP50")),
		Workers:          getEnvIntAny([]string{"PANCHANG_WORKERS"}, 4),

		TracingEnabled:    getEnvBoolAny([]string{"PANCHANG_TRACING_ENABLED"}, false),
		OTLPEndpoint:      getEnvAny([]string{"PANCHANG_OTLP_ENDPOINT"}, "localhost:4317"),
		TracingSampleRate: getEnvFloatAny([]string{"PANCHANG_TRACING_SAMPLE_RATE"}, 1.0),

		LeaderElectionEnabled: getEnvBoolAny([]string{"PANCHANG_LEADER_ELECTION_ENABLED"}, false),
		InstanceID:            getEnvAny([]string{"PANCHANG_INSTANCE_ID"}, ""),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	cfg.LegacyEnvWarnings = detectLegacyEnvWarnings()

	return cfg, nil
}

// Validate checks enum values and cross-field requirements.
func (c *Config) Validate() error {
	switch c.CacheBackend {
	case CacheRedis, CacheMemory:
	default:
		return fmt.Errorf("unsupported cache backend %q", c.CacheBackend)
	}

	switch c.DBBackend {
	case DatabasePostgres, DatabaseMySQL, DatabaseSQLite, DatabaseNone:
	default:
		return fmt.Errorf("unsupported database backend %q", c.DBBackend)
	}
	if c.DBBackend != DatabaseNone && c.DBDSN == "" {
		return fmt.Errorf("PANCHANG_DB_DSN must be provided for database backend %s", c.DBBackend)
	}

	switch c.ArchiveSink {
	case ArchiveNone, ArchiveS3:
	case ArchiveDB:
		if c.DBBackend == DatabaseNone {
			return fmt.Errorf("archive sink db requires PANCHANG_DB_BACKEND")
		}
	default:
		return fmt.Errorf("unsupported archive sink %q", c.ArchiveSink)
	}
	if c.ArchiveSink == ArchiveS3 && c.S3Bucket == "" {
		return fmt.Errorf("PANCHANG_S3_BUCKET must be provided for archive sink s3")
	}

	if c.Ayanamsa != "lahiri" && c.Ayanamsa != "tropical" {
		return fmt.Errorf("unsupported ayanamsa %q", c.Ayanamsa)
	}
	if _, err := time.LoadLocation(c.DefaultTimezone); err != nil {
		return fmt.Errorf("invalid PANCHANG_DEFAULT_TZ %q: %w", c.DefaultTimezone, err)
	}
	if _, err := time.LoadLocation(c.PrecomputeTZ); err != nil {
		return fmt.Errorf("invalid PANCHANG_PRECOMPUTE_TZ %q: %w", c.PrecomputeTZ, err)
	}
	if _, _, err := ParseClock(c.PrecomputeTime); err != nil {
		return fmt.Errorf("invalid PANCHANG_PRECOMPUTE_TIME: %w", err)
	}
	if !knownTier(c.CityTier) {
		return fmt.Errorf("unsupported city tier %q (want one of %s)", c.CityTier, strings.Join(CityTiers, ", "))
	}
	if c.PrecomputeDays < 1 {
		return fmt.Errorf("PANCHANG_PRECOMPUTE_DAYS must be positive, got %d", c.PrecomputeDays)
	}
	if c.Workers < 1 {
		return fmt.Errorf("PANCHANG_WORKERS must be positive, got %d", c.Workers)
	}
	if c.LookupTimeout <= 0 {
		return fmt.Errorf("PANCHANG_LOOKUP_TIMEOUT must be positive")
	}

	if strings.EqualFold(c.Environment, "production") && c.JWTSigningKey == "" {
		return fmt.Errorf("PANCHANG_JWT_SIGNING_KEY must be provided in production")
	}
	return nil
}

// ParseClock parses a 24-hour HH:MM time of day.
func ParseClock(s string) (hour, minute int, err error) {
	t, err := time.Parse("15:04", strings.TrimSpace(s))
	if err != nil {
		return 0, 0, fmt.Errorf("time of day %q is not HH:MM", s)
	}
	return t.Hour(), t.Minute(), nil
}

func knownTier(tier string) bool {
	for _, t := range CityTiers {
		if t == tier {
			return true
		}
	}
	return false
}

func detectLegacyEnvWarnings() []string {
	legacy := map[string]string{
		"REDIS_URL":     "use PANCHANG_REDIS_ADDR (host:port) with PANCHANG_REDIS_PASSWORD and PANCHANG_REDIS_DB",
		"DATABASE_URL":  "use PANCHANG_DB_BACKEND and PANCHANG_DB_DSN",
		"SCHED_ENABLED": "use PANCHANG_SCHED_ENABLED",
	}

	warnings := make([]string, 0, len(legacy))
	for key, recommendation := range legacy {
		if os.Getenv(key) != "" {
			warnings = append(warnings, fmt.Sprintf("legacy env key %s is set; %s", key, recommendation))
		}
	}
	sort.Strings(warnings)
	return warnings
}

// HTTPAddr returns the listen address.
func (c *Config) HTTPAddr() string {
	return fmt.Sprintf("%s:%d", c.HTTPBind, c.HTTPPort)
}

// getEnvAny returns the first non-empty environment variable value from keys, or def if none set.
func getEnvAny(keys []string, def string) string {
	for _, k := range keys {
		if v := os.Getenv(k); v != "" {
			return v
		}
	}
	return def
}

// getEnvIntAny returns the first set integer environment variable value from keys, or def.
func getEnvIntAny(keys []string, def int) int {
	for _, k := range keys {
		if v := os.Getenv(k); v != "" {
			if parsed, err := strconv.Atoi(v); err == nil {
				return parsed
			}
		}
	}
	return def
}

// getEnvBoolAny returns the first set boolean environment variable value from keys, or def.
func getEnvBoolAny(keys []string, def bool) bool {
	for _, k := range keys {
		if v := os.Getenv(k); v != "" {
			v = strings.ToLower(strings.TrimSpace(v))
			if v == "true" || v == "1" || v == "yes" {
				return true
			}
			if v == "false" || v == "0" || v == "no" {
				return false
			}
		}
	}
	return def
}

// getEnvFloatAny returns the first set float environment variable value from keys, or def.
func getEnvFloatAny(keys []string, def float64) float64 {
	for _, k := range keys {
		if v := os.Getenv(k); v != "" {
			if parsed, err := strconv.ParseFloat(v, 64); err == nil {
				return parsed
			}
		}
	}
	return def
}

// getEnvDurationAny returns the first set duration from keys, or def. Bare
// integers are read as seconds.
func getEnvDurationAny(keys []string, def time.Duration) time.Duration {
	for _, k := range keys {
		v := strings.TrimSpace(os.Getenv(k))
		if v == "" {
			continue
		}
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
		if secs, err := strconv.Atoi(v); err == nil {
			return time.Duration(secs) * time.Second
		}
	}
	return def
}
