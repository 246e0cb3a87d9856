/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

// Package archive keeps computed results for later query. Writes are queued
// and drained in the background; a slow or failing sink never delays the
// lookup that produced the record.
package archive

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/friendsincode/panchangam/internal/telemetry"
)

// Record kinds.
const (
	KindPanchangam = "panchangam"
	KindFestivals  = "festivals"
	KindMuhurtham  = "muhurtham"
)

// Record is one archived result.
type Record struct {
	Kind     string
	CacheKey string
	Location string // canonical location identity
	Period   string // YYYY-MM-DD, YYYY-MM or YYYY
	Region   string
	Payload  json.RawMessage
	At       time.Time
}

// NewRecord encodes payload into a Record.
func NewRecord(kind, cacheKey, location, period, region string, payload any) (Record, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return Record{}, fmt.Errorf("marshal %s record: %w", kind, err)
	}
	return Record{
		Kind:     kind,
		CacheKey: cacheKey,
		Location: location,
		Period:   period,
		Region:   region,
		Payload:  data,
		At:       time.Now().UTC(),
	}, nil
}

// Sink persists batches of records.
type Sink interface {
	Name() string
	Write(ctx context.Context, records []Record) error
}

// Archiver accepts records without blocking.
type Archiver interface {
	Enqueue(rec Record) bool
}

// Discard is an Archiver that drops everything.
type Discard struct{}

// Enqueue implements Archiver.
func (Discard) Enqueue(Record) bool { return true }

// WriterConfig tunes the background writer.
type WriterConfig struct {
	QueueSize     int
	BatchSize     int
	FlushInterval time.Duration
	WriteTimeout  time.Duration
}

// DefaultWriterConfig returns sensible writer defaults.
func DefaultWriterConfig() WriterConfig {
	return WriterConfig{
		QueueSize:     1024,
		BatchSize:     64,
		FlushInterval: 2 * time.Second,
		WriteTimeout:  10 * time.Second,
	}
}

// Writer buffers records in a bounded queue and flushes them to a Sink in
// batches. When the queue is full new records are dropped.
type Writer struct {
	sink   Sink
	cfg    WriterConfig
	logger zerolog.Logger
	queue  chan Record

	closeOnce sync.Once
	done      chan struct{}
}

// NewWriter returns a Writer over sink. Call Run to start draining.
func NewWriter(sink Sink, cfg WriterConfig, logger zerolog.Logger) *Writer {
	def := DefaultWriterConfig()
	if cfg.QueueSize <= 0 {
		cfg.QueueSize = def.QueueSize
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = def.BatchSize
	}
	if cfg.FlushInterval <= 0 {
		cfg.FlushInterval = def.FlushInterval
	}
	if cfg.WriteTimeout <= 0 {
		cfg.WriteTimeout = def.WriteTimeout
	}
	return &Writer{
		sink:   sink,
		cfg:    cfg,
		logger: logger.With().Str("component", "archive").Str("sink", sink.Name()).Logger(),
		queue:  make(chan Record, cfg.QueueSize),
		done:   make(chan struct{}),
	}
}

// Enqueue implements Archiver. It returns false if the record was dropped.
func (w *Writer) Enqueue(rec Record) bool {
	select {
	case w.queue <- rec:
		telemetry.ArchiveQueueDepth.Set(float64(len(w.queue)))
		return true
	default:
		telemetry.ArchiveWrites.WithLabelValues(w.sink.Name(), "dropped").Inc()
		w.logger.Warn().Str("kind", rec.Kind).Str("key", rec.CacheKey).Msg("archive queue full, dropping record")
		return false
	}
}

// Run drains the queue until ctx is cancelled, then flushes what is left.
func (w *Writer) Run(ctx context.Context) {
	defer w.closeOnce.Do(func() { close(w.done) })

	ticker := time.NewTicker(w.cfg.FlushInterval)
	defer ticker.Stop()

	batch := make([]Record, 0, w.cfg.BatchSize)
	for {
		select {
		case <-ctx.Done():
			batch = w.drain(batch)
			w.flush(batch)
			return
		case rec := <-w.queue:
			batch = append(batch, rec)
			if len(batch) >= w.cfg.BatchSize {
				w.flush(batch)
				batch = batch[:0]
			}
		case <-ticker.C:
			if len(batch) > 0 {
				w.flush(batch)
				batch = batch[:0]
			}
		}
		telemetry.ArchiveQueueDepth.Set(float64(len(w.queue)))
	}
}

// Done is closed when Run has returned.
func (w *Writer) Done() <-chan struct{} {
	return w.done
}

func (w *Writer) drain(batch []Record) []Record {
	for {
		select {
		case rec := <-w.queue:
			batch = append(batch, rec)
		default:
			return batch
		}
	}
}

func (w *Writer) flush(batch []Record) {
	if len(batch) == 0 {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), w.cfg.WriteTimeout)
	defer cancel()

	if err := w.sink.Write(ctx, batch); err != nil {
		telemetry.ArchiveWrites.WithLabelValues(w.sink.Name(), "error").Add(float64(len(batch)))
		w.logger.Warn().Err(err).Int("records", len(batch)).Msg("archive write failed")
		return
	}
	telemetry.ArchiveWrites.WithLabelValues(w.sink.Name(), "ok").Add(float64(len(batch)))
	w.logger.Debug().Int("records", len(batch)).Msg("archived records")
}
