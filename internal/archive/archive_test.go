/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package archive

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/friendsincode/panchangam/internal/db"
	"github.com/friendsincode/panchangam/internal/models"
)

type recordingSink struct {
	mu      sync.Mutex
	batches [][]Record
	block   chan struct{}
	err     error
}

func (s *recordingSink) Name() string { return "test" }

func (s *recordingSink) Write(ctx context.Context, records []Record) error {
	if s.block != nil {
		<-s.block
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.batches = append(s.batches, append([]Record(nil), records...))
	return s.err
}

func (s *recordingSink) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, b := range s.batches {
		n += len(b)
	}
	return n
}

func mustRecord(t *testing.T, key, period string) Record {
	t.Helper()
	rec, err := NewRecord(KindPanchangam, key, "13.0827,80.2707,Asia/Kolkata", period, "", map[string]string{"period": period})
	if err != nil {
		t.Fatalf("NewRecord: %v", err)
	}
	return rec
}

func TestWriterFlushesOnShutdown(t *testing.T) {
	sink := &recordingSink{}
	w := NewWriter(sink, WriterConfig{BatchSize: 100, FlushInterval: time.Hour}, zerolog.Nop())

	ctx, cancel := context.WithCancel(context.Background())
	go w.Run(ctx)

	for i, p := range []string{"2024-01-01", "2024-01-02", "2024-01-03"} {
		if !w.Enqueue(mustRecord(t, p, p)) {
			t.Fatalf("record %d dropped", i)
		}
	}
	cancel()
	<-w.Done()

	if got := sink.count(); got != 3 {
		t.Errorf("archived %d records, want 3", got)
	}
}

func TestWriterBatches(t *testing.T) {
	sink := &recordingSink{}
	w := NewWriter(sink, WriterConfig{BatchSize: 2, FlushInterval: time.Hour}, zerolog.Nop())

	ctx, cancel := context.WithCancel(context.Background())
	go w.Run(ctx)
	for _, p := range []string{"a", "b", "c", "d"} {
		w.Enqueue(mustRecord(t, p, p))
	}

	deadline := time.Now().Add(2 * time.Second)
	for sink.count() < 4 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	cancel()
	<-w.Done()

	sink.mu.Lock()
	defer sink.mu.Unlock()
	if len(sink.batches) != 2 {
		t.Errorf("batches = %d, want 2", len(sink.batches))
	}
}

func TestEnqueueNeverBlocks(t *testing.T) {
	sink := &recordingSink{block: make(chan struct{})}
	w := NewWriter(sink, WriterConfig{QueueSize: 2, BatchSize: 1, FlushInterval: time.Hour}, zerolog.Nop())

	ctx, cancel := context.WithCancel(context.Background())
	go w.Run(ctx)

	// The first record reaches the blocked sink; two fill the queue.
	w.Enqueue(mustRecord(t, "held", "held"))
	deadline := time.Now().Add(2 * time.Second)
	for len(w.queue) != 0 && time.Now().Before(deadline) {
		time.Sleep(time.Millisecond)
	}
	w.Enqueue(mustRecord(t, "q1", "q1"))
	w.Enqueue(mustRecord(t, "q2", "q2"))

	done := make(chan bool)
	go func() { done <- w.Enqueue(mustRecord(t, "overflow", "overflow")) }()
	select {
	case ok := <-done:
		if ok {
			t.Error("overflow record should be dropped")
		}
	case <-time.After(time.Second):
		t.Fatal("Enqueue blocked on a full queue")
	}

	close(sink.block)
	cancel()
	<-w.Done()
}

func TestWriterSurvivesSinkErrors(t *testing.T) {
	sink := &recordingSink{err: errors.New("disk full")}
	w := NewWriter(sink, WriterConfig{BatchSize: 1, FlushInterval: time.Hour}, zerolog.Nop())

	ctx, cancel := context.WithCancel(context.Background())
	go w.Run(ctx)
	w.Enqueue(mustRecord(t, "a", "a"))
	w.Enqueue(mustRecord(t, "b", "b"))
	cancel()
	<-w.Done()

	if sink.count() != 2 {
		t.Errorf("writer stopped after an error: %d writes", sink.count())
	}
}

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	database, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	sqlDB, _ := database.DB()
	sqlDB.SetMaxOpenConns(1)
	if err := db.Migrate(database); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	t.Cleanup(func() { _ = sqlDB.Close() })
	return database
}

func TestDBSinkUpsertAndFind(t *testing.T) {
	sink := NewDBSink(newTestDB(t))
	ctx := context.Background()

	first := mustRecord(t, "panchangam:x:2024-03-08", "2024-03-08")
	second := mustRecord(t, "panchangam:x:2024-03-09", "2024-03-09")
	if err := sink.Write(ctx, []Record{first, second}); err != nil {
		t.Fatalf("Write: %v", err)
	}

	updated := first
	updated.Payload = []byte(`{"v":2}`)
	if err := sink.Write(ctx, []Record{updated, updated}); err != nil {
		t.Fatalf("Write upsert: %v", err)
	}

	all, err := sink.Find(ctx, Query{Kind: KindPanchangam})
	if err != nil {
		t.Fatalf("Find: %v", err)
	}
	if len(all) != 2 {
		t.Fatalf("Find returned %d rows, want 2", len(all))
	}
	if all[0].Period != "2024-03-08" || all[0].Payload != `{"v":2}` {
		t.Errorf("first row = %+v", all[0])
	}

	ranged, err := sink.Find(ctx, Query{Kind: KindPanchangam, From: "2024-03-09", To: "2024-03-31"})
	if err != nil || len(ranged) != 1 {
		t.Errorf("ranged Find = %d rows, %v", len(ranged), err)
	}
}

func TestDBSinkRuns(t *testing.T) {
	sink := NewDBSink(newTestDB(t))
	ctx := context.Background()
	base := time.Date(2024, 1, 1, 2, 30, 0, 0, time.UTC)

	for i, id := range []string{"r1", "r2"} {
		run := &models.PrecomputeRun{ID: id, Tier: "IN_TOP10", StartedAt: base.Add(time.Duration(i) * 24 * time.Hour)}
		if err := sink.SaveRun(ctx, run); err != nil {
			t.Fatalf("SaveRun: %v", err)
		}
	}
	runs, err := sink.Runs(ctx, 10)
	if err != nil {
		t.Fatalf("Runs: %v", err)
	}
	if len(runs) != 2 || runs[0].ID != "r2" {
		t.Errorf("Runs = %+v, want newest first", runs)
	}
}

type memObjects struct {
	mu   sync.Mutex
	objs map[string][]byte
	fail bool
}

func (m *memObjects) Put(_ context.Context, key string, data []byte, _ string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.fail {
		return errors.New("bucket gone")
	}
	m.objs[key] = data
	return nil
}

func (m *memObjects) Get(_ context.Context, key string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.objs[key], nil
}

func TestObjectSink(t *testing.T) {
	store := &memObjects{objs: map[string][]byte{}}
	sink := NewObjectSink(store, "archive/")

	fest, _ := NewRecord(KindFestivals, "festivals:13.0827,80.2707,Asia/Kolkata:TN:2024-03", "13.0827,80.2707,Asia/Kolkata", "2024-03", "TN", []string{"Maha Shivaratri"})
	muh, _ := NewRecord(KindMuhurtham, "muhurtham:13.0827,80.2707,Asia/Kolkata:2024-03-08:marriage", "13.0827,80.2707,Asia/Kolkata", "2024-03-08", "", nil)

	if err := sink.Write(context.Background(), []Record{fest, muh}); err != nil {
		t.Fatalf("Write: %v", err)
	}
	for _, key := range []string{
		"archive/festivals/13.0827_80.2707_Asia_Kolkata/2024-03_TN.json",
		"archive/muhurtham/13.0827_80.2707_Asia_Kolkata/2024-03-08_marriage.json",
	} {
		if _, ok := store.objs[key]; !ok {
			t.Errorf("missing object %s (have %v)", key, store.objs)
		}
	}

	store.fail = true
	if err := sink.Write(context.Background(), []Record{fest}); err == nil {
		t.Error("expected error from failing store")
	}
}
