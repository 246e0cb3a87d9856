/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package archive

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/friendsincode/panchangam/internal/models"
)

// DBSink writes records to the archived_records table. Records sharing a
// cache key replace each other.
type DBSink struct {
	db *gorm.DB
}

// NewDBSink returns a sink over a migrated database.
func NewDBSink(db *gorm.DB) *DBSink {
	return &DBSink{db: db}
}

// Name implements Sink.
func (s *DBSink) Name() string { return "db" }

// Write implements Sink.
func (s *DBSink) Write(ctx context.Context, records []Record) error {
	// The last record for a key wins; Postgres rejects a batch that
	// upserts the same key twice.
	latest := make(map[string]int, len(records))
	rows := make([]models.ArchivedRecord, 0, len(records))
	for _, r := range records {
		if i, ok := latest[r.CacheKey]; ok {
			rows[i].Payload = string(r.Payload)
			rows[i].CreatedAt = r.At
			continue
		}
		latest[r.CacheKey] = len(rows)
		rows = append(rows, models.ArchivedRecord{
			ID:        uuid.NewString(),
			Kind:      r.Kind,
			Location:  r.Location,
			Period:    r.Period,
			Region:    r.Region,
			CacheKey:  r.CacheKey,
			Payload:   string(r.Payload),
			CreatedAt: r.At,
		})
	}

	err := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "cache_key"}},
		DoUpdates: clause.AssignmentColumns([]string{"payload", "created_at"}),
	}).Create(&rows).Error
	if err != nil {
		return fmt.Errorf("insert archived records: %w", err)
	}
	return nil
}

// Query selects archived records.
type Query struct {
	Kind     string
	Location string
	From, To string // inclusive period bounds; empty means open
	Limit    int
}

// Find returns records matching q ordered by period.
func (s *DBSink) Find(ctx context.Context, q Query) ([]models.ArchivedRecord, error) {
	tx := s.db.WithContext(ctx).Model(&models.ArchivedRecord{})
	if q.Kind != "" {
		tx = tx.Where("kind = ?", q.Kind)
	}
	if q.Location != "" {
		tx = tx.Where("location = ?", q.Location)
	}
	if q.From != "" {
		tx = tx.Where("period >= ?", q.From)
	}
	if q.To != "" {
		tx = tx.Where("period <= ?", q.To)
	}
	limit := q.Limit
	if limit <= 0 || limit > 1000 {
		limit = 1000
	}

	var out []models.ArchivedRecord
	if err := tx.Order("period ASC").Limit(limit).Find(&out).Error; err != nil {
		return nil, fmt.Errorf("query archived records: %w", err)
	}
	return out, nil
}

// SaveRun persists a precompute run summary.
func (s *DBSink) SaveRun(ctx context.Context, run *models.PrecomputeRun) error {
	return s.db.WithContext(ctx).Save(run).Error
}

// Runs returns the most recent precompute runs, newest first.
func (s *DBSink) Runs(ctx context.Context, limit int) ([]models.PrecomputeRun, error) {
	if limit <= 0 {
		limit = 20
	}
	var out []models.PrecomputeRun
	err := s.db.WithContext(ctx).Order("started_at DESC").Limit(limit).Find(&out).Error
	return out, err
}
