/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

// Package models holds the archive database schema.
package models

import "time"

// ArchivedRecord is one computed result kept for later query. CacheKey is
// the cache key it was served under, so re-archiving the same result
// replaces the previous row.
type ArchivedRecord struct {
	ID        string    `gorm:"type:varchar(36);primaryKey" json:"id"`
	Kind      string    `gorm:"type:varchar(32);index:idx_archive_lookup,priority:1" json:"kind"`
	Location  string    `gorm:"type:varchar(128);index:idx_archive_lookup,priority:2" json:"location"`
	Period    string    `gorm:"type:varchar(16);index:idx_archive_lookup,priority:3" json:"period"`
	Region    string    `gorm:"type:varchar(16)" json:"region,omitempty"`
	CacheKey  string    `gorm:"type:varchar(255);uniqueIndex" json:"cache_key"`
	Payload   string    `gorm:"type:text" json:"payload"`
	CreatedAt time.Time `json:"created_at"`
}

// TableName pins the table name.
func (ArchivedRecord) TableName() string {
	return "archived_records"
}

// PrecomputeRun is the persisted summary of one precompute run.
type PrecomputeRun struct {
	ID         string    `gorm:"type:varchar(36);primaryKey" json:"id"`
	Tier       string    `gorm:"type:varchar(16)" json:"tier"`
	Days       int       `json:"days"`
	Cities     int       `json:"cities"`
	Attempted  int       `json:"attempted"`
	Succeeded  int       `json:"succeeded"`
	Failed     int       `json:"failed"`
	Skipped    int       `json:"skipped"`
	Cancelled  bool      `json:"cancelled"`
	StartedAt  time.Time `gorm:"index" json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`
}
