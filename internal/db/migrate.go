/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package db

import (
	"github.com/friendsincode/panchangam/internal/models"
	"gorm.io/gorm"
)

// Migrate applies the archive schema using GORM auto-migrate.
func Migrate(database *gorm.DB) error {
	if err := database.AutoMigrate(
		&models.ArchivedRecord{},
		&models.PrecomputeRun{},
	); err != nil {
		return err
	}

	return applyPostgresPayloadType(database)
}

// applyPostgresPayloadType stores archived payloads as jsonb on Postgres so
// they can be queried in place. Other dialects keep text.
func applyPostgresPayloadType(database *gorm.DB) error {
	if database.Dialector.Name() != "postgres" {
		return nil
	}
	return database.Exec(
		"ALTER TABLE archived_records ALTER COLUMN payload TYPE jsonb USING payload::jsonb",
	).Error
}
