// AeroPacer - Running Activity Tracking and Coaching API
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/aeropacer

package database

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/tomtom215/aeropacer/internal/logging"
	"github.com/tomtom215/aeropacer/internal/metrics"
	"github.com/tomtom215/aeropacer/internal/models"
)

// Migration is a named, timestamped schema change.
//
// Timestamps are YYYYMMDDHHMMSS and must be strictly increasing. Migrations are
// append-only: once released, never edit or reorder an entry.
type Migration struct {
	Timestamp int64
	Name      string
	Up        string
	Down      string
}

// MigrationStatus reports whether a known migration has been applied.
type MigrationStatus struct {
	Timestamp int64      `json:"timestamp"`
	Name      string     `json:"name"`
	Applied   bool       `json:"applied"`
	AppliedAt *time.Time `json:"applied_at,omitempty"`
}

// migrationsTable creates the migration tracking table
const migrationsTable = `
CREATE TABLE IF NOT EXISTS migrations (
	id SERIAL PRIMARY KEY,
	timestamp BIGINT NOT NULL,
	name VARCHAR(255) NOT NULL UNIQUE,
	applied_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);
`

// migrationLockKey is the pg_advisory_xact_lock key held while a migration runs.
const migrationLockKey = 0x61657270 // "aerp"

// validateMigrations checks ordering and naming before anything is executed.
func validateMigrations(list []Migration) error {
	seen := make(map[string]bool, len(list))
	var prev int64
	for i, m := range list {
		if m.Name == "" {
			return fmt.Errorf("migration %d has no name", i)
		}
		if seen[m.Name] {
			return fmt.Errorf("duplicate migration name %q", m.Name)
		}
		seen[m.Name] = true
		if m.Timestamp <= prev {
			return fmt.Errorf("migration %q timestamp %d is not after %d", m.Name, m.Timestamp, prev)
		}
		prev = m.Timestamp
		if m.Up == "" {
			return fmt.Errorf("migration %q has no up SQL", m.Name)
		}
	}
	return nil
}

// Migrate applies all pending migrations in order and returns how many ran.
func (db *DB) Migrate(ctx context.Context) (int, error) {
	return db.migrate(ctx, schemaMigrations)
}

func (db *DB) migrate(ctx context.Context, list []Migration) (int, error) {
	if err := validateMigrations(list); err != nil {
		return 0, fmt.Errorf("invalid migrations: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, 5*time.Minute)
	defer cancel()

	gdb := db.gorm.WithContext(ctx)
	if err := gdb.Exec(migrationsTable).Error; err != nil {
		return 0, fmt.Errorf("failed to create migrations table: %w", err)
	}

	applied := 0
	for _, m := range list {
		ran, err := applyMigration(gdb, m)
		if err != nil {
			return applied, err
		}
		if ran {
			applied++
			logging.Info().Int64("timestamp", m.Timestamp).Str("name", m.Name).Msg("Applied migration")
		}
	}

	if err := db.refreshMigrationGauge(ctx); err != nil {
		logging.Warn().Err(err).Msg("Failed to count applied migrations")
	}
	if applied > 0 {
		logging.Info().Int("count", applied).Msg("Database migrations complete")
	}
	return applied, nil
}

// applyMigration runs one migration and records it in a single transaction.
// It reports false when another process already applied it.
func applyMigration(gdb *gorm.DB, m Migration) (bool, error) {
	ran := false
	err := gdb.Transaction(func(tx *gorm.DB) error {
		if err := tx.Exec("SELECT pg_advisory_xact_lock(?)", migrationLockKey).Error; err != nil {
			return fmt.Errorf("failed to acquire migration lock: %w", err)
		}

		var count int64
		if err := tx.Model(&models.Migration{}).Where("name = ?", m.Name).Count(&count).Error; err != nil {
			return fmt.Errorf("failed to check migration %s: %w", m.Name, err)
		}
		if count > 0 {
			return nil
		}

		if err := tx.Exec(m.Up).Error; err != nil {
			return fmt.Errorf("failed to execute migration %d_%s: %w", m.Timestamp, m.Name, err)
		}
		row := models.Migration{Timestamp: m.Timestamp, Name: m.Name, AppliedAt: time.Now().UTC()}
		if err := tx.Create(&row).Error; err != nil {
			return fmt.Errorf("failed to record migration %s: %w", m.Name, err)
		}
		ran = true
		return nil
	})
	return ran, err
}

// Rollback reverts the most recently applied migration. It returns nil when
// nothing has been applied.
func (db *DB) Rollback(ctx context.Context) (*models.Migration, error) {
	return db.rollback(ctx, schemaMigrations)
}

func (db *DB) rollback(ctx context.Context, list []Migration) (*models.Migration, error) {
	byName := make(map[string]Migration, len(list))
	for _, m := range list {
		byName[m.Name] = m
	}

	var reverted *models.Migration
	err := db.Transaction(ctx, func(tx *gorm.DB) error {
		if err := tx.Exec("SELECT pg_advisory_xact_lock(?)", migrationLockKey).Error; err != nil {
			return fmt.Errorf("failed to acquire migration lock: %w", err)
		}

		var last models.Migration
		res := tx.Order("timestamp DESC").Limit(1).Find(&last)
		if res.Error != nil {
			return fmt.Errorf("failed to read latest migration: %w", res.Error)
		}
		if res.RowsAffected == 0 {
			return nil
		}

		m, ok := byName[last.Name]
		if !ok {
			return fmt.Errorf("applied migration %q is not known to this binary", last.Name)
		}
		if m.Down == "" {
			return fmt.Errorf("migration %q is irreversible", m.Name)
		}
		if err := tx.Exec(m.Down).Error; err != nil {
			return fmt.Errorf("failed to revert migration %s: %w", m.Name, err)
		}
		if err := tx.Delete(&models.Migration{}, last.ID).Error; err != nil {
			return fmt.Errorf("failed to remove migration record %s: %w", m.Name, err)
		}
		reverted = &last
		return nil
	})
	if err != nil {
		return nil, err
	}

	if reverted != nil {
		logging.Warn().Int64("timestamp", reverted.Timestamp).Str("name", reverted.Name).Msg("Rolled back migration")
		if err := db.refreshMigrationGauge(ctx); err != nil {
			logging.Warn().Err(err).Msg("Failed to count applied migrations")
		}
	}
	return reverted, nil
}

// Status lists every known migration with its applied state.
func (db *DB) Status(ctx context.Context) ([]MigrationStatus, error) {
	return db.status(ctx, schemaMigrations)
}

func (db *DB) status(ctx context.Context, list []Migration) ([]MigrationStatus, error) {
	gdb, cancel := db.session(ctx)
	defer cancel()

	if err := gdb.Exec(migrationsTable).Error; err != nil {
		return nil, fmt.Errorf("failed to create migrations table: %w", err)
	}

	var rows []models.Migration
	if err := gdb.Order("timestamp").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to query applied migrations: %w", err)
	}
	return mergeStatus(list, rows), nil
}

// mergeStatus joins known migrations with applied rows.
func mergeStatus(list []Migration, applied []models.Migration) []MigrationStatus {
	byName := make(map[string]models.Migration, len(applied))
	for _, row := range applied {
		byName[row.Name] = row
	}

	out := make([]MigrationStatus, 0, len(list))
	for _, m := range list {
		st := MigrationStatus{Timestamp: m.Timestamp, Name: m.Name}
		if row, ok := byName[m.Name]; ok {
			at := row.AppliedAt
			st.Applied = true
			st.AppliedAt = &at
		}
		out = append(out, st)
	}
	return out
}

func (db *DB) refreshMigrationGauge(ctx context.Context) error {
	var count int64
	if err := db.gorm.WithContext(ctx).Model(&models.Migration{}).Count(&count).Error; err != nil {
		return err
	}
	metrics.DBMigrationsApplied.Set(float64(count))
	return nil
}
