// AeroPacer - Running Activity Tracking and Coaching API
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/aeropacer


package main

import (
	"context"
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/tomtom215/aeropacer/internal/config"
	"github.com/tomtom215/aeropacer/internal/database"
	"github.com/tomtom215/aeropacer/internal/logging"
	"github.com/tomtom215/aeropacer/internal/models"
)

// Migration modes accepted by -migrate.
const (
	migrateUp     = "up"
	migrateDown   = "down"
	migrateStatus = "status"
)

type migrator interface {
	Migrate(ctx context.Context) (int, error)
	Rollback(ctx context.Context) (*models.Migration, error)
	Status(ctx context.Context) ([]database.MigrationStatus, error)
}

func validMigrateMode(mode string) bool {
	switch mode {
	case migrateUp, migrateDown, migrateStatus:
		return true
	}
	return false
}

// migrateOnly opens the database, runs one migration command and returns
// without starting any services.
func migrateOnly(ctx context.Context, cfg *config.Config, mode string, out io.Writer) error {
	db, err := database.Open(ctx, &cfg.Database)
	if err != nil {
		return err
	}
	defer func() {
		if err := db.Close(); err != nil {
			logging.Warn().Err(err).Msg("Error closing database")
		}
	}()
	return runMigrations(ctx, db, mode, out)
}

func runMigrations(ctx context.Context, m migrator, mode string, out io.Writer) error {
	switch mode {
	case migrateUp:
		applied, err := m.Migrate(ctx)
		if err != nil {
			return fmt.Errorf("migrate up: %w", err)
		}
		_, err = fmt.Fprintf(out, "applied %d migration(s)\n", applied)
		return err

	case migrateDown:
		reverted, err := m.Rollback(ctx)
		if err != nil {
			return fmt.Errorf("migrate down: %w", err)
		}
		if reverted == nil {
			_, err = fmt.Fprintln(out, "no applied migrations")
			return err
		}
		_, err = fmt.Fprintf(out, "reverted %d %s\n", reverted.Timestamp, reverted.Name)
		return err

	case migrateStatus:
		list, err := m.Status(ctx)
		if err != nil {
			return fmt.Errorf("migrate status: %w", err)
		}
		tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
		fmt.Fprintln(tw, "TIMESTAMP\tNAME\tAPPLIED\tAPPLIED AT")
		for _, s := range list {
			appliedAt := "-"
			if s.AppliedAt != nil {
				appliedAt = s.AppliedAt.UTC().Format(time.RFC3339)
			}
			fmt.Fprintf(tw, "%d\t%s\t%t\t%s\n", s.Timestamp, s.Name, s.Applied, appliedAt)
		}
		return tw.Flush()

	default:
		return fmt.Errorf("unknown migrate mode %q (want up, down or status)", mode)
	}
}
