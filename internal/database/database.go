// AeroPacer - Running Activity Tracking and Coaching API
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/aeropacer

package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/tomtom215/aeropacer/internal/config"
	"github.com/tomtom215/aeropacer/internal/logging"
	"github.com/tomtom215/aeropacer/internal/metrics"
)

// defaultQueryTimeout bounds queries whose context carries no deadline.
const defaultQueryTimeout = 30 * time.Second

// DB wraps the GORM handle and the underlying connection pool.
type DB struct {
	gorm *gorm.DB
	sql  *sql.DB
}

// Open connects to Postgres, applies pool limits and verifies the connection.
func Open(ctx context.Context, cfg *config.DatabaseConfig) (*DB, error) {
	gdb, err := gorm.Open(postgres.New(postgres.Config{DSN: cfg.DSN()}), &gorm.Config{
		Logger:                 logging.NewGormLogger(cfg.SlowQueryThreshold),
		NowFunc:                func() time.Time { return time.Now().UTC() },
		SkipDefaultTransaction: true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	sqlDB, err := gdb.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get connection pool: %w", err)
	}
	configureConnectionPool(sqlDB, cfg)

	db := &DB{gorm: gdb, sql: sqlDB}

	pingCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := db.Ping(pingCtx); err != nil {
		closeQuietly(sqlDB)
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	logging.Info().
		Int("max_open_conns", cfg.MaxOpenConns).
		Int("max_idle_conns", cfg.MaxIdleConns).
		Msg("Connected to Postgres")

	return db, nil
}

// configureConnectionPool applies pool limits from config.
func configureConnectionPool(sqlDB *sql.DB, cfg *config.DatabaseConfig) {
	if cfg.MaxOpenConns > 0 {
		sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	}
	if cfg.MaxIdleConns >= 0 {
		sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	}
	if cfg.ConnMaxLifetime > 0 {
		sqlDB.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	}
	sqlDB.SetConnMaxIdleTime(5 * time.Minute)
}

// Gorm returns the underlying GORM handle.
func (db *DB) Gorm() *gorm.DB {
	return db.gorm
}

// Ping verifies the connection and refreshes the pool gauge.
func (db *DB) Ping(ctx context.Context) error {
	err := db.sql.PingContext(ctx)
	metrics.DBOpenConnections.Set(float64(db.sql.Stats().OpenConnections))
	return err
}

// Close closes the connection pool.
func (db *DB) Close() error {
	return db.sql.Close()
}

// Transaction runs fn inside a database transaction.
func (db *DB) Transaction(ctx context.Context, fn func(tx *gorm.DB) error) error {
	ctx, cancel := ensureContext(ctx)
	defer cancel()
	return db.gorm.WithContext(ctx).Transaction(fn)
}

// session returns a context-bound GORM session with a default deadline.
func (db *DB) session(ctx context.Context) (*gorm.DB, context.CancelFunc) {
	ctx, cancel := ensureContext(ctx)
	return db.gorm.WithContext(ctx), cancel
}

// ensureContext adds defaultQueryTimeout when ctx has no deadline.
func ensureContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if ctx == nil {
		ctx = context.Background()
	}
	if _, ok := ctx.Deadline(); ok {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, defaultQueryTimeout)
}

// observe records the timing of one repository call.
func observe(operation, table string, start time.Time, err error) {
	if errors.Is(err, ErrNotFound) {
		err = nil
	}
	metrics.RecordDBQuery(operation, table, time.Since(start), err)
}
