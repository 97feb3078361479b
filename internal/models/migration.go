// AeroPacer - Running Activity Tracking and Coaching API
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/aeropacer

package models

import "time"

// Migration records an applied schema migration.
type Migration struct {
	ID        int       `gorm:"primaryKey;autoIncrement" json:"id"`
	Timestamp int64     `gorm:"not null" json:"timestamp"`
	Name      string    `gorm:"size:255;not null;uniqueIndex" json:"name"`
	AppliedAt time.Time `gorm:"not null" json:"applied_at"`
}

// TableName pins the table name independent of gorm naming strategy.
func (Migration) TableName() string { return "migrations" }
