// Package domain defines the core persistence models for the application.
// These types are used by GORM for database schema mapping and are shared
// across the repository and service layers.
package domain

import "time"

// Idempotency stores the response of a completed request keyed by
// (scope, key), so a retried request with the same Idempotency-Key is
// answered from the record instead of re-running its side effects.
type Idempotency struct {
	ID          string    `gorm:"type:char(36);primaryKey"`
	Scope       string    `gorm:"type:varchar(128);not null;uniqueIndex:ux_idem_scope_key,priority:1"`
	Key         string    `gorm:"type:varchar(200);not null;uniqueIndex:ux_idem_scope_key,priority:2"`
	Status      int       `gorm:"not null"`
	ContentType string    `gorm:"type:varchar(128);not null;default:''"`
	Body        []byte    `gorm:"not null"`
	CreatedAt   time.Time `gorm:"not null"`
	ExpiresAt   time.Time `gorm:"not null;index"`
}

// TableName implements the GORM tabler interface.
func (Idempotency) TableName() string { return "idempotency" }
