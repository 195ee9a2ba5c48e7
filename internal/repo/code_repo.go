// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides repository functions for the
// VerificationCode model.
//
// Single use is enforced by the delete, not by the read: ConsumeCode
// deletes only the generation (nonce) it read, so when two callers race on
// the same code exactly one observes RowsAffected == 1.
package repo

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/tbourn/orion-relay/internal/domain"
)

// UpsertCode stores code for gameAccountID with a fresh creation time and
// nonce, overwriting any existing row for the same code.
func UpsertCode(ctx context.Context, db *gorm.DB, code, gameAccountID string, now time.Time) (*domain.VerificationCode, error) {
	rec := &domain.VerificationCode{
		Code:          code,
		Nonce:         uuid.NewString(),
		GameAccountID: gameAccountID,
		CreatedAt:     now.UTC(),
	}
	err := db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "code"}},
		DoUpdates: clause.AssignmentColumns([]string{"nonce", "game_account_id", "created_at"}),
	}).Create(rec).Error
	if err != nil {
		return nil, err
	}
	return rec, nil
}

// GetCode fetches a code row, or ErrNotFound if missing.
func GetCode(ctx context.Context, db *gorm.DB, code string) (*domain.VerificationCode, error) {
	var rec domain.VerificationCode
	err := db.WithContext(ctx).Where("code = ?", code).First(&rec).Error
	if err != nil {
		return nil, err
	}
	return &rec, nil
}

// ConsumeCode deletes the row for code if it still carries nonce. It returns
// ErrNotFound when no row was deleted (already consumed or reissued).
func ConsumeCode(ctx context.Context, db *gorm.DB, code, nonce string) error {
	res := db.WithContext(ctx).
		Where("code = ? AND nonce = ?", code, nonce).
		Delete(&domain.VerificationCode{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// DeleteCodesForAccount removes every outstanding code pointing at
// gameAccountID and returns how many were removed.
func DeleteCodesForAccount(ctx context.Context, db *gorm.DB, gameAccountID string) (int64, error) {
	res := db.WithContext(ctx).
		Where("game_account_id = ?", gameAccountID).
		Delete(&domain.VerificationCode{})
	return res.RowsAffected, res.Error
}

// PurgeCodesBefore deletes codes created strictly before cutoff.
func PurgeCodesBefore(ctx context.Context, db *gorm.DB, cutoff time.Time) (int64, error) {
	res := db.WithContext(ctx).
		Where("created_at < ?", cutoff.UTC()).
		Delete(&domain.VerificationCode{})
	return res.RowsAffected, res.Error
}
