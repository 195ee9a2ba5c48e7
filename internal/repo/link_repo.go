// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides repository functions for the
// AccountLink model.
//
// Error semantics:
//   - Lookups return ErrNotFound when no link exists.
//   - UpsertLink never fails on an existing game account; it rebinds it.
package repo

import (
	"context"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/tbourn/orion-relay/internal/domain"
)

// UpsertLink binds gameAccountID to chatAccountID, replacing any previous
// chat account for that game account.
func UpsertLink(ctx context.Context, db *gorm.DB, gameAccountID, chatAccountID string) (*domain.AccountLink, error) {
	now := time.Now().UTC()
	l := &domain.AccountLink{
		GameAccountID: gameAccountID,
		ChatAccountID: chatAccountID,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	err := db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "game_account_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"chat_account_id", "updated_at"}),
	}).Create(l).Error
	if err != nil {
		return nil, err
	}
	return l, nil
}

// GetLinkByGameAccount returns the link for gameAccountID or ErrNotFound.
func GetLinkByGameAccount(ctx context.Context, db *gorm.DB, gameAccountID string) (*domain.AccountLink, error) {
	var l domain.AccountLink
	err := db.WithContext(ctx).Where("game_account_id = ?", gameAccountID).First(&l).Error
	if err != nil {
		return nil, err
	}
	return &l, nil
}

// GetLinkByChatAccount returns the most recently updated link carrying
// chatAccountID (served by idx_links_chat), or ErrNotFound.
func GetLinkByChatAccount(ctx context.Context, db *gorm.DB, chatAccountID string) (*domain.AccountLink, error) {
	var l domain.AccountLink
	err := db.WithContext(ctx).
		Where("chat_account_id = ?", chatAccountID).
		Order("updated_at desc").
		First(&l).Error
	if err != nil {
		return nil, err
	}
	return &l, nil
}

// DeleteLink removes the link for gameAccountID. It reports whether a row
// existed.
func DeleteLink(ctx context.Context, db *gorm.DB, gameAccountID string) (bool, error) {
	res := db.WithContext(ctx).
		Where("game_account_id = ?", gameAccountID).
		Delete(&domain.AccountLink{})
	return res.RowsAffected > 0, res.Error
}

// CountLinks returns the number of rows for gameAccountID (0 or 1).
func CountLinks(ctx context.Context, db *gorm.DB, gameAccountID string) (int64, error) {
	var n int64
	err := db.WithContext(ctx).Model(&domain.AccountLink{}).
		Where("game_account_id = ?", gameAccountID).
		Count(&n).Error
	return n, err
}
