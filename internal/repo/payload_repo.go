package repo

import (
	"context"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/tbourn/orion-relay/internal/domain"
)

// PutPayload stores data under key, replacing any previous bytes.
func PutPayload(ctx context.Context, db *gorm.DB, key string, data []byte) error {
	rec := &domain.ProductPayload{Key: key, Data: data, CreatedAt: time.Now().UTC()}
	return db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "key"}},
		DoUpdates: clause.AssignmentColumns([]string{"data", "created_at"}),
	}).Create(rec).Error
}

// GetPayload returns the bytes stored under key, or ErrNotFound.
func GetPayload(ctx context.Context, db *gorm.DB, key string) ([]byte, error) {
	var rec domain.ProductPayload
	if err := db.WithContext(ctx).Where("key = ?", key).First(&rec).Error; err != nil {
		return nil, err
	}
	return rec.Data, nil
}

// DeletePayload removes key. Missing keys are not an error.
func DeletePayload(ctx context.Context, db *gorm.DB, key string) error {
	return db.WithContext(ctx).Where("key = ?", key).Delete(&domain.ProductPayload{}).Error
}
