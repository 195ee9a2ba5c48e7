package repo

import (
	"context"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/tbourn/orion-relay/internal/domain"
)

// GetDowntime returns the global downtime row, or ErrNotFound if the flag
// was never written.
func GetDowntime(ctx context.Context, db *gorm.DB) (*domain.DowntimeFlag, error) {
	var f domain.DowntimeFlag
	if err := db.WithContext(ctx).Where("key = ?", domain.DowntimeKey).First(&f).Error; err != nil {
		return nil, err
	}
	return &f, nil
}

// UpsertDowntime writes the global downtime flag. Later writes win.
func UpsertDowntime(ctx context.Context, db *gorm.DB, enabled bool, updatedBy string) (*domain.DowntimeFlag, error) {
	f := &domain.DowntimeFlag{
		Key:       domain.DowntimeKey,
		Enabled:   enabled,
		UpdatedBy: updatedBy,
		UpdatedAt: time.Now().UTC(),
	}
	err := db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "key"}},
		DoUpdates: clause.AssignmentColumns([]string{"enabled", "updated_by", "updated_at"}),
	}).Create(f).Error
	if err != nil {
		return nil, err
	}
	return f, nil
}
