package repo

import (
	"context"
	"fmt"
	"testing"
	"time"

	sqlite "github.com/glebarez/sqlite" // pure-Go SQLite (no CGO)
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/tbourn/orion-relay/internal/domain"
)

func newTestDB(t *testing.T, migrate ...any) *gorm.DB {
	t.Helper()
	// Unique DB per test to avoid schema leaking across tests.
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if len(migrate) > 0 {
		if err := db.AutoMigrate(migrate...); err != nil {
			t.Fatalf("automigrate: %v", err)
		}
	}
	return db
}

func seedProduct(t *testing.T, db *gorm.DB, id, hub, name, externalID string, at time.Time) *domain.Product {
	t.Helper()
	p := &domain.Product{
		ID:         id,
		Hub:        hub,
		Name:       name,
		ExternalID: externalID,
		FileName:   name + ".rbxm",
		FileSize:   3,
		PayloadKey: "payload/" + id,
		CreatedAt:  at,
		UpdatedAt:  at,
	}
	if err := db.Create(p).Error; err != nil {
		t.Fatalf("seed product %s: %v", id, err)
	}
	return p
}

func TestProductsStats_CountError_NoTable(t *testing.T) {
	db := newTestDB(t /* no migrations */)
	_, _, err := ProductsStats(context.Background(), db, "")
	if err == nil {
		t.Fatalf("expected error due to missing products table")
	}
}

func TestProductsStats_ZeroRows(t *testing.T) {
	db := newTestDB(t, &domain.Product{})
	count, maxAt, err := ProductsStats(context.Background(), db, "Orion")
	if err != nil {
		t.Fatalf("ProductsStats error: %v", err)
	}
	if count != 0 || maxAt != nil {
		t.Fatalf("expected (0, nil), got (%d, %v)", count, maxAt)
	}
}

func TestProductsStats_Success_FilterAndMax(t *testing.T) {
	db := newTestDB(t, &domain.Product{})

	t1 := time.Date(2025, 1, 2, 15, 0, 0, 0, time.UTC)
	t2 := time.Date(2025, 3, 4, 10, 30, 0, 0, time.UTC) // max for Orion
	t3 := time.Date(2025, 5, 1, 9, 0, 0, 0, time.UTC)   // other hub, global max

	seedProduct(t, db, "p1", "Orion", "Sword", "DP1", t1)
	seedProduct(t, db, "p2", "Orion", "Shield", "DP2", t2)
	seedProduct(t, db, "p3", "Nebula", "Ship", "DP3", t3)

	count, maxAt, err := ProductsStats(context.Background(), db, "Orion")
	if err != nil {
		t.Fatalf("ProductsStats error: %v", err)
	}
	if count != 2 {
		t.Fatalf("expected count 2, got %d", count)
	}
	if maxAt == nil || !maxAt.Equal(t2) {
		t.Fatalf("expected maxUpdatedAt %v, got %v", t2, maxAt)
	}

	count, maxAt, err = ProductsStats(context.Background(), db, "")
	if err != nil || count != 3 || maxAt == nil || !maxAt.Equal(t3) {
		t.Fatalf("all hubs: count=%d max=%v err=%v", count, maxAt, err)
	}
}

// Force the second query (SELECT updated_at ...) to fail by renaming the column.
func TestProductsStats_SelectLatest_ErrorPath(t *testing.T) {
	db := newTestDB(t, &domain.Product{})
	seedProduct(t, db, "px", "Titan", "X", "DPX", time.Now().UTC())

	if err := db.Exec(`ALTER TABLE products RENAME COLUMN updated_at TO updated_at_old`).Error; err != nil {
		t.Fatalf("rename column: %v", err)
	}

	_, _, err := ProductsStats(context.Background(), db, "Titan")
	if err == nil {
		t.Fatalf("expected error from latest-updated select after column rename")
	}
}
