package domain

import (
	"testing"
	"time"
)

func TestIdempotency_Migration_AndUniqueScopeKey(t *testing.T) {
	db := newDomainDB(t)
	if err := db.AutoMigrate(&Idempotency{}); err != nil {
		t.Fatalf("automigrate: %v", err)
	}

	now := time.Now().UTC()
	rec := &Idempotency{
		ID:          "id-1",
		Scope:       "POST /purchase",
		Key:         "k1",
		Status:      200,
		ContentType: "application/json",
		Body:        []byte(`{"success":true}`),
		CreatedAt:   now,
		ExpiresAt:   now.Add(time.Hour),
	}
	if err := db.Create(rec).Error; err != nil {
		t.Fatalf("insert valid: %v", err)
	}

	var got Idempotency
	if err := db.First(&got, "id = ?", "id-1").Error; err != nil {
		t.Fatalf("readback: %v", err)
	}
	if got.Scope != rec.Scope || got.Key != "k1" || got.Status != 200 || string(got.Body) != `{"success":true}` {
		t.Fatalf("unexpected row: %+v", got)
	}

	again := *rec
	again.ID = "id-2"
	if err := db.Create(&again).Error; err == nil {
		t.Fatalf("expected UNIQUE constraint violation on (scope, key)")
	}

	other := *rec
	other.ID = "id-3"
	other.Scope = "POST /other"
	if err := db.Create(&other).Error; err != nil {
		t.Fatalf("same key in another scope should insert: %v", err)
	}
}
