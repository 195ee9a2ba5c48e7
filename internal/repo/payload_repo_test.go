package repo

import (
	"context"
	"errors"
	"testing"

	"github.com/tbourn/orion-relay/internal/domain"
)

func TestPayload_PutGetReplaceDelete(t *testing.T) {
	db := newTestDB(t, &domain.ProductPayload{})
	ctx := context.Background()

	if err := PutPayload(ctx, db, "k1", []byte("abc")); err != nil {
		t.Fatalf("PutPayload: %v", err)
	}
	got, err := GetPayload(ctx, db, "k1")
	if err != nil || string(got) != "abc" {
		t.Fatalf("GetPayload: %q err=%v", got, err)
	}

	if err := PutPayload(ctx, db, "k1", []byte("xyz")); err != nil {
		t.Fatalf("PutPayload replace: %v", err)
	}
	got, _ = GetPayload(ctx, db, "k1")
	if string(got) != "xyz" {
		t.Fatalf("expected replaced bytes, got %q", got)
	}

	if err := DeletePayload(ctx, db, "k1"); err != nil {
		t.Fatalf("DeletePayload: %v", err)
	}
	if err := DeletePayload(ctx, db, "k1"); err != nil {
		t.Fatalf("DeletePayload missing should be nil: %v", err)
	}
	if _, err := GetPayload(ctx, db, "k1"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}
