package repositories

import (
	"context"
	"errors"
	"testing"

	"upfitter/showroom/internal/db"
)

func setupTestRepo(t *testing.T) *IdentityRepository {
	t.Helper()
	orm, err := db.OpenORM(":memory:")
	if err != nil {
		t.Fatalf("Failed to open test database: %v", err)
	}
	sx, err := db.OpenSQLX(":memory:", orm)
	if err != nil {
		t.Fatalf("Failed to open sqlx handle: %v", err)
	}
	t.Cleanup(func() { _ = sx.Close() })
	return NewIdentityRepository(orm, sx)
}

func TestIdentityRepository_ClaimAndLookup(t *testing.T) {
	repo := setupTestRepo(t)
	ctx := context.Background()

	if err := repo.Claim(ctx, "additionalOption", "Ladder Rack", "ladder-rack", "opt-1"); err != nil {
		t.Fatalf("Claim failed: %v", err)
	}

	got, err := repo.Lookup(ctx, "additionalOption", "LADDER-RACK")
	if err != nil {
		t.Fatalf("Lookup failed: %v", err)
	}
	if got == nil || got.DocumentID != "opt-1" || got.NameKey != "ladder rack" {
		t.Errorf("unexpected identity: %+v", got)
	}

	missing, err := repo.Lookup(ctx, "additionalOption", "nope")
	if err != nil || missing != nil {
		t.Errorf("expected nil, nil for missing slug; got %+v, %v", missing, err)
	}
}

func TestIdentityRepository_ClaimConflicts(t *testing.T) {
	repo := setupTestRepo(t)
	ctx := context.Background()

	if err := repo.Claim(ctx, "additionalOption", "Ladder Rack", "ladder-rack", "opt-1"); err != nil {
		t.Fatalf("Claim failed: %v", err)
	}

	tests := []struct {
		name      string
		docName   string
		slug      string
		docID     string
		wantField string
	}{
		{"same name different case", "LADDER rack", "other-slug", "opt-2", "name"},
		{"same slug", "Something Else", "Ladder-Rack", "opt-3", "slug"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := repo.Claim(ctx, "additionalOption", tt.docName, tt.slug, tt.docID)
			if !errors.Is(err, db.ErrIdentityTaken) {
				t.Fatalf("expected ErrIdentityTaken, got %v", err)
			}
			var taken *db.IdentityTakenError
			if !errors.As(err, &taken) || taken.Field != tt.wantField || taken.OwnerID != "opt-1" {
				t.Errorf("unexpected conflict detail: %+v", taken)
			}
		})
	}
}

func TestIdentityRepository_ClaimIsIdempotentForOwner(t *testing.T) {
	repo := setupTestRepo(t)
	ctx := context.Background()

	if err := repo.Claim(ctx, "brand", "Summit", "summit", "brand-1"); err != nil {
		t.Fatalf("Claim failed: %v", err)
	}
	// The draft of the same document re-claims and renames.
	if err := repo.Claim(ctx, "brand", "Summit", "summit", "drafts.brand-1"); err != nil {
		t.Errorf("draft re-claim failed: %v", err)
	}
	if err := repo.Claim(ctx, "brand", "Summit Pro", "summit-pro", "brand-1"); err != nil {
		t.Errorf("rename failed: %v", err)
	}
	// The old slug is free again.
	if err := repo.Claim(ctx, "brand", "Summit", "summit", "brand-2"); err != nil {
		t.Errorf("old identity should be free: %v", err)
	}
	// Types are independent.
	if err := repo.Claim(ctx, "manufacturer", "Summit", "summit", "mfr-1"); err != nil {
		t.Errorf("other type should not conflict: %v", err)
	}
}

func TestIdentityRepository_Release(t *testing.T) {
	repo := setupTestRepo(t)
	ctx := context.Background()

	if err := repo.Claim(ctx, "brand", "Summit", "summit", "brand-1"); err != nil {
		t.Fatalf("Claim failed: %v", err)
	}
	if err := repo.Release(ctx, "brand", "drafts.brand-1"); err != nil {
		t.Fatalf("Release failed: %v", err)
	}
	if err := repo.Claim(ctx, "brand", "Summit", "summit", "brand-2"); err != nil {
		t.Errorf("released identity should be claimable: %v", err)
	}
}
