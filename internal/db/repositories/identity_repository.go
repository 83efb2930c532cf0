package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	"gorm.io/gorm"

	"upfitter/showroom/internal/cms"
	"upfitter/showroom/internal/db"
	gormModels "upfitter/showroom/internal/models/gorm"
)

const lookupBySlug = `SELECT id, doc_type, name_key, slug_key, document_id, created_at, updated_at
	FROM content_identities WHERE doc_type = ? AND slug_key = ?`

// IdentityRepository claims document identities in the registry. Writes go
// through gorm; lookups through sqlx.
type IdentityRepository struct {
	orm *gorm.DB
	sx  *sqlx.DB
}

// NewIdentityRepository creates a registry repository
func NewIdentityRepository(orm *gorm.DB, sx *sqlx.DB) *IdentityRepository {
	return &IdentityRepository{orm: orm, sx: sx}
}

// Identity is the sqlx row shape of a claim.
type Identity struct {
	ID         string    `db:"id"`
	DocType    string    `db:"doc_type"`
	NameKey    string    `db:"name_key"`
	SlugKey    string    `db:"slug_key"`
	DocumentID string    `db:"document_id"`
	CreatedAt  time.Time `db:"created_at"`
	UpdatedAt  time.Time `db:"updated_at"`
}

// NormalizeKey lowercases and trims a name or slug for comparison.
func NormalizeKey(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// Claim records that docID owns name and slug within docType. Draft and
// published ids of one document share a claim. Re-claiming by the owner
// updates the stored keys. A key owned by another document returns an
// error matching db.ErrIdentityTaken.
func (r *IdentityRepository) Claim(ctx context.Context, docType, name, slug, docID string) error {
	owner := cms.PublishedID(docID)
	nameKey, slugKey := NormalizeKey(name), NormalizeKey(slug)

	err := r.orm.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, check := range []struct {
			field, column, key string
		}{
			{"name", "name_key", nameKey},
			{"slug", "slug_key", slugKey},
		} {
			var existing gormModels.ContentIdentity
			err := tx.Where("doc_type = ? AND "+check.column+" = ?", docType, check.key).First(&existing).Error
			if err == nil && existing.DocumentID != owner {
				return &db.IdentityTakenError{Field: check.field, OwnerID: existing.DocumentID}
			}
			if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
				return fmt.Errorf("failed to check %s: %w", check.field, err)
			}
		}

		var current gormModels.ContentIdentity
		err := tx.Where("doc_type = ? AND document_id = ?", docType, owner).First(&current).Error
		switch {
		case err == nil:
			current.NameKey, current.SlugKey = nameKey, slugKey
			return tx.Save(&current).Error
		case errors.Is(err, gorm.ErrRecordNotFound):
			return tx.Create(&gormModels.ContentIdentity{
				DocType:    docType,
				NameKey:    nameKey,
				SlugKey:    slugKey,
				DocumentID: owner,
			}).Error
		default:
			return fmt.Errorf("failed to load claim: %w", err)
		}
	})

	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return &db.IdentityTakenError{}
	}
	return err
}

// Release drops every claim held by the document.
func (r *IdentityRepository) Release(ctx context.Context, docType, docID string) error {
	return r.orm.WithContext(ctx).
		Where("doc_type = ? AND document_id = ?", docType, cms.PublishedID(docID)).
		Delete(&gormModels.ContentIdentity{}).Error
}

// Lookup returns the claim for a slug, or nil when none exists.
func (r *IdentityRepository) Lookup(ctx context.Context, docType, slug string) (*Identity, error) {
	var out Identity
	err := r.sx.GetContext(ctx, &out, r.sx.Rebind(lookupBySlug), docType, NormalizeKey(slug))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to look up identity: %w", err)
	}
	return &out, nil
}

// Ping checks the registry connection.
func (r *IdentityRepository) Ping(ctx context.Context) error {
	return r.sx.PingContext(ctx)
}
