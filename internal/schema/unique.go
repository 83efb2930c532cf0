package schema

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"upfitter/showroom/internal/cms"
	"upfitter/showroom/internal/db"
	"upfitter/showroom/internal/groq"
)

var (
	ErrDuplicateName = errors.New("name is already in use")
	ErrDuplicateSlug = errors.New("slug is already in use")
)

// IdentityClaimer reserves a name and slug for a document in a store with
// unique constraints.
type IdentityClaimer interface {
	Claim(ctx context.Context, docType, name, slug, docID string) error
}

// UniquenessValidator checks that a document's name and slug are unique,
// ignoring case, among the published and draft documents of its type.
//
// The query-then-compare check is advisory: two writers can pass it at the
// same time. When a claimer is configured the identity is also claimed in
// the registry, whose unique indexes decide the race.
type UniquenessValidator struct {
	q       cms.Querier
	claimer IdentityClaimer
}

// NewUniquenessValidator creates a validator. claimer may be nil.
func NewUniquenessValidator(q cms.Querier, claimer IdentityClaimer) *UniquenessValidator {
	return &UniquenessValidator{q: q, claimer: claimer}
}

type identityCandidate struct {
	ID   string `json:"_id"`
	Name string `json:"name"`
	Slug string `json:"slug"`
}

// Check returns ErrDuplicateName or ErrDuplicateSlug (possibly wrapped) when
// another document already holds the name or slug. id may be a draft or
// published id, or empty for a document that does not exist yet.
func (v *UniquenessValidator) Check(ctx context.Context, docType, id, name, slug string) error {
	published := cms.PublishedID(id)
	params := map[string]any{
		"type":    docType,
		"id":      published,
		"draftId": cms.DraftPrefix + published,
		"name":    name,
		"slug":    slug,
	}

	var candidates []identityCandidate
	if err := v.q.Query(ctx, "identity-conflicts", groq.IdentityConflictsQuery, params, &candidates); err != nil {
		return fmt.Errorf("failed to check uniqueness: %w", err)
	}

	for _, c := range candidates {
		if cms.PublishedID(c.ID) == published && published != "" {
			continue
		}
		if name != "" && strings.EqualFold(strings.TrimSpace(c.Name), strings.TrimSpace(name)) {
			return fmt.Errorf("%w: %q (document %s)", ErrDuplicateName, name, c.ID)
		}
		if slug != "" && strings.EqualFold(strings.TrimSpace(c.Slug), strings.TrimSpace(slug)) {
			return fmt.Errorf("%w: %q (document %s)", ErrDuplicateSlug, slug, c.ID)
		}
	}

	if v.claimer == nil || published == "" {
		return nil
	}

	err := v.claimer.Claim(ctx, docType, name, slug, published)
	var taken *db.IdentityTakenError
	switch {
	case err == nil:
		return nil
	case errors.As(err, &taken) && taken.Field == "name":
		return fmt.Errorf("%w: %q (document %s)", ErrDuplicateName, name, taken.OwnerID)
	case errors.Is(err, db.ErrIdentityTaken):
		return fmt.Errorf("%w: %q", ErrDuplicateSlug, slug)
	default:
		return fmt.Errorf("failed to claim identity: %w", err)
	}
}

// CheckOption validates an additional option and its identity.
func (v *UniquenessValidator) CheckOption(ctx context.Context, o AdditionalOption) error {
	if err := o.Validate(); err != nil {
		return err
	}
	return v.Check(ctx, TypeAdditionalOption, o.ID, o.Name, o.Slug.Current)
}
