package cms

import (
	"context"
	"fmt"
	"regexp"
)

// DocumentStore is the dataset surface the maintenance jobs need.
type DocumentStore interface {
	// FetchByTypes returns every document (drafts included) whose _type is in types.
	FetchByTypes(ctx context.Context, types []string) ([]Document, error)

	// FindBySlug returns the first document of docType with slug.current == slug,
	// or nil when none exists.
	FindBySlug(ctx context.Context, docType, slug string) (Document, error)

	// FindWithStringField returns documents of docType whose field holds a
	// plain value rather than a reference.
	FindWithStringField(ctx context.Context, docType, field string) ([]Document, error)

	// Commit applies the mutations as one transaction.
	Commit(ctx context.Context, mutations []Mutation) (*MutationResult, error)
}

var _ DocumentStore = (*Client)(nil)

var fieldNamePattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

func (c *Client) FetchByTypes(ctx context.Context, types []string) ([]Document, error) {
	var docs []Document
	err := c.Query(ctx, "fetch_by_types", `*[_type in $types] | order(_type asc, _id asc)`,
		map[string]any{"types": types}, &docs)
	if err != nil {
		return nil, err
	}
	return docs, nil
}

func (c *Client) FindBySlug(ctx context.Context, docType, slug string) (Document, error) {
	var doc Document
	err := c.Query(ctx, "find_by_slug", `*[_type == $type && slug.current == $slug][0]`,
		map[string]any{"type": docType, "slug": slug}, &doc)
	if err != nil {
		return nil, err
	}
	return doc, nil
}

func (c *Client) FindWithStringField(ctx context.Context, docType, field string) ([]Document, error) {
	// Field names cannot be bound as parameters, so they are checked instead.
	if !fieldNamePattern.MatchString(field) {
		return nil, fmt.Errorf("invalid field name %q", field)
	}
	query := fmt.Sprintf(`*[_type == $type && defined(%[1]s) && !defined(%[1]s._ref)]`, field)

	var docs []Document
	if err := c.Query(ctx, "find_string_field", query, map[string]any{"type": docType}, &docs); err != nil {
		return nil, err
	}

	// defined() also matches objects without _ref; keep strings only.
	out := docs[:0]
	for _, d := range docs {
		if _, ok := d[field].(string); ok {
			out = append(out, d)
		}
	}
	return out, nil
}

func (c *Client) Commit(ctx context.Context, mutations []Mutation) (*MutationResult, error) {
	return c.Mutate(ctx, mutations)
}
