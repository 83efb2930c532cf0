package api

import (
	"context"
	"net/http"
	"strings"

	"upfitter/showroom/internal/cms"
	"upfitter/showroom/internal/groq"
	"upfitter/showroom/internal/images"
	"upfitter/showroom/internal/preview"
)

// Default page sizes per listing route.
const (
	SearchDefaultLimit   = 12
	VehiclesDefaultLimit = 24
	OptionsDefaultLimit  = 50
)

type Handlers struct {
	deps *Dependencies
}

// NewHandlers creates a new handlers instance with injected dependencies
func NewHandlers(deps *Dependencies) *Handlers {
	return &Handlers{
		deps: deps,
	}
}

// querier picks the draft-aware client for requests carrying a preview token.
func (h *Handlers) querier(r *http.Request) cms.Querier {
	if _, ok := preview.FromContext(r.Context()); ok && h.deps.Drafts != nil {
		return h.deps.Drafts
	}
	return h.deps.Content
}

func (h *Handlers) imageFormat() string {
	if h.deps.Config == nil {
		return images.DefaultFormat
	}
	return h.deps.Config.HTTP.ImageFormat
}

// fetch runs query and returns the decoded JSON tree.
func fetch(ctx context.Context, q cms.Querier, name, query string, params map[string]any) (any, error) {
	var out any
	if err := q.Query(ctx, name, query, params, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// fetchList runs a listing query. A null result is an empty list.
func fetchList(ctx context.Context, q cms.Querier, name, query string, params map[string]any) ([]any, error) {
	var out []any
	if err := q.Query(ctx, name, query, params, &out); err != nil {
		return nil, err
	}
	if out == nil {
		out = []any{}
	}
	return out, nil
}

// respondPage slices the full result set and rewrites image urls on the page.
func (h *Handlers) respondPage(w http.ResponseWriter, items []any, page groq.Page, filters any) {
	slice, meta := groq.Paginate(items, page)
	respondWithSuccess(w, images.RewriteFormat(slice, h.imageFormat()), filters, &meta)
}

// respondOne writes a single (possibly null) document.
func (h *Handlers) respondOne(w http.ResponseWriter, data any, filters any) {
	respondWithSuccess(w, images.RewriteFormat(data, h.imageFormat()), filters, nil)
}

func requireSlug(r *http.Request) (string, error) {
	slug := strings.TrimSpace(r.URL.Query().Get("slug"))
	if slug == "" {
		return "", ErrMissingSlug
	}
	return slug, nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}
