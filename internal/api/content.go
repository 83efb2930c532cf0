package api

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"golang.org/x/sync/errgroup"

	"upfitter/showroom/internal/groq"
	"upfitter/showroom/internal/images"
	"upfitter/showroom/internal/schema"
)

// ErrUnknownContentType is returned by /api/content for an unlisted type.
var ErrUnknownContentType = errors.New("unknown content type")

// DefaultContentTypes is used when /api/content is called without types.
var DefaultContentTypes = []string{"vehicles", "manufacturers", "brands"}

type contentSource struct {
	docType    string
	projection string
	order      string
	where      []string
}

var contentSources = map[string]contentSource{
	"vehicles":          {schema.TypeVehicle, groq.VehicleProjection, groq.OrderBySortThenTitle, nil},
	"manufacturers":     {schema.TypeManufacturer, groq.ManufacturerProjection, "name asc", nil},
	"brands":            {schema.TypeBrand, groq.BrandProjection, "name asc", nil},
	"additionalOptions": {schema.TypeAdditionalOption, groq.AdditionalOptionProjection, groq.OrderBySortThenName, []string{groq.ActiveOnly}},
	"salesReps":         {schema.TypeSalesRepresentative, groq.SalesRepProjection, groq.OrderBySortThenName, []string{groq.ActiveOnly}},
	"pages":             {schema.TypePage, groq.PageProjection, "title asc", nil},
}

// GetContent handles GET /api/content?types=vehicles,manufacturers,brands
//
// The listings are fetched concurrently; the first failure cancels the rest
// and fails the request.
func (h *Handlers) GetContent() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		types, err := parseContentTypes(r.URL.Query().Get("types"))
		if err != nil {
			respondWithError(w, r, "Failed to fetch content", err)
			return
		}

		q := h.querier(r)
		results := make([][]any, len(types))
		g, ctx := errgroup.WithContext(r.Context())
		for i, name := range types {
			src := contentSources[name]
			g.Go(func() error {
				items, err := fetchList(ctx, q, "content-"+name, groq.ByType(src.docType, src.projection, src.order, src.where...), nil)
				if err != nil {
					return fmt.Errorf("%s: %w", name, err)
				}
				results[i] = items
				return nil
			})
		}
		if err := g.Wait(); err != nil {
			respondWithError(w, r, "Failed to fetch content", err)
			return
		}

		data := make(map[string]any, len(types))
		for i, name := range types {
			data[name] = results[i]
		}
		respondWithSuccess(w, images.RewriteFormat(data, h.imageFormat()), map[string]any{"types": types}, nil)
	}
}

// parseContentTypes splits the comma-separated list, dropping blanks and
// duplicates.
func parseContentTypes(raw string) ([]string, error) {
	if strings.TrimSpace(raw) == "" {
		return DefaultContentTypes, nil
	}
	seen := map[string]bool{}
	var types []string
	for _, t := range strings.Split(raw, ",") {
		t = strings.TrimSpace(t)
		if t == "" || seen[t] {
			continue
		}
		if _, ok := contentSources[t]; !ok {
			return nil, fmt.Errorf("%w: %q", ErrUnknownContentType, t)
		}
		seen[t] = true
		types = append(types, t)
	}
	if len(types) == 0 {
		return DefaultContentTypes, nil
	}
	return types, nil
}
