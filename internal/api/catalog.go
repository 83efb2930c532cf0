package api

import (
	"net/http"

	"upfitter/showroom/internal/groq"
)

// ListManufacturers handles GET /api/manufacturers. Each manufacturer
// carries a vehicleCount derived at query time.
func (h *Handlers) ListManufacturers() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		items, err := fetchList(r.Context(), h.querier(r), "manufacturers", groq.ManufacturersQuery, nil)
		if err != nil {
			respondWithError(w, r, "Failed to fetch manufacturers", err)
			return
		}
		h.respondPage(w, items, groq.Page{Limit: len(items)}, nil)
	}
}

// ListBrands handles GET /api/brands
func (h *Handlers) ListBrands() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		items, err := fetchList(r.Context(), h.querier(r), "brands", groq.BrandsQuery, nil)
		if err != nil {
			respondWithError(w, r, "Failed to fetch brands", err)
			return
		}
		h.respondPage(w, items, groq.Page{Limit: len(items)}, nil)
	}
}

// GetBrand handles GET /api/brand?slug=
func (h *Handlers) GetBrand() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		slug, err := requireSlug(r)
		if err != nil {
			respondWithError(w, r, "Failed to fetch brand", err)
			return
		}

		brand, err := fetch(r.Context(), h.querier(r), "brand-by-slug", groq.BrandBySlugQuery, map[string]any{"slug": slug})
		if err != nil {
			respondWithError(w, r, "Failed to fetch brand", err)
			return
		}

		h.respondOne(w, brand, map[string]string{"slug": slug})
	}
}

// ListAdditionalOptions handles GET /api/additional-options
//
// Only active options are returned, ordered by sortOrder then name.
func (h *Handlers) ListAdditionalOptions() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		qs := r.URL.Query()
		params := groq.SearchParams{
			Query:   firstNonEmpty(qs.Get("q"), qs.Get("query")),
			Make:    qs.Get("make"),
			Brand:   qs.Get("brand"),
			Package: qs.Get("package"),
		}
		page := groq.ParsePage(qs.Get("limit"), qs.Get("offset"), OptionsDefaultLimit)

		query, bound := groq.AdditionalOptions(params)
		items, err := fetchList(r.Context(), h.querier(r), "additional-options", query, bound)
		if err != nil {
			respondWithError(w, r, "Failed to fetch additional options", err)
			return
		}

		h.respondPage(w, items, page, params)
	}
}

// ListSalesReps handles GET /api/sales-reps?zip=&region=
func (h *Handlers) ListSalesReps() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		qs := r.URL.Query()
		filters := map[string]string{}
		if zip := qs.Get("zip"); zip != "" {
			filters["zip"] = zip
		}
		if region := qs.Get("region"); region != "" {
			filters["region"] = region
		}

		query, bound := groq.SalesReps(qs.Get("zip"), qs.Get("region"))
		items, err := fetchList(r.Context(), h.querier(r), "sales-reps", query, bound)
		if err != nil {
			respondWithError(w, r, "Failed to fetch sales representatives", err)
			return
		}

		h.respondPage(w, items, groq.Page{Limit: len(items)}, filters)
	}
}
