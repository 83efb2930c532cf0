package api

import (
	"net/http"

	"upfitter/showroom/internal/groq"
)

// SearchVehicles handles GET /api/search
//
// Free text comes from q (or query); make, model, brand, package and type
// narrow the result. limit defaults to 12.
func (h *Handlers) SearchVehicles() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		qs := r.URL.Query()
		params := groq.SearchParams{
			Query:   firstNonEmpty(qs.Get("q"), qs.Get("query")),
			Make:    qs.Get("make"),
			Model:   qs.Get("model"),
			Brand:   qs.Get("brand"),
			Package: qs.Get("package"),
			Type:    qs.Get("type"),
		}
		page := groq.ParsePage(qs.Get("limit"), qs.Get("offset"), SearchDefaultLimit)

		query, bound := groq.VehicleSearch(params)
		items, err := fetchList(r.Context(), h.querier(r), "vehicle-search", query, bound)
		if err != nil {
			respondWithError(w, r, "Failed to search vehicles", err)
			return
		}

		h.respondPage(w, items, page, params)
	}
}

// ListVehicles handles GET /api/vehicles
func (h *Handlers) ListVehicles() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		qs := r.URL.Query()
		params := groq.SearchParams{
			Make:  qs.Get("make"),
			Model: qs.Get("model"),
			Brand: qs.Get("brand"),
			Type:  qs.Get("type"),
		}
		page := groq.ParsePage(qs.Get("limit"), qs.Get("offset"), VehiclesDefaultLimit)

		query, bound := groq.VehicleSearch(params)
		items, err := fetchList(r.Context(), h.querier(r), "vehicles", query, bound)
		if err != nil {
			respondWithError(w, r, "Failed to fetch vehicles", err)
			return
		}

		h.respondPage(w, items, page, params)
	}
}

// GetVehicle handles GET /api/vehicle?slug=
func (h *Handlers) GetVehicle() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		slug, err := requireSlug(r)
		if err != nil {
			respondWithError(w, r, "Failed to fetch vehicle", err)
			return
		}

		vehicle, err := fetch(r.Context(), h.querier(r), "vehicle-by-slug", groq.VehicleBySlugQuery, map[string]any{"slug": slug})
		if err != nil {
			respondWithError(w, r, "Failed to fetch vehicle", err)
			return
		}

		h.respondOne(w, vehicle, map[string]string{"slug": slug})
	}
}
