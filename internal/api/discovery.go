package api

import "net/http"

// DataSource describes one route the page-builder tool can bind to.
type DataSource struct {
	Name        string   `json:"name"`
	Path        string   `json:"path"`
	Description string   `json:"description"`
	Params      []string `json:"params,omitempty"`
	Paginated   bool     `json:"paginated"`
}

var dataSources = []DataSource{
	{Name: "search", Path: "/api/search", Description: "Vehicle search", Params: []string{"q", "make", "model", "brand", "package", "type", "limit", "offset"}, Paginated: true},
	{Name: "vehicles", Path: "/api/vehicles", Description: "Vehicle listing", Params: []string{"type", "make", "model", "brand", "limit", "offset"}, Paginated: true},
	{Name: "vehicle", Path: "/api/vehicle", Description: "Single vehicle", Params: []string{"slug"}},
	{Name: "manufacturers", Path: "/api/manufacturers", Description: "Manufacturers with vehicle counts"},
	{Name: "brands", Path: "/api/brands", Description: "Brand listing"},
	{Name: "brand", Path: "/api/brand", Description: "Single brand", Params: []string{"slug"}},
	{Name: "additional-options", Path: "/api/additional-options", Description: "Active additional options", Params: []string{"q", "make", "brand", "package", "limit", "offset"}, Paginated: true},
	{Name: "sales-reps", Path: "/api/sales-reps", Description: "Active sales representatives", Params: []string{"zip", "region"}},
	{Name: "page", Path: "/api/page", Description: "Page with rendered blocks", Params: []string{"slug", "content"}},
	{Name: "content", Path: "/api/content", Description: "Several listings in one response", Params: []string{"types"}},
}

// Discovery handles GET /api/discovery. It is served to any origin.
func (h *Handlers) Discovery() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		respondWithSuccess(w, dataSources, nil, nil)
	}
}
