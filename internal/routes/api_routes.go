package routes

import (
	"github.com/go-chi/chi/v5"

	"upfitter/showroom/internal/api"
)

// RegisterAPIRoutes registers the content routes under /api.
func RegisterAPIRoutes(r chi.Router, handlers *api.Handlers) {
	r.Route("/api", func(a chi.Router) {
		a.Get("/search", handlers.SearchVehicles())
		a.Get("/vehicles", handlers.ListVehicles())
		a.Get("/vehicle", handlers.GetVehicle())
		a.Get("/manufacturers", handlers.ListManufacturers())
		a.Get("/brands", handlers.ListBrands())
		a.Get("/brand", handlers.GetBrand())
		a.Get("/additional-options", handlers.ListAdditionalOptions())
		a.Get("/sales-reps", handlers.ListSalesReps())
		a.Get("/page", handlers.GetPage())
		a.Get("/content", handlers.GetContent())
		a.Get("/discovery", handlers.Discovery())

		a.Post("/validate/additional-option", handlers.ValidateAdditionalOption())

		a.Get("/preview", handlers.EnterPreview())
		a.Get("/preview/exit", handlers.ExitPreview())
	})
}
