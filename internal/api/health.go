package api

import (
	"context"
	"net/http"
	"time"

	"upfitter/showroom/internal/models/entities"
)

const healthTimeout = 5 * time.Second

// HealthCheckHandler handles GET /healthCheck
//
// It reports the content API and, when configured, the identity registry.
func HealthCheckHandler(deps *Dependencies, upSince time.Time) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), healthTimeout)
		defer cancel()

		services := make(map[string]entities.ServiceStatus)

		// Check the content API
		cmsStatus := "ok"
		cmsDetails := "Content API reachable"
		var settings any
		if err := deps.Content.Query(ctx, "health", `*[_type == "siteSettings"][0]{_id}`, nil, &settings); err != nil {
			cmsStatus = "down"
			cmsDetails = err.Error()
		}
		services["cms"] = entities.ServiceStatus{
			Status:  cmsStatus,
			Details: cmsDetails,
		}

		// Check the identity registry
		if deps.Registry != nil {
			regStatus := "ok"
			regDetails := "Registry connected"
			if err := deps.Registry.Ping(ctx); err != nil {
				regStatus = "down"
				regDetails = err.Error()
			}
			services["registry"] = entities.ServiceStatus{
				Status:  regStatus,
				Details: regDetails,
			}
		}

		overallStatus := "ok"
		for _, svc := range services {
			if svc.Status != "ok" {
				overallStatus = "down"
				break
			}
		}

		now := time.Now()
		uptime := now.Sub(upSince).Round(time.Second).String()

		resp := entities.HealthCheckResponse{
			Services: services,
			Status:   overallStatus,
			UpSince:  upSince.UTC(),
			Uptime:   uptime,
		}
		writeJSON(w, http.StatusOK, resp)
	}
}
