package api

import (
	"net/http"
	"time"

	"upfitter/showroom/internal/logging"
	"upfitter/showroom/internal/middleware"
	"upfitter/showroom/internal/preview"
)

// EnterPreview handles GET /api/preview?token=
//
// A valid, unused token is exchanged for the preview cookie; later requests
// carrying it read drafts.
func (h *Handlers) EnterPreview() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		token := r.URL.Query().Get("token")
		tok, err := h.deps.Signer.Redeem(r.Context(), token)
		if err != nil {
			respondWithError(w, r, "Failed to enable preview", err)
			return
		}

		http.SetCookie(w, &http.Cookie{
			Name:     preview.CookieName,
			Value:    token,
			Path:     "/",
			Expires:  tok.ExpiresAt,
			HttpOnly: true,
			Secure:   h.deps.Config != nil && h.deps.Config.IsProduction(),
			SameSite: http.SameSiteLaxMode,
		})

		logging.Info("Preview enabled",
			"request_id", middleware.RequestIDFromContext(r.Context()),
			"subject", tok.Subject,
			"expires_at", tok.ExpiresAt,
		)
		respondWithSuccess(w, map[string]any{"preview": true, "expiresAt": tok.ExpiresAt}, nil, nil)
	}
}

// ExitPreview handles GET /api/preview/exit
func (h *Handlers) ExitPreview() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		http.SetCookie(w, &http.Cookie{
			Name:     preview.CookieName,
			Value:    "",
			Path:     "/",
			Expires:  time.Unix(0, 0),
			MaxAge:   -1,
			HttpOnly: true,
		})
		respondWithSuccess(w, map[string]any{"preview": false}, nil, nil)
	}
}
