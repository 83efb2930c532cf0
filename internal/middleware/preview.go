package middleware

import (
	"net/http"

	"upfitter/showroom/internal/logging"
	"upfitter/showroom/internal/preview"
)

// PreviewMiddleware marks requests carrying a valid preview cookie. Invalid
// or expired cookies are ignored and the request is served published content.
func PreviewMiddleware(signer *preview.Signer) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if !signer.Enabled() {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			cookie, err := r.Cookie(preview.CookieName)
			if err != nil || cookie.Value == "" {
				next.ServeHTTP(w, r)
				return
			}

			tok, err := signer.Verify(cookie.Value)
			if err != nil {
				logging.Debug("Ignoring invalid preview cookie", "request_id", RequestIDFromContext(r.Context()), "error", err)
				next.ServeHTTP(w, r)
				return
			}

			next.ServeHTTP(w, r.WithContext(preview.WithToken(r.Context(), tok)))
		})
	}
}

func isPreview(r *http.Request) bool {
	_, ok := preview.FromContext(r.Context())
	return ok
}
