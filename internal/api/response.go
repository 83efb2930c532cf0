package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"upfitter/showroom/internal/cms"
	"upfitter/showroom/internal/groq"
	"upfitter/showroom/internal/logging"
	"upfitter/showroom/internal/middleware"
	"upfitter/showroom/internal/models/dtos/responses"
	"upfitter/showroom/internal/preview"
)

// ErrMissingSlug is returned by the singular lookups when no slug is given.
var ErrMissingSlug = errors.New("slug parameter is required")

func respondWithSuccess[T any](w http.ResponseWriter, data T, filters any, page *groq.Meta) {
	resp := responses.APIResponse[T]{
		Success: true,
		Data:    data,
		Meta: &responses.Meta{
			Filters:   filters,
			Meta:      page,
			Timestamp: time.Now().UTC(),
		},
	}

	writeJSON(w, http.StatusOK, resp)
}

// respondWithError logs err with its category and writes the 500 envelope.
// Every category shares the same status; callers cannot tell them apart.
func respondWithError(w http.ResponseWriter, r *http.Request, message string, err error) {
	logging.Error(message,
		"request_id", middleware.RequestIDFromContext(r.Context()),
		"path", r.URL.Path,
		"category", errorCategory(err),
		"error", err.Error(),
	)

	resp := responses.ErrorResponse{
		Success: false,
		Error:   message,
		Message: err.Error(),
	}
	writeJSON(w, http.StatusInternalServerError, resp)
}

func writeJSON(w http.ResponseWriter, statusCode int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(v)
}

func errorCategory(err error) string {
	var cmsErr *cms.Error
	switch {
	case errors.Is(err, ErrMissingSlug), errors.Is(err, ErrUnknownContentType), errors.Is(err, ErrInvalidBody):
		return "validation"
	case errors.Is(err, preview.ErrInvalidToken), errors.Is(err, preview.ErrTokenUsed), errors.Is(err, preview.ErrDisabled):
		return "preview"
	case errors.As(err, &cmsErr):
		return "remote:" + cmsErr.Code
	default:
		return "internal"
	}
}
