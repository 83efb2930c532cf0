package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"upfitter/showroom/internal/models/dtos/requests"
	"upfitter/showroom/internal/schema"
)

// ErrInvalidBody is returned when a request body cannot be decoded.
var ErrInvalidBody = errors.New("invalid request body")

const maxBodyBytes = 1 << 20

// ValidationResult is the data of a validation response.
type ValidationResult struct {
	Valid  bool              `json:"valid"`
	Errors map[string]string `json:"errors,omitempty"`
}

// ValidateAdditionalOption handles POST /api/validate/additional-option
//
// A rejected option is still a successful response with valid=false; only
// unreadable bodies and failed lookups produce the error envelope.
func (h *Handlers) ValidateAdditionalOption() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req requests.ValidateOptionRequest
		if err := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes)).Decode(&req); err != nil {
			respondWithError(w, r, "Failed to validate additional option", fmt.Errorf("%w: %v", ErrInvalidBody, err))
			return
		}

		err := h.deps.Validator.CheckOption(r.Context(), req.Option())
		result, ok := validationResult(err)
		if !ok {
			respondWithError(w, r, "Failed to validate additional option", err)
			return
		}

		respondWithSuccess(w, result, map[string]string{"name": req.Name, "slug": req.Slug}, nil)
	}
}

// validationResult maps a CheckOption error to a result. ok is false when
// err is not a validation outcome.
func validationResult(err error) (ValidationResult, bool) {
	var fieldErrs validation.Errors
	switch {
	case err == nil:
		return ValidationResult{Valid: true}, true
	case errors.As(err, &fieldErrs):
		out := make(map[string]string, len(fieldErrs))
		for field, fe := range fieldErrs {
			if fe != nil {
				out[field] = fe.Error()
			}
		}
		return ValidationResult{Errors: out}, true
	case errors.Is(err, schema.ErrDuplicateName):
		return ValidationResult{Errors: map[string]string{"name": err.Error()}}, true
	case errors.Is(err, schema.ErrDuplicateSlug):
		return ValidationResult{Errors: map[string]string{"slug": err.Error()}}, true
	default:
		return ValidationResult{}, false
	}
}
