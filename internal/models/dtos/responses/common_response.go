package responses

import (
	"time"

	"upfitter/showroom/internal/groq"
)

// APIResponse is the success envelope shared by every content route.
type APIResponse[T any] struct {
	Success bool  `json:"success"`
	Data    T     `json:"data"`
	Meta    *Meta `json:"meta,omitempty"`
}

// Meta describes the request that produced Data. Pagination fields are
// present only on paginated listings.
type Meta struct {
	Filters any `json:"filters,omitempty"`
	*groq.Meta
	Timestamp time.Time `json:"timestamp"`
}

// ErrorResponse is returned with HTTP 500 for every failure.
type ErrorResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
	Message string `json:"message"`
}
