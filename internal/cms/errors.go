package cms

import (
	"fmt"
	"net/http"
)

// CMS error codes
const (
	ErrCodeNetworkError  = "NETWORK_ERROR"
	ErrCodeUnauthorized  = "UNAUTHORIZED"
	ErrCodeNotFound      = "NOT_FOUND"
	ErrCodeRateLimited   = "RATE_LIMITED"
	ErrCodeQueryError    = "QUERY_ERROR"
	ErrCodeMutationError = "MUTATION_ERROR"
	ErrCodeDecodeError   = "DECODE_ERROR"
)

var errorMessages = map[string]string{
	ErrCodeNetworkError:  "Unable to reach the content API",
	ErrCodeUnauthorized:  "The content API rejected the token",
	ErrCodeNotFound:      "The project or dataset was not found",
	ErrCodeRateLimited:   "Content API rate limit exceeded",
	ErrCodeQueryError:    "The content query was rejected",
	ErrCodeMutationError: "The content mutation was rejected",
	ErrCodeDecodeError:   "The content API returned an unreadable response",
}

// GetErrorMessage returns the human-readable message for an error code
func GetErrorMessage(code string) string {
	if msg, exists := errorMessages[code]; exists {
		return msg
	}
	return "An unknown error occurred"
}

// Error represents a failed call to the hosted content API
type Error struct {
	Code       string
	Message    string
	StatusCode int
	Details    string
	Err        error
}

func (e *Error) Error() string {
	switch {
	case e.Err != nil:
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	case e.Details != "":
		return fmt.Sprintf("%s: %s", e.Message, e.Details)
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

// errorFromStatus converts a non-2xx response into an *Error. mutation selects
// the code used for 400 responses.
func errorFromStatus(status int, details string, mutation bool) *Error {
	code := ErrCodeNetworkError
	switch status {
	case http.StatusUnauthorized, http.StatusForbidden:
		code = ErrCodeUnauthorized
	case http.StatusNotFound:
		code = ErrCodeNotFound
	case http.StatusTooManyRequests:
		code = ErrCodeRateLimited
	case http.StatusBadRequest, http.StatusConflict:
		code = ErrCodeQueryError
		if mutation {
			code = ErrCodeMutationError
		}
	}

	msg := GetErrorMessage(code)
	if code == ErrCodeNetworkError {
		msg = fmt.Sprintf("HTTP %d from content API", status)
	}

	return &Error{
		Code:       code,
		Message:    msg,
		StatusCode: status,
		Details:    details,
	}
}
