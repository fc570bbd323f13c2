package domain

import "errors"

// Domain errors
var (
	ErrHighlightNotFound       = errors.New("highlight not found")
	ErrAccessDenied            = errors.New("access denied")
	ErrInvalidAPIKey           = errors.New("invalid API key")
	ErrAPIKeyNotFound          = errors.New("API key not found")
	ErrInvalidToken            = errors.New("invalid token")
	ErrInvalidStatusTransition = errors.New("invalid status transition")
	ErrConcurrentUpdate        = errors.New("highlight was modified concurrently")
	ErrExtractionFailed        = errors.New("content extraction failed")
	ErrPageCacheEntryNotFound  = errors.New("cached page not found")
	ErrExtractionUnavailable   = errors.New("extraction service unavailable")
)

// ValidationError represents a validation error with field and message information.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field != "" {
		return e.Field + ": " + e.Message
	}
	return e.Message
}
