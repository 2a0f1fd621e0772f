package domain

import "errors"

// Domain errors shared across layers. Callers wrap them with context and
// match with errors.Is.
var (
	// Remote store errors
	ErrFetchFailed      = errors.New("fetch failed")
	ErrMalformedPayload = errors.New("malformed payload")
	ErrMutationFailed   = errors.New("mutation failed")

	// Validation errors
	ErrInvalidTenant  = errors.New("invalid tenant")
	ErrInvalidFileOp  = errors.New("invalid file operation")
	ErrInvalidPayload = errors.New("invalid file payload")
	ErrPathEscape     = errors.New("path escapes page directory")
	ErrPageNotFound   = errors.New("page not found")

	// Cycle errors
	ErrCycleInProgress = errors.New("cycle already in progress")
	ErrJobNotFound     = errors.New("job not found")
)
