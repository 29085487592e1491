package collector

import "errors"

// Errors returned before any page is fetched.
var (
	ErrInvalidRange   = errors.New("collector: invalid year range")
	ErrInvalidBaseURL = errors.New("collector: invalid base url")
	ErrNotConfigured  = errors.New("collector: fetcher or extractor missing")
)

// ErrInterrupted is returned when the context ends while pages are in flight.
// The partial result is discarded.
var ErrInterrupted = errors.New("collector: collection interrupted")
