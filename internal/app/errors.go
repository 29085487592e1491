package service

import "errors"

// Sentinel errors surfaced to the trigger layer.
var (
	// ErrCollection wraps any failure to obtain the shared dataset.
	ErrCollection = errors.New("collection failed")
	// ErrUnknownRanking is returned when no ranking matches a lookup key.
	ErrUnknownRanking = errors.New("unknown ranking")
	// ErrNotConfigured is returned when the service has no collector.
	ErrNotConfigured = errors.New("service has no collector")
)
