package fetch

import "errors"

// Sentinel errors for page fetches.
var (
	// ErrBadStatus marks a response outside the 2xx range.
	ErrBadStatus = errors.New("fetch: unexpected status")
	// ErrEmptyURL marks an empty target.
	ErrEmptyURL = errors.New("fetch: empty url")
)
