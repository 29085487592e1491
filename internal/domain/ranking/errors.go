package ranking

import "errors"

// Sentinel kinds for ranking errors.
var (
	ErrNoSource = errors.New("ranking has no shared data source")
)
