package repository

import "errors"

// Sentinel kinds for archive errors.
var (
	ErrNotFound = errors.New("repository: no archived run")
	ErrNilRun   = errors.New("repository: nil run")
	ErrNoPath   = errors.New("repository: empty database path")
)
