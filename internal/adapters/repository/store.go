// Package repository archives collection runs so a restart can reuse them.
package repository

import (
	"context"

	"github.com/okian/siegeboard/internal/domain/model"
)

// Store persists collection runs.
type Store interface {
	// SaveRun archives one collection. Saving the same RunID twice replaces it.
	SaveRun(ctx context.Context, data *model.SharedSiegeData) error

	// LatestRun returns the most recently collected run.
	// Returns ErrNotFound when nothing is archived.
	LatestRun(ctx context.Context) (*model.SharedSiegeData, error)

	Close() error
}
