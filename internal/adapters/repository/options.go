package repository

import "github.com/okian/siegeboard/pkg/logger"

// Option applies a configuration option to the SQLiteStore.
type Option func(*SQLiteStore)

// WithKeepRuns bounds how many runs stay archived. Older runs are pruned
// after each save.
func WithKeepRuns(n int) Option {
	return func(s *SQLiteStore) {
		if n > 0 {
			s.keepRuns = n
		}
	}
}

// WithLogger sets the logger.
func WithLogger(l logger.Logger) Option {
	return func(s *SQLiteStore) {
		if l != nil {
			s.log = l
		}
	}
}
