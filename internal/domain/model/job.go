package model

import "time"

// JobKind says what a preload job warms.
type JobKind string

const (
	// JobShared collects the shared dataset.
	JobShared JobKind = "shared"
	// JobRanking derives one ranking's all-years result.
	JobRanking JobKind = "ranking"
)

// PreloadJob is one unit of cache warming.
type PreloadJob struct {
	Kind    JobKind
	Ranking string
	// Batch groups the jobs of one preload pass.
	Batch      string
	EnqueuedAt time.Time
}
