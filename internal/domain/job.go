package domain

import "time"

// Scheduler job names.
const (
	JobPages = "pages"
	JobFiles = "files"
)

// JobEntry describes the state of a scheduled job.
type JobEntry struct {
	Name     string
	Interval time.Duration
	LastRun  time.Time
	NextRun  time.Time
	Running  bool
	Pending  bool
}
