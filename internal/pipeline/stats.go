package pipeline

import "time"

// Summary holds the counters of one run. The runner owns it while the run
// is active; the copy delivered at the end never changes afterwards.
type Summary struct {
	RunID string `json:"runId"`
	State State  `json:"state"`

	Total     int  `json:"total"` // Jobs planned.
	Converted int  `json:"converted"`
	Skipped   int  `json:"skipped"`
	Errored   int  `json:"errored"`
	Filtered  int  `json:"filtered"` // Files excluded while scanning.
	Cancelled bool `json:"cancelled"`

	OutputBytes int64     `json:"outputBytes"`
	StartedAt   time.Time `json:"startedAt"`
	FinishedAt  time.Time `json:"finishedAt,omitzero"`
}

// Attempted is the number of jobs that produced an outcome.
func (s Summary) Attempted() int {
	return s.Converted + s.Skipped + s.Errored
}

// Unattempted is the number of planned jobs a cancellation left untouched.
func (s Summary) Unattempted() int {
	return s.Total - s.Attempted()
}

// Elapsed is the wall time of the run so far, or of the whole run once it
// has finished.
func (s Summary) Elapsed() time.Duration {
	if s.StartedAt.IsZero() {
		return 0
	}
	if s.FinishedAt.IsZero() {
		return time.Since(s.StartedAt)
	}
	return s.FinishedAt.Sub(s.StartedAt)
}
