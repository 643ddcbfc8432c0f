package domain

import "time"

// DefaultHistoryRetention is how many cycle results are kept.
const DefaultHistoryRetention = 100

// CycleResult records the outcome of one sync cycle.
type CycleResult struct {
	// StartedAt is when the cycle began.
	StartedAt time.Time

	// EndedAt is when the cycle finished.
	EndedAt time.Time

	// Success is true if both upload and download completed.
	Success bool

	// Error contains the cycle failure message if Success is false.
	Error string

	// Uploaded is the number of records sent in the batch.
	Uploaded int

	// Rejected is the number of records the server named as failed.
	Rejected int

	// Downloaded is the number of server changes received.
	Downloaded int
}

// Duration returns how long the cycle took.
func (r CycleResult) Duration() time.Duration {
	return r.EndedAt.Sub(r.StartedAt)
}
