package model

import "time"

// RunStatus is the lifecycle state of a verification run.
type RunStatus string

const (
	StatusPending   RunStatus = "pending"   // created, no events yet
	StatusStreaming RunStatus = "streaming" // first event observed
	StatusCompleted RunStatus = "completed" // terminal complete, result persisted
	StatusFailed    RunStatus = "failed"    // terminal error or persistence failure
)

// Run identifies one verification session. The ID is an opaque slug,
// chosen by the client or generated server-side, and keys both the
// event log and the durable result row.
type Run struct {
	ID          string     `json:"id"`
	Status      RunStatus  `json:"status"`
	CreatedAt   time.Time  `json:"created_at"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
	Result      []Event    `json:"result,omitempty"` // populated only once, at completion
}
