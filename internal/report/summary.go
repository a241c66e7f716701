package report

import (
	"time"

	"github.com/google/uuid"
)

// RunSummary is reporting metadata about one CLI invocation. It is
// produced after the classifier finishes and handed, read-only, to
// whatever sinks and HTTP handlers want to describe the run — it never
// feeds back into classifier state.
type RunSummary struct {
	RunID            uuid.UUID `json:"runId"`
	UserA            uint64    `json:"userA"`
	UserB            uint64    `json:"userB"`
	StartedAt        time.Time `json:"startedAt"`
	FinishedAt       time.Time `json:"finishedAt"`
	CopyMatches      int       `json:"copyMatches"`
	ReversalMatches  int       `json:"reversalMatches"`
	PartialMatches   int       `json:"partialCopyMatches"`
	ViolationCount   int       `json:"violationCount,omitempty"`
	ViolationsScored bool      `json:"violationsScored"`
}

// Duration returns how long the run took.
func (s RunSummary) Duration() time.Duration {
	return s.FinishedAt.Sub(s.StartedAt)
}
