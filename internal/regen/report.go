package regen

import (
	"fmt"
	"time"

	"github.com/conneroisu/degyb/internal/treediff"
)

// State is the engine's view of the destination after its last pass.
type State int

const (
	// StatePending means no pass has run yet.
	StatePending State = iota
	// StateClean means the last pass completed and the destination matches
	// the templates.
	StateClean
	// StateFailed means the last pass aborted. Outputs promoted before the
	// failure remain and stale outputs were not swept.
	StateFailed
)

// String returns the string representation of the State
func (s State) String() string {
	switch s {
	case StatePending:
		return "PENDING"
	case StateClean:
		return "CLEAN"
	case StateFailed:
		return "FAILED"
	default:
		return "UNKNOWN"
	}
}

// Report lists what a regeneration pass did to the destination. Names are
// slash separated and relative to the destination root.
type Report struct {
	Written   []string
	Unchanged []string
	Removed   []string
	Duration  time.Duration
}

// Changed reports whether the pass modified the destination.
func (r *Report) Changed() bool {
	return len(r.Written) > 0 || len(r.Removed) > 0
}

// Summary returns a one line description of the pass.
func (r *Report) Summary() string {
	return fmt.Sprintf("%d written, %d unchanged, %d removed in %s",
		len(r.Written), len(r.Unchanged), len(r.Removed), r.Duration.Round(time.Millisecond))
}

// VerifyReport is the outcome of comparing a fresh regeneration against the
// committed destination.
type VerifyReport struct {
	// Generated is the number of outputs the fresh pass produced.
	Generated   int
	Differences []treediff.Difference
}

// UpToDate reports whether the destination matches its templates.
func (r *VerifyReport) UpToDate() bool {
	return len(r.Differences) == 0
}
