// Package runctx stamps a run correlation ID into every audit row and log
// line for a single glidebill invocation.
package runctx

import "github.com/google/uuid"

// RunID is the correlation ID for one billing pass.
type RunID string

// New generates a fresh run correlation ID.
func New() RunID {
	return RunID(uuid.NewString())
}

func (r RunID) String() string { return string(r) }
