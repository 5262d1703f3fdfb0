// Package checkpoint defines the Suspend/Resume persistence contract
// (spec §4.5/§6): {save(thread_id, state, position), load(thread_id)
// -> (state, position)?, resume(thread_id, value) -> run handle}.
// "Checkpoint format is opaque; the backend is abstract" — this
// package only fixes the Go-level shape; `resume` itself is a
// graphrunner operation (restoring the checkpoint and re-driving
// execution), not a Store method.
//
// Grounded on the teacher's store/checkpoint.go CheckpointStore
// interface and Checkpoint struct, renamed to this domain's
// thread_id/position vocabulary: the teacher's arbitrary
// checkpoint-ID-plus-execution-ID grouping becomes a single identity
// (ThreadID) per spec §4.5's "restores the checkpoint" (there is one
// live checkpoint per suspended thread, not an explorable version
// history), while Version/List/Delete/Clear are kept for the same
// operational reasons the teacher keeps them — debugging, backend
// parity, and bounding how many checkpoints a backend retains.
package checkpoint

import (
	"context"
	"time"
)

// Checkpoint is a saved suspension point: the state at the moment a
// SuspendAgent raised its Interrupt, plus enough position information
// to resume from that node.
type Checkpoint struct {
	ThreadID  string
	Position  string // the suspended node's name
	State     map[string]any
	Metadata  map[string]any
	Timestamp time.Time
	Version   int
}

// Store is the checkpoint backend abstraction (spec §6's Checkpoint
// backend contract). Implementations: checkpoint/memory (tests/single
// process), checkpoint/sqlitestore, checkpoint/redisstore,
// checkpoint/pgstore.
type Store interface {
	// Save persists checkpoint, keyed by its ThreadID. A second Save
	// for the same ThreadID overwrites the previous checkpoint (the
	// "current" one Load returns) while List retains every version.
	Save(ctx context.Context, checkpoint *Checkpoint) error

	// Load returns the most recent checkpoint for threadID, or
	// (nil, nil) if none exists — the spec's "load(thread_id) ->
	// (state, position)?" optional result.
	Load(ctx context.Context, threadID string) (*Checkpoint, error)

	// List returns every saved version for threadID, oldest first.
	List(ctx context.Context, threadID string) ([]*Checkpoint, error)

	// Delete removes a single checkpoint version. Most callers want
	// Clear; Delete exists for backend parity with the teacher's
	// per-ID granularity.
	Delete(ctx context.Context, threadID string, version int) error

	// Clear removes every checkpoint for threadID, e.g. once a
	// suspended run resumes to completion.
	Clear(ctx context.Context, threadID string) error
}
