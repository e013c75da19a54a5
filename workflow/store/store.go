// Package store provides snapshot persistence for workflow runs. The
// executor saves the state after every step; a paused run's checkpoint is
// what the caller persists between Start and Resume, and what a later
// process loads to resume the run.
package store

import (
	"context"
	"errors"
)

// ErrNotFound is returned when a requested run or checkpoint does not
// exist.
var ErrNotFound = errors.New("not found")

// Store persists step-by-step state history and named checkpoints.
//
// Type parameter S is the state type to persist; it must be
// JSON-serializable.
type Store[S any] interface {
	// SaveStep persists the state after one node execution. Steps are
	// identified by run ID plus a 1-indexed step number.
	SaveStep(ctx context.Context, runID string, step int, node string, state S) error

	// LoadLatest retrieves the most recent state for a run, returning
	// ErrNotFound when the run has no persisted steps.
	LoadLatest(ctx context.Context, runID string) (state S, step int, err error)

	// SaveCheckpoint creates a named snapshot, typically at a pause
	// point. Saving an existing checkpoint ID overwrites it.
	SaveCheckpoint(ctx context.Context, cpID string, state S, step int) error

	// LoadCheckpoint retrieves a named snapshot, returning ErrNotFound
	// when it does not exist.
	LoadCheckpoint(ctx context.Context, cpID string) (state S, step int, err error)
}

// StepRecord is one persisted execution step.
type StepRecord[S any] struct {
	Step  int
	Node  string
	State S
}

// Checkpoint is a named snapshot of workflow state.
type Checkpoint[S any] struct {
	ID    string
	State S
	Step  int
}
