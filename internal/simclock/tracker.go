// Package simclock tracks which simulation iteration is currently running.
// The tracker is an explicit dependency handed to the components that stamp
// iteration numbers, rather than process-global state.
package simclock

import "sync/atomic"

// #region tracker

// Tracker exposes the current iteration number. A single controller-side
// callback writes it once per iteration; replanning and reward code only read.
type Tracker struct {
	iteration atomic.Int64
}

// NewTracker returns a tracker positioned before the first iteration.
func NewTracker() *Tracker {
	return &Tracker{}
}

// OnIterationStarts records the iteration that is about to run. Wire this to
// the engine's iteration-started notification.
func (t *Tracker) OnIterationStarts(iteration int) {
	t.iteration.Store(int64(iteration))
}

// Current returns the most recently started iteration.
func (t *Tracker) Current() int {
	return int(t.iteration.Load())
}

// #endregion tracker
