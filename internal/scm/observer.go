package scm

import "github.com/san-kum/scmodel/internal/galaxy"

// Snapshot is the state of a model right after an iteration completed.
// Potential and ActionFinder always belong together.
type Snapshot struct {
	Iteration    int
	Potential    galaxy.Potential
	ActionFinder galaxy.ActionFinder
	Components   []Component
}

// Observer is notified after every completed iteration.
type Observer interface {
	OnIteration(s Snapshot)
}

// ProgressObserver additionally receives per-component progress within an
// iteration. index is zero-based.
type ProgressObserver interface {
	Observer
	OnComponentUpdated(iteration, index, total int)
}

// ObserverFunc adapts a function to the Observer interface.
type ObserverFunc func(Snapshot)

func (f ObserverFunc) OnIteration(s Snapshot) { f(s) }
