package job

import "sync/atomic"

// Gate is a single-slot mutual exclusion flag. Acquisition never blocks.
type Gate struct {
	held atomic.Bool
}

// TryAcquire takes the gate if it is free.
func (g *Gate) TryAcquire() bool {
	return g.held.CompareAndSwap(false, true)
}

// Release frees the gate.
func (g *Gate) Release() {
	g.held.Store(false)
}

// Busy reports whether the gate is held.
func (g *Gate) Busy() bool {
	return g.held.Load()
}
