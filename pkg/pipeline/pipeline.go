// Package pipeline provides the modified-time bookkeeping behind the lazy,
// demand-driven dataflow graph: every stage records the stamp of its last
// parameter change and caches its output together with the stamp at which it
// was produced.
package pipeline

import "sync/atomic"

// Stamp is a point on the global modification clock. Larger is newer.
type Stamp uint64

var clock atomic.Uint64

// Tick advances the global clock and returns the new stamp.
func Tick() Stamp {
	return Stamp(clock.Add(1))
}

// Newest returns the largest of the given stamps.
func Newest(stamps ...Stamp) Stamp {
	var m Stamp
	for _, s := range stamps {
		if s > m {
			m = s
		}
	}
	return m
}

// Modified tracks the last time a node's own parameters changed.
// The zero value is valid and reports stamp 0 until Modify is called.
type Modified struct {
	mtime Stamp
}

// Modify marks the node as changed now.
func (m *Modified) Modify() {
	m.mtime = Tick()
}

// MTime returns the stamp of the last call to Modify.
func (m *Modified) MTime() Stamp {
	return m.mtime
}

// Memo caches the output of a node. The cached value is reused while no
// dependency stamp is newer than the stamp the value was computed at.
type Memo[T any] struct {
	value T
	stamp Stamp
	valid bool
}

// Get returns the cached value when it is at least as new as upstream,
// otherwise it calls recompute and caches the result under a fresh stamp.
func (m *Memo[T]) Get(upstream Stamp, recompute func() T) (T, Stamp) {
	if m.valid && m.stamp >= upstream {
		return m.value, m.stamp
	}
	m.value = recompute()
	m.stamp = Tick()
	m.valid = true
	return m.value, m.stamp
}

// Invalidate drops the cached value so the next Get recomputes.
func (m *Memo[T]) Invalidate() {
	var zero T
	m.value = zero
	m.valid = false
}

// Stamp returns the stamp of the cached value, or 0 when nothing is cached.
func (m *Memo[T]) Stamp() Stamp {
	if !m.valid {
		return 0
	}
	return m.stamp
}
