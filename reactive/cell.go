// Package reactive provides the observable primitives the sync core is
// built on: a value cell with push-on-write subscriptions, and a
// coalescing debouncer for bursty inputs.
package reactive

import "sync"

// Disposer releases a subscription. The owning scope must invoke it
// exactly once on exit; extra calls are no-ops.
type Disposer func()

type subscriber[T any] struct {
	id int
	fn func(T)
}

// Cell holds a single observable value.
//
// Writes are push-on-write: Set stores the value, then synchronously
// notifies subscribers in registration order. There is one logical writer
// per cell (the most recent live-query delivery or the owning service),
// so the last write wins and readers never observe a partial update.
type Cell[T any] struct {
	mu    sync.Mutex
	value T
	subs  []subscriber[T]
	next  int
}

func NewCell[T any](initial T) *Cell[T] {
	return &Cell[T]{value: initial}
}

func (c *Cell[T]) Get() T {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.value
}

// Set stores v and notifies every subscriber with it. Callbacks run
// outside the cell lock, so a subscriber may read or write cells without
// deadlocking.
func (c *Cell[T]) Set(v T) {
	c.mu.Lock()
	c.value = v
	subs := make([]subscriber[T], len(c.subs))
	copy(subs, c.subs)
	c.mu.Unlock()

	for _, s := range subs {
		s.fn(v)
	}
}

// Subscribe registers fn and immediately invokes it with the current
// value, mirroring a live query's initial snapshot. The returned disposer
// detaches fn; calling it more than once is harmless.
func (c *Cell[T]) Subscribe(fn func(T)) Disposer {
	c.mu.Lock()
	id := c.next
	c.next++
	c.subs = append(c.subs, subscriber[T]{id: id, fn: fn})
	current := c.value
	c.mu.Unlock()

	fn(current)

	var once sync.Once
	return func() {
		once.Do(func() {
			c.mu.Lock()
			defer c.mu.Unlock()
			for i, s := range c.subs {
				if s.id == id {
					c.subs = append(c.subs[:i], c.subs[i+1:]...)
					break
				}
			}
		})
	}
}
