package reactive

import (
	"sync"
	"time"
)

// Debouncer coalesces rapid pushes: it buffers the latest value and emits
// it only once no newer value has arrived within the delay window.
type Debouncer[T any] struct {
	mu     sync.Mutex
	delay  time.Duration
	timer  *time.Timer
	gen    int
	latest T
	emit   func(T)
}

func NewDebouncer[T any](delay time.Duration, emit func(T)) *Debouncer[T] {
	return &Debouncer[T]{delay: delay, emit: emit}
}

// Push buffers v and restarts the window. A push that lands inside an
// open window supersedes the buffered value, so only the newest survives.
//
// A timer that fires concurrently with a Push may lose the race for the
// lock after Stop already returned false; the generation check keeps such
// a stale callback from emitting on behalf of the newer window.
func (d *Debouncer[T]) Push(v T) {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.latest = v
	d.gen++
	gen := d.gen
	if d.timer != nil {
		d.timer.Stop()
	}
	d.timer = time.AfterFunc(d.delay, func() {
		d.mu.Lock()
		if gen != d.gen {
			d.mu.Unlock()
			return
		}
		value := d.latest
		d.timer = nil
		d.mu.Unlock()
		d.emit(value)
	})
}

// Stop cancels any pending emission. Buffered values are dropped, and a
// callback already in flight is invalidated.
func (d *Debouncer[T]) Stop() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.gen++
	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
}
