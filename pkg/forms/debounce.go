package forms

import (
	"sync"
	"time"
)

// Timer is the handle returned by Clock.AfterFunc.
type Timer interface {
	Stop() bool
}

// Clock schedules deferred callbacks. Tests swap in a manual clock.
type Clock interface {
	AfterFunc(d time.Duration, f func()) Timer
}

// SystemClock schedules with time.AfterFunc.
type SystemClock struct{}

// AfterFunc implements Clock.
func (SystemClock) AfterFunc(d time.Duration, f func()) Timer {
	return time.AfterFunc(d, f)
}

// debouncer delivers the latest triggered value once wait elapses without a
// new trigger. The sink runs under delivering, not mu, so it may trigger again;
// stop waits on delivering so it never returns while a delivery is in progress.
type debouncer struct {
	delivering sync.Mutex
	mu         sync.Mutex
	clock   Clock
	wait    time.Duration
	sink    func(any)
	latest  any
	seq     uint64
	timer   Timer
	stopped bool
}

func newDebouncer(clock Clock, wait time.Duration, sink func(any)) *debouncer {
	return &debouncer{clock: clock, wait: wait, sink: sink}
}

func (d *debouncer) trigger(value any) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.stopped {
		return
	}
	d.latest = value
	d.seq++
	seq := d.seq
	if d.timer != nil {
		d.timer.Stop()
	}
	d.timer = d.clock.AfterFunc(d.wait, func() { d.fire(seq) })
}

func (d *debouncer) fire(seq uint64) {
	d.delivering.Lock()
	defer d.delivering.Unlock()

	d.mu.Lock()
	if d.stopped || seq != d.seq {
		d.mu.Unlock()
		return
	}
	d.timer = nil
	value := d.latest
	d.latest = nil
	d.mu.Unlock()

	d.sink(value)
}

func (d *debouncer) stop() {
	d.mu.Lock()
	if d.stopped {
		d.mu.Unlock()
		return
	}
	d.stopped = true
	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
	d.latest = nil
	d.mu.Unlock()

	// wait out a delivery already past the stopped check
	d.delivering.Lock()
	d.delivering.Unlock()
}

// Subscription is a registered change listener.
type Subscription struct {
	id     uint64
	engine *Engine
	deb    *debouncer
	once   sync.Once
}

// Cancel stops further deliveries and drops any pending one. It must not be
// called from inside the subscription's own sink.
func (s *Subscription) Cancel() {
	if s == nil {
		return
	}
	s.once.Do(func() {
		s.deb.stop()
		if s.engine != nil {
			s.engine.unsubscribe(s.id)
		}
	})
}
