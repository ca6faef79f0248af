package testsupport

import (
	"sort"
	"sync"
	"time"

	"github.com/goliatone/go-formstate/pkg/forms"
)

// ManualClock is a forms.Clock that only moves when Advance is called.
// Callbacks due at or before the new time run synchronously, in due order, on
// the caller's goroutine.
type ManualClock struct {
	mu     sync.Mutex
	now    time.Duration
	seq    int
	timers []*manualTimer
}

var _ forms.Clock = (*ManualClock)(nil)

// NewManualClock returns a clock positioned at zero.
func NewManualClock() *ManualClock {
	return &ManualClock{}
}

type manualTimer struct {
	clock   *ManualClock
	due     time.Duration
	seq     int
	fn      func()
	stopped bool
}

// AfterFunc implements forms.Clock.
func (c *ManualClock) AfterFunc(d time.Duration, f func()) forms.Timer {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.seq++
	t := &manualTimer{clock: c, due: c.now + d, seq: c.seq, fn: f}
	c.timers = append(c.timers, t)
	return t
}

func (t *manualTimer) Stop() bool {
	t.clock.mu.Lock()
	defer t.clock.mu.Unlock()
	if t.stopped {
		return false
	}
	t.stopped = true
	return true
}

// Advance moves the clock forward by d and fires every due timer.
func (c *ManualClock) Advance(d time.Duration) {
	c.mu.Lock()
	target := c.now + d
	c.mu.Unlock()

	for {
		c.mu.Lock()
		next := c.nextDueLocked(target)
		if next == nil {
			c.now = target
			c.mu.Unlock()
			return
		}
		next.stopped = true
		c.now = next.due
		c.mu.Unlock()
		next.fn()
	}
}

// Pending reports the number of armed timers.
func (c *ManualClock) Pending() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	count := 0
	for _, t := range c.timers {
		if !t.stopped {
			count++
		}
	}
	return count
}

func (c *ManualClock) nextDueLocked(limit time.Duration) *manualTimer {
	live := c.timers[:0]
	for _, t := range c.timers {
		if !t.stopped {
			live = append(live, t)
		}
	}
	c.timers = live
	sort.SliceStable(c.timers, func(i, j int) bool {
		if c.timers[i].due == c.timers[j].due {
			return c.timers[i].seq < c.timers[j].seq
		}
		return c.timers[i].due < c.timers[j].due
	})
	if len(c.timers) == 0 || c.timers[0].due > limit {
		return nil
	}
	return c.timers[0]
}
