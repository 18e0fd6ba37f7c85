package scheduler

import (
	"context"
	"sync"
	"time"
)

// Ticker delivers ticks at a fixed period
type Ticker interface {
	C() <-chan time.Time
	Stop()
}

// Clock is the time source used by sampling loops
type Clock interface {
	Now() time.Time
	NewTicker(d time.Duration) Ticker
}

// SystemClock is the wall clock
type SystemClock struct{}

// Now returns the current time
func (SystemClock) Now() time.Time {
	return time.Now()
}

// NewTicker wraps time.NewTicker
func (SystemClock) NewTicker(d time.Duration) Ticker {
	return &systemTicker{t: time.NewTicker(d)}
}

type systemTicker struct {
	t *time.Ticker
}

func (s *systemTicker) C() <-chan time.Time { return s.t.C }
func (s *systemTicker) Stop() { s.t.Stop() }

// Window is a fixed observation window sampled at a fixed interval
type Window struct {
	Duration time.Duration
	Interval time.Duration
}

// Ticks returns how many checks start while elapsed time is below the
// window duration. A window shorter than one interval has zero ticks.
func (w Window) Ticks() int {
	if w.Duration <= 0 || w.Interval <= 0 || w.Duration < w.Interval {
		return 0
	}
	ticks := w.Duration / w.Interval
	if w.Duration%w.Interval != 0 {
		ticks++
	}
	return int(ticks)
}

// Run invokes fn once per tick of the window, waiting one interval between
// ticks. There is no wait after the final tick. It returns ctx.Err() if the
// context is cancelled while waiting.
func Run(ctx context.Context, clock Clock, w Window, fn func(tick int, elapsed time.Duration)) error {
	ticks := w.Ticks()
	if ticks == 0 {
		return nil
	}

	ticker := clock.NewTicker(w.Interval)
	defer ticker.Stop()

	var elapsed time.Duration
	for tick := 1; tick <= ticks; tick++ {
		fn(tick, elapsed)

		if tick == ticks {
			break
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C():
		}
		elapsed += w.Interval
	}

	return nil
}

// ManualClock is a virtual clock for tests. Every wait on one of its tickers
// completes immediately and advances virtual time by the ticker period.
type ManualClock struct {
	mu    sync.Mutex
	now   time.Time
	waits int
}

// NewManualClock creates a manual clock starting at start
func NewManualClock(start time.Time) *ManualClock {
	return &ManualClock{now: start}
}

// Now returns the virtual time
func (m *ManualClock) Now() time.Time {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.now
}

// Waits returns how many ticks have been delivered
func (m *ManualClock) Waits() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.waits
}

// NewTicker creates a ticker that fires on demand
func (m *ManualClock) NewTicker(d time.Duration) Ticker {
	return &manualTicker{clock: m, period: d, ch: make(chan time.Time, 1)}
}

type manualTicker struct {
	clock  *ManualClock
	period time.Duration
	ch     chan time.Time
}

func (t *manualTicker) C() <-chan time.Time {
	t.clock.mu.Lock()
	t.clock.now = t.clock.now.Add(t.period)
	t.clock.waits++
	now := t.clock.now
	t.clock.mu.Unlock()

	select {
	case t.ch <- now:
	default:
	}
	return t.ch
}

func (t *manualTicker) Stop() {}
