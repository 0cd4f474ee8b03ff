package consoletest

import (
	"sync"
	"testing"
	"time"

	"github.com/conletkit/console/internal/eventloop"
	"github.com/stretchr/testify/require"
)

// Scheduler queues posted tasks until the test runs them on its own
// goroutine. Timers fire only when the test says so.
type Scheduler struct {
	mu     sync.Mutex
	tasks  []func()
	timers []*Timer
}

// Timer is a timer created by Scheduler.
type Timer struct {
	D       time.Duration
	Every   bool
	fn      func()
	stopped bool
}

func (t *Timer) Stop() { t.stopped = true }

// Stopped reports whether the timer was stopped or, for one-shot timers,
// has fired.
func (t *Timer) Stopped() bool { return t.stopped }

func NewScheduler() *Scheduler {
	return &Scheduler{}
}

// Post is safe to call from any goroutine.
func (s *Scheduler) Post(fn func()) {
	s.mu.Lock()
	s.tasks = append(s.tasks, fn)
	s.mu.Unlock()
}

func (s *Scheduler) AfterFunc(d time.Duration, fn func()) eventloop.Timer {
	t := &Timer{D: d, fn: fn}
	s.timers = append(s.timers, t)
	return t
}

func (s *Scheduler) Every(d time.Duration, fn func()) eventloop.Timer {
	t := &Timer{D: d, fn: fn, Every: true}
	s.timers = append(s.timers, t)
	return t
}

// Run runs queued tasks, including the ones they post, and returns how
// many ran.
func (s *Scheduler) Run() int {
	n := 0
	for {
		s.mu.Lock()
		tasks := s.tasks
		s.tasks = nil
		s.mu.Unlock()
		if len(tasks) == 0 {
			return n
		}
		for _, fn := range tasks {
			fn()
			n++
		}
	}
}

// RunUntil runs tasks as they arrive until cond holds.
func (s *Scheduler) RunUntil(t testing.TB, cond func() bool) {
	t.Helper()
	require.Eventually(t, func() bool {
		s.Run()
		return cond()
	}, 2*time.Second, time.Millisecond)
}

// FireAfter fires every active one-shot timer and returns how many fired.
func (s *Scheduler) FireAfter() int {
	n := 0
	for _, t := range s.timers {
		if !t.Every && !t.stopped {
			t.stopped = true
			t.fn()
			n++
		}
	}
	return n
}

// Tick fires every active periodic timer once and returns how many fired.
func (s *Scheduler) Tick() int {
	n := 0
	for _, t := range s.timers {
		if t.Every && !t.stopped {
			t.fn()
			n++
		}
	}
	return n
}

// PendingAfter counts the one-shot timers that have neither fired nor
// been stopped.
func (s *Scheduler) PendingAfter() int {
	n := 0
	for _, t := range s.timers {
		if !t.Every && !t.stopped {
			n++
		}
	}
	return n
}

// Ticker returns the first active periodic timer, or nil.
func (s *Scheduler) Ticker() *Timer {
	for _, t := range s.timers {
		if t.Every && !t.stopped {
			return t
		}
	}
	return nil
}
