// Package eventloop runs every console callback on a single goroutine.
//
// Socket events, timers, resource completions and calls from the front end
// are all posted onto one Loop, so the session core never needs locks beyond
// the receive-queue gate.
package eventloop

import (
	"context"
	"sync"
	"time"
)

// Loop is an unbounded FIFO of tasks executed one at a time by Run.
type Loop struct {
	mu      sync.Mutex
	tasks   []func()
	wake    chan struct{}
	done    chan struct{}
	stopped bool
}

// New creates a loop. Nothing runs until Run is called.
func New() *Loop {
	return &Loop{
		wake: make(chan struct{}, 1),
		done: make(chan struct{}),
	}
}

// Post appends fn to the task queue. It is safe to call from any goroutine,
// including from a task running on the loop. Posts after the loop stopped
// are dropped.
func (l *Loop) Post(fn func()) {
	l.mu.Lock()
	if l.stopped {
		l.mu.Unlock()
		return
	}
	l.tasks = append(l.tasks, fn)
	l.mu.Unlock()

	select {
	case l.wake <- struct{}{}:
	default:
	}
}

// Call posts fn and blocks until it has run. It must not be called from a
// task running on the loop. It returns false if the loop stopped before fn
// could run.
func (l *Loop) Call(fn func()) bool {
	ran := make(chan struct{})
	l.Post(func() {
		fn()
		close(ran)
	})
	select {
	case <-ran:
		return true
	case <-l.done:
		return false
	}
}

// Run executes tasks until ctx is cancelled. Pending tasks are discarded on
// return.
func (l *Loop) Run(ctx context.Context) {
	defer func() {
		l.mu.Lock()
		l.stopped = true
		l.tasks = nil
		l.mu.Unlock()
		close(l.done)
	}()

	for {
		l.mu.Lock()
		tasks := l.tasks
		l.tasks = nil
		l.mu.Unlock()

		for _, fn := range tasks {
			if ctx.Err() != nil {
				return
			}
			fn()
		}

		select {
		case <-ctx.Done():
			return
		case <-l.wake:
		}
	}
}

// Done is closed once Run has returned.
func (l *Loop) Done() <-chan struct{} {
	return l.done
}

// Timer is a scheduled callback that can be cancelled.
type Timer interface {
	Stop()
}

type timer struct {
	once   sync.Once
	stopCh chan struct{}
	t      *time.Timer
	ticker *time.Ticker
}

func (t *timer) Stop() {
	t.once.Do(func() {
		close(t.stopCh)
		if t.t != nil {
			t.t.Stop()
		}
		if t.ticker != nil {
			t.ticker.Stop()
		}
	})
}

func (t *timer) stopped() bool {
	select {
	case <-t.stopCh:
		return true
	default:
		return false
	}
}

// AfterFunc runs fn on the loop once d has elapsed, unless stopped first.
func (l *Loop) AfterFunc(d time.Duration, fn func()) Timer {
	t := &timer{stopCh: make(chan struct{})}
	t.t = time.AfterFunc(d, func() {
		l.Post(func() {
			if !t.stopped() {
				fn()
			}
		})
	})
	return t
}

// Every runs fn on the loop every d until stopped.
func (l *Loop) Every(d time.Duration, fn func()) Timer {
	t := &timer{stopCh: make(chan struct{}), ticker: time.NewTicker(d)}
	go func() {
		for {
			select {
			case <-t.stopCh:
				return
			case <-l.done:
				t.Stop()
				return
			case <-t.ticker.C:
				l.Post(func() {
					if !t.stopped() {
						fn()
					}
				})
			}
		}
	}()
	return t
}
