// Package resource loads the stylesheets and scripts that conlet types
// declare, in dependency order, and holds back inbound messages while
// scripts are in flight.
package resource

import (
	"log"
	"sort"
	"strings"
	"time"

	"github.com/conletkit/console/internal/eventloop"
	"github.com/conletkit/console/internal/protocol"
)

const defaultReportAfter = 5 * time.Second

// Scheduler serializes callbacks onto the console's goroutine.
type Scheduler interface {
	Post(fn func())
	AfterFunc(d time.Duration, fn func()) eventloop.Timer
}

// Locker is the receive-queue gate. *transport.Channel implements it.
type Locker interface {
	LockReceiver()
	UnlockReceiver()
}

// Options configure a Manager.
type Options struct {
	Head      Head
	Scheduler Scheduler
	Locker    Locker
	// ReportAfter is how long resources may stay pending before they are
	// logged.
	ReportAfter time.Duration
	Logger      *log.Logger
}

// Manager tracks the capabilities provided by loaded scripts and starts
// parked scripts as their requirements become available. It must be used
// from the scheduler's goroutine.
type Manager struct {
	head        Head
	sched       Scheduler
	locker      Locker
	reportAfter time.Duration
	log         *log.Logger

	provided   map[string]bool
	seen       map[string]bool
	unresolved []protocol.ScriptResource
	inFlight   []protocol.ScriptResource
	// locks taken by LockWhileLoading, released when loading completes.
	locks       int
	reportTimer eventloop.Timer
}

// NewManager creates a manager with an empty provided set.
func NewManager(opts Options) *Manager {
	m := &Manager{
		head:        opts.Head,
		sched:       opts.Scheduler,
		locker:      opts.Locker,
		reportAfter: opts.ReportAfter,
		log:         opts.Logger,
		provided:    make(map[string]bool),
		seen:        make(map[string]bool),
	}
	if m.head == nil {
		m.head = NewMemoryHead(nil)
	}
	if m.reportAfter <= 0 {
		m.reportAfter = defaultReportAfter
	}
	if m.log == nil {
		m.log = log.Default()
	}
	return m
}

// SetLocker sets the receive-queue gate used by LockWhileLoading.
func (m *Manager) SetLocker(l Locker) {
	m.locker = l
}

// AddPageResources adds the stylesheets, inline CSS and scripts not yet
// present in the head. Scripts whose requirements are met start at once;
// the others are parked until some loaded script provides what they need.
func (m *Manager) AddPageResources(cssURIs []string, cssSource string, scripts []protocol.ScriptResource) {
	for _, uri := range cssURIs {
		if uri == "" || m.head.HasStylesheet(uri) {
			continue
		}
		m.head.InsertStylesheet(uri)
	}
	if strings.TrimSpace(cssSource) != "" {
		m.head.InsertStyle(cssSource)
	}

	for _, res := range scripts {
		if res.URI != "" {
			if m.seen[res.URI] || m.head.HasScript(res.URI) {
				continue
			}
			m.seen[res.URI] = true
		}
		m.unresolved = append(m.unresolved, res)
	}
	m.resolve()
	m.armReport()
}

// resolve starts every parked script whose requirements are provided,
// repeating until nothing more can start. Inline scripts provide their
// capabilities immediately and may unblock others.
func (m *Manager) resolve() {
	for i := 0; i < len(m.unresolved); {
		res := m.unresolved[i]
		if !m.satisfied(res) {
			i++
			continue
		}
		m.unresolved = append(m.unresolved[:i], m.unresolved[i+1:]...)
		m.start(res)
		i = 0
	}
}

func (m *Manager) satisfied(res protocol.ScriptResource) bool {
	for _, name := range res.Requires {
		if !m.provided[name] {
			return false
		}
	}
	return true
}

func (m *Manager) start(res protocol.ScriptResource) {
	if res.URI == "" {
		m.head.InjectScript(res, nil)
		m.provide(res)
		return
	}
	m.inFlight = append(m.inFlight, res)
	m.head.InjectScript(res, func(err error) {
		m.sched.Post(func() { m.loaded(res, err) })
	})
}

func (m *Manager) provide(res protocol.ScriptResource) {
	for _, name := range res.Provides {
		m.provided[name] = true
	}
}

// loaded handles the completion of a script with a URI.
func (m *Manager) loaded(res protocol.ScriptResource, err error) {
	for i, r := range m.inFlight {
		if r.URI == res.URI {
			m.inFlight = append(m.inFlight[:i], m.inFlight[i+1:]...)
			break
		}
	}
	if err != nil {
		// Dependents stay parked and show up in the pending report.
		m.log.Printf("resource %s failed to load: %v", res.Label(), err)
	} else {
		m.provide(res)
		m.resolve()
	}
	if len(m.inFlight) == 0 {
		m.releaseLocks()
	}
}

// LockWhileLoading locks the receive queue if any script is in flight and
// arranges for it to be unlocked when the last one completes. It reports
// whether a lock was taken.
func (m *Manager) LockWhileLoading() bool {
	if len(m.inFlight) == 0 || m.locker == nil {
		return false
	}
	m.locker.LockReceiver()
	m.locks++
	return true
}

func (m *Manager) releaseLocks() {
	for m.locks > 0 {
		m.locks--
		m.locker.UnlockReceiver()
	}
}

// Loading returns the number of scripts in flight.
func (m *Manager) Loading() int {
	return len(m.inFlight)
}

// Provided returns the provided capability names, sorted.
func (m *Manager) Provided() []string {
	out := make([]string, 0, len(m.provided))
	for name := range m.provided {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// Pending returns the parked scripts in submission order.
func (m *Manager) Pending() []protocol.ScriptResource {
	return append([]protocol.ScriptResource(nil), m.unresolved...)
}

func (m *Manager) armReport() {
	if m.reportTimer != nil || m.sched == nil {
		return
	}
	if len(m.unresolved) == 0 && len(m.inFlight) == 0 {
		return
	}
	m.reportTimer = m.sched.AfterFunc(m.reportAfter, func() {
		m.reportTimer = nil
		m.report()
	})
}

func (m *Manager) report() {
	for _, res := range m.inFlight {
		m.log.Printf("resource %s still loading after %v", res.Label(), m.reportAfter)
	}
	for _, res := range m.unresolved {
		var missing []string
		for _, name := range res.Requires {
			if !m.provided[name] {
				missing = append(missing, name)
			}
		}
		m.log.Printf("resource %s waiting for %s", res.Label(), strings.Join(missing, ", "))
	}
}
