// Package console is the client side of a console session. It wires the
// server's notifications to handlers, keeps the registry of displayed
// conlets and drives their life cycle against an injected Renderer.
//
// A Console is not safe for concurrent use. Every method, including those
// called by the renderer, must run on the goroutine that executes the
// Scheduler's tasks.
package console

import (
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/conletkit/console/internal/dom"
	"github.com/conletkit/console/internal/protocol"
	"github.com/conletkit/console/internal/resource"
	"github.com/conletkit/console/internal/store"
	"github.com/conletkit/console/internal/transport"
)

// ConletFunction is a function a conlet type registers to be invoked by
// the server with notifyConletView.
type ConletFunction func(conletID string, params []json.RawMessage)

// Options configure a Console.
type Options struct {
	// BaseURL is the console's page URL, e.g. "http://localhost:8888/vjconsole".
	BaseURL string
	// Namespace scopes the persisted session id.
	Namespace string
	// SessionID overrides the generated session id.
	SessionID string
	Locale    string

	RefreshInterval     time.Duration
	InactivityTimeout   time.Duration
	ReconnectDelay      time.Duration
	ResourceReportAfter time.Duration

	Scheduler transport.Scheduler
	Dialer    transport.Dialer
	Head      resource.Head
	Store     store.LocalStore
	Hooks     *dom.Hooks
	Renderer  Renderer
	// OnReload is called when the server asks the client to reload. The
	// caller is expected to close this console and start a new one.
	OnReload func()
	Logger   *log.Logger
}

// Console is the session controller.
type Console struct {
	namespace string
	locale    string
	channel   *transport.Channel
	resources *resource.Manager
	hooks     *dom.Hooks
	renderer  Renderer
	store     store.LocalStore
	onReload  func()
	log       *log.Logger

	reg       *registry
	functions map[string]map[string]ConletFunction
	layout    Layout
}

// New creates a console session. The session id is taken from
// opts.SessionID or generated; the id saved by a previous run in the same
// namespace is sent once as migration hint.
func New(opts Options) (*Console, error) {
	if opts.Scheduler == nil {
		return nil, fmt.Errorf("console: no scheduler")
	}
	c := &Console{
		namespace: opts.Namespace,
		locale:    opts.Locale,
		hooks:     opts.Hooks,
		renderer:  opts.Renderer,
		store:     opts.Store,
		onReload:  opts.OnReload,
		log:       opts.Logger,
		reg:       newRegistry(),
		functions: make(map[string]map[string]ConletFunction),
	}
	if c.log == nil {
		c.log = log.Default()
	}
	if c.hooks == nil {
		c.hooks = dom.NewHooks(c.log)
	}
	if c.renderer == nil {
		c.renderer = NopRenderer{}
	}
	if c.store == nil {
		c.store = store.NewMemoryStore()
	}

	session := &transport.Session{
		ID:                opts.SessionID,
		RefreshInterval:   opts.RefreshInterval,
		InactivityTimeout: opts.InactivityTimeout,
	}
	if session.ID == "" {
		id, err := generateSessionID()
		if err != nil {
			return nil, err
		}
		session.ID = id
	}
	if prev, err := c.store.SessionID(c.namespace); err != nil {
		c.log.Printf("console: read session id: %v", err)
	} else if prev != session.ID {
		session.PreviousID = prev
	}
	if err := c.store.SetSessionID(c.namespace, session.ID); err != nil {
		c.log.Printf("console: save session id: %v", err)
	}

	c.channel = transport.NewChannel(transport.Options{
		BaseURL:        opts.BaseURL,
		Session:        session,
		Dialer:         opts.Dialer,
		Scheduler:      opts.Scheduler,
		Listener:       c,
		ReconnectDelay: opts.ReconnectDelay,
		Logger:         c.log,
	})
	c.resources = resource.NewManager(resource.Options{
		Head:        opts.Head,
		Scheduler:   opts.Scheduler,
		Locker:      c.channel,
		ReportAfter: opts.ResourceReportAfter,
		Logger:      c.log,
	})
	c.registerHandlers()
	return c, nil
}

// generateSessionID creates a random session id (32 hex chars).
func generateSessionID() (string, error) {
	b := make([]byte, 16)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("console: generate session id: %w", err)
	}
	return hex.EncodeToString(b), nil
}

// Start connects and announces the client.
func (c *Console) Start() {
	c.Ready()
	c.channel.Connect()
}

// Close ends the session, telling the server.
func (c *Console) Close() {
	c.channel.Close()
}

// Abandon drops the connection without telling the server, as a page
// unload does. The server keeps the session for a later reload.
func (c *Console) Abandon() {
	c.channel.Abandon()
}

// SessionID returns the current session id.
func (c *Console) SessionID() string {
	return c.channel.Session().ID
}

// Configured reports whether the server has finished configuring the
// console.
func (c *Console) Configured() bool {
	return c.channel.Session().Configured
}

// State returns the connection state.
func (c *Console) State() transport.State {
	return c.channel.State()
}

// Locale returns the console's locale.
func (c *Console) Locale() string {
	return c.locale
}

// Hooks returns the hook registry.
func (c *Console) Hooks() *dom.Hooks {
	return c.hooks
}

// Resources returns the resource manager.
func (c *Console) Resources() *resource.Manager {
	return c.resources
}

// Channel returns the transport channel.
func (c *Console) Channel() *transport.Channel {
	return c.channel
}

// ConletType returns a registered conlet type.
func (c *Console) ConletType(conletType string) (*ConletType, bool) {
	ct, ok := c.reg.types[conletType]
	return ct, ok
}

// ConletTypes returns the registered conlet types.
func (c *Console) ConletTypes() []*ConletType {
	out := make([]*ConletType, 0, len(c.reg.types))
	for _, ct := range c.reg.types {
		out = append(out, ct)
	}
	return out
}

// Layout returns the last known layout.
func (c *Console) Layout() Layout {
	return c.layout
}

// transport.Listener

func (c *Console) ConnectionLost() {
	c.renderer.ConnectionLost()
}

func (c *Console) ConnectionRestored() {
	c.renderer.ConnectionRestored()
}

func (c *Console) ConnectionSuspended(resume func()) {
	c.renderer.ConnectionSuspended(resume)
}

// Resync asks the server to render every displayed preview and view again,
// since updates may have been lost while disconnected.
func (c *Console) Resync() {
	for _, id := range c.FindPreviewIDs() {
		c.RenderConlet(id, protocol.RenderModes{protocol.ModePreview})
	}
	for _, id := range c.FindViewIDs() {
		c.RenderConlet(id, protocol.RenderModes{protocol.ModeView})
	}
}
