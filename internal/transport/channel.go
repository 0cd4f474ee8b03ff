// Package transport owns the console session's connection to the server:
// send and receive queues, the receive lock, reconnection, keep-alive and
// suspension after inactivity.
//
// All Channel methods must be called on the goroutine that executes the
// Scheduler's tasks. Blocking work (dialing, reading) happens on helper
// goroutines that report back through Scheduler.Post.
package transport

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/conletkit/console/internal/eventloop"
	"github.com/conletkit/console/internal/protocol"
)

const defaultReconnectDelay = 1 * time.Second

// State is the connection state.
type State int

const (
	StateDisconnected State = iota
	StateConnecting
	StateOpen
	StateLost
	StateReconnecting
	StateSuspended
)

func (s State) String() string {
	switch s {
	case StateDisconnected:
		return "disconnected"
	case StateConnecting:
		return "connecting"
	case StateOpen:
		return "open"
	case StateLost:
		return "lost"
	case StateReconnecting:
		return "reconnecting"
	case StateSuspended:
		return "suspended"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// Scheduler serializes callbacks onto one goroutine. *eventloop.Loop
// implements it.
type Scheduler interface {
	Post(fn func())
	AfterFunc(d time.Duration, fn func()) eventloop.Timer
	Every(d time.Duration, fn func()) eventloop.Timer
}

// Listener receives connection life-cycle notifications.
type Listener interface {
	ConnectionLost()
	ConnectionRestored()
	// ConnectionSuspended is called after the channel closed itself for
	// inactivity. Calling resume reconnects; extra calls are ignored.
	ConnectionSuspended(resume func())
	// Resync is called after every successful open except the first.
	Resync()
}

// HandlerFunc handles one inbound notification.
type HandlerFunc func(msg *protocol.Message)

// Options configure a Channel.
type Options struct {
	// BaseURL is the console page URL the session URL is derived from.
	BaseURL   string
	Session   *Session
	Dialer    Dialer
	Scheduler Scheduler
	Listener  Listener
	// ReconnectDelay is the fixed backoff between reconnect attempts.
	ReconnectDelay time.Duration
	Logger         *log.Logger
}

// Channel is the session's connection to the console server.
type Channel struct {
	baseURL        string
	session        *Session
	dialer         Dialer
	sched          Scheduler
	listener       Listener
	reconnectDelay time.Duration
	log            *log.Logger

	state            State
	conn             Conn
	dialSeq          int
	connectRequested bool
	connectionLost   bool
	initialConnect   bool

	sendQueue [][]byte
	recvQueue []*protocol.Message
	lockCount int
	// dispatching guards against recursive drains when a handler unlocks
	// the receiver.
	dispatching bool

	handlers map[string]HandlerFunc

	inactivity     time.Duration
	sentInInterval bool
	refreshTimer   eventloop.Timer
	reconnectTimer eventloop.Timer
}

// NewChannel creates a disconnected channel.
func NewChannel(opts Options) *Channel {
	c := &Channel{
		baseURL:        opts.BaseURL,
		session:        opts.Session,
		dialer:         opts.Dialer,
		sched:          opts.Scheduler,
		listener:       opts.Listener,
		reconnectDelay: opts.ReconnectDelay,
		log:            opts.Logger,
		initialConnect: true,
		handlers:       make(map[string]HandlerFunc),
	}
	if c.session == nil {
		c.session = &Session{}
	}
	if c.dialer == nil {
		c.dialer = WebSocketDialer{}
	}
	if c.reconnectDelay <= 0 {
		c.reconnectDelay = defaultReconnectDelay
	}
	if c.log == nil {
		c.log = log.Default()
	}
	if c.listener == nil {
		c.listener = nopListener{}
	}
	return c
}

// Session returns the session the channel serves.
func (c *Channel) Session() *Session {
	return c.session
}

// State returns the current connection state.
func (c *Channel) State() State {
	return c.state
}

// SetListener replaces the life-cycle listener.
func (c *Channel) SetListener(l Listener) {
	if l == nil {
		l = nopListener{}
	}
	c.listener = l
}

// Handle registers the handler for an inbound method, replacing any
// previous one.
func (c *Channel) Handle(method string, h HandlerFunc) {
	c.handlers[method] = h
}

// Connect starts the channel. Calling it while a connection is wanted is a
// no-op.
func (c *Channel) Connect() {
	if c.connectRequested {
		return
	}
	c.connectRequested = true
	c.dial()
}

func (c *Channel) dial() {
	if c.connectionLost {
		c.state = StateReconnecting
	} else {
		c.state = StateConnecting
	}

	url, err := SessionURL(c.baseURL, c.session.ID, c.session.PreviousID)
	if err != nil {
		c.log.Printf("ws connect: %v", err)
		c.connectRequested = false
		c.state = StateDisconnected
		return
	}
	// The migration hint is only meaningful once.
	c.session.PreviousID = ""

	c.dialSeq++
	seq := c.dialSeq
	dialer := c.dialer
	go func() {
		conn, err := dialer.Dial(context.Background(), url)
		c.sched.Post(func() { c.opened(seq, conn, err) })
	}()
}

// opened handles the outcome of a dial attempt.
func (c *Channel) opened(seq int, conn Conn, err error) {
	if seq != c.dialSeq || !c.connectRequested {
		if conn != nil {
			conn.Close()
		}
		return
	}
	if err != nil {
		c.log.Printf("ws dial error: %v (retry in %v)", err, c.reconnectDelay)
		c.lost()
		return
	}

	c.conn = conn
	c.state = StateOpen
	go c.readLoop(conn)

	if c.connectionLost {
		c.connectionLost = false
		c.listener.ConnectionRestored()
	}
	c.drainSendQueue()
	if c.initialConnect {
		c.initialConnect = false
	} else {
		// Updates may have been missed while disconnected.
		c.listener.Resync()
	}
	c.startRefresh()
}

func (c *Channel) readLoop(conn Conn) {
	for {
		data, err := conn.ReadMessage()
		if err != nil {
			c.sched.Post(func() { c.closed(conn, err) })
			return
		}
		c.sched.Post(func() {
			if c.conn == conn {
				c.Receive(data)
			}
		})
	}
}

// closed handles the end of a connection's read side.
func (c *Channel) closed(conn Conn, err error) {
	if conn != c.conn {
		return
	}
	c.log.Printf("ws connection closed: %v", err)
	conn.Close()
	c.lost()
}

// lost handles an unintended loss of the connection (or a failed dial).
func (c *Channel) lost() {
	c.stopRefresh()
	c.conn = nil
	if !c.connectRequested {
		c.state = StateDisconnected
		return
	}
	if !c.connectionLost {
		c.connectionLost = true
		c.state = StateLost
		c.listener.ConnectionLost()
	}
	c.state = StateReconnecting
	c.reconnectTimer = c.sched.AfterFunc(c.reconnectDelay, func() {
		c.reconnectTimer = nil
		if c.connectRequested && c.conn == nil {
			c.dial()
		}
	})
}

// Close sends a disconnect notification (if the session is known and the
// connection is open), closes the connection and suppresses reconnects.
func (c *Channel) Close() {
	if c.conn != nil && c.state == StateOpen && c.session.ID != "" {
		c.drainSendQueue()
		if data, err := protocol.Encode(protocol.MethodDisconnect, c.session.ID); err == nil {
			if err := c.conn.WriteMessage(data); err != nil {
				c.log.Printf("ws disconnect notification: %v", err)
			}
		}
	}
	c.shutdown()
}

// Abandon closes the connection without notifying the server, as when the
// process goes away.
func (c *Channel) Abandon() {
	c.shutdown()
}

func (c *Channel) shutdown() {
	c.connectRequested = false
	c.dialSeq++
	c.stopRefresh()
	if c.reconnectTimer != nil {
		c.reconnectTimer.Stop()
		c.reconnectTimer = nil
	}
	if c.conn != nil {
		c.conn.Close()
		c.conn = nil
	}
	c.state = StateDisconnected
}

// Send queues a notification and transmits the queue if connected. It
// resets the inactivity counter.
func (c *Channel) Send(method string, params ...any) {
	data, err := protocol.Encode(method, params...)
	if err != nil {
		c.log.Printf("ws send: %v", err)
		return
	}
	c.inactivity = 0
	c.sentInInterval = true
	c.enqueue(data)
}

func (c *Channel) enqueue(data []byte) {
	c.sendQueue = append(c.sendQueue, data)
	c.drainSendQueue()
}

func (c *Channel) drainSendQueue() {
	for c.conn != nil && c.state == StateOpen && len(c.sendQueue) > 0 {
		if err := c.conn.WriteMessage(c.sendQueue[0]); err != nil {
			// The reader will notice the broken connection.
			c.log.Printf("ws write error: %v", err)
			c.conn.Close()
			return
		}
		c.sendQueue[0] = nil
		c.sendQueue = c.sendQueue[1:]
	}
}

// Pending returns the number of queued outbound messages.
func (c *Channel) Pending() int {
	return len(c.sendQueue)
}

func (c *Channel) startRefresh() {
	c.stopRefresh()
	c.sentInInterval = false
	if c.session.RefreshInterval <= 0 {
		return
	}
	c.refreshTimer = c.sched.Every(c.session.RefreshInterval, c.refreshTick)
}

func (c *Channel) stopRefresh() {
	if c.refreshTimer != nil {
		c.refreshTimer.Stop()
		c.refreshTimer = nil
	}
}

// refreshTick runs once per refresh interval while open.
func (c *Channel) refreshTick() {
	if c.state != StateOpen || len(c.sendQueue) > 0 {
		return
	}
	c.inactivity += c.session.RefreshInterval
	if c.session.InactivityTimeout > 0 && c.inactivity >= c.session.InactivityTimeout {
		c.suspend()
		return
	}
	if !c.sentInInterval {
		if data, err := protocol.Encode(protocol.MethodKeepAlive); err == nil {
			c.enqueue(data)
		}
	}
	c.sentInInterval = false
}

func (c *Channel) suspend() {
	c.log.Printf("ws inactive for %v, suspending session", c.inactivity)
	c.Close()
	c.state = StateSuspended

	resumed := false
	c.listener.ConnectionSuspended(func() {
		c.sched.Post(func() {
			if resumed {
				return
			}
			resumed = true
			c.inactivity = 0
			c.Connect()
		})
	})
}

// Receive parses an inbound frame, queues it and dispatches the queue.
// Malformed frames are logged and dropped.
func (c *Channel) Receive(data []byte) {
	msg, err := protocol.Decode(data)
	if err != nil {
		c.log.Printf("ws dropping message: %v", err)
		return
	}
	c.recvQueue = append(c.recvQueue, msg)
	c.dispatch()
}

// LockReceiver suspends dispatching of inbound messages. Locks nest.
func (c *Channel) LockReceiver() {
	c.lockCount++
}

// UnlockReceiver releases one lock and resumes dispatching when none are
// left.
func (c *Channel) UnlockReceiver() {
	if c.lockCount == 0 {
		c.log.Printf("ws receiver unlocked more often than locked")
		return
	}
	c.lockCount--
	if c.lockCount == 0 {
		c.dispatch()
	}
}

// Locked reports whether dispatching is suspended.
func (c *Channel) Locked() bool {
	return c.lockCount > 0
}

// Postpone puts msg back at the head of the receive queue. A handler that
// postpones its message should hold a lock, or the message is dispatched
// again immediately.
func (c *Channel) Postpone(msg *protocol.Message) {
	c.recvQueue = append([]*protocol.Message{msg}, c.recvQueue...)
}

// Queued returns the number of messages awaiting dispatch.
func (c *Channel) Queued() int {
	return len(c.recvQueue)
}

func (c *Channel) dispatch() {
	if c.dispatching {
		return
	}
	c.dispatching = true
	defer func() { c.dispatching = false }()

	for c.lockCount == 0 && len(c.recvQueue) > 0 {
		msg := c.recvQueue[0]
		c.recvQueue[0] = nil
		c.recvQueue = c.recvQueue[1:]

		h, ok := c.handlers[msg.Method]
		if !ok {
			c.log.Printf("ws no handler for invoked method %s", msg.Method)
			continue
		}
		c.invoke(h, msg)
	}
}

func (c *Channel) invoke(h HandlerFunc, msg *protocol.Message) {
	defer func() {
		if r := recover(); r != nil {
			c.log.Printf("ws handler for %s failed: %v", msg.Method, r)
		}
	}()
	h(msg)
}

type nopListener struct{}

func (nopListener) ConnectionLost()            {}
func (nopListener) ConnectionRestored()        {}
func (nopListener) ConnectionSuspended(func()) {}
func (nopListener) Resync()                    {}
