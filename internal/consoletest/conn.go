package consoletest

import (
	"context"
	"errors"
	"io"
	"sync"

	"github.com/conletkit/console/internal/protocol"
	"github.com/conletkit/console/internal/transport"
)

// Conn is an in-memory transport.Conn. Frames passed to Deliver are
// returned by ReadMessage; written frames are recorded.
type Conn struct {
	in        chan []byte
	closed    chan struct{}
	closeOnce sync.Once

	mu      sync.Mutex
	written [][]byte
}

func NewConn() *Conn {
	return &Conn{in: make(chan []byte, 64), closed: make(chan struct{})}
}

func (c *Conn) ReadMessage() ([]byte, error) {
	select {
	case data := <-c.in:
		return data, nil
	case <-c.closed:
		return nil, io.EOF
	}
}

func (c *Conn) WriteMessage(data []byte) error {
	select {
	case <-c.closed:
		return errors.New("write on closed connection")
	default:
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.written = append(c.written, append([]byte(nil), data...))
	return nil
}

func (c *Conn) Close() error {
	c.closeOnce.Do(func() { close(c.closed) })
	return nil
}

// Closed reports whether Close was called.
func (c *Conn) Closed() bool {
	select {
	case <-c.closed:
		return true
	default:
		return false
	}
}

// Deliver queues a notification for the reader.
func (c *Conn) Deliver(method string, params ...any) error {
	data, err := protocol.Encode(method, params...)
	if err != nil {
		return err
	}
	c.in <- data
	return nil
}

// Sent returns the notifications written with the given method, or all of
// them when method is empty.
func (c *Conn) Sent(method string) []*protocol.Message {
	c.mu.Lock()
	defer c.mu.Unlock()
	var out []*protocol.Message
	for _, data := range c.written {
		msg, err := protocol.Decode(data)
		if err != nil {
			continue
		}
		if method == "" || msg.Method == method {
			out = append(out, msg)
		}
	}
	return out
}

// Methods returns the names of all written notifications in order.
func (c *Conn) Methods() []string {
	var out []string
	for _, msg := range c.Sent("") {
		out = append(out, msg.Method)
	}
	return out
}

// Reset forgets what was written so far.
func (c *Conn) Reset() {
	c.mu.Lock()
	c.written = nil
	c.mu.Unlock()
}

// Dialer hands out pushed connections in order and fails when it has none.
type Dialer struct {
	mu    sync.Mutex
	conns []*Conn
	urls  []string
}

// Push queues a connection for the next dial.
func (d *Dialer) Push(conn *Conn) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.conns = append(d.conns, conn)
}

func (d *Dialer) Dial(_ context.Context, url string) (transport.Conn, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.urls = append(d.urls, url)
	if len(d.conns) == 0 {
		return nil, errors.New("connection refused")
	}
	conn := d.conns[0]
	d.conns = d.conns[1:]
	return conn, nil
}

// URLs returns the dialed URLs.
func (d *Dialer) URLs() []string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]string(nil), d.urls...)
}
