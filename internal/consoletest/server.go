// Package consoletest provides fakes for testing code built on the console
// client: a WebSocket console server, an in-memory connection and a
// scheduler driven by the test.
package consoletest

import (
	"fmt"
	"log"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"

	"github.com/conletkit/console/internal/protocol"
	"github.com/gorilla/websocket"
)

// Prefix is the path prefix the fake server serves the console under.
const Prefix = "/vjconsole"

// Inbound is a notification received from a client.
type Inbound struct {
	SessionID string
	Message   *protocol.Message
}

// Server is a console server that records what clients send and pushes
// whatever the test tells it to.
type Server struct {
	srv *httptest.Server

	mu       sync.Mutex
	clients  map[string]*client
	received []Inbound
	// previous holds the ?was= hint of each connection, in order.
	previous []string
	connects int
	notify   chan struct{}
}

type client struct {
	conn *websocket.Conn
	send chan []byte
}

func newClient(conn *websocket.Conn) *client {
	c := &client{
		conn: conn,
		send: make(chan []byte, 64),
	}
	go c.writePump()
	return c
}

func (c *client) writePump() {
	defer c.conn.Close()
	for msg := range c.send {
		if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
			return
		}
	}
}

// NewServer starts a server. Close it when done.
func NewServer() *Server {
	s := &Server{
		clients: make(map[string]*client),
		notify:  make(chan struct{}, 1),
	}
	mux := http.NewServeMux()
	mux.HandleFunc(Prefix+"/console-session/", s.handleSession)
	s.srv = httptest.NewServer(mux)
	return s
}

// URL returns the console page URL clients derive the session URL from.
func (s *Server) URL() string {
	return s.srv.URL + Prefix
}

// Close disconnects all clients and stops the server.
func (s *Server) Close() {
	s.mu.Lock()
	for id, c := range s.clients {
		close(c.send)
		delete(s.clients, id)
	}
	s.mu.Unlock()
	s.srv.CloseClientConnections()
	s.srv.Close()
}

func (s *Server) handleSession(w http.ResponseWriter, r *http.Request) {
	sessionID := strings.TrimPrefix(r.URL.Path, Prefix+"/console-session/")
	if sessionID == "" || strings.Contains(sessionID, "/") {
		http.NotFound(w, r)
		return
	}
	upgrader := websocket.Upgrader{
		CheckOrigin: func(*http.Request) bool { return true },
	}
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("consoletest: upgrade error: %v", err)
		return
	}

	c := newClient(conn)
	s.mu.Lock()
	if old, ok := s.clients[sessionID]; ok {
		close(old.send)
	}
	s.clients[sessionID] = c
	s.previous = append(s.previous, r.URL.Query().Get("was"))
	s.connects++
	s.mu.Unlock()
	s.signal()

	go func() {
		defer s.remove(sessionID, c)
		for {
			_, data, err := conn.ReadMessage()
			if err != nil {
				return
			}
			msg, err := protocol.Decode(data)
			if err != nil {
				log.Printf("consoletest: %v", err)
				continue
			}
			s.mu.Lock()
			s.received = append(s.received, Inbound{SessionID: sessionID, Message: msg})
			s.mu.Unlock()
			s.signal()
		}
	}()
}

func (s *Server) remove(sessionID string, c *client) {
	s.mu.Lock()
	if cur, ok := s.clients[sessionID]; ok && cur == c {
		delete(s.clients, sessionID)
		close(c.send)
	}
	s.mu.Unlock()
	s.signal()
}

func (s *Server) signal() {
	select {
	case s.notify <- struct{}{}:
	default:
	}
}

// Changed is signalled (coalesced) whenever a client connects, disconnects
// or sends something.
func (s *Server) Changed() <-chan struct{} {
	return s.notify
}

// Send pushes a notification to a session.
func (s *Server) Send(sessionID, method string, params ...any) error {
	data, err := protocol.Encode(method, params...)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.clients[sessionID]
	if !ok {
		return fmt.Errorf("consoletest: session %s not connected", sessionID)
	}
	select {
	case c.send <- data:
		return nil
	default:
		return fmt.Errorf("consoletest: session %s is not reading", sessionID)
	}
}

// Drop closes a session's connection without a close handshake, as a
// network failure would.
func (s *Server) Drop(sessionID string) {
	s.mu.Lock()
	c, ok := s.clients[sessionID]
	s.mu.Unlock()
	if ok {
		c.conn.UnderlyingConn().Close()
	}
}

// Connected reports whether a session currently has a connection.
func (s *Server) Connected(sessionID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.clients[sessionID]
	return ok
}

// Connects returns the number of connections accepted so far.
func (s *Server) Connects() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.connects
}

// Previous returns the migration hints sent with each connection.
func (s *Server) Previous() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.previous...)
}

// Received returns the notifications received with the given method, or
// all of them when method is empty.
func (s *Server) Received(method string) []Inbound {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []Inbound
	for _, in := range s.received {
		if method == "" || in.Message.Method == method {
			out = append(out, in)
		}
	}
	return out
}
