package transport_test

import (
	"io"
	"log"
	"testing"

	"github.com/conletkit/console/internal/consoletest"
	"github.com/conletkit/console/internal/protocol"
	"github.com/conletkit/console/internal/transport"
	"github.com/stretchr/testify/require"
)

// recordingListener counts life-cycle notifications.
type recordingListener struct {
	lost, restored, resyncs, suspended int
	resume                             func()
}

func (l *recordingListener) ConnectionLost()     { l.lost++ }
func (l *recordingListener) ConnectionRestored() { l.restored++ }
func (l *recordingListener) Resync()             { l.resyncs++ }
func (l *recordingListener) ConnectionSuspended(resume func()) {
	l.suspended++
	l.resume = resume
}

func frame(t *testing.T, method string, params ...any) []byte {
	t.Helper()
	data, err := protocol.Encode(method, params...)
	require.NoError(t, err)
	return data
}

func newTestChannel(s *consoletest.Scheduler, d transport.Dialer, l transport.Listener, session *transport.Session) *transport.Channel {
	if session == nil {
		session = &transport.Session{ID: "s1"}
	}
	return transport.NewChannel(transport.Options{
		BaseURL:   "http://console.example/vjconsole",
		Session:   session,
		Dialer:    d,
		Scheduler: s,
		Listener:  l,
		Logger:    log.New(io.Discard, "", 0),
	})
}
