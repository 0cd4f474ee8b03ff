package console

import (
	"context"
	"testing"
	"time"

	"github.com/conletkit/console/internal/consoletest"
	"github.com/conletkit/console/internal/eventloop"
	"github.com/conletkit/console/internal/protocol"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConsoleOverWebSocket(t *testing.T) {
	srv := consoletest.NewServer()
	defer srv.Close()

	loop := eventloop.New()
	ctx, cancel := context.WithCancel(context.Background())
	go loop.Run(ctx)
	t.Cleanup(func() {
		cancel()
		<-loop.Done()
	})

	r := &recorder{}
	var c *Console
	var err error
	loop.Call(func() {
		c, err = New(Options{
			BaseURL:        srv.URL(),
			Namespace:      "it",
			SessionID:      "ws1",
			Scheduler:      loop,
			Renderer:       r,
			ReconnectDelay: 20 * time.Millisecond,
			Logger:         discardLogger(),
		})
		if err == nil {
			c.Start()
		}
	})
	require.NoError(t, err)

	received := func(method string, n int) func() bool {
		return func() bool { return len(srv.Received(method)) >= n }
	}
	require.Eventually(t, received(protocol.MethodConsoleReady, 1), 2*time.Second, 5*time.Millisecond)

	require.NoError(t, srv.Send("ws1", protocol.MethodUpdateConlet,
		"demo.Type", "c1", []string{"Preview"}, []string{"Preview"}, "<p>hi</p>"))
	require.Eventually(t, func() bool {
		found := false
		loop.Call(func() { found = c.FindConletPreview("c1") != nil })
		return found
	}, 2*time.Second, 5*time.Millisecond)

	srv.Drop("ws1")
	require.Eventually(t, received(protocol.MethodRenderConlet, 1), 2*time.Second, 5*time.Millisecond)
	resync := srv.Received(protocol.MethodRenderConlet)[0]
	assert.Equal(t, "ws1", resync.SessionID)
	assert.Equal(t, "c1", resync.Message.String(0))
	assert.Equal(t, []string{"Preview"}, resync.Message.Strings(1))
	assert.Equal(t, 2, srv.Connects())

	loop.Call(func() { c.Close() })
	require.Eventually(t, received(protocol.MethodDisconnect, 1), 2*time.Second, 5*time.Millisecond)
	assert.Equal(t, "ws1", srv.Received(protocol.MethodDisconnect)[0].Message.String(0))

	loop.Call(func() {
		assert.Contains(t, r.events, "lost")
		assert.Contains(t, r.events, "restored")
	})
}
