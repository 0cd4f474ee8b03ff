package app

import (
	"io"
	"log"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/conletkit/console/internal/console"
	"github.com/conletkit/console/internal/consoletest"
	"github.com/conletkit/console/internal/protocol"
	"github.com/conletkit/console/internal/transport"
	"github.com/conletkit/console/internal/views/status"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type bridgeHarness struct {
	t     *testing.T
	sched *consoletest.Scheduler
	conn  *consoletest.Conn
	b     *Bridge
	c     *console.Console
	msgs  []tea.Msg
}

func newBridgeHarness(t *testing.T) *bridgeHarness {
	t.Helper()
	h := &bridgeHarness{t: t, sched: consoletest.NewScheduler(), conn: consoletest.NewConn()}
	dialer := &consoletest.Dialer{}
	dialer.Push(h.conn)

	h.b = NewBridge(func(msg tea.Msg) { h.msgs = append(h.msgs, msg) }, h.sched.Post, "de")
	c, err := console.New(console.Options{
		BaseURL:   "http://console.example/vjconsole",
		SessionID: "s1",
		Locale:    "de",
		Scheduler: h.sched,
		Dialer:    dialer,
		Renderer:  h.b,
		Logger:    log.New(io.Discard, "", 0),
	})
	require.NoError(t, err)
	h.b.Attach(c)
	h.c = c

	c.Start()
	h.sched.RunUntil(t, func() bool { return c.State() == transport.StateOpen })
	h.conn.Reset()
	h.msgs = nil
	return h
}

func (h *bridgeHarness) receive(method string, params ...any) {
	h.t.Helper()
	data, err := protocol.Encode(method, params...)
	require.NoError(h.t, err)
	h.c.Channel().Receive(data)
	h.sched.Run()
}

func (h *bridgeHarness) take() []tea.Msg {
	msgs := h.msgs
	h.msgs = nil
	return msgs
}

func TestBridgePreviewAndView(t *testing.T) {
	h := newBridgeHarness(t)
	h.receive(protocol.MethodAddConletType, "demo.Type", map[string]string{"de": "Beispiel", "en": "Demo"},
		[]string{}, []protocol.ScriptResource{}, []string{"Preview", "View"})
	h.receive(protocol.MethodUpdateConlet, "demo.Type", "c1", []string{"Preview", "Foreground"},
		[]string{"Preview", "View"}, `<div data-conlet-title="Status"><p>all</p><p>good</p></div>`)
	h.receive(protocol.MethodUpdateConlet, "demo.Type", "c1", []string{"View"},
		[]string{"Preview", "View"}, `<p>details</p>`)

	msgs := h.take()
	require.Len(t, msgs, 3)
	assert.Equal(t, ConletTypeMsg{Type: "demo.Type", Name: "Beispiel"}, msgs[0])

	preview, ok := msgs[1].(PreviewMsg)
	require.True(t, ok)
	assert.True(t, preview.Foreground)
	assert.Equal(t, "c1", preview.Tile.ID)
	assert.Equal(t, "Status", preview.Tile.Title)
	assert.Equal(t, "Beispiel", preview.Tile.TypeName)
	assert.Equal(t, "all\ngood", preview.Tile.Text)

	view, ok := msgs[2].(ViewMsg)
	require.True(t, ok)
	assert.False(t, view.Foreground)
	assert.Equal(t, "details", view.Tab.Text)
}

func TestBridgeContentRefreshesHost(t *testing.T) {
	h := newBridgeHarness(t)
	h.receive(protocol.MethodUpdateConlet, "demo.Type", "c1", []string{"Preview"},
		[]string{"Preview"}, `<p>Time: <span data-conlet-type="demo.Clock"></span></p>`)
	h.receive(protocol.MethodUpdateConlet, "demo.Clock", "c9", []string{"Content"},
		[]string{"Content"}, "12:00")

	msgs := h.take()
	require.Len(t, msgs, 2)
	refreshed, ok := msgs[1].(PreviewMsg)
	require.True(t, ok)
	assert.Equal(t, "c1", refreshed.Tile.ID)
	assert.Equal(t, "Time: 12:00", refreshed.Tile.Text)
}

func TestBridgeDeletedContentLeavesHost(t *testing.T) {
	h := newBridgeHarness(t)
	h.receive(protocol.MethodUpdateConlet, "demo.Type", "c1", []string{"Preview"},
		[]string{"Preview"}, `<p>Time: <span data-conlet-type="demo.Clock"></span></p>`)
	h.receive(protocol.MethodUpdateConlet, "demo.Clock", "c9", []string{"Content"},
		[]string{"Content"}, "12:00")
	h.take()

	h.receive(protocol.MethodDeleteConlet, "c9", []string{})

	msgs := h.take()
	require.Len(t, msgs, 1)
	refreshed, ok := msgs[0].(PreviewMsg)
	require.True(t, ok)
	assert.Equal(t, "c1", refreshed.Tile.ID)
	assert.Equal(t, "Time:", refreshed.Tile.Text)

	assert.Empty(t, h.c.Contents("c9"))
	p, ok := h.c.Preview("c1")
	require.True(t, ok)
	assert.Equal(t, "Time:", p.Text())
}

func TestBridgeContentOnlyTypeIsNotOffered(t *testing.T) {
	h := newBridgeHarness(t)
	h.receive(protocol.MethodAddConletType, "demo.Clock", map[string]string{"en": "Clock"},
		[]string{}, []protocol.ScriptResource{}, []string{"Content"})
	h.receive(protocol.MethodRemoveConletType, "demo.Clock")

	assert.Equal(t, []tea.Msg{ConletTypeMsg{Type: "demo.Clock", Removed: true}}, h.take())
}

func TestBridgeRemoval(t *testing.T) {
	h := newBridgeHarness(t)
	h.receive(protocol.MethodUpdateConlet, "demo.Type", "c1", []string{"Preview"},
		[]string{"Preview", "View"}, "x")
	h.receive(protocol.MethodUpdateConlet, "demo.Type", "c1", []string{"View"},
		[]string{"Preview", "View"}, "y")
	require.Len(t, h.take(), 2)

	h.b.RemovePreview("c1")
	h.sched.Run()

	assert.Equal(t, []tea.Msg{RemovedMsg{Previews: []string{"c1"}, Views: []string{"c1"}}}, h.take())
	require.Len(t, h.conn.Sent(protocol.MethodConletsDeleted), 1)
}

func TestBridgeRequests(t *testing.T) {
	h := newBridgeHarness(t)

	h.b.OpenView("c1")
	h.b.Edit("c1")
	h.b.AddConlet("demo.Type")
	h.b.Resync()
	assert.Empty(t, h.conn.Sent(""), "requests wait for the loop")
	h.sched.Run()

	renders := h.conn.Sent(protocol.MethodRenderConlet)
	require.Len(t, renders, 2)
	assert.Equal(t, []string{"View", "Foreground"}, renders[0].Strings(1))
	assert.Equal(t, []string{"Edit"}, renders[1].Strings(1))
	adds := h.conn.Sent(protocol.MethodAddConlet)
	require.Len(t, adds, 1)
	assert.Equal(t, "demo.Type", adds[0].String(0))
	assert.Equal(t, []string{"Preview", "Foreground"}, adds[0].Strings(1))
}

func TestBridgeLayout(t *testing.T) {
	h := newBridgeHarness(t)
	h.receive(protocol.MethodLastConsoleLayout, []string{"c2", "c1"}, []string{"c1"}, map[string]any{"k": 1})
	assert.Equal(t, []tea.Msg{LayoutMsg{Previews: []string{"c2", "c1"}, Tabs: []string{"c1"}}}, h.take())

	h.b.UpdateLayout([]string{"c1"}, nil)
	h.sched.Run()
	layouts := h.conn.Sent(protocol.MethodConsoleLayout)
	require.Len(t, layouts, 1)
	assert.Equal(t, []string{"c1"}, layouts[0].Strings(0))
}

func TestBridgeDialog(t *testing.T) {
	h := newBridgeHarness(t)
	h.receive(protocol.MethodOpenModalDialog, "demo.Type", "c1", "<p>Really?</p>",
		map[string]any{"title": "Confirm", "cancelable": true, "okayLabel": "Yes"})

	msgs := h.take()
	require.Len(t, msgs, 1)
	open := msgs[0].(DialogOpenMsg)
	assert.Equal(t, "demo.Type/c1", open.Dialog.Key)
	assert.Equal(t, "Confirm", open.Dialog.Title)
	assert.Equal(t, "Really?", open.Dialog.Text)
	assert.Equal(t, "Yes", open.Dialog.OkayLabel)
	assert.True(t, open.Dialog.Cancelable)

	h.b.CloseDialog("demo.Type/c1", true)
	h.b.CloseDialog("demo.Type/c1", true)
	h.sched.Run()
	assert.Equal(t, []tea.Msg{DialogCloseMsg{Key: "demo.Type/c1"}}, h.take())
	assert.Empty(t, h.c.Dialogs())
}

func TestBridgeNotificationAndConnection(t *testing.T) {
	h := newBridgeHarness(t)
	h.receive(protocol.MethodDisplayNotification, "<b>Saved</b> ok", map[string]any{"type": "success", "autoClose": 1500})
	h.receive(protocol.MethodConsoleConfigured)
	h.b.ConnectionLost()
	h.b.ConnectionRestored()

	assert.Equal(t, []tea.Msg{
		NotificationMsg{Kind: "success", Text: "Saved ok", AutoClose: 1500 * time.Millisecond},
		ConfiguredMsg{},
		ConnectionMsg{State: status.Lost},
		ConnectionMsg{State: status.Connected},
	}, h.take())
}
