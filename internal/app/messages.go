package app

import (
	"time"

	"github.com/conletkit/console/internal/views/conletview"
	"github.com/conletkit/console/internal/views/debug"
	"github.com/conletkit/console/internal/views/dialog"
	"github.com/conletkit/console/internal/views/previews"
	"github.com/conletkit/console/internal/views/status"
)

// Messages sent by the Bridge. They carry copies, never DOM nodes, so the
// model can use them on the UI goroutine.

type ConfiguredMsg struct{}

// ResetMsg starts over with a new session, dropping all displayed state.
type ResetMsg struct {
	SessionID string
}

type ConnectionMsg struct {
	State status.Connection
}

type SuspendedMsg struct {
	// Resume reconnects. It is safe to call from any goroutine.
	Resume func()
}

type ConletTypeMsg struct {
	Type    string
	Name    string
	Removed bool
}

type LayoutMsg struct {
	Previews []string
	Tabs     []string
}

type PreviewMsg struct {
	Tile       previews.Tile
	Foreground bool
}

type ViewMsg struct {
	Tab        conletview.Tab
	Foreground bool
}

type RemovedMsg struct {
	Previews []string
	Views    []string
}

type DialogOpenMsg struct {
	Dialog dialog.Model
}

type DialogCloseMsg struct {
	Key string
}

type NotificationMsg struct {
	Kind      string
	Text      string
	AutoClose time.Duration
}

type LogMsg struct {
	Entry debug.Entry
}

type noteExpiredMsg struct {
	id int
}
