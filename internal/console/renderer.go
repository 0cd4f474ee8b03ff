package console

import (
	"github.com/conletkit/console/internal/protocol"
	"golang.org/x/net/html"
)

// Renderer performs every visible effect of the console. All methods are
// called on the console's goroutine; a renderer that draws elsewhere must
// copy what it needs before returning.
//
// For every inbound updateConlet the console calls exactly one of
// UpdateConletPreview, UpdateConletView, UpdateConletContent or, for the
// Edit and Help modes, OpenModalDialog. Unload hooks of a representation
// have always run before it is passed to RemoveConletDisplays.
type Renderer interface {
	ConsoleConfigured()
	ConnectionLost()
	ConnectionRestored()
	// ConnectionSuspended is called after the session closed itself for
	// inactivity. The renderer decides when to call resume.
	ConnectionSuspended(resume func())

	AddConletType(ct *ConletType)
	RemoveConletType(conletType string)
	LastConsoleLayout(layout Layout)

	// UpdateConletPreview mounts (isNew) or refreshes a preview. The new
	// content is already in rep.Container.
	UpdateConletPreview(isNew bool, rep *Representation, modes protocol.RenderModes, foreground bool)
	UpdateConletView(isNew bool, rep *Representation, modes protocol.RenderModes, foreground bool)
	// UpdateConletContent refreshes embedded content. All representations
	// of one conlet are passed together.
	UpdateConletContent(isNew bool, reps []*Representation, modes protocol.RenderModes)
	// RemoveConletDisplays takes previews, views and embedded content
	// off the screen. Content containers are still attached to their
	// host when passed.
	RemoveConletDisplays(reps []*Representation)

	OpenModalDialog(d *Dialog)
	CloseModalDialog(d *Dialog)
	DisplayNotification(content []*html.Node, options protocol.Options)
}

// NopRenderer ignores every call. Embed it to implement only part of
// Renderer.
type NopRenderer struct{}

func (NopRenderer) ConsoleConfigured()                     {}
func (NopRenderer) ConnectionLost()                        {}
func (NopRenderer) ConnectionRestored()                    {}
func (NopRenderer) ConnectionSuspended(func())             {}
func (NopRenderer) AddConletType(*ConletType)              {}
func (NopRenderer) RemoveConletType(string)                {}
func (NopRenderer) LastConsoleLayout(Layout)               {}
func (NopRenderer) RemoveConletDisplays([]*Representation) {}
func (NopRenderer) OpenModalDialog(*Dialog)                {}
func (NopRenderer) CloseModalDialog(*Dialog)               {}

func (NopRenderer) UpdateConletPreview(bool, *Representation, protocol.RenderModes, bool) {}
func (NopRenderer) UpdateConletView(bool, *Representation, protocol.RenderModes, bool)    {}
func (NopRenderer) UpdateConletContent(bool, []*Representation, protocol.RenderModes)     {}
func (NopRenderer) DisplayNotification([]*html.Node, protocol.Options)                    {}
