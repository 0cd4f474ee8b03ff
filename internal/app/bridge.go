package app

import (
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/conletkit/console/internal/console"
	"github.com/conletkit/console/internal/dom"
	"github.com/conletkit/console/internal/protocol"
	"github.com/conletkit/console/internal/views/conletview"
	"github.com/conletkit/console/internal/views/dialog"
	"github.com/conletkit/console/internal/views/previews"
	"github.com/conletkit/console/internal/views/status"
	"golang.org/x/net/html"
)

// Session is what the model asks of the console session. Implementations
// must be safe to call from the UI goroutine.
type Session interface {
	OpenView(conletID string)
	Edit(conletID string)
	RemovePreview(conletID string)
	RemoveView(conletID string)
	AddConlet(conletType string)
	ApplyDialog(key string)
	CloseDialog(key string, apply bool)
	UpdateLayout(previewIDs, tabIDs []string)
	Resync()
}

// Bridge connects a console to the Bubble Tea program. As console.Renderer
// it runs on the event loop and turns every call into a message; as
// Session it posts the user's requests onto the loop.
type Bridge struct {
	send func(tea.Msg)
	post func(func())

	// Loop goroutine only.
	console *console.Console
	locale  string
	dialogs map[string]*console.Dialog
}

// NewBridge creates a bridge. send is usually Program.Send, post the event
// loop's Post.
func NewBridge(send func(tea.Msg), post func(func()), locale string) *Bridge {
	return &Bridge{
		send:    send,
		post:    post,
		locale:  locale,
		dialogs: make(map[string]*console.Dialog),
	}
}

// Attach sets the console the bridge forwards requests to. It must be
// called on the loop before the console starts. The model is reset to the
// new session.
func (b *Bridge) Attach(c *console.Console) {
	b.console = c
	if l := c.Locale(); l != "" {
		b.locale = l
	}
	b.dialogs = make(map[string]*console.Dialog)
	b.send(ResetMsg{SessionID: c.SessionID()})
}

// console.Renderer

func (b *Bridge) ConsoleConfigured() {
	b.send(ConfiguredMsg{})
}

func (b *Bridge) ConnectionLost() {
	b.send(ConnectionMsg{State: status.Lost})
}

func (b *Bridge) ConnectionRestored() {
	b.send(ConnectionMsg{State: status.Connected})
}

func (b *Bridge) ConnectionSuspended(resume func()) {
	b.send(SuspendedMsg{Resume: resume})
}

func (b *Bridge) AddConletType(ct *console.ConletType) {
	if !ct.RenderModes.Has(protocol.ModePreview) && !ct.RenderModes.Has(protocol.ModeView) {
		// Content-only types cannot be added by the user.
		return
	}
	b.send(ConletTypeMsg{Type: ct.Type, Name: ct.DisplayName(b.locale)})
}

func (b *Bridge) RemoveConletType(conletType string) {
	b.send(ConletTypeMsg{Type: conletType, Removed: true})
}

func (b *Bridge) LastConsoleLayout(layout console.Layout) {
	b.send(LayoutMsg{
		Previews: append([]string(nil), layout.Previews...),
		Tabs:     append([]string(nil), layout.Tabs...),
	})
}

func (b *Bridge) UpdateConletPreview(_ bool, rep *console.Representation, _ protocol.RenderModes, foreground bool) {
	b.send(PreviewMsg{Tile: b.tile(rep), Foreground: foreground})
}

func (b *Bridge) UpdateConletView(_ bool, rep *console.Representation, _ protocol.RenderModes, foreground bool) {
	b.send(ViewMsg{Tab: tab(rep), Foreground: foreground})
}

// UpdateConletContent re-sends the previews and views that embed the
// changed content.
func (b *Bridge) UpdateConletContent(_ bool, reps []*console.Representation, _ protocol.RenderModes) {
	hosts := make([]*html.Node, 0, len(reps))
	for _, rep := range reps {
		hosts = append(hosts, enclosing(rep.Container))
	}
	b.refreshHosts(hosts)
}

// refreshHosts re-sends each preview or view container once. Hosts
// already removed from the console are skipped.
func (b *Bridge) refreshHosts(hosts []*html.Node) {
	seen := make(map[*html.Node]bool)
	for _, host := range hosts {
		if host == nil || seen[host] {
			continue
		}
		seen[host] = true
		id, _ := dom.Attr(host, dom.AttrConletID)
		if dom.HasClass(host, dom.ClassPreview) {
			if p, ok := b.console.Preview(id); ok {
				b.send(PreviewMsg{Tile: b.tile(p)})
			}
		} else if v, ok := b.console.View(id); ok {
			b.send(ViewMsg{Tab: tab(v)})
		}
	}
}

// enclosing returns the preview or view container n is part of.
func enclosing(n *html.Node) *html.Node {
	if n == nil {
		return nil
	}
	for p := n.Parent; p != nil; p = p.Parent {
		if dom.HasClass(p, dom.ClassPreview) || dom.HasClass(p, dom.ClassView) {
			return p
		}
	}
	return nil
}

// RemoveConletDisplays drops previews and tabs. Embedded content is
// detached from its host, which is then shown again without it.
func (b *Bridge) RemoveConletDisplays(reps []*console.Representation) {
	var (
		msg   RemovedMsg
		hosts []*html.Node
	)
	for _, rep := range reps {
		switch rep.Mode {
		case protocol.ModePreview, protocol.ModeStickyPreview:
			msg.Previews = append(msg.Previews, rep.ConletID)
		case protocol.ModeView:
			msg.Views = append(msg.Views, rep.ConletID)
		case protocol.ModeContent:
			if rep.Container == nil {
				continue
			}
			host := enclosing(rep.Container)
			if rep.Container.Parent != nil {
				rep.Container.Parent.RemoveChild(rep.Container)
			}
			hosts = append(hosts, host)
		}
	}
	if len(msg.Previews) > 0 || len(msg.Views) > 0 {
		b.send(msg)
	}
	if len(hosts) > 0 {
		b.refreshHosts(hosts)
	}
}

func (b *Bridge) OpenModalDialog(d *console.Dialog) {
	key := dialogKey(d)
	b.dialogs[key] = d
	b.send(DialogOpenMsg{Dialog: dialog.Model{
		Key:        key,
		ConletID:   d.ConletID,
		Type:       d.ConletType,
		Mode:       string(d.Mode),
		Title:      d.Title(),
		Text:       dom.PlainText(d.Container),
		Cancelable: d.Options.Cancelable,
		OkayLabel:  d.Options.OkayLabel,
		CloseLabel: d.Options.CloseLabel,
	}})
}

func (b *Bridge) CloseModalDialog(d *console.Dialog) {
	key := dialogKey(d)
	if b.dialogs[key] == d {
		delete(b.dialogs, key)
	}
	b.send(DialogCloseMsg{Key: key})
}

func (b *Bridge) DisplayNotification(content []*html.Node, options protocol.Options) {
	b.send(NotificationMsg{
		Kind:      options.Type,
		Text:      dom.PlainText(content...),
		AutoClose: time.Duration(options.AutoClose) * time.Millisecond,
	})
}

func (b *Bridge) tile(rep *console.Representation) previews.Tile {
	t := previews.Tile{
		ID:     rep.ConletID,
		Type:   rep.ConletType,
		Title:  rep.Title(),
		Text:   rep.Text(),
		Sticky: rep.Sticky,
	}
	if b.console != nil {
		if ct, ok := b.console.ConletType(rep.ConletType); ok {
			t.TypeName = ct.DisplayName(b.locale)
		}
	}
	return t
}

func tab(rep *console.Representation) conletview.Tab {
	return conletview.Tab{
		ID:    rep.ConletID,
		Type:  rep.ConletType,
		Title: rep.Title(),
		Text:  rep.Text(),
	}
}

func dialogKey(d *console.Dialog) string {
	return d.ConletType + "/" + d.ConletID
}

// Session

func (b *Bridge) OpenView(conletID string) {
	b.post(func() {
		b.console.RenderConlet(conletID, protocol.RenderModes{protocol.ModeView, protocol.ModeForeground})
	})
}

func (b *Bridge) Edit(conletID string) {
	b.post(func() {
		b.console.RenderConlet(conletID, protocol.RenderModes{protocol.ModeEdit})
	})
}

func (b *Bridge) RemovePreview(conletID string) {
	b.post(func() { b.console.RemovePreview(conletID) })
}

func (b *Bridge) RemoveView(conletID string) {
	b.post(func() { b.console.RemoveView(conletID) })
}

func (b *Bridge) AddConlet(conletType string) {
	b.post(func() {
		b.console.AddConlet(conletType, protocol.RenderModes{protocol.ModePreview, protocol.ModeForeground}, nil)
	})
}

func (b *Bridge) ApplyDialog(key string) {
	b.post(func() {
		if d, ok := b.dialogs[key]; ok {
			b.console.ExecOnAction(d, true)
		}
	})
}

func (b *Bridge) CloseDialog(key string, apply bool) {
	b.post(func() {
		if d, ok := b.dialogs[key]; ok {
			b.console.CloseModal(d, apply)
		}
	})
}

func (b *Bridge) UpdateLayout(previewIDs, tabIDs []string) {
	b.post(func() {
		b.console.UpdateLayout(previewIDs, tabIDs, b.console.Layout().XtraInfo)
	})
}

func (b *Bridge) Resync() {
	b.post(func() { b.console.Resync() })
}
