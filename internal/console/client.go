package console

import (
	"encoding/json"

	"github.com/conletkit/console/internal/protocol"
	"golang.org/x/net/html"
)

// Ready tells the server that the client is ready to receive the console's
// configuration.
func (c *Console) Ready() {
	c.channel.Send(protocol.MethodConsoleReady)
}

// SetLocale changes the locale. With reload the server re-renders the
// console in the new locale.
func (c *Console) SetLocale(locale string, reload bool) {
	c.locale = locale
	c.channel.Send(protocol.MethodSetLocale, locale, reload)
}

// RenderConlet asks the server to render a conlet in the given modes.
func (c *Console) RenderConlet(conletID string, modes protocol.RenderModes) {
	c.channel.Send(protocol.MethodRenderConlet, conletID, nonNilModes(modes))
}

// AddConlet asks the server to create a conlet of the given type.
func (c *Console) AddConlet(conletType string, modes protocol.RenderModes, properties map[string]any) {
	if len(properties) == 0 {
		c.channel.Send(protocol.MethodAddConlet, conletType, nonNilModes(modes))
		return
	}
	c.channel.Send(protocol.MethodAddConlet, conletType, nonNilModes(modes), properties)
}

// ConletsDeleted reports representations removed on the client.
func (c *Console) ConletsDeleted(deleted []protocol.DeletedConlet) {
	if len(deleted) == 0 {
		return
	}
	c.channel.Send(protocol.MethodConletsDeleted, deleted)
}

// UpdateLayout reports the arrangement of previews and tabs so that the
// server can restore it on the next load.
func (c *Console) UpdateLayout(previews, tabs []string, xtraInfo any) {
	if previews == nil {
		previews = []string{}
	}
	if tabs == nil {
		tabs = []string{}
	}
	c.layout.Previews = append([]string(nil), previews...)
	c.layout.Tabs = append([]string(nil), tabs...)
	if raw, err := json.Marshal(xtraInfo); err == nil {
		c.layout.XtraInfo = raw
	}
	c.channel.Send(protocol.MethodConsoleLayout, previews, tabs, xtraInfo)
}

// NotifyConletModel invokes a method of the conlet's server side model.
func (c *Console) NotifyConletModel(conletID, method string, args ...any) {
	if args == nil {
		args = []any{}
	}
	c.channel.Send(protocol.MethodNotifyConletModel, conletID, method, args)
}

// RegisterConletFunction registers fn to handle notifyConletView for the
// given conlet type and method.
func (c *Console) RegisterConletFunction(conletType, method string, fn ConletFunction) {
	fns, ok := c.functions[conletType]
	if !ok {
		fns = make(map[string]ConletFunction)
		c.functions[conletType] = fns
	}
	fns[method] = fn
}

// FindConletPreview returns the preview container of a conlet, or nil.
func (c *Console) FindConletPreview(conletID string) *html.Node {
	if rep, ok := c.reg.previews[conletID]; ok {
		return rep.Container
	}
	return nil
}

// FindConletView returns the view container of a conlet, or nil.
func (c *Console) FindConletView(conletID string) *html.Node {
	if rep, ok := c.reg.views[conletID]; ok {
		return rep.Container
	}
	return nil
}

// Preview returns the preview representation of a conlet.
func (c *Console) Preview(conletID string) (*Representation, bool) {
	rep, ok := c.reg.previews[conletID]
	return rep, ok
}

// View returns the view representation of a conlet.
func (c *Console) View(conletID string) (*Representation, bool) {
	rep, ok := c.reg.views[conletID]
	return rep, ok
}

// Contents returns the resolved content representations of a conlet.
func (c *Console) Contents(conletID string) []*Representation {
	return c.reg.contentsOf(conletID)
}

// FindPreviewIDs returns the ids of all displayed previews in the order
// they appeared.
func (c *Console) FindPreviewIDs() []string {
	return append([]string(nil), c.reg.previewOrder...)
}

// FindViewIDs returns the ids of all displayed views in the order they
// appeared.
func (c *Console) FindViewIDs() []string {
	return append([]string(nil), c.reg.viewOrder...)
}

func nonNilModes(modes protocol.RenderModes) protocol.RenderModes {
	if modes == nil {
		return protocol.RenderModes{}
	}
	return modes
}
