package console

import (
	"encoding/json"

	"github.com/conletkit/console/internal/dom"
	"github.com/conletkit/console/internal/protocol"
	"github.com/conletkit/console/internal/store"
	"github.com/conletkit/console/internal/transport"
)

func (c *Console) registerHandlers() {
	handlers := map[string]transport.HandlerFunc{
		protocol.MethodAddPageResources:    c.onAddPageResources,
		protocol.MethodAddConletType:       c.onAddConletType,
		protocol.MethodRemoveConletType:    c.onRemoveConletType,
		protocol.MethodLastConsoleLayout:   c.onLastConsoleLayout,
		protocol.MethodNotifyConletView:    c.onNotifyConletView,
		protocol.MethodConsoleConfigured:   c.onConsoleConfigured,
		protocol.MethodUpdateConlet:        c.onUpdateConlet,
		protocol.MethodDeleteConlet:        c.onDeleteConlet,
		protocol.MethodDisplayNotification: c.onDisplayNotification,
		protocol.MethodOpenModalDialog:     c.onOpenModalDialog,
		protocol.MethodCloseModalDialog:    c.onCloseModalDialog,
		protocol.MethodRetrieveLocalData:   c.onRetrieveLocalData,
		protocol.MethodStoreLocalData:      c.onStoreLocalData,
		protocol.MethodReload:              c.handleReload,
	}
	for method, h := range handlers {
		c.channel.Handle(method, h)
	}
}

// decode unpacks the message parameters into targets, logging failures.
func (c *Console) decode(msg *protocol.Message, targets ...any) bool {
	for i, v := range targets {
		if v == nil {
			continue
		}
		if err := msg.Arg(i, v); err != nil {
			c.log.Printf("console: dropping %v", err)
			return false
		}
	}
	return true
}

// addPageResources(cssUris, cssSource, scriptResources)
func (c *Console) onAddPageResources(msg *protocol.Message) {
	var (
		cssURIs   []string
		cssSource string
		scripts   []protocol.ScriptResource
	)
	if !c.decode(msg, &cssURIs, &cssSource, &scripts) {
		return
	}
	c.resources.AddPageResources(cssURIs, cssSource, scripts)
	c.resources.LockWhileLoading()
}

// addConletType(type, displayNames, cssUris, scriptResources, renderModes, pageComponents?)
func (c *Console) onAddConletType(msg *protocol.Message) {
	ct := &ConletType{}
	if !c.decode(msg, &ct.Type, &ct.DisplayNames, &ct.CSSURIs, &ct.Scripts, &ct.RenderModes) {
		return
	}
	if ct.Type == "" {
		c.log.Printf("console: dropping addConletType without type")
		return
	}
	ct.PageComponents = msg.Raw(5)
	c.reg.types[ct.Type] = ct
	c.resources.AddPageResources(ct.CSSURIs, "", ct.Scripts)
	// Instances of the type must not be delivered before its scripts ran.
	c.resources.LockWhileLoading()
	c.renderer.AddConletType(ct)
}

// removeConletType(type)
func (c *Console) onRemoveConletType(msg *protocol.Message) {
	conletType := msg.String(0)
	if _, ok := c.reg.types[conletType]; !ok {
		return
	}
	delete(c.reg.types, conletType)
	c.renderer.RemoveConletType(conletType)
}

// lastConsoleLayout(previewLayout, tabsLayout, xtraInfo)
func (c *Console) onLastConsoleLayout(msg *protocol.Message) {
	var layout Layout
	if !c.decode(msg, &layout.Previews, &layout.Tabs) {
		return
	}
	layout.XtraInfo = msg.Raw(2)
	c.layout = layout
	c.renderer.LastConsoleLayout(layout)
}

// notifyConletView(conletClass, conletId, method, params)
func (c *Console) onNotifyConletView(msg *protocol.Message) {
	conletType, conletID, method := msg.String(0), msg.String(1), msg.String(2)
	fn, ok := c.functions[conletType][method]
	if !ok {
		c.log.Printf("console: no function %s registered for conlet type %s", method, conletType)
		return
	}
	var params []json.RawMessage
	if raw := msg.Raw(3); raw != nil {
		if err := json.Unmarshal(raw, &params); err != nil {
			params = []json.RawMessage{raw}
		}
	}
	fn(conletID, params)
}

// consoleConfigured()
func (c *Console) onConsoleConfigured(*protocol.Message) {
	c.channel.Session().Configured = true
	c.renderer.ConsoleConfigured()
}

// updateConlet(conletType, conletId, renderModes, supportedModes, content)
func (c *Console) onUpdateConlet(msg *protocol.Message) {
	if c.resources.LockWhileLoading() {
		// Retried once the scripts are in; the lock keeps it queued.
		c.channel.Postpone(msg)
		return
	}
	var (
		conletType, conletID, content string
		modes, supported              protocol.RenderModes
	)
	if !c.decode(msg, &conletType, &conletID, &modes, &supported, &content) {
		return
	}
	c.updateConlet(conletType, conletID, modes, content)
}

// deleteConlet(conletId, renderModes)
func (c *Console) onDeleteConlet(msg *protocol.Message) {
	var (
		conletID string
		modes    protocol.RenderModes
	)
	if !c.decode(msg, &conletID, &modes) {
		return
	}
	c.deleteConlet(conletID, modes)
}

// displayNotification(content, options)
func (c *Console) onDisplayNotification(msg *protocol.Message) {
	nodes, err := dom.ParseFragment(msg.String(0))
	if err != nil {
		c.log.Printf("console: notification content: %v", err)
		return
	}
	c.renderer.DisplayNotification(nodes, protocol.ParseOptions(msg.Raw(1)))
}

// openModalDialog(conletType, conletId, content, options)
func (c *Console) onOpenModalDialog(msg *protocol.Message) {
	c.openDialog(msg.String(0), msg.String(1), "", msg.String(2), protocol.ParseOptions(msg.Raw(3)))
}

// closeModalDialog(conletType, conletId)
func (c *Console) onCloseModalDialog(msg *protocol.Message) {
	d, ok := c.reg.dialogs[dialogKey(msg.String(0), msg.String(1))]
	if !ok {
		return
	}
	c.closeDialog(d, false)
}

// retrieveLocalData(pathPrefix)
func (c *Console) onRetrieveLocalData(msg *protocol.Message) {
	entries, err := c.store.Entries(msg.String(0))
	if err != nil {
		c.log.Printf("console: retrieve local data: %v", err)
	}
	c.channel.Send(protocol.MethodRetrievedLocalData, localEntries(entries))
}

func localEntries(entries []store.Entry) []protocol.LocalEntry {
	out := make([]protocol.LocalEntry, 0, len(entries))
	for _, e := range entries {
		out = append(out, protocol.LocalEntry{Key: e.Key, Value: e.Value})
	}
	return out
}

// storeLocalData(actions)
func (c *Console) onStoreLocalData(msg *protocol.Message) {
	var actions []protocol.StoreAction
	if !c.decode(msg, &actions) {
		return
	}
	for _, a := range actions {
		var err error
		switch a.Op {
		case protocol.StoreUpdate:
			err = c.store.Put(a.Key, a.Value)
		case protocol.StoreDelete:
			err = c.store.Delete(a.Key)
		default:
			c.log.Printf("console: unknown local data operation %q", a.Op)
			continue
		}
		if err != nil {
			c.log.Printf("console: store local data %s: %v", a.Key, err)
		}
	}
}

// reload()
func (c *Console) handleReload(*protocol.Message) {
	if c.onReload == nil {
		c.log.Printf("console: server requested reload, no handler")
		return
	}
	c.onReload()
}
