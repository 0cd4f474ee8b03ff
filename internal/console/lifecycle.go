package console

import (
	"encoding/json"

	"github.com/conletkit/console/internal/dom"
	"github.com/conletkit/console/internal/protocol"
	"golang.org/x/net/html"
)

// updateConlet displays or refreshes one representation. Preview takes
// precedence over View, View over Content; Edit and Help open a dialog.
func (c *Console) updateConlet(conletType, conletID string, modes protocol.RenderModes, content string) {
	switch {
	case modes.Has(protocol.ModePreview) || modes.Has(protocol.ModeStickyPreview):
		rep, ok := c.reg.previews[conletID]
		isNew := !ok
		if isNew {
			rep = &Representation{
				ConletType: conletType,
				ConletID:   conletID,
				Mode:       protocol.ModePreview,
				State:      Resolved,
				Container:  dom.NewContainer(dom.ClassPreview, conletType, conletID),
			}
		}
		if !c.replaceContent(rep, content, isNew) {
			return
		}
		rep.Sticky = modes.Has(protocol.ModeStickyPreview)
		if isNew {
			c.reg.addPreview(rep)
		}
		c.renderer.UpdateConletPreview(isNew, rep, modes, modes.Has(protocol.ModeForeground))
		c.mounted(rep.Container, !isNew)

	case modes.Has(protocol.ModeView):
		rep, ok := c.reg.views[conletID]
		isNew := !ok
		if isNew {
			rep = &Representation{
				ConletType: conletType,
				ConletID:   conletID,
				Mode:       protocol.ModeView,
				State:      Resolved,
				Container:  dom.NewContainer(dom.ClassView, conletType, conletID),
			}
		}
		if !c.replaceContent(rep, content, isNew) {
			return
		}
		if isNew {
			c.reg.addView(rep)
		}
		c.renderer.UpdateConletView(isNew, rep, modes, modes.Has(protocol.ModeForeground))
		c.mounted(rep.Container, !isNew)

	case modes.Has(protocol.ModeContent):
		c.updateContent(conletType, conletID, modes, content)

	case modes.Has(protocol.ModeEdit):
		c.openDialog(conletType, conletID, protocol.ModeEdit, content, protocol.Options{})

	case modes.Has(protocol.ModeHelp):
		c.openDialog(conletType, conletID, protocol.ModeHelp, content, protocol.Options{})

	default:
		c.log.Printf("console: updateConlet %s with no displayable mode %v", conletID, modes)
	}
}

// replaceContent parses content into rep's container. For an existing
// representation the old content's unload hooks run first and embedded
// content that disappears is reported to the server.
func (c *Console) replaceContent(rep *Representation, content string, isNew bool) bool {
	nodes, err := dom.ParseFragment(content)
	if err != nil {
		c.log.Printf("console: content of %s: %v", rep.ConletID, err)
		return false
	}
	if !isNew {
		c.hooks.RunUnload(rep.Container, true)
		c.reportDropped(c.reg.dropNested(rep.Container))
	}
	dom.ReplaceChildren(rep.Container, nodes)
	return true
}

// mounted runs the load hooks of freshly delivered content and requests
// the embedded content it declares.
func (c *Console) mounted(container *html.Node, isUpdate bool) {
	c.hooks.RunLoad(container, isUpdate)
	c.resolveEmbedded(container)
}

// updateContent binds content to the conlet's existing content
// representations, or else to the oldest placeholder of the type that is
// waiting for its id.
func (c *Console) updateContent(conletType, conletID string, modes protocol.RenderModes, content string) {
	reps := c.reg.contentsOf(conletID)
	isNew := false
	if len(reps) == 0 {
		rep := c.reg.firstResolving(conletType)
		if rep == nil {
			c.log.Printf("console: no content placeholder for %s (%s)", conletID, conletType)
			return
		}
		rep.ConletID = conletID
		rep.State = Resolved
		dom.SetAttr(rep.Container, dom.AttrConletID, conletID)
		reps = []*Representation{rep}
		isNew = true
	}

	// Every representation needs its own copy of the content.
	for _, rep := range reps {
		if !c.replaceContent(rep, content, isNew) {
			return
		}
	}
	c.renderer.UpdateConletContent(isNew, reps, modes)
	for _, rep := range reps {
		c.mounted(rep.Container, !isNew)
	}
}

// resolveEmbedded finds content placeholders below root. Placeholders
// without a conlet id are requested with addConlet; those with an id are
// rendered again.
func (c *Console) resolveEmbedded(root *html.Node) {
	placeholders := dom.FindAll(root, func(n *html.Node) bool {
		_, ok := dom.Attr(n, dom.AttrConletType)
		return ok
	})
	for _, el := range placeholders {
		if c.known(el) {
			continue
		}
		conletType, _ := dom.Attr(el, dom.AttrConletType)
		if !dom.HasClass(el, dom.ClassContent) {
			class, _ := dom.Attr(el, "class")
			dom.SetAttr(el, "class", joinClass(class, dom.ClassContent))
		}
		rep := &Representation{
			ConletType: conletType,
			Mode:       protocol.ModeContent,
			State:      Unresolved,
			Container:  el,
		}
		c.reg.contents = append(c.reg.contents, rep)

		if id, ok := dom.Attr(el, dom.AttrConletID); ok && id != "" {
			rep.ConletID = id
			rep.State = Resolved
			c.RenderConlet(id, protocol.RenderModes{protocol.ModeContent})
			continue
		}
		var props map[string]any
		if raw, ok := dom.Attr(el, dom.AttrConletProperties); ok && raw != "" {
			if err := json.Unmarshal([]byte(raw), &props); err != nil {
				c.log.Printf("console: bad %s on %s placeholder: %v", dom.AttrConletProperties, conletType, err)
			}
		}
		rep.State = Resolving
		c.AddConlet(conletType, protocol.RenderModes{protocol.ModeContent}, props)
	}
}

func (c *Console) known(el *html.Node) bool {
	for _, rep := range c.reg.contents {
		if rep.Container == el {
			return true
		}
	}
	return false
}

func joinClass(class, add string) string {
	if class == "" {
		return add
	}
	return class + " " + add
}

// reportDropped tells the server about resolved content that went away
// with its enclosing representation.
func (c *Console) reportDropped(reps []*Representation) {
	var deleted []protocol.DeletedConlet
	for _, rep := range reps {
		if rep.State == Resolved && rep.ConletID != "" {
			deleted = append(deleted, protocol.DeletedConlet{
				ConletID: rep.ConletID,
				Modes:    protocol.RenderModes{protocol.ModeContent},
			})
		}
	}
	c.ConletsDeleted(deleted)
}

// deleteConlet removes representations on behalf of the server. Without
// modes every representation goes. The server is not notified about the
// conlet itself, only about embedded content removed along with it.
func (c *Console) deleteConlet(conletID string, modes protocol.RenderModes) {
	all := len(modes) == 0
	var removed []*Representation

	if rep, ok := c.reg.previews[conletID]; ok &&
		(all || modes.Has(protocol.ModePreview) || modes.Has(protocol.ModeStickyPreview)) {
		c.reg.dropPreview(conletID)
		removed = append(removed, rep)
	}
	if rep, ok := c.reg.views[conletID]; ok && (all || modes.Has(protocol.ModeView)) {
		c.reg.dropView(conletID)
		removed = append(removed, rep)
	}
	if all || modes.Has(protocol.ModeContent) {
		removed = append(removed, c.reg.dropContents(func(rep *Representation) bool {
			return rep.State == Resolved && rep.ConletID == conletID
		})...)
	}
	if len(removed) == 0 {
		return
	}

	var nested []*Representation
	for _, rep := range removed {
		c.hooks.RunUnload(rep.Container, false)
		nested = append(nested, c.reg.dropNested(rep.Container)...)
	}
	c.renderer.RemoveConletDisplays(removed)
	c.reportDropped(nested)
}

// RemovePreview removes a conlet from the console on behalf of the user:
// its view goes with its preview. Unload hooks run, the displays are
// detached, then the server is told. Sticky previews stay.
func (c *Console) RemovePreview(conletID string) {
	if rep, ok := c.reg.previews[conletID]; ok && rep.Sticky {
		c.log.Printf("console: preview %s is sticky", conletID)
		return
	}
	c.removeLocal(conletID, true)
}

// RemoveView closes a conlet's view on behalf of the user.
func (c *Console) RemoveView(conletID string) {
	c.removeLocal(conletID, false)
}

func (c *Console) removeLocal(conletID string, withPreview bool) {
	var (
		removed []*Representation
		modes   protocol.RenderModes
	)
	if rep, ok := c.reg.views[conletID]; ok {
		c.reg.dropView(conletID)
		removed = append(removed, rep)
		modes = append(modes, protocol.ModeView)
	}
	if rep, ok := c.reg.previews[conletID]; ok && withPreview {
		c.reg.dropPreview(conletID)
		removed = append(removed, rep)
		modes = append(modes, protocol.ModePreview)
	}
	if len(removed) == 0 {
		return
	}

	var nested []*Representation
	for _, rep := range removed {
		c.hooks.RunUnload(rep.Container, false)
		nested = append(nested, c.reg.dropNested(rep.Container)...)
	}
	c.renderer.RemoveConletDisplays(removed)

	deleted := []protocol.DeletedConlet{{ConletID: conletID, Modes: modes}}
	for _, rep := range nested {
		if rep.State == Resolved && rep.ConletID != "" {
			deleted = append(deleted, protocol.DeletedConlet{
				ConletID: rep.ConletID,
				Modes:    protocol.RenderModes{protocol.ModeContent},
			})
		}
	}
	c.ConletsDeleted(deleted)
}

// openDialog shows a transient container. A dialog already open for the
// same conlet is replaced.
func (c *Console) openDialog(conletType, conletID string, mode protocol.RenderMode, content string, options protocol.Options) {
	nodes, err := dom.ParseFragment(content)
	if err != nil {
		c.log.Printf("console: dialog content of %s: %v", conletID, err)
		return
	}
	key := dialogKey(conletType, conletID)
	if old, ok := c.reg.dialogs[key]; ok {
		c.closeDialog(old, false)
	}

	container := dom.NewContainer(dom.ClassModal, conletType, conletID)
	dom.ReplaceChildren(container, nodes)
	d := &Dialog{
		ConletType: conletType,
		ConletID:   conletID,
		Mode:       mode,
		Options:    options,
		Container:  container,
	}
	c.reg.dialogs[key] = d
	c.renderer.OpenModalDialog(d)
	c.hooks.RunLoad(container, false)
}

// CloseModal closes a dialog on behalf of the user. Action hooks run first
// so that embedded widgets can send their values; apply tells them whether
// the user confirmed.
func (c *Console) CloseModal(d *Dialog, apply bool) {
	if cur, ok := c.reg.dialogs[dialogKey(d.ConletType, d.ConletID)]; !ok || cur != d {
		return
	}
	c.closeDialog(d, apply)
}

// ExecOnAction runs a dialog's action hooks without closing it.
func (c *Console) ExecOnAction(d *Dialog, apply bool) {
	c.hooks.RunAction(d.Container, apply, false)
}

// Dialogs returns the open dialogs.
func (c *Console) Dialogs() []*Dialog {
	out := make([]*Dialog, 0, len(c.reg.dialogs))
	for _, d := range c.reg.dialogs {
		out = append(out, d)
	}
	return out
}

func (c *Console) closeDialog(d *Dialog, apply bool) {
	delete(c.reg.dialogs, dialogKey(d.ConletType, d.ConletID))
	c.hooks.RunAction(d.Container, apply, true)
	c.hooks.RunUnload(d.Container, false)
	c.renderer.CloseModalDialog(d)
}
