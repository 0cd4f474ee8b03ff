package console

import (
	"encoding/json"
	"strings"

	"github.com/conletkit/console/internal/dom"
	"github.com/conletkit/console/internal/protocol"
	"golang.org/x/net/html"
)

// ConletType is a conlet type announced by the server.
type ConletType struct {
	Type string
	// DisplayNames maps locales to display names.
	DisplayNames map[string]string
	CSSURIs      []string
	Scripts      []protocol.ScriptResource
	RenderModes  protocol.RenderModes
	// PageComponents describes where the type may be embedded. The console
	// passes it through unchanged.
	PageComponents json.RawMessage
}

// DisplayName returns the name for locale, falling back to the language
// without region, then English, then any name, then the type itself.
func (t *ConletType) DisplayName(locale string) string {
	if name, ok := t.DisplayNames[locale]; ok {
		return name
	}
	if i := strings.IndexAny(locale, "-_"); i > 0 {
		if name, ok := t.DisplayNames[locale[:i]]; ok {
			return name
		}
	}
	if name, ok := t.DisplayNames["en"]; ok {
		return name
	}
	for _, name := range t.DisplayNames {
		return name
	}
	return t.Type
}

// Layout is the arrangement of previews and view tabs last reported by the
// server or the renderer.
type Layout struct {
	Previews []string
	Tabs     []string
	XtraInfo json.RawMessage
}

// ResolutionState tracks an embedded content representation.
type ResolutionState int

const (
	// Unresolved content has been found in delivered markup.
	Unresolved ResolutionState = iota
	// Resolving content has been requested with addConlet.
	Resolving
	// Resolved content is bound to a conlet id.
	Resolved
)

// Representation is one displayed rendition of a conlet.
type Representation struct {
	ConletType string
	// ConletID is empty for content that is not resolved yet.
	ConletID string
	Mode     protocol.RenderMode
	// Sticky previews cannot be removed by the user.
	Sticky    bool
	State     ResolutionState
	Container *html.Node
}

// Title returns the data-conlet-title of the representation's content.
func (r *Representation) Title() string {
	return dom.Title(dom.Children(r.Container))
}

// Text returns the content as plain text.
func (r *Representation) Text() string {
	return dom.PlainText(r.Container)
}

// Dialog is a transient container for modal dialogs and the Edit and Help
// modes. Dialogs are never returned by the Find functions.
type Dialog struct {
	ConletType string
	ConletID   string
	// Mode is Edit or Help for dialogs opened by updateConlet, empty for
	// openModalDialog.
	Mode      protocol.RenderMode
	Options   protocol.Options
	Container *html.Node
}

// Title returns the dialog title from the options or the content.
func (d *Dialog) Title() string {
	if d.Options.Title != "" {
		return d.Options.Title
	}
	return dom.Title(dom.Children(d.Container))
}

func dialogKey(conletType, conletID string) string {
	return conletType + "\x00" + conletID
}

// registry holds the console's view of displayed conlets.
type registry struct {
	types    map[string]*ConletType
	previews map[string]*Representation
	views    map[string]*Representation
	contents []*Representation
	dialogs  map[string]*Dialog
	// order of first appearance, for stable Find results.
	previewOrder []string
	viewOrder    []string
}

func newRegistry() *registry {
	return &registry{
		types:    make(map[string]*ConletType),
		previews: make(map[string]*Representation),
		views:    make(map[string]*Representation),
		dialogs:  make(map[string]*Dialog),
	}
}

func (r *registry) addPreview(rep *Representation) {
	r.previews[rep.ConletID] = rep
	r.previewOrder = append(r.previewOrder, rep.ConletID)
}

func (r *registry) addView(rep *Representation) {
	r.views[rep.ConletID] = rep
	r.viewOrder = append(r.viewOrder, rep.ConletID)
}

func (r *registry) dropPreview(id string) {
	delete(r.previews, id)
	r.previewOrder = without(r.previewOrder, id)
}

func (r *registry) dropView(id string) {
	delete(r.views, id)
	r.viewOrder = without(r.viewOrder, id)
}

func without(ids []string, id string) []string {
	out := ids[:0]
	for _, v := range ids {
		if v != id {
			out = append(out, v)
		}
	}
	return out
}

// contentsOf returns the resolved content representations of a conlet.
func (r *registry) contentsOf(id string) []*Representation {
	var out []*Representation
	for _, rep := range r.contents {
		if rep.State == Resolved && rep.ConletID == id {
			out = append(out, rep)
		}
	}
	return out
}

// firstResolving returns the oldest content of conletType awaiting its id.
func (r *registry) firstResolving(conletType string) *Representation {
	for _, rep := range r.contents {
		if rep.State == Resolving && rep.ConletType == conletType {
			return rep
		}
	}
	return nil
}

// dropContents removes the content representations for which drop returns
// true and returns them.
func (r *registry) dropContents(drop func(*Representation) bool) []*Representation {
	var dropped []*Representation
	kept := r.contents[:0]
	for _, rep := range r.contents {
		if drop(rep) {
			dropped = append(dropped, rep)
		} else {
			kept = append(kept, rep)
		}
	}
	for i := len(kept); i < len(r.contents); i++ {
		r.contents[i] = nil
	}
	r.contents = kept
	return dropped
}

// dropNested removes the content representations inside root.
func (r *registry) dropNested(root *html.Node) []*Representation {
	return r.dropContents(func(rep *Representation) bool {
		return rep.Container != root && dom.Contains(root, rep.Container)
	})
}
