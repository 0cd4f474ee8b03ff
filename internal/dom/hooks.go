package dom

import (
	"log"

	"golang.org/x/net/html"
)

// LoadFunc is a data-on-load or data-on-unload hook. isUpdate is true when
// the content is being replaced rather than mounted or removed for good.
type LoadFunc func(el *html.Node, isUpdate bool)

// ActionFunc is a data-on-action hook, run when a dialog closes.
type ActionFunc func(el *html.Node, apply, close bool)

// Hooks maps the names found in hook attributes to callbacks. Conlet
// implementations register their hooks before the console starts.
type Hooks struct {
	load   map[string]LoadFunc
	unload map[string]LoadFunc
	action map[string]ActionFunc
	log    *log.Logger
}

// NewHooks creates an empty registry. Unknown hook names are reported to
// logger (log.Default() when nil).
func NewHooks(logger *log.Logger) *Hooks {
	if logger == nil {
		logger = log.Default()
	}
	return &Hooks{
		load:   make(map[string]LoadFunc),
		unload: make(map[string]LoadFunc),
		action: make(map[string]ActionFunc),
		log:    logger,
	}
}

func (h *Hooks) RegisterLoad(name string, fn LoadFunc)     { h.load[name] = fn }
func (h *Hooks) RegisterUnload(name string, fn LoadFunc)   { h.unload[name] = fn }
func (h *Hooks) RegisterAction(name string, fn ActionFunc) { h.action[name] = fn }

// RunLoad runs the data-on-load hooks of root's subtree, parents first.
func (h *Hooks) RunLoad(root *html.Node, isUpdate bool) {
	WalkPre(root, func(n *html.Node) bool {
		if name, ok := Attr(n, AttrOnLoad); ok {
			if fn, ok := h.load[name]; ok {
				h.call(AttrOnLoad, name, func() { fn(n, isUpdate) })
			} else {
				h.log.Printf("hook %s=%q not registered", AttrOnLoad, name)
			}
		}
		return true
	})
}

// RunUnload runs the data-on-unload hooks of root's subtree depth first,
// children before their parents.
func (h *Hooks) RunUnload(root *html.Node, isUpdate bool) {
	WalkPost(root, func(n *html.Node) {
		if name, ok := Attr(n, AttrOnUnload); ok {
			if fn, ok := h.unload[name]; ok {
				h.call(AttrOnUnload, name, func() { fn(n, isUpdate) })
			} else {
				h.log.Printf("hook %s=%q not registered", AttrOnUnload, name)
			}
		}
	})
}

// RunAction runs the data-on-action hooks of root's subtree, parents first.
func (h *Hooks) RunAction(root *html.Node, apply, close bool) {
	WalkPre(root, func(n *html.Node) bool {
		if name, ok := Attr(n, AttrOnAction); ok {
			if fn, ok := h.action[name]; ok {
				h.call(AttrOnAction, name, func() { fn(n, apply, close) })
			} else {
				h.log.Printf("hook %s=%q not registered", AttrOnAction, name)
			}
		}
		return true
	})
}

// call runs one hook; a failing hook must not stop the walk.
func (h *Hooks) call(attr, name string, fn func()) {
	defer func() {
		if r := recover(); r != nil {
			h.log.Printf("hook %s=%q failed: %v", attr, name, r)
		}
	}()
	fn()
}
