package resource

import (
	"context"
	"sync"

	"github.com/conletkit/console/internal/protocol"
)

// Head is the document head the manager injects resources into.
type Head interface {
	HasStylesheet(uri string) bool
	// InsertStylesheet adds a stylesheet link before the last existing one,
	// or appends it when there is none.
	InsertStylesheet(uri string)
	// InsertStyle adds inline CSS using the same insertion point as
	// InsertStylesheet.
	InsertStyle(source string)
	HasScript(uri string) bool
	// InjectScript appends a script element. For resources with a URI, done
	// is called once the script has loaded (or failed), possibly on another
	// goroutine. Inline resources are evaluated synchronously and done is
	// nil.
	InjectScript(res protocol.ScriptResource, done func(err error))
}

// Fetcher loads script sources by URI.
type Fetcher interface {
	Fetch(ctx context.Context, uri string) ([]byte, error)
}

// ElementKind names the kind of a head element.
type ElementKind string

const (
	KindLink   ElementKind = "link"
	KindStyle  ElementKind = "style"
	KindScript ElementKind = "script"
)

// Element is one element of a MemoryHead.
type Element struct {
	Kind   ElementKind
	URI    string
	Source string
	Async  bool
	Loaded bool
}

// MemoryHead is an in-memory document head. Scripts with a URI are loaded
// through the Fetcher on a helper goroutine; without a Fetcher they count
// as loaded immediately.
type MemoryHead struct {
	Fetcher Fetcher

	mu       sync.Mutex
	elements []*Element
}

// NewMemoryHead creates a head that starts out with the given stylesheet
// links, as a page template would.
func NewMemoryHead(fetcher Fetcher, stylesheets ...string) *MemoryHead {
	h := &MemoryHead{Fetcher: fetcher}
	for _, uri := range stylesheets {
		h.elements = append(h.elements, &Element{Kind: KindLink, URI: uri})
	}
	return h
}

// Elements returns a snapshot of the head's elements in document order.
func (h *MemoryHead) Elements() []Element {
	h.mu.Lock()
	defer h.mu.Unlock()
	out := make([]Element, len(h.elements))
	for i, e := range h.elements {
		out[i] = *e
	}
	return out
}

// Scripts returns the script elements in document order.
func (h *MemoryHead) Scripts() []Element {
	var out []Element
	for _, e := range h.Elements() {
		if e.Kind == KindScript {
			out = append(out, e)
		}
	}
	return out
}

func (h *MemoryHead) HasStylesheet(uri string) bool {
	return h.has(KindLink, uri)
}

func (h *MemoryHead) HasScript(uri string) bool {
	return h.has(KindScript, uri)
}

func (h *MemoryHead) has(kind ElementKind, uri string) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	for _, e := range h.elements {
		if e.Kind == kind && e.URI == uri {
			return true
		}
	}
	return false
}

func (h *MemoryHead) InsertStylesheet(uri string) {
	h.insertStyling(&Element{Kind: KindLink, URI: uri})
}

func (h *MemoryHead) InsertStyle(source string) {
	h.insertStyling(&Element{Kind: KindStyle, Source: source})
}

func (h *MemoryHead) insertStyling(e *Element) {
	h.mu.Lock()
	defer h.mu.Unlock()
	last := -1
	for i, el := range h.elements {
		if el.Kind == KindLink {
			last = i
		}
	}
	if last < 0 {
		h.elements = append(h.elements, e)
		return
	}
	h.elements = append(h.elements, nil)
	copy(h.elements[last+1:], h.elements[last:])
	h.elements[last] = e
}

func (h *MemoryHead) InjectScript(res protocol.ScriptResource, done func(err error)) {
	e := &Element{Kind: KindScript, URI: res.URI, Async: res.URI != ""}
	if res.URI == "" {
		e.Source = res.Source
		e.Loaded = true
	}
	h.mu.Lock()
	h.elements = append(h.elements, e)
	h.mu.Unlock()

	if res.URI == "" || done == nil {
		return
	}
	if h.Fetcher == nil {
		h.mu.Lock()
		e.Loaded = true
		h.mu.Unlock()
		done(nil)
		return
	}
	go func() {
		data, err := h.Fetcher.Fetch(context.Background(), res.URI)
		if err == nil {
			h.mu.Lock()
			e.Source = string(data)
			e.Loaded = true
			h.mu.Unlock()
		}
		done(err)
	}()
}
