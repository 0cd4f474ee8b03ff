// Package dom holds the in-memory HTML tree the console keeps for every
// conlet representation, with the markup conventions renderers rely on.
package dom

import (
	"strings"

	"github.com/microcosm-cc/bluemonday"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// Markup conventions shared with the server.
const (
	AttrConletType       = "data-conlet-type"
	AttrConletID         = "data-conlet-id"
	AttrConletTitle      = "data-conlet-title"
	AttrConletProperties = "data-conlet-properties"
	AttrOnLoad           = "data-on-load"
	AttrOnUnload         = "data-on-unload"
	AttrOnAction         = "data-on-action"

	ClassConlet  = "conlet"
	ClassPreview = "conlet-preview"
	ClassView    = "conlet-view"
	ClassContent = "conlet-content"
	ClassModal   = "conlet-modal"
)

// ParseFragment parses content as the children of a <div>.
func ParseFragment(content string) ([]*html.Node, error) {
	context := &html.Node{Type: html.ElementNode, Data: "div", DataAtom: atom.Div}
	return html.ParseFragment(strings.NewReader(content), context)
}

// NewContainer creates the bare element a representation is mounted in.
func NewContainer(class, conletType, conletID string) *html.Node {
	n := &html.Node{Type: html.ElementNode, Data: "div", DataAtom: atom.Div}
	SetAttr(n, "class", ClassConlet+" "+class)
	SetAttr(n, AttrConletType, conletType)
	if conletID != "" {
		SetAttr(n, AttrConletID, conletID)
	}
	return n
}

// Attr returns the value of the attribute key and whether it is present.
func Attr(n *html.Node, key string) (string, bool) {
	if n == nil || n.Type != html.ElementNode {
		return "", false
	}
	for _, a := range n.Attr {
		if a.Namespace == "" && a.Key == key {
			return a.Val, true
		}
	}
	return "", false
}

// SetAttr sets or adds an attribute.
func SetAttr(n *html.Node, key, val string) {
	for i, a := range n.Attr {
		if a.Namespace == "" && a.Key == key {
			n.Attr[i].Val = val
			return
		}
	}
	n.Attr = append(n.Attr, html.Attribute{Key: key, Val: val})
}

// RemoveAttr deletes an attribute if present.
func RemoveAttr(n *html.Node, key string) {
	for i, a := range n.Attr {
		if a.Namespace == "" && a.Key == key {
			n.Attr = append(n.Attr[:i], n.Attr[i+1:]...)
			return
		}
	}
}

// HasClass reports whether class is one of n's classes.
func HasClass(n *html.Node, class string) bool {
	v, ok := Attr(n, "class")
	if !ok {
		return false
	}
	for _, c := range strings.Fields(v) {
		if c == class {
			return true
		}
	}
	return false
}

// ReplaceChildren detaches n's children and appends nodes in their place.
// n itself keeps its identity.
func ReplaceChildren(n *html.Node, nodes []*html.Node) {
	for c := n.FirstChild; c != nil; {
		next := c.NextSibling
		n.RemoveChild(c)
		c = next
	}
	for _, c := range nodes {
		if c.Parent != nil {
			c.Parent.RemoveChild(c)
		}
		n.AppendChild(c)
	}
}

// Children returns n's child nodes.
func Children(n *html.Node) []*html.Node {
	var out []*html.Node
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		out = append(out, c)
	}
	return out
}

// Render serializes n and its subtree.
func Render(n *html.Node) string {
	var b strings.Builder
	if err := html.Render(&b, n); err != nil {
		return ""
	}
	return b.String()
}

// InnerHTML serializes n's children.
func InnerHTML(n *html.Node) string {
	var b strings.Builder
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		html.Render(&b, c)
	}
	return b.String()
}

// Title returns the data-conlet-title of the first element in nodes.
func Title(nodes []*html.Node) string {
	for _, n := range nodes {
		if n.Type == html.ElementNode {
			v, _ := Attr(n, AttrConletTitle)
			return v
		}
	}
	return ""
}

// WalkPre calls fn for n and its descendants, parents before children.
// Returning false from fn skips the node's subtree.
func WalkPre(n *html.Node, fn func(*html.Node) bool) {
	if !fn(n) {
		return
	}
	for c := n.FirstChild; c != nil; {
		next := c.NextSibling
		WalkPre(c, fn)
		c = next
	}
}

// WalkPost calls fn for n and its descendants, children before parents.
func WalkPost(n *html.Node, fn func(*html.Node)) {
	for c := n.FirstChild; c != nil; {
		next := c.NextSibling
		WalkPost(c, fn)
		c = next
	}
	fn(n)
}

// FindAll returns the descendants of n (not n itself) matching pred, in
// document order.
func FindAll(n *html.Node, pred func(*html.Node) bool) []*html.Node {
	var out []*html.Node
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		WalkPre(c, func(d *html.Node) bool {
			if pred(d) {
				out = append(out, d)
			}
			return true
		})
	}
	return out
}

// Contains reports whether d is n or one of its descendants.
func Contains(n, d *html.Node) bool {
	for ; d != nil; d = d.Parent {
		if d == n {
			return true
		}
	}
	return false
}

var textPolicy = bluemonday.StrictPolicy().AddSpaceWhenStrippingTag(true)

var blockElements = map[string]bool{
	"address": true, "article": true, "aside": true, "blockquote": true,
	"dd": true, "div": true, "dl": true, "dt": true, "fieldset": true,
	"figure": true, "footer": true, "form": true, "h1": true, "h2": true,
	"h3": true, "h4": true, "h5": true, "h6": true, "header": true,
	"hr": true, "li": true, "main": true, "nav": true, "ol": true,
	"p": true, "pre": true, "section": true, "table": true, "tbody": true,
	"thead": true, "tr": true, "ul": true,
}

// PlainText renders nodes as text for a terminal. Block elements start a new
// line; markup, scripts and styles are stripped.
func PlainText(nodes ...*html.Node) string {
	var lines []string
	var run strings.Builder
	flush := func() {
		text := html.UnescapeString(textPolicy.Sanitize(run.String()))
		run.Reset()
		if text = strings.Join(strings.Fields(text), " "); text != "" {
			lines = append(lines, text)
		}
	}

	var visit func(n *html.Node)
	visit = func(n *html.Node) {
		switch {
		case n.Type == html.ElementNode && n.Data == "br":
			flush()
		case n.Type == html.ElementNode && blockElements[n.Data]:
			flush()
			for c := n.FirstChild; c != nil; c = c.NextSibling {
				visit(c)
			}
			flush()
		case n.Type == html.DocumentNode:
			for c := n.FirstChild; c != nil; c = c.NextSibling {
				visit(c)
			}
		default:
			html.Render(&run, n)
		}
	}
	for _, n := range nodes {
		visit(n)
	}
	flush()
	return strings.Join(lines, "\n")
}
