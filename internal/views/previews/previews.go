// Package previews renders the preview tiles of the console as a sortable,
// filterable table.
package previews

import (
	"fmt"
	"sort"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/conletkit/console/internal/table"
	"github.com/conletkit/console/internal/theme"
)

// Tile is one conlet preview as displayed.
type Tile struct {
	ID       string
	Type     string
	TypeName string
	Title    string
	Text     string
	Sticky   bool
	// Seq is the order in which the preview appeared.
	Seq int
}

// Summary returns the first line of the preview text.
func (t Tile) Summary() string {
	line, _, _ := strings.Cut(t.Text, "\n")
	return line
}

// Label returns the title, falling back to the type's display name.
func (t Tile) Label() string {
	if t.Title != "" {
		return t.Title
	}
	if t.TypeName != "" {
		return t.TypeName
	}
	return t.Type
}

// Model holds the preview tiles and the table state.
type Model struct {
	Width     int
	Selected  int
	tiles     map[string]Tile
	seq       int
	// preferred ranks previews by the layout the server last reported.
	preferred map[string]int
	table     *table.Controller[Tile]
}

// New creates an empty preview table, in order of appearance.
func New() Model {
	return Model{
		tiles: make(map[string]Tile),
		table: table.New(
			table.Column[Tile]{
				Key:   "order",
				Label: "#",
				Less:  func(a, b Tile) bool { return a.Seq < b.Seq },
			},
			table.Column[Tile]{Key: "title", Label: "Title", Value: Tile.Label},
			table.Column[Tile]{Key: "type", Label: "Type", Value: func(t Tile) string { return t.Type }},
			table.Column[Tile]{Key: "summary", Label: "Preview", Value: Tile.Summary},
		),
	}
}

// Table exposes the sort and filter state.
func (m Model) Table() *table.Controller[Tile] {
	return m.table
}

// Set adds or replaces a tile. New tiles go last in appearance order.
func (m *Model) Set(t Tile) {
	if old, ok := m.tiles[t.ID]; ok {
		t.Seq = old.Seq
	} else if rank, ok := m.preferred[t.ID]; ok {
		t.Seq = rank
	} else {
		m.seq++
		t.Seq = m.seq
	}
	m.tiles[t.ID] = t
	m.clamp()
}

// Prefer makes previews appear in the given order, as restored from a
// saved layout. Previews not listed follow them.
func (m *Model) Prefer(ids []string) {
	m.preferred = make(map[string]int, len(ids))
	for i, id := range ids {
		m.preferred[id] = i + 1
	}
	if m.seq < len(ids) {
		m.seq = len(ids)
	}
}

// Get returns the tile of a conlet.
func (m Model) Get(id string) (Tile, bool) {
	t, ok := m.tiles[id]
	return t, ok
}

// Remove drops a tile.
func (m *Model) Remove(id string) {
	delete(m.tiles, id)
	m.clamp()
}

// Len returns the number of tiles, filtered or not.
func (m Model) Len() int {
	return len(m.tiles)
}

// Rows returns the tiles as displayed.
func (m Model) Rows() []Tile {
	// Equal keys keep appearance order.
	return m.table.Apply(m.ordered())
}

func (m Model) ordered() []Tile {
	all := make([]Tile, 0, len(m.tiles))
	for _, t := range m.tiles {
		all = append(all, t)
	}
	sort.Slice(all, func(i, j int) bool { return all[i].Seq < all[j].Seq })
	return all
}

// IDs returns the conlet ids in appearance order, for the layout report.
func (m Model) IDs() []string {
	var ids []string
	for _, t := range m.ordered() {
		ids = append(ids, t.ID)
	}
	return ids
}

// Current returns the selected tile.
func (m Model) Current() (Tile, bool) {
	rows := m.Rows()
	if m.Selected < 0 || m.Selected >= len(rows) {
		return Tile{}, false
	}
	return rows[m.Selected], true
}

// Move changes the selection by delta, wrapping around.
func (m *Model) Move(delta int) {
	n := len(m.Rows())
	if n == 0 {
		m.Selected = 0
		return
	}
	m.Selected = ((m.Selected+delta)%n + n) % n
}

func (m *Model) clamp() {
	n := len(m.Rows())
	if m.Selected >= n {
		m.Selected = n - 1
	}
	if m.Selected < 0 {
		m.Selected = 0
	}
}

// CycleSort sorts by the next column, or reverses the current one when
// reverse is set.
func (m *Model) CycleSort(reverse bool) {
	if reverse {
		m.table.SortBy(m.table.SortKey())
		return
	}
	cols := m.table.Columns()
	for i, c := range cols {
		if c.Key == m.table.SortKey() {
			m.table.SortByOrder(cols[(i+1)%len(cols)].Key, table.Ascending)
			break
		}
	}
	m.clamp()
}

// View renders the table.
func (m Model) View() string {
	width := m.Width
	if width < 40 {
		width = 40
	}

	title := "  Previews"
	if f := m.table.Filter(); f != "" {
		title += theme.StyleDimmed.Render(fmt.Sprintf("  filter: %q", f))
	}
	header := lipgloss.NewStyle().Bold(true).Foreground(theme.ColorBright).Render(title)

	rows := m.Rows()
	if len(rows) == 0 {
		msg := "  No previews"
		if len(m.tiles) > 0 {
			msg = "  No previews match the filter"
		}
		return lipgloss.JoinVertical(lipgloss.Left, header, theme.StyleDimmed.Render(msg))
	}

	colSeq := 4
	colTitle := 24
	colType := 22
	colSummary := max(10, width-colSeq-colTitle-colType-8)

	dimStyle := lipgloss.NewStyle().Foreground(theme.ColorDimmed)
	heading := func(key, label string) string {
		return label + m.table.SortIndicator(key)
	}
	tableHeader := fmt.Sprintf("  %-*s %-*s %-*s %s",
		colSeq, heading("order", "#"),
		colTitle, heading("title", "Title"),
		colType, heading("type", "Type"),
		heading("summary", "Preview"),
	)
	lines := []string{
		header,
		dimStyle.Render(tableHeader),
		dimStyle.Render("  " + strings.Repeat("─", min(width-4, colSeq+colTitle+colType+colSummary+3))),
	}

	for i, t := range rows {
		prefix := "  "
		if i == m.Selected {
			prefix = "> "
		}
		seq := fmt.Sprintf("%-*d", colSeq, t.Seq)
		color := theme.ColorPreview
		if t.Sticky {
			color = theme.ColorSticky
		}
		titleStr := lipgloss.NewStyle().Foreground(color).Width(colTitle).
			Render(theme.Truncate(t.Label(), colTitle-1))
		typeStr := dimStyle.Width(colType).Render(theme.Truncate(t.Type, colType-1))
		summary := theme.Truncate(t.Summary(), colSummary)
		if i == m.Selected {
			summary = theme.StyleSelected.Render(summary)
		}
		lines = append(lines, fmt.Sprintf("%s%s %s %s %s", prefix, seq, titleStr, typeStr, summary))
	}

	return lipgloss.JoinVertical(lipgloss.Left, lines...)
}
