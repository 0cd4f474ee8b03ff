// Package debug provides a scrollable log overlay fed by the console's
// logger.
package debug

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/conletkit/console/internal/table"
	"github.com/conletkit/console/internal/theme"
)

const maxEntries = 200

// Kinds in the order the filter keys toggle them.
var Kinds = []string{"ws", "res", "con", "hook", "err"}

// Entry is a single event log line.
type Entry struct {
	Time    time.Time
	Kind    string // see Kinds
	Message string
}

// Model holds debug log state.
type Model struct {
	Entries []Entry
	Offset  int // scroll offset (from bottom)
	// Hidden holds the kinds filtered out of the view.
	Hidden *table.OptionsSet[string]
}

// New creates an empty debug model.
func New() Model {
	return Model{Hidden: table.NewOptionsSet[string]()}
}

// Add appends a log entry and caps the buffer.
func (m *Model) Add(kind, message string) {
	m.Entries = append(m.Entries, Entry{
		Time:    time.Now(),
		Kind:    kind,
		Message: message,
	})
	if len(m.Entries) > maxEntries {
		m.Entries = m.Entries[len(m.Entries)-maxEntries:]
	}
	// Reset scroll to bottom on new entry.
	m.Offset = 0
}

// ToggleKind shows or hides the entries of one kind.
func (m *Model) ToggleKind(kind string) {
	m.Hidden.Toggle(kind)
	m.Offset = 0
}

func (m Model) visible() []Entry {
	if m.Hidden.Len() == 0 {
		return m.Entries
	}
	var out []Entry
	for _, e := range m.Entries {
		if !m.Hidden.IsSet(e.Kind) {
			out = append(out, e)
		}
	}
	return out
}

// ScrollUp moves the viewport up.
func (m *Model) ScrollUp(n int) {
	m.Offset += n
	max := len(m.visible()) - 1
	if max < 0 {
		max = 0
	}
	if m.Offset > max {
		m.Offset = max
	}
}

// ScrollDown moves the viewport down.
func (m *Model) ScrollDown(n int) {
	m.Offset -= n
	if m.Offset < 0 {
		m.Offset = 0
	}
}

func panelStyle(width int) lipgloss.Style {
	return lipgloss.NewStyle().
		Width(width).
		Padding(1, 2).
		BorderStyle(lipgloss.DoubleBorder()).
		BorderForeground(theme.ColorBorder)
}

// View renders the debug log as an overlay panel.
func (m Model) View(width, height int) string {
	innerW := width - 4
	if innerW < 20 {
		innerW = 20
	}
	visibleLines := height - 6
	if visibleLines < 3 {
		visibleLines = 3
	}

	entries := m.visible()
	title := theme.StyleHeader.Render(" DEBUG LOG ")
	help := theme.StyleDimmed.Render(fmt.Sprintf("j/k:scroll  1-%d:filter %s  esc:close  %d entries",
		len(Kinds), m.filterLabel(), len(entries)))

	if len(entries) == 0 {
		body := theme.StyleDimmed.Render("  No events recorded yet.")
		content := lipgloss.JoinVertical(lipgloss.Left, title, "", body, "", help)
		return panelStyle(innerW).Render(content)
	}

	end := len(entries) - m.Offset
	start := end - visibleLines
	if start < 0 {
		start = 0
	}
	if end < 0 {
		end = 0
	}

	var lines []string
	for i := start; i < end; i++ {
		e := entries[i]
		tsStr := theme.StyleDimmed.Render(e.Time.Format("15:04:05.000"))
		kindStr := lipgloss.NewStyle().Foreground(kindToColor(e.Kind)).Width(4).Render(e.Kind)
		msgStr := e.Message
		if len(msgStr) > innerW-20 && innerW > 20 {
			msgStr = msgStr[:innerW-23] + "..."
		}
		lines = append(lines, fmt.Sprintf("%s %s %s", tsStr, kindStr, msgStr))
	}

	body := strings.Join(lines, "\n")
	scrollIndicator := ""
	if m.Offset > 0 {
		scrollIndicator = theme.StyleDimmed.Render(fmt.Sprintf(" ↓ %d more", m.Offset))
	}

	content := lipgloss.JoinVertical(lipgloss.Left, title, body, scrollIndicator, help)
	return panelStyle(innerW).Render(content)
}

func (m Model) filterLabel() string {
	var parts []string
	for _, k := range Kinds {
		if m.Hidden.IsSet(k) {
			parts = append(parts, "-"+k)
		} else {
			parts = append(parts, k)
		}
	}
	return "[" + strings.Join(parts, " ") + "]"
}

func kindToColor(kind string) lipgloss.Color {
	switch kind {
	case "ws":
		return theme.ColorAccent
	case "err":
		return theme.ColorDanger
	case "res":
		return theme.ColorPreview
	case "hook":
		return theme.ColorWarning
	default:
		return theme.ColorDimmed
	}
}
