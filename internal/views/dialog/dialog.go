// Package dialog renders a modal conlet dialog.
package dialog

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/conletkit/console/internal/theme"
)

const panelWidth = 60

// Model is an open dialog as shown to the user.
type Model struct {
	// Key identifies the dialog in the session.
	Key        string
	ConletID   string
	Type       string
	Mode       string
	Title      string
	Text       string
	Cancelable bool
	OkayLabel  string
	CloseLabel string
}

// Footer returns the key help for the dialog's buttons.
func (m Model) Footer() string {
	okay := m.OkayLabel
	if okay == "" {
		okay = "Okay"
	}
	if !m.Cancelable && m.CloseLabel == "" {
		return "[enter] " + okay + "  [esc] close"
	}
	cancel := m.CloseLabel
	if cancel == "" {
		cancel = "Cancel"
	}
	return "[enter] " + okay + "  [a] apply  [esc] " + cancel
}

// View renders the dialog panel.
func (m Model) View() string {
	title := m.Title
	if title == "" {
		title = m.Type
	}
	if m.Mode != "" {
		title += " (" + m.Mode + ")"
	}

	var b strings.Builder
	b.WriteString(theme.StyleHeader.Render(title) + "\n")
	b.WriteString(strings.Repeat("─", panelWidth-4) + "\n")
	if m.Text != "" {
		b.WriteString(lipgloss.NewStyle().Width(panelWidth-4).Render(m.Text) + "\n")
	}
	b.WriteString("\n" + theme.StyleDimmed.Render(m.Footer()))

	return lipgloss.NewStyle().
		Width(panelWidth).
		BorderStyle(lipgloss.RoundedBorder()).
		BorderForeground(theme.ModeColor(m.Mode)).
		Padding(0, 1).
		Render(b.String())
}
