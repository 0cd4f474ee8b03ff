package status

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"
	"github.com/conletkit/console/internal/theme"
)

// Connection is the connection state shown in the status bar.
type Connection int

const (
	Connecting Connection = iota
	Connected
	Lost
	Suspended
)

// Model holds the status bar state.
type Model struct {
	Connection Connection
	Configured bool
	SessionID  string
	Previews   int
	Views      int
	Width      int
}

// New creates a status bar model.
func New(sessionID string) Model {
	return Model{SessionID: sessionID}
}

// SetCounts updates the conlet counts.
func (m *Model) SetCounts(previews, views int) {
	m.Previews = previews
	m.Views = views
}

// View renders the status bar.
func (m Model) View() string {
	width := m.Width
	if width < 40 {
		width = 40
	}

	var connStr string
	switch m.Connection {
	case Connected:
		connStr = lipgloss.NewStyle().Foreground(theme.ColorConnected).Render("● Connected")
	case Lost:
		connStr = lipgloss.NewStyle().Foreground(theme.ColorLost).Render("✗ Connection lost, reconnecting...")
	case Suspended:
		connStr = lipgloss.NewStyle().Foreground(theme.ColorSuspended).Render("◌ Suspended (press any key)")
	default:
		connStr = lipgloss.NewStyle().Foreground(theme.ColorConnecting).Render("○ Connecting...")
	}

	sep := lipgloss.NewStyle().Foreground(theme.ColorBorder).Render(" | ")
	content := connStr + sep + fmt.Sprintf("%d previews  %d views", m.Previews, m.Views)
	if !m.Configured {
		content += sep + theme.StyleDimmed.Render("configuring")
	}
	if m.SessionID != "" {
		content += sep + theme.StyleDimmed.Render("session "+theme.Truncate(m.SessionID, 9))
	}

	return lipgloss.NewStyle().
		Width(width).
		Padding(0, 1).
		BorderStyle(lipgloss.DoubleBorder()).
		BorderForeground(theme.ColorBorder).
		Render(content)
}
