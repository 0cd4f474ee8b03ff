// Package conletview renders the open conlet views as tabs, the active one
// in a scrollable viewport.
package conletview

import (
	"strings"

	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/conletkit/console/internal/theme"
)

// Tab is one open view.
type Tab struct {
	ID    string
	Type  string
	Title string
	Text  string
}

// Model holds the open views in tab order.
type Model struct {
	tabs   []Tab
	active int
	vp     viewport.Model
}

// New creates a model without open views.
func New() Model {
	return Model{vp: viewport.New(0, 0)}
}

// SetSize sets the area available to the views, tab bar included.
func (m *Model) SetSize(width, height int) {
	m.vp.Width = max(width-4, 10)
	m.vp.Height = max(height-4, 3)
}

// Set opens or refreshes a view. With foreground the view becomes the
// active tab.
func (m *Model) Set(tab Tab, foreground bool) {
	i := m.index(tab.ID)
	if i < 0 {
		m.tabs = append(m.tabs, tab)
		i = len(m.tabs) - 1
	} else {
		m.tabs[i] = tab
	}
	if foreground || len(m.tabs) == 1 {
		m.active = i
		m.vp.SetContent(tab.Text)
		m.vp.GotoTop()
		return
	}
	if i == m.active {
		m.vp.SetContent(tab.Text)
	}
}

// Remove closes a view.
func (m *Model) Remove(id string) {
	i := m.index(id)
	if i < 0 {
		return
	}
	m.tabs = append(m.tabs[:i], m.tabs[i+1:]...)
	if m.active >= len(m.tabs) {
		m.active = len(m.tabs) - 1
	}
	if m.active < 0 {
		m.active = 0
	}
	m.refresh()
}

// Next activates the following tab.
func (m *Model) Next() {
	if len(m.tabs) == 0 {
		return
	}
	m.active = (m.active + 1) % len(m.tabs)
	m.refresh()
}

// Select activates the tab of a conlet.
func (m *Model) Select(id string) bool {
	i := m.index(id)
	if i < 0 {
		return false
	}
	m.active = i
	m.refresh()
	return true
}

func (m *Model) refresh() {
	if t, ok := m.Active(); ok {
		m.vp.SetContent(t.Text)
	} else {
		m.vp.SetContent("")
	}
	m.vp.GotoTop()
}

func (m Model) index(id string) int {
	for i, t := range m.tabs {
		if t.ID == id {
			return i
		}
	}
	return -1
}

// Active returns the active tab.
func (m Model) Active() (Tab, bool) {
	if m.active < len(m.tabs) {
		return m.tabs[m.active], true
	}
	return Tab{}, false
}

// IDs returns the open views in tab order.
func (m Model) IDs() []string {
	ids := make([]string, 0, len(m.tabs))
	for _, t := range m.tabs {
		ids = append(ids, t.ID)
	}
	return ids
}

func (m Model) Len() int {
	return len(m.tabs)
}

// Update scrolls the active view.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	var cmd tea.Cmd
	m.vp, cmd = m.vp.Update(msg)
	return m, cmd
}

// View renders the tab bar and the active view.
func (m Model) View() string {
	if len(m.tabs) == 0 {
		return theme.StyleDimmed.Render("  No open views")
	}
	var tabs []string
	for i, t := range m.tabs {
		label := theme.Truncate(tabLabel(t), 20)
		if i == m.active {
			tabs = append(tabs, theme.StyleActiveTab.Render(label))
		} else {
			tabs = append(tabs, theme.StyleTab.Render(label))
		}
	}
	bar := lipgloss.JoinHorizontal(lipgloss.Top, tabs...)
	body := theme.StyleBorder.
		BorderForeground(theme.ColorView).
		Padding(0, 1).
		Render(m.vp.View())
	footer := theme.StyleDimmed.Render("  tab:next view  j/k:scroll  e:edit  x:close view  esc:back")
	return strings.Join([]string{bar, body, footer}, "\n")
}

func tabLabel(t Tab) string {
	if t.Title != "" {
		return t.Title
	}
	return t.Type
}
