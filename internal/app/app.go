package app

import (
	"sort"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/conletkit/console/internal/theme"
	"github.com/conletkit/console/internal/views/conletview"
	"github.com/conletkit/console/internal/views/debug"
	"github.com/conletkit/console/internal/views/dialog"
	"github.com/conletkit/console/internal/views/help"
	"github.com/conletkit/console/internal/views/previews"
	"github.com/conletkit/console/internal/views/status"
)

// Overlay identifies which panel replaces the preview table.
type Overlay int

const (
	OverlayNone Overlay = iota
	OverlayViews
	OverlayAdd
	OverlayDebug
	OverlayHelp
)

const maxNotes = 3

type conletType struct {
	Type string
	Name string
}

type note struct {
	id   int
	kind string
	text string
}

// Model is the root Bubble Tea model.
type Model struct {
	session Session

	keys   KeyMap
	width  int
	height int

	statusBar status.Model
	previews  previews.Model
	views     conletview.Model
	debug     debug.Model
	// dialogs is a stack; the last one has the focus.
	dialogs []dialog.Model
	notes   []note
	noteSeq int

	types  []conletType
	addIdx int

	overlay   Overlay
	filtering bool
	// resume is set while the session is suspended.
	resume func()
}

// New creates the root model.
func New(session Session, sessionID string) Model {
	return Model{
		session:   session,
		keys:      DefaultKeyMap(),
		statusBar: status.New(sessionID),
		previews:  previews.New(),
		views:     conletview.New(),
		debug:     debug.New(),
	}
}

func (m Model) Init() tea.Cmd {
	return nil
}

// Update handles messages.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.statusBar.Width = msg.Width
		m.previews.Width = msg.Width
		m.views.SetSize(msg.Width, msg.Height-6)
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)

	case ResetMsg:
		next := New(m.session, msg.SessionID)
		next.debug = m.debug
		return next.Update(tea.WindowSizeMsg{Width: m.width, Height: m.height})

	case ConfiguredMsg:
		m.statusBar.Configured = true
		m.statusBar.Connection = status.Connected
		return m, nil

	case ConnectionMsg:
		m.statusBar.Connection = msg.State
		return m, nil

	case SuspendedMsg:
		m.resume = msg.Resume
		m.statusBar.Connection = status.Suspended
		return m, nil

	case ConletTypeMsg:
		m.setType(msg)
		return m, nil

	case LayoutMsg:
		m.previews.Prefer(msg.Previews)
		return m, nil

	case PreviewMsg:
		m.previews.Set(msg.Tile)
		if msg.Foreground {
			m.selectPreview(msg.Tile.ID)
		}
		m.updateCounts()
		return m, nil

	case ViewMsg:
		isNew := !contains(m.views.IDs(), msg.Tab.ID)
		m.views.Set(msg.Tab, msg.Foreground)
		if msg.Foreground {
			m.overlay = OverlayViews
		}
		m.updateCounts()
		if isNew {
			m.reportLayout()
		}
		return m, nil

	case RemovedMsg:
		for _, id := range msg.Previews {
			m.previews.Remove(id)
		}
		for _, id := range msg.Views {
			m.views.Remove(id)
		}
		if m.overlay == OverlayViews && m.views.Len() == 0 {
			m.overlay = OverlayNone
		}
		m.updateCounts()
		m.reportLayout()
		return m, nil

	case DialogOpenMsg:
		m.dropDialog(msg.Dialog.Key)
		m.dialogs = append(m.dialogs, msg.Dialog)
		return m, nil

	case DialogCloseMsg:
		m.dropDialog(msg.Key)
		return m, nil

	case NotificationMsg:
		m.noteSeq++
		id := m.noteSeq
		m.notes = append(m.notes, note{id: id, kind: msg.Kind, text: msg.Text})
		if len(m.notes) > maxNotes {
			m.notes = m.notes[len(m.notes)-maxNotes:]
		}
		if msg.AutoClose > 0 {
			return m, tea.Tick(msg.AutoClose, func(time.Time) tea.Msg {
				return noteExpiredMsg{id: id}
			})
		}
		return m, nil

	case noteExpiredMsg:
		for i, n := range m.notes {
			if n.id == msg.id {
				m.notes = append(m.notes[:i:i], m.notes[i+1:]...)
				break
			}
		}
		return m, nil

	case LogMsg:
		m.debug.Add(msg.Entry.Kind, msg.Entry.Message)
		return m, nil
	}

	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if key.Matches(msg, m.keys.Quit) && !m.filtering {
		return m, tea.Quit
	}
	if m.resume != nil {
		// Any key ends the suspension.
		m.resume()
		m.resume = nil
		m.statusBar.Connection = status.Connecting
		return m, nil
	}
	if m.filtering {
		return m.handleFilterKey(msg)
	}
	if len(m.dialogs) > 0 {
		return m.handleDialogKey(msg)
	}

	switch m.overlay {
	case OverlayViews:
		return m.handleViewsKey(msg)
	case OverlayAdd:
		return m.handleAddKey(msg)
	case OverlayDebug:
		return m.handleDebugKey(msg)
	case OverlayHelp:
		if key.Matches(msg, m.keys.Escape) || key.Matches(msg, m.keys.Help) {
			m.overlay = OverlayNone
		}
		return m, nil
	}

	switch {
	case key.Matches(msg, m.keys.Down):
		m.previews.Move(1)

	case key.Matches(msg, m.keys.Up):
		m.previews.Move(-1)

	case key.Matches(msg, m.keys.Enter):
		if t, ok := m.previews.Current(); ok {
			if m.views.Select(t.ID) {
				m.overlay = OverlayViews
			} else {
				m.session.OpenView(t.ID)
			}
		}

	case key.Matches(msg, m.keys.Tab):
		if m.views.Len() > 0 {
			m.overlay = OverlayViews
		}

	case key.Matches(msg, m.keys.Remove):
		if t, ok := m.previews.Current(); ok && !t.Sticky {
			m.session.RemovePreview(t.ID)
		}

	case key.Matches(msg, m.keys.Edit):
		if t, ok := m.previews.Current(); ok {
			m.session.Edit(t.ID)
		}

	case key.Matches(msg, m.keys.Add):
		if len(m.types) > 0 {
			m.overlay = OverlayAdd
			m.addIdx = 0
		}

	case key.Matches(msg, m.keys.Sort):
		m.previews.CycleSort(false)

	case key.Matches(msg, m.keys.Reverse):
		m.previews.CycleSort(true)

	case key.Matches(msg, m.keys.Filter):
		m.filtering = true

	case key.Matches(msg, m.keys.Dismiss):
		m.notes = nil

	case key.Matches(msg, m.keys.Debug):
		m.overlay = OverlayDebug

	case key.Matches(msg, m.keys.Help):
		m.overlay = OverlayHelp

	case key.Matches(msg, m.keys.Resync):
		m.session.Resync()
	}
	return m, nil
}

func (m Model) handleFilterKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	t := m.previews.Table()
	switch msg.Type {
	case tea.KeyEnter:
		m.filtering = false
	case tea.KeyEsc:
		m.filtering = false
		t.FilterBy("")
	case tea.KeyBackspace:
		if f := []rune(t.Filter()); len(f) > 0 {
			t.FilterBy(string(f[:len(f)-1]))
		}
	case tea.KeyRunes, tea.KeySpace:
		t.FilterBy(t.Filter() + string(msg.Runes))
	}
	m.previews.Move(0)
	return m, nil
}

func (m Model) handleDialogKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	d := m.dialogs[len(m.dialogs)-1]
	switch {
	case key.Matches(msg, m.keys.Enter):
		m.session.CloseDialog(d.Key, true)
	case key.Matches(msg, m.keys.Apply):
		m.session.ApplyDialog(d.Key)
	case key.Matches(msg, m.keys.Escape):
		m.session.CloseDialog(d.Key, false)
	}
	return m, nil
}

func (m Model) handleViewsKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Escape):
		m.overlay = OverlayNone
	case key.Matches(msg, m.keys.Tab):
		m.views.Next()
	case key.Matches(msg, m.keys.Remove):
		if t, ok := m.views.Active(); ok {
			m.session.RemoveView(t.ID)
		}
	case key.Matches(msg, m.keys.Edit):
		if t, ok := m.views.Active(); ok {
			m.session.Edit(t.ID)
		}
	default:
		var cmd tea.Cmd
		m.views, cmd = m.views.Update(msg)
		return m, cmd
	}
	return m, nil
}

func (m Model) handleAddKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Escape):
		m.overlay = OverlayNone
	case key.Matches(msg, m.keys.Down):
		m.addIdx = (m.addIdx + 1) % len(m.types)
	case key.Matches(msg, m.keys.Up):
		m.addIdx = (m.addIdx - 1 + len(m.types)) % len(m.types)
	case key.Matches(msg, m.keys.Enter):
		m.session.AddConlet(m.types[m.addIdx].Type)
		m.overlay = OverlayNone
	}
	return m, nil
}

func (m Model) handleDebugKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Escape), key.Matches(msg, m.keys.Debug):
		m.overlay = OverlayNone
	case key.Matches(msg, m.keys.Up):
		m.debug.ScrollUp(1)
	case key.Matches(msg, m.keys.Down):
		m.debug.ScrollDown(1)
	default:
		s := msg.String()
		if len(s) == 1 && s[0] >= '1' && int(s[0]-'1') < len(debug.Kinds) {
			m.debug.ToggleKind(debug.Kinds[s[0]-'1'])
		}
	}
	return m, nil
}

// View renders the full TUI.
func (m Model) View() string {
	if m.width == 0 || m.height == 0 {
		return "Initializing..."
	}

	sections := []string{m.statusBar.View()}
	if len(m.notes) > 0 {
		sections = append(sections, m.renderNotes())
	}

	switch {
	case len(m.dialogs) > 0:
		sections = append(sections, m.dialogs[len(m.dialogs)-1].View())
	case m.overlay == OverlayViews:
		sections = append(sections, m.views.View())
	case m.overlay == OverlayAdd:
		sections = append(sections, m.renderAdd())
	case m.overlay == OverlayDebug:
		sections = append(sections, m.debug.View(m.width, m.height-4))
	case m.overlay == OverlayHelp:
		sections = append(sections, help.Render(help.Markdown(m.helpSections()), m.width))
	default:
		sections = append(sections, m.previews.View())
	}

	sections = append(sections, m.renderFooter())
	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

func (m Model) renderFooter() string {
	if m.filtering {
		return theme.StyleSelected.Render("  filter: "+m.previews.Table().Filter()+"█") +
			theme.StyleDimmed.Render("  enter:done  esc:clear")
	}
	return theme.StyleDimmed.Render("  j/k:navigate  enter:view  tab:views  a:add  x:remove  e:edit  s:sort  /:filter  d:debug  ?:help  q:quit")
}

func (m Model) renderNotes() string {
	var lines []string
	for _, n := range m.notes {
		style := lipgloss.NewStyle().Foreground(theme.NotificationColor(n.kind))
		lines = append(lines, style.Render("  ▌ "+strings.ReplaceAll(n.text, "\n", " ")))
	}
	return lipgloss.JoinVertical(lipgloss.Left, lines...)
}

func (m Model) renderAdd() string {
	lines := []string{theme.StyleHeader.Render("  Add conlet")}
	for i, t := range m.types {
		prefix := "  "
		if i == m.addIdx {
			prefix = "> "
		}
		lines = append(lines, prefix+t.Name+theme.StyleDimmed.Render("  "+t.Type))
	}
	lines = append(lines, theme.StyleDimmed.Render("  enter:add  esc:cancel"))
	return lipgloss.JoinVertical(lipgloss.Left, lines...)
}

func (m Model) helpSections() []help.Section {
	k := m.keys
	return []help.Section{
		{Title: "Previews", Bindings: []key.Binding{k.Up, k.Down, k.Enter, k.Add, k.Remove, k.Edit, k.Sort, k.Reverse, k.Filter}},
		{Title: "Views", Bindings: []key.Binding{k.Tab, k.Remove, k.Edit, k.Escape}},
		{Title: "Dialogs", Bindings: []key.Binding{k.Enter, k.Apply, k.Escape}},
		{Title: "Session", Bindings: []key.Binding{k.Resync, k.Dismiss, k.Debug, k.Help, k.Quit}},
	}
}

func (m *Model) setType(msg ConletTypeMsg) {
	for i, t := range m.types {
		if t.Type == msg.Type {
			m.types = append(m.types[:i], m.types[i+1:]...)
			break
		}
	}
	if !msg.Removed {
		m.types = append(m.types, conletType{Type: msg.Type, Name: msg.Name})
		sort.Slice(m.types, func(i, j int) bool { return m.types[i].Name < m.types[j].Name })
	}
	if m.addIdx >= len(m.types) {
		m.addIdx = 0
	}
	if len(m.types) == 0 && m.overlay == OverlayAdd {
		m.overlay = OverlayNone
	}
}

func (m *Model) selectPreview(id string) {
	for i, t := range m.previews.Rows() {
		if t.ID == id {
			m.previews.Selected = i
			return
		}
	}
}

func (m *Model) dropDialog(key string) {
	for i, d := range m.dialogs {
		if d.Key == key {
			m.dialogs = append(m.dialogs[:i:i], m.dialogs[i+1:]...)
			return
		}
	}
}

func (m *Model) updateCounts() {
	m.statusBar.SetCounts(m.previews.Len(), m.views.Len())
}

// reportLayout tells the server the current arrangement so that it is
// restored on the next start.
func (m Model) reportLayout() {
	if m.session != nil {
		m.session.UpdateLayout(m.previews.IDs(), m.views.IDs())
	}
}

func contains(ids []string, id string) bool {
	for _, x := range ids {
		if x == id {
			return true
		}
	}
	return false
}
