package app

import (
	"fmt"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/conletkit/console/internal/views/conletview"
	"github.com/conletkit/console/internal/views/debug"
	"github.com/conletkit/console/internal/views/dialog"
	"github.com/conletkit/console/internal/views/previews"
	"github.com/conletkit/console/internal/views/status"
	"github.com/google/go-cmp/cmp"
)

// fakeSession records the requests of the model.
type fakeSession struct {
	calls []string
}

func (s *fakeSession) add(format string, args ...any) {
	s.calls = append(s.calls, fmt.Sprintf(format, args...))
}

func (s *fakeSession) OpenView(id string)      { s.add("open:%s", id) }
func (s *fakeSession) Edit(id string)          { s.add("edit:%s", id) }
func (s *fakeSession) RemovePreview(id string) { s.add("remove-preview:%s", id) }
func (s *fakeSession) RemoveView(id string)    { s.add("remove-view:%s", id) }
func (s *fakeSession) AddConlet(t string)      { s.add("add:%s", t) }
func (s *fakeSession) ApplyDialog(key string)  { s.add("apply:%s", key) }
func (s *fakeSession) Resync()                 { s.add("resync") }

func (s *fakeSession) CloseDialog(key string, apply bool) {
	s.add("close:%s:%v", key, apply)
}

func (s *fakeSession) UpdateLayout(previewIDs, tabIDs []string) {
	s.add("layout:%v %v", previewIDs, tabIDs)
}

func newModel() (Model, *fakeSession) {
	s := &fakeSession{}
	m := New(s, "0123456789abcdef")
	m = update(m, tea.WindowSizeMsg{Width: 100, Height: 30})
	return m, s
}

func update(m Model, msgs ...tea.Msg) Model {
	for _, msg := range msgs {
		next, _ := m.Update(msg)
		m = next.(Model)
	}
	return m
}

func keyMsg(k string) tea.KeyMsg {
	switch k {
	case "enter":
		return tea.KeyMsg{Type: tea.KeyEnter}
	case "esc":
		return tea.KeyMsg{Type: tea.KeyEsc}
	case "tab":
		return tea.KeyMsg{Type: tea.KeyTab}
	case "backspace":
		return tea.KeyMsg{Type: tea.KeyBackspace}
	}
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(k)}
}

func keys(ks ...string) []tea.Msg {
	var msgs []tea.Msg
	for _, k := range ks {
		msgs = append(msgs, keyMsg(k))
	}
	return msgs
}

func preview(id, title string) PreviewMsg {
	return PreviewMsg{Tile: previews.Tile{ID: id, Type: "demo.Type", Title: title, Text: title + " text"}}
}

func TestInitializing(t *testing.T) {
	m := New(nil, "")
	if v := m.View(); v != "Initializing..." {
		t.Errorf("View() = %q, want Initializing...", v)
	}
}

func TestConnectionStates(t *testing.T) {
	tests := []struct {
		name string
		msg  tea.Msg
		want string
	}{
		{"configured", ConfiguredMsg{}, "Connected"},
		{"lost", ConnectionMsg{State: status.Lost}, "Connection lost"},
		{"suspended", SuspendedMsg{Resume: func() {}}, "Suspended"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m, _ := newModel()
			m = update(m, tt.msg)
			if v := m.View(); !strings.Contains(v, tt.want) {
				t.Errorf("View() should contain %q:\n%s", tt.want, v)
			}
		})
	}
}

func TestAnyKeyResumes(t *testing.T) {
	m, s := newModel()
	resumed := 0
	m = update(m, SuspendedMsg{Resume: func() { resumed++ }})
	m = update(m, keys("x", "x")...)

	if resumed != 1 {
		t.Errorf("resumed %d times, want 1", resumed)
	}
	if m.statusBar.Connection != status.Connecting {
		t.Errorf("Connection = %v, want Connecting", m.statusBar.Connection)
	}
	// The second key reaches the (empty) preview table.
	if len(s.calls) != 0 {
		t.Errorf("unexpected requests %v", s.calls)
	}
}

func TestOpenView(t *testing.T) {
	m, s := newModel()
	m = update(m, preview("c1", "One"), preview("c2", "Two"))
	m = update(m, keys("j", "enter")...)

	if diff := cmp.Diff([]string{"open:c2"}, s.calls); diff != "" {
		t.Errorf("calls mismatch (-want +got):\n%s", diff)
	}

	m = update(m, ViewMsg{Tab: conletview.Tab{ID: "c2", Title: "Two", Text: "details"}, Foreground: true})
	if m.overlay != OverlayViews {
		t.Fatalf("overlay = %v, want views", m.overlay)
	}
	if !strings.Contains(m.View(), "details") {
		t.Error("view should show the active tab")
	}
	if got := s.calls[len(s.calls)-1]; got != "layout:[c1 c2] [c2]" {
		t.Errorf("layout report = %q", got)
	}

	// Back to the table, enter selects the open tab instead of asking again.
	m = update(m, keys("esc", "enter")...)
	if m.overlay != OverlayViews || len(s.calls) != 2 {
		t.Errorf("overlay = %v, calls = %v", m.overlay, s.calls)
	}
}

func TestForegroundPreviewIsSelected(t *testing.T) {
	m, _ := newModel()
	m = update(m, preview("c1", "One"), preview("c2", "Two"))
	fg := preview("c3", "Three")
	fg.Foreground = true
	m = update(m, fg)

	if cur, _ := m.previews.Current(); cur.ID != "c3" {
		t.Errorf("selected %q, want c3", cur.ID)
	}
	if m.statusBar.Previews != 3 {
		t.Errorf("status counts %d previews, want 3", m.statusBar.Previews)
	}
}

func TestRemove(t *testing.T) {
	m, s := newModel()
	sticky := preview("c1", "Sticky")
	sticky.Tile.Sticky = true
	m = update(m, sticky, preview("c2", "Two"))

	m = update(m, keys("x", "j", "x")...)
	if diff := cmp.Diff([]string{"remove-preview:c2"}, s.calls); diff != "" {
		t.Errorf("calls mismatch (-want +got):\n%s", diff)
	}

	m = update(m, RemovedMsg{Previews: []string{"c2"}})
	if m.previews.Len() != 1 {
		t.Errorf("%d previews left, want 1", m.previews.Len())
	}
	if got := s.calls[len(s.calls)-1]; got != "layout:[c1] []" {
		t.Errorf("layout report = %q", got)
	}
}

func TestCloseView(t *testing.T) {
	m, s := newModel()
	m = update(m,
		ViewMsg{Tab: conletview.Tab{ID: "c1", Text: "one"}, Foreground: true},
		ViewMsg{Tab: conletview.Tab{ID: "c2", Text: "two"}},
	)
	s.calls = nil

	m = update(m, keys("tab", "x")...)
	if diff := cmp.Diff([]string{"remove-view:c2"}, s.calls); diff != "" {
		t.Errorf("calls mismatch (-want +got):\n%s", diff)
	}

	m = update(m, RemovedMsg{Views: []string{"c1", "c2"}})
	if m.overlay != OverlayNone {
		t.Errorf("overlay = %v, want none after the last view closed", m.overlay)
	}
}

func TestDialog(t *testing.T) {
	m, s := newModel()
	d := dialog.Model{Key: "demo.Type/c1", Title: "Confirm", Text: "Really?", Cancelable: true}
	m = update(m, DialogOpenMsg{Dialog: d})

	if v := m.View(); !strings.Contains(v, "Really?") {
		t.Errorf("dialog should replace the main area:\n%s", v)
	}
	m = update(m, keys("a", "enter", "esc")...)
	want := []string{"apply:demo.Type/c1", "close:demo.Type/c1:true", "close:demo.Type/c1:false"}
	if diff := cmp.Diff(want, s.calls); diff != "" {
		t.Errorf("calls mismatch (-want +got):\n%s", diff)
	}

	m = update(m, DialogCloseMsg{Key: "demo.Type/c1"})
	if len(m.dialogs) != 0 {
		t.Errorf("%d dialogs open, want 0", len(m.dialogs))
	}
}

func TestDialogReplacedForSameKey(t *testing.T) {
	m, _ := newModel()
	m = update(m,
		DialogOpenMsg{Dialog: dialog.Model{Key: "a", Text: "first"}},
		DialogOpenMsg{Dialog: dialog.Model{Key: "b", Text: "second"}},
		DialogOpenMsg{Dialog: dialog.Model{Key: "a", Text: "third"}},
	)
	var got []string
	for _, d := range m.dialogs {
		got = append(got, d.Text)
	}
	if diff := cmp.Diff([]string{"second", "third"}, got); diff != "" {
		t.Errorf("dialogs mismatch (-want +got):\n%s", diff)
	}
}

func TestNotifications(t *testing.T) {
	m, _ := newModel()
	for i := 1; i <= 4; i++ {
		m = update(m, NotificationMsg{Kind: "info", Text: fmt.Sprintf("note %d", i)})
	}
	if len(m.notes) != maxNotes {
		t.Fatalf("%d notes, want %d", len(m.notes), maxNotes)
	}
	if m.notes[0].text != "note 2" {
		t.Errorf("oldest note = %q, want note 2", m.notes[0].text)
	}

	next, cmd := m.Update(NotificationMsg{Kind: "success", Text: "saved", AutoClose: time.Millisecond})
	m = next.(Model)
	if cmd == nil {
		t.Fatal("auto closing notification should schedule its expiry")
	}
	m = update(m, cmd())
	for _, n := range m.notes {
		if n.text == "saved" {
			t.Error("expired notification still shown")
		}
	}

	m = update(m, keyMsg("n"))
	if len(m.notes) != 0 {
		t.Errorf("%d notes after dismiss, want 0", len(m.notes))
	}
}

func TestAddConlet(t *testing.T) {
	m, s := newModel()
	m = update(m,
		ConletTypeMsg{Type: "demo.Zeta", Name: "Zeta"},
		ConletTypeMsg{Type: "demo.Alpha", Name: "Alpha"},
		ConletTypeMsg{Type: "demo.Gone", Name: "Gone"},
		ConletTypeMsg{Type: "demo.Gone", Removed: true},
	)
	m = update(m, keyMsg("a"))
	if m.overlay != OverlayAdd {
		t.Fatalf("overlay = %v, want add", m.overlay)
	}
	if v := m.View(); !strings.Contains(v, "Alpha") || strings.Contains(v, "Gone") {
		t.Errorf("add overlay lists the wrong types:\n%s", v)
	}
	m = update(m, keys("j", "enter")...)

	if diff := cmp.Diff([]string{"add:demo.Zeta"}, s.calls); diff != "" {
		t.Errorf("calls mismatch (-want +got):\n%s", diff)
	}
	if m.overlay != OverlayNone {
		t.Errorf("overlay = %v, want none", m.overlay)
	}
}

func TestFilter(t *testing.T) {
	m, _ := newModel()
	m = update(m, preview("c1", "Memory"), preview("c2", "Queue"))
	m = update(m, keys("/", "q", "u", "x", "backspace", "enter")...)

	if m.filtering {
		t.Error("enter should end filter input")
	}
	rows := m.previews.Rows()
	if len(rows) != 1 || rows[0].ID != "c2" {
		t.Errorf("rows = %v, want only c2", rows)
	}

	m = update(m, keys("/", "esc")...)
	if len(m.previews.Rows()) != 2 {
		t.Error("esc should clear the filter")
	}
}

func TestQuit(t *testing.T) {
	m, _ := newModel()
	_, cmd := m.Update(keyMsg("q"))
	if cmd == nil {
		t.Fatal("q should quit")
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Error("q should produce QuitMsg")
	}
}

func TestResyncAndEdit(t *testing.T) {
	m, s := newModel()
	m = update(m, preview("c1", "One"))
	update(m, keys("e", "r")...)

	if diff := cmp.Diff([]string{"edit:c1", "resync"}, s.calls); diff != "" {
		t.Errorf("calls mismatch (-want +got):\n%s", diff)
	}
}

func TestLayoutOrdersPreviews(t *testing.T) {
	m, _ := newModel()
	m = update(m, LayoutMsg{Previews: []string{"c2", "c1"}})
	m = update(m, preview("c1", "One"), preview("c2", "Two"), preview("c3", "Three"))

	var got []string
	for _, r := range m.previews.Rows() {
		got = append(got, r.ID)
	}
	if diff := cmp.Diff([]string{"c2", "c1", "c3"}, got); diff != "" {
		t.Errorf("order mismatch (-want +got):\n%s", diff)
	}
}

func TestDebugOverlay(t *testing.T) {
	m, _ := newModel()
	m = update(m,
		LogMsg{Entry: debug.Entry{Kind: "ws", Message: "ws open"}},
		LogMsg{Entry: debug.Entry{Kind: "err", Message: "resource failed"}},
	)
	m = update(m, keys("d", "1")...)

	v := m.View()
	if !strings.Contains(v, "DEBUG LOG") || !strings.Contains(v, "resource failed") {
		t.Errorf("debug overlay missing entries:\n%s", v)
	}
	if strings.Contains(v, "ws open") {
		t.Error("ws entries should be hidden after toggling them")
	}
}

func TestHelpOverlay(t *testing.T) {
	m, _ := newModel()
	m = update(m, keyMsg("?"))
	if m.overlay != OverlayHelp {
		t.Fatalf("overlay = %v, want help", m.overlay)
	}
	m = update(m, keyMsg("esc"))
	if m.overlay != OverlayNone {
		t.Errorf("overlay = %v, want none", m.overlay)
	}
}

func TestResetDropsSessionState(t *testing.T) {
	m, _ := newModel()
	m = update(m,
		ConfiguredMsg{},
		preview("c1", "One"),
		ViewMsg{Tab: conletview.Tab{ID: "c1"}},
		LogMsg{Entry: debug.Entry{Kind: "con", Message: "reload"}},
	)
	m = update(m, ResetMsg{SessionID: "fresh"})

	if m.previews.Len() != 0 || m.views.Len() != 0 {
		t.Errorf("previews %d, views %d after reset, want none", m.previews.Len(), m.views.Len())
	}
	if m.statusBar.Configured || m.statusBar.SessionID != "fresh" {
		t.Errorf("status bar not reset: %+v", m.statusBar)
	}
	if len(m.debug.Entries) != 1 {
		t.Error("the debug log survives a reset")
	}
	if m.width != 100 {
		t.Errorf("width = %d, the size survives a reset", m.width)
	}
}
