package conletview

import (
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestSetAndForeground(t *testing.T) {
	m := New()
	m.SetSize(80, 20)
	m.Set(Tab{ID: "c1", Title: "One", Text: "first"}, false)
	m.Set(Tab{ID: "c2", Title: "Two", Text: "second"}, false)

	if a, _ := m.Active(); a.ID != "c1" {
		t.Errorf("Active() = %q, the first tab is active", a.ID)
	}
	m.Set(Tab{ID: "c2", Title: "Two", Text: "second"}, true)
	if a, _ := m.Active(); a.ID != "c2" {
		t.Errorf("Active() = %q, want c2 after foreground", a.ID)
	}
	if diff := cmp.Diff([]string{"c1", "c2"}, m.IDs()); diff != "" {
		t.Errorf("IDs mismatch (-want +got):\n%s", diff)
	}
	if v := m.View(); !strings.Contains(v, "second") {
		t.Errorf("View() should show the active view:\n%s", v)
	}
}

func TestRefreshOfActiveTab(t *testing.T) {
	m := New()
	m.SetSize(80, 20)
	m.Set(Tab{ID: "c1", Text: "old"}, true)
	m.Set(Tab{ID: "c1", Text: "new"}, false)

	v := m.View()
	if !strings.Contains(v, "new") || strings.Contains(v, "old") {
		t.Errorf("View() should show the refreshed text:\n%s", v)
	}
}

func TestNextAndSelect(t *testing.T) {
	m := New()
	m.Set(Tab{ID: "c1"}, false)
	m.Set(Tab{ID: "c2"}, false)
	m.Set(Tab{ID: "c3"}, false)

	m.Next()
	m.Next()
	m.Next()
	if a, _ := m.Active(); a.ID != "c1" {
		t.Errorf("Active() = %q, Next should wrap", a.ID)
	}
	if !m.Select("c3") {
		t.Fatal("Select(c3) = false")
	}
	if m.Select("c9") {
		t.Error("Select of an unknown view should fail")
	}
	if a, _ := m.Active(); a.ID != "c3" {
		t.Errorf("Active() = %q, want c3", a.ID)
	}
}

func TestRemove(t *testing.T) {
	m := New()
	m.Set(Tab{ID: "c1"}, false)
	m.Set(Tab{ID: "c2"}, true)

	m.Remove("c2")
	if a, _ := m.Active(); a.ID != "c1" {
		t.Errorf("Active() = %q, want c1", a.ID)
	}
	m.Remove("c1")
	m.Remove("c1")
	if m.Len() != 0 {
		t.Errorf("Len() = %d, want 0", m.Len())
	}
	if _, ok := m.Active(); ok {
		t.Error("Active() should report no tab")
	}
	if v := m.View(); !strings.Contains(v, "No open views") {
		t.Errorf("View() = %q", v)
	}
}
