package dialog

import (
	"strings"
	"testing"
)

func TestFooter(t *testing.T) {
	tests := []struct {
		name string
		m    Model
		want string
	}{
		{"plain", Model{}, "[enter] Okay  [esc] close"},
		{"cancelable", Model{Cancelable: true}, "[enter] Okay  [a] apply  [esc] Cancel"},
		{"labels", Model{OkayLabel: "Save", CloseLabel: "Discard"}, "[enter] Save  [a] apply  [esc] Discard"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.m.Footer(); got != tt.want {
				t.Errorf("Footer() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestViewTitle(t *testing.T) {
	v := Model{Type: "demo.Type", Mode: "Edit", Text: "Name"}.View()
	if !strings.Contains(v, "demo.Type (Edit)") {
		t.Errorf("View() should fall back to the type as title:\n%s", v)
	}
	if !strings.Contains(v, "Name") {
		t.Errorf("View() should contain the text:\n%s", v)
	}
}
