package table

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestOptionsSet(t *testing.T) {
	s := NewOptionsSet("ws", "ws", "resource")
	var changes []string
	s.OnChange(func(v string, on bool) {
		if on {
			changes = append(changes, "+"+v)
		} else {
			changes = append(changes, "-"+v)
		}
	})

	if !s.IsSet("ws") || s.Len() != 2 {
		t.Fatalf("initial values %v", s.Values())
	}
	if s.Toggle("ws") {
		t.Error("toggling a set option should clear it")
	}
	if !s.Toggle("console") {
		t.Error("toggling a cleared option should set it")
	}
	s.Set("console", true)
	s.Set("missing", false)

	if diff := cmp.Diff([]string{"resource", "console"}, s.Values()); diff != "" {
		t.Errorf("values (-want +got):\n%s", diff)
	}

	s.Clear()
	if s.Len() != 0 {
		t.Errorf("values after Clear: %v", s.Values())
	}
	want := []string{"-ws", "+console", "-resource", "-console"}
	if diff := cmp.Diff(want, changes); diff != "" {
		t.Errorf("changes (-want +got):\n%s", diff)
	}
}
