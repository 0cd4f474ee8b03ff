package protocol

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestEncodeOmitsEmptyParams(t *testing.T) {
	data, err := Encode(MethodKeepAlive)
	if err != nil {
		t.Fatal(err)
	}
	var got map[string]any
	if err := json.Unmarshal(data, &got); err != nil {
		t.Fatal(err)
	}
	want := map[string]any{"jsonrpc": "2.0", "method": "keepAlive"}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("envelope mismatch (-want +got):\n%s", diff)
	}
}

func TestEncodeParams(t *testing.T) {
	data, err := Encode(MethodRenderConlet, "c1", RenderModes{ModePreview, ModeForeground})
	if err != nil {
		t.Fatal(err)
	}
	var got map[string]any
	if err := json.Unmarshal(data, &got); err != nil {
		t.Fatal(err)
	}
	want := map[string]any{
		"jsonrpc": "2.0",
		"method":  "renderConlet",
		"params":  []any{"c1", []any{"Preview", "Foreground"}},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("envelope mismatch (-want +got):\n%s", diff)
	}
	if _, ok := got["id"]; ok {
		t.Error("notifications must not carry an id")
	}
}

func TestDecode(t *testing.T) {
	tests := []struct {
		name    string
		frame   string
		method  string
		params  int
		wantErr error
	}{
		{"with params", `{"jsonrpc":"2.0","method":"deleteConlet","params":["c1",["Preview"]]}`, "deleteConlet", 2, nil},
		{"without params", `{"jsonrpc":"2.0","method":"consoleConfigured"}`, "consoleConfigured", 0, nil},
		{"null params", `{"jsonrpc":"2.0","method":"reload","params":null}`, "reload", 0, nil},
		{"not json", `{"jsonrpc":`, "", 0, ErrMalformed},
		{"no method", `{"jsonrpc":"2.0","params":[]}`, "", 0, ErrMalformed},
		{"object params", `{"jsonrpc":"2.0","method":"reload","params":{"a":1}}`, "", 0, ErrMalformed},
		{"request with id", `{"jsonrpc":"2.0","id":3,"method":"reload"}`, "", 0, ErrNotNotification},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			msg, err := Decode([]byte(tt.frame))
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("Decode() error = %v, want %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("Decode() error = %v", err)
			}
			if msg.Method != tt.method {
				t.Errorf("method = %q, want %q", msg.Method, tt.method)
			}
			if msg.Len() != tt.params {
				t.Errorf("params = %d, want %d", msg.Len(), tt.params)
			}
		})
	}
}

func TestMessageAccessors(t *testing.T) {
	msg, err := Decode([]byte(`{"jsonrpc":"2.0","method":"setLocale","params":["de",true,["a","b"],null,7]}`))
	if err != nil {
		t.Fatal(err)
	}
	if msg.String(0) != "de" {
		t.Errorf("String(0) = %q", msg.String(0))
	}
	if !msg.Bool(1) {
		t.Error("Bool(1) should be true")
	}
	if diff := cmp.Diff([]string{"a", "b"}, msg.Strings(2)); diff != "" {
		t.Errorf("Strings(2) (-want +got):\n%s", diff)
	}
	if msg.String(3) != "" || msg.String(9) != "" {
		t.Error("null and missing params should read as empty")
	}
	if msg.String(4) != "" {
		t.Error("number param read as string should be empty")
	}
	var n int
	if err := msg.Arg(4, &n); err != nil || n != 7 {
		t.Errorf("Arg(4) = %d, %v", n, err)
	}
}

func TestStoreActionTuple(t *testing.T) {
	var actions []StoreAction
	err := json.Unmarshal([]byte(`[["u","a.b","1"],["d","a.c"],["d","a.d",null]]`), &actions)
	if err != nil {
		t.Fatal(err)
	}
	want := []StoreAction{
		{Op: StoreUpdate, Key: "a.b", Value: "1"},
		{Op: StoreDelete, Key: "a.c"},
		{Op: StoreDelete, Key: "a.d"},
	}
	if diff := cmp.Diff(want, actions); diff != "" {
		t.Errorf("actions (-want +got):\n%s", diff)
	}

	var bad StoreAction
	if err := json.Unmarshal([]byte(`["u"]`), &bad); err == nil {
		t.Error("expected error for short tuple")
	}
}

func TestDeletedConletTuple(t *testing.T) {
	data, err := json.Marshal([]DeletedConlet{
		{ConletID: "c1", Modes: RenderModes{ModeView, ModePreview}},
		{ConletID: "c2", Modes: RenderModes{ModeContent}, Properties: map[string]any{"k": "v"}},
	})
	if err != nil {
		t.Fatal(err)
	}
	want := `[["c1",["View","Preview"]],["c2",["Content"],{"k":"v"}]]`
	if string(data) != want {
		t.Errorf("got %s, want %s", data, want)
	}
}

func TestRenderModesHas(t *testing.T) {
	modes := RenderModes{ModePreview, ModeEdit}
	if !modes.Has(ModeEdit) || modes.Has(ModeView) {
		t.Errorf("Has() wrong for %v", modes)
	}
}

func TestParseOptions(t *testing.T) {
	o := ParseOptions(json.RawMessage(`{"type":"danger","autoClose":5000,"extra":1}`))
	if o.Type != "danger" || o.AutoClose != 5000 {
		t.Errorf("unexpected options %+v", o)
	}
	if len(o.Raw) == 0 {
		t.Error("raw options should be preserved")
	}
	if z := ParseOptions(nil); z.Type != "" || z.Raw != nil {
		t.Errorf("nil options should be zero, got %+v", z)
	}
}

func TestParseOptionsMalformed(t *testing.T) {
	for _, raw := range []string{`{"title":5}`, `{"type":"info","autoClose":"soon"}`, `[1,2]`} {
		if diff := cmp.Diff(Options{}, ParseOptions(json.RawMessage(raw))); diff != "" {
			t.Errorf("ParseOptions(%s) mismatch (-want +got):\n%s", raw, diff)
		}
	}
}
