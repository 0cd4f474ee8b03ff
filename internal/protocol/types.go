package protocol

import (
	"encoding/json"
	"fmt"
)

// RenderMode names a visual representation of a conlet.
type RenderMode string

const (
	ModePreview       RenderMode = "Preview"
	ModeView          RenderMode = "View"
	ModeEdit          RenderMode = "Edit"
	ModeContent       RenderMode = "Content"
	ModeStickyPreview RenderMode = "StickyPreview"
	ModeForeground    RenderMode = "Foreground"
	ModeHelp          RenderMode = "Help"
)

// RenderModes is a list of render modes as sent on the wire.
type RenderModes []RenderMode

// Has reports whether m is in the list.
func (ms RenderModes) Has(m RenderMode) bool {
	for _, x := range ms {
		if x == m {
			return true
		}
	}
	return false
}

// ScriptResource is a loadable unit of script. A nil URI means the script
// is given inline in Source.
type ScriptResource struct {
	ID       string   `json:"id,omitempty"`
	URI      string   `json:"uri,omitempty"`
	Source   string   `json:"source,omitempty"`
	Requires []string `json:"requires,omitempty"`
	Provides []string `json:"provides,omitempty"`
}

// Label returns a name usable in log output.
func (r ScriptResource) Label() string {
	switch {
	case r.ID != "":
		return r.ID
	case r.URI != "":
		return r.URI
	default:
		return "<inline>"
	}
}

// StoreAction is one operation of a storeLocalData request, sent as the
// tuple [op, key, value].
type StoreAction struct {
	Op    string
	Key   string
	Value string
}

// Store operations.
const (
	StoreUpdate = "u"
	StoreDelete = "d"
)

// UnmarshalJSON decodes the tuple form.
func (a *StoreAction) UnmarshalJSON(data []byte) error {
	var tuple []json.RawMessage
	if err := json.Unmarshal(data, &tuple); err != nil {
		return err
	}
	if len(tuple) < 2 {
		return fmt.Errorf("store action needs at least 2 elements, got %d", len(tuple))
	}
	if err := json.Unmarshal(tuple[0], &a.Op); err != nil {
		return fmt.Errorf("store action op: %w", err)
	}
	if err := json.Unmarshal(tuple[1], &a.Key); err != nil {
		return fmt.Errorf("store action key: %w", err)
	}
	a.Value = ""
	if len(tuple) > 2 && !isNull(tuple[2]) {
		if err := json.Unmarshal(tuple[2], &a.Value); err != nil {
			return fmt.Errorf("store action value: %w", err)
		}
	}
	return nil
}

// MarshalJSON encodes the tuple form.
func (a StoreAction) MarshalJSON() ([]byte, error) {
	return json.Marshal([]string{a.Op, a.Key, a.Value})
}

// DeletedConlet reports the removal of some representations of a conlet.
// It is sent as [conletId, modes] or [conletId, modes, properties].
type DeletedConlet struct {
	ConletID   string
	Modes      RenderModes
	Properties map[string]any
}

// MarshalJSON encodes the tuple form.
func (d DeletedConlet) MarshalJSON() ([]byte, error) {
	modes := d.Modes
	if modes == nil {
		modes = RenderModes{}
	}
	tuple := []any{d.ConletID, modes}
	if len(d.Properties) > 0 {
		tuple = append(tuple, d.Properties)
	}
	return json.Marshal(tuple)
}

// UnmarshalJSON decodes the tuple form.
func (d *DeletedConlet) UnmarshalJSON(data []byte) error {
	var tuple []json.RawMessage
	if err := json.Unmarshal(data, &tuple); err != nil {
		return err
	}
	if len(tuple) < 2 {
		return fmt.Errorf("deleted conlet needs at least 2 elements, got %d", len(tuple))
	}
	if err := json.Unmarshal(tuple[0], &d.ConletID); err != nil {
		return err
	}
	if err := json.Unmarshal(tuple[1], &d.Modes); err != nil {
		return err
	}
	if len(tuple) > 2 && !isNull(tuple[2]) {
		return json.Unmarshal(tuple[2], &d.Properties)
	}
	return nil
}

// LocalEntry is one key/value pair reported by retrievedLocalData.
type LocalEntry struct {
	Key   string
	Value string
}

// MarshalJSON encodes the pair as [key, value].
func (e LocalEntry) MarshalJSON() ([]byte, error) {
	return json.Marshal([]string{e.Key, e.Value})
}

// Notification options as sent with displayNotification and
// openModalDialog. Only the commonly used members are typed; the raw
// object is kept for renderers that need more.
type Options struct {
	Type       string          `json:"type,omitempty"`
	AutoClose  int             `json:"autoClose,omitempty"`
	Title      string          `json:"title,omitempty"`
	Cancelable bool            `json:"cancelable,omitempty"`
	OkayLabel  string          `json:"okayLabel,omitempty"`
	CloseLabel string          `json:"closeLabel,omitempty"`
	Raw        json.RawMessage `json:"-"`
}

// ParseOptions decodes an options object. Unknown members are preserved
// in Raw; a malformed object yields zero options.
func ParseOptions(raw json.RawMessage) Options {
	var o Options
	if len(raw) == 0 || isNull(raw) {
		return o
	}
	if err := json.Unmarshal(raw, &o); err != nil {
		return Options{}
	}
	o.Raw = raw
	return o
}
