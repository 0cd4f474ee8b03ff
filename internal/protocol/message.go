// Package protocol implements the console wire format: JSON-RPC 2.0
// notifications exchanged in both directions over the console WebSocket.
// Nothing in the protocol carries an id; every message is fire-and-forget.
package protocol

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/sourcegraph/jsonrpc2"
)

var (
	// ErrMalformed is returned for frames that are not valid JSON-RPC.
	ErrMalformed = errors.New("malformed message")
	// ErrNotNotification is returned for frames carrying a request id.
	ErrNotNotification = errors.New("message is not a notification")
)

// Method names sent by the server.
const (
	MethodAddPageResources    = "addPageResources"
	MethodAddConletType       = "addConletType"
	MethodRemoveConletType    = "removeConletType"
	MethodLastConsoleLayout   = "lastConsoleLayout"
	MethodNotifyConletView    = "notifyConletView"
	MethodConsoleConfigured   = "consoleConfigured"
	MethodUpdateConlet        = "updateConlet"
	MethodDeleteConlet        = "deleteConlet"
	MethodDisplayNotification = "displayNotification"
	MethodOpenModalDialog     = "openModalDialog"
	MethodCloseModalDialog    = "closeModalDialog"
	MethodRetrieveLocalData   = "retrieveLocalData"
	MethodStoreLocalData      = "storeLocalData"
	MethodReload              = "reload"
)

// Method names sent by the client.
const (
	MethodConsoleReady       = "consoleReady"
	MethodSetLocale          = "setLocale"
	MethodRenderConlet       = "renderConlet"
	MethodAddConlet          = "addConlet"
	MethodConletsDeleted     = "conletsDeleted"
	MethodConsoleLayout      = "consoleLayout"
	MethodNotifyConletModel  = "notifyConletModel"
	MethodKeepAlive          = "keepAlive"
	MethodDisconnect         = "disconnect"
	MethodRetrievedLocalData = "retrievedLocalData"
)

// Message is a decoded notification. Params holds the positional
// parameters still in their JSON form.
type Message struct {
	Method string
	Params []json.RawMessage
}

// Encode serializes a notification. The params member is omitted when no
// parameters are given.
func Encode(method string, params ...any) ([]byte, error) {
	req := &jsonrpc2.Request{Method: method, Notif: true}
	if len(params) > 0 {
		if err := req.SetParams(params); err != nil {
			return nil, fmt.Errorf("encode %s: %w", method, err)
		}
	}
	return json.Marshal(req)
}

// Decode parses one frame.
func Decode(data []byte) (*Message, error) {
	var req jsonrpc2.Request
	if err := json.Unmarshal(data, &req); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	if !req.Notif {
		return nil, fmt.Errorf("%w: %s", ErrNotNotification, req.Method)
	}
	msg := &Message{Method: req.Method}
	if req.Params == nil || string(*req.Params) == "null" {
		return msg, nil
	}
	if err := json.Unmarshal(*req.Params, &msg.Params); err != nil {
		return nil, fmt.Errorf("%w: params of %s must be an array", ErrMalformed, req.Method)
	}
	return msg, nil
}

// Len returns the number of parameters.
func (m *Message) Len() int {
	return len(m.Params)
}

// Arg decodes parameter i into v. A missing or null parameter leaves v
// untouched and is not an error.
func (m *Message) Arg(i int, v any) error {
	if i >= len(m.Params) || isNull(m.Params[i]) {
		return nil
	}
	if err := json.Unmarshal(m.Params[i], v); err != nil {
		return fmt.Errorf("%s: param %d: %w", m.Method, i, err)
	}
	return nil
}

// String returns parameter i as a string, or "" if absent or not a string.
func (m *Message) String(i int) string {
	var s string
	if m.Arg(i, &s) != nil {
		return ""
	}
	return s
}

// Strings returns parameter i as a string list.
func (m *Message) Strings(i int) []string {
	var s []string
	if m.Arg(i, &s) != nil {
		return nil
	}
	return s
}

// Bool returns parameter i as a boolean.
func (m *Message) Bool(i int) bool {
	var b bool
	if m.Arg(i, &b) != nil {
		return false
	}
	return b
}

// Raw returns parameter i undecoded, or nil if absent.
func (m *Message) Raw(i int) json.RawMessage {
	if i >= len(m.Params) {
		return nil
	}
	return m.Params[i]
}

func isNull(raw json.RawMessage) bool {
	return len(raw) == 0 || string(raw) == "null"
}
