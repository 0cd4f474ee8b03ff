package transport

import (
	"fmt"
	"net/url"
	"strings"
	"time"
)

// Session is the per-tab console session as seen by the channel.
type Session struct {
	// ID is the server assigned session id.
	ID string
	// PreviousID is the id used before a reload. It is sent once, on the
	// next connect, so that the server can migrate state.
	PreviousID string
	// Configured becomes true after the server's consoleConfigured
	// notification.
	Configured bool

	RefreshInterval   time.Duration
	InactivityTimeout time.Duration
}

// SessionURL derives the WebSocket URL of a console session from the
// console's page URL.
//
//	http://host/prefix  ->  ws://host/prefix/console-session/<id>?was=<previous>
func SessionURL(base, sessionID, previousID string) (string, error) {
	u, err := url.Parse(base)
	if err != nil {
		return "", fmt.Errorf("parse console url: %w", err)
	}
	switch u.Scheme {
	case "http", "ws":
		u.Scheme = "ws"
	case "https", "wss":
		u.Scheme = "wss"
	default:
		return "", fmt.Errorf("unsupported console url scheme %q", u.Scheme)
	}
	if u.Host == "" {
		return "", fmt.Errorf("console url %q has no host", base)
	}
	if sessionID == "" {
		return "", fmt.Errorf("no session id")
	}

	path := u.Path
	if !strings.HasSuffix(path, "/") {
		path += "/"
	}
	u.Path = path + "console-session/" + sessionID
	u.RawPath = ""
	u.Fragment = ""
	u.RawQuery = ""
	if previousID != "" {
		u.RawQuery = url.Values{"was": {previousID}}.Encode()
	}
	return u.String(), nil
}
