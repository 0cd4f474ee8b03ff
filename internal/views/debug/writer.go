package debug

import (
	"bytes"
	"strings"
	"sync"
	"time"
)

// Writer turns log output into entries. Configure the logger without a
// date prefix; entries carry their own time. Safe for concurrent use.
type Writer struct {
	emit func(Entry)

	mu  sync.Mutex
	buf []byte
}

// NewWriter returns a writer that passes each complete line to emit.
func NewWriter(emit func(Entry)) *Writer {
	return &Writer{emit: emit}
}

func (w *Writer) Write(p []byte) (int, error) {
	w.mu.Lock()
	w.buf = append(w.buf, p...)
	var lines []string
	for {
		i := bytes.IndexByte(w.buf, '\n')
		if i < 0 {
			break
		}
		lines = append(lines, string(w.buf[:i]))
		w.buf = w.buf[i+1:]
	}
	w.mu.Unlock()

	now := time.Now()
	for _, line := range lines {
		if line == "" {
			continue
		}
		w.emit(Entry{Time: now, Kind: Classify(line), Message: line})
	}
	return len(p), nil
}

// Classify derives the entry kind from a log line.
func Classify(line string) string {
	lower := strings.ToLower(line)
	switch {
	case strings.Contains(lower, "error") || strings.Contains(lower, "failed"):
		return "err"
	case strings.HasPrefix(lower, "ws "):
		return "ws"
	case strings.HasPrefix(lower, "resource "):
		return "res"
	case strings.HasPrefix(lower, "hook "):
		return "hook"
	default:
		return "con"
	}
}
