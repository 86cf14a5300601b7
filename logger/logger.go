// Package logger implements a small central, ring-buffered log used by every
// subsystem of the engine instead of ad-hoc fmt.Println/log calls. Entries
// are tagged with a short component name ("dma", "timer0", "sched", ...) and
// can be flushed in full, or just the most recent N lines, to any io.Writer.
package logger

import (
	"fmt"
	"io"
	"strings"
	"sync"
)

// Permission is implemented by anything that can gate whether a log entry is
// allowed to be recorded. A nil Permission, like Allow, always permits
// logging.
type Permission interface {
	AllowLogging() bool
}

// Allow is a Permission that always allows logging. Used by callers that
// have no reason to suppress logging (the default case).
var Allow = alwaysAllow{}

type alwaysAllow struct{}

func (alwaysAllow) AllowLogging() bool { return true }

type entry struct {
	tag    string
	detail string
}

func (e entry) String() string {
	return fmt.Sprintf("%s: %s", e.tag, e.detail)
}

// Logger is a central, ring-buffered log of diagnostic entries.
type Logger struct {
	crit    sync.Mutex
	entries []entry
	limit   int
}

// NewLogger creates a new Logger with room for limit entries. Once full, the
// oldest entry is dropped to make room for a new one.
func NewLogger(limit int) *Logger {
	if limit <= 0 {
		limit = 1
	}
	return &Logger{
		entries: make([]entry, 0, limit),
		limit:   limit,
	}
}

// central is the default, package level Logger instance used by the Log/Logf/
// Write/Tail/Clear package functions.
var central = NewLogger(1000)

func detailString(detail interface{}) string {
	switch v := detail.(type) {
	case error:
		return v.Error()
	case fmt.Stringer:
		return v.String()
	case string:
		return v
	default:
		return fmt.Sprintf("%v", v)
	}
}

// Log appends a new entry to the log, provided perm allows it.
func (l *Logger) Log(perm Permission, tag string, detail interface{}) {
	if perm != nil && !perm.AllowLogging() {
		return
	}

	l.crit.Lock()
	defer l.crit.Unlock()

	if len(l.entries) >= l.limit {
		l.entries = l.entries[1:]
	}
	l.entries = append(l.entries, entry{tag: tag, detail: detailString(detail)})
}

// Logf is like Log but the detail is built with fmt.Sprintf.
func (l *Logger) Logf(perm Permission, tag string, format string, args ...interface{}) {
	l.Log(perm, tag, fmt.Sprintf(format, args...))
}

// Write flushes every currently buffered entry to w, one per line.
func (l *Logger) Write(w io.Writer) {
	l.crit.Lock()
	defer l.crit.Unlock()

	var s strings.Builder
	for _, e := range l.entries {
		s.WriteString(e.String())
		s.WriteRune('\n')
	}
	io.WriteString(w, s.String())
}

// Tail flushes only the most recent n entries to w.
func (l *Logger) Tail(w io.Writer, n int) {
	l.crit.Lock()
	defer l.crit.Unlock()

	if n > len(l.entries) {
		n = len(l.entries)
	}

	var s strings.Builder
	for _, e := range l.entries[len(l.entries)-n:] {
		s.WriteString(e.String())
		s.WriteRune('\n')
	}
	io.WriteString(w, s.String())
}

// Clear empties the log.
func (l *Logger) Clear() {
	l.crit.Lock()
	defer l.crit.Unlock()
	l.entries = l.entries[:0]
}

// Log appends a new entry to the package-level central log.
func Log(tag string, detail interface{}) {
	central.Log(Allow, tag, detail)
}

// Logf is like Log but the detail is built with fmt.Sprintf.
func Logf(tag string, format string, args ...interface{}) {
	central.Logf(Allow, tag, format, args...)
}

// Write flushes the central log to w.
func Write(w io.Writer) {
	central.Write(w)
}

// Tail flushes the most recent n entries of the central log to w.
func Tail(w io.Writer, n int) {
	central.Tail(w, n)
}

// Clear empties the central log.
func Clear() {
	central.Clear()
}
