// Package diagnostics provides the per-run append-only diagnostic buffer
// threaded through ingestion, the resolver, and the scraper (spec §7).
package diagnostics

// Level is the severity of a single diagnostic entry.
type Level string

const (
	Info    Level = "info"
	Warning Level = "warning"
	Error   Level = "error"
)

// Entry is one diagnostic record, tagged with a category so the
// surrounding UI can group related entries (e.g. "ETF-Daten").
type Entry struct {
	Category string
	Level    Level
	Message  string
	Row      int // snapshot row index, -1 when not row-scoped
}

// Buffer is an append-only collector for one analysis run. It is not safe
// for concurrent use from multiple goroutines; each pipeline run owns one.
type Buffer struct {
	entries []Entry
}

// New returns an empty buffer. Resetting the buffer is an explicit step at
// run start per spec §7 — callers construct a fresh Buffer per run rather
// than reusing one.
func New() *Buffer {
	return &Buffer{}
}

// Add appends a diagnostic entry.
func (b *Buffer) Add(category string, level Level, message string, row int) {
	b.entries = append(b.entries, Entry{Category: category, Level: level, Message: message, Row: row})
}

// Info records an info-level diagnostic not scoped to a row.
func (b *Buffer) Info(category, message string) {
	b.Add(category, Info, message, -1)
}

// Warn records a warning-level diagnostic not scoped to a row.
func (b *Buffer) Warn(category, message string) {
	b.Add(category, Warning, message, -1)
}

// WarnRow records a warning scoped to a snapshot row.
func (b *Buffer) WarnRow(category, message string, row int) {
	b.Add(category, Warning, message, row)
}

// Entries returns all collected diagnostics in insertion order.
func (b *Buffer) Entries() []Entry {
	return b.entries
}
