package diag

import (
	"sync"
	"time"

	"skillsight/internal/errors"
)

// Default buffer sizing: trim back to keepEntries once maxEntries is exceeded.
const (
	DefaultMaxEntries  = 1000
	DefaultKeepEntries = 500
)

// Event records one degraded-path decision made by a defensive operation.
type Event struct {
	Time      time.Time `json:"time"`
	Operation string    `json:"operation"`
	Kind      string    `json:"kind"`
	Received  string    `json:"received"`
	Fallback  string    `json:"fallback,omitempty"`
	Detail    string    `json:"detail,omitempty"`
}

// Recorder is the sink for degraded-path diagnostics. Implementations must be
// safe for concurrent use.
type Recorder interface {
	Record(ev Event)
	Events() []Event
	Len() int
}

// Buffer is a bounded in-memory Recorder. Once the entry count exceeds max,
// the buffer is trimmed to the most recent keep entries.
type Buffer struct {
	mu      sync.Mutex
	entries []Event
	max     int
	keep    int
}

// NewBuffer creates a Buffer with the default max/keep sizing.
func NewBuffer() *Buffer {
	return NewBufferSize(DefaultMaxEntries, DefaultKeepEntries)
}

// NewBufferSize creates a Buffer with explicit sizing. Invalid sizes fall
// back to the defaults; keep is clamped below max.
func NewBufferSize(max, keep int) *Buffer {
	if max <= 0 {
		max = DefaultMaxEntries
	}
	if keep <= 0 || keep > max {
		keep = max / 2
		if keep == 0 {
			keep = 1
		}
	}
	return &Buffer{
		entries: make([]Event, 0, keep),
		max:     max,
		keep:    keep,
	}
}

// Record appends an event, trimming to the most recent keep entries when the
// buffer grows past max.
func (b *Buffer) Record(ev Event) {
	if ev.Time.IsZero() {
		ev.Time = time.Now()
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	b.entries = append(b.entries, ev)
	if len(b.entries) > b.max {
		trimmed := make([]Event, b.keep)
		copy(trimmed, b.entries[len(b.entries)-b.keep:])
		b.entries = trimmed
	}
}

// Events returns a copy of the buffered events, oldest first.
func (b *Buffer) Events() []Event {
	b.mu.Lock()
	defer b.mu.Unlock()

	out := make([]Event, len(b.entries))
	copy(out, b.entries)
	return out
}

// Len returns the number of buffered events.
func (b *Buffer) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.entries)
}

// Nop is a Recorder that discards everything.
type Nop struct{}

func (Nop) Record(Event)    {}
func (Nop) Events() []Event { return nil }
func (Nop) Len() int        { return 0 }

// LoggingRecorder forwards each event to a structured logger at debug level
// and delegates storage to an inner Recorder.
type LoggingRecorder struct {
	inner  Recorder
	logger *errors.Logger
}

// NewLoggingRecorder wraps inner so every recorded event is also logged.
// A nil inner delegates storage to a fresh default Buffer.
func NewLoggingRecorder(inner Recorder, logger *errors.Logger) *LoggingRecorder {
	if inner == nil {
		inner = NewBuffer()
	}
	return &LoggingRecorder{inner: inner, logger: logger}
}

func (r *LoggingRecorder) Record(ev Event) {
	if r.logger != nil {
		r.logger.Debug("degraded data path",
			"operation", ev.Operation,
			"kind", ev.Kind,
			"received", ev.Received,
			"fallback", ev.Fallback,
			"detail", ev.Detail)
	}
	r.inner.Record(ev)
}

func (r *LoggingRecorder) Events() []Event {
	return r.inner.Events()
}

func (r *LoggingRecorder) Len() int {
	return r.inner.Len()
}
