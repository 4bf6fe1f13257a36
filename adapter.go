package logbench

import (
	"context"
	"fmt"
	"strings"
	"unicode"
)

// Adapter maps Records onto one logging backend and owns that backend's sink.
//
// An adapter is single use: constructed, configured once, emitted to,
// flushed, then disposed. The harness builds a fresh adapter for every run.
type Adapter interface {
	// Name identifies the adapter in reports and output file names.
	Name() string
	// Configure binds the adapter to a file at path. The file must not exist.
	Configure(path string) error
	// Emit hands one record to the backend.
	Emit(rec Record) error
	// Flush blocks until every record emitted so far has been written to the
	// output file, or ctx is done.
	Flush(ctx context.Context) error
	// Dispose releases the file and background workers. It is idempotent and
	// safe to call after a failed Configure.
	Dispose() error
}

// Backpressure selects what an adapter's async sink does when its queue is
// at capacity.
type Backpressure uint8

const (
	// BackpressureGrow grows the queue on demand; emission never blocks and
	// nothing is dropped.
	BackpressureGrow Backpressure = iota
	// BackpressureBlock blocks the emitting goroutine until the background
	// writer drains the queue below its bound.
	BackpressureBlock
	// BackpressureDrop discards records that do not fit and counts them.
	BackpressureDrop
)

// String returns the policy name accepted by ParseBackpressure.
func (b Backpressure) String() string {
	switch b {
	case BackpressureGrow:
		return "grow"
	case BackpressureBlock:
		return "block"
	case BackpressureDrop:
		return "drop"
	default:
		return fmt.Sprintf("backpressure(%d)", uint8(b))
	}
}

// MarshalText implements encoding.TextMarshaler for YAML, JSON and flags.
func (b Backpressure) MarshalText() ([]byte, error) {
	return []byte(b.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler via ParseBackpressure.
func (b *Backpressure) UnmarshalText(text []byte) error {
	parsed, ok := ParseBackpressure(string(text))
	if !ok {
		return fmt.Errorf("unknown backpressure policy %q", text)
	}
	*b = parsed
	return nil
}

// ParseBackpressure accepts grow, block and drop (case insensitive).
func ParseBackpressure(value string) (Backpressure, bool) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "grow":
		return BackpressureGrow, true
	case "block":
		return BackpressureBlock, true
	case "drop":
		return BackpressureDrop, true
	default:
		return BackpressureGrow, false
	}
}

// DefaultQueueSize is the async sink queue bound in bytes for block and drop,
// and the initial queue capacity for grow.
const DefaultQueueSize = 1 << 20

// AdapterOptions are the sink settings every adapter honours.
type AdapterOptions struct {
	Backpressure Backpressure
	QueueSize    int
	SyncOnFlush  bool
}

// Backend registers one adapter implementation under a stable name.
type Backend struct {
	Name        string
	Description string
	New         func(AdapterOptions) Adapter
}

// FileName returns the output file name for an adapter name: lowercase
// letters and digits are kept, '/' and '.' become '-', other runes are dropped.
func FileName(name string) string {
	var b strings.Builder
	b.Grow(len(name) + 4)
	for _, r := range name {
		r = unicode.ToLower(r)
		switch {
		case (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') || r == '-' || r == '_':
			b.WriteRune(r)
		case r == '/' || r == '.' || r == ' ':
			b.WriteByte('-')
		}
	}
	if b.Len() == 0 {
		b.WriteString("adapter")
	}
	b.WriteString(".log")
	return b.String()
}
