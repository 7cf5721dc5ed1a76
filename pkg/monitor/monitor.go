// Package monitor is the internal diagnostics sink of the agent. Records are
// structured {message, cause, attributes} values intended for the vendor's
// own monitoring, never for the end user. Delivery is fire-and-forget: a
// background writer appends JSON lines and drops records when its channel is
// full so the caller can never block or fail.
package monitor

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"
)

// Record is one internal diagnostic event.
type Record struct {
	Time       string         `json:"time"`
	Message    string         `json:"message"`
	Cause      string         `json:"cause,omitempty"`
	Attributes map[string]any `json:"attributes,omitempty"`
}

// Sink receives internal diagnostic records. A nil *Monitor is a valid,
// disabled Sink.
type Sink interface {
	Notify(message string, cause error, attributes map[string]any)
}

// Monitor writes records as JSON lines under <dir>/monitor.jsonl.
type Monitor struct {
	ch      chan Record
	dropped uint64
	once    sync.Once
	done    chan struct{}
}

// New creates a monitor writing to dir. If the directory or file cannot be
// created the monitor silently discards records; diagnostics must never take
// the host process down.
func New(dir string) *Monitor {
	m := &Monitor{ch: make(chan Record, 256), done: make(chan struct{})}
	go m.run(dir)
	return m
}

// Notify enqueues a diagnostic record. Safe on a nil monitor.
func (m *Monitor) Notify(message string, cause error, attributes map[string]any) {
	if m == nil {
		return
	}
	rec := Record{
		Time:       time.Now().UTC().Format(time.RFC3339Nano),
		Message:    message,
		Attributes: attributes,
	}
	if cause != nil {
		rec.Cause = cause.Error()
	}
	select {
	case m.ch <- rec:
	default:
		atomic.AddUint64(&m.dropped, 1)
	}
}

// Dropped returns the number of records discarded because the writer fell
// behind.
func (m *Monitor) Dropped() uint64 {
	if m == nil {
		return 0
	}
	return atomic.LoadUint64(&m.dropped)
}

// Close stops the background writer after draining queued records.
func (m *Monitor) Close() {
	if m == nil {
		return
	}
	m.once.Do(func() {
		close(m.ch)
		<-m.done
	})
}

func (m *Monitor) run(dir string) {
	defer close(m.done)
	var f *os.File
	if dir != "" {
		if err := os.MkdirAll(dir, 0o700); err == nil {
			f, _ = os.OpenFile(filepath.Join(dir, "monitor.jsonl"), os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o600)
		}
	}
	if f != nil {
		defer f.Close()
	}
	for rec := range m.ch {
		if f == nil {
			continue
		}
		b, err := json.Marshal(rec)
		if err != nil {
			continue
		}
		_, _ = f.Write(append(b, '\n'))
	}
}
