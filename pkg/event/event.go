package event

import (
	"bytes"
	"errors"
	"io"

	"github.com/vmihailenco/msgpack/v5"
)

// Type tags the kind of telemetry event.
type Type string

const (
	TypeViewStart Type = "view.start"
	TypeViewStop  Type = "view.stop"
	TypeAction    Type = "action"
	TypeError     Type = "error"
)

// Event is one telemetry record produced by the scope hierarchy. The
// identifying fields are resolved from the active context at emission time
// so an event is self-describing once persisted.
type Event struct {
	Type Type  `msgpack:"type"`
	TS   int64 `msgpack:"ts"` // nanoseconds

	ApplicationID string `msgpack:"application_id"`
	SessionID     string `msgpack:"session_id,omitempty"`
	ViewID        string `msgpack:"view_id,omitempty"`

	// Name carries the view name, action name or error message.
	Name       string         `msgpack:"name,omitempty"`
	Attributes map[string]any `msgpack:"attributes,omitempty"`
}

// Encode serializes a single event.
func Encode(e Event) ([]byte, error) {
	return msgpack.Marshal(&e)
}

// DecodeAll reads a stream of concatenated msgpack events, as assembled by
// the ingest processor into one batch payload.
func DecodeAll(payload []byte) ([]Event, error) {
	dec := msgpack.NewDecoder(bytes.NewReader(payload))
	var out []Event
	for {
		var e Event
		if err := dec.Decode(&e); err != nil {
			if errors.Is(err, io.EOF) {
				return out, nil
			}
			return out, err
		}
		out = append(out, e)
	}
}
