package stream

import (
	"encoding/json"
	"errors"
	"fmt"
)

// EventType discriminates stream events
type EventType string

const (
	// EventText carries an incremental content fragment
	EventText EventType = "text"
	// EventStatus carries a transient progress message
	EventStatus EventType = "status"
	// EventDone ends the stream successfully, optionally with a payload
	EventDone EventType = "done"
	// EventError ends the stream with a failure message
	EventError EventType = "error"
)

// Event is one application message decoded from a data line.
//
// Wire shapes:
//
//	{"type":"text","content":"..."}
//	{"type":"status","message":"..."}
//	{"type":"done","data":{...}}
//	{"type":"error","message":"..."}
type Event struct {
	Type    EventType       `json:"type"`
	Content string          `json:"content,omitempty"`
	Message string          `json:"message,omitempty"`
	Data    json.RawMessage `json:"data,omitempty"`
}

// Terminal reports whether the event ends the stream
func (e Event) Terminal() bool {
	return e.Type == EventDone || e.Type == EventError
}

var errUnknownEventType = errors.New("unknown event type")

// ParseEvent decodes a single data payload. Only the JSON structure and
// the type discriminator are checked; payload contents are the caller's
// concern.
func ParseEvent(data []byte) (Event, error) {
	var ev Event
	if err := json.Unmarshal(data, &ev); err != nil {
		return Event{}, err
	}
	switch ev.Type {
	case EventText, EventStatus, EventDone, EventError:
		return ev, nil
	default:
		return Event{}, fmt.Errorf("%w: %q", errUnknownEventType, ev.Type)
	}
}
