package stream

import (
	"encoding/json"
	"strings"
	"sync"
)

// Transcript accumulates a session's events for incremental rendering:
// the concatenated text so far, the latest status, and the terminal
// outcome. It is safe to read from another goroutine while the session
// writes to it.
type Transcript struct {
	// OnEvent, if set, is called after each event is recorded
	OnEvent func(Event)

	mu     sync.Mutex
	text   strings.Builder
	status string
	done   bool
	data   json.RawMessage
	errMsg string
	events int
}

// Sink returns the sink that records into t
func (t *Transcript) Sink() Sink {
	return t.record
}

func (t *Transcript) record(ev Event) {
	t.mu.Lock()
	t.events++
	switch ev.Type {
	case EventText:
		t.text.WriteString(ev.Content)
	case EventStatus:
		t.status = ev.Message
	case EventDone:
		t.done = true
		t.status = ""
		t.data = ev.Data
	case EventError:
		t.status = ""
		t.errMsg = ev.Message
	}
	t.mu.Unlock()

	if t.OnEvent != nil {
		t.OnEvent(ev)
	}
}

// Text returns the text accumulated so far
func (t *Transcript) Text() string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.text.String()
}

// Status returns the latest progress message; it is cleared when the
// stream ends
func (t *Transcript) Status() string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.status
}

// Done reports whether a done event was received
func (t *Transcript) Done() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.done
}

// Data returns the raw payload of the done event, if any
func (t *Transcript) Data() json.RawMessage {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.data
}

// DecodeData unmarshals the done payload into v. It is a no-op when the
// done event carried no payload.
func (t *Transcript) DecodeData(v interface{}) error {
	data := t.Data()
	if len(data) == 0 || string(data) == "null" {
		return nil
	}
	return json.Unmarshal(data, v)
}

// Err returns the message of the error event, or ""
func (t *Transcript) Err() string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.errMsg
}

// Events returns how many events were recorded
func (t *Transcript) Events() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.events
}
