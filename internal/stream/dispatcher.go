package stream

import (
	"bytes"
	"io"
	"log/slog"
)

var dataPrefix = []byte("data:")

// Sink receives events synchronously, in stream order
type Sink func(Event)

// Dispatcher decodes the data lines of frames into events and hands them
// to a sink. Once a terminal event has been delivered nothing else is.
type Dispatcher struct {
	log      *slog.Logger
	terminal *Event
}

// NewDispatcher creates a dispatcher. A nil logger discards logs.
func NewDispatcher(logger *slog.Logger) *Dispatcher {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Dispatcher{log: logger}
}

// Dispatch delivers every well-formed event in frame to sink. Lines that
// are not data lines are ignored and data lines that fail to decode are
// skipped. It returns true once a terminal event has been delivered, by
// this call or an earlier one.
func (d *Dispatcher) Dispatch(frame []byte, sink Sink) bool {
	for len(frame) > 0 && d.terminal == nil {
		var line []byte
		if i := bytes.IndexByte(frame, '\n'); i >= 0 {
			line, frame = frame[:i], frame[i+1:]
		} else {
			line, frame = frame, nil
		}
		line = bytes.TrimSuffix(line, []byte("\r"))

		if !bytes.HasPrefix(line, dataPrefix) {
			continue
		}
		payload := bytes.TrimPrefix(line[len(dataPrefix):], []byte(" "))

		ev, err := ParseEvent(payload)
		if err != nil {
			d.log.Debug("stream.event.malformed", slog.String("err", err.Error()), slog.Int("len", len(payload)))
			continue
		}

		sink(ev)
		if ev.Terminal() {
			d.terminal = &ev
		}
	}
	return d.terminal != nil
}

// Terminal returns the terminal event, if one has been delivered
func (d *Dispatcher) Terminal() (Event, bool) {
	if d.terminal == nil {
		return Event{}, false
	}
	return *d.terminal, true
}
