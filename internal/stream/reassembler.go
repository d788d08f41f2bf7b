package stream

import "bytes"

// FrameDelimiter separates frames on the wire
var FrameDelimiter = []byte("\n\n")

// Reassembler turns arbitrarily chunked stream bytes into complete frames.
// It owns a single growable buffer with a read cursor; bytes before the
// cursor have already been handed out and are reclaimed lazily.
//
// A Reassembler is not safe for concurrent use.
type Reassembler struct {
	buf []byte
	off int
}

// Push appends chunk and returns every frame completed by it, in stream
// order, without their delimiters. It returns nil when chunk completes no
// frame.
func (r *Reassembler) Push(chunk []byte) [][]byte {
	if len(chunk) == 0 {
		return nil
	}

	// A delimiter may straddle the previous chunk and this one.
	scan := len(r.buf) - (len(FrameDelimiter) - 1)
	if scan < r.off {
		scan = r.off
	}
	r.buf = append(r.buf, chunk...)

	var frames [][]byte
	for {
		i := bytes.Index(r.buf[scan:], FrameDelimiter)
		if i < 0 {
			break
		}
		end := scan + i
		frames = append(frames, clone(r.buf[r.off:end]))
		r.off = end + len(FrameDelimiter)
		scan = r.off
	}

	r.compact()
	return frames
}

// Flush is called once at end of stream. A buffered tail whose last line
// is terminated by a newline is returned as a final frame; a tail that
// stops mid-line is truncated data and is discarded. The buffer is empty
// afterwards. Discarded reports how many bytes were dropped.
func (r *Reassembler) Flush() (frames [][]byte, discarded int) {
	tail := r.buf[r.off:]
	defer r.Reset()

	if len(tail) == 0 {
		return nil, 0
	}
	if tail[len(tail)-1] != '\n' {
		return nil, len(tail)
	}

	frame := bytes.TrimRight(tail, "\r\n")
	if len(frame) == 0 {
		return nil, 0
	}
	return [][]byte{clone(frame)}, 0
}

// Buffered returns the number of bytes held for an incomplete frame
func (r *Reassembler) Buffered() int {
	return len(r.buf) - r.off
}

// Reset drops all buffered bytes
func (r *Reassembler) Reset() {
	r.buf = r.buf[:0]
	r.off = 0
}

// compact reclaims the consumed prefix once it dominates the buffer
func (r *Reassembler) compact() {
	switch {
	case r.off == len(r.buf):
		r.buf = r.buf[:0]
		r.off = 0
	case r.off > 0 && r.off >= len(r.buf)/2:
		n := copy(r.buf, r.buf[r.off:])
		r.buf = r.buf[:n]
		r.off = 0
	}
}

func clone(b []byte) []byte {
	out := make([]byte, len(b))
	copy(out, b)
	return out
}
