package stream

import (
	"bytes"
	"math/rand"
	"strings"
	"testing"
)

func TestReassembler_Push(t *testing.T) {
	tests := []struct {
		name   string
		chunks []string
		want   []string
		rest   int
	}{
		{
			name:   "one frame per chunk",
			chunks: []string{"data: a\n\n", "data: b\n\n"},
			want:   []string{"data: a", "data: b"},
		},
		{
			name:   "several frames in one chunk",
			chunks: []string{"data: a\n\ndata: b\n\ndata: c\n\n"},
			want:   []string{"data: a", "data: b", "data: c"},
		},
		{
			name:   "frame split across chunks",
			chunks: []string{"da", "ta: hel", "lo\n\n"},
			want:   []string{"data: hello"},
		},
		{
			name:   "delimiter split across chunks",
			chunks: []string{"data: a\n", "\ndata: b\n", "\n"},
			want:   []string{"data: a", "data: b"},
		},
		{
			name:   "incomplete tail is held",
			chunks: []string{"data: a\n\ndata: partial"},
			want:   []string{"data: a"},
			rest:   len("data: partial"),
		},
		{
			name:   "multi-line frame",
			chunks: []string{"event: msg\nid: 7\ndata: x\n\n"},
			want:   []string{"event: msg\nid: 7\ndata: x"},
		},
		{
			name:   "empty chunks",
			chunks: []string{"", "data: a", "", "\n\n"},
			want:   []string{"data: a"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var r Reassembler
			var got []string
			for _, c := range tt.chunks {
				for _, f := range r.Push([]byte(c)) {
					got = append(got, string(f))
				}
			}
			if strings.Join(got, "|") != strings.Join(tt.want, "|") {
				t.Errorf("frames = %q, want %q", got, tt.want)
			}
			if r.Buffered() != tt.rest {
				t.Errorf("Buffered() = %d, want %d", r.Buffered(), tt.rest)
			}
		})
	}
}

func TestReassembler_Flush(t *testing.T) {
	tests := []struct {
		name      string
		input     string
		want      []string
		discarded int
	}{
		{name: "nothing buffered", input: "data: a\n\n"},
		{name: "tail with terminated line", input: "data: a\n\ndata: b\n", want: []string{"data: b"}},
		{name: "tail cut mid-line", input: "data: a\n\ndata: {\"ty", discarded: len("data: {\"ty")},
		{name: "tail with CRLF", input: "data: b\r\n", want: []string{"data: b"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var r Reassembler
			r.Push([]byte(tt.input))

			frames, discarded := r.Flush()
			var got []string
			for _, f := range frames {
				got = append(got, string(f))
			}
			if strings.Join(got, "|") != strings.Join(tt.want, "|") {
				t.Errorf("Flush() frames = %q, want %q", got, tt.want)
			}
			if discarded != tt.discarded {
				t.Errorf("Flush() discarded = %d, want %d", discarded, tt.discarded)
			}
			if r.Buffered() != 0 {
				t.Errorf("buffer not empty after Flush: %d", r.Buffered())
			}
		})
	}
}

// Any chunking of a delimited stream must yield frames that, re-joined with
// their delimiters, reproduce the input byte for byte.
func TestReassembler_ChunkingPreservesBytes(t *testing.T) {
	input := []byte(strings.Join([]string{
		`data: {"type":"status","message":"searching"}`,
		`data: {"type":"text","content":"Café "}` + "\n" + `data: {"type":"text","content":"Luna"}`,
		`event: ping`,
		``,
		`data: {"type":"text","content":"a\nb"}`,
		`data: {"type":"done","data":{"shops":[]}}`,
	}, "\n\n") + "\n\n")

	rng := rand.New(rand.NewSource(42))
	for round := 0; round < 200; round++ {
		var r Reassembler
		var rebuilt bytes.Buffer

		for rest := input; len(rest) > 0; {
			n := 1 + rng.Intn(len(rest))
			if n > 7 && round%2 == 0 {
				n = 1 + rng.Intn(7)
			}
			for _, f := range r.Push(rest[:n]) {
				rebuilt.Write(f)
				rebuilt.Write(FrameDelimiter)
			}
			rest = rest[n:]
		}

		if !bytes.Equal(rebuilt.Bytes(), input) {
			t.Fatalf("round %d: rebuilt stream differs\n got: %q\nwant: %q", round, rebuilt.Bytes(), input)
		}
		if r.Buffered() != 0 {
			t.Fatalf("round %d: %d bytes left buffered", round, r.Buffered())
		}
	}
}

func TestReassembler_FramesDoNotAliasBuffer(t *testing.T) {
	var r Reassembler
	first := r.Push([]byte("data: one\n\n"))
	r.Push([]byte("data: two\n\n"))

	if string(first[0]) != "data: one" {
		t.Errorf("earlier frame was overwritten: %q", first[0])
	}
}
