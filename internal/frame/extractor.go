// Package frame recovers discrete JSON object boundaries from an unbounded,
// possibly-fragmented byte stream with no length prefix or delimiter.
package frame

import (
	"bytes"
	"log"
)

// DefaultMaxFrameSize is the default maximum size (in bytes) of a single frame.
const DefaultMaxFrameSize = 1024 * 1024 // 1MB

// scanner states for one object scan.
type scanState int

const (
	stateScanning scanState = iota
	stateInObject
	stateInString
	stateEscaped
)

// Extractor accumulates stream bytes and yields complete, self-contained JSON
// object frames, keeping any trailing incomplete fragment for the next call.
// It is owned by a single reading goroutine and is not safe for concurrent use.
type Extractor struct {
	buf          []byte
	maxFrameSize int
}

// Config holds tunable parameters for the extractor.
type Config struct {
	MaxFrameSize int
}

// NewExtractor creates a frame extractor with an empty buffer.
func NewExtractor(conf ...Config) *Extractor {
	maxFrameSize := DefaultMaxFrameSize
	if len(conf) > 0 && conf[0].MaxFrameSize > 0 {
		maxFrameSize = conf[0].MaxFrameSize
	}
	return &Extractor{maxFrameSize: maxFrameSize}
}

// Feed appends p to the buffer and returns every complete frame now available,
// in stream order. A single call may yield zero, one, or many frames. Bytes
// belonging to a trailing partial object stay buffered until a later call
// completes them, so arbitrary fragmentation across read boundaries is fine.
func (e *Extractor) Feed(p []byte) [][]byte {
	e.buf = append(e.buf, p...)

	var frames [][]byte
	for {
		start := bytes.IndexByte(e.buf, '{')
		if start == -1 {
			// Nothing that could open an object; leave the buffer as is.
			return frames
		}

		end, ok := scanObject(e.buf, start)
		if !ok {
			if len(e.buf)-start > e.maxFrameSize {
				log.Printf("frame: dropping %d buffered bytes, object exceeded max frame size (%d bytes)", len(e.buf)-start, e.maxFrameSize)
				e.buf = nil
			}
			return frames
		}

		f := make([]byte, end-start)
		copy(f, e.buf[start:end])
		frames = append(frames, f)
		e.buf = e.buf[end:]
	}
}

// Pending returns the number of bytes currently buffered.
func (e *Extractor) Pending() int { return len(e.buf) }

// scanObject walks buf from the opening brace at start and returns the index
// one past the matching close brace. Braces inside string literals are not
// structural: the scan tracks quote and escape state so payload strings
// containing '{' or '}' cannot corrupt frame boundaries.
func scanObject(buf []byte, start int) (end int, ok bool) {
	state := stateScanning
	depth := 0

	for i := start; i < len(buf); i++ {
		c := buf[i]
		switch state {
		case stateEscaped:
			state = stateInString
		case stateInString:
			switch c {
			case '\\':
				state = stateEscaped
			case '"':
				state = stateInObject
			}
		default:
			switch c {
			case '"':
				state = stateInString
			case '{':
				state = stateInObject
				depth++
			case '}':
				depth--
				if depth == 0 {
					return i + 1, true
				}
			}
		}
	}
	return 0, false
}
