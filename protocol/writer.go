// Package protocol implements the STOMP 1.2 wire framing: encoding a
// Frame to CRLF-terminated lines with a NULL-terminated body, and
// decoding one frame at a time off a byte stream using either a
// content-length-bounded read or a NULL-scan read.
//
// This is the one place that knows how to turn a structured frame into
// bytes on the wire and back, so every other layer works with
// *frame.Frame values instead of raw bytes.
package protocol

import (
	"io"

	"github.com/nullstomp/gostomp/codec"
	"github.com/nullstomp/gostomp/frame"
)

// Writer serializes frames to an underlying stream using a configurable
// header codec (see codec.Codec) for outbound escaping.
type Writer struct {
	w     io.Writer
	codec codec.Codec
}

// NewWriter returns a Writer using the strict (STOMP 1.2 compliant)
// header codec.
func NewWriter(w io.Writer) *Writer {
	return &Writer{w: w, codec: codec.Get(codec.TypeStrict)}
}

// NewWriterWithCodec returns a Writer using the given header codec.
func NewWriterWithCodec(w io.Writer, c codec.Codec) *Writer {
	return &Writer{w: w, codec: c}
}

// Write serializes f as: "VERB\r\n", one "name:encoded-value\r\n" line per
// header in order, a blank line, the body, and a single NULL terminator.
// If f has no body, the finish sequence is CRLF NULL CRLF — the blank
// line, the NULL terminator, and one extra CRLF some brokers expect as
// inter-frame whitespace. A nil frame (f == nil) writes a bare heartbeat:
// a single LF.
func (w *Writer) Write(f *frame.Frame) error {
	if f == nil {
		_, err := w.w.Write([]byte{'\n'})
		return err
	}

	buf := make([]byte, 0, 256)
	buf = append(buf, f.Command...)
	buf = append(buf, '\r', '\n')

	f.Each(func(name, value string) {
		buf = append(buf, name...)
		buf = append(buf, ':')
		buf = append(buf, w.codec.Encode(value)...)
		buf = append(buf, '\r', '\n')
	})
	buf = append(buf, '\r', '\n')

	if len(f.Body) > 0 {
		buf = append(buf, f.Body...)
		buf = append(buf, 0)
	} else {
		buf = append(buf, 0, '\r', '\n')
	}

	_, err := w.w.Write(buf)
	return err
}
