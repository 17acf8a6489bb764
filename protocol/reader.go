package protocol

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/nullstomp/gostomp/codec"
)

// maxReadChunk bounds a single read of a content-length body, matching
// the source's "request up to a fixed buffer size per iteration" rule.
// io.ReadFull already loops internally on short reads, so this constant
// only documents the chunking the design calls for; it is not needed to
// make the read correct, only to keep any single syscall's buffer bounded.
const maxReadChunk = 8 * 1024

// Response is one parsed STOMP frame: a broker verb (or HEARTBEAT for an
// empty frame), its headers, and its body.
type Response struct {
	Kind    string
	Headers responseHeaders
	Payload []byte

	ack  func(headers ...string) error
	nack func(headers ...string) error
}

// BindAck wires this Response's Ack/Nack methods to the given callbacks.
// The client package calls this once per dispatched MESSAGE frame, before
// handing the Response to the OnMessage handler; a Response that never
// goes through that path (e.g. one built directly in a test) is left
// unbound.
func (r *Response) BindAck(ack, nack func(headers ...string) error) {
	r.ack = ack
	r.nack = nack
}

// Ack acknowledges the MESSAGE this Response carries. It works on a
// MESSAGE Response dispatched through a Client's dispatch loop; a
// Response that was never bound returns an error. The subscription's
// ack mode is not checked.
func (r *Response) Ack(headers ...string) error {
	if r.ack == nil {
		return fmt.Errorf("protocol: response is not ackable")
	}
	return r.ack(headers...)
}

// Nack is Ack's negative counterpart.
func (r *Response) Nack(headers ...string) error {
	if r.nack == nil {
		return fmt.Errorf("protocol: response is not ackable")
	}
	return r.nack(headers...)
}

// responseHeaders is the ordered, case-insensitive-lookup header list for
// a parsed Response. It is distinct from frame.Headers only because a
// Response is read-only once produced; its Each method mirrors
// frame.Headers.Each.
type responseHeaders struct {
	names  []string
	values []string
}

// Get returns the first value for name (case-insensitive), or "" if
// absent.
func (h responseHeaders) Get(name string) (string, bool) {
	for i, n := range h.names {
		if strings.EqualFold(n, name) {
			return h.values[i], true
		}
	}
	return "", false
}

// Each calls fn once per header in wire order.
func (h responseHeaders) Each(fn func(name, value string)) {
	for i := range h.names {
		fn(h.names[i], h.values[i])
	}
}

func (h *responseHeaders) add(name, value string) {
	h.names = append(h.names, name)
	h.values = append(h.values, value)
}

// Reader parses STOMP frames off a byte stream, one at a time. It is not
// safe for concurrent use; the dispatch loop (client package) owns a
// single Reader per connection and calls Read sequentially.
type Reader struct {
	r     *bufio.Reader
	codec codec.Codec
}

// NewReader returns a Reader decoding inbound header escapes per STOMP
// 1.2 (codec.TypeStrict).
func NewReader(r io.Reader) *Reader {
	return NewReaderWithCodec(r, codec.Get(codec.TypeStrict))
}

// NewReaderWithCodec returns a Reader using the given header codec.
func NewReaderWithCodec(r io.Reader, c codec.Codec) *Reader {
	return &Reader{r: bufio.NewReader(r), codec: c}
}

// Read parses and returns one frame from the stream. Every read it
// performs is subject to whatever deadline the caller has placed on the
// underlying connection; a deadline expiring mid-frame surfaces as the
// error returned by the underlying Reader (typically a net.Error with
// Timeout() == true), which the dispatch loop treats as fatal — not as
// a missed heartbeat, which is only signaled by the separate
// read-ready primitive in the dispatch loop itself.
func (p *Reader) Read() (*Response, error) {
	// A CR that is not followed by LF is a heartbeat on its own.
	if b, err := p.r.Peek(1); err == nil && b[0] == '\r' {
		p.r.ReadByte()
		if next, err := p.r.Peek(1); err != nil || next[0] != '\n' {
			return &Response{Kind: "HEARTBEAT"}, nil
		}
	}

	line, err := p.readLine()
	if err != nil {
		return nil, err
	}

	if line == "" {
		return &Response{Kind: "HEARTBEAT"}, nil
	}

	resp := &Response{Kind: line}

	contentLength := -1
	for {
		hline, err := p.readLine()
		if err != nil {
			return nil, err
		}
		if hline == "" {
			break
		}
		idx := strings.IndexByte(hline, ':')
		if idx < 0 {
			// Malformed header line with no separator: header reading ends
			// here, per the parser algorithm.
			break
		}
		name := hline[:idx]
		value := p.codec.Decode(hline[idx+1:])
		resp.Headers.add(name, value)

		if contentLength < 0 && strings.EqualFold(name, "content-length") {
			n, err := strconv.Atoi(value)
			if err != nil || n < 0 {
				return nil, fmt.Errorf("protocol: malformed content-length header %q", value)
			}
			contentLength = n
		}
	}

	body, err := p.readBody(contentLength)
	if err != nil {
		return nil, err
	}
	resp.Payload = body
	return resp, nil
}

// readLine reads up to and including the next '\n', returning the line
// with its line terminator (and any trailing '\r') stripped.
func (p *Reader) readLine() (string, error) {
	line, err := p.r.ReadString('\n')
	if err != nil {
		return "", err
	}
	line = strings.TrimSuffix(line, "\n")
	line = strings.TrimSuffix(line, "\r")
	return line, nil
}

// readBody reads a frame's payload. When contentLength >= 0 it reads
// exactly that many bytes (in bounded chunks) and then the single
// trailing NULL terminator. Otherwise it reads byte-by-byte until a
// NULL is seen, which is not included in the returned payload — this
// also correctly produces an empty payload for body-less frames
// (CONNECTED, RECEIPT, unknown) whose very next byte is the terminator.
func (p *Reader) readBody(contentLength int) ([]byte, error) {
	if contentLength >= 0 {
		body := make([]byte, contentLength)
		read := 0
		for read < contentLength {
			chunk := contentLength - read
			if chunk > maxReadChunk {
				chunk = maxReadChunk
			}
			n, err := io.ReadFull(p.r, body[read:read+chunk])
			read += n
			if err != nil {
				return nil, err
			}
		}
		term, err := p.r.ReadByte()
		if err != nil {
			return nil, err
		}
		if term != 0 {
			return nil, fmt.Errorf("protocol: expected NULL terminator after content-length body, got %#x", term)
		}
		return body, nil
	}

	var body []byte
	for {
		b, err := p.r.ReadByte()
		if err != nil {
			return nil, err
		}
		if b == 0 {
			return body, nil
		}
		body = append(body, b)
	}
}
