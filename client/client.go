// Package client implements a STOMP 1.2 client: connection lifecycle,
// subscription and transaction bookkeeping, command emission, and a
// blocking dispatch loop with heartbeat-timeout detection.
//
// A Client does not discover or dial brokers itself: it is constructed
// over one already-open byte stream and keeps exactly one frame in
// flight at a time.
package client

import (
	"context"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/nullstomp/gostomp/codec"
	"github.com/nullstomp/gostomp/frame"
	"github.com/nullstomp/gostomp/middleware"
	"github.com/nullstomp/gostomp/protocol"
	"github.com/nullstomp/gostomp/uri"
)

// DefaultReadTimeout is the read timeout a Client stores when no
// ClientOption overrides it. It is NOT the heartbeat interval (see
// uri.Info.Heartbeat). No read deadline is derived from it: the read in
// Connect has no deadline, and reads in WaitForMessages are bounded only
// by the heartbeat deadline.
const DefaultReadTimeout = 500 * time.Millisecond

// Client holds a single STOMP session: the underlying byte stream,
// negotiated server metadata, subscription and transaction bookkeeping,
// and the six handler slots.
type Client struct {
	stream Stream
	info   uri.Info

	writer *protocol.Writer
	reader *protocol.Reader

	connected     bool
	serverHeaders []headerPair

	readTimeout  time.Duration
	lastActivity time.Time

	subscriptions []string // index i holds the destination for id i; "" is a tombstone
	transactions  []string // push on BEGIN, remove on COMMIT/ABORT

	handlers Handlers
	logger   *log.Logger

	emitCommand middleware.HandlerFunc[*frame.Frame]
}

type headerPair struct {
	name  string
	value string
}

// ClientOption configures a Client at construction time.
type ClientOption func(*Client)

// WithHandlers installs the six handler slots.
func WithHandlers(h Handlers) ClientOption {
	return func(c *Client) { c.handlers = h }
}

// WithReadTimeout overrides DefaultReadTimeout. The stored value does not
// bound any read.
func WithReadTimeout(d time.Duration) ClientOption {
	return func(c *Client) { c.readTimeout = d }
}

// WithLogger overrides the default stderr logger.
func WithLogger(l *log.Logger) ClientOption {
	return func(c *Client) { c.logger = l }
}

// WithHeaderCodec overrides the default strict (STOMP 1.2) header codec,
// e.g. to codec.Get(codec.TypeLegacy) for brokers/clients that never
// decode inbound escapes.
func WithHeaderCodec(cd codec.Codec) ClientOption {
	return func(c *Client) {
		c.writer = protocol.NewWriterWithCodec(c.stream, cd)
		c.reader = protocol.NewReaderWithCodec(c.stream, cd)
	}
}

// WithCommandMiddleware wraps every outbound command emitted by Send,
// Subscribe, Unsubscribe, Begin, Commit, Abort, Ack and Nack in the given
// onion-model chain, e.g. middleware.RateLimit to throttle outbound
// traffic. CONNECT and DISCONNECT are written directly and do not pass
// through the chain.
func WithCommandMiddleware(mws ...middleware.Middleware[*frame.Frame]) ClientOption {
	return func(c *Client) {
		chain := middleware.Chain(mws...)
		c.emitCommand = chain(c.emitCommand)
	}
}

// New constructs a Client over an already-connected Stream (dialing TCP
// and wrapping it in TLS for stomp+ssl is the caller's job). Call
// Connect to perform the STOMP handshake.
func New(stream Stream, info uri.Info, opts ...ClientOption) *Client {
	c := &Client{
		stream:      stream,
		info:        info,
		writer:      protocol.NewWriter(stream),
		reader:      protocol.NewReader(stream),
		readTimeout: DefaultReadTimeout,
		logger:      log.New(os.Stderr, "stomp: ", log.LstdFlags),
	}
	c.emitCommand = func(ctx context.Context, f *frame.Frame) error {
		return c.writer.Write(f)
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Connected reports whether a CONNECTED frame has been received and no
// terminal close has occurred since.
func (c *Client) Connected() bool { return c.connected }

// ServerHeader returns a server metadata header captured from the
// CONNECTED frame, case-insensitively.
func (c *Client) ServerHeader(name string) (string, bool) {
	for _, h := range c.serverHeaders {
		if equalFold(h.name, name) {
			return h.value, true
		}
	}
	return "", false
}

// Subscriptions returns the destination for every subscription id,
// indexed by id; an unsubscribed id holds "" (a tombstone).
func (c *Client) Subscriptions() []string {
	out := make([]string, len(c.subscriptions))
	copy(out, c.subscriptions)
	return out
}

// Transactions returns the currently open transaction ids, in push
// order (oldest first).
func (c *Client) Transactions() []string {
	out := make([]string, len(c.transactions))
	copy(out, c.transactions)
	return out
}

// Connect sends CONNECT and waits for CONNECTED. On success it stores
// all CONNECTED headers as server metadata and marks the session
// connected. On any other response it invokes the error handler
// (default: close the stream, mark disconnected, return ProtocolError).
func (c *Client) Connect() error {
	host := c.info.Vhost
	if host == "" {
		host = c.info.Host
	}

	f := frame.New(frame.CONNECT,
		frame.AcceptVersion, "1.2",
		frame.Host, host,
	)
	if c.info.Username != "" || c.info.Password != "" {
		f.Append(frame.Login, c.info.Username)
		f.Append(frame.Passcode, c.info.Password)
	}
	if c.info.Heartbeat > 0 {
		f.Append(frame.HeartBeat, "0,"+strconv.Itoa(c.info.Heartbeat*1000))
	}

	if err := c.writer.Write(f); err != nil {
		return &TransportError{Err: err}
	}

	resp, err := c.readResponse()
	if err != nil {
		return &TransportError{Err: err}
	}

	if resp.Kind != frame.CONNECTED {
		return c.handleError(resp)
	}

	c.serverHeaders = c.serverHeaders[:0]
	resp.Headers.Each(func(name, value string) {
		c.serverHeaders = append(c.serverHeaders, headerPair{name: name, value: value})
	})
	c.connected = true

	if c.handlers.OnConnected != nil {
		c.handlers.OnConnected(c, resp)
	}
	return nil
}

// Disconnect sends DISCONNECT, closes the stream, and marks the session
// disconnected. It is idempotent: calling it again is a no-op.
func (c *Client) Disconnect() error {
	if !c.connected {
		return nil
	}
	_ = c.writer.Write(frame.New(frame.DISCONNECT))
	c.closeAndMarkDisconnected()
	return nil
}

func (c *Client) closeAndMarkDisconnected() {
	c.connected = false
	_ = c.stream.Close()
}

// readResponse records the wall-clock timestamp before reading, so the
// heartbeat watchdog always reflects the moment the most recent read
// attempt began.
func (c *Client) readResponse() (*protocol.Response, error) {
	c.lastActivity = time.Now()
	return c.reader.Read()
}

// handleError runs the default error-handler behavior: close the
// stream, mark disconnected, and return a ProtocolError. If a custom
// OnError handler is installed it is invoked instead, and this method
// returns nil — the custom handler owns the decision of whether/when to
// disconnect.
func (c *Client) handleError(resp *protocol.Response) error {
	if c.handlers.OnError != nil {
		c.handlers.OnError(c, resp)
		return nil
	}
	msg, _ := resp.Headers.Get(frame.Message)
	payload := strings.TrimSuffix(string(resp.Payload), "\n")
	c.closeAndMarkDisconnected()
	return &ProtocolError{Message: msg, Payload: payload}
}

func equalFold(a, b string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := 0; i < len(a); i++ {
		ca, cb := a[i], b[i]
		if 'A' <= ca && ca <= 'Z' {
			ca += 'a' - 'A'
		}
		if 'A' <= cb && cb <= 'Z' {
			cb += 'a' - 'A'
		}
		if ca != cb {
			return false
		}
	}
	return true
}
