package client

import (
	"io"
	"time"
)

// Stream is the blocking byte-stream abstraction the Client consumes.
// Constructing one (dialing TCP, wrapping it in TLS for stomp+ssl) is an
// external concern; net.Conn already satisfies this interface.
//
// SetReadDeadline is the timed read-ready primitive the dispatch loop
// needs: it arms a deadline before each Read instead of calling a
// separate select()/poll() primitive, which is the idiomatic Go
// equivalent and is exactly what net.Conn gives us for free.
type Stream interface {
	io.Reader
	io.Writer
	io.Closer
	SetReadDeadline(t time.Time) error
}
