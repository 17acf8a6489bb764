package client

import (
	"errors"
	"net"
	"time"

	"github.com/nullstomp/gostomp/frame"
	"github.com/nullstomp/gostomp/protocol"
)

// WaitForMessages runs the dispatch loop: arm a deadline on the stream,
// wait for a frame, and dispatch it to the matching handler slot. With
// loop=false it returns after exactly one dispatched frame (a missed
// heartbeat with the default handler also returns, since the default
// handler disconnects). With loop=true it repeats until a fatal error
// (including a missed-heartbeat disconnect) ends it.
func (c *Client) WaitForMessages(loop bool) error {
	for {
		if err := c.stream.SetReadDeadline(c.selectDeadline()); err != nil {
			return &TransportError{Err: err}
		}

		resp, err := c.readResponse()
		if err != nil {
			if isTimeout(err) {
				if herr := c.handleMissedHeartbeat(); herr != nil {
					return herr
				}
				if loop {
					continue
				}
				return nil
			}
			return &TransportError{Err: err}
		}

		consumedBudget, err := c.dispatch(resp)
		if err != nil {
			return err
		}
		if !loop {
			if consumedBudget {
				return nil
			}
			continue
		}
	}
}

// selectDeadline computes the deadline for the next read-ready wait: if
// a heartbeat interval is configured, (heartbeat_seconds + 1) seconds
// from now; otherwise the zero Time, which clears any deadline and
// blocks indefinitely (per net.Conn.SetReadDeadline's documented
// behavior for a zero value).
func (c *Client) selectDeadline() time.Time {
	if c.info.Heartbeat <= 0 {
		return time.Time{}
	}
	return time.Now().Add(time.Duration(c.info.Heartbeat+1) * time.Second)
}

func isTimeout(err error) bool {
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}

// handleMissedHeartbeat runs the default missed-heartbeat behavior
// (close, mark disconnected, return HeartbeatTimeoutError) unless a
// custom OnMissedHeartbeat handler is installed, in which case that
// handler owns the decision and this returns nil.
func (c *Client) handleMissedHeartbeat() error {
	if c.handlers.OnMissedHeartbeat != nil {
		c.handlers.OnMissedHeartbeat(c)
		return nil
	}
	last := c.lastActivity
	c.closeAndMarkDisconnected()
	return &HeartbeatTimeoutError{LastActivity: last}
}

// dispatch routes one parsed frame to its handler slot. The returned
// bool reports whether this frame consumes the "one message" budget
// that loop=false respects — a HEARTBEAT does not.
func (c *Client) dispatch(resp *protocol.Response) (bool, error) {
	switch resp.Kind {
	case frame.HEARTBEAT:
		if c.handlers.OnHeartbeat != nil {
			c.handlers.OnHeartbeat(c, resp)
		}
		return false, nil
	case frame.RECEIPT:
		if c.handlers.OnReceipt != nil {
			c.handlers.OnReceipt(c, resp)
		}
		return true, nil
	case frame.MESSAGE:
		msgID, _ := resp.Headers.Get(frame.MessageId)
		resp.BindAck(
			func(headers ...string) error { return c.Ack(msgID, headers...) },
			func(headers ...string) error { return c.Nack(msgID, headers...) },
		)
		if c.handlers.OnMessage != nil {
			c.handlers.OnMessage(c, resp)
		}
		return true, nil
	case frame.ERROR:
		if err := c.handleError(resp); err != nil {
			return true, err
		}
		return true, nil
	default:
		c.logger.Printf("dispatch: dropping unrecognized frame kind %q", resp.Kind)
		return true, nil
	}
}
