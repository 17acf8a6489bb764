package client

import (
	"context"
	"strconv"

	"github.com/nullstomp/gostomp/frame"
)

// Send emits a SEND frame. destination and every caller header are
// escape-encoded by the wire writer. content-length is always added,
// equal to the payload's byte length. If the caller did not supply a
// transaction header and exactly one transaction is open, it is
// auto-attached.
func (c *Client) Send(destination string, body []byte, headers ...string) error {
	if !c.connected {
		return &NotConnectedError{}
	}

	f := frame.New(frame.SEND, frame.Destination, destination)
	f.Append(frame.ContentLength, strconv.Itoa(len(body)))
	f.Body = body

	for i := 0; i+1 < len(headers); i += 2 {
		f.Append(headers[i], headers[i+1])
	}
	c.autoAttachTransaction(f)

	return c.emit(f)
}

// Subscribe emits a SUBSCRIBE frame. If id is "" the current length of
// the subscriptions list is used. mode must be "" (equivalent to auto),
// "auto", "client", or "client-individual"; any other value fails with
// BadAckModeError and no frame is sent.
func (c *Client) Subscribe(destination, id, mode string, headers ...string) (string, error) {
	if !c.connected {
		return "", &NotConnectedError{}
	}
	switch mode {
	case "", frame.AckAuto, frame.AckClient, frame.AckClientIndividual:
	default:
		return "", &BadAckModeError{Mode: mode}
	}

	if id == "" {
		id = strconv.Itoa(len(c.subscriptions))
	}

	f := frame.New(frame.SUBSCRIBE, frame.Destination, destination, frame.Id, id)
	if mode == frame.AckClient || mode == frame.AckClientIndividual {
		f.Append(frame.Ack, mode)
	}
	for i := 0; i+1 < len(headers); i += 2 {
		f.Append(headers[i], headers[i+1])
	}

	if err := c.emit(f); err != nil {
		return "", err
	}

	idx, err := strconv.Atoi(id)
	if err == nil && idx == len(c.subscriptions) {
		c.subscriptions = append(c.subscriptions, destination)
	} else if err == nil && idx >= 0 && idx < len(c.subscriptions) {
		c.subscriptions[idx] = destination
	} else {
		// Non-numeric or out-of-band caller-supplied id: append at the end
		// rather than lose track of the subscription.
		c.subscriptions = append(c.subscriptions, destination)
	}
	return id, nil
}

// Unsubscribe emits an UNSUBSCRIBE frame for the first subscription
// matching destination, then tombstones that slot (stores "" rather
// than removing it, preserving id stability for every other
// subscription).
func (c *Client) Unsubscribe(destination string, headers ...string) error {
	if !c.connected {
		return &NotConnectedError{}
	}

	idx := -1
	for i, dest := range c.subscriptions {
		if dest == destination {
			idx = i
			break
		}
	}
	if idx < 0 {
		return nil
	}

	f := frame.New(frame.UNSUBSCRIBE, frame.Id, strconv.Itoa(idx))
	for i := 0; i+1 < len(headers); i += 2 {
		f.Append(headers[i], headers[i+1])
	}
	if err := c.emit(f); err != nil {
		return err
	}
	c.subscriptions[idx] = ""
	return nil
}

// Begin opens a transaction, pushing id onto the transactions stack.
func (c *Client) Begin(id string) error {
	if !c.connected {
		return &NotConnectedError{}
	}
	f := frame.New(frame.BEGIN, frame.Transaction, id)
	if err := c.emit(f); err != nil {
		return err
	}
	c.transactions = append(c.transactions, id)
	return nil
}

// Commit closes a transaction. If id is "" the top of the stack is
// used; if the stack is empty and id is "", Commit is a no-op.
func (c *Client) Commit(id string) error {
	return c.endTransaction(frame.COMMIT, id)
}

// Abort closes a transaction the same way Commit does, but emits
// ABORT.
func (c *Client) Abort(id string) error {
	return c.endTransaction(frame.ABORT, id)
}

func (c *Client) endTransaction(verb, id string) error {
	if !c.connected {
		return &NotConnectedError{}
	}
	if id == "" {
		if len(c.transactions) == 0 {
			return nil
		}
		id = c.transactions[len(c.transactions)-1]
	}

	f := frame.New(verb, frame.Transaction, id)
	if err := c.emit(f); err != nil {
		return err
	}
	c.removeTransaction(id)
	return nil
}

func (c *Client) removeTransaction(id string) {
	for i, t := range c.transactions {
		if t == id {
			c.transactions = append(c.transactions[:i], c.transactions[i+1:]...)
			return
		}
	}
}

// Ack emits an ACK frame for messageID. transaction auto-attaches the
// same way Send's does.
func (c *Client) Ack(messageID string, headers ...string) error {
	return c.ackOrNack(frame.ACK, messageID, headers...)
}

// Nack emits a NACK frame; see Ack.
func (c *Client) Nack(messageID string, headers ...string) error {
	return c.ackOrNack(frame.NACK, messageID, headers...)
}

func (c *Client) ackOrNack(verb, messageID string, headers ...string) error {
	if !c.connected {
		return &NotConnectedError{}
	}
	f := frame.New(verb, frame.Id, messageID)
	for i := 0; i+1 < len(headers); i += 2 {
		f.Append(headers[i], headers[i+1])
	}
	c.autoAttachTransaction(f)
	return c.emit(f)
}

// autoAttachTransaction adds a transaction header only when the caller
// did not already supply one and exactly one transaction is open.
func (c *Client) autoAttachTransaction(f *frame.Frame) {
	if _, ok := f.Contains(frame.Transaction); ok {
		return
	}
	if len(c.transactions) == 1 {
		f.Append(frame.Transaction, c.transactions[0])
	}
}

// emit runs f through the command middleware chain and onto the wire.
func (c *Client) emit(f *frame.Frame) error {
	if err := c.emitCommand(context.Background(), f); err != nil {
		return &TransportError{Err: err}
	}
	return nil
}
