package client

import (
	"github.com/nullstomp/gostomp/frame"
	"github.com/nullstomp/gostomp/protocol"
)

// SendReceipt emits a SEND frame carrying a receipt header set to
// receiptID, on top of whatever Send does otherwise, then blocks on
// WaitForReceipt until the broker acknowledges it.
func (c *Client) SendReceipt(destination string, body []byte, receiptID string, headers ...string) error {
	withReceipt := append([]string{frame.Receipt, receiptID}, headers...)
	if err := c.Send(destination, body, withReceipt...); err != nil {
		return err
	}
	return c.WaitForReceipt(receiptID)
}

// WaitForReceipt drives the dispatch loop, dispatching one frame at a
// time, until a RECEIPT frame whose receipt-id header equals receiptID
// arrives. Any dispatch error (including a missed heartbeat) aborts the
// wait and is returned unchanged. A caller-installed OnReceipt handler is
// still invoked for every RECEIPT seen, including the matching one.
func (c *Client) WaitForReceipt(receiptID string) error {
	prev := c.handlers.OnReceipt
	defer func() { c.handlers.OnReceipt = prev }()

	matched := false
	c.handlers.OnReceipt = func(cl *Client, resp *protocol.Response) {
		if id, ok := resp.Headers.Get(frame.ReceiptId); ok && id == receiptID {
			matched = true
		}
		if prev != nil {
			prev(cl, resp)
		}
	}

	for !matched {
		if err := c.WaitForMessages(false); err != nil {
			return err
		}
	}
	return nil
}
