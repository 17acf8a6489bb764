package client

import "github.com/nullstomp/gostomp/protocol"

// ResponseHandler is called with the owning Client and the frame that
// triggered it. Handlers are invoked synchronously on the dispatch
// loop's goroutine; they may call any Client method, including
// Disconnect, Send, Ack, and Nack.
type ResponseHandler func(c *Client, resp *protocol.Response)

// MissedHeartbeatHandler is called when the dispatch loop's read-ready
// wait times out with no frame received.
type MissedHeartbeatHandler func(c *Client)

// Handlers holds the six optional handler slots a STOMP client exposes. A nil
// slot means "no-op", except OnError and OnMissedHeartbeat, whose nil
// behavior is the documented default (close, mark disconnected, and
// surface the error to WaitForMessages's caller).
type Handlers struct {
	OnConnected       ResponseHandler
	OnError           ResponseHandler
	OnHeartbeat       ResponseHandler
	OnMessage         ResponseHandler
	OnMissedHeartbeat MissedHeartbeatHandler
	OnReceipt         ResponseHandler
}
