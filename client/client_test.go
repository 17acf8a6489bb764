package client

import (
	"net"
	"testing"
	"time"

	"github.com/nullstomp/gostomp/frame"
	"github.com/nullstomp/gostomp/protocol"
	"github.com/nullstomp/gostomp/uri"
)

// pipePair returns a connected (clientSide, brokerSide) pair. Both
// satisfy Stream via net.Conn's SetReadDeadline.
func pipePair() (net.Conn, net.Conn) {
	return net.Pipe()
}

func TestConnectSuccess(t *testing.T) {
	clientConn, brokerConn := pipePair()
	defer brokerConn.Close()

	done := make(chan struct{})
	go func() {
		defer close(done)
		r := protocol.NewReader(brokerConn)
		w := protocol.NewWriter(brokerConn)
		req, err := r.Read()
		if err != nil {
			t.Errorf("broker read: %v", err)
			return
		}
		if req.Kind != frame.CONNECT {
			t.Errorf("expected CONNECT, got %s", req.Kind)
		}
		resp := frame.New(frame.CONNECTED, frame.Version, "1.2", frame.Server, "test-broker/1.0")
		if err := w.Write(resp); err != nil {
			t.Errorf("broker write: %v", err)
		}
	}()

	c := New(clientConn, uri.Info{Host: "localhost"})
	if err := c.Connect(); err != nil {
		t.Fatalf("Connect failed: %v", err)
	}
	<-done

	if !c.Connected() {
		t.Fatalf("expected Connected() == true")
	}
	if v, ok := c.ServerHeader("server"); !ok || v != "test-broker/1.0" {
		t.Fatalf("expected server header captured, got %q ok=%v", v, ok)
	}
}

func TestConnectProtocolError(t *testing.T) {
	clientConn, brokerConn := pipePair()
	defer brokerConn.Close()

	go func() {
		r := protocol.NewReader(brokerConn)
		w := protocol.NewWriter(brokerConn)
		r.Read()
		errFrame := frame.New(frame.ERROR, frame.Message, "bad credentials")
		errFrame.Body = []byte("auth failed\n")
		w.Write(errFrame)
	}()

	c := New(clientConn, uri.Info{Host: "localhost"})
	err := c.Connect()
	if err == nil {
		t.Fatalf("expected error")
	}
	pe, ok := err.(*ProtocolError)
	if !ok {
		t.Fatalf("expected *ProtocolError, got %T: %v", err, err)
	}
	if pe.Message != "bad credentials" {
		t.Fatalf("unexpected message: %q", pe.Message)
	}
	if pe.Payload != "auth failed" {
		t.Fatalf("expected trailing newline stripped, got %q", pe.Payload)
	}
	if c.Connected() {
		t.Fatalf("expected Connected() == false after protocol error")
	}
}

func TestSendRequiresConnection(t *testing.T) {
	clientConn, brokerConn := pipePair()
	brokerConn.Close()
	c := New(clientConn, uri.Info{Host: "localhost"})

	err := c.Send("/queue/a", []byte("hi"))
	if _, ok := err.(*NotConnectedError); !ok {
		t.Fatalf("expected NotConnectedError, got %v", err)
	}
}

func TestSubscribeAssignsSequentialIds(t *testing.T) {
	clientConn, brokerConn := pipePair()
	defer brokerConn.Close()

	go func() {
		w := protocol.NewWriter(brokerConn)
		r := protocol.NewReader(brokerConn)
		r.Read() // CONNECT
		w.Write(frame.New(frame.CONNECTED))
		for i := 0; i < 2; i++ {
			req, err := r.Read()
			if err != nil {
				return
			}
			if req.Kind != frame.SUBSCRIBE {
				return
			}
		}
	}()

	c := New(clientConn, uri.Info{Host: "localhost"})
	if err := c.Connect(); err != nil {
		t.Fatalf("Connect failed: %v", err)
	}

	id0, err := c.Subscribe("/queue/a", "", "")
	if err != nil {
		t.Fatalf("Subscribe failed: %v", err)
	}
	if id0 != "0" {
		t.Fatalf("expected id 0, got %s", id0)
	}
	id1, err := c.Subscribe("/queue/b", "", "client")
	if err != nil {
		t.Fatalf("Subscribe failed: %v", err)
	}
	if id1 != "1" {
		t.Fatalf("expected id 1, got %s", id1)
	}

	subs := c.Subscriptions()
	if len(subs) != 2 || subs[0] != "/queue/a" || subs[1] != "/queue/b" {
		t.Fatalf("unexpected subscriptions: %v", subs)
	}
}

func TestSubscribeBadAckMode(t *testing.T) {
	clientConn, brokerConn := pipePair()
	defer brokerConn.Close()
	go func() {
		w := protocol.NewWriter(brokerConn)
		r := protocol.NewReader(brokerConn)
		r.Read() // CONNECT
		w.Write(frame.New(frame.CONNECTED))
	}()

	c := New(clientConn, uri.Info{Host: "localhost"})
	if err := c.Connect(); err != nil {
		t.Fatalf("Connect failed: %v", err)
	}

	_, err := c.Subscribe("/queue/a", "", "bogus")
	if _, ok := err.(*BadAckModeError); !ok {
		t.Fatalf("expected BadAckModeError, got %v", err)
	}
}

func TestUnsubscribeTombstones(t *testing.T) {
	clientConn, brokerConn := pipePair()
	defer brokerConn.Close()

	go func() {
		w := protocol.NewWriter(brokerConn)
		r := protocol.NewReader(brokerConn)
		r.Read() // CONNECT
		w.Write(frame.New(frame.CONNECTED))
		for {
			if _, err := r.Read(); err != nil {
				return
			}
		}
	}()

	c := New(clientConn, uri.Info{Host: "localhost"})
	if err := c.Connect(); err != nil {
		t.Fatalf("Connect failed: %v", err)
	}
	if _, err := c.Subscribe("/queue/a", "", ""); err != nil {
		t.Fatalf("Subscribe: %v", err)
	}
	if _, err := c.Subscribe("/queue/b", "", ""); err != nil {
		t.Fatalf("Subscribe: %v", err)
	}
	if err := c.Unsubscribe("/queue/a"); err != nil {
		t.Fatalf("Unsubscribe: %v", err)
	}

	subs := c.Subscriptions()
	if subs[0] != "" {
		t.Fatalf("expected tombstoned slot 0, got %q", subs[0])
	}
	if subs[1] != "/queue/b" {
		t.Fatalf("expected slot 1 untouched, got %q", subs[1])
	}

	// id 2 must still be assigned next, not reuse the tombstoned 0.
	id2, err := c.Subscribe("/queue/c", "", "")
	if err != nil {
		t.Fatalf("Subscribe: %v", err)
	}
	if id2 != "2" {
		t.Fatalf("expected id 2, got %s", id2)
	}
}

func TestTransactionAutoAttach(t *testing.T) {
	clientConn, brokerConn := pipePair()
	defer brokerConn.Close()

	sawTransaction := make(chan string, 1)
	go func() {
		w := protocol.NewWriter(brokerConn)
		r := protocol.NewReader(brokerConn)
		r.Read() // CONNECT
		w.Write(frame.New(frame.CONNECTED))
		for {
			req, err := r.Read()
			if err != nil {
				return
			}
			if req.Kind == frame.SEND {
				v, _ := req.Headers.Get(frame.Transaction)
				sawTransaction <- v
			}
		}
	}()

	c := New(clientConn, uri.Info{Host: "localhost"})
	if err := c.Connect(); err != nil {
		t.Fatalf("Connect failed: %v", err)
	}
	if err := c.Begin("tx-1"); err != nil {
		t.Fatalf("Begin: %v", err)
	}
	if err := c.Send("/queue/a", []byte("hi")); err != nil {
		t.Fatalf("Send: %v", err)
	}

	select {
	case got := <-sawTransaction:
		if got != "tx-1" {
			t.Fatalf("expected auto-attached tx-1, got %q", got)
		}
	case <-time.After(time.Second):
		t.Fatalf("timed out waiting for SEND")
	}

	if len(c.Transactions()) != 1 {
		t.Fatalf("expected transaction still open, got %v", c.Transactions())
	}
	if err := c.Commit(""); err != nil {
		t.Fatalf("Commit: %v", err)
	}
	if len(c.Transactions()) != 0 {
		t.Fatalf("expected no open transactions after commit, got %v", c.Transactions())
	}
}

func TestDisconnectIdempotent(t *testing.T) {
	clientConn, brokerConn := pipePair()
	defer brokerConn.Close()
	go func() {
		w := protocol.NewWriter(brokerConn)
		r := protocol.NewReader(brokerConn)
		r.Read() // CONNECT
		w.Write(frame.New(frame.CONNECTED))
		r.Read() // DISCONNECT
	}()

	c := New(clientConn, uri.Info{Host: "localhost"})
	if err := c.Connect(); err != nil {
		t.Fatalf("Connect failed: %v", err)
	}
	if err := c.Disconnect(); err != nil {
		t.Fatalf("Disconnect: %v", err)
	}
	if c.Connected() {
		t.Fatalf("expected disconnected")
	}
	if err := c.Disconnect(); err != nil {
		t.Fatalf("second Disconnect should be a no-op, got %v", err)
	}
}
