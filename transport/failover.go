// Package transport provides a failover dialer for broker clusters.
//
// A broker cluster registered under one name in a Registry can hold more
// than one broker. FailoverDialer asks a Balancer to pick one candidate
// at a time and tries to reach it, moving on when a dial fails, until
// one connects or the attempt budget is used up.
//
// This is deliberately not a borrow/return connection pool: a STOMP
// Client holds exactly one connection at a time and reconnects wholesale
// on failure rather than returning a broken connection to a shared pool.
// What's kept is the small-pool-of-candidates idea, redirected at broker
// selection instead of connection reuse.
package transport

import (
	"fmt"
	"net"
	"sync"
	"time"

	"github.com/nullstomp/gostomp/loadbalance"
	"github.com/nullstomp/gostomp/registry"
)

// FailoverDialer resolves a cluster name to a candidate broker address on
// every Dial call and opens a fresh TCP connection to it, retrying
// against other candidates on failure.
type FailoverDialer struct {
	mu          sync.Mutex
	reg         registry.Registry
	balancer    loadbalance.Balancer
	cluster     string
	dialTimeout time.Duration
	maxAttempts int
}

// NewFailoverDialer builds a dialer over the given cluster name. maxAttempts
// bounds how many dial attempts (one balancer pick each) a Dial call makes
// before giving up; 0 means one attempt per currently registered instance.
// The balancer chooses the broker for each attempt, so the same broker can
// be picked more than once.
func NewFailoverDialer(reg registry.Registry, balancer loadbalance.Balancer, cluster string, dialTimeout time.Duration, maxAttempts int) *FailoverDialer {
	return &FailoverDialer{
		reg:         reg,
		balancer:    balancer,
		cluster:     cluster,
		dialTimeout: dialTimeout,
		maxAttempts: maxAttempts,
	}
}

// Dial discovers the cluster's current broker instances, then repeatedly
// asks the balancer to pick one and attempts a TCP connection, until one
// succeeds or the attempt budget is exhausted.
func (d *FailoverDialer) Dial() (net.Conn, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	instances, err := d.reg.Discover(d.cluster)
	if err != nil {
		return nil, fmt.Errorf("transport: discover cluster %q: %w", d.cluster, err)
	}
	if len(instances) == 0 {
		return nil, fmt.Errorf("transport: no brokers registered for cluster %q", d.cluster)
	}

	attempts := d.maxAttempts
	if attempts <= 0 {
		attempts = len(instances)
	}

	var lastErr error
	for i := 0; i < attempts; i++ {
		inst, err := d.balancer.Pick(instances)
		if err != nil {
			return nil, fmt.Errorf("transport: pick broker: %w", err)
		}
		conn, err := net.DialTimeout("tcp", inst.Addr, d.dialTimeout)
		if err == nil {
			return conn, nil
		}
		lastErr = fmt.Errorf("transport: dial %s: %w", inst.Addr, err)
	}
	return nil, lastErr
}
