// Package loadbalance provides load balancing strategies for choosing which
// broker in a failover cluster to dial next.
//
// Three strategies are implemented:
//   - RoundRobin:      equal-capacity brokers
//   - WeightedRandom:  heterogeneous brokers (different CPU/memory)
//   - ConsistentHash:  sticky routing, e.g. keying on a destination name
package loadbalance

import "github.com/nullstomp/gostomp/registry"

// Balancer is the interface for load balancing strategies.
// The failover dialer calls Pick() before each connection attempt to
// select a target broker.
type Balancer interface {
	// Pick selects one instance from the available list.
	// Called on every dial attempt — must be goroutine-safe.
	Pick(instances []registry.BrokerInstance) (*registry.BrokerInstance, error)

	// Name returns the strategy name (for logging/debugging).
	Name() string
}
