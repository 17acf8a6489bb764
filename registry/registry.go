// Package registry defines the broker discovery interface and data types.
//
// A STOMP deployment behind a failover connection string names a logical
// cluster rather than one fixed host. Brokers register themselves here on
// startup, and the client queries the registry to get the current list of
// live addresses to dial, instead of hardcoding one host:port.
package registry

// BrokerInstance represents one running broker process reachable at Addr.
type BrokerInstance struct {
	Addr    string // Network address, e.g. "127.0.0.1:61613"
	Weight  int    // Weight for load balancing (higher = more traffic)
	Version string // Broker version, for staged rollouts
}

// Registry is the interface for broker registration and discovery.
// Implementations include EtcdRegistry (production) and any in-memory
// fake used in tests.
type Registry interface {
	// Register adds a broker instance to the registry with a TTL lease.
	// The instance is automatically removed if KeepAlive stops (e.g. the
	// broker process crashes).
	Register(cluster string, instance BrokerInstance, ttl int64) error

	// Deregister removes a broker instance from the registry. Called
	// during graceful shutdown before the broker stops listening.
	Deregister(cluster string, addr string) error

	// Discover returns all currently registered instances for a cluster.
	// The client calls this to build the candidate list for failover.
	Discover(cluster string) ([]BrokerInstance, error)

	// Watch returns a channel that emits updated instance lists whenever
	// the cluster's instances change (new brokers, removals, etc.).
	Watch(cluster string) <-chan []BrokerInstance
}
