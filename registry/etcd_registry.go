// Package registry provides the etcd-based implementation of the Registry interface.
//
// etcd is a distributed key-value store that provides strong consistency (Raft protocol).
// We use it as a "distributed phonebook" for brokers:
//
//	Key:   /gostomp/brokers/{Cluster}/{Addr}
//	Value: JSON-encoded BrokerInstance
//
// Registration uses TTL-based leases: if a broker crashes, the lease expires
// and the entry is automatically removed — preventing "ghost" addresses in
// a client's failover candidate list.
package registry

import (
	"context"
	"encoding/json"

	clientv3 "go.etcd.io/etcd/client/v3"
)

// EtcdRegistry implements the Registry interface using etcd v3.
type EtcdRegistry struct {
	client *clientv3.Client // etcd client connection (thread-safe, shared across goroutines)
}

// NewEtcdRegistry creates a new registry connected to the given etcd endpoints.
func NewEtcdRegistry(endpoints []string) (*EtcdRegistry, error) {
	c, err := clientv3.New(clientv3.Config{
		Endpoints: endpoints,
	})
	if err != nil {
		return nil, err
	}
	return &EtcdRegistry{client: c}, nil
}

// Register adds a broker instance to etcd with a TTL lease.
//
// Flow:
//  1. Create a lease with the given TTL (e.g., 10 seconds)
//  2. Put the key-value pair with the lease attached
//  3. Start KeepAlive to automatically renew the lease
//
// Note: the lease (and its ID) is a local variable, NOT stored on the struct.
// This prevents a data race when multiple brokers share one EtcdRegistry instance
// (discovered via `go test -race`).
func (r *EtcdRegistry) Register(cluster string, instance BrokerInstance, ttl int64) error {
	ctx := context.TODO()

	// Create a TTL-based lease — if KeepAlive stops, the entry auto-expires
	lease, err := r.client.Grant(ctx, ttl)
	if err != nil {
		return err
	}

	// Serialize the instance metadata
	val, err := json.Marshal(instance)
	if err != nil {
		return err
	}

	// Store in etcd: key = /gostomp/brokers/{cluster}/{addr}, value = JSON metadata
	_, err = r.client.Put(ctx, "/gostomp/brokers/"+cluster+"/"+instance.Addr, string(val), clientv3.WithLease(lease.ID))
	if err != nil {
		return err
	}

	// Start background lease renewal — KeepAlive sends heartbeats to etcd
	ch, err := r.client.KeepAlive(ctx, lease.ID)
	if err != nil {
		return err
	}

	// Consume KeepAlive responses to prevent the channel from filling up
	go func() {
		for range ch {
		}
	}()
	return nil
}

// Deregister removes a broker instance from etcd.
// Called during graceful shutdown before the broker stops listening.
func (r *EtcdRegistry) Deregister(cluster string, addr string) error {
	ctx := context.TODO()
	_, err := r.client.Delete(ctx, "/gostomp/brokers/"+cluster+"/"+addr)
	if err != nil {
		return err
	}
	return nil
}

// Watch monitors a cluster's prefix in etcd and emits updated instance lists
// whenever changes occur (new brokers, deregistrations, lease expirations).
//
// Uses etcd's Watch API (server-push), which is more efficient than polling.
func (r *EtcdRegistry) Watch(cluster string) <-chan []BrokerInstance {
	ctx := context.TODO()
	ch := make(chan []BrokerInstance, 1)
	prefix := "/gostomp/brokers/" + cluster + "/"

	go func() {
		// Watch all keys under the cluster prefix
		watchChan := r.client.Watch(ctx, prefix, clientv3.WithPrefix())
		for range watchChan {
			// On any change, re-fetch the full instance list
			// (simpler than parsing individual watch events)
			instances, _ := r.Discover(cluster)
			ch <- instances
		}
	}()

	return ch
}

// Discover returns all currently registered instances for a cluster.
// Queries etcd with a key prefix to find all addresses under
// /gostomp/brokers/{cluster}/.
func (r *EtcdRegistry) Discover(cluster string) ([]BrokerInstance, error) {
	ctx := context.TODO()
	prefix := "/gostomp/brokers/" + cluster + "/"

	// Get all keys with the prefix
	resp, err := r.client.Get(ctx, prefix, clientv3.WithPrefix())
	if err != nil {
		return nil, err
	}

	// Deserialize each value into a BrokerInstance
	instances := make([]BrokerInstance, 0)
	for _, kv := range resp.Kvs {
		var instance BrokerInstance
		if err := json.Unmarshal(kv.Value, &instance); err != nil {
			continue // Skip malformed entries
		}
		instances = append(instances, instance)
	}

	return instances, nil
}
