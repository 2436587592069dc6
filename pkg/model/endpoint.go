package model

import (
	"errors"
)

// Endpoint errors.
var (
	ErrClusterNotFound  = errors.New("model: cluster not found")
	ErrEndpointNotFound = errors.New("model: endpoint not found")
)

// Endpoint is an 8-bit-addressed functional unit on a device, hosting
// an ordered set of clusters.
type Endpoint struct {
	id       uint8
	clusters map[ClusterKey]*Cluster
	order    []ClusterKey
}

// NewEndpoint creates an empty endpoint.
func NewEndpoint(id uint8) *Endpoint {
	return &Endpoint{
		id:       id,
		clusters: make(map[ClusterKey]*Cluster),
	}
}

// ID returns the endpoint's 8-bit identifier.
func (e *Endpoint) ID() uint8 { return e.id }

// AddCluster installs a cluster on the endpoint, keyed by its
// (role, id, manufacturer?) identity.
func (e *Endpoint) AddCluster(c *Cluster) {
	key := c.Key()
	if _, exists := e.clusters[key]; !exists {
		e.order = append(e.order, key)
	}
	e.clusters[key] = c
}

// Cluster looks up a cluster by its identity.
func (e *Endpoint) Cluster(key ClusterKey) (*Cluster, error) {
	c, ok := e.clusters[key]
	if !ok {
		return nil, ErrClusterNotFound
	}
	return c, nil
}

// Clusters returns every cluster on the endpoint, in installation order.
func (e *Endpoint) Clusters() []*Cluster {
	result := make([]*Cluster, 0, len(e.order))
	for _, key := range e.order {
		result = append(result, e.clusters[key])
	}
	return result
}
