package cluster

import (
	"sort"

	"github.com/skua-io/skua/metalog"
)

// NodeRegistration is the registry's view of one cluster node.
type NodeRegistration struct {
	ID            int32
	Epoch         int64
	IncarnationID string
	Rack          string
	// Listeners is keyed by listener name. Names are unique; order
	// carries no identity and is normalized to name order whenever
	// listeners are serialized back into records.
	Listeners map[string]metalog.Listener
	Features  map[string]metalog.FeatureRange
	Fenced    bool
}

// registrationFromRecord builds the stored registration for a
// register record.
func registrationFromRecord(record *metalog.RegisterNode) NodeRegistration {
	listeners := make(map[string]metalog.Listener, len(record.Listeners))

	for _, listener := range record.Listeners {
		listeners[listener.Name] = listener
	}

	features := make(map[string]metalog.FeatureRange, len(record.Features))

	for name, versions := range record.Features {
		features[name] = versions
	}

	return NodeRegistration{
		ID:            record.ID,
		Epoch:         record.Epoch,
		IncarnationID: record.IncarnationID,
		Rack:          record.Rack,
		Listeners:     listeners,
		Features:      features,
		Fenced:        record.Fenced(),
	}
}

// record converts the registration back into a register record that
// reproduces it when replayed. Listeners are emitted in name order.
func (registration NodeRegistration) record() *metalog.RegisterNode {
	names := make([]string, 0, len(registration.Listeners))

	for name := range registration.Listeners {
		names = append(names, name)
	}

	sort.Strings(names)

	listeners := make([]metalog.Listener, 0, len(names))

	for _, name := range names {
		listeners = append(listeners, registration.Listeners[name])
	}

	features := make(map[string]metalog.FeatureRange, len(registration.Features))

	for name, versions := range registration.Features {
		features[name] = versions
	}

	return &metalog.RegisterNode{
		ID:            registration.ID,
		Epoch:         registration.Epoch,
		IncarnationID: registration.IncarnationID,
		Rack:          registration.Rack,
		Listeners:     listeners,
		Features:      features,
		Unfenced:      !registration.Fenced,
	}
}

// RegistrationRequest is a node's request to join the cluster. The
// epoch is not part of the request: the registry assigns the next
// epoch for the id when it builds the register record.
type RegistrationRequest struct {
	ClusterID     string
	NodeID        int32
	IncarnationID string
	Rack          string
	Listeners     []metalog.Listener
	Features      map[string]metalog.FeatureRange
}
