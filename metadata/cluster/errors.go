package cluster

import (
	"errors"
)

var (
	// ErrStaleEpoch is returned when a caller's epoch does not match
	// the currently registered epoch for a node id, or the id is not
	// registered at all.
	ErrStaleEpoch = errors.New("node epoch does not match the registered epoch")
	// ErrInconsistentClusterID is returned when a registration
	// request declares a cluster id different from the registry's
	// configured one.
	ErrInconsistentClusterID = errors.New("request cluster id does not match the registry cluster id")
	// ErrDuplicateNodeID is returned when a registration request
	// reuses the id of a live unfenced node with a different
	// incarnation.
	ErrDuplicateNodeID = errors.New("an unfenced node with the same id is already registered")
	// ErrUnsupportedFeature is returned when a registering node does
	// not support a feature version finalized across the cluster.
	ErrUnsupportedFeature = errors.New("node does not support a finalized cluster feature")
	// ErrNotActive is returned when a request arrives before the
	// registry has caught up with the log and been activated.
	ErrNotActive = errors.New("registry is not active")
)
