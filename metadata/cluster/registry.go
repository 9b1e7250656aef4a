package cluster

import (
	"fmt"
	"sync/atomic"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/skua-io/skua/metadata/heartbeat"
	"github.com/skua-io/skua/metadata/placement"
	"github.com/skua-io/skua/metadata/timeline"
	"github.com/skua-io/skua/metalog"
)

// New creates a cluster registry.
func New(config Config) Registry {
	logger := config.Logger

	if logger == nil {
		logger = zap.NewNop()
	}

	return &registry{
		clusterID: config.ClusterID,
		logger:    logger,
		nodes:     timeline.NewMap[NodeRegistration](),
		tracker:   heartbeat.NewTracker(config.SessionTimeout),
	}
}

var _ Registry = (*registry)(nil)

// registry implements Registry
type registry struct {
	clusterID string
	logger    *zap.Logger
	active    atomic.Bool
	nodes     *timeline.Map[NodeRegistration]
	tracker   *heartbeat.Tracker
}

// Activate implements Registry.Activate
func (registry *registry) Activate() {
	if registry.active.CompareAndSwap(false, true) {
		registry.logger.Info("cluster registry activated",
			zap.Int64("offset", int64(registry.nodes.Applied())),
			zap.Int("nodes", registry.nodes.Len()))
	}
}

// Apply implements metalog.Applier.Apply. It is called by the single
// log-apply writer with offsets in log order. Duplicate delivery of
// an offset already applied resolves to a no-op: every record's
// effect is conditioned on state the record itself established.
func (registry *registry) Apply(offset metalog.Offset, record metalog.Record) error {
	switch record := record.(type) {
	case *metalog.RegisterNode:
		registry.applyRegister(offset, record)
	case *metalog.UnregisterNode:
		registry.applyUnregister(offset, record)
	case *metalog.FenceNode:
		registry.applyFencing(offset, record.ID, record.Epoch, true)
	case *metalog.UnfenceNode:
		registry.applyFencing(offset, record.ID, record.Epoch, false)
	case *metalog.RegistrationChange:
		registry.applyChange(offset, record)
	default:
		return fmt.Errorf("unknown record type %q at offset %d", record.Type(), offset)
	}

	registry.nodes.Advance(offset)

	return nil
}

func (registry *registry) applyRegister(offset metalog.Offset, record *metalog.RegisterNode) {
	if current, ok := registry.nodes.Get(record.ID); ok && record.Epoch <= current.Epoch {
		registry.logger.Debug("ignoring stale registration",
			zap.Int32("node", record.ID),
			zap.Int64("epoch", record.Epoch),
			zap.Int64("registeredEpoch", current.Epoch))

		return
	}

	registry.nodes.Set(offset, record.ID, registrationFromRecord(record))
	registry.logger.Info("node registered",
		zap.Int32("node", record.ID),
		zap.Int64("epoch", record.Epoch),
		zap.Bool("fenced", record.Fenced()))
}

func (registry *registry) applyUnregister(offset metalog.Offset, record *metalog.UnregisterNode) {
	current, ok := registry.nodes.Get(record.ID)

	// A mismatched epoch refers to an incarnation that is already
	// gone from the registry's point of view.
	if !ok || record.Epoch != current.Epoch {
		return
	}

	registry.nodes.Delete(offset, record.ID)
	registry.tracker.Forget(record.ID)
	registry.logger.Info("node unregistered",
		zap.Int32("node", record.ID),
		zap.Int64("epoch", record.Epoch))
}

func (registry *registry) applyFencing(offset metalog.Offset, id int32, epoch int64, fenced bool) {
	current, ok := registry.nodes.Get(id)

	if !ok || epoch != current.Epoch || current.Fenced == fenced {
		return
	}

	current.Fenced = fenced
	registry.nodes.Set(offset, id, current)
	registry.logger.Info("node fencing changed",
		zap.Int32("node", id),
		zap.Int64("epoch", epoch),
		zap.Bool("fenced", fenced))
}

func (registry *registry) applyChange(offset metalog.Offset, record *metalog.RegistrationChange) {
	switch record.FencedDelta {
	case metalog.FencedSet:
		registry.applyFencing(offset, record.ID, record.Epoch, true)
	case metalog.FencedCleared:
		registry.applyFencing(offset, record.ID, record.Epoch, false)
	}
}

// CheckNodeEpoch implements Registry.CheckNodeEpoch
func (registry *registry) CheckNodeEpoch(id int32, epoch int64) error {
	current, ok := registry.nodes.Get(id)

	if !ok {
		return fmt.Errorf("node %d is not registered: %w", id, ErrStaleEpoch)
	}

	if current.Epoch != epoch {
		return fmt.Errorf("node %d has epoch %d, not %d: %w", id, current.Epoch, epoch, ErrStaleEpoch)
	}

	return nil
}

// Unfenced implements Registry.Unfenced
func (registry *registry) Unfenced(id int32) bool {
	current, ok := registry.nodes.Get(id)

	return ok && !current.Fenced
}

// NodeRegistrations implements Registry.NodeRegistrations
func (registry *registry) NodeRegistrations() map[int32]NodeRegistration {
	entries := registry.nodes.Snapshot()
	registrations := make(map[int32]NodeRegistration, len(entries))

	for _, entry := range entries {
		registrations[entry.ID] = entry.Value
	}

	return registrations
}

// UsableNodes implements Registry.UsableNodes
func (registry *registry) UsableNodes() []placement.UsableNode {
	usable := []placement.UsableNode{}

	for _, entry := range registry.nodes.Snapshot() {
		if entry.Value.Fenced {
			continue
		}

		usable = append(usable, placement.UsableNode{ID: entry.ID, Rack: entry.Value.Rack})
	}

	return usable
}

// NodeStates implements Registry.NodeStates
func (registry *registry) NodeStates() []heartbeat.NodeState {
	entries := registry.nodes.Snapshot()
	states := make([]heartbeat.NodeState, 0, len(entries))

	for _, entry := range entries {
		states = append(states, heartbeat.NodeState{
			ID:     entry.ID,
			Epoch:  entry.Value.Epoch,
			Fenced: entry.Value.Fenced,
		})
	}

	return states
}

// RegisterNode implements Registry.RegisterNode
func (registry *registry) RegisterNode(request RegistrationRequest, finalized map[string]int16) (*metalog.RegisterNode, error) {
	if !registry.active.Load() {
		return nil, ErrNotActive
	}

	if registry.clusterID != "" && request.ClusterID != registry.clusterID {
		return nil, fmt.Errorf("request declared cluster id %q, registry has %q: %w",
			request.ClusterID, registry.clusterID, ErrInconsistentClusterID)
	}

	if err := checkFeatures(request.Features, finalized); err != nil {
		return nil, err
	}

	epoch := int64(1)

	if current, ok := registry.nodes.Get(request.NodeID); ok {
		// A live unfenced node owns its id. A request with a new
		// incarnation for such an id is a second process racing the
		// first, not a restart.
		if !current.Fenced && current.IncarnationID != request.IncarnationID {
			return nil, fmt.Errorf("node %d: %w", request.NodeID, ErrDuplicateNodeID)
		}

		epoch = current.Epoch + 1
	}

	incarnationID := request.IncarnationID

	if incarnationID == "" {
		incarnationID = uuid.NewString()
	}

	// The zero fencing state keeps the new node out of placement
	// until it establishes a session and the monitor unfences it.
	return &metalog.RegisterNode{
		ID:            request.NodeID,
		Epoch:         epoch,
		IncarnationID: incarnationID,
		Rack:          request.Rack,
		Listeners:     request.Listeners,
		Features:      request.Features,
	}, nil
}

func checkFeatures(supported map[string]metalog.FeatureRange, finalized map[string]int16) error {
	for name, version := range finalized {
		if version == 0 {
			continue
		}

		versions, ok := supported[name]

		if !ok || version < versions.MinVersion || version > versions.MaxVersion {
			return fmt.Errorf("feature %q is finalized at version %d: %w", name, version, ErrUnsupportedFeature)
		}
	}

	return nil
}

// Tracker implements Registry.Tracker
func (registry *registry) Tracker() *heartbeat.Tracker {
	return registry.tracker
}

// Compact implements Registry.Compact
func (registry *registry) Compact(oldest metalog.Offset) {
	registry.nodes.Compact(oldest)
}
