package cluster

import (
	"time"

	"go.uber.org/zap"

	"github.com/skua-io/skua/metadata/heartbeat"
	"github.com/skua-io/skua/metadata/placement"
	"github.com/skua-io/skua/metalog"
)

// Config configures a cluster registry.
type Config struct {
	// ClusterID is the identity registration requests must declare.
	// Empty disables the identity check.
	ClusterID string
	// SessionTimeout bounds how long a node may go unobserved before
	// its session lapses.
	SessionTimeout time.Duration
	Logger         *zap.Logger
}

// Registry is the canonical, replay-driven view of cluster
// membership. It is mutated exclusively by applying committed log
// records in order on a single writer path; every query operation may
// run concurrently with replay and observes a consistent snapshot.
type Registry interface {
	// Apply replays the record committed at the given offset.
	// Replay is deterministic and never reports an error for record
	// data the log already accepted: stale or superseded records are
	// resolved in place by the membership state machine.
	metalog.Applier

	// Activate transitions the registry from catching up to serving.
	// Replay is accepted before activation (that is how the registry
	// catches up); registration requests are not. Idempotent.
	Activate()

	// CheckNodeEpoch fails with ErrStaleEpoch unless the node is
	// currently registered with exactly the given epoch.
	CheckNodeEpoch(id int32, epoch int64) error

	// Unfenced returns true only if the node is registered and not
	// fenced. Unknown ids return false.
	Unfenced(id int32) bool

	// NodeRegistrations returns a point-in-time mapping of all
	// registered nodes.
	NodeRegistrations() map[int32]NodeRegistration

	// UsableNodes returns the registered, unfenced nodes at call
	// time, materialized under one consistent read.
	UsableNodes() []placement.UsableNode

	// NodeStates returns the registered nodes as the liveness
	// monitor sees them.
	NodeStates() []heartbeat.NodeState

	// RegisterNode validates a registration request and builds the
	// register record for it, carrying the next epoch for the id.
	// Appending the record to the log is the caller's job; the
	// registry's state only changes when the record comes back
	// through Apply. finalized holds the cluster's finalized feature
	// versions, which the node must support.
	RegisterNode(request RegistrationRequest, finalized map[string]int16) (*metalog.RegisterNode, error)

	// Iterator returns batches of records that rebuild the
	// registry's state as of upTo when replayed into an empty
	// registry: one batch per node known at that offset, in
	// ascending id order. An offset beyond the newest applied record
	// exports the current state. Used to bootstrap new followers
	// without replaying the full historical log.
	Iterator(upTo metalog.Offset) (BatchStream, error)

	// Tracker returns the registry's heartbeat tracker.
	Tracker() *heartbeat.Tracker

	// Compact drops replay history that is only needed to serve
	// iterators below the given offset.
	Compact(oldest metalog.Offset)
}
