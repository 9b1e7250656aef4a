package heartbeat

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/skua-io/skua/metalog"
)

// NodeState is the slice of a node's registration that liveness
// decisions depend on.
type NodeState struct {
	ID     int32
	Epoch  int64
	Fenced bool
}

// ClusterView supplies the currently registered nodes. Implemented by
// the cluster registry.
type ClusterView interface {
	// NodeStates returns the registered nodes at call time.
	NodeStates() []NodeState
}

// MonitorConfig configures a Monitor.
type MonitorConfig struct {
	Tracker  *Tracker
	View     ClusterView
	Appender metalog.Appender
	// Interval is how often the monitor sweeps the node set.
	// Defaults to a quarter of the tracker's session timeout.
	Interval time.Duration
	Logger   *zap.Logger
	// NowNanos overrides the clock. Used by tests.
	NowNanos func() int64
}

// Monitor turns wall-clock liveness into ordinary fence and unfence
// records. It polls the tracker against the registered node set and
// proposes records through the log appender; the registry's state
// only changes when those records come back through replay. Exactly
// one monitor should run per cluster, on the active controller.
type Monitor struct {
	tracker  *Tracker
	view     ClusterView
	appender metalog.Appender
	interval time.Duration
	logger   *zap.Logger
	nowNanos func() int64
}

// NewMonitor creates a monitor.
func NewMonitor(config MonitorConfig) *Monitor {
	interval := config.Interval

	if interval <= 0 {
		interval = config.Tracker.SessionTimeout() / 4
	}

	if interval <= 0 {
		interval = time.Second
	}

	logger := config.Logger

	if logger == nil {
		logger = zap.NewNop()
	}

	nowNanos := config.NowNanos

	if nowNanos == nil {
		nowNanos = func() int64 { return time.Now().UnixNano() }
	}

	return &Monitor{
		tracker:  config.Tracker,
		view:     config.View,
		appender: config.Appender,
		interval: interval,
		logger:   logger,
		nowNanos: nowNanos,
	}
}

// Run sweeps the node set periodically until the context is canceled.
func (monitor *Monitor) Run(ctx context.Context) error {
	ticker := time.NewTicker(monitor.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if err := monitor.Sweep(ctx, monitor.nowNanos()); err != nil {
				monitor.logger.Warn("liveness sweep failed", zap.Error(err))
			}
		}
	}
}

// Sweep makes one pass over the registered nodes, proposing a fence
// record for every unfenced node whose session lapsed and an unfence
// record for every fenced node with a fresh, unfenced observation.
func (monitor *Monitor) Sweep(ctx context.Context, nowNanos int64) error {
	for _, node := range monitor.view.NodeStates() {
		valid := monitor.tracker.HasValidSession(node.ID, nowNanos)

		switch {
		case !node.Fenced && !valid:
			offset, err := monitor.appender.Append(ctx, &metalog.FenceNode{ID: node.ID, Epoch: node.Epoch})

			if err != nil {
				return fmt.Errorf("could not propose fence record for node %d: %w", node.ID, err)
			}

			monitor.logger.Info("fencing node with lapsed session",
				zap.Int32("node", node.ID),
				zap.Int64("epoch", node.Epoch),
				zap.Int64("offset", int64(offset)))
		case node.Fenced && valid:
			last, ok := monitor.tracker.LastObservation(node.ID)

			if !ok || last.Fenced {
				continue
			}

			offset, err := monitor.appender.Append(ctx, &metalog.UnfenceNode{ID: node.ID, Epoch: node.Epoch})

			if err != nil {
				return fmt.Errorf("could not propose unfence record for node %d: %w", node.ID, err)
			}

			monitor.logger.Info("unfencing node with restored session",
				zap.Int32("node", node.ID),
				zap.Int64("epoch", node.Epoch),
				zap.Int64("offset", int64(offset)))
		}
	}

	return nil
}
