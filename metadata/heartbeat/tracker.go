package heartbeat

import (
	"sync/atomic"
	"time"

	"github.com/zhangyunhao116/skipmap"
)

// Observation is the most recent sighting of a node. Fenced carries
// the caller's notion of whether the sighting should be treated as
// already fenced, e.g. a controlled-shutdown heartbeat as opposed to
// an active session.
type Observation struct {
	TimeNanos int64
	Fenced    bool
}

type session struct {
	last atomic.Pointer[Observation]
}

// Tracker keeps wall-clock liveness state per node. It is deliberately
// decoupled from log replay: replay never consults the clock, and the
// tracker never consults the registry. Touch may be called from many
// concurrent sources, one per active session.
type Tracker struct {
	sessionTimeout time.Duration
	sessions       *skipmap.FuncMap[int32, *session]
}

// NewTracker creates a tracker. The session timeout is fixed for the
// tracker's lifetime.
func NewTracker(sessionTimeout time.Duration) *Tracker {
	return &Tracker{
		sessionTimeout: sessionTimeout,
		sessions: skipmap.NewFunc[int32, *session](func(a, b int32) bool {
			return a < b
		}),
	}
}

// SessionTimeout returns the tracker's session timeout.
func (tracker *Tracker) SessionTimeout() time.Duration {
	return tracker.sessionTimeout
}

// Touch records that the node was observed at the given timestamp.
// Touching an unknown id creates tracking state for it: the tracker
// has no notion of registration validity. Concurrent touches for the
// same id resolve to the newest timestamp.
func (tracker *Tracker) Touch(id int32, fenced bool, atTimeNanos int64) {
	s, ok := tracker.sessions.Load(id)

	if !ok {
		s, _ = tracker.sessions.LoadOrStore(id, &session{})
	}

	next := &Observation{TimeNanos: atTimeNanos, Fenced: fenced}

	for {
		last := s.last.Load()

		if last != nil && last.TimeNanos > atTimeNanos {
			return
		}

		if s.last.CompareAndSwap(last, next) {
			return
		}
	}
}

// HasValidSession returns true if the node was observed within the
// session timeout.
func (tracker *Tracker) HasValidSession(id int32, nowNanos int64) bool {
	last, ok := tracker.LastObservation(id)

	if !ok {
		return false
	}

	return nowNanos-last.TimeNanos <= tracker.sessionTimeout.Nanoseconds()
}

// LastObservation returns the most recent sighting for the node, if
// there is one.
func (tracker *Tracker) LastObservation(id int32) (Observation, bool) {
	s, ok := tracker.sessions.Load(id)

	if !ok {
		return Observation{}, false
	}

	last := s.last.Load()

	if last == nil {
		return Observation{}, false
	}

	return *last, true
}

// Forget drops tracking state for a node. Called when a node is
// unregistered so the tracker does not grow without bound.
func (tracker *Tracker) Forget(id int32) {
	tracker.sessions.Delete(id)
}
