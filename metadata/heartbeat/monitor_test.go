package heartbeat_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/skua-io/skua/metadata/heartbeat"
	"github.com/skua-io/skua/metalog"
)

type recordingAppender struct {
	records []metalog.Record
}

func (appender *recordingAppender) Append(ctx context.Context, record metalog.Record) (metalog.Offset, error) {
	appender.records = append(appender.records, record)

	return metalog.Offset(len(appender.records)), nil
}

type staticView []heartbeat.NodeState

func (view staticView) NodeStates() []heartbeat.NodeState {
	return view
}

func TestSweep(t *testing.T) {
	base := time.Now().UnixNano()
	fresh := base
	lapsed := base - time.Minute.Nanoseconds()

	testCases := map[string]struct {
		node     heartbeat.NodeState
		touch    *heartbeat.Observation
		proposed []metalog.Record
	}{
		"lapsed-unfenced-node-is-fenced": {
			node:     heartbeat.NodeState{ID: 1, Epoch: 100, Fenced: false},
			touch:    &heartbeat.Observation{TimeNanos: lapsed},
			proposed: []metalog.Record{&metalog.FenceNode{ID: 1, Epoch: 100}},
		},
		"untouched-unfenced-node-is-fenced": {
			node:     heartbeat.NodeState{ID: 1, Epoch: 100, Fenced: false},
			proposed: []metalog.Record{&metalog.FenceNode{ID: 1, Epoch: 100}},
		},
		"fresh-fenced-node-is-unfenced": {
			node:     heartbeat.NodeState{ID: 1, Epoch: 100, Fenced: true},
			touch:    &heartbeat.Observation{TimeNanos: fresh},
			proposed: []metalog.Record{&metalog.UnfenceNode{ID: 1, Epoch: 100}},
		},
		"fresh-unfenced-node-is-left-alone": {
			node:     heartbeat.NodeState{ID: 1, Epoch: 100, Fenced: false},
			touch:    &heartbeat.Observation{TimeNanos: fresh},
			proposed: []metalog.Record{},
		},
		"lapsed-fenced-node-is-left-alone": {
			node:     heartbeat.NodeState{ID: 1, Epoch: 100, Fenced: true},
			touch:    &heartbeat.Observation{TimeNanos: lapsed},
			proposed: []metalog.Record{},
		},
		"fenced-observation-does-not-unfence": {
			node:     heartbeat.NodeState{ID: 1, Epoch: 100, Fenced: true},
			touch:    &heartbeat.Observation{TimeNanos: fresh, Fenced: true},
			proposed: []metalog.Record{},
		},
	}

	for name, testCase := range testCases {
		t.Run(name, func(t *testing.T) {
			tracker := heartbeat.NewTracker(9 * time.Second)

			if testCase.touch != nil {
				tracker.Touch(testCase.node.ID, testCase.touch.Fenced, testCase.touch.TimeNanos)
			}

			appender := &recordingAppender{records: []metalog.Record{}}
			monitor := heartbeat.NewMonitor(heartbeat.MonitorConfig{
				Tracker:  tracker,
				View:     staticView{testCase.node},
				Appender: appender,
			})

			if err := monitor.Sweep(context.Background(), base); err != nil {
				t.Fatalf("expected err to be nil, got %#v", err)
			}

			diff := cmp.Diff(testCase.proposed, appender.records)

			if diff != "" {
				t.Fatalf(diff)
			}
		})
	}
}

func TestRunStopsOnCancel(t *testing.T) {
	monitor := heartbeat.NewMonitor(heartbeat.MonitorConfig{
		Tracker:  heartbeat.NewTracker(time.Second),
		View:     staticView{},
		Appender: &recordingAppender{},
		Interval: time.Millisecond,
	})

	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan error, 1)

	go func() {
		done <- monitor.Run(ctx)
	}()

	cancel()

	select {
	case err := <-done:
		if !errors.Is(err, context.Canceled) {
			t.Fatalf("expected err to be context.Canceled, got %#v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatalf("expected Run to stop after cancellation")
	}
}
