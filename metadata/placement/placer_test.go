package placement_test

import (
	"errors"
	"math/rand"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/skua-io/skua/metadata/placement"
)

type staticDescriber []placement.UsableNode

func (describer staticDescriber) UsableNodes() []placement.UsableNode {
	return describer
}

func nodes(n int32) staticDescriber {
	describer := staticDescriber{}

	for id := int32(0); id < n; id++ {
		describer = append(describer, placement.UsableNode{ID: id})
	}

	return describer
}

func TestPlaceAssignsDistinctReplicas(t *testing.T) {
	placer := placement.NewPlacer(rand.New(rand.NewSource(12345)))
	describer := nodes(5)

	for i := 0; i < 100; i++ {
		assignments, err := placer.Place(placement.Spec{
			FirstPartition:    0,
			PartitionCount:    10,
			ReplicationFactor: 3,
		}, describer)

		if err != nil {
			t.Fatalf("expected err to be nil, got %#v", err)
		}

		if len(assignments) != 10 {
			t.Fatalf("expected 10 partitions, got %d", len(assignments))
		}

		for partition, replicas := range assignments {
			if len(replicas) != 3 {
				t.Fatalf("expected 3 replicas for partition %d, got %d", partition, len(replicas))
			}

			seen := map[int32]bool{}

			for _, id := range replicas {
				if id < 0 || id >= 5 {
					t.Fatalf("replica id %d for partition %d is out of range", id, partition)
				}

				if seen[id] {
					t.Fatalf("replica id %d repeats within partition %d", id, partition)
				}

				seen[id] = true
			}
		}
	}
}

func TestPlaceFullPermutation(t *testing.T) {
	placer := placement.NewPlacer(rand.New(rand.NewSource(67890)))
	describer := nodes(3)

	for i := 0; i < 100; i++ {
		assignments, err := placer.Place(placement.Spec{
			FirstPartition:    0,
			PartitionCount:    1,
			ReplicationFactor: 3,
		}, describer)

		if err != nil {
			t.Fatalf("expected err to be nil, got %#v", err)
		}

		seen := map[int32]bool{}

		for _, id := range assignments[0] {
			seen[id] = true
		}

		diff := cmp.Diff(map[int32]bool{0: true, 1: true, 2: true}, seen)

		if diff != "" {
			t.Fatalf(diff)
		}
	}
}

func TestPlaceSpreadsAcrossRacks(t *testing.T) {
	placer := placement.NewPlacer(rand.New(rand.NewSource(1)))
	describer := staticDescriber{
		{ID: 0, Rack: "rack-a"},
		{ID: 1, Rack: "rack-a"},
		{ID: 2, Rack: "rack-b"},
		{ID: 3, Rack: "rack-b"},
		{ID: 4, Rack: "rack-c"},
		{ID: 5, Rack: "rack-c"},
	}

	rackOf := map[int32]string{}

	for _, node := range describer {
		rackOf[node.ID] = node.Rack
	}

	for i := 0; i < 100; i++ {
		assignments, err := placer.Place(placement.Spec{
			FirstPartition:    0,
			PartitionCount:    6,
			ReplicationFactor: 3,
		}, describer)

		if err != nil {
			t.Fatalf("expected err to be nil, got %#v", err)
		}

		for partition, replicas := range assignments {
			racks := map[string]bool{}

			for _, id := range replicas {
				racks[rackOf[id]] = true
			}

			if len(racks) != 3 {
				t.Fatalf("expected partition %d to span 3 racks, got %d: %v", partition, len(racks), replicas)
			}
		}
	}
}

func TestPlaceSeededDeterminism(t *testing.T) {
	describer := nodes(7)
	spec := placement.Spec{FirstPartition: 0, PartitionCount: 5, ReplicationFactor: 3}

	first, err := placement.NewPlacer(rand.New(rand.NewSource(42))).Place(spec, describer)

	if err != nil {
		t.Fatalf("expected err to be nil, got %#v", err)
	}

	second, err := placement.NewPlacer(rand.New(rand.NewSource(42))).Place(spec, describer)

	if err != nil {
		t.Fatalf("expected err to be nil, got %#v", err)
	}

	diff := cmp.Diff(first, second)

	if diff != "" {
		t.Fatalf(diff)
	}
}

// Expanding a topic places the new partitions as if the original
// request had covered them: FirstPartition continues the stripe
// instead of restarting it.
func TestPlaceContinuesStripeAtFirstPartition(t *testing.T) {
	describer := nodes(7)

	full, err := placement.NewPlacer(rand.New(rand.NewSource(99))).Place(placement.Spec{
		FirstPartition:    0,
		PartitionCount:    4,
		ReplicationFactor: 3,
	}, describer)

	if err != nil {
		t.Fatalf("expected err to be nil, got %#v", err)
	}

	expansion, err := placement.NewPlacer(rand.New(rand.NewSource(99))).Place(placement.Spec{
		FirstPartition:    2,
		PartitionCount:    2,
		ReplicationFactor: 3,
	}, describer)

	if err != nil {
		t.Fatalf("expected err to be nil, got %#v", err)
	}

	diff := cmp.Diff(full[2:], expansion)

	if diff != "" {
		t.Fatalf(diff)
	}
}

func TestPlaceErrors(t *testing.T) {
	placer := placement.NewPlacer(rand.New(rand.NewSource(1)))

	testCases := map[string]struct {
		spec  placement.Spec
		nodes staticDescriber
		err   error
	}{
		"insufficient-nodes": {
			spec:  placement.Spec{PartitionCount: 1, ReplicationFactor: 3},
			nodes: nodes(2),
			err:   placement.ErrInsufficientNodes,
		},
		"no-nodes": {
			spec:  placement.Spec{PartitionCount: 1, ReplicationFactor: 1},
			nodes: staticDescriber{},
			err:   placement.ErrInsufficientNodes,
		},
		"zero-partitions": {
			spec:  placement.Spec{PartitionCount: 0, ReplicationFactor: 1},
			nodes: nodes(3),
			err:   placement.ErrInvalidSpec,
		},
		"zero-replication-factor": {
			spec:  placement.Spec{PartitionCount: 1, ReplicationFactor: 0},
			nodes: nodes(3),
			err:   placement.ErrInvalidSpec,
		},
		"negative-first-partition": {
			spec:  placement.Spec{FirstPartition: -1, PartitionCount: 1, ReplicationFactor: 1},
			nodes: nodes(3),
			err:   placement.ErrInvalidSpec,
		},
	}

	for name, testCase := range testCases {
		t.Run(name, func(t *testing.T) {
			if _, err := placer.Place(testCase.spec, testCase.nodes); !errors.Is(err, testCase.err) {
				t.Fatalf("expected err to be %v, got %#v", testCase.err, err)
			}
		})
	}
}
