package placement

import (
	"fmt"
	"math/rand"
	"time"
)

// Spec describes a placement request: PartitionCount partitions
// starting at FirstPartition, each needing ReplicationFactor replicas.
type Spec struct {
	FirstPartition    int32
	PartitionCount    int32
	ReplicationFactor int16
}

// UsableNode is a registered, unfenced node eligible for placement.
type UsableNode struct {
	ID   int32
	Rack string
}

// ClusterDescriber supplies the usable node set at call time.
// Implemented by the cluster registry.
type ClusterDescriber interface {
	UsableNodes() []UsableNode
}

// Placer assigns replicas for new partitions across the usable node
// set. It keeps no state between calls beyond its random source:
// results are intentionally randomized across calls to avoid
// deterministic hot-spotting, but every per-partition assignment is
// internally consistent.
type Placer struct {
	random *rand.Rand
}

// NewPlacer creates a placer around the given random source. Tests
// pass a seeded source to make placement reproducible; passing nil
// seeds one from the clock.
func NewPlacer(random *rand.Rand) *Placer {
	if random == nil {
		random = rand.New(rand.NewSource(time.Now().UnixNano()))
	}

	return &Placer{random: random}
}

// Place returns one replica list per partition. Each list holds
// exactly spec.ReplicationFactor distinct node ids, the first being
// the preferred leader. Replicas of the same partition are spread
// across distinct racks while rack diversity lasts.
func (placer *Placer) Place(spec Spec, describer ClusterDescriber) ([][]int32, error) {
	if spec.FirstPartition < 0 || spec.PartitionCount < 1 || spec.ReplicationFactor < 1 {
		return nil, ErrInvalidSpec
	}

	nodes := describer.UsableNodes()

	if len(nodes) < int(spec.ReplicationFactor) {
		return nil, fmt.Errorf("%d usable nodes, need %d: %w", len(nodes), spec.ReplicationFactor, ErrInsufficientNodes)
	}

	striped := placer.stripe(nodes)
	assignments := make([][]int32, spec.PartitionCount)

	// Rotate the starting point per partition so leadership spreads
	// over the whole pool. FirstPartition folds into the rotation so
	// that expanding a topic continues the stripe where the existing
	// partitions left off.
	start := placer.random.Intn(len(striped)) + int(spec.FirstPartition)

	for partition := range assignments {
		replicas := make([]int32, spec.ReplicationFactor)

		for replica := range replicas {
			replicas[replica] = striped[(start+partition+replica)%len(striped)]
		}

		assignments[partition] = replicas
	}

	return assignments, nil
}

// stripe shuffles the nodes and interleaves them by rack so that
// consecutive entries sit on distinct racks for as long as rack
// diversity lasts. Nodes without a rack label form a rack of their
// own.
func (placer *Placer) stripe(nodes []UsableNode) []int32 {
	racks := map[string][]int32{}

	for _, node := range nodes {
		racks[node.Rack] = append(racks[node.Rack], node.ID)
	}

	rackNames := make([]string, 0, len(racks))

	for name := range racks {
		rackNames = append(rackNames, name)

		ids := racks[name]
		placer.random.Shuffle(len(ids), func(i, j int) {
			ids[i], ids[j] = ids[j], ids[i]
		})
	}

	placer.random.Shuffle(len(rackNames), func(i, j int) {
		rackNames[i], rackNames[j] = rackNames[j], rackNames[i]
	})

	striped := make([]int32, 0, len(nodes))

	for round := 0; len(striped) < len(nodes); round++ {
		for _, name := range rackNames {
			if round < len(racks[name]) {
				striped = append(striped, racks[name][round])
			}
		}
	}

	return striped
}
