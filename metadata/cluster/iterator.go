package cluster

import (
	"fmt"

	"github.com/skua-io/skua/metalog"
)

// RecordBatch is one batch of the snapshot export stream: a single
// register-equivalent record carrying a node's full state as of the
// export offset.
type RecordBatch struct {
	Records []metalog.Record
}

// BatchStream is a finite stream of record batches. Next must be
// called once to advance to the first batch. The stream is a value
// snapshot captured when the iterator was created; it never blocks or
// observes ongoing replay.
type BatchStream interface {
	// Next advances the stream. It returns false once the stream is
	// exhausted.
	Next() bool
	// Batch returns the batch at the current position.
	Batch() RecordBatch
}

// Iterator implements Registry.Iterator
func (registry *registry) Iterator(upTo metalog.Offset) (BatchStream, error) {
	// An offset past the newest applied record clamps to it: a
	// consumer that wants the current state passes the maximum
	// offset without having to know how far replay has progressed.
	if applied := registry.nodes.Applied(); upTo > applied {
		upTo = applied
	}

	entries, err := registry.nodes.SnapshotAt(upTo)

	if err != nil {
		return nil, fmt.Errorf("could not snapshot node registrations at offset %d: %w", upTo, err)
	}

	batches := make([]RecordBatch, 0, len(entries))

	for _, entry := range entries {
		batches = append(batches, RecordBatch{
			Records: []metalog.Record{entry.Value.record()},
		})
	}

	return &batchStream{batches: batches, position: -1}, nil
}

var _ BatchStream = (*batchStream)(nil)

type batchStream struct {
	batches  []RecordBatch
	position int
}

// Next implements BatchStream.Next
func (stream *batchStream) Next() bool {
	if stream.position+1 >= len(stream.batches) {
		return false
	}

	stream.position++

	return true
}

// Batch implements BatchStream.Batch
func (stream *batchStream) Batch() RecordBatch {
	return stream.batches[stream.position]
}
