package timeline

import (
	"sync/atomic"

	"github.com/emirpasic/gods/maps/treemap"

	"github.com/skua-io/skua/metalog"
)

func compareNodeIDs(a, b interface{}) int {
	aID := a.(int32)
	bID := b.(int32)

	if aID < bID {
		return -1
	} else if aID > bID {
		return 1
	}

	return 0
}

// presence wraps a map value so that deletions can be represented as
// tombstones inside a cell's history.
type presence[V any] struct {
	value   V
	present bool
}

// mapState is one immutable version of a Map's key set. Cells are
// versioned independently: the tree only changes when a key is first
// created or compacted away.
type mapState[V any] struct {
	cells   *treemap.Map // int32 -> *Value[presence[V]]
	applied metalog.Offset
}

// Entry is one live key-value pair of a Map snapshot.
type Entry[V any] struct {
	ID    int32
	Value V
}

// Map is an ordered, point-in-time readable map keyed by node id.
// A single writer mutates it in log order; readers observe immutable
// snapshots and never block the writer. Writers mutate cells with Set
// and Delete and then publish the new log position with Advance once
// the record at that position has been fully applied.
type Map[V any] struct {
	state atomic.Pointer[mapState[V]]
}

// NewMap creates an empty map.
func NewMap[V any]() *Map[V] {
	m := &Map[V]{}
	m.state.Store(&mapState[V]{cells: treemap.NewWith(compareNodeIDs)})

	return m
}

// Get returns the current value for id.
func (m *Map[V]) Get(id int32) (V, bool) {
	state := m.state.Load()

	cell, ok := state.cells.Get(id)

	if !ok {
		var zero V

		return zero, false
	}

	p := cell.(*Value[presence[V]]).Get()

	return p.value, p.present
}

// Len returns the number of live keys.
func (m *Map[V]) Len() int {
	state := m.state.Load()
	n := 0

	iterator := state.cells.Iterator()

	for iterator.Next() {
		if iterator.Value().(*Value[presence[V]]).Get().present {
			n++
		}
	}

	return n
}

// Set records that id's value became value when the record at offset
// was applied.
func (m *Map[V]) Set(offset metalog.Offset, id int32, value V) {
	m.cell(id).Set(offset, presence[V]{value: value, present: true})
}

// Delete records that id stopped existing when the record at offset
// was applied. The key's history remains readable until Compact drops
// it.
func (m *Map[V]) Delete(offset metalog.Offset, id int32) {
	state := m.state.Load()

	if cell, ok := state.cells.Get(id); ok {
		cell.(*Value[presence[V]]).Set(offset, presence[V]{})
	}
}

// Advance publishes offset as the newest fully applied log position.
// The writer calls this after applying each record, including records
// that did not change any key.
func (m *Map[V]) Advance(offset metalog.Offset) {
	state := m.state.Load()

	if offset <= state.applied {
		return
	}

	m.state.Store(&mapState[V]{cells: state.cells, applied: offset})
}

// Applied returns the newest fully applied log position.
func (m *Map[V]) Applied() metalog.Offset {
	return m.state.Load().applied
}

// Snapshot returns the live entries in ascending id order, consistent
// as of the newest fully applied log position.
func (m *Map[V]) Snapshot() []Entry[V] {
	state := m.state.Load()

	entries, err := m.snapshotAt(state, state.applied)

	if err != nil {
		// The writer never compacts beyond the applied position,
		// so a snapshot at the applied position always has history.
		panic(err)
	}

	return entries
}

// SnapshotAt returns the live entries in ascending id order as they
// were once the record at offset had been applied. It returns
// ErrOffsetTooHigh if offset is beyond the newest applied position
// and ErrCompacted if the history needed was compacted away.
func (m *Map[V]) SnapshotAt(offset metalog.Offset) ([]Entry[V], error) {
	state := m.state.Load()

	if offset > state.applied {
		return nil, ErrOffsetTooHigh
	}

	return m.snapshotAt(state, offset)
}

func (m *Map[V]) snapshotAt(state *mapState[V], offset metalog.Offset) ([]Entry[V], error) {
	entries := []Entry[V]{}

	iterator := state.cells.Iterator()

	for iterator.Next() {
		p, err := iterator.Value().(*Value[presence[V]]).AsOf(offset)

		if err != nil {
			return nil, err
		}

		if !p.present {
			continue
		}

		entries = append(entries, Entry[V]{ID: iterator.Key().(int32), Value: p.value})
	}

	return entries, nil
}

// Compact drops history that is only needed to answer reads below
// oldest, along with keys whose entire retained history is a
// tombstone. Compact runs on the writer path.
func (m *Map[V]) Compact(oldest metalog.Offset) {
	state := m.state.Load()

	if oldest > state.applied {
		oldest = state.applied
	}

	cells := treemap.NewWith(compareNodeIDs)

	iterator := state.cells.Iterator()

	for iterator.Next() {
		cell := iterator.Value().(*Value[presence[V]])
		cell.Compact(oldest)

		if cell.dead(func(p presence[V]) bool { return !p.present }) {
			continue
		}

		cells.Put(iterator.Key(), cell)
	}

	m.state.Store(&mapState[V]{cells: cells, applied: state.applied})
}

// cell returns the versioned cell for id, creating it if this is the
// first time the writer has seen the key.
func (m *Map[V]) cell(id int32) *Value[presence[V]] {
	state := m.state.Load()

	if cell, ok := state.cells.Get(id); ok {
		return cell.(*Value[presence[V]])
	}

	cells := treemap.NewWith(compareNodeIDs)

	iterator := state.cells.Iterator()

	for iterator.Next() {
		cells.Put(iterator.Key(), iterator.Value())
	}

	cell := NewValue(presence[V]{})
	cells.Put(id, cell)

	m.state.Store(&mapState[V]{cells: cells, applied: state.applied})

	return cell
}
