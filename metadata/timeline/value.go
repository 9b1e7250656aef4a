package timeline

import (
	"sort"
	"sync/atomic"

	"github.com/skua-io/skua/metalog"
)

// taggedValue is a superseded value together with the offset of the
// record that replaced it. The value was current for every offset
// strictly below endOffset.
type taggedValue[T any] struct {
	endOffset metalog.Offset
	value     T
}

// valueState is one immutable version of a Value's full history.
// prior is sorted in ascending order by endOffset.
type valueState[T any] struct {
	current     T
	prior       []taggedValue[T]
	compactedTo metalog.Offset
}

// Value is a point-in-time readable cell. A single writer updates it
// in log order with Set while any number of readers call Get or AsOf
// without blocking the writer: every update publishes a fresh
// immutable history atomically.
type Value[T any] struct {
	state atomic.Pointer[valueState[T]]
}

// NewValue creates a cell whose value as of any offset before the
// first Set is initial.
func NewValue[T any](initial T) *Value[T] {
	value := &Value[T]{}
	value.state.Store(&valueState[T]{current: initial})

	return value
}

// Get returns the current value.
func (value *Value[T]) Get() T {
	return value.state.Load().current
}

// Set records that next became current when the record at offset was
// applied. The previous value is retained, tagged with offset, so
// readers can still ask for it. Set must only be called by the single
// log-apply writer, with offsets in ascending order.
func (value *Value[T]) Set(offset metalog.Offset, next T) {
	state := value.state.Load()

	value.state.Store(&valueState[T]{
		current:     next,
		prior:       append(state.prior[:len(state.prior):len(state.prior)], taggedValue[T]{endOffset: offset, value: state.current}),
		compactedTo: state.compactedTo,
	})
}

// AsOf returns the value that was current once the record at offset
// had been applied. It returns ErrCompacted if that part of the
// history was compacted away.
func (value *Value[T]) AsOf(offset metalog.Offset) (T, error) {
	state := value.state.Load()

	if offset < state.compactedTo {
		var zero T

		return zero, ErrCompacted
	}

	// First superseded value that was still current at offset
	i := sort.Search(len(state.prior), func(i int) bool {
		return state.prior[i].endOffset > offset
	})

	if i == len(state.prior) {
		return state.current, nil
	}

	return state.prior[i].value, nil
}

// Compact drops history that is only needed to answer reads below
// oldest. Retention policy belongs to the caller: the cell keeps
// whatever is needed for AsOf(offset) with offset >= oldest.
func (value *Value[T]) Compact(oldest metalog.Offset) {
	state := value.state.Load()

	if oldest <= state.compactedTo {
		return
	}

	i := sort.Search(len(state.prior), func(i int) bool {
		return state.prior[i].endOffset > oldest
	})

	value.state.Store(&valueState[T]{
		current:     state.current,
		prior:       state.prior[i:],
		compactedTo: oldest,
	})
}

// dead reports whether the cell's current value and all retained
// history match the given predicate. Used by Map compaction to drop
// fully tombstoned keys.
func (value *Value[T]) dead(isDead func(T) bool) bool {
	state := value.state.Load()

	if !isDead(state.current) {
		return false
	}

	for _, prior := range state.prior {
		if !isDead(prior.value) {
			return false
		}
	}

	return true
}
