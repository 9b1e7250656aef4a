package timeline

import (
	"errors"
)

var (
	// ErrCompacted is returned when a read needs history that was
	// compacted away.
	ErrCompacted = errors.New("history was compacted")
	// ErrOffsetTooHigh is returned when a read asks for an offset
	// that is higher than the newest applied offset.
	ErrOffsetTooHigh = errors.New("offset is higher than the newest applied offset")
)
