package metalog

import (
	"context"
)

// Appender appends records to the replicated metadata log. The log
// orders and durably stores records and reports the offset it
// assigned. Implementations may block while consensus commits the
// record, so appends take a context.
type Appender interface {
	// Append appends a record to the log and returns the offset
	// assigned to it.
	Append(ctx context.Context, record Record) (Offset, error)
}

// Applier consumes committed records in log order. The log delivers
// each offset at least once and in order; appliers must tolerate
// duplicate delivery of the same offset.
type Applier interface {
	// Apply applies the record committed at the given offset.
	Apply(offset Offset, record Record) error
}
