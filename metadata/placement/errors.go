package placement

import (
	"errors"
)

var (
	// ErrInsufficientNodes is returned when fewer usable nodes exist
	// than the requested replication factor.
	ErrInsufficientNodes = errors.New("not enough usable nodes to satisfy the replication factor")
	// ErrInvalidSpec is returned when a placement spec asks for fewer
	// than one partition or replica.
	ErrInvalidSpec = errors.New("partition count and replication factor must be at least one")
)
