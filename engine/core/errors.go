package core

import (
	"errors"
)

var (
	// ErrInvalidArgument is returned when a caller violates a precondition,
	// e.g. a group size below 1 or a range too small to split.
	ErrInvalidArgument = errors.New("invalid argument")
	// ErrOutOfRange is returned when an index points outside its container.
	ErrOutOfRange = errors.New("out of range")

	ErrUnknownKind = errors.New("unknown partitioner kind")
	ErrEmptyMesh   = errors.New("mesh has no triangles")
	ErrUnknown     = errors.New("unknown")
)
