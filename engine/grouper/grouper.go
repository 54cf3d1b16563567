// Package grouper orders triangles into batches of a fixed size such that
// every batch is spatially coherent.
package grouper

import (
	"fmt"
	"strings"

	"github.com/spaghettifunk/meshpart/engine/core"
	"github.com/spaghettifunk/meshpart/engine/math"
)

// Grouper returns an ordering of triangle indices in which every consecutive
// run of groupSize indices forms a group. When the triangle count is not a
// multiple of groupSize the last group is smaller. The result is always a
// permutation of [0, len(triangles)).
type Grouper interface {
	Group(vertices math.VertexList, triangles math.IndexedTriangleList, groupSize int) ([]uint32, error)
}

type Kind uint8

const (
	KindClosestCentroid Kind = iota
	KindMorton
)

func (k Kind) String() string {
	switch k {
	case KindClosestCentroid:
		return "closest_centroid"
	case KindMorton:
		return "morton"
	default:
		return fmt.Sprintf("Kind(%d)", uint8(k))
	}
}

// Kinds returns every grouper kind.
func Kinds() []Kind {
	return []Kind{KindClosestCentroid, KindMorton}
}

func ParseKind(name string) (Kind, error) {
	normalized := strings.ReplaceAll(strings.ToLower(strings.TrimSpace(name)), "-", "_")
	for _, k := range Kinds() {
		if k.String() == normalized {
			return k, nil
		}
	}
	return 0, fmt.Errorf("%w: grouper %q", core.ErrUnknownKind, name)
}

// New returns a grouper of the given kind.
func New(kind Kind) (Grouper, error) {
	switch kind {
	case KindClosestCentroid:
		return NewClosestCentroid(), nil
	case KindMorton:
		return NewMorton(), nil
	default:
		return nil, fmt.Errorf("%w: %s", core.ErrUnknownKind, kind)
	}
}

// validate checks the shared preconditions of every grouper.
func validate(vertices math.VertexList, triangles math.IndexedTriangleList, groupSize int) error {
	if groupSize < 1 {
		return fmt.Errorf("%w: group size must be at least 1, got %d", core.ErrInvalidArgument, groupSize)
	}
	if uint64(len(triangles)) > uint64(^uint32(0)) {
		return fmt.Errorf("%w: %d triangles do not fit 32 bit indices", core.ErrOutOfRange, len(triangles))
	}
	return math.ValidateTriangles(vertices, triangles)
}
