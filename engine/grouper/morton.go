package grouper

import (
	"cmp"
	"slices"

	"github.com/spaghettifunk/meshpart/engine/math"
)

// Morton sorts triangles by the Morton code of their centroid and cuts the
// sorted list into groups. O(N log N), but groups straddling a jump in the
// Z-order curve are less coherent than those of ClosestCentroid.
type Morton struct{}

var _ Grouper = (*Morton)(nil)

func NewMorton() *Morton {
	return &Morton{}
}

func (m *Morton) Group(vertices math.VertexList, triangles math.IndexedTriangleList, groupSize int) ([]uint32, error) {
	if err := validate(vertices, triangles, groupSize); err != nil {
		return nil, err
	}

	codes := math.MortonCodes(math.Centroids(vertices, triangles))

	out := make([]uint32, len(triangles))
	for i := range out {
		out[i] = uint32(i)
	}
	slices.SortFunc(out, func(a, b uint32) int {
		if c := cmp.Compare(codes[a], codes[b]); c != 0 {
			return c
		}
		return cmp.Compare(a, b)
	})
	return out, nil
}
