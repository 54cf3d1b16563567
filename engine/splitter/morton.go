package splitter

import (
	"cmp"
	"slices"

	"github.com/spaghettifunk/meshpart/engine/math"
)

// Morton orders triangles along the Z-order curve of their centroids and
// splits every range at its median.
type Morton struct {
	*base
	codes []uint32
}

var _ Splitter = (*Morton)(nil)

func NewMorton(vertices math.VertexList, triangles math.IndexedTriangleList) (*Morton, error) {
	b, err := newBase(KindMorton.String(), vertices, triangles)
	if err != nil {
		return nil, err
	}
	s := &Morton{
		base:  b,
		codes: math.MortonCodes(b.centroids),
	}
	s.sortRange(s.InitialRange())
	return s, nil
}

// MortonCode returns the code of the triangle with the given (unsorted) index.
func (s *Morton) MortonCode(triangle uint32) uint32 {
	return s.codes[triangle]
}

// sortRange orders r by code, ties by triangle index. Ranges handed out by
// Split are already sorted, so this is a linear check in the common case.
func (s *Morton) sortRange(r Range) {
	slices.SortFunc(s.sorted[r.Begin:r.End], func(a, b uint32) int {
		if c := cmp.Compare(s.codes[a], s.codes[b]); c != 0 {
			return c
		}
		return cmp.Compare(a, b)
	})
}

func (s *Morton) Split(r Range) (Range, Range, error) {
	if err := s.checkRange(r); err != nil {
		return Range{}, Range{}, err
	}

	s.sortRange(r)
	left, right := s.finish(r, r.Begin+r.Count()/2)
	return left, right, nil
}
