package splitter

import "github.com/spaghettifunk/meshpart/engine/math"

// LongestAxis splits at the center of the centroid bounding box, along its
// longest axis.
type LongestAxis struct {
	*base
}

var _ Splitter = (*LongestAxis)(nil)

func NewLongestAxis(vertices math.VertexList, triangles math.IndexedTriangleList) (*LongestAxis, error) {
	b, err := newBase(KindLongestAxis.String(), vertices, triangles)
	if err != nil {
		return nil, err
	}
	return &LongestAxis{base: b}, nil
}

func (s *LongestAxis) Split(r Range) (Range, Range, error) {
	if err := s.checkRange(r); err != nil {
		return Range{}, Range{}, err
	}

	bounds := s.centroidBounds(r)
	axis := bounds.Size().MaxComponentAxis()
	left, right := s.partitionAxis(r, axis, bounds.Center().Component(axis))
	return left, right, nil
}
