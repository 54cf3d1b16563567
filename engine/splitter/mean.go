package splitter

import "github.com/spaghettifunk/meshpart/engine/math"

// Mean splits at the mean centroid, along the axis where the centroids
// deviate the most.
type Mean struct {
	*base
}

var _ Splitter = (*Mean)(nil)

func NewMean(vertices math.VertexList, triangles math.IndexedTriangleList) (*Mean, error) {
	b, err := newBase(KindMean.String(), vertices, triangles)
	if err != nil {
		return nil, err
	}
	return &Mean{base: b}, nil
}

func (s *Mean) Split(r Range) (Range, Range, error) {
	if err := s.checkRange(r); err != nil {
		return Range{}, Range{}, err
	}

	// Sum in float64, large ranges lose too much precision in float32.
	var sum, sumSq [3]float64
	for _, t := range s.sorted[r.Begin:r.End] {
		c := s.centroids[t]
		for axis := 0; axis < 3; axis++ {
			v := float64(c.Component(axis))
			sum[axis] += v
			sumSq[axis] += v * v
		}
	}

	n := float64(r.Count())
	var mean, variance [3]float64
	for axis := 0; axis < 3; axis++ {
		mean[axis] = sum[axis] / n
		variance[axis] = sumSq[axis]/n - mean[axis]*mean[axis]
	}

	axis := math.NewVec3(float32(variance[0]), float32(variance[1]), float32(variance[2])).MaxComponentAxis()
	left, right := s.partitionAxis(r, axis, float32(mean[axis]))
	return left, right, nil
}
