package splitter

import (
	"fmt"

	"github.com/spaghettifunk/meshpart/engine/core"
	"github.com/spaghettifunk/meshpart/engine/grouper"
	"github.com/spaghettifunk/meshpart/engine/math"
)

// FixedLeafSize works like Binning, but every leaf holds exactly leafSize
// triangles except for one possibly smaller leaf at the very end. Trees built
// this way suit GPU processing where every thread takes the same amount of
// triangles.
//
// At construction the triangles are grouped into runs of leafSize with the
// closest centroid grouper. Split bins whole groups, so the left range always
// holds a multiple of leafSize triangles and the short group, if any, stays
// last in the sorted index list.
type FixedLeafSize struct {
	*base
	options BinningOptions
}

var _ Splitter = (*FixedLeafSize)(nil)

func NewFixedLeafSize(vertices math.VertexList, triangles math.IndexedTriangleList, leafSize int, options BinningOptions) (*FixedLeafSize, error) {
	if leafSize < 1 {
		return nil, fmt.Errorf("%w: leaf size must be at least 1, got %d", core.ErrInvalidArgument, leafSize)
	}
	if err := options.Validate(); err != nil {
		return nil, err
	}
	b, err := newBase(KindFixedLeafSize.String(), vertices, triangles)
	if err != nil {
		return nil, err
	}
	b.leafSize = leafSize

	if len(triangles) > 0 {
		grouped, err := grouper.NewClosestCentroid().Group(vertices, triangles, leafSize)
		if err != nil {
			return nil, err
		}
		copy(b.sorted, grouped)
	}

	return &FixedLeafSize{base: b, options: options}, nil
}

// LeafSize returns the number of triangles per leaf.
func (s *FixedLeafSize) LeafSize() int {
	return s.leafSize
}

func (s *FixedLeafSize) Split(r Range) (Range, Range, error) {
	if err := s.checkRange(r); err != nil {
		return Range{}, Range{}, err
	}

	leaf := uint32(s.leafSize)
	total := uint32(len(s.sorted))
	if r.Begin%leaf != 0 || (r.End%leaf != 0 && r.End != total) {
		return Range{}, Range{}, fmt.Errorf("%s: %w: range %s is not aligned to leaf size %d", s.name, core.ErrInvalidArgument, r, leaf)
	}
	numGroups := int((r.Count() + leaf - 1) / leaf)
	if numGroups < 2 {
		return Range{}, Range{}, fmt.Errorf("%s: %w: range %s fits in a single leaf of %d", s.name, core.ErrInvalidArgument, r, leaf)
	}

	items := make([]binItem, numGroups)
	for g := range items {
		start := r.Begin + uint32(g)*leaf
		end := min(start+leaf, r.End)

		sum := math.Vec3{}
		bounds := math.NewEmptyAABox()
		for _, t := range s.sorted[start:end] {
			sum = sum.Add(s.centroids[t])
			bounds.EncapsulateBox(s.triangles[t].Bounds(s.vertices))
		}
		items[g] = binItem{
			centroid: sum.DivScalar(float32(end - start)),
			bounds:   bounds,
			count:    end - start,
		}
	}
	lastPartial := items[numGroups-1].count < leaf

	isLeft := make([]bool, numGroups)
	leftGroups := 0
	split, evaluated, ok := findBinSplit(items, s.options.numBins(numGroups))
	s.numBins.Add(evaluated)
	if ok {
		for g := range items {
			isLeft[g] = split.isLeft(items[g].centroid) && !(lastPartial && g == numGroups-1)
			if isLeft[g] {
				leftGroups++
			}
		}
	}

	fallback := leftGroups == 0 || leftGroups == numGroups
	if fallback {
		leftGroups = numGroups / 2
		for g := range isLeft {
			isLeft[g] = g < leftGroups
		}
	}

	// Move whole groups, left ones first, keeping their relative order.
	scratch := make([]uint32, 0, r.Count())
	for _, side := range []bool{true, false} {
		for g := range items {
			if isLeft[g] != side {
				continue
			}
			start := r.Begin + uint32(g)*leaf
			end := min(start+leaf, r.End)
			scratch = append(scratch, s.sorted[start:end]...)
		}
	}
	copy(s.sorted[r.Begin:r.End], scratch)

	s.record(fallback)
	middle := r.Begin + uint32(leftGroups)*leaf
	return Range{Begin: r.Begin, End: middle}, Range{Begin: middle, End: r.End}, nil
}
