package splitter

import (
	"fmt"

	"github.com/chewxy/math32"
	"github.com/spaghettifunk/meshpart/engine/core"
	"github.com/spaghettifunk/meshpart/engine/math"
)

// Defaults for the binning splitters.
const (
	DefaultMinNumBins         = 8
	DefaultMaxNumBins         = 128
	DefaultNumTrianglesPerBin = 6
)

// BinningOptions controls how many bins a binning splitter evaluates per
// axis: count / NumTrianglesPerBin, clamped to [MinNumBins, MaxNumBins].
type BinningOptions struct {
	MinNumBins         int
	MaxNumBins         int
	NumTrianglesPerBin int
}

func DefaultBinningOptions() BinningOptions {
	return BinningOptions{
		MinNumBins:         DefaultMinNumBins,
		MaxNumBins:         DefaultMaxNumBins,
		NumTrianglesPerBin: DefaultNumTrianglesPerBin,
	}
}

func (o BinningOptions) Validate() error {
	if o.MinNumBins < 2 {
		return fmt.Errorf("%w: min_num_bins must be at least 2, got %d", core.ErrInvalidArgument, o.MinNumBins)
	}
	if o.MaxNumBins < o.MinNumBins {
		return fmt.Errorf("%w: max_num_bins %d is below min_num_bins %d", core.ErrInvalidArgument, o.MaxNumBins, o.MinNumBins)
	}
	if o.NumTrianglesPerBin < 1 {
		return fmt.Errorf("%w: num_triangles_per_bin must be at least 1, got %d", core.ErrInvalidArgument, o.NumTrianglesPerBin)
	}
	return nil
}

func (o BinningOptions) numBins(count int) int {
	return math.Clamp(count/o.NumTrianglesPerBin, o.MinNumBins, o.MaxNumBins)
}

// binItem is one unit the binner places: a triangle, or a group of triangles
// for the fixed leaf size splitter.
type binItem struct {
	centroid math.Vec3
	bounds   math.AABox
	count    uint32
}

type bin struct {
	bounds math.AABox
	count  uint32
}

// binSplit is the winning bin boundary: items in bins below bin go left.
type binSplit struct {
	axis    int
	origin  float32
	extent  float32
	numBins int
	bin     int
}

func binIndex(v, origin, extent float32, numBins int) int {
	b := int((v - origin) / extent * float32(numBins))
	return math.Clamp(b, 0, numBins-1)
}

func (s binSplit) isLeft(centroid math.Vec3) bool {
	return binIndex(centroid.Component(s.axis), s.origin, s.extent, s.numBins) < s.bin
}

// findBinSplit evaluates every bin boundary on every axis with the surface
// area heuristic cost area(L)*n(L) + area(R)*n(R) and returns the cheapest.
// It reports false when no boundary leaves both sides non-empty, which
// happens when all centroids coincide. The second result is the number of
// bins that were evaluated.
func findBinSplit(items []binItem, numBins int) (binSplit, uint64, bool) {
	centroidBounds := math.NewEmptyAABox()
	for _, it := range items {
		centroidBounds.Encapsulate(it.centroid)
	}

	bins := make([]bin, numBins)
	leftArea := make([]float32, numBins)
	leftCount := make([]uint32, numBins)

	best := binSplit{}
	bestCost := math32.Inf(1)
	found := false
	evaluated := uint64(0)

	for axis := 0; axis < 3; axis++ {
		extent := centroidBounds.Size().Component(axis)
		if extent <= 0 {
			continue
		}
		origin := centroidBounds.Min.Component(axis)

		for i := range bins {
			bins[i] = bin{bounds: math.NewEmptyAABox()}
		}
		for _, it := range items {
			b := binIndex(it.centroid.Component(axis), origin, extent, numBins)
			bins[b].bounds.EncapsulateBox(it.bounds)
			bins[b].count += it.count
		}
		evaluated += uint64(numBins)

		// leftArea[i] / leftCount[i] describe bins [0, i)
		acc := math.NewEmptyAABox()
		n := uint32(0)
		for i := 1; i < numBins; i++ {
			acc.EncapsulateBox(bins[i-1].bounds)
			n += bins[i-1].count
			leftArea[i] = acc.SurfaceArea()
			leftCount[i] = n
		}

		acc = math.NewEmptyAABox()
		n = 0
		for i := numBins - 1; i >= 1; i-- {
			acc.EncapsulateBox(bins[i].bounds)
			n += bins[i].count
			if n == 0 || leftCount[i] == 0 {
				continue
			}
			cost := leftArea[i]*float32(leftCount[i]) + acc.SurfaceArea()*float32(n)
			if cost < bestCost {
				bestCost = cost
				best = binSplit{axis: axis, origin: origin, extent: extent, numBins: numBins, bin: i}
				found = true
			}
		}
	}
	return best, evaluated, found
}

// Binning places centroids into bins along each axis and picks the bin
// boundary with the lowest surface area heuristic cost.
type Binning struct {
	*base
	options BinningOptions
}

var _ Splitter = (*Binning)(nil)

func NewBinning(vertices math.VertexList, triangles math.IndexedTriangleList, options BinningOptions) (*Binning, error) {
	if err := options.Validate(); err != nil {
		return nil, err
	}
	b, err := newBase(KindBinning.String(), vertices, triangles)
	if err != nil {
		return nil, err
	}
	return &Binning{base: b, options: options}, nil
}

func (s *Binning) Split(r Range) (Range, Range, error) {
	if err := s.checkRange(r); err != nil {
		return Range{}, Range{}, err
	}

	items := make([]binItem, 0, r.Count())
	for _, t := range s.sorted[r.Begin:r.End] {
		items = append(items, binItem{
			centroid: s.centroids[t],
			bounds:   s.triangles[t].Bounds(s.vertices),
			count:    1,
		})
	}

	split, evaluated, ok := findBinSplit(items, s.options.numBins(len(items)))
	s.numBins.Add(evaluated)
	if !ok {
		left, right := s.finish(r, r.Begin)
		return left, right, nil
	}

	left, right := s.partition(r, func(t uint32) bool {
		return split.isLeft(s.centroids[t])
	})
	return left, right, nil
}
