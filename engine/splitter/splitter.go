// Package splitter partitions an indexed triangle list into a binary
// hierarchy. Every splitter owns a permutation of triangle indices and
// reorders windows of it in place; the geometry itself is never copied or
// modified.
//
// A splitter never decides when to stop: callers keep splitting ranges until
// they are small enough, see systems.TreeBuilder.
package splitter

import (
	"fmt"
	"sync/atomic"

	"github.com/spaghettifunk/meshpart/engine/core"
	"github.com/spaghettifunk/meshpart/engine/math"
)

// Range is a half-open window [Begin, End) over a splitter's sorted triangle indices.
type Range struct {
	Begin uint32
	End   uint32
}

func NewRange(begin, end uint32) Range {
	return Range{Begin: begin, End: end}
}

// Count returns the number of triangles in the range.
func (r Range) Count() uint32 {
	if r.End < r.Begin {
		return 0
	}
	return r.End - r.Begin
}

func (r Range) IsEmpty() bool {
	return r.Count() == 0
}

func (r Range) String() string {
	return fmt.Sprintf("[%d, %d)", r.Begin, r.End)
}

// Stats describes a splitter and what it has done since construction.
// The counters start at zero and only grow.
type Stats struct {
	SplitterName      string `json:"splitter_name"`
	LeafSize          int    `json:"leaf_size"`
	NumSplits         uint64 `json:"num_splits"`
	NumFallbackSplits uint64 `json:"num_fallback_splits"`
	NumBinsEvaluated  uint64 `json:"num_bins_evaluated"`
}

// Splitter splits a range of triangles into a left and a right part.
//
// Split only reorders SortedTriangleIndices()[r.Begin:r.End]. Both returned
// ranges are non-empty and together cover r exactly. Splits on disjoint ranges
// may run concurrently.
type Splitter interface {
	Split(r Range) (left Range, right Range, err error)
	Stats() Stats
	InitialRange() Range
	Vertices() math.VertexList
	// Triangle returns the triangle at position i of the sorted index list.
	Triangle(i uint32) math.IndexedTriangle
	SortedTriangleIndices() []uint32
}

// base holds the state shared by all splitters.
type base struct {
	name      string
	leafSize  int
	vertices  math.VertexList
	triangles math.IndexedTriangleList
	centroids []math.Vec3
	sorted    []uint32

	numSplits   atomic.Uint64
	numFallback atomic.Uint64
	numBins     atomic.Uint64
}

func newBase(name string, vertices math.VertexList, triangles math.IndexedTriangleList) (*base, error) {
	if uint64(len(triangles)) > uint64(^uint32(0)) {
		return nil, fmt.Errorf("%w: %d triangles do not fit 32 bit indices", core.ErrOutOfRange, len(triangles))
	}
	if err := math.ValidateTriangles(vertices, triangles); err != nil {
		return nil, fmt.Errorf("%s: %w", name, err)
	}

	sorted := make([]uint32, len(triangles))
	for i := range sorted {
		sorted[i] = uint32(i)
	}

	core.LogDebug("splitter %s: %d triangles, %d vertices", name, len(triangles), len(vertices))

	return &base{
		name:      name,
		vertices:  vertices,
		triangles: triangles,
		centroids: math.Centroids(vertices, triangles),
		sorted:    sorted,
	}, nil
}

func (b *base) Stats() Stats {
	return Stats{
		SplitterName:      b.name,
		LeafSize:          b.leafSize,
		NumSplits:         b.numSplits.Load(),
		NumFallbackSplits: b.numFallback.Load(),
		NumBinsEvaluated:  b.numBins.Load(),
	}
}

func (b *base) InitialRange() Range {
	return Range{Begin: 0, End: uint32(len(b.sorted))}
}

func (b *base) Vertices() math.VertexList {
	return b.vertices
}

func (b *base) Triangle(i uint32) math.IndexedTriangle {
	return b.triangles[b.sorted[i]]
}

func (b *base) SortedTriangleIndices() []uint32 {
	return b.sorted
}

// checkRange validates that r can be split.
func (b *base) checkRange(r Range) error {
	if r.End < r.Begin || int(r.End) > len(b.sorted) {
		return fmt.Errorf("%s: %w: range %s, %d triangles", b.name, core.ErrOutOfRange, r, len(b.sorted))
	}
	if r.Count() < 2 {
		return fmt.Errorf("%s: %w: range %s holds fewer than 2 triangles", b.name, core.ErrInvalidArgument, r)
	}
	return nil
}

// centroidBounds returns the bounding box of the centroids in r.
func (b *base) centroidBounds(r Range) math.AABox {
	bounds := math.NewEmptyAABox()
	for _, t := range b.sorted[r.Begin:r.End] {
		bounds.Encapsulate(b.centroids[t])
	}
	return bounds
}

// partition moves every triangle for which isLeft holds to the front of r.
// When either side ends up empty the range is cut in the middle instead.
func (b *base) partition(r Range, isLeft func(t uint32) bool) (Range, Range) {
	start, end := r.Begin, r.End
	for start < end {
		for start < end && isLeft(b.sorted[start]) {
			start++
		}
		for start < end && !isLeft(b.sorted[end-1]) {
			end--
		}
		if start < end {
			b.sorted[start], b.sorted[end-1] = b.sorted[end-1], b.sorted[start]
			start++
			end--
		}
	}
	return b.finish(r, start)
}

// partitionAxis splits r by comparing centroids against value along axis.
func (b *base) partitionAxis(r Range, axis int, value float32) (Range, Range) {
	return b.partition(r, func(t uint32) bool {
		return b.centroids[t].Component(axis) < value
	})
}

// finish turns a split position into the output ranges and updates the stats.
func (b *base) finish(r Range, middle uint32) (Range, Range) {
	fallback := middle <= r.Begin || middle >= r.End
	if fallback {
		middle = r.Begin + r.Count()/2
	}
	b.record(fallback)
	return Range{Begin: r.Begin, End: middle}, Range{Begin: middle, End: r.End}
}

func (b *base) record(fallback bool) {
	if fallback {
		b.numFallback.Add(1)
	}
	b.numSplits.Add(1)
	core.MetricsRecordSplit(b.name, fallback)
}
