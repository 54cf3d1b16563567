package metadata

import (
	"time"

	"github.com/spaghettifunk/meshpart/engine/math"
	"github.com/spaghettifunk/meshpart/engine/splitter"
)

// LeafReport describes one leaf of a partition tree.
type LeafReport struct {
	Begin     uint32     `json:"begin"`
	End       uint32     `json:"end"`
	Triangles []uint32   `json:"triangles"`
	Bounds    math.AABox `json:"bounds"`
}

// Report is the result of partitioning a single mesh.
type Report struct {
	ID        string `json:"id"`
	MeshName  string `json:"mesh"`
	Splitter  string `json:"splitter"`
	Grouper   string `json:"grouper"`
	Triangles int    `json:"triangles"`
	Vertices  int    `json:"vertices"`
	Depth     int    `json:"depth"`
	// MaxLeafSize is the largest number of triangles a leaf may hold.
	MaxLeafSize int            `json:"max_leaf_size"`
	Stats       splitter.Stats `json:"stats"`
	Leaves      []LeafReport   `json:"leaves"`
	Batches     [][]uint32     `json:"batches"`
	Duration    time.Duration  `json:"duration_ns"`
}

// LeafSizes returns the number of triangles in every leaf.
func (r *Report) LeafSizes() []int {
	sizes := make([]int, len(r.Leaves))
	for i, l := range r.Leaves {
		sizes[i] = len(l.Triangles)
	}
	return sizes
}
