package metadata

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/spaghettifunk/meshpart/engine/math"
)

func TestMesh(t *testing.T) {
	m := &Mesh{
		Name: "tri",
		Vertices: math.VertexList{
			math.NewVec3(0, 0, 0), math.NewVec3(2, 0, 0), math.NewVec3(0, 3, 1),
			math.NewVec3(9, 9, 9), // unreferenced
		},
		Triangles: math.IndexedTriangleList{math.NewIndexedTriangle(0, 1, 2, 0)},
	}
	assert.Equal(t, 1, m.TriangleCount())
	assert.Equal(t, 4, m.VertexCount())
	assert.False(t, m.IsEmpty())
	assert.Positive(t, m.DataSize())

	b := m.Bounds()
	assert.Equal(t, math.NewVec3(0, 0, 0), b.Min)
	assert.Equal(t, math.NewVec3(2, 3, 1), b.Max)

	assert.True(t, (&Mesh{}).IsEmpty())
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	assert.Equal(t, "binning", cfg.Splitter.Kind)
	assert.Equal(t, "morton", cfg.Grouper.Kind)
	assert.GreaterOrEqual(t, cfg.Splitter.MaxNumBins, cfg.Splitter.MinNumBins)
	assert.Equal(t, math.DefaultWeldDistance, cfg.Weld.Distance)

	// Every call returns a fresh copy
	cfg.Workers = 99
	assert.NotEqual(t, 99, DefaultConfig().Workers)
}

func TestReportLeafSizes(t *testing.T) {
	r := &Report{Leaves: []LeafReport{
		{Begin: 0, End: 3, Triangles: []uint32{4, 0, 2}},
		{Begin: 3, End: 4, Triangles: []uint32{1}},
	}}
	assert.Equal(t, []int{3, 1}, r.LeafSizes())
	assert.Empty(t, (&Report{}).LeafSizes())
}

func TestResourceTypeString(t *testing.T) {
	assert.Equal(t, "mesh", ResourceTypeMesh.String())
	assert.Equal(t, "procedural", ResourceTypeProcedural.String())
	assert.Equal(t, "config", ResourceTypeConfig.String())
	assert.Equal(t, "none", ResourceTypeNone.String())
}
