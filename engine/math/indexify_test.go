package math

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func quadSoup(offset float32) TriangleList {
	return TriangleList{
		{V: [3]Vec3{NewVec3(0, 0, 0), NewVec3(1, 0, 0), NewVec3(1, 1, 0)}, MaterialIndex: 1},
		{V: [3]Vec3{NewVec3(offset, 0, 0), NewVec3(1, 1+offset, 0), NewVec3(0, 1, 0)}, MaterialIndex: 2},
	}
}

func TestIndexifySharesVertices(t *testing.T) {
	vertices, triangles := Indexify(quadSoup(0), 0)

	require.Len(t, vertices, 4)
	require.Len(t, triangles, 2)
	assert.Equal(t, [3]uint32{0, 1, 2}, triangles[0].Idx)
	assert.Equal(t, [3]uint32{0, 2, 3}, triangles[1].Idx)
	assert.Equal(t, uint32(1), triangles[0].MaterialIndex)
	assert.Equal(t, uint32(2), triangles[1].MaterialIndex)
	assert.Equal(t, uint32(0), triangles[0].UserData)
	assert.Equal(t, uint32(1), triangles[1].UserData)
}

func TestIndexifyWeld(t *testing.T) {
	// Within the weld distance
	vertices, _ := Indexify(quadSoup(0.5e-4), DefaultWeldDistance)
	assert.Len(t, vertices, 4)

	// Exact matching keeps the nearly coincident vertices apart
	vertices, _ = Indexify(quadSoup(0.5e-4), 0)
	assert.Len(t, vertices, 6)

	// Too far to weld
	vertices, _ = Indexify(quadSoup(0.01), DefaultWeldDistance)
	assert.Len(t, vertices, 6)
}

func TestIndexifyAcrossCells(t *testing.T) {
	// Both points are within the weld distance but fall in different cells.
	weld := float32(0.1)
	soup := TriangleList{
		{V: [3]Vec3{NewVec3(0.099, 0, 0), NewVec3(5, 0, 0), NewVec3(0, 5, 0)}},
		{V: [3]Vec3{NewVec3(0.101, 0, 0), NewVec3(5, 0, 0), NewVec3(0, 5, 0)}},
	}

	vertices, triangles := Indexify(soup, weld)
	assert.Len(t, vertices, 3)
	assert.Equal(t, triangles[0].Idx, triangles[1].Idx)
}

func TestDeindexify(t *testing.T) {
	soup := quadSoup(0)
	vertices, triangles := Indexify(soup, 0)

	assert.Equal(t, soup, Deindexify(vertices, triangles))
}
