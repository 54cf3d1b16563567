package loaders

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spaghettifunk/meshpart/engine/core"
	"github.com/spaghettifunk/meshpart/engine/math"
	"github.com/spaghettifunk/meshpart/engine/metadata"
)

func TestShapes(t *testing.T) {
	assert.Equal(t, []string{"box", "bracket", "cylinder", "sphere"}, Shapes())
	assert.True(t, IsProcedural("sdf:sphere"))
	assert.False(t, IsProcedural("sphere.obj"))
}

func TestGenerateMesh(t *testing.T) {
	for _, shape := range Shapes() {
		t.Run(shape, func(t *testing.T) {
			mesh, err := GenerateMesh(shape, ProceduralParams{Cells: 12, WeldDistance: math.DefaultWeldDistance})
			require.NoError(t, err)

			assert.Equal(t, shape, mesh.Name)
			assert.NotZero(t, mesh.TriangleCount())
			// Welding shares vertices between neighbouring triangles
			assert.Less(t, mesh.VertexCount(), 3*mesh.TriangleCount())
			require.NoError(t, math.ValidateTriangles(mesh.Vertices, mesh.Triangles))
		})
	}
}

func TestGenerateSphereBounds(t *testing.T) {
	mesh, err := GenerateMesh("sphere", ProceduralParams{Cells: 16, WeldDistance: math.DefaultWeldDistance})
	require.NoError(t, err)

	b := mesh.Bounds()
	outer := math.AABox{Min: math.NewVec3Replicate(-1.1), Max: math.NewVec3Replicate(1.1)}
	inner := math.AABox{Min: math.NewVec3Replicate(-0.8), Max: math.NewVec3Replicate(0.8)}
	assert.True(t, outer.Contains(b), "bounds %s", b)
	assert.True(t, b.Contains(inner), "bounds %s", b)
}

func TestGenerateMeshErrors(t *testing.T) {
	_, err := GenerateMesh("teapot", ProceduralParams{Cells: 8})
	assert.ErrorIs(t, err, core.ErrUnknownKind)

	_, err = GenerateMesh("sphere", ProceduralParams{Cells: 0})
	assert.ErrorIs(t, err, core.ErrInvalidArgument)
}

func TestProceduralLoader(t *testing.T) {
	loader := &ProceduralLoader{}

	res, err := loader.Load("sdf:box", ProceduralParams{Cells: 8})
	require.NoError(t, err)
	assert.Equal(t, "box", res.Name)
	assert.Equal(t, metadata.ResourceTypeProcedural, res.Type)
	mesh, ok := res.Data.(*metadata.Mesh)
	require.True(t, ok)
	assert.NotZero(t, mesh.TriangleCount())

	// Without parameters the defaults apply
	res, err = loader.Load("sdf:cylinder", nil)
	require.NoError(t, err)
	assert.NotZero(t, res.DataSize)

	require.NoError(t, loader.Unload(res))
	assert.Nil(t, res.Data)
}
