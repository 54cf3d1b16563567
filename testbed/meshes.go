// Package testbed provides small meshes with well known shapes for tests,
// benchmarks and demos.
package testbed

import (
	"fmt"

	"golang.org/x/exp/rand"

	"github.com/spaghettifunk/meshpart/engine/math"
	"github.com/spaghettifunk/meshpart/engine/metadata"
)

func newMesh(name string, vertices math.VertexList, tris [][3]uint32) *metadata.Mesh {
	triangles := make(math.IndexedTriangleList, len(tris))
	for i, t := range tris {
		triangles[i] = math.NewIndexedTriangle(t[0], t[1], t[2], 0)
		triangles[i].UserData = uint32(i)
	}
	return &metadata.Mesh{Name: name, Vertices: vertices, Triangles: triangles}
}

// Cube is the unit cube [0, 1]^3 made of 12 triangles.
func Cube() *metadata.Mesh {
	v := math.VertexList{
		math.NewVec3(0, 0, 0), math.NewVec3(1, 0, 0), math.NewVec3(1, 1, 0), math.NewVec3(0, 1, 0),
		math.NewVec3(0, 0, 1), math.NewVec3(1, 0, 1), math.NewVec3(1, 1, 1), math.NewVec3(0, 1, 1),
	}
	return newMesh("cube", v, [][3]uint32{
		{0, 2, 1}, {0, 3, 2}, // z = 0
		{4, 5, 6}, {4, 6, 7}, // z = 1
		{0, 1, 5}, {0, 5, 4}, // y = 0
		{3, 6, 2}, {3, 7, 6}, // y = 1
		{0, 4, 7}, {0, 7, 3}, // x = 0
		{1, 2, 6}, {1, 6, 5}, // x = 1
	})
}

// CubeFaces holds two opposite faces of the unit cube, x = 0 and x = 1, each
// made of a fan of 4 triangles around the face centre. The first 4 triangles
// lie on x = 0.
func CubeFaces() *metadata.Mesh {
	var v math.VertexList
	var tris [][3]uint32
	for _, x := range []float32{0, 1} {
		base := uint32(len(v))
		v = append(v,
			math.NewVec3(x, 0.5, 0.5),
			math.NewVec3(x, 0, 0), math.NewVec3(x, 1, 0),
			math.NewVec3(x, 1, 1), math.NewVec3(x, 0, 1),
		)
		for i := uint32(0); i < 4; i++ {
			tris = append(tris, [3]uint32{base, base + 1 + i, base + 1 + (i+1)%4})
		}
	}
	return newMesh("cube_faces", v, tris)
}

// Quad is the unit square in the XY plane split into two triangles.
func Quad() *metadata.Mesh {
	v := math.VertexList{
		math.NewVec3(0, 0, 0), math.NewVec3(1, 0, 0), math.NewVec3(1, 1, 0), math.NewVec3(0, 1, 0),
	}
	return newMesh("quad", v, [][3]uint32{{0, 1, 2}, {0, 2, 3}})
}

// Grid is an n x n grid of unit quads in the XY plane, 2n^2 triangles.
func Grid(n int) *metadata.Mesh {
	stride := uint32(n + 1)
	v := make(math.VertexList, 0, (n+1)*(n+1))
	for y := 0; y <= n; y++ {
		for x := 0; x <= n; x++ {
			v = append(v, math.NewVec3(float32(x), float32(y), 0))
		}
	}
	tris := make([][3]uint32, 0, 2*n*n)
	for y := uint32(0); y < uint32(n); y++ {
		for x := uint32(0); x < uint32(n); x++ {
			i := y*stride + x
			tris = append(tris, [3]uint32{i, i + 1, i + stride + 1}, [3]uint32{i, i + stride + 1, i + stride})
		}
	}
	return newMesh(fmt.Sprintf("grid_%d", n), v, tris)
}

// Stacked returns n copies of the same triangle, so every centroid coincides.
func Stacked(n int) *metadata.Mesh {
	v := math.VertexList{math.NewVec3(0, 0, 0), math.NewVec3(1, 0, 0), math.NewVec3(0, 1, 0)}
	tris := make([][3]uint32, n)
	for i := range tris {
		tris[i] = [3]uint32{0, 1, 2}
	}
	return newMesh(fmt.Sprintf("stacked_%d", n), v, tris)
}

// RandomSoup returns n small random triangles in the unit cube. The same seed
// always yields the same mesh.
func RandomSoup(seed uint64, n int) *metadata.Mesh {
	rng := rand.New(rand.NewSource(seed))
	point := func() math.Vec3 {
		return math.NewVec3(rng.Float32(), rng.Float32(), rng.Float32())
	}

	v := make(math.VertexList, 0, 3*n)
	tris := make([][3]uint32, n)
	for i := range tris {
		c := point()
		base := uint32(len(v))
		for j := 0; j < 3; j++ {
			offset := point().Sub(math.NewVec3Replicate(0.5)).MulScalar(0.05)
			v = append(v, c.Add(offset))
		}
		tris[i] = [3]uint32{base, base + 1, base + 2}
	}
	return newMesh(fmt.Sprintf("soup_%d", seed), v, tris)
}
