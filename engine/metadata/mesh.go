package metadata

import (
	"unsafe"

	"github.com/spaghettifunk/meshpart/engine/math"
)

// Mesh is an indexed triangle mesh as fed to splitters and groupers.
type Mesh struct {
	Name      string
	Vertices  math.VertexList
	Triangles math.IndexedTriangleList
}

// TriangleCount returns the number of triangles.
func (m *Mesh) TriangleCount() int {
	return len(m.Triangles)
}

// VertexCount returns the number of vertices.
func (m *Mesh) VertexCount() int {
	return len(m.Vertices)
}

// IsEmpty returns true if the mesh has no triangles.
func (m *Mesh) IsEmpty() bool {
	return len(m.Triangles) == 0
}

// Bounds returns the bounding box of all vertices referenced by triangles.
func (m *Mesh) Bounds() math.AABox {
	b := math.NewEmptyAABox()
	for _, t := range m.Triangles {
		b.EncapsulateTriangle(m.Vertices, t)
	}
	return b
}

// DataSize returns the approximate memory footprint of the mesh buffers.
func (m *Mesh) DataSize() uint64 {
	return uint64(len(m.Vertices))*uint64(unsafe.Sizeof(math.Vec3{})) +
		uint64(len(m.Triangles))*uint64(unsafe.Sizeof(math.IndexedTriangle{}))
}
