package math

import (
	"fmt"

	"github.com/spaghettifunk/meshpart/engine/core"
)

// NewIndexedTriangle returns a triangle referencing vertices i1, i2, i3.
func NewIndexedTriangle(i1, i2, i3 uint32, materialIndex uint32) IndexedTriangle {
	return IndexedTriangle{
		IndexedTriangleNoMaterial: IndexedTriangleNoMaterial{Idx: [3]uint32{i1, i2, i3}},
		MaterialIndex:             materialIndex,
	}
}

// Centroid returns the mean of the three referenced vertex positions.
func (t IndexedTriangleNoMaterial) Centroid(vertices VertexList) Vec3 {
	return vertices[t.Idx[0]].Add(vertices[t.Idx[1]]).Add(vertices[t.Idx[2]]).MulScalar(1.0 / 3.0)
}

// Bounds returns the bounding box of the triangle.
func (t IndexedTriangleNoMaterial) Bounds(vertices VertexList) AABox {
	b := AABoxFromTwoPoints(vertices[t.Idx[0]], vertices[t.Idx[1]])
	b.Encapsulate(vertices[t.Idx[2]])
	return b
}

// IsEquivalent returns true if both triangles use the same vertices in the
// same winding, regardless of which vertex comes first.
func (t IndexedTriangleNoMaterial) IsEquivalent(other IndexedTriangleNoMaterial) bool {
	for r := 0; r < 3; r++ {
		if t.Idx[0] == other.Idx[r] && t.Idx[1] == other.Idx[(r+1)%3] && t.Idx[2] == other.Idx[(r+2)%3] {
			return true
		}
	}
	return false
}

// IsOpposite returns true if both triangles use the same vertices in opposing winding.
func (t IndexedTriangleNoMaterial) IsOpposite(other IndexedTriangleNoMaterial) bool {
	for r := 0; r < 3; r++ {
		if t.Idx[0] == other.Idx[r] && t.Idx[1] == other.Idx[(r+2)%3] && t.Idx[2] == other.Idx[(r+1)%3] {
			return true
		}
	}
	return false
}

// IsDegenerate returns true if the triangle has (almost) no area.
func (t IndexedTriangleNoMaterial) IsDegenerate(vertices VertexList) bool {
	v0 := vertices[t.Idx[0]]
	e1 := vertices[t.Idx[1]].Sub(v0)
	e2 := vertices[t.Idx[2]].Sub(v0)
	return e1.Cross(e2).LengthSquared() <= K_FLOAT_EPSILON*K_FLOAT_EPSILON
}

// Rotate shifts the indices so the second vertex becomes the first. The
// represented triangle does not change.
func (t *IndexedTriangleNoMaterial) Rotate() {
	t.Idx[0], t.Idx[1], t.Idx[2] = t.Idx[1], t.Idx[2], t.Idx[0]
}

// Validate fails with core.ErrOutOfRange if an index does not reference one of
// numVertices vertices.
func (t IndexedTriangleNoMaterial) Validate(numVertices int) error {
	for _, idx := range t.Idx {
		if int(idx) >= numVertices {
			return fmt.Errorf("%w: vertex index %d, vertex count %d", core.ErrOutOfRange, idx, numVertices)
		}
	}
	return nil
}

// LowestIndexFirst returns a copy rotated so that the lowest vertex index comes first.
func (t IndexedTriangle) LowestIndexFirst() IndexedTriangle {
	out := t
	switch {
	case t.Idx[0] <= t.Idx[1] && t.Idx[0] <= t.Idx[2]:
	case t.Idx[1] <= t.Idx[2]:
		out.Rotate()
	default:
		out.Rotate()
		out.Rotate()
	}
	return out
}

// Equal compares indices and tags.
func (t IndexedTriangle) Equal(other IndexedTriangle) bool {
	return t == other
}

// ValidateTriangles checks every triangle against the vertex list.
func ValidateTriangles(vertices VertexList, triangles IndexedTriangleList) error {
	for i, t := range triangles {
		if err := t.Validate(len(vertices)); err != nil {
			return fmt.Errorf("triangle %d: %w", i, err)
		}
	}
	return nil
}

// Centroids computes the centroid of every triangle.
func Centroids(vertices VertexList, triangles IndexedTriangleList) []Vec3 {
	out := make([]Vec3, len(triangles))
	for i, t := range triangles {
		out[i] = t.Centroid(vertices)
	}
	return out
}

// CentroidBounds returns the bounding box of the given centroids.
func CentroidBounds(centroids []Vec3) AABox {
	b := NewEmptyAABox()
	for _, c := range centroids {
		b.Encapsulate(c)
	}
	return b
}
