package math

import (
	"fmt"

	"github.com/chewxy/math32"
)

// NewEmptyAABox returns a box that contains nothing; encapsulating any point
// makes it valid.
func NewEmptyAABox() AABox {
	b := AABox{}
	b.SetEmpty()
	return b
}

// AABoxFromTwoPoints returns the smallest box enclosing both points.
func AABoxFromTwoPoints(p1, p2 Vec3) AABox {
	return AABox{Min: p1.Min(p2), Max: p1.Max(p2)}
}

// AABoxBiggest returns a box of size 2 * MaxFloat32 centered at the origin.
func AABoxBiggest() AABox {
	return AABox{
		Min: NewVec3Replicate(-math32.MaxFloat32),
		Max: NewVec3Replicate(math32.MaxFloat32),
	}
}

// SetEmpty resets the box to the empty box (min / max +/- Infinity).
func (b *AABox) SetEmpty() {
	b.Min = NewVec3Replicate(math32.Inf(1))
	b.Max = NewVec3Replicate(math32.Inf(-1))
}

// IsValid returns true if max >= min on every axis.
func (b AABox) IsValid() bool {
	return b.Min.X <= b.Max.X && b.Min.Y <= b.Max.Y && b.Min.Z <= b.Max.Z
}

// Encapsulate grows the box to include the point.
func (b *AABox) Encapsulate(p Vec3) {
	b.Min = b.Min.Min(p)
	b.Max = b.Max.Max(p)
}

// EncapsulateBox grows the box to include other.
func (b *AABox) EncapsulateBox(other AABox) {
	b.Min = b.Min.Min(other.Min)
	b.Max = b.Max.Max(other.Max)
}

// EncapsulateTriangle grows the box to include the three vertices of t.
func (b *AABox) EncapsulateTriangle(vertices VertexList, t IndexedTriangle) {
	for _, idx := range t.Idx {
		b.Encapsulate(vertices[idx])
	}
}

// Intersect returns the overlap of both boxes. The result is invalid when
// the boxes do not overlap.
func (b AABox) Intersect(other AABox) AABox {
	return AABox{Min: b.Min.Max(other.Min), Max: b.Max.Min(other.Max)}
}

// EnsureMinimalEdgeLength grows every edge shorter than minEdgeLength so that
// it is exactly minEdgeLength long, keeping Min in place.
func (b *AABox) EnsureMinimalEdgeLength(minEdgeLength float32) {
	minPlus := b.Min.Add(NewVec3Replicate(minEdgeLength))
	b.Max = b.Max.Max(minPlus)
}

// ExpandBy widens the box on both sides by v.
func (b *AABox) ExpandBy(v Vec3) {
	b.Min = b.Min.Sub(v)
	b.Max = b.Max.Add(v)
}

// Center returns the center of the box.
func (b AABox) Center() Vec3 {
	return b.Min.Add(b.Max).MulScalar(0.5)
}

// Extent returns half of the size of the box.
func (b AABox) Extent() Vec3 {
	return b.Size().MulScalar(0.5)
}

// Size returns the vector from Min to Max.
func (b AABox) Size() Vec3 {
	return b.Max.Sub(b.Min)
}

// SurfaceArea returns the surface area of the box, or 0 for an invalid box.
func (b AABox) SurfaceArea() float32 {
	if !b.IsValid() {
		return 0
	}
	e := b.Size()
	return 2 * (e.X*e.Y + e.X*e.Z + e.Y*e.Z)
}

// Volume returns the volume of the box, or 0 for an invalid box.
func (b AABox) Volume() float32 {
	if !b.IsValid() {
		return 0
	}
	e := b.Size()
	return e.X * e.Y * e.Z
}

// Contains returns true if other lies entirely inside b.
func (b AABox) Contains(other AABox) bool {
	return b.Min.X <= other.Min.X && other.Max.X <= b.Max.X &&
		b.Min.Y <= other.Min.Y && other.Max.Y <= b.Max.Y &&
		b.Min.Z <= other.Min.Z && other.Max.Z <= b.Max.Z
}

// ContainsPoint returns true if p lies inside or on the box.
func (b AABox) ContainsPoint(p Vec3) bool {
	return p.X >= b.Min.X && p.X <= b.Max.X &&
		p.Y >= b.Min.Y && p.Y <= b.Max.Y &&
		p.Z >= b.Min.Z && p.Z <= b.Max.Z
}

// Overlaps returns true if the boxes share at least one point.
func (b AABox) Overlaps(other AABox) bool {
	// using 6 splitting planes to rule out intersections.
	if other.Max.X < b.Min.X || other.Min.X > b.Max.X ||
		other.Max.Y < b.Min.Y || other.Min.Y > b.Max.Y ||
		other.Max.Z < b.Min.Z || other.Min.Z > b.Max.Z {
		return false
	}
	return true
}

// ClosestPoint returns the point on or in the box closest to p.
func (b AABox) ClosestPoint(p Vec3) Vec3 {
	return p.Max(b.Min).Min(b.Max)
}

// SqDistanceTo returns the squared distance between p and the box; zero when
// p is inside.
func (b AABox) SqDistanceTo(p Vec3) float32 {
	return b.ClosestPoint(p).DistanceSquared(p)
}

func (b AABox) String() string {
	return fmt.Sprintf("AABox(min=(%g, %g, %g), max=(%g, %g, %g))",
		b.Min.X, b.Min.Y, b.Min.Z, b.Max.X, b.Max.Y, b.Max.Z)
}
