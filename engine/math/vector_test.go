package math

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestVec3Arithmetic(t *testing.T) {
	a := NewVec3(1, 2, 3)
	b := NewVec3(4, -5, 6)

	assert.Equal(t, NewVec3(5, -3, 9), a.Add(b))
	assert.Equal(t, NewVec3(-3, 7, -3), a.Sub(b))
	assert.Equal(t, NewVec3(4, -10, 18), a.Mul(b))
	assert.Equal(t, NewVec3(2, 4, 6), a.MulScalar(2))
	assert.Equal(t, NewVec3(0.5, 1, 1.5), a.DivScalar(2))
	assert.Equal(t, NewVec3(1, -5, 3), a.Min(b))
	assert.Equal(t, NewVec3(4, 2, 6), a.Max(b))
	assert.Equal(t, float32(12), a.Dot(b))
	assert.Equal(t, NewVec3(27, 6, -13), a.Cross(b))
}

func TestVec3Length(t *testing.T) {
	v := NewVec3(2, 3, 6)

	assert.Equal(t, float32(49), v.LengthSquared())
	assert.InDelta(t, 7, v.Length(), 1e-6)
	assert.Equal(t, float32(49), v.DistanceSquared(Vec3{}))
	assert.InDelta(t, 7, Vec3{}.Distance(v), 1e-6)
}

func TestVec3Axes(t *testing.T) {
	v := NewVec3(1, 5, 3)

	assert.Equal(t, float32(1), v.Component(AxisX))
	assert.Equal(t, float32(5), v.Component(AxisY))
	assert.Equal(t, float32(3), v.Component(AxisZ))
	assert.Equal(t, AxisY, v.MaxComponentAxis())
	assert.Equal(t, AxisZ, NewVec3(0, 0, 1).MaxComponentAxis())
	// Ties go to the lowest axis
	assert.Equal(t, AxisX, NewVec3Replicate(2).MaxComponentAxis())
	assert.Equal(t, AxisY, NewVec3(0, 2, 2).MaxComponentAxis())
}

func TestVec3Compare(t *testing.T) {
	assert.True(t, NewVec3(1, 1, 1).Compare(NewVec3(1.05, 0.95, 1), 0.1))
	assert.False(t, NewVec3(1, 1, 1).Compare(NewVec3(1, 1, 1.2), 0.1))
}

func TestClamp(t *testing.T) {
	assert.Equal(t, 3, Clamp(5, 0, 3))
	assert.Equal(t, 0, Clamp(-5, 0, 3))
	assert.Equal(t, float32(0.5), Clamp(float32(0.5), 0, 1))
}
