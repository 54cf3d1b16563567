package math

import (
	"github.com/chewxy/math32"
)

const (
	/** @brief Smallest positive number where 1.0 + FLOAT_EPSILON != 0 */
	K_FLOAT_EPSILON float32 = 1.192092896e-07
)

// Axis indices used by Component and the splitters.
const (
	AxisX = 0
	AxisY = 1
	AxisZ = 2
)

/**
 * @brief Creates and returns a new 3-element vector using the supplied values.
 */
func NewVec3(x, y, z float32) Vec3 {
	return Vec3{
		X: x,
		Y: y,
		Z: z,
	}
}

/**
 * @brief Creates and returns a 3-component vector with all components set to value.
 */
func NewVec3Replicate(value float32) Vec3 {
	return Vec3{value, value, value}
}

/**
 * @brief Adds other to v and returns a copy of the result.
 */
func (v Vec3) Add(other Vec3) Vec3 {
	return Vec3{
		v.X + other.X,
		v.Y + other.Y,
		v.Z + other.Z}
}

/**
 * @brief Subtracts other from v and returns a copy of the result.
 */
func (v Vec3) Sub(other Vec3) Vec3 {
	return Vec3{
		v.X - other.X,
		v.Y - other.Y,
		v.Z - other.Z}
}

/**
 * @brief Multiplies v by other component-wise and returns a copy of the result.
 */
func (v Vec3) Mul(other Vec3) Vec3 {
	return Vec3{
		v.X * other.X,
		v.Y * other.Y,
		v.Z * other.Z}
}

/**
 * @brief Multiplies all elements of v by scalar and returns a copy of the result.
 */
func (v Vec3) MulScalar(scalar float32) Vec3 {
	return Vec3{
		v.X * scalar,
		v.Y * scalar,
		v.Z * scalar}
}

/**
 * @brief Divides all elements of v by scalar and returns a copy of the result.
 */
func (v Vec3) DivScalar(scalar float32) Vec3 {
	return Vec3{
		v.X / scalar,
		v.Y / scalar,
		v.Z / scalar}
}

// Min returns the component-wise minimum of v and other.
func (v Vec3) Min(other Vec3) Vec3 {
	return Vec3{
		math32.Min(v.X, other.X),
		math32.Min(v.Y, other.Y),
		math32.Min(v.Z, other.Z)}
}

// Max returns the component-wise maximum of v and other.
func (v Vec3) Max(other Vec3) Vec3 {
	return Vec3{
		math32.Max(v.X, other.X),
		math32.Max(v.Y, other.Y),
		math32.Max(v.Z, other.Z)}
}

/**
 * @brief Returns the squared length of the provided vector.
 */
func (v Vec3) LengthSquared() float32 {
	return v.X*v.X + v.Y*v.Y + v.Z*v.Z
}

/**
 * @brief Returns the length of the provided vector.
 */
func (v Vec3) Length() float32 {
	return math32.Sqrt(v.LengthSquared())
}

/**
 * @brief Returns the dot product between the provided vectors.
 */
func (v Vec3) Dot(other Vec3) float32 {
	p := float32(0)
	p += v.X * other.X
	p += v.Y * other.Y
	p += v.Z * other.Z
	return p
}

/**
 * @brief Calculates and returns the cross product of the supplied vectors.
 */
func (v Vec3) Cross(other Vec3) Vec3 {
	return Vec3{
		v.Y*other.Z - v.Z*other.Y,
		v.Z*other.X - v.X*other.Z,
		v.X*other.Y - v.Y*other.X}
}

/**
 * @brief Compares all elements of v and other and ensures the difference
 * is less than tolerance.
 */
func (v Vec3) Compare(other Vec3, tolerance float32) bool {
	if math32.Abs(v.X-other.X) > tolerance {
		return false
	}

	if math32.Abs(v.Y-other.Y) > tolerance {
		return false
	}

	if math32.Abs(v.Z-other.Z) > tolerance {
		return false
	}

	return true
}

// DistanceSquared returns the squared distance between v and other.
func (v Vec3) DistanceSquared(other Vec3) float32 {
	return v.Sub(other).LengthSquared()
}

/**
 * @brief Returns the distance between v and other.
 */
func (v Vec3) Distance(other Vec3) float32 {
	return v.Sub(other).Length()
}

// Component returns the value along the given axis (AxisX, AxisY or AxisZ).
func (v Vec3) Component(axis int) float32 {
	switch axis {
	case AxisX:
		return v.X
	case AxisY:
		return v.Y
	default:
		return v.Z
	}
}

// MaxComponentAxis returns the axis holding the largest component.
// Ties resolve to the lowest axis.
func (v Vec3) MaxComponentAxis() int {
	axis := AxisX
	if v.Y > v.Component(axis) {
		axis = AxisY
	}
	if v.Z > v.Component(axis) {
		axis = AxisZ
	}
	return axis
}
