package math

// MortonBits is the number of bits per axis in a Morton code.
const MortonBits = 10

// mortonMax is the largest quantized coordinate, 2^MortonBits - 1.
const mortonMax = 1<<MortonBits - 1

// ExpandBits spreads the low 10 bits of v so that bit i lands on bit 3i,
// leaving two zero bits after each input bit. Bits above the tenth are
// truncated, so the result never exceeds 30 bits.
func ExpandBits(v uint32) uint32 {
	v &= mortonMax
	v = (v * 0x00010001) & 0xFF0000FF
	v = (v * 0x00000101) & 0x0F00F00F
	v = (v * 0x00000011) & 0xC30C30C3
	v = (v * 0x00000005) & 0x49249249
	return v
}

// QuantizeUnit maps f in [0, 1] to a 10 bit integer, rounding to nearest.
// Values outside [0, 1] are clamped.
func QuantizeUnit(f float32) uint32 {
	return uint32(Clamp(f, 0, 1)*mortonMax + 0.5)
}

// MortonCode returns the 30 bit Z-order key of point inside bounds, combined
// as x | y<<1 | z<<2. Points outside bounds are clamped onto it. An axis on
// which bounds has no extent quantizes to 0.
func MortonCode(point Vec3, bounds AABox) uint32 {
	size := bounds.Size()
	rel := point.Sub(bounds.Min)

	x := ExpandBits(QuantizeUnit(normalizeAxis(rel.X, size.X)))
	y := ExpandBits(QuantizeUnit(normalizeAxis(rel.Y, size.Y)))
	z := ExpandBits(QuantizeUnit(normalizeAxis(rel.Z, size.Z)))
	return x | y<<1 | z<<2
}

func normalizeAxis(rel, size float32) float32 {
	if size <= 0 {
		return 0
	}
	return rel / size
}

// MortonCodes computes the code of every point relative to the bounds of all points.
func MortonCodes(points []Vec3) []uint32 {
	bounds := CentroidBounds(points)
	codes := make([]uint32, len(points))
	for i, p := range points {
		codes[i] = MortonCode(p, bounds)
	}
	return codes
}
