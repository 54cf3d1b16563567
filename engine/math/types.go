package math

// Vec3 represents a 3D vector
type Vec3 struct {
	X, Y, Z float32
}

/** @brief An ordered list of vertex positions, indexed by IndexedTriangle. */
type VertexList []Vec3

/**
 * @brief Represents the extents of a 3d object. An empty box has its
 * minimum at +infinity and its maximum at -infinity.
 */
type AABox struct {
	/** @brief The minimum extents of the object. */
	Min Vec3
	/** @brief The maximum extents of the object. */
	Max Vec3
}

/**
 * @brief A triangle made of three indices into a VertexList.
 */
type IndexedTriangleNoMaterial struct {
	Idx [3]uint32
}

/**
 * @brief An indexed triangle carrying a material and arbitrary user data,
 * e.g. the index of the triangle in the source mesh.
 */
type IndexedTriangle struct {
	IndexedTriangleNoMaterial
	/** @brief Material or group tag, never interpreted by the partitioners. */
	MaterialIndex uint32
	/** @brief Free for the application to use. */
	UserData uint32
}

type IndexedTriangleList []IndexedTriangle

/**
 * @brief A triangle with its vertex positions stored inline.
 */
type Triangle struct {
	V [3]Vec3
	/** @brief Material or group tag, carried through Indexify. */
	MaterialIndex uint32
}

type TriangleList []Triangle
