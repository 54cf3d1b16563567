package metadata

type ResourceType int

/** @brief Pre-defined resource types. */
const (
	/** @brief Unknown or unsupported file. */
	ResourceTypeNone ResourceType = iota
	/** @brief Wavefront OBJ triangle mesh. */
	ResourceTypeMesh
	/** @brief Procedural mesh generated from a signed distance function. */
	ResourceTypeProcedural
	/** @brief Partition configuration (TOML). */
	ResourceTypeConfig
)

func (rt ResourceType) String() string {
	switch rt {
	case ResourceTypeMesh:
		return "mesh"
	case ResourceTypeProcedural:
		return "procedural"
	case ResourceTypeConfig:
		return "config"
	default:
		return "none"
	}
}

/**
 * @brief A generic structure for a resource. All resource loaders
 * load data into these.
 */
type Resource struct {
	/** @brief The name of the resource. */
	Name string
	/** @brief The full file path of the resource. */
	FullPath string
	/** @brief The resource type. */
	Type ResourceType
	/** @brief The size of the resource data in bytes. */
	DataSize uint64
	/** @brief The resource data. */
	Data interface{}
}
