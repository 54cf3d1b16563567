package loaders

import (
	"fmt"
	"slices"
	"strings"

	"github.com/deadsy/sdfx/render"
	"github.com/deadsy/sdfx/sdf"
	v3 "github.com/deadsy/sdfx/vec/v3"

	"github.com/spaghettifunk/meshpart/engine/core"
	"github.com/spaghettifunk/meshpart/engine/math"
	"github.com/spaghettifunk/meshpart/engine/metadata"
)

// ProceduralPrefix marks a mesh argument that names a generated shape.
const ProceduralPrefix = "sdf:"

// DefaultMeshCells is the marching cubes resolution along the longest axis.
const DefaultMeshCells = 24

// ProceduralParams tunes the generated mesh.
type ProceduralParams struct {
	Cells        int
	WeldDistance float32
}

var shapes = map[string]func() (sdf.SDF3, error){
	"sphere": func() (sdf.SDF3, error) {
		return sdf.Sphere3D(1)
	},
	"box": func() (sdf.SDF3, error) {
		return sdf.Box3D(v3.Vec{X: 2, Y: 1, Z: 1}, 0)
	},
	"cylinder": func() (sdf.SDF3, error) {
		return sdf.Cylinder3D(2, 0.5, 0)
	},
	"bracket": func() (sdf.SDF3, error) {
		base, err := sdf.Box3D(v3.Vec{X: 3, Y: 1, Z: 0.25}, 0)
		if err != nil {
			return nil, err
		}
		post, err := sdf.Cylinder3D(1.5, 0.3, 0)
		if err != nil {
			return nil, err
		}
		post = sdf.Transform3D(post, sdf.Translate3d(v3.Vec{X: 1, Y: 0, Z: 0.75}))
		return sdf.Union3D(base, post), nil
	},
}

// Shapes lists the procedural shape names in sorted order.
func Shapes() []string {
	names := make([]string, 0, len(shapes))
	for name := range shapes {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// IsProcedural returns true if path names a generated shape.
func IsProcedural(path string) bool {
	return strings.HasPrefix(path, ProceduralPrefix)
}

// ProceduralLoader meshes signed distance functions with marching cubes.
// Paths have the form "sdf:<shape>".
type ProceduralLoader struct{}

func (pl *ProceduralLoader) Load(path string, params interface{}) (*metadata.Resource, error) {
	p := ProceduralParams{Cells: DefaultMeshCells, WeldDistance: math.DefaultWeldDistance}
	if pp, ok := params.(ProceduralParams); ok {
		if pp.Cells > 0 {
			p.Cells = pp.Cells
		}
		if pp.WeldDistance >= 0 {
			p.WeldDistance = pp.WeldDistance
		}
	}

	mesh, err := GenerateMesh(strings.TrimPrefix(path, ProceduralPrefix), p)
	if err != nil {
		return nil, err
	}
	return &metadata.Resource{
		Name:     mesh.Name,
		FullPath: path,
		Type:     metadata.ResourceTypeProcedural,
		DataSize: mesh.DataSize(),
		Data:     mesh,
	}, nil
}

func (pl *ProceduralLoader) Unload(resource *metadata.Resource) error {
	if resource == nil {
		return fmt.Errorf("%w: nil resource", core.ErrInvalidArgument)
	}
	resource.Data = nil
	resource.DataSize = 0
	return nil
}

// GenerateMesh renders the named shape and welds the marching cubes output
// into an indexed mesh.
func GenerateMesh(shape string, params ProceduralParams) (*metadata.Mesh, error) {
	build, ok := shapes[shape]
	if !ok {
		return nil, fmt.Errorf("%w: shape %q, expected one of %v", core.ErrUnknownKind, shape, Shapes())
	}
	if params.Cells < 1 {
		return nil, fmt.Errorf("%w: cells must be at least 1, got %d", core.ErrInvalidArgument, params.Cells)
	}
	s, err := build()
	if err != nil {
		return nil, fmt.Errorf("sdf %s: %w", shape, err)
	}

	renderer := render.NewMarchingCubesUniform(params.Cells)
	soup := render.ToTriangles(s, renderer)
	if len(soup) == 0 {
		return nil, fmt.Errorf("sdf %s: %w", shape, core.ErrEmptyMesh)
	}

	triangles := make(math.TriangleList, len(soup))
	for i, tri := range soup {
		for j := 0; j < 3; j++ {
			v := tri[j]
			triangles[i].V[j] = math.NewVec3(float32(v.X), float32(v.Y), float32(v.Z))
		}
	}

	vertices, indexed := math.Indexify(triangles, params.WeldDistance)
	core.LogDebug("sdf: generated '%s' with %d vertices and %d triangles", shape, len(vertices), len(indexed))

	return &metadata.Mesh{
		Name:      shape,
		Vertices:  vertices,
		Triangles: indexed,
	}, nil
}
