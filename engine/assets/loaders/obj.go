package loaders

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/spaghettifunk/meshpart/engine/core"
	"github.com/spaghettifunk/meshpart/engine/math"
	"github.com/spaghettifunk/meshpart/engine/metadata"
)

// MaxObjLineSize is the longest OBJ line ParseObj accepts. Large polygons
// put every corner on a single face line.
const MaxObjLineSize = 16 * 1024 * 1024

// ObjLoader reads Wavefront OBJ files. Only positions and faces are kept;
// polygons are fan-triangulated and every `usemtl` switch gets its own
// material index in order of first appearance.
type ObjLoader struct{}

func (ol *ObjLoader) Load(path string, params interface{}) (*metadata.Resource, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	name := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	mesh, err := ParseObj(name, file)
	if err != nil {
		return nil, fmt.Errorf("obj %s: %w", path, err)
	}

	return &metadata.Resource{
		Name:     mesh.Name,
		FullPath: path,
		Type:     metadata.ResourceTypeMesh,
		DataSize: mesh.DataSize(),
		Data:     mesh,
	}, nil
}

func (ol *ObjLoader) Unload(resource *metadata.Resource) error {
	if resource == nil {
		return fmt.Errorf("%w: nil resource", core.ErrInvalidArgument)
	}
	resource.Data = nil
	resource.DataSize = 0
	return nil
}

// ParseObj reads an OBJ stream into an indexed mesh.
func ParseObj(name string, r io.Reader) (*metadata.Mesh, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), MaxObjLineSize)
	mesh := &metadata.Mesh{Name: name}
	materials := map[string]uint32{}
	var material uint32

	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())

		// Skip comments and empty lines
		if strings.HasPrefix(line, "#") || line == "" {
			continue
		}

		fields := strings.Fields(line)
		switch fields[0] {
		case "v":
			if len(fields) < 4 {
				return nil, fmt.Errorf("line %d: %w: vertex needs 3 coordinates", lineNo, core.ErrInvalidArgument)
			}
			var p [3]float32
			for i := range p {
				f, err := strconv.ParseFloat(fields[i+1], 32)
				if err != nil {
					return nil, fmt.Errorf("line %d: invalid coordinate %q: %w", lineNo, fields[i+1], err)
				}
				p[i] = float32(f)
			}
			mesh.Vertices = append(mesh.Vertices, math.NewVec3(p[0], p[1], p[2]))
		case "f":
			if len(fields) < 4 {
				return nil, fmt.Errorf("line %d: %w: face needs at least 3 vertices", lineNo, core.ErrInvalidArgument)
			}
			idx := make([]uint32, 0, len(fields)-1)
			for _, f := range fields[1:] {
				i, err := parseFaceIndex(f, len(mesh.Vertices))
				if err != nil {
					return nil, fmt.Errorf("line %d: %w", lineNo, err)
				}
				idx = append(idx, i)
			}
			// Fan triangulation around the first corner
			for i := 1; i+1 < len(idx); i++ {
				mesh.Triangles = append(mesh.Triangles, math.NewIndexedTriangle(idx[0], idx[i], idx[i+1], material))
			}
		case "usemtl":
			mtl := ""
			if len(fields) > 1 {
				mtl = fields[1]
			}
			m, ok := materials[mtl]
			if !ok {
				m = uint32(len(materials))
				materials[mtl] = m
			}
			material = m
		case "o":
			if len(fields) > 1 && mesh.Name == "" {
				mesh.Name = fields[1]
			}
		case "vn", "vt", "vp", "g", "s", "mtllib", "l":
			// Not needed for partitioning
		default:
			core.LogWarn("obj: unknown keyword '%s' on line %d. Skipping...", fields[0], lineNo)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	if mesh.IsEmpty() {
		return nil, core.ErrEmptyMesh
	}
	for i := range mesh.Triangles {
		mesh.Triangles[i].UserData = uint32(i)
	}
	core.LogDebug("obj: parsed '%s' with %d vertices and %d triangles", mesh.Name, mesh.VertexCount(), mesh.TriangleCount())
	return mesh, nil
}

// parseFaceIndex resolves a face corner such as "7", "7/1", "7//3" or "-1"
// into a zero-based vertex index.
func parseFaceIndex(corner string, numVertices int) (uint32, error) {
	pos, _, _ := strings.Cut(corner, "/")
	i, err := strconv.Atoi(pos)
	if err != nil {
		return 0, fmt.Errorf("invalid face index %q: %w", corner, err)
	}
	switch {
	case i > 0:
		i--
	case i < 0:
		i += numVertices
	default:
		return 0, fmt.Errorf("%w: face index 0", core.ErrOutOfRange)
	}
	if i < 0 || i >= numVertices {
		return 0, fmt.Errorf("%w: face index %q with %d vertices", core.ErrOutOfRange, corner, numVertices)
	}
	return uint32(i), nil
}
