package math

import (
	"github.com/chewxy/math32"
	"github.com/spaghettifunk/meshpart/engine/core"
)

// DefaultWeldDistance is the vertex weld distance used when none is configured.
const DefaultWeldDistance float32 = 1.0e-4

type weldCell [3]int32

// weldGrid buckets unique vertices in cubes of the weld distance so that a
// lookup only inspects the 27 cells around a point.
type weldGrid struct {
	cellSize float32
	cells    map[weldCell][]uint32
}

func newWeldGrid(cellSize float32) *weldGrid {
	return &weldGrid{cellSize: cellSize, cells: make(map[weldCell][]uint32)}
}

func (g *weldGrid) cell(p Vec3) weldCell {
	if g.cellSize <= 0 {
		return weldCell{int32(math32.Float32bits(p.X)), int32(math32.Float32bits(p.Y)), int32(math32.Float32bits(p.Z))}
	}
	return weldCell{
		int32(math32.Floor(p.X / g.cellSize)),
		int32(math32.Floor(p.Y / g.cellSize)),
		int32(math32.Floor(p.Z / g.cellSize)),
	}
}

func (g *weldGrid) find(vertices VertexList, p Vec3) (uint32, bool) {
	c := g.cell(p)
	if g.cellSize <= 0 {
		for _, idx := range g.cells[c] {
			if vertices[idx] == p {
				return idx, true
			}
		}
		return 0, false
	}

	weldSq := g.cellSize * g.cellSize
	for dx := int32(-1); dx <= 1; dx++ {
		for dy := int32(-1); dy <= 1; dy++ {
			for dz := int32(-1); dz <= 1; dz++ {
				for _, idx := range g.cells[weldCell{c[0] + dx, c[1] + dy, c[2] + dz}] {
					if vertices[idx].DistanceSquared(p) <= weldSq {
						return idx, true
					}
				}
			}
		}
	}
	return 0, false
}

func (g *weldGrid) add(p Vec3, idx uint32) {
	c := g.cell(p)
	g.cells[c] = append(g.cells[c], idx)
}

// Indexify takes a list of triangles and returns the unique set of vertices
// together with indexed triangles referencing them. Vertices that are at most
// weldDistance apart are combined into a single vertex; a weldDistance of 0
// only merges identical positions. UserData of every output triangle holds
// its index in the input.
func Indexify(triangles TriangleList, weldDistance float32) (VertexList, IndexedTriangleList) {
	grid := newWeldGrid(weldDistance)
	uniqueVerts := make(VertexList, 0, len(triangles))
	outTriangles := make(IndexedTriangleList, len(triangles))

	foundCount := 0
	for t, tri := range triangles {
		var idx [3]uint32
		for v := 0; v < 3; v++ {
			if u, found := grid.find(uniqueVerts, tri.V[v]); found {
				// Reuse, do not copy
				idx[v] = u
				foundCount++
				continue
			}
			// Copy over to unique
			idx[v] = uint32(len(uniqueVerts))
			grid.add(tri.V[v], idx[v])
			uniqueVerts = append(uniqueVerts, tri.V[v])
		}
		outTriangles[t] = NewIndexedTriangle(idx[0], idx[1], idx[2], tri.MaterialIndex)
		outTriangles[t].UserData = uint32(t)
	}

	core.LogDebug("indexify: welded %d vertices, orig/now %d/%d.", foundCount, len(triangles)*3, len(uniqueVerts))

	return uniqueVerts, outTriangles
}

// Deindexify unpacks indexed triangles into triangles holding their vertex
// positions inline.
func Deindexify(vertices VertexList, triangles IndexedTriangleList) TriangleList {
	out := make(TriangleList, len(triangles))
	for i, t := range triangles {
		out[i] = Triangle{
			V:             [3]Vec3{vertices[t.Idx[0]], vertices[t.Idx[1]], vertices[t.Idx[2]]},
			MaterialIndex: t.MaterialIndex,
		}
	}
	return out
}
