// Package preview rasterises a partitioned mesh into an image, one colour per
// group, so that the spatial coherence of leaves and batches can be eyeballed.
package preview

import (
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"image/png"
	"io"
	"slices"

	"github.com/chewxy/math32"
	"golang.org/x/image/vector"

	"github.com/spaghettifunk/meshpart/engine/core"
	"github.com/spaghettifunk/meshpart/engine/math"
	"github.com/spaghettifunk/meshpart/engine/metadata"
)

type Options struct {
	Width      int
	Height     int
	Padding    int
	Background color.RGBA
}

func DefaultOptions() Options {
	return Options{
		Width:      512,
		Height:     512,
		Padding:    16,
		Background: color.RGBA{R: 24, G: 24, B: 28, A: 255},
	}
}

// ungrouped is used for triangles that do not belong to any group.
var ungrouped = color.RGBA{R: 96, G: 96, B: 96, A: 255}

// Palette returns a distinct colour for group i. Hues are spread with the
// golden angle so that neighbouring groups never look alike.
func Palette(i int) color.RGBA {
	const goldenAngle = 137.50776
	h := math32.Mod(float32(i)*goldenAngle, 360)
	return hsv(h, 0.65, 0.95)
}

func hsv(h, s, v float32) color.RGBA {
	c := v * s
	x := c * (1 - math32.Abs(math32.Mod(h/60, 2)-1))
	m := v - c
	var r, g, b float32
	switch {
	case h < 60:
		r, g, b = c, x, 0
	case h < 120:
		r, g, b = x, c, 0
	case h < 180:
		r, g, b = 0, c, x
	case h < 240:
		r, g, b = 0, x, c
	case h < 300:
		r, g, b = x, 0, c
	default:
		r, g, b = c, 0, x
	}
	return color.RGBA{
		R: uint8(math.Clamp((r+m)*255, 0, 255)),
		G: uint8(math.Clamp((g+m)*255, 0, 255)),
		B: uint8(math.Clamp((b+m)*255, 0, 255)),
		A: 255,
	}
}

// projection drops the axis along which the mesh is thinnest and maps the
// remaining two onto the image.
type projection struct {
	u, v, depth int
	origin      math.Vec3
	scale       float32
	offsetX     float32
	offsetY     float32
	height      float32
}

func newProjection(bounds math.AABox, opts Options) projection {
	size := bounds.Size()
	depth := math.AxisX
	for axis := math.AxisY; axis <= math.AxisZ; axis++ {
		if size.Component(axis) < size.Component(depth) {
			depth = axis
		}
	}
	p := projection{depth: depth, origin: bounds.Min, height: float32(opts.Height)}
	switch depth {
	case math.AxisX:
		p.u, p.v = math.AxisY, math.AxisZ
	case math.AxisY:
		p.u, p.v = math.AxisX, math.AxisZ
	default:
		p.u, p.v = math.AxisX, math.AxisY
	}

	availW := float32(opts.Width - 2*opts.Padding)
	availH := float32(opts.Height - 2*opts.Padding)
	extentU := max(size.Component(p.u), math.K_FLOAT_EPSILON)
	extentV := max(size.Component(p.v), math.K_FLOAT_EPSILON)
	p.scale = min(availW/extentU, availH/extentV)
	p.offsetX = float32(opts.Padding) + (availW-extentU*p.scale)/2
	p.offsetY = float32(opts.Padding) + (availH-extentV*p.scale)/2
	return p
}

func (p projection) project(v math.Vec3) (float32, float32) {
	d := v.Sub(p.origin)
	x := p.offsetX + d.Component(p.u)*p.scale
	// Image y grows downwards
	y := p.height - (p.offsetY + d.Component(p.v)*p.scale)
	return x, y
}

// Render draws every triangle of mesh coloured by the group it belongs to.
// groups holds triangle indices, for example the leaves of a tree or the
// batches of a grouper.
func Render(mesh *metadata.Mesh, groups [][]uint32, opts Options) (*image.RGBA, error) {
	if mesh == nil || mesh.IsEmpty() {
		return nil, core.ErrEmptyMesh
	}
	if opts.Width <= 2*opts.Padding || opts.Height <= 2*opts.Padding {
		return nil, fmt.Errorf("%w: image %dx%d too small for padding %d", core.ErrInvalidArgument, opts.Width, opts.Height, opts.Padding)
	}

	groupOf := make([]int32, mesh.TriangleCount())
	for i := range groupOf {
		groupOf[i] = -1
	}
	for g, tris := range groups {
		for _, t := range tris {
			if int(t) >= len(groupOf) {
				return nil, fmt.Errorf("%w: group %d references triangle %d of %d", core.ErrOutOfRange, g, t, len(groupOf))
			}
			groupOf[t] = int32(g)
		}
	}

	img := image.NewRGBA(image.Rect(0, 0, opts.Width, opts.Height))
	draw.Draw(img, img.Bounds(), &image.Uniform{C: opts.Background}, image.Point{}, draw.Src)

	proj := newProjection(mesh.Bounds(), opts)

	// Painter's order: furthest triangles first
	order := make([]int, mesh.TriangleCount())
	depths := make([]float32, mesh.TriangleCount())
	for i, t := range mesh.Triangles {
		order[i] = i
		depths[i] = t.Centroid(mesh.Vertices).Component(proj.depth)
	}
	slices.SortStableFunc(order, func(a, b int) int {
		switch {
		case depths[a] < depths[b]:
			return -1
		case depths[a] > depths[b]:
			return 1
		default:
			return 0
		}
	})

	var z vector.Rasterizer
	for _, i := range order {
		t := mesh.Triangles[i]
		var xs, ys [3]float32
		for c := 0; c < 3; c++ {
			xs[c], ys[c] = proj.project(mesh.Vertices[t.Idx[c]])
		}
		minX := int(math32.Floor(min(xs[0], xs[1], xs[2])))
		minY := int(math32.Floor(min(ys[0], ys[1], ys[2])))
		maxX := int(math32.Ceil(max(xs[0], xs[1], xs[2])))
		maxY := int(math32.Ceil(max(ys[0], ys[1], ys[2])))
		r := image.Rect(minX, minY, maxX+1, maxY+1).Intersect(img.Bounds())
		if r.Empty() {
			continue
		}

		col := ungrouped
		if g := groupOf[i]; g >= 0 {
			col = Palette(int(g))
		}
		col = shade(col, t, mesh.Vertices, proj.depth)

		// Rasterise in a window around the triangle only
		z.Reset(r.Dx(), r.Dy())
		z.DrawOp = draw.Over
		ox, oy := float32(r.Min.X), float32(r.Min.Y)
		z.MoveTo(xs[0]-ox, ys[0]-oy)
		z.LineTo(xs[1]-ox, ys[1]-oy)
		z.LineTo(xs[2]-ox, ys[2]-oy)
		z.ClosePath()
		z.Draw(img, r, &image.Uniform{C: col}, image.Point{})
	}

	return img, nil
}

// shade darkens faces that are seen at a grazing angle.
func shade(c color.RGBA, t math.IndexedTriangle, vertices math.VertexList, depthAxis int) color.RGBA {
	v0 := vertices[t.Idx[0]]
	n := vertices[t.Idx[1]].Sub(v0).Cross(vertices[t.Idx[2]].Sub(v0))
	l := n.Length()
	if l <= math.K_FLOAT_EPSILON {
		return c
	}
	f := 0.45 + 0.55*math32.Abs(n.Component(depthAxis)/l)
	return color.RGBA{
		R: uint8(float32(c.R) * f),
		G: uint8(float32(c.G) * f),
		B: uint8(float32(c.B) * f),
		A: c.A,
	}
}

// WritePNG encodes img as PNG.
func WritePNG(w io.Writer, img image.Image) error {
	return png.Encode(w, img)
}

// ReportGroups returns the triangle lists of the leaves of a report, or its
// batches when batches is true.
func ReportGroups(report *metadata.Report, batches bool) [][]uint32 {
	if batches {
		return report.Batches
	}
	groups := make([][]uint32, len(report.Leaves))
	for i, l := range report.Leaves {
		groups[i] = l.Triangles
	}
	return groups
}
