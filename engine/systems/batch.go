package systems

import (
	"context"
	"fmt"

	"github.com/spaghettifunk/meshpart/engine/core"
	"github.com/spaghettifunk/meshpart/engine/grouper"
	"github.com/spaghettifunk/meshpart/engine/math"
	"github.com/spaghettifunk/meshpart/engine/metadata"
)

// Batch is one group of spatially coherent triangles.
type Batch struct {
	Triangles []uint32   `json:"triangles"`
	Bounds    math.AABox `json:"bounds"`
}

// BatchBuilder groups the triangles of a mesh into batches of GroupSize.
type BatchBuilder struct {
	grouper   grouper.Grouper
	groupSize int
}

func NewBatchBuilder(g grouper.Grouper, groupSize int) (*BatchBuilder, error) {
	if g == nil {
		return nil, fmt.Errorf("%w: nil grouper", core.ErrInvalidArgument)
	}
	if groupSize < 1 {
		return nil, fmt.Errorf("%w: group size must be at least 1, got %d", core.ErrInvalidArgument, groupSize)
	}
	return &BatchBuilder{grouper: g, groupSize: groupSize}, nil
}

// Build runs the grouper and slices its output. Grouping itself cannot be
// interrupted; ctx is checked before it starts.
func (bb *BatchBuilder) Build(ctx context.Context, mesh *metadata.Mesh) ([]Batch, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	clock := core.NewClock()
	clock.Start()

	order, err := bb.grouper.Group(mesh.Vertices, mesh.Triangles, bb.groupSize)
	if err != nil {
		return nil, fmt.Errorf("batch: grouping %q: %w", mesh.Name, err)
	}

	batches := make([]Batch, 0, (len(order)+bb.groupSize-1)/bb.groupSize)
	for start := 0; start < len(order); start += bb.groupSize {
		end := min(start+bb.groupSize, len(order))
		b := Batch{
			Triangles: order[start:end:end],
			Bounds:    math.NewEmptyAABox(),
		}
		for _, t := range b.Triangles {
			b.Bounds.EncapsulateTriangle(mesh.Vertices, mesh.Triangles[t])
		}
		batches = append(batches, b)
	}

	clock.Stop()
	core.MetricsRecordBuild("batch", clock.Elapsed())
	core.LogDebug("batch: %d triangles into %d batches of %d", len(order), len(batches), bb.groupSize)
	return batches, nil
}
