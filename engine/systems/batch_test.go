package systems

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spaghettifunk/meshpart/engine/core"
	"github.com/spaghettifunk/meshpart/engine/grouper"
	"github.com/spaghettifunk/meshpart/testbed"
)

func TestBatchBuilder(t *testing.T) {
	mesh := testbed.Grid(3) // 18 triangles
	for _, kind := range grouper.Kinds() {
		t.Run(kind.String(), func(t *testing.T) {
			g, err := grouper.New(kind)
			require.NoError(t, err)
			bb, err := NewBatchBuilder(g, 4)
			require.NoError(t, err)

			batches, err := bb.Build(context.Background(), mesh)
			require.NoError(t, err)
			require.Len(t, batches, 5)

			seen := make(map[uint32]bool)
			for i, b := range batches {
				if i < 4 {
					assert.Len(t, b.Triangles, 4)
				} else {
					assert.Len(t, b.Triangles, 2)
				}
				for _, tri := range b.Triangles {
					assert.False(t, seen[tri], "triangle %d in two batches", tri)
					seen[tri] = true
					assert.True(t, b.Bounds.Contains(mesh.Triangles[tri].Bounds(mesh.Vertices)))
				}
			}
			assert.Len(t, seen, 18)
		})
	}
}

func TestBatchBuilderCubeFaces(t *testing.T) {
	mesh := testbed.CubeFaces()
	bb, err := NewBatchBuilder(grouper.NewClosestCentroid(), 4)
	require.NoError(t, err)

	batches, err := bb.Build(context.Background(), mesh)
	require.NoError(t, err)
	require.Len(t, batches, 2)
	assert.Equal(t, float32(0), batches[0].Bounds.Max.X)
	assert.Equal(t, float32(1), batches[1].Bounds.Min.X)
}

func TestBatchBuilderErrors(t *testing.T) {
	_, err := NewBatchBuilder(nil, 4)
	assert.ErrorIs(t, err, core.ErrInvalidArgument)
	_, err = NewBatchBuilder(grouper.NewMorton(), 0)
	assert.ErrorIs(t, err, core.ErrInvalidArgument)

	bb, err := NewBatchBuilder(grouper.NewMorton(), 4)
	require.NoError(t, err)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = bb.Build(ctx, testbed.Cube())
	assert.ErrorIs(t, err, context.Canceled)
}
