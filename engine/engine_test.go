package engine

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"slices"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spaghettifunk/meshpart/engine/assets"
	"github.com/spaghettifunk/meshpart/engine/core"
	"github.com/spaghettifunk/meshpart/engine/metadata"
	"github.com/spaghettifunk/meshpart/testbed"
)

func newEngine(t *testing.T, cfg *metadata.Config) *Engine {
	t.Helper()
	e, err := New(cfg)
	require.NoError(t, err)
	require.NoError(t, e.Initialize())
	t.Cleanup(func() {
		assert.NoError(t, e.Shutdown())
	})
	return e
}

// coversOnce asserts that groups hold every triangle index below n exactly once.
func coversOnce(t *testing.T, n int, groups [][]uint32) {
	t.Helper()
	all := []uint32{}
	for _, g := range groups {
		all = append(all, g...)
	}
	slices.Sort(all)
	require.Len(t, all, n)
	for i, v := range all {
		require.Equal(t, uint32(i), v)
	}
}

func TestStageString(t *testing.T) {
	assert.Equal(t, "uninitialized", EngineStageUninitialized.String())
	assert.Equal(t, "running", EngineStageRunning.String())
	assert.Equal(t, "Stage(42)", Stage(42).String())
}

func TestNewValidatesConfig(t *testing.T) {
	e, err := New(nil)
	require.NoError(t, err)
	assert.Equal(t, metadata.DefaultConfig(), e.Config())
	assert.Equal(t, EngineStageUninitialized, e.Stage())

	cfg := metadata.DefaultConfig()
	cfg.Workers = 0
	_, err = New(cfg)
	assert.ErrorIs(t, err, core.ErrInvalidArgument)

	cfg = metadata.DefaultConfig()
	cfg.Splitter.Kind = "octree"
	_, err = New(cfg)
	assert.ErrorIs(t, err, core.ErrUnknownKind)
}

func TestLifecycle(t *testing.T) {
	e, err := New(nil)
	require.NoError(t, err)

	_, err = e.Partition(context.Background(), testbed.Cube())
	assert.ErrorIs(t, err, ErrNotInitialized)
	_, err = e.Group(context.Background(), testbed.Cube())
	assert.ErrorIs(t, err, ErrNotInitialized)
	_, err = e.LoadMesh("sdf:sphere")
	assert.ErrorIs(t, err, ErrNotInitialized)

	// Shutting down an engine that never started is a no-op
	require.NoError(t, e.Shutdown())

	require.NoError(t, e.Initialize())
	assert.Equal(t, EngineStageInitialized, e.Stage())
	assert.ErrorIs(t, e.Initialize(), core.ErrInvalidArgument)

	require.NoError(t, e.Shutdown())
	assert.Equal(t, EngineStageShutdown, e.Stage())
	require.NoError(t, e.Shutdown())

	_, err = e.Partition(context.Background(), testbed.Cube())
	assert.ErrorIs(t, err, ErrNotInitialized)
}

func TestInitializeFailureResets(t *testing.T) {
	watcherErr := errors.New("too many open files")
	newAssetManager = func() (*assets.AssetManager, error) {
		return nil, watcherErr
	}
	t.Cleanup(func() { newAssetManager = assets.NewAssetManager })

	e, err := New(nil)
	require.NoError(t, err)
	assert.ErrorIs(t, e.Initialize(), watcherErr)
	assert.Equal(t, EngineStageUninitialized, e.Stage())

	require.NotPanics(t, func() {
		assert.NoError(t, e.Shutdown())
	})
	_, err = e.Partition(context.Background(), testbed.Cube())
	assert.ErrorIs(t, err, ErrNotInitialized)

	// Once the watcher is available again the engine starts normally
	newAssetManager = assets.NewAssetManager
	require.NoError(t, e.Initialize())
	assert.Equal(t, EngineStageInitialized, e.Stage())
	require.NoError(t, e.Shutdown())
}

func TestShutdownWithoutSubsystems(t *testing.T) {
	e, err := New(nil)
	require.NoError(t, err)
	// An engine stuck half way must still shut down cleanly
	e.currentStage = EngineStageInitializing
	require.NotPanics(t, func() {
		assert.NoError(t, e.Shutdown())
	})
	assert.Equal(t, EngineStageShutdown, e.Stage())
}

func TestPartition(t *testing.T) {
	e := newEngine(t, nil)
	mesh := testbed.Grid(8)

	report, err := e.Partition(context.Background(), mesh)
	require.NoError(t, err)

	assert.NotEmpty(t, report.ID)
	assert.Equal(t, "grid_8", report.MeshName)
	assert.Equal(t, "binning", report.Splitter)
	assert.Equal(t, "morton", report.Grouper)
	assert.Equal(t, 128, report.Triangles)
	assert.Equal(t, 81, report.Vertices)
	assert.Greater(t, report.Depth, 1)
	assert.Positive(t, report.Duration)

	leaves := make([][]uint32, len(report.Leaves))
	next := uint32(0)
	for i, l := range report.Leaves {
		assert.Equal(t, next, l.Begin, "leaves are contiguous")
		assert.LessOrEqual(t, len(l.Triangles), report.MaxLeafSize)
		assert.Len(t, l.Triangles, int(l.End-l.Begin))
		for _, tri := range l.Triangles {
			assert.True(t, l.Bounds.Contains(mesh.Triangles[tri].Bounds(mesh.Vertices)))
		}
		leaves[i] = l.Triangles
		next = l.End
	}
	coversOnce(t, 128, leaves)
	assert.Equal(t, uint64(len(report.Leaves)-1), report.Stats.NumSplits)

	require.Len(t, report.Batches, 16)
	coversOnce(t, 128, report.Batches)
}

func TestPartitionEverySplitter(t *testing.T) {
	for _, kind := range []string{"longest_axis", "mean", "morton", "binning", "fixed_leaf_size"} {
		t.Run(kind, func(t *testing.T) {
			cfg := metadata.DefaultConfig()
			cfg.Workers = 2
			cfg.Splitter.Kind = kind
			cfg.Grouper.Kind = "closest_centroid"
			e := newEngine(t, cfg)

			mesh := testbed.RandomSoup(7, 300)
			report, err := e.Partition(context.Background(), mesh)
			require.NoError(t, err)
			assert.Equal(t, kind, report.Splitter)
			assert.Equal(t, "closest_centroid", report.Grouper)

			for _, size := range report.LeafSizes() {
				assert.LessOrEqual(t, size, cfg.Splitter.LeafSize)
			}
			leaves := make([][]uint32, len(report.Leaves))
			for i, l := range report.Leaves {
				leaves[i] = l.Triangles
			}
			coversOnce(t, 300, leaves)
			coversOnce(t, 300, report.Batches)
		})
	}
}

func TestPartitionCoincidentCentroids(t *testing.T) {
	e := newEngine(t, nil)
	report, err := e.Partition(context.Background(), testbed.Stacked(9))
	require.NoError(t, err)
	assert.Positive(t, report.Stats.NumFallbackSplits)
	for _, size := range report.LeafSizes() {
		assert.LessOrEqual(t, size, 4)
	}
}

func TestPartitionErrors(t *testing.T) {
	e := newEngine(t, nil)

	_, err := e.Partition(context.Background(), &metadata.Mesh{Name: "empty"})
	assert.ErrorIs(t, err, core.ErrEmptyMesh)
	_, err = e.Group(context.Background(), nil)
	assert.ErrorIs(t, err, core.ErrEmptyMesh)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = e.Partition(ctx, testbed.Grid(4))
	assert.ErrorIs(t, err, context.Canceled)
}

func TestGroup(t *testing.T) {
	cfg := metadata.DefaultConfig()
	cfg.Grouper.GroupSize = 5
	e := newEngine(t, cfg)

	batches, err := e.Group(context.Background(), testbed.Cube())
	require.NoError(t, err)
	require.Len(t, batches, 3)
	assert.Len(t, batches[2].Triangles, 2)

	groups := make([][]uint32, len(batches))
	for i, b := range batches {
		groups[i] = b.Triangles
	}
	coversOnce(t, 12, groups)
}

func TestReconfigure(t *testing.T) {
	e := newEngine(t, nil)

	cfg := metadata.DefaultConfig()
	cfg.Splitter.Kind = "mean"
	cfg.Splitter.LeafSize = 2
	require.NoError(t, e.Reconfigure(cfg))

	report, err := e.Partition(context.Background(), testbed.Cube())
	require.NoError(t, err)
	assert.Equal(t, "mean", report.Splitter)
	assert.Equal(t, 2, report.MaxLeafSize)

	bad := metadata.DefaultConfig()
	bad.Grouper.GroupSize = 0
	assert.ErrorIs(t, e.Reconfigure(bad), core.ErrInvalidArgument)
	assert.Equal(t, cfg, e.Config())
}

func TestLoadMesh(t *testing.T) {
	e := newEngine(t, nil)

	mesh, err := e.LoadMesh("sdf:box")
	require.NoError(t, err)
	assert.False(t, mesh.IsEmpty())

	path := filepath.Join(t.TempDir(), "tri.obj")
	require.NoError(t, os.WriteFile(path, []byte("v 0 0 0\nv 1 0 0\nv 0 1 0\nf 1 2 3\n"), 0o644))
	mesh, err = e.LoadMesh(path)
	require.NoError(t, err)
	assert.Equal(t, "tri", mesh.Name)
	assert.Equal(t, 1, mesh.TriangleCount())

	cfgPath := filepath.Join(t.TempDir(), "meshpart.toml")
	require.NoError(t, os.WriteFile(cfgPath, []byte("workers = 2\n"), 0o644))
	_, err = e.LoadMesh(cfgPath)
	assert.ErrorIs(t, err, core.ErrInvalidArgument)
}

type watchEvent struct {
	path   string
	report *metadata.Report
}

func TestWatch(t *testing.T) {
	e := newEngine(t, nil)
	dir := t.TempDir()
	existing := filepath.Join(dir, "existing.obj")
	require.NoError(t, os.WriteFile(existing, []byte("v 0 0 0\nv 1 0 0\nv 0 1 0\nf 1 2 3\n"), 0o644))

	events := make(chan watchEvent, 64)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- e.Watch(ctx, dir, func(path string, report *metadata.Report, err error) {
			// Partially written files may fail to parse, only successes count
			if err == nil {
				events <- watchEvent{path: path, report: report}
			}
		})
	}()

	waitFor := func(path string) *metadata.Report {
		t.Helper()
		deadline := time.After(5 * time.Second)
		for {
			select {
			case ev := <-events:
				if ev.path == path {
					return ev.report
				}
			case <-deadline:
				t.Fatalf("no report for %s", path)
				return nil
			}
		}
	}

	report := waitFor(existing)
	assert.Equal(t, 1, report.Triangles)
	assert.Equal(t, EngineStageRunning, e.Stage())

	grid := filepath.Join(dir, "grid.obj")
	require.NoError(t, os.WriteFile(grid, []byte(
		"v 0 0 0\nv 1 0 0\nv 1 1 0\nv 0 1 0\nf 1 2 3 4\n"), 0o644))
	report = waitFor(grid)
	assert.Equal(t, 2, report.Triangles)

	cancel()
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("watch did not return after cancel")
	}
	assert.Equal(t, EngineStageInitialized, e.Stage())
}

func TestReports(t *testing.T) {
	e := newEngine(t, nil)
	assert.Empty(t, e.Reports())

	first, err := e.Partition(context.Background(), testbed.Quad())
	require.NoError(t, err)
	second, err := e.Partition(context.Background(), testbed.Cube())
	require.NoError(t, err)
	assert.Equal(t, []*metadata.Report{first, second}, e.Reports())

	for i := 0; i < HistorySize; i++ {
		_, err := e.Partition(context.Background(), testbed.Quad())
		require.NoError(t, err)
	}
	reports := e.Reports()
	assert.Len(t, reports, HistorySize)
	assert.NotContains(t, reports, first)
}
