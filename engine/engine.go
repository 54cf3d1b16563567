package engine

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"

	"github.com/spaghettifunk/meshpart/engine/assets"
	"github.com/spaghettifunk/meshpart/engine/assets/loaders"
	"github.com/spaghettifunk/meshpart/engine/containers"
	"github.com/spaghettifunk/meshpart/engine/core"
	"github.com/spaghettifunk/meshpart/engine/grouper"
	"github.com/spaghettifunk/meshpart/engine/metadata"
	"github.com/spaghettifunk/meshpart/engine/splitter"
	"github.com/spaghettifunk/meshpart/engine/systems"
)

type Stage uint8

const (
	// Engine is in an uninitialized state
	EngineStageUninitialized Stage = iota
	// Engine is currently initializing
	EngineStageInitializing
	// Engine initialization is complete
	EngineStageInitialized
	// Engine is watching a directory
	EngineStageRunning
	// Engine is in the process of shutting down
	EngineStageShuttingDown
	// Engine released every resource
	EngineStageShutdown
)

func (s Stage) String() string {
	switch s {
	case EngineStageUninitialized:
		return "uninitialized"
	case EngineStageInitializing:
		return "initializing"
	case EngineStageInitialized:
		return "initialized"
	case EngineStageRunning:
		return "running"
	case EngineStageShuttingDown:
		return "shutting down"
	case EngineStageShutdown:
		return "shutdown"
	default:
		return fmt.Sprintf("Stage(%d)", uint8(s))
	}
}

var ErrNotInitialized = errors.New("engine not initialized")

// newAssetManager is replaced in tests to simulate watcher failures.
var newAssetManager = assets.NewAssetManager

// jobQueueFactor sizes the job queue relative to the number of workers.
const jobQueueFactor = 4

// HistorySize is the number of partition reports the engine remembers.
const HistorySize = 32

// WatchFunc receives the outcome of every re-partition triggered by Watch.
type WatchFunc func(path string, report *metadata.Report, err error)

// Engine wires configuration, asset loading and the job system together and
// runs partitions on meshes.
type Engine struct {
	currentStage Stage
	config       *metadata.Config
	assetManager *assets.AssetManager
	jobSystem    *systems.JobSystem
	history      *containers.RingQueue[*metadata.Report]

	mutex sync.RWMutex
}

// New creates an engine. A nil cfg selects metadata.DefaultConfig.
func New(cfg *metadata.Config) (*Engine, error) {
	if cfg == nil {
		cfg = metadata.DefaultConfig()
	}
	if err := loaders.ValidateConfig(cfg); err != nil {
		return nil, err
	}
	return &Engine{
		currentStage: EngineStageUninitialized,
		config:       cfg,
		history:      containers.NewRingQueue[*metadata.Report](HistorySize),
	}, nil
}

// Initialize starts the job system and the asset manager. On failure the
// engine goes back to EngineStageUninitialized and can be initialized again.
func (e *Engine) Initialize() (err error) {
	e.mutex.Lock()
	defer e.mutex.Unlock()

	if e.currentStage != EngineStageUninitialized {
		return fmt.Errorf("%w: engine is %s", core.ErrInvalidArgument, e.currentStage)
	}
	e.currentStage = EngineStageInitializing
	defer func() {
		if err != nil {
			e.currentStage = EngineStageUninitialized
		}
	}()

	if err := core.SetLogLevel(e.config.LogLevel); err != nil {
		return err
	}
	if err := core.MetricsInitialize(); err != nil {
		return err
	}

	js, err := systems.NewJobSystem(e.config.Workers, e.config.Workers*jobQueueFactor)
	if err != nil {
		return err
	}
	am, err := newAssetManager()
	if err != nil {
		_ = js.Shutdown()
		return err
	}
	e.jobSystem = js
	e.assetManager = am

	e.currentStage = EngineStageInitialized
	core.LogInfo("engine initialized with %d workers, splitter %s, grouper %s", e.config.Workers, e.config.Splitter.Kind, e.config.Grouper.Kind)
	return nil
}

// Stage returns the current lifecycle stage.
func (e *Engine) Stage() Stage {
	e.mutex.RLock()
	defer e.mutex.RUnlock()
	return e.currentStage
}

// Config returns the active configuration.
func (e *Engine) Config() *metadata.Config {
	e.mutex.RLock()
	defer e.mutex.RUnlock()
	return e.config
}

// Reconfigure swaps the configuration used by later partitions. The worker
// count only changes on the next Initialize.
func (e *Engine) Reconfigure(cfg *metadata.Config) error {
	if err := loaders.ValidateConfig(cfg); err != nil {
		return err
	}
	if err := core.SetLogLevel(cfg.LogLevel); err != nil {
		return err
	}
	e.mutex.Lock()
	e.config = cfg
	e.mutex.Unlock()
	return nil
}

// Reports returns the most recent partition reports, oldest first.
func (e *Engine) Reports() []*metadata.Report {
	e.mutex.RLock()
	defer e.mutex.RUnlock()
	return e.history.Items()
}

func (e *Engine) ready() error {
	stage := e.Stage()
	if stage != EngineStageInitialized && stage != EngineStageRunning {
		return fmt.Errorf("%w: engine is %s", ErrNotInitialized, stage)
	}
	return nil
}

// LoadMesh reads an OBJ file or generates a procedural "sdf:<shape>" mesh.
func (e *Engine) LoadMesh(path string) (*metadata.Mesh, error) {
	if err := e.ready(); err != nil {
		return nil, err
	}
	cfg := e.Config()
	res, err := e.assetManager.LoadAsset(path, loaders.ProceduralParams{WeldDistance: cfg.Weld.Distance})
	if err != nil {
		return nil, err
	}
	mesh, ok := res.Data.(*metadata.Mesh)
	if !ok {
		return nil, fmt.Errorf("%w: %s is a %s, not a mesh", core.ErrInvalidArgument, path, res.Type)
	}
	return mesh, nil
}

// SplitterOptions converts the splitter section of cfg.
func SplitterOptions(cfg *metadata.Config) splitter.Options {
	return splitter.Options{
		LeafSize: cfg.Splitter.LeafSize,
		Binning: splitter.BinningOptions{
			MinNumBins:         cfg.Splitter.MinNumBins,
			MaxNumBins:         cfg.Splitter.MaxNumBins,
			NumTrianglesPerBin: cfg.Splitter.NumTrianglesPerBin,
		},
	}
}

// Partition builds a tree over mesh with the configured splitter and groups
// it with the configured grouper.
func (e *Engine) Partition(ctx context.Context, mesh *metadata.Mesh) (*metadata.Report, error) {
	if err := e.ready(); err != nil {
		return nil, err
	}
	if mesh == nil || mesh.IsEmpty() {
		return nil, core.ErrEmptyMesh
	}
	cfg := e.Config()

	clock := core.NewClock()
	clock.Start()

	splitterKind, err := splitter.ParseKind(cfg.Splitter.Kind)
	if err != nil {
		return nil, err
	}
	s, err := splitter.New(splitterKind, mesh.Vertices, mesh.Triangles, SplitterOptions(cfg))
	if err != nil {
		return nil, fmt.Errorf("partition %q: %w", mesh.Name, err)
	}
	tb, err := systems.NewTreeBuilder(s, cfg.Splitter.LeafSize)
	if err != nil {
		return nil, err
	}
	tree, err := tb.BuildParallel(ctx, e.jobSystem)
	if err != nil {
		return nil, fmt.Errorf("partition %q: %w", mesh.Name, err)
	}

	batches, err := e.group(ctx, mesh, cfg)
	if err != nil {
		return nil, err
	}

	report := &metadata.Report{
		ID:          core.NewBuildID(),
		MeshName:    mesh.Name,
		Splitter:    splitterKind.String(),
		Grouper:     grouperName(cfg.Grouper.Kind),
		Triangles:   mesh.TriangleCount(),
		Vertices:    mesh.VertexCount(),
		Depth:       tree.Depth(),
		MaxLeafSize: cfg.Splitter.LeafSize,
		Stats:       tree.Stats,
		Leaves:      leafReports(s, tree),
		Batches:     make([][]uint32, len(batches)),
	}
	for i, b := range batches {
		report.Batches[i] = b.Triangles
	}

	clock.Stop()
	report.Duration = clock.Elapsed()
	core.MetricsRecordBuild("partition", report.Duration)

	e.mutex.Lock()
	e.history.Push(report)
	e.mutex.Unlock()
	core.LogInfo("partitioned '%s' (%d triangles) into %d leaves and %d batches in %s",
		mesh.Name, report.Triangles, len(report.Leaves), len(report.Batches), report.Duration)

	return report, nil
}

// Group batches the triangles of mesh with the configured grouper.
func (e *Engine) Group(ctx context.Context, mesh *metadata.Mesh) ([]systems.Batch, error) {
	if err := e.ready(); err != nil {
		return nil, err
	}
	if mesh == nil || mesh.IsEmpty() {
		return nil, core.ErrEmptyMesh
	}
	return e.group(ctx, mesh, e.Config())
}

func (e *Engine) group(ctx context.Context, mesh *metadata.Mesh, cfg *metadata.Config) ([]systems.Batch, error) {
	grouperKind, err := grouper.ParseKind(cfg.Grouper.Kind)
	if err != nil {
		return nil, err
	}
	g, err := grouper.New(grouperKind)
	if err != nil {
		return nil, err
	}
	bb, err := systems.NewBatchBuilder(g, cfg.Grouper.GroupSize)
	if err != nil {
		return nil, err
	}
	return bb.Build(ctx, mesh)
}

func grouperName(kind string) string {
	if k, err := grouper.ParseKind(kind); err == nil {
		return k.String()
	}
	return kind
}

func leafReports(s splitter.Splitter, tree *systems.Tree) []metadata.LeafReport {
	sorted := s.SortedTriangleIndices()
	leaves := make([]metadata.LeafReport, 0, len(tree.Leaves))
	for _, n := range tree.Nodes {
		if !n.IsLeaf() {
			continue
		}
		leaves = append(leaves, metadata.LeafReport{
			Begin:     n.Range.Begin,
			End:       n.Range.End,
			Triangles: slices.Clone(sorted[n.Range.Begin:n.Range.End]),
			Bounds:    n.Bounds,
		})
	}
	slices.SortFunc(leaves, func(a, b metadata.LeafReport) int {
		return int(a.Begin) - int(b.Begin)
	})
	return leaves
}

// Watch partitions every OBJ file under dir and re-partitions each one when
// it changes, until ctx is cancelled. Changes to TOML files reconfigure the
// engine. fn is called from the watcher goroutine.
func (e *Engine) Watch(ctx context.Context, dir string, fn WatchFunc) error {
	if err := e.ready(); err != nil {
		return err
	}

	rebuild := func(path string) {
		mesh, err := e.LoadMesh(path)
		if err != nil {
			fn(path, nil, err)
			return
		}
		report, err := e.Partition(ctx, mesh)
		fn(path, report, err)
	}

	e.assetManager.OnChange(func(info assets.AssetInfo) {
		if ctx.Err() != nil {
			return
		}
		switch info.Type {
		case metadata.ResourceTypeMesh:
			core.LogDebug("watch: %s changed", info.Path)
			rebuild(info.Path)
		case metadata.ResourceTypeConfig:
			cfg, err := loaders.LoadConfig(info.Path)
			if err == nil {
				err = e.Reconfigure(cfg)
			}
			if err != nil {
				core.LogError("watch: ignoring config %s: %s", info.Path, err)
				return
			}
			core.LogInfo("watch: reloaded config %s", info.Path)
		}
	})

	if err := e.assetManager.Watch(dir); err != nil {
		return err
	}
	e.setStage(EngineStageRunning)
	defer e.setStage(EngineStageInitialized)

	for _, info := range e.assetManager.Assets() {
		if info.Type == metadata.ResourceTypeMesh {
			rebuild(info.Path)
		}
	}

	<-ctx.Done()
	if err := e.assetManager.Unwatch(dir); err != nil && !errors.Is(err, assets.ErrAssetManagerClosed) {
		core.LogWarn("watch: %s", err)
	}
	return nil
}

func (e *Engine) setStage(s Stage) {
	e.mutex.Lock()
	defer e.mutex.Unlock()
	if e.currentStage == EngineStageShuttingDown || e.currentStage == EngineStageShutdown {
		return
	}
	e.currentStage = s
}

func (e *Engine) Shutdown() error {
	e.mutex.Lock()
	if e.currentStage == EngineStageShutdown || e.currentStage == EngineStageUninitialized {
		e.mutex.Unlock()
		return nil
	}
	e.currentStage = EngineStageShuttingDown
	e.mutex.Unlock()

	if e.assetManager != nil {
		e.assetManager.Shutdown()
	}
	var err error
	if e.jobSystem != nil {
		err = e.jobSystem.Shutdown()
	}

	e.mutex.Lock()
	e.currentStage = EngineStageShutdown
	e.mutex.Unlock()
	return err
}
