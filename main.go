/*
meshpart partitions triangle meshes into spatially coherent groups and
bounding volume hierarchies.
*/
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/pelletier/go-toml/v2"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/samber/lo"
	"github.com/segmentio/encoding/json"
	"github.com/spf13/cobra"

	"github.com/spaghettifunk/meshpart/engine"
	"github.com/spaghettifunk/meshpart/engine/assets/loaders"
	"github.com/spaghettifunk/meshpart/engine/core"
	"github.com/spaghettifunk/meshpart/engine/metadata"
	"github.com/spaghettifunk/meshpart/engine/preview"
	"github.com/spaghettifunk/meshpart/engine/systems"
)

type options struct {
	configPath  string
	logLevel    string
	metricsAddr string
	workers     int

	splitter  string
	leafSize  int
	grouper   string
	groupSize int

	asJSON  bool
	out     string
	batches bool
	width   int
	height  int
}

func main() {
	opts := &options{}
	root := newRootCommand(opts)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT, syscall.SIGQUIT)
	defer stop()

	if err := root.ExecuteContext(ctx); err != nil {
		core.LogError("%s", err)
		os.Exit(1)
	}
}

func newRootCommand(opts *options) *cobra.Command {
	root := &cobra.Command{
		Use:           "meshpart",
		Short:         "Partition triangle meshes into spatially coherent groups",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if opts.metricsAddr != "" {
				serveMetrics(cmd.Context(), opts.metricsAddr)
			}
			return nil
		},
	}

	pf := root.PersistentFlags()
	pf.StringVar(&opts.configPath, "config", "", "TOML configuration file")
	pf.StringVar(&opts.logLevel, "log-level", "", "Log level (debug|info|warn|error)")
	pf.StringVar(&opts.metricsAddr, "metrics-addr", "", "Serve Prometheus metrics on this address")
	pf.IntVar(&opts.workers, "workers", 0, "Number of build workers")
	pf.StringVar(&opts.splitter, "splitter", "", "Splitter kind (longest_axis|mean|morton|binning|fixed_leaf_size)")
	pf.IntVar(&opts.leafSize, "leaf-size", 0, "Maximum number of triangles per leaf")
	pf.StringVar(&opts.grouper, "grouper", "", "Grouper kind (closest_centroid|morton)")
	pf.IntVar(&opts.groupSize, "group-size", 0, "Number of triangles per batch")

	root.AddCommand(
		newSplitCommand(opts),
		newGroupCommand(opts),
		newPreviewCommand(opts),
		newWatchCommand(opts),
		newShapesCommand(),
		newConfigCommand(opts),
	)
	return root
}

// loadConfig merges the configuration file with the command line overrides.
func loadConfig(opts *options) (*metadata.Config, error) {
	cfg := metadata.DefaultConfig()
	if opts.configPath != "" {
		var err error
		if cfg, err = loaders.LoadConfig(opts.configPath); err != nil {
			return nil, err
		}
	}
	if opts.logLevel != "" {
		cfg.LogLevel = opts.logLevel
	}
	if opts.workers > 0 {
		cfg.Workers = opts.workers
	}
	if opts.splitter != "" {
		cfg.Splitter.Kind = opts.splitter
	}
	if opts.leafSize > 0 {
		cfg.Splitter.LeafSize = opts.leafSize
	}
	if opts.grouper != "" {
		cfg.Grouper.Kind = opts.grouper
	}
	if opts.groupSize > 0 {
		cfg.Grouper.GroupSize = opts.groupSize
	}
	return cfg, loaders.ValidateConfig(cfg)
}

// withEngine runs fn against an initialized engine and shuts it down afterwards.
func withEngine(opts *options, fn func(e *engine.Engine) error) error {
	cfg, err := loadConfig(opts)
	if err != nil {
		return err
	}
	e, err := engine.New(cfg)
	if err != nil {
		return err
	}
	if err := e.Initialize(); err != nil {
		return err
	}
	defer func() {
		if err := e.Shutdown(); err != nil {
			core.LogError("shutdown: %s", err)
		}
	}()
	return fn(e)
}

func newSplitCommand(opts *options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "split <mesh.obj|sdf:shape>",
		Short: "Build a bounding volume hierarchy and report its leaves",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(opts, func(e *engine.Engine) error {
				mesh, err := e.LoadMesh(args[0])
				if err != nil {
					return err
				}
				report, err := e.Partition(cmd.Context(), mesh)
				if err != nil {
					return err
				}
				if opts.asJSON {
					return writeJSON(cmd.OutOrStdout(), report)
				}
				printReport(cmd.OutOrStdout(), report)
				return nil
			})
		},
	}
	cmd.Flags().BoolVar(&opts.asJSON, "json", false, "Print the full report as JSON")
	return cmd
}

func newGroupCommand(opts *options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "group <mesh.obj|sdf:shape>",
		Short: "Group triangles into fixed size batches",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(opts, func(e *engine.Engine) error {
				mesh, err := e.LoadMesh(args[0])
				if err != nil {
					return err
				}
				batches, err := e.Group(cmd.Context(), mesh)
				if err != nil {
					return err
				}
				if opts.asJSON {
					return writeJSON(cmd.OutOrStdout(), batches)
				}
				areas := lo.Map(batches, func(b systems.Batch, _ int) float32 {
					return b.Bounds.SurfaceArea()
				})
				fmt.Fprintf(cmd.OutOrStdout(), "mesh:        %s\n", mesh.Name)
				fmt.Fprintf(cmd.OutOrStdout(), "grouper:     %s (group size %d)\n", e.Config().Grouper.Kind, e.Config().Grouper.GroupSize)
				fmt.Fprintf(cmd.OutOrStdout(), "batches:     %d\n", len(batches))
				fmt.Fprintf(cmd.OutOrStdout(), "mean area:   %.4f\n", lo.Sum(areas)/float32(max(len(areas), 1)))
				return nil
			})
		},
	}
	cmd.Flags().BoolVar(&opts.asJSON, "json", false, "Print the batches as JSON")
	return cmd
}

func newPreviewCommand(opts *options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "preview <mesh.obj|sdf:shape>",
		Short: "Render the partition of a mesh to a PNG image",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(opts, func(e *engine.Engine) error {
				mesh, err := e.LoadMesh(args[0])
				if err != nil {
					return err
				}
				report, err := e.Partition(cmd.Context(), mesh)
				if err != nil {
					return err
				}

				popts := preview.DefaultOptions()
				popts.Width, popts.Height = opts.width, opts.height
				img, err := preview.Render(mesh, preview.ReportGroups(report, opts.batches), popts)
				if err != nil {
					return err
				}

				f, err := os.Create(opts.out)
				if err != nil {
					return err
				}
				if err := preview.WritePNG(f, img); err != nil {
					f.Close()
					return err
				}
				if err := f.Close(); err != nil {
					return err
				}
				core.LogInfo("preview written to %s", opts.out)
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&opts.out, "out", "partition.png", "Output PNG file")
	cmd.Flags().BoolVar(&opts.batches, "batches", false, "Colour batches instead of tree leaves")
	cmd.Flags().IntVar(&opts.width, "width", 512, "Image width")
	cmd.Flags().IntVar(&opts.height, "height", 512, "Image height")
	return cmd
}

func newWatchCommand(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "watch <dir>",
		Short: "Re-partition OBJ files whenever they change",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(opts, func(e *engine.Engine) error {
				core.LogInfo("watching %s, press Ctrl+C to stop", args[0])
				err := e.Watch(cmd.Context(), args[0], func(path string, report *metadata.Report, err error) {
					if err != nil {
						core.LogError("%s: %s", path, err)
						return
					}
					printReport(cmd.OutOrStdout(), report)
				})
				if reports := e.Reports(); len(reports) > 0 {
					total := lo.SumBy(reports, func(r *metadata.Report) time.Duration { return r.Duration })
					core.LogInfo("last %d partitions took %s on average", len(reports), total/time.Duration(len(reports)))
				}
				return err
			})
		},
	}
}

func newShapesCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "shapes",
		Short: "List the procedural shapes usable as sdf:<shape>",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			for _, s := range loaders.Shapes() {
				fmt.Fprintf(cmd.OutOrStdout(), "%s%s\n", loaders.ProceduralPrefix, s)
			}
		},
	}
}

func newConfigCommand(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "config",
		Short: "Print the effective configuration as TOML",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(opts)
			if err != nil {
				return err
			}
			return toml.NewEncoder(cmd.OutOrStdout()).Encode(cfg)
		},
	}
}

func printReport(w io.Writer, report *metadata.Report) {
	sizes := report.LeafSizes()
	fmt.Fprintf(w, "build:       %s\n", report.ID)
	fmt.Fprintf(w, "mesh:        %s (%d triangles, %d vertices)\n", report.MeshName, report.Triangles, report.Vertices)
	fmt.Fprintf(w, "splitter:    %s (leaf size %d)\n", report.Splitter, report.MaxLeafSize)
	fmt.Fprintf(w, "splits:      %d (%d fallback, %d bins evaluated)\n", report.Stats.NumSplits, report.Stats.NumFallbackSplits, report.Stats.NumBinsEvaluated)
	fmt.Fprintf(w, "leaves:      %d, depth %d, triangles per leaf min %d max %d\n", len(sizes), report.Depth, lo.Min(sizes), lo.Max(sizes))
	fmt.Fprintf(w, "batches:     %d (%s)\n", len(report.Batches), report.Grouper)
	fmt.Fprintf(w, "duration:    %s\n", report.Duration.Round(time.Microsecond))
}

func writeJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// serveMetrics exposes the Prometheus registry until ctx is done.
func serveMetrics(ctx context.Context, addr string) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	server := &http.Server{Addr: addr, Handler: mux}

	go func() {
		core.LogInfo("serving metrics on %s/metrics", addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			core.LogError("metrics server: %s", err)
		}
	}()
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		_ = server.Shutdown(shutdownCtx)
	}()
}
