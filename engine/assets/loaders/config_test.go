package loaders

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spaghettifunk/meshpart/engine/core"
	"github.com/spaghettifunk/meshpart/engine/metadata"
)

const sampleConfig = `
log_level = "debug"
workers = 2

[splitter]
kind = "fixed_leaf_size"
leaf_size = 16

[grouper]
kind = "closest_centroid"
group_size = 32

[weld]
distance = 0.01
`

func TestParseConfig(t *testing.T) {
	cfg, err := ParseConfig([]byte(sampleConfig))
	require.NoError(t, err)

	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, 2, cfg.Workers)
	assert.Equal(t, "fixed_leaf_size", cfg.Splitter.Kind)
	assert.Equal(t, 16, cfg.Splitter.LeafSize)
	assert.Equal(t, "closest_centroid", cfg.Grouper.Kind)
	assert.Equal(t, 32, cfg.Grouper.GroupSize)
	assert.InDelta(t, 0.01, cfg.Weld.Distance, 1e-9)

	// Missing keys keep their defaults
	defaults := metadata.DefaultConfig()
	assert.Equal(t, defaults.Splitter.MinNumBins, cfg.Splitter.MinNumBins)
	assert.Equal(t, defaults.Splitter.MaxNumBins, cfg.Splitter.MaxNumBins)
	assert.Equal(t, defaults.Splitter.NumTrianglesPerBin, cfg.Splitter.NumTrianglesPerBin)
}

func TestParseConfigEmpty(t *testing.T) {
	cfg, err := ParseConfig(nil)
	require.NoError(t, err)
	assert.Equal(t, metadata.DefaultConfig(), cfg)
}

func TestParseConfigInvalid(t *testing.T) {
	tests := []struct {
		name string
		src  string
		want error
	}{
		{name: "unknown splitter", src: "[splitter]\nkind = \"octree\"\n", want: core.ErrUnknownKind},
		{name: "unknown grouper", src: "[grouper]\nkind = \"random\"\n", want: core.ErrUnknownKind},
		{name: "leaf size", src: "[splitter]\nleaf_size = 0\n", want: core.ErrInvalidArgument},
		{name: "group size", src: "[grouper]\ngroup_size = 0\n", want: core.ErrInvalidArgument},
		{name: "bins", src: "[splitter]\nmin_num_bins = 64\nmax_num_bins = 8\n", want: core.ErrInvalidArgument},
		{name: "workers", src: "workers = 0\n", want: core.ErrInvalidArgument},
		{name: "log level", src: "log_level = \"loud\"\n", want: core.ErrInvalidArgument},
		{name: "weld", src: "[weld]\ndistance = -1.0\n", want: core.ErrInvalidArgument},
		{name: "syntax", src: "workers = [\n", want: core.ErrInvalidArgument},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseConfig([]byte(tt.src))
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestConfigLoaderRoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "meshpart.toml")

	cfg := metadata.DefaultConfig()
	cfg.Splitter.Kind = "morton"
	cfg.Grouper.GroupSize = 3
	require.NoError(t, WriteConfig(path, cfg))

	res, err := (&ConfigLoader{}).Load(path, nil)
	require.NoError(t, err)
	assert.Equal(t, metadata.ResourceTypeConfig, res.Type)
	assert.Equal(t, cfg, res.Data)

	_, err = LoadConfig(filepath.Join(dir, "missing.toml"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}
