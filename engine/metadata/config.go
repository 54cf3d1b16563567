package metadata

import "github.com/spaghettifunk/meshpart/engine/math"

// Config drives a partition run. It is usually loaded from a TOML file.
type Config struct {
	LogLevel string         `toml:"log_level"`
	Workers  int            `toml:"workers"`
	Splitter SplitterConfig `toml:"splitter"`
	Grouper  GrouperConfig  `toml:"grouper"`
	Weld     WeldConfig     `toml:"weld"`
}

type SplitterConfig struct {
	Kind               string `toml:"kind"`
	LeafSize           int    `toml:"leaf_size"`
	MinNumBins         int    `toml:"min_num_bins"`
	MaxNumBins         int    `toml:"max_num_bins"`
	NumTrianglesPerBin int    `toml:"num_triangles_per_bin"`
}

type GrouperConfig struct {
	Kind      string `toml:"kind"`
	GroupSize int    `toml:"group_size"`
}

type WeldConfig struct {
	Distance float32 `toml:"distance"`
}

// DefaultConfig returns the configuration used when no file is given.
func DefaultConfig() *Config {
	return &Config{
		LogLevel: "info",
		Workers:  4,
		Splitter: SplitterConfig{
			Kind:               "binning",
			LeafSize:           4,
			MinNumBins:         8,
			MaxNumBins:         128,
			NumTrianglesPerBin: 6,
		},
		Grouper: GrouperConfig{
			Kind:      "morton",
			GroupSize: 8,
		},
		Weld: WeldConfig{
			Distance: math.DefaultWeldDistance,
		},
	}
}
