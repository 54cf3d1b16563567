package loaders

import (
	"errors"
	"fmt"
	"os"

	"github.com/charmbracelet/log"
	"github.com/pelletier/go-toml/v2"

	"github.com/spaghettifunk/meshpart/engine/core"
	"github.com/spaghettifunk/meshpart/engine/grouper"
	"github.com/spaghettifunk/meshpart/engine/metadata"
	"github.com/spaghettifunk/meshpart/engine/splitter"
)

// ConfigLoader reads partition configurations from TOML files. Keys missing
// from the file keep their default value.
type ConfigLoader struct{}

func (cl *ConfigLoader) Load(path string, params interface{}) (*metadata.Resource, error) {
	cfg, err := LoadConfig(path)
	if err != nil {
		return nil, err
	}
	return &metadata.Resource{
		Name:     "config",
		FullPath: path,
		Type:     metadata.ResourceTypeConfig,
		DataSize: 0,
		Data:     cfg,
	}, nil
}

func (cl *ConfigLoader) Unload(resource *metadata.Resource) error {
	if resource == nil {
		return fmt.Errorf("%w: nil resource", core.ErrInvalidArgument)
	}
	resource.Data = nil
	return nil
}

// LoadConfig reads and validates the TOML file at path.
func LoadConfig(path string) (*metadata.Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	cfg, err := ParseConfig(data)
	if err != nil {
		return nil, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}

// ParseConfig decodes TOML on top of metadata.DefaultConfig and validates the result.
func ParseConfig(data []byte) (*metadata.Config, error) {
	cfg := metadata.DefaultConfig()
	if err := toml.Unmarshal(data, cfg); err != nil {
		var derr *toml.DecodeError
		if errors.As(err, &derr) {
			row, col := derr.Position()
			return nil, fmt.Errorf("%w: line %d column %d: %s", core.ErrInvalidArgument, row, col, derr.Error())
		}
		return nil, err
	}
	if err := ValidateConfig(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// ValidateConfig checks every field of cfg.
func ValidateConfig(cfg *metadata.Config) error {
	if cfg == nil {
		return fmt.Errorf("%w: nil config", core.ErrInvalidArgument)
	}
	if _, err := log.ParseLevel(cfg.LogLevel); err != nil {
		return fmt.Errorf("%w: log_level %q", core.ErrInvalidArgument, cfg.LogLevel)
	}
	if cfg.Workers < 1 {
		return fmt.Errorf("%w: workers must be at least 1, got %d", core.ErrInvalidArgument, cfg.Workers)
	}
	if _, err := splitter.ParseKind(cfg.Splitter.Kind); err != nil {
		return err
	}
	if cfg.Splitter.LeafSize < 1 {
		return fmt.Errorf("%w: leaf_size must be at least 1, got %d", core.ErrInvalidArgument, cfg.Splitter.LeafSize)
	}
	bins := splitter.BinningOptions{
		MinNumBins:         cfg.Splitter.MinNumBins,
		MaxNumBins:         cfg.Splitter.MaxNumBins,
		NumTrianglesPerBin: cfg.Splitter.NumTrianglesPerBin,
	}
	if err := bins.Validate(); err != nil {
		return err
	}
	if _, err := grouper.ParseKind(cfg.Grouper.Kind); err != nil {
		return err
	}
	if cfg.Grouper.GroupSize < 1 {
		return fmt.Errorf("%w: group_size must be at least 1, got %d", core.ErrInvalidArgument, cfg.Grouper.GroupSize)
	}
	if cfg.Weld.Distance < 0 {
		return fmt.Errorf("%w: weld distance must not be negative, got %g", core.ErrInvalidArgument, cfg.Weld.Distance)
	}
	return nil
}

// WriteConfig stores cfg as TOML at path.
func WriteConfig(path string, cfg *metadata.Config) error {
	data, err := toml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}
