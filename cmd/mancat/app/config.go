package app

import (
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/juney329/mancat-v2/internal/quant"
	"github.com/juney329/mancat-v2/internal/query"
	"github.com/juney329/mancat-v2/internal/tier"
)

// Config is the main application configuration. Every field has a working
// default; a yaml file supplies overrides and CLI flags override both.
type Config struct {
	Settings SettingsConfig `yaml:"settings"`
	Store    StoreConfig    `yaml:"store"`
	Ingest   IngestConfig   `yaml:"ingest"`
	Query    QueryConfig    `yaml:"query"`
}

// SettingsConfig holds global application settings.
type SettingsConfig struct {
	LogLevel string `yaml:"logLevel"`
}

// StoreConfig locates the artifact store.
type StoreConfig struct {
	DataDir      string `yaml:"dataDir"`
	MaxOpenBands int    `yaml:"maxOpenBands"`
}

// IngestConfig holds quantization and tiering parameters for ingestion.
type IngestConfig struct {
	Quant       quant.Params `yaml:"quant"`
	Decimations []int        `yaml:"decimations"`
	BlockRows   int          `yaml:"blockRows"`
	CatalogPath string       `yaml:"catalog"` // empty disables the run catalog
}

// QueryConfig caps query output sizes and request latency.
type QueryConfig struct {
	MaxPoints     int      `yaml:"maxPoints"`
	MaxTileWidth  int      `yaml:"maxTileWidth"`
	MaxTileHeight int      `yaml:"maxTileHeight"`
	Timeout       Duration `yaml:"timeout"`
}

// Limits converts the configuration into the query layer's limit set.
func (c QueryConfig) Limits() query.Limits {
	return query.Limits{
		MaxPoints:     c.MaxPoints,
		MaxTileWidth:  c.MaxTileWidth,
		MaxTileHeight: c.MaxTileHeight,
		Timeout:       time.Duration(c.Timeout),
	}
}

// Duration wraps time.Duration so yaml documents can spell values like
// "10s" or "2m".
type Duration time.Duration

func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var s string
	if err := value.Decode(&s); err != nil {
		return err
	}
	parsed, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("parsing duration %q: %w", s, err)
	}
	*d = Duration(parsed)
	return nil
}

func (d Duration) String() string {
	return time.Duration(d).String()
}

func DefaultConfig() *Config {
	limits := query.DefaultLimits()
	return &Config{
		Settings: SettingsConfig{LogLevel: "info"},
		Store:    StoreConfig{DataDir: "data"},
		Ingest: IngestConfig{
			Quant:       quant.Default(),
			Decimations: tier.DefaultDecimations,
			BlockRows:   tier.DefaultBlockRows,
		},
		Query: QueryConfig{
			MaxPoints:     limits.MaxPoints,
			MaxTileWidth:  limits.MaxTileWidth,
			MaxTileHeight: limits.MaxTileHeight,
			Timeout:       Duration(limits.Timeout),
		},
	}
}

// LoadConfig returns the defaults overlaid with the yaml file at path, or
// plain defaults when path is empty.
func LoadConfig(path string) (*Config, error) {
	config := DefaultConfig()
	if path == "" {
		return config, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading configuration file: %w", err)
	}
	if err = yaml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("parsing configuration file: %w", err)
	}
	if err = config.Validate(); err != nil {
		return nil, err
	}
	return config, nil
}

func (c *Config) Validate() error {
	if err := c.Ingest.Quant.Validate(); err != nil {
		return err
	}
	if c.Store.DataDir == "" {
		return fmt.Errorf("store data directory is required")
	}
	for i, d := range c.Ingest.Decimations {
		if d <= 0 {
			return fmt.Errorf("decimation factors must be positive, got %d", d)
		}
		if i > 0 && d <= c.Ingest.Decimations[i-1] {
			return fmt.Errorf("decimation factors must be ascending")
		}
	}
	return nil
}

// LogLevel parses the configured log level, defaulting to info.
func (c *Config) LogLevel() slog.Level {
	switch strings.ToLower(c.Settings.LogLevel) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
