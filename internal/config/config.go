package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/BurntSushi/toml"
)

type Config struct {
	Stream    StreamConfig    `toml:"stream"`
	Occupancy OccupancyConfig `toml:"occupancy"`
	Catalog   CatalogConfig   `toml:"catalog"`
	Observer  ObserverConfig  `toml:"observer"`
	Database  DatabaseConfig  `toml:"database"`
	Logging   LoggingConfig   `toml:"logging"`
}

type StreamConfig struct {
	Radius         float64  `toml:"radius"`          // generation radius, world units
	TileSize       float64  `toml:"tile_size"`       // grid step between neighbouring tiles
	OccupancyRatio float64  `toml:"occupancy_ratio"` // occupancy probe half-extent as a fraction of tile_size
	TickRate       Duration `toml:"tick_rate"`
	Seed           int64    `toml:"seed"`           // 0 = seed from the clock
	MaxTicks       uint64   `toml:"max_ticks"`      // 0 = run until signalled
	StatsInterval  int      `toml:"stats_interval"` // ticks between stats lines
}

type OccupancyConfig struct {
	Mode string `toml:"mode"` // "physics" or "grid"
}

type CatalogConfig struct {
	Source string `toml:"source"` // "yaml" or "database"
	Path   string `toml:"path"`
	Watch  bool   `toml:"watch"`
}

type ObserverConfig struct {
	Script string `toml:"script"`
}

type DatabaseConfig struct {
	DSN             string   `toml:"dsn"`
	MaxOpenConns    int      `toml:"max_open_conns"`
	MaxIdleConns    int      `toml:"max_idle_conns"`
	ConnMaxLifetime Duration `toml:"conn_max_lifetime"`
}

type LoggingConfig struct {
	Level  string `toml:"level"`
	Format string `toml:"format"` // "json" or "console"
}

// Duration decodes TOML strings such as "50ms" or "30m".
type Duration struct {
	time.Duration
}

func (d *Duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	d.Duration = v
	return nil
}

const (
	OccupancyPhysics = "physics"
	OccupancyGrid    = "grid"

	SourceYAML     = "yaml"
	SourceDatabase = "database"
)

var ErrInvalid = errors.New("invalid config")

func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}
	cfg := Defaults()
	if err := toml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}

// Validate rejects geometry the streamer cannot work with. Zero radius or
// tile size would make every tick a no-op or divide the grid into nothing.
func (c *Config) Validate() error {
	s := c.Stream
	switch {
	case s.Radius <= 0:
		return fmt.Errorf("%w: stream.radius must be > 0, got %v", ErrInvalid, s.Radius)
	case s.TileSize <= 0:
		return fmt.Errorf("%w: stream.tile_size must be > 0, got %v", ErrInvalid, s.TileSize)
	case s.OccupancyRatio <= 0 || s.OccupancyRatio >= 0.5:
		return fmt.Errorf("%w: stream.occupancy_ratio must be in (0, 0.5), got %v", ErrInvalid, s.OccupancyRatio)
	case s.TickRate.Duration <= 0:
		return fmt.Errorf("%w: stream.tick_rate must be > 0", ErrInvalid)
	}
	switch c.Occupancy.Mode {
	case OccupancyPhysics, OccupancyGrid:
	default:
		return fmt.Errorf("%w: occupancy.mode %q", ErrInvalid, c.Occupancy.Mode)
	}
	switch c.Catalog.Source {
	case SourceYAML:
		if c.Catalog.Path == "" {
			return fmt.Errorf("%w: catalog.path is empty", ErrInvalid)
		}
	case SourceDatabase:
		if c.Database.DSN == "" {
			return fmt.Errorf("%w: catalog.source is database but database.dsn is empty", ErrInvalid)
		}
	default:
		return fmt.Errorf("%w: catalog.source %q", ErrInvalid, c.Catalog.Source)
	}
	return nil
}

func Defaults() *Config {
	return &Config{
		Stream: StreamConfig{
			Radius:         10,
			TileSize:       5,
			OccupancyRatio: 1.0 / 3.0,
			TickRate:       Duration{50 * time.Millisecond},
			StatsInterval:  100,
		},
		Occupancy: OccupancyConfig{
			Mode: OccupancyPhysics,
		},
		Catalog: CatalogConfig{
			Source: SourceYAML,
			Path:   "data/yaml/tile_catalog.yaml",
			Watch:  true,
		},
		Observer: ObserverConfig{
			Script: "scripts/observer/walk.lua",
		},
		Database: DatabaseConfig{
			DSN:             "",
			MaxOpenConns:    4,
			MaxIdleConns:    1,
			ConnMaxLifetime: Duration{30 * time.Minute},
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "console",
		},
	}
}
