package config

import (
	"fmt"
	"os"

	"github.com/BurntSushi/toml"
)

type Config struct {
	Paths   PathsConfig   `toml:"paths"`
	Decode  DecodeConfig  `toml:"decode"`
	Output  OutputConfig  `toml:"output"`
	Logging LoggingConfig `toml:"logging"`
}

type PathsConfig struct {
	MapsDir   string `toml:"maps_dir"`   // geometry (.bsp) files
	NavsDir   string `toml:"navs_dir"`   // nav files
	OutputDir string `toml:"output_dir"` // batch output
	MapExt    string `toml:"map_ext"`
	NavExt    string `toml:"nav_ext"`
}

type DecodeConfig struct {
	SuppressCustomDataWarning bool `toml:"suppress_custom_data_warning"`
	CodePage                  int  `toml:"codepage"` // place name encoding
}

type OutputConfig struct {
	Format   string `toml:"format"`   // kv, json, yaml, cbor
	Compress string `toml:"compress"` // none, zstd, lz4
}

type LoggingConfig struct {
	Level  string `toml:"level"`
	Format string `toml:"format"` // "json" or "console"
}

// Load reads a TOML file over the defaults. An empty path returns the
// defaults alone.
func Load(path string) (*Config, error) {
	cfg := defaults()
	if path == "" {
		return cfg, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}
	if err := toml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	return cfg, nil
}

// Default returns the built-in configuration.
func Default() *Config {
	return defaults()
}

func defaults() *Config {
	return &Config{
		Paths: PathsConfig{
			MapsDir:   "maps",
			NavsDir:   "maps",
			OutputDir: "out",
			MapExt:    ".bsp",
			NavExt:    ".nav",
		},
		Decode: DecodeConfig{
			CodePage: 1252,
		},
		Output: OutputConfig{
			Format:   "kv",
			Compress: "none",
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "console",
		},
	}
}
