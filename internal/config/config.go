package config

import (
	"fmt"
	"os"
	"runtime"

	"game-assets/internal/font"
	"game-assets/internal/sound"
	"game-assets/internal/texture"

	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"
)

// Config holds the asset subsystem settings.
type Config struct {
	// Root, when set, is the directory every asset path is resolved in.
	// Empty means paths are used as-is against the host filesystem.
	Root     string `yaml:"root"`
	Workers  int    `yaml:"workers"`
	LogLevel string `yaml:"log_level"`

	Textures KindConfig   `yaml:"textures"`
	Sounds   KindConfig   `yaml:"sounds"`
	Fonts    KindConfig   `yaml:"fonts"`
	Export   ExportConfig `yaml:"export"`
}

// KindConfig holds the settings of one asset cache.
type KindConfig struct {
	Fallback string       `yaml:"fallback"`
	Preload  []PreloadDir `yaml:"preload"`
}

// PreloadDir is a directory loaded eagerly at startup.
type PreloadDir struct {
	Dir       string `yaml:"dir"`
	Recursive *bool  `yaml:"recursive"` // nil = true
}

// IsRecursive reports whether subdirectories are preloaded too.
func (p PreloadDir) IsRecursive() bool {
	return p.Recursive == nil || *p.Recursive
}

// ExportConfig controls texture thumbnail export.
type ExportConfig struct {
	Dir  string `yaml:"dir"`
	Size int    `yaml:"size"`
}

// Load reads a YAML config file and returns Config.
// Fields not set in the file keep their zero values.
func Load(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("config: read %s: %w", path, err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("config: parse %s: %w", path, err)
	}

	return cfg, nil
}

// Flags holds CLI flag values that override config file settings.
type Flags struct {
	Root       string
	Workers    int
	LogLevel   string
	ExportDir  string
	ExportSize int
}

// Resolve fills in any empty fields with defaults.
// CLI flags take priority when non-zero/non-empty.
func (c *Config) Resolve(flags Flags) {
	// CLI flags override config file
	if flags.Root != "" {
		c.Root = flags.Root
	}
	if flags.Workers > 0 {
		c.Workers = flags.Workers
	}
	if flags.LogLevel != "" {
		c.LogLevel = flags.LogLevel
	}
	if flags.ExportDir != "" {
		c.Export.Dir = flags.ExportDir
	}
	if flags.ExportSize > 0 {
		c.Export.Size = flags.ExportSize
	}

	if c.Textures.Fallback == "" {
		c.Textures.Fallback = texture.DefaultFallback
	}
	if c.Sounds.Fallback == "" {
		c.Sounds.Fallback = sound.DefaultFallback
	}
	if c.Fonts.Fallback == "" {
		c.Fonts.Fallback = font.DefaultFallback
	}

	if c.Workers <= 0 {
		c.Workers = runtime.NumCPU()
	}
	if c.LogLevel == "" {
		c.LogLevel = "info"
	}
	if c.Export.Size <= 0 {
		c.Export.Size = 128
	}
}

// Validate checks a resolved config.
func (c *Config) Validate() error {
	if c.Root != "" {
		info, err := os.Stat(c.Root)
		if err != nil {
			return fmt.Errorf("config: root: %w", err)
		}
		if !info.IsDir() {
			return fmt.Errorf("config: root %s is not a directory", c.Root)
		}
	}

	if c.Workers <= 0 {
		return fmt.Errorf("config: invalid workers: %d", c.Workers)
	}

	if _, err := logrus.ParseLevel(c.LogLevel); err != nil {
		return fmt.Errorf("config: invalid log level: %w", err)
	}

	if c.Export.Size <= 0 || c.Export.Size > 4096 {
		return fmt.Errorf("config: invalid export size: %d", c.Export.Size)
	}

	for kind, kc := range map[string]KindConfig{"textures": c.Textures, "sounds": c.Sounds, "fonts": c.Fonts} {
		for i, p := range kc.Preload {
			if p.Dir == "" {
				return fmt.Errorf("config: %s.preload[%d]: dir is required", kind, i)
			}
		}
	}

	return nil
}
