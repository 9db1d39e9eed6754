package config

import (
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad(t *testing.T) {
	configFile := filepath.Join(t.TempDir(), "assets.yaml")
	configContent := `
root: ./game
workers: 3
log_level: debug
textures:
  fallback: textures/missing.png
  preload:
    - dir: textures
    - dir: ui
      recursive: false
sounds:
  preload:
    - dir: sfx
export:
  dir: thumbs
  size: 64
`
	require.NoError(t, os.WriteFile(configFile, []byte(configContent), 0644))

	cfg, err := Load(configFile)
	require.NoError(t, err)

	assert.Equal(t, "./game", cfg.Root)
	assert.Equal(t, 3, cfg.Workers)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, "textures/missing.png", cfg.Textures.Fallback)
	require.Len(t, cfg.Textures.Preload, 2)
	assert.True(t, cfg.Textures.Preload[0].IsRecursive())
	assert.False(t, cfg.Textures.Preload[1].IsRecursive())
	require.Len(t, cfg.Sounds.Preload, 1)
	assert.Equal(t, "sfx", cfg.Sounds.Preload[0].Dir)
	assert.Empty(t, cfg.Fonts.Fallback)
	assert.Equal(t, ExportConfig{Dir: "thumbs", Size: 64}, cfg.Export)
}

func TestLoad_Errors(t *testing.T) {
	dir := t.TempDir()

	_, err := Load(filepath.Join(dir, "missing.yaml"))
	assert.ErrorIs(t, err, os.ErrNotExist)

	bad := filepath.Join(dir, "bad.yaml")
	require.NoError(t, os.WriteFile(bad, []byte("workers: [1, 2"), 0644))
	_, err = Load(bad)
	assert.ErrorContains(t, err, "config: parse")
}

func TestResolve(t *testing.T) {
	var cfg Config
	cfg.Resolve(Flags{})

	assert.Equal(t, "invalid.png", cfg.Textures.Fallback)
	assert.Equal(t, "invalid.wav", cfg.Sounds.Fallback)
	assert.Equal(t, "invalid.ttf", cfg.Fonts.Fallback)
	assert.Equal(t, runtime.NumCPU(), cfg.Workers)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, 128, cfg.Export.Size)
	assert.NoError(t, cfg.Validate())
}

func TestResolve_FlagsOverride(t *testing.T) {
	cfg := Config{Workers: 2, LogLevel: "warn", Export: ExportConfig{Dir: "a", Size: 32}}
	cfg.Resolve(Flags{Workers: 8, LogLevel: "debug", ExportDir: "b", ExportSize: 256})

	assert.Equal(t, 8, cfg.Workers)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, ExportConfig{Dir: "b", Size: 256}, cfg.Export)
}

func TestValidate(t *testing.T) {
	valid := func() Config {
		cfg := Config{}
		cfg.Resolve(Flags{})
		return cfg
	}
	notDir := filepath.Join(t.TempDir(), "file")
	require.NoError(t, os.WriteFile(notDir, nil, 0644))

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{"valid config", func(*Config) {}, false},
		{"existing root", func(c *Config) { c.Root = t.TempDir() }, false},
		{"missing root", func(c *Config) { c.Root = filepath.Join(t.TempDir(), "nope") }, true},
		{"root is a file", func(c *Config) { c.Root = notDir }, true},
		{"invalid workers", func(c *Config) { c.Workers = 0 }, true},
		{"invalid log level", func(c *Config) { c.LogLevel = "loud" }, true},
		{"invalid export size", func(c *Config) { c.Export.Size = -1 }, true},
		{"preload without dir", func(c *Config) { c.Fonts.Preload = []PreloadDir{{}} }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}
