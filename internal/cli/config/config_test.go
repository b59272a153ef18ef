package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
)

func chdir(t *testing.T, dir string) {
	t.Helper()
	oldWd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { os.Chdir(oldWd) })
}

func TestLoad(t *testing.T) {
	// Test loading with no config file (should use defaults)
	chdir(t, t.TempDir())

	cfg, err := Load()
	require.NoError(t, err)
	require.NotNil(t, cfg)

	assert.Equal(t, "model.yaml", cfg.Model)
	assert.Empty(t, cfg.Mappings)
	assert.Equal(t, 4, cfg.Parallelism)
	assert.Equal(t, FormatTerminal, cfg.Output.Format)
	assert.False(t, cfg.Output.NoColor)
	assert.Equal(t, zapcore.WarnLevel, cfg.ZapLevel())
	assert.Equal(t, 200*time.Millisecond, cfg.Watch.Debounce)
	assert.False(t, InProject())
}

func TestLoadWithConfigFile(t *testing.T) {
	chdir(t, t.TempDir())

	configContent := `
model: types.yaml
mappings:
  - constraints/person.yaml
default_package: com.acme
rules: [cascading-unchanged, return-value-cascaded-once]
parallelism: 8
output:
  format: json
  no_color: true
log:
  level: debug
watch:
  debounce: 1s
`
	require.NoError(t, os.WriteFile("beanmeta.yml", []byte(configContent), 0644))

	cfg, err := Load()
	require.NoError(t, err)

	assert.True(t, InProject())
	assert.Equal(t, "types.yaml", cfg.Model)
	assert.Equal(t, []string{"constraints/person.yaml"}, cfg.Mappings)
	assert.Equal(t, "com.acme", cfg.DefaultPackage)
	assert.Equal(t, []string{"cascading-unchanged", "return-value-cascaded-once"}, cfg.Rules)
	assert.Equal(t, 8, cfg.Parallelism)
	assert.Equal(t, FormatJSON, cfg.Output.Format)
	assert.True(t, cfg.Output.NoColor)
	assert.Equal(t, zapcore.DebugLevel, cfg.ZapLevel())
	assert.Equal(t, time.Second, cfg.Watch.Debounce)
}

func TestLoadEnvironmentOverride(t *testing.T) {
	chdir(t, t.TempDir())
	t.Setenv("BEANMETA_OUTPUT_FORMAT", "json")
	t.Setenv("BEANMETA_MODEL", "env-model.yaml")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, FormatJSON, cfg.Output.Format)
	assert.Equal(t, "env-model.yaml", cfg.Model)
}

func TestLoadFileResolvesRelativePaths(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "custom.yaml")
	require.NoError(t, os.WriteFile(path, []byte("model: m.yaml\nmappings: [maps/a.yaml, /abs/b.yaml]\n"), 0644))

	cfg, err := LoadFile(path)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "m.yaml"), cfg.Model)
	assert.Equal(t, []string{filepath.Join(dir, "maps/a.yaml"), "/abs/b.yaml"}, cfg.Mappings)

	_, err = LoadFile(filepath.Join(dir, "missing.yaml"))
	assert.Error(t, err)
}

func TestValidateConfig(t *testing.T) {
	valid := func() *Config {
		return &Config{
			Parallelism: 1,
			Output:      OutputConfig{Format: FormatTerminal},
			Log:         LogConfig{Level: "info"},
		}
	}

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"valid", func(*Config) {}, ""},
		{"unknown format", func(c *Config) { c.Output.Format = "xml" }, "output.format"},
		{"bad level", func(c *Config) { c.Log.Level = "loud" }, "log.level"},
		{"zero parallelism", func(c *Config) { c.Parallelism = 0 }, "parallelism"},
		{"negative debounce", func(c *Config) { c.Watch.Debounce = -time.Second }, "watch.debounce"},
		{"empty rule", func(c *Config) { c.Rules = []string{" "} }, "rules"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(cfg)
			err := validateConfig(cfg)
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}
