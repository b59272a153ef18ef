package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
	"go.uber.org/zap/zapcore"
)

// Config represents the beanmeta configuration
type Config struct {
	Model          string       `mapstructure:"model"`
	Mappings       []string     `mapstructure:"mappings"`
	DefaultPackage string       `mapstructure:"default_package"`
	Rules          []string     `mapstructure:"rules"`
	Parallelism    int          `mapstructure:"parallelism"`
	Output         OutputConfig `mapstructure:"output"`
	Log            LogConfig    `mapstructure:"log"`
	Watch          WatchConfig  `mapstructure:"watch"`
}

// OutputConfig represents diagnostic output configuration
type OutputConfig struct {
	Format  string `mapstructure:"format"`
	NoColor bool   `mapstructure:"no_color"`
}

// LogConfig represents logging configuration
type LogConfig struct {
	Level string `mapstructure:"level"`
}

// WatchConfig represents watch mode configuration
type WatchConfig struct {
	Debounce time.Duration `mapstructure:"debounce"`
}

// Output formats
const (
	FormatTerminal = "terminal"
	FormatJSON     = "json"
)

// FileNames lists the configuration files looked up in the working directory.
var FileNames = []string{"beanmeta.yml", "beanmeta.yaml"}

func newViper() *viper.Viper {
	v := viper.New()

	// Set defaults
	v.SetDefault("model", "model.yaml")
	v.SetDefault("mappings", []string{})
	v.SetDefault("default_package", "")
	v.SetDefault("rules", []string{})
	v.SetDefault("parallelism", 4)
	v.SetDefault("output.format", FormatTerminal)
	v.SetDefault("output.no_color", false)
	v.SetDefault("log.level", "warn")
	v.SetDefault("watch.debounce", 200*time.Millisecond)

	// Enable environment variable support, e.g. BEANMETA_OUTPUT_FORMAT
	v.SetEnvPrefix("BEANMETA")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	return v
}

// Load loads the configuration from beanmeta.yml or beanmeta.yaml in the
// working directory. A missing file is not an error.
func Load() (*Config, error) {
	v := newViper()

	// Set config name and paths
	v.SetConfigName("beanmeta")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	// Read config file if it exists
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		// Config file not found - use defaults
	}

	return decode(v)
}

// LoadFile loads the configuration from an explicit path.
func LoadFile(path string) (*Config, error) {
	v := newViper()
	v.SetConfigFile(path)

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	cfg, err := decode(v)
	if err != nil {
		return nil, err
	}

	// Relative paths in an explicit config file are relative to the file
	dir := filepath.Dir(path)
	cfg.Model = resolve(dir, cfg.Model)
	for i, m := range cfg.Mappings {
		cfg.Mappings[i] = resolve(dir, m)
	}
	return cfg, nil
}

// InProject checks if the current directory holds a beanmeta configuration
func InProject() bool {
	for _, name := range FileNames {
		if _, err := os.Stat(name); err == nil {
			return true
		}
	}
	return false
}

func decode(v *viper.Viper) (*Config, error) {
	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	// Validate configuration
	if err := validateConfig(&config); err != nil {
		return nil, err
	}

	return &config, nil
}

func resolve(dir, path string) string {
	if path == "" || filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(dir, path)
}

// ZapLevel returns the configured log level.
func (c *Config) ZapLevel() zapcore.Level {
	var level zapcore.Level
	if err := level.UnmarshalText([]byte(c.Log.Level)); err != nil {
		return zapcore.WarnLevel
	}
	return level
}

// validateConfig validates the configuration
func validateConfig(cfg *Config) error {
	switch cfg.Output.Format {
	case FormatTerminal, FormatJSON:
	default:
		return fmt.Errorf("output.format must be %q or %q, got: %s", FormatTerminal, FormatJSON, cfg.Output.Format)
	}

	var level zapcore.Level
	if err := level.UnmarshalText([]byte(cfg.Log.Level)); err != nil {
		return fmt.Errorf("log.level is not a valid level, got: %s", cfg.Log.Level)
	}

	if cfg.Parallelism < 1 {
		return fmt.Errorf("parallelism must be at least 1, got: %d", cfg.Parallelism)
	}

	if cfg.Watch.Debounce < 0 {
		return fmt.Errorf("watch.debounce must not be negative, got: %s", cfg.Watch.Debounce)
	}

	for _, rule := range cfg.Rules {
		if strings.TrimSpace(rule) == "" {
			return fmt.Errorf("rules must not contain empty names")
		}
	}
	return nil
}
