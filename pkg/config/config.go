package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config holds all configuration options for the sprite generator.
type Config struct {
	// Figma API access
	Figma FigmaConfig `yaml:"figma" json:"figma"`

	// Export orchestration settings
	Export ExportConfig `yaml:"export" json:"export"`

	// Retry policy for remote calls
	Retry RetryConfig `yaml:"retry" json:"retry"`

	// Sprite sheet generation settings
	Sprite SpriteConfig `yaml:"sprite" json:"sprite"`

	// Output settings
	Output OutputConfig `yaml:"output" json:"output"`

	// Logging configuration
	Logging LoggingConfig `yaml:"logging" json:"logging"`
}

// FigmaConfig holds Figma API configuration.
type FigmaConfig struct {
	AccessToken       string        `yaml:"access_token" json:"access_token"`
	RequestTimeout    time.Duration `yaml:"request_timeout" json:"request_timeout"`
	RequestsPerMinute int           `yaml:"requests_per_minute" json:"requests_per_minute"`
}

// ExportConfig holds export orchestration configuration.
type ExportConfig struct {
	// BatchSize is the maximum number of node ids per export-URL request,
	// an API limit.
	BatchSize int `yaml:"batch_size" json:"batch_size"`

	// ConcurrentDownloads bounds the number of in-flight asset downloads
	// within one batch.
	ConcurrentDownloads int `yaml:"concurrent_downloads" json:"concurrent_downloads"`
}

// RetryConfig holds the retry policy for remote calls.
type RetryConfig struct {
	MaxRetries        int           `yaml:"max_retries" json:"max_retries"`
	InitialDelay      time.Duration `yaml:"initial_delay" json:"initial_delay"`
	MaxDelay          time.Duration `yaml:"max_delay" json:"max_delay"`
	BackoffMultiplier float64       `yaml:"backoff_multiplier" json:"backoff_multiplier"`
	Jitter            float64       `yaml:"jitter" json:"jitter"`
}

// SpriteConfig holds sprite sheet generation configuration.
type SpriteConfig struct {
	Padding          int    `yaml:"padding" json:"padding"`
	Retina           bool   `yaml:"retina" json:"retina"`
	RetinaScale      int    `yaml:"retina_scale" json:"retina_scale"`
	CompressionLevel int    `yaml:"compression_level" json:"compression_level"`
	Background       string `yaml:"background" json:"background"`
	OptimizeSVG      bool   `yaml:"optimize_svg" json:"optimize_svg"`

	// StrictOverlaps escalates a detected packed-rectangle overlap from a
	// warning to a hard failure.
	StrictOverlaps bool `yaml:"strict_overlaps" json:"strict_overlaps"`
}

// OutputConfig holds output configuration.
type OutputConfig struct {
	Directory string   `yaml:"directory" json:"directory"`
	Formats   []string `yaml:"formats" json:"formats"`
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	Level string `yaml:"level" json:"level"`
	File  string `yaml:"file" json:"file"`
}

// DefaultConfig returns a Config with the documented defaults.
func DefaultConfig() *Config {
	return &Config{
		Figma: FigmaConfig{
			RequestTimeout:    60 * time.Second,
			RequestsPerMinute: 30,
		},
		Export: ExportConfig{
			BatchSize:           50,
			ConcurrentDownloads: 5,
		},
		Retry: RetryConfig{
			MaxRetries:        3,
			InitialDelay:      2 * time.Second,
			MaxDelay:          60 * time.Second,
			BackoffMultiplier: 2.0,
			Jitter:            0.2,
		},
		Sprite: SpriteConfig{
			Padding:          2,
			Retina:           true,
			RetinaScale:      2,
			CompressionLevel: 6,
			Background:       "",
			OptimizeSVG:      true,
			StrictOverlaps:   false,
		},
		Output: OutputConfig{
			Directory: "./sprite",
			Formats:   []string{"png", "svg"},
		},
		Logging: LoggingConfig{
			Level: "info",
			File:  "",
		},
	}
}

// LoadFromEnv overrides configuration from environment variables.
func (c *Config) LoadFromEnv() error {
	if token := os.Getenv("FIGSPRITE_TOKEN"); token != "" {
		c.Figma.AccessToken = token
	} else if token := os.Getenv("FIGMA_TOKEN"); token != "" {
		c.Figma.AccessToken = token
	}

	if rpm := os.Getenv("FIGSPRITE_REQUESTS_PER_MINUTE"); rpm != "" {
		var val int
		fmt.Sscanf(rpm, "%d", &val)
		if val > 0 {
			c.Figma.RequestsPerMinute = val
		}
	}

	if concurrent := os.Getenv("FIGSPRITE_CONCURRENT_DOWNLOADS"); concurrent != "" {
		var val int
		fmt.Sscanf(concurrent, "%d", &val)
		if val > 0 {
			c.Export.ConcurrentDownloads = val
		}
	}

	if outputDir := os.Getenv("FIGSPRITE_OUTPUT_DIR"); outputDir != "" {
		c.Output.Directory = outputDir
	}

	if logLevel := os.Getenv("FIGSPRITE_LOG_LEVEL"); logLevel != "" {
		c.Logging.Level = logLevel
	}

	return nil
}

// LoadFromFile loads configuration from a YAML file.
func (c *Config) LoadFromFile(path string) error {
	if path == "" {
		path = c.findConfigFile()
		if path == "" {
			return nil // no config file, defaults apply
		}
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}

	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("failed to parse config file: %w", err)
	}

	return nil
}

func (c *Config) findConfigFile() string {
	locations := []string{
		".figsprite.yaml",
		".figsprite.yml",
		filepath.Join(os.Getenv("HOME"), ".config", "figsprite", "config.yaml"),
		filepath.Join(os.Getenv("HOME"), ".figsprite.yaml"),
	}

	for _, loc := range locations {
		if _, err := os.Stat(loc); err == nil {
			return loc
		}
	}

	return ""
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	var errs []error

	if c.Export.BatchSize <= 0 {
		errs = append(errs, errors.New("export batch size must be positive"))
	}
	if c.Export.ConcurrentDownloads <= 0 {
		errs = append(errs, errors.New("concurrent downloads must be positive"))
	}
	if c.Export.ConcurrentDownloads > 20 {
		errs = append(errs, errors.New("concurrent downloads should not exceed 20"))
	}

	if c.Retry.MaxRetries < 0 {
		errs = append(errs, errors.New("max retries cannot be negative"))
	}
	if c.Retry.InitialDelay <= 0 {
		errs = append(errs, errors.New("initial retry delay must be positive"))
	}
	if c.Retry.MaxDelay < c.Retry.InitialDelay {
		errs = append(errs, errors.New("max retry delay must be >= initial delay"))
	}
	if c.Retry.BackoffMultiplier < 1 {
		errs = append(errs, errors.New("backoff multiplier must be >= 1"))
	}
	if c.Retry.Jitter < 0 || c.Retry.Jitter > 1 {
		errs = append(errs, errors.New("jitter must be between 0 and 1"))
	}

	if c.Figma.RequestTimeout <= 0 {
		errs = append(errs, errors.New("request timeout must be positive"))
	}
	if c.Figma.RequestsPerMinute <= 0 {
		errs = append(errs, errors.New("requests per minute must be positive"))
	}

	if c.Sprite.Padding < 0 {
		errs = append(errs, errors.New("padding cannot be negative"))
	}
	if c.Sprite.RetinaScale != 1 && c.Sprite.RetinaScale != 2 {
		errs = append(errs, errors.New("retina scale must be 1 or 2"))
	}
	if c.Sprite.CompressionLevel < 0 || c.Sprite.CompressionLevel > 9 {
		errs = append(errs, errors.New("compression level must be between 0 and 9"))
	}

	if c.Output.Directory == "" {
		errs = append(errs, errors.New("output directory is required"))
	}
	if len(c.Output.Formats) == 0 {
		errs = append(errs, errors.New("at least one output format is required"))
	}
	for _, format := range c.Output.Formats {
		if format != "png" && format != "svg" {
			errs = append(errs, fmt.Errorf("unknown output format %q", format))
		}
	}

	validLogLevels := map[string]bool{
		"debug": true, "info": true, "warn": true, "error": true,
	}
	if !validLogLevels[strings.ToLower(c.Logging.Level)] {
		errs = append(errs, errors.New("invalid log level"))
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}

	return nil
}

// WantsFormat reports whether an output format was requested.
func (c *Config) WantsFormat(format string) bool {
	for _, f := range c.Output.Formats {
		if f == format {
			return true
		}
	}
	return false
}

// Save writes the configuration to a YAML file.
func (c *Config) Save(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// MergeCommandLineFlags merges command line flag values into the configuration.
func (c *Config) MergeCommandLineFlags(flags map[string]interface{}) {
	if token, ok := flags["token"].(string); ok && token != "" {
		c.Figma.AccessToken = token
	}
	if outputDir, ok := flags["output"].(string); ok && outputDir != "" {
		c.Output.Directory = outputDir
	}
	if formats, ok := flags["formats"].([]string); ok && len(formats) > 0 {
		c.Output.Formats = formats
	}
	if concurrent, ok := flags["concurrent"].(int); ok && concurrent > 0 {
		c.Export.ConcurrentDownloads = concurrent
	}
	if padding, ok := flags["padding"].(int); ok && padding >= 0 {
		c.Sprite.Padding = padding
	}
	if retina, ok := flags["retina"].(bool); ok {
		c.Sprite.Retina = retina
	}
	if strict, ok := flags["strict"].(bool); ok {
		c.Sprite.StrictOverlaps = strict
	}
	if logLevel, ok := flags["log-level"].(string); ok && logLevel != "" {
		c.Logging.Level = logLevel
	}
}

// Load loads configuration from all sources with proper precedence.
// Precedence order: flags > environment variables > .env file > config file > defaults.
func Load(configPath string, flags map[string]interface{}) (*Config, error) {
	_ = godotenv.Load(".env")
	_ = godotenv.Load(filepath.Join(os.Getenv("HOME"), ".figsprite.env"))

	config := DefaultConfig()

	if err := config.LoadFromFile(configPath); err != nil {
		return nil, fmt.Errorf("failed to load config file: %w", err)
	}

	if err := config.LoadFromEnv(); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	config.MergeCommandLineFlags(flags)

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return config, nil
}
