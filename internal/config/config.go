// Package config handles configuration loading and validation for VeridicalDB
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// Config holds all configuration for VeridicalDB
type Config struct {
	Storage StorageConfig `mapstructure:"storage" yaml:"storage"`
	Log     LogConfig     `mapstructure:"log" yaml:"log"`
}

// StorageConfig holds storage engine configuration
type StorageConfig struct {
	DataDir  string `mapstructure:"data_dir" yaml:"data_dir"`
	PageSize int    `mapstructure:"page_size" yaml:"page_size"`
}

// LogConfig holds logging configuration
type LogConfig struct {
	Level  string `mapstructure:"level" yaml:"level"`
	Format string `mapstructure:"format" yaml:"format"`
	Output string `mapstructure:"output" yaml:"output"`
}

// Default configuration values
func defaultConfig() *Config {
	return &Config{
		Storage: StorageConfig{
			DataDir:  "./data",
			PageSize: 8192, // 8KB pages
		},
		Log: LogConfig{
			Level:  "info",
			Format: "text",
			Output: "stderr",
		},
	}
}

// Load reads configuration from file and environment
func Load(configPath string) (*Config, error) {
	v := viper.New()

	// Set defaults
	cfg := defaultConfig()
	v.SetDefault("storage.data_dir", cfg.Storage.DataDir)
	v.SetDefault("storage.page_size", cfg.Storage.PageSize)
	v.SetDefault("log.level", cfg.Log.Level)
	v.SetDefault("log.format", cfg.Log.Format)
	v.SetDefault("log.output", cfg.Log.Output)

	// Environment variable support
	v.SetEnvPrefix("VERIDICAL")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Load config file if specified
	if configPath != "" {
		v.SetConfigFile(configPath)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	} else {
		// Search for config in common locations
		v.SetConfigName("veridicaldb")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("$HOME/.veridicaldb")
		v.AddConfigPath("/etc/veridicaldb")

		// It's okay if no config file is found - we use defaults
		_ = v.ReadInConfig()
	}

	// Unmarshal into struct
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	// Validate configuration
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks that configuration values are sensible
func (c *Config) Validate() error {
	if c.Storage.PageSize < 4096 || c.Storage.PageSize > 65536 {
		return fmt.Errorf("page_size must be between 4KB and 64KB")
	}

	// Page size should be power of 2
	if c.Storage.PageSize&(c.Storage.PageSize-1) != 0 {
		return fmt.Errorf("page_size must be a power of 2")
	}

	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[strings.ToLower(c.Log.Level)] {
		return fmt.Errorf("invalid log level: %s", c.Log.Level)
	}

	return nil
}

// ValidateDataDir checks if the data directory exists and is valid
func ValidateDataDir(dir string) error {
	info, err := os.Stat(dir)
	if os.IsNotExist(err) {
		return fmt.Errorf("data directory does not exist: %s", dir)
	}
	if err != nil {
		return fmt.Errorf("cannot access data directory: %w", err)
	}
	if !info.IsDir() {
		return fmt.Errorf("data path is not a directory: %s", dir)
	}

	// Check for marker file that indicates initialized DB
	markerPath := filepath.Join(dir, ".veridicaldb")
	if _, err := os.Stat(markerPath); os.IsNotExist(err) {
		return fmt.Errorf("directory is not a VeridicalDB data directory: %s", dir)
	}

	return nil
}

// InitDataDir creates and initializes a new data directory
func InitDataDir(dir string) error {
	// Create main directory
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create data directory: %w", err)
	}

	// Create subdirectories
	subdirs := []string{"tables", "indexes", "temp"}
	for _, sub := range subdirs {
		subPath := filepath.Join(dir, sub)
		if err := os.MkdirAll(subPath, 0755); err != nil {
			return fmt.Errorf("failed to create %s directory: %w", sub, err)
		}
	}

	// Create marker file
	markerPath := filepath.Join(dir, ".veridicaldb")
	markerContent := []byte("VeridicalDB Data Directory v1\n")
	if err := os.WriteFile(markerPath, markerContent, 0644); err != nil {
		return fmt.Errorf("failed to create marker file: %w", err)
	}

	return nil
}

// CreateDefaultConfig writes a default configuration file, marshaled from
// the same struct Load() unmarshals into, so the written file always
// round-trips cleanly.
func CreateDefaultConfig(path string, dataDir string) error {
	cfg := defaultConfig()
	cfg.Storage.DataDir = dataDir

	body, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshal default config: %w", err)
	}

	content := append([]byte("# VeridicalDB Configuration File\n\n"), body...)
	return os.WriteFile(path, content, 0644)
}
