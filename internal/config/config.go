package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/luatgf/luatgf/internal/output"
)

// ConfigFileName is the name of the luatgf configuration file
const ConfigFileName = "config.yaml"

// ConfigDirName is the name of the luatgf configuration directory
const ConfigDirName = ".luatgf"

// Config holds all luatgf configuration
type Config struct {
	Scan   ScanConfig   `yaml:"scan"`
	Output OutputConfig `yaml:"output"`
	Store  StoreConfig  `yaml:"store"`
	Serve  ServeConfig  `yaml:"serve"`
}

// ScanConfig holds configuration for the line scanner
type ScanConfig struct {
	TopLevelName string `yaml:"top_level_name"`
}

// OutputConfig holds configuration for output formatting
type OutputConfig struct {
	DefaultFormat string `yaml:"default_format"`
	Direction     string `yaml:"direction"`
}

// StoreConfig holds configuration for the run history database.
// An empty Path disables recording. A relative Path is resolved against
// the directory that contains .luatgf, not the working directory.
type StoreConfig struct {
	Path string `yaml:"path"`
}

// ServeConfig holds configuration for the MCP server
type ServeConfig struct {
	Tools   []string `yaml:"tools"`
	Timeout string   `yaml:"timeout"`
}

// ErrConfigNotFound is returned when no config file can be found
var ErrConfigNotFound = errors.New("config file not found")

// ErrInvalidConfig is returned when config validation fails
var ErrInvalidConfig = errors.New("invalid configuration")

// Load reads config from .luatgf/config.yaml, falling back to defaults.
// It searches for the config directory starting from workDir and walking up
// the directory tree. If no config is found, returns defaults.
func Load(workDir string) (*Config, error) {
	configDir, err := FindConfigDir(workDir)
	if err != nil {
		return DefaultConfig(), nil
	}

	configPath := filepath.Join(configDir, ConfigFileName)
	return LoadFromPath(configPath)
}

// LoadFromPath reads config from a specific path.
// Merges loaded config with defaults and validates the result.
func LoadFromPath(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return DefaultConfig(), nil
		}
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	loaded := &Config{}
	if err := yaml.Unmarshal(data, loaded); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	merged := Merge(loaded, DefaultConfig())

	if err := Validate(merged); err != nil {
		return nil, err
	}

	if err := resolveStorePath(merged, path); err != nil {
		return nil, err
	}

	return merged, nil
}

// resolveStorePath anchors a relative store.path at the project root that
// owns the config file: the parent of a .luatgf directory, otherwise the
// directory holding the file.
func resolveStorePath(cfg *Config, configPath string) error {
	if cfg.Store.Path == "" || filepath.IsAbs(cfg.Store.Path) {
		return nil
	}

	base, err := filepath.Abs(filepath.Dir(configPath))
	if err != nil {
		return fmt.Errorf("resolving store path: %w", err)
	}
	if filepath.Base(base) == ConfigDirName {
		base = filepath.Dir(base)
	}

	cfg.Store.Path = filepath.Join(base, cfg.Store.Path)
	return nil
}

// FindConfigDir locates the .luatgf directory by walking up from startDir.
// Returns the path to the .luatgf directory if found.
func FindConfigDir(startDir string) (string, error) {
	absDir, err := filepath.Abs(startDir)
	if err != nil {
		return "", fmt.Errorf("resolving path: %w", err)
	}

	currentDir := absDir
	for {
		configDir := filepath.Join(currentDir, ConfigDirName)
		info, err := os.Stat(configDir)
		if err == nil && info.IsDir() {
			return configDir, nil
		}

		parentDir := filepath.Dir(currentDir)
		if parentDir == currentDir {
			return "", ErrConfigNotFound
		}
		currentDir = parentDir
	}
}

// EnsureConfigDir creates the .luatgf directory if it doesn't exist.
// Returns the path to the .luatgf directory.
func EnsureConfigDir(workDir string) (string, error) {
	absDir, err := filepath.Abs(workDir)
	if err != nil {
		return "", fmt.Errorf("resolving path: %w", err)
	}

	configDir := filepath.Join(absDir, ConfigDirName)

	info, err := os.Stat(configDir)
	if err == nil {
		if info.IsDir() {
			return configDir, nil
		}
		return "", fmt.Errorf("%s exists but is not a directory", configDir)
	}

	if err := os.MkdirAll(configDir, 0755); err != nil {
		return "", fmt.Errorf("creating config directory: %w", err)
	}

	return configDir, nil
}

// Validate checks that config values are valid.
// Returns an error if validation fails.
func Validate(cfg *Config) error {
	if strings.TrimSpace(cfg.Scan.TopLevelName) == "" {
		return fmt.Errorf("%w: top_level_name must not be blank", ErrInvalidConfig)
	}

	if _, err := output.ParseFormat(cfg.Output.DefaultFormat); err != nil {
		return fmt.Errorf("%w: default_format: %v", ErrInvalidConfig, err)
	}

	if _, err := output.ParseDirection(cfg.Output.Direction); err != nil {
		return fmt.Errorf("%w: direction: %v", ErrInvalidConfig, err)
	}

	if _, err := cfg.Serve.TimeoutDuration(); err != nil {
		return fmt.Errorf("%w: serve timeout: %v", ErrInvalidConfig, err)
	}

	return nil
}

// TimeoutDuration parses Timeout. "0" and "" both mean no timeout.
func (s ServeConfig) TimeoutDuration() (time.Duration, error) {
	if s.Timeout == "" || s.Timeout == "0" {
		return 0, nil
	}
	d, err := time.ParseDuration(s.Timeout)
	if err != nil {
		return 0, err
	}
	if d < 0 {
		return 0, fmt.Errorf("must be non-negative, got %s", s.Timeout)
	}
	return d, nil
}

// SaveDefault writes the default configuration to .luatgf/config.yaml in workDir.
// Creates the .luatgf directory if it doesn't exist.
func SaveDefault(workDir string) (string, error) {
	configDir, err := EnsureConfigDir(workDir)
	if err != nil {
		return "", err
	}

	configPath := filepath.Join(configDir, ConfigFileName)

	if _, err := os.Stat(configPath); err == nil {
		return "", fmt.Errorf("config file already exists: %s", configPath)
	}

	data, err := yaml.Marshal(DefaultConfig())
	if err != nil {
		return "", fmt.Errorf("marshaling config: %w", err)
	}

	header := "# luatgf configuration\n\n"
	data = append([]byte(header), data...)

	if err := os.WriteFile(configPath, data, 0644); err != nil {
		return "", fmt.Errorf("writing config file: %w", err)
	}

	return configPath, nil
}
