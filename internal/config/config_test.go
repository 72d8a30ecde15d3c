package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.Scan.TopLevelName != "<top level>" {
		t.Errorf("expected top_level_name <top level>, got %q", cfg.Scan.TopLevelName)
	}

	if cfg.Output.DefaultFormat != "tgf" {
		t.Errorf("expected default_format tgf, got %s", cfg.Output.DefaultFormat)
	}

	if cfg.Output.Direction != "LR" {
		t.Errorf("expected direction LR, got %s", cfg.Output.Direction)
	}

	if cfg.Store.Path != "" {
		t.Errorf("expected store disabled by default, got %q", cfg.Store.Path)
	}

	if len(cfg.Serve.Tools) != 2 {
		t.Errorf("expected 2 default tools, got %v", cfg.Serve.Tools)
	}

	if err := Validate(cfg); err != nil {
		t.Errorf("default config does not validate: %v", err)
	}
}

func TestDefaultConfig_ToolsNotShared(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Serve.Tools[0] = "changed"

	if DefaultTools[0] == "changed" {
		t.Error("DefaultConfig shares its tools slice with DefaultTools")
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		modify  func(*Config)
		wantErr bool
	}{
		{"valid default", func(c *Config) {}, false},
		{"yaml format", func(c *Config) { c.Output.DefaultFormat = "yaml" }, false},
		{"format case insensitive", func(c *Config) { c.Output.DefaultFormat = "JSON" }, false},
		{"unknown format", func(c *Config) { c.Output.DefaultFormat = "svg" }, true},
		{"td direction", func(c *Config) { c.Output.Direction = "TD" }, false},
		{"bad direction", func(c *Config) { c.Output.Direction = "RL" }, true},
		{"blank top level", func(c *Config) { c.Scan.TopLevelName = "   " }, true},
		{"no timeout", func(c *Config) { c.Serve.Timeout = "0" }, false},
		{"bad timeout", func(c *Config) { c.Serve.Timeout = "soon" }, true},
		{"negative timeout", func(c *Config) { c.Serve.Timeout = "-5m" }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.modify(cfg)
			err := Validate(cfg)
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil && !errors.Is(err, ErrInvalidConfig) {
				t.Errorf("expected ErrInvalidConfig, got %v", err)
			}
		})
	}
}

func TestTimeoutDuration(t *testing.T) {
	d, err := ServeConfig{Timeout: "90s"}.TimeoutDuration()
	if err != nil || d != 90*time.Second {
		t.Errorf("TimeoutDuration(90s) = %v, %v", d, err)
	}

	d, err = ServeConfig{}.TimeoutDuration()
	if err != nil || d != 0 {
		t.Errorf("TimeoutDuration(\"\") = %v, %v", d, err)
	}
}

func TestMerge(t *testing.T) {
	loaded := &Config{
		Output: OutputConfig{DefaultFormat: "dot"},
		Store:  StoreConfig{Path: "runs.db"},
	}

	merged := Merge(loaded, DefaultConfig())

	if merged.Output.DefaultFormat != "dot" {
		t.Errorf("expected loaded format dot, got %s", merged.Output.DefaultFormat)
	}
	if merged.Output.Direction != "LR" {
		t.Errorf("expected default direction LR, got %s", merged.Output.Direction)
	}
	if merged.Store.Path != "runs.db" {
		t.Errorf("expected store path runs.db, got %s", merged.Store.Path)
	}
	if merged.Scan.TopLevelName != "<top level>" {
		t.Errorf("expected default top level, got %q", merged.Scan.TopLevelName)
	}
	if merged.Serve.Timeout != "30m" {
		t.Errorf("expected default timeout 30m, got %s", merged.Serve.Timeout)
	}
}

func TestLoadFromPath(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, ConfigFileName)

	content := `scan:
  top_level_name: "main chunk"
output:
  default_format: mermaid
  direction: TD
`
	if err := os.WriteFile(configPath, []byte(content), 0644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := LoadFromPath(configPath)
	if err != nil {
		t.Fatalf("LoadFromPath: %v", err)
	}

	if cfg.Scan.TopLevelName != "main chunk" {
		t.Errorf("top_level_name = %q", cfg.Scan.TopLevelName)
	}
	if cfg.Output.DefaultFormat != "mermaid" || cfg.Output.Direction != "TD" {
		t.Errorf("output = %+v", cfg.Output)
	}
	if cfg.Serve.Timeout != "30m" {
		t.Errorf("serve timeout not defaulted: %q", cfg.Serve.Timeout)
	}
}

func TestLoadFromPath_Missing(t *testing.T) {
	cfg, err := LoadFromPath(filepath.Join(t.TempDir(), "nope.yaml"))
	if err != nil {
		t.Fatalf("expected defaults for missing file, got %v", err)
	}
	if cfg.Output.DefaultFormat != "tgf" {
		t.Errorf("expected default format, got %s", cfg.Output.DefaultFormat)
	}
}

func TestLoadFromPath_Invalid(t *testing.T) {
	tmpDir := t.TempDir()

	badYAML := filepath.Join(tmpDir, "bad.yaml")
	if err := os.WriteFile(badYAML, []byte("output: [unclosed"), 0644); err != nil {
		t.Fatalf("write: %v", err)
	}
	if _, err := LoadFromPath(badYAML); err == nil {
		t.Error("expected parse error")
	}

	badValue := filepath.Join(tmpDir, "value.yaml")
	if err := os.WriteFile(badValue, []byte("output:\n  default_format: png\n"), 0644); err != nil {
		t.Fatalf("write: %v", err)
	}
	_, err := LoadFromPath(badValue)
	if !errors.Is(err, ErrInvalidConfig) {
		t.Errorf("expected ErrInvalidConfig, got %v", err)
	}
}

func TestLoad_WalksUp(t *testing.T) {
	root := t.TempDir()
	if _, err := EnsureConfigDir(root); err != nil {
		t.Fatalf("EnsureConfigDir: %v", err)
	}
	configPath := filepath.Join(root, ConfigDirName, ConfigFileName)
	if err := os.WriteFile(configPath, []byte("output:\n  default_format: json\n"), 0644); err != nil {
		t.Fatalf("write: %v", err)
	}

	nested := filepath.Join(root, "a", "b")
	if err := os.MkdirAll(nested, 0755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}

	cfg, err := Load(nested)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Output.DefaultFormat != "json" {
		t.Errorf("expected json from parent config, got %s", cfg.Output.DefaultFormat)
	}
}

func TestLoad_StorePathRelativeToProjectRoot(t *testing.T) {
	root := t.TempDir()
	if _, err := EnsureConfigDir(root); err != nil {
		t.Fatalf("EnsureConfigDir: %v", err)
	}
	configPath := filepath.Join(root, ConfigDirName, ConfigFileName)
	if err := os.WriteFile(configPath, []byte("store:\n  path: .luatgf/runs.db\n"), 0644); err != nil {
		t.Fatalf("write: %v", err)
	}

	nested := filepath.Join(root, "src", "game")
	if err := os.MkdirAll(nested, 0755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}

	for _, dir := range []string{root, nested} {
		cfg, err := Load(dir)
		if err != nil {
			t.Fatalf("Load(%s): %v", dir, err)
		}
		want := filepath.Join(root, ConfigDirName, "runs.db")
		if cfg.Store.Path != want {
			t.Errorf("Load(%s) store path = %q, want %q", dir, cfg.Store.Path, want)
		}
	}
}

func TestLoadFromPath_StorePath(t *testing.T) {
	dir := t.TempDir()
	abs := filepath.Join(t.TempDir(), "elsewhere.db")

	tests := []struct {
		name string
		path string
		want string
	}{
		{"empty stays disabled", "", ""},
		{"relative to file dir", "runs.db", filepath.Join(dir, "runs.db")},
		{"absolute untouched", abs, abs},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			configPath := filepath.Join(dir, "custom.yaml")
			content := "store:\n  path: \"" + tt.path + "\"\n"
			if err := os.WriteFile(configPath, []byte(content), 0644); err != nil {
				t.Fatalf("write: %v", err)
			}

			cfg, err := LoadFromPath(configPath)
			if err != nil {
				t.Fatalf("LoadFromPath: %v", err)
			}
			if cfg.Store.Path != tt.want {
				t.Errorf("store path = %q, want %q", cfg.Store.Path, tt.want)
			}
		})
	}
}

func TestFindConfigDir_NotFound(t *testing.T) {
	// A .luatgf above the temp dir is possible on dev machines.
	dir, err := FindConfigDir(t.TempDir())
	if err == nil && filepath.Base(dir) != ConfigDirName {
		t.Errorf("unexpected config dir %q", dir)
	}
	if err != nil && !errors.Is(err, ErrConfigNotFound) {
		t.Errorf("expected ErrConfigNotFound, got %v", err)
	}
}

func TestSaveDefault(t *testing.T) {
	tmpDir := t.TempDir()

	path, err := SaveDefault(tmpDir)
	if err != nil {
		t.Fatalf("SaveDefault: %v", err)
	}

	cfg, err := LoadFromPath(path)
	if err != nil {
		t.Fatalf("LoadFromPath: %v", err)
	}
	if cfg.Scan.TopLevelName != "<top level>" {
		t.Errorf("round trip top_level_name = %q", cfg.Scan.TopLevelName)
	}

	if _, err := SaveDefault(tmpDir); err == nil {
		t.Error("expected error when config already exists")
	}
}

func TestEnsureConfigDir_FileInTheWay(t *testing.T) {
	tmpDir := t.TempDir()
	if err := os.WriteFile(filepath.Join(tmpDir, ConfigDirName), []byte("x"), 0644); err != nil {
		t.Fatalf("write: %v", err)
	}

	if _, err := EnsureConfigDir(tmpDir); err == nil {
		t.Error("expected error when .luatgf is a file")
	}
}
