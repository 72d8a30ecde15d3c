package config

import (
	"github.com/luatgf/luatgf/internal/output"
	"github.com/luatgf/luatgf/internal/scan"
)

// DefaultTools is the default set of MCP tools to expose
var DefaultTools = []string{"lua_call_graph", "lua_line_count"}

// DefaultConfig returns configuration with sensible defaults.
// These defaults are used when no config file exists or when
// config file is missing specific fields.
func DefaultConfig() *Config {
	return &Config{
		Scan: ScanConfig{
			TopLevelName: scan.TopLevel,
		},
		Output: OutputConfig{
			DefaultFormat: string(output.DefaultFormat),
			Direction:     string(output.DirectionLR),
		},
		Store: StoreConfig{
			Path: "",
		},
		Serve: ServeConfig{
			Tools:   append([]string(nil), DefaultTools...),
			Timeout: "30m",
		},
	}
}

// Merge merges loaded config with defaults.
// Values from loaded config take precedence over defaults.
// Returns a new Config with merged values.
func Merge(loaded, defaults *Config) *Config {
	result := &Config{}

	result.Scan = mergeScanConfig(loaded.Scan, defaults.Scan)
	result.Output = mergeOutputConfig(loaded.Output, defaults.Output)
	result.Store = mergeStoreConfig(loaded.Store, defaults.Store)
	result.Serve = mergeServeConfig(loaded.Serve, defaults.Serve)

	return result
}

func mergeScanConfig(loaded, defaults ScanConfig) ScanConfig {
	result := ScanConfig{}

	if loaded.TopLevelName != "" {
		result.TopLevelName = loaded.TopLevelName
	} else {
		result.TopLevelName = defaults.TopLevelName
	}

	return result
}

func mergeOutputConfig(loaded, defaults OutputConfig) OutputConfig {
	result := OutputConfig{}

	if loaded.DefaultFormat != "" {
		result.DefaultFormat = loaded.DefaultFormat
	} else {
		result.DefaultFormat = defaults.DefaultFormat
	}

	if loaded.Direction != "" {
		result.Direction = loaded.Direction
	} else {
		result.Direction = defaults.Direction
	}

	return result
}

func mergeStoreConfig(loaded, defaults StoreConfig) StoreConfig {
	result := StoreConfig{}

	if loaded.Path != "" {
		result.Path = loaded.Path
	} else {
		result.Path = defaults.Path
	}

	return result
}

func mergeServeConfig(loaded, defaults ServeConfig) ServeConfig {
	result := ServeConfig{}

	if len(loaded.Tools) > 0 {
		result.Tools = loaded.Tools
	} else {
		result.Tools = defaults.Tools
	}

	if loaded.Timeout != "" {
		result.Timeout = loaded.Timeout
	} else {
		result.Timeout = defaults.Timeout
	}

	return result
}
