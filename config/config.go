// Package config loads the orchestrator configuration from YAML, layered on
// top of the built-in defaults so a file only needs to declare what it
// changes.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/hupe1980/planmesh/core"
)

// fileConfig mirrors core.Config with optional fields so absent keys keep
// their defaults. Durations are Go duration strings, e.g. "30s".
type fileConfig struct {
	MaxRetries        *int    `yaml:"max_retries"`
	MaxLoopIterations *int    `yaml:"max_loop_iterations"`
	ToolTimeout       *string `yaml:"tool_timeout"`
	MemoryWindow      *int    `yaml:"memory_window"`
	DegradePolicy     *string `yaml:"degrade_policy"`
}

// Load reads a YAML config file, applies it over core.DefaultConfig and
// validates the result.
func Load(path string) (core.Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return core.Config{}, fmt.Errorf("read config %s: %w", path, err)
	}
	return Parse(data)
}

// Parse decodes YAML bytes over the defaults.
func Parse(data []byte) (core.Config, error) {
	var fc fileConfig
	if err := yaml.Unmarshal(data, &fc); err != nil {
		return core.Config{}, fmt.Errorf("parse config: %w", err)
	}

	cfg := core.DefaultConfig()
	if fc.MaxRetries != nil {
		cfg.MaxRetries = *fc.MaxRetries
	}
	if fc.MaxLoopIterations != nil {
		cfg.MaxLoopIterations = *fc.MaxLoopIterations
	}
	if fc.ToolTimeout != nil {
		d, err := time.ParseDuration(*fc.ToolTimeout)
		if err != nil {
			return core.Config{}, fmt.Errorf("parse tool_timeout: %w", err)
		}
		cfg.ToolTimeout = d
	}
	if fc.MemoryWindow != nil {
		cfg.MemoryWindow = *fc.MemoryWindow
	}
	if fc.DegradePolicy != nil {
		cfg.DegradePolicy = core.DegradePolicy(*fc.DegradePolicy)
	}

	if err := cfg.Validate(); err != nil {
		return core.Config{}, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}
