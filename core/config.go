package core

import (
	"fmt"
	"time"
)

// DegradePolicy resolves how persistent step failure is handled once the
// retry budget is spent.
type DegradePolicy string

const (
	// DegradeDrop removes the failed step from the remaining plan.
	DegradeDrop DegradePolicy = "drop"
	// DegradeSubstitute rebinds the failed step to a fallback tool when one
	// is declared, dropping it otherwise.
	DegradeSubstitute DegradePolicy = "substitute"
)

// Config is the per-turn configuration object. It is supplied at construction
// and never read from ambient global state.
type Config struct {
	// MaxRetries bounds re-dispatches of a single step after recoverable
	// failures. Observed attempts per step are at most MaxRetries+1.
	MaxRetries int `yaml:"max_retries"`

	// MaxLoopIterations is the hard cap on control-loop iterations per turn,
	// independent of per-step retries. Exceeding it forces a truncated
	// best-effort answer.
	MaxLoopIterations int `yaml:"max_loop_iterations"`

	// ToolTimeout bounds each tool invocation.
	ToolTimeout time.Duration `yaml:"tool_timeout"`

	// MemoryWindow is the short-term retention window in turns; the oldest
	// turn is evicted first.
	MemoryWindow int `yaml:"memory_window"`

	// DegradePolicy selects drop vs substitute behavior for spent steps.
	DegradePolicy DegradePolicy `yaml:"degrade_policy"`
}

// DefaultConfig returns conservative defaults safe for local development.
func DefaultConfig() Config {
	return Config{
		MaxRetries:        2,
		MaxLoopIterations: 12,
		ToolTimeout:       30 * time.Second,
		MemoryWindow:      5,
		DegradePolicy:     DegradeDrop,
	}
}

// Validate reports the first invalid field, if any.
func (c Config) Validate() error {
	if c.MaxRetries < 0 {
		return fmt.Errorf("max_retries must be >= 0, got %d", c.MaxRetries)
	}
	if c.MaxLoopIterations < 1 {
		return fmt.Errorf("max_loop_iterations must be >= 1, got %d", c.MaxLoopIterations)
	}
	if c.ToolTimeout <= 0 {
		return fmt.Errorf("tool_timeout must be positive, got %s", c.ToolTimeout)
	}
	if c.MemoryWindow < 0 {
		return fmt.Errorf("memory_window must be >= 0, got %d", c.MemoryWindow)
	}
	switch c.DegradePolicy {
	case DegradeDrop, DegradeSubstitute:
	default:
		return fmt.Errorf("unknown degrade_policy %q", c.DegradePolicy)
	}
	return nil
}
