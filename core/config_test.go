package core

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestDefaultConfigIsValid(t *testing.T) {
	assert.NoError(t, DefaultConfig().Validate())
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(c *Config)
	}{
		{"negative retries", func(c *Config) { c.MaxRetries = -1 }},
		{"zero iterations", func(c *Config) { c.MaxLoopIterations = 0 }},
		{"zero timeout", func(c *Config) { c.ToolTimeout = 0 }},
		{"negative window", func(c *Config) { c.MemoryWindow = -1 }},
		{"unknown policy", func(c *Config) { c.DegradePolicy = "escalate" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(&cfg)
			assert.Error(t, cfg.Validate())
		})
	}

	cfg := DefaultConfig()
	cfg.MemoryWindow = 0 // retention off is allowed
	cfg.ToolTimeout = time.Millisecond
	assert.NoError(t, cfg.Validate())
}
