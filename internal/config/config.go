// Package config provides configuration management for the varscope server.
//
// Configuration controls:
//   - The excluded-type denylist applied when building variable snapshots
//   - Paging defaults for the variable listing API
//   - The per-request evaluation timeout against the debuggee
//   - Safety limits: maximum concurrent inspection sessions
//
// Configuration can be loaded from a JSON file or use sensible defaults.
package config

import (
	"encoding/json"
	"os"
	"strings"
	"time"
)

// Config holds the server configuration
type Config struct {
	// ExcludedTypes is a semicolon-delimited list of type names whose
	// variables are filtered out of every snapshot.
	ExcludedTypes string `json:"excludedTypes"`

	// DefaultPageSize is used when a variables request carries no page size
	DefaultPageSize int `json:"defaultPageSize"`

	// EvaluateTimeout bounds each evaluation request to the debuggee
	EvaluateTimeout time.Duration `json:"evaluateTimeout"`

	// Limits for safety
	MaxSessions int `json:"maxSessions"`
}

// DefaultConfig returns a configuration with sensible defaults
func DefaultConfig() *Config {
	return &Config{
		ExcludedTypes:   "module;function;builtin_function_or_method;type",
		DefaultPageSize: 100,
		EvaluateTimeout: 10 * time.Second,
		MaxSessions:     10,
	}
}

// LoadConfig loads configuration from a JSON file
func LoadConfig(path string) (*Config, error) {
	cfg := DefaultConfig()

	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

// ExcludedTypeSet splits ExcludedTypes into a lookup set.
// Empty segments and surrounding whitespace are discarded.
func (c *Config) ExcludedTypeSet() map[string]struct{} {
	set := make(map[string]struct{})
	for _, name := range strings.Split(c.ExcludedTypes, ";") {
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}
		set[name] = struct{}{}
	}
	return set
}
