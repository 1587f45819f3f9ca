package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

// TestDefaultConfig verifies the defaults.
func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.DefaultPageSize != 100 {
		t.Errorf("expected default page size 100, got %d", cfg.DefaultPageSize)
	}
	if cfg.EvaluateTimeout != 10*time.Second {
		t.Errorf("expected evaluate timeout 10s, got %v", cfg.EvaluateTimeout)
	}
	if cfg.MaxSessions != 10 {
		t.Errorf("expected max sessions 10, got %d", cfg.MaxSessions)
	}
	if cfg.ExcludedTypes == "" {
		t.Error("expected a non-empty default exclusion list")
	}
}

// TestExcludedTypeSet verifies splitting of the semicolon-delimited list.
func TestExcludedTypeSet(t *testing.T) {
	tests := []struct {
		name  string
		list  string
		want  []string
		extra string
	}{
		{"plain", "module;function", []string{"module", "function"}, "int"},
		{"whitespace", " module ; function ", []string{"module", "function"}, "int"},
		{"empty segments", "module;;function;", []string{"module", "function"}, ""},
		{"empty list", "", nil, "module"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			cfg := DefaultConfig()
			cfg.ExcludedTypes = tc.list
			set := cfg.ExcludedTypeSet()

			if len(set) != len(tc.want) {
				t.Errorf("expected %d entries, got %d: %v", len(tc.want), len(set), set)
			}
			for _, name := range tc.want {
				if _, ok := set[name]; !ok {
					t.Errorf("expected %q in set", name)
				}
			}
			if tc.extra != "" {
				if _, ok := set[tc.extra]; ok {
					t.Errorf("did not expect %q in set", tc.extra)
				}
			}
		})
	}
}

// TestLoadConfig verifies file values overlay the defaults.
func TestLoadConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	data := `{"excludedTypes": "module", "defaultPageSize": 25, "evaluateTimeout": 5000000000}`
	if err := os.WriteFile(path, []byte(data), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}

	if cfg.ExcludedTypes != "module" {
		t.Errorf("expected excludedTypes overridden, got %q", cfg.ExcludedTypes)
	}
	if cfg.DefaultPageSize != 25 {
		t.Errorf("expected page size 25, got %d", cfg.DefaultPageSize)
	}
	// Durations are JSON numbers in nanoseconds.
	if cfg.EvaluateTimeout != 5*time.Second {
		t.Errorf("expected evaluate timeout 5s, got %v", cfg.EvaluateTimeout)
	}
	// Untouched fields keep their defaults.
	if cfg.MaxSessions != 10 {
		t.Errorf("expected default max sessions, got %d", cfg.MaxSessions)
	}
}

// TestLoadConfig_Missing verifies a missing file is an error while an
// empty path yields defaults.
func TestLoadConfig_Missing(t *testing.T) {
	if _, err := LoadConfig(filepath.Join(t.TempDir(), "absent.json")); err == nil {
		t.Error("expected error for missing file")
	}

	cfg, err := LoadConfig("")
	if err != nil {
		t.Fatalf("LoadConfig with empty path failed: %v", err)
	}
	if cfg.DefaultPageSize != 100 {
		t.Errorf("expected defaults, got %+v", cfg)
	}
}
