package presets

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/23f1002431/23f1002431-TDS-project1/internal/config"
)

// plantOverride writes an override preset under the given HOME.
func plantOverride(t *testing.T, home, name string, body []byte) {
	t.Helper()
	dir := filepath.Join(home, ".config", "taskhandler", "presets")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatalf("mkdir override dir: %v", err)
	}
	if err := os.WriteFile(filepath.Join(dir, name+".yaml"), body, 0o644); err != nil {
		t.Fatalf("write override: %v", err)
	}
}

func TestGet(t *testing.T) {
	t.Run("home override wins", func(t *testing.T) {
		home := t.TempDir()
		t.Setenv("HOME", home)
		custom := []byte("server:\n  secret: override\nbuilder:\n  type: mock\n")
		plantOverride(t, home, "mock-dev", custom)

		got, err := Get("mock-dev")
		if err != nil {
			t.Fatalf("get: %v", err)
		}
		if string(got) != string(custom) {
			t.Fatalf("override lost, got:\n%s", got)
		}
	})

	t.Run("embedded fallback", func(t *testing.T) {
		t.Setenv("HOME", t.TempDir())
		got, err := Get("aipipe-live")
		if err != nil {
			t.Fatalf("get: %v", err)
		}
		if len(got) == 0 {
			t.Fatal("embedded preset is empty")
		}
	})

	t.Run("unknown name", func(t *testing.T) {
		t.Setenv("HOME", t.TempDir())
		if _, err := Get("nope"); err == nil {
			t.Fatal("expected error")
		}
	})
}

// Every cataloged preset must parse against the current config schema and
// pick a builder.
func TestCatalogParses(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	for name := range List() {
		raw, err := Get(name)
		if err != nil {
			t.Fatalf("get %s: %v", name, err)
		}
		cfg, err := config.Parse(raw)
		if err != nil {
			t.Fatalf("parse %s: %v", name, err)
		}
		if cfg.Builder.Type == "" {
			t.Errorf("preset %s leaves builder type unset", name)
		}
	}
}
