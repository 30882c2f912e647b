package assets

import (
	"testing"

	"github.com/23f1002431/23f1002431-TDS-project1/internal/config"
)

// Guards the example against schema drift.
func TestConfigExampleParses(t *testing.T) {
	cfg, err := config.Parse(ConfigExample)
	if err != nil {
		t.Fatalf("example config does not parse: %v", err)
	}
	if cfg.Builder.Type != config.BuilderAipipe {
		t.Fatalf("builder type = %q", cfg.Builder.Type)
	}
	if cfg.Server.Addr != "0.0.0.0:8000" {
		t.Fatalf("addr = %q", cfg.Server.Addr)
	}
	if cfg.GitHub.Branch != "main" {
		t.Fatalf("branch = %q", cfg.GitHub.Branch)
	}
}
