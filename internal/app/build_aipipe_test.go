package app

import (
	"log/slog"
	"testing"

	"github.com/23f1002431/23f1002431-TDS-project1/internal/config"
)

func TestBuildWithAipipeBuilder(t *testing.T) {
	cfg, err := config.LoadBytes([]byte(`
server:
  secret: s3cret
builder:
  type: aipipe
  api_key: sk-test
github:
  token: ghp_test
storage:
  disable: true
`))
	if err != nil {
		t.Fatalf("load config: %v", err)
	}

	if _, err := Build(cfg, nil, slog.Default()); err != nil {
		t.Fatalf("build: %v", err)
	}
}

func TestBuildAipipeConfigFlowsThrough(t *testing.T) {
	cfg, err := config.LoadBytes([]byte(`
server:
  secret: s3cret
builder:
  type: aipipe
  api_key: sk-test
  base_url: https://llm.internal/v1
  model: gpt-4o-mini
  max_tokens: 1024
  temperature: 0.2
  timeout_seconds: 5
github:
  token: ghp_test
storage:
  disable: true
`))
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	if cfg.Builder.BaseURL != "https://llm.internal/v1" || cfg.Builder.MaxTokens != 1024 {
		t.Fatalf("builder overrides lost: %+v", cfg.Builder)
	}

	if _, err := Build(cfg, nil, slog.Default()); err != nil {
		t.Fatalf("build: %v", err)
	}
}
