package config

import (
	"os"
	"path/filepath"
	"testing"
)

func writeTempConfig(t *testing.T, contents string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(path, []byte(contents), 0o644); err != nil {
		t.Fatalf("write temp config: %v", err)
	}
	return path
}

func clearEnv(t *testing.T) {
	t.Helper()
	t.Setenv(EnvAPIKey, "")
	t.Setenv(EnvGitHubToken, "")
	t.Setenv(EnvSecret, "")
}

func TestLoadAppliesDefaults(t *testing.T) {
	clearEnv(t)
	cfgPath := writeTempConfig(t, `
server:
  secret: "s3cret"
builder:
  api_key: "aipipe-key"
github:
  token: "ghp_test"
`)
	cfg, err := Load(cfgPath)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Server.Addr != "0.0.0.0:8000" {
		t.Fatalf("server addr default wrong: %s", cfg.Server.Addr)
	}
	if cfg.Builder.Type != BuilderAipipe {
		t.Fatalf("builder type default wrong: %s", cfg.Builder.Type)
	}
	if cfg.Builder.Model != "gpt-4" || cfg.Builder.MaxTokens != 4000 {
		t.Fatalf("builder model defaults wrong: %s/%d", cfg.Builder.Model, cfg.Builder.MaxTokens)
	}
	if cfg.Builder.Temperature != 0.7 {
		t.Fatalf("temperature default wrong: %v", cfg.Builder.Temperature)
	}
	if cfg.GitHub.APIBase != "https://api.github.com" {
		t.Fatalf("github api base default wrong: %s", cfg.GitHub.APIBase)
	}
	if cfg.Evaluation.MaxAttempts != 6 || cfg.Evaluation.InitialDelaySeconds != 1 {
		t.Fatalf("evaluation defaults wrong: %+v", cfg.Evaluation)
	}
	if cfg.Storage.Path != "taskhandler.db" {
		t.Fatalf("storage path default wrong: %s", cfg.Storage.Path)
	}
	if cfg.Logging.Level != "info" || cfg.Logging.Format != "text" {
		t.Fatalf("logging defaults wrong: %+v", cfg.Logging)
	}
}

func TestLoadEnvOverridesFile(t *testing.T) {
	clearEnv(t)
	t.Setenv(EnvSecret, "env-secret")
	t.Setenv(EnvGitHubToken, "env-token")
	t.Setenv(EnvAPIKey, "env-key")
	cfgPath := writeTempConfig(t, `
server:
  secret: "file-secret"
builder:
  api_key: "file-key"
github:
  token: "file-token"
`)
	cfg, err := Load(cfgPath)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Server.Secret != "env-secret" {
		t.Fatalf("secret not overridden: %s", cfg.Server.Secret)
	}
	if cfg.GitHub.Token != "env-token" {
		t.Fatalf("token not overridden: %s", cfg.GitHub.Token)
	}
	if cfg.Builder.APIKey != "env-key" {
		t.Fatalf("api key not overridden: %s", cfg.Builder.APIKey)
	}
}

func TestLoadWithoutFileUsesEnv(t *testing.T) {
	clearEnv(t)
	t.Setenv(EnvSecret, "env-secret")
	t.Setenv(EnvGitHubToken, "env-token")
	t.Setenv(EnvAPIKey, "env-key")
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Server.Secret != "env-secret" || cfg.GitHub.Token != "env-token" {
		t.Fatalf("env-only config not applied: %+v", cfg)
	}
}

func TestLoadMissingSecretFails(t *testing.T) {
	clearEnv(t)
	cfgPath := writeTempConfig(t, `
builder:
  api_key: "k"
github:
  token: "t"
`)
	if _, err := Load(cfgPath); err == nil {
		t.Fatalf("expected validation error for missing secret")
	}
}

func TestLoadAipipeRequiresKey(t *testing.T) {
	clearEnv(t)
	cfgPath := writeTempConfig(t, `
server:
  secret: "s"
github:
  token: "t"
builder:
  type: aipipe
`)
	if _, err := Load(cfgPath); err == nil {
		t.Fatalf("expected validation error for missing api key")
	}
}

func TestLoadStaticBuilderNeedsNoKey(t *testing.T) {
	clearEnv(t)
	cfgPath := writeTempConfig(t, `
server:
  secret: "s"
github:
  token: "t"
builder:
  type: static
`)
	cfg, err := Load(cfgPath)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Builder.Type != BuilderStatic {
		t.Fatalf("builder type wrong: %s", cfg.Builder.Type)
	}
}

func TestLoadUnknownBuilderFails(t *testing.T) {
	clearEnv(t)
	cfgPath := writeTempConfig(t, `
server:
  secret: "s"
github:
  token: "t"
builder:
  type: carrier-pigeon
`)
	if _, err := Load(cfgPath); err == nil {
		t.Fatalf("expected validation error for unknown builder type")
	}
}

func TestLoadStorageDisable(t *testing.T) {
	clearEnv(t)
	cfgPath := writeTempConfig(t, `
server:
  secret: "s"
github:
  token: "t"
builder:
  type: static
storage:
  disable: true
`)
	cfg, err := Load(cfgPath)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Storage.Path != "" {
		t.Fatalf("disabled storage should keep empty path, got %s", cfg.Storage.Path)
	}
}

func TestLoadBytesIgnoresEnv(t *testing.T) {
	t.Setenv(EnvSecret, "env-secret")
	cfg, err := LoadBytes([]byte(`
server:
  secret: "file-secret"
builder:
  type: static
github:
  token: "t"
`))
	if err != nil {
		t.Fatalf("load bytes: %v", err)
	}
	if cfg.Server.Secret != "file-secret" {
		t.Fatalf("LoadBytes must not read env, got %s", cfg.Server.Secret)
	}
}

func TestLoadBadYAMLFails(t *testing.T) {
	clearEnv(t)
	cfgPath := writeTempConfig(t, "server: [not a map")
	if _, err := Load(cfgPath); err == nil {
		t.Fatalf("expected parse error")
	}
}

func TestParseSkipsValidation(t *testing.T) {
	cfg, err := Parse([]byte(`
builder:
  type: static
`))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if cfg.Server.Secret != "" {
		t.Fatalf("expected blank secret to survive Parse, got %q", cfg.Server.Secret)
	}
	if cfg.Server.Addr != "0.0.0.0:8000" {
		t.Fatalf("Parse should still fill defaults, got %s", cfg.Server.Addr)
	}
	if err := cfg.Validate(); err == nil {
		t.Fatalf("parsed config without secrets should fail Validate")
	}
}

func TestParseNilYieldsDefaults(t *testing.T) {
	cfg, err := Parse(nil)
	if err != nil {
		t.Fatalf("parse nil: %v", err)
	}
	if cfg.Builder.Type != BuilderAipipe || cfg.Logging.Format != "text" {
		t.Fatalf("defaults not applied: %+v", cfg)
	}
}

func TestLoadLenientAcceptsIncomplete(t *testing.T) {
	clearEnv(t)
	cfgPath := writeTempConfig(t, `
builder:
  type: aipipe
`)
	cfg, err := LoadLenient(cfgPath)
	if err != nil {
		t.Fatalf("lenient load: %v", err)
	}
	if cfg.Server.Secret != "" || cfg.Builder.APIKey != "" {
		t.Fatalf("expected missing secrets to stay empty: %+v", cfg)
	}
	if _, err := Load(cfgPath); err == nil {
		t.Fatalf("strict Load should reject the same file")
	}
}
