package wizard

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/23f1002431/23f1002431-TDS-project1/internal/config"
)

func clearEnv(t *testing.T) {
	t.Helper()
	t.Setenv(config.EnvSecret, "")
	t.Setenv(config.EnvAPIKey, "")
	t.Setenv(config.EnvGitHubToken, "")
	// Keep user-level preset overrides out of the test.
	t.Setenv("HOME", t.TempDir())
}

func TestRunWritesConfig(t *testing.T) {
	clearEnv(t)
	td := t.TempDir()
	path := filepath.Join(td, "config.yaml")
	// mock-dev pre-fills every secret, so only the preset select matters.
	p := &StubPrompter{
		Selects: []string{"mock-dev"},
	}
	got, err := Run(context.Background(), path, p)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if got != path {
		t.Fatalf("expected path %s, got %s", path, got)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read config: %v", err)
	}
	content := string(data)
	if !strings.Contains(content, "type: mock") {
		t.Fatalf("config missing builder type:\n%s", content)
	}
	if !strings.Contains(content, "secret: dev-secret") {
		t.Fatalf("config missing preset secret:\n%s", content)
	}
	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("stat: %v", err)
	}
	if info.Mode().Perm() != 0o600 {
		t.Fatalf("config mode = %o, want 600", info.Mode().Perm())
	}
}

func TestRunPromptsForSecrets(t *testing.T) {
	clearEnv(t)
	td := t.TempDir()
	path := filepath.Join(td, "config.yaml")
	p := &StubPrompter{
		Selects:   []string{"aipipe-live"},
		Passwords: []string{"s3cret", "sk-key", "ghp_tok"},
	}
	if _, err := Run(context.Background(), path, p); err != nil {
		t.Fatalf("run: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read config: %v", err)
	}
	content := string(data)
	for _, want := range []string{"secret: s3cret", "api_key: sk-key", "token: ghp_tok", "type: aipipe"} {
		if !strings.Contains(content, want) {
			t.Fatalf("config missing %q:\n%s", want, content)
		}
	}
}

func TestRunSecretRequired(t *testing.T) {
	clearEnv(t)
	td := t.TempDir()
	path := filepath.Join(td, "config.yaml")
	p := &StubPrompter{
		Selects:   []string{"aipipe-live"},
		Passwords: []string{""}, // refuse to provide a secret
	}
	if _, err := Run(context.Background(), path, p); err == nil {
		t.Fatal("expected error for missing secret")
	}
}

func TestRunSkipsPromptsCoveredByEnv(t *testing.T) {
	t.Setenv(config.EnvSecret, "env-secret")
	t.Setenv(config.EnvAPIKey, "env-key")
	t.Setenv(config.EnvGitHubToken, "env-token")
	t.Setenv("HOME", t.TempDir())
	td := t.TempDir()
	path := filepath.Join(td, "config.yaml")
	// No passwords queued: every secret prompt must be skipped.
	p := &StubPrompter{Selects: []string{"aipipe-live"}}
	if _, err := Run(context.Background(), path, p); err != nil {
		t.Fatalf("run: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read config: %v", err)
	}
	if strings.Contains(string(data), "env-secret") {
		t.Fatal("env secret must not be written to the config file")
	}
}

func TestRunDryRunWritesNothing(t *testing.T) {
	clearEnv(t)
	td := t.TempDir()
	path := filepath.Join(td, "config.yaml")
	p := &StubPrompter{
		Selects:  []string{"mock-dev"},
		Confirms: []bool{false, true}, // journal? dry-run?
	}
	got, err := Run(context.Background(), path, p)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if got != path {
		t.Fatalf("expected path %s, got %s", path, got)
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Fatalf("dry run must not write the config (stat err %v)", err)
	}
}

func TestRunRefusesExistingWithoutOverwrite(t *testing.T) {
	clearEnv(t)
	td := t.TempDir()
	path := filepath.Join(td, "config.yaml")
	if err := os.WriteFile(path, []byte("server: {}\n"), 0o600); err != nil {
		t.Fatalf("seed config: %v", err)
	}
	p := &StubPrompter{
		Selects:  []string{"mock-dev"},
		Confirms: []bool{false}, // overwrite?
	}
	if _, err := Run(context.Background(), path, p); err == nil {
		t.Fatal("expected abort when config exists")
	}
}

func TestRunUnknownPresetAsksBuilder(t *testing.T) {
	clearEnv(t)
	prev := GetRegistry()
	SetRegistry(Registry{
		Builders: prev.Builders,
		Presets:  []PresetOption{{Name: "custom", Description: "not embedded"}},
	})
	t.Cleanup(func() { SetRegistry(prev) })

	td := t.TempDir()
	path := filepath.Join(td, "config.yaml")
	p := &StubPrompter{
		Selects:   []string{"custom", "static"},
		Passwords: []string{"s3cret", "ghp_tok"}, // static builder needs no api key
	}
	if _, err := Run(context.Background(), path, p); err != nil {
		t.Fatalf("run: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read config: %v", err)
	}
	if !strings.Contains(string(data), "type: static") {
		t.Fatalf("config missing selected builder:\n%s", data)
	}
}
