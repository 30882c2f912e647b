package config

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Environment variables honored by Load. File values lose to these.
const (
	EnvAPIKey      = "AIPIPE_API_KEY"
	EnvGitHubToken = "GITHUB_TOKEN"
	EnvSecret      = "EXPECTED_SECRET"
	EnvConfigPath  = "TASKHANDLER_CONFIG"
)

// Builder backends selectable via builder.type.
const (
	BuilderAipipe = "aipipe"
	BuilderStatic = "static"
	BuilderMock   = "mock"
)

// Config holds the runtime configuration loaded from config.yaml.
type Config struct {
	Server     ServerConfig     `yaml:"server"`
	Builder    BuilderConfig    `yaml:"builder"`
	GitHub     GitHubConfig     `yaml:"github"`
	Evaluation EvaluationConfig `yaml:"evaluation"`
	Storage    StorageConfig    `yaml:"storage"`
	Metrics    MetricsConfig    `yaml:"metrics"`
	Logging    LoggingConfig    `yaml:"logging"`
}

// ServerConfig controls the HTTP listener.
type ServerConfig struct {
	Addr       string `yaml:"addr"`
	Secret     string `yaml:"secret"`
	AdminToken string `yaml:"admin_token"`
	CORSOrigin string `yaml:"cors_origin"`
}

// BuilderConfig controls how site files are generated.
type BuilderConfig struct {
	Type           string  `yaml:"type"`
	APIKey         string  `yaml:"api_key"`
	BaseURL        string  `yaml:"base_url"`
	Model          string  `yaml:"model"`
	MaxTokens      int     `yaml:"max_tokens"`
	Temperature    float64 `yaml:"temperature"`
	TimeoutSeconds int     `yaml:"timeout_seconds"`
}

// GitHubConfig controls the publishing client.
type GitHubConfig struct {
	Token          string `yaml:"token"`
	APIBase        string `yaml:"api_base"`
	Branch         string `yaml:"branch"`
	TimeoutSeconds int    `yaml:"timeout_seconds"`
}

// EvaluationConfig controls callback delivery.
type EvaluationConfig struct {
	TimeoutSeconds      int `yaml:"timeout_seconds"`
	MaxAttempts         int `yaml:"max_attempts"`
	InitialDelaySeconds int `yaml:"initial_delay_seconds"`
}

// StorageConfig controls the task journal.
type StorageConfig struct {
	Path    string `yaml:"path"`
	Disable bool   `yaml:"disable"`
}

// MetricsConfig controls the Prometheus endpoint. Empty listen disables it.
type MetricsConfig struct {
	Listen string `yaml:"listen"`
}

// LoggingConfig controls log level and output format. File, when set,
// receives a copy of everything written to stdout.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
	File   string `yaml:"file"`
}

// Load reads configuration from the provided path, layers environment
// overrides on top, fills defaults, and validates. An empty path skips the
// file entirely; the environment alone can produce a runnable config.
func Load(path string) (*Config, error) {
	var cfg Config
	if path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config: %w", err)
		}
		if err := yaml.Unmarshal(raw, &cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}
	cfg.applyEnv()
	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// LoadLenient is Load without the validation step. Diagnostics use it so an
// incomplete config can still be inspected and reported on.
func LoadLenient(path string) (*Config, error) {
	var cfg Config
	if path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config: %w", err)
		}
		if err := yaml.Unmarshal(raw, &cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}
	cfg.applyEnv()
	cfg.applyDefaults()
	return &cfg, nil
}

// LoadBytes parses raw YAML, fills defaults, and validates. It does not read
// the environment; callers that want overrides use Load.
func LoadBytes(raw []byte) (*Config, error) {
	cfg, err := Parse(raw)
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Parse parses raw YAML and fills defaults without validating. The setup
// wizard seeds from presets this way, filling in secrets afterwards.
func Parse(raw []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(raw, &cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	cfg.applyDefaults()
	return &cfg, nil
}

// Validate ensures the config is usable.
func (c *Config) Validate() error {
	if c.Server.Secret == "" {
		return errors.New("server.secret is required (or set EXPECTED_SECRET)")
	}
	switch c.Builder.Type {
	case BuilderAipipe:
		if c.Builder.APIKey == "" {
			return errors.New("builder.api_key is required (or set AIPIPE_API_KEY)")
		}
	case BuilderStatic, BuilderMock:
	default:
		return fmt.Errorf("builder.type %q is unknown (want aipipe, static, or mock)", c.Builder.Type)
	}
	if c.GitHub.Token == "" {
		return errors.New("github.token is required (or set GITHUB_TOKEN)")
	}
	if c.Evaluation.MaxAttempts < 1 {
		return errors.New("evaluation.max_attempts must be at least 1")
	}
	switch c.Logging.Format {
	case "text", "json":
	default:
		return fmt.Errorf("logging.format %q is unknown (want text or json)", c.Logging.Format)
	}
	return nil
}

func (c *Config) applyEnv() {
	if v := os.Getenv(EnvAPIKey); v != "" {
		c.Builder.APIKey = v
	}
	if v := os.Getenv(EnvGitHubToken); v != "" {
		c.GitHub.Token = v
	}
	if v := os.Getenv(EnvSecret); v != "" {
		c.Server.Secret = v
	}
}

func (c *Config) applyDefaults() {
	if c.Server.Addr == "" {
		c.Server.Addr = "0.0.0.0:8000"
	}
	if c.Server.CORSOrigin == "" {
		c.Server.CORSOrigin = "*"
	}
	if c.Builder.Type == "" {
		c.Builder.Type = BuilderAipipe
	}
	if c.Builder.BaseURL == "" {
		c.Builder.BaseURL = "https://api.aipipe.com/v1"
	}
	if c.Builder.Model == "" {
		c.Builder.Model = "gpt-4"
	}
	if c.Builder.MaxTokens == 0 {
		c.Builder.MaxTokens = 4000
	}
	if c.Builder.Temperature == 0 {
		c.Builder.Temperature = 0.7
	}
	if c.Builder.TimeoutSeconds == 0 {
		c.Builder.TimeoutSeconds = 60
	}
	if c.GitHub.APIBase == "" {
		c.GitHub.APIBase = "https://api.github.com"
	}
	if c.GitHub.Branch == "" {
		c.GitHub.Branch = "main"
	}
	if c.GitHub.TimeoutSeconds == 0 {
		c.GitHub.TimeoutSeconds = 30
	}
	if c.Evaluation.TimeoutSeconds == 0 {
		c.Evaluation.TimeoutSeconds = 30
	}
	if c.Evaluation.MaxAttempts == 0 {
		c.Evaluation.MaxAttempts = 6
	}
	if c.Evaluation.InitialDelaySeconds == 0 {
		c.Evaluation.InitialDelaySeconds = 1
	}
	if c.Storage.Path == "" && !c.Storage.Disable {
		c.Storage.Path = "taskhandler.db"
	}
	if c.Logging.Level == "" {
		c.Logging.Level = "info"
	}
	if c.Logging.Format == "" {
		c.Logging.Format = "text"
	}
}
