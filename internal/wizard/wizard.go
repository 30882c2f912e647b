// Package wizard builds a working config.yaml interactively. All questions
// run through the Prompter seam so tests can script answers.
package wizard

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/AlecAivazis/survey/v2"
	"gopkg.in/yaml.v3"

	"github.com/23f1002431/23f1002431-TDS-project1/internal/config"
	"github.com/23f1002431/23f1002431-TDS-project1/internal/presets"
)

// Prompter answers wizard questions. The default implementation asks on the
// terminal via survey.
type Prompter interface {
	Select(msg string, options []string, def string) (string, error)
	Input(msg, def string) (string, error)
	Secret(msg string) (string, error)
	Confirm(msg string, def bool) (bool, error)
}

// Run walks the operator through a configuration and writes it to path
// (default ~/.config/taskhandler/config.yaml). Secrets already exported in
// the environment stay out of the file; since env vars can complete a
// partial file, the result is validated at load time rather than here.
func Run(ctx context.Context, path string, p Prompter) (string, error) {
	_ = ctx // survey has no context plumbing
	if p == nil {
		p = terminalPrompter{}
	}

	cfgPath := path
	if cfgPath == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		cfgPath = filepath.Join(home, ".config", "taskhandler", "config.yaml")
	}

	if _, err := os.Stat(cfgPath); err == nil {
		overwrite, err := p.Confirm(fmt.Sprintf("%s exists. Overwrite?", cfgPath), false)
		if err != nil {
			return "", err
		}
		if !overwrite {
			return "", fmt.Errorf("aborted: config exists at %s", cfgPath)
		}
	}

	cfg, err := seedFromPreset(p)
	if err != nil {
		return "", err
	}
	if err := fillSecrets(p, cfg); err != nil {
		return "", err
	}
	if err := fillServer(p, cfg); err != nil {
		return "", err
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return "", fmt.Errorf("marshal config: %w", err)
	}

	dryRun, err := p.Confirm("Dry-run only (preview config without writing)?", false)
	if err != nil {
		return "", err
	}
	if dryRun {
		fmt.Printf("Dry run: config NOT written. Target path would be %s\n%s", cfgPath, data)
		return cfgPath, nil
	}

	if err := os.MkdirAll(filepath.Dir(cfgPath), 0o755); err != nil {
		return "", fmt.Errorf("make config dir: %w", err)
	}
	if err := os.WriteFile(cfgPath, data, 0o600); err != nil {
		return "", fmt.Errorf("write config: %w", err)
	}
	return cfgPath, nil
}

// seedFromPreset starts from a chosen preset, or from defaults plus an
// explicit builder choice when the preset is not embedded.
func seedFromPreset(p Prompter) (*config.Config, error) {
	reg := GetRegistry()
	names := reg.PresetNames()
	choice, err := p.Select("Pick a preset", names, pickDefault("aipipe-live", names))
	if err != nil {
		return nil, err
	}

	if data, err := presets.Get(choice); err == nil {
		cfg, err := config.Parse(data)
		if err != nil {
			return nil, fmt.Errorf("load preset %s: %w", choice, err)
		}
		return cfg, nil
	}

	cfg, err := config.Parse(nil)
	if err != nil {
		return nil, err
	}
	builders := reg.BuilderNames()
	builder, err := p.Select("Builder", builders, pickDefault(config.BuilderAipipe, builders))
	if err != nil {
		return nil, err
	}
	cfg.Builder.Type = builder
	return cfg, nil
}

// fillSecrets prompts for each credential the preset and environment left
// blank. Refusing one aborts the wizard.
func fillSecrets(p Prompter, cfg *config.Config) error {
	if cfg.Server.Secret == "" && os.Getenv(config.EnvSecret) == "" {
		secret, err := p.Secret("Shared submission secret")
		if err != nil {
			return err
		}
		if secret == "" {
			return errors.New("submission secret is required")
		}
		cfg.Server.Secret = secret
	}

	if cfg.Builder.Type == config.BuilderAipipe && cfg.Builder.APIKey == "" && os.Getenv(config.EnvAPIKey) == "" {
		key, err := p.Secret("aipipe API key")
		if err != nil {
			return err
		}
		if key == "" {
			return errors.New("api key is required for the aipipe builder")
		}
		cfg.Builder.APIKey = key
	}

	if cfg.GitHub.Token == "" && os.Getenv(config.EnvGitHubToken) == "" {
		tok, err := p.Secret("GitHub token (repo scope)")
		if err != nil {
			return err
		}
		if tok == "" {
			return errors.New("github token is required")
		}
		cfg.GitHub.Token = tok
	}
	return nil
}

// fillServer covers the listen address, metrics, and the journal.
func fillServer(p Prompter, cfg *config.Config) error {
	addr, err := p.Input("Listen address", cfg.Server.Addr)
	if err != nil {
		return err
	}
	cfg.Server.Addr = addr

	metricsAddr, err := p.Input("Metrics listen address (empty to disable)", cfg.Metrics.Listen)
	if err != nil {
		return err
	}
	cfg.Metrics.Listen = metricsAddr

	journal, err := p.Confirm("Keep a task journal?", cfg.Storage.Path != "")
	if err != nil {
		return err
	}
	if !journal {
		cfg.Storage.Disable = true
		cfg.Storage.Path = ""
		return nil
	}

	def := cfg.Storage.Path
	if def == "" {
		def = defaultJournalPath()
	}
	jp, err := p.Input("Journal path", def)
	if err != nil {
		return err
	}
	cfg.Storage.Path = jp
	cfg.Storage.Disable = false
	return nil
}

func defaultJournalPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "taskhandler.db"
	}
	return filepath.Join(home, ".local", "share", "taskhandler", "taskhandler.db")
}

// pickDefault keeps want when it is on offer, else the first option.
func pickDefault(want string, options []string) string {
	for _, opt := range options {
		if opt == want {
			return want
		}
	}
	if len(options) > 0 {
		return options[0]
	}
	return want
}

// terminalPrompter asks on the terminal via survey.
type terminalPrompter struct{}

func (terminalPrompter) Select(msg string, options []string, def string) (string, error) {
	answer := def
	err := survey.AskOne(&survey.Select{Message: msg, Options: options, Default: def}, &answer)
	return answer, err
}

func (terminalPrompter) Input(msg, def string) (string, error) {
	answer := def
	err := survey.AskOne(&survey.Input{Message: msg, Default: def}, &answer)
	return answer, err
}

func (terminalPrompter) Secret(msg string) (string, error) {
	var answer string
	err := survey.AskOne(&survey.Password{Message: msg}, &answer)
	return answer, err
}

func (terminalPrompter) Confirm(msg string, def bool) (bool, error) {
	answer := def
	err := survey.AskOne(&survey.Confirm{Message: msg, Default: def}, &answer)
	return answer, err
}

// StubPrompter feeds scripted answers to tests. An exhausted queue falls
// back to the prompt's default, so tests script only what they assert on.
type StubPrompter struct {
	Selects   []string
	Inputs    []string
	Passwords []string
	Confirms  []bool
}

func shift[T any](queue *[]T, def T) T {
	if len(*queue) == 0 {
		return def
	}
	head := (*queue)[0]
	*queue = (*queue)[1:]
	return head
}

func (s *StubPrompter) Select(msg string, options []string, def string) (string, error) {
	return shift(&s.Selects, def), nil
}

func (s *StubPrompter) Input(msg, def string) (string, error) {
	return shift(&s.Inputs, def), nil
}

func (s *StubPrompter) Secret(msg string) (string, error) {
	return shift(&s.Passwords, ""), nil
}

func (s *StubPrompter) Confirm(msg string, def bool) (bool, error) {
	return shift(&s.Confirms, def), nil
}
