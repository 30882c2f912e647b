// Command taskhandler serves the IITM task submission API: it turns briefs
// into static sites, publishes them to GitHub Pages, and reports back to
// evaluation endpoints.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"runtime/debug"
	"sort"
	"strings"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/23f1002431/23f1002431-TDS-project1/internal/app"
	"github.com/23f1002431/23f1002431-TDS-project1/internal/config"
	"github.com/23f1002431/23f1002431-TDS-project1/internal/metrics"
	"github.com/23f1002431/23f1002431-TDS-project1/internal/presets"
	"github.com/23f1002431/23f1002431-TDS-project1/internal/store"
	"github.com/23f1002431/23f1002431-TDS-project1/internal/wizard"
)

// version is stamped at build time via -ldflags "-X main.version=...".
var version = "dev"

func main() {
	// Secrets commonly live in a .env next to the binary; absence is fine.
	_ = godotenv.Load()

	cmd, rest := parseSubcommand(os.Args[1:])
	switch cmd {
	case "run":
		ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()
		if err := runContext(ctx, rest); err != nil && !errors.Is(err, context.Canceled) {
			fatalf("runtime error: %v", err)
		}
	case "setup":
		if err := runSetup(rest); err != nil {
			fatalf("setup: %v", err)
		}
	case "check":
		if err := runCheck(rest); err != nil {
			fatalf("check: %v", err)
		}
	case "presets":
		runPresets()
	case "config-example":
		printConfigExample()
	case "version":
		fmt.Printf("taskhandler %s\n", buildVersion())
	case "help":
		usage()
	default:
		usage()
		os.Exit(2)
	}
}

// parseSubcommand splits argv into a known subcommand and its arguments.
// Anything else (including flags) routes to run for backwards compatibility.
func parseSubcommand(args []string) (string, []string) {
	if len(args) == 0 {
		return "run", nil
	}
	switch args[0] {
	case "run", "setup", "check", "presets", "config-example", "version", "help":
		return args[0], args[1:]
	}
	if args[0] == "-h" || args[0] == "--help" {
		return "help", nil
	}
	return "run", args
}

func usage() {
	fmt.Print(`taskhandler - automated site generation and GitHub publishing

Usage:
  taskhandler [run] [-config path] [-skip-check]   start the HTTP service
  taskhandler setup [-config path]                 interactive configuration
  taskhandler check [-config path] [-json]         preflight diagnostics
  taskhandler presets                              list embedded presets
  taskhandler config-example                       print an annotated config
  taskhandler version                              print version

Configuration is read from -config, $` + config.EnvConfigPath + `, ./config.yaml, or
~/.config/taskhandler/config.yaml, in that order. The environment variables
` + config.EnvSecret + `, ` + config.EnvAPIKey + `, and ` + config.EnvGitHubToken + ` override file values.
`)
}

func runContext(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("run", flag.ContinueOnError)
	configPath := fs.String("config", defaultConfigPath(), "path to config.yaml")
	skipCheck := fs.Bool("skip-check", false, "skip preflight dependency checks")
	if err := fs.Parse(args); err != nil {
		return err
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	logger, err := setupLogger(cfg)
	if err != nil {
		return err
	}

	if !*skipCheck {
		if err := preflight(cfg); err != nil {
			return fmt.Errorf("%w; rerun with -skip-check to bypass", err)
		}
	}

	printBanner(cfg, buildVersion())

	var st *store.Store
	if cfg.Storage.Path != "" {
		st, err = store.New(cfg.Storage.Path)
		if err != nil {
			return fmt.Errorf("open journal: %w", err)
		}
		defer func() { _ = st.Close() }()
	}

	srv, err := app.Build(cfg, st, logger)
	if err != nil {
		return err
	}

	logger.Info("taskhandler starting",
		slog.String("addr", cfg.Server.Addr),
		slog.String("builder", cfg.Builder.Type),
		slog.String("version", buildVersion()),
	)

	// Start is fire-and-forget; the promhttp server stops with ctx.
	if err := metrics.Start(ctx, cfg.Metrics.Listen, logger); err != nil {
		return fmt.Errorf("metrics server: %w", err)
	}

	errCh := make(chan error, 1)
	go func() { errCh <- srv.Start(ctx) }()

	select {
	case <-ctx.Done():
		logger.Info("shutdown requested")
		<-errCh
		return ctx.Err()
	case err := <-errCh:
		return err
	}
}

func runSetup(args []string) error {
	fs := flag.NewFlagSet("setup", flag.ContinueOnError)
	configPath := fs.String("config", "", "where to write the config (default ~/.config/taskhandler/config.yaml)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	path, err := wizard.Run(context.Background(), *configPath, nil)
	if err != nil {
		return err
	}
	fmt.Printf("Config at %s. Run 'taskhandler check -config %s' to verify.\n", path, path)
	return nil
}

func runPresets() {
	list := presets.List()
	names := make([]string, 0, len(list))
	for name := range list {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		fmt.Printf("%-16s %s\n", name, list[name])
	}
	fmt.Println("\nOverride any preset via ~/.config/taskhandler/presets/<name>.yaml")
}

// defaultConfigPath picks the first config that exists: $TASKHANDLER_CONFIG,
// ./config.yaml, ~/.config/taskhandler/config.yaml. Falls back to
// ./config.yaml so error messages point somewhere sensible.
func defaultConfigPath() string {
	if p := os.Getenv(config.EnvConfigPath); p != "" {
		return p
	}
	if fileExists("config.yaml") {
		return "config.yaml"
	}
	if home, err := os.UserHomeDir(); err == nil {
		p := filepath.Join(home, ".config", "taskhandler", "config.yaml")
		if fileExists(p) {
			return p
		}
	}
	return "config.yaml"
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

func setupLogger(cfg *config.Config) (*slog.Logger, error) {
	level := slog.LevelInfo
	switch strings.ToLower(cfg.Logging.Level) {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	}

	var w io.Writer = os.Stdout
	if cfg.Logging.File != "" {
		f, err := os.OpenFile(cfg.Logging.File, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return nil, fmt.Errorf("open log file: %w", err)
		}
		w = io.MultiWriter(os.Stdout, f)
	}

	opts := &slog.HandlerOptions{Level: level}
	var handler slog.Handler
	if strings.ToLower(cfg.Logging.Format) == "json" {
		handler = slog.NewJSONHandler(w, opts)
	} else {
		handler = slog.NewTextHandler(w, opts)
	}
	return slog.New(handler), nil
}

func buildVersion() string {
	if version != "" && version != "dev" {
		return version
	}
	if bi, ok := debug.ReadBuildInfo(); ok && bi.Main.Version != "" && bi.Main.Version != "(devel)" {
		return bi.Main.Version
	}
	return version
}

func printBanner(cfg *config.Config, ver string) {
	if !isTTY() {
		return
	}
	fmt.Print(banner(cfg, ver))
}

func banner(cfg *config.Config, ver string) string {
	cyan := "\033[36m"
	mag := "\033[35m"
	gray := "\033[90m"
	reset := "\033[0m"

	journal := "off"
	if cfg.Storage.Path != "" {
		journal = cfg.Storage.Path
	}
	metricsStatus := "off"
	if cfg.Metrics.Listen != "" {
		metricsStatus = fmt.Sprintf("on @ %s", cfg.Metrics.Listen)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "%s╔══════════════════════════════════════════════════════╗%s\n", mag, reset)
	fmt.Fprintf(&b, "%s║%s  taskhandler %s%s\n", mag, reset, ver, reset)
	fmt.Fprintf(&b, "%s╠══════════════════════════════════════════════════════╣%s\n", mag, reset)
	fmt.Fprintf(&b, "%s║%s addr     %s%s%s\n", mag, reset, cyan, cfg.Server.Addr, reset)
	fmt.Fprintf(&b, "%s║%s builder  %s%s%s\n", mag, reset, cyan, cfg.Builder.Type, reset)
	fmt.Fprintf(&b, "%s║%s journal  %s%s%s\n", mag, reset, cyan, journal, reset)
	fmt.Fprintf(&b, "%s║%s metrics  %s%s%s\n", mag, reset, cyan, metricsStatus, reset)
	fmt.Fprintf(&b, "%s╚══════════════════════════════════════════════════════╝%s\n", mag, reset)
	fmt.Fprintf(&b, "%sTip:%s POST /iitm-task to submit; GET /health to probe.\n\n", gray, reset)
	return b.String()
}

func isTTY() bool {
	fi, err := os.Stdout.Stat()
	if err != nil {
		return false
	}
	return (fi.Mode() & os.ModeCharDevice) != 0
}

func fatalf(msg string, args ...any) {
	fmt.Fprintf(os.Stderr, msg+"\n", args...)
	os.Exit(1)
}
