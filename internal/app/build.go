// Package app assembles the service from configuration: builder, publisher,
// notifier, pipeline, and the HTTP server.
package app

import (
	"log/slog"
	"time"

	"github.com/23f1002431/23f1002431-TDS-project1/internal/builders"
	"github.com/23f1002431/23f1002431-TDS-project1/internal/builders/static"
	"github.com/23f1002431/23f1002431-TDS-project1/internal/config"
	"github.com/23f1002431/23f1002431-TDS-project1/internal/core"
	"github.com/23f1002431/23f1002431-TDS-project1/internal/notify"
	"github.com/23f1002431/23f1002431-TDS-project1/internal/publisher/github"
	"github.com/23f1002431/23f1002431-TDS-project1/internal/server"
	"github.com/23f1002431/23f1002431-TDS-project1/internal/store"

	// Builders register themselves with the registry. The static builder is
	// imported directly because it doubles as the round-1 fallback.
	_ "github.com/23f1002431/23f1002431-TDS-project1/internal/builders/aipipe"
	_ "github.com/23f1002431/23f1002431-TDS-project1/internal/builders/mock"
)

// Build constructs the HTTP server and everything beneath it from config.
// st may be nil when journaling is disabled.
func Build(cfg *config.Config, st *store.Store, logger *slog.Logger) (*server.Server, error) {
	bld, err := builders.Build(cfg.Builder.Type, cfg.Builder)
	if err != nil {
		return nil, err
	}

	pub, err := github.New(github.Config{
		Token:   cfg.GitHub.Token,
		APIBase: cfg.GitHub.APIBase,
		Branch:  cfg.GitHub.Branch,
		Timeout: time.Duration(cfg.GitHub.TimeoutSeconds) * time.Second,
	}, logger)
	if err != nil {
		return nil, err
	}

	ntf := notify.New(notify.Config{
		Timeout:      time.Duration(cfg.Evaluation.TimeoutSeconds) * time.Second,
		MaxAttempts:  cfg.Evaluation.MaxAttempts,
		InitialDelay: time.Duration(cfg.Evaluation.InitialDelaySeconds) * time.Second,
	}, logger)

	opts := []core.PipelineOption{}
	if cfg.Builder.Type != config.BuilderStatic {
		// Round 1 never fails on a broken LLM reply: the static default
		// site stands in.
		opts = append(opts, core.WithFallbackBuilder(static.New()))
	}
	var tasks server.TaskLister
	if st != nil {
		opts = append(opts, core.WithJournal(st))
		tasks = st
	}

	pipe := core.NewPipeline(bld, pub, ntf, logger, opts...)
	return server.New(cfg.Server, pipe, tasks, logger), nil
}
