package core

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/23f1002431/23f1002431-TDS-project1/internal/metrics"
)

// Pipeline wires the builder, publisher, and notifier together. One Pipeline
// serves all requests; it holds no per-request state.
type Pipeline struct {
	builder   Builder
	fallback  Builder
	publisher Publisher
	notifier  Notifier
	journal   Journal
	logger    *slog.Logger

	now   func() time.Time
	newID func() string
}

// PipelineOption configures a Pipeline.
type PipelineOption func(*Pipeline)

// WithFallbackBuilder sets the builder used when the primary fails on round 1.
func WithFallbackBuilder(b Builder) PipelineOption {
	return func(p *Pipeline) { p.fallback = b }
}

// WithJournal wires a task journal.
func WithJournal(j Journal) PipelineOption {
	return func(p *Pipeline) { p.journal = j }
}

// WithNow overrides the clock; used by tests and repo-name derivation.
func WithNow(now func() time.Time) PipelineOption {
	return func(p *Pipeline) { p.now = now }
}

// WithIDFunc overrides journal id generation.
func WithIDFunc(fn func() string) PipelineOption {
	return func(p *Pipeline) { p.newID = fn }
}

// NewPipeline constructs a Pipeline. If logger is nil, slog.Default is used.
func NewPipeline(builder Builder, publisher Publisher, notifier Notifier, logger *slog.Logger, opts ...PipelineOption) *Pipeline {
	if logger == nil {
		logger = slog.Default()
	}
	p := &Pipeline{
		builder:   builder,
		publisher: publisher,
		notifier:  notifier,
		logger:    logger,
		now:       func() time.Time { return time.Now().UTC() },
		newID:     uuid.NewString,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// RunTask executes the round-1 flow: build a site from the brief, publish it
// to a new repository, enable its Pages site, and deliver the optional
// evaluation callback.
func (p *Pipeline) RunTask(ctx context.Context, req TaskRequest) (TaskResult, error) {
	start := p.now()
	rec := TaskRecord{
		ID:        p.newID(),
		Round:     1,
		Email:     req.Email,
		Task:      req.Task,
		Nonce:     req.Nonce,
		Status:    StatusReceived,
		CreatedAt: start,
		UpdatedAt: start,
	}
	log := p.logger.With(
		slog.String("task_id", rec.ID),
		slog.String("task", req.Task),
		slog.Int("round", 1),
	)

	if seen := p.markNonce(req.Task, req.Nonce); seen {
		rec.Duplicate = true
		log.Warn("duplicate nonce, proceeding anyway", slog.String("nonce", req.Nonce))
	}
	p.record(rec)

	repoName := DeriveRepoName(req.Task, req.Nonce, start)

	bundle, err := p.builder.Build(ctx, BuildRequest{
		Brief:       req.Brief,
		Checks:      req.Checks,
		Attachments: req.Attachments,
	})
	if err != nil {
		metrics.IncLLM("error")
		if p.fallback == nil {
			return TaskResult{}, p.fail(rec, log, fmt.Errorf("build: %w", err))
		}
		log.Warn("builder failed, using fallback site", slog.String("err", err.Error()))
		bundle, err = p.fallback.Build(ctx, BuildRequest{Brief: req.Brief, Checks: req.Checks})
		if err != nil {
			return TaskResult{}, p.fail(rec, log, fmt.Errorf("fallback build: %w", err))
		}
		rec.Fallback = true
	} else {
		metrics.IncLLM("ok")
	}
	rec.Status = StatusBuilt
	rec.UpdatedAt = p.now()
	p.record(rec)

	pub, err := p.publisher.Publish(ctx, PublishRequest{
		RepoName: repoName,
		Brief:    req.Brief,
		Task:     req.Task,
		Email:    req.Email,
		Files:    bundle.Files,
	})
	if err != nil {
		return TaskResult{}, p.fail(rec, log, fmt.Errorf("publish: %w", err))
	}
	rec.Status = StatusPublished
	rec.RepoURL = pub.RepoURL
	rec.CommitSHA = pub.CommitSHA
	rec.PagesURL = pub.PagesURL
	rec.UpdatedAt = p.now()
	p.record(rec)
	log.Info("published",
		slog.String("repo", pub.FullName),
		slog.String("commit", pub.CommitSHA),
		slog.String("pages", pub.PagesURL),
	)

	result := TaskResult{
		RepoURL:        pub.RepoURL,
		PagesURL:       pub.PagesURL,
		CommitSHA:      pub.CommitSHA,
		FullName:       pub.FullName,
		EvaluationSent: req.EvaluationURL != "",
		Fallback:       rec.Fallback,
	}

	if req.EvaluationURL != "" {
		p.deliver(ctx, log, rec, req.EvaluationURL, Evaluation{
			Email:     req.Email,
			Task:      req.Task,
			Round:     1,
			Nonce:     req.Nonce,
			RepoURL:   pub.RepoURL,
			CommitSHA: pub.CommitSHA,
			PagesURL:  pub.PagesURL,
		})
	}

	rec.Status = StatusDone
	rec.UpdatedAt = p.now()
	p.record(rec)
	metrics.IncTask(1, "ok")
	metrics.ObserveTaskDuration(1, p.now().Sub(start))
	return result, nil
}

// RunRevision executes the round-2 flow: ask the builder for updated files
// and commit them to the existing repository. Unlike round 1 there is no
// fallback; an upstream build failure surfaces to the caller.
func (p *Pipeline) RunRevision(ctx context.Context, req RevisionRequest) (RevisionResult, error) {
	start := p.now()
	rec := TaskRecord{
		ID:        p.newID(),
		Round:     2,
		Email:     req.Email,
		Task:      req.Task,
		Nonce:     req.Nonce,
		Status:    StatusReceived,
		CreatedAt: start,
		UpdatedAt: start,
	}
	log := p.logger.With(
		slog.String("task_id", rec.ID),
		slog.String("repo", req.RepoName),
		slog.Int("round", 2),
	)
	p.record(rec)

	bundle, err := p.builder.Modify(ctx, ModifyRequest{
		Modification: req.Modification,
		RepoName:     req.RepoName,
		Checks:       req.Checks,
	})
	if err != nil {
		metrics.IncLLM("error")
		return RevisionResult{}, p.fail(rec, log, fmt.Errorf("modify: %w", err))
	}
	metrics.IncLLM("ok")
	rec.Status = StatusBuilt
	rec.UpdatedAt = p.now()
	p.record(rec)

	pub, err := p.publisher.Update(ctx, UpdateRequest{
		FullName: req.RepoName,
		Files:    bundle.Files,
	})
	if err != nil {
		return RevisionResult{}, p.fail(rec, log, fmt.Errorf("update: %w", err))
	}
	rec.Status = StatusPublished
	rec.RepoURL = pub.RepoURL
	rec.CommitSHA = pub.CommitSHA
	rec.PagesURL = pub.PagesURL
	rec.UpdatedAt = p.now()
	p.record(rec)
	log.Info("updated", slog.String("commit", pub.CommitSHA))

	result := RevisionResult{
		RepoURL:        pub.RepoURL,
		PagesURL:       pub.PagesURL,
		CommitSHA:      pub.CommitSHA,
		EvaluationSent: req.EvaluationURL != "",
	}

	if req.EvaluationURL != "" {
		p.deliver(ctx, log, rec, req.EvaluationURL, Evaluation{
			Email:     req.Email,
			Task:      req.Task,
			Round:     2,
			Nonce:     req.Nonce,
			RepoURL:   pub.RepoURL,
			CommitSHA: pub.CommitSHA,
			PagesURL:  pub.PagesURL,
		})
	}

	rec.Status = StatusDone
	rec.UpdatedAt = p.now()
	p.record(rec)
	metrics.IncTask(2, "ok")
	metrics.ObserveTaskDuration(2, p.now().Sub(start))
	return result, nil
}

// deliver sends the evaluation callback and journals the outcome. Delivery
// failures are logged but never fail the request.
func (p *Pipeline) deliver(ctx context.Context, log *slog.Logger, rec TaskRecord, url string, ev Evaluation) {
	d := p.notifier.Notify(ctx, url, ev)
	if d.Delivered {
		metrics.IncCallback("ok")
		log.Info("evaluation callback delivered", slog.Int("attempts", d.Attempts))
	} else {
		metrics.IncCallback("error")
		log.Error("evaluation callback failed",
			slog.Int("attempts", d.Attempts),
			slog.String("err", errString(d.Err)),
		)
	}
	if p.journal != nil {
		_ = p.journal.AppendCallback(CallbackRecord{
			TaskID:    rec.ID,
			URL:       url,
			Round:     ev.Round,
			Attempts:  d.Attempts,
			Delivered: d.Delivered,
			At:        p.now(),
		})
	}
}

func (p *Pipeline) fail(rec TaskRecord, log *slog.Logger, err error) error {
	rec.Status = StatusFailed
	rec.Error = err.Error()
	rec.UpdatedAt = p.now()
	p.record(rec)
	metrics.IncTask(rec.Round, "error")
	log.Error("task failed", slog.String("err", err.Error()))
	return err
}

func (p *Pipeline) record(rec TaskRecord) {
	if p.journal == nil {
		return
	}
	if err := p.journal.RecordTask(rec); err != nil {
		p.logger.Error("journal write failed", slog.String("err", err.Error()))
	}
}

func (p *Pipeline) markNonce(task, nonce string) bool {
	if p.journal == nil || nonce == "" {
		return false
	}
	seen, err := p.journal.SeenNonce(task, nonce)
	if err != nil {
		p.logger.Error("nonce lookup failed", slog.String("err", err.Error()))
		return false
	}
	return seen
}

// DeriveRepoName builds the round-1 repository name from the task id, nonce,
// and submission time: iitm-{task}-{nonce}-{unix}, spaces collapsed to dashes,
// lowercased.
func DeriveRepoName(task, nonce string, at time.Time) string {
	name := fmt.Sprintf("iitm-%s-%s-%d", task, nonce, at.Unix())
	name = strings.ReplaceAll(name, " ", "-")
	return strings.ToLower(name)
}

func errString(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}
