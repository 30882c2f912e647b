// Package server exposes the task handler over HTTP: the submission
// endpoints, the combined round-dispatch endpoint, and the small
// operational surface (health, info, recent tasks).
package server

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/23f1002431/23f1002431-TDS-project1/internal/config"
	"github.com/23f1002431/23f1002431-TDS-project1/internal/core"
	"github.com/23f1002431/23f1002431-TDS-project1/internal/metrics"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
)

var validate = validator.New()

// Runner executes submissions. *core.Pipeline satisfies it.
type Runner interface {
	RunTask(ctx context.Context, req core.TaskRequest) (core.TaskResult, error)
	RunRevision(ctx context.Context, req core.RevisionRequest) (core.RevisionResult, error)
}

// TaskLister serves the operator task listing. A nil TaskLister disables
// the /tasks endpoint.
type TaskLister interface {
	ListTasks(limit int) ([]core.TaskRecord, error)
}

// Server is the HTTP front end.
type Server struct {
	cfg    config.ServerConfig
	runner Runner
	tasks  TaskLister
	log    *slog.Logger
	srv    *http.Server
}

// New builds a Server. tasks may be nil when journaling is disabled.
func New(cfg config.ServerConfig, runner Runner, tasks TaskLister, log *slog.Logger) *Server {
	if log == nil {
		log = slog.Default()
	}
	return &Server{cfg: cfg, runner: runner, tasks: tasks, log: log}
}

// Handler returns the fully routed handler, CORS included.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/iitm-task", s.instrument("/iitm-task", s.handleTask))
	mux.HandleFunc("/iitm-round2", s.instrument("/iitm-round2", s.handleRevision))
	mux.HandleFunc("/api-endpoint", s.instrument("/api-endpoint", s.handleCombined))
	mux.HandleFunc("/health", s.instrument("/health", s.handleHealth))
	mux.HandleFunc("/info", s.instrument("/info", s.handleInfo))
	mux.HandleFunc("/tasks", s.instrument("/tasks", s.handleTasks))
	mux.HandleFunc("/", s.instrument("/", s.handleRoot))
	return s.withCORS(mux)
}

// Start runs the server until ctx is cancelled, then shuts down gracefully.
func (s *Server) Start(ctx context.Context) error {
	s.srv = &http.Server{
		Addr:              s.cfg.Addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.log.Info("http server listening", "addr", s.cfg.Addr)
		if err := s.srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer cancel()
		return s.srv.Shutdown(shutdownCtx)
	case err := <-errCh:
		return err
	}
}

func (s *Server) withCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", s.cfg.CORSOrigin)
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Authorization, Content-Type")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// instrument wraps a handler with the access log and the request counter.
func (s *Server) instrument(path string, fn http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		fn(rec, r)
		metrics.IncHTTP(path, rec.status)
		s.log.Info("request handled",
			"rid", uuid.NewString()[:8],
			"method", r.Method,
			"path", r.URL.Path,
			"status", rec.status,
			"duration", time.Since(start).Round(time.Millisecond).String(),
		)
	}
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

// taskSubmission is the round-1 body. The combined endpoint reuses it with
// the round/repo_name/modification extras.
type taskSubmission struct {
	Secret        string           `json:"secret"`
	Brief         string           `json:"brief"`
	Task          string           `json:"task"`
	Email         string           `json:"email"`
	Nonce         string           `json:"nonce"`
	EvaluationURL string           `json:"evaluation_url" validate:"omitempty,url"`
	Attachments   []attachmentBody `json:"attachments" validate:"omitempty,dive"`
	Checks        []string         `json:"checks"`

	Round        int    `json:"round"`
	RepoName     string `json:"repo_name"`
	Modification string `json:"modification"`
}

type attachmentBody struct {
	Name string `json:"name"`
	URL  string `json:"url" validate:"omitempty,url"`
}

type revisionSubmission struct {
	Secret        string `json:"secret"`
	Modification  string `json:"modification"`
	RepoName      string `json:"repo_name"`
	Email         string `json:"email"`
	Task          string `json:"task"`
	Nonce         string `json:"nonce"`
	EvaluationURL string `json:"evaluation_url" validate:"omitempty,url"`
}

type taskResponse struct {
	Status         string `json:"status"`
	Message        string `json:"message"`
	RepoURL        string `json:"repo_url"`
	PagesURL       string `json:"pages_url"`
	EvaluationSent bool   `json:"evaluation_sent"`
}

type revisionResponse struct {
	Status    string `json:"status"`
	Round     int    `json:"round"`
	Message   string `json:"message"`
	CommitSHA string `json:"commit_sha"`
}

func (s *Server) handleTask(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		s.writeError(w, http.StatusMethodNotAllowed, "Method Not Allowed")
		return
	}
	var body taskSubmission
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if !s.authorized(body.Secret) {
		s.writeError(w, http.StatusUnauthorized, "Invalid secret")
		return
	}
	if err := validate.Struct(body); err != nil {
		s.writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid request: %v", err))
		return
	}
	s.runTask(w, r, body)
}

func (s *Server) handleRevision(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		s.writeError(w, http.StatusMethodNotAllowed, "Method Not Allowed")
		return
	}
	var body revisionSubmission
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if !s.authorized(body.Secret) {
		s.writeError(w, http.StatusUnauthorized, "Invalid secret")
		return
	}
	if err := validate.Struct(body); err != nil {
		s.writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid request: %v", err))
		return
	}
	s.runRevision(w, r, body)
}

// handleCombined is the single-endpoint form: round selects the flow and
// defaults to 1. Round 2 takes its modification text from `modification`,
// falling back to `brief`.
func (s *Server) handleCombined(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		s.writeError(w, http.StatusMethodNotAllowed, "Method Not Allowed")
		return
	}
	var body taskSubmission
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if !s.authorized(body.Secret) {
		s.writeError(w, http.StatusUnauthorized, "Invalid secret")
		return
	}
	if err := validate.Struct(body); err != nil {
		s.writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid request: %v", err))
		return
	}

	round := body.Round
	if round == 0 {
		round = 1
	}
	switch round {
	case 1:
		s.runTask(w, r, body)
	case 2:
		modification := body.Modification
		if modification == "" {
			modification = body.Brief
		}
		s.runRevision(w, r, revisionSubmission{
			Secret:        body.Secret,
			Modification:  modification,
			RepoName:      body.RepoName,
			Email:         body.Email,
			Task:          body.Task,
			Nonce:         body.Nonce,
			EvaluationURL: body.EvaluationURL,
		})
	default:
		s.writeError(w, http.StatusBadRequest, "Invalid round number. Must be 1 or 2")
	}
}

func (s *Server) runTask(w http.ResponseWriter, r *http.Request, body taskSubmission) {
	req := core.TaskRequest{
		Email:         body.Email,
		Task:          body.Task,
		Nonce:         body.Nonce,
		Brief:         body.Brief,
		Checks:        body.Checks,
		EvaluationURL: body.EvaluationURL,
	}
	for _, a := range body.Attachments {
		req.Attachments = append(req.Attachments, core.Attachment{Name: a.Name, URL: a.URL})
	}

	res, err := s.runner.RunTask(r.Context(), req)
	if err != nil {
		s.log.Error("task failed", "task", body.Task, "error", err)
		s.writeError(w, http.StatusInternalServerError, fmt.Sprintf("Task processing failed: %v", err))
		return
	}
	s.writeJSON(w, http.StatusOK, taskResponse{
		Status:         "success",
		Message:        "Task completed successfully",
		RepoURL:        res.RepoURL,
		PagesURL:       res.PagesURL,
		EvaluationSent: res.EvaluationSent,
	})
}

func (s *Server) runRevision(w http.ResponseWriter, r *http.Request, body revisionSubmission) {
	if strings.TrimSpace(body.RepoName) == "" {
		s.writeError(w, http.StatusBadRequest, "repo_name required for round 2")
		return
	}

	res, err := s.runner.RunRevision(r.Context(), core.RevisionRequest{
		Email:         body.Email,
		Task:          body.Task,
		Nonce:         body.Nonce,
		Modification:  body.Modification,
		RepoName:      body.RepoName,
		EvaluationURL: body.EvaluationURL,
	})
	if err != nil {
		s.log.Error("revision failed", "repo", body.RepoName, "error", err)
		s.writeError(w, http.StatusInternalServerError, fmt.Sprintf("Round 2 processing failed: %v", err))
		return
	}
	s.writeJSON(w, http.StatusOK, revisionResponse{
		Status:    "success",
		Round:     2,
		Message:   "Code modified and updated in repo",
		CommitSHA: res.CommitSHA,
	})
}

func (s *Server) handleRoot(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		s.writeError(w, http.StatusNotFound, "Not Found")
		return
	}
	if r.Method != http.MethodGet {
		s.writeError(w, http.StatusMethodNotAllowed, "Method Not Allowed")
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]string{
		"message": "IITM Task Handler API",
		"status":  "running",
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.writeError(w, http.StatusMethodNotAllowed, "Method Not Allowed")
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]string{
		"status":    "healthy",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}

func (s *Server) handleInfo(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.writeError(w, http.StatusMethodNotAllowed, "Method Not Allowed")
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]any{
		"title":       "IITM Task Handler API",
		"description": "Automated code generation and GitHub repository management system for IITM tasks",
		"version":     "1.0.0",
		"endpoints": map[string]string{
			"POST /iitm-task":    "Handle IITM task submission (Round 1)",
			"POST /iitm-round2":  "Handle IITM task modification (Round 2)",
			"POST /api-endpoint": "Handle IITM task submission (Round 1 & 2)",
			"GET /health":        "Health check",
			"GET /info":          "API information",
		},
	})
}

func (s *Server) handleTasks(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.writeError(w, http.StatusMethodNotAllowed, "Method Not Allowed")
		return
	}
	if s.tasks == nil {
		s.writeError(w, http.StatusNotFound, "task journal disabled")
		return
	}
	if s.cfg.AdminToken != "" {
		tok := strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer ")
		if subtle.ConstantTimeCompare([]byte(tok), []byte(s.cfg.AdminToken)) != 1 {
			s.writeError(w, http.StatusUnauthorized, "unauthorized")
			return
		}
	}

	limit := 50
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			s.writeError(w, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		limit = n
	}

	recs, err := s.tasks.ListTasks(limit)
	if err != nil {
		s.log.Error("list tasks", "error", err)
		s.writeError(w, http.StatusInternalServerError, fmt.Sprintf("list tasks: %v", err))
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]any{
		"tasks": recs,
		"count": len(recs),
	})
}

func (s *Server) authorized(secret string) bool {
	return subtle.ConstantTimeCompare([]byte(secret), []byte(s.cfg.Secret)) == 1
}

func (s *Server) writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.log.Error("write response", "error", err)
	}
}

// writeError emits the {"detail": ...} error body used across the API.
func (s *Server) writeError(w http.ResponseWriter, code int, detail string) {
	s.writeJSON(w, code, map[string]string{"detail": detail})
}
