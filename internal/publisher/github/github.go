// Package github publishes site bundles as public GitHub repositories with
// Pages enabled.
package github

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"sort"
	"strings"
	"time"

	"github.com/23f1002431/23f1002431-TDS-project1/internal/core"
	"github.com/23f1002431/23f1002431-TDS-project1/internal/metrics"
)

const userAgent = "IITM-Task-Handler/1.0"

// HTTPDoer lets tests substitute the HTTP client.
type HTTPDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

// Config holds GitHub client settings.
type Config struct {
	Token      string
	APIBase    string
	Branch     string
	Timeout    time.Duration
	HTTPClient HTTPDoer
}

// Defaults fills missing optional fields.
func (c *Config) Defaults() {
	if c.APIBase == "" {
		c.APIBase = "https://api.github.com"
	}
	if c.Branch == "" {
		c.Branch = "main"
	}
	if c.Timeout == 0 {
		c.Timeout = 30 * time.Second
	}
	if c.HTTPClient == nil {
		c.HTTPClient = http.DefaultClient
	}
}

func (c *Config) Validate() error {
	if c.Token == "" {
		return Err("token is required")
	}
	return nil
}

// Err wraps configuration/validation errors for clarity.
type Err string

func (e Err) Error() string {
	return fmt.Sprintf("github: %s", string(e))
}

// Publisher implements core.Publisher against the GitHub REST API.
type Publisher struct {
	cfg Config
	log *slog.Logger
}

// New builds a Publisher from Config. If log is nil, slog.Default is used.
func New(cfg Config, log *slog.Logger) (*Publisher, error) {
	cfg.Defaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if log == nil {
		log = slog.Default()
	}
	return &Publisher{cfg: cfg, log: log}, nil
}

type createRepoRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Private     bool   `json:"private"`
	AutoInit    bool   `json:"auto_init"`
	HasIssues   bool   `json:"has_issues"`
	HasProjects bool   `json:"has_projects"`
	HasWiki     bool   `json:"has_wiki"`
}

type createRepoResponse struct {
	FullName string `json:"full_name"`
	HTMLURL  string `json:"html_url"`
}

type contentRequest struct {
	Message string `json:"message"`
	Content string `json:"content"`
	Branch  string `json:"branch"`
	SHA     string `json:"sha,omitempty"`
}

type contentResponse struct {
	Commit struct {
		SHA string `json:"sha"`
	} `json:"commit"`
}

type fileInfoResponse struct {
	SHA string `json:"sha"`
}

// Publish creates the repository, pushes the bundle plus LICENSE and README,
// and enables Pages. The license and README always win over generated files
// of the same name.
func (p *Publisher) Publish(ctx context.Context, req core.PublishRequest) (core.Publication, error) {
	repo, err := p.createRepo(ctx, req)
	if err != nil {
		metrics.IncGitHub("create_repo", "error")
		return core.Publication{}, err
	}
	metrics.IncGitHub("create_repo", "ok")

	fullName := repo.FullName
	if fullName == "" {
		fullName = fullNameFromURL(repo.HTMLURL, req.RepoName)
	}

	files := make(map[string]string, len(req.Files)+2)
	for name, content := range req.Files {
		files[name] = content
	}
	files["LICENSE"] = mitLicense()
	files["README.md"] = comprehensiveReadme(req.Brief, req.Task, req.Email, fullName)

	commitSHA := ""
	for _, name := range sortedNames(files) {
		sha, err := p.putFile(ctx, fullName, name, files[name], "")
		if err != nil {
			metrics.IncGitHub("upload_file", "error")
			p.log.Warn("file upload failed", slog.String("file", name), slog.String("err", err.Error()))
			continue
		}
		metrics.IncGitHub("upload_file", "ok")
		if commitSHA == "" {
			commitSHA = sha
		}
	}
	if commitSHA == "" {
		commitSHA = "unknown"
	}

	pagesURL := p.enablePages(ctx, fullName)

	return core.Publication{
		FullName:  fullName,
		RepoURL:   repo.HTMLURL,
		CommitSHA: commitSHA,
		PagesURL:  pagesURL,
	}, nil
}

// Update rewrites existing files in the repository. Files absent upstream are
// created. Per-file failures are logged, not fatal; the commit SHA comes from
// the first file that lands.
func (p *Publisher) Update(ctx context.Context, req core.UpdateRequest) (core.Publication, error) {
	commitSHA := ""
	for _, name := range sortedNames(req.Files) {
		if name == "error" {
			// Models sometimes answer with an "error" key instead of a file.
			continue
		}
		existingSHA, err := p.fileSHA(ctx, req.FullName, name)
		if err != nil {
			metrics.IncGitHub("update_file", "error")
			p.log.Warn("file lookup failed", slog.String("file", name), slog.String("err", err.Error()))
			continue
		}
		sha, err := p.putFile(ctx, req.FullName, name, req.Files[name], existingSHA)
		if err != nil {
			metrics.IncGitHub("update_file", "error")
			p.log.Warn("file update failed", slog.String("file", name), slog.String("err", err.Error()))
			continue
		}
		metrics.IncGitHub("update_file", "ok")
		if commitSHA == "" {
			commitSHA = sha
		}
	}
	if commitSHA == "" {
		commitSHA = "unknown"
	}

	return core.Publication{
		FullName:  req.FullName,
		RepoURL:   "https://github.com/" + req.FullName,
		CommitSHA: commitSHA,
		PagesURL:  PagesURL(req.FullName),
	}, nil
}

func (p *Publisher) createRepo(ctx context.Context, req core.PublishRequest) (createRepoResponse, error) {
	payload := createRepoRequest{
		Name:        req.RepoName,
		Description: "IITM Task: " + truncate(req.Brief, 100),
		Private:     false,
		AutoInit:    false,
		HasIssues:   true,
		HasProjects: true,
		HasWiki:     true,
	}
	var repo createRepoResponse
	status, body, err := p.do(ctx, http.MethodPost, "/user/repos", payload, &repo)
	if err != nil {
		return createRepoResponse{}, err
	}
	if status != http.StatusCreated {
		return createRepoResponse{}, fmt.Errorf("github: create repository failed: %s", body)
	}
	return repo, nil
}

func (p *Publisher) putFile(ctx context.Context, fullName, name, content, sha string) (string, error) {
	message := "Add " + name
	if sha != "" {
		message = "Update " + name
	}
	payload := contentRequest{
		Message: message,
		Content: base64.StdEncoding.EncodeToString([]byte(content)),
		Branch:  p.cfg.Branch,
		SHA:     sha,
	}
	var result contentResponse
	path := fmt.Sprintf("/repos/%s/contents/%s", fullName, name)
	status, body, err := p.do(ctx, http.MethodPut, path, payload, &result)
	if err != nil {
		return "", err
	}
	if status != http.StatusOK && status != http.StatusCreated {
		return "", fmt.Errorf("github: put %s failed: %s", name, body)
	}
	if result.Commit.SHA == "" {
		return "unknown", nil
	}
	return result.Commit.SHA, nil
}

// fileSHA returns the blob sha of an existing file, or empty when the file
// does not exist yet.
func (p *Publisher) fileSHA(ctx context.Context, fullName, name string) (string, error) {
	var info fileInfoResponse
	path := fmt.Sprintf("/repos/%s/contents/%s", fullName, name)
	status, body, err := p.do(ctx, http.MethodGet, path, nil, &info)
	if err != nil {
		return "", err
	}
	switch status {
	case http.StatusOK:
		return info.SHA, nil
	case http.StatusNotFound:
		return "", nil
	default:
		return "", fmt.Errorf("github: get %s failed: %s", name, body)
	}
}

// enablePages turns on the Pages site and returns its URL. Failure falls back
// to the repository URL.
func (p *Publisher) enablePages(ctx context.Context, fullName string) string {
	payload := map[string]any{
		"source": map[string]string{
			"branch": p.cfg.Branch,
			"path":   "/",
		},
	}
	status, body, err := p.do(ctx, http.MethodPost, fmt.Sprintf("/repos/%s/pages", fullName), payload, nil)
	if err != nil || (status != http.StatusOK && status != http.StatusCreated) {
		metrics.IncGitHub("enable_pages", "error")
		p.log.Warn("enable pages failed",
			slog.String("repo", fullName),
			slog.Int("status", status),
			slog.String("body", body),
		)
		return "https://github.com/" + fullName
	}
	metrics.IncGitHub("enable_pages", "ok")
	return PagesURL(fullName)
}

// do performs one API request and decodes a JSON response into out when
// provided. It returns the status code and, for non-2xx responses, the body
// text for error reporting.
func (p *Publisher) do(ctx context.Context, method, path string, payload, out any) (int, string, error) {
	var reqBody io.Reader
	if payload != nil {
		raw, err := json.Marshal(payload)
		if err != nil {
			return 0, "", fmt.Errorf("github: encode request: %w", err)
		}
		reqBody = bytes.NewReader(raw)
	}

	ctx, cancel := context.WithTimeout(ctx, p.cfg.Timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, method, p.cfg.APIBase+path, reqBody)
	if err != nil {
		return 0, "", err
	}
	req.Header.Set("Authorization", "token "+p.cfg.Token)
	req.Header.Set("Accept", "application/vnd.github.v3+json")
	req.Header.Set("User-Agent", userAgent)
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := p.cfg.HTTPClient.Do(req)
	if err != nil {
		return 0, "", fmt.Errorf("github: %s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return resp.StatusCode, "", fmt.Errorf("github: read response: %w", err)
	}
	if resp.StatusCode >= 200 && resp.StatusCode < 300 && out != nil {
		if err := json.Unmarshal(raw, out); err != nil {
			return resp.StatusCode, "", fmt.Errorf("github: decode response: %w", err)
		}
	}
	return resp.StatusCode, strings.TrimSpace(string(raw)), nil
}

// PagesURL derives the Pages site URL from an owner/repo full name.
func PagesURL(fullName string) string {
	if owner, repo, ok := strings.Cut(fullName, "/"); ok {
		return fmt.Sprintf("https://%s.github.io/%s/", owner, repo)
	}
	return fmt.Sprintf("https://%s.github.io/", fullName)
}

func fullNameFromURL(htmlURL, fallback string) string {
	if _, after, ok := strings.Cut(htmlURL, "github.com/"); ok && after != "" {
		return after
	}
	return fallback
}

// sortedNames returns map keys ordered with code files first, LICENSE and
// README.md last, so the reported commit SHA comes from a generated file.
func sortedNames(files map[string]string) []string {
	names := make([]string, 0, len(files))
	var tail []string
	for name := range files {
		if name == "LICENSE" || name == "README.md" {
			tail = append(tail, name)
			continue
		}
		names = append(names, name)
	}
	sort.Strings(names)
	sort.Strings(tail)
	return append(names, tail...)
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
