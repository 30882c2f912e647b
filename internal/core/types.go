package core

import (
	"context"
	"time"
)

// Builder turns a task brief into a set of site files. Round 1 uses Build;
// round 2 uses Modify against an already-published repository.
type Builder interface {
	Build(ctx context.Context, req BuildRequest) (Bundle, error)
	Modify(ctx context.Context, req ModifyRequest) (Bundle, error)
}

// Publisher pushes a file bundle to the hosting provider. Publish creates a
// fresh repository and enables its Pages site; Update commits changes to an
// existing one.
type Publisher interface {
	Publish(ctx context.Context, req PublishRequest) (Publication, error)
	Update(ctx context.Context, req UpdateRequest) (Publication, error)
}

// Notifier delivers the evaluation callback to a client-supplied URL.
type Notifier interface {
	Notify(ctx context.Context, url string, ev Evaluation) Delivery
}

// Journal records task lifecycle for the operator surface. It never gates
// request handling; a nil Journal is valid.
type Journal interface {
	RecordTask(rec TaskRecord) error
	AppendCallback(rec CallbackRecord) error
	SeenNonce(task, nonce string) (bool, error)
}

// TaskRequest is a round-1 submission.
type TaskRequest struct {
	Email         string       `json:"email"`
	Task          string       `json:"task"`
	Nonce         string       `json:"nonce"`
	Brief         string       `json:"brief"`
	Checks        []string     `json:"checks,omitempty"`
	Attachments   []Attachment `json:"attachments,omitempty"`
	EvaluationURL string       `json:"evaluation_url,omitempty"`
}

// RevisionRequest is a round-2 submission against an existing repository.
type RevisionRequest struct {
	Email         string   `json:"email"`
	Task          string   `json:"task"`
	Nonce         string   `json:"nonce"`
	Modification  string   `json:"modification"`
	RepoName      string   `json:"repo_name"` // owner/repo
	Checks        []string `json:"checks,omitempty"`
	EvaluationURL string   `json:"evaluation_url,omitempty"`
}

// Attachment is a named file reference supplied with a brief. URLs may be
// data: URLs carrying inline content.
type Attachment struct {
	Name string `json:"name"`
	URL  string `json:"url"`
}

// Bundle is a set of site files keyed by repository path.
type Bundle struct {
	Files map[string]string `json:"files"`
}

// BuildRequest carries everything the builder needs for a fresh site.
type BuildRequest struct {
	Brief       string
	Checks      []string
	Attachments []Attachment
}

// ModifyRequest asks the builder for updated files for an existing repo.
type ModifyRequest struct {
	Modification string
	RepoName     string
	Checks       []string
}

// PublishRequest creates a new repository containing the bundle.
type PublishRequest struct {
	RepoName string // short name without owner
	Brief    string
	Task     string
	Email    string
	Files    map[string]string
}

// UpdateRequest commits changed files to an existing repository.
type UpdateRequest struct {
	FullName string // owner/repo
	Files    map[string]string
}

// Publication describes where a bundle ended up.
type Publication struct {
	FullName  string `json:"full_name"`
	RepoURL   string `json:"repo_url"`
	CommitSHA string `json:"commit_sha"`
	PagesURL  string `json:"pages_url"`
}

// Evaluation is the callback payload posted to an evaluation endpoint. The
// field set and names are part of the external contract.
type Evaluation struct {
	Email     string `json:"email"`
	Task      string `json:"task"`
	Round     int    `json:"round"`
	Nonce     string `json:"nonce"`
	RepoURL   string `json:"repo_url"`
	CommitSHA string `json:"commit_sha"`
	PagesURL  string `json:"pages_url"`
}

// Delivery reports the outcome of a callback send.
type Delivery struct {
	Delivered bool
	Attempts  int
	Err       error
}

// TaskResult is what round 1 reports back to the submitter.
type TaskResult struct {
	RepoURL        string
	PagesURL       string
	CommitSHA      string
	FullName       string
	EvaluationSent bool
	Fallback       bool
}

// RevisionResult is what round 2 reports back.
type RevisionResult struct {
	RepoURL        string
	PagesURL       string
	CommitSHA      string
	EvaluationSent bool
}

// Task lifecycle statuses as recorded in the journal.
const (
	StatusReceived  = "received"
	StatusBuilt     = "built"
	StatusPublished = "published"
	StatusDone      = "done"
	StatusFailed    = "failed"
)

// TaskRecord is one journal entry per submission, updated as stages complete.
type TaskRecord struct {
	ID        string    `json:"id"`
	Round     int       `json:"round"`
	Email     string    `json:"email"`
	Task      string    `json:"task"`
	Nonce     string    `json:"nonce"`
	RepoURL   string    `json:"repo_url,omitempty"`
	CommitSHA string    `json:"commit_sha,omitempty"`
	PagesURL  string    `json:"pages_url,omitempty"`
	Status    string    `json:"status"`
	Error     string    `json:"error,omitempty"`
	Duplicate bool      `json:"duplicate,omitempty"`
	Fallback  bool      `json:"fallback,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// CallbackRecord is one journal entry per evaluation delivery attempt run.
type CallbackRecord struct {
	TaskID    string    `json:"task_id"`
	URL       string    `json:"url"`
	Round     int       `json:"round"`
	Attempts  int       `json:"attempts"`
	Delivered bool      `json:"delivered"`
	At        time.Time `json:"at"`
}
