// Package check implements preflight diagnostics for a configuration:
// required secrets, endpoint reachability, listen address availability,
// and journal storage writability.
package check

import (
	"fmt"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/23f1002431/23f1002431-TDS-project1/internal/config"
)

// Result represents a single check outcome.
type Result struct {
	Name     string `json:"name"`
	Type     string `json:"type"`
	Status   string `json:"status"` // OK|WARN|MISSING
	Details  string `json:"details"`
	Optional bool   `json:"optional"`
}

// Checker defines an interface for running checks.
type Checker interface {
	Check(dep DepInput) Result
}

// DepInput describes one thing to verify. Name doubles as the target for
// url/addr/dirwrite checks; secrets carry their value separately so the
// label stays printable.
type DepInput struct {
	Name     string
	Type     string // secret|url|addr|dirwrite
	Value    string
	Optional bool
	Hint     string
}

var checkers = map[string]Checker{
	"secret":   SecretChecker{},
	"url":      URLChecker{},
	"addr":     AddrChecker{},
	"dirwrite": DirWriteChecker{},
}

// Run derives the dependency list from cfg and checks everything.
func Run(cfg *config.Config) []Result {
	return RunAll(FromConfig(cfg))
}

// RunAll checks each dep with the checker registered for its type.
func RunAll(deps []DepInput) []Result {
	results := make([]Result, 0, len(deps))
	for _, dep := range deps {
		c, ok := checkers[dep.Type]
		if !ok {
			results = append(results, Result{Name: dep.Name, Type: dep.Type, Status: "WARN", Details: "no checker for type", Optional: dep.Optional})
			continue
		}
		res := c.Check(dep)
		res.Optional = dep.Optional
		results = append(results, res)
	}
	return results
}

// FromConfig lists what a given configuration needs to run.
func FromConfig(cfg *config.Config) []DepInput {
	deps := []DepInput{
		{Name: "server.secret", Type: "secret", Value: cfg.Server.Secret, Hint: "set server.secret or EXPECTED_SECRET"},
		{Name: "github.token", Type: "secret", Value: cfg.GitHub.Token, Hint: "set github.token or GITHUB_TOKEN"},
		{Name: cfg.GitHub.APIBase, Type: "url", Optional: true, Hint: "GitHub REST API"},
		{Name: cfg.Server.Addr, Type: "addr", Optional: true, Hint: "server listen address"},
	}
	if cfg.Builder.Type == config.BuilderAipipe {
		deps = append(deps,
			DepInput{Name: "builder.api_key", Type: "secret", Value: cfg.Builder.APIKey, Hint: "set builder.api_key or AIPIPE_API_KEY"},
			DepInput{Name: cfg.Builder.BaseURL, Type: "url", Optional: true, Hint: "LLM completion endpoint"},
		)
	}
	if cfg.Storage.Path != "" {
		dir := filepath.Dir(cfg.Storage.Path)
		deps = append(deps, DepInput{Name: dir, Type: "dirwrite", Optional: true, Hint: "journal directory"})
	}
	return deps
}

// SecretChecker verifies a credential is set without printing it.
type SecretChecker struct{}

func (SecretChecker) Check(dep DepInput) Result {
	res := Result{Name: dep.Name, Type: dep.Type, Status: "OK", Details: "set"}
	if dep.Value == "" {
		res.Status = missingStatus(dep.Optional)
		res.Details = dep.Hint
	}
	return res
}

// URLChecker verifies an endpoint answers HTTP at all; any status code
// counts since auth failures still prove reachability.
type URLChecker struct {
	Client *http.Client
}

func (c URLChecker) Check(dep DepInput) Result {
	res := Result{Name: dep.Name, Type: dep.Type, Status: "OK"}
	client := c.Client
	if client == nil {
		client = &http.Client{Timeout: 5 * time.Second}
	}
	resp, err := client.Get(dep.Name)
	if err != nil {
		res.Status = missingStatus(dep.Optional)
		res.Details = fmt.Sprintf("unreachable (%s)", dep.Hint)
		return res
	}
	resp.Body.Close()
	res.Details = resp.Status
	return res
}

// AddrChecker verifies the listen address can be bound.
type AddrChecker struct{}

func (AddrChecker) Check(dep DepInput) Result {
	res := Result{Name: dep.Name, Type: dep.Type, Status: "OK"}
	ln, err := net.Listen("tcp", dep.Name)
	if err != nil {
		res.Status = missingStatus(dep.Optional)
		res.Details = fmt.Sprintf("cannot bind: %v", err)
		return res
	}
	_ = ln.Close()
	res.Details = "bindable"
	return res
}

// DirWriteChecker verifies the directory exists and accepts writes.
type DirWriteChecker struct{}

func (DirWriteChecker) Check(dep DepInput) Result {
	res := Result{Name: dep.Name, Type: dep.Type, Status: "OK"}
	probe, err := os.CreateTemp(dep.Name, ".check-*")
	if err != nil {
		res.Status = missingStatus(dep.Optional)
		res.Details = fmt.Sprintf("not writable (%s)", dep.Hint)
		return res
	}
	name := probe.Name()
	_ = probe.Close()
	_ = os.Remove(name)
	res.Details = "writable"
	return res
}

func missingStatus(optional bool) string {
	if optional {
		return "WARN"
	}
	return "MISSING"
}
