// Package mock provides an in-memory builder for tests and local runs.
package mock

import (
	"context"
	"sync"

	"github.com/23f1002431/23f1002431-TDS-project1/internal/builders"
	"github.com/23f1002431/23f1002431-TDS-project1/internal/config"
	"github.com/23f1002431/23f1002431-TDS-project1/internal/core"
)

// Builder returns canned bundles and records what it was asked to do.
type Builder struct {
	mu        sync.Mutex
	Bundle    core.Bundle
	BuildErr  error
	ModifyErr error
	builds    []core.BuildRequest
	modifies  []core.ModifyRequest
}

func New() *Builder {
	return &Builder{
		Bundle: core.Bundle{Files: map[string]string{
			"index.html": "<!DOCTYPE html><html><body><h1>mock site</h1></body></html>",
			"README.md":  "# mock site\n",
		}},
	}
}

func (b *Builder) Build(ctx context.Context, req core.BuildRequest) (core.Bundle, error) {
	b.mu.Lock()
	b.builds = append(b.builds, req)
	b.mu.Unlock()
	if b.BuildErr != nil {
		return core.Bundle{}, b.BuildErr
	}
	return b.Bundle, nil
}

func (b *Builder) Modify(ctx context.Context, req core.ModifyRequest) (core.Bundle, error) {
	b.mu.Lock()
	b.modifies = append(b.modifies, req)
	b.mu.Unlock()
	if b.ModifyErr != nil {
		return core.Bundle{}, b.ModifyErr
	}
	return b.Bundle, nil
}

// Builds returns a copy of recorded build requests.
func (b *Builder) Builds() []core.BuildRequest {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]core.BuildRequest, len(b.builds))
	copy(out, b.builds)
	return out
}

// Modifies returns a copy of recorded modify requests.
func (b *Builder) Modifies() []core.ModifyRequest {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]core.ModifyRequest, len(b.modifies))
	copy(out, b.modifies)
	return out
}

func init() {
	builders.MustRegister(config.BuilderMock, func(cfg config.BuilderConfig) (core.Builder, error) {
		return New(), nil
	})
}
