// Package builders selects and constructs site builders. Implementations
// register themselves by type name from init(), and the app resolves one
// through the builder.type config key.
package builders

import (
	"fmt"
	"sort"
	"sync"

	"github.com/23f1002431/23f1002431-TDS-project1/internal/config"
	"github.com/23f1002431/23f1002431-TDS-project1/internal/core"
)

// Constructor builds a Builder from the shared builder configuration.
type Constructor func(cfg config.BuilderConfig) (core.Builder, error)

type catalog struct {
	mu    sync.RWMutex
	kinds map[string]Constructor
}

var known = catalog{kinds: make(map[string]Constructor)}

func (c *catalog) add(kind string, ctor Constructor) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, dup := c.kinds[kind]; dup {
		return fmt.Errorf("duplicate builder type %s", kind)
	}
	c.kinds[kind] = ctor
	return nil
}

func (c *catalog) lookup(kind string) (Constructor, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	ctor, ok := c.kinds[kind]
	return ctor, ok
}

func (c *catalog) names() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]string, 0, len(c.kinds))
	for kind := range c.kinds {
		out = append(out, kind)
	}
	sort.Strings(out)
	return out
}

// Register adds a constructor for a builder type. Registering the same
// type twice is an error.
func Register(kind string, ctor Constructor) error {
	return known.add(kind, ctor)
}

// MustRegister is Register for init() use; it panics on a duplicate.
func MustRegister(kind string, ctor Constructor) {
	if err := known.add(kind, ctor); err != nil {
		panic(err)
	}
}

// Build constructs a builder of the given type.
func Build(kind string, cfg config.BuilderConfig) (core.Builder, error) {
	ctor, ok := known.lookup(kind)
	if !ok {
		return nil, fmt.Errorf("unknown builder type %s", kind)
	}
	return ctor(cfg)
}

// RegisteredTypes returns the registered builder kinds, sorted.
func RegisteredTypes() []string {
	return known.names()
}
