package wizard

import (
	"sort"

	"github.com/23f1002431/23f1002431-TDS-project1/internal/presets"
)

// BuilderOption is a site builder the wizard can configure.
type BuilderOption struct {
	Name        string
	Description string
}

// PresetOption is a starting configuration the wizard can seed from.
type PresetOption struct {
	Name        string
	Description string
}

// Registry holds the choices the wizard offers.
type Registry struct {
	Builders []BuilderOption
	Presets  []PresetOption
}

// PresetNames lists preset names in display order.
func (r Registry) PresetNames() []string {
	names := make([]string, len(r.Presets))
	for i, p := range r.Presets {
		names[i] = p.Name
	}
	return names
}

// BuilderNames lists builder names in display order.
func (r Registry) BuilderNames() []string {
	names := make([]string, len(r.Builders))
	for i, b := range r.Builders {
		names[i] = b.Name
	}
	return names
}

var defaultRegistry = buildRegistry()

// buildRegistry seeds the options: builders are the registered kinds,
// presets come from the presets package so the two never drift.
func buildRegistry() Registry {
	reg := Registry{
		Builders: []BuilderOption{
			{Name: "aipipe", Description: "LLM completion API (generated sites)"},
			{Name: "static", Description: "Deterministic default site (offline)"},
			{Name: "mock", Description: "Canned output (development)"},
		},
	}
	descs := presets.List()
	names := make([]string, 0, len(descs))
	for name := range descs {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		reg.Presets = append(reg.Presets, PresetOption{Name: name, Description: descs[name]})
	}
	return reg
}

// GetRegistry returns the current option set.
func GetRegistry() Registry {
	return defaultRegistry
}

// SetRegistry swaps the option set. Tests restore the previous value to
// avoid leaking state.
func SetRegistry(r Registry) {
	defaultRegistry = r
}
