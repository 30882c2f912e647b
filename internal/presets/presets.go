// Package presets ships ready-made configurations for common deployments.
// A same-named YAML file under ~/.config/taskhandler/presets/ or ./presets/
// overrides the embedded copy.
package presets

import (
	"embed"
	"fmt"
	"os"
	"path/filepath"
)

//go:embed data/*.yaml
var embedded embed.FS

type preset struct {
	name        string
	description string
}

var catalog = []preset{
	{"aipipe-live", "LLM-generated sites pushed to GitHub Pages"},
	{"mock-dev", "Canned builder output for local development"},
	{"static-offline", "Deterministic default site, no LLM calls"},
}

// List returns preset names and descriptions.
func List() map[string]string {
	out := make(map[string]string, len(catalog))
	for _, p := range catalog {
		out[p.name] = p.description
	}
	return out
}

// Get returns the YAML for a preset, override copies winning over embedded
// ones. Unknown names error.
func Get(name string) ([]byte, error) {
	file := name + ".yaml"
	if home, err := os.UserHomeDir(); err == nil {
		if data, err := os.ReadFile(filepath.Join(home, ".config", "taskhandler", "presets", file)); err == nil {
			return data, nil
		}
	}
	if data, err := os.ReadFile(filepath.Join("presets", file)); err == nil {
		return data, nil
	}
	data, err := embedded.ReadFile("data/" + file)
	if err != nil {
		return nil, fmt.Errorf("unknown preset %s", name)
	}
	return data, nil
}
