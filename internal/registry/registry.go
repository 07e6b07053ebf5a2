// Package registry loads and models the catalog of installable modules.
//
// A registry is a JSON document mapping module names to descriptors. It
// can live at the project root, beside the monolith executable, or behind
// an HTTP endpoint; a default catalog ships embedded in the binary.
// Template content referenced by descriptors is served by a TemplateSource
// that mirrors wherever the registry itself came from.
package registry

import (
	"encoding/json"
	"fmt"
	"sort"
)

// FormatVersion is the registry schema version this build understands.
const FormatVersion = 1

// Registry is the catalog of installable module descriptors. Module names
// are unique keys; a descriptor may require other keys in the same
// registry, and dangling requires are surfaced by resolution rather than
// here.
type Registry struct {
	FormatVersion int                    `json:"formatVersion"`
	Modules       map[string]*Descriptor `json:"modules"`
}

// Parse decodes and validates registry JSON.
func Parse(data []byte) (*Registry, error) {
	var reg Registry
	if err := json.Unmarshal(data, &reg); err != nil {
		return nil, fmt.Errorf("failed to parse registry: %w", err)
	}

	if reg.FormatVersion > FormatVersion {
		return nil, fmt.Errorf("registry format version %d is newer than supported version %d (upgrade monolith)",
			reg.FormatVersion, FormatVersion)
	}

	for name, mod := range reg.Modules {
		if mod == nil {
			return nil, fmt.Errorf("module %q has no descriptor", name)
		}
		switch mod.Name {
		case "":
			mod.Name = name
		case name:
		default:
			return nil, fmt.Errorf("module key %q does not match descriptor name %q", name, mod.Name)
		}
		if err := mod.validate(); err != nil {
			return nil, fmt.Errorf("module %q: %w", name, err)
		}
	}

	return &reg, nil
}

// Get looks up a module by name.
func (r *Registry) Get(name string) (*Descriptor, bool) {
	mod, ok := r.Modules[name]
	return mod, ok
}

// Names returns all module names sorted alphabetically.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.Modules))
	for name := range r.Modules {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
