package inject

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/eastgold15/Monolith/internal/registry"
)

// ManifestFile is the registration manifest at the project root.
const ManifestFile = "monolith.manifest.yml"

// Default anchor markers written into fresh entry files and seeded
// manifests.
const (
	MarkerPlugins = "monolith:plugins"
	MarkerRoutes  = "monolith:routes"
)

// Anchor is one structured injection point in an entry file: the marker
// comment that locates it and the statement template rendered there.
type Anchor struct {
	Kind     registry.RegisterKind `yaml:"kind"`
	Marker   string                `yaml:"marker"`
	Template string                `yaml:"template"`
}

// Registration records one completed injection, keyed by import alias.
type Registration struct {
	Alias  string `yaml:"alias"`
	Path   string `yaml:"path"`
	Anchor string `yaml:"anchor"`
}

// Entry holds the anchors and registrations of one entry file.
type Entry struct {
	Anchors       map[string]Anchor `yaml:"anchors,omitempty"`
	Registrations []Registration    `yaml:"registrations,omitempty"`
}

// Manifest is the queryable record of injection points and performed
// registrations. The injector upserts against it instead of re-scanning
// entry files blindly, which is what makes repeated installs safe.
type Manifest struct {
	Version int              `yaml:"version"`
	Entries map[string]Entry `yaml:"entries,omitempty"`

	path  string
	dirty bool
}

// LoadManifest reads monolith.manifest.yml from the project root. A
// missing file yields a fresh manifest that Save will create.
func LoadManifest(root string) (*Manifest, error) {
	path := filepath.Join(root, ManifestFile)

	m := &Manifest{Version: 1, Entries: make(map[string]Entry), path: path}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return m, nil
		}
		return nil, fmt.Errorf("failed to read %s: %w", ManifestFile, err)
	}

	if err := yaml.Unmarshal(data, m); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", ManifestFile, err)
	}
	if m.Entries == nil {
		m.Entries = make(map[string]Entry)
	}
	m.path = path
	return m, nil
}

// Save writes the manifest back to disk when it changed.
func (m *Manifest) Save() error {
	if !m.dirty {
		return nil
	}

	data, err := yaml.Marshal(m)
	if err != nil {
		return fmt.Errorf("failed to marshal %s: %w", ManifestFile, err)
	}
	if err := os.WriteFile(m.path, data, 0644); err != nil {
		return fmt.Errorf("failed to write %s: %w", ManifestFile, err)
	}
	m.dirty = false
	return nil
}

// FindRegistration looks up a registration by alias in one entry file.
func (m *Manifest) FindRegistration(file, alias string) (Registration, bool) {
	for _, reg := range m.Entries[file].Registrations {
		if reg.Alias == alias {
			return reg, true
		}
	}
	return Registration{}, false
}

// AddRegistration appends a registration to an entry file's record.
func (m *Manifest) AddRegistration(file string, reg Registration) {
	entry := m.Entries[file]
	entry.Registrations = append(entry.Registrations, reg)
	m.Entries[file] = entry
	m.dirty = true
}

// EnsureAnchor records an anchor under id unless one already exists.
// Existing anchors win, so a project can customize its templates.
func (m *Manifest) EnsureAnchor(file, id string, anchor Anchor) {
	entry := m.Entries[file]
	if entry.Anchors == nil {
		entry.Anchors = make(map[string]Anchor)
	}
	if _, ok := entry.Anchors[id]; ok {
		return
	}
	entry.Anchors[id] = anchor
	m.Entries[file] = entry
	m.dirty = true
}

// AnchorFor finds the anchor matching an injection kind and marker in
// one entry file.
func (m *Manifest) AnchorFor(file string, kind registry.RegisterKind, marker string) (string, Anchor, bool) {
	for id, anchor := range m.Entries[file].Anchors {
		if anchor.Kind == kind && anchor.Marker == marker {
			return id, anchor, true
		}
	}
	return "", Anchor{}, false
}

// DefaultAnchors returns the anchors seeded for a fresh backend entry
// file. monolith init writes these for each discovered backend app.
func DefaultAnchors() map[string]Anchor {
	return map[string]Anchor{
		"plugin": {
			Kind:     registry.RegisterPlugin,
			Marker:   MarkerPlugins,
			Template: defaultPluginTemplate,
		},
		"routes": {
			Kind:     registry.RegisterRoutes,
			Marker:   MarkerRoutes,
			Template: defaultRoutesTemplate,
		},
	}
}
