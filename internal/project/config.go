// Package project reads and updates the consuming project's
// monolith.json: its apps, package manager, and the record of installed
// modules. The engine never creates the file; monolith init does.
package project

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/eastgold15/Monolith/internal/registry"
)

// ConfigFile is the project configuration file name.
const ConfigFile = "monolith.json"

// Type describes the project's shape.
type Type string

const (
	TypeSingleApp Type = "single-app"
	TypeWorkspace Type = "workspace"
)

// App is one application directory within the project.
type App struct {
	Name string        `json:"name"`
	Kind registry.Kind `json:"kind"`
	Path string        `json:"path"`
}

// FileRecord pins one installed file to the content hash it was written
// with, so update can tell regenerated files from user-edited ones.
type FileRecord struct {
	Path   string `json:"path"`
	SHA256 string `json:"sha256"`
}

// InstalledModule is the record appended after a successful install.
type InstalledModule struct {
	Name    string       `json:"name"`
	Version string       `json:"version"`
	Files   []FileRecord `json:"files,omitempty"`
}

// Config is the persisted project configuration.
type Config struct {
	Name             string            `json:"name,omitempty"`
	ProjectType      Type              `json:"projectType"`
	PackageManager   string            `json:"packageManager,omitempty"`
	Registry         string            `json:"registry,omitempty"`
	Apps             []App             `json:"apps,omitempty"`
	InstalledModules []InstalledModule `json:"installedModules"`

	root string
}

// Load reads monolith.json from the project root.
func Load(root string) (*Config, error) {
	data, err := os.ReadFile(filepath.Join(root, ConfigFile))
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", ConfigFile, err)
	}

	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", ConfigFile, err)
	}

	cfg.root = root
	return &cfg, nil
}

// Save writes the configuration back to its project root.
func (c *Config) Save() error {
	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal %s: %w", ConfigFile, err)
	}
	data = append(data, '\n')

	if err := os.WriteFile(filepath.Join(c.root, ConfigFile), data, 0644); err != nil {
		return fmt.Errorf("failed to write %s: %w", ConfigFile, err)
	}
	return nil
}

// Root returns the directory containing monolith.json.
func (c *Config) Root() string { return c.root }

// SetRoot points a freshly built config at its project root. Load does
// this automatically; monolith init uses it before the first Save.
func (c *Config) SetRoot(root string) { c.root = root }

// AppDir resolves an app's absolute directory.
func (c *Config) AppDir(app App) string {
	return filepath.Join(c.root, filepath.FromSlash(app.Path))
}

// Installed looks up the record for an installed module.
func (c *Config) Installed(name string) (*InstalledModule, bool) {
	if c == nil {
		return nil, false
	}
	for i := range c.InstalledModules {
		if c.InstalledModules[i].Name == name {
			return &c.InstalledModules[i], true
		}
	}
	return nil, false
}

// IsInstalled reports whether a module is recorded as installed.
func (c *Config) IsInstalled(name string) bool {
	_, ok := c.Installed(name)
	return ok
}

// RecordInstall upserts an installed-module record and persists the
// configuration. Only successful installs are recorded; a rerun of add
// is the repair path for partial installs.
func (c *Config) RecordInstall(rec InstalledModule) error {
	for i := range c.InstalledModules {
		if c.InstalledModules[i].Name == rec.Name {
			c.InstalledModules[i] = rec
			return c.Save()
		}
	}
	c.InstalledModules = append(c.InstalledModules, rec)
	return c.Save()
}

// FindRoot walks up from startDir looking for monolith.json. The second
// return is false when no project root exists above startDir.
func FindRoot(startDir string) (string, bool) {
	dir, err := filepath.Abs(startDir)
	if err != nil {
		return "", false
	}
	for {
		if _, err := os.Stat(filepath.Join(dir, ConfigFile)); err == nil {
			return dir, true
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return "", false
		}
		dir = parent
	}
}
