package registry

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Kind classifies which side of a project an app, file set, dependency,
// or env variable belongs to.
type Kind string

const (
	KindBackend  Kind = "backend"
	KindFrontend Kind = "frontend"
)

// Valid reports whether k is a known kind.
func (k Kind) Valid() bool {
	return k == KindBackend || k == KindFrontend
}

// RegisterKind selects how an auto-registered file is wired into the
// entry file.
type RegisterKind string

const (
	// RegisterPlugin appends a chained Use call to the plugin chain.
	RegisterPlugin RegisterKind = "plugin"

	// RegisterRoutes mounts the file's routes after the routes anchor.
	RegisterRoutes RegisterKind = "routes"
)

// Dependency is a third-party package a module needs installed via the
// host package manager. Kind restricts the dependency to targets of that
// kind; empty means every target.
type Dependency struct {
	Name    string `json:"name"`
	Version string `json:"versionRange"`
	Kind    Kind   `json:"kind,omitempty"`
}

// EnvVar is an environment variable a module expects. Default is written
// into env files at install time; Required vars without a default are
// called out for manual configuration.
type EnvVar struct {
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	Default     string `json:"default,omitempty"`
	Required    bool   `json:"required,omitempty"`
	Kind        Kind   `json:"kind,omitempty"`
}

// AutoRegister describes the injection to perform after a file is
// materialized: which entry file to mutate, the import alias to bind,
// and the anchor marker to wire against.
type AutoRegister struct {
	Kind        RegisterKind `json:"kind"`
	InjectInto  string       `json:"injectInFile"`
	ImportAlias string       `json:"importAlias"`
	Marker      string       `json:"markerText"`
}

// FileSpec describes one template file to materialize and, optionally,
// one injection to perform afterward.
type FileSpec struct {
	SourcePath   string        `json:"sourcePath"`
	TargetPath   string        `json:"targetPath"`
	FileKind     string        `json:"fileKind,omitempty"`
	AutoRegister *AutoRegister `json:"autoRegister,omitempty"`
}

// FileSets holds a module's files grouped by target kind. The wire format
// accepts two shapes, a flat array and a kind-keyed object; both are
// normalized into this map when the registry is parsed.
type FileSets map[Kind][]FileSpec

// Hook action types.
const (
	HookLog     = "log"
	HookEnv     = "env"
	HookCommand = "command"
)

// HookAction is one post-install step: a message to print, env variables
// to call out, or a command to run in the app directory.
type HookAction struct {
	Type    string   `json:"type"`
	Message string   `json:"message,omitempty"`
	Vars    []string `json:"vars,omitempty"`
	Command string   `json:"command,omitempty"`
}

// Hooks groups a module's lifecycle actions.
type Hooks struct {
	AfterInstall []HookAction `json:"afterInstall,omitempty"`
}

// Descriptor is one installable module: template files, package
// dependencies, env variables, and injection instructions. Descriptors
// are read-only after the registry is loaded.
type Descriptor struct {
	Name         string       `json:"name"`
	DisplayName  string       `json:"displayName,omitempty"`
	Description  string       `json:"description,omitempty"`
	Version      string       `json:"version"`
	Category     string       `json:"category,omitempty"`
	Tags         []string     `json:"tags,omitempty"`
	Requires     []string     `json:"requires,omitempty"`
	Dependencies []Dependency `json:"dependencies,omitempty"`
	EnvVars      []EnvVar     `json:"envVariables,omitempty"`
	Targets      []Kind       `json:"targets,omitempty"`
	Files        FileSets     `json:"-"`
	Hooks        Hooks        `json:"hooks,omitempty"`
}

// UnmarshalJSON decodes a descriptor, normalizing the files field from
// either wire shape into the canonical per-kind map.
func (d *Descriptor) UnmarshalJSON(data []byte) error {
	type alias Descriptor
	tmp := struct {
		*alias
		Files json.RawMessage `json:"files"`
	}{alias: (*alias)(d)}

	if err := json.Unmarshal(data, &tmp); err != nil {
		return err
	}

	files, err := parseFileSets(tmp.Files, d.Targets)
	if err != nil {
		return err
	}
	d.Files = files
	return nil
}

// parseFileSets resolves the two accepted shapes of the files field. A
// flat array belongs to the module's single declared target kind; a
// module declaring multiple targets must use the kind-keyed shape.
func parseFileSets(raw json.RawMessage, targets []Kind) (FileSets, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return FileSets{}, nil
	}

	switch trimmed[0] {
	case '[':
		var flat []FileSpec
		if err := json.Unmarshal(trimmed, &flat); err != nil {
			return nil, fmt.Errorf("failed to parse files: %w", err)
		}
		kind, err := flatFileKind(targets)
		if err != nil {
			return nil, err
		}
		return FileSets{kind: flat}, nil

	case '{':
		var byKind map[string][]FileSpec
		if err := json.Unmarshal(trimmed, &byKind); err != nil {
			return nil, fmt.Errorf("failed to parse files: %w", err)
		}
		sets := FileSets{}
		for k, files := range byKind {
			kind := Kind(k)
			if !kind.Valid() {
				return nil, fmt.Errorf("unknown file set kind %q", k)
			}
			sets[kind] = files
		}
		return sets, nil

	default:
		return nil, fmt.Errorf("files must be an array or a kind-keyed object")
	}
}

func flatFileKind(targets []Kind) (Kind, error) {
	switch len(targets) {
	case 0:
		return KindBackend, nil
	case 1:
		return targets[0], nil
	default:
		return "", fmt.Errorf("flat file list is ambiguous for a module with %d targets", len(targets))
	}
}

// Kinds returns the target kinds this module installs into: the declared
// targets when present, otherwise the kinds of its file sets, in a fixed
// backend-first order.
func (d *Descriptor) Kinds() []Kind {
	if len(d.Targets) > 0 {
		return d.Targets
	}
	var kinds []Kind
	for _, k := range []Kind{KindBackend, KindFrontend} {
		if _, ok := d.Files[k]; ok {
			kinds = append(kinds, k)
		}
	}
	if len(kinds) == 0 {
		// Modules with only dependencies or env vars still need a home.
		kinds = []Kind{KindBackend}
	}
	return kinds
}

// FilesFor returns the file specs for one target kind.
func (d *Descriptor) FilesFor(kind Kind) []FileSpec {
	return d.Files[kind]
}

// DepsFor returns the dependencies that apply to any of the given kinds,
// in declaration order.
func (d *Descriptor) DepsFor(kinds []Kind) []Dependency {
	var deps []Dependency
	for _, dep := range d.Dependencies {
		if dep.Kind == "" || kindIn(dep.Kind, kinds) {
			deps = append(deps, dep)
		}
	}
	return deps
}

// EnvFor returns the env variables that apply to any of the given kinds,
// in declaration order.
func (d *Descriptor) EnvFor(kinds []Kind) []EnvVar {
	var vars []EnvVar
	for _, v := range d.EnvVars {
		if v.Kind == "" || kindIn(v.Kind, kinds) {
			vars = append(vars, v)
		}
	}
	return vars
}

func kindIn(kind Kind, kinds []Kind) bool {
	for _, k := range kinds {
		if k == kind {
			return true
		}
	}
	return false
}

// validate checks the descriptor's internal consistency after parsing.
func (d *Descriptor) validate() error {
	if d.Version == "" {
		return fmt.Errorf("missing version")
	}
	for _, t := range d.Targets {
		if !t.Valid() {
			return fmt.Errorf("unknown target kind %q", t)
		}
	}
	for kind, files := range d.Files {
		for _, f := range files {
			if f.SourcePath == "" || f.TargetPath == "" {
				return fmt.Errorf("%s file needs both sourcePath and targetPath", kind)
			}
			if ar := f.AutoRegister; ar != nil {
				if ar.Kind != RegisterPlugin && ar.Kind != RegisterRoutes {
					return fmt.Errorf("file %s: unknown autoRegister kind %q", f.TargetPath, ar.Kind)
				}
				if ar.InjectInto == "" || ar.ImportAlias == "" || ar.Marker == "" {
					return fmt.Errorf("file %s: autoRegister needs injectInFile, importAlias, and markerText", f.TargetPath)
				}
			}
		}
	}
	for _, h := range d.Hooks.AfterInstall {
		switch h.Type {
		case HookLog, HookEnv, HookCommand:
		default:
			return fmt.Errorf("unknown hook type %q", h.Type)
		}
	}
	return nil
}
