// Package target computes which app directories receive a module's
// files. Selection is deterministic: given the same project
// configuration, working directory, and chooser answer, the same targets
// come back every time.
package target

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/eastgold15/Monolith/internal/project"
	"github.com/eastgold15/Monolith/internal/registry"
)

// Target pairs one app directory with the kinds of files it receives.
type Target struct {
	App   project.App
	Dir   string
	Kinds []registry.Kind
}

// Chooser resolves an ambiguous choice between apps of the same kind.
// The interactive layer implements this; tests supply a fixed answer.
type Chooser interface {
	ChooseApp(kind registry.Kind, apps []project.App) (project.App, error)
}

// ChooserFunc adapts a function to the Chooser interface.
type ChooserFunc func(kind registry.Kind, apps []project.App) (project.App, error)

func (f ChooserFunc) ChooseApp(kind registry.Kind, apps []project.App) (project.App, error) {
	return f(kind, apps)
}

// Options configure one selection.
type Options struct {
	Module *registry.Descriptor

	// Config is the loaded project configuration; nil means configless
	// single-app mode.
	Config *project.Config

	// Root is the project root (the working directory when Config is
	// nil).
	Root string

	// WorkDir is where the command was invoked.
	WorkDir string

	// AppName forces one app by name, bypassing cwd detection and the
	// chooser.
	AppName string

	// Chooser resolves ambiguity at the workspace root. Nil makes
	// ambiguity an error.
	Chooser Chooser
}

// Select computes the install targets for one module.
func Select(opts Options) ([]Target, error) {
	mod := opts.Module
	kinds := mod.Kinds()

	// No configuration or no declared apps: one implicit target at the
	// project root, covering every kind the module declares.
	if opts.Config == nil || len(opts.Config.Apps) == 0 {
		return []Target{{
			App:   project.App{Name: filepath.Base(opts.Root), Path: "."},
			Dir:   opts.Root,
			Kinds: kinds,
		}}, nil
	}
	cfg := opts.Config

	if opts.AppName != "" {
		return selectNamed(mod, cfg, kinds, opts.AppName)
	}

	if t, ok := targetForWorkDir(mod, cfg, kinds, opts.WorkDir); ok {
		return t, nil
	}

	return selectFromWorkspace(mod, cfg, kinds, opts.Chooser)
}

// selectNamed honors an explicit --app override.
func selectNamed(mod *registry.Descriptor, cfg *project.Config, kinds []registry.Kind, name string) ([]Target, error) {
	for _, app := range cfg.Apps {
		if app.Name != name {
			continue
		}
		appKinds := kindsForApp(kinds, app)
		if len(appKinds) == 0 {
			return nil, fmt.Errorf("module %s has no %s files for app %s", mod.Name, app.Kind, app.Name)
		}
		return []Target{{App: app, Dir: cfg.AppDir(app), Kinds: appKinds}}, nil
	}
	return nil, fmt.Errorf("no app named %q in this project", name)
}

// targetForWorkDir restricts installation to the app the command was
// invoked from, when the working directory lies inside one. The deepest
// matching app wins.
func targetForWorkDir(mod *registry.Descriptor, cfg *project.Config, kinds []registry.Kind, workDir string) ([]Target, bool) {
	if workDir == "" {
		return nil, false
	}
	abs, err := filepath.Abs(workDir)
	if err != nil {
		return nil, false
	}

	var (
		best    *project.App
		bestDir string
	)
	for i := range cfg.Apps {
		dir := cfg.AppDir(cfg.Apps[i])
		if !within(abs, dir) {
			continue
		}
		if best == nil || len(dir) > len(bestDir) {
			best = &cfg.Apps[i]
			bestDir = dir
		}
	}
	if best == nil {
		return nil, false
	}

	appKinds := kindsForApp(kinds, *best)
	if len(appKinds) == 0 {
		// Inside an app the module has nothing for; surfaced as a
		// zero-placement error rather than silently installing
		// elsewhere.
		return []Target{}, true
	}
	return []Target{{App: *best, Dir: bestDir, Kinds: appKinds}}, true
}

// selectFromWorkspace picks targets per kind from the workspace root:
// exactly one app of a kind selects automatically, several defer to the
// chooser, none skips that kind silently.
func selectFromWorkspace(mod *registry.Descriptor, cfg *project.Config, kinds []registry.Kind, chooser Chooser) ([]Target, error) {
	var targets []Target
	for _, kind := range kinds {
		apps := appsOfKind(cfg, kind)
		switch len(apps) {
		case 0:
			continue
		case 1:
			targets = append(targets, Target{App: apps[0], Dir: cfg.AppDir(apps[0]), Kinds: []registry.Kind{kind}})
		default:
			if chooser == nil {
				return nil, fmt.Errorf("multiple %s apps can receive %s; rerun with --app <name>", kind, mod.Name)
			}
			app, err := chooser.ChooseApp(kind, apps)
			if err != nil {
				return nil, fmt.Errorf("failed to choose a %s app: %w", kind, err)
			}
			targets = append(targets, Target{App: app, Dir: cfg.AppDir(app), Kinds: []registry.Kind{kind}})
		}
	}
	return targets, nil
}

func appsOfKind(cfg *project.Config, kind registry.Kind) []project.App {
	var apps []project.App
	for _, app := range cfg.Apps {
		if app.Kind == kind {
			apps = append(apps, app)
		}
	}
	return apps
}

// kindsForApp intersects the module's kinds with the kinds relevant to
// one app, preserving declaration order.
func kindsForApp(moduleKinds []registry.Kind, app project.App) []registry.Kind {
	var kinds []registry.Kind
	for _, k := range moduleKinds {
		if app.Kind == "" || k == app.Kind {
			kinds = append(kinds, k)
		}
	}
	return kinds
}

// within reports whether dir is path or a descendant of path.
func within(dir, path string) bool {
	rel, err := filepath.Rel(path, dir)
	if err != nil {
		return false
	}
	return rel == "." || (rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator)))
}
