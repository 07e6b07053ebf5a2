// Package installer drives the install pipeline for a requested module:
// dependency resolution, target selection, then file materialization,
// package installation, env configuration, and source registration per
// target, with the module's hooks at the end. Stages accumulate errors
// into the Result instead of aborting; only a failed resolution stops a
// module before anything is written.
package installer

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/eastgold15/Monolith/internal/exec"
	"github.com/eastgold15/Monolith/internal/inject"
	"github.com/eastgold15/Monolith/internal/output"
	"github.com/eastgold15/Monolith/internal/project"
	"github.com/eastgold15/Monolith/internal/registry"
	"github.com/eastgold15/Monolith/internal/resolver"
	"github.com/eastgold15/Monolith/internal/target"
)

// Installer installs catalog modules into a project.
type Installer struct {
	catalog *registry.Catalog
	config  *project.Config
	root    string
	workDir string
	appName string
	chooser target.Chooser
	dryRun  bool
	mat     *materializer

	// runCommand is the subprocess seam; tests swap it out.
	runCommand func(ctx context.Context, dir string, argv []string) error
}

// Options configure an Installer.
type Options struct {
	Catalog *registry.Catalog

	// Config is the loaded project configuration; nil outside a
	// configured project.
	Config *project.Config

	Root    string
	WorkDir string

	// AppName forces all placements into one declared app.
	AppName string

	// Chooser resolves ambiguous app choices; nil makes ambiguity an
	// error.
	Chooser target.Chooser

	DryRun bool

	// Year pins the provenance clock; zero means the current year.
	Year int
}

// New builds an Installer over an opened catalog.
func New(opts Options) *Installer {
	year := opts.Year
	if year == 0 {
		year = time.Now().Year()
	}

	projectName := filepath.Base(opts.Root)
	if opts.Config != nil && opts.Config.Name != "" {
		projectName = opts.Config.Name
	}

	inst := &Installer{
		catalog: opts.Catalog,
		config:  opts.Config,
		root:    opts.Root,
		workDir: opts.WorkDir,
		appName: opts.AppName,
		chooser: opts.Chooser,
		dryRun:  opts.DryRun,
		mat: &materializer{
			templates: opts.Catalog.Templates,
			project:   projectName,
			year:      year,
		},
	}
	inst.runCommand = inst.execCommand
	return inst
}

func (inst *Installer) execCommand(ctx context.Context, dir string, argv []string) error {
	executor := exec.NewExecutor(&exec.Options{Dir: dir})
	return exec.NewGenericCommand(executor, argv[0]).
		WithArgs(argv[1:]...).
		WithDir(dir).
		WithQuiet().
		Run(ctx)
}

// Install resolves name and installs it together with its requirements,
// dependencies first. The returned result is never nil; Success turns
// false as soon as any stage records an error. A failed resolution
// writes nothing at all.
func (inst *Installer) Install(ctx context.Context, name string) *Result {
	res := &Result{Module: name, Success: true}

	if mod, ok := inst.catalog.Registry.Get(name); ok {
		res.Version = mod.Version
	} else if hint := inst.catalog.Registry.Suggest(name); hint != "" {
		res.warnf("did you mean %q?", hint)
	}

	resolution := resolver.Resolve(inst.catalog.Registry, name)
	if err := resolution.Err(); err != nil {
		res.errorf("%v", err)
		return res
	}

	for _, modName := range resolution.Satisfied {
		mod, ok := inst.catalog.Registry.Get(modName)
		if !ok {
			continue
		}
		if modName != name && inst.config != nil && inst.config.IsInstalled(modName) {
			output.Verbose(fmt.Sprintf("Requirement %s is already installed", modName))
			continue
		}
		inst.installOne(ctx, mod, res)
	}
	return res
}

func (inst *Installer) installOne(ctx context.Context, mod *registry.Descriptor, res *Result) {
	errsBefore := len(res.Errors)

	targets, err := target.Select(target.Options{
		Module:  mod,
		Config:  inst.config,
		Root:    inst.root,
		WorkDir: inst.workDir,
		AppName: inst.appName,
		Chooser: inst.chooser,
	})
	if err != nil {
		res.errorf("%v", err)
		return
	}
	if len(targets) == 0 {
		res.errorf("no app can receive module %s", mod.Name)
		return
	}

	records := inst.priorRecords(mod.Name)
	for _, tgt := range targets {
		inst.installTarget(ctx, mod, tgt, res, &records)
	}

	if inst.dryRun {
		return
	}

	inst.runHooks(ctx, mod, targets[0].Dir, res)

	if inst.config == nil {
		return
	}
	if len(res.Errors) > errsBefore {
		// A failed install records nothing; rerunning add is the repair
		// path, every stage skips work already done.
		return
	}
	if err := inst.config.RecordInstall(project.InstalledModule{
		Name:    mod.Name,
		Version: mod.Version,
		Files:   records,
	}); err != nil {
		res.errorf("failed to record install of %s: %v", mod.Name, err)
	}
}

func (inst *Installer) installTarget(ctx context.Context, mod *registry.Descriptor, tgt target.Target, res *Result, records *[]project.FileRecord) {
	var injectReqs []inject.Request

	for _, kind := range tgt.Kinds {
		for _, spec := range mod.FilesFor(kind) {
			abs := filepath.Join(tgt.Dir, filepath.FromSlash(spec.TargetPath))
			rel := inst.relPath(abs)

			if inst.dryRun {
				if _, err := os.Stat(abs); err == nil {
					res.SkippedFiles = append(res.SkippedFiles, rel)
				} else {
					res.InstalledFiles = append(res.InstalledFiles, rel)
				}
				continue
			}

			fr := inst.mat.materialize(ctx, mod, spec, tgt.Dir, false)
			switch fr.Action {
			case ActionCreated:
				res.InstalledFiles = append(res.InstalledFiles, rel)
				if sum, err := hashFile(fr.Path); err == nil {
					*records = upsertRecord(*records, project.FileRecord{Path: rel, SHA256: sum})
				}
			case ActionSkipped:
				res.SkippedFiles = append(res.SkippedFiles, rel)
			case ActionError:
				res.errorf("%v", fr.Err)
				continue
			}

			// Skipped files still get a registration attempt: after an
			// interrupted install the file exists but the entry file may
			// not reference it yet. The injector's pre-scan keeps this
			// idempotent.
			if spec.AutoRegister != nil {
				if req, ok := inst.injectRequest(spec, tgt, res); ok {
					injectReqs = append(injectReqs, req)
				}
			}
		}
	}

	if inst.dryRun {
		return
	}
	inst.finishTarget(ctx, mod, tgt, injectReqs, res)
}

// finishTarget runs the per-target stages that follow materialization.
func (inst *Installer) finishTarget(ctx context.Context, mod *registry.Descriptor, tgt target.Target, injectReqs []inject.Request, res *Result) {
	inst.installDependencies(ctx, mod.DepsFor(tgt.Kinds), tgt.Dir, res)

	envRes, err := configureEnv(mod.EnvFor(tgt.Kinds), tgt.Dir)
	if err != nil {
		res.errorf("%v", err)
	}
	for _, name := range envRes.Added {
		output.Verbose(fmt.Sprintf("Added %s to %s", name, filepath.Join(inst.relPath(tgt.Dir), ".env")))
	}
	for _, name := range envRes.Manual {
		res.warnf("set %s in %s before starting the app", name, filepath.Join(inst.relPath(tgt.Dir), ".env"))
	}

	inst.register(injectReqs, res)
}

// installDependencies shells out once per declared dependency, in
// declaration order, with output suppressed. A failing package is
// recorded and skipped; the remaining dependencies still install.
func (inst *Installer) installDependencies(ctx context.Context, deps []registry.Dependency, dir string, res *Result) {
	if len(deps) == 0 {
		return
	}

	configured := ""
	if inst.config != nil {
		configured = inst.config.PackageManager
	}
	mgr := DetectManager(dir, configured)

	for _, dep := range deps {
		argv := mgr.installArgs(dep)
		output.Verbose("Running " + strings.Join(argv, " "))

		if err := inst.runCommand(ctx, dir, argv); err != nil {
			perr := &PackageInstallError{Package: dep.Name, Manager: mgr, Err: err}
			res.errorf("%v", perr)
			continue
		}

		label := dep.Name
		if dep.Version != "" {
			label += "@" + dep.Version
		}
		res.InstalledDeps = append(res.InstalledDeps, label)
	}
}

func (inst *Installer) injectRequest(spec registry.FileSpec, tgt target.Target, res *Result) (inject.Request, bool) {
	req := inject.Request{Spec: spec, AppDir: tgt.Dir}

	// Non-Go entry files reach the injector anyway so it can surface its
	// own warning; they never need a module path.
	if !strings.HasSuffix(spec.AutoRegister.InjectInto, ".go") {
		return req, true
	}

	info, err := project.DetectGoModule(tgt.Dir)
	if err != nil {
		res.warnf("cannot determine the Go module path for app %s, register %s manually",
			tgt.App.Name, spec.AutoRegister.ImportAlias)
		return req, false
	}
	req.AppModule = info.Path
	return req, true
}

func (inst *Installer) register(reqs []inject.Request, res *Result) {
	if len(reqs) == 0 {
		return
	}

	injector, err := inject.New(inst.root)
	if err != nil {
		res.errorf("%v", err)
		return
	}

	out, err := injector.Register(reqs)
	if out != nil {
		res.Registered = append(res.Registered, out.Registered...)
		res.Warnings = append(res.Warnings, out.Warnings...)
		for _, msg := range out.Errors {
			res.errorf("%s", msg)
		}
	}
	if err != nil {
		res.errorf("%v", err)
	}
}

// Update refreshes an installed module. Files whose recorded hash still
// matches the disk are regenerated from the current template; locally
// modified files are left alone with a warning; missing files are
// recreated. The dependency, env, and registration stages rerun, all
// idempotent. The refreshed records are always persisted because the
// module stays installed regardless of stage errors.
func (inst *Installer) Update(ctx context.Context, name string) *Result {
	res := &Result{Module: name, Success: true}

	if inst.config == nil {
		res.errorf("%s not found, update needs a configured project", project.ConfigFile)
		return res
	}
	installed, ok := inst.config.Installed(name)
	if !ok {
		res.errorf("module %s is not installed", name)
		return res
	}
	mod, ok := inst.catalog.Registry.Get(name)
	if !ok {
		res.errorf("module %s is no longer in the registry", name)
		return res
	}
	res.Version = mod.Version

	recorded := make(map[string]string, len(installed.Files))
	for _, f := range installed.Files {
		recorded[f.Path] = f.SHA256
	}

	targets, err := target.Select(target.Options{
		Module:  mod,
		Config:  inst.config,
		Root:    inst.root,
		WorkDir: inst.workDir,
		AppName: inst.appName,
		Chooser: inst.chooser,
	})
	if err != nil {
		res.errorf("%v", err)
		return res
	}

	records := inst.priorRecords(name)
	for _, tgt := range targets {
		inst.updateTarget(ctx, mod, tgt, recorded, res, &records)
	}

	if err := inst.config.RecordInstall(project.InstalledModule{
		Name:    name,
		Version: mod.Version,
		Files:   records,
	}); err != nil {
		res.errorf("failed to record update of %s: %v", name, err)
	}
	return res
}

func (inst *Installer) updateTarget(ctx context.Context, mod *registry.Descriptor, tgt target.Target, recorded map[string]string, res *Result, records *[]project.FileRecord) {
	var injectReqs []inject.Request

	for _, kind := range tgt.Kinds {
		for _, spec := range mod.FilesFor(kind) {
			abs := filepath.Join(tgt.Dir, filepath.FromSlash(spec.TargetPath))
			rel := inst.relPath(abs)

			wantSum, known := recorded[rel]
			diskSum, err := hashFile(abs)

			switch {
			case err != nil && os.IsNotExist(err):
				fr := inst.mat.materialize(ctx, mod, spec, tgt.Dir, false)
				if fr.Err != nil {
					res.errorf("%v", fr.Err)
					continue
				}
				res.InstalledFiles = append(res.InstalledFiles, rel)
				if sum, herr := hashFile(fr.Path); herr == nil {
					*records = upsertRecord(*records, project.FileRecord{Path: rel, SHA256: sum})
				}
			case err != nil:
				res.errorf("failed to hash %s: %v", rel, err)
				continue
			case !known:
				// Present but never recorded: a user file occupies the
				// target, leave it.
				res.SkippedFiles = append(res.SkippedFiles, rel)
			case diskSum == wantSum:
				fr := inst.mat.materialize(ctx, mod, spec, tgt.Dir, true)
				if fr.Err != nil {
					res.errorf("%v", fr.Err)
					continue
				}
				res.UpdatedFiles = append(res.UpdatedFiles, rel)
				if sum, herr := hashFile(fr.Path); herr == nil {
					*records = upsertRecord(*records, project.FileRecord{Path: rel, SHA256: sum})
				}
			default:
				res.warnf("%s has local changes, leaving it untouched", rel)
			}

			if spec.AutoRegister != nil {
				if req, ok := inst.injectRequest(spec, tgt, res); ok {
					injectReqs = append(injectReqs, req)
				}
			}
		}
	}

	inst.finishTarget(ctx, mod, tgt, injectReqs, res)
}

func (inst *Installer) priorRecords(name string) []project.FileRecord {
	if inst.config == nil {
		return nil
	}
	prev, ok := inst.config.Installed(name)
	if !ok {
		return nil
	}
	return append([]project.FileRecord(nil), prev.Files...)
}

func upsertRecord(records []project.FileRecord, rec project.FileRecord) []project.FileRecord {
	for i, r := range records {
		if r.Path == rec.Path {
			records[i] = rec
			return records
		}
	}
	return append(records, rec)
}

func (inst *Installer) relPath(abs string) string {
	rel, err := filepath.Rel(inst.root, abs)
	if err != nil {
		return filepath.ToSlash(abs)
	}
	return filepath.ToSlash(rel)
}
