// Package inject performs marker-based source registration: after a
// module's files land in an app, the injector adds the import and the
// registration statement that wire the module into the app's entry
// file. Every completed registration is recorded in the manifest, and
// both the manifest and the source itself are consulted before editing,
// so running an install twice never duplicates a line.
package inject

import (
	"fmt"
	"path"
	"path/filepath"
	"strings"

	"github.com/eastgold15/Monolith/internal/generator"
	"github.com/eastgold15/Monolith/internal/registry"
)

// Statement templates for the built-in anchors. {{ .Alias }} is the
// module's import alias, {{ .Prefix }} the route mount prefix, and
// {{ .Path }} the full import path.
const (
	defaultPluginTemplate = `srv.Use({{ .Alias }}.Plugin())`
	defaultRoutesTemplate = `srv.Mount("{{ .Prefix }}", {{ .Alias }}.Routes())`
)

// anchorData feeds anchor templates.
type anchorData struct {
	Alias  string
	Prefix string
	Path   string
}

// Request asks for one installed file to be registered in its app's
// entry file.
type Request struct {
	Spec      registry.FileSpec
	AppDir    string // absolute app root containing the entry file
	AppModule string // Go module path of the app
}

// Outcome reports what a Register pass did. Warnings cover conditions
// the user should resolve by hand; Errors cover files the injector
// could not safely edit.
type Outcome struct {
	Registered []string
	Skipped    []string
	Created    []string
	Warnings   []string
	Errors     []string
}

// Injector edits entry files and keeps the registration manifest in
// sync with them.
type Injector struct {
	root     string
	manifest *Manifest
	renderer *generator.Renderer
}

// New loads the manifest at the project root and returns an injector
// bound to it.
func New(root string) (*Injector, error) {
	manifest, err := LoadManifest(root)
	if err != nil {
		return nil, err
	}
	return &Injector{
		root:     root,
		manifest: manifest,
		renderer: generator.NewRenderer(),
	}, nil
}

// Register processes requests grouped per entry file, so each file is
// parsed and written at most once. The manifest is saved after all
// groups are done.
func (inj *Injector) Register(reqs []Request) (*Outcome, error) {
	out := &Outcome{}

	groups := make(map[string][]Request)
	var order []string
	for _, req := range reqs {
		if req.Spec.AutoRegister == nil {
			continue
		}
		entry := filepath.Join(req.AppDir, filepath.FromSlash(req.Spec.AutoRegister.InjectInto))
		if _, ok := groups[entry]; !ok {
			order = append(order, entry)
		}
		groups[entry] = append(groups[entry], req)
	}

	for _, entry := range order {
		inj.registerFile(entry, groups[entry], out)
	}

	if err := inj.manifest.Save(); err != nil {
		return out, err
	}
	return out, nil
}

func (inj *Injector) registerFile(entryPath string, reqs []Request, out *Outcome) {
	rel := inj.relKey(entryPath)

	if filepath.Ext(entryPath) != ".go" {
		for _, req := range reqs {
			out.Warnings = append(out.Warnings, fmt.Sprintf(
				"cannot auto-register %s: %s is not a Go file, wire it up manually",
				req.Spec.AutoRegister.ImportAlias, rel))
		}
		return
	}

	ef, err := OpenEntryFile(entryPath)
	if err != nil {
		out.Errors = append(out.Errors, err.Error())
		return
	}

	// Registrations are staged and only committed to the manifest once
	// the file write succeeds, so a failed write records nothing.
	var staged []Registration

	for _, req := range reqs {
		ar := req.Spec.AutoRegister
		alias := ar.ImportAlias
		importPath := moduleImportPath(req)

		if existing, ok := inj.manifest.FindRegistration(rel, alias); ok {
			if existing.Path == importPath {
				out.Skipped = append(out.Skipped, fmt.Sprintf("%s already registered in %s", alias, rel))
			} else {
				out.Warnings = append(out.Warnings, fmt.Sprintf(
					"alias %s in %s already belongs to %s, skipping registration of %s",
					alias, rel, existing.Path, importPath))
			}
			continue
		}

		if ef.HasImport(alias, importPath) {
			// Wired by hand or by an earlier run with a lost manifest.
			// Record it so the next run skips the source scan.
			staged = append(staged, Registration{Alias: alias, Path: importPath, Anchor: string(ar.Kind)})
			out.Skipped = append(out.Skipped, fmt.Sprintf("%s already imported by %s", alias, rel))
			continue
		}

		line, ok := ef.MarkerLine(ar.Marker)
		if !ok {
			merr := &MarkerNotFoundError{File: rel, Marker: ar.Marker, Alias: alias}
			out.Warnings = append(out.Warnings, merr.Error())
			continue
		}

		id, anchor := inj.anchorFor(rel, ar)
		rendered, err := inj.renderer.RenderString("anchor:"+id, anchor.Template, anchorData{
			Alias:  alias,
			Prefix: "/" + alias,
			Path:   importPath,
		})
		if err != nil {
			out.Errors = append(out.Errors, fmt.Sprintf("failed to render anchor %s for %s: %v", id, alias, err))
			continue
		}
		statement := strings.TrimSpace(string(rendered))

		switch ar.Kind {
		case registry.RegisterPlugin:
			// Prefer growing an existing .Use chain; a virgin marker
			// gets the full statement instead.
			if dot := strings.Index(statement, "."); dot < 0 || !ef.AppendToUseChain(line, statement[dot:]) {
				ef.InsertStatementAfter(line, statement)
			}
		default:
			ef.InsertStatementAfter(line, statement)
		}

		ef.AddImport(alias, importPath)
		staged = append(staged, Registration{Alias: alias, Path: importPath, Anchor: id})
		out.Registered = append(out.Registered, fmt.Sprintf("%s in %s", alias, rel))
	}

	if ef.Dirty() && len(staged) > 0 {
		if err := ef.Write(); err != nil {
			out.Errors = append(out.Errors, err.Error())
			return
		}
		if ef.Created() {
			out.Created = append(out.Created, rel)
			out.Warnings = append(out.Warnings, fmt.Sprintf(
				"created %s with default markers, wire it into your application startup", rel))
		}
	}

	for _, reg := range staged {
		inj.manifest.AddRegistration(rel, reg)
	}
}

// anchorFor finds or seeds the anchor for an autoRegister directive.
// Seeded ids derive from the kind and get a numeric suffix when the id
// is taken by a different marker.
func (inj *Injector) anchorFor(file string, ar *registry.AutoRegister) (string, Anchor) {
	if id, anchor, ok := inj.manifest.AnchorFor(file, ar.Kind, ar.Marker); ok {
		return id, anchor
	}

	anchor := Anchor{Kind: ar.Kind, Marker: ar.Marker, Template: defaultTemplate(ar.Kind)}
	id := string(ar.Kind)
	for i := 2; ; i++ {
		existing, ok := inj.manifest.Entries[file].Anchors[id]
		if !ok || (existing.Kind == ar.Kind && existing.Marker == ar.Marker) {
			break
		}
		id = fmt.Sprintf("%s%d", ar.Kind, i)
	}
	inj.manifest.EnsureAnchor(file, id, anchor)
	return id, anchor
}

func (inj *Injector) relKey(entryPath string) string {
	rel, err := filepath.Rel(inj.root, entryPath)
	if err != nil {
		return filepath.ToSlash(entryPath)
	}
	return filepath.ToSlash(rel)
}

func defaultTemplate(kind registry.RegisterKind) string {
	if kind == registry.RegisterRoutes {
		return defaultRoutesTemplate
	}
	return defaultPluginTemplate
}

// moduleImportPath derives the package import path of an installed file
// from its app's module path and its target directory.
func moduleImportPath(req Request) string {
	dir := path.Dir(filepath.ToSlash(req.Spec.TargetPath))
	if dir == "." || dir == "" {
		return req.AppModule
	}
	return req.AppModule + "/" + dir
}
