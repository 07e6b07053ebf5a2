package installer

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/eastgold15/Monolith/internal/project"
	"github.com/eastgold15/Monolith/internal/registry"
)

// mapSource serves templates from memory.
type mapSource map[string]string

func (m mapSource) Read(_ context.Context, sourcePath string) ([]byte, error) {
	content, ok := m[sourcePath]
	if !ok {
		return nil, fmt.Errorf("template %s not found", sourcePath)
	}
	return []byte(content), nil
}

// fakeRunner records subprocess invocations instead of running them.
type fakeRunner struct {
	calls []string
	dirs  []string
	fail  map[string]bool
}

func (f *fakeRunner) run(_ context.Context, dir string, argv []string) error {
	key := strings.Join(argv, " ")
	f.calls = append(f.calls, key)
	f.dirs = append(f.dirs, dir)
	if f.fail[key] {
		return errors.New("exit status 1")
	}
	return nil
}

const testRegistry = `{
  "formatVersion": 1,
  "modules": {
    "database": {
      "version": "2.0.0",
      "targets": ["backend"],
      "files": [
        {"sourcePath": "database/database.go.tmpl", "targetPath": "internal/platform/database/database.go"}
      ],
      "dependencies": [
        {"name": "github.com/jackc/pgx/v5", "versionRange": "v5.7.1"}
      ],
      "envVariables": [
        {"name": "DATABASE_URL", "description": "Postgres connection string", "default": "postgres://localhost:5432/app", "required": true}
      ],
      "hooks": {
        "afterInstall": [
          {"type": "command", "command": "go mod tidy"}
        ]
      }
    },
    "auth": {
      "version": "1.4.0",
      "targets": ["backend"],
      "requires": ["database"],
      "files": [
        {
          "sourcePath": "auth/auth.go.tmpl",
          "targetPath": "internal/platform/auth/auth.go",
          "autoRegister": {
            "kind": "plugin",
            "injectInFile": "main.go",
            "importAlias": "auth",
            "markerText": "monolith:plugins"
          }
        }
      ],
      "dependencies": [
        {"name": "github.com/golang-jwt/jwt/v5", "versionRange": "v5.2.1"}
      ],
      "envVariables": [
        {"name": "JWT_SECRET", "description": "Token signing secret", "required": true}
      ]
    },
    "broken": {
      "version": "0.1.0",
      "targets": ["backend"],
      "requires": ["ghost"],
      "files": [
        {"sourcePath": "broken/broken.go.tmpl", "targetPath": "internal/platform/broken/broken.go"}
      ]
    }
  }
}`

var testTemplates = mapSource{
	"database/database.go.tmpl": "package database\n\n// {{moduleName}}@{{moduleVersion}} for {{projectName}}\nfunc Connect() {}\n",
	"auth/auth.go.tmpl":         "package auth\n\nfunc Plugin() {}\n",
	"broken/broken.go.tmpl":     "package broken\n",
}

const testEntry = `package main

import "log"

func main() {
	srv := server.New()

	// monolith:plugins
	srv.Use(server.RequestLog())

	// monolith:routes

	log.Fatal(srv.Listen(":8080"))
}
`

func testCatalog(t *testing.T) *registry.Catalog {
	t.Helper()
	reg, err := registry.Parse([]byte(testRegistry))
	if err != nil {
		t.Fatalf("parse test registry: %v", err)
	}
	return &registry.Catalog{Registry: reg, Templates: testTemplates}
}

// testProject lays out a single-app backend project with a config, a
// go.mod, and an entry file carrying both markers.
func testProject(t *testing.T) (string, *project.Config) {
	t.Helper()
	root := t.TempDir()

	cfg := &project.Config{
		Name:        "shopfront",
		ProjectType: project.TypeSingleApp,
	}
	cfg.SetRoot(root)
	if err := cfg.Save(); err != nil {
		t.Fatalf("save config: %v", err)
	}

	gomod := "module example.com/shopfront\n\ngo 1.25\n"
	if err := os.WriteFile(filepath.Join(root, "go.mod"), []byte(gomod), 0644); err != nil {
		t.Fatalf("write go.mod: %v", err)
	}
	if err := os.WriteFile(filepath.Join(root, "main.go"), []byte(testEntry), 0644); err != nil {
		t.Fatalf("write main.go: %v", err)
	}
	return root, cfg
}

func newTestInstaller(t *testing.T, root string, cfg *project.Config) (*Installer, *fakeRunner) {
	t.Helper()
	runner := &fakeRunner{fail: make(map[string]bool)}
	inst := New(Options{
		Catalog: testCatalog(t),
		Config:  cfg,
		Root:    root,
		WorkDir: root,
		Year:    2026,
	})
	inst.runCommand = runner.run
	return inst, runner
}

func readFile(t *testing.T, path string) string {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read %s: %v", path, err)
	}
	return string(data)
}

func TestInstall_SingleModule(t *testing.T) {
	root, cfg := testProject(t)
	inst, runner := newTestInstaller(t, root, cfg)

	res := inst.Install(context.Background(), "database")

	if !res.Success {
		t.Fatalf("install failed: %v", res.Errors)
	}
	if len(res.InstalledFiles) != 1 || res.InstalledFiles[0] != "internal/platform/database/database.go" {
		t.Errorf("InstalledFiles = %v", res.InstalledFiles)
	}

	content := readFile(t, filepath.Join(root, "internal/platform/database/database.go"))
	if !strings.Contains(content, "database@2.0.0 for shopfront") {
		t.Errorf("placeholder tokens not substituted:\n%s", content)
	}

	if len(runner.calls) != 2 {
		t.Fatalf("expected dependency install and hook, got %v", runner.calls)
	}
	if runner.calls[0] != "go get github.com/jackc/pgx/v5@v5.7.1" {
		t.Errorf("dependency invocation = %q", runner.calls[0])
	}
	if runner.calls[1] != "go mod tidy" {
		t.Errorf("hook invocation = %q", runner.calls[1])
	}

	env := readFile(t, filepath.Join(root, ".env"))
	if !strings.Contains(env, "DATABASE_URL=postgres://localhost:5432/app") {
		t.Errorf(".env missing the default:\n%s", env)
	}

	loaded, err := project.Load(root)
	if err != nil {
		t.Fatalf("reload config: %v", err)
	}
	rec, ok := loaded.Installed("database")
	if !ok {
		t.Fatal("install was not recorded")
	}
	if rec.Version != "2.0.0" {
		t.Errorf("recorded version = %q", rec.Version)
	}
	if len(rec.Files) != 1 || rec.Files[0].SHA256 == "" {
		t.Errorf("recorded files = %+v", rec.Files)
	}
}

func TestInstall_RequirementsInstallFirst(t *testing.T) {
	root, cfg := testProject(t)
	inst, _ := newTestInstaller(t, root, cfg)

	res := inst.Install(context.Background(), "auth")

	if !res.Success {
		t.Fatalf("install failed: %v", res.Errors)
	}
	if len(res.InstalledFiles) != 2 {
		t.Fatalf("InstalledFiles = %v", res.InstalledFiles)
	}
	if !strings.Contains(res.InstalledFiles[0], "database") {
		t.Errorf("requirement files should land first: %v", res.InstalledFiles)
	}

	loaded, _ := project.Load(root)
	for _, name := range []string{"database", "auth"} {
		if !loaded.IsInstalled(name) {
			t.Errorf("%s should be recorded", name)
		}
	}
}

func TestInstall_InjectsRegistration(t *testing.T) {
	root, cfg := testProject(t)
	inst, _ := newTestInstaller(t, root, cfg)

	res := inst.Install(context.Background(), "auth")
	if !res.Success {
		t.Fatalf("install failed: %v", res.Errors)
	}
	if len(res.Registered) != 1 {
		t.Fatalf("Registered = %v (warnings %v)", res.Registered, res.Warnings)
	}

	entry := readFile(t, filepath.Join(root, "main.go"))
	if !strings.Contains(entry, `auth "example.com/shopfront/internal/platform/auth"`) {
		t.Errorf("import missing:\n%s", entry)
	}
	if !strings.Contains(entry, ".Use(auth.Plugin())") {
		t.Errorf("plugin registration missing:\n%s", entry)
	}
}

func TestInstall_MissingRequirement(t *testing.T) {
	root, cfg := testProject(t)
	inst, runner := newTestInstaller(t, root, cfg)

	res := inst.Install(context.Background(), "broken")

	if res.Success {
		t.Fatal("install should fail on a missing requirement")
	}
	found := false
	for _, e := range res.Errors {
		if strings.Contains(e, "missing dependency") {
			found = true
		}
	}
	if !found {
		t.Errorf("expected a missing dependency error, got %v", res.Errors)
	}
	if len(res.InstalledFiles) != 0 {
		t.Errorf("no files may be created, got %v", res.InstalledFiles)
	}
	if _, err := os.Stat(filepath.Join(root, "internal/platform/broken")); !os.IsNotExist(err) {
		t.Error("module files were materialized despite the failed resolution")
	}
	if len(runner.calls) != 0 {
		t.Errorf("no commands may run, got %v", runner.calls)
	}
}

func TestInstall_UnknownModuleSuggests(t *testing.T) {
	root, cfg := testProject(t)
	inst, _ := newTestInstaller(t, root, cfg)

	res := inst.Install(context.Background(), "databse")

	if res.Success {
		t.Fatal("unknown module must fail")
	}
	found := false
	for _, w := range res.Warnings {
		if strings.Contains(w, `"database"`) {
			found = true
		}
	}
	if !found {
		t.Errorf("expected a name suggestion, got %v", res.Warnings)
	}
}

func TestInstall_ExistingFileUntouched(t *testing.T) {
	root, cfg := testProject(t)
	custom := "package database\n\n// my own connection pool\n"
	path := filepath.Join(root, "internal/platform/database/database.go")
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(custom), 0644); err != nil {
		t.Fatal(err)
	}

	inst, _ := newTestInstaller(t, root, cfg)
	res := inst.Install(context.Background(), "database")

	if !res.Success {
		t.Fatalf("install failed: %v", res.Errors)
	}
	if len(res.SkippedFiles) != 1 {
		t.Errorf("SkippedFiles = %v", res.SkippedFiles)
	}
	if got := readFile(t, path); got != custom {
		t.Errorf("existing file was rewritten:\n%s", got)
	}
}

func TestInstall_SkipsInstalledRequirement(t *testing.T) {
	root, cfg := testProject(t)
	if err := cfg.RecordInstall(project.InstalledModule{Name: "database", Version: "2.0.0"}); err != nil {
		t.Fatal(err)
	}

	inst, runner := newTestInstaller(t, root, cfg)
	res := inst.Install(context.Background(), "auth")

	if !res.Success {
		t.Fatalf("install failed: %v", res.Errors)
	}
	for _, call := range runner.calls {
		if strings.Contains(call, "pgx") {
			t.Errorf("database dependencies must not reinstall: %v", runner.calls)
		}
	}
	if _, err := os.Stat(filepath.Join(root, "internal/platform/database/database.go")); !os.IsNotExist(err) {
		t.Error("database files must not materialize for an installed requirement")
	}
}

func TestInstall_SecondRunIsIdempotent(t *testing.T) {
	root, cfg := testProject(t)
	inst, _ := newTestInstaller(t, root, cfg)

	if res := inst.Install(context.Background(), "database"); !res.Success {
		t.Fatalf("first install failed: %v", res.Errors)
	}
	envOnce := readFile(t, filepath.Join(root, ".env"))

	res := inst.Install(context.Background(), "database")
	if !res.Success {
		t.Fatalf("second install failed: %v", res.Errors)
	}
	if len(res.SkippedFiles) != 1 {
		t.Errorf("second run should skip the existing file, got %+v", res)
	}

	envTwice := readFile(t, filepath.Join(root, ".env"))
	if envOnce != envTwice {
		t.Errorf("env file changed on the second run:\n%s", envTwice)
	}
	if strings.Count(envTwice, "DATABASE_URL=") != 1 {
		t.Errorf("expected exactly one DATABASE_URL line:\n%s", envTwice)
	}
}

func TestInstall_DryRunTouchesNothing(t *testing.T) {
	root, cfg := testProject(t)
	runner := &fakeRunner{fail: make(map[string]bool)}
	inst := New(Options{
		Catalog: testCatalog(t),
		Config:  cfg,
		Root:    root,
		WorkDir: root,
		DryRun:  true,
		Year:    2026,
	})
	inst.runCommand = runner.run

	res := inst.Install(context.Background(), "database")

	if !res.Success {
		t.Fatalf("dry run failed: %v", res.Errors)
	}
	if len(res.InstalledFiles) != 1 {
		t.Errorf("dry run should report would-be files, got %v", res.InstalledFiles)
	}
	if _, err := os.Stat(filepath.Join(root, "internal/platform/database/database.go")); !os.IsNotExist(err) {
		t.Error("dry run wrote a file")
	}
	if _, err := os.Stat(filepath.Join(root, ".env")); !os.IsNotExist(err) {
		t.Error("dry run wrote .env")
	}
	if len(runner.calls) != 0 {
		t.Errorf("dry run ran commands: %v", runner.calls)
	}
	loaded, _ := project.Load(root)
	if loaded.IsInstalled("database") {
		t.Error("dry run recorded an install")
	}
}

func TestInstall_FailedDependencyIsRecordedAndSkipped(t *testing.T) {
	root, cfg := testProject(t)
	inst, runner := newTestInstaller(t, root, cfg)
	runner.fail["go get github.com/jackc/pgx/v5@v5.7.1"] = true

	res := inst.Install(context.Background(), "database")

	if res.Success {
		t.Fatal("a failed dependency must fail the result")
	}
	found := false
	for _, e := range res.Errors {
		if strings.Contains(e, "pgx") {
			found = true
		}
	}
	if !found {
		t.Errorf("expected the package error, got %v", res.Errors)
	}

	// Files stay on disk; the install is just not recorded.
	if _, err := os.Stat(filepath.Join(root, "internal/platform/database/database.go")); err != nil {
		t.Error("materialized files should remain for the repair rerun")
	}
	loaded, _ := project.Load(root)
	if loaded.IsInstalled("database") {
		t.Error("a failed install must not be recorded")
	}
}

func TestInstall_HookFailureIsWarning(t *testing.T) {
	root, cfg := testProject(t)
	inst, runner := newTestInstaller(t, root, cfg)
	runner.fail["go mod tidy"] = true

	res := inst.Install(context.Background(), "database")

	if !res.Success {
		t.Fatalf("a hook failure must not fail the install: %v", res.Errors)
	}
	found := false
	for _, w := range res.Warnings {
		if strings.Contains(w, "go mod tidy") {
			found = true
		}
	}
	if !found {
		t.Errorf("expected a hook warning, got %v", res.Warnings)
	}
}

func TestInstall_RequiredVarWithoutDefaultWarns(t *testing.T) {
	root, cfg := testProject(t)
	inst, _ := newTestInstaller(t, root, cfg)

	res := inst.Install(context.Background(), "auth")

	found := false
	for _, w := range res.Warnings {
		if strings.Contains(w, "JWT_SECRET") {
			found = true
		}
	}
	if !found {
		t.Errorf("expected a manual-configuration warning, got %v", res.Warnings)
	}
}

func TestUpdate_RegeneratesUnmodifiedFiles(t *testing.T) {
	root, cfg := testProject(t)
	inst, _ := newTestInstaller(t, root, cfg)

	if res := inst.Install(context.Background(), "database"); !res.Success {
		t.Fatalf("install failed: %v", res.Errors)
	}

	// Simulate a registry release: the template content changes.
	testTemplatesV2 := mapSource{
		"database/database.go.tmpl": "package database\n\n// {{moduleName}}@{{moduleVersion}} for {{projectName}}\nfunc Connect() {}\n\nfunc Close() {}\n",
	}
	cfg2, err := project.Load(root)
	if err != nil {
		t.Fatal(err)
	}
	upd := New(Options{
		Catalog: &registry.Catalog{Registry: testCatalog(t).Registry, Templates: testTemplatesV2},
		Config:  cfg2,
		Root:    root,
		WorkDir: root,
		Year:    2026,
	})
	upd.runCommand = (&fakeRunner{fail: make(map[string]bool)}).run

	res := upd.Update(context.Background(), "database")
	if !res.Success {
		t.Fatalf("update failed: %v", res.Errors)
	}
	if len(res.UpdatedFiles) != 1 {
		t.Fatalf("UpdatedFiles = %v", res.UpdatedFiles)
	}
	content := readFile(t, filepath.Join(root, "internal/platform/database/database.go"))
	if !strings.Contains(content, "func Close()") {
		t.Errorf("file was not regenerated:\n%s", content)
	}
}

func TestUpdate_LeavesModifiedFilesAlone(t *testing.T) {
	root, cfg := testProject(t)
	inst, _ := newTestInstaller(t, root, cfg)

	if res := inst.Install(context.Background(), "database"); !res.Success {
		t.Fatalf("install failed: %v", res.Errors)
	}

	path := filepath.Join(root, "internal/platform/database/database.go")
	edited := readFile(t, path) + "\n// my local tweak\n"
	if err := os.WriteFile(path, []byte(edited), 0644); err != nil {
		t.Fatal(err)
	}

	cfg2, _ := project.Load(root)
	upd, _ := newTestInstaller(t, root, cfg2)
	res := upd.Update(context.Background(), "database")

	if len(res.UpdatedFiles) != 0 {
		t.Errorf("modified file must not update: %v", res.UpdatedFiles)
	}
	found := false
	for _, w := range res.Warnings {
		if strings.Contains(w, "local changes") {
			found = true
		}
	}
	if !found {
		t.Errorf("expected a local-changes warning, got %v", res.Warnings)
	}
	if got := readFile(t, path); got != edited {
		t.Error("update overwrote a locally modified file")
	}
}

func TestUpdate_RecreatesDeletedFiles(t *testing.T) {
	root, cfg := testProject(t)
	inst, _ := newTestInstaller(t, root, cfg)

	if res := inst.Install(context.Background(), "database"); !res.Success {
		t.Fatalf("install failed: %v", res.Errors)
	}
	path := filepath.Join(root, "internal/platform/database/database.go")
	if err := os.Remove(path); err != nil {
		t.Fatal(err)
	}

	cfg2, _ := project.Load(root)
	upd, _ := newTestInstaller(t, root, cfg2)
	res := upd.Update(context.Background(), "database")

	if !res.Success {
		t.Fatalf("update failed: %v", res.Errors)
	}
	if len(res.InstalledFiles) != 1 {
		t.Errorf("deleted file should be recreated, got %+v", res)
	}
	if _, err := os.Stat(path); err != nil {
		t.Error("file was not recreated")
	}
}

func TestUpdate_NotInstalled(t *testing.T) {
	root, cfg := testProject(t)
	inst, _ := newTestInstaller(t, root, cfg)

	res := inst.Update(context.Background(), "database")
	if res.Success {
		t.Fatal("updating a module that is not installed must fail")
	}
	if len(res.Errors) != 1 || !strings.Contains(res.Errors[0], "not installed") {
		t.Errorf("Errors = %v", res.Errors)
	}
}

func TestDetectManager(t *testing.T) {
	tests := []struct {
		name       string
		files      []string
		configured string
		want       Manager
	}{
		{"go project", []string{"go.mod"}, "", ManagerGo},
		{"pnpm project", []string{"pnpm-lock.yaml"}, "", ManagerPnpm},
		{"yarn project", []string{"yarn.lock"}, "", ManagerYarn},
		{"npm project", []string{"package-lock.json"}, "", ManagerNpm},
		{"bun project", []string{"bun.lockb"}, "", ManagerBun},
		{"go wins over npm", []string{"package-lock.json", "go.mod"}, "", ManagerGo},
		{"pnpm wins over yarn", []string{"yarn.lock", "pnpm-lock.yaml"}, "", ManagerPnpm},
		{"configured fallback", nil, "bun", ManagerBun},
		{"default npm", nil, "", ManagerNpm},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir()
			for _, f := range tt.files {
				if err := os.WriteFile(filepath.Join(dir, f), []byte("x"), 0644); err != nil {
					t.Fatal(err)
				}
			}
			if got := DetectManager(dir, tt.configured); got != tt.want {
				t.Errorf("DetectManager = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestManagerInstallArgs(t *testing.T) {
	dep := registry.Dependency{Name: "zod", Version: "^3.22.0"}

	tests := []struct {
		manager Manager
		want    string
	}{
		{ManagerGo, "go get zod@^3.22.0"},
		{ManagerNpm, "npm install zod@^3.22.0"},
		{ManagerPnpm, "pnpm add zod@^3.22.0"},
		{ManagerYarn, "yarn add zod@^3.22.0"},
		{ManagerBun, "bun add zod@^3.22.0"},
	}
	for _, tt := range tests {
		if got := strings.Join(tt.manager.installArgs(dep), " "); got != tt.want {
			t.Errorf("%s args = %q, want %q", tt.manager, got, tt.want)
		}
	}

	bare := registry.Dependency{Name: "left-pad"}
	if got := strings.Join(ManagerNpm.installArgs(bare), " "); got != "npm install left-pad" {
		t.Errorf("versionless args = %q", got)
	}
}
