package commands

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/eastgold15/Monolith/internal/inject"
	"github.com/eastgold15/Monolith/internal/installer"
	"github.com/eastgold15/Monolith/internal/project"
	"github.com/eastgold15/Monolith/internal/registry"
)

func writeConfig(t *testing.T, dir, content string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, project.ConfigFile), []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
}

func TestProjectType(t *testing.T) {
	tests := []struct {
		name string
		apps []project.App
		want project.Type
	}{
		{"no apps", nil, project.TypeSingleApp},
		{"root app", []project.App{
			{Name: "api", Kind: registry.KindBackend, Path: "."},
		}, project.TypeSingleApp},
		{"one nested app", []project.App{
			{Name: "api", Kind: registry.KindBackend, Path: "apps/api"},
		}, project.TypeWorkspace},
		{"several apps", []project.App{
			{Name: "api", Kind: registry.KindBackend, Path: "apps/api"},
			{Name: "web", Kind: registry.KindFrontend, Path: "apps/web"},
		}, project.TypeWorkspace},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := projectType(tt.apps); got != tt.want {
				t.Errorf("projectType = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestLabel(t *testing.T) {
	res := &installer.Result{Module: "auth"}
	if got := label(res); got != "auth" {
		t.Errorf("label = %q, want %q", got, "auth")
	}

	res.Version = "1.4.0"
	if got := label(res); got != "auth v1.4.0" {
		t.Errorf("label = %q, want %q", got, "auth v1.4.0")
	}
}

func TestRegistryURL_FlagWins(t *testing.T) {
	registryFlag = "https://flag.example/modules.json"
	defer func() { registryFlag = "" }()

	t.Setenv("MONOLITH_REGISTRY", "https://env.example/modules.json")

	env := &projectEnv{Root: t.TempDir()}
	if got := registryURL(env); got != "https://flag.example/modules.json" {
		t.Errorf("registryURL = %q, want the flag value", got)
	}
}

func TestRegistryURL_EnvBeatsConfig(t *testing.T) {
	dir := t.TempDir()
	writeConfig(t, dir, `{"projectType": "single-app", "registry": "https://config.example/modules.json", "installedModules": []}`)

	t.Setenv("MONOLITH_REGISTRY", "https://env.example/modules.json")

	env := &projectEnv{Root: dir}
	if got := registryURL(env); got != "https://env.example/modules.json" {
		t.Errorf("registryURL = %q, want the env value", got)
	}
}

func TestRegistryURL_ConfigFile(t *testing.T) {
	t.Setenv("MONOLITH_REGISTRY", "")

	dir := t.TempDir()
	writeConfig(t, dir, `{"projectType": "single-app", "registry": "https://config.example/modules.json", "installedModules": []}`)

	env := &projectEnv{Root: dir}
	if got := registryURL(env); got != "https://config.example/modules.json" {
		t.Errorf("registryURL = %q, want the monolith.json value", got)
	}
}

func TestRegistryURL_Unset(t *testing.T) {
	t.Setenv("MONOLITH_REGISTRY", "")

	env := &projectEnv{Root: t.TempDir()}
	if got := registryURL(env); got != "" {
		t.Errorf("registryURL = %q, want empty", got)
	}
}

func TestSeedManifest(t *testing.T) {
	root := t.TempDir()
	apps := []project.App{
		{Name: "api", Kind: registry.KindBackend, Path: "apps/api"},
		{Name: "web", Kind: registry.KindFrontend, Path: "apps/web"},
	}

	if err := seedManifest(root, apps); err != nil {
		t.Fatalf("seedManifest: %v", err)
	}

	manifest, err := inject.LoadManifest(root)
	if err != nil {
		t.Fatalf("LoadManifest: %v", err)
	}

	if _, _, ok := manifest.AnchorFor("apps/api/main.go", registry.RegisterPlugin, inject.MarkerPlugins); !ok {
		t.Error("plugin anchor missing for the backend app")
	}
	if _, _, ok := manifest.AnchorFor("apps/api/main.go", registry.RegisterRoutes, inject.MarkerRoutes); !ok {
		t.Error("routes anchor missing for the backend app")
	}
	if len(manifest.Entries) != 1 {
		t.Errorf("manifest has %d entry files, want only the backend one", len(manifest.Entries))
	}
}

func TestSeedManifest_NoBackends(t *testing.T) {
	root := t.TempDir()
	apps := []project.App{{Name: "web", Kind: registry.KindFrontend, Path: "."}}

	if err := seedManifest(root, apps); err != nil {
		t.Fatalf("seedManifest: %v", err)
	}
	if _, err := os.Stat(filepath.Join(root, inject.ManifestFile)); !os.IsNotExist(err) {
		t.Error("manifest file should not exist for a frontend-only project")
	}
}
