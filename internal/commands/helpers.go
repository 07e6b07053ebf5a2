package commands

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/viper"
	"golang.org/x/term"

	"github.com/eastgold15/Monolith/internal/input"
	"github.com/eastgold15/Monolith/internal/installer"
	"github.com/eastgold15/Monolith/internal/output"
	"github.com/eastgold15/Monolith/internal/project"
	"github.com/eastgold15/Monolith/internal/registry"
	"github.com/eastgold15/Monolith/internal/target"
)

// projectEnv is the invocation context shared by the catalog commands:
// where the command ran, the enclosing project root, and the loaded
// configuration. Outside a project Root falls back to WorkDir and
// Config stays nil.
type projectEnv struct {
	WorkDir string
	Root    string
	Config  *project.Config
}

// loadProject locates the enclosing project. Running outside one is
// fine; a present but unreadable monolith.json is not.
func loadProject() (*projectEnv, error) {
	wd, err := os.Getwd()
	if err != nil {
		return nil, fmt.Errorf("getting working directory: %w", err)
	}

	root, ok := project.FindRoot(wd)
	if !ok {
		return &projectEnv{WorkDir: wd, Root: wd}, nil
	}

	cfg, err := project.Load(root)
	if err != nil {
		return nil, fmt.Errorf("loading %s: %w", project.ConfigFile, err)
	}
	return &projectEnv{WorkDir: wd, Root: root, Config: cfg}, nil
}

// registryURL resolves the remote registry override: the --registry
// flag wins, then the MONOLITH_REGISTRY environment variable, then the
// registry field in monolith.json. Empty means the local chain only.
func registryURL(env *projectEnv) string {
	if registryFlag != "" {
		return registryFlag
	}

	v := viper.New()
	v.SetConfigName("monolith")
	v.SetConfigType("json")
	v.AddConfigPath(env.Root)

	v.AutomaticEnv()
	v.SetEnvPrefix("MONOLITH")

	// monolith.json is optional here; a missing file just means no
	// configured registry.
	_ = v.ReadInConfig()

	return v.GetString("registry")
}

// openCatalog loads the module registry for this invocation.
func openCatalog(ctx context.Context, env *projectEnv) (*registry.Catalog, error) {
	cat, err := registry.Open(ctx, registry.Options{
		ProjectRoot: env.Root,
		RemoteURL:   registryURL(env),
	})
	if err != nil {
		return nil, err
	}
	output.Verbose("Registry: " + cat.Source())
	return cat, nil
}

// interactiveChooser prompts when several apps of one kind can receive
// a module. Outside a terminal there is no chooser and ambiguity
// becomes an error suggesting --app.
func interactiveChooser() target.Chooser {
	if !term.IsTerminal(int(os.Stdin.Fd())) {
		return nil
	}
	return target.ChooserFunc(func(kind registry.Kind, apps []project.App) (project.App, error) {
		options := make([]string, len(apps))
		for i, app := range apps {
			options[i] = fmt.Sprintf("%s (%s)", app.Name, app.Path)
		}
		idx, err := input.Select(fmt.Sprintf("Several %s apps can receive this module. Install into:", kind), options)
		if err != nil {
			return project.App{}, err
		}
		return apps[idx], nil
	})
}

// printResult renders the stage detail of one module run: files,
// dependencies, registrations, then warnings and errors. The caller
// prints the closing status line.
func printResult(res *installer.Result, dryRun bool) {
	for _, path := range res.InstalledFiles {
		if dryRun {
			output.Step("would create " + path)
		} else {
			output.Step("created " + path)
		}
	}
	for _, path := range res.UpdatedFiles {
		output.Step("updated " + path)
	}
	for _, path := range res.SkippedFiles {
		if dryRun {
			output.Step("would skip " + path + " (already exists)")
		} else {
			output.Step("skipped " + path + " (already exists)")
		}
	}
	for _, dep := range res.InstalledDeps {
		output.Step("installed " + dep)
	}
	for _, reg := range res.Registered {
		output.Step("registered " + reg)
	}

	for _, msg := range res.Warnings {
		output.Warn(msg)
	}
	for _, msg := range res.Errors {
		output.Error(msg)
	}
}

// label names a module with its version when known.
func label(res *installer.Result) string {
	if res.Version == "" {
		return res.Module
	}
	return res.Module + " v" + res.Version
}
