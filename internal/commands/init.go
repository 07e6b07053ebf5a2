package commands

import (
	"encoding/json"
	"fmt"
	"os"
	"path"
	"path/filepath"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/eastgold15/Monolith/internal/generator"
	"github.com/eastgold15/Monolith/internal/inject"
	"github.com/eastgold15/Monolith/internal/input"
	"github.com/eastgold15/Monolith/internal/installer"
	"github.com/eastgold15/Monolith/internal/output"
	"github.com/eastgold15/Monolith/internal/project"
	"github.com/eastgold15/Monolith/internal/registry"
)

// InitCmd creates the 'init' command that sets up monolith in an
// existing project
func InitCmd() *cobra.Command {
	var yes bool

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Set up monolith in the current project",
		Long: `Detect the apps in the current directory and write monolith.json.

A go.mod marks a backend app, a package.json marks a frontend app.
The configuration records where modules get installed and which
modules this project has; add and update need it in multi-app
workspaces.

Example:
  monolith init
  monolith init --yes`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			wd, err := os.Getwd()
			if err != nil {
				return fmt.Errorf("getting working directory: %w", err)
			}

			apps, err := project.DiscoverApps(wd)
			if err != nil {
				return fmt.Errorf("discovering apps: %w", err)
			}

			if len(apps) == 0 {
				output.Warn("No apps detected; modules will install into the project root")
			} else {
				output.Info(fmt.Sprintf("Discovered %d app(s):", len(apps)))
				for _, app := range apps {
					output.Step(fmt.Sprintf("%s (%s) in %s", app.Name, app.Kind, app.Path))
				}
			}

			interactive := !yes && term.IsTerminal(int(os.Stdin.Fd()))

			name := filepath.Base(wd)
			pm := string(installer.DetectManager(wd, ""))
			if interactive {
				name = input.Prompt("Project name", name)
				pm = input.Prompt("Package manager", pm)
			}

			cfg := &project.Config{
				Name:             name,
				ProjectType:      projectType(apps),
				PackageManager:   pm,
				Apps:             apps,
				InstalledModules: []project.InstalledModule{},
			}

			data, err := json.MarshalIndent(cfg, "", "  ")
			if err != nil {
				return fmt.Errorf("marshaling %s: %w", project.ConfigFile, err)
			}
			data = append(data, '\n')

			ops := []generator.Operation{
				&generator.WriteFileOp{
					Path:    filepath.Join(wd, project.ConfigFile),
					Content: data,
					Mode:    0644,
				},
			}
			if err := generator.Execute(cmd.Context(), ops, generator.ExecuteOptions{}); err != nil {
				return fmt.Errorf("writing %s: %w", project.ConfigFile, err)
			}

			if err := seedManifest(wd, apps); err != nil {
				return fmt.Errorf("seeding %s: %w", inject.ManifestFile, err)
			}

			output.Success(fmt.Sprintf("Initialized %s", name))
			output.Info("Next steps:")
			output.Step("monolith list   # browse available modules")
			output.Step("monolith add <module>")

			return nil
		},
	}

	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "Accept detected defaults without prompting")

	return cmd
}

// projectType classifies the layout: one app living at the root is a
// single-app project, anything else is a workspace.
func projectType(apps []project.App) project.Type {
	if len(apps) == 0 {
		return project.TypeSingleApp
	}
	if len(apps) == 1 && apps[0].Path == "." {
		return project.TypeSingleApp
	}
	return project.TypeWorkspace
}

// seedManifest records the default anchors for every backend app, so
// the injection points are visible and customizable before the first
// add. Save is a no-op for projects without backend apps.
func seedManifest(root string, apps []project.App) error {
	manifest, err := inject.LoadManifest(root)
	if err != nil {
		return err
	}

	for _, app := range apps {
		if app.Kind != registry.KindBackend {
			continue
		}
		entry := path.Join(app.Path, "main.go")
		for id, anchor := range inject.DefaultAnchors() {
			manifest.EnsureAnchor(entry, id, anchor)
		}
	}

	return manifest.Save()
}
