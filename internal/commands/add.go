package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/eastgold15/Monolith/internal/installer"
	"github.com/eastgold15/Monolith/internal/output"
)

// AddCmd creates the 'add' command for installing registry modules
func AddCmd() *cobra.Command {
	var appName string
	var dryRun bool

	cmd := &cobra.Command{
		Use:   "add <module>...",
		Short: "Install modules into the current project",
		Long: `Install one or more registry modules, requirements first.

Each module brings its template files, package dependencies, and
environment variables, and registers itself in the app's entry file.
Files that already exist are never overwritten, so rerunning add after
a partial install finishes what the first run started.

Example:
  monolith add auth
  monolith add database cache --app api
  monolith add auth --dry-run`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := loadProject()
			if err != nil {
				return err
			}

			ctx := cmd.Context()
			cat, err := openCatalog(ctx, env)
			if err != nil {
				return fmt.Errorf("loading registry: %w", err)
			}

			inst := installer.New(installer.Options{
				Catalog: cat,
				Config:  env.Config,
				Root:    env.Root,
				WorkDir: env.WorkDir,
				AppName: appName,
				Chooser: interactiveChooser(),
				DryRun:  dryRun,
			})

			failed := 0
			for _, name := range args {
				if dryRun {
					output.Info(fmt.Sprintf("Dry run for %s...", name))
				} else {
					output.Info(fmt.Sprintf("Installing %s...", name))
				}

				res := inst.Install(ctx, name)
				printResult(res, dryRun)

				switch {
				case !res.Success:
					failed++
					output.Error(fmt.Sprintf("Failed to install %s", label(res)))
				case dryRun:
					output.Info(fmt.Sprintf("Dry run complete for %s", label(res)))
				default:
					output.Success(fmt.Sprintf("Installed %s", label(res)))
				}
			}

			if failed > 0 {
				return fmt.Errorf("%d of %d modules failed to install", failed, len(args))
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&appName, "app", "", "Install into the named app")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "Show what would change without writing anything")

	return cmd
}
