package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/eastgold15/Monolith/internal/installer"
	"github.com/eastgold15/Monolith/internal/output"
	"github.com/eastgold15/Monolith/internal/project"
)

// UpdateCmd creates the 'update' command refreshing installed modules
func UpdateCmd() *cobra.Command {
	var appName string

	cmd := &cobra.Command{
		Use:   "update [module]",
		Short: "Regenerate unmodified files of installed modules",
		Long: `Refresh installed modules from the current registry templates.

Files you have edited since install are left alone with a warning;
files still matching their recorded content are regenerated, and
missing ones are recreated. The dependency, env, and registration
stages rerun and skip work already done.

Example:
  monolith update          # every installed module
  monolith update auth`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := loadProject()
			if err != nil {
				return err
			}
			if env.Config == nil {
				return fmt.Errorf("%s not found, run monolith init first", project.ConfigFile)
			}

			names := args
			if len(names) == 0 {
				for _, rec := range env.Config.InstalledModules {
					names = append(names, rec.Name)
				}
			}
			if len(names) == 0 {
				output.Info("No modules installed")
				return nil
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
			})

			failed := 0
			for _, name := range names {
				output.Info(fmt.Sprintf("Updating %s...", name))
				res := inst.Update(ctx, name)
				printResult(res, false)

				if res.Success {
					output.Success(fmt.Sprintf("Updated %s", label(res)))
				} else {
					failed++
					output.Error(fmt.Sprintf("Failed to update %s", label(res)))
				}
			}

			if failed > 0 {
				return fmt.Errorf("%d of %d modules failed to update", failed, len(names))
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&appName, "app", "", "Update only the named app's placement")

	return cmd
}
