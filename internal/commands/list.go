package commands

import (
	"fmt"

	"github.com/spf13/cobra"
)

// ListCmd creates the 'list' command showing the module catalog
func ListCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List the modules the registry offers",
		Long:  "Show every available module with its version, marking the ones already installed in this project",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := loadProject()
			if err != nil {
				return err
			}
			cat, err := openCatalog(cmd.Context(), env)
			if err != nil {
				return fmt.Errorf("loading registry: %w", err)
			}

			names := cat.Registry.Names()
			if len(names) == 0 {
				fmt.Println("The registry has no modules")
				return nil
			}

			fmt.Println("Available modules:")
			for _, name := range names {
				mod, _ := cat.Registry.Get(name)
				mark := ""
				if env.Config != nil && env.Config.IsInstalled(name) {
					mark = " (installed)"
				}
				fmt.Printf("  - %s (v%s)%s\n", name, mod.Version, mark)
				if mod.Description != "" {
					fmt.Printf("    %s\n", mod.Description)
				}
			}

			return nil
		},
	}

	return cmd
}
