package commands

import (
	monolith "github.com/eastgold15/Monolith"
	"github.com/eastgold15/Monolith/internal/output"
	"github.com/spf13/cobra"
)

// registryFlag overrides the registry source for one invocation. The
// helpers resolve it ahead of MONOLITH_REGISTRY and monolith.json.
var registryFlag string

// RootCmd creates and returns the root command for the monolith CLI
func RootCmd() *cobra.Command {
	var verbose bool

	cmd := &cobra.Command{
		Use:   "monolith",
		Short: "Add production-ready modules to existing projects",
		Long: `Monolith installs self-contained feature modules into projects you
already have: template files, package dependencies, environment
variables, and the wiring that registers each module in your app.

• Browse the registry with list and info
• Install modules and their requirements with add
• Refresh unmodified module files with update

Every operation is additive and safe to rerun.`,
		Version: monolith.Version,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			output.SetVerbose(verbose)
		},
	}

	cmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose output for debugging")
	cmd.PersistentFlags().StringVar(&registryFlag, "registry", "", "Registry URL (overrides MONOLITH_REGISTRY and monolith.json)")

	return cmd
}
