package commands

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/eastgold15/Monolith/internal/registry"
)

// InfoCmd creates the 'info' command describing one module
func InfoCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "info <module>",
		Short: "Show a module's files, packages, and requirements",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := loadProject()
			if err != nil {
				return err
			}
			cat, err := openCatalog(cmd.Context(), env)
			if err != nil {
				return fmt.Errorf("loading registry: %w", err)
			}

			name := args[0]
			mod, ok := cat.Registry.Get(name)
			if !ok {
				if hint := cat.Registry.Suggest(name); hint != "" {
					return fmt.Errorf("module %q not found, did you mean %q?", name, hint)
				}
				return fmt.Errorf("module %q not found in the registry", name)
			}

			printModule(mod, env)
			return nil
		},
	}

	return cmd
}

// printModule renders a descriptor the way the registry declares it:
// identity and requirements first, then per-kind files, packages, and
// environment variables.
func printModule(mod *registry.Descriptor, env *projectEnv) {
	title := mod.Name
	if mod.DisplayName != "" && mod.DisplayName != mod.Name {
		title = fmt.Sprintf("%s (%s)", mod.DisplayName, mod.Name)
	}
	fmt.Printf("%s v%s\n", title, mod.Version)
	if mod.Description != "" {
		fmt.Println(mod.Description)
	}
	if mod.Category != "" {
		fmt.Printf("Category: %s\n", mod.Category)
	}
	if len(mod.Tags) > 0 {
		fmt.Printf("Tags: %s\n", strings.Join(mod.Tags, ", "))
	}
	if rec, ok := env.Config.Installed(mod.Name); ok {
		fmt.Printf("Installed: v%s\n", rec.Version)
	}
	if len(mod.Requires) > 0 {
		fmt.Printf("Requires: %s\n", strings.Join(mod.Requires, ", "))
	}

	for _, kind := range mod.Kinds() {
		files := mod.FilesFor(kind)
		if len(files) == 0 {
			continue
		}
		fmt.Printf("\nFiles (%s):\n", kind)
		for _, f := range files {
			line := "  - " + f.TargetPath
			if f.AutoRegister != nil {
				line += fmt.Sprintf(" (auto-registered as %s)", f.AutoRegister.ImportAlias)
			}
			fmt.Println(line)
		}
	}

	if len(mod.Dependencies) > 0 {
		fmt.Println("\nPackages:")
		for _, dep := range mod.Dependencies {
			line := "  - " + dep.Name
			if dep.Version != "" {
				line += "@" + dep.Version
			}
			if dep.Kind != "" {
				line += fmt.Sprintf(" (%s)", dep.Kind)
			}
			fmt.Println(line)
		}
	}

	if len(mod.EnvVars) > 0 {
		fmt.Println("\nEnvironment variables:")
		for _, v := range mod.EnvVars {
			line := "  - " + v.Name
			switch {
			case v.Default != "":
				line += fmt.Sprintf(" (default %s)", v.Default)
			case v.Required:
				line += " (required, set manually)"
			}
			fmt.Println(line)
			if v.Description != "" {
				fmt.Printf("    %s\n", v.Description)
			}
		}
	}
}
