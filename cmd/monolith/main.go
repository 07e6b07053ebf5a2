package main

import (
	"os"

	"github.com/eastgold15/Monolith/internal/commands"
)

func main() {
	rootCmd := commands.RootCmd()

	rootCmd.AddCommand(commands.InitCmd())
	rootCmd.AddCommand(commands.AddCmd())
	rootCmd.AddCommand(commands.UpdateCmd())
	rootCmd.AddCommand(commands.ListCmd())
	rootCmd.AddCommand(commands.InfoCmd())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
