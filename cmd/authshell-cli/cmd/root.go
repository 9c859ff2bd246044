package cmd

import (
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "authshell-cli",
	Short: "authshell CLI tool",
	Long: `authshell-cli manages the accounts behind the login page.

Available commands:
  user add    Create an account in the SurrealDB backend
  version     Print the CLI version

Use "authshell-cli [command] --help" for more information about a specific command.`,
	SilenceUsage: true,
}

// Execute executes the root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
