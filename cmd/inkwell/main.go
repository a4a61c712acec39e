// Package main implements the inkwell command, the single entry point for
// the blogging API. Subcommands run the HTTP server, the background task
// worker, and database schema migrations.
package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

func main() {
	// Load .env when present; deployed environments set variables directly
	_ = godotenv.Load()

	rootCmd := &cobra.Command{
		Use:           "inkwell",
		Short:         "Inkwell blogging API",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.AddCommand(
		serveCmd(),
		workerCmd(),
		migrateCmd(),
	)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
