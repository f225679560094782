// ABOUTME: Entry point for the coven-contacts API server
// ABOUTME: Cobra commands for serving the API, resetting the database and printing the version

package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/fatih/color"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

// Version is set by goreleaser at build time.
var version = "dev"

const banner = `
  ___ _____   _____ _ __         ___ ___  _ __ | |_ __ _  ___| |_ ___
 / __/ _ \ \ / / _ \ '_ \ _____ / __/ _ \| '_ \| __/ _' |/ __| __/ __|
| (_| (_) \ V /  __/ | | |_____| (_| (_) | | | | || (_| | (__| |_\__ \
 \___\___/ \_/ \___|_| |_|      \___\___/|_| |_|\__\__,_|\___|\__|___/
`

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "%s %v\n", color.RedString("Error:"), err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var configPath string

	root := &cobra.Command{
		Use:           "coven-contacts",
		Short:         "Contacts management API server",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			// A .env file is optional; real environment variables win.
			_ = godotenv.Load()
		},
	}
	root.PersistentFlags().StringVarP(&configPath, "config", "c", "",
		"config file (default $COVEN_CONTACTS_CONFIG or ~/.config/coven/contacts.yaml)")

	root.AddCommand(
		&cobra.Command{
			Use:   "serve",
			Short: "Start the HTTP API server",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				return runServe(cmd.Context(), configPath)
			},
		},
		&cobra.Command{
			Use:   "reset-db",
			Short: "Drop and re-create every table",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				return runResetDB(cmd.Context(), configPath)
			},
		},
		&cobra.Command{
			Use:   "version",
			Short: "Print the version",
			Args:  cobra.NoArgs,
			Run: func(cmd *cobra.Command, args []string) {
				fmt.Fprintf(cmd.OutOrStdout(), "coven-contacts %s\n", version)
			},
		},
	)

	return root
}
