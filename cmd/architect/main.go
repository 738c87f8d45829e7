// Package main implements the architect CLI for the lifearchitect HTTP server.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var version = "dev"

// options are the persistent flags shared by every command.
type options struct {
	server string
	json   bool
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	opts := &options{}
	root := &cobra.Command{
		Use:   "architect",
		Short: "CLI for the lifearchitect server",
		Long: `architect manages your day from the terminal: tasks, habits, timeline
events and the AI planner, all through a running architectd.`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: false,
	}
	root.PersistentFlags().StringVar(&opts.server, "server", envOr("ARCHITECT_SERVER", "http://localhost:9002"), "architectd server URL")
	root.PersistentFlags().BoolVar(&opts.json, "json", false, "print raw JSON responses")

	root.AddCommand(
		newHealthCmd(opts),
		newTasksCmd(opts),
		newHabitsCmd(opts),
		newEventsCmd(opts),
		newGoalCmd(opts),
		newAcceptCmd(opts),
		newScheduleCmd(opts),
		newParseTimeCmd(opts),
	)
	return root
}

func newHealthCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "health",
		Short: "Check architectd server health",
		Long: `Check the health status of the architectd HTTP server.

Examples:
  # Check health
  architect health

  # Check health on a different server
  architect health --server http://localhost:8080`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			var out healthResponse
			if err := newClient(opts).do(cmd.Context(), "GET", "/health", nil, &out); err != nil {
				return err
			}
			if opts.json {
				return printJSON(cmd, out)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Server Status: %s\n", out.Status)
			fmt.Fprintf(cmd.OutOrStdout(), "Server Version: %s\n", out.Version)
			fmt.Fprintf(cmd.OutOrStdout(), "Server URL: %s\n", opts.server)
			return nil
		},
	}
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
