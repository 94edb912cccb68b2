// Package main provides the entry point for the osfp CLI.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// NewRootCmd creates the root command for osfp.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "osfp",
		Short: "Reconcile OS fingerprint data from network scan reports",
		Long: `osfp reconciles operating-system fingerprint data from network scan
reports into a single queryable result per host.

It resolves the scanner's declared OS matches, attributes orphaned OS
classes to matches with equal accuracy, synthesizes placeholder matches
where no declared match fits, and analyzes the reconciled result for
identification weaknesses. Results render as text, JSON, or Markdown,
and persist to a local history database for later comparison.`,
		Version:       getVersion(),
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	// Global flags that apply to all commands
	cmd.PersistentFlags().BoolP("verbose", "v", false, "Enable verbose logging")

	// Add subcommands
	cmd.AddCommand(NewReconcileCmd())
	cmd.AddCommand(NewHistoryCmd())
	cmd.AddCommand(NewCompareCmd())
	cmd.AddCommand(NewInitCmd())
	cmd.AddCommand(NewVersionCmd())

	return cmd
}

// Execute runs the root command.
func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
