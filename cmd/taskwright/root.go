package main

import (
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "taskwright",
	Short: "Multi-task orchestration engine",
	Long: `Taskwright turns a natural-language instruction into a batch of
discrete tasks, screens each one for harmful patterns and missing
information, and executes the survivors in dependency order.

Core capabilities:
- Splits compound instructions into typed tasks
- Screens every task against a harmful-pattern ruleset
- Halts incomplete or risky tasks at gates until resolved
- Executes tasks through per-type tool handlers
- Keeps an append-only audit trail of every decision`,
}

// Execute runs the root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(approveCmd)
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(auditCmd)
	rootCmd.AddCommand(patternsCmd)
	rootCmd.AddCommand(configCmd)
	rootCmd.AddCommand(versionCmd)
}
