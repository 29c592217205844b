package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/taskwright/taskwright/internal/config"
)

var auditJSON bool

var auditCmd = &cobra.Command{
	Use:   "audit <batch-id>",
	Short: "Show the audit trail for a batch",
	Long: `Display the append-only audit trail recorded for a batch.

Every safety check, approval decision, skip, and tool invocation is
recorded with its actor, payload, and safety score at the time.

Examples:
  taskwright audit 4f1c...            # Human-readable trail
  taskwright audit 4f1c... --json     # Machine-readable output
  taskwright audit 4f1c... --json | jq '.[].action'`,
	Args: cobra.ExactArgs(1),
	RunE: runAuditCmd,
}

func init() {
	auditCmd.Flags().BoolVar(&auditJSON, "json", false, "Output in JSON format")
}

func runAuditCmd(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	db, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer db.Close()

	entries, err := db.ListAudit(args[0])
	if err != nil {
		return err
	}
	if len(entries) == 0 {
		fmt.Println("No audit entries for this batch.")
		return nil
	}

	if auditJSON {
		encoder := json.NewEncoder(os.Stdout)
		encoder.SetIndent("", "  ")
		return encoder.Encode(entries)
	}

	for _, e := range entries {
		fmt.Printf("%s  %-12s %-18s score=%.1f\n", e.CreatedAt.Format("15:04:05"), e.Actor, e.Action, e.SafetyScore)
		if e.Payload != "" {
			fmt.Printf("    %s\n", truncate(e.Payload, 120))
		}
	}
	return nil
}
