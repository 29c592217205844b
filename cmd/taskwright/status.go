package main

import (
	"fmt"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/taskwright/taskwright/internal/config"
)

var statusLimit int

var statusCmd = &cobra.Command{
	Use:   "status [batch-id]",
	Short: "Show batch and task status",
	Long: `Display the status of stored batches.

Without arguments, lists recent batches. With a batch id, shows every
task in the batch with its status, result, and error message.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runStatus,
}

func init() {
	statusCmd.Flags().IntVar(&statusLimit, "limit", 20, "Number of recent batches to list")
}

func runStatus(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	db, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer db.Close()

	if len(args) == 0 {
		batches, err := db.ListBatches(statusLimit)
		if err != nil {
			return err
		}
		if len(batches) == 0 {
			fmt.Println("No batches recorded. Run 'taskwright run <instruction>' to start.")
			return nil
		}
		for _, b := range batches {
			marker := " "
			if !b.Safety.Safe {
				marker = "!"
			}
			fmt.Printf("%s %s  %s  %s\n", marker, b.ID, b.CreatedAt.Format("2006-01-02 15:04"), truncate(b.Instruction, 60))
		}
		return nil
	}

	batchID := args[0]
	batch, err := db.GetBatch(batchID)
	if err != nil {
		return err
	}
	tasks, err := db.ListTasks(batchID)
	if err != nil {
		return err
	}

	fmt.Printf("Batch %s\n", batch.ID)
	fmt.Printf("Instruction: %s\n", batch.Instruction)
	if !batch.Safety.Safe {
		color.Red("Flagged: %s (score %.1f)", strings.Join(batch.Safety.Flags, ", "), batch.Safety.Score)
	}
	fmt.Println()

	for _, task := range tasks {
		icon, attr := statusDisplay(task.Status)
		color.New(attr).Printf("%s %d [%s] %s — %s\n", icon, task.Order, task.Type, task.Status, truncate(task.Description, 70))
		if task.Result != "" {
			fmt.Printf("    result: %s\n", truncate(task.Result, 80))
		}
		if task.ErrorMessage != "" {
			fmt.Printf("    error: %s\n", task.ErrorMessage)
		}
		if len(task.MissingInfo) > 0 {
			fmt.Printf("    missing: %s\n", strings.Join(task.MissingInfo, ", "))
		}
	}
	return nil
}

// truncate shortens a string to maxLen characters, adding ellipsis if needed.
func truncate(s string, maxLen int) string {
	s = strings.ReplaceAll(s, "\n", " ")
	s = strings.TrimSpace(s)

	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen-3] + "..."
}
