package main

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/taskwright/taskwright/internal/config"
	"github.com/taskwright/taskwright/internal/gateway"
	"github.com/taskwright/taskwright/internal/orchestrator"
	"github.com/taskwright/taskwright/internal/queue"
	"github.com/taskwright/taskwright/internal/safety"
	"github.com/taskwright/taskwright/pkg/models"
)

var (
	runYes            bool
	runNonInteractive bool
	runJSON           bool
	runVerbose        bool
)

var runCmd = &cobra.Command{
	Use:   "run <instruction>",
	Short: "Parse an instruction into tasks and execute them",
	Long: `Parse a natural-language instruction into a batch of tasks and run
them in dependency order.

Each task is screened for harmful patterns and checked for the facts its
type requires. Unsafe tasks are rejected and never executed; incomplete
tasks halt until the missing information is supplied; risky tasks halt
for approval. Tasks whose dependency failed are skipped.

Examples:
  taskwright run "Fix the login bug in auth.ts, then deploy it to staging"
  taskwright run --yes "Deploy the release to production"
  taskwright run --json "Calculate 17 * 3" | jq '.tasks'`,
	Args: cobra.MinimumNArgs(1),
	RunE: runRun,
}

func init() {
	runCmd.Flags().BoolVarP(&runYes, "yes", "y", false, "Approve all tasks without prompting")
	runCmd.Flags().BoolVar(&runNonInteractive, "non-interactive", false, "Never prompt; leave gated tasks halted")
	runCmd.Flags().BoolVar(&runJSON, "json", false, "Output the summary in JSON format")
	runCmd.Flags().BoolVar(&runVerbose, "verbose", false, "Print debug logging to stderr")
}

func runRun(cmd *cobra.Command, args []string) error {
	instruction := strings.Join(args, " ")

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	db, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer db.Close()

	ruleset, err := newRuleset(cfg)
	if err != nil {
		return err
	}

	client, err := newGatewayClient(cfg)
	if err != nil {
		return err
	}

	gw := gateway.NewAnthropic(client, gateway.NewToolExecutor(db), cfg.Limits.MaxTasks)

	o := orchestrator.New(safety.NewValidator(ruleset), gw, gw, db, db, orchestrator.Config{
		MaxTasks:                     cfg.Limits.MaxTasks,
		RejectThreshold:              cfg.Policy.RejectThreshold,
		FlaggedBatchRequiresApproval: cfg.Policy.FlaggedBatchRequiresApproval,
	})
	if runVerbose {
		o.SetDebugLog(func(format string, args ...interface{}) {
			fmt.Fprintf(os.Stderr, format+"\n", args...)
		})
	}

	ctx := context.Background()

	batch, q, err := o.Intake(ctx, instruction)
	if err != nil {
		var rej *orchestrator.RejectionError
		if errors.As(err, &rej) {
			color.Red("Instruction rejected by safety screening.")
			fmt.Printf("  Score: %.1f\n  Flags: %s\n", rej.Score, strings.Join(rej.Flags, ", "))
			os.Exit(1)
		}
		return err
	}

	if !runJSON {
		fmt.Printf("Batch %s: %d task(s)\n\n", batch.ID, len(batch.Tasks))
		for _, task := range batch.Tasks {
			printTaskLine(task)
		}
		fmt.Println()
	}

	if err := o.Run(ctx, batch, q); err != nil {
		return err
	}

	if err := resolveGates(ctx, o, batch, q); err != nil {
		return err
	}

	summary := orchestrator.BuildSummary(batch)
	if runJSON {
		encoder := json.NewEncoder(os.Stdout)
		encoder.SetIndent("", "  ")
		if err := encoder.Encode(summary); err != nil {
			return err
		}
	} else {
		printSummary(summary)
		input, output := client.Tracker().Total()
		fmt.Printf("\nAPI usage: %d call(s), %d input / %d output tokens\n",
			client.Tracker().Calls(), input, output)
	}

	if summary.Failed > 0 {
		os.Exit(1)
	}
	return nil
}

// resolveGates walks the approval and missing-info gates interactively,
// re-running the batch after each resolution, until nothing more can move.
func resolveGates(ctx context.Context, o *orchestrator.Orchestrator, batch *models.Batch, q *queue.Queue) error {
	reader := bufio.NewReader(os.Stdin)

	for {
		progressed := false

		for _, req := range o.Approvals().Pending() {
			if runYes {
				if err := o.ResolveApproval(ctx, batch, q, req.TaskID, true, ""); err != nil {
					return err
				}
				progressed = true
				continue
			}
			if runNonInteractive {
				continue
			}

			color.Yellow("Task %d needs approval (risk: %s):", req.Order, req.RiskLevel)
			fmt.Printf("  %s\n", req.Description)
			fmt.Print("Approve? [y/N]: ")
			answer, err := reader.ReadString('\n')
			if err != nil {
				return fmt.Errorf("read approval answer: %w", err)
			}

			granted := strings.EqualFold(strings.TrimSpace(answer), "y")
			reason := ""
			if !granted {
				fmt.Print("Reason (optional): ")
				line, err := reader.ReadString('\n')
				if err != nil {
					return fmt.Errorf("read denial reason: %w", err)
				}
				reason = strings.TrimSpace(line)
				if reason == "" {
					reason = "denied by operator"
				}
			}
			if err := o.ResolveApproval(ctx, batch, q, req.TaskID, granted, reason); err != nil {
				return err
			}
			progressed = true
		}

		if !runNonInteractive {
			for _, task := range batch.Tasks {
				if task.Status != models.TaskStatusAwaitingInfo {
					continue
				}
				color.Yellow("Task %d needs more information:", task.Order)
				fmt.Printf("  %s\n  Missing: %s\n", task.Description, strings.Join(task.MissingInfo, ", "))
				fmt.Print("Supplement (empty to skip): ")
				line, err := reader.ReadString('\n')
				if err != nil {
					return fmt.Errorf("read supplement: %w", err)
				}
				supplement := strings.TrimSpace(line)
				if supplement == "" {
					continue
				}
				if err := o.ResolveInfo(batch, task.ID, supplement); err != nil {
					return err
				}
				progressed = true
			}
		}

		if !progressed {
			return nil
		}
		if err := o.Run(ctx, batch, q); err != nil {
			return err
		}
	}
}

// printTaskLine prints one task of the planned batch.
func printTaskLine(task *models.Task) {
	deps := ""
	if len(task.DependsOn) > 0 {
		parts := make([]string, len(task.DependsOn))
		for i, d := range task.DependsOn {
			parts[i] = fmt.Sprintf("%d", d)
		}
		deps = " (after " + strings.Join(parts, ", ") + ")"
	}
	fmt.Printf("  %d. [%s]%s %s\n", task.Order, task.Type, deps, task.Description)
	if !task.Safety.Safe {
		color.Red("     rejected: %s", strings.Join(task.Safety.Flags, ", "))
	}
}

// printSummary prints the batch outcome with per-task status lines.
func printSummary(s *models.Summary) {
	fmt.Println("=== Batch Summary ===")
	fmt.Printf("Total: %d | Completed: %d | Failed: %d | Skipped: %d\n",
		s.Total, s.Completed, s.Failed, s.Skipped)
	if s.AwaitingApproval > 0 || s.NeedingInfo > 0 {
		fmt.Printf("Halted: %d awaiting approval, %d needing information\n",
			s.AwaitingApproval, s.NeedingInfo)
	}
	fmt.Println()

	for _, task := range s.Tasks {
		icon, attr := statusDisplay(task.Status)
		color.New(attr).Printf("%s task %d [%s]: %s\n", icon, task.Order, task.Type, string(task.Status))
		if task.Result != "" {
			fmt.Printf("    %s\n", task.Result)
		}
		if task.Reason != "" {
			fmt.Printf("    %s\n", task.Reason)
		}
	}
}

// statusDisplay maps a task status to its icon and display color.
func statusDisplay(status models.TaskStatus) (string, color.Attribute) {
	switch status {
	case models.TaskStatusCompleted:
		return "✓", color.FgGreen
	case models.TaskStatusFailed, models.TaskStatusRejected:
		return "✗", color.FgRed
	case models.TaskStatusSkipped:
		return "-", color.FgYellow
	case models.TaskStatusAwaitingApproval, models.TaskStatusAwaitingInfo:
		return "⚠", color.FgYellow
	default:
		return "·", color.FgWhite
	}
}
