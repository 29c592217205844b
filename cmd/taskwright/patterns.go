package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/taskwright/taskwright/internal/config"
	"github.com/taskwright/taskwright/internal/store"
)

var patternsCmd = &cobra.Command{
	Use:   "patterns",
	Short: "Manage learned answer patterns",
	Long: `Manage the pattern library consulted by information-lookup tasks.

A pattern pairs a trigger phrase with a canned response. Lookups search
the library full-text and the most-used patterns rank first.`,
}

var patternsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List stored patterns",
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := openPatternStore()
		if err != nil {
			return err
		}
		defer db.Close()

		patterns, err := db.ListPatterns()
		if err != nil {
			return err
		}
		if len(patterns) == 0 {
			fmt.Println("No patterns stored. Add one with 'taskwright patterns add'.")
			return nil
		}
		for _, p := range patterns {
			fmt.Printf("%-24s uses=%-4d %s\n", p.Name, p.UseCount, truncate(p.Trigger, 60))
		}
		return nil
	},
}

var patternsAddCmd = &cobra.Command{
	Use:   "add <name> <trigger> <response>",
	Short: "Add a pattern",
	Args:  cobra.ExactArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := openPatternStore()
		if err != nil {
			return err
		}
		defer db.Close()

		p := &store.Pattern{Name: args[0], Trigger: args[1], Response: args[2]}
		if err := db.SavePattern(p); err != nil {
			return err
		}
		fmt.Printf("Saved pattern %s\n", p.Name)
		return nil
	},
}

var patternsSearchCmd = &cobra.Command{
	Use:   "search <query>",
	Short: "Search patterns full-text",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := openPatternStore()
		if err != nil {
			return err
		}
		defer db.Close()

		query := args[0]
		for _, extra := range args[1:] {
			query += " " + extra
		}
		hits, err := db.SearchPatterns(query, 10)
		if err != nil {
			return err
		}
		if len(hits) == 0 {
			fmt.Println("No matches.")
			return nil
		}
		for _, p := range hits {
			fmt.Printf("%s\n  trigger: %s\n  response: %s\n", p.Name, p.Trigger, p.Response)
		}
		return nil
	},
}

var patternsDeleteCmd = &cobra.Command{
	Use:   "delete <name>",
	Short: "Delete a pattern",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := openPatternStore()
		if err != nil {
			return err
		}
		defer db.Close()

		if err := db.DeletePattern(args[0]); err != nil {
			return err
		}
		fmt.Printf("Deleted pattern %s\n", args[0])
		return nil
	},
}

func openPatternStore() (*store.DB, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	return openStore(cfg)
}

func init() {
	patternsCmd.AddCommand(patternsListCmd)
	patternsCmd.AddCommand(patternsAddCmd)
	patternsCmd.AddCommand(patternsSearchCmd)
	patternsCmd.AddCommand(patternsDeleteCmd)
}
