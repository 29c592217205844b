package main

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/taskwright/taskwright/internal/config"
)

var configCmd = &cobra.Command{
	Use:   "config [key] [value]",
	Short: "Manage configuration",
	Long: `View or modify Taskwright configuration.

Without arguments, displays current configuration.
With one argument (key), displays the value for that key.
With two arguments (key value), sets the configuration value.

Configuration is stored at ~/.config/taskwright/config.yaml
Project-specific overrides can be placed in .taskwright.yaml`,
	Run: func(cmd *cobra.Command, args []string) {
		cfg, err := config.Load()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
			os.Exit(1)
		}

		switch len(args) {
		case 0:
			displayAllConfig(cfg)
		case 1:
			displayConfigKey(cfg, args[0])
		default:
			setConfigKey(cfg, args[0], args[1])
		}
	},
}

// displayAllConfig prints all configuration values.
func displayAllConfig(cfg *config.Config) {
	fmt.Printf("anthropic.api_key: %s (source: %s)\n", config.MaskAPIKey(cfg.Anthropic.APIKey), config.GetAPIKeySource(cfg))
	fmt.Printf("anthropic.model: %s\n", orDefault(cfg.Anthropic.Model, "(sdk default)"))
	fmt.Printf("anthropic.use_aws_bedrock: %t\n", cfg.Anthropic.UseAWSBedrock)
	fmt.Printf("store.path: %s\n", orDefault(cfg.Store.Path, "(xdg default)"))
	fmt.Printf("limits.max_tasks: %d\n", cfg.Limits.MaxTasks)
	fmt.Printf("policy.reject_threshold: %g\n", cfg.Policy.RejectThreshold)
	fmt.Printf("policy.flagged_batch_requires_approval: %t\n", cfg.Policy.FlaggedBatchRequiresApproval)
	fmt.Printf("safety.rules_file: %s\n", orDefault(cfg.Safety.RulesFile, "(built-in only)"))
}

func orDefault(value, fallback string) string {
	if value == "" {
		return fallback
	}
	return value
}

// displayConfigKey prints a single configuration value.
func displayConfigKey(cfg *config.Config, key string) {
	value, err := getConfigValue(cfg, key)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	fmt.Println(value)
}

// setConfigKey sets a configuration value and saves the config.
func setConfigKey(cfg *config.Config, key, value string) {
	if err := setConfigValue(cfg, key, value); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	if err := config.Save(cfg); err != nil {
		fmt.Fprintf(os.Stderr, "Error saving config: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("Set %s = %s\n", key, value)
}

// getConfigValue retrieves a configuration value by dot-notation key.
func getConfigValue(cfg *config.Config, key string) (string, error) {
	switch strings.ToLower(key) {
	case "anthropic.api_key":
		return config.MaskAPIKey(cfg.Anthropic.APIKey), nil
	case "anthropic.model":
		return cfg.Anthropic.Model, nil
	case "anthropic.use_aws_bedrock":
		return strconv.FormatBool(cfg.Anthropic.UseAWSBedrock), nil
	case "anthropic.aws_region":
		return cfg.Anthropic.AWSRegion, nil
	case "anthropic.aws_profile":
		return cfg.Anthropic.AWSProfile, nil
	case "store.path":
		return cfg.Store.Path, nil
	case "limits.max_tasks":
		return strconv.Itoa(cfg.Limits.MaxTasks), nil
	case "policy.reject_threshold":
		return strconv.FormatFloat(cfg.Policy.RejectThreshold, 'g', -1, 64), nil
	case "policy.flagged_batch_requires_approval":
		return strconv.FormatBool(cfg.Policy.FlaggedBatchRequiresApproval), nil
	case "safety.rules_file":
		return cfg.Safety.RulesFile, nil
	default:
		return "", fmt.Errorf("unknown configuration key: %s", key)
	}
}

// setConfigValue sets a configuration value by dot-notation key.
func setConfigValue(cfg *config.Config, key, value string) error {
	switch strings.ToLower(key) {
	case "anthropic.api_key":
		if err := config.ValidateAPIKey(value); err != nil {
			return err
		}
		cfg.Anthropic.APIKey = value
	case "anthropic.model":
		cfg.Anthropic.Model = value
	case "anthropic.use_aws_bedrock":
		b, err := strconv.ParseBool(value)
		if err != nil {
			return fmt.Errorf("invalid boolean: %s", value)
		}
		cfg.Anthropic.UseAWSBedrock = b
	case "anthropic.aws_region":
		cfg.Anthropic.AWSRegion = value
	case "anthropic.aws_profile":
		cfg.Anthropic.AWSProfile = value
	case "store.path":
		cfg.Store.Path = value
	case "limits.max_tasks":
		n, err := strconv.Atoi(value)
		if err != nil || n <= 0 {
			return fmt.Errorf("max_tasks must be a positive integer, got %s", value)
		}
		cfg.Limits.MaxTasks = n
	case "policy.reject_threshold":
		f, err := strconv.ParseFloat(value, 64)
		if err != nil || f < 0 || f > 1 {
			return fmt.Errorf("reject_threshold must be between 0 and 1, got %s", value)
		}
		cfg.Policy.RejectThreshold = f
	case "policy.flagged_batch_requires_approval":
		b, err := strconv.ParseBool(value)
		if err != nil {
			return fmt.Errorf("invalid boolean: %s", value)
		}
		cfg.Policy.FlaggedBatchRequiresApproval = b
	case "safety.rules_file":
		cfg.Safety.RulesFile = value
	default:
		return fmt.Errorf("unknown configuration key: %s", key)
	}
	return nil
}
