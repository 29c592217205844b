// Package config handles configuration loading and management for Taskwright.
// It supports XDG config paths, project-level overrides, and environment variables.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/viper"
)

// Config holds all configuration for Taskwright.
type Config struct {
	Anthropic AnthropicConfig `mapstructure:"anthropic"`
	Store     StoreConfig     `mapstructure:"store"`
	Limits    LimitsConfig    `mapstructure:"limits"`
	Policy    PolicyConfig    `mapstructure:"policy"`
	Safety    SafetyConfig    `mapstructure:"safety"`
}

// AnthropicConfig holds Anthropic API settings.
type AnthropicConfig struct {
	APIKey string `mapstructure:"api_key"`
	// Model overrides the default model when set.
	Model string `mapstructure:"model"`
	// UseAWSBedrock routes API calls through AWS Bedrock.
	UseAWSBedrock bool   `mapstructure:"use_aws_bedrock"`
	AWSRegion     string `mapstructure:"aws_region"`
	AWSProfile    string `mapstructure:"aws_profile"`
}

// StoreConfig holds database settings.
type StoreConfig struct {
	// Path is the SQLite database path; empty means the XDG default.
	Path string `mapstructure:"path"`
}

// LimitsConfig holds batch sizing limits.
type LimitsConfig struct {
	// MaxTasks caps the number of tasks parsed from one instruction.
	MaxTasks int `mapstructure:"max_tasks"`
}

// PolicyConfig holds orchestration policy settings.
type PolicyConfig struct {
	// RejectThreshold rejects an instruction whose safety score falls below it.
	RejectThreshold float64 `mapstructure:"reject_threshold"`
	// FlaggedBatchRequiresApproval forces approval on every task when the
	// instruction was flagged but not rejected.
	FlaggedBatchRequiresApproval bool `mapstructure:"flagged_batch_requires_approval"`
}

// SafetyConfig holds safety screening settings.
type SafetyConfig struct {
	// RulesFile points at a YAML file of extra match rules, merged over the
	// built-in table.
	RulesFile string `mapstructure:"rules_file"`
}

// Load loads configuration from XDG paths, project overrides, and environment variables.
// Precedence (highest to lowest):
// 1. Environment variables (ANTHROPIC_API_KEY)
// 2. Project config (.taskwright.yaml in current directory or parent)
// 3. User config (~/.config/taskwright/config.yaml)
// 4. Built-in defaults
func Load() (*Config, error) {
	v := viper.New()

	setDefaults(v)

	userConfigDir := getUserConfigDir()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(userConfigDir)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("reading user config: %w", err)
		}
	}

	// Load project config if present
	projectConfig := findProjectConfig()
	if projectConfig != "" {
		projectViper := viper.New()
		projectViper.SetConfigFile(projectConfig)
		if err := projectViper.ReadInConfig(); err == nil {
			// Merge project config (takes precedence)
			if err := v.MergeConfigMap(projectViper.AllSettings()); err != nil {
				return nil, fmt.Errorf("merging project config: %w", err)
			}
		}
	}

	// Environment variable overrides
	v.AutomaticEnv()
	v.BindEnv("anthropic.api_key", "ANTHROPIC_API_KEY")
	v.BindEnv("anthropic.use_aws_bedrock", "CLAUDE_CODE_USE_BEDROCK")
	v.BindEnv("anthropic.aws_region", "AWS_REGION")
	v.BindEnv("anthropic.aws_profile", "AWS_PROFILE")

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}

	// Expand ${VAR} references
	cfg.Anthropic.APIKey = expandEnv(cfg.Anthropic.APIKey)
	cfg.Safety.RulesFile = expandEnv(cfg.Safety.RulesFile)

	return cfg, nil
}

// LoadFromPath loads configuration from a specific path (for testing).
func LoadFromPath(path string) (*Config, error) {
	v := viper.New()

	setDefaults(v)

	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("reading config from %s: %w", path, err)
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}

	cfg.Anthropic.APIKey = expandEnv(cfg.Anthropic.APIKey)
	cfg.Safety.RulesFile = expandEnv(cfg.Safety.RulesFile)

	return cfg, nil
}

// Save writes the current configuration to the user config file.
func Save(cfg *Config) error {
	userConfigDir := getUserConfigDir()
	if err := os.MkdirAll(userConfigDir, 0700); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	configPath := filepath.Join(userConfigDir, "config.yaml")

	v := viper.New()
	v.SetConfigFile(configPath)

	v.Set("anthropic.api_key", cfg.Anthropic.APIKey)
	v.Set("anthropic.model", cfg.Anthropic.Model)
	v.Set("anthropic.use_aws_bedrock", cfg.Anthropic.UseAWSBedrock)
	v.Set("anthropic.aws_region", cfg.Anthropic.AWSRegion)
	v.Set("anthropic.aws_profile", cfg.Anthropic.AWSProfile)
	v.Set("store.path", cfg.Store.Path)
	v.Set("limits.max_tasks", cfg.Limits.MaxTasks)
	v.Set("policy.reject_threshold", cfg.Policy.RejectThreshold)
	v.Set("policy.flagged_batch_requires_approval", cfg.Policy.FlaggedBatchRequiresApproval)
	v.Set("safety.rules_file", cfg.Safety.RulesFile)

	return v.WriteConfig()
}

// GetUserConfigPath returns the path to the user config file.
func GetUserConfigPath() string {
	return filepath.Join(getUserConfigDir(), "config.yaml")
}

// GetProjectConfigPath returns the path to the project config file if it exists.
func GetProjectConfigPath() string {
	return findProjectConfig()
}

// setDefaults configures default values.
func setDefaults(v *viper.Viper) {
	v.SetDefault("anthropic.api_key", "")
	v.SetDefault("anthropic.model", "")
	v.SetDefault("anthropic.use_aws_bedrock", false)

	v.SetDefault("store.path", "")

	v.SetDefault("limits.max_tasks", 10)

	v.SetDefault("policy.reject_threshold", 0.5)
	v.SetDefault("policy.flagged_batch_requires_approval", true)

	v.SetDefault("safety.rules_file", "")
}

// getUserConfigDir returns the XDG config directory for Taskwright.
func getUserConfigDir() string {
	if xdgConfig := os.Getenv("XDG_CONFIG_HOME"); xdgConfig != "" {
		return filepath.Join(xdgConfig, "taskwright")
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".", ".config", "taskwright")
	}
	return filepath.Join(home, ".config", "taskwright")
}

// findProjectConfig searches for .taskwright.yaml in the current directory and parents.
func findProjectConfig() string {
	cwd, err := os.Getwd()
	if err != nil {
		return ""
	}

	for {
		configPath := filepath.Join(cwd, ".taskwright.yaml")
		if _, err := os.Stat(configPath); err == nil {
			return configPath
		}

		parent := filepath.Dir(cwd)
		if parent == cwd {
			break
		}
		cwd = parent
	}

	return ""
}

// expandEnv expands ${VAR} references in a string.
func expandEnv(s string) string {
	return os.ExpandEnv(s)
}

// Default returns a Config with default values.
func Default() *Config {
	return &Config{
		Limits: LimitsConfig{
			MaxTasks: 10,
		},
		Policy: PolicyConfig{
			RejectThreshold:              0.5,
			FlaggedBatchRequiresApproval: true,
		},
	}
}
