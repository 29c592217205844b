package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDefault(t *testing.T) {
	cfg := Default()

	if cfg.Limits.MaxTasks != 10 {
		t.Errorf("expected default max_tasks 10, got %d", cfg.Limits.MaxTasks)
	}

	if cfg.Policy.RejectThreshold != 0.5 {
		t.Errorf("expected default reject_threshold 0.5, got %v", cfg.Policy.RejectThreshold)
	}

	if !cfg.Policy.FlaggedBatchRequiresApproval {
		t.Error("expected flagged_batch_requires_approval to default true")
	}
}

func TestLoadFromPath(t *testing.T) {
	// Create a temporary config file
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")

	configContent := `
anthropic:
  api_key: test-key
  model: claude-sonnet-4-20250514
store:
  path: /tmp/taskwright-test.db
limits:
  max_tasks: 5
policy:
  reject_threshold: 0.4
  flagged_batch_requires_approval: false
safety:
  rules_file: /tmp/extra-rules.yaml
`
	if err := os.WriteFile(configPath, []byte(configContent), 0644); err != nil {
		t.Fatalf("failed to write config file: %v", err)
	}

	cfg, err := LoadFromPath(configPath)
	if err != nil {
		t.Fatalf("LoadFromPath failed: %v", err)
	}

	if cfg.Anthropic.APIKey != "test-key" {
		t.Errorf("expected api_key 'test-key', got %q", cfg.Anthropic.APIKey)
	}

	if cfg.Anthropic.Model != "claude-sonnet-4-20250514" {
		t.Errorf("unexpected model %q", cfg.Anthropic.Model)
	}

	if cfg.Store.Path != "/tmp/taskwright-test.db" {
		t.Errorf("unexpected store path %q", cfg.Store.Path)
	}

	if cfg.Limits.MaxTasks != 5 {
		t.Errorf("expected max_tasks 5, got %d", cfg.Limits.MaxTasks)
	}

	if cfg.Policy.RejectThreshold != 0.4 {
		t.Errorf("expected reject_threshold 0.4, got %v", cfg.Policy.RejectThreshold)
	}

	if cfg.Policy.FlaggedBatchRequiresApproval {
		t.Error("expected flagged_batch_requires_approval false")
	}

	if cfg.Safety.RulesFile != "/tmp/extra-rules.yaml" {
		t.Errorf("unexpected rules file %q", cfg.Safety.RulesFile)
	}
}

func TestLoadFromPathDefaults(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")

	if err := os.WriteFile(configPath, []byte("anthropic:\n  api_key: k\n"), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadFromPath(configPath)
	if err != nil {
		t.Fatalf("LoadFromPath failed: %v", err)
	}

	if cfg.Limits.MaxTasks != 10 {
		t.Errorf("expected default max_tasks 10, got %d", cfg.Limits.MaxTasks)
	}

	if cfg.Policy.RejectThreshold != 0.5 {
		t.Errorf("expected default reject_threshold 0.5, got %v", cfg.Policy.RejectThreshold)
	}
}

func TestExpandEnvInAPIKey(t *testing.T) {
	os.Setenv("TASKWRIGHT_TEST_KEY", "expanded-value")
	defer os.Unsetenv("TASKWRIGHT_TEST_KEY")

	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")

	configContent := "anthropic:\n  api_key: ${TASKWRIGHT_TEST_KEY}\n"
	if err := os.WriteFile(configPath, []byte(configContent), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadFromPath(configPath)
	if err != nil {
		t.Fatalf("LoadFromPath failed: %v", err)
	}

	if cfg.Anthropic.APIKey != "expanded-value" {
		t.Errorf("expected expanded api_key, got %q", cfg.Anthropic.APIKey)
	}
}

func TestSaveAndReload(t *testing.T) {
	tmpDir := t.TempDir()
	os.Setenv("XDG_CONFIG_HOME", tmpDir)
	defer os.Unsetenv("XDG_CONFIG_HOME")

	cfg := Default()
	cfg.Anthropic.APIKey = "sk-ant-test"
	cfg.Limits.MaxTasks = 7

	if err := Save(cfg); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	reloaded, err := LoadFromPath(GetUserConfigPath())
	if err != nil {
		t.Fatalf("reload failed: %v", err)
	}

	if reloaded.Anthropic.APIKey != "sk-ant-test" {
		t.Errorf("expected saved api_key, got %q", reloaded.Anthropic.APIKey)
	}

	if reloaded.Limits.MaxTasks != 7 {
		t.Errorf("expected saved max_tasks 7, got %d", reloaded.Limits.MaxTasks)
	}
}
