package main

import (
	"fmt"

	"github.com/anthropics/anthropic-sdk-go"

	"github.com/taskwright/taskwright/internal/config"
	"github.com/taskwright/taskwright/internal/gateway"
	"github.com/taskwright/taskwright/internal/safety"
	"github.com/taskwright/taskwright/internal/store"
)

// newGatewayClient builds the API client from configuration.
func newGatewayClient(cfg *config.Config) (*gateway.Client, error) {
	apiKey := cfg.Anthropic.APIKey
	if !cfg.Anthropic.UseAWSBedrock {
		key, err := config.GetAPIKey(cfg)
		if err != nil {
			return nil, err
		}
		apiKey = key
	}

	return gateway.NewClient(gateway.ClientConfig{
		Model:         anthropic.Model(cfg.Anthropic.Model),
		APIKey:        apiKey,
		UseAWSBedrock: cfg.Anthropic.UseAWSBedrock,
		AWSRegion:     cfg.Anthropic.AWSRegion,
		AWSProfile:    cfg.Anthropic.AWSProfile,
	})
}

// newRuleset builds the safety ruleset, merging extra rules when configured.
func newRuleset(cfg *config.Config) (*safety.Ruleset, error) {
	if cfg.Safety.RulesFile == "" {
		return safety.DefaultRuleset(), nil
	}
	rs, err := safety.LoadRuleset(cfg.Safety.RulesFile)
	if err != nil {
		return nil, fmt.Errorf("load safety rules: %w", err)
	}
	return rs, nil
}

// openStore opens the task database at the configured or default path.
func openStore(cfg *config.Config) (*store.DB, error) {
	path := cfg.Store.Path
	if path == "" {
		path = store.DefaultPath()
	}
	db, err := store.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if err := db.Migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate database: %w", err)
	}
	return db, nil
}
