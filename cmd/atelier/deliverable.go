package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/atelierhq/atelier/internal/api"
	"github.com/atelierhq/atelier/internal/cache"
	"github.com/atelierhq/atelier/internal/config"
	"github.com/atelierhq/atelier/internal/logger"
	"github.com/atelierhq/atelier/internal/tui/delwizard"
)

var deliverableCmd = &cobra.Command{
	Use:   "deliverable",
	Short: "Create, edit, or preview a deliverable",
}

var deliverableNewCmd = &cobra.Command{
	Use:   "new",
	Short: "Build a new deliverable from scratch",
	Long: `Build a new deliverable from scratch.

Launches the three-stage builder wizard: basic details, content blocks,
and a rendered review. Submitting creates the deliverable on the server.

Configuration is loaded with the following precedence:
  ENV variables > Project config > Global config > Defaults

Project config: ./atelier.yml
Global config: ~/.config/atelier/atelier.yml`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runWizard(delwizard.ModeCreate, "")
	},
}

var deliverableEditCmd = &cobra.Command{
	Use:   "edit <id>",
	Short: "Edit an existing deliverable",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runWizard(delwizard.ModeEdit, args[0])
	},
}

var deliverablePreviewCmd = &cobra.Command{
	Use:   "preview <id>",
	Short: "Preview a deliverable as the client sees it",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runWizard(delwizard.ModePreview, args[0])
	},
}

func init() {
	deliverableCmd.AddCommand(deliverableNewCmd)
	deliverableCmd.AddCommand(deliverableEditCmd)
	deliverableCmd.AddCommand(deliverablePreviewCmd)
}

// loadConfig loads and sanity-checks the configuration shared by every
// deliverable subcommand.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	if !config.Exists() && cfg.APIBaseURL == "" {
		return nil, fmt.Errorf("no configuration found\n\nRun 'atelier setup' to create a config file, or set ATELIER_API_BASE_URL")
	}
	if cfg.APIBaseURL == "" {
		return nil, fmt.Errorf("API base URL not configured\n\nSet it via:\n  - atelier setup (creates config file)\n  - ATELIER_API_BASE_URL environment variable")
	}
	if cfg.Project == "" {
		return nil, fmt.Errorf("project not configured\n\nSet it via the config file or ATELIER_PROJECT")
	}
	return cfg, nil
}

func runWizard(mode delwizard.Mode, id string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	client := api.New(cfg.APIBaseURL, cfg.APIToken)

	// The cache is best-effort: a broken local store degrades to direct
	// API calls rather than blocking the wizard.
	var (
		store       *cache.Cache
		invalidator delwizard.Invalidator
	)
	ttl := time.Duration(cfg.CacheTTLMinutes) * time.Minute
	store, err = cache.Open(context.Background(), cfg.DataDir, ttl)
	if err != nil {
		logger.Warn("cache unavailable, using direct API calls: %v", err)
		store = nil
	} else {
		defer func() { _ = store.Close() }()
		invalidator = store
	}
	source := cache.NewTableSource(client, store)

	w := delwizard.New(cfg, client, source, invalidator, mode, id)
	return delwizard.Run(w)
}
