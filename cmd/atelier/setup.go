package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/atelierhq/atelier/internal/config"
)

var setupFlags struct {
	project bool
	force   bool
}

var setupCmd = &cobra.Command{
	Use:   "setup",
	Short: "Create atelier configuration file",
	Long: `Create an atelier configuration file with sensible defaults.

By default, creates a global config at ~/.config/atelier/atelier.yml.
Use --project to create a project-local config in the current directory.`,
	RunE: runSetup,
}

func init() {
	setupCmd.Flags().BoolVarP(&setupFlags.project, "project", "p", false, "Create config in current directory instead of global location")
	setupCmd.Flags().BoolVarP(&setupFlags.force, "force", "f", false, "Overwrite existing config file")
}

func runSetup(cmd *cobra.Command, args []string) error {
	targetPath := config.GlobalPath()
	if setupFlags.project {
		targetPath = config.ProjectPath()
	}

	if !setupFlags.force && fileExists(targetPath) {
		return fmt.Errorf("config file already exists at %s\n\nUse --force to overwrite", targetPath)
	}

	cfg := &config.Config{
		APIBaseURL:       "",
		APIToken:         "",
		Project:          "",
		DataDir:          ".atelier",
		LogLevel:         "info",
		LogFile:          "",
		MaxAttachments:   5,
		MaxAttachmentMB:  25,
		AllowedMIMETypes: config.DefaultAllowedMIMETypes,
		CacheTTLMinutes:  15,
	}

	var err error
	if setupFlags.project {
		err = config.WriteProject(cfg)
	} else {
		err = config.WriteGlobal(cfg)
	}
	if err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}

	fmt.Printf("Config written to: %s\n\n", targetPath)
	fmt.Println("Fill in api_base_url and project, then run 'atelier deliverable new'.")

	return nil
}

// fileExists checks if a file exists (helper for setup command).
func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
