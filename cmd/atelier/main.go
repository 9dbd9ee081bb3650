package main

import (
	"context"
	"os"
	"strings"

	"github.com/charmbracelet/fang"
	"github.com/spf13/cobra"

	"github.com/atelierhq/atelier/internal/logger"
	"github.com/atelierhq/atelier/internal/tui/theme"
)

const (
	logoText1 = "▄▀█ ▀█▀ █▀▀ █   █ █▀▀ █▀█"
	logoText2 = "█▀█  █  ██▄ █▄▄ █ ██▄ █▀▄"
)

// Version set via ldflags during build
var version = "dev"

func main() {
	// Ensure logger is closed on exit
	defer func() { _ = logger.Close() }()

	if err := fang.Execute(context.Background(), rootCmd, fang.WithVersion(version)); err != nil {
		logger.Error("Command execution failed: %v", err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "atelier",
	Short: "Deliverable content builder for client projects",
}

// renderLogo creates the logo with gradient colors
func renderLogo() string {
	t := theme.NewCatppuccinMocha()
	line1 := theme.ApplyGradient(logoText1, t.Primary, t.Secondary)
	line2 := theme.ApplyGradient(logoText2, t.Primary, t.Secondary)
	return strings.Join([]string{line1, line2}, "\n")
}

func init() {
	// Set Long description with logo
	rootCmd.Long = renderLogo() + `

atelier assembles rich deliverable documents for client projects from a
full-screen terminal wizard. Drafts are built from typed content blocks
(text, lists, links, attachments, database items), validated stage by
stage, and submitted to the project API as a single multipart request.
Table lookups are cached locally via embedded NATS JetStream.`

	rootCmd.AddCommand(deliverableCmd)
	rootCmd.AddCommand(setupCmd)
	rootCmd.AddCommand(serveMCPCmd)
}
