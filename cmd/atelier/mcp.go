package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/atelierhq/atelier/internal/draft"
	"github.com/atelierhq/atelier/internal/draftmcp"
	"github.com/atelierhq/atelier/internal/logger"
)

var serveMCPCmd = &cobra.Command{
	Use:   "serve-mcp",
	Short: "Expose a standalone draft over MCP",
	Long: `Expose a standalone deliverable draft over MCP.

Starts a streamable HTTP MCP server on a random loopback port holding an
empty draft. Connected agents can fill in basic details and content
blocks through the set-details, add-field, list-fields, and remove-field
tools. The draft lives only as long as the server process.`,
	RunE: runServeMCP,
}

func runServeMCP(cmd *cobra.Command, args []string) error {
	store := draft.NewStore()
	srv := draftmcp.New(store)

	port, err := srv.Start(cmd.Context())
	if err != nil {
		return fmt.Errorf("failed to start MCP server: %w", err)
	}
	logger.Info("MCP draft server listening on port %d", port)
	fmt.Printf("MCP draft server: %s\n", srv.URL())
	fmt.Println("Press Ctrl+C to stop.")

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, os.Interrupt, syscall.SIGTERM)
	select {
	case <-sig:
	case <-cmd.Context().Done():
	}

	return srv.Stop()
}
