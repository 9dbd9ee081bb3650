// Package draftmcp exposes draft assembly over MCP so external agents can
// build up a deliverable draft that the wizard then opens for review.
package draftmcp

import (
	"context"
	"fmt"
	"net"
	"sync"
	"time"

	"github.com/mark3labs/mcp-go/server"

	"github.com/atelierhq/atelier/internal/draft"
	"github.com/atelierhq/atelier/internal/logger"
)

// Server hosts the draft MCP tools over streamable HTTP. Tool handlers run
// on HTTP goroutines, so all store access is serialized through mu.
type Server struct {
	mcpServer  *server.MCPServer
	httpServer *server.StreamableHTTPServer
	port       int
	mu         sync.Mutex

	store *draft.Store
}

// New creates a server over the given draft store. The server does not
// listen until Start is called.
func New(store *draft.Store) *Server {
	return &Server{store: store}
}

// Store returns the draft store the tools mutate.
func (s *Server) Store() *draft.Store {
	return s.store
}

// Start serves MCP on a random loopback port and returns the port.
func (s *Server) Start(ctx context.Context) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.httpServer != nil {
		return 0, fmt.Errorf("server already started")
	}

	s.mcpServer = server.NewMCPServer(
		"atelier-draft",
		"1.0.0",
		server.WithToolCapabilities(true),
	)
	s.registerTools()

	listener, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		return 0, fmt.Errorf("failed to find available port: %w", err)
	}
	s.port = listener.Addr().(*net.TCPAddr).Port
	// Small race window between releasing the probe listener and the HTTP
	// server binding the port; acceptable for a local tool.
	_ = listener.Close()

	s.httpServer = server.NewStreamableHTTPServer(
		s.mcpServer,
		server.WithStateLess(true),
	)

	addr := fmt.Sprintf("127.0.0.1:%d", s.port)
	httpServer := s.httpServer
	errCh := make(chan error, 1)
	go func() {
		if err := httpServer.Start(addr); err != nil {
			logger.Error("draft MCP server error: %v", err)
			errCh <- err
			return
		}
		errCh <- nil
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return 0, fmt.Errorf("failed to start HTTP server: %w", err)
		}
	case <-time.After(100 * time.Millisecond):
		// No immediate error, the server is up.
	}

	logger.Debug("draft MCP server ready on port %d", s.port)
	return s.port, nil
}

// Stop shuts the HTTP server down.
func (s *Server) Stop() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.httpServer == nil {
		return nil
	}
	if err := s.httpServer.Shutdown(context.Background()); err != nil {
		logger.Warn("error stopping draft MCP server: %v", err)
		return fmt.Errorf("failed to stop server: %w", err)
	}
	s.httpServer = nil
	s.mcpServer = nil
	return nil
}

// URL returns the MCP endpoint URL.
func (s *Server) URL() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return fmt.Sprintf("http://localhost:%d/mcp", s.port)
}
