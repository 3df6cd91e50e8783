package mcp

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/mark3labs/mcp-go/server"
)

// ServerName and ServerVersion identify the server to MCP clients.
const (
	ServerName    = "callgraph-mcp"
	ServerVersion = "1.0.0"
)

// Server exposes the call graph query engine over MCP stdio.
type Server struct {
	mcp *server.MCPServer
}

// NewServer creates an MCP server with the callgraph tools registered.
// defaults supplies depths used when a request omits them.
func NewServer(engine QueryEngine, symbols SymbolStore, defaults QueryDefaults) *Server {
	s := server.NewMCPServer(
		ServerName,
		ServerVersion,
		server.WithToolCapabilities(true),
	)

	AddCallgraphQueryTool(s, engine, defaults)
	AddCallgraphSearchTool(s, symbols)
	AddCallgraphStatsTool(s, symbols)

	return &Server{mcp: s}
}

// MCP returns the underlying mcp-go server.
func (s *Server) MCP() *server.MCPServer {
	return s.mcp
}

// Serve starts the MCP server on stdio and blocks until shutdown.
func (s *Server) Serve(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigCh)

	errCh := make(chan error, 1)
	go func() {
		log.Printf("Starting MCP server on stdio...")
		if err := server.ServeStdio(s.mcp); err != nil {
			errCh <- fmt.Errorf("MCP server error: %w", err)
			return
		}
		errCh <- nil
	}()

	select {
	case <-sigCh:
		log.Printf("Received shutdown signal, stopping gracefully...")
		return nil
	case err := <-errCh:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}
