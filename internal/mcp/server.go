// Package mcp provides an MCP (Model Context Protocol) server for vitals.
// Agents get the engine's tools over stdio: read pressures and gates, apply
// perturbations, run cycles, and log outcomes. The server is a host in the
// engine's concurrency model and serializes every engine call behind one
// mutex.
package mcp

import (
	"context"
	"os"
	"os/signal"
	"sync"
	"syscall"

	sdk "github.com/modelcontextprotocol/go-sdk/mcp"

	"vitals/internal/engine"
)

// Server wraps the MCP SDK server around a vitals engine.
type Server struct {
	server *sdk.Server
	engine *engine.Engine
	mu     sync.Mutex
}

// Config holds server configuration.
type Config struct {
	Name    string // Server name (e.g., "vitals")
	Version string // Server version
}

// NewServer creates an MCP server exposing the engine's tools.
func NewServer(e *engine.Engine, cfg *Config) *Server {
	mcpServer := sdk.NewServer(&sdk.Implementation{
		Name:    cfg.Name,
		Version: cfg.Version,
	}, nil)

	s := &Server{
		server: mcpServer,
		engine: e,
	}
	s.registerTools()
	s.registerResources()
	return s
}

// Run starts the MCP server over stdio transport. This blocks until the
// client disconnects or the context is cancelled.
func (s *Server) Run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigChan)

	go func() {
		<-sigChan
		cancel()
	}()

	return s.server.Run(ctx, &sdk.StdioTransport{})
}
