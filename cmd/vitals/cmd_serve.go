package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"vitals/internal/mcp"
	"vitals/internal/server"
)

func newServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the vitals HTTP API",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := requireInitialized(cmd); err != nil {
				return err
			}
			a, err := newApp(cmd)
			if err != nil {
				return err
			}
			defer a.Close()

			addr, _ := cmd.Flags().GetString("addr")
			if addr == "" {
				addr = a.cfg.Server.Addr
			}

			srv := server.New(a.engine, a.metrics, a.logger, version)
			httpServer := &http.Server{
				Addr:    addr,
				Handler: srv,
			}

			done := make(chan os.Signal, 1)
			signal.Notify(done, os.Interrupt, syscall.SIGTERM)
			defer signal.Stop(done)

			errCh := make(chan error, 1)
			go func() {
				fmt.Fprintf(cmd.ErrOrStderr(), "vitals serving on %s\n", addr)
				if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
					errCh <- err
				}
			}()

			select {
			case err := <-errCh:
				return err
			case <-done:
			}
			fmt.Fprintln(cmd.ErrOrStderr(), "shutting down...")

			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			return httpServer.Shutdown(ctx)
		},
	}

	cmd.Flags().String("addr", "", "Listen address (defaults to server.addr from config)")

	return cmd
}

func newMCPServerCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "mcp",
		Short: "Run the MCP server over stdio",
		Long: `Run a Model Context Protocol server on stdin/stdout, exposing the
engine's operations as tools for MCP-capable clients.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := requireInitialized(cmd); err != nil {
				return err
			}
			a, err := newApp(cmd)
			if err != nil {
				return err
			}
			defer a.Close()

			s := mcp.NewServer(a.engine, &mcp.Config{
				Name:    "vitals",
				Version: version,
			})
			return s.Run(cmd.Context())
		},
	}
}
