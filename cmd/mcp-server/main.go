// Package main provides the MCP server entry point for the PDF index.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/bull/pdfindex/internal/app"
	"github.com/bull/pdfindex/internal/config"
	"github.com/bull/pdfindex/internal/logger"
	mcpserver "github.com/bull/pdfindex/internal/mcp"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func run() error {
	// Create context that cancels on SIGTERM/SIGINT
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
	defer cancel()

	cfg, err := config.Load()
	if err != nil {
		return err
	}

	// Stdout carries the stdio transport, so logs go to stderr.
	log, err := logger.New(cfg.LogLevel, cfg.LogFormat, os.Stderr)
	if err != nil {
		return err
	}

	a, err := app.New(ctx, cfg, log)
	if err != nil {
		return fmt.Errorf("failed to initialise: %w", err)
	}
	defer a.Close()

	server := mcpserver.NewServer(&mcpserver.Config{
		Search: a.Search,
		Index:  a.Store,
	})
	mux := mcpserver.NewMux(server, a.Store, nil)
	addr := fmt.Sprintf("0.0.0.0:%d", cfg.Port)

	if cfg.ServerMode {
		// HTTP mode: serve MCP over HTTP for remote clients
		return serveHTTP(ctx, log, addr, mux)
	}

	// Stdio mode: health endpoint in the background for local testing
	go func() {
		if err := serveHTTP(ctx, log, addr, mux); err != nil {
			log.Warn("Health server error", "error", err)
		}
	}()

	log.Info("Starting PDF index MCP server (stdio mode)",
		"store", a.Store.Backend(), "collection", a.Store.CollectionName())
	return server.Run(ctx)
}

// serveHTTP runs the HTTP server until ctx is cancelled.
func serveHTTP(ctx context.Context, log *slog.Logger, addr string, handler http.Handler) error {
	srv := &http.Server{Addr: addr, Handler: handler}

	go func() {
		<-ctx.Done()
		srv.Close()
	}()

	log.Info("Starting HTTP server", "addr", addr, "mcp", "/mcp", "health", "/health")
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("HTTP server error: %w", err)
	}
	return nil
}
