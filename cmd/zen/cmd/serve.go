package cmd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/wrath-codes/zenith/internal/logging"
	"github.com/wrath-codes/zenith/internal/mcp"
)

func newServeCmd(g *globalOptions) *cobra.Command {
	var transport string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the MCP server",
		Long: `Run a Model Context Protocol server exposing search, fts_search,
graph_analyze, graph_path and ref_summary as tools.

stdout carries JSON-RPC, so nothing else is written to it. Logs go to
~/.zenith/logs/zen.log only.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runServe(cmd.Context(), g, transport)
		},
	}

	cmd.Flags().StringVar(&transport, "transport", "", "Transport: stdio (default from config)")

	return cmd
}

func runServe(ctx context.Context, g *globalOptions, transport string) error {
	p, err := loadProject(g)
	if err != nil {
		return err
	}

	level := p.config.Server.LogLevel
	if g.debug {
		level = "debug"
	}
	cleanup, err := logging.SetupServerMode(level, "")
	if err != nil {
		return fmt.Errorf("failed to setup server logging: %w", err)
	}
	defer cleanup()

	if transport == "" {
		transport = p.config.Server.Transport
	}

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	ws, err := openWorkspace(ctx, p)
	if err != nil {
		slog.Error("serve_open_failed", slog.String("error", err.Error()))
		return err
	}
	defer func() { _ = ws.Close() }()

	srv, err := mcp.NewServer(ws.engine, p.config)
	if err != nil {
		return err
	}

	slog.Info("serve_started",
		slog.String("root", p.root),
		slog.String("transport", transport))
	err = srv.Serve(ctx, transport)
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}
