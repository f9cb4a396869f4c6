package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/mark3labs/mcp-go/server"
	"github.com/spf13/cobra"

	"github.com/hyperengineering/genscript/internal/mcpserver"
)

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Run the MCP server on stdio",
	Long:  "Serve the generate_ideas, list_ideas and list_modes tools over the Model Context Protocol on stdin/stdout.",
	Args:  cobra.NoArgs,
	RunE:  runMCP,
}

func runMCP(cmd *cobra.Command, args []string) error {
	ctx, cancel := signal.NotifyContext(context.Background(),
		syscall.SIGTERM, syscall.SIGINT)
	defer cancel()

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if err := cfg.ValidateGateway(); err != nil {
		return err
	}
	// stdout carries the protocol
	setupLogger(cfg.Log, os.Stderr)

	db, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer db.Close()

	svc, err := newService(cfg, db)
	if err != nil {
		return err
	}

	s := mcpserver.New(mcpserver.Deps{
		Generator: svc,
		Ideas:     db,
		Version:   Version,
	})

	slog.Info("mcp server starting", "component", "mcp", "backend", svc.Backend())
	if err := server.NewStdioServer(s).Listen(ctx, os.Stdin, os.Stdout); err != nil && ctx.Err() == nil {
		return err
	}
	slog.Info("mcp server stopped", "component", "mcp")
	return nil
}
