package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/hyperengineering/genscript/internal/api"
	"github.com/hyperengineering/genscript/internal/config"
	"github.com/hyperengineering/genscript/internal/snapshot"
	"github.com/hyperengineering/genscript/internal/worker"
)

// Version is set at build time via ldflags: -ldflags "-X main.Version=1.0.0"
var Version = "dev"

var (
	configPathFlag string
	dbPathFlag     string
	jsonOutput     bool
)

var rootCmd = &cobra.Command{
	Use:          "genscript",
	Short:        "genscript - structured idea generation service",
	Long:         "Generate research, business and technical-script ideas through an LLM gateway and keep a deduplicated idea list.",
	SilenceUsage: true,
	RunE:         runServe,
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API and snapshot worker",
	Args:  cobra.NoArgs,
	RunE:  runServe,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPathFlag, "config", "",
		"Config file path (overrides GENSCRIPT_CONFIG_PATH)")
	rootCmd.PersistentFlags().StringVar(&dbPathFlag, "db", "",
		"Database path (overrides config and GENSCRIPT_DB_PATH)")

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(generateCmd)
	rootCmd.AddCommand(parseCmd)
	rootCmd.AddCommand(ideasCmd)
	rootCmd.AddCommand(modesCmd)
	rootCmd.AddCommand(mcpCmd)
	rootCmd.AddCommand(snapshotCmd)
}

// loadConfig loads configuration and applies the persistent flag overrides.
func loadConfig() (*config.Config, error) {
	if configPathFlag != "" {
		os.Setenv("GENSCRIPT_CONFIG_PATH", configPathFlag)
	}
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	if dbPathFlag != "" {
		cfg.Database.Path = dbPathFlag
	}
	return cfg, nil
}

func runServe(cmd *cobra.Command, args []string) error {
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

	setupLogger(cfg.Log, os.Stdout)
	slog.Info("configuration loaded", "level", cfg.Log.Level, "format", cfg.Log.Format)

	db, err := openStore(cfg)
	if err != nil {
		return err
	}
	slog.Info("store initialized", "path", cfg.Database.Path)

	svc, err := newService(cfg, db)
	if err != nil {
		db.Close()
		return err
	}
	slog.Info("gateway initialized", "backend", svc.Backend(), "model", cfg.Gateway.ModelName)

	if cfg.Auth.APIKey == "" {
		slog.Warn("GENSCRIPT_AUTH_KEY not set; mutating routes are unauthenticated")
	}

	handler := api.NewHandler(svc, db, cfg.Auth.APIKey, Version)
	router := api.NewRouter(handler)

	addr := fmt.Sprintf(":%d", cfg.Server.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      router,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout),
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout),
	}

	var snapshotWorker *worker.SnapshotWorker
	if interval := time.Duration(cfg.Snapshot.Interval); interval > 0 {
		uploader, err := snapshot.NewUploader(cfg.Snapshot.Storage)
		if err != nil {
			db.Close()
			return err
		}
		snapshotWorker = worker.NewSnapshotWorker(db, uploader, cfg.Snapshot.Path, interval)
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		slog.Info("server starting", "address", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})

	if snapshotWorker != nil {
		startWorker(gctx, g, "snapshot", snapshotWorker.Run)
	}

	g.Go(func() error {
		<-gctx.Done()
		slog.Info("shutdown initiated")

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(),
			time.Duration(cfg.Server.ShutdownTimeout))
		defer shutdownCancel()

		// Drains in-flight requests
		if err := srv.Shutdown(shutdownCtx); err != nil {
			slog.Error("server shutdown error", "error", err)
		}
		return nil
	})

	err = g.Wait()

	if cerr := db.Close(); cerr != nil {
		slog.Error("store close error", "error", cerr)
	}

	if err != nil {
		slog.Error("server error", "error", err)
		return err
	}
	slog.Info("shutdown complete")
	return nil
}

// startWorker runs fn in the group until ctx is cancelled.
func startWorker(ctx context.Context, g *errgroup.Group, name string, fn func(ctx context.Context)) {
	g.Go(func() error {
		slog.Info("worker started", "worker", name)
		fn(ctx)
		slog.Info("worker stopped", "worker", name)
		return nil
	})
}

// setupLogger installs the default slog logger.
func setupLogger(cfg config.LogConfig, w io.Writer) {
	opts := &slog.HandlerOptions{Level: parseLogLevel(cfg.Level)}
	var h slog.Handler
	if cfg.Format == "text" {
		h = slog.NewTextHandler(w, opts)
	} else {
		h = slog.NewJSONHandler(w, opts)
	}
	slog.SetDefault(slog.New(h))
}

func parseLogLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
