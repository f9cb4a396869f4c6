package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/hyperengineering/genscript/internal/metrics"
	"github.com/hyperengineering/genscript/internal/snapshot"
	"github.com/hyperengineering/genscript/internal/store"
)

var snapshotOutput string

var snapshotCmd = &cobra.Command{
	Use:   "snapshot",
	Short: "Write a database snapshot now",
	Long:  "Write a consistent copy of the database and upload it when snapshot storage is configured. Prints a download link for uploaded snapshots.",
	Args:  cobra.NoArgs,
	RunE:  runSnapshot,
}

func init() {
	snapshotCmd.Flags().StringVarP(&snapshotOutput, "output", "o", "", "Snapshot path (default from config)")
	snapshotCmd.Flags().BoolVar(&jsonOutput, "json", false, "Output in JSON format")
}

func runSnapshot(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	setupLogger(cfg.Log, os.Stderr)

	path := cfg.Snapshot.Path
	if snapshotOutput != "" {
		path = snapshotOutput
	}

	uploader, err := snapshot.NewUploader(cfg.Snapshot.Storage)
	if err != nil {
		return err
	}

	return withStore(func(s *store.SQLiteStore) error {
		if err := s.GenerateSnapshot(ctx, path); err != nil {
			metrics.ObserveSnapshot(false)
			return err
		}
		if err := uploader.Upload(ctx, path); err != nil {
			metrics.ObserveSnapshot(false)
			return err
		}
		metrics.ObserveSnapshot(true)

		result := map[string]any{"path": path}
		url, expiry, err := uploader.PresignedURL(ctx)
		switch {
		case errors.Is(err, snapshot.ErrNotConfigured):
		case err != nil:
			return err
		default:
			result["url"] = url
			result["expires_at"] = expiry.UTC().Format(time.RFC3339)
		}

		if jsonOutput {
			return printJSON(cmd.OutOrStdout(), result)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Snapshot written to %s\n", path)
		if url, ok := result["url"]; ok {
			fmt.Fprintf(cmd.OutOrStdout(), "Download: %s (expires %s)\n", url, result["expires_at"])
		}
		return nil
	})
}
