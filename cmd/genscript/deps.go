package main

import (
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/hyperengineering/genscript/internal/config"
	"github.com/hyperengineering/genscript/internal/gateway"
	"github.com/hyperengineering/genscript/internal/generator"
	"github.com/hyperengineering/genscript/internal/store"
)

func openStore(cfg *config.Config) (*store.SQLiteStore, error) {
	db, err := store.NewSQLiteStore(cfg.Database.Path)
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}
	return db, nil
}

// newGateway builds the configured LLM backend.
func newGateway(cfg config.GatewayConfig) (gateway.Generator, error) {
	opts := gateway.Options{
		ModelName:         cfg.ModelName,
		Temperature:       cfg.Temperature,
		TopP:              cfg.TopP,
		MaxOutputTokens:   cfg.MaxOutputTokens,
		SystemInstruction: cfg.SystemInstruction,
		UserMetadata:      cfg.UserMetadata,
	}
	switch cfg.Backend {
	case config.BackendHTTP:
		return gateway.NewHTTPClient(cfg.Endpoint, cfg.APIKey, opts, time.Duration(cfg.Timeout)), nil
	case config.BackendOpenAI:
		return gateway.NewOpenAI(cfg.APIKey, cfg.BaseURL, opts), nil
	}
	return nil, fmt.Errorf("unknown gateway backend %q", cfg.Backend)
}

// newService wires the generation pipeline. s may be nil.
func newService(cfg *config.Config, s store.Store) (*generator.Service, error) {
	gw, err := newGateway(cfg.Gateway)
	if err != nil {
		return nil, err
	}
	return generator.New(gw, s, generator.Config{
		DefaultCount: cfg.Generation.DefaultCount,
		MaxCount:     cfg.Generation.MaxCount,
	}), nil
}

// printJSON marshals v to JSON and writes to the given writer.
func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// newTabWriter returns a configured tabwriter for aligned columns.
func newTabWriter(w io.Writer) *tabwriter.Writer {
	return tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
}

// truncate shortens s to n runes for table output.
func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}
