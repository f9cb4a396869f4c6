package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/hyperengineering/genscript/internal/generator"
	"github.com/hyperengineering/genscript/internal/store"
	"github.com/hyperengineering/genscript/internal/types"
)

var (
	generateTopic string
	generateMode  string
	generateCount int
	generateSave  bool
)

var generateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Generate ideas for a topic",
	Long:  "Run the generation pipeline once: build the prompt, call the gateway and parse the reply. With --save, new ideas are stored.",
	Args:  cobra.NoArgs,
	RunE:  runGenerate,
}

func init() {
	generateCmd.Flags().StringVarP(&generateTopic, "topic", "t", "", "Topic to generate ideas about (required)")
	generateCmd.Flags().StringVarP(&generateMode, "mode", "m", string(types.ModeResearch),
		"Generation mode: research, business or technical-script")
	generateCmd.Flags().IntVarP(&generateCount, "count", "n", 0, "Number of ideas (default from config)")
	generateCmd.Flags().BoolVar(&generateSave, "save", false, "Save new ideas to the database")
	generateCmd.Flags().BoolVar(&jsonOutput, "json", false, "Output in JSON format")
	generateCmd.MarkFlagRequired("topic")
}

func runGenerate(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if err := cfg.ValidateGateway(); err != nil {
		return err
	}
	setupLogger(cfg.Log, os.Stderr)

	var s store.Store
	if generateSave {
		db, err := openStore(cfg)
		if err != nil {
			return err
		}
		defer db.Close()
		s = db
	}

	svc, err := newService(cfg, s)
	if err != nil {
		return err
	}

	res, err := svc.Generate(ctx, generator.Request{
		Topic: generateTopic,
		Mode:  generateMode,
		Count: generateCount,
		Save:  generateSave,
	})
	if err != nil {
		return err
	}

	if jsonOutput {
		return printJSON(cmd.OutOrStdout(), res.Response())
	}

	out := cmd.OutOrStdout()
	if res.Empty() {
		fmt.Fprintln(out, generator.EmptyMessage)
		return nil
	}

	printIdeaTable(out, res.Ideas)
	fmt.Fprintf(out, "\n%d ideas (%s, parsed by %s)\n", len(res.Ideas), res.Mode, res.Strategy)

	if generateSave {
		if res.PersistError != nil {
			return errors.Join(errors.New("ideas generated but not saved"), res.PersistError)
		}
		fmt.Fprintf(out, "Saved %d new ideas, skipped %d duplicates\n", len(res.Saved), res.DuplicatesCount)
	}
	return nil
}

func printIdeaTable(out io.Writer, ideas []types.Idea) {
	w := newTabWriter(out)
	fmt.Fprintln(w, "#\tCATEGORY\tTITLE\tDESCRIPTION")
	for i, idea := range ideas {
		category := idea.Category
		if category == "" {
			category = "-"
		}
		desc := strings.Join(strings.Fields(idea.Description), " ")
		fmt.Fprintf(w, "%d\t%s\t%s\t%s\n", i+1, category, truncate(idea.Title, 60), truncate(desc, 80))
	}
	w.Flush()
}
