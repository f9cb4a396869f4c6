package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/hyperengineering/genscript/internal/store"
)

var (
	ideasLimit  int
	deleteForce bool
)

var ideasCmd = &cobra.Command{
	Use:   "ideas",
	Short: "Manage saved ideas",
	Long:  "List, inspect and delete saved ideas without running the server.",
}

var ideasListCmd = &cobra.Command{
	Use:   "list",
	Short: "List saved ideas, newest first",
	Args:  cobra.NoArgs,
	RunE:  runIdeasList,
}

var ideasShowCmd = &cobra.Command{
	Use:   "show <idea-id>",
	Short: "Show one idea",
	Args:  cobra.ExactArgs(1),
	RunE:  runIdeasShow,
}

var ideasDeleteCmd = &cobra.Command{
	Use:   "delete <idea-id>",
	Short: "Delete a saved idea",
	Long:  "Permanently delete an idea. Requires --force or interactive confirmation.",
	Args:  cobra.ExactArgs(1),
	RunE:  runIdeasDelete,
}

func init() {
	ideasCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "Output in JSON format")
	ideasListCmd.Flags().IntVar(&ideasLimit, "limit", 0, "Maximum number of ideas (0 for all)")
	ideasDeleteCmd.Flags().BoolVar(&deleteForce, "force", false, "Skip confirmation prompt")

	ideasCmd.AddCommand(ideasListCmd)
	ideasCmd.AddCommand(ideasShowCmd)
	ideasCmd.AddCommand(ideasDeleteCmd)
}

// withStore opens the configured database for a CLI command.
func withStore(fn func(s *store.SQLiteStore) error) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	setupLogger(cfg.Log, os.Stderr)

	db, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer db.Close()
	return fn(db)
}

func runIdeasList(cmd *cobra.Command, args []string) error {
	return withStore(func(s *store.SQLiteStore) error {
		ideas, err := s.ListIdeas(context.Background())
		if err != nil {
			return fmt.Errorf("list ideas: %w", err)
		}
		total := len(ideas)
		if ideasLimit > 0 && len(ideas) > ideasLimit {
			ideas = ideas[:ideasLimit]
		}

		if jsonOutput {
			return printJSON(cmd.OutOrStdout(), map[string]any{
				"ideas": ideas,
				"total": total,
			})
		}

		out := cmd.OutOrStdout()
		if len(ideas) == 0 {
			fmt.Fprintln(out, "No ideas saved.")
			return nil
		}

		w := newTabWriter(out)
		fmt.Fprintln(w, "ID\tCATEGORY\tTITLE\tCREATED")
		for _, idea := range ideas {
			created := "-"
			if idea.CreatedAt != nil {
				created = idea.CreatedAt.Local().Format("2006-01-02 15:04")
			}
			category := idea.Category
			if category == "" {
				category = "-"
			}
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", idea.ID, category, truncate(idea.Title, 60), created)
		}
		w.Flush()
		return nil
	})
}

func runIdeasShow(cmd *cobra.Command, args []string) error {
	return withStore(func(s *store.SQLiteStore) error {
		idea, err := s.GetIdea(context.Background(), args[0])
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return fmt.Errorf("idea %q not found", args[0])
			}
			return err
		}

		if jsonOutput {
			return printJSON(cmd.OutOrStdout(), idea)
		}

		w := newTabWriter(cmd.OutOrStdout())
		row := func(label, value string) {
			if value != "" {
				fmt.Fprintf(w, "%s:\t%s\n", label, value)
			}
		}
		row("ID", idea.ID)
		row("Title", idea.Title)
		row("Category", idea.Category)
		row("Description", idea.Description)
		row("Money value", idea.MoneyValue)
		row("Effort value", idea.EffortValue)
		row("Monetization", idea.MonetizationStrategies)
		row("Refined prompt", idea.RefinedPrompt)
		if idea.CreatedAt != nil {
			row("Created", idea.CreatedAt.Local().Format("2006-01-02 15:04:05"))
		}
		w.Flush()
		return nil
	})
}

func runIdeasDelete(cmd *cobra.Command, args []string) error {
	id := args[0]
	return withStore(func(s *store.SQLiteStore) error {
		ctx := context.Background()

		idea, err := s.GetIdea(ctx, id)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return fmt.Errorf("idea %q not found", id)
			}
			return err
		}

		if !deleteForce {
			errOut := cmd.ErrOrStderr()
			fmt.Fprintf(errOut, "Delete idea %q (%s)? Type the idea ID to confirm: ", idea.Title, id)

			input, err := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
			if err != nil {
				return fmt.Errorf("failed to read confirmation: %w", err)
			}
			if strings.TrimSpace(input) != id {
				fmt.Fprintln(errOut, "Aborted. Idea ID did not match.")
				return nil
			}
		}

		if err := s.DeleteIdea(ctx, id); err != nil {
			return err
		}

		if jsonOutput {
			return printJSON(cmd.OutOrStdout(), map[string]any{"id": id, "deleted": true})
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Deleted idea %q\n", id)
		return nil
	})
}
