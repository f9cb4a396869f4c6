package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/hyperengineering/genscript/internal/prompt"
	"github.com/hyperengineering/genscript/internal/types"
)

var modesCmd = &cobra.Command{
	Use:   "modes",
	Short: "List generation modes",
	Args:  cobra.NoArgs,
	RunE:  runModes,
}

func init() {
	modesCmd.Flags().BoolVar(&jsonOutput, "json", false, "Output in JSON format")
}

func runModes(cmd *cobra.Command, args []string) error {
	profiles := prompt.Profiles()
	modes := make([]types.ModeInfo, 0, len(profiles))
	for _, p := range profiles {
		modes = append(modes, p.Info())
	}

	if jsonOutput {
		return printJSON(cmd.OutOrStdout(), map[string]any{"modes": modes})
	}

	w := newTabWriter(cmd.OutOrStdout())
	fmt.Fprintln(w, "MODE\tLABEL\tFIELDS")
	for _, m := range modes {
		fmt.Fprintf(w, "%s\t%s\t%s\n", m.Mode, m.Label, strings.Join(m.Fields, ", "))
	}
	w.Flush()
	return nil
}
