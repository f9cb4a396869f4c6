package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/hyperengineering/genscript/internal/parser"
	"github.com/hyperengineering/genscript/internal/types"
)

var (
	parseMode string
	parseFile string
)

var parseCmd = &cobra.Command{
	Use:   "parse",
	Short: "Parse raw model output into ideas",
	Long:  "Run the parser on text read from --file or stdin. No gateway or database is used.",
	Args:  cobra.NoArgs,
	RunE:  runParse,
}

func init() {
	parseCmd.Flags().StringVarP(&parseMode, "mode", "m", string(types.ModeResearch),
		"Generation mode the text was produced for")
	parseCmd.Flags().StringVarP(&parseFile, "file", "f", "", "Read input from file instead of stdin")
	parseCmd.Flags().BoolVar(&jsonOutput, "json", false, "Output in JSON format")
}

func runParse(cmd *cobra.Command, args []string) error {
	mode, err := types.ParseMode(parseMode)
	if err != nil {
		return err
	}

	var raw []byte
	if parseFile != "" {
		raw, err = os.ReadFile(parseFile)
	} else {
		raw, err = io.ReadAll(cmd.InOrStdin())
	}
	if err != nil {
		return fmt.Errorf("read input: %w", err)
	}

	res := parser.New().ParseDetailed(string(raw), mode)

	if jsonOutput {
		return printJSON(cmd.OutOrStdout(), map[string]any{
			"mode":     mode,
			"strategy": res.Strategy,
			"ideas":    res.Ideas,
		})
	}

	out := cmd.OutOrStdout()
	if len(res.Ideas) == 0 {
		fmt.Fprintf(out, "No ideas found (strategy: %s)\n", res.Strategy)
		return nil
	}
	printIdeaTable(out, res.Ideas)
	fmt.Fprintf(out, "\n%d ideas (strategy: %s)\n", len(res.Ideas), res.Strategy)
	return nil
}
