package main

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/nvale/parley"
	"github.com/nvale/parley/internal/logging"
)

var compileCmd = &cobra.Command{
	Use:   "compile <story> [output]",
	Short: "Compile narrative markup into a dialogue graph",
	Long: `Reads a story written in narrative markup and writes the compiled dialogue
graph as JSON. The output path defaults to the input path with its extension
swapped for .json.`,
	Args: cobra.RangeArgs(1, 2),
	Run: func(cmd *cobra.Command, args []string) {
		narrator, _ := cmd.Flags().GetString("narrator")
		start, _ := cmd.Flags().GetString("start")
		strict, _ := cmd.Flags().GetBool("strict")

		if err := runCompile(args, narrator, start, strict); err != nil {
			fmt.Fprintf(os.Stderr, "Compilation failed: %v\n", err)
			os.Exit(1)
		}
	},
}

func init() {
	rootCmd.AddCommand(compileCmd)
	compileCmd.Flags().String("narrator", "", "Speaker name treated as narrative voice")
	compileCmd.Flags().String("start", "", "Fallback start passage when the story metadata names none")
	compileCmd.Flags().Bool("strict", false, "Fail instead of warning when the compiled graph is invalid")
}

func runCompile(args []string, narrator, start string, strict bool) error {
	input := args[0]
	output := swapExtension(input, ".json")
	if len(args) > 1 {
		output = args[1]
	}

	source, err := os.ReadFile(input)
	if err != nil {
		return fmt.Errorf("reading %s: %w", input, err)
	}

	opts := []parley.CompileOption{parley.WithCompileLogger(logging.New(slog.LevelWarn))}
	if narrator != "" {
		opts = append(opts, parley.WithNarrator(narrator))
	}
	if start != "" {
		opts = append(opts, parley.WithDefaultStart(start))
	}

	graph, stats := parley.Compile(string(source), opts...)

	// An invalid graph is still written out so authors can iterate on a
	// half-finished story; validation gates again at serve time.
	validationErr := parley.Validate(graph)
	if validationErr != nil && strict {
		return fmt.Errorf("compiled graph is invalid: %w", validationErr)
	}

	raw, err := json.MarshalIndent(graph, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding graph: %w", err)
	}
	if err := os.WriteFile(output, raw, 0o644); err != nil {
		return fmt.Errorf("writing %s: %w", output, err)
	}

	fmt.Printf("Compiled %s -> %s\n", input, output)
	fmt.Printf("  %d passages, %d nodes, %d variables\n", stats.Passages, stats.Nodes, stats.Variables)
	for _, w := range stats.Warnings {
		fmt.Printf("  warning: %s\n", w)
	}
	if validationErr != nil {
		fmt.Printf("  warning: graph is invalid: %v\n", validationErr)
	}
	return nil
}

func swapExtension(path, ext string) string {
	if i := strings.LastIndex(path, "."); i > strings.LastIndex(path, "/") {
		return path[:i] + ext
	}
	return path + ext
}
