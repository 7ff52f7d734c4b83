package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/nvale/parley"
	"github.com/nvale/parley/pkg/dialogue"
)

var validateCmd = &cobra.Command{
	Use:   "validate <graph.json>",
	Short: "Check a compiled graph for consistency",
	Long:  `Verifies that the start node exists and that every choice target, conditional redirect and next-node link resolves.`,
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		if err := runValidate(args[0]); err != nil {
			fmt.Printf("Validation failed: %v\n", err)
			os.Exit(1)
		}
		fmt.Println("Graph is valid! ✅")
	},
}

func init() {
	rootCmd.AddCommand(validateCmd)
}

func loadGraphFile(path string) (*dialogue.Graph, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	var g dialogue.Graph
	if err := json.Unmarshal(raw, &g); err != nil {
		return nil, fmt.Errorf("decoding %s: %w", path, err)
	}
	return &g, nil
}

func runValidate(path string) error {
	g, err := loadGraphFile(path)
	if err != nil {
		return err
	}
	return parley.Validate(g)
}
