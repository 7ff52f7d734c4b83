package main

import (
	"bufio"
	"context"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/nvale/parley/internal/logging"
	"github.com/nvale/parley/internal/presentation/tui"
	"github.com/nvale/parley/internal/runtime"
	"github.com/nvale/parley/internal/store"
	"github.com/nvale/parley/pkg/dialogue"
	"github.com/nvale/parley/pkg/pacing"
)

var playCmd = &cobra.Command{
	Use:   "play <graph.json>",
	Short: "Play a compiled dialogue in the terminal",
	Long:  `Runs a compiled dialogue graph locally, pacing messages the way the chat server would and prompting for choices on stdin.`,
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		name, _ := cmd.Flags().GetString("name")
		instant, _ := cmd.Flags().GetBool("instant")

		if err := runPlay(args[0], name, instant); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
	},
}

func init() {
	rootCmd.AddCommand(playCmd)
	playCmd.Flags().String("name", "you", "Display name for your choices")
	playCmd.Flags().Bool("instant", false, "Skip message pacing delays")
}

// consoleCaster prints runtime output to the terminal. Awaiting snapshots and
// the end event are handed to the prompt loop over channels so no stdin read
// happens inside a broadcast.
type consoleCaster struct {
	render func(string) (string, error)
	syncs  chan runtime.Snapshot
	done   chan runtime.Event
}

func (c *consoleCaster) Message(room string, msg runtime.ChatMessage) {
	switch msg.Type {
	case dialogue.MessageNarrator:
		out, err := c.render(msg.Text)
		if err != nil {
			out = msg.Text + "\n"
		}
		fmt.Printf("%s:%s", msg.Sender, out)
	case dialogue.MessageSystem:
		if msg.Speaker != "" {
			fmt.Printf("%s: %s\n", msg.Speaker, msg.Text)
		} else {
			fmt.Printf("* %s *\n", msg.Text)
		}
	case dialogue.MessageImage:
		fmt.Printf("[image: %s] %s\n", msg.Alt, msg.URL)
	case runtime.MessageChat:
		fmt.Printf("%s: %s\n", msg.Sender, msg.Text)
	}
}

func (c *consoleCaster) Sync(room string, snap runtime.Snapshot) {
	if snap.NodeData != nil && len(snap.NodeData.Choices) > 0 {
		c.syncs <- snap
	}
}

func (c *consoleCaster) Event(room string, ev runtime.Event) {
	switch ev.Type {
	case runtime.EventEnd:
		c.done <- ev
	case runtime.EventError:
		fmt.Fprintf(os.Stderr, "dialogue error: %s\n", ev.Message)
		c.done <- ev
	}
}

func runPlay(path, name string, instant bool) error {
	g, err := loadGraphFile(path)
	if err != nil {
		return err
	}

	tui.PrintBanner()
	if g.Metadata.Title != "" {
		fmt.Printf("  %s\n\n", g.Metadata.Title)
	}

	render := tui.NewRenderer()
	cast := &consoleCaster{
		render: render,
		syncs:  make(chan runtime.Snapshot, 1),
		done:   make(chan runtime.Event, 1),
	}

	graphs := store.NewMemoryStore()
	if err := graphs.Put("story", g); err != nil {
		return err
	}

	cfg := pacing.DefaultConfig()
	if instant {
		cfg.Mode = pacing.ModeInstant
	}

	mgr := runtime.NewManager(graphs, cast,
		runtime.WithLogger(logging.New(slog.LevelWarn)),
		runtime.WithPacing(cfg),
	)

	const room = "local"
	mgr.Start(context.Background(), room, "story")

	stdin := bufio.NewScanner(os.Stdin)
	for {
		select {
		case ev := <-cast.done:
			if ev.Type == runtime.EventError {
				return fmt.Errorf("dialogue aborted")
			}
			fmt.Println("\nThe end.")
			return nil

		case snap := <-cast.syncs:
			choice, quit := promptChoice(stdin, snap)
			if quit {
				mgr.EndManual(room)
				return nil
			}
			mgr.Choose(room, choice, name)
		}
	}
}

// promptChoice lists the snapshot's available choices and reads a selection.
// The second return is true when the player quits.
func promptChoice(stdin *bufio.Scanner, snap runtime.Snapshot) (string, bool) {
	open := make([]dialogue.Choice, 0, len(snap.NodeData.Choices))
	for _, ch := range snap.NodeData.Choices {
		if ch.Conditions.Evaluate(snap.Variables) {
			open = append(open, ch)
		}
	}

	fmt.Println()
	for i, ch := range open {
		fmt.Printf("  %d) %s\n", i+1, ch.DisplayText)
	}

	for {
		fmt.Print("> ")
		if !stdin.Scan() {
			return "", true
		}
		input := strings.TrimSpace(stdin.Text())
		if input == "q" || input == "quit" {
			return "", true
		}
		n, err := strconv.Atoi(input)
		if err != nil || n < 1 || n > len(open) {
			fmt.Printf("Pick a number between 1 and %d, or q to quit.\n", len(open))
			continue
		}
		return open[n-1].ID, false
	}
}
