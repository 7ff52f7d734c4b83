// Package compiler turns passage-based narrative markup into a dialogue
// graph. Compilation is pure text-in, graph-out; it has no runtime
// dependency and never fails, since malformed authoring degrades to warnings.
package compiler

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"regexp"
	"sort"
	"strings"

	"github.com/nvale/parley/internal/logging"
	"github.com/nvale/parley/pkg/dialogue"
)

const (
	// DefaultNarrator is the designated narrator whose lines become
	// narrator messages instead of system messages.
	DefaultNarrator = "Liz"
	// DefaultStartPassage is used when no story metadata names an entry.
	DefaultStartPassage = "start"

	passageStoryData    = "StoryData"
	passageStoryTitle   = "StoryTitle"
	passageScriptPrefix = "StoryScript"

	defaultTitle = "Untitled Story"
	graphVersion = "1.0.0"
)

// Stats summarizes one compile run for diagnostics.
type Stats struct {
	Passages  int
	Nodes     int
	Variables []string
	Warnings  []string
}

// Compiler converts markup documents into dialogue graphs.
type Compiler struct {
	narrator     string
	defaultStart string
	logger       *slog.Logger
}

// Option configures a Compiler.
type Option func(*Compiler)

// WithNarrator sets the designated narrator name (default "Liz").
func WithNarrator(name string) Option {
	return func(c *Compiler) { c.narrator = name }
}

// WithDefaultStart sets the fallback start passage name used when the story
// metadata is absent or unreadable.
func WithDefaultStart(name string) Option {
	return func(c *Compiler) { c.defaultStart = name }
}

// WithLogger sets a structured logger for compile warnings.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Compiler) { c.logger = logger }
}

// New creates a Compiler.
func New(opts ...Option) *Compiler {
	c := &Compiler{
		narrator:     DefaultNarrator,
		defaultStart: DefaultStartPassage,
		logger:       logging.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// compilation is the per-run state: discovered variables, warning log, and
// the narrator-detection regexes derived from the configured name.
type compilation struct {
	narrator string
	vars     map[string]struct{}
	warnings []string

	reNarratorHead *regexp.Regexp
	reNarratorSays *regexp.Regexp
	reNarratorCut  *regexp.Regexp
	reNarratorTag  *regexp.Regexp
	reNarratorSelf *regexp.Regexp
	reYouSelf      *regexp.Regexp
}

func (c *Compiler) newCompilation() *compilation {
	n := regexp.QuoteMeta(c.narrator)
	return &compilation{
		narrator:       c.narrator,
		vars:           make(map[string]struct{}),
		reNarratorHead: regexp.MustCompile(`(?i)^` + n + `\s*:`),
		reNarratorSays: regexp.MustCompile(`(?i)^` + n + `\s+.*says:`),
		reNarratorCut:  regexp.MustCompile(`(?i)^` + n + `(\s+.*?)?says:\s*`),
		reNarratorTag:  regexp.MustCompile(`(?i)^` + n + `:\s*`),
		reNarratorSelf: regexp.MustCompile(`(?i)^` + n + `\b`),
		reYouSelf:      regexp.MustCompile(`(?i)^You\b`),
	}
}

func (c *compilation) discover(name string) {
	c.vars[name] = struct{}{}
}

func (c *compilation) warnf(format string, args ...any) {
	c.warnings = append(c.warnings, fmt.Sprintf(format, args...))
}

// parsed is the result of compiling one passage's content.
type parsed struct {
	messages  []dialogue.Message
	choices   []rawChoice
	redirects []dialogue.Condition
	nextNode  string
}

// Compile converts a markup document into a validated-shape dialogue graph
// and compile diagnostics. It is total: any input yields some graph.
func (c *Compiler) Compile(source string) (*dialogue.Graph, *Stats) {
	comp := c.newCompilation()
	passages := splitPassages(source)

	graph := &dialogue.Graph{
		Metadata: dialogue.Metadata{
			Title:     defaultTitle,
			Version:   graphVersion,
			StartNode: slugify(c.defaultStart),
		},
		Variables: map[string]any{},
		Nodes:     map[string]*dialogue.Node{},
	}

	var story []passage
	for _, p := range passages {
		switch {
		case p.Name == passageStoryData:
			c.readStoryData(p, graph, comp)
		case p.Name == passageStoryTitle:
			graph.Metadata.Title = strings.TrimSpace(p.Content)
		case strings.HasPrefix(p.Name, passageScriptPrefix):
			// Embedded script/styling never becomes a node.
		default:
			story = append(story, p)
		}
	}

	for _, p := range story {
		node := c.buildNode(p, comp)
		graph.Nodes[node.ID] = node
	}

	for name := range comp.vars {
		if _, declared := graph.Variables[name]; !declared {
			graph.Variables[name] = float64(0)
		}
	}

	stats := &Stats{
		Passages:  len(passages),
		Nodes:     len(graph.Nodes),
		Variables: sortedKeys(comp.vars),
		Warnings:  comp.warnings,
	}
	return graph, stats
}

// readStoryData applies the embedded metadata object. Malformed metadata is
// non-fatal: the compile falls back to the default start with a warning.
func (c *Compiler) readStoryData(p passage, graph *dialogue.Graph, comp *compilation) {
	var data struct {
		Start string `json:"start"`
	}
	if err := json.Unmarshal([]byte(strings.TrimSpace(p.Content)), &data); err != nil {
		comp.warnf("could not parse StoryData (%v); using default start %q", err, c.defaultStart)
		c.logger.Warn("could not parse StoryData, using default start",
			"err", err, "start", c.defaultStart)
		return
	}
	if data.Start != "" {
		graph.Metadata.StartNode = slugify(data.Start)
	}
}

// buildNode assembles one passage into a graph node: macro extraction in
// strict precedence order, line classification for the message sequence,
// then id/type/choice-id assignment.
func (c *Compiler) buildNode(p passage, comp *compilation) *dialogue.Node {
	parsed := c.parsePassage(p, comp)
	nodeID := slugify(p.Name)

	node := &dialogue.Node{
		ID:      nodeID,
		Type:    dialogue.NodeNarrative,
		Choices: make([]dialogue.Choice, 0, len(parsed.choices)),
	}
	if len(parsed.choices) == 0 && parsed.nextNode == "" && len(parsed.redirects) == 0 {
		node.Type = dialogue.NodeEnding
	}

	node.MessageSequence = make([]dialogue.Message, 0, len(parsed.messages))
	for _, msg := range parsed.messages {
		if msg.Content != "" {
			msg.Content = formatInline(msg.Content)
		}
		node.MessageSequence = append(node.MessageSequence, msg)
	}

	for i, raw := range parsed.choices {
		choice := dialogue.Choice{
			ID:          fmt.Sprintf("%s_choice_%d", nodeID, i+1),
			DisplayText: formatInline(cleanDisplayText(raw.text)),
			NextNode:    slugify(raw.destination),
			Effects:     raw.effects,
			Conditions:  raw.condition,
		}
		if raw.playerDialogue {
			echo := formatInline(raw.text)
			choice.Text = &echo
		}
		node.Choices = append(node.Choices, choice)
	}

	for _, redirect := range parsed.redirects {
		redirect.NextNode = slugify(redirect.NextNode)
		node.Conditions = append(node.Conditions, redirect)
	}

	if parsed.nextNode != "" && len(parsed.choices) == 0 {
		node.NextNode = slugify(parsed.nextNode)
	}
	return node
}

// parsePassage runs extraction and classification on one passage's content.
func (c *Compiler) parsePassage(p passage, comp *compilation) parsed {
	var handled spanSet

	redirects := comp.extractRedirects(p.Content, &handled)
	choices := comp.extractLinkMacros(p.Content, &handled)

	// Extraction is all-or-nothing per node: conditional choice blocks are
	// only consulted when neither a redirect nor a choice macro claimed the
	// passage, and plain links only when nothing else produced choices.
	if len(choices) == 0 && len(redirects) == 0 {
		choices = comp.extractConditionalChoices(p.Content, &handled)
	}

	messages, narratorDests, narratorAt := comp.classifyLines(p.Content, handled)

	if len(choices) == 0 {
		choices = comp.extractFallbackLinks(p.Content, handled, narratorAt)
	}

	// A narrator line that links onward but offers no choices auto-advances.
	nextNode := ""
	if len(narratorDests) > 0 && len(choices) == 0 {
		nextNode = narratorDests[0]
	}

	// No node is ever completely empty: fall back to the passage name.
	if len(messages) == 0 && len(choices) == 0 {
		messages = append(messages, dialogue.Message{
			Type:    dialogue.MessageSystem,
			Content: p.Name,
		})
	}

	return parsed{
		messages:  messages,
		choices:   choices,
		redirects: redirects,
		nextNode:  nextNode,
	}
}

func sortedKeys(set map[string]struct{}) []string {
	keys := make([]string, 0, len(set))
	for k := range set {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
