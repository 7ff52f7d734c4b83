// Package graph renders dialogue graphs as Mermaid flowcharts, for authors
// inspecting a compiled story.
package graph

import (
	"fmt"
	"sort"
	"strings"

	"github.com/nvale/parley/pkg/dialogue"
)

// GenerateMermaid produces Mermaid flowchart syntax for a dialogue graph.
// Semantic shapes:
//   - start node: ((circle))
//   - ending: [[subroutine]]
//   - node with choices: [/parallelogram/] (player input)
//   - auto-advancing node: [rectangle]
//
// Choice edges are labeled with their display text; conditional redirects
// use dotted arrows labeled with the condition.
func GenerateMermaid(g *dialogue.Graph) string {
	var sb strings.Builder
	sb.WriteString("graph TD\n")

	ids := make([]string, 0, len(g.Nodes))
	for id := range g.Nodes {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	for _, id := range ids {
		node := g.Nodes[id]
		safeID := sanitizeMermaidID(id)

		opener, closer := "[", "]"
		switch {
		case id == g.Metadata.StartNode:
			opener, closer = "((", "))"
		case node.IsEnding():
			opener, closer = "[[", "]]"
		case len(node.Choices) > 0:
			opener, closer = "[/", "/]"
		}
		sb.WriteString(fmt.Sprintf("    %s%s\"%s\"%s\n", safeID, opener, id, closer))

		for i := range node.Conditions {
			c := &node.Conditions[i]
			label := strings.ReplaceAll(
				fmt.Sprintf("%s %s %v", c.Variable, c.Operator, c.Value), "\"", "'")
			sb.WriteString(fmt.Sprintf("    %s -. \"%s\" .-> %s\n",
				safeID, label, sanitizeMermaidID(c.NextNode)))
		}

		for i := range node.Choices {
			ch := &node.Choices[i]
			label := strings.ReplaceAll(ch.DisplayText, "\"", "'")
			sb.WriteString(fmt.Sprintf("    %s -- \"%s\" --> %s\n",
				safeID, label, sanitizeMermaidID(ch.NextNode)))
		}

		if node.NextNode != "" && len(node.Choices) == 0 {
			sb.WriteString(fmt.Sprintf("    %s --> %s\n",
				safeID, sanitizeMermaidID(node.NextNode)))
		}
	}

	return sb.String()
}

func sanitizeMermaidID(id string) string {
	s := strings.ReplaceAll(id, ".", "_")
	s = strings.ReplaceAll(s, "-", "_")
	s = strings.ReplaceAll(s, "/", "_")
	s = strings.ReplaceAll(s, "\\", "_")
	return s
}
