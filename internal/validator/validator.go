// Package validator gates dialogue graphs before the runtime may use them.
package validator

import (
	"sort"

	"github.com/nvale/parley/pkg/dialogue"
)

// Validate checks graph integrity: the metadata must declare a start node,
// the start node must exist, and every outgoing reference (choice targets,
// node-level condition redirects, auto-advance targets) must resolve to a
// node. It fails on the first violation and never repairs; validating an
// already-valid graph is idempotent.
func Validate(g *dialogue.Graph) error {
	if g.Metadata.StartNode == "" {
		return &dialogue.GraphError{Reason: "metadata declares no start node"}
	}
	if _, ok := g.Nodes[g.Metadata.StartNode]; !ok {
		return &dialogue.GraphError{
			Target: g.Metadata.StartNode,
			Reason: "start node not found: " + g.Metadata.StartNode,
		}
	}

	// Deterministic traversal order so the same broken graph always yields
	// the same diagnostic.
	ids := make([]string, 0, len(g.Nodes))
	for id := range g.Nodes {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	for _, id := range ids {
		node := g.Nodes[id]
		for _, choice := range node.Choices {
			if _, ok := g.Nodes[choice.NextNode]; !ok {
				return &dialogue.GraphError{
					NodeID: id,
					Target: choice.NextNode,
					Reason: "choice " + choice.ID + " points to a missing node",
				}
			}
		}
		for _, cond := range node.Conditions {
			if _, ok := g.Nodes[cond.NextNode]; !ok {
				return &dialogue.GraphError{
					NodeID: id,
					Target: cond.NextNode,
					Reason: "condition redirect points to a missing node",
				}
			}
		}
		if node.NextNode != "" {
			if _, ok := g.Nodes[node.NextNode]; !ok {
				return &dialogue.GraphError{
					NodeID: id,
					Target: node.NextNode,
					Reason: "nextNode points to a missing node",
				}
			}
		}
	}
	return nil
}
