/*
Package parley compiles interactive-fiction markup into dialogue graphs and
runs them as timed, per-room conversations inside a chat server.

# Concept

Authors write stories as passages of lightweight markup: speaker lines,
narrator prose, bracket links between passages, and macros for variables and
conditions. The compiler lowers that markup into a graph of nodes, each
carrying an ordered message sequence and the choices that leave it. The
runtime walks the graph one room at a time, pacing messages like a person
typing and waiting on players at every choice.

# Compiling

	graph, stats := parley.Compile(source)
	if err := parley.Validate(graph); err != nil {
		log.Fatal(err)
	}
	fmt.Printf("%d passages, %d nodes\n", stats.Passages, stats.Nodes)

Compilation never fails: malformed constructs degrade to warnings collected
in the stats. Validation is the gate before a graph may run.

# Serving

The parley command wraps the full server: a websocket chat hub where any
room can start a compiled dialogue.

	parley compile story.twee
	parley serve --config parley.yaml

Graphs are loaded from a directory or a redis instance; see the Library type
for embedded read access.
*/
package parley
