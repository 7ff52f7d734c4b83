package dialogue

// Message type constants define how a sequence entry is rendered and paced.
const (
	// MessageSystem is a stage direction or third-party speaker line.
	MessageSystem = "system"
	// MessageNarrator is a line spoken by the designated narrator.
	MessageNarrator = "narrator"
	// MessageImage embeds an image by URL.
	MessageImage = "image"
	// MessagePause is an authored gap; it is never broadcast.
	MessagePause = "pause"
)

// Node type constants.
const (
	NodeNarrative = "narrative"
	NodeEnding    = "ending"
)

// Graph is the compiled dialogue graph. It is immutable after validation;
// runtime sessions copy Variables and treat the rest as read-only.
type Graph struct {
	Metadata  Metadata         `json:"metadata"`
	Variables map[string]any   `json:"variables"`
	Nodes     map[string]*Node `json:"nodes"`
}

// Metadata describes the graph and names its entry node.
type Metadata struct {
	Title     string `json:"title"`
	Version   string `json:"version"`
	StartNode string `json:"startNode"`
}

// Node is the addressable unit of graph execution, one per authored passage.
type Node struct {
	ID              string      `json:"id"`
	Type            string      `json:"type"` // "narrative" or "ending"
	MessageSequence []Message   `json:"messageSequence"`
	Choices         []Choice    `json:"choices"`
	NextNode        string      `json:"nextNode,omitempty"`
	Conditions      []Condition `json:"conditions,omitempty"`
}

// Message is one entry of a node's paced output sequence.
// The Type field selects which of the remaining fields are meaningful.
type Message struct {
	Type    string `json:"type"`
	Content string `json:"content,omitempty"`
	Speaker string `json:"speaker,omitempty"`
	URL     string `json:"url,omitempty"`
	Alt     string `json:"alt,omitempty"`
	// Duration is the pause length in milliseconds (Type == "pause").
	Duration int `json:"duration,omitempty"`
}

// Choice is a player-selectable edge to another node.
//
// Text is what gets echoed to chat when the choice is taken; a nil Text marks
// a silent choice that advances the graph without a chat message. DisplayText
// is what the choice button shows.
type Choice struct {
	ID          string         `json:"id"`
	Text        *string        `json:"text"`
	DisplayText string         `json:"displayText"`
	NextNode    string         `json:"nextNode"`
	Effects     map[string]any `json:"effects,omitempty"`
	Conditions  *Condition     `json:"conditions,omitempty"`
}

// Condition compares a variable's current value against a literal.
// On a node it additionally carries NextNode, the auto-redirect target.
type Condition struct {
	Variable string `json:"variable"`
	Operator string `json:"operator"`
	Value    any    `json:"value"`
	NextNode string `json:"nextNode,omitempty"`
}

// StartNode returns the entry node, or nil if the metadata is dangling.
func (g *Graph) StartNode() *Node {
	return g.Nodes[g.Metadata.StartNode]
}

// SeedVariables returns a fresh mutable copy of the graph's declared defaults.
func (g *Graph) SeedVariables() map[string]any {
	vars := make(map[string]any, len(g.Variables))
	for k, v := range g.Variables {
		vars[k] = v
	}
	return vars
}

// IsEnding reports whether the node terminates the dialogue.
func (n *Node) IsEnding() bool {
	return n.Type == NodeEnding
}

// FindChoice returns the choice with the given id, or nil.
func (n *Node) FindChoice(id string) *Choice {
	for i := range n.Choices {
		if n.Choices[i].ID == id {
			return &n.Choices[i]
		}
	}
	return nil
}

// EchoText returns the chat echo for the choice and whether one exists.
func (c *Choice) EchoText() (string, bool) {
	if c.Text == nil {
		return "", false
	}
	return *c.Text, true
}
