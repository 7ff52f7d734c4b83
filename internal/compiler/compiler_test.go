package compiler

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nvale/parley/pkg/dialogue"
)

const storyDoc = `:: StoryTitle
The Evil Eye

:: StoryData
{
  "start": "Main Portal"
}

:: Main Portal
Liz says: Welcome to the portal.
The door creaks.
A cold wind slips through.
You say: [[Hello?->Greeting]]
[[Say nothing->Silent Watch]]

:: Greeting
Liz says: So polite. [[Onward->Silent Watch]]

:: Silent Watch
The eye blinks once.
`

func TestCompile_Document(t *testing.T) {
	graph, stats := New().Compile(storyDoc)

	assert.Equal(t, "The Evil Eye", graph.Metadata.Title)
	assert.Equal(t, "main_portal", graph.Metadata.StartNode)
	assert.Equal(t, "1.0.0", graph.Metadata.Version)

	assert.Equal(t, 5, stats.Passages, "metadata passages count toward the total")
	assert.Equal(t, 3, stats.Nodes, "metadata passages produce no nodes")
	assert.Empty(t, stats.Warnings)

	require.Contains(t, graph.Nodes, "main_portal")
	require.Contains(t, graph.Nodes, "greeting")
	require.Contains(t, graph.Nodes, "silent_watch")
}

func TestCompile_MessageClassification(t *testing.T) {
	graph, _ := New().Compile(storyDoc)
	node := graph.Nodes["main_portal"]

	require.Len(t, node.MessageSequence, 2)
	assert.Equal(t, dialogue.MessageNarrator, node.MessageSequence[0].Type)
	assert.Equal(t, "Welcome to the portal.", node.MessageSequence[0].Content)

	// Consecutive stage directions merge into one system message.
	assert.Equal(t, dialogue.MessageSystem, node.MessageSequence[1].Type)
	assert.Equal(t, "The door creaks.<br>A cold wind slips through.", node.MessageSequence[1].Content)
}

func TestCompile_FallbackLinkChoices(t *testing.T) {
	graph, _ := New().Compile(storyDoc)
	node := graph.Nodes["main_portal"]

	require.Len(t, node.Choices, 2)

	spoken := node.Choices[0]
	assert.Equal(t, "main_portal_choice_1", spoken.ID)
	require.NotNil(t, spoken.Text, `a "You say:" link echoes to chat`)
	assert.Equal(t, "Hello?", *spoken.Text)
	assert.Equal(t, "Hello?", spoken.DisplayText)
	assert.Equal(t, "greeting", spoken.NextNode)

	silent := node.Choices[1]
	assert.Nil(t, silent.Text, "a bare link is a silent choice")
	assert.Equal(t, "Say nothing", silent.DisplayText)
	assert.Equal(t, "silent_watch", silent.NextNode)
}

func TestCompile_NarratorLinkBecomesNextNode(t *testing.T) {
	graph, _ := New().Compile(storyDoc)
	node := graph.Nodes["greeting"]

	// The link lives on a narrator line: display text in the message, the
	// destination as auto-advance, and no choice.
	assert.Empty(t, node.Choices)
	assert.Equal(t, "silent_watch", node.NextNode)
	require.Len(t, node.MessageSequence, 1)
	assert.Equal(t, "So polite. Onward", node.MessageSequence[0].Content)
	assert.Equal(t, dialogue.NodeNarrative, node.Type)
}

func TestCompile_EndingDetection(t *testing.T) {
	graph, _ := New().Compile(storyDoc)
	assert.Equal(t, dialogue.NodeEnding, graph.Nodes["silent_watch"].Type)
	assert.Equal(t, dialogue.NodeNarrative, graph.Nodes["main_portal"].Type)
}

// A passage whose only choice is a link macro wrapped with an effect
// directive compiles to one choice carrying the "+1" delta.
func TestCompile_LinkMacroWithEffect(t *testing.T) {
	graph, _ := New().Compile(`:: Gate
(link: "Click the eye")[(set: $clicks to $clicks + 1)(goto: "End")]

:: End
The eye closes.
`)
	node := graph.Nodes["gate"]
	require.Len(t, node.Choices, 1)

	choice := node.Choices[0]
	assert.Equal(t, map[string]any{"clicks": "+1"}, choice.Effects)
	assert.Equal(t, "end", choice.NextNode)
	assert.Equal(t, "Click the eye", choice.DisplayText)
	assert.Nil(t, choice.Text)

	// The macro body never leaks into the message sequence.
	assert.Empty(t, node.MessageSequence)

	assert.Equal(t, float64(0), graph.Variables["clicks"], "discovered variables default to 0")
}

func TestCompile_AbsoluteSetEffect(t *testing.T) {
	graph, _ := New().Compile(`:: Gate
(link: "Reset")[(set: $clicks to 0)(goto: "Gate")]
`)
	choice := graph.Nodes["gate"].Choices[0]
	assert.Equal(t, map[string]any{"clicks": float64(0)}, choice.Effects)
}

func TestCompile_ConditionalRedirect(t *testing.T) {
	graph, _ := New().Compile(`:: Portal Check
(if: $clicks >= 3)[
(goto: "Sanctum")
]
Still locked.

:: Sanctum
You made it.
`)
	node := graph.Nodes["portal_check"]
	require.Len(t, node.Conditions, 1)

	cond := node.Conditions[0]
	assert.Equal(t, "clicks", cond.Variable)
	assert.Equal(t, ">=", cond.Operator)
	assert.Equal(t, float64(3), cond.Value)
	assert.Equal(t, "sanctum", cond.NextNode)

	// A redirect keeps the node narrative even without choices.
	assert.Equal(t, dialogue.NodeNarrative, node.Type)
	require.Len(t, node.MessageSequence, 1)
	assert.Equal(t, "Still locked.", node.MessageSequence[0].Content)
}

func TestCompile_ConditionalChoicesWithElseInversion(t *testing.T) {
	graph, _ := New().Compile(`:: Crossroads
(if: $clicks >= 3)[
[[Open the gate->Sanctum]]
](else:)[
[[Knock again->Waiting]]
]

:: Sanctum
In.

:: Waiting
Not yet.
`)
	node := graph.Nodes["crossroads"]
	require.Len(t, node.Choices, 2)

	gated := node.Choices[0]
	require.NotNil(t, gated.Conditions)
	assert.Equal(t, ">=", gated.Conditions.Operator)
	assert.Equal(t, "sanctum", gated.NextNode)

	inverted := node.Choices[1]
	require.NotNil(t, inverted.Conditions)
	assert.Equal(t, "<", inverted.Conditions.Operator, "else branch gets the inverted operator")
	assert.Equal(t, float64(3), inverted.Conditions.Value)
	assert.Equal(t, "waiting", inverted.NextNode)
}

func TestCompile_IsOperatorsNormalize(t *testing.T) {
	comp := New().newCompilation()

	eq := comp.parseCondition("$mood is 2")
	require.NotNil(t, eq)
	assert.Equal(t, "==", eq.Operator)

	neq := comp.parseCondition("$mood is not 2")
	require.NotNil(t, neq)
	assert.Equal(t, "!=", neq.Operator)
}

func TestCompile_SpeakerMonologueMerges(t *testing.T) {
	graph, _ := New().Compile(`:: Poem
The Evil Eye says:
Roses wilt in rooms unseen
Doors forget the hands between
Liz says: Enough of that.
`)
	seq := graph.Nodes["poem"].MessageSequence
	require.Len(t, seq, 2)

	assert.Equal(t, dialogue.MessageSystem, seq[0].Type)
	assert.Equal(t, "The Evil Eye", seq[0].Speaker)
	assert.Equal(t,
		"The Evil Eye says:<br>Roses wilt in rooms unseen<br>Doors forget the hands between",
		seq[0].Content)

	assert.Equal(t, dialogue.MessageNarrator, seq[1].Type)
	assert.Equal(t, "Enough of that.", seq[1].Content)
}

func TestCompile_SpeakerWithTrailingContentStandsAlone(t *testing.T) {
	graph, _ := New().Compile(`:: Note
The Email says: You have one unread message.
`)
	seq := graph.Nodes["note"].MessageSequence
	require.Len(t, seq, 1)
	assert.Equal(t, "The Email", seq[0].Speaker)
	assert.Equal(t, "The Email says: You have one unread message.", seq[0].Content)
}

func TestCompile_ImagesAndPauses(t *testing.T) {
	graph, _ := New().Compile(`:: Vision
[pause:1500]
![The eye](/img/eye.png)
[img:/img/static.png]
<img src="/img/door-frame.png">
`)
	seq := graph.Nodes["vision"].MessageSequence
	require.Len(t, seq, 4)

	assert.Equal(t, dialogue.MessagePause, seq[0].Type)
	assert.Equal(t, 1500, seq[0].Duration)

	assert.Equal(t, dialogue.MessageImage, seq[1].Type)
	assert.Equal(t, "/img/eye.png", seq[1].URL)
	assert.Equal(t, "The eye", seq[1].Alt)

	assert.Equal(t, "/img/static.png", seq[2].URL)
	assert.Equal(t, "Image", seq[2].Alt)

	assert.Equal(t, "/img/door-frame.png", seq[3].URL)
	assert.Equal(t, "door frame", seq[3].Alt, "alt text derives from the filename")
}

func TestCompile_InlineMarkup(t *testing.T) {
	graph, _ := New().Compile(`:: Styled
Liz says: This is ''very'' //important//.
[[**Run** away->Styled]]
`)
	node := graph.Nodes["styled"]
	assert.Equal(t, "This is <strong>very</strong> <em>important</em>.",
		node.MessageSequence[0].Content)

	// Choice display text strips markers instead of converting them.
	require.Len(t, node.Choices, 1)
	assert.Equal(t, "Run away", node.Choices[0].DisplayText)
}

func TestCompile_VariableInterpolation(t *testing.T) {
	graph, _ := New().Compile(`:: Tally
You have clicked (print: $clicks) times.
`)
	seq := graph.Nodes["tally"].MessageSequence
	require.Len(t, seq, 1)
	assert.Equal(t, "You have clicked ${clicks} times.", seq[0].Content)
	assert.Contains(t, graph.Variables, "clicks")
}

func TestCompile_EmptyPassageGetsFallbackMessage(t *testing.T) {
	graph, _ := New().Compile(`:: Hollow Room
`)
	node := graph.Nodes["hollow_room"]
	require.Len(t, node.MessageSequence, 1)
	assert.Equal(t, dialogue.MessageSystem, node.MessageSequence[0].Type)
	assert.Equal(t, "Hollow Room", node.MessageSequence[0].Content)
	assert.Equal(t, dialogue.NodeEnding, node.Type)
}

func TestCompile_ChoiceOnlyPassageHasNoFallbackMessage(t *testing.T) {
	graph, _ := New().Compile(`:: released
[[I->released]]
`)
	node := graph.Nodes["released"]
	assert.Empty(t, node.MessageSequence)
	require.Len(t, node.Choices, 1)
}

func TestCompile_MalformedStoryDataWarns(t *testing.T) {
	graph, stats := New().Compile(`:: StoryData
{not json

:: Opening
Hello.
`)
	assert.Equal(t, "start", graph.Metadata.StartNode, "falls back to the default start")
	require.Len(t, stats.Warnings, 1)
	assert.Contains(t, stats.Warnings[0], "StoryData")
}

func TestCompile_CustomNarrator(t *testing.T) {
	graph, _ := New(WithNarrator("Symoné")).Compile(`:: Scene
Symoné says: The show begins.
Liz says: Who said that?
`)
	seq := graph.Nodes["scene"].MessageSequence
	require.Len(t, seq, 2)
	assert.Equal(t, dialogue.MessageNarrator, seq[0].Type)

	// "Liz" is just another speaker when the narrator is someone else.
	assert.Equal(t, dialogue.MessageSystem, seq[1].Type)
	assert.Equal(t, "Liz", seq[1].Speaker)
}

func TestSplitPassages_BlobStaysOnHeaderLine(t *testing.T) {
	passages := splitPassages(`:: Start {"position":"100,100"}
First line.

:: StoryData
{
  "start": "Start"
}
`)
	require.Len(t, passages, 2)
	assert.Equal(t, "Start", passages[0].Name)
	assert.Equal(t, "First line.", passages[0].Content)

	// A JSON body on the lines below a header is passage content, not a
	// position blob on the header itself.
	assert.Equal(t, "StoryData", passages[1].Name)
	assert.JSONEq(t, `{"start": "Start"}`, passages[1].Content)
}

func TestSlugify(t *testing.T) {
	assert.Equal(t, "main_portal", slugify("Main Portal"))
	assert.Equal(t, "the_eye_s_gate", slugify("The Eye's Gate!"))
	assert.Equal(t, "a_b", slugify("  A --- B  "))
}

func TestFindBalancedBracket(t *testing.T) {
	s := "[outer [[inner]] more]"
	assert.Equal(t, len(s)-1, findBalancedBracket(s, 0))
	assert.Equal(t, -1, findBalancedBracket("[never closed", 0))
	assert.Equal(t, -1, findBalancedBracket("not a bracket", 0))
}
