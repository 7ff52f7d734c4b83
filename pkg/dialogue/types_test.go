package dialogue

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestChoice_JSONContract(t *testing.T) {
	echo := "I released it."

	t.Run("silent choice marshals text as null", func(t *testing.T) {
		raw, err := json.Marshal(Choice{
			ID:          "gate_choice_1",
			Text:        nil,
			DisplayText: "Say nothing",
			NextNode:    "end",
		})
		require.NoError(t, err)
		assert.Contains(t, string(raw), `"text":null`)
		// Absent effects/conditions are omitted entirely, not null.
		assert.NotContains(t, string(raw), "effects")
		assert.NotContains(t, string(raw), "conditions")
	})

	t.Run("effects and conditions survive a round trip", func(t *testing.T) {
		in := Choice{
			ID:          "gate_choice_2",
			Text:        &echo,
			DisplayText: "Release it",
			NextNode:    "end",
			Effects:     map[string]any{"clicks": "+1"},
			Conditions:  &Condition{Variable: "clicks", Operator: ">=", Value: float64(3)},
		}
		raw, err := json.Marshal(in)
		require.NoError(t, err)

		var out Choice
		require.NoError(t, json.Unmarshal(raw, &out))
		assert.Equal(t, in.Effects, out.Effects)
		assert.Equal(t, in.Conditions, out.Conditions)

		text, ok := out.EchoText()
		assert.True(t, ok)
		assert.Equal(t, echo, text)
	})
}

func TestGraph_SeedVariablesIsACopy(t *testing.T) {
	g := &Graph{Variables: map[string]any{"clicks": float64(0)}}
	vars := g.SeedVariables()
	vars["clicks"] = float64(7)
	assert.Equal(t, float64(0), g.Variables["clicks"])
}

func TestNode_FindChoice(t *testing.T) {
	n := &Node{Choices: []Choice{{ID: "a_choice_1"}, {ID: "a_choice_2"}}}
	require.NotNil(t, n.FindChoice("a_choice_2"))
	assert.Nil(t, n.FindChoice("a_choice_9"))
}
