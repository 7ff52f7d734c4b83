package dialogue

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestApplyEffect(t *testing.T) {
	t.Run("delta on unset variable defaults to zero", func(t *testing.T) {
		vars := map[string]any{}
		ApplyEffect(vars, "clicks", "+1")
		assert.Equal(t, float64(1), vars["clicks"])
	})

	t.Run("negative delta", func(t *testing.T) {
		vars := map[string]any{"trust": float64(5)}
		ApplyEffect(vars, "trust", "-2")
		assert.Equal(t, float64(3), vars["trust"])
	})

	t.Run("absolute number overwrites", func(t *testing.T) {
		vars := map[string]any{"trust": float64(5)}
		ApplyEffect(vars, "trust", float64(9))
		assert.Equal(t, float64(9), vars["trust"])
	})

	t.Run("plain string overwrites", func(t *testing.T) {
		vars := map[string]any{}
		ApplyEffect(vars, "mood", "wary")
		assert.Equal(t, "wary", vars["mood"])
	})

	t.Run("signed but non-numeric string overwrites", func(t *testing.T) {
		vars := map[string]any{"mood": float64(1)}
		ApplyEffect(vars, "mood", "+infinity-ish")
		assert.Equal(t, "+infinity-ish", vars["mood"])
	})
}

// A sequence of deltas on one variable must equal applying the net delta once.
func TestApplyEffects_DeltasAssociative(t *testing.T) {
	stepwise := map[string]any{}
	for _, e := range []string{"+1", "+4", "-2", "+3"} {
		ApplyEffect(stepwise, "clicks", e)
	}

	atOnce := map[string]any{}
	ApplyEffect(atOnce, "clicks", "+6")

	assert.Equal(t, atOnce["clicks"], stepwise["clicks"])
}

func TestApplyEffects_Map(t *testing.T) {
	vars := map[string]any{"clicks": float64(2)}
	ApplyEffects(vars, map[string]any{"clicks": "+1", "seen": float64(1)})
	assert.Equal(t, float64(3), vars["clicks"])
	assert.Equal(t, float64(1), vars["seen"])
}
