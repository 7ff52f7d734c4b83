package dialogue

import (
	"strconv"
	"strings"
)

// ApplyEffects mutates vars with every effect of a taken choice.
// String values with a leading sign ("+2", "-1") are deltas against the
// variable's current value (unset reads as 0); anything else overwrites.
func ApplyEffects(vars map[string]any, effects map[string]any) {
	for name, value := range effects {
		ApplyEffect(vars, name, value)
	}
}

// ApplyEffect applies a single delta-or-absolute effect value.
func ApplyEffect(vars map[string]any, name string, value any) {
	s, ok := value.(string)
	if !ok {
		vars[name] = value
		return
	}

	if strings.HasPrefix(s, "+") || strings.HasPrefix(s, "-") {
		delta, err := strconv.ParseFloat(s, 64)
		if err == nil {
			cur, _ := toFloat(vars[name])
			vars[name] = cur + delta
			return
		}
	}
	vars[name] = s
}
