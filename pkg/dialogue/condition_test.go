package dialogue

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCondition_Evaluate(t *testing.T) {
	vars := map[string]any{"clicks": float64(3), "mood": "wary"}

	cases := []struct {
		name string
		cond Condition
		want bool
	}{
		{"eq true", Condition{Variable: "clicks", Operator: "==", Value: float64(3)}, true},
		{"eq int literal", Condition{Variable: "clicks", Operator: "==", Value: 3}, true},
		{"eq false", Condition{Variable: "clicks", Operator: "==", Value: float64(4)}, false},
		{"neq", Condition{Variable: "clicks", Operator: "!=", Value: float64(4)}, true},
		{"gt", Condition{Variable: "clicks", Operator: ">", Value: float64(2)}, true},
		{"gte boundary", Condition{Variable: "clicks", Operator: ">=", Value: float64(3)}, true},
		{"lt", Condition{Variable: "clicks", Operator: "<", Value: float64(3)}, false},
		{"lte boundary", Condition{Variable: "clicks", Operator: "<=", Value: float64(3)}, true},
		{"string eq", Condition{Variable: "mood", Operator: "==", Value: "wary"}, true},
		{"unset variable reads as zero", Condition{Variable: "ghost", Operator: "<", Value: float64(1)}, true},
		{"unset variable equals zero", Condition{Variable: "ghost", Operator: "==", Value: float64(0)}, true},
		{"unknown operator fails open", Condition{Variable: "clicks", Operator: "~=", Value: float64(3)}, false},
		{"non-numeric ordering fails open", Condition{Variable: "clicks", Operator: ">", Value: "many"}, false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, tc.cond.Evaluate(vars))
		})
	}
}

func TestCondition_Evaluate_NilAlwaysHolds(t *testing.T) {
	var c *Condition
	assert.True(t, c.Evaluate(map[string]any{}))
}

func TestCondition_Invert(t *testing.T) {
	pairs := map[string]string{
		">=": "<",
		"<=": ">",
		">":  "<=",
		"<":  ">=",
		"==": "!=",
		"!=": "==",
	}
	for op, inverted := range pairs {
		c := Condition{Variable: "clicks", Operator: op, Value: float64(3)}
		got := c.Invert()
		assert.Equal(t, inverted, got.Operator, "inverse of %s", op)
		// Inverting twice restores the original operator.
		assert.Equal(t, op, got.Invert().Operator)
		// The receiver is untouched.
		assert.Equal(t, op, c.Operator)
	}
}

func TestCondition_InvertUnknownOperatorUnchanged(t *testing.T) {
	c := Condition{Operator: "~="}
	assert.Equal(t, "~=", c.Invert().Operator)
}
