package dialogue

// Evaluate reports whether the condition holds against the given bindings.
// An unset variable reads as 0. Malformed conditions (unknown operator,
// non-numeric comparison against an ordering operator) evaluate to false
// rather than raising: a broken gate must never redirect or crash a run.
func (c *Condition) Evaluate(vars map[string]any) bool {
	if c == nil {
		return true
	}
	current := vars[c.Variable]

	switch c.Operator {
	case "==":
		return looseEqual(current, c.Value)
	case "!=":
		return !looseEqual(current, c.Value)
	}

	cur, okA := toFloat(current)
	want, okB := toFloat(c.Value)
	if !okB {
		return false
	}
	if !okA {
		cur = 0
	}

	switch c.Operator {
	case ">":
		return cur > want
	case ">=":
		return cur >= want
	case "<":
		return cur < want
	case "<=":
		return cur <= want
	}
	return false
}

// Invert returns a copy with the comparison operator flipped, used for the
// else-branch of a conditional choice block.
func (c Condition) Invert() Condition {
	inverses := map[string]string{
		">=": "<",
		"<=": ">",
		">":  "<=",
		"<":  ">=",
		"==": "!=",
		"!=": "==",
	}
	if op, ok := inverses[c.Operator]; ok {
		c.Operator = op
	}
	return c
}

// looseEqual compares numerically when both sides coerce to numbers,
// otherwise falls back to interface equality. JSON round-trips turn all
// numbers into float64, so int/float mismatches must not break equality.
func looseEqual(a, b any) bool {
	fa, okA := toFloat(a)
	fb, okB := toFloat(b)
	if okA && okB {
		return fa == fb
	}
	if a == nil {
		// Unset variable equals 0.
		return okB && fb == 0
	}
	return a == b
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case int32:
		return float64(n), true
	}
	return 0, false
}
