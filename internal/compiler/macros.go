package compiler

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/nvale/parley/pkg/dialogue"
)

// rawChoice is a choice as extracted from markup, before node assembly
// slugifies destinations and assigns ids.
type rawChoice struct {
	text        string
	destination string
	effects     map[string]any
	condition   *dialogue.Condition
	// playerDialogue marks the choice text for echoing to chat when taken.
	playerDialogue bool
}

// span is a half-open byte range of passage content already consumed by a
// macro extraction; the line classifier skips anything inside one.
type span struct{ start, end int }

type spanSet []span

func (s spanSet) contains(pos int) bool {
	for _, r := range s {
		if pos >= r.start && pos < r.end {
			return true
		}
	}
	return false
}

var (
	reCondition = regexp.MustCompile(`\$(\w+)\s*(>=|<=|>|<|is not|is)\s*(.+)`)
	reSetIncr   = regexp.MustCompile(`\$(\w+)\s+to\s+\$\w+\s*([+-])\s*(\d+)`)
	reSetAbs    = regexp.MustCompile(`\$(\w+)\s+to\s+(\d+)`)

	reCondGoto  = regexp.MustCompile(`\(if:\s*([^)]+)\)\s*\[\s*\(goto:\s*"([^"]+)"\)\s*\]`)
	reLinkMacro = regexp.MustCompile(`(You\s+say:\s*)?\(link:\s*"([^"]+)"\)\s*\[((?s).*?)\]`)
	reSetMacro  = regexp.MustCompile(`\(set:\s*([^)]+)\)`)
	reGotoMacro = regexp.MustCompile(`\(goto:\s*"([^"]+)"\)`)

	reIfOpen   = regexp.MustCompile(`\(if:\s*([^)]+)\)\s*\[`)
	reElseOpen = regexp.MustCompile(`^\s*\(else:\)\s*\[`)
	reIfLink   = regexp.MustCompile(`(You\s+say:\s*)?\[\[([^\]]+)\]\]`)

	reFallbackLink = regexp.MustCompile(`(You\s+(?:say\s+nothing|whisper|say)\s*:\s*)?\[\[([^\]]+)\]\]`)
	reSayNothing   = regexp.MustCompile(`(?i)say\s+nothing`)
)

// parseCondition parses an "(if: $var op value)" expression body.
// "is"/"is not" normalize to ==/!=; integer values become numbers.
// Returns nil for anything it cannot read: a malformed gate never matches.
func (c *compilation) parseCondition(expr string) *dialogue.Condition {
	m := reCondition.FindStringSubmatch(expr)
	if m == nil {
		return nil
	}
	c.discover(m[1])

	op := strings.TrimSpace(m[2])
	switch op {
	case "is":
		op = "=="
	case "is not":
		op = "!="
	}

	var value any = strings.TrimSpace(m[3])
	if n, err := strconv.Atoi(value.(string)); err == nil {
		value = float64(n)
	}

	return &dialogue.Condition{Variable: m[1], Operator: op, Value: value}
}

// parseSetEffect parses the body of a "(set: ...)" macro into one effect.
// "$var to $var + N" yields a signed-delta string; "$var to N" an absolute.
func (c *compilation) parseSetEffect(expr string) (string, any, bool) {
	if m := reSetIncr.FindStringSubmatch(expr); m != nil {
		c.discover(m[1])
		return m[1], m[2] + m[3], true
	}
	if m := reSetAbs.FindStringSubmatch(expr); m != nil {
		c.discover(m[1])
		n, _ := strconv.Atoi(m[2])
		return m[1], float64(n), true
	}
	return "", nil, false
}

// extractRedirects finds single-branch conditional blocks that contain only a
// jump directive. They become node-level conditions, kept in authored order.
func (c *compilation) extractRedirects(content string, handled *spanSet) []dialogue.Condition {
	var redirects []dialogue.Condition
	for _, m := range reCondGoto.FindAllStringSubmatchIndex(content, -1) {
		cond := c.parseCondition(content[m[2]:m[3]])
		if cond == nil {
			continue
		}
		cond.NextNode = content[m[4]:m[5]]
		redirects = append(redirects, *cond)
		*handled = append(*handled, span{m[0], m[1]})
	}
	return redirects
}

// extractLinkMacros finds explicit choice macros: choice text, effect
// directives and a jump target bundled in one block. When any are present
// they are the node's full, authoritative choice list.
func (c *compilation) extractLinkMacros(content string, handled *spanSet) []rawChoice {
	var choices []rawChoice
	for _, m := range reLinkMacro.FindAllStringSubmatchIndex(content, -1) {
		*handled = append(*handled, span{m[0], m[1]})

		body := content[m[6]:m[7]]
		gotoMatch := reGotoMacro.FindStringSubmatch(body)
		if gotoMatch == nil {
			continue
		}

		effects := map[string]any{}
		for _, set := range reSetMacro.FindAllStringSubmatch(body, -1) {
			if name, value, ok := c.parseSetEffect(set[1]); ok {
				effects[name] = value
			}
		}
		if len(effects) == 0 {
			effects = nil
		}

		choices = append(choices, rawChoice{
			text:           content[m[4]:m[5]],
			destination:    gotoMatch[1],
			effects:        effects,
			playerDialogue: m[2] != -1,
		})
	}
	return choices
}

// extractConditionalChoices handles (if: ...)[ ... ](else:)[ ... ] blocks
// whose branches embed bracket links. The blocks are located by bracket-depth
// balancing rather than by regex alone, since branches may nest further
// bracket-delimited links. Else-branch choices get the inverted operator.
func (c *compilation) extractConditionalChoices(content string, handled *spanSet) []rawChoice {
	var choices []rawChoice

	for _, open := range reIfOpen.FindAllStringSubmatchIndex(content, -1) {
		cond := c.parseCondition(content[open[2]:open[3]])
		if cond == nil {
			continue
		}

		ifStart := open[1]
		ifEnd := findBalancedBracket(content, ifStart-1)
		if ifEnd == -1 {
			continue
		}
		ifBlock := content[ifStart:ifEnd]

		elseOpen := reElseOpen.FindStringIndex(content[ifEnd+1:])
		if elseOpen == nil {
			// Single branch: that is redirect territory, not a choice block.
			continue
		}
		elseStart := ifEnd + 1 + elseOpen[1]
		elseEnd := findBalancedBracket(content, elseStart-1)
		if elseEnd == -1 {
			continue
		}
		elseBlock := content[elseStart:elseEnd]

		if !strings.Contains(ifBlock, "[[") && !strings.Contains(elseBlock, "[[") {
			continue
		}

		choices = append(choices, c.branchChoices(ifBlock, *cond)...)
		choices = append(choices, c.branchChoices(elseBlock, cond.Invert())...)

		*handled = append(*handled, span{open[0], elseEnd + 1})
	}
	return choices
}

func (c *compilation) branchChoices(block string, cond dialogue.Condition) []rawChoice {
	var choices []rawChoice
	for _, m := range reIfLink.FindAllStringSubmatch(block, -1) {
		text, dest := parseLinkContent(m[2])
		gate := cond
		choices = append(choices, rawChoice{
			text:           text,
			destination:    dest,
			condition:      &gate,
			playerDialogue: m[1] != "",
		})
	}
	return choices
}

// extractFallbackLinks turns remaining plain bracket links into choices. Only
// called when no higher-precedence strategy produced any; links attributed to
// narrator lines or already-handled macro blocks are skipped.
func (c *compilation) extractFallbackLinks(content string, handled spanSet, narratorLinks map[int]bool) []rawChoice {
	var choices []rawChoice
	for _, m := range reFallbackLink.FindAllStringSubmatchIndex(content, -1) {
		bracketIndex := m[0]
		prefix := ""
		if m[2] != -1 {
			prefix = content[m[2]:m[3]]
			bracketIndex = m[3]
		}
		if narratorLinks[bracketIndex] || handled.contains(m[0]) {
			continue
		}

		text, dest := parseLinkContent(content[m[4]:m[5]])
		silent := reSayNothing.MatchString(prefix)
		choices = append(choices, rawChoice{
			text:           text,
			destination:    dest,
			playerDialogue: prefix != "" && !silent,
		})
	}
	return choices
}

// parseLinkContent splits a bracket link body into display text and
// destination: "text->dest", "dest<-text", "text|dest", or a bare name that
// serves as both.
func parseLinkContent(link string) (text, destination string) {
	switch {
	case strings.Contains(link, "->"):
		parts := strings.SplitN(link, "->", 2)
		return strings.TrimSpace(parts[0]), strings.TrimSpace(parts[1])
	case strings.Contains(link, "<-"):
		parts := strings.SplitN(link, "<-", 2)
		return strings.TrimSpace(parts[1]), strings.TrimSpace(parts[0])
	case strings.Contains(link, "|"):
		parts := strings.SplitN(link, "|", 2)
		return strings.TrimSpace(parts[0]), strings.TrimSpace(parts[1])
	}
	link = strings.TrimSpace(link)
	return link, link
}

// findBalancedBracket returns the index of the ']' closing the '[' at pos,
// or -1. Depth counting keeps nested bracket links inside macro blocks from
// terminating the block early.
func findBalancedBracket(s string, pos int) int {
	if pos < 0 || pos >= len(s) || s[pos] != '[' {
		return -1
	}
	depth := 1
	for i := pos + 1; i < len(s); i++ {
		switch s[i] {
		case '[':
			depth++
		case ']':
			depth--
			if depth == 0 {
				return i
			}
		}
	}
	return -1
}
