package compiler

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/nvale/parley/pkg/dialogue"
)

var (
	rePureLink  = regexp.MustCompile(`^\[\[.*\]\]\s*$`)
	rePureMacro = regexp.MustCompile(`^\s*\((?:set|if|else|goto|elseif):`)
	reLoneClose = regexp.MustCompile(`^\s*\]$`)
	reLoneBrace = regexp.MustCompile(`^\s*[{}]$`)

	reHTMLImg  = regexp.MustCompile(`(?i)<img\s+[^>]*src=["']([^"']+)["'][^>]*>`)
	reMdImg    = regexp.MustCompile(`!\[([^\]]*)\]\(([^)]+)\)`)
	reImgTag   = regexp.MustCompile(`\[img:([^\]]+)\]`)
	rePauseTag = regexp.MustCompile(`(?i)\[(pause|wait):(\d+)\]`)

	rePrintMacro = regexp.MustCompile(`\(print:\s*\$(\w+)\)`)
	reNthMacro   = regexp.MustCompile(`\(nth:\s*\$(\w+)[^)]*\)`)

	reDivBlock   = regexp.MustCompile(`(?s)<div[^>]*>.*?</div>`)
	reSpanUnwrap = regexp.MustCompile(`(?s)<span[^>]*>(.*?)</span>`)
	reAnyTag     = regexp.MustCompile(`<[^>]+>`)
	reSetStrip   = regexp.MustCompile(`\(set:\s*[^)]*\)`)
	reIfStrip    = regexp.MustCompile(`\(if:\s*[^)]*\)`)
	reGotoStrip  = regexp.MustCompile(`\(goto:\s*[^)]*\)`)
	reElseStrip  = regexp.MustCompile(`\(else:\)`)
	rePrintStrip = regexp.MustCompile(`\(print:\s*[^)]*\)`)
	reNthStrip   = regexp.MustCompile(`\(nth:\s*[^)]*\)`)

	reEdgeTicks  = regexp.MustCompile(`^''+|''+$`)
	reEdgeSlash  = regexp.MustCompile(`^//+|//+$`)
	reEdgeStrike = regexp.MustCompile(`^~~+|~~+$`)
	reEdgeBold   = regexp.MustCompile(`^\*\*+|\*\*+$`)
	reEdgeBrack  = regexp.MustCompile(`^\[+|\]+$`)
	reTrailClose = regexp.MustCompile(`\]+$`)

	reInnerLink = regexp.MustCompile(`\[\[([^\]]+)\]\]`)

	reSpeakerSays = regexp.MustCompile(`(?i)\bsays?:`)
	reSpeakerHead = regexp.MustCompile(`(?i)^(.+?)\s+(says?):\s*`)

	rePlayerHead = regexp.MustCompile(`(?i)^You\s*:`)
	rePlayerVerb = regexp.MustCompile(`(?i)^You\s+(?:say|whisper)\s*:`)
	rePlayerMute = regexp.MustCompile(`(?i)^You\s+say\s+nothing\s*:`)
)

// classifier accumulates message state across lines: consecutive stage
// directions merge into one system message, and a speaker title with no
// trailing content holds pending until its monologue body arrives.
type classifier struct {
	messages     []dialogue.Message
	pendingLines []string
	pendingName  string
	pendingTitle string
}

func (cl *classifier) flush() {
	switch {
	case cl.pendingTitle != "" && len(cl.pendingLines) > 0:
		cl.messages = append(cl.messages, dialogue.Message{
			Type:    dialogue.MessageSystem,
			Speaker: cl.pendingName,
			Content: cl.pendingTitle + "<br>" + strings.Join(cl.pendingLines, "<br>"),
		})
		cl.pendingTitle, cl.pendingName, cl.pendingLines = "", "", nil
	case cl.pendingTitle != "":
		cl.messages = append(cl.messages, dialogue.Message{
			Type:    dialogue.MessageSystem,
			Speaker: cl.pendingName,
			Content: cl.pendingTitle,
		})
		cl.pendingTitle, cl.pendingName = "", ""
	}
	if len(cl.pendingLines) > 0 {
		cl.messages = append(cl.messages, dialogue.Message{
			Type:    dialogue.MessageSystem,
			Content: strings.Join(cl.pendingLines, "<br>"),
		})
		cl.pendingLines = nil
	}
}

func (cl *classifier) push(msg dialogue.Message) {
	cl.flush()
	cl.messages = append(cl.messages, msg)
}

// classifyLines walks the passage text not consumed by macro extraction and
// classifies each non-blank line in priority order: image, pause, narrator,
// third-party speaker, player dialogue, stage direction. It also reports the
// destinations of links embedded in narrator lines and the content offsets of
// those links, so fallback choice extraction can skip them.
func (c *compilation) classifyLines(content string, handled spanSet) ([]dialogue.Message, []string, map[int]bool) {
	cl := &classifier{}
	narratorDests, narratorAt := c.narratorLinks(content)

	currentPos := 0
	for _, line := range strings.Split(content, "\n") {
		lineStart := -1
		if idx := strings.Index(content[currentPos:], line); idx >= 0 {
			lineStart = currentPos + idx
			currentPos = lineStart + len(line)
		}

		trimmed := strings.TrimSpace(line)
		if trimmed == "" {
			continue
		}
		// Lines that are purely a bracket link belong to choice extraction.
		if rePureLink.MatchString(trimmed) {
			continue
		}
		if lineStart >= 0 && handled.contains(lineStart) {
			continue
		}
		if rePureMacro.MatchString(trimmed) || reLoneClose.MatchString(trimmed) || reLoneBrace.MatchString(trimmed) {
			continue
		}

		// Image and pause directives are matched before scrubbing, which
		// would otherwise strip their tags and brackets.
		if m := reHTMLImg.FindStringSubmatch(trimmed); m != nil {
			cl.push(imageFromURL(m[1]))
			continue
		}
		if m := reMdImg.FindStringSubmatch(trimmed); m != nil {
			alt := m[1]
			if alt == "" {
				alt = "Image"
			}
			cl.push(dialogue.Message{Type: dialogue.MessageImage, URL: m[2], Alt: alt})
			continue
		}
		if m := reImgTag.FindStringSubmatch(trimmed); m != nil {
			cl.push(dialogue.Message{Type: dialogue.MessageImage, URL: m[1], Alt: "Image"})
			continue
		}
		if m := rePauseTag.FindStringSubmatch(trimmed); m != nil {
			cl.push(dialogue.Message{Type: dialogue.MessagePause, Duration: atoi(m[2])})
			continue
		}

		cleaned := c.scrubLine(c.interpolate(trimmed))
		if cleaned == "" {
			continue
		}

		// Narrator detection runs on a lightly-scrubbed copy of the raw line
		// so embedded bracket links are still intact for text recovery.
		if narratorLine, ok := c.narratorContent(trimmed); ok {
			if narratorLine != "" {
				cl.push(dialogue.Message{Type: dialogue.MessageNarrator, Content: narratorLine})
			}
			continue
		}

		if reSpeakerSays.MatchString(cleaned) &&
			!c.reNarratorSelf.MatchString(cleaned) && !c.reYouSelf.MatchString(cleaned) {
			cl.flush()
			c.speakerLine(cl, cleaned)
			continue
		}

		if (rePlayerHead.MatchString(cleaned) || rePlayerVerb.MatchString(cleaned)) &&
			!strings.Contains(trimmed, "(link:") && !rePlayerMute.MatchString(cleaned) {
			// Player dialogue never becomes a message of its own; the
			// adjacent choice carries the chat echo.
			cl.flush()
			continue
		}
		if rePlayerMute.MatchString(cleaned) {
			continue
		}

		// Everything else is a stage direction; strip links and accumulate.
		stage := strings.TrimSpace(reInnerLink.ReplaceAllString(cleaned, ""))
		if stage != "" {
			cl.pendingLines = append(cl.pendingLines, stage)
		}
	}

	cl.flush()
	return cl.messages, narratorDests, narratorAt
}

// narratorContent reports whether the line belongs to the narrator and, if
// so, returns its message text with bracket links reduced to display text.
func (c *compilation) narratorContent(raw string) (string, bool) {
	check := reAnyTag.ReplaceAllString(raw, "")
	check = reSetStrip.ReplaceAllString(check, "")
	check = reIfStrip.ReplaceAllString(check, "")
	check = stripLeadingBracket(check)
	check = strings.TrimSpace(check)

	if !c.reNarratorHead.MatchString(check) && !c.reNarratorSays.MatchString(check) {
		return "", false
	}

	content := c.reNarratorCut.ReplaceAllString(check, "")
	content = c.reNarratorTag.ReplaceAllString(content, "")
	content = strings.TrimSpace(content)
	content = linkDisplayText(content)

	content = reTrailClose.ReplaceAllString(content, "")
	return strings.TrimSpace(content), true
}

// speakerLine handles third-party speakers ("The Evil Eye says:"). A line
// with trailing content flushes standalone; a bare title is held pending so
// following plain lines merge into one block (poems, monologues).
func (c *compilation) speakerLine(cl *classifier, cleaned string) {
	m := reSpeakerHead.FindStringSubmatch(cleaned)
	if m == nil {
		cl.pendingLines = append(cl.pendingLines, cleaned)
		return
	}
	speaker := strings.TrimSpace(m[1])
	title := speaker + " " + m[2] + ":"
	rest := linkDisplayText(strings.TrimSpace(cleaned[len(m[0]):]))

	if rest != "" {
		cl.messages = append(cl.messages, dialogue.Message{
			Type:    dialogue.MessageSystem,
			Speaker: speaker,
			Content: title + " " + rest,
		})
		return
	}
	cl.pendingName = speaker
	cl.pendingTitle = title
}

// narratorLinks finds bracket links sitting on narrator lines. Their
// destinations drive auto-advance, and their byte offsets are excluded from
// fallback choice extraction.
func (c *compilation) narratorLinks(content string) ([]string, map[int]bool) {
	var dests []string
	at := make(map[int]bool)

	for _, line := range strings.Split(content, "\n") {
		trimmed := strings.TrimSpace(line)
		check := reEdgeTicks.ReplaceAllString(trimmed, "")
		check = reEdgeSlash.ReplaceAllString(check, "")
		check = stripLeadingBracket(check)
		check = strings.TrimSpace(check)

		if !c.reNarratorHead.MatchString(check) && !c.reNarratorSays.MatchString(check) {
			continue
		}
		for _, m := range reInnerLink.FindAllStringSubmatch(trimmed, -1) {
			// Record every occurrence of this exact link text.
			for pos := strings.Index(content, m[0]); pos != -1; {
				at[pos] = true
				next := strings.Index(content[pos+1:], m[0])
				if next == -1 {
					break
				}
				pos += 1 + next
			}
			_, dest := parseLinkContent(m[1])
			dests = append(dests, dest)
		}
	}
	return dests, at
}

// interpolate rewrites print/ordinal macros to ${var} placeholders and
// registers the referenced variables.
func (c *compilation) interpolate(line string) string {
	line = rePrintMacro.ReplaceAllStringFunc(line, func(m string) string {
		name := rePrintMacro.FindStringSubmatch(m)[1]
		c.discover(name)
		return "${" + name + "}"
	})
	return reNthMacro.ReplaceAllStringFunc(line, func(m string) string {
		name := reNthMacro.FindStringSubmatch(m)[1]
		c.discover(name)
		return "${" + name + "}"
	})
}

// scrubLine removes HTML and macro syntax plus edge emphasis markers.
func (c *compilation) scrubLine(line string) string {
	line = reDivBlock.ReplaceAllString(line, "")
	line = reSpanUnwrap.ReplaceAllString(line, "$1")
	line = reAnyTag.ReplaceAllString(line, "")
	line = reSetStrip.ReplaceAllString(line, "")
	line = reIfStrip.ReplaceAllString(line, "")
	line = reGotoStrip.ReplaceAllString(line, "")
	line = reElseStrip.ReplaceAllString(line, "")
	line = rePrintStrip.ReplaceAllString(line, "")
	line = reNthStrip.ReplaceAllString(line, "")
	line = reEdgeTicks.ReplaceAllString(line, "")
	line = reEdgeSlash.ReplaceAllString(line, "")
	line = reEdgeStrike.ReplaceAllString(line, "")
	line = reEdgeBold.ReplaceAllString(line, "")
	line = reEdgeBrack.ReplaceAllString(line, "")
	return strings.TrimSpace(line)
}

// linkDisplayText reduces [[text->dest]] links to their display text.
func linkDisplayText(s string) string {
	return reInnerLink.ReplaceAllStringFunc(s, func(m string) string {
		inner := reInnerLink.FindStringSubmatch(m)[1]
		text, _ := parseLinkContent(inner)
		return text
	})
}

// stripLeadingBracket removes one leading '[' from a single-bracket macro
// block, leaving double-bracket links alone.
func stripLeadingBracket(s string) string {
	if strings.HasPrefix(s, "[") && !strings.HasPrefix(s, "[[") {
		return s[1:]
	}
	return s
}

func imageFromURL(url string) dialogue.Message {
	// Derive alt text from the filename.
	name := url
	if idx := strings.LastIndex(name, "/"); idx >= 0 {
		name = name[idx+1:]
	}
	if idx := strings.LastIndex(name, "."); idx > 0 {
		name = name[:idx]
	}
	name = strings.NewReplacer("-", " ", "_", " ").Replace(name)
	return dialogue.Message{Type: dialogue.MessageImage, URL: url, Alt: name}
}

func atoi(s string) int {
	n, _ := strconv.Atoi(s)
	return n
}
