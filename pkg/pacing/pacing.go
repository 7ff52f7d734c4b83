// Package pacing computes per-message delivery delays for dialogue sequencing.
package pacing

import (
	"time"

	"github.com/nvale/parley/pkg/dialogue"
)

// Mode selects how message delays are computed.
type Mode string

const (
	// ModeInstant always yields zero, for deterministic tests.
	ModeInstant Mode = "instant"
	// ModeFixed yields a flat constant for every message.
	ModeFixed Mode = "fixed"
	// ModeDynamic scales with content length for spoken messages.
	ModeDynamic Mode = "dynamic"
)

// Config holds the tunables for a Calculator.
type Config struct {
	Mode        Mode
	FixedDelay  time.Duration
	SystemDelay time.Duration
	// EndingDelay is the gap before auto-advance or dialogue end after a
	// sequence with no choices.
	EndingDelay time.Duration

	// Dynamic mode: clamp(Base + PerChar*len(content), Min, Max).
	Base    time.Duration
	PerChar time.Duration
	Min     time.Duration
	Max     time.Duration
}

// DefaultConfig returns the production pacing constants.
func DefaultConfig() Config {
	return Config{
		Mode:        ModeDynamic,
		FixedDelay:  2 * time.Second,
		SystemDelay: 2 * time.Second,
		EndingDelay: 2 * time.Second,
		Base:        500 * time.Millisecond,
		PerChar:     40 * time.Millisecond,
		Min:         1 * time.Second,
		Max:         6 * time.Second,
	}
}

// Calculator turns one message into a delivery delay.
type Calculator struct {
	cfg Config
}

// NewCalculator builds a Calculator from the given config.
func NewCalculator(cfg Config) *Calculator {
	return &Calculator{cfg: cfg}
}

// Delay returns the pacing gap that precedes the given message.
func (c *Calculator) Delay(msg dialogue.Message) time.Duration {
	if c.cfg.Mode == ModeInstant {
		return 0
	}

	if msg.Type == dialogue.MessagePause {
		return time.Duration(msg.Duration) * time.Millisecond
	}

	if c.cfg.Mode == ModeFixed {
		return c.cfg.FixedDelay
	}

	// Dynamic: narrator lines and speaker-tagged system lines read at talking
	// speed; everything else gets the flat system gap.
	spoken := msg.Type == dialogue.MessageNarrator ||
		(msg.Type == dialogue.MessageSystem && msg.Speaker != "")
	if !spoken {
		return c.cfg.SystemDelay
	}

	d := c.cfg.Base + time.Duration(len(msg.Content))*c.cfg.PerChar
	if d < c.cfg.Min {
		d = c.cfg.Min
	}
	if d > c.cfg.Max {
		d = c.cfg.Max
	}
	return d
}

// AdvanceDelay returns the gap inserted after a choice-less sequence, before
// the ending fires or the next node is entered.
func (c *Calculator) AdvanceDelay() time.Duration {
	if c.cfg.Mode == ModeInstant {
		return 0
	}
	return c.cfg.EndingDelay
}
