package pacing

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/nvale/parley/pkg/dialogue"
)

func dynamicCalc() *Calculator {
	cfg := DefaultConfig()
	cfg.Mode = ModeDynamic
	return NewCalculator(cfg)
}

func TestCalculator_DynamicNarratorScalesWithLength(t *testing.T) {
	c := dynamicCalc()

	// 100 chars: clamp(500 + 100*40, 1000, 6000) = 4500ms.
	msg := dialogue.Message{Type: dialogue.MessageNarrator, Content: strings.Repeat("x", 100)}
	assert.Equal(t, 4500*time.Millisecond, c.Delay(msg))
}

func TestCalculator_DynamicClamps(t *testing.T) {
	c := dynamicCalc()

	short := dialogue.Message{Type: dialogue.MessageNarrator, Content: "Hi"}
	assert.Equal(t, time.Second, c.Delay(short), "below minimum clamps up")

	long := dialogue.Message{Type: dialogue.MessageNarrator, Content: strings.Repeat("x", 400)}
	assert.Equal(t, 6*time.Second, c.Delay(long), "above maximum clamps down")
}

func TestCalculator_DynamicSpeakerSystemIsSpoken(t *testing.T) {
	c := dynamicCalc()

	spoken := dialogue.Message{
		Type:    dialogue.MessageSystem,
		Speaker: "The Evil Eye",
		Content: strings.Repeat("x", 100),
	}
	assert.Equal(t, 4500*time.Millisecond, c.Delay(spoken))

	plain := dialogue.Message{Type: dialogue.MessageSystem, Content: strings.Repeat("x", 100)}
	assert.Equal(t, 2*time.Second, c.Delay(plain), "speakerless system lines use the flat gap")

	img := dialogue.Message{Type: dialogue.MessageImage, URL: "/img/eye.png"}
	assert.Equal(t, 2*time.Second, c.Delay(img))
}

func TestCalculator_PauseUsesOwnDuration(t *testing.T) {
	pause := dialogue.Message{Type: dialogue.MessagePause, Duration: 3500}

	assert.Equal(t, 3500*time.Millisecond, dynamicCalc().Delay(pause))

	cfg := DefaultConfig()
	cfg.Mode = ModeFixed
	assert.Equal(t, 3500*time.Millisecond, NewCalculator(cfg).Delay(pause))
}

func TestCalculator_FixedIsFlat(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Mode = ModeFixed
	cfg.FixedDelay = 1500 * time.Millisecond
	c := NewCalculator(cfg)

	for _, msg := range []dialogue.Message{
		{Type: dialogue.MessageNarrator, Content: strings.Repeat("x", 300)},
		{Type: dialogue.MessageSystem, Content: "short"},
		{Type: dialogue.MessageImage, URL: "/img/door.png"},
	} {
		assert.Equal(t, 1500*time.Millisecond, c.Delay(msg))
	}
}

func TestCalculator_InstantIsZeroEverywhere(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Mode = ModeInstant
	c := NewCalculator(cfg)

	assert.Zero(t, c.Delay(dialogue.Message{Type: dialogue.MessageNarrator, Content: "words"}))
	assert.Zero(t, c.Delay(dialogue.Message{Type: dialogue.MessagePause, Duration: 9000}))
	assert.Zero(t, c.AdvanceDelay())
}

func TestCalculator_AdvanceDelay(t *testing.T) {
	assert.Equal(t, 2*time.Second, dynamicCalc().AdvanceDelay())
}
