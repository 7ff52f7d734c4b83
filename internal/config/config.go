// Package config provides the YAML configuration schema and loader for the
// parley server.
package config

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/nvale/parley/pkg/pacing"
)

// LogLevel controls log verbosity for the server.
type LogLevel string

const (
	LogDebug LogLevel = "debug"
	LogInfo  LogLevel = "info"
	LogWarn  LogLevel = "warn"
	LogError LogLevel = "error"
)

// IsValid reports whether l is a recognised log level.
func (l LogLevel) IsValid() bool {
	switch l {
	case LogDebug, LogInfo, LogWarn, LogError:
		return true
	}
	return false
}

// Slog maps the level onto its slog equivalent.
func (l LogLevel) Slog() slog.Level {
	switch l {
	case LogDebug:
		return slog.LevelDebug
	case LogWarn:
		return slog.LevelWarn
	case LogError:
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// Duration decodes YAML strings like "500ms" or "2s".
type Duration time.Duration

// UnmarshalYAML implements yaml.Unmarshaler.
func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var raw string
	if err := value.Decode(&raw); err != nil {
		return err
	}
	parsed, err := time.ParseDuration(raw)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", raw, err)
	}
	*d = Duration(parsed)
	return nil
}

// Config is the root configuration structure. It is typically loaded from a
// YAML file with [Load] or [LoadFromReader].
type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Graphs   GraphsConfig   `yaml:"graphs"`
	Dialogue DialogueConfig `yaml:"dialogue"`
	Pacing   PacingConfig   `yaml:"pacing"`
}

// ServerConfig holds network and logging settings.
type ServerConfig struct {
	// ListenAddr is the TCP address the server listens on (e.g., ":8080").
	ListenAddr string `yaml:"listen_addr"`

	// LogLevel controls verbosity.
	LogLevel LogLevel `yaml:"log_level"`
}

// GraphsConfig selects where compiled dialogue graphs are loaded from.
// When RedisAddr is set it takes precedence over the directory.
type GraphsConfig struct {
	// Dir is a directory of <dialogueID>.json graph files.
	Dir string `yaml:"dir"`

	// RedisAddr points at a redis instance holding published graphs.
	RedisAddr string `yaml:"redis_addr"`
}

// DialogueConfig tunes runtime behaviour shared by every room.
type DialogueConfig struct {
	// Narrator is the display name dialogue output is attributed to.
	Narrator string `yaml:"narrator"`

	// Host is the participant whose departure is deferred mid-dialogue.
	Host string `yaml:"host"`

	// GracePeriod is how long ended dialogue state survives before cleanup.
	GracePeriod Duration `yaml:"grace_period"`
}

// PacingConfig tunes message delivery delays.
type PacingConfig struct {
	// Mode is "instant", "fixed" or "dynamic".
	Mode string `yaml:"mode"`

	FixedDelay  Duration `yaml:"fixed_delay"`
	SystemDelay Duration `yaml:"system_delay"`
	EndingDelay Duration `yaml:"ending_delay"`

	// Dynamic mode: clamp(base + per_char × content length, min, max).
	Base    Duration `yaml:"base"`
	PerChar Duration `yaml:"per_char"`
	Min     Duration `yaml:"min"`
	Max     Duration `yaml:"max"`
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			ListenAddr: ":8080",
			LogLevel:   LogInfo,
		},
		Graphs: GraphsConfig{
			Dir: "graphs",
		},
	}
}

// Load reads the YAML configuration file at path and returns a validated
// Config merged over the defaults.
func Load(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("config: open %q: %w", path, err)
	}
	defer f.Close()

	cfg, err := LoadFromReader(f)
	if err != nil {
		return nil, fmt.Errorf("config: parse %q: %w", path, err)
	}
	return cfg, nil
}

// LoadFromReader decodes a YAML config from r and validates the result.
// Useful in tests where configs are constructed from string literals.
func LoadFromReader(r io.Reader) (*Config, error) {
	cfg := Default()
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil {
		return nil, fmt.Errorf("config: decode yaml: %w", err)
	}
	if err := Validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks that cfg contains a coherent set of values. It returns a
// joined error listing every failure found.
func Validate(cfg *Config) error {
	var errs []error

	if cfg.Server.LogLevel != "" && !cfg.Server.LogLevel.IsValid() {
		errs = append(errs, fmt.Errorf("server.log_level %q is invalid; valid values: debug, info, warn, error", cfg.Server.LogLevel))
	}
	if cfg.Server.ListenAddr == "" {
		errs = append(errs, errors.New("server.listen_addr is required"))
	}
	if cfg.Graphs.Dir == "" && cfg.Graphs.RedisAddr == "" {
		errs = append(errs, errors.New("graphs.dir or graphs.redis_addr is required"))
	}
	switch pacing.Mode(cfg.Pacing.Mode) {
	case "", pacing.ModeInstant, pacing.ModeFixed, pacing.ModeDynamic:
	default:
		errs = append(errs, fmt.Errorf("pacing.mode %q is invalid; valid values: instant, fixed, dynamic", cfg.Pacing.Mode))
	}

	return errors.Join(errs...)
}

// Build merges the configured overrides over the production pacing
// constants.
func (p PacingConfig) Build() pacing.Config {
	out := pacing.DefaultConfig()
	if p.Mode != "" {
		out.Mode = pacing.Mode(p.Mode)
	}
	if p.FixedDelay != 0 {
		out.FixedDelay = time.Duration(p.FixedDelay)
	}
	if p.SystemDelay != 0 {
		out.SystemDelay = time.Duration(p.SystemDelay)
	}
	if p.EndingDelay != 0 {
		out.EndingDelay = time.Duration(p.EndingDelay)
	}
	if p.Base != 0 {
		out.Base = time.Duration(p.Base)
	}
	if p.PerChar != 0 {
		out.PerChar = time.Duration(p.PerChar)
	}
	if p.Min != 0 {
		out.Min = time.Duration(p.Min)
	}
	if p.Max != 0 {
		out.Max = time.Duration(p.Max)
	}
	return out
}
