// Package config loads tombala-cup settings: a YAML file on top of built-in
// defaults, then environment variables on top of that.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"strings"

	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v3"

	"tombala-cup/server/engine"
	"tombala-cup/server/match"
)

// DefaultPath is read when neither a path nor TOMBALA_CONFIG is given.
const DefaultPath = "tombala.yaml"

// Config holds the configuration settings.
type Config struct {
	Rules         engine.Rules `yaml:"rules"`
	BotDifficulty string       `yaml:"bot_difficulty" env:"BOT_DIFFICULTY"`

	// Profiles and PlayerProfile are merged field by field in Load, so they
	// are not decoded with the rest of the file. A profile that leaves mines
	// unset gets Rules.MineCount; the built-in difficulties keep their own.
	Profiles      map[string]match.Profile `yaml:"-"`
	PlayerProfile match.Profile            `yaml:"-"`

	// Seed 0 picks a fresh seed per run.
	Seed        int64  `yaml:"seed" env:"TOMBALA_SEED"`
	LogLevel    string `yaml:"log_level" env:"LOG_LEVEL"`
	CardMatches bool   `yaml:"card_matches" env:"CARD_MATCHES"`

	Bench BenchConfig `yaml:"bench"`
}

// BenchConfig drives the multi-tournament benchmark.
type BenchConfig struct {
	Tournaments int     `yaml:"tournaments" env:"BENCH_TOURNAMENTS"`
	EloStart    float64 `yaml:"elo_start" env:"ELO_START"`
	EloK        float64 `yaml:"elo_k" env:"ELO_K"`
	GlickoTau   float64 `yaml:"glicko_tau" env:"GLICKO_TAU"`
	Bootstrap   int     `yaml:"bootstrap" env:"BENCH_BOOTSTRAP"`
	Top         int     `yaml:"top" env:"BENCH_TOP"`

	// MaxSeconds and StopFile end a long run early; the tournament in
	// progress is finished first.
	MaxSeconds int    `yaml:"max_seconds" env:"MAX_SECONDS"`
	StopFile   string `yaml:"stop_file" env:"STOP_FILE"`
}

func Default() Config {
	return Config{
		Rules:         engine.DefaultRules(),
		BotDifficulty: match.Medium,
		Profiles:      match.Profiles(),
		PlayerProfile: match.PlayerProfile(),
		LogLevel:      "info",
		Bench: BenchConfig{
			Tournaments: 200,
			EloStart:    1500,
			EloK:        24,
			GlickoTau:   0.5,
			Bootstrap:   2000,
			Top:         10,
		},
	}
}

// Load reads path (or $TOMBALA_CONFIG, or DefaultPath) over the defaults and
// applies environment overrides. A missing file is not an error.
func Load(path string) (*Config, error) {
	if path == "" {
		path = os.Getenv("TOMBALA_CONFIG")
	}
	if path == "" {
		path = DefaultPath
	}

	cfg := Default()
	var overlay profileOverlay
	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
	case err != nil:
		return nil, fmt.Errorf("read config %s: %w", path, err)
	default:
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("failed to unmarshal config: %w", err)
		}
		if err := yaml.Unmarshal(data, &overlay); err != nil {
			return nil, fmt.Errorf("failed to unmarshal config: %w", err)
		}
	}
	cfg.applyProfiles(overlay)

	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// fileProfile is a profile as written in the file; nil fields were not set.
type fileProfile struct {
	Mines    *int             `yaml:"mines"`
	Strategy *engine.Strategy `yaml:"strategy"`
}

func (p fileProfile) over(base match.Profile) match.Profile {
	if p.Mines != nil {
		base.Mines = *p.Mines
	}
	if p.Strategy != nil {
		base.Strategy = *p.Strategy
	}
	return base
}

type profileOverlay struct {
	Profiles      map[string]fileProfile `yaml:"profiles"`
	PlayerProfile *fileProfile           `yaml:"player_profile"`
}

// applyProfiles lays the file's profile fields over the defaults. The
// player and any new profile take their mine count from the rules unless
// the file says otherwise.
func (c *Config) applyProfiles(o profileOverlay) {
	if c.Profiles == nil {
		c.Profiles = map[string]match.Profile{}
	}
	for name, p := range o.Profiles {
		base, ok := c.Profiles[name]
		if !ok {
			base = match.Profile{Mines: c.Rules.MineCount, Strategy: engine.Balanced}
		}
		c.Profiles[name] = p.over(base)
	}
	player := c.PlayerProfile
	player.Mines = c.Rules.MineCount
	if o.PlayerProfile != nil {
		player = o.PlayerProfile.over(player)
	}
	c.PlayerProfile = player
}

func (c *Config) Validate() error {
	if err := c.Rules.Validate(); err != nil {
		return fmt.Errorf("rules: %w", err)
	}
	if _, err := c.BotProfile(); err != nil {
		return err
	}
	for name, p := range c.Profiles {
		if err := validProfile(p); err != nil {
			return fmt.Errorf("profile %s: %w", name, err)
		}
	}
	if err := validProfile(c.PlayerProfile); err != nil {
		return fmt.Errorf("player_profile: %w", err)
	}
	if _, err := c.SlogLevel(); err != nil {
		return err
	}

	b := c.Bench
	switch {
	case b.Tournaments < 1:
		return fmt.Errorf("bench.tournaments must be >= 1, got %d", b.Tournaments)
	case b.EloK <= 0:
		return fmt.Errorf("bench.elo_k must be > 0, got %g", b.EloK)
	case b.GlickoTau <= 0:
		return fmt.Errorf("bench.glicko_tau must be > 0, got %g", b.GlickoTau)
	case b.Bootstrap < 0:
		return fmt.Errorf("bench.bootstrap must be >= 0, got %d", b.Bootstrap)
	case b.MaxSeconds < 0:
		return fmt.Errorf("bench.max_seconds must be >= 0, got %d", b.MaxSeconds)
	}
	return nil
}

func validProfile(p match.Profile) error {
	if p.Mines < 0 || p.Mines > engine.PerCard {
		return fmt.Errorf("mines %d outside 0..%d", p.Mines, engine.PerCard)
	}
	_, err := engine.ParseStrategy(string(p.Strategy))
	return err
}

// BotProfile resolves BotDifficulty against Profiles.
func (c *Config) BotProfile() (match.Profile, error) {
	p, ok := c.Profiles[strings.ToLower(c.BotDifficulty)]
	if !ok {
		return match.Profile{}, fmt.Errorf("%w: %q", match.ErrUnknownDifficulty, c.BotDifficulty)
	}
	return p, nil
}

func (c *Config) SlogLevel() (slog.Level, error) {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return 0, fmt.Errorf("log_level: %w", err)
	}
	return lvl, nil
}
