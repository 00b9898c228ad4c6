package settings

import (
	"fmt"
	"strings"
	"time"

	log "github.com/sirupsen/logrus"
)

const (
	DefaultRounds = 3
	MinimumRounds = 1
	MaximumRounds = 20

	DefaultHandSize = 4
	MinimumHandSize = 1
	MaximumHandSize = 8

	MinimumPlayers = 2
	MaximumPlayers = 16

	DefaultRoundTimeout = 10 * time.Second

	DiscordMaxMessageLength = 2000

	DefaultSeparator = "_,.-'~'-.,__,.-'~'-.,_"
)

var DefaultPlayers = []string{"Player 1", "Player 2", "Player 3", "Player 4", "Player 5"}

type Config struct {
	Env           string        `env:"ENV" envDefault:"development"`
	DiscordToken  string        `env:"DISCORD_TOKEN"`
	DatabasePath  string        `env:"DATABASE_PATH" envDefault:"tournament.db"`
	LogLevel      string        `env:"LOG_LEVEL" envDefault:"info"`
	Rounds        int           `env:"ROUNDS" envDefault:"3"`
	HandSize      int           `env:"HAND_SIZE" envDefault:"4"`
	RoundTimeout  time.Duration `env:"ROUND_TIMEOUT" envDefault:"10s"`
	ThinkTime     time.Duration `env:"THINK_TIME" envDefault:"0s"`
	ForfeitPolicy string        `env:"FORFEIT_POLICY" envDefault:"forfeit-round"`
	Seed          int64         `env:"SEED"`
	Players       []string      `env:"PLAYERS" envSeparator:","`
	OTelEndpoint  string        `env:"OTEL_ENDPOINT"`
}

// Load reads the config from the environment and clamps out-of-range values.
func Load() (Config, error) {
	var cfg Config
	if err := ParseEnv(&cfg); err != nil {
		return cfg, err
	}

	cfg.Rounds = clamp("rounds", cfg.Rounds, MinimumRounds, MaximumRounds, DefaultRounds)
	cfg.HandSize = clamp("hand size", cfg.HandSize, MinimumHandSize, MaximumHandSize, DefaultHandSize)

	if cfg.RoundTimeout <= 0 {
		log.Warnf("round timeout %v is not positive, using %v", cfg.RoundTimeout, DefaultRoundTimeout)
		cfg.RoundTimeout = DefaultRoundTimeout
	}

	if cfg.ThinkTime >= cfg.RoundTimeout {
		log.Warnf("think time %v would forfeit every round, ignoring it", cfg.ThinkTime)
		cfg.ThinkTime = 0
	}

	var players []string
	for _, p := range cfg.Players {
		if p = strings.TrimSpace(p); p != "" {
			players = append(players, p)
		}
	}

	if len(players) == 0 {
		players = append(players, DefaultPlayers...)
	}

	if len(players) < MinimumPlayers || len(players) > MaximumPlayers {
		return cfg, fmt.Errorf("need between %v and %v players, got %v", MinimumPlayers, MaximumPlayers, len(players))
	}

	cfg.Players = players
	return cfg, nil
}

func (c Config) Level() log.Level {
	level, err := log.ParseLevel(c.LogLevel)
	if err != nil {
		log.Warnf("unknown log level %q, using info", c.LogLevel)
		return log.InfoLevel
	}

	return level
}

func clamp(name string, v, min, max, def int) int {
	switch {
	case v < min:
		log.Warnf("%v of %v is much too low, using %v", name, v, def)
		return def
	case v > max:
		log.Warnf("%v of %v is much too high, using %v", name, v, max)
		return max
	}

	return v
}
