package cmd

import (
	"strings"
	"testing"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/deadloct/card-tournament-bot/game"
	"github.com/deadloct/card-tournament-bot/settings"
	log "github.com/sirupsen/logrus"
)

func init() {
	log.SetLevel(log.WarnLevel)
}

func intOption(name string, v int) *discordgo.ApplicationCommandInteractionDataOption {
	return &discordgo.ApplicationCommandInteractionDataOption{
		Name:  name,
		Type:  discordgo.ApplicationCommandOptionInteger,
		Value: float64(v),
	}
}

func stringOption(name, v string) *discordgo.ApplicationCommandInteractionDataOption {
	return &discordgo.ApplicationCommandInteractionDataOption{
		Name:  name,
		Type:  discordgo.ApplicationCommandOptionString,
		Value: v,
	}
}

func TestPlayRequest(t *testing.T) {
	cfg := settings.Config{
		Rounds:        3,
		HandSize:      4,
		RoundTimeout:  10 * time.Second,
		ForfeitPolicy: "eliminate",
		Seed:          42,
		Players:       []string{"Ana", "Bo"},
	}

	manyPlayers := make([]string, settings.MaximumPlayers+2)
	for i := range manyPlayers {
		manyPlayers[i] = strings.Repeat("p", i+1)
	}

	tests := map[string]struct {
		Options  []*discordgo.ApplicationCommandInteractionDataOption
		Rounds   int
		HandSize int
		Players  int
		Warnings int
	}{
		"defaults": {
			Rounds: 3, HandSize: 4, Players: 2,
		},
		"explicit": {
			Options: []*discordgo.ApplicationCommandInteractionDataOption{
				intOption(CommandPlayOptionRounds, 5),
				intOption(CommandPlayOptionHandSize, 6),
				stringOption(CommandOptionPlayers, "Cy, Di ,  ,Ed"),
			},
			Rounds: 5, HandSize: 6, Players: 3,
		},
		"clamped": {
			Options: []*discordgo.ApplicationCommandInteractionDataOption{
				intOption(CommandPlayOptionRounds, 0),
				intOption(CommandPlayOptionHandSize, 50),
				stringOption(CommandOptionPlayers, strings.Join(manyPlayers, ",")),
			},
			Rounds: settings.DefaultRounds, HandSize: settings.MaximumHandSize, Players: settings.MaximumPlayers, Warnings: 3,
		},
	}

	m := NewManager(nil, cfg, "help")
	for name, test := range tests {
		t.Run(name, func(t *testing.T) {
			req, warnings := m.playRequest(test.Options)

			if req.Rounds != test.Rounds || req.HandSize != test.HandSize {
				t.Fatalf("rounds=%v hand=%v, want %v %v", req.Rounds, req.HandSize, test.Rounds, test.HandSize)
			}

			if len(req.Players) != test.Players {
				t.Fatalf("players = %v, want %v of them", req.Players, test.Players)
			}

			if len(warnings) != test.Warnings {
				t.Fatalf("warnings = %v, want %v", warnings, test.Warnings)
			}

			if req.ForfeitPolicy != game.ForfeitEliminates || req.Seed != 42 || req.RoundTimeout != 10*time.Second {
				t.Fatalf("config not carried over: %+v", req)
			}
		})
	}
}

func TestSplitPlayers(t *testing.T) {
	got := splitPlayers("Ana<@123>, B*o, , [Cy]")
	want := []string{"Ana123", "Bo", "[Cy]"}

	if strings.Join(got, "|") != strings.Join(want, "|") {
		t.Fatalf("splitPlayers = %q, want %q", got, want)
	}
}

func TestCommandsAreUnique(t *testing.T) {
	seen := make(map[string]bool)
	for _, c := range commands {
		if seen[c.Name] {
			t.Fatalf("command %v registered twice", c.Name)
		}
		seen[c.Name] = true

		if !strings.HasPrefix(c.Name, CommandPrefix) {
			t.Fatalf("command %v is missing prefix %v", c.Name, CommandPrefix)
		}
	}
}
