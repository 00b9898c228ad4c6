package cmd

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/bwmarrin/discordgo"
	"github.com/deadloct/card-tournament-bot/game"
	"github.com/deadloct/card-tournament-bot/settings"
	log "github.com/sirupsen/logrus"
)

var nonAlphanumericRegex = regexp.MustCompile(`[^\p{L}\p{N}\-_\.\[\] ]+`)

// Manager turns slash commands into tournament operations.
type Manager struct {
	games *game.Manager
	cfg   settings.Config
	help  string
}

func NewManager(games *game.Manager, cfg settings.Config, help string) *Manager {
	return &Manager{games: games, cfg: cfg, help: help}
}

func (m *Manager) CommandHandler(session *discordgo.Session, ic *discordgo.InteractionCreate) {
	if ic.Type != discordgo.InteractionApplicationCommand {
		return
	}

	if ic.Member == nil {
		log.Infof("user attempted to run the bot from outside a channel: %v", ic.User.ID)
		err := session.InteractionRespond(ic.Interaction, &discordgo.InteractionResponse{
			Type: discordgo.InteractionResponseChannelMessageWithSource,
			Data: &discordgo.InteractionResponseData{Content: "Matches can only be played in a server channel."},
		})

		if err != nil {
			log.Errorf("error when user attempted to run commands outside a channel: %v", err)
		}

		return
	}

	session.InteractionRespond(ic.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{Content: "> Command acknowledged. Shuffling the deck."},
	})

	data := ic.ApplicationCommandData()
	log.Infof("%v issued command %v", memberName(ic.Member), data.Name)

	sender := game.NewDiscordSender(session, ic.ChannelID)
	ctx := context.Background()

	switch data.Name {
	case CommandHelp:
		sender.SendNormal(m.help)

	case CommandPlay:
		req, warnings := m.playRequest(data.Options)
		for _, w := range warnings {
			sender.SendNormal(w)
			log.Warn(w)
		}

		req.Channel = ic.ChannelID
		req.Sender = sender
		if _, err := m.games.StartMatch(ctx, req); err != nil {
			log.Errorf("error starting match: %v", err)
		}

	case CommandStats:
		competitors, err := m.games.Stats(ctx)
		if err != nil {
			log.Errorf("error fetching stats: %v", err)
			sender.SendNormal("There was an unexpected error fetching the stats.")
			return
		}

		sender.SendEmbed(game.StatsReport(competitors))

	case CommandResetHands:
		names := m.players(data.Options)
		if err := m.games.ResetHands(ctx, names, m.cfg.HandSize); err != nil {
			log.Errorf("error resetting hands: %v", err)
			sender.SendNormal(fmt.Sprintf("Could not deal new hands: %v", err))
			return
		}

		sender.SendNormal("New hands have been dealt.")

	case CommandClearStats:
		if err := m.games.ClearStats(ctx); err != nil {
			log.Errorf("error clearing stats: %v", err)
			sender.SendNormal("There was an unexpected error clearing the stats.")
			return
		}

		sender.SendNormal("Every record is back to zero.")

	case CommandCancel:
		if m.games.EndMatch(ic.ChannelID) {
			sender.SendNormal("The match in this channel has been cancelled.")
		} else {
			sender.SendNormal("There is no match running in this channel.")
		}
	}
}

// playRequest builds a match request from the command options, clamping out of range
// values. The returned warnings explain every adjustment.
func (m *Manager) playRequest(options []*discordgo.ApplicationCommandInteractionDataOption) (game.MatchRequest, []string) {
	policy, err := game.ParseForfeitPolicy(m.cfg.ForfeitPolicy)
	if err != nil {
		log.Warnf("%v, using %v", err, policy)
	}

	req := game.MatchRequest{
		Players:       m.cfg.Players,
		Rounds:        m.cfg.Rounds,
		HandSize:      m.cfg.HandSize,
		RoundTimeout:  m.cfg.RoundTimeout,
		ThinkTime:     m.cfg.ThinkTime,
		ForfeitPolicy: policy,
		Seed:          m.cfg.Seed,
	}

	var warnings []string
	for _, option := range options {
		switch option.Name {
		case CommandOptionPlayers:
			players := splitPlayers(option.StringValue())
			if len(players) > settings.MaximumPlayers {
				warnings = append(warnings, fmt.Sprintf("> %v players is far too many. Only the first %v will play.", len(players), settings.MaximumPlayers))
				players = players[:settings.MaximumPlayers]
			}

			if len(players) > 0 {
				req.Players = players
			}

		case CommandPlayOptionRounds:
			v := int(option.IntValue())
			switch {
			case v < settings.MinimumRounds:
				warnings = append(warnings, fmt.Sprintf("> %v rounds is much too few. Playing %v instead.", v, settings.DefaultRounds))
				req.Rounds = settings.DefaultRounds
			case v > settings.MaximumRounds:
				warnings = append(warnings, fmt.Sprintf("> %v rounds is much too many. Playing %v instead.", v, settings.MaximumRounds))
				req.Rounds = settings.MaximumRounds
			default:
				req.Rounds = v
			}

		case CommandPlayOptionHandSize:
			v := int(option.IntValue())
			switch {
			case v < settings.MinimumHandSize:
				warnings = append(warnings, fmt.Sprintf("> A hand of %v is much too small. Dealing %v instead.", v, settings.DefaultHandSize))
				req.HandSize = settings.DefaultHandSize
			case v > settings.MaximumHandSize:
				warnings = append(warnings, fmt.Sprintf("> A hand of %v is much too big. Dealing %v instead.", v, settings.MaximumHandSize))
				req.HandSize = settings.MaximumHandSize
			default:
				req.HandSize = v
			}
		}
	}

	return req, warnings
}

func (m *Manager) players(options []*discordgo.ApplicationCommandInteractionDataOption) []string {
	for _, option := range options {
		if option.Name == CommandOptionPlayers {
			return splitPlayers(option.StringValue())
		}
	}

	return nil
}

func splitPlayers(str string) []string {
	var out []string
	for _, name := range strings.Split(str, ",") {
		if name = strings.TrimSpace(sanitize(name)); name != "" {
			out = append(out, name)
		}
	}

	return out
}

func sanitize(str string) string {
	return nonAlphanumericRegex.ReplaceAllString(str, "")
}

func memberName(member *discordgo.Member) string {
	if member.Nick != "" {
		return member.Nick
	}

	if member.User != nil {
		return member.User.Username
	}

	return "unknown member"
}
