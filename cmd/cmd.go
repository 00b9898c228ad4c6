package cmd

import (
	"fmt"

	"github.com/bwmarrin/discordgo"
	"github.com/deadloct/card-tournament-bot/settings"
	log "github.com/sirupsen/logrus"
)

const (
	CommandPrefix             = "cards-"
	CommandHelp               = CommandPrefix + "help"
	CommandPlay               = CommandPrefix + "play"
	CommandOptionPlayers      = "players"
	CommandPlayOptionRounds   = "rounds"
	CommandPlayOptionHandSize = "hand-size"
	CommandStats              = CommandPrefix + "stats"
	CommandResetHands         = CommandPrefix + "reset-hands"
	CommandClearStats         = CommandPrefix + "clear-stats"
	CommandCancel             = CommandPrefix + "cancel"
)

var commands = []*discordgo.ApplicationCommand{
	{
		Name:        CommandHelp,
		Description: "Explains how to use this bot",
	},
	{
		Name:        CommandPlay,
		Description: "Starts a card tournament match in this channel",
		Options: []*discordgo.ApplicationCommandOption{
			{
				Type: discordgo.ApplicationCommandOptionString,
				Name: CommandOptionPlayers,
				Description: fmt.Sprintf(
					"Comma separated player names, %v to %v. Default: the configured players",
					settings.MinimumPlayers, settings.MaximumPlayers),
				Required: false,
			},
			{
				Type: discordgo.ApplicationCommandOptionInteger,
				Name: CommandPlayOptionRounds,
				Description: fmt.Sprintf(
					"Number of rounds. Default: %v, Min: %v, Max: %v",
					settings.DefaultRounds, settings.MinimumRounds, settings.MaximumRounds),
				Required: false,
			},
			{
				Type: discordgo.ApplicationCommandOptionInteger,
				Name: CommandPlayOptionHandSize,
				Description: fmt.Sprintf(
					"Cards dealt to each player. Default: %v, Min: %v, Max: %v",
					settings.DefaultHandSize, settings.MinimumHandSize, settings.MaximumHandSize),
				Required: false,
			},
		},
	},
	{
		Name:        CommandStats,
		Description: "Shows every player's wins and losses",
	},
	{
		Name:        CommandResetHands,
		Description: "Deals new hands",
		Options: []*discordgo.ApplicationCommandOption{
			{
				Type:        discordgo.ApplicationCommandOptionString,
				Name:        CommandOptionPlayers,
				Description: "Comma separated player names. Default: everyone",
				Required:    false,
			},
		},
	},
	{
		Name:        CommandClearStats,
		Description: "Resets every player's wins and losses",
	},
	{
		Name:        CommandCancel,
		Description: "Cancels the match running in this channel",
	},
}

func RegisterCommands(session *discordgo.Session) error {
	log.Info("registering commands")

	for _, v := range commands {
		if _, err := session.ApplicationCommandCreate(session.State.User.ID, "", v); err != nil {
			log.Errorf("error creating command %v: %v", v.Name, err)
			return err
		}

		log.Infof("registered command %v", v.Name)
	}

	log.Info("finished registering commands")
	return nil
}

func DeregisterCommands(session *discordgo.Session) error {
	existing, err := session.ApplicationCommands(session.State.User.ID, "")
	if err != nil {
		log.Errorf("could not retrieve existing commands: %v", err)
		return err
	}

	log.Info("deregistering commands")

	for _, v := range existing {
		if err := session.ApplicationCommandDelete(session.State.User.ID, "", v.ID); err != nil {
			log.Infof("failed to deregister command %v: %v", v.Name, err)
			continue
		}

		log.Infof("deregistered command %v", v.Name)
	}

	log.Info("finished deregistering commands")
	return nil
}
