package game

import (
	"errors"
	"strings"

	"github.com/bwmarrin/discordgo"
	"github.com/deadloct/card-tournament-bot/settings"
	log "github.com/sirupsen/logrus"
)

type Sender interface {
	SendNormal(str string) (*discordgo.Message, error)
	SendEmbed(str string) (*discordgo.Message, error)
}

type DiscordSender struct {
	channelID string
	session   *discordgo.Session
}

func NewDiscordSender(session *discordgo.Session, channelID string) *DiscordSender {
	return &DiscordSender{
		channelID: channelID,
		session:   session,
	}
}

// SendNormal posts str as block quotes, split across as many messages as needed.
func (s *DiscordSender) SendNormal(str string) (*discordgo.Message, error) {
	return s.sendChunks(str, func(chunk string) (*discordgo.Message, error) {
		return s.session.ChannelMessageSend(s.channelID, chunk)
	}, quote)
}

func (s *DiscordSender) SendEmbed(str string) (*discordgo.Message, error) {
	return s.sendChunks(str, func(chunk string) (*discordgo.Message, error) {
		return s.session.ChannelMessageSendEmbed(s.channelID, &discordgo.MessageEmbed{Description: chunk})
	}, nil)
}

func (s *DiscordSender) sendChunks(str string, send func(string) (*discordgo.Message, error), decorate func(string) string) (*discordgo.Message, error) {
	if decorate != nil {
		str = decorate(str)
	}

	var (
		last *discordgo.Message
		errs []error
	)

	for _, chunk := range chunkMessage(str, settings.DiscordMaxMessageLength) {
		log.Tracef("sending message of length %v", len(chunk))
		msg, err := send(chunk)
		if err != nil {
			log.Errorf("error sending message of length %v: %v", len(chunk), err)
			errs = append(errs, err)
			continue
		}

		last = msg
	}

	return last, errors.Join(errs...)
}

// chunkMessage packs whole lines into chunks of at most limit bytes. A single line longer
// than limit is split on word boundaries, and a single word longer than limit is cut.
func chunkMessage(str string, limit int) []string {
	var (
		chunks  []string
		payload string
	)

	flush := func() {
		if payload != "" {
			chunks = append(chunks, payload)
			payload = ""
		}
	}

	add := func(piece, sep string) {
		if payload != "" && len(payload)+len(sep)+len(piece) > limit {
			flush()
		}

		if payload == "" {
			payload = piece
		} else {
			payload += sep + piece
		}
	}

	for _, line := range strings.Split(str, "\n") {
		if len(line) <= limit {
			add(line, "\n")
			continue
		}

		flush()
		for _, word := range strings.Fields(line) {
			for len(word) > limit {
				flush()
				chunks = append(chunks, word[:limit])
				word = word[limit:]
			}

			add(word, " ")
		}
		flush()
	}

	flush()
	return chunks
}

func quote(str string) string {
	lines := strings.Split(str, "\n")
	for i, l := range lines {
		lines[i] = "> " + l
	}

	return strings.Join(lines, "\n")
}

// LogSender writes output to the log instead of a channel.
type LogSender struct{}

func (LogSender) SendNormal(str string) (*discordgo.Message, error) {
	for _, line := range strings.Split(str, "\n") {
		log.Info(line)
	}

	return nil, nil
}

func (s LogSender) SendEmbed(str string) (*discordgo.Message, error) {
	return s.SendNormal(str)
}
