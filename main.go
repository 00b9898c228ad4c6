package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/bwmarrin/discordgo"
	"github.com/deadloct/card-tournament-bot/cmd"
	"github.com/deadloct/card-tournament-bot/data"
	"github.com/deadloct/card-tournament-bot/game"
	"github.com/deadloct/card-tournament-bot/lib"
	"github.com/deadloct/card-tournament-bot/settings"
	"github.com/deadloct/card-tournament-bot/storage/sqlite"
	"github.com/deadloct/card-tournament-bot/telemetry"
	log "github.com/sirupsen/logrus"
)

const serviceName = "card-tournament-bot"

func main() {
	settings.LoadEnvFiles()

	cfg, err := settings.Load()
	if err != nil {
		log.Fatalf("invalid config: %v", err)
	}

	log.SetLevel(cfg.Level())
	log.Debugf("running in %v", cfg.Env)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM, os.Interrupt)
	defer stop()

	shutdown, err := telemetry.Setup(ctx, serviceName, cfg.OTelEndpoint)
	if err != nil {
		log.Warnf("tracing disabled: %v", err)
	}
	defer shutdown(context.Background())

	rng, seed, err := lib.NewRand(cfg.Seed)
	if err != nil {
		log.Fatal(err)
	}
	log.Debugf("dealing with seed %v", seed)

	store, err := sqlite.Open(cfg.DatabasePath, rng)
	if err != nil {
		log.Fatalf("error opening database: %v", err)
	}
	defer store.Close()

	deck, err := data.DefaultItems()
	if err != nil {
		log.Fatalf("error loading deck: %v", err)
	}

	added, err := store.SeedItems(ctx, deck)
	if err != nil {
		log.Fatalf("error seeding deck: %v", err)
	}
	log.Infof("deck ready, %v new items", added)

	games := game.NewManager(game.ManagerConfig{
		Competitors: store.Competitors(),
		Items:       store.Items(),
		Hands:       store.Hands(),
		Recorder:    store,
		PhraseData:  data.PhrasesJSON,
	})

	if cfg.DiscordToken == "" {
		runLocal(ctx, games, cfg)
		return
	}

	runBot(ctx, games, cfg)
}

// runLocal plays a single match between the configured players and logs it.
func runLocal(ctx context.Context, games *game.Manager, cfg settings.Config) {
	log.Info("no discord token configured, playing a local match")

	policy, err := game.ParseForfeitPolicy(cfg.ForfeitPolicy)
	if err != nil {
		log.Warnf("%v, using %v", err, policy)
	}

	result, err := games.RunLocal(ctx, game.MatchRequest{
		Players:       cfg.Players,
		Rounds:        cfg.Rounds,
		HandSize:      cfg.HandSize,
		RoundTimeout:  cfg.RoundTimeout,
		ThinkTime:     cfg.ThinkTime,
		ForfeitPolicy: policy,
		Seed:          cfg.Seed,
		Sender:        game.LogSender{},
	})
	if err != nil {
		log.Errorf("match failed: %v", err)
		return
	}

	if winner, ok := result.Winner(); ok {
		log.Infof("%v wins the match", winner.Name)
	}
}

func runBot(ctx context.Context, games *game.Manager, cfg settings.Config) {
	session, err := discordgo.New("Bot " + cfg.DiscordToken)
	if err != nil {
		log.Fatalf("error creating discord session: %v", err)
	}

	help, err := data.Help(data.HelpValues{
		Rounds:          cfg.Rounds,
		HandSize:        cfg.HandSize,
		RoundTimeout:    cfg.RoundTimeout.String(),
		MinimumRounds:   settings.MinimumRounds,
		MaximumRounds:   settings.MaximumRounds,
		MaximumHandSize: settings.MaximumHandSize,
		MaximumPlayers:  settings.MaximumPlayers,
	})
	if err != nil {
		log.Fatal(err)
	}

	handler := cmd.NewManager(games, cfg, help)
	session.Identify.Intents = discordgo.IntentsGuilds
	session.AddHandler(handler.CommandHandler)

	if err := session.Open(); err != nil {
		log.Fatalf("error opening discord session: %v", err)
	}
	defer session.Close()

	if err := cmd.RegisterCommands(session); err != nil {
		log.Fatalf("error registering commands: %v", err)
	}

	log.Info("Bot is now running. Press CTRL-C to exit.")
	<-ctx.Done()

	log.Info("Bot exiting...")
	if err := cmd.DeregisterCommands(session); err != nil {
		log.Warnf("error deregistering commands: %v", err)
	}
}
