package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"

	"github.com/jonboulle/clockwork"
	"github.com/mcdev12/vallamkali/go/internal/audio"
	"github.com/mcdev12/vallamkali/go/internal/audio/otosink"
	"github.com/mcdev12/vallamkali/go/internal/config"
	"github.com/mcdev12/vallamkali/go/internal/display"
	"github.com/mcdev12/vallamkali/go/internal/pending"
	"github.com/mcdev12/vallamkali/go/internal/relay"
	"github.com/mcdev12/vallamkali/go/internal/scene"
	"github.com/mcdev12/vallamkali/go/internal/ui"
	"github.com/nats-io/nats.go"
	"github.com/rs/zerolog/log"
)

// The display: waits on the intro screen for a session-start from the
// relay, runs the race in the terminal and goes back to the intro on
// session-restart.
func main() {
	config.LoadDotEnv()
	config.SetupLogging()

	hostname, _ := os.Hostname()
	var (
		relayURL   = flag.String("relay", config.GetEnv("RELAY_URL", "ws://localhost:8081/ws/relay"), "relay websocket URL")
		configPath = flag.String("config", config.GetEnv("GAME_CONFIG", ""), "YAML tuning file")
		renderer   = flag.String("renderer", config.GetEnv("RENDERER", "terminal"), "renderer: terminal or headless")
		assets     = flag.String("assets", config.GetEnv("ASSET_ROOT", "."), "directory holding static/models")
		displayID  = flag.String("id", config.GetEnv("DISPLAY_ID", hostname), "display id for the pending store")
		natsURL    = flag.String("nats", config.GetEnv("NATS_URL", ""), "NATS URL for the pending store, empty keeps it in memory")
		withAudio  = flag.Bool("audio", config.GetEnv("AUDIO_ENABLED", "true") == "true", "play sound")
	)
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load game config")
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	var gateway *audio.Gateway
	if *withAudio {
		gateway = audio.NewGateway(cfg.Audio, otosink.New(), nil)
		defer gateway.Close()
	}

	store, nc := pendingStore(ctx, *natsURL, *displayID)
	if nc != nil {
		defer nc.Drain()
	}

	env := display.Env{
		Config:   cfg,
		Audio:    gateway,
		View:     ui.LogView{},
		Renderer: *renderer,
		Out:      os.Stdout,
		Loader:   scene.FileLoader{Root: *assets},
	}

	var nav *display.Navigator
	client := relay.NewClient(relay.DefaultClientConfig(*relayURL, relay.RoleDisplay), func(m relay.Message) {
		nav.HandleMessage(m)
	})
	nav = display.NewNavigator(ctx, env.Launch, store, client, clockwork.NewRealClock())
	defer nav.Close()

	if resumed, err := nav.Resume(); err != nil {
		log.Error().Err(err).Msg("failed to resume pending race")
	} else if !resumed {
		log.Info().Msg("waiting for players on the intro screen")
	}

	go func() {
		if err := client.Run(ctx); err != nil {
			log.Error().Err(err).Msg("relay client stopped")
		}
	}()

	keys := display.NewShortcuts(nav, gateway, nil, display.DefaultHold)
	go func() {
		if err := display.ReadKeys(ctx, os.Stdin, keys.Press); err != nil {
			log.Debug().Err(err).Msg("key reader stopped")
		}
	}()

	<-ctx.Done()
	log.Info().Msg("shutting down display")
}

// pendingStore keeps pending player data in JetStream when NATS is
// configured so that a restarted display can resume its race.
func pendingStore(ctx context.Context, url, displayID string) (pending.Store, *nats.Conn) {
	if url == "" {
		return pending.NewMemory(), nil
	}

	natsCfg := relay.DefaultNATSConfig()
	natsCfg.URL = url
	natsCfg.Name = "vallamkali-display-" + displayID
	nc, err := relay.ConnectNATS(natsCfg)
	if err != nil {
		log.Warn().Err(err).Msg("NATS unavailable, keeping pending data in memory")
		return pending.NewMemory(), nil
	}

	kv, err := pending.NewKV(ctx, nc, pending.DefaultKVConfig(), displayID)
	if err != nil {
		log.Warn().Err(err).Msg("JetStream unavailable, keeping pending data in memory")
		nc.Close()
		return pending.NewMemory(), nil
	}
	log.Info().Str("display_id", displayID).Msg("pending data stored in JetStream")
	return kv, nc
}
