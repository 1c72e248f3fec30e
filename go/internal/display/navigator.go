// Package display is the display context: it turns relay messages into
// navigation between the intro screen and a running race, and keeps the
// pending player data of the current race.
package display

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/jonboulle/clockwork"
	"github.com/mcdev12/vallamkali/go/internal/controls"
	"github.com/mcdev12/vallamkali/go/internal/pending"
	"github.com/mcdev12/vallamkali/go/internal/race"
	"github.com/mcdev12/vallamkali/go/internal/relay"
	"github.com/rs/zerolog/log"
)

// Screen is what the display is showing.
type Screen int

const (
	ScreenIntro Screen = iota
	ScreenGame
)

func (s Screen) String() string {
	switch s {
	case ScreenIntro:
		return "intro"
	case ScreenGame:
		return "game"
	default:
		return "unknown"
	}
}

var ErrNotOnIntro = errors.New("display is not on the intro screen")

// Game is a running race as the navigator sees it.
type Game interface {
	// Do runs fn on the race goroutine. It reports false once the race is
	// gone.
	Do(fn func(s *race.Session)) bool
	// Keys runs fn with the race keyboard on the race goroutine.
	Keys(fn func(k *controls.Keyboard)) bool
	// Phase is safe from any goroutine.
	Phase() race.Phase
	Players() race.PlayerInfo
	Stop()
}

// Launcher starts a race for players.
type Launcher func(ctx context.Context, players race.PlayerInfo) (Game, error)

// Sender publishes a message on the relay.
type Sender interface {
	Publish(topic relay.Topic, payload any) (relay.Message, error)
}

// Navigator owns the current screen. Its methods are safe for concurrent
// use; relay messages and keyboard shortcuts arrive on different goroutines.
type Navigator struct {
	ctx    context.Context
	launch Launcher
	store  pending.Store
	sender Sender
	clock  clockwork.Clock

	mu     sync.Mutex
	screen Screen
	game   Game
	query  string
}

func NewNavigator(ctx context.Context, launch Launcher, store pending.Store, sender Sender, clock clockwork.Clock) *Navigator {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	if store == nil {
		store = pending.NewMemory()
	}
	return &Navigator{
		ctx:    ctx,
		launch: launch,
		store:  store,
		sender: sender,
		clock:  clock,
	}
}

func (n *Navigator) Screen() Screen {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.screen
}

// Current returns the running race, or nil on the intro screen.
func (n *Navigator) Current() Game {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.game
}

// Query is the navigation query the current race was started from.
func (n *Navigator) Query() string {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.query
}

// HandleMessage is the relay client's message handler.
func (n *Navigator) HandleMessage(m relay.Message) {
	switch m.Topic {
	case relay.TopicSessionStart:
		start, err := relay.DecodePayload[relay.SessionStart](m)
		if err != nil {
			log.Warn().Err(err).Str("message_id", m.ID).Msg("dropping malformed session-start")
			return
		}
		if err := n.Start(start); err != nil && !errors.Is(err, ErrNotOnIntro) {
			log.Error().Err(err).Str("message_id", m.ID).Msg("failed to start race")
		}
	case relay.TopicSessionRestart:
		if err := n.Restart(); err != nil {
			log.Error().Err(err).Str("message_id", m.ID).Msg("failed to restart display")
		}
	case relay.TopicDebugPong:
		log.Info().RawJSON("data", m.Data).Msg("debug pong")
	}
}

// Start begins a race from the intro screen. A session-start that arrives
// while a race is on screen is ignored with ErrNotOnIntro.
func (n *Navigator) Start(start relay.SessionStart) error {
	n.mu.Lock()
	defer n.mu.Unlock()

	if n.screen != ScreenIntro {
		log.Info().Str("screen", n.screen.String()).Msg("ignoring session-start, race already on screen")
		return ErrNotOnIntro
	}

	if err := n.enterGameLocked(start); err != nil {
		return err
	}
	record := pending.Record{Start: start, StoredAt: n.clock.Now().UTC()}
	if err := n.store.Save(n.ctx, record); err != nil {
		log.Warn().Err(err).Msg("failed to save pending player data")
	}
	return nil
}

// Resume restores the race of a pending record left by a previous run.
func (n *Navigator) Resume() (bool, error) {
	record, ok, err := n.store.Load(n.ctx)
	if err != nil {
		return false, fmt.Errorf("failed to load pending player data: %w", err)
	}
	if !ok {
		return false, nil
	}

	n.mu.Lock()
	defer n.mu.Unlock()
	if n.screen != ScreenIntro {
		return false, nil
	}
	log.Info().Time("stored_at", record.StoredAt).Msg("resuming pending race")
	if err := n.enterGameLocked(record.Start); err != nil {
		return false, err
	}
	return true, nil
}

func (n *Navigator) enterGameLocked(start relay.SessionStart) error {
	q := start.Query()
	players := race.PlayerInfoFromQuery(q)

	game, err := n.launch(n.ctx, players)
	if err != nil {
		return fmt.Errorf("failed to launch race: %w", err)
	}
	n.game = game
	n.query = q.Encode()
	n.screen = ScreenGame
	log.Info().
		Str("query", n.query).
		Str("player1", players.Player1.Name).
		Str("player2", players.Player2.Name).
		Msg("navigated to game")
	return nil
}

// Restart hands any pending player data back to the relay for recording,
// tears the race down and returns to the intro screen.
func (n *Navigator) Restart() error {
	n.mu.Lock()
	defer n.mu.Unlock()

	var errs []error
	record, ok, err := n.store.Load(n.ctx)
	if err != nil {
		errs = append(errs, fmt.Errorf("failed to load pending player data: %w", err))
	}
	if ok {
		restartedAt := n.clock.Now().UTC()
		info := relay.RegistrationInfo{SessionStart: record.Start, RestartTimestamp: &restartedAt}
		if _, err := n.sender.Publish(relay.TopicRegistrationInfo, info); err != nil {
			errs = append(errs, fmt.Errorf("failed to send registration info: %w", err))
		} else if err := n.store.Clear(n.ctx); err != nil {
			errs = append(errs, fmt.Errorf("failed to clear pending player data: %w", err))
		}
	}

	if n.game != nil {
		n.game.Stop()
		n.game = nil
	}
	n.query = ""
	n.screen = ScreenIntro
	log.Info().Bool("had_pending", ok).Msg("navigated to intro")
	return errors.Join(errs...)
}

// Close stops the running race without touching the pending record, so the
// next run can resume it.
func (n *Navigator) Close() {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.game != nil {
		n.game.Stop()
		n.game = nil
	}
}
