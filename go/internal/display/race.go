package display

import (
	"context"
	"fmt"
	"io"
	"sync"
	"sync/atomic"

	"github.com/jonboulle/clockwork"
	"github.com/mcdev12/vallamkali/go/internal/audio"
	"github.com/mcdev12/vallamkali/go/internal/boats"
	"github.com/mcdev12/vallamkali/go/internal/config"
	"github.com/mcdev12/vallamkali/go/internal/controls"
	"github.com/mcdev12/vallamkali/go/internal/race"
	"github.com/mcdev12/vallamkali/go/internal/scene"
	"github.com/mcdev12/vallamkali/go/internal/ui"
)

// Env is everything a race on this display shares with the races before
// and after it.
type Env struct {
	Config   config.Game
	Clock    clockwork.Clock
	Audio    *audio.Gateway // Shared for the life of the process, may be nil
	View     ui.View
	Renderer string // scene renderer kind
	Out      io.Writer
	Loader   boats.AssetLoader
}

// Race is a session running on its own loop goroutine.
type Race struct {
	session *race.Session
	loop    *race.Loop
	keys    *controls.Keyboard
	players race.PlayerInfo
	phase   *phaseTracker

	ctx    context.Context
	cancel context.CancelFunc
	done   chan struct{}
	once   sync.Once
}

// Launch builds and initializes a session for players and starts its loop.
func (e Env) Launch(ctx context.Context, players race.PlayerInfo) (Game, error) {
	r, err := e.NewRace(ctx, players)
	if err != nil {
		return nil, err
	}
	return r, nil
}

func (e Env) NewRace(ctx context.Context, players race.PlayerInfo) (*Race, error) {
	clock := e.Clock
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	view := e.View
	if view == nil {
		view = ui.LogView{}
	}

	keys := controls.NewKeyboard(e.Config.Controls)
	presenter := ui.NewPresenter(e.Config.Countdown, players, view, clock)

	deps := race.Deps{
		Config:  e.Config,
		Clock:   clock,
		Players: players,
		NewSurface: func() (race.Surface, error) {
			return presenter, nil
		},
		NewRenderer: func() (race.Renderer, error) {
			return scene.NewRenderer(e.Renderer, e.Config, e.Out)
		},
		NewWorld: func(ctx context.Context) (race.World, error) {
			return scene.NewEnvironment(ctx, e.Config, e.Loader)
		},
		Input:  keys,
		Loader: e.Loader,
	}
	if e.Audio != nil {
		presenter.SetBeeper(e.Audio)
		deps.NewAudio = func() (race.Audio, error) {
			return sharedAudio{e.Audio}, nil
		}
	}

	session := race.NewSession(deps)
	loop := race.NewLoop(session)
	tracker := &phaseTracker{}
	session.Subscribe(tracker)

	ctx, cancel := context.WithCancel(ctx)
	presenter.SetStartRequester(func() {
		loop.Post(ctx, func(s *race.Session) { s.RequestStart() })
	})

	if err := session.Initialize(ctx); err != nil {
		cancel()
		return nil, fmt.Errorf("failed to initialize race: %w", err)
	}
	tracker.set(session.Phase())
	if e.Audio != nil {
		e.Audio.SetPlayingProbe(tracker.playing)
	}

	r := &Race{
		session: session,
		loop:    loop,
		keys:    keys,
		players: players,
		phase:   tracker,
		ctx:     ctx,
		cancel:  cancel,
		done:    make(chan struct{}),
	}
	go func() {
		defer close(r.done)
		loop.Run(ctx)
	}()
	return r, nil
}

// Do runs fn on the race goroutine.
func (r *Race) Do(fn func(s *race.Session)) bool {
	return r.loop.Post(r.ctx, fn)
}

func (r *Race) Keys(fn func(k *controls.Keyboard)) bool {
	return r.loop.Post(r.ctx, func(*race.Session) { fn(r.keys) })
}

func (r *Race) Players() race.PlayerInfo {
	return r.players
}

// Phase is the last phase the race announced. Safe from any goroutine.
func (r *Race) Phase() race.Phase {
	return r.phase.get()
}

// Stop destroys the session and waits for its loop to exit.
func (r *Race) Stop() {
	r.once.Do(func() {
		r.cancel()
		<-r.done
		r.phase.set(race.PhaseDestroyed)
	})
}

// sharedAudio lends the process-wide gateway to one race. Closing it only
// silences the music so that the next race keeps the unlocked output.
type sharedAudio struct {
	*audio.Gateway
}

func (a sharedAudio) Close() {
	a.StopMusic()
}

// phaseTracker mirrors the session phase for readers off the race
// goroutine.
type phaseTracker struct {
	phase atomic.Int32
}

func (t *phaseTracker) set(p race.Phase) { t.phase.Store(int32(p)) }
func (t *phaseTracker) get() race.Phase  { return race.Phase(t.phase.Load()) }
func (t *phaseTracker) playing() bool    { return t.get() == race.PhasePlaying }

func (t *phaseTracker) OnReady()       { t.set(race.PhaseReady) }
func (t *phaseTracker) OnStart()       { t.set(race.PhasePlaying) }
func (t *phaseTracker) OnWin(boats.ID) { t.set(race.PhaseFinished) }
func (t *phaseTracker) OnRestart()     { t.set(race.PhaseReady) }
func (t *phaseTracker) OnPause()       { t.set(race.PhasePaused) }
func (t *phaseTracker) OnResume()      { t.set(race.PhasePlaying) }
