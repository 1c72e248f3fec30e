// Package race owns the race session: the phase machine, the per-tick
// update and render cycle, win detection and lifecycle events.
package race

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/mcdev12/vallamkali/go/internal/boats"
	"github.com/mcdev12/vallamkali/go/internal/config"
	"github.com/rs/zerolog/log"
)

// Session is one race from construction to teardown. Apart from Alive and
// ID it must only be used from the goroutine running its Loop.
type Session struct {
	id      uuid.UUID
	cfg     config.Game
	clock   Clock
	deps    Deps
	players PlayerInfo

	state State
	bus   Bus
	alive atomic.Bool

	surface  Surface
	audio    Audio
	renderer Renderer
	world    World
	input    Input
	boats    *boats.Store
	fps      *FPSGuard

	camera      Camera
	frame       int
	lastFrame   time.Time
	countdownID int

	// post schedules fn on the loop goroutine. Until a Loop adopts the
	// session it runs fn inline.
	post   func(fn func())
	cancel context.CancelFunc
}

func NewSession(deps Deps) *Session {
	clock := deps.Clock
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	s := &Session{
		id:      uuid.New(),
		cfg:     deps.Config,
		clock:   clock,
		deps:    deps,
		players: deps.Players,
		state:   State{Phase: PhaseLoading},
		post:    func(fn func()) { fn() },
	}
	if s.players == (PlayerInfo{}) {
		s.players = DefaultPlayers()
	}
	s.alive.Store(true)
	return s
}

func (s *Session) ID() uuid.UUID {
	return s.id
}

// Alive is false once the session is destroyed. Asynchronous completions
// check it before touching the session. Safe from any goroutine.
func (s *Session) Alive() bool {
	return s.alive.Load()
}

func (s *Session) State() State {
	return s.state.copy()
}

func (s *Session) Phase() Phase {
	return s.state.Phase
}

func (s *Session) Players() PlayerInfo {
	return s.players
}

func (s *Session) Boats() *boats.Store {
	return s.boats
}

func (s *Session) Camera() Camera {
	return s.camera
}

func (s *Session) QualityTier() string {
	if s.fps == nil {
		return s.cfg.Quality.Tier
	}
	return s.fps.Tier()
}

// Subscribe adds a lifecycle listener.
func (s *Session) Subscribe(l any) int {
	return s.bus.Subscribe(l)
}

// Initialize builds the subsystems. Presentation and audio failures leave
// that subsystem disabled. A renderer failure aborts with *InitError and
// leaves nothing constructed. Boat model failures fall back to procedural
// boats.
func (s *Session) Initialize(ctx context.Context) error {
	if !s.Alive() {
		return &InitError{Stage: "session", Err: ErrDestroyed}
	}
	if s.state.Phase != PhaseLoading {
		return ErrAlreadyInitialized
	}
	logger := log.With().Str("session_id", s.id.String()).Logger()

	var (
		surface Surface
		audio   Audio
	)
	if s.deps.NewSurface != nil {
		sf, err := s.deps.NewSurface()
		if err != nil {
			logger.Error().Err(err).Msg("failed to initialize presentation surface, continuing without it")
		} else {
			surface = sf
		}
	}
	if s.deps.NewAudio != nil {
		a, err := s.deps.NewAudio()
		if err != nil {
			logger.Error().Err(err).Msg("failed to initialize audio, continuing silently")
		} else {
			audio = a
		}
	}

	if s.deps.NewRenderer == nil {
		s.teardownPartial(surface, audio)
		return &InitError{Stage: "renderer", Err: ErrRenderUnavailable}
	}
	renderer, err := s.deps.NewRenderer()
	if err != nil {
		s.teardownPartial(surface, audio)
		return &InitError{Stage: "renderer", Err: err}
	}
	renderer.SetQuality(s.cfg.Quality.Tier)

	var world World
	if s.deps.NewWorld != nil {
		w, err := s.deps.NewWorld(ctx)
		if err != nil {
			logger.Warn().Err(err).Msg("failed to build environment, racing on a bare track")
		} else {
			world = w
		}
	}

	input := s.deps.Input
	if input == nil {
		logger.Warn().Msg("no input source configured")
		input = noInput{}
	}

	store := boats.NewStore(s.cfg)
	store.Create(ctx, s.deps.Loader)

	s.surface = surface
	s.audio = audio
	s.renderer = renderer
	s.world = world
	s.input = input
	s.boats = store
	s.fps = NewFPSGuard(s.clock, s.cfg.Quality, s.downgradeQuality)

	if surface != nil {
		s.bus.Subscribe(surface)
	}
	if audio != nil {
		s.bus.Subscribe(audio)
		audio.Init()
	}

	s.followCamera()
	s.state = readyState()
	logger.Info().
		Str("player1", s.players.Player1.Name).
		Str("player2", s.players.Player2.Name).
		Msg("race ready")
	s.bus.emitReady()
	return nil
}

func (s *Session) teardownPartial(surface Surface, audio Audio) {
	if surface != nil {
		surface.Dispose()
	}
	if audio != nil {
		audio.Close()
	}
}

// RequestStart moves Ready to Countdown and hands pacing to the surface.
// Without a surface play begins immediately.
func (s *Session) RequestStart() {
	if s.state.Phase != PhaseReady {
		log.Warn().Str("phase", s.state.Phase.String()).Msg("race not ready to start, ignoring")
		return
	}
	s.state.Phase = PhaseCountdown
	s.countdownID++
	log.Info().Str("session_id", s.id.String()).Msg("countdown started")

	if s.surface == nil {
		s.BeginPlay()
		return
	}

	id := s.countdownID
	s.surface.StartCountdown(func() {
		if !s.Alive() {
			return
		}
		s.post(func() {
			if !s.Alive() || s.countdownID != id || s.state.Phase != PhaseCountdown {
				return
			}
			s.BeginPlay()
		})
	})
}

// BeginPlay starts the race proper.
func (s *Session) BeginPlay() {
	if s.state.Phase != PhaseCountdown {
		log.Warn().Str("phase", s.state.Phase.String()).Msg("cannot begin play, ignoring")
		return
	}
	now := s.clock.Now()
	s.state.Phase = PhasePlaying
	s.state.IsRunning = true
	s.state.IsPaused = false
	s.state.StartTime = &now

	log.Info().Str("session_id", s.id.String()).Msg("race started")
	s.bus.emitStart()
}

// Frame runs one tick stamped with now. The delta is measured from the
// previous frame.
func (s *Session) Frame(now time.Time) {
	var dt time.Duration
	if !s.lastFrame.IsZero() {
		dt = now.Sub(s.lastFrame)
	}
	s.lastFrame = now
	s.Tick(dt)
}

// Tick runs one update and render cycle. Gameplay only advances while
// playing; the scene is rendered in every phase.
func (s *Session) Tick(dt time.Duration) {
	if !s.Alive() || s.state.Phase == PhaseLoading {
		return
	}
	dt = ClampDelta(dt, s.cfg.Loop.MaxDelta())
	s.frame++
	s.fps.Frame()

	if s.state.Phase == PhasePlaying && !s.state.IsPaused {
		s.update(dt)
	}
	s.render()
}

func (s *Session) update(dt time.Duration) {
	p1 := s.input.IsPlayer1Moving()
	p2 := s.input.IsPlayer2Moving()

	var moved [boats.Count]bool
	for i := 0; i < FixedStep(); i++ {
		moved[boats.Player1] = s.boats.Move(boats.Player1, p1) || moved[boats.Player1]
		moved[boats.Player2] = s.boats.Move(boats.Player2, p2) || moved[boats.Player2]
	}
	for id, ok := range moved {
		if ok {
			s.bus.emitMove(boats.ID(id))
		}
	}
	s.boats.AdvanceWave()

	s.followCamera()
	s.evaluateWinCondition()

	if s.state.Phase == PhasePlaying && s.frame%s.cfg.Loop.UIEvery == 0 {
		s.refreshDistances()
	}
	if s.world != nil && s.frame%s.cfg.Loop.WorldEvery == 0 {
		s.world.Update(dt)
	}
}

func (s *Session) followCamera() {
	all := s.boats.Boats()
	if all[boats.Player1] == nil || all[boats.Player2] == nil {
		return
	}
	avg := (all[0].Position.Z + all[1].Position.Z) / 2
	pos := s.cfg.Camera.Position
	s.camera = Camera{
		Position: boats.Vec3{X: pos.X, Y: pos.Y, Z: avg + s.cfg.Camera.OffsetZ},
		LookAt:   boats.Vec3{Z: avg},
	}
}

// evaluateWinCondition checks boat 0 before boat 1, so boat 0 wins a
// same-tick finish.
func (s *Session) evaluateWinCondition() {
	if s.state.Phase != PhasePlaying || s.state.Winner != nil {
		return
	}
	for _, b := range s.boats.Boats() {
		if b == nil || b.Position.Z < s.cfg.Race.FinishZ {
			continue
		}
		winner := b.ID
		s.state.Phase = PhaseFinished
		s.state.IsRunning = false
		s.state.Winner = &winner
		s.refreshDistances()

		log.Info().
			Str("session_id", s.id.String()).
			Int("winner", int(winner)).
			Str("name", s.players.Label(winner)).
			Int("steps", b.Steps()).
			Msg("race won")
		s.bus.emitWin(winner)
		return
	}
}

func (s *Session) refreshDistances() {
	if s.surface == nil {
		return
	}
	d1, d2 := s.distances()
	s.surface.UpdateDistances(d1, d2)
}

func (s *Session) distances() (int, int) {
	var d [boats.Count]int
	for _, b := range s.boats.Boats() {
		if b != nil {
			d[b.ID] = DistanceRemaining(s.cfg.Race, b.Position.Z)
		}
	}
	return d[0], d[1]
}

func (s *Session) render() {
	f := Frame{Number: s.frame, Phase: s.state.Phase, Camera: s.camera}
	for _, b := range s.boats.Boats() {
		if b != nil {
			f.Boats[b.ID] = *b
		}
	}
	if err := s.renderer.Render(f); err != nil {
		log.Debug().Err(err).Int("frame", s.frame).Msg("render failed")
	}
}

func (s *Session) downgradeQuality() {
	s.renderer.SetQuality(config.TierLow)
	if s.world != nil {
		s.world.ReduceDetail()
	}
}

// Restart returns to Ready with both boats on the start line. Calling it
// while already Ready only repeats the resets.
func (s *Session) Restart() {
	s.restart("local")
}

// HandleRemoteRestart is Restart triggered by a relay message.
func (s *Session) HandleRemoteRestart() {
	s.restart("remote")
}

func (s *Session) restart(source string) {
	switch s.state.Phase {
	case PhaseLoading, PhaseDestroyed:
		log.Warn().Str("phase", s.state.Phase.String()).Str("source", source).Msg("cannot restart, ignoring")
		return
	}

	s.state = readyState()
	s.countdownID++
	s.boats.Reset()
	s.followCamera()
	if s.surface != nil {
		s.surface.HideWinner()
		s.surface.ResetDistances()
	}
	if s.audio != nil {
		s.audio.StopMusic()
	}
	s.lastFrame = time.Time{}

	log.Info().Str("session_id", s.id.String()).Str("source", source).Msg("race restarted")
	s.bus.emitRestart()
}

// TogglePause flips between Playing and Paused. Other phases are ignored.
func (s *Session) TogglePause() {
	switch s.state.Phase {
	case PhasePlaying:
		s.state.Phase = PhasePaused
		s.state.IsPaused = true
		log.Info().Msg("race paused")
		s.bus.emitPause()
	case PhasePaused:
		s.state.Phase = PhasePlaying
		s.state.IsPaused = false
		log.Info().Msg("race resumed")
		s.bus.emitResume()
	default:
		log.Debug().Str("phase", s.state.Phase.String()).Msg("pause ignored")
	}
}

// Destroy tears the session down. It is terminal and idempotent.
func (s *Session) Destroy() {
	if !s.alive.CompareAndSwap(true, false) {
		return
	}
	s.state = State{Phase: PhaseDestroyed}
	if s.cancel != nil {
		s.cancel()
	}

	if s.boats != nil {
		s.boats.Dispose()
	}
	if s.world != nil {
		s.world.Dispose()
	}
	if s.renderer != nil {
		s.renderer.Dispose()
	}
	if s.audio != nil {
		s.audio.Close()
	}
	if s.surface != nil {
		s.surface.Dispose()
	}
	log.Info().Str("session_id", s.id.String()).Msg("race destroyed")
}
