// Package audio gates all sound output behind a user gesture and keeps the
// music and effects buses, mute and the splash rate limit.
package audio

import (
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/mcdev12/vallamkali/go/internal/boats"
	"github.com/mcdev12/vallamkali/go/internal/config"
	"github.com/rs/zerolog/log"
)

// MusicStartDelay separates the start cue from the music loop.
const MusicStartDelay = 500 * time.Millisecond

// Sink produces sound. Every method may fail; the gateway logs failures and
// carries on silently.
type Sink interface {
	// Open acquires the output device. It is called once, on the first gesture.
	Open() error
	PlayCue(cue Cue, volume float64) error
	StartMusic(volume float64) error
	StopMusic() error
	SetMusicVolume(volume float64) error
	Close() error
}

// Clock is the subset of clockwork.Clock the gateway needs.
type Clock interface {
	Now() time.Time
	NewTimer(d time.Duration) clockwork.Timer
}

// Gateway is safe for concurrent use. The race loop, the countdown timer and
// the delayed music start all call into it.
type Gateway struct {
	mu sync.Mutex

	sink  Sink
	clock Clock
	state State

	// silent is set when the sink could not be opened.
	silent bool

	musicVolume    float64
	effectsVolume  float64
	muted          bool
	musicOn        bool
	splashCooldown time.Duration
	lastSplash     time.Time

	pendingMusic *delayedStart
	playing      func() bool
}

type delayedStart struct {
	timer clockwork.Timer
	done  chan struct{}
}

// NewGateway returns a gateway in the Uninitialized state.
func NewGateway(cfg config.Audio, sink Sink, clock Clock) *Gateway {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	cooldown := cfg.SplashCooldown()
	if cooldown < config.MinSplashCooldownMS*time.Millisecond {
		cooldown = config.MinSplashCooldownMS * time.Millisecond
	}
	return &Gateway{
		sink:           sink,
		clock:          clock,
		musicVolume:    config.Clamp01(cfg.MusicVolume),
		effectsVolume:  config.Clamp01(cfg.EffectsVolume),
		splashCooldown: cooldown,
		playing:        func() bool { return false },
	}
}

// SetPlayingProbe tells the gateway how to ask whether the race is in the
// Playing phase. Unmuting resumes music only when it reports true.
func (g *Gateway) SetPlayingProbe(probe func() bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if probe != nil {
		g.playing = probe
	}
}

// Init arms the gesture listeners.
func (g *Gateway) Init() {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.state != StateUninitialized {
		return
	}
	g.state = StateAwaitingGesture
	log.Info().Msg("audio awaiting user gesture")
}

// Gesture reports a user interaction. The first one after Init opens the sink
// and enables output; every later one is ignored.
func (g *Gateway) Gesture(kind Gesture) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.state != StateAwaitingGesture {
		return
	}
	g.state = StateEnabled

	if g.sink == nil {
		g.silent = true
		log.Warn().Msg("no audio sink configured, audio disabled")
		return
	}
	if err := g.sink.Open(); err != nil {
		g.silent = true
		log.Error().Err(err).Str("gesture", kind.String()).Msg("failed to open audio output, continuing without sound")
		return
	}
	log.Info().Str("gesture", kind.String()).Msg("audio enabled")
}

// State returns the current gateway state.
func (g *Gateway) State() State {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.state
}

// PlayCue plays a one-shot effect.
func (g *Gateway) PlayCue(cue Cue) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.playCueLocked(cue)
}

// PlaySplash plays the rowing splash unless one was accepted within the
// cooldown window. Dropped requests are silent.
func (g *Gateway) PlaySplash() {
	g.mu.Lock()
	defer g.mu.Unlock()

	if !g.audibleLocked(CueSplash.String()) {
		return
	}
	now := g.clock.Now()
	if !g.lastSplash.IsZero() && now.Sub(g.lastSplash) < g.splashCooldown {
		return
	}
	g.lastSplash = now
	g.playCueLocked(CueSplash)
}

// SetSplashCooldown changes the splash window. Values under 50ms are raised
// to 50ms.
func (g *Gateway) SetSplashCooldown(d time.Duration) {
	floor := config.MinSplashCooldownMS * time.Millisecond
	if d < floor {
		d = floor
	}

	g.mu.Lock()
	defer g.mu.Unlock()
	g.splashCooldown = d
}

// SplashCooldown returns the active splash window.
func (g *Gateway) SplashCooldown() time.Duration {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.splashCooldown
}

func (g *Gateway) SetMusicVolume(v float64) {
	g.mu.Lock()
	defer g.mu.Unlock()

	g.musicVolume = config.Clamp01(v)
	if g.state != StateEnabled || g.silent || g.muted {
		return
	}
	if err := g.sink.SetMusicVolume(g.musicVolume); err != nil {
		log.Warn().Err(err).Msg("failed to set music volume")
	}
}

func (g *Gateway) SetEffectsVolume(v float64) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.effectsVolume = config.Clamp01(v)
}

// Volumes returns the music and effects bus levels.
func (g *Gateway) Volumes() (music, effects float64) {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.musicVolume, g.effectsVolume
}

// ToggleMute flips the master mute and returns the new value. Unmuting while
// the race is playing resumes the music loop.
func (g *Gateway) ToggleMute() bool {
	g.mu.Lock()
	defer g.mu.Unlock()

	g.muted = !g.muted
	if g.muted {
		g.stopMusicLocked()
	} else if g.playing() {
		g.startMusicLocked()
	}
	log.Info().Bool("muted", g.muted).Msg("audio mute toggled")
	return g.muted
}

func (g *Gateway) IsMuted() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.muted
}

// PlayMusic starts the ambient loop, replacing any loop already running.
func (g *Gateway) PlayMusic() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.startMusicLocked()
}

func (g *Gateway) StopMusic() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.cancelMusicTimerLocked()
	g.stopMusicLocked()
}

// MusicPlaying reports whether the music loop is running.
func (g *Gateway) MusicPlaying() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.musicOn
}

// Close stops all output and releases the sink.
func (g *Gateway) Close() {
	g.mu.Lock()
	defer g.mu.Unlock()

	g.cancelMusicTimerLocked()
	g.stopMusicLocked()
	if g.state == StateEnabled && !g.silent {
		if err := g.sink.Close(); err != nil {
			log.Warn().Err(err).Msg("failed to close audio output")
		}
	}
	g.silent = true
	log.Info().Msg("audio closed")
}

// Race lifecycle listeners.

func (g *Gateway) OnReady() {
	log.Debug().Str("state", g.State().String()).Msg("audio notified race ready")
}

// OnStart plays the start cue and starts music after MusicStartDelay.
func (g *Gateway) OnStart() {
	g.mu.Lock()
	defer g.mu.Unlock()

	g.playCueLocked(CueStart)
	g.cancelMusicTimerLocked()

	pending := &delayedStart{
		timer: g.clock.NewTimer(MusicStartDelay),
		done:  make(chan struct{}),
	}
	g.pendingMusic = pending
	go func() {
		select {
		case <-pending.timer.Chan():
		case <-pending.done:
			return
		}
		g.mu.Lock()
		defer g.mu.Unlock()
		if g.pendingMusic != pending {
			return
		}
		g.pendingMusic = nil
		g.startMusicLocked()
	}()
}

func (g *Gateway) OnWin(id boats.ID) {
	g.mu.Lock()
	defer g.mu.Unlock()

	g.cancelMusicTimerLocked()
	g.stopMusicLocked()
	g.playCueLocked(CueVictory)
	log.Debug().Int("winner", int(id)).Msg("victory cue")
}

func (g *Gateway) OnRestart() {
	g.mu.Lock()
	defer g.mu.Unlock()

	g.cancelMusicTimerLocked()
	g.stopMusicLocked()
	g.lastSplash = time.Time{}
}

func (g *Gateway) OnPause() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.cancelMusicTimerLocked()
	g.stopMusicLocked()
}

func (g *Gateway) OnResume() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.startMusicLocked()
}

// OnCountdownTick beeps once per countdown step.
func (g *Gateway) OnCountdownTick(remaining int) {
	g.PlayCue(CueCountdownBeep)
}

// OnBoatMove is called for every accepted move; the splash limiter decides
// what is heard.
func (g *Gateway) OnBoatMove(id boats.ID) {
	g.PlaySplash()
}

// OnClick plays the button click.
func (g *Gateway) OnClick() {
	g.PlayCue(CueClick)
}

func (g *Gateway) audibleLocked(what string) bool {
	if g.state != StateEnabled {
		log.Warn().Str("sound", what).Str("state", g.state.String()).Msg("audio not enabled, dropping playback request")
		return false
	}
	return !g.silent && !g.muted
}

func (g *Gateway) playCueLocked(cue Cue) {
	if !g.audibleLocked(cue.String()) {
		return
	}
	if err := g.sink.PlayCue(cue, g.effectsVolume); err != nil {
		log.Warn().Err(err).Str("sound", cue.String()).Msg("failed to play sound effect")
	}
}

func (g *Gateway) startMusicLocked() {
	if !g.audibleLocked("music") {
		return
	}
	if err := g.sink.StartMusic(g.musicVolume); err != nil {
		log.Warn().Err(err).Msg("failed to start music")
		return
	}
	g.musicOn = true
}

func (g *Gateway) stopMusicLocked() {
	if !g.musicOn {
		return
	}
	g.musicOn = false
	if g.silent {
		return
	}
	if err := g.sink.StopMusic(); err != nil {
		log.Warn().Err(err).Msg("failed to stop music")
	}
}

func (g *Gateway) cancelMusicTimerLocked() {
	if g.pendingMusic == nil {
		return
	}
	pending := g.pendingMusic
	g.pendingMusic = nil
	pending.timer.Stop()
	close(pending.done)
}
