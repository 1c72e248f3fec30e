package display

import (
	"strings"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/mcdev12/vallamkali/go/internal/audio"
	"github.com/mcdev12/vallamkali/go/internal/config"
	"github.com/mcdev12/vallamkali/go/internal/controls"
	"github.com/mcdev12/vallamkali/go/internal/race"
	"github.com/rs/zerolog/log"
)

// DefaultHold is how long a tapped key reads as held. Terminals only report
// presses, so every press is a tap.
const DefaultHold = 120 * time.Millisecond

// Key is one key press.
type Key struct {
	Name string
	Ctrl bool
}

// Shortcuts routes key presses and visibility changes to the race on screen.
type Shortcuts struct {
	nav   *Navigator
	audio *audio.Gateway
	clock clockwork.Clock
	hold  time.Duration

	mu     sync.Mutex
	taps   map[string]int
	hidden bool
}

func NewShortcuts(nav *Navigator, gateway *audio.Gateway, clock clockwork.Clock, hold time.Duration) *Shortcuts {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	if hold <= 0 {
		hold = DefaultHold
	}
	return &Shortcuts{
		nav:   nav,
		audio: gateway,
		clock: clock,
		hold:  hold,
		taps:  make(map[string]int),
	}
}

// Press handles one key press. Any press counts as the gesture that unlocks
// audio. Shortcut keys are never bound to a player; config.Resolve rejects
// such bindings.
func (s *Shortcuts) Press(k Key) {
	if s.audio != nil {
		s.audio.Gesture(audio.GestureKey)
	}
	name := k.Name
	is := func(key string) bool { return strings.EqualFold(name, key) }

	switch {
	case k.Ctrl && is(config.KeyRestart):
		s.onGame(func(s *race.Session) { s.Restart() })
	case is(config.KeyPause):
		s.onGame(func(s *race.Session) { s.TogglePause() })
	case is(config.KeyRestart):
		s.onGame(func(s *race.Session) {
			if s.Phase() == race.PhaseFinished {
				s.Restart()
			}
		})
	case is(config.KeyMute):
		if s.audio != nil {
			s.audio.ToggleMute()
		}
	case is(config.KeyHide):
		s.SetHidden(!s.Hidden())
	default:
		s.tap(name)
	}
}

func (s *Shortcuts) onGame(fn func(s *race.Session)) {
	if game := s.nav.Current(); game != nil {
		game.Do(fn)
	}
}

// tap holds name down for the hold duration. A repeated press extends the
// hold instead of releasing early.
func (s *Shortcuts) tap(name string) {
	game := s.nav.Current()
	if game == nil {
		return
	}
	if len([]rune(name)) == 1 {
		name = strings.ToLower(name)
	}

	s.mu.Lock()
	s.taps[name]++
	seq := s.taps[name]
	s.mu.Unlock()

	game.Keys(func(k *controls.Keyboard) { k.KeyDown(name) })
	s.clock.AfterFunc(s.hold, func() {
		s.mu.Lock()
		latest := s.taps[name] == seq
		s.mu.Unlock()
		if latest {
			game.Keys(func(k *controls.Keyboard) { k.KeyUp(name) })
		}
	})
}

func (s *Shortcuts) Hidden() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.hidden
}

// SetHidden records whether the display is visible. Hiding it pauses a race
// that is being played; showing it again does not resume.
func (s *Shortcuts) SetHidden(hidden bool) {
	s.mu.Lock()
	changed := s.hidden != hidden
	s.hidden = hidden
	s.mu.Unlock()

	if !changed || !hidden {
		return
	}
	log.Info().Msg("display hidden")
	s.onGame(func(s *race.Session) {
		if s.Phase() == race.PhasePlaying {
			s.TogglePause()
		}
	})
}
