package display

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/mcdev12/vallamkali/go/internal/audio"
	"github.com/mcdev12/vallamkali/go/internal/config"
	"github.com/mcdev12/vallamkali/go/internal/controls"
	"github.com/mcdev12/vallamkali/go/internal/race"
	"github.com/mcdev12/vallamkali/go/internal/relay"
)

type fakeSink struct {
	mu     sync.Mutex
	opens  int
	cues   []audio.Cue
	closed bool
}

func (f *fakeSink) Open() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.opens++
	return nil
}

func (f *fakeSink) PlayCue(cue audio.Cue, _ float64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.cues = append(f.cues, cue)
	return nil
}

func (f *fakeSink) StartMusic(float64) error     { return nil }
func (f *fakeSink) StopMusic() error             { return nil }
func (f *fakeSink) SetMusicVolume(float64) error { return nil }

func (f *fakeSink) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed = true
	return nil
}

func (f *fakeSink) isClosed() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.closed
}

func eventually(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("condition not met before deadline")
}

func testEnv(clock clockwork.Clock) Env {
	cfg := config.Defaults()
	cfg.Countdown.AutoOnReady = false
	return Env{Config: cfg, Clock: clock, Renderer: "headless"}
}

// startPlaying requests the countdown and advances the clock until the race
// is being played.
func startPlaying(t *testing.T, r *Race, clock *clockwork.FakeClock) {
	t.Helper()
	r.Do(func(s *race.Session) { s.RequestStart() })
	eventually(t, func() bool {
		clock.Advance(time.Second)
		return r.Phase() == race.PhasePlaying
	})
}

func relayStart(player1 string) relay.SessionStart {
	return relay.SessionStart{Player1Name: player1}
}

func keyState(t *testing.T, g Game) controls.InputState {
	t.Helper()
	ch := make(chan controls.InputState, 1)
	if !g.Keys(func(k *controls.Keyboard) { ch <- k.State() }) {
		t.Fatal("race is gone")
	}
	select {
	case s := <-ch:
		return s
	case <-time.After(2 * time.Second):
		t.Fatal("race goroutine did not answer")
	}
	return controls.InputState{}
}

func TestRaceLifecycle(t *testing.T) {
	clock := clockwork.NewFakeClock()
	r, err := testEnv(clock).NewRace(context.Background(), race.DefaultPlayers())
	if err != nil {
		t.Fatal(err)
	}
	if r.Phase() != race.PhaseReady {
		t.Fatalf("phase = %v, want ready", r.Phase())
	}

	startPlaying(t, r, clock)

	r.Stop()
	r.Stop()
	if r.Phase() != race.PhaseDestroyed {
		t.Fatalf("phase = %v, want destroyed", r.Phase())
	}
	if r.Do(func(*race.Session) {}) {
		t.Fatal("Do succeeded on a stopped race")
	}
}

func TestUnknownRendererFailsLaunch(t *testing.T) {
	env := testEnv(clockwork.NewFakeClock())
	env.Renderer = "webgl"
	if _, err := env.Launch(context.Background(), race.DefaultPlayers()); err == nil {
		t.Fatal("expected launch error")
	}
}

func TestSharedAudioOutlivesRace(t *testing.T) {
	clock := clockwork.NewFakeClock()
	sink := &fakeSink{}
	gateway := audio.NewGateway(config.Defaults().Audio, sink, clock)
	env := testEnv(clock)
	env.Audio = gateway

	first, err := env.NewRace(context.Background(), race.DefaultPlayers())
	if err != nil {
		t.Fatal(err)
	}
	if gateway.State() != audio.StateAwaitingGesture {
		t.Fatalf("state = %v, want awaiting gesture", gateway.State())
	}
	gateway.Gesture(audio.GestureKey)
	first.Stop()
	if sink.isClosed() {
		t.Fatal("race teardown closed the shared output")
	}

	second, err := env.NewRace(context.Background(), race.DefaultPlayers())
	if err != nil {
		t.Fatal(err)
	}
	defer second.Stop()
	if gateway.State() != audio.StateEnabled {
		t.Fatalf("state = %v, want enabled", gateway.State())
	}
	gateway.PlayCue(audio.CueClick)
	if len(sink.cues) != 1 {
		t.Fatalf("cues = %v", sink.cues)
	}
}

func TestShortcuts(t *testing.T) {
	clock := clockwork.NewFakeClock()
	nav := NewNavigator(context.Background(), testEnv(clock).Launch, nil, &fakeSender{}, clock)
	keys := NewShortcuts(nav, nil, clock, 0)

	// Nothing is on screen yet.
	keys.Press(Key{Name: "p"})
	keys.Press(Key{Name: "a"})

	if err := nav.Start(relayStart("Anu")); err != nil {
		t.Fatal(err)
	}
	defer nav.Close()
	r := nav.Current().(*Race)
	startPlaying(t, r, clock)

	keys.Press(Key{Name: "P"})
	eventually(t, func() bool { return r.Phase() == race.PhasePaused })
	keys.Press(Key{Name: "p"})
	eventually(t, func() bool { return r.Phase() == race.PhasePlaying })

	// Plain r only restarts a finished race.
	keys.Press(Key{Name: "r"})
	if keyState(t, r); r.Phase() != race.PhasePlaying {
		t.Fatalf("phase = %v after r while playing", r.Phase())
	}
	keys.Press(Key{Name: "r", Ctrl: true})
	eventually(t, func() bool { return r.Phase() == race.PhaseReady })
}

func TestHiddenDisplayPauses(t *testing.T) {
	clock := clockwork.NewFakeClock()
	nav := NewNavigator(context.Background(), testEnv(clock).Launch, nil, &fakeSender{}, clock)
	keys := NewShortcuts(nav, nil, clock, 0)
	if err := nav.Start(relayStart("")); err != nil {
		t.Fatal(err)
	}
	defer nav.Close()
	r := nav.Current().(*Race)
	startPlaying(t, r, clock)

	keys.SetHidden(true)
	eventually(t, func() bool { return r.Phase() == race.PhasePaused })

	keys.SetHidden(false)
	keyState(t, r)
	if r.Phase() != race.PhasePaused {
		t.Fatalf("phase = %v, showing the display must not resume", r.Phase())
	}

	// Hiding a paused race leaves it paused.
	keys.Press(Key{Name: "h"})
	keyState(t, r)
	if !keys.Hidden() || r.Phase() != race.PhasePaused {
		t.Fatalf("hidden = %v phase = %v", keys.Hidden(), r.Phase())
	}
}

func TestTapHoldsKey(t *testing.T) {
	clock := clockwork.NewFakeClock()
	nav := NewNavigator(context.Background(), testEnv(clock).Launch, nil, &fakeSender{}, clock)
	keys := NewShortcuts(nav, nil, clock, 100*time.Millisecond)
	if err := nav.Start(relayStart("")); err != nil {
		t.Fatal(err)
	}
	defer nav.Close()
	r := nav.Current()

	keys.Press(Key{Name: "A"})
	if !keyState(t, r).Player1 {
		t.Fatal("player 1 key not held after tap")
	}

	clock.Advance(60 * time.Millisecond)
	keys.Press(Key{Name: "a"})
	clock.Advance(60 * time.Millisecond)
	if !keyState(t, r).Player1 {
		t.Fatal("second tap released early")
	}

	clock.Advance(60 * time.Millisecond)
	eventually(t, func() bool { return !keyState(t, r).Player1 })
}

func TestConfiguredKeysMoveBoats(t *testing.T) {
	clock := clockwork.NewFakeClock()
	cfg := config.Defaults()
	cfg.Countdown.AutoOnReady = false
	cfg.Controls = config.Controls{Player1Key: "x", Player2Key: "y"}
	cfg, err := config.Resolve(cfg)
	if err != nil {
		t.Fatal(err)
	}
	env := Env{Config: cfg, Clock: clock, Renderer: "headless"}
	nav := NewNavigator(context.Background(), env.Launch, nil, &fakeSender{}, clock)
	keys := NewShortcuts(nav, nil, clock, 0)
	if err := nav.Start(relayStart("")); err != nil {
		t.Fatal(err)
	}
	defer nav.Close()
	r := nav.Current()

	keys.Press(Key{Name: "X"})
	keys.Press(Key{Name: "y"})
	if s := keyState(t, r); !s.Player1 || !s.Player2 {
		t.Fatalf("state = %+v, want both players moving", s)
	}
}
