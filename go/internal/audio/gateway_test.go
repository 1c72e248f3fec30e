package audio

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/mcdev12/vallamkali/go/internal/boats"
	"github.com/mcdev12/vallamkali/go/internal/config"
)

type fakeSink struct {
	mu sync.Mutex

	openErr  error
	playErr  error
	opens    int
	cues     []Cue
	volumes  []float64
	musicOn  bool
	starts   int
	stops    int
	closed   bool
	musicVol float64
}

func (f *fakeSink) Open() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.opens++
	return f.openErr
}

func (f *fakeSink) PlayCue(cue Cue, volume float64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.playErr != nil {
		return f.playErr
	}
	f.cues = append(f.cues, cue)
	f.volumes = append(f.volumes, volume)
	return nil
}

func (f *fakeSink) StartMusic(volume float64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.starts++
	f.musicOn = true
	f.musicVol = volume
	return nil
}

func (f *fakeSink) StopMusic() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.stops++
	f.musicOn = false
	return nil
}

func (f *fakeSink) SetMusicVolume(volume float64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.musicVol = volume
	return nil
}

func (f *fakeSink) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed = true
	return nil
}

func (f *fakeSink) cueCount(cue Cue) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, c := range f.cues {
		if c == cue {
			n++
		}
	}
	return n
}

func (f *fakeSink) music() (on bool, starts int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.musicOn, f.starts
}

func newEnabled(t *testing.T) (*Gateway, *fakeSink, *clockwork.FakeClock) {
	t.Helper()
	sink := &fakeSink{}
	clock := clockwork.NewFakeClock()
	g := NewGateway(config.Defaults().Audio, sink, clock)
	g.Init()
	g.Gesture(GestureClick)
	if g.State() != StateEnabled {
		t.Fatalf("state = %v, want enabled", g.State())
	}
	return g, sink, clock
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

func TestNoOutputBeforeGesture(t *testing.T) {
	sink := &fakeSink{}
	g := NewGateway(config.Defaults().Audio, sink, clockwork.NewFakeClock())

	g.Gesture(GestureKey)
	if g.State() != StateUninitialized {
		t.Fatalf("gesture before Init changed state to %v", g.State())
	}

	g.Init()
	g.PlayCue(CueStart)
	g.PlaySplash()
	g.PlayMusic()
	g.OnCountdownTick(3)

	if len(sink.cues) != 0 || sink.starts != 0 || sink.opens != 0 {
		t.Fatalf("sink touched before gesture: %+v", sink)
	}

	g.Gesture(GestureTouch)
	g.PlayCue(CueStart)
	if got := sink.cueCount(CueStart); got != 1 {
		t.Fatalf("start cues after gesture = %d, want 1 (nothing queued)", got)
	}
}

func TestGestureIsOneShot(t *testing.T) {
	g, sink, _ := newEnabled(t)
	g.Gesture(GestureKey)
	g.Gesture(GestureTouch)
	if sink.opens != 1 {
		t.Fatalf("opens = %d, want 1", sink.opens)
	}
}

func TestSplashCooldown(t *testing.T) {
	g, sink, clock := newEnabled(t)

	g.PlaySplash()
	clock.Advance(100 * time.Millisecond)
	g.PlaySplash()
	clock.Advance(99 * time.Millisecond)
	g.PlaySplash()
	clock.Advance(1 * time.Millisecond)
	g.PlaySplash()

	if got := sink.cueCount(CueSplash); got != 2 {
		t.Fatalf("splashes = %d, want 2", got)
	}
}

func TestSetSplashCooldownFloor(t *testing.T) {
	g, sink, clock := newEnabled(t)

	g.SetSplashCooldown(10 * time.Millisecond)
	if got := g.SplashCooldown(); got != 50*time.Millisecond {
		t.Fatalf("cooldown = %v, want 50ms", got)
	}

	g.PlaySplash()
	clock.Advance(40 * time.Millisecond)
	g.PlaySplash()
	clock.Advance(10 * time.Millisecond)
	g.PlaySplash()
	if got := sink.cueCount(CueSplash); got != 2 {
		t.Fatalf("splashes = %d, want 2", got)
	}
}

func TestMuteResumesMusicOnlyWhilePlaying(t *testing.T) {
	g, sink, _ := newEnabled(t)
	playing := false
	g.SetPlayingProbe(func() bool { return playing })

	g.PlayMusic()
	if !g.ToggleMute() {
		t.Fatal("expected muted")
	}
	if on, _ := sink.music(); on {
		t.Fatal("music still on while muted")
	}
	g.PlayCue(CueClick)
	if sink.cueCount(CueClick) != 0 {
		t.Fatal("effect played while muted")
	}

	g.ToggleMute()
	if on, _ := sink.music(); on {
		t.Fatal("music resumed outside Playing")
	}

	playing = true
	g.ToggleMute()
	g.ToggleMute()
	if on, _ := sink.music(); !on {
		t.Fatal("music not resumed while Playing")
	}
}

func TestVolumesClamped(t *testing.T) {
	g, sink, _ := newEnabled(t)
	g.SetMusicVolume(1.7)
	g.SetEffectsVolume(-0.2)

	music, effects := g.Volumes()
	if music != 1 || effects != 0 {
		t.Fatalf("volumes = %v/%v, want 1/0", music, effects)
	}
	if sink.musicVol != 1 {
		t.Fatalf("sink music volume = %v", sink.musicVol)
	}
}

func TestSinkFailuresDegradeToSilence(t *testing.T) {
	sink := &fakeSink{openErr: errors.New("no device")}
	g := NewGateway(config.Defaults().Audio, sink, clockwork.NewFakeClock())
	g.Init()
	g.Gesture(GestureClick)

	g.PlayCue(CueVictory)
	g.PlayMusic()
	if len(sink.cues) != 0 || sink.starts != 0 {
		t.Fatal("silent gateway reached the sink")
	}

	failing, playSink, _ := newEnabled(t)
	playSink.playErr = errors.New("buffer underrun")
	failing.PlayCue(CueClick)
	failing.PlaySplash()
}

func TestOnStartDelaysMusic(t *testing.T) {
	g, sink, clock := newEnabled(t)

	g.OnStart()
	if sink.cueCount(CueStart) != 1 {
		t.Fatal("start cue not played")
	}
	if on, _ := sink.music(); on {
		t.Fatal("music started before delay")
	}

	clock.Advance(MusicStartDelay)
	eventually(t, func() bool {
		on, _ := sink.music()
		return on
	})
}

func TestRestartCancelsPendingMusic(t *testing.T) {
	g, sink, clock := newEnabled(t)

	g.OnStart()
	g.OnRestart()
	clock.Advance(time.Second)
	time.Sleep(20 * time.Millisecond)

	if _, starts := sink.music(); starts != 0 {
		t.Fatalf("music started %d times after restart", starts)
	}

	g.PlaySplash()
	g.OnRestart()
	g.PlaySplash()
	if got := sink.cueCount(CueSplash); got != 2 {
		t.Fatalf("restart did not reset splash timing, splashes = %d", got)
	}
}

func TestWinStopsMusicAndPlaysVictory(t *testing.T) {
	g, sink, _ := newEnabled(t)
	g.PlayMusic()
	g.OnWin(boats.Player2)

	if on, _ := sink.music(); on {
		t.Fatal("music still playing after win")
	}
	if sink.cueCount(CueVictory) != 1 {
		t.Fatal("victory cue not played")
	}
}

func TestClose(t *testing.T) {
	g, sink, _ := newEnabled(t)
	g.PlayMusic()
	g.Close()
	if !sink.closed {
		t.Fatal("sink not closed")
	}
	g.PlayCue(CueClick)
	if sink.cueCount(CueClick) != 0 {
		t.Fatal("played after close")
	}
}
