package ui

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/mcdev12/vallamkali/go/internal/boats"
	"github.com/mcdev12/vallamkali/go/internal/config"
	"github.com/mcdev12/vallamkali/go/internal/race"
)

type fakeView struct {
	mu        sync.Mutex
	countdown []string
	distances [][2]string
	winner    string
	status    string
}

func (v *fakeView) SetCountdown(text string) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.countdown = append(v.countdown, text)
}

func (v *fakeView) SetDistances(p1, p2 string) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.distances = append(v.distances, [2]string{p1, p2})
}

func (v *fakeView) SetWinner(text string) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.winner = text
}

func (v *fakeView) SetStatus(text string) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.status = text
}

func (v *fakeView) steps() []string {
	v.mu.Lock()
	defer v.mu.Unlock()
	return append([]string(nil), v.countdown...)
}

type beeps struct {
	mu    sync.Mutex
	ticks []int
}

func (b *beeps) OnCountdownTick(n int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.ticks = append(b.ticks, n)
}

func blockUntilTimer(t *testing.T, clock *clockwork.FakeClock) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := clock.BlockUntilContext(ctx, 1); err != nil {
		t.Fatalf("no timer armed: %v", err)
	}
}

func TestCountdownSequence(t *testing.T) {
	clock := clockwork.NewFakeClock()
	view := &fakeView{}
	b := &beeps{}
	p := NewPresenter(config.Defaults().Countdown, race.DefaultPlayers(), view, clock)
	p.SetBeeper(b)

	done := make(chan struct{})
	p.StartCountdown(func() { close(done) })

	for i := 0; i < 3; i++ {
		blockUntilTimer(t, clock)
		clock.Advance(time.Second)
	}
	blockUntilTimer(t, clock)
	select {
	case <-done:
		t.Fatal("done before GO hold elapsed")
	default:
	}
	clock.Advance(800 * time.Millisecond)

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("countdown never completed")
	}

	want := []string{"3", "2", "1", "GO!", ""}
	got := view.steps()
	if len(got) != len(want) {
		t.Fatalf("steps = %q, want %q", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("steps = %q, want %q", got, want)
		}
	}
	if len(b.ticks) != 3 || b.ticks[0] != 3 || b.ticks[2] != 1 {
		t.Fatalf("beeps = %v", b.ticks)
	}
}

func TestRestartCancelsCountdown(t *testing.T) {
	clock := clockwork.NewFakeClock()
	cfg := config.Defaults().Countdown
	cfg.AutoOnReady = false
	p := NewPresenter(cfg, race.DefaultPlayers(), &fakeView{}, clock)

	called := make(chan struct{}, 1)
	p.StartCountdown(func() { called <- struct{}{} })
	blockUntilTimer(t, clock)

	p.OnRestart()
	clock.Advance(10 * time.Second)

	select {
	case <-called:
		t.Fatal("cancelled countdown still completed")
	case <-time.After(50 * time.Millisecond):
	}
}

func TestReadyAutoStartsCountdown(t *testing.T) {
	clock := clockwork.NewFakeClock()
	p := NewPresenter(config.Defaults().Countdown, race.DefaultPlayers(), &fakeView{}, clock)

	requested := make(chan struct{}, 1)
	p.SetStartRequester(func() { requested <- struct{}{} })
	p.OnReady()

	blockUntilTimer(t, clock)
	clock.Advance(999 * time.Millisecond)
	select {
	case <-requested:
		t.Fatal("start requested before the ready delay")
	case <-time.After(20 * time.Millisecond):
	}

	clock.Advance(time.Millisecond)
	select {
	case <-requested:
	case <-time.After(2 * time.Second):
		t.Fatal("start never requested")
	}
}

func TestDisposeStopsAutoStart(t *testing.T) {
	clock := clockwork.NewFakeClock()
	p := NewPresenter(config.Defaults().Countdown, race.DefaultPlayers(), &fakeView{}, clock)
	requested := make(chan struct{}, 1)
	p.SetStartRequester(func() { requested <- struct{}{} })

	p.OnReady()
	blockUntilTimer(t, clock)
	p.Dispose()
	clock.Advance(time.Minute)

	select {
	case <-requested:
		t.Fatal("start requested after dispose")
	case <-time.After(50 * time.Millisecond):
	}
	p.OnReady()
	p.StartCountdown(func() { t.Error("countdown ran after dispose") })
}

func TestDistanceAndWinnerLabels(t *testing.T) {
	view := &fakeView{}
	players := race.NewPlayerInfo("Anu", "", "Biju", "")
	p := NewPresenter(config.Defaults().Countdown, players, view, clockwork.NewFakeClock())

	p.UpdateDistances(120, 7)
	p.ResetDistances()
	if len(view.distances) != 2 {
		t.Fatalf("distances = %v", view.distances)
	}
	if got := view.distances[0]; got != [2]string{"Anu (Right Boat): 120m", "Biju (Left Boat): 7m"} {
		t.Fatalf("labels = %q", got)
	}
	if got := view.distances[1]; got != [2]string{"Anu (Right Boat): 0m", "Biju (Left Boat): 0m"} {
		t.Fatalf("reset labels = %q", got)
	}

	p.OnWin(boats.Player2)
	if view.winner != "Biju (Left Boat) Wins!" {
		t.Fatalf("winner = %q", view.winner)
	}
	p.HideWinner()
	if view.winner != "" {
		t.Fatal("winner still shown")
	}

	p.OnPause()
	if view.status != "Paused" {
		t.Fatalf("status = %q", view.status)
	}
	p.OnResume()
	if view.status != "" {
		t.Fatalf("status = %q", view.status)
	}
}
