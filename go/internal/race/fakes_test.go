package race

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/mcdev12/vallamkali/go/internal/boats"
	"github.com/mcdev12/vallamkali/go/internal/config"
)

type fakeRenderer struct {
	frames   atomic.Int32
	mu       sync.Mutex
	last     Frame
	tiers    []string
	disposed bool
}

func (r *fakeRenderer) Render(f Frame) error {
	r.frames.Add(1)
	r.mu.Lock()
	r.last = f
	r.mu.Unlock()
	return nil
}

func (r *fakeRenderer) SetQuality(tier string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.tiers = append(r.tiers, tier)
}

func (r *fakeRenderer) Dispose() { r.disposed = true }

type fakeWorld struct {
	updates  int
	reduced  int
	disposed bool
}

func (w *fakeWorld) Update(dt time.Duration) { w.updates++ }
func (w *fakeWorld) ReduceDetail()           { w.reduced++ }
func (w *fakeWorld) Dispose()                { w.disposed = true }

type fakeSurface struct {
	countdown     func()
	distanceCalls int
	distances     [2]int
	hideWinner    int
	resets        int
	disposed      bool
}

func (f *fakeSurface) StartCountdown(done func()) { f.countdown = done }
func (f *fakeSurface) UpdateDistances(p1, p2 int) {
	f.distanceCalls++
	f.distances = [2]int{p1, p2}
}
func (f *fakeSurface) HideWinner()     { f.hideWinner++ }
func (f *fakeSurface) ResetDistances() { f.resets++ }
func (f *fakeSurface) Dispose()        { f.disposed = true }

type fakeAudio struct {
	inits  int
	stops  int
	closed bool
}

func (a *fakeAudio) Init()      { a.inits++ }
func (a *fakeAudio) StopMusic() { a.stops++ }
func (a *fakeAudio) Close()     { a.closed = true }

type fakeInput struct {
	p1, p2 bool
}

func (i *fakeInput) IsPlayer1Moving() bool { return i.p1 }
func (i *fakeInput) IsPlayer2Moving() bool { return i.p2 }

// recorder hears every lifecycle event.
type recorder struct {
	events []string
	wins   []boats.ID
	moves  [boats.Count]int
}

func (r *recorder) OnReady()   { r.events = append(r.events, "ready") }
func (r *recorder) OnStart()   { r.events = append(r.events, "start") }
func (r *recorder) OnRestart() { r.events = append(r.events, "restart") }
func (r *recorder) OnPause()   { r.events = append(r.events, "pause") }
func (r *recorder) OnResume()  { r.events = append(r.events, "resume") }
func (r *recorder) OnWin(id boats.ID) {
	r.events = append(r.events, "win")
	r.wins = append(r.wins, id)
}
func (r *recorder) OnBoatMove(id boats.ID) { r.moves[id]++ }

type harness struct {
	session  *Session
	clock    *clockwork.FakeClock
	renderer *fakeRenderer
	world    *fakeWorld
	surface  *fakeSurface
	audio    *fakeAudio
	input    *fakeInput
	events   *recorder
}

func newHarness(withSurface bool) *harness {
	h := &harness{
		clock:    clockwork.NewFakeClock(),
		renderer: &fakeRenderer{},
		world:    &fakeWorld{},
		audio:    &fakeAudio{},
		input:    &fakeInput{},
		events:   &recorder{},
	}
	deps := Deps{
		Config:      config.Defaults(),
		Clock:       h.clock,
		NewAudio:    func() (Audio, error) { return h.audio, nil },
		NewRenderer: func() (Renderer, error) { return h.renderer, nil },
		NewWorld:    func(context.Context) (World, error) { return h.world, nil },
		Input:       h.input,
	}
	if withSurface {
		h.surface = &fakeSurface{}
		deps.NewSurface = func() (Surface, error) { return h.surface, nil }
	}
	h.session = NewSession(deps)
	h.session.Subscribe(h.events)
	return h
}

// started returns a harness already in the Playing phase.
func started(t interface{ Fatalf(string, ...any) }) *harness {
	h := newHarness(false)
	if err := h.session.Initialize(context.Background()); err != nil {
		h.session.Destroy()
		t.Fatalf("initialize: %v", err)
	}
	h.session.RequestStart()
	if h.session.Phase() != PhasePlaying {
		t.Fatalf("phase = %v, want playing", h.session.Phase())
	}
	return h
}

func (h *harness) ticks(n int) {
	for i := 0; i < n; i++ {
		h.session.Tick(16 * time.Millisecond)
	}
}
