// Package ui is the presentation surface of a race: countdown sequencing,
// distance labels and the winner overlay.
package ui

import (
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/mcdev12/vallamkali/go/internal/boats"
	"github.com/mcdev12/vallamkali/go/internal/config"
	"github.com/mcdev12/vallamkali/go/internal/race"
	"github.com/rs/zerolog/log"
)

// Clock is the timer source for countdown pacing.
type Clock interface {
	NewTimer(d time.Duration) clockwork.Timer
}

// Beeper hears every numbered countdown step.
type Beeper interface {
	OnCountdownTick(remaining int)
}

// Presenter implements race.Surface and the lifecycle listeners the UI needs.
type Presenter struct {
	mu sync.Mutex

	cfg     config.Countdown
	players race.PlayerInfo
	view    View
	clock   Clock
	beeper  Beeper

	// requestStart asks the session to leave Ready. It must hand the call to
	// the race loop.
	requestStart func()

	countdownStop chan struct{}
	readyStop     chan struct{}
	disposed      bool
}

func NewPresenter(cfg config.Countdown, players race.PlayerInfo, view View, clock Clock) *Presenter {
	if view == nil {
		view = LogView{}
	}
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &Presenter{
		cfg:     cfg,
		players: players,
		view:    view,
		clock:   clock,
	}
}

// SetBeeper wires the countdown beep.
func (p *Presenter) SetBeeper(b Beeper) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.beeper = b
}

// SetStartRequester wires the automatic countdown after Ready.
func (p *Presenter) SetStartRequester(fn func()) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.requestStart = fn
}

// StartCountdown shows From..1 at Step intervals, then GO for GoHold, then
// calls done. A newer countdown, a restart or Dispose cancels it.
func (p *Presenter) StartCountdown(done func()) {
	p.mu.Lock()
	if p.disposed {
		p.mu.Unlock()
		return
	}
	stopChan(&p.countdownStop)
	stop := make(chan struct{})
	p.countdownStop = stop
	beeper := p.beeper
	p.mu.Unlock()

	go p.runCountdown(stop, beeper, done)
}

func (p *Presenter) runCountdown(stop chan struct{}, beeper Beeper, done func()) {
	for n := p.cfg.From; n > 0; n-- {
		p.view.SetCountdown(strconv.Itoa(n))
		if beeper != nil {
			beeper.OnCountdownTick(n)
		}
		if !p.wait(stop, p.cfg.Step) {
			return
		}
	}

	p.view.SetCountdown("GO!")
	if !p.wait(stop, p.cfg.GoHold) {
		return
	}
	p.view.SetCountdown("")

	p.mu.Lock()
	current := p.countdownStop == stop
	if current {
		p.countdownStop = nil
	}
	p.mu.Unlock()
	if current {
		done()
	}
}

func (p *Presenter) wait(stop chan struct{}, d time.Duration) bool {
	if d <= 0 {
		select {
		case <-stop:
			return false
		default:
			return true
		}
	}
	t := p.clock.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.Chan():
		return true
	case <-stop:
		p.view.SetCountdown("")
		return false
	}
}

// UpdateDistances refreshes both distance labels.
func (p *Presenter) UpdateDistances(player1, player2 int) {
	p.view.SetDistances(p.distanceLabel(boats.Player1, player1), p.distanceLabel(boats.Player2, player2))
}

func (p *Presenter) ResetDistances() {
	p.UpdateDistances(0, 0)
}

func (p *Presenter) HideWinner() {
	p.view.SetWinner("")
}

func (p *Presenter) ShowWinner(id boats.ID) {
	p.view.SetWinner(WinnerText(p.players, id))
}

func (p *Presenter) distanceLabel(id boats.ID, meters int) string {
	return fmt.Sprintf("%s: %dm", p.players.Label(id), meters)
}

// WinnerText is the winner overlay line.
func WinnerText(players race.PlayerInfo, id boats.ID) string {
	return players.Label(id) + " Wins!"
}

// ShowGameReady arms the automatic countdown after ReadyDelay.
func (p *Presenter) ShowGameReady() {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.disposed || !p.cfg.AutoOnReady {
		return
	}
	stopChan(&p.readyStop)
	stop := make(chan struct{})
	p.readyStop = stop
	start := p.requestStart

	go func() {
		if !p.wait(stop, p.cfg.ReadyDelay) {
			return
		}
		p.mu.Lock()
		current := p.readyStop == stop
		if current {
			p.readyStop = nil
		}
		p.mu.Unlock()
		if current && start != nil {
			start()
		}
	}()
}

func (p *Presenter) OnReady() {
	p.ShowGameReady()
}

func (p *Presenter) OnStart() {
	p.view.SetStatus("")
	log.Debug().Msg("ui race started")
}

func (p *Presenter) OnWin(id boats.ID) {
	p.ShowWinner(id)
}

func (p *Presenter) OnRestart() {
	p.mu.Lock()
	stopChan(&p.countdownStop)
	p.mu.Unlock()

	p.HideWinner()
	p.ShowGameReady()
}

func (p *Presenter) OnPause() {
	p.view.SetStatus("Paused")
}

func (p *Presenter) OnResume() {
	p.view.SetStatus("")
}

// Dispose cancels pending timers. Later calls are no-ops.
func (p *Presenter) Dispose() {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.disposed = true
	stopChan(&p.countdownStop)
	stopChan(&p.readyStop)
}

func stopChan(ch *chan struct{}) {
	if *ch != nil {
		close(*ch)
		*ch = nil
	}
}

var _ race.Surface = (*Presenter)(nil)
