package race

import (
	"github.com/mcdev12/vallamkali/go/internal/boats"
)

// Lifecycle listeners. A subscriber implements only the ones it needs.
type (
	ReadyListener interface {
		OnReady()
	}
	StartListener interface {
		OnStart()
	}
	WinListener interface {
		OnWin(id boats.ID)
	}
	RestartListener interface {
		OnRestart()
	}
	PauseListener interface {
		OnPause()
	}
	ResumeListener interface {
		OnResume()
	}
	// MoveListener hears every accepted boat move.
	MoveListener interface {
		OnBoatMove(id boats.ID)
	}
)

// Bus fans lifecycle events out to listeners in subscription order. It is
// owned by the race loop and not safe for concurrent use.
type Bus struct {
	ready   []ReadyListener
	start   []StartListener
	win     []WinListener
	restart []RestartListener
	pause   []PauseListener
	resume  []ResumeListener
	move    []MoveListener
}

// Subscribe registers l for every listener interface it implements and
// returns how many that was.
func (b *Bus) Subscribe(l any) int {
	n := 0
	if v, ok := l.(ReadyListener); ok {
		b.ready = append(b.ready, v)
		n++
	}
	if v, ok := l.(StartListener); ok {
		b.start = append(b.start, v)
		n++
	}
	if v, ok := l.(WinListener); ok {
		b.win = append(b.win, v)
		n++
	}
	if v, ok := l.(RestartListener); ok {
		b.restart = append(b.restart, v)
		n++
	}
	if v, ok := l.(PauseListener); ok {
		b.pause = append(b.pause, v)
		n++
	}
	if v, ok := l.(ResumeListener); ok {
		b.resume = append(b.resume, v)
		n++
	}
	if v, ok := l.(MoveListener); ok {
		b.move = append(b.move, v)
		n++
	}
	return n
}

func (b *Bus) emitReady() {
	for _, l := range b.ready {
		l.OnReady()
	}
}

func (b *Bus) emitStart() {
	for _, l := range b.start {
		l.OnStart()
	}
}

func (b *Bus) emitWin(id boats.ID) {
	for _, l := range b.win {
		l.OnWin(id)
	}
}

func (b *Bus) emitRestart() {
	for _, l := range b.restart {
		l.OnRestart()
	}
}

func (b *Bus) emitPause() {
	for _, l := range b.pause {
		l.OnPause()
	}
}

func (b *Bus) emitResume() {
	for _, l := range b.resume {
		l.OnResume()
	}
}

func (b *Bus) emitMove(id boats.ID) {
	for _, l := range b.move {
		l.OnBoatMove(id)
	}
}
