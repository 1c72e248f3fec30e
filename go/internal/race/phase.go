package race

import (
	"time"

	"github.com/mcdev12/vallamkali/go/internal/boats"
)

// Phase is the session's lifecycle state.
type Phase int

const (
	PhaseLoading Phase = iota
	PhaseReady
	PhaseCountdown
	PhasePlaying
	PhasePaused
	PhaseFinished
	PhaseDestroyed
)

func (p Phase) String() string {
	switch p {
	case PhaseLoading:
		return "loading"
	case PhaseReady:
		return "ready"
	case PhaseCountdown:
		return "countdown"
	case PhasePlaying:
		return "playing"
	case PhasePaused:
		return "paused"
	case PhaseFinished:
		return "finished"
	case PhaseDestroyed:
		return "destroyed"
	default:
		return "unknown"
	}
}

// State is a snapshot of the session. Winner is set iff Phase is
// PhaseFinished.
type State struct {
	Phase     Phase
	IsRunning bool
	IsPaused  bool
	Winner    *boats.ID
	StartTime *time.Time
}

func readyState() State {
	return State{Phase: PhaseReady}
}

func (s State) copy() State {
	out := s
	if s.Winner != nil {
		w := *s.Winner
		out.Winner = &w
	}
	if s.StartTime != nil {
		t := *s.StartTime
		out.StartTime = &t
	}
	return out
}
