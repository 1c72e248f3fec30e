package audio

// Cue names a one-shot sound effect.
type Cue int

const (
	CueCountdownBeep Cue = iota
	CueStart
	CueSplash
	CueVictory
	CueClick
)

func (c Cue) String() string {
	switch c {
	case CueCountdownBeep:
		return "countdown_beep"
	case CueStart:
		return "start"
	case CueSplash:
		return "splash"
	case CueVictory:
		return "victory"
	case CueClick:
		return "click"
	default:
		return "unknown"
	}
}

// Gesture is a user interaction that may unlock audio output.
type Gesture int

const (
	GestureClick Gesture = iota
	GestureKey
	GestureTouch
)

func (g Gesture) String() string {
	switch g {
	case GestureClick:
		return "click"
	case GestureKey:
		return "key"
	case GestureTouch:
		return "touch"
	default:
		return "unknown"
	}
}

// State is the gateway's output state.
type State int

const (
	StateUninitialized State = iota
	StateAwaitingGesture
	StateEnabled
)

func (s State) String() string {
	switch s {
	case StateUninitialized:
		return "uninitialized"
	case StateAwaitingGesture:
		return "awaiting_gesture"
	case StateEnabled:
		return "enabled"
	default:
		return "unknown"
	}
}
