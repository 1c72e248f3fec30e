package race

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"
)

// Loop is the single goroutine that owns a Session. Ticks come from the
// clock; everything else (relay messages, key events, countdown completions)
// is posted to the inbox and runs between ticks.
type Loop struct {
	session  *Session
	clock    Clock
	interval time.Duration
	inbox    chan func()
}

func NewLoop(s *Session) *Loop {
	l := &Loop{
		session:  s,
		clock:    s.clock,
		interval: s.cfg.Loop.Interval(),
		inbox:    make(chan func(), 256),
	}
	s.post = l.enqueue
	return l
}

// Post schedules fn to run on the loop goroutine with the session. It
// reports false if the session is gone or ctx ends first.
func (l *Loop) Post(ctx context.Context, fn func(s *Session)) bool {
	if !l.session.Alive() {
		return false
	}
	select {
	case l.inbox <- func() { fn(l.session) }:
		return true
	case <-ctx.Done():
		return false
	}
}

func (l *Loop) enqueue(fn func()) {
	select {
	case l.inbox <- fn:
	default:
		log.Warn().Msg("race inbox full, dropping callback")
	}
}

// Run drives the session until ctx is cancelled or the session is
// destroyed. Cancelling ctx destroys the session.
func (l *Loop) Run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	l.session.cancel = cancel

	ticker := l.clock.NewTicker(l.interval)
	defer ticker.Stop()

	log.Info().
		Str("session_id", l.session.ID().String()).
		Dur("interval", l.interval).
		Msg("race loop started")

	for {
		select {
		case <-ctx.Done():
			l.session.Destroy()
			log.Info().Str("session_id", l.session.ID().String()).Msg("race loop stopped")
			return nil
		case fn := <-l.inbox:
			if l.session.Alive() {
				fn()
			}
		case now := <-ticker.Chan():
			l.session.Frame(now)
		}
	}
}
