// Package otosink plays procedurally generated race sounds through oto.
package otosink

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/hajimehoshi/oto/v2"
	"github.com/mcdev12/vallamkali/go/internal/audio"
	"github.com/rs/zerolog/log"
)

var (
	ErrNotOpen  = errors.New("audio output not open")
	ErrNotReady = errors.New("audio output not ready")
)

// Sink implements audio.Sink on top of an oto context.
type Sink struct {
	mu sync.Mutex

	ctx   *oto.Context
	ready chan struct{}
	music oto.Player
	cues  map[audio.Cue][]byte
	seed  uint64
}

func New() *Sink {
	return &Sink{seed: uint64(time.Now().UnixNano())}
}

// Open creates the oto context and pre-renders every fixed cue.
func (s *Sink) Open() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.ctx != nil {
		return nil
	}
	ctx, ready, err := oto.NewContext(SampleRate, ChannelCount, oto.FormatFloat32LE)
	if err != nil {
		return fmt.Errorf("failed to create oto context: %w", err)
	}
	s.ctx = ctx
	s.ready = ready
	s.cues = map[audio.Cue][]byte{
		audio.CueCountdownBeep: Synthesize(audio.CueCountdownBeep, 0),
		audio.CueStart:         Synthesize(audio.CueStart, 0),
		audio.CueVictory:       Synthesize(audio.CueVictory, 0),
		audio.CueClick:         Synthesize(audio.CueClick, 0),
	}
	log.Debug().Int("sample_rate", SampleRate).Msg("oto context created")
	return nil
}

// PlayCue plays a cue on its own player without blocking.
func (s *Sink) PlayCue(cue audio.Cue, volume float64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.readyLocked(); err != nil {
		return err
	}

	samples, ok := s.cues[cue]
	if !ok {
		s.seed++
		samples = Synthesize(cue, s.seed)
	}
	if len(samples) == 0 {
		return fmt.Errorf("no samples for cue %s", cue)
	}

	player := s.ctx.NewPlayer(&cueReader{data: samples})
	player.SetVolume(volume)
	player.Play()
	go func() {
		for player.IsPlaying() {
			time.Sleep(10 * time.Millisecond)
		}
		if err := player.Close(); err != nil {
			log.Debug().Err(err).Str("sound", cue.String()).Msg("failed to close cue player")
		}
	}()
	return nil
}

func (s *Sink) StartMusic(volume float64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.readyLocked(); err != nil {
		return err
	}
	s.closeMusicLocked()

	player := s.ctx.NewPlayer(&musicReader{seed: s.seed})
	player.SetVolume(volume)
	player.Play()
	s.music = player
	return nil
}

func (s *Sink) StopMusic() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closeMusicLocked()
}

func (s *Sink) SetMusicVolume(volume float64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.music != nil {
		s.music.SetVolume(volume)
	}
	return nil
}

// Close stops the music and suspends the context. oto allows one context per
// process, so the context itself is kept.
func (s *Sink) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	err := s.closeMusicLocked()
	if s.ctx != nil {
		if serr := s.ctx.Suspend(); serr != nil && err == nil {
			err = serr
		}
	}
	return err
}

func (s *Sink) readyLocked() error {
	if s.ctx == nil {
		return ErrNotOpen
	}
	select {
	case <-s.ready:
		return nil
	default:
		return ErrNotReady
	}
}

func (s *Sink) closeMusicLocked() error {
	if s.music == nil {
		return nil
	}
	err := s.music.Close()
	s.music = nil
	return err
}

var _ audio.Sink = (*Sink)(nil)
