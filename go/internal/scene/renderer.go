// Package scene holds the non-graphical stand-ins for the 3D scene: the
// renderers, the decorative environment and the model loader.
package scene

import (
	"fmt"
	"io"
	"strings"
	"sync/atomic"

	"github.com/mcdev12/vallamkali/go/internal/boats"
	"github.com/mcdev12/vallamkali/go/internal/config"
	"github.com/mcdev12/vallamkali/go/internal/race"
	"github.com/rs/zerolog/log"
)

const (
	KindHeadless = "headless"
	KindTerminal = "terminal"
)

// NewRenderer builds the renderer named by kind. Unknown kinds report
// race.ErrRenderUnavailable.
func NewRenderer(kind string, cfg config.Game, out io.Writer) (race.Renderer, error) {
	switch kind {
	case "", KindHeadless:
		return &Headless{}, nil
	case KindTerminal:
		if out == nil {
			return nil, fmt.Errorf("terminal renderer needs an output: %w", race.ErrRenderUnavailable)
		}
		return NewTerminal(cfg, out), nil
	default:
		return nil, fmt.Errorf("renderer %q: %w", kind, race.ErrRenderUnavailable)
	}
}

// Headless keeps the last frame and draws nothing.
type Headless struct {
	frames  atomic.Int64
	tier    atomic.Value
	last    race.Frame
	stopped bool
}

func (h *Headless) Render(f race.Frame) error {
	if h.stopped {
		return nil
	}
	h.frames.Add(1)
	h.last = f
	return nil
}

func (h *Headless) SetQuality(tier string) {
	h.tier.Store(tier)
	log.Info().Str("tier", tier).Msg("render quality set")
}

func (h *Headless) Dispose() {
	h.stopped = true
}

func (h *Headless) Frames() int64 {
	return h.frames.Load()
}

func (h *Headless) Tier() string {
	tier, _ := h.tier.Load().(string)
	return tier
}

// LastFrame is only meaningful from the race loop goroutine.
func (h *Headless) LastFrame() race.Frame {
	return h.last
}

// Terminal draws both lanes as a one-line progress track.
type Terminal struct {
	cfg   config.Game
	out   io.Writer
	width int
	every int
	tier  string
	done  bool
}

func NewTerminal(cfg config.Game, out io.Writer) *Terminal {
	return &Terminal{cfg: cfg, out: out, width: 40, every: 6, tier: cfg.Quality.Tier}
}

func (t *Terminal) Render(f race.Frame) error {
	if t.done || f.Number%t.every != 0 {
		return nil
	}
	line := fmt.Sprintf("\r%s %s %-9s", t.lane(f.Boats[boats.Player1], "1"), t.lane(f.Boats[boats.Player2], "2"), f.Phase)
	if _, err := io.WriteString(t.out, line); err != nil {
		return fmt.Errorf("failed to draw frame %d: %w", f.Number, err)
	}
	return nil
}

func (t *Terminal) lane(b boats.Boat, label string) string {
	pos := Progress(t.cfg.Race, b.Position.Z, t.width)
	var sb strings.Builder
	sb.WriteString(label)
	sb.WriteString(" |")
	sb.WriteString(strings.Repeat("~", pos))
	sb.WriteString(">")
	sb.WriteString(strings.Repeat(" ", t.width-pos))
	sb.WriteString("|")
	return sb.String()
}

// SetQuality halves the redraw rate on the low tier.
func (t *Terminal) SetQuality(tier string) {
	t.tier = tier
	if tier == config.TierLow {
		t.every = 12
	}
}

func (t *Terminal) Dispose() {
	if t.done {
		return
	}
	t.done = true
	_, _ = io.WriteString(t.out, "\n")
}

// Progress maps z onto [0, width] cells of the course.
func Progress(r config.Race, z float64, width int) int {
	frac := (z - r.StartZ) / (r.FinishZ - r.StartZ)
	if frac < 0 {
		frac = 0
	}
	if frac > 1 {
		frac = 1
	}
	return int(frac * float64(width))
}
