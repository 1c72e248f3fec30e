package race

import (
	"time"

	"github.com/mcdev12/vallamkali/go/internal/config"
	"github.com/rs/zerolog/log"
)

// FPSWindow is the sampling window of the frame-rate guard.
const FPSWindow = time.Second

// FPSGuard watches the achieved frame rate and downgrades rendering quality
// once if a window falls under the floor. It never upgrades again.
type FPSGuard struct {
	clock Clock
	floor int
	tier  string

	windowStart time.Time
	frames      int
	lastFPS     float64
	onDowngrade func()
}

func NewFPSGuard(clock Clock, cfg config.Quality, onDowngrade func()) *FPSGuard {
	return &FPSGuard{
		clock:       clock,
		floor:       cfg.FPSFloor,
		tier:        cfg.Tier,
		onDowngrade: onDowngrade,
	}
}

// Frame records one rendered frame and reports whether this call downgraded
// the tier.
func (g *FPSGuard) Frame() bool {
	now := g.clock.Now()
	if g.windowStart.IsZero() {
		g.windowStart = now
	}
	g.frames++

	elapsed := now.Sub(g.windowStart)
	if elapsed < FPSWindow {
		return false
	}

	g.lastFPS = float64(g.frames) / elapsed.Seconds()
	g.frames = 0
	g.windowStart = now

	if g.lastFPS >= float64(g.floor) || g.tier != config.TierHigh {
		return false
	}

	g.tier = config.TierLow
	log.Warn().Float64("fps", g.lastFPS).Int("floor", g.floor).Msg("low frame rate, switching to low quality")
	if g.onDowngrade != nil {
		g.onDowngrade()
	}
	return true
}

func (g *FPSGuard) Tier() string {
	return g.tier
}

// LastFPS is the average of the last completed window.
func (g *FPSGuard) LastFPS() float64 {
	return g.lastFPS
}
