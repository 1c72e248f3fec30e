package race

import (
	"math"
	"time"

	"github.com/mcdev12/vallamkali/go/internal/config"
)

// ClampDelta bounds a frame delta to [0, max]. A stalled frame therefore
// never produces a large simulation jump.
func ClampDelta(dt, max time.Duration) time.Duration {
	if dt < 0 {
		return 0
	}
	if dt > max {
		return max
	}
	return dt
}

// FixedStep returns how many movement steps a held key earns in one tick.
// Movement is fixed-step: one step per tick whatever the frame delta, so
// race length is measured in ticks.
func FixedStep() int {
	return 1
}

// DistanceRemaining is the rounded distance left to the finish for a boat at
// z, never negative.
func DistanceRemaining(cfg config.Race, z float64) int {
	d := math.Round(cfg.Distance - (z - cfg.StartZ))
	if d < 0 {
		return 0
	}
	return int(d)
}
