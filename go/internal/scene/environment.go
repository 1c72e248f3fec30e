package scene

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/mcdev12/vallamkali/go/internal/boats"
	"github.com/mcdev12/vallamkali/go/internal/config"
	"github.com/rs/zerolog/log"
)

// Environment is the river around the track: water chunks, bank trees and
// the finish banner.
type Environment struct {
	cfg config.Game

	WaterChunks int
	Trees       int
	FinishZ     float64
	WaveOffset  float64

	updates  int
	disposed bool
}

// NewEnvironment builds the river. Tree models that fail to load leave bare
// banks; only a cancelled ctx is an error.
func NewEnvironment(ctx context.Context, cfg config.Game, loader boats.AssetLoader) (*Environment, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("failed to build environment: %w", err)
	}

	e := &Environment{
		cfg:         cfg,
		WaterChunks: 3,
		FinishZ:     cfg.Race.FinishZ,
	}
	if cfg.Quality.Tier == config.TierLow {
		e.WaterChunks = 2
	}

	if loader != nil && cfg.Models.PalmTrees != "" {
		if err := loader.Load(ctx, cfg.Models.PalmTrees); err != nil {
			log.Warn().Err(err).Str("model", cfg.Models.PalmTrees).Msg("could not load palm trees")
		} else {
			e.Trees = 4
		}
	}
	return e, nil
}

// Update animates the water. Only every 10th call changes anything.
func (e *Environment) Update(dt time.Duration) {
	if e.disposed {
		return
	}
	e.updates++
	if e.updates%10 != 0 {
		return
	}
	e.WaveOffset = math.Sin(float64(e.updates)*0.002) * 0.2
}

// ReduceDetail drops to the low tier layout.
func (e *Environment) ReduceDetail() {
	e.WaterChunks = 2
	e.Trees = 0
	log.Info().Msg("environment detail reduced")
}

func (e *Environment) Dispose() {
	e.disposed = true
}
