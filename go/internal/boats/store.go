// Package boats owns the two racing boats: their transforms, per-tick
// movement and reset to the start line.
package boats

import (
	"context"
	"math"

	"github.com/mcdev12/vallamkali/go/internal/config"
	"github.com/rs/zerolog/log"
)

// ID identifies a boat. Player 1 races boat 0, player 2 races boat 1.
type ID int

const (
	Player1 ID = 0
	Player2 ID = 1
)

// Count is the number of boats in every race.
const Count = 2

// Vec3 is a position or Euler rotation.
type Vec3 struct {
	X, Y, Z float64
}

// Boat is one racing entity.
type Boat struct {
	ID       ID
	Position Vec3
	Rotation Vec3
	LaneX    float64
	Fallback bool // true when the procedural hull replaced the model

	steps int
}

// Steps reports how many moving ticks the boat has taken since the last reset.
func (b *Boat) Steps() int {
	return b.steps
}

// AssetLoader loads a boat model. Implementations live outside the core.
type AssetLoader interface {
	Load(ctx context.Context, path string) error
}

// Store holds both boats. It is not safe for concurrent use; the race loop
// is its only caller.
type Store struct {
	cfg   config.Game
	boats [Count]*Boat

	waveTime       float64
	animationFrame int
}

// NewStore creates an empty store. Call Create before racing.
func NewStore(cfg config.Game) *Store {
	return &Store{cfg: cfg}
}

// Create places both boats on the start line. A model that fails to load is
// replaced by a procedural hull; creation itself never fails.
func (s *Store) Create(ctx context.Context, loader AssetLoader) {
	fallback := false
	if loader == nil {
		fallback = true
	} else if err := loader.Load(ctx, s.cfg.Models.SnakeBoat); err != nil {
		log.Warn().Err(err).Str("model", s.cfg.Models.SnakeBoat).Msg("failed to load boat model, using fallback")
		fallback = true
	}

	for i := range s.boats {
		id := ID(i)
		b := &Boat{ID: id, LaneX: s.laneX(id), Fallback: fallback}
		s.place(b)
		s.boats[i] = b
	}

	log.Info().Bool("fallback", fallback).Msg("boats created")
}

// Boat returns the boat with id, or nil if it does not exist.
func (s *Store) Boat(id ID) *Boat {
	if id < 0 || int(id) >= Count {
		return nil
	}
	return s.boats[id]
}

// Boats returns both boats in id order. Entries may be nil after Dispose.
func (s *Store) Boats() [Count]*Boat {
	return s.boats
}

// Ready reports whether both boats exist.
func (s *Store) Ready() bool {
	return s.boats[Player1] != nil && s.boats[Player2] != nil
}

// Move advances boat id by one fixed step when moving is true and reports
// whether the boat moved. A missing boat is skipped.
func (s *Store) Move(id ID, moving bool) bool {
	b := s.Boat(id)
	if b == nil || !moving {
		return false
	}

	b.steps++
	b.Position.Z = s.cfg.Race.StartZ + float64(b.steps)*s.cfg.Boats.Speed

	// cosmetic bob only on every 4th move
	s.animationFrame++
	if s.animationFrame%4 == 0 {
		s.animate(b)
	}
	return true
}

// AdvanceWave steps the cosmetic wave clock once per update.
func (s *Store) AdvanceWave() {
	s.waveTime += 0.5
}

// Reset returns both boats to their start transforms.
func (s *Store) Reset() {
	for _, b := range s.boats {
		if b == nil {
			continue
		}
		s.place(b)
	}
}

// Dispose drops both boats. Later calls on the store are no-ops.
func (s *Store) Dispose() {
	s.boats = [Count]*Boat{}
}

func (s *Store) place(b *Boat) {
	b.steps = 0
	b.Position = Vec3{X: b.LaneX, Y: s.cfg.Boats.BaseY, Z: s.cfg.Race.StartZ}
	b.Rotation = Vec3{X: 0, Y: math.Pi, Z: 0}
}

func (s *Store) laneX(id ID) float64 {
	if id == Player1 {
		return s.cfg.Boats.Lane1X
	}
	return s.cfg.Boats.Lane2X
}

func (s *Store) animate(b *Boat) {
	t := s.waveTime*s.cfg.Waves.Frequency + float64(b.ID)*math.Pi/2
	sin, cos := math.Sincos(t)

	b.Position.Y = s.cfg.Boats.BaseY + sin*s.cfg.Waves.Amplitude*0.5
	if s.animationFrame%8 == 0 {
		b.Rotation.X = sin * 0.02
		b.Rotation.Z = cos * 0.03
	}
}
