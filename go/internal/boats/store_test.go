package boats

import (
	"context"
	"errors"
	"math"
	"testing"

	"github.com/mcdev12/vallamkali/go/internal/config"
)

type stubLoader struct {
	err   error
	paths []string
}

func (l *stubLoader) Load(ctx context.Context, path string) error {
	l.paths = append(l.paths, path)
	return l.err
}

func newStore(t *testing.T) *Store {
	t.Helper()
	cfg, err := config.Resolve(config.Defaults())
	if err != nil {
		t.Fatal(err)
	}
	s := NewStore(cfg)
	s.Create(context.Background(), &stubLoader{})
	return s
}

func TestCreatePlacesBoatsOnStartLine(t *testing.T) {
	s := newStore(t)
	if !s.Ready() {
		t.Fatal("expected both boats")
	}
	want := map[ID]float64{Player1: -9, Player2: 10}
	for id, x := range want {
		b := s.Boat(id)
		if b.Position != (Vec3{X: x, Y: 10, Z: -75}) {
			t.Errorf("boat %d at %+v", id, b.Position)
		}
		if b.Rotation.Y != math.Pi {
			t.Errorf("boat %d rotation %+v", id, b.Rotation)
		}
		if b.Fallback {
			t.Errorf("boat %d unexpectedly uses fallback", id)
		}
	}
}

func TestCreateFallsBackWhenModelFails(t *testing.T) {
	cfg, _ := config.Resolve(config.Defaults())
	s := NewStore(cfg)
	loader := &stubLoader{err: errors.New("404")}
	s.Create(context.Background(), loader)

	if len(loader.paths) != 1 || loader.paths[0] != cfg.Models.SnakeBoat {
		t.Fatalf("loader called with %v", loader.paths)
	}
	for _, b := range s.Boats() {
		if b == nil || !b.Fallback {
			t.Fatalf("expected fallback boat, got %+v", b)
		}
	}
}

func TestMoveAdvancesExactly(t *testing.T) {
	s := newStore(t)
	for n := 1; n <= 375; n++ {
		if !s.Move(Player1, true) {
			t.Fatalf("move %d rejected", n)
		}
		want := -75 + float64(n)*0.4
		if got := s.Boat(Player1).Position.Z; got != want {
			t.Fatalf("after %d ticks z = %v, want %v", n, got, want)
		}
	}
	if z := s.Boat(Player1).Position.Z; z < 75 {
		t.Fatalf("boat should reach the finish after 375 ticks, z = %v", z)
	}
	if z := s.Boat(Player2).Position.Z; z != -75 {
		t.Fatalf("idle boat moved to %v", z)
	}
}

func TestMoveNotMovingIsNoop(t *testing.T) {
	s := newStore(t)
	before := *s.Boat(Player2)
	if s.Move(Player2, false) {
		t.Fatal("move reported true for idle input")
	}
	if *s.Boat(Player2) != before {
		t.Fatal("idle move changed state")
	}
}

func TestBobNeverTouchesZ(t *testing.T) {
	s := newStore(t)
	n := 16
	for i := 0; i < n; i++ {
		s.AdvanceWave()
		s.Move(Player2, true)
	}
	b := s.Boat(Player2)
	if b.Position.Z != -75+float64(n)*0.4 {
		t.Fatalf("z = %v", b.Position.Z)
	}
	if b.Position.Y == 10 && b.Rotation.X == 0 {
		t.Fatal("expected cosmetic animation to have run")
	}
}

func TestResetRestoresStart(t *testing.T) {
	s := newStore(t)
	for i := 0; i < 100; i++ {
		s.AdvanceWave()
		s.Move(Player1, true)
		s.Move(Player2, i%3 == 0)
	}
	s.Reset()
	for _, b := range s.Boats() {
		if b.Position != (Vec3{X: b.LaneX, Y: 10, Z: -75}) || b.Rotation != (Vec3{Y: math.Pi}) {
			t.Fatalf("boat %d not reset: %+v %+v", b.ID, b.Position, b.Rotation)
		}
		if b.Steps() != 0 {
			t.Fatalf("boat %d steps = %d", b.ID, b.Steps())
		}
	}
}

func TestMissingBoatsAreSkipped(t *testing.T) {
	s := newStore(t)
	s.Dispose()
	if s.Move(Player1, true) {
		t.Fatal("move on disposed store reported true")
	}
	s.Reset()
	if s.Boat(Player1) != nil || s.Boat(ID(7)) != nil {
		t.Fatal("expected nil boats")
	}
	if s.Ready() {
		t.Fatal("disposed store should not be ready")
	}
}
