package race

import (
	"context"
	"testing"
	"time"

	"github.com/mcdev12/vallamkali/go/internal/boats"
)

func TestLoopTicksAndRunsPostedWork(t *testing.T) {
	h := newHarness(true)
	if err := h.session.Initialize(context.Background()); err != nil {
		t.Fatal(err)
	}
	loop := NewLoop(h.session)
	h.input.p1 = true

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- loop.Run(ctx) }()

	waitCtx, waitCancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer waitCancel()
	if err := h.clock.BlockUntilContext(waitCtx, 1); err != nil {
		t.Fatalf("ticker never registered: %v", err)
	}

	phases := make(chan Phase, 1)
	loop.Post(ctx, func(s *Session) {
		s.RequestStart()
		phases <- s.Phase()
	})
	select {
	case p := <-phases:
		if p != PhaseCountdown {
			t.Fatalf("phase = %v, want countdown", p)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("posted work never ran")
	}

	// the countdown completes on a foreign goroutine and is marshalled back
	go h.surface.countdown()
	deadline := time.Now().Add(2 * time.Second)
	for {
		h.clock.Advance(16 * time.Millisecond)
		steps := make(chan int, 1)
		loop.Post(ctx, func(s *Session) { steps <- s.Boats().Boat(boats.Player1).Steps() })
		if <-steps > 0 {
			break
		}
		if time.Now().After(deadline) {
			t.Fatal("boat never moved")
		}
		time.Sleep(time.Millisecond)
	}
	if h.renderer.frames.Load() == 0 {
		t.Fatal("no frames rendered")
	}

	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("run: %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("loop did not stop")
	}
	if h.session.Alive() {
		t.Fatal("cancelling the loop must destroy the session")
	}
	if loop.Post(context.Background(), func(*Session) {}) {
		t.Fatal("post accepted after destroy")
	}
}

func TestDestroyStopsLoop(t *testing.T) {
	h := newHarness(false)
	if err := h.session.Initialize(context.Background()); err != nil {
		t.Fatal(err)
	}
	loop := NewLoop(h.session)

	done := make(chan error, 1)
	go func() { done <- loop.Run(context.Background()) }()

	loop.Post(context.Background(), func(s *Session) { s.Destroy() })
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("destroy did not stop the loop")
	}
}
