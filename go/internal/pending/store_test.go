package pending

import (
	"context"
	"testing"
	"time"

	"github.com/mcdev12/vallamkali/go/internal/relay"
)

func TestMemoryStore(t *testing.T) {
	ctx := context.Background()
	s := NewMemory()

	if _, ok, err := s.Load(ctx); ok || err != nil {
		t.Fatalf("empty store Load = %v, %v", ok, err)
	}

	r := Record{Start: relay.SessionStart{Player1Name: "Anu"}, StoredAt: time.Unix(10, 0)}
	if err := s.Save(ctx, r); err != nil {
		t.Fatal(err)
	}
	got, ok, err := s.Load(ctx)
	if err != nil || !ok || got.Start.Player1Name != "Anu" {
		t.Fatalf("Load = %+v, %v, %v", got, ok, err)
	}

	if err := s.Save(ctx, Record{Start: relay.SessionStart{Player1Name: "Biju"}}); err != nil {
		t.Fatal(err)
	}
	got, _, _ = s.Load(ctx)
	if got.Start.Player1Name != "Biju" {
		t.Fatalf("second Save did not replace the record: %+v", got)
	}

	if err := s.Clear(ctx); err != nil {
		t.Fatal(err)
	}
	if _, ok, _ := s.Load(ctx); ok {
		t.Fatal("record survived Clear")
	}
}
