// Package pending keeps the player data of the race a display is currently
// running, so that it can be recorded when the race is restarted and the
// race can be resumed after the display process restarts.
package pending

import (
	"context"
	"sync"
	"time"

	"github.com/mcdev12/vallamkali/go/internal/relay"
)

// Record is the pending player data of one display.
type Record struct {
	Start    relay.SessionStart `json:"start"`
	StoredAt time.Time          `json:"stored_at"`
}

// Store holds at most one Record per display.
type Store interface {
	Save(ctx context.Context, r Record) error
	// Load reports false when nothing is pending.
	Load(ctx context.Context) (Record, bool, error)
	Clear(ctx context.Context) error
}

// Memory is a Store that lives as long as the process.
type Memory struct {
	mu     sync.Mutex
	record *Record
}

func NewMemory() *Memory {
	return &Memory{}
}

func (m *Memory) Save(_ context.Context, r Record) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.record = &r
	return nil
}

func (m *Memory) Load(_ context.Context) (Record, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.record == nil {
		return Record{}, false, nil
	}
	return *m.record, true, nil
}

func (m *Memory) Clear(_ context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.record = nil
	return nil
}
