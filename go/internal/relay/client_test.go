package relay

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
)

type inbox struct {
	mu   sync.Mutex
	msgs []Message
}

func (i *inbox) add(m Message) {
	i.mu.Lock()
	i.msgs = append(i.msgs, m)
	i.mu.Unlock()
}

func (i *inbox) topics() []Topic {
	i.mu.Lock()
	defer i.mu.Unlock()
	out := make([]Topic, 0, len(i.msgs))
	for _, m := range i.msgs {
		out = append(out, m.Topic)
	}
	return out
}

func runClient(t *testing.T, c *Client) {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		c.Run(ctx)
	}()
	t.Cleanup(func() {
		cancel()
		<-done
	})
}

func TestClientDeliversQueuedMessages(t *testing.T) {
	g := newGateway(t)
	display := g.dial(t, RoleDisplay)
	g.waitConnections(t, 1)

	received := &inbox{}
	cfg := DefaultClientConfig(g.wsURL, RoleRegistration)
	cfg.MinBackoff = 10 * time.Millisecond
	client := NewClient(cfg, received.add)

	// Queued before the socket exists.
	sent, err := client.Publish(TopicSessionStart, SessionStart{Player1Name: "Anu"})
	if err != nil {
		t.Fatal(err)
	}
	runClient(t, client)

	got := readMessage(t, display)
	if got.ID != sent.ID || got.Source != RoleRegistration {
		t.Fatalf("display got %+v, want %s from registration", got, sent.ID)
	}
	eventually(t, func() bool {
		topics := received.topics()
		return len(topics) == 1 && topics[0] == TopicSessionStart
	})
	if g.service.GetStats()["roles"].(map[string]int)[RoleRegistration] != 1 {
		t.Fatalf("stats = %v", g.service.GetStats())
	}
}

func TestClientReconnectsAfterServerDrop(t *testing.T) {
	g := newGateway(t)

	cfg := DefaultClientConfig(g.wsURL, RoleDisplay)
	cfg.MinBackoff = 10 * time.Millisecond
	client := NewClient(cfg, nil)
	runClient(t, client)

	eventually(t, client.Connected)
	g.service.hub.closeAll()

	eventually(t, func() bool { return client.Connects() >= 2 && client.Connected() })
	g.waitConnections(t, 1)
}

func TestClientBacksOffOnDialFailure(t *testing.T) {
	clock := clockwork.NewFakeClock()
	cfg := DefaultClientConfig("ws://127.0.0.1:1/ws/relay", RoleDisplay)
	cfg.MinBackoff = time.Second
	cfg.MaxBackoff = 3 * time.Second
	client := NewClientWithClock(cfg, nil, clock)
	runClient(t, client)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	// 1s, 2s, then capped at 3s.
	for _, wait := range []time.Duration{time.Second, 2 * time.Second, 3 * time.Second, 3 * time.Second} {
		if err := clock.BlockUntilContext(ctx, 1); err != nil {
			t.Fatalf("client never waited: %v", err)
		}
		clock.Advance(wait - time.Nanosecond)
		if client.Connected() {
			t.Fatal("connected to nothing")
		}
		clock.Advance(time.Nanosecond)
	}
	if client.Connects() != 0 {
		t.Fatalf("connects = %d", client.Connects())
	}
}

func TestClientQueueFull(t *testing.T) {
	cfg := DefaultClientConfig("ws://unused", RoleDisplay)
	cfg.QueueSize = 1
	client := NewClient(cfg, nil)
	if _, err := client.Publish(TopicDebugPing, nil); err != nil {
		t.Fatal(err)
	}
	if _, err := client.Publish(TopicDebugPing, nil); err != ErrSendQueueFull {
		t.Fatalf("err = %v, want ErrSendQueueFull", err)
	}
}
