package relay

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/rs/zerolog/log"
)

var ErrBusClosed = errors.New("relay bus closed")

// Bus carries relay messages between gateway instances. Every published
// message is delivered to every subscriber, the publisher's own included.
type Bus interface {
	Publish(ctx context.Context, m Message) error
	Subscribe(handler func(Message)) (unsubscribe func(), err error)
	Close() error
}

// LocalBus is an in-process Bus for a single gateway.
type LocalBus struct {
	mu       sync.RWMutex
	handlers map[int]func(Message)
	nextID   int
	closed   bool
}

func NewLocalBus() *LocalBus {
	return &LocalBus{handlers: make(map[int]func(Message))}
}

func (b *LocalBus) Publish(ctx context.Context, m Message) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	b.mu.RLock()
	if b.closed {
		b.mu.RUnlock()
		return ErrBusClosed
	}
	handlers := make([]func(Message), 0, len(b.handlers))
	for _, h := range b.handlers {
		handlers = append(handlers, h)
	}
	b.mu.RUnlock()

	for _, h := range handlers {
		h(m)
	}
	return nil
}

func (b *LocalBus) Subscribe(handler func(Message)) (func(), error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return nil, ErrBusClosed
	}
	id := b.nextID
	b.nextID++
	b.handlers[id] = handler
	return func() {
		b.mu.Lock()
		delete(b.handlers, id)
		b.mu.Unlock()
	}, nil
}

func (b *LocalBus) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.closed = true
	b.handlers = map[int]func(Message){}
	return nil
}

// NATSConfig holds connection settings shared by the NATS backed relay
// components.
type NATSConfig struct {
	URL           string
	SubjectPrefix string
	MaxReconnects int
	ReconnectWait time.Duration
	Name          string
}

func DefaultNATSConfig() NATSConfig {
	return NATSConfig{
		URL:           nats.DefaultURL,
		SubjectPrefix: "vallamkali.relay",
		MaxReconnects: -1, // Infinite
		ReconnectWait: 2 * time.Second,
		Name:          "vallamkali-relay",
	}
}

// ConnectNATS dials NATS with reconnect and logging handlers installed.
func ConnectNATS(config NATSConfig) (*nats.Conn, error) {
	opts := []nats.Option{
		nats.Name(config.Name),
		nats.MaxReconnects(config.MaxReconnects),
		nats.ReconnectWait(config.ReconnectWait),
		nats.DisconnectErrHandler(func(nc *nats.Conn, err error) {
			log.Error().Err(err).Msg("NATS disconnected")
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			log.Info().Str("url", nc.ConnectedUrl()).Msg("NATS reconnected")
		}),
		nats.ErrorHandler(func(nc *nats.Conn, sub *nats.Subscription, err error) {
			log.Error().Err(err).Msg("NATS error")
		}),
	}

	nc, err := nats.Connect(config.URL, opts...)
	if err != nil {
		return nil, fmt.Errorf("connect to NATS: %w", err)
	}
	return nc, nil
}

// NATSBus fans relay messages out over NATS core subjects
// <prefix>.<topic> so several gateways share one relay.
type NATSBus struct {
	nc     *nats.Conn
	prefix string
	owned  bool
}

// NewNATSBus connects to NATS. The bus owns the connection.
func NewNATSBus(config NATSConfig) (*NATSBus, error) {
	nc, err := ConnectNATS(config)
	if err != nil {
		return nil, err
	}
	bus := NewNATSBusWithConn(nc, config.SubjectPrefix)
	bus.owned = true
	return bus, nil
}

// NewNATSBusWithConn uses an existing connection, which the caller closes.
func NewNATSBusWithConn(nc *nats.Conn, prefix string) *NATSBus {
	if prefix == "" {
		prefix = DefaultNATSConfig().SubjectPrefix
	}
	return &NATSBus{nc: nc, prefix: prefix}
}

// Subject returns the NATS subject for topic.
func (b *NATSBus) Subject(topic Topic) string {
	return b.prefix + "." + string(topic)
}

func (b *NATSBus) Publish(ctx context.Context, m Message) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	data, err := json.Marshal(m)
	if err != nil {
		return fmt.Errorf("marshal relay message: %w", err)
	}
	if err := b.nc.Publish(b.Subject(m.Topic), data); err != nil {
		return fmt.Errorf("publish to NATS: %w", err)
	}

	log.Debug().
		Str("subject", b.Subject(m.Topic)).
		Str("message_id", m.ID).
		Int("size", len(data)).
		Msg("relay message published")
	return nil
}

func (b *NATSBus) Subscribe(handler func(Message)) (func(), error) {
	sub, err := b.nc.Subscribe(b.prefix+".>", func(msg *nats.Msg) {
		m, err := DecodeMessage(msg.Data)
		if err != nil {
			log.Warn().Err(err).Str("subject", msg.Subject).Msg("dropping malformed NATS relay message")
			return
		}
		handler(m)
	})
	if err != nil {
		return nil, fmt.Errorf("subscribe to NATS: %w", err)
	}
	return func() {
		if err := sub.Unsubscribe(); err != nil {
			log.Warn().Err(err).Msg("failed to unsubscribe from NATS")
		}
	}, nil
}

func (b *NATSBus) Close() error {
	if b.owned && b.nc != nil {
		if err := b.nc.Drain(); err != nil {
			b.nc.Close()
			return fmt.Errorf("drain NATS connection: %w", err)
		}
	}
	return nil
}

// NewBus returns a NATSBus when config enables NATS and a LocalBus
// otherwise.
func NewBus(config Config) (Bus, error) {
	if !config.UseNATS {
		return NewLocalBus(), nil
	}
	bus, err := NewNATSBus(config.NATS)
	if err != nil {
		return nil, err
	}
	return bus, nil
}
