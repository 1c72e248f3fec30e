package relay

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
)

// SourceGateway marks messages the gateway itself originates.
const SourceGateway = "gateway"

// Recorder persists player data that passes through the relay.
type Recorder interface {
	Record(ctx context.Context, info RegistrationInfo, source string) error
}

// Service is the relay gateway: it accepts websocket clients, routes their
// messages through the bus and broadcasts whatever the bus delivers.
type Service struct {
	hub      *Hub
	bus      Bus
	recorder Recorder
	now      func() time.Time

	mu          sync.Mutex
	ctx         context.Context
	unsubscribe func()
}

// Config holds configuration for the relay gateway.
type Config struct {
	ConnectionConfig ConnectionConfig
	NATS             NATSConfig
	UseNATS          bool
}

func DefaultConfig() Config {
	return Config{
		ConnectionConfig: DefaultConnectionConfig(),
		NATS:             DefaultNATSConfig(),
	}
}

// NewService wires a hub to bus. recorder may be nil.
func NewService(config Config, bus Bus, recorder Recorder) (*Service, error) {
	s := &Service{
		hub:      NewHub(config.ConnectionConfig),
		bus:      bus,
		recorder: recorder,
		now:      time.Now,
		ctx:      context.Background(),
	}
	s.hub.OnMessage(s.handleClientMessage)

	unsubscribe, err := bus.Subscribe(s.hub.Broadcast)
	if err != nil {
		return nil, fmt.Errorf("subscribe to relay bus: %w", err)
	}
	s.unsubscribe = unsubscribe
	return s, nil
}

// Start runs the gateway until ctx is cancelled.
func (s *Service) Start(ctx context.Context) error {
	log.Info().Msg("starting relay gateway service")

	s.mu.Lock()
	s.ctx = ctx
	s.mu.Unlock()

	go s.hub.Start(ctx)

	<-ctx.Done()

	log.Info().Msg("relay gateway service shutting down")
	return s.Stop()
}

// Stop detaches from the bus and closes it.
func (s *Service) Stop() error {
	s.mu.Lock()
	unsubscribe := s.unsubscribe
	s.unsubscribe = nil
	s.mu.Unlock()

	if unsubscribe != nil {
		unsubscribe()
	}
	if err := s.bus.Close(); err != nil {
		log.Error().Err(err).Msg("failed to close relay bus")
	}

	log.Info().Msg("relay gateway service stopped")
	return nil
}

// Publish sends m to every client of every gateway on the bus.
func (s *Service) Publish(ctx context.Context, m Message) error {
	if err := s.bus.Publish(ctx, m); err != nil {
		return fmt.Errorf("publish %s: %w", m.Topic, err)
	}
	log.Info().
		Str("message_id", m.ID).
		Str("topic", string(m.Topic)).
		Str("source", m.Source).
		Msg("relay message published")
	return nil
}

// StartSession records the players and broadcasts a session-start.
func (s *Service) StartSession(ctx context.Context, start SessionStart, source string) (Message, error) {
	s.record(ctx, RegistrationInfo{SessionStart: start}, source)

	m, err := NewMessage(TopicSessionStart, source, start)
	if err != nil {
		return Message{}, err
	}
	m.Timestamp = s.now().UTC()
	return m, s.Publish(ctx, m)
}

// RestartSession broadcasts a session-restart.
func (s *Service) RestartSession(ctx context.Context, source string) (Message, error) {
	now := s.now().UTC()
	m, err := NewMessage(TopicSessionRestart, source, SessionRestart{Timestamp: now, Source: source})
	if err != nil {
		return Message{}, err
	}
	m.Timestamp = now
	return m, s.Publish(ctx, m)
}

func (s *Service) handleClientMessage(c *Connection, m Message) {
	s.mu.Lock()
	ctx := s.ctx
	s.mu.Unlock()

	source := m.Source
	if source == "" {
		source = c.Role
	}

	switch m.Topic {
	case TopicSessionStart:
		start, err := DecodePayload[SessionStart](m)
		if err != nil {
			log.Warn().Err(err).Str("connection_id", c.ID).Msg("invalid session-start payload")
			return
		}
		s.record(ctx, RegistrationInfo{SessionStart: start}, source)
		m.Timestamp = s.now().UTC()
		if err := s.Publish(ctx, m); err != nil {
			log.Error().Err(err).Msg("failed to relay session-start")
		}

	case TopicSessionRestart:
		if err := s.Publish(ctx, m); err != nil {
			log.Error().Err(err).Msg("failed to relay session-restart")
		}

	case TopicRegistrationInfo:
		info, err := DecodePayload[RegistrationInfo](m)
		if err != nil {
			log.Warn().Err(err).Str("connection_id", c.ID).Msg("invalid registration-info payload")
			return
		}
		s.record(ctx, info, source)

	case TopicDebugPing:
		log.Info().Str("connection_id", c.ID).RawJSON("data", rawOrNull(m.Data)).Msg("debug ping received")
		pong, err := NewMessage(TopicDebugPong, SourceGateway, DebugPong{Message: "Server received ping"})
		if err != nil {
			log.Error().Err(err).Msg("failed to build debug-pong")
			return
		}
		if err := s.Publish(ctx, pong); err != nil {
			log.Error().Err(err).Msg("failed to relay debug-pong")
		}

	default:
		log.Debug().Str("topic", string(m.Topic)).Msg("ignoring client message")
	}
}

func (s *Service) record(ctx context.Context, info RegistrationInfo, source string) {
	if s.recorder == nil {
		return
	}
	if err := s.recorder.Record(ctx, info, source); err != nil {
		log.Error().Err(err).Str("source", source).Msg("failed to record player data")
	}
}

// RegisterRoutes registers the relay HTTP routes.
func (s *Service) RegisterRoutes(mux *http.ServeMux) {
	NewHandler(s).RegisterRoutes(mux)
	log.Info().Msg("relay gateway routes registered")
}

// GetStats returns statistics about the gateway.
func (s *Service) GetStats() map[string]interface{} {
	stats := s.hub.Stats()
	stats["service"] = "relay_gateway"
	stats["status"] = "running"
	return stats
}

func rawOrNull(data []byte) []byte {
	if len(data) == 0 {
		return []byte("null")
	}
	return data
}
