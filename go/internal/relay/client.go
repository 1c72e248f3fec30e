package relay

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"
	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog/log"
)

const (
	RoleDisplay      = "display"
	RoleRegistration = "registration"
)

var ErrSendQueueFull = errors.New("relay send queue full")

// ClientConfig holds configuration for a relay client.
type ClientConfig struct {
	URL          string // e.g. ws://localhost:8081/ws/relay
	Role         string
	MinBackoff   time.Duration
	MaxBackoff   time.Duration
	WriteTimeout time.Duration
	QueueSize    int
}

func DefaultClientConfig(url, role string) ClientConfig {
	return ClientConfig{
		URL:          url,
		Role:         role,
		MinBackoff:   500 * time.Millisecond,
		MaxBackoff:   10 * time.Second,
		WriteTimeout: 10 * time.Second,
		QueueSize:    64,
	}
}

// Client is a relay participant. It keeps a websocket to the gateway open,
// reconnecting with exponential back-off, and hands every received message
// to its handler. Messages sent while disconnected wait in the queue.
type Client struct {
	config  ClientConfig
	dialer  *websocket.Dialer
	clock   clockwork.Clock
	handler func(Message)

	queue     chan Message
	connected atomic.Bool
	connects  atomic.Int64
}

// NewClient creates a client. handler runs on the client's read goroutine.
func NewClient(config ClientConfig, handler func(Message)) *Client {
	return NewClientWithClock(config, handler, clockwork.NewRealClock())
}

func NewClientWithClock(config ClientConfig, handler func(Message), clock clockwork.Clock) *Client {
	def := DefaultClientConfig(config.URL, config.Role)
	if config.MinBackoff <= 0 {
		config.MinBackoff = def.MinBackoff
	}
	if config.MaxBackoff < config.MinBackoff {
		config.MaxBackoff = def.MaxBackoff
	}
	if config.WriteTimeout <= 0 {
		config.WriteTimeout = def.WriteTimeout
	}
	if config.QueueSize <= 0 {
		config.QueueSize = def.QueueSize
	}
	if handler == nil {
		handler = func(Message) {}
	}
	return &Client{
		config:  config,
		dialer:  websocket.DefaultDialer,
		clock:   clock,
		handler: handler,
		queue:   make(chan Message, config.QueueSize),
	}
}

// Connected reports whether a websocket is currently open.
func (c *Client) Connected() bool {
	return c.connected.Load()
}

// Connects counts successful dials.
func (c *Client) Connects() int64 {
	return c.connects.Load()
}

// Send queues m for delivery.
func (c *Client) Send(m Message) error {
	select {
	case c.queue <- m:
		return nil
	default:
		return ErrSendQueueFull
	}
}

// Publish builds a message for topic and queues it.
func (c *Client) Publish(topic Topic, payload any) (Message, error) {
	m, err := NewMessage(topic, c.config.Role, payload)
	if err != nil {
		return Message{}, err
	}
	return m, c.Send(m)
}

// Run keeps the client connected until ctx is cancelled.
func (c *Client) Run(ctx context.Context) error {
	backoff := c.config.MinBackoff
	var carry *Message

	for {
		conn, err := c.dial(ctx)
		if err == nil {
			backoff = c.config.MinBackoff
			carry = c.serve(ctx, conn, carry)
		} else {
			log.Warn().
				Err(err).
				Str("url", c.config.URL).
				Dur("retry_in", backoff).
				Msg("relay dial failed")
		}

		if ctx.Err() != nil {
			return nil
		}

		timer := c.clock.NewTimer(backoff)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil
		case <-timer.Chan():
		}
		if err != nil {
			backoff *= 2
			if backoff > c.config.MaxBackoff {
				backoff = c.config.MaxBackoff
			}
		}
	}
}

func (c *Client) dial(ctx context.Context) (*websocket.Conn, error) {
	url := c.config.URL
	if c.config.Role != "" {
		url += "?role=" + c.config.Role
	}
	conn, resp, err := c.dialer.DialContext(ctx, url, http.Header{})
	if err != nil {
		if resp != nil {
			return nil, fmt.Errorf("dial relay: %s: %w", resp.Status, err)
		}
		return nil, fmt.Errorf("dial relay: %w", err)
	}
	c.connects.Add(1)
	log.Info().Str("url", c.config.URL).Str("role", c.config.Role).Msg("relay connected")
	return conn, nil
}

// serve pumps one connection until it fails or ctx ends. It returns a
// message that was dequeued but not written, if any.
func (c *Client) serve(ctx context.Context, conn *websocket.Conn, carry *Message) *Message {
	c.connected.Store(true)
	defer c.connected.Store(false)
	defer conn.Close()

	readErr := make(chan error, 1)
	go func() {
		for {
			_, raw, err := conn.ReadMessage()
			if err != nil {
				readErr <- err
				return
			}
			m, err := DecodeMessage(raw)
			if err != nil {
				log.Warn().Err(err).Msg("dropping malformed relay message")
				continue
			}
			c.handler(m)
		}
	}()

	write := func(m Message) bool {
		conn.SetWriteDeadline(c.clock.Now().Add(c.config.WriteTimeout))
		if err := conn.WriteJSON(m); err != nil {
			log.Warn().Err(err).Str("topic", string(m.Topic)).Msg("relay write failed")
			return false
		}
		return true
	}

	if carry != nil {
		if !write(*carry) {
			return carry
		}
	}

	for {
		select {
		case <-ctx.Done():
			conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
				time.Now().Add(time.Second))
			return nil
		case err := <-readErr:
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				log.Warn().Err(err).Msg("relay connection lost")
			}
			return nil
		case m := <-c.queue:
			if !write(m) {
				return &m
			}
		}
	}
}
