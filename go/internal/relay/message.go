package relay

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/mcdev12/vallamkali/go/internal/race"
)

// Topic names a relay message kind.
type Topic string

const (
	TopicSessionStart     Topic = "session-start"
	TopicSessionRestart   Topic = "session-restart"
	TopicRegistrationInfo Topic = "registration-info"
	TopicDebugPing        Topic = "debug-ping"
	TopicDebugPong        Topic = "debug-pong"
)

var ErrUnknownTopic = errors.New("unknown relay topic")

// Known reports whether t is one of the relay topics.
func (t Topic) Known() bool {
	switch t {
	case TopicSessionStart, TopicSessionRestart, TopicRegistrationInfo, TopicDebugPing, TopicDebugPong:
		return true
	}
	return false
}

// Message is the envelope every relay transport carries.
type Message struct {
	ID        string          `json:"id"`        // Message UUID
	Topic     Topic           `json:"topic"`     // Message kind
	Timestamp time.Time       `json:"timestamp"` // Creation time
	Source    string          `json:"source,omitempty"`
	Data      json.RawMessage `json:"data"` // Topic-specific payload
}

// SessionStart asks the display to begin a race. Every field is optional.
type SessionStart struct {
	Player1Name  string `json:"player1_name,omitempty"`
	Player2Name  string `json:"player2_name,omitempty"`
	Player1Phone string `json:"player1_phone,omitempty"`
	Player2Phone string `json:"player2_phone,omitempty"`
	Skip         bool   `json:"skip,omitempty"`
}

// SessionRestart asks every context to return to its initial screen.
type SessionRestart struct {
	Timestamp time.Time `json:"timestamp"`
	Source    string    `json:"source"`
}

// RegistrationInfo is player data a display hands back for recording once
// the race it belonged to is over.
type RegistrationInfo struct {
	SessionStart
	RestartTimestamp *time.Time `json:"restart_timestamp,omitempty"`
}

// DebugPong answers a debug ping.
type DebugPong struct {
	Message string `json:"message"`
}

// NewMessage wraps payload in an envelope with a fresh id.
func NewMessage(topic Topic, source string, payload any) (Message, error) {
	if !topic.Known() {
		return Message{}, fmt.Errorf("%w: %s", ErrUnknownTopic, topic)
	}
	data, err := json.Marshal(payload)
	if err != nil {
		return Message{}, fmt.Errorf("marshal %s payload: %w", topic, err)
	}
	return Message{
		ID:        uuid.New().String(),
		Topic:     topic,
		Timestamp: time.Now().UTC(),
		Source:    source,
		Data:      data,
	}, nil
}

// DecodeMessage parses a wire frame and rejects unknown topics.
func DecodeMessage(raw []byte) (Message, error) {
	var m Message
	if err := json.Unmarshal(raw, &m); err != nil {
		return Message{}, fmt.Errorf("unmarshal relay message: %w", err)
	}
	if !m.Topic.Known() {
		return Message{}, fmt.Errorf("%w: %q", ErrUnknownTopic, m.Topic)
	}
	return m, nil
}

// DecodePayload unmarshals the message data into T. Empty data yields the
// zero value so that absent fields fall back to defaults.
func DecodePayload[T any](m Message) (T, error) {
	var v T
	if len(m.Data) == 0 || string(m.Data) == "null" {
		return v, nil
	}
	if err := json.Unmarshal(m.Data, &v); err != nil {
		return v, fmt.Errorf("unmarshal %s payload: %w", m.Topic, err)
	}
	return v, nil
}

// Query builds the navigation query string the game screen reads. Blank
// fields are left out.
func (s SessionStart) Query() url.Values {
	q := url.Values{}
	for _, kv := range [...][2]string{
		{"player1_name", s.Player1Name},
		{"player2_name", s.Player2Name},
		{"player1_phone", s.Player1Phone},
		{"player2_phone", s.Player2Phone},
	} {
		if v := strings.TrimSpace(kv[1]); v != "" {
			q.Set(kv[0], v)
		}
	}
	if s.Skip {
		q.Set("skip", "true")
	}
	return q
}

// Players normalises the payload into session player info.
func (s SessionStart) Players() race.PlayerInfo {
	return race.NewPlayerInfo(s.Player1Name, s.Player1Phone, s.Player2Name, s.Player2Phone)
}

// SessionStartFromPlayers is the inverse of Players.
func SessionStartFromPlayers(p race.PlayerInfo, skip bool) SessionStart {
	return SessionStart{
		Player1Name:  p.Player1.Name,
		Player2Name:  p.Player2.Name,
		Player1Phone: p.Player1.ContactID,
		Player2Phone: p.Player2.ContactID,
		Skip:         skip,
	}
}
