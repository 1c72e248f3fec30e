package models

import (
	"time"

	"github.com/google/uuid"
)

// Registration is the player data recorded for one race.
type Registration struct {
	ID           uuid.UUID  `json:"id"`
	Player1Name  string     `json:"player1_name"`
	Player1Phone string     `json:"player1_phone"`
	Player2Name  string     `json:"player2_name"`
	Player2Phone string     `json:"player2_phone"`
	Skip         bool       `json:"skip"`
	Source       string     `json:"source"`
	RestartedAt  *time.Time `json:"restarted_at,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
}
