package registration

import (
	"errors"
	"fmt"
	"strings"

	"github.com/mcdev12/vallamkali/go/internal/relay"
)

// PhoneDigits is the length of a valid phone number.
const PhoneDigits = 10

var (
	ErrInvalidPhone = errors.New("phone number must be 10 digits")
	ErrIncomplete   = errors.New("at least one player needs both a name and a phone number")
)

// PlayerError ties a validation failure to a player (1 or 2).
type PlayerError struct {
	Player int
	Err    error
}

func (e *PlayerError) Error() string {
	return fmt.Sprintf("player %d %s", e.Player, e.Err)
}

func (e *PlayerError) Unwrap() error {
	return e.Err
}

// Validate checks a registration form. Skipping bypasses every check.
// Otherwise at least one player must give both a name and a phone number,
// and any phone number given must be exactly PhoneDigits digits.
func Validate(req relay.SessionStart) error {
	if req.Skip {
		return nil
	}

	players := [...]struct{ name, phone string }{
		{req.Player1Name, req.Player1Phone},
		{req.Player2Name, req.Player2Phone},
	}

	complete := false
	for i, p := range players {
		name := strings.TrimSpace(p.name)
		phone := strings.TrimSpace(p.phone)
		if name != "" && phone != "" {
			complete = true
		}
		if phone != "" && !validPhone(phone) {
			return &PlayerError{Player: i + 1, Err: ErrInvalidPhone}
		}
	}
	if !complete {
		return ErrIncomplete
	}
	return nil
}

func validPhone(phone string) bool {
	if len(phone) != PhoneDigits {
		return false
	}
	for _, r := range phone {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
