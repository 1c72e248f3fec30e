package ui

import (
	"github.com/rs/zerolog/log"
)

// View draws the overlays. Empty text hides an overlay. Implementations must
// be safe for concurrent use; countdown steps arrive from timer goroutines.
type View interface {
	SetCountdown(text string)
	SetDistances(player1, player2 string)
	SetWinner(text string)
	SetStatus(text string)
}

// LogView reports overlay changes through the global logger. It is the view
// of the headless display.
type LogView struct{}

func (LogView) SetCountdown(text string) {
	if text == "" {
		return
	}
	log.Info().Str("countdown", text).Msg("countdown")
}

func (LogView) SetDistances(player1, player2 string) {
	log.Debug().Str("player1", player1).Str("player2", player2).Msg("distances")
}

func (LogView) SetWinner(text string) {
	if text == "" {
		return
	}
	log.Info().Str("winner", text).Msg("race over")
}

func (LogView) SetStatus(text string) {
	if text == "" {
		return
	}
	log.Info().Str("status", text).Msg("status")
}
