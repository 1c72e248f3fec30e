// Package controls maps raw key state to per-player "is moving" signals.
package controls

import (
	"strings"

	"github.com/mcdev12/vallamkali/go/internal/config"
)

// InputState is a snapshot of the keyboard.
type InputState struct {
	Player1 bool
	Player2 bool
	Keys    map[string]bool
}

// Keyboard tracks pressed keys from edge-triggered down/up signals. A held
// key reads as moving on every tick; there is no debouncing.
type Keyboard struct {
	keys       map[string]bool
	player1Key string
	player2Key string
}

func NewKeyboard(cfg config.Controls) *Keyboard {
	return &Keyboard{
		keys:       make(map[string]bool),
		player1Key: normalize(cfg.Player1Key),
		player2Key: normalize(cfg.Player2Key),
	}
}

func (k *Keyboard) KeyDown(key string) {
	k.keys[normalize(key)] = true
}

func (k *Keyboard) KeyUp(key string) {
	k.keys[normalize(key)] = false
}

func (k *Keyboard) IsPlayer1Moving() bool {
	return k.keys[k.player1Key]
}

func (k *Keyboard) IsPlayer2Moving() bool {
	return k.keys[k.player2Key]
}

// SimulateInput presses or releases the binding of player 1 or 2 without a
// real key event. Other player numbers are ignored.
func (k *Keyboard) SimulateInput(player int, active bool) {
	switch player {
	case 1:
		k.keys[k.player1Key] = active
	case 2:
		k.keys[k.player2Key] = active
	}
}

// State returns a copy of the current input state.
func (k *Keyboard) State() InputState {
	keys := make(map[string]bool, len(k.keys))
	for key, down := range k.keys {
		keys[key] = down
	}
	return InputState{
		Player1: k.IsPlayer1Moving(),
		Player2: k.IsPlayer2Moving(),
		Keys:    keys,
	}
}

// ReleaseAll clears every pressed key.
func (k *Keyboard) ReleaseAll() {
	k.keys = make(map[string]bool)
}

// single characters are case-insensitive, named keys like "ArrowUp" are not
func normalize(key string) string {
	if len([]rune(key)) == 1 {
		return strings.ToLower(key)
	}
	return key
}
