package race

import (
	"fmt"
	"net/url"
	"strings"
	"unicode/utf8"

	"github.com/mcdev12/vallamkali/go/internal/boats"
)

// MaxNameLength bounds display names in runes.
const MaxNameLength = 20

// Player is one racer. ContactID is usually a phone number and may be empty.
type Player struct {
	Name      string
	ContactID string
}

// PlayerInfo is fixed when the session is constructed.
type PlayerInfo struct {
	Player1 Player
	Player2 Player
}

func DefaultPlayerName(id boats.ID) string {
	return fmt.Sprintf("Player %d", int(id)+1)
}

// DefaultPlayers returns the info used when nobody registered.
func DefaultPlayers() PlayerInfo {
	return NewPlayerInfo("", "", "", "")
}

// NewPlayerInfo trims the inputs, substitutes default names and truncates
// names to MaxNameLength.
func NewPlayerInfo(name1, contact1, name2, contact2 string) PlayerInfo {
	return PlayerInfo{
		Player1: Player{Name: NormalizeName(name1, boats.Player1), ContactID: strings.TrimSpace(contact1)},
		Player2: Player{Name: NormalizeName(name2, boats.Player2), ContactID: strings.TrimSpace(contact2)},
	}
}

func NormalizeName(name string, id boats.ID) string {
	name = strings.TrimSpace(name)
	if name == "" {
		return DefaultPlayerName(id)
	}
	if utf8.RuneCountInString(name) > MaxNameLength {
		name = string([]rune(name)[:MaxNameLength])
	}
	return name
}

// PlayerInfoFromQuery reads the navigation query string
// (player1_name, player2_name, player1_phone, player2_phone).
func PlayerInfoFromQuery(q url.Values) PlayerInfo {
	return NewPlayerInfo(q.Get("player1_name"), q.Get("player1_phone"), q.Get("player2_name"), q.Get("player2_phone"))
}

func (p PlayerInfo) Player(id boats.ID) Player {
	if id == boats.Player2 {
		return p.Player2
	}
	return p.Player1
}

// IsDefault reports whether nothing was registered.
func (p PlayerInfo) IsDefault() bool {
	return p == DefaultPlayers()
}

// Label is the on-screen name. Player 1 races the right boat.
func (p PlayerInfo) Label(id boats.ID) string {
	if id == boats.Player2 {
		return p.Player2.Name + " (Left Boat)"
	}
	return p.Player1.Name + " (Right Boat)"
}
