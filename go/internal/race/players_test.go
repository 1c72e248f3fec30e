package race

import (
	"net/url"
	"strings"
	"testing"

	"github.com/mcdev12/vallamkali/go/internal/boats"
)

func TestNormalizeName(t *testing.T) {
	tests := []struct {
		name string
		in   string
		id   boats.ID
		want string
	}{
		{"empty uses default", "", boats.Player1, "Player 1"},
		{"blank uses default", "   ", boats.Player2, "Player 2"},
		{"trimmed", "  Anu ", boats.Player1, "Anu"},
		{"truncated", strings.Repeat("x", 25), boats.Player1, strings.Repeat("x", 20)},
		{"runes not bytes", strings.Repeat("ക", 22), boats.Player2, strings.Repeat("ക", 20)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := NormalizeName(tt.in, tt.id); got != tt.want {
				t.Fatalf("got %q, want %q", got, tt.want)
			}
		})
	}
}

func TestPlayerInfoFromQuery(t *testing.T) {
	q := url.Values{}
	q.Set("player1_name", "Anu")
	q.Set("player2_phone", "9876543210")

	info := PlayerInfoFromQuery(q)
	if info.Player1.Name != "Anu" || info.Player2.Name != "Player 2" || info.Player2.ContactID != "9876543210" {
		t.Fatalf("info = %+v", info)
	}
	if info.IsDefault() {
		t.Fatal("registered info reported as default")
	}
	if !PlayerInfoFromQuery(url.Values{}).IsDefault() {
		t.Fatal("empty query should be default")
	}
	if got := info.Label(boats.Player1); got != "Anu (Right Boat)" {
		t.Fatalf("label = %q", got)
	}
	if got := info.Label(boats.Player2); got != "Player 2 (Left Boat)" {
		t.Fatalf("label = %q", got)
	}
}
