package race

import (
	"context"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/mcdev12/vallamkali/go/internal/boats"
	"github.com/mcdev12/vallamkali/go/internal/config"
)

// Clock is the subset of clockwork.Clock the race needs.
// In production, use clockwork.NewRealClock(). In tests, a FakeClock.
type Clock interface {
	Now() time.Time
	NewTicker(d time.Duration) clockwork.Ticker
}

// Camera is where the renderer looks from.
type Camera struct {
	Position boats.Vec3
	LookAt   boats.Vec3
}

// Frame is everything the renderer draws for one tick.
type Frame struct {
	Number int
	Phase  Phase
	Boats  [boats.Count]boats.Boat
	Camera Camera
}

// Renderer draws the scene. Implementations own the scene graph.
type Renderer interface {
	Render(f Frame) error
	SetQuality(tier string)
	Dispose()
}

// World is the decorative environment around the track.
type World interface {
	Update(dt time.Duration)
	ReduceDetail()
	Dispose()
}

// Surface is the presentation layer the session drives directly. It also
// receives lifecycle events when it implements the listener interfaces.
type Surface interface {
	// StartCountdown runs the pre-race countdown and calls done once it
	// finishes. done may be called from any goroutine.
	StartCountdown(done func())
	UpdateDistances(player1, player2 int)
	HideWinner()
	ResetDistances()
	Dispose()
}

// Audio is the part of the audio gateway the session drives directly.
type Audio interface {
	Init()
	StopMusic()
	Close()
}

// Input reports whether each player is holding their key.
type Input interface {
	IsPlayer1Moving() bool
	IsPlayer2Moving() bool
}

// Deps are the collaborators of a Session. The factories run in the order
// presentation, audio, world, input, entities.
type Deps struct {
	Config  config.Game
	Clock   Clock
	Players PlayerInfo

	NewSurface  func() (Surface, error)
	NewAudio    func() (Audio, error)
	NewRenderer func() (Renderer, error)
	NewWorld    func(ctx context.Context) (World, error)
	Input       Input
	Loader      boats.AssetLoader
}

type noInput struct{}

func (noInput) IsPlayer1Moving() bool { return false }
func (noInput) IsPlayer2Moving() bool { return false }
