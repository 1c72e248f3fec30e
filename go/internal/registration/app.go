package registration

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/mcdev12/vallamkali/go/internal/boats"
	"github.com/mcdev12/vallamkali/go/internal/models"
	"github.com/mcdev12/vallamkali/go/internal/race"
	"github.com/mcdev12/vallamkali/go/internal/relay"
	"github.com/rs/zerolog/log"
)

// RegistrationRepository defines what the app layer needs from the repository
type RegistrationRepository interface {
	InsertRegistration(ctx context.Context, r models.Registration) error
	ListRegistrations(ctx context.Context, limit int) ([]models.Registration, error)
}

// App handles registration business logic
type App struct {
	repo  RegistrationRepository
	clock clockwork.Clock
}

// NewApp creates a new registration App
func NewApp(repo RegistrationRepository, clock clockwork.Clock) *App {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &App{
		repo:  repo,
		clock: clock,
	}
}

// Register validates a registration form and returns the normalised
// session-start payload to publish.
func (a *App) Register(req relay.SessionStart) (relay.SessionStart, error) {
	if err := Validate(req); err != nil {
		return relay.SessionStart{}, fmt.Errorf("validation failed: %w", err)
	}
	return Normalize(req), nil
}

// Normalize trims every field and applies the default names.
func Normalize(req relay.SessionStart) relay.SessionStart {
	return relay.SessionStartFromPlayers(req.Players(), req.Skip)
}

// Record stores player data unless it is nothing but defaults. It
// satisfies relay.Recorder.
func (a *App) Record(ctx context.Context, info relay.RegistrationInfo, source string) error {
	players := info.Players()
	if players.IsDefault() && !info.Skip {
		log.Debug().Str("source", source).Msg("skipping default player data")
		return nil
	}

	reg := models.Registration{
		ID:           uuid.New(),
		Player1Name:  players.Player1.Name,
		Player1Phone: players.Player1.ContactID,
		Player2Name:  players.Player2.Name,
		Player2Phone: players.Player2.ContactID,
		Skip:         info.Skip,
		Source:       source,
		RestartedAt:  info.RestartTimestamp,
		CreatedAt:    a.clock.Now().UTC(),
	}
	if err := a.repo.InsertRegistration(ctx, reg); err != nil {
		return fmt.Errorf("failed to record registration: %w", err)
	}

	log.Info().
		Str("registration_id", reg.ID.String()).
		Str("player1", reg.Player1Name).
		Str("player2", reg.Player2Name).
		Bool("skip", reg.Skip).
		Str("source", source).
		Msg("player data recorded")
	return nil
}

// Recent lists the newest registrations first.
func (a *App) Recent(ctx context.Context, limit int) ([]models.Registration, error) {
	if limit <= 0 || limit > 500 {
		limit = 50
	}
	regs, err := a.repo.ListRegistrations(ctx, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list registrations: %w", err)
	}
	return regs, nil
}

// Label is how a recorded race reads in listings.
func Label(r models.Registration) string {
	p := race.NewPlayerInfo(r.Player1Name, r.Player1Phone, r.Player2Name, r.Player2Phone)
	return fmt.Sprintf("%s vs %s", p.Label(boats.Player1), p.Label(boats.Player2))
}
