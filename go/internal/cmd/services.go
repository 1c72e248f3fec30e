package main

import (
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/mcdev12/vallamkali/go/internal/registration"
	"github.com/mcdev12/vallamkali/go/internal/relay"
)

type Services struct {
	Relay        *relay.Service
	Registration *registration.Handler
}

func setupServices(cfg *Config, pool *pgxpool.Pool) (*Services, error) {
	// Wire up dependency injection chain
	// Database layer → Repository layer → App layer → Service layer

	var repo registration.RegistrationRepository = registration.NewMemoryRepository()
	if pool != nil {
		repo = registration.NewPostgresRepository(pool)
	}
	registrationApp := registration.NewApp(repo, nil)

	relayCfg := relay.DefaultConfig()
	relayCfg.UseNATS = cfg.Relay.UseNATS
	relayCfg.NATS.URL = cfg.Relay.NATSURL
	relayCfg.NATS.SubjectPrefix = cfg.Relay.SubjectPrefix

	bus, err := relay.NewBus(relayCfg)
	if err != nil {
		return nil, err
	}
	relayService, err := relay.NewService(relayCfg, bus, registrationApp)
	if err != nil {
		bus.Close()
		return nil, err
	}

	return &Services{
		Relay:        relayService,
		Registration: registration.NewHandler(registrationApp, relayService),
	}, nil
}
