package main

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/mcdev12/vallamkali/go/internal/dbconfig"
	"github.com/mcdev12/vallamkali/go/internal/registration"
	"github.com/rs/zerolog/log"
)

// setupDatabase connects to Postgres and creates the registrations table.
// It returns nil when the database is disabled or unreachable; the gateway
// then keeps registrations in memory.
func setupDatabase(ctx context.Context, enabled bool) *pgxpool.Pool {
	if !enabled {
		log.Info().Msg("database disabled, registrations kept in memory")
		return nil
	}

	dbCfg := dbconfig.NewConfigFromEnv()
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	pool, err := dbCfg.Connect(ctx)
	if err != nil {
		log.Warn().Err(err).Msg("database unavailable, registrations kept in memory")
		return nil
	}
	if err := registration.NewPostgresRepository(pool).EnsureSchema(ctx); err != nil {
		log.Warn().Err(err).Msg("failed to create schema, registrations kept in memory")
		pool.Close()
		return nil
	}

	log.Info().
		Str("user", dbCfg.User).
		Str("host", dbCfg.Host).
		Int("port", dbCfg.Port).
		Str("database", dbCfg.Database).
		Msg("connected to database")
	return pool
}
