package registration

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/mcdev12/vallamkali/go/internal/models"
	"github.com/mcdev12/vallamkali/go/internal/sqlutil"
)

// DB is the part of *pgxpool.Pool the repository uses.
type DB interface {
	sqlutil.TxBeginner
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

const schema = `
CREATE TABLE IF NOT EXISTS registrations (
  id            UUID PRIMARY KEY,
  player1_name  TEXT NOT NULL,
  player1_phone TEXT,
  player2_name  TEXT NOT NULL,
  player2_phone TEXT,
  skip          BOOLEAN NOT NULL DEFAULT FALSE,
  source        TEXT NOT NULL DEFAULT '',
  restarted_at  TIMESTAMPTZ,
  created_at    TIMESTAMPTZ NOT NULL
)`

const createdAtIndex = `CREATE INDEX IF NOT EXISTS registrations_created_at_idx ON registrations (created_at DESC)`

// PostgresRepository implements registration data access on Postgres
type PostgresRepository struct {
	db DB
}

// NewPostgresRepository creates a new registration repository
func NewPostgresRepository(db DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// EnsureSchema creates the registrations table if it is missing.
func (r *PostgresRepository) EnsureSchema(ctx context.Context) error {
	return sqlutil.Run(ctx, r.db, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, schema); err != nil {
			return fmt.Errorf("create registrations table: %w", err)
		}
		if _, err := tx.Exec(ctx, createdAtIndex); err != nil {
			return fmt.Errorf("create registrations index: %w", err)
		}
		return nil
	})
}

// InsertRegistration stores one registration
func (r *PostgresRepository) InsertRegistration(ctx context.Context, reg models.Registration) error {
	_, err := r.db.Exec(ctx, `
            INSERT INTO registrations (
              id, player1_name, player1_phone, player2_name, player2_phone,
              skip, source, restarted_at, created_at
            ) VALUES (
              $1,$2,$3,$4,$5,$6,$7,$8,$9
            )
            ON CONFLICT (id) DO NOTHING
        `,
		reg.ID, reg.Player1Name, sqlutil.ToText(reg.Player1Phone),
		reg.Player2Name, sqlutil.ToText(reg.Player2Phone),
		reg.Skip, reg.Source, sqlutil.ToTimestamptz(reg.RestartedAt), reg.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert registration: %w", err)
	}
	return nil
}

// ListRegistrations returns up to limit registrations, newest first
func (r *PostgresRepository) ListRegistrations(ctx context.Context, limit int) ([]models.Registration, error) {
	rows, err := r.db.Query(ctx, `
            SELECT id, player1_name, player1_phone, player2_name, player2_phone,
                   skip, source, restarted_at, created_at
            FROM registrations
            ORDER BY created_at DESC
            LIMIT $1
        `, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list registrations: %w", err)
	}

	regs, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (models.Registration, error) {
		var (
			reg            models.Registration
			phone1, phone2 pgtype.Text
			restartedAt    pgtype.Timestamptz
		)
		err := row.Scan(
			&reg.ID, &reg.Player1Name, &phone1, &reg.Player2Name, &phone2,
			&reg.Skip, &reg.Source, &restartedAt, &reg.CreatedAt,
		)
		reg.Player1Phone = sqlutil.FromText(phone1)
		reg.Player2Phone = sqlutil.FromText(phone2)
		reg.RestartedAt = sqlutil.FromTimestamptz(restartedAt)
		return reg, err
	})
	if err != nil {
		return nil, fmt.Errorf("failed to scan registrations: %w", err)
	}
	return regs, nil
}

// MemoryRepository keeps registrations in process memory
type MemoryRepository struct {
	mu   sync.Mutex
	regs map[uuid.UUID]models.Registration
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{regs: make(map[uuid.UUID]models.Registration)}
}

func (r *MemoryRepository) InsertRegistration(_ context.Context, reg models.Registration) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.regs[reg.ID]; !ok {
		r.regs[reg.ID] = reg
	}
	return nil
}

func (r *MemoryRepository) ListRegistrations(_ context.Context, limit int) ([]models.Registration, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	regs := make([]models.Registration, 0, len(r.regs))
	for _, reg := range r.regs {
		regs = append(regs, reg)
	}
	sort.Slice(regs, func(i, j int) bool { return regs[i].CreatedAt.After(regs[j].CreatedAt) })
	if limit > 0 && len(regs) > limit {
		regs = regs[:limit]
	}
	return regs, nil
}
