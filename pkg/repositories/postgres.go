package repositories

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cbodonnell/angelreaper/pkg/game/types"
	"github.com/cbodonnell/angelreaper/pkg/log"
	"github.com/cbodonnell/angelreaper/pkg/repositories/models"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

var _ Repository = &PostgresRepository{}

// uniqueViolation is the SQLSTATE for a duplicate key.
const uniqueViolation = "23505"

type PostgresRepository struct {
	pool *pgxpool.Pool
}

// NewPostgresRepository connects to the database and applies the embedded migrations.
// The caller is responsible for calling Close() on the repository.
func NewPostgresRepository(ctx context.Context, connStr string) (*PostgresRepository, error) {
	pool, err := pgxpool.New(ctx, connStr)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %v", err)
	}

	var username string
	var database string
	err = pool.QueryRow(ctx, "SELECT current_user, current_database()").Scan(&username, &database)
	if err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to query database: %v", err)
	}
	log.Info("Connected to %s as %s", database, username)

	err = runMigrations(ctx, postgresMigrations, func(ctx context.Context, query string) error {
		_, err := pool.Exec(ctx, query)
		return err
	})
	if err != nil {
		pool.Close()
		return nil, err
	}

	return &PostgresRepository{
		pool: pool,
	}, nil
}

func (r *PostgresRepository) Close(ctx context.Context) error {
	r.pool.Close()
	return nil
}

func (r *PostgresRepository) CreateMatch(ctx context.Context, matchID string, state *types.MatchState) (*models.Match, error) {
	b, err := encodeState(state)
	if err != nil {
		return nil, err
	}
	q := `
	INSERT INTO matches (match_id, state, version, phase, idle_since)
	VALUES ($1, $2, 1, $3, $4)
	RETURNING match_id, state, version, created_at, updated_at;
	`
	m, err := scanPostgresMatch(r.pool.QueryRow(ctx, q, matchID, b, string(state.Phase), state.IdleSince()))
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return nil, &ErrAlreadyExists{}
		}
		return nil, fmt.Errorf("failed to insert match: %v", err)
	}
	return m, nil
}

func (r *PostgresRepository) LoadMatch(ctx context.Context, matchID string) (*models.Match, error) {
	q := `
	SELECT match_id, state, version, created_at, updated_at FROM matches WHERE match_id = $1;
	`
	m, err := scanPostgresMatch(r.pool.QueryRow(ctx, q, matchID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, &ErrNotFound{}
		}
		return nil, fmt.Errorf("failed to scan match: %v", err)
	}
	return m, nil
}

func (r *PostgresRepository) SaveMatch(ctx context.Context, matchID string, state *types.MatchState, expectedVersion int64) (*models.Match, error) {
	b, err := encodeState(state)
	if err != nil {
		return nil, err
	}
	q := `
	UPDATE matches
	SET state = $1, version = version + 1, phase = $2, idle_since = $3, updated_at = now()
	WHERE match_id = $4 AND version = $5
	RETURNING match_id, state, version, created_at, updated_at;
	`
	m, err := scanPostgresMatch(r.pool.QueryRow(ctx, q, b, string(state.Phase), state.IdleSince(), matchID, expectedVersion))
	if err == nil {
		return m, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("failed to update match: %v", err)
	}

	var actual int64
	err = r.pool.QueryRow(ctx, `SELECT version FROM matches WHERE match_id = $1;`, matchID).Scan(&actual)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, &ErrNotFound{}
		}
		return nil, fmt.Errorf("failed to read match version: %v", err)
	}
	return nil, &ErrConflict{Expected: expectedVersion, Actual: actual}
}

func (r *PostgresRepository) ListIdleMatches(ctx context.Context, before time.Time) ([]*models.Match, error) {
	q := `
	SELECT match_id, state, version, created_at, updated_at FROM matches
	WHERE phase <> $1 AND idle_since < $2
	ORDER BY idle_since;
	`
	rows, err := r.pool.Query(ctx, q, string(types.PhaseGameOver), before)
	if err != nil {
		return nil, fmt.Errorf("failed to query matches: %v", err)
	}
	defer rows.Close()

	matches := []*models.Match{}
	for rows.Next() {
		m, err := scanPostgresMatch(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan match: %v", err)
		}
		matches = append(matches, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate matches: %v", err)
	}
	return matches, nil
}

func (r *PostgresRepository) DeleteMatch(ctx context.Context, matchID string) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM matches WHERE match_id = $1;`, matchID)
	if err != nil {
		return fmt.Errorf("failed to delete match: %v", err)
	}
	if tag.RowsAffected() == 0 {
		return &ErrNotFound{}
	}
	return nil
}

func scanPostgresMatch(row pgx.Row) (*models.Match, error) {
	m := &models.Match{}
	var raw []byte
	if err := row.Scan(&m.ID, &raw, &m.Version, &m.CreatedAt, &m.UpdatedAt); err != nil {
		return nil, err
	}
	state, err := decodeState(raw)
	if err != nil {
		return nil, err
	}
	m.State = state
	return m, nil
}
