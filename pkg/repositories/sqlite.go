package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/cbodonnell/angelreaper/pkg/game/types"
	"github.com/cbodonnell/angelreaper/pkg/repositories/models"
	"github.com/mattn/go-sqlite3"
)

var _ Repository = &SQLiteRepository{}

type SQLiteRepository struct {
	db *sql.DB
}

// NewSQLiteRepository opens the database at path and applies the embedded migrations.
func NewSQLiteRepository(ctx context.Context, path string) (*SQLiteRepository, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %v", err)
	}
	// a single writer keeps compare-and-swap updates free of SQLITE_BUSY
	db.SetMaxOpenConns(1)

	err = runMigrations(ctx, sqliteMigrations, func(ctx context.Context, query string) error {
		_, err := db.ExecContext(ctx, query)
		return err
	})
	if err != nil {
		db.Close()
		return nil, err
	}

	return &SQLiteRepository{
		db: db,
	}, nil
}

func (r *SQLiteRepository) Close(ctx context.Context) error {
	return r.db.Close()
}

func (r *SQLiteRepository) CreateMatch(ctx context.Context, matchID string, state *types.MatchState) (*models.Match, error) {
	b, err := encodeState(state)
	if err != nil {
		return nil, err
	}
	now := time.Now().UTC()
	q := `
	INSERT INTO matches (match_id, state, version, phase, idle_since, created_at, updated_at)
	VALUES (?, ?, 1, ?, ?, ?, ?);
	`
	_, err = r.db.ExecContext(ctx, q, matchID, string(b), string(state.Phase), state.IdleSince().UnixMilli(), now.UnixMilli(), now.UnixMilli())
	if err != nil {
		var sqliteErr sqlite3.Error
		if errors.As(err, &sqliteErr) && sqliteErr.Code == sqlite3.ErrConstraint {
			return nil, &ErrAlreadyExists{}
		}
		return nil, fmt.Errorf("failed to insert match: %v", err)
	}

	return &models.Match{
		ID:        matchID,
		State:     state.Clone(),
		Version:   1,
		CreatedAt: time.UnixMilli(now.UnixMilli()).UTC(),
		UpdatedAt: time.UnixMilli(now.UnixMilli()).UTC(),
	}, nil
}

func (r *SQLiteRepository) LoadMatch(ctx context.Context, matchID string) (*models.Match, error) {
	q := `
	SELECT match_id, state, version, created_at, updated_at FROM matches WHERE match_id = ?;
	`
	m, err := scanSQLiteMatch(r.db.QueryRowContext(ctx, q, matchID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, &ErrNotFound{}
		}
		return nil, fmt.Errorf("failed to scan match: %v", err)
	}
	return m, nil
}

func (r *SQLiteRepository) SaveMatch(ctx context.Context, matchID string, state *types.MatchState, expectedVersion int64) (*models.Match, error) {
	b, err := encodeState(state)
	if err != nil {
		return nil, err
	}
	now := time.Now().UTC()
	q := `
	UPDATE matches
	SET state = ?, version = version + 1, phase = ?, idle_since = ?, updated_at = ?
	WHERE match_id = ? AND version = ?
	RETURNING match_id, state, version, created_at, updated_at;
	`
	row := r.db.QueryRowContext(ctx, q, string(b), string(state.Phase), state.IdleSince().UnixMilli(), now.UnixMilli(), matchID, expectedVersion)
	m, err := scanSQLiteMatch(row)
	if err == nil {
		return m, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("failed to update match: %v", err)
	}

	var actual int64
	err = r.db.QueryRowContext(ctx, `SELECT version FROM matches WHERE match_id = ?;`, matchID).Scan(&actual)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, &ErrNotFound{}
		}
		return nil, fmt.Errorf("failed to read match version: %v", err)
	}
	return nil, &ErrConflict{Expected: expectedVersion, Actual: actual}
}

func (r *SQLiteRepository) ListIdleMatches(ctx context.Context, before time.Time) ([]*models.Match, error) {
	q := `
	SELECT match_id, state, version, created_at, updated_at FROM matches
	WHERE phase != ? AND idle_since < ?
	ORDER BY idle_since;
	`
	rows, err := r.db.QueryContext(ctx, q, string(types.PhaseGameOver), before.UnixMilli())
	if err != nil {
		return nil, fmt.Errorf("failed to query matches: %v", err)
	}
	defer rows.Close()

	matches := []*models.Match{}
	for rows.Next() {
		m, err := scanSQLiteMatch(rows)
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

func (r *SQLiteRepository) DeleteMatch(ctx context.Context, matchID string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM matches WHERE match_id = ?;`, matchID)
	if err != nil {
		return fmt.Errorf("failed to delete match: %v", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %v", err)
	}
	if n == 0 {
		return &ErrNotFound{}
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSQLiteMatch(row rowScanner) (*models.Match, error) {
	var (
		id        string
		raw       string
		version   int64
		createdAt int64
		updatedAt int64
	)
	if err := row.Scan(&id, &raw, &version, &createdAt, &updatedAt); err != nil {
		return nil, err
	}
	state, err := decodeState([]byte(raw))
	if err != nil {
		return nil, err
	}
	return &models.Match{
		ID:        id,
		State:     state,
		Version:   version,
		CreatedAt: time.UnixMilli(createdAt).UTC(),
		UpdatedAt: time.UnixMilli(updatedAt).UTC(),
	}, nil
}
