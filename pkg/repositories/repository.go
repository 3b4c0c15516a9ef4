package repositories

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/cbodonnell/angelreaper/pkg/game/types"
	"github.com/cbodonnell/angelreaper/pkg/repositories/models"
)

type Repository interface {
	Close(ctx context.Context) error
	// CreateMatch stores a new match at version 1.
	CreateMatch(ctx context.Context, matchID string, state *types.MatchState) (*models.Match, error)
	// LoadMatch returns ErrNotFound if the match does not exist.
	LoadMatch(ctx context.Context, matchID string) (*models.Match, error)
	// SaveMatch stores state only if the stored version equals expectedVersion,
	// otherwise it returns ErrConflict.
	SaveMatch(ctx context.Context, matchID string, state *types.MatchState, expectedVersion int64) (*models.Match, error)
	// ListIdleMatches returns unfinished matches that have waited on their current actors
	// since before the given time.
	ListIdleMatches(ctx context.Context, before time.Time) ([]*models.Match, error)
	DeleteMatch(ctx context.Context, matchID string) error
}

func encodeState(state *types.MatchState) ([]byte, error) {
	if state == nil {
		return nil, fmt.Errorf("match state is nil")
	}
	b, err := json.Marshal(state)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal match state: %v", err)
	}
	return b, nil
}

func decodeState(b []byte) (*types.MatchState, error) {
	state := &types.MatchState{}
	if err := json.Unmarshal(b, state); err != nil {
		return nil, fmt.Errorf("failed to unmarshal match state: %v", err)
	}
	return state, nil
}
