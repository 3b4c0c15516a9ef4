package state

import (
	"context"

	"github.com/cbodonnell/angelreaper/pkg/game"
	"github.com/cbodonnell/angelreaper/pkg/game/types"
)

// Session provides shared access to a single match.
// Implementations must be thread-safe.
type Session interface {
	// Get returns a copy of the current match state.
	Get(ctx context.Context) (*types.MatchState, error)
	// Set replaces the current match state.
	Set(ctx context.Context, state *types.MatchState) error
	// Dispatch applies an action and returns a copy of the resulting state.
	Dispatch(ctx context.Context, action game.Action) (*types.MatchState, error)
}

// Observer is notified after every applied action.
type Observer func(state *types.MatchState, action game.Action)
