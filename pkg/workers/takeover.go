package workers

import (
	"context"
	"time"

	"github.com/cbodonnell/angelreaper/pkg/game"
	"github.com/cbodonnell/angelreaper/pkg/game/types"
	"github.com/cbodonnell/angelreaper/pkg/log"
	"github.com/cbodonnell/angelreaper/pkg/repositories/models"
)

// IdleMatchLister finds matches that have waited on the same actors since before a given time.
type IdleMatchLister interface {
	ListIdleMatches(ctx context.Context, before time.Time) ([]*models.Match, error)
}

type TakeoverWorker struct {
	lister   IdleMatchLister
	matches  MatchService
	timeout  time.Duration
	interval time.Duration
	now      func() time.Time
}

type NewTakeoverWorkerOptions struct {
	Lister  IdleMatchLister
	Matches MatchService
	// Timeout is how long a phase may wait on a player before a default action is taken.
	Timeout  time.Duration
	Interval time.Duration
	Now      func() time.Time
}

// NewTakeoverWorker creates a new TakeoverWorker.
// The worker periodically plays a default action for players who have kept
// a match waiting longer than the timeout.
func NewTakeoverWorker(opts NewTakeoverWorkerOptions) *TakeoverWorker {
	now := opts.Now
	if now == nil {
		now = func() time.Time { return time.Now().UTC() }
	}
	return &TakeoverWorker{
		lister:   opts.Lister,
		matches:  opts.Matches,
		timeout:  opts.Timeout,
		interval: opts.Interval,
		now:      now,
	}
}

func (w *TakeoverWorker) Start(ctx context.Context) {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			w.RunOnce(ctx)
		}
	}
}

// RunOnce takes one default action in every idle match and returns how many were applied.
func (w *TakeoverWorker) RunOnce(ctx context.Context) int {
	idle, err := w.lister.ListIdleMatches(ctx, w.now().Add(-w.timeout))
	if err != nil {
		log.Error("Failed to list idle matches: %v", err)
		return 0
	}

	applied := 0
	for _, match := range idle {
		if w.takeover(ctx, match.ID, match.State) {
			applied++
		}
	}
	return applied
}

func (w *TakeoverWorker) takeover(ctx context.Context, matchID string, state *types.MatchState) bool {
	action, ok := game.DefaultAction(state)
	if !ok {
		log.Trace("No default action for match %s in phase %s", matchID, state.Phase)
		return false
	}

	log.Info("Taking over for %s in match %s: %s", action.Actor(), matchID, action.Kind())
	if _, err := w.matches.Takeover(ctx, matchID, action); err != nil {
		log.Warn("Takeover in match %s failed: %v", matchID, err)
		return false
	}
	return true
}
