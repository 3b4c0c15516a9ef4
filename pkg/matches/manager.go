package matches

import (
	"context"
	"errors"
	"fmt"

	"github.com/cbodonnell/angelreaper/pkg/game"
	"github.com/cbodonnell/angelreaper/pkg/game/history"
	"github.com/cbodonnell/angelreaper/pkg/game/types"
	"github.com/cbodonnell/angelreaper/pkg/log"
	"github.com/cbodonnell/angelreaper/pkg/queue"
	"github.com/cbodonnell/angelreaper/pkg/repositories"
	"github.com/cbodonnell/angelreaper/pkg/repositories/models"
	"github.com/cbodonnell/angelreaper/pkg/throttle"
	"github.com/google/uuid"
)

var (
	// ErrPermissionDenied is returned when the caller acts for someone else.
	ErrPermissionDenied = errors.New("permission denied")
	// ErrRateLimited is returned when the caller submits faster than allowed.
	ErrRateLimited = errors.New("rate limited")
	// ErrMatchInProgress is returned when deleting a match that has not finished.
	ErrMatchInProgress = errors.New("match is still in progress")
)

const DefaultMaxRetries = 5

// Update is published after every stored change to a match.
type Update struct {
	Match  *models.Match
	Action game.Action
}

// MatchManager is the remote authority. It applies actions to stored matches
// with optimistic concurrency and publishes the results.
type MatchManager struct {
	repository repositories.Repository
	machine    *game.Machine
	throttle   *throttle.Throttle
	updates    queue.Queue[Update]
	maxRetries int
	newID      func() string
}

type NewMatchManagerOptions struct {
	Repository repositories.Repository
	// Machine defaults to a machine with random shuffles.
	Machine *game.Machine
	// Throttle is optional. When nil callers are never rate limited.
	Throttle *throttle.Throttle
	// Updates receives every stored change. Optional.
	Updates queue.Queue[Update]
	// MaxRetries bounds reloads after a version conflict. Defaults to DefaultMaxRetries.
	MaxRetries int
	NewID      func() string
}

func NewMatchManager(opts NewMatchManagerOptions) *MatchManager {
	m := &MatchManager{
		repository: opts.Repository,
		machine:    opts.Machine,
		throttle:   opts.Throttle,
		updates:    opts.Updates,
		maxRetries: opts.MaxRetries,
		newID:      opts.NewID,
	}
	if m.machine == nil {
		m.machine = game.NewMachine(game.NewMachineOptions{})
	}
	if m.maxRetries <= 0 {
		m.maxRetries = DefaultMaxRetries
	}
	if m.newID == nil {
		m.newID = uuid.NewString
	}
	return m
}

// CreateMatch starts a new match for the given seats. The caller must hold one of them.
func (m *MatchManager) CreateMatch(ctx context.Context, callerID string, seeds []types.PlayerSeed) (*models.Match, error) {
	if !seated(callerID, seeds) {
		return nil, ErrPermissionDenied
	}
	if !m.allow(callerID) {
		return nil, ErrRateLimited
	}

	state, err := m.machine.Apply(nil, game.Initialize{Players: seeds})
	if err != nil {
		return nil, err
	}
	match, err := m.repository.CreateMatch(ctx, m.newID(), state)
	if err != nil {
		return nil, fmt.Errorf("failed to create match: %w", err)
	}
	log.Info("Match %s created by %s with %d players", match.ID, callerID, len(seeds))
	m.publish(match, game.Initialize{Players: seeds})
	return match, nil
}

// Get returns the stored match without redaction.
func (m *MatchManager) Get(ctx context.Context, matchID string) (*models.Match, error) {
	return m.repository.LoadMatch(ctx, matchID)
}

// View returns the match as seen by viewerID.
func (m *MatchManager) View(ctx context.Context, matchID string, viewerID string) (*models.Match, error) {
	match, err := m.repository.LoadMatch(ctx, matchID)
	if err != nil {
		return nil, err
	}
	match.State = game.ViewFor(match.State, viewerID)
	return match, nil
}

// History returns the rendered log of the match.
func (m *MatchManager) History(ctx context.Context, matchID string) ([]history.Line, error) {
	match, err := m.repository.LoadMatch(ctx, matchID)
	if err != nil {
		return nil, err
	}
	return history.Format(match.State), nil
}

// IsLegal reports whether the caller's action would be accepted against the stored state.
func (m *MatchManager) IsLegal(ctx context.Context, callerID string, matchID string, action game.Action) (bool, error) {
	if !authorized(callerID, action) {
		return false, ErrPermissionDenied
	}
	match, err := m.repository.LoadMatch(ctx, matchID)
	if err != nil {
		return false, err
	}
	return m.machine.IsLegal(match.State, action), nil
}

// Submit applies an action on behalf of callerID.
func (m *MatchManager) Submit(ctx context.Context, callerID string, matchID string, action game.Action) (*models.Match, error) {
	if !authorized(callerID, action) {
		return nil, ErrPermissionDenied
	}
	if !m.allow(callerID) {
		return nil, ErrRateLimited
	}
	return m.submit(ctx, matchID, action)
}

// Takeover applies an action on behalf of the player it names, bypassing the
// rate limit. It is used by the idle match scheduler.
func (m *MatchManager) Takeover(ctx context.Context, matchID string, action game.Action) (*models.Match, error) {
	return m.submit(ctx, matchID, action)
}

// DeleteMatch removes a finished match. Only its players may delete it.
func (m *MatchManager) DeleteMatch(ctx context.Context, callerID string, matchID string) error {
	match, err := m.repository.LoadMatch(ctx, matchID)
	if err != nil {
		return err
	}
	if p, _ := match.State.Player(callerID); p == nil {
		return ErrPermissionDenied
	}
	if match.State.Phase != types.PhaseGameOver {
		return ErrMatchInProgress
	}
	if err := m.repository.DeleteMatch(ctx, matchID); err != nil {
		return err
	}
	log.Info("Match %s deleted by %s", matchID, callerID)
	return nil
}

func (m *MatchManager) submit(ctx context.Context, matchID string, action game.Action) (*models.Match, error) {
	if updater, ok := m.repository.(repositories.Updater); ok {
		saved, err := updater.UpdateMatch(ctx, matchID, func(current *models.Match) (*types.MatchState, error) {
			return m.machine.Apply(current.State, action)
		})
		if err != nil {
			return nil, err
		}
		m.publish(saved, action)
		return saved, nil
	}

	var lastErr error
	for attempt := 0; attempt <= m.maxRetries; attempt++ {
		current, err := m.repository.LoadMatch(ctx, matchID)
		if err != nil {
			return nil, err
		}
		next, err := m.machine.Apply(current.State, action)
		if err != nil {
			return nil, err
		}
		saved, err := m.repository.SaveMatch(ctx, matchID, next, current.Version)
		if err != nil {
			if repositories.IsConflict(err) {
				log.Debug("Conflict saving match %s at version %d, retrying", matchID, current.Version)
				lastErr = err
				continue
			}
			return nil, fmt.Errorf("failed to save match: %w", err)
		}
		log.Debug("Applied %s to match %s, now at version %d", action.Kind(), matchID, saved.Version)
		m.publish(saved, action)
		return saved, nil
	}
	log.Warn("Giving up on %s for match %s after %d conflicts", action.Kind(), matchID, m.maxRetries+1)
	return nil, lastErr
}

func (m *MatchManager) publish(match *models.Match, action game.Action) {
	if m.updates == nil {
		return
	}
	if err := m.updates.Enqueue(Update{Match: match, Action: action}); err != nil {
		log.Warn("Dropping update for match %s: %v", match.ID, err)
	}
}

func (m *MatchManager) allow(callerID string) bool {
	return m.throttle == nil || m.throttle.Allow(callerID)
}

// authorized checks that the action's declared actor is the caller.
func authorized(callerID string, action game.Action) bool {
	if callerID == "" || action == nil {
		return false
	}
	if a, ok := action.(game.Initialize); ok {
		return seated(callerID, a.Players)
	}
	return action.Actor() == callerID
}

func seated(callerID string, seeds []types.PlayerSeed) bool {
	if callerID == "" {
		return false
	}
	for _, s := range seeds {
		if s.ID == callerID {
			return true
		}
	}
	return false
}
