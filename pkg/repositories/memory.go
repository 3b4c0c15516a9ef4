package repositories

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/cbodonnell/angelreaper/pkg/game/types"
	"github.com/cbodonnell/angelreaper/pkg/repositories/models"
)

var _ Repository = &InMemoryRepository{}

// InMemoryRepository keeps matches in process memory.
type InMemoryRepository struct {
	lock    sync.RWMutex
	matches map[string]*models.Match
}

func NewInMemoryRepository() *InMemoryRepository {
	return &InMemoryRepository{
		matches: make(map[string]*models.Match),
	}
}

func (r *InMemoryRepository) Close(ctx context.Context) error {
	return nil
}

func copyMatch(m *models.Match) *models.Match {
	c := *m
	c.State = m.State.Clone()
	return &c
}

func (r *InMemoryRepository) CreateMatch(ctx context.Context, matchID string, state *types.MatchState) (*models.Match, error) {
	r.lock.Lock()
	defer r.lock.Unlock()

	if _, ok := r.matches[matchID]; ok {
		return nil, &ErrAlreadyExists{}
	}
	now := time.Now().UTC()
	m := &models.Match{
		ID:        matchID,
		State:     state.Clone(),
		Version:   1,
		CreatedAt: now,
		UpdatedAt: now,
	}
	r.matches[matchID] = m
	return copyMatch(m), nil
}

func (r *InMemoryRepository) LoadMatch(ctx context.Context, matchID string) (*models.Match, error) {
	r.lock.RLock()
	defer r.lock.RUnlock()

	m, ok := r.matches[matchID]
	if !ok {
		return nil, &ErrNotFound{}
	}
	return copyMatch(m), nil
}

func (r *InMemoryRepository) SaveMatch(ctx context.Context, matchID string, state *types.MatchState, expectedVersion int64) (*models.Match, error) {
	r.lock.Lock()
	defer r.lock.Unlock()

	m, ok := r.matches[matchID]
	if !ok {
		return nil, &ErrNotFound{}
	}
	if m.Version != expectedVersion {
		return nil, &ErrConflict{Expected: expectedVersion, Actual: m.Version}
	}
	m.State = state.Clone()
	m.Version++
	m.UpdatedAt = time.Now().UTC()
	return copyMatch(m), nil
}

func (r *InMemoryRepository) ListIdleMatches(ctx context.Context, before time.Time) ([]*models.Match, error) {
	r.lock.RLock()
	defer r.lock.RUnlock()

	idle := []*models.Match{}
	for _, m := range r.matches {
		if m.State.Phase == types.PhaseGameOver {
			continue
		}
		if m.State.IdleSince().Before(before) {
			idle = append(idle, copyMatch(m))
		}
	}
	sort.Slice(idle, func(i, j int) bool {
		return idle[i].State.IdleSince().Before(idle[j].State.IdleSince())
	})
	return idle, nil
}

func (r *InMemoryRepository) DeleteMatch(ctx context.Context, matchID string) error {
	r.lock.Lock()
	defer r.lock.Unlock()

	if _, ok := r.matches[matchID]; !ok {
		return &ErrNotFound{}
	}
	delete(r.matches, matchID)
	return nil
}
