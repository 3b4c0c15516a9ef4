package state

import (
	"context"
	"fmt"
	"sync"

	"github.com/cbodonnell/angelreaper/pkg/game"
	"github.com/cbodonnell/angelreaper/pkg/game/types"
)

var _ Session = &LocalSession{}

// LocalSession runs the machine in-process for hot-seat play. The caller is
// trusted and chooses whose cards are visible through the viewpoint.
type LocalSession struct {
	// dispatchLock serializes Dispatch calls including observer notification
	dispatchLock sync.Mutex
	lock         sync.RWMutex
	machine      *game.Machine
	state        *types.MatchState
	viewpoint    string
	observers    []Observer
}

type NewLocalSessionOptions struct {
	Machine *game.Machine
	// State is the starting state. It may be nil until Initialize is dispatched.
	State *types.MatchState
}

func NewLocalSession(opts NewLocalSessionOptions) *LocalSession {
	machine := opts.Machine
	if machine == nil {
		machine = game.NewMachine(game.NewMachineOptions{})
	}
	return &LocalSession{
		machine: machine,
		state:   opts.State.Clone(),
	}
}

func (s *LocalSession) Get(ctx context.Context) (*types.MatchState, error) {
	s.lock.RLock()
	defer s.lock.RUnlock()
	if s.state == nil {
		return nil, fmt.Errorf("match has not been initialized")
	}
	return s.state.Clone(), nil
}

func (s *LocalSession) Set(ctx context.Context, state *types.MatchState) error {
	s.lock.Lock()
	defer s.lock.Unlock()

	if state == nil {
		return fmt.Errorf("match state is nil")
	}

	s.state = state.Clone()
	return nil
}

// Dispatch applies the action. Observers run on the calling goroutine after
// the new state is stored and must not call Dispatch themselves.
func (s *LocalSession) Dispatch(ctx context.Context, action game.Action) (*types.MatchState, error) {
	s.dispatchLock.Lock()
	defer s.dispatchLock.Unlock()

	s.lock.Lock()
	next, err := s.machine.Apply(s.state, action)
	if err != nil {
		s.lock.Unlock()
		return nil, err
	}
	s.state = next
	observers := make([]Observer, len(s.observers))
	copy(observers, s.observers)
	s.lock.Unlock()

	for _, o := range observers {
		o(next.Clone(), action)
	}
	return next.Clone(), nil
}

// IsLegal reports whether the action would be accepted right now.
func (s *LocalSession) IsLegal(action game.Action) bool {
	s.lock.RLock()
	defer s.lock.RUnlock()
	return s.machine.IsLegal(s.state, action)
}

// OnChange registers an observer.
func (s *LocalSession) OnChange(o Observer) {
	s.lock.Lock()
	defer s.lock.Unlock()
	s.observers = append(s.observers, o)
}

func (s *LocalSession) Viewpoint() string {
	s.lock.RLock()
	defer s.lock.RUnlock()
	return s.viewpoint
}

func (s *LocalSession) SetViewpoint(playerID string) error {
	s.lock.Lock()
	defer s.lock.Unlock()
	if s.state != nil {
		if p, _ := s.state.Player(playerID); p == nil {
			return fmt.Errorf("player %s is not in this match", playerID)
		}
	}
	s.viewpoint = playerID
	return nil
}

// View returns the current state as seen from the viewpoint.
func (s *LocalSession) View() *types.MatchState {
	s.lock.RLock()
	defer s.lock.RUnlock()
	return game.ViewFor(s.state, s.viewpoint)
}
