package game

import (
	"fmt"
	"math/rand"
	"sync"
	"time"

	"github.com/cbodonnell/angelreaper/pkg/game/constants"
	"github.com/cbodonnell/angelreaper/pkg/game/types"
	"github.com/google/uuid"
)

// Machine applies actions to match states. It holds the only sources of
// nondeterminism in the game: the shuffler, the id generator and the clock.
type Machine struct {
	lock  sync.Mutex
	rng   *rand.Rand
	newID func() string
	now   func() time.Time
}

// NewMachineOptions contains options for creating a new Machine.
// Zero values fall back to a time-seeded shuffler, random UUIDs and the wall clock.
type NewMachineOptions struct {
	Rand  *rand.Rand
	NewID func() string
	Now   func() time.Time
}

func NewMachine(opts NewMachineOptions) *Machine {
	m := &Machine{
		rng:   opts.Rand,
		newID: opts.NewID,
		now:   opts.Now,
	}
	if m.rng == nil {
		m.rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	if m.newID == nil {
		m.newID = uuid.NewString
	}
	if m.now == nil {
		m.now = func() time.Time { return time.Now().UTC() }
	}
	return m
}

var defaultMachine = NewMachine(NewMachineOptions{})

func (m *Machine) id() string {
	m.lock.Lock()
	defer m.lock.Unlock()
	return m.newID()
}

func (m *Machine) shuffle(cards []types.Card) {
	m.lock.Lock()
	defer m.lock.Unlock()
	m.rng.Shuffle(len(cards), func(i, j int) {
		cards[i], cards[j] = cards[j], cards[i]
	})
}

// NewCard returns a face-down card with a fresh id.
func (m *Machine) NewCard(kind types.CardKind) types.Card {
	return types.Card{
		ID:   m.id(),
		Kind: kind,
	}
}

// NewPlayer creates the player seated at index with a freshly shuffled hand.
func (m *Machine) NewPlayer(index int, seed types.PlayerSeed) *types.Player {
	id := seed.ID
	if id == "" {
		id = m.id()
	}
	name := seed.Name
	if name == "" {
		name = fmt.Sprintf("Player %d", index+1)
	}

	hand := make([]types.Card, 0, constants.StartingCards)
	for i := 0; i < constants.StartingAngels; i++ {
		hand = append(hand, m.NewCard(types.CardKindAngel))
	}
	for i := 0; i < constants.StartingReapers; i++ {
		hand = append(hand, m.NewCard(types.CardKindReaper))
	}
	m.shuffle(hand)

	return &types.Player{
		ID:       id,
		Name:     name,
		ColorTag: constants.Palette[index%len(constants.Palette)],
		Hand:     hand,
		Stack:    []types.Card{},
		Alive:    true,
	}
}

// NewMatch builds the opening state for the given roster.
func (m *Machine) NewMatch(seeds []types.PlayerSeed) (*types.MatchState, error) {
	if err := validateSeeds(seeds); err != nil {
		return nil, err
	}
	now := m.now()
	state := &types.MatchState{
		Phase:                types.PhaseRoundSetup,
		RoundNumber:          1,
		Players:              make([]*types.Player, 0, len(seeds)),
		RevealedCards:        []types.RevealedCard{},
		TurnStartStackCounts: map[string]int{},
		Logs:                 []types.LogEntry{},
		PhaseStartedAt:       now,
		TurnStartedAt:        now,
		LastActionAt:         now,
	}
	for i, seed := range seeds {
		state.Players = append(state.Players, m.NewPlayer(i, seed))
	}
	state.TurnPlayerID = state.Players[0].ID
	return state, nil
}

func validateSeeds(seeds []types.PlayerSeed) *Rejection {
	if len(seeds) < constants.MinPlayers || len(seeds) > constants.MaxPlayers {
		return reject(RejectionIllegalAction, "a match needs between %d and %d players, got %d", constants.MinPlayers, constants.MaxPlayers, len(seeds))
	}
	seen := make(map[string]bool, len(seeds))
	for _, seed := range seeds {
		if seed.ID == "" {
			continue
		}
		if seen[seed.ID] {
			return reject(RejectionIllegalAction, "duplicate player id %s", seed.ID)
		}
		seen[seed.ID] = true
	}
	return nil
}

// NewCard returns a face-down card using the default machine.
func NewCard(kind types.CardKind) types.Card {
	return defaultMachine.NewCard(kind)
}

// NewPlayer creates a player using the default machine.
func NewPlayer(index int, seed types.PlayerSeed) *types.Player {
	return defaultMachine.NewPlayer(index, seed)
}

// NewMatch builds an opening state using the default machine.
func NewMatch(seeds []types.PlayerSeed) (*types.MatchState, error) {
	return defaultMachine.NewMatch(seeds)
}
