package game

import (
	"fmt"
	"math/rand"
	"testing"
	"time"

	"github.com/cbodonnell/angelreaper/pkg/game/types"
	"github.com/stretchr/testify/require"
)

const (
	alice = "alice"
	bob   = "bob"
	carol = "carol"
)

const (
	an = types.CardKindAngel
	rp = types.CardKindReaper
)

var testEpoch = time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

// newTestMachine returns a machine with a seeded shuffler, sequential ids
// and a clock that advances one second per reading.
func newTestMachine(seed int64) *Machine {
	ids := 0
	ticks := 0
	return NewMachine(NewMachineOptions{
		Rand: rand.New(rand.NewSource(seed)),
		NewID: func() string {
			ids++
			return fmt.Sprintf("id-%d", ids)
		},
		Now: func() time.Time {
			ticks++
			return testEpoch.Add(time.Duration(ticks) * time.Second)
		},
	})
}

func deck(prefix string, kinds ...types.CardKind) []types.Card {
	cards := make([]types.Card, len(kinds))
	for i, k := range kinds {
		cards[i] = types.Card{ID: fmt.Sprintf("%s-%d", prefix, i), Kind: k}
	}
	return cards
}

func newTestPlayer(id string, hand, stack []types.Card, tally int) *types.Player {
	if hand == nil {
		hand = []types.Card{}
	}
	if stack == nil {
		stack = []types.Card{}
	}
	return &types.Player{
		ID:                  id,
		Name:                id,
		ColorTag:            "test",
		Hand:                hand,
		Stack:               stack,
		Alive:               len(hand)+len(stack) > 0,
		EliminatedCardTally: tally,
	}
}

func buildState(phase types.Phase, players ...*types.Player) *types.MatchState {
	return &types.MatchState{
		Phase:                phase,
		RoundNumber:          1,
		Players:              players,
		TurnPlayerID:         players[0].ID,
		RevealedCards:        []types.RevealedCard{},
		TurnStartStackCounts: map[string]int{},
		Logs:                 []types.LogEntry{},
		PhaseStartedAt:       testEpoch,
		LastActionAt:         testEpoch,
	}
}

// resolutionState puts the match in resolution with bidderID revealing amount cards.
func resolutionState(bidderID string, amount int, players ...*types.Player) *types.MatchState {
	s := buildState(types.PhaseResolution, players...)
	s.BidAmount = amount
	s.HighestBidderID = bidderID
	s.BidStarterID = bidderID
	s.RevealingPlayerID = bidderID
	s.TurnPlayerID = bidderID
	s.CardsRemainingToReveal = amount
	return s
}

// newFixedMatch starts a match whose hands are dealt in a known order.
func newFixedMatch(t *testing.T, m *Machine, hands map[string][]types.CardKind, ids ...string) *types.MatchState {
	t.Helper()
	seeds := make([]types.PlayerSeed, len(ids))
	for i, id := range ids {
		seeds[i] = types.PlayerSeed{ID: id, Name: id}
	}
	s, err := m.NewMatch(seeds)
	require.NoError(t, err)
	for _, p := range s.Players {
		kinds, ok := hands[p.ID]
		if !ok {
			kinds = []types.CardKind{an, an, an, rp}
		}
		p.Hand = deck(p.ID, kinds...)
	}
	return s
}

func mustApply(t *testing.T, m *Machine, s *types.MatchState, actions ...Action) *types.MatchState {
	t.Helper()
	for _, a := range actions {
		next, err := m.Apply(s, a)
		require.NoError(t, err, "applying %s", a.Kind())
		require.NoError(t, CheckInvariants(next))
		s = next
	}
	return s
}

func requireRejected(t *testing.T, m *Machine, s *types.MatchState, a Action, kind RejectionKind) *Rejection {
	t.Helper()
	before := s.Clone()
	next, err := m.Apply(s, a)
	require.Error(t, err)
	require.Nil(t, next)
	got, ok := RejectionKindOf(err)
	require.True(t, ok, "expected a rejection, got %v", err)
	require.Equal(t, kind, got, err.Error())
	require.Equal(t, before, s, "rejected action changed the state")
	require.False(t, m.IsLegal(s, a))
	return err.(*Rejection)
}

// setupAndReady places each player's first hand card and marks them ready.
func setupAndReady(t *testing.T, m *Machine, s *types.MatchState, ids ...string) *types.MatchState {
	t.Helper()
	for _, id := range ids {
		s = mustApply(t, m, s, PlaceSetupCard{PlayerID: id, CardIndex: 0}, MarkReady{PlayerID: id})
	}
	return s
}
