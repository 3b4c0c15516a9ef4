package game

import (
	"testing"

	"github.com/cbodonnell/angelreaper/pkg/game/constants"
	"github.com/cbodonnell/angelreaper/pkg/game/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type unknownAction struct{}

func (unknownAction) Actor() string    { return alice }
func (unknownAction) Kind() ActionKind { return "UNKNOWN" }
func (unknownAction) isAction()        {}

func TestMachine_NewMatch(t *testing.T) {
	tests := []struct {
		name    string
		seeds   []types.PlayerSeed
		wantErr bool
	}{
		{
			name:  "two players",
			seeds: []types.PlayerSeed{{ID: alice}, {ID: bob}},
		},
		{
			name:  "six players without ids",
			seeds: make([]types.PlayerSeed, 6),
		},
		{
			name:    "one player",
			seeds:   []types.PlayerSeed{{ID: alice}},
			wantErr: true,
		},
		{
			name:    "seven players",
			seeds:   make([]types.PlayerSeed, 7),
			wantErr: true,
		},
		{
			name:    "duplicate ids",
			seeds:   []types.PlayerSeed{{ID: alice}, {ID: alice}},
			wantErr: true,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := newTestMachine(1)
			s, err := m.NewMatch(tt.seeds)
			if tt.wantErr {
				assert.True(t, IsRejection(err, RejectionIllegalAction))
				return
			}
			require.NoError(t, err)
			require.NoError(t, CheckInvariants(s))
			assert.Equal(t, types.PhaseRoundSetup, s.Phase)
			assert.Equal(t, 1, s.RoundNumber)
			assert.Equal(t, s.Players[0].ID, s.TurnPlayerID)
			assert.Equal(t, constants.StartingCards*len(tt.seeds), CardCount(s))
			for i, p := range s.Players {
				assert.True(t, p.Alive)
				assert.Equal(t, constants.Palette[i], p.ColorTag)
				assert.NotEmpty(t, p.ID)
				assert.NotEmpty(t, p.Name)
				reapers := 0
				for _, c := range p.Hand {
					assert.False(t, c.FaceUp)
					if c.Kind == types.CardKindReaper {
						reapers++
					}
				}
				assert.Equal(t, constants.StartingReapers, reapers)
			}
		})
	}
}

func TestMachine_NewPlayerDefaults(t *testing.T) {
	m := newTestMachine(1)
	p := m.NewPlayer(2, types.PlayerSeed{})
	assert.Equal(t, "Player 3", p.Name)
	assert.Equal(t, constants.Palette[2], p.ColorTag)
	assert.NotEmpty(t, p.ID)
	assert.Len(t, p.Hand, constants.StartingCards)
	assert.Empty(t, p.Stack)
}

func TestMachine_Initialize(t *testing.T) {
	m := newTestMachine(1)
	seeds := []types.PlayerSeed{{ID: alice, Name: "Alice"}, {ID: bob, Name: "Bob"}}

	s := mustApply(t, m, nil, Initialize{Players: seeds})
	assert.Equal(t, types.PhaseRoundSetup, s.Phase)
	require.Len(t, s.Logs, 1)
	assert.Equal(t, types.LogKindMatchStarted, s.Logs[0].Kind)

	requireRejected(t, m, s, Initialize{Players: seeds}, RejectionWrongPhase)
	requireRejected(t, m, nil, Initialize{Players: seeds[:1]}, RejectionIllegalAction)

	_, err := m.Apply(nil, MarkReady{PlayerID: alice})
	assert.True(t, IsRejection(err, RejectionNotFound))

	s.Phase = types.PhaseGameOver
	next := mustApply(t, m, s, Initialize{Players: seeds})
	assert.Equal(t, types.PhaseRoundSetup, next.Phase)
}

func TestMachine_UnknownAndNilActions(t *testing.T) {
	m := newTestMachine(1)
	s := newFixedMatch(t, m, nil, alice, bob)
	requireRejected(t, m, s, unknownAction{}, RejectionIllegalAction)

	_, err := m.Apply(s, nil)
	assert.True(t, IsRejection(err, RejectionIllegalAction))
}

// Two players each place one card and ready up.
func TestScenarioA_SetupToPlacement(t *testing.T) {
	m := newTestMachine(1)
	s := newFixedMatch(t, m, nil, alice, bob)

	s = mustApply(t, m, s,
		PlaceSetupCard{PlayerID: alice, CardIndex: 0},
		MarkReady{PlayerID: alice},
		PlaceSetupCard{PlayerID: bob, CardIndex: 0},
	)
	assert.Equal(t, types.PhaseRoundSetup, s.Phase)

	s = mustApply(t, m, s, MarkReady{PlayerID: bob})
	assert.Equal(t, types.PhasePlacement, s.Phase)
	assert.Equal(t, alice, s.TurnPlayerID)
	assert.Equal(t, map[string]int{alice: 1, bob: 1}, s.TurnStartStackCounts)

	kinds := []types.LogKind{}
	for _, e := range s.Logs {
		kinds = append(kinds, e.Kind)
	}
	assert.Equal(t, []types.LogKind{
		types.LogKindSetupCardPlaced,
		types.LogKindPlayerReady,
		types.LogKindSetupCardPlaced,
		types.LogKindPlayerReady,
		types.LogKindPlacementStarted,
	}, kinds)
}

func TestMachine_RoundSetup(t *testing.T) {
	m := newTestMachine(1)
	s := newFixedMatch(t, m, nil, alice, bob)
	first := s.Players[0].Hand[0]
	second := s.Players[0].Hand[1]

	s = mustApply(t, m, s, PlaceSetupCard{PlayerID: alice, CardIndex: 0})
	assert.Equal(t, []types.Card{first}, s.Players[0].Stack)
	assert.Len(t, s.Players[0].Hand, 3)

	// re-selecting swaps the old card back into the hand
	s = mustApply(t, m, s, PlaceSetupCard{PlayerID: alice, CardIndex: 0})
	assert.Equal(t, []types.Card{second}, s.Players[0].Stack)
	assert.Equal(t, first, s.Players[0].Hand[len(s.Players[0].Hand)-1])

	s = mustApply(t, m, s, ReturnSetupCard{PlayerID: alice})
	assert.Empty(t, s.Players[0].Stack)
	assert.Len(t, s.Players[0].Hand, 4)

	requireRejected(t, m, s, ReturnSetupCard{PlayerID: alice}, RejectionIllegalAction)
	requireRejected(t, m, s, MarkReady{PlayerID: alice}, RejectionIllegalAction)
	requireRejected(t, m, s, PlaceSetupCard{PlayerID: alice, CardIndex: 4}, RejectionInvalidCardIndex)
	requireRejected(t, m, s, PlaceSetupCard{PlayerID: alice, CardIndex: -1}, RejectionInvalidCardIndex)
	requireRejected(t, m, s, PlaceSetupCard{PlayerID: "mallory", CardIndex: 0}, RejectionNotFound)
	requireRejected(t, m, s, PlaceCard{PlayerID: alice, CardIndex: 0}, RejectionWrongPhase)

	s = mustApply(t, m, s, PlaceSetupCard{PlayerID: alice, CardIndex: 0}, MarkReady{PlayerID: alice})
	requireRejected(t, m, s, MarkReady{PlayerID: alice}, RejectionIllegalAction)
	requireRejected(t, m, s, PlaceSetupCard{PlayerID: alice, CardIndex: 0}, RejectionIllegalAction)
	requireRejected(t, m, s, ReturnSetupCard{PlayerID: alice}, RejectionIllegalAction)
}

func TestMachine_RoundSetupSkipsEliminatedPlayers(t *testing.T) {
	m := newTestMachine(1)
	s := buildState(types.PhaseRoundSetup,
		newTestPlayer(alice, deck("alice", an, an), nil, 2),
		newTestPlayer(bob, nil, nil, 4),
		newTestPlayer(carol, deck("carol", an, rp), nil, 2),
	)
	requireRejected(t, m, s, PlaceSetupCard{PlayerID: bob, CardIndex: 0}, RejectionIllegalAction)

	s = setupAndReady(t, m, s, alice, carol)
	assert.Equal(t, types.PhasePlacement, s.Phase)
	assert.Equal(t, map[string]int{alice: 1, carol: 1}, s.TurnStartStackCounts)
}

func placementState(t *testing.T, m *Machine) *types.MatchState {
	t.Helper()
	s := newFixedMatch(t, m, nil, alice, bob)
	return setupAndReady(t, m, s, alice, bob)
}

func TestMachine_Placement(t *testing.T) {
	m := newTestMachine(1)
	s := placementState(t, m)

	requireRejected(t, m, s, PlaceCard{PlayerID: bob, CardIndex: 0}, RejectionNotYourTurn)
	requireRejected(t, m, s, PlaceCard{PlayerID: alice, CardIndex: 3}, RejectionInvalidCardIndex)
	requireRejected(t, m, s, ConfirmPlacement{PlayerID: alice}, RejectionIllegalAction)
	requireRejected(t, m, s, ReturnPlacedCard{PlayerID: alice}, RejectionIllegalAction)
	requireRejected(t, m, s, RaiseBid{PlayerID: alice, Amount: 2}, RejectionWrongPhase)
	requireRejected(t, m, s, MarkReady{PlayerID: alice}, RejectionWrongPhase)

	s = mustApply(t, m, s, PlaceCard{PlayerID: alice, CardIndex: 0})
	assert.Len(t, s.Players[0].Stack, 2)
	requireRejected(t, m, s, PlaceCard{PlayerID: alice, CardIndex: 0}, RejectionIllegalAction)

	s = mustApply(t, m, s, ReturnPlacedCard{PlayerID: alice})
	assert.Len(t, s.Players[0].Stack, 1)
	assert.Len(t, s.Players[0].Hand, 3)

	s = mustApply(t, m, s, PlaceCard{PlayerID: alice, CardIndex: 0}, ConfirmPlacement{PlayerID: alice})
	assert.Equal(t, bob, s.TurnPlayerID)
	assert.Equal(t, map[string]int{alice: 2, bob: 1}, s.TurnStartStackCounts)
	assert.Equal(t, types.PhasePlacement, s.Phase)

	// the fresh snapshot lets bob place again on his own turn
	s = mustApply(t, m, s, PlaceCard{PlayerID: bob, CardIndex: 0}, ConfirmPlacement{PlayerID: bob})
	assert.Equal(t, alice, s.TurnPlayerID)
	s = mustApply(t, m, s, PlaceCard{PlayerID: alice, CardIndex: 0})
	assert.Len(t, s.Players[0].Stack, 3)
}

func TestMachine_PlacementTimestamps(t *testing.T) {
	m := newTestMachine(1)
	s := placementState(t, m)
	assert.Equal(t, s.PhaseStartedAt, s.LastActionAt)

	next := mustApply(t, m, s, PlaceCard{PlayerID: alice, CardIndex: 0})
	assert.Equal(t, s.PhaseStartedAt, next.PhaseStartedAt)
	assert.True(t, next.LastActionAt.After(s.LastActionAt))
}

func TestMachine_TurnHandoffTimestamps(t *testing.T) {
	m := newTestMachine(1)
	s := placementState(t, m)
	assert.Equal(t, s.PhaseStartedAt, s.TurnStartedAt)

	placed := mustApply(t, m, s, PlaceCard{PlayerID: alice, CardIndex: 0})
	assert.Equal(t, s.TurnStartedAt, placed.TurnStartedAt, "the turn has not moved")

	confirmed := mustApply(t, m, placed, ConfirmPlacement{PlayerID: alice})
	assert.Equal(t, bob, confirmed.TurnPlayerID)
	assert.Equal(t, s.PhaseStartedAt, confirmed.PhaseStartedAt)
	assert.Equal(t, confirmed.LastActionAt, confirmed.TurnStartedAt)
	assert.Equal(t, confirmed.TurnStartedAt, confirmed.IdleSince())
}

func TestMachine_StartBid(t *testing.T) {
	tests := []struct {
		name      string
		amount    int
		wantErr   RejectionKind
		wantPhase types.Phase
	}{
		{name: "zero", amount: 0, wantErr: RejectionInvalidBidAmount},
		{name: "above total", amount: 3, wantErr: RejectionInvalidBidAmount},
		{name: "minimal", amount: 1, wantPhase: types.PhaseBidding},
		// an opening bid of every stacked card skips the auction
		{name: "all cards", amount: 2, wantPhase: types.PhaseResolution},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := newTestMachine(1)
			s := placementState(t, m)
			a := StartBid{PlayerID: alice, Amount: tt.amount}
			if tt.wantErr != "" {
				requireRejected(t, m, s, a, tt.wantErr)
				return
			}
			s = mustApply(t, m, s, a)
			assert.Equal(t, tt.wantPhase, s.Phase)
			assert.Equal(t, tt.amount, s.BidAmount)
			assert.Equal(t, alice, s.HighestBidderID)
			assert.Equal(t, alice, s.BidStarterID)
			if tt.wantPhase == types.PhaseBidding {
				assert.Equal(t, bob, s.TurnPlayerID)
			} else {
				assert.Equal(t, tt.amount, s.CardsRemainingToReveal)
				assert.Equal(t, alice, s.RevealingPlayerID)
			}
		})
	}
}

func TestMachine_StartBidRequiresOwnStack(t *testing.T) {
	m := newTestMachine(1)
	s := buildState(types.PhasePlacement,
		newTestPlayer(alice, deck("alice", an, an, an, rp), nil, 0),
		newTestPlayer(bob, deck("bob", an, an, rp), deck("bob-s", an), 0),
	)
	requireRejected(t, m, s, StartBid{PlayerID: alice, Amount: 1}, RejectionIllegalAction)
}

func biddingState(t *testing.T, m *Machine) *types.MatchState {
	t.Helper()
	s := newFixedMatch(t, m, nil, alice, bob, carol)
	s = setupAndReady(t, m, s, alice, bob, carol)
	return mustApply(t, m, s, StartBid{PlayerID: alice, Amount: 1})
}

func TestMachine_Bidding(t *testing.T) {
	m := newTestMachine(1)
	s := biddingState(t, m)
	require.Equal(t, types.PhaseBidding, s.Phase)
	require.Equal(t, bob, s.TurnPlayerID)

	requireRejected(t, m, s, RaiseBid{PlayerID: carol, Amount: 2}, RejectionNotYourTurn)
	requireRejected(t, m, s, RaiseBid{PlayerID: bob, Amount: 1}, RejectionInvalidBidAmount)
	requireRejected(t, m, s, RaiseBid{PlayerID: bob, Amount: 4}, RejectionInvalidBidAmount)
	requireRejected(t, m, s, StartBid{PlayerID: bob, Amount: 2}, RejectionWrongPhase)

	s = mustApply(t, m, s, Pass{PlayerID: bob})
	assert.True(t, s.Players[1].Passed)
	assert.Equal(t, carol, s.TurnPlayerID)

	s = mustApply(t, m, s, RaiseBid{PlayerID: carol, Amount: 2})
	assert.Equal(t, carol, s.HighestBidderID)
	assert.Equal(t, alice, s.BidStarterID)
	// bob has passed so the turn goes straight back to alice
	assert.Equal(t, alice, s.TurnPlayerID)
	requireRejected(t, m, s, Pass{PlayerID: bob}, RejectionNotYourTurn)

	s = mustApply(t, m, s, Pass{PlayerID: alice})
	assert.Equal(t, types.PhaseResolution, s.Phase)
	assert.Equal(t, carol, s.RevealingPlayerID)
	assert.Equal(t, 2, s.CardsRemainingToReveal)
}

func TestMachine_RaiseToTotalSkipsToResolution(t *testing.T) {
	m := newTestMachine(1)
	s := biddingState(t, m)
	s = mustApply(t, m, s, RaiseBid{PlayerID: bob, Amount: 3})
	assert.Equal(t, types.PhaseResolution, s.Phase)
	assert.Equal(t, bob, s.RevealingPlayerID)
	assert.Equal(t, 3, s.CardsRemainingToReveal)
}

func TestMachine_HighestBidderCannotPass(t *testing.T) {
	m := newTestMachine(1)
	s := biddingState(t, m)
	s.TurnPlayerID = alice
	requireRejected(t, m, s, Pass{PlayerID: alice}, RejectionIllegalAction)
}

// Opening with every stacked card goes straight to resolution.
func TestScenarioB_BidAllCards(t *testing.T) {
	m := newTestMachine(1)
	s := placementState(t, m)
	s = mustApply(t, m, s, StartBid{PlayerID: alice, Amount: TotalStackedCards(s)})
	assert.Equal(t, types.PhaseResolution, s.Phase)
	assert.Equal(t, 2, s.CardsRemainingToReveal)
	assert.Equal(t, alice, s.RevealingPlayerID)

	requireRejected(t, m, s, RevealCard{PlayerID: alice, TargetPlayerID: bob}, RejectionInvalidTarget)
	requireRejected(t, m, s, RevealCard{PlayerID: bob, TargetPlayerID: bob}, RejectionNotYourTurn)
	requireRejected(t, m, s, RevealCard{PlayerID: alice, TargetPlayerID: "mallory"}, RejectionInvalidTarget)

	s = mustApply(t, m, s, RevealCard{PlayerID: alice, TargetPlayerID: alice})
	assert.Equal(t, types.PhaseResolution, s.Phase)
	assert.Equal(t, 1, s.CardsRemainingToReveal)
	requireRejected(t, m, s, RevealCard{PlayerID: alice, TargetPlayerID: alice}, RejectionInvalidTarget)

	s = mustApply(t, m, s, RevealCard{PlayerID: alice, TargetPlayerID: bob})
	assert.Equal(t, types.PhaseRoundEnd, s.Phase)
	assert.Equal(t, 1, s.Players[0].RoundWins)
	require.Len(t, s.RevealedCards, 2)
	assert.Equal(t, alice, s.RevealedCards[0].PlayerID)
	assert.Equal(t, bob, s.RevealedCards[1].PlayerID)
	assert.True(t, s.Players[1].Stack[0].FaceUp)

	s = mustApply(t, m, s, AdvanceRound{PlayerID: bob})
	assert.Equal(t, types.PhaseRoundSetup, s.Phase)
	assert.Equal(t, 2, s.RoundNumber)
	assert.Equal(t, alice, s.TurnPlayerID)
	assert.Equal(t, 1, s.Players[0].RoundWins, "advancing must not add a second win")
	for _, p := range s.Players {
		assert.Empty(t, p.Stack)
		assert.Len(t, p.Hand, 4)
		for _, c := range p.Hand {
			assert.False(t, c.FaceUp)
		}
	}
	assert.Empty(t, s.RevealedCards)
	assert.Empty(t, s.TurnStartStackCounts)
	assert.Zero(t, s.BidAmount)
	assert.Empty(t, s.HighestBidderID)
}

func TestMachine_RevealTopHiddenCardFirst(t *testing.T) {
	m := newTestMachine(1)
	s := resolutionState(alice, 2,
		newTestPlayer(alice, deck("alice", an), deck("alice-s", an, rp), 1),
		newTestPlayer(bob, deck("bob", an, an, rp), deck("bob-s", an), 0),
	)
	s = mustApply(t, m, s, RevealCard{PlayerID: alice, TargetPlayerID: alice})
	assert.Equal(t, types.PhasePenalty, s.Phase)
	assert.Equal(t, "alice-s-1", s.RevealedCards[0].Card.ID)
	assert.False(t, s.Players[0].Stack[0].FaceUp)
}

// Revealing one's own reaper.
func TestScenarioC_OwnReaper(t *testing.T) {
	m := newTestMachine(1)
	s := newFixedMatch(t, m, map[string][]types.CardKind{alice: {rp, an, an, an}}, alice, bob)
	s = setupAndReady(t, m, s, alice, bob)
	s = mustApply(t, m, s, StartBid{PlayerID: alice, Amount: 2}, RevealCard{PlayerID: alice, TargetPlayerID: alice})

	assert.Equal(t, types.PhasePenalty, s.Phase)
	assert.Equal(t, alice, s.ReaperOwnerID)
	assert.Equal(t, alice, s.TurnPlayerID)
	assert.Equal(t, types.LogKindRevealReaper, s.Logs[len(s.Logs)-1].Kind)

	requireRejected(t, m, s, SelectPenaltyCard{PlayerID: bob, CardIndex: 0}, RejectionNotYourTurn)
	requireRejected(t, m, s, SelectPenaltyCard{PlayerID: alice, CardIndex: 4}, RejectionInvalidCardIndex)
	requireRejected(t, m, s, AdvanceRound{PlayerID: alice}, RejectionWrongPhase)

	s = mustApply(t, m, s, SelectPenaltyCard{PlayerID: alice, CardIndex: 0})
	assert.Equal(t, types.PhaseRoundEnd, s.Phase)
	assert.Equal(t, 1, s.Players[0].EliminatedCardTally)
	assert.Equal(t, 3, s.Players[0].Remaining())
	assert.True(t, s.Players[0].Alive)
}

func TestScenarioC_OwnReaperEliminates(t *testing.T) {
	m := newTestMachine(1)
	s := resolutionState(alice, 1,
		newTestPlayer(alice, nil, deck("alice-s", rp), 3),
		newTestPlayer(bob, deck("bob", an, an, rp), deck("bob-s", an), 0),
		newTestPlayer(carol, deck("carol", an, rp, an), deck("carol-s", an), 0),
	)
	s = mustApply(t, m, s,
		RevealCard{PlayerID: alice, TargetPlayerID: alice},
		SelectPenaltyCard{PlayerID: alice, CardIndex: 0},
	)
	assert.Equal(t, types.PhaseNextPlayerSelection, s.Phase)
	assert.False(t, s.Players[0].Alive)
	assert.Empty(t, s.Players[0].Stack)
	assert.Equal(t, 4, s.Players[0].EliminatedCardTally)
	assert.Equal(t, types.LogKindPlayerEliminated, s.Logs[len(s.Logs)-1].Kind)
}

func TestMachine_OtherReaper(t *testing.T) {
	m := newTestMachine(1)
	s := newFixedMatch(t, m, map[string][]types.CardKind{bob: {rp, an, an, an}}, alice, bob)
	s = setupAndReady(t, m, s, alice, bob)
	s = mustApply(t, m, s,
		StartBid{PlayerID: alice, Amount: 2},
		RevealCard{PlayerID: alice, TargetPlayerID: alice},
		RevealCard{PlayerID: alice, TargetPlayerID: bob},
	)
	assert.Equal(t, types.PhasePenalty, s.Phase)
	assert.Equal(t, bob, s.ReaperOwnerID)
	assert.Equal(t, bob, s.TurnPlayerID)
	requireRejected(t, m, s, SelectPenaltyCard{PlayerID: alice, CardIndex: 0}, RejectionNotYourTurn)

	// index 3 is past alice's hand and addresses her stacked card
	stacked := s.Players[0].Stack[0].ID
	s = mustApply(t, m, s, SelectPenaltyCard{PlayerID: bob, CardIndex: 3})
	assert.Equal(t, types.PhaseRoundEnd, s.Phase)
	assert.Empty(t, s.Players[0].Stack)
	for _, c := range s.Players[0].Hand {
		assert.NotEqual(t, stacked, c.ID)
	}
	assert.Equal(t, 4, s.Players[1].Remaining())

	s = mustApply(t, m, s, AdvanceRound{PlayerID: alice})
	assert.Equal(t, alice, s.TurnPlayerID)
	assert.Equal(t, 0, s.Players[0].RoundWins)
}

func TestMachine_OtherReaperEliminates(t *testing.T) {
	m := newTestMachine(1)
	s := resolutionState(alice, 2,
		newTestPlayer(alice, nil, deck("alice-s", an), 3),
		newTestPlayer(bob, deck("bob", an, an, an), deck("bob-s", rp), 0),
		newTestPlayer(carol, deck("carol", an, rp, an), deck("carol-s", an), 0),
	)
	s = mustApply(t, m, s,
		RevealCard{PlayerID: alice, TargetPlayerID: alice},
		RevealCard{PlayerID: alice, TargetPlayerID: bob},
		SelectPenaltyCard{PlayerID: bob, CardIndex: 0},
	)
	assert.Equal(t, types.PhaseRoundEnd, s.Phase)
	assert.False(t, s.Players[0].Alive)

	// the bidder is gone so the reaper owner leads
	s = mustApply(t, m, s, AdvanceRound{PlayerID: carol})
	assert.Equal(t, bob, s.TurnPlayerID)
	assert.Equal(t, types.PhaseRoundSetup, s.Phase)
}

func TestMachine_EliminationLeavesSoleSurvivor(t *testing.T) {
	m := newTestMachine(1)
	s := resolutionState(alice, 2,
		newTestPlayer(alice, nil, deck("alice-s", an), 3),
		newTestPlayer(bob, deck("bob", an, an, an), deck("bob-s", rp), 0),
	)
	s = mustApply(t, m, s,
		RevealCard{PlayerID: alice, TargetPlayerID: alice},
		RevealCard{PlayerID: alice, TargetPlayerID: bob},
		SelectPenaltyCard{PlayerID: bob, CardIndex: 0},
	)
	assert.Equal(t, types.PhaseGameOver, s.Phase)
	assert.Equal(t, bob, s.WinnerID)
}

func eliminatedState(t *testing.T, m *Machine) *types.MatchState {
	t.Helper()
	s := resolutionState(alice, 1,
		newTestPlayer(alice, nil, deck("alice-s", rp), 3),
		newTestPlayer(bob, deck("bob", an, an, rp), deck("bob-s", an), 0),
		newTestPlayer(carol, deck("carol", an, rp), deck("carol-s", an, an), 0),
	)
	s.Players[1].Ready = true
	s.Players[2].Ready = true
	return mustApply(t, m, s,
		RevealCard{PlayerID: alice, TargetPlayerID: alice},
		SelectPenaltyCard{PlayerID: alice, CardIndex: 0},
	)
}

// Selecting an eliminated player to lead.
func TestScenarioD_SelectEliminatedPlayer(t *testing.T) {
	m := newTestMachine(1)
	s := eliminatedState(t, m)
	require.Equal(t, types.PhaseNextPlayerSelection, s.Phase)

	rej := requireRejected(t, m, s, SelectNextPlayer{PlayerID: bob, NextPlayerIndex: 0}, RejectionInvalidTarget)
	assert.Equal(t, "cannot select eliminated player", rej.Message)
	requireRejected(t, m, s, SelectNextPlayer{PlayerID: bob, NextPlayerIndex: 3}, RejectionInvalidTarget)
	requireRejected(t, m, s, SelectNextPlayer{PlayerID: bob, NextPlayerIndex: -1}, RejectionInvalidTarget)
	requireRejected(t, m, s, SelectNextPlayer{PlayerID: "mallory", NextPlayerIndex: 1}, RejectionNotFound)
}

// Selecting a survivor starts the next round.
func TestScenarioE_SelectSurvivor(t *testing.T) {
	m := newTestMachine(1)
	s := eliminatedState(t, m)

	s = mustApply(t, m, s, SelectNextPlayer{PlayerID: bob, NextPlayerIndex: 2})
	assert.Equal(t, types.PhaseRoundSetup, s.Phase)
	assert.Equal(t, 2, s.RoundNumber)
	assert.Equal(t, carol, s.TurnPlayerID)
	assert.Empty(t, s.TurnStartStackCounts)
	assert.Empty(t, s.RevealedCards)
	assert.Empty(t, s.ReaperOwnerID)
	assert.Zero(t, s.CardsRemainingToReveal)
	for _, p := range s.Players[1:] {
		assert.Empty(t, p.Stack)
		assert.Len(t, p.Hand, 4)
		assert.False(t, p.Ready)
		assert.False(t, p.Passed)
	}
	assert.False(t, s.Players[0].Alive)
}

func TestMachine_ImmediateWin(t *testing.T) {
	m := newTestMachine(1)
	s := resolutionState(alice, 1,
		newTestPlayer(alice, deck("alice", an, an, rp), deck("alice-s", an), 0),
		newTestPlayer(bob, deck("bob", an, an, rp), deck("bob-s", an), 0),
	)
	s.Players[0].RoundWins = 1

	s = mustApply(t, m, s, RevealCard{PlayerID: alice, TargetPlayerID: alice})
	assert.Equal(t, types.PhaseGameOver, s.Phase)
	assert.Equal(t, alice, s.WinnerID)
	assert.Equal(t, 2, s.Players[0].RoundWins)
	assert.Equal(t, types.LogKindGameWon, s.Logs[len(s.Logs)-1].Kind)

	for _, a := range []Action{
		AdvanceRound{PlayerID: alice},
		PlaceSetupCard{PlayerID: alice, CardIndex: 0},
		RevealCard{PlayerID: alice, TargetPlayerID: bob},
	} {
		requireRejected(t, m, s, a, RejectionWrongPhase)
	}
}

func TestMachine_ResetMatch(t *testing.T) {
	m := newTestMachine(1)
	s := placementState(t, m)
	s = mustApply(t, m, s, StartBid{PlayerID: alice, Amount: 1})
	requireRejected(t, m, s, ResetMatch{PlayerID: bob}, RejectionWrongPhase)

	s = s.Clone()
	s.Phase = types.PhaseGameOver
	s.WinnerID = alice
	requireRejected(t, m, s, ResetMatch{PlayerID: "mallory"}, RejectionNotFound)

	reset := mustApply(t, m, s, ResetMatch{PlayerID: bob})
	assert.Equal(t, types.PhaseRoundSetup, reset.Phase)
	assert.Equal(t, 1, reset.RoundNumber)
	assert.Equal(t, alice, reset.TurnPlayerID)
	require.Len(t, reset.Logs, 1)
	assert.Equal(t, types.LogKindMatchReset, reset.Logs[0].Kind)
	for i, p := range reset.Players {
		assert.Equal(t, s.Players[i].ID, p.ID)
		assert.Equal(t, s.Players[i].Name, p.Name)
		assert.Equal(t, s.Players[i].ColorTag, p.ColorTag)
		assert.Len(t, p.Hand, 4)
		assert.Empty(t, p.Stack)
	}
	assert.True(t, m.IsLegal(s, ResetMatch{PlayerID: alice}))
}

func TestMachine_RejectionsNeverMutate(t *testing.T) {
	m := newTestMachine(1)
	placement := placementState(t, m)
	bidding := biddingState(t, m)
	penalty := resolutionState(alice, 1,
		newTestPlayer(alice, deck("alice", an, an, an), deck("alice-s", rp), 0),
		newTestPlayer(bob, deck("bob", an, an, rp), deck("bob-s", an), 0),
	)
	penalty = mustApply(t, m, penalty, RevealCard{PlayerID: alice, TargetPlayerID: alice})

	tests := []struct {
		name   string
		state  *types.MatchState
		action Action
		kind   RejectionKind
	}{
		{"place out of turn", placement, PlaceCard{PlayerID: bob, CardIndex: 0}, RejectionNotYourTurn},
		{"take back out of turn", placement, ReturnPlacedCard{PlayerID: bob}, RejectionNotYourTurn},
		{"confirm out of turn", placement, ConfirmPlacement{PlayerID: bob}, RejectionNotYourTurn},
		{"bid out of turn", placement, StartBid{PlayerID: bob, Amount: 1}, RejectionNotYourTurn},
		{"bid below one", placement, StartBid{PlayerID: alice, Amount: 0}, RejectionInvalidBidAmount},
		{"raise equal", bidding, RaiseBid{PlayerID: bob, Amount: 1}, RejectionInvalidBidAmount},
		{"pass out of turn", bidding, Pass{PlayerID: carol}, RejectionNotYourTurn},
		{"reveal in bidding", bidding, RevealCard{PlayerID: alice, TargetPlayerID: alice}, RejectionWrongPhase},
		{"discard out of range", penalty, SelectPenaltyCard{PlayerID: alice, CardIndex: 9}, RejectionInvalidCardIndex},
		{"select in penalty", penalty, SelectNextPlayer{PlayerID: alice, NextPlayerIndex: 1}, RejectionWrongPhase},
		{"unknown actor", penalty, SelectPenaltyCard{PlayerID: "mallory", CardIndex: 0}, RejectionNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			requireRejected(t, m, tt.state, tt.action, tt.kind)
		})
	}
}

func TestMachine_IsLegalDoesNotMutate(t *testing.T) {
	m := newTestMachine(1)
	s := placementState(t, m)
	before := s.Clone()

	assert.True(t, m.IsLegal(s, PlaceCard{PlayerID: alice, CardIndex: 0}))
	assert.True(t, m.IsLegal(s, StartBid{PlayerID: alice, Amount: 2}))
	assert.False(t, m.IsLegal(s, StartBid{PlayerID: bob, Amount: 1}))
	assert.Equal(t, before, s)
}

func TestMachine_EliminatedPlayerCannotTakeTurn(t *testing.T) {
	m := newTestMachine(1)
	s := buildState(types.PhasePlacement,
		newTestPlayer(alice, nil, nil, 4),
		newTestPlayer(bob, deck("bob", an, an, rp), deck("bob-s", an), 0),
		newTestPlayer(carol, deck("carol", an, an, rp), deck("carol-s", an), 0),
	)
	requireRejected(t, m, s, PlaceCard{PlayerID: alice, CardIndex: 0}, RejectionNotYourTurn)
}

// Plays complete matches with default actions and checks conservation after
// every step.
func TestMachine_CardConservation(t *testing.T) {
	for players := constants.MinPlayers; players <= constants.MaxPlayers; players++ {
		for seed := int64(1); seed <= 10; seed++ {
			m := newTestMachine(seed)
			seeds := make([]types.PlayerSeed, players)
			s := mustApply(t, m, nil, Initialize{Players: seeds})
			total := CardCount(s)
			require.Equal(t, constants.StartingCards*players, total)

			steps := 0
			for s.Phase != types.PhaseGameOver {
				a, ok := DefaultAction(s)
				require.True(t, ok, "no default action in %s", s.Phase)
				s = mustApply(t, m, s, a)
				require.Equal(t, total, CardCount(s))
				steps++
				require.Less(t, steps, 5000, "match did not finish")
			}
			assert.NotEmpty(t, s.WinnerID)
			assert.Equal(t, s.WinnerID, WinnerID(s))
		}
	}
}
