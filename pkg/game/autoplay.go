package game

import "github.com/cbodonnell/angelreaper/pkg/game/types"

// DefaultAction returns a plausible action for the player the match is
// waiting on. It is used to stand in for unresponsive players. The second
// return value is false when no action applies, e.g. after the game is over.
func DefaultAction(state *types.MatchState) (Action, bool) {
	if state == nil {
		return nil, false
	}
	actors := CurrentActors(state)
	if len(actors) == 0 {
		return nil, false
	}
	actor, _ := state.Player(actors[0])

	switch state.Phase {
	case types.PhaseRoundSetup:
		if actor == nil {
			return nil, false
		}
		if len(actor.Stack) == 0 {
			if len(actor.Hand) == 0 {
				return nil, false
			}
			return PlaceSetupCard{PlayerID: actor.ID, CardIndex: 0}, true
		}
		return MarkReady{PlayerID: actor.ID}, true

	case types.PhasePlacement:
		if actor == nil {
			return nil, false
		}
		if len(actor.Stack) > state.TurnStartStackCounts[actor.ID] {
			return ConfirmPlacement{PlayerID: actor.ID}, true
		}
		if len(actor.Hand) > 0 {
			return PlaceCard{PlayerID: actor.ID, CardIndex: 0}, true
		}
		return StartBid{PlayerID: actor.ID, Amount: 1}, true

	case types.PhaseBidding:
		if actor == nil {
			return nil, false
		}
		if actor.ID == state.HighestBidderID {
			amount := state.BidAmount + 1
			if amount > TotalStackedCards(state) {
				return nil, false
			}
			return RaiseBid{PlayerID: actor.ID, Amount: amount}, true
		}
		return Pass{PlayerID: actor.ID}, true

	case types.PhaseResolution:
		if actor == nil {
			return nil, false
		}
		if HasHiddenCards(actor) {
			return RevealCard{PlayerID: actor.ID, TargetPlayerID: actor.ID}, true
		}
		for _, p := range state.Players {
			if p.Alive && HasHiddenCards(p) {
				return RevealCard{PlayerID: actor.ID, TargetPlayerID: p.ID}, true
			}
		}
		return nil, false

	case types.PhasePenalty:
		return SelectPenaltyCard{PlayerID: actors[0], CardIndex: 0}, true

	case types.PhaseNextPlayerSelection:
		for i, p := range state.Players {
			if p.Alive {
				return SelectNextPlayer{PlayerID: actors[0], NextPlayerIndex: i}, true
			}
		}
		return nil, false

	case types.PhaseRoundEnd:
		return AdvanceRound{PlayerID: actors[0]}, true
	}
	return nil, false
}
