package game

import (
	"github.com/cbodonnell/angelreaper/pkg/game/constants"
	"github.com/cbodonnell/angelreaper/pkg/game/types"
)

// NextEligiblePlayer walks the turn order cyclically after fromID and returns
// the first living player, skipping passed players when skipPassed is set.
// If nobody else qualifies, fromID is returned.
func NextEligiblePlayer(state *types.MatchState, fromID string, skipPassed bool) string {
	n := len(state.Players)
	_, start := state.Player(fromID)
	for i := 1; i <= n; i++ {
		idx := (start + i + n) % n
		if idx == start {
			continue
		}
		p := state.Players[idx]
		if !p.Alive {
			continue
		}
		if skipPassed && p.Passed {
			continue
		}
		return p.ID
	}
	return fromID
}

// TotalStackedCards counts every card on every stack.
func TotalStackedCards(state *types.MatchState) int {
	total := 0
	for _, p := range state.Players {
		total += len(p.Stack)
	}
	return total
}

func LivingPlayers(state *types.MatchState) []*types.Player {
	living := make([]*types.Player, 0, len(state.Players))
	for _, p := range state.Players {
		if p.Alive {
			living = append(living, p)
		}
	}
	return living
}

// ActivePlayerCount counts living players who have not passed.
func ActivePlayerCount(state *types.MatchState) int {
	count := 0
	for _, p := range state.Players {
		if p.Alive && !p.Passed {
			count++
		}
	}
	return count
}

func HasHiddenCards(p *types.Player) bool {
	return TopHiddenCardIndex(p) >= 0
}

// TopHiddenCardIndex returns the highest stack index still face-down, or -1.
func TopHiddenCardIndex(p *types.Player) int {
	for i := len(p.Stack) - 1; i >= 0; i-- {
		if !p.Stack[i].FaceUp {
			return i
		}
	}
	return -1
}

// WinnerID returns the sole survivor, else the first player in turn order
// with enough round wins, else the empty string.
func WinnerID(state *types.MatchState) string {
	living := LivingPlayers(state)
	if len(living) == 1 {
		return living[0].ID
	}
	for _, p := range state.Players {
		if p.RoundWins >= constants.RoundWinsToWin {
			return p.ID
		}
	}
	return ""
}

// PenaltySelectorID returns who chooses the bidder's discarded card.
func PenaltySelectorID(state *types.MatchState) string {
	if state.ReaperOwnerID == "" || state.ReaperOwnerID == state.HighestBidderID {
		return state.HighestBidderID
	}
	return state.ReaperOwnerID
}

func RemainingCards(p *types.Player) int {
	return p.Remaining()
}

// CardCount returns the cards still held plus every card discarded so far.
// It always equals StartingCards times the roster size.
func CardCount(state *types.MatchState) int {
	total := 0
	for _, p := range state.Players {
		total += p.Remaining() + p.EliminatedCardTally
	}
	return total
}

// CurrentActors lists the players the match is waiting on.
func CurrentActors(state *types.MatchState) []string {
	if state == nil {
		return nil
	}
	switch state.Phase {
	case types.PhaseRoundSetup:
		actors := []string{}
		for _, p := range state.Players {
			if p.Alive && !p.Ready {
				actors = append(actors, p.ID)
			}
		}
		return actors
	case types.PhasePlacement, types.PhaseBidding:
		return []string{state.TurnPlayerID}
	case types.PhaseResolution:
		return []string{state.RevealingPlayerID}
	case types.PhasePenalty:
		return []string{PenaltySelectorID(state)}
	case types.PhaseNextPlayerSelection, types.PhaseRoundEnd:
		actors := []string{}
		for _, p := range LivingPlayers(state) {
			actors = append(actors, p.ID)
		}
		return actors
	default:
		return nil
	}
}
