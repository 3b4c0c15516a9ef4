// Package history renders match log entries as human-readable lines.
package history

import (
	"fmt"

	"github.com/cbodonnell/angelreaper/pkg/game/types"
)

// Line is one rendered log entry.
type Line struct {
	ID   string        `json:"id"`
	Kind types.LogKind `json:"kind"`
	At   string        `json:"at"`
	Text string        `json:"text"`
}

// Format renders every log entry of the state in order.
func Format(state *types.MatchState) []Line {
	if state == nil {
		return nil
	}
	names := make(map[string]string, len(state.Players))
	for _, p := range state.Players {
		names[p.ID] = p.Name
	}
	lines := make([]Line, 0, len(state.Logs))
	for _, e := range state.Logs {
		lines = append(lines, Line{
			ID:   e.ID,
			Kind: e.Kind,
			At:   e.At.UTC().Format("15:04:05"),
			Text: Describe(e, names),
		})
	}
	return lines
}

// Describe renders a single entry, resolving player ids through names.
func Describe(e types.LogEntry, names map[string]string) string {
	actor := nameOf(e.ActorPlayerID, names)
	target := nameOf(e.TargetPlayerID, names)
	amount := 0
	if e.Amount != nil {
		amount = *e.Amount
	}

	switch e.Kind {
	case types.LogKindMatchStarted:
		return "The match has started"
	case types.LogKindMatchReset:
		return fmt.Sprintf("%s reset the match", actor)
	case types.LogKindSetupCardPlaced:
		return fmt.Sprintf("%s placed a card", actor)
	case types.LogKindSetupCardReturned:
		return fmt.Sprintf("%s took back their card", actor)
	case types.LogKindPlayerReady:
		return fmt.Sprintf("%s is ready", actor)
	case types.LogKindPlacementStarted:
		return fmt.Sprintf("Placement begins with %s", actor)
	case types.LogKindCardPlaced:
		return fmt.Sprintf("%s added a card to their stack", actor)
	case types.LogKindCardReturned:
		return fmt.Sprintf("%s took a card back", actor)
	case types.LogKindPlacementConfirmed:
		return fmt.Sprintf("%s passed the turn to %s", actor, target)
	case types.LogKindBidStarted:
		return fmt.Sprintf("%s opened the bidding at %s", actor, cards(amount))
	case types.LogKindBidRaised:
		return fmt.Sprintf("%s raised to %s", actor, cards(amount))
	case types.LogKindPassed:
		return fmt.Sprintf("%s passed", actor)
	case types.LogKindRevealAngel:
		if e.ActorPlayerID == e.TargetPlayerID {
			return fmt.Sprintf("%s revealed an angel from their own stack", actor)
		}
		return fmt.Sprintf("%s revealed an angel from %s", actor, target)
	case types.LogKindRevealReaper:
		if e.ActorPlayerID == e.TargetPlayerID {
			return fmt.Sprintf("%s revealed their own reaper", actor)
		}
		return fmt.Sprintf("%s revealed %s's reaper", actor, target)
	case types.LogKindBidSucceeded:
		return fmt.Sprintf("%s won the round", actor)
	case types.LogKindCardDiscarded:
		if e.ActorPlayerID == e.TargetPlayerID {
			return fmt.Sprintf("%s discarded one of their cards", actor)
		}
		return fmt.Sprintf("%s discarded one of %s's cards", actor, target)
	case types.LogKindPlayerEliminated:
		return fmt.Sprintf("%s has been eliminated", target)
	case types.LogKindNextPlayerSelected:
		return fmt.Sprintf("%s chose %s to lead the next round", actor, target)
	case types.LogKindRoundAdvanced:
		return fmt.Sprintf("A new round begins, led by %s", target)
	case types.LogKindGameWon:
		return fmt.Sprintf("%s wins the match", actor)
	default:
		return string(e.Kind)
	}
}

func nameOf(id string, names map[string]string) string {
	if name, ok := names[id]; ok && name != "" {
		return name
	}
	if id == "" {
		return "Someone"
	}
	return id
}

func cards(n int) string {
	if n == 1 {
		return "1 card"
	}
	return fmt.Sprintf("%d cards", n)
}
