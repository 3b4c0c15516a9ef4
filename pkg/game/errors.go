package game

import (
	"errors"
	"fmt"

	"github.com/cbodonnell/angelreaper/pkg/game/constants"
	"github.com/cbodonnell/angelreaper/pkg/game/types"
)

type RejectionKind string

const (
	RejectionWrongPhase       RejectionKind = "WrongPhase"
	RejectionNotYourTurn      RejectionKind = "NotYourTurn"
	RejectionInvalidTarget    RejectionKind = "InvalidTarget"
	RejectionInvalidCardIndex RejectionKind = "InvalidCardIndex"
	RejectionInvalidBidAmount RejectionKind = "InvalidBidAmount"
	RejectionIllegalAction    RejectionKind = "IllegalAction"
	RejectionNotFound         RejectionKind = "NotFound"
)

// Rejection is returned when an action is not legal in the given state.
// A rejected action never changes the state.
type Rejection struct {
	Kind    RejectionKind `json:"kind"`
	Message string        `json:"message"`
}

func (r *Rejection) Error() string {
	return fmt.Sprintf("%s: %s", r.Kind, r.Message)
}

func reject(kind RejectionKind, format string, args ...interface{}) *Rejection {
	return &Rejection{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// IsRejection reports whether err is a Rejection of the given kind.
func IsRejection(err error, kind RejectionKind) bool {
	k, ok := RejectionKindOf(err)
	return ok && k == kind
}

// RejectionKindOf returns the kind of a Rejection anywhere in err's chain.
func RejectionKindOf(err error) (RejectionKind, bool) {
	var r *Rejection
	if errors.As(err, &r) {
		return r.Kind, true
	}
	return "", false
}

// CheckInvariants verifies the structural invariants of a state: card
// conservation per player, liveness matching remaining cards, and unique
// card ids across the match.
func CheckInvariants(state *types.MatchState) error {
	if state == nil {
		return fmt.Errorf("state is nil")
	}
	seen := make(map[string]string)
	for _, p := range state.Players {
		want := constants.StartingCards - p.EliminatedCardTally
		if got := p.Remaining(); got != want {
			return fmt.Errorf("player %s holds %d cards, expected %d", p.ID, got, want)
		}
		if p.Alive != (p.Remaining() > 0) {
			return fmt.Errorf("player %s alive=%t with %d cards", p.ID, p.Alive, p.Remaining())
		}
		for _, c := range append(append([]types.Card{}, p.Hand...), p.Stack...) {
			if owner, ok := seen[c.ID]; ok {
				return fmt.Errorf("card %s held by both %s and %s", c.ID, owner, p.ID)
			}
			seen[c.ID] = p.ID
		}
		for _, c := range p.Hand {
			if c.FaceUp {
				return fmt.Errorf("player %s has a face-up card in hand", p.ID)
			}
		}
	}
	return nil
}
