package messages

import (
	"encoding/json"
	"fmt"

	"github.com/cbodonnell/angelreaper/pkg/game"
	"github.com/cbodonnell/angelreaper/pkg/game/types"
)

// actionJSON is the wire form of every action variant.
type actionJSON struct {
	Type            game.ActionKind    `json:"type"`
	PlayerID        string             `json:"playerId,omitempty"`
	CardIndex       *int               `json:"cardIndex,omitempty"`
	Amount          *int               `json:"amount,omitempty"`
	TargetPlayerID  string             `json:"targetPlayerId,omitempty"`
	NextPlayerIndex *int               `json:"nextPlayerIndex,omitempty"`
	Players         []types.PlayerSeed `json:"players,omitempty"`
}

func intPtr(i int) *int {
	return &i
}

// EncodeAction returns the JSON form of an action.
func EncodeAction(action game.Action) ([]byte, error) {
	if action == nil {
		return nil, fmt.Errorf("action is nil")
	}
	w := actionJSON{
		Type:     action.Kind(),
		PlayerID: action.Actor(),
	}
	switch a := action.(type) {
	case game.Initialize:
		w.Players = a.Players
	case game.PlaceSetupCard:
		w.CardIndex = intPtr(a.CardIndex)
	case game.PlaceCard:
		w.CardIndex = intPtr(a.CardIndex)
	case game.SelectPenaltyCard:
		w.CardIndex = intPtr(a.CardIndex)
	case game.StartBid:
		w.Amount = intPtr(a.Amount)
	case game.RaiseBid:
		w.Amount = intPtr(a.Amount)
	case game.RevealCard:
		w.TargetPlayerID = a.TargetPlayerID
	case game.SelectNextPlayer:
		w.NextPlayerIndex = intPtr(a.NextPlayerIndex)
	case game.ReturnSetupCard, game.MarkReady, game.ReturnPlacedCard, game.ConfirmPlacement,
		game.Pass, game.AdvanceRound, game.ResetMatch:
	default:
		return nil, fmt.Errorf("unsupported action %T", action)
	}
	return json.Marshal(w)
}

// DecodeAction parses the JSON form of an action. Fields required by the
// action type must be present.
func DecodeAction(b []byte) (game.Action, error) {
	w := actionJSON{}
	if err := json.Unmarshal(b, &w); err != nil {
		return nil, fmt.Errorf("failed to unmarshal action: %v", err)
	}
	if w.Type != game.ActionInitialize && w.PlayerID == "" {
		return nil, fmt.Errorf("%s requires playerId", w.Type)
	}

	switch w.Type {
	case game.ActionInitialize:
		return game.Initialize{Players: w.Players}, nil
	case game.ActionPlaceSetupCard:
		if w.CardIndex == nil {
			return nil, missing(w.Type, "cardIndex")
		}
		return game.PlaceSetupCard{PlayerID: w.PlayerID, CardIndex: *w.CardIndex}, nil
	case game.ActionReturnSetupCard:
		return game.ReturnSetupCard{PlayerID: w.PlayerID}, nil
	case game.ActionMarkReady:
		return game.MarkReady{PlayerID: w.PlayerID}, nil
	case game.ActionPlaceCard:
		if w.CardIndex == nil {
			return nil, missing(w.Type, "cardIndex")
		}
		return game.PlaceCard{PlayerID: w.PlayerID, CardIndex: *w.CardIndex}, nil
	case game.ActionReturnPlacedCard:
		return game.ReturnPlacedCard{PlayerID: w.PlayerID}, nil
	case game.ActionConfirmPlacement:
		return game.ConfirmPlacement{PlayerID: w.PlayerID}, nil
	case game.ActionStartBid:
		if w.Amount == nil {
			return nil, missing(w.Type, "amount")
		}
		return game.StartBid{PlayerID: w.PlayerID, Amount: *w.Amount}, nil
	case game.ActionRaiseBid:
		if w.Amount == nil {
			return nil, missing(w.Type, "amount")
		}
		return game.RaiseBid{PlayerID: w.PlayerID, Amount: *w.Amount}, nil
	case game.ActionPass:
		return game.Pass{PlayerID: w.PlayerID}, nil
	case game.ActionRevealCard:
		if w.TargetPlayerID == "" {
			return nil, missing(w.Type, "targetPlayerId")
		}
		return game.RevealCard{PlayerID: w.PlayerID, TargetPlayerID: w.TargetPlayerID}, nil
	case game.ActionSelectPenaltyCard:
		if w.CardIndex == nil {
			return nil, missing(w.Type, "cardIndex")
		}
		return game.SelectPenaltyCard{PlayerID: w.PlayerID, CardIndex: *w.CardIndex}, nil
	case game.ActionSelectNextPlayer:
		if w.NextPlayerIndex == nil {
			return nil, missing(w.Type, "nextPlayerIndex")
		}
		return game.SelectNextPlayer{PlayerID: w.PlayerID, NextPlayerIndex: *w.NextPlayerIndex}, nil
	case game.ActionAdvanceRound:
		return game.AdvanceRound{PlayerID: w.PlayerID}, nil
	case game.ActionResetMatch:
		return game.ResetMatch{PlayerID: w.PlayerID}, nil
	default:
		return nil, fmt.Errorf("unknown action type %q", w.Type)
	}
}

func missing(kind game.ActionKind, field string) error {
	return fmt.Errorf("%s requires %s", kind, field)
}
