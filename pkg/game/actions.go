package game

import "github.com/cbodonnell/angelreaper/pkg/game/types"

type ActionKind string

const (
	ActionInitialize        ActionKind = "INITIALIZE"
	ActionPlaceSetupCard    ActionKind = "PLACE_SETUP_CARD"
	ActionReturnSetupCard   ActionKind = "RETURN_SETUP_CARD"
	ActionMarkReady         ActionKind = "MARK_READY"
	ActionPlaceCard         ActionKind = "PLACE_CARD"
	ActionReturnPlacedCard  ActionKind = "RETURN_PLACED_CARD"
	ActionConfirmPlacement  ActionKind = "CONFIRM_PLACEMENT"
	ActionStartBid          ActionKind = "START_BID"
	ActionRaiseBid          ActionKind = "RAISE_BID"
	ActionPass              ActionKind = "PASS"
	ActionRevealCard        ActionKind = "REVEAL_CARD"
	ActionSelectPenaltyCard ActionKind = "SELECT_PENALTY_CARD"
	ActionSelectNextPlayer  ActionKind = "SELECT_NEXT_PLAYER"
	ActionAdvanceRound      ActionKind = "ADVANCE_ROUND"
	ActionResetMatch        ActionKind = "RESET_MATCH"
)

// Action is a player intent. The set of variants is closed: only the types
// declared in this file implement it.
type Action interface {
	// Actor returns the id of the player performing the action.
	// Initialize has no actor.
	Actor() string
	Kind() ActionKind
	isAction()
}

type Initialize struct {
	Players []types.PlayerSeed
}

type PlaceSetupCard struct {
	PlayerID  string
	CardIndex int
}

type ReturnSetupCard struct {
	PlayerID string
}

type MarkReady struct {
	PlayerID string
}

type PlaceCard struct {
	PlayerID  string
	CardIndex int
}

type ReturnPlacedCard struct {
	PlayerID string
}

type ConfirmPlacement struct {
	PlayerID string
}

type StartBid struct {
	PlayerID string
	Amount   int
}

type RaiseBid struct {
	PlayerID string
	Amount   int
}

type Pass struct {
	PlayerID string
}

type RevealCard struct {
	PlayerID       string
	TargetPlayerID string
}

// SelectPenaltyCard indexes into the bidder's hand followed by their stack.
type SelectPenaltyCard struct {
	PlayerID  string
	CardIndex int
}

type SelectNextPlayer struct {
	PlayerID        string
	NextPlayerIndex int
}

type AdvanceRound struct {
	PlayerID string
}

type ResetMatch struct {
	PlayerID string
}

func (Initialize) Actor() string          { return "" }
func (a PlaceSetupCard) Actor() string    { return a.PlayerID }
func (a ReturnSetupCard) Actor() string   { return a.PlayerID }
func (a MarkReady) Actor() string         { return a.PlayerID }
func (a PlaceCard) Actor() string         { return a.PlayerID }
func (a ReturnPlacedCard) Actor() string  { return a.PlayerID }
func (a ConfirmPlacement) Actor() string  { return a.PlayerID }
func (a StartBid) Actor() string          { return a.PlayerID }
func (a RaiseBid) Actor() string          { return a.PlayerID }
func (a Pass) Actor() string              { return a.PlayerID }
func (a RevealCard) Actor() string        { return a.PlayerID }
func (a SelectPenaltyCard) Actor() string { return a.PlayerID }
func (a SelectNextPlayer) Actor() string  { return a.PlayerID }
func (a AdvanceRound) Actor() string      { return a.PlayerID }
func (a ResetMatch) Actor() string        { return a.PlayerID }

func (Initialize) Kind() ActionKind        { return ActionInitialize }
func (PlaceSetupCard) Kind() ActionKind    { return ActionPlaceSetupCard }
func (ReturnSetupCard) Kind() ActionKind   { return ActionReturnSetupCard }
func (MarkReady) Kind() ActionKind         { return ActionMarkReady }
func (PlaceCard) Kind() ActionKind         { return ActionPlaceCard }
func (ReturnPlacedCard) Kind() ActionKind  { return ActionReturnPlacedCard }
func (ConfirmPlacement) Kind() ActionKind  { return ActionConfirmPlacement }
func (StartBid) Kind() ActionKind          { return ActionStartBid }
func (RaiseBid) Kind() ActionKind          { return ActionRaiseBid }
func (Pass) Kind() ActionKind              { return ActionPass }
func (RevealCard) Kind() ActionKind        { return ActionRevealCard }
func (SelectPenaltyCard) Kind() ActionKind { return ActionSelectPenaltyCard }
func (SelectNextPlayer) Kind() ActionKind  { return ActionSelectNextPlayer }
func (AdvanceRound) Kind() ActionKind      { return ActionAdvanceRound }
func (ResetMatch) Kind() ActionKind        { return ActionResetMatch }

func (Initialize) isAction()        {}
func (PlaceSetupCard) isAction()    {}
func (ReturnSetupCard) isAction()   {}
func (MarkReady) isAction()         {}
func (PlaceCard) isAction()         {}
func (ReturnPlacedCard) isAction()  {}
func (ConfirmPlacement) isAction()  {}
func (StartBid) isAction()          {}
func (RaiseBid) isAction()          {}
func (Pass) isAction()              {}
func (RevealCard) isAction()        {}
func (SelectPenaltyCard) isAction() {}
func (SelectNextPlayer) isAction()  {}
func (AdvanceRound) isAction()      {}
func (ResetMatch) isAction()        {}
