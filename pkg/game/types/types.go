package types

import "time"

// Phase is the step of a round the match is in.
type Phase string

const (
	PhaseRoundSetup          Phase = "round_setup"
	PhasePlacement           Phase = "placement"
	PhaseBidding             Phase = "bidding"
	PhaseResolution          Phase = "resolution"
	PhasePenalty             Phase = "penalty"
	PhaseNextPlayerSelection Phase = "next_player_selection"
	PhaseRoundEnd            Phase = "round_end"
	PhaseGameOver            Phase = "game_over"
)

type CardKind string

const (
	CardKindAngel  CardKind = "angel"
	CardKindReaper CardKind = "reaper"
	// CardKindHidden only appears in redacted views.
	CardKindHidden CardKind = "hidden"
)

type Card struct {
	ID     string   `json:"id"`
	Kind   CardKind `json:"kind"`
	FaceUp bool     `json:"faceUp"`
}

type Player struct {
	ID                  string `json:"id"`
	Name                string `json:"name"`
	ColorTag            string `json:"colorTag"`
	Hand                []Card `json:"hand"`
	Stack               []Card `json:"stack"`
	RoundWins           int    `json:"roundWins"`
	Alive               bool   `json:"alive"`
	Ready               bool   `json:"ready"`
	Passed              bool   `json:"passed"`
	EliminatedCardTally int    `json:"eliminatedCardTally"`
}

// Remaining returns the number of cards the player still owns.
func (p *Player) Remaining() int {
	return len(p.Hand) + len(p.Stack)
}

// RevealedCard records a card flipped during resolution.
type RevealedCard struct {
	PlayerID string `json:"playerId"`
	Card     Card   `json:"card"`
}

type LogKind string

const (
	LogKindMatchStarted       LogKind = "match_started"
	LogKindSetupCardPlaced    LogKind = "setup_card_placed"
	LogKindSetupCardReturned  LogKind = "setup_card_returned"
	LogKindPlayerReady        LogKind = "player_ready"
	LogKindPlacementStarted   LogKind = "placement_started"
	LogKindCardPlaced         LogKind = "card_placed"
	LogKindCardReturned       LogKind = "card_returned"
	LogKindPlacementConfirmed LogKind = "placement_confirmed"
	LogKindBidStarted         LogKind = "bid_started"
	LogKindBidRaised          LogKind = "bid_raised"
	LogKindPassed             LogKind = "passed"
	LogKindRevealAngel        LogKind = "reveal_angel"
	LogKindRevealReaper       LogKind = "reveal_reaper"
	LogKindBidSucceeded       LogKind = "bid_succeeded"
	LogKindCardDiscarded      LogKind = "card_discarded"
	LogKindPlayerEliminated   LogKind = "player_eliminated"
	LogKindNextPlayerSelected LogKind = "next_player_selected"
	LogKindRoundAdvanced      LogKind = "round_advanced"
	LogKindGameWon            LogKind = "game_won"
	LogKindMatchReset         LogKind = "match_reset"
)

type LogEntry struct {
	ID             string    `json:"id"`
	Kind           LogKind   `json:"kind"`
	ActorPlayerID  string    `json:"actorPlayerId,omitempty"`
	TargetPlayerID string    `json:"targetPlayerId,omitempty"`
	Amount         *int      `json:"amount,omitempty"`
	At             time.Time `json:"at"`
}

// MatchState is the full authoritative state of a match.
// Players is kept in fixed turn order.
type MatchState struct {
	Phase                  Phase          `json:"phase"`
	RoundNumber            int            `json:"roundNumber"`
	Players                []*Player      `json:"players"`
	TurnPlayerID           string         `json:"turnPlayerId"`
	BidAmount              int            `json:"bidAmount"`
	HighestBidderID        string         `json:"highestBidderId"`
	BidStarterID           string         `json:"bidStarterId"`
	ReaperOwnerID          string         `json:"reaperOwnerId"`
	RevealedCards          []RevealedCard `json:"revealedCards"`
	CardsRemainingToReveal int            `json:"cardsRemainingToReveal"`
	RevealingPlayerID      string         `json:"revealingPlayerId"`
	WinnerID               string         `json:"winnerId"`
	TurnStartStackCounts   map[string]int `json:"turnStartStackCounts"`
	Logs                   []LogEntry     `json:"logs"`
	PhaseStartedAt         time.Time      `json:"phaseStartedAt"`
	// TurnStartedAt moves whenever the turn passes to another player or the phase changes.
	TurnStartedAt time.Time `json:"turnStartedAt"`
	LastActionAt  time.Time `json:"lastActionAt"`
}

// IdleSince returns when the match started waiting on its current actors.
func (s *MatchState) IdleSince() time.Time {
	if s.TurnStartedAt.After(s.PhaseStartedAt) {
		return s.TurnStartedAt
	}
	return s.PhaseStartedAt
}

// Player returns the player with the given id and its index in turn order.
func (s *MatchState) Player(id string) (*Player, int) {
	for i, p := range s.Players {
		if p.ID == id {
			return p, i
		}
	}
	return nil, -1
}

// Clone returns a deep copy of the state. Nothing is shared with the receiver.
func (s *MatchState) Clone() *MatchState {
	if s == nil {
		return nil
	}
	c := *s
	c.Players = make([]*Player, len(s.Players))
	for i, p := range s.Players {
		cp := *p
		cp.Hand = cloneCards(p.Hand)
		cp.Stack = cloneCards(p.Stack)
		c.Players[i] = &cp
	}
	if s.RevealedCards != nil {
		c.RevealedCards = make([]RevealedCard, len(s.RevealedCards))
		copy(c.RevealedCards, s.RevealedCards)
	}
	if s.TurnStartStackCounts != nil {
		c.TurnStartStackCounts = make(map[string]int, len(s.TurnStartStackCounts))
		for k, v := range s.TurnStartStackCounts {
			c.TurnStartStackCounts[k] = v
		}
	}
	if s.Logs != nil {
		c.Logs = make([]LogEntry, len(s.Logs))
		for i, e := range s.Logs {
			c.Logs[i] = e
			if e.Amount != nil {
				amount := *e.Amount
				c.Logs[i].Amount = &amount
			}
		}
	}
	return &c
}

func cloneCards(cards []Card) []Card {
	if cards == nil {
		return []Card{}
	}
	out := make([]Card, len(cards))
	copy(out, cards)
	return out
}

// PlayerSeed describes a player joining a new match.
type PlayerSeed struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}
