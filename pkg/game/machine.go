package game

import (
	"time"

	"github.com/cbodonnell/angelreaper/pkg/game/types"
)

// Apply applies an action with the default machine.
func Apply(state *types.MatchState, action Action) (*types.MatchState, error) {
	return defaultMachine.Apply(state, action)
}

// IsLegal reports whether the default machine would accept the action.
func IsLegal(state *types.MatchState, action Action) bool {
	return defaultMachine.IsLegal(state, action)
}

// Apply returns the state that results from applying action to state, or a
// *Rejection. The input state is never modified.
func (m *Machine) Apply(state *types.MatchState, action Action) (*types.MatchState, error) {
	next, rej := m.run(state, action, false)
	if rej != nil {
		return nil, rej
	}
	return next, nil
}

// IsLegal runs the same validation as Apply without producing a state.
func (m *Machine) IsLegal(state *types.MatchState, action Action) bool {
	_, rej := m.run(state, action, true)
	return rej == nil
}

// transition carries a working copy of the state through one action.
type transition struct {
	m   *Machine
	s   *types.MatchState
	now time.Time
	dry bool
}

func (m *Machine) run(state *types.MatchState, action Action, dry bool) (*types.MatchState, *Rejection) {
	if action == nil {
		return nil, reject(RejectionIllegalAction, "action is nil")
	}
	if a, ok := action.(Initialize); ok {
		return m.initialize(state, a, dry)
	}
	if state == nil {
		return nil, reject(RejectionNotFound, "match has not been initialized")
	}

	t := &transition{m: m, s: state.Clone(), now: m.now(), dry: dry}
	var rej *Rejection
	switch a := action.(type) {
	case PlaceSetupCard:
		rej = t.placeSetupCard(a)
	case ReturnSetupCard:
		rej = t.returnSetupCard(a)
	case MarkReady:
		rej = t.markReady(a)
	case PlaceCard:
		rej = t.placeCard(a)
	case ReturnPlacedCard:
		rej = t.returnPlacedCard(a)
	case ConfirmPlacement:
		rej = t.confirmPlacement(a)
	case StartBid:
		rej = t.startBid(a)
	case RaiseBid:
		rej = t.raiseBid(a)
	case Pass:
		rej = t.pass(a)
	case RevealCard:
		rej = t.revealCard(a)
	case SelectPenaltyCard:
		rej = t.selectPenaltyCard(a)
	case SelectNextPlayer:
		rej = t.selectNextPlayer(a)
	case AdvanceRound:
		rej = t.advanceRound(a)
	case ResetMatch:
		return m.reset(state, a, dry)
	default:
		rej = reject(RejectionIllegalAction, "unknown action %T", action)
	}
	if rej != nil {
		return nil, rej
	}
	t.s.LastActionAt = t.now
	return t.s, nil
}

func (m *Machine) initialize(state *types.MatchState, a Initialize, dry bool) (*types.MatchState, *Rejection) {
	if state != nil && state.Phase != types.PhaseGameOver {
		return nil, reject(RejectionWrongPhase, "a match is already in progress")
	}
	if rej := validateSeeds(a.Players); rej != nil {
		return nil, rej
	}
	if dry {
		return nil, nil
	}
	next, err := m.NewMatch(a.Players)
	if err != nil {
		return nil, reject(RejectionIllegalAction, "%v", err)
	}
	t := &transition{m: m, s: next, now: next.PhaseStartedAt}
	t.log(types.LogKindMatchStarted, "", "", nil)
	return next, nil
}

func (m *Machine) reset(state *types.MatchState, a ResetMatch, dry bool) (*types.MatchState, *Rejection) {
	if state.Phase != types.PhaseGameOver {
		return nil, reject(RejectionWrongPhase, "%s is only allowed once the match is over", a.Kind())
	}
	if p, _ := state.Player(a.PlayerID); p == nil {
		return nil, reject(RejectionNotFound, "player %s is not in this match", a.PlayerID)
	}
	if dry {
		return nil, nil
	}
	seeds := make([]types.PlayerSeed, len(state.Players))
	colors := make([]string, len(state.Players))
	for i, p := range state.Players {
		seeds[i] = types.PlayerSeed{ID: p.ID, Name: p.Name}
		colors[i] = p.ColorTag
	}
	next, err := m.NewMatch(seeds)
	if err != nil {
		return nil, reject(RejectionIllegalAction, "%v", err)
	}
	for i, p := range next.Players {
		p.ColorTag = colors[i]
	}
	t := &transition{m: m, s: next, now: next.PhaseStartedAt}
	t.log(types.LogKindMatchReset, a.PlayerID, "", nil)
	return next, nil
}

func (t *transition) log(kind types.LogKind, actorID, targetID string, amount *int) {
	if t.dry {
		return
	}
	t.s.Logs = append(t.s.Logs, types.LogEntry{
		ID:             t.m.id(),
		Kind:           kind,
		ActorPlayerID:  actorID,
		TargetPlayerID: targetID,
		Amount:         amount,
		At:             t.now,
	})
}

func (t *transition) setPhase(phase types.Phase) {
	t.s.Phase = phase
	t.s.PhaseStartedAt = t.now
	t.s.TurnStartedAt = t.now
}

// passTurn hands the turn to playerID within the current phase.
func (t *transition) passTurn(playerID string) {
	t.s.TurnPlayerID = playerID
	t.s.TurnStartedAt = t.now
}

func (t *transition) requirePhase(kind ActionKind, phase types.Phase) *Rejection {
	if t.s.Phase != phase {
		return reject(RejectionWrongPhase, "%s is not allowed during %s", kind, t.s.Phase)
	}
	return nil
}

func (t *transition) requirePlayer(id string) (*types.Player, *Rejection) {
	p, _ := t.s.Player(id)
	if p == nil {
		return nil, reject(RejectionNotFound, "player %s is not in this match", id)
	}
	return p, nil
}

// requireTurn resolves the actor and checks that they hold the turn marker.
func (t *transition) requireTurn(id string) (*types.Player, *Rejection) {
	p, rej := t.requirePlayer(id)
	if rej != nil {
		return nil, rej
	}
	if !p.Alive {
		return nil, reject(RejectionNotYourTurn, "player %s has been eliminated", id)
	}
	if t.s.TurnPlayerID != id {
		return nil, reject(RejectionNotYourTurn, "it is %s's turn", t.s.TurnPlayerID)
	}
	return p, nil
}

// requireSetupPlayer resolves a living, not yet ready actor during round setup.
func (t *transition) requireSetupPlayer(kind ActionKind, id string) (*types.Player, *Rejection) {
	if rej := t.requirePhase(kind, types.PhaseRoundSetup); rej != nil {
		return nil, rej
	}
	p, rej := t.requirePlayer(id)
	if rej != nil {
		return nil, rej
	}
	if !p.Alive {
		return nil, reject(RejectionIllegalAction, "player %s has been eliminated", id)
	}
	if p.Ready {
		return nil, reject(RejectionIllegalAction, "player %s is already ready", id)
	}
	return p, nil
}

func (t *transition) snapshotStacks() {
	counts := make(map[string]int)
	for _, p := range t.s.Players {
		if p.Alive {
			counts[p.ID] = len(p.Stack)
		}
	}
	t.s.TurnStartStackCounts = counts
}

func (t *transition) placeSetupCard(a PlaceSetupCard) *Rejection {
	p, rej := t.requireSetupPlayer(a.Kind(), a.PlayerID)
	if rej != nil {
		return rej
	}
	if a.CardIndex < 0 || a.CardIndex >= len(p.Hand) {
		return reject(RejectionInvalidCardIndex, "card index %d is out of range", a.CardIndex)
	}
	card := takeCard(&p.Hand, a.CardIndex)
	card.FaceUp = false
	returnToHand(p)
	p.Stack = []types.Card{card}
	t.log(types.LogKindSetupCardPlaced, p.ID, "", nil)
	return nil
}

func (t *transition) returnSetupCard(a ReturnSetupCard) *Rejection {
	p, rej := t.requireSetupPlayer(a.Kind(), a.PlayerID)
	if rej != nil {
		return rej
	}
	if len(p.Stack) == 0 {
		return reject(RejectionIllegalAction, "player %s has no setup card to return", p.ID)
	}
	returnToHand(p)
	t.log(types.LogKindSetupCardReturned, p.ID, "", nil)
	return nil
}

func (t *transition) markReady(a MarkReady) *Rejection {
	p, rej := t.requireSetupPlayer(a.Kind(), a.PlayerID)
	if rej != nil {
		return rej
	}
	if len(p.Stack) == 0 {
		return reject(RejectionIllegalAction, "player %s must place a card before marking ready", p.ID)
	}
	p.Ready = true
	t.log(types.LogKindPlayerReady, p.ID, "", nil)

	for _, other := range t.s.Players {
		if other.Alive && (!other.Ready || len(other.Stack) == 0) {
			return nil
		}
	}
	if leader, _ := t.s.Player(t.s.TurnPlayerID); leader == nil || !leader.Alive {
		t.s.TurnPlayerID = NextEligiblePlayer(t.s, t.s.TurnPlayerID, false)
	}
	t.snapshotStacks()
	t.setPhase(types.PhasePlacement)
	t.log(types.LogKindPlacementStarted, t.s.TurnPlayerID, "", nil)
	return nil
}

func (t *transition) placedThisTurn(p *types.Player) bool {
	return len(p.Stack) > t.s.TurnStartStackCounts[p.ID]
}

func (t *transition) placeCard(a PlaceCard) *Rejection {
	if rej := t.requirePhase(a.Kind(), types.PhasePlacement); rej != nil {
		return rej
	}
	p, rej := t.requireTurn(a.PlayerID)
	if rej != nil {
		return rej
	}
	if a.CardIndex < 0 || a.CardIndex >= len(p.Hand) {
		return reject(RejectionInvalidCardIndex, "card index %d is out of range", a.CardIndex)
	}
	if t.placedThisTurn(p) {
		return reject(RejectionIllegalAction, "only one card may be placed per turn")
	}
	card := takeCard(&p.Hand, a.CardIndex)
	card.FaceUp = false
	p.Stack = append(p.Stack, card)
	t.log(types.LogKindCardPlaced, p.ID, "", nil)
	return nil
}

func (t *transition) returnPlacedCard(a ReturnPlacedCard) *Rejection {
	if rej := t.requirePhase(a.Kind(), types.PhasePlacement); rej != nil {
		return rej
	}
	p, rej := t.requireTurn(a.PlayerID)
	if rej != nil {
		return rej
	}
	if !t.placedThisTurn(p) {
		return reject(RejectionIllegalAction, "no card was placed this turn")
	}
	card := takeCard(&p.Stack, len(p.Stack)-1)
	p.Hand = append(p.Hand, card)
	t.log(types.LogKindCardReturned, p.ID, "", nil)
	return nil
}

func (t *transition) confirmPlacement(a ConfirmPlacement) *Rejection {
	if rej := t.requirePhase(a.Kind(), types.PhasePlacement); rej != nil {
		return rej
	}
	p, rej := t.requireTurn(a.PlayerID)
	if rej != nil {
		return rej
	}
	if !t.placedThisTurn(p) {
		return reject(RejectionIllegalAction, "a card must be placed before confirming")
	}
	t.passTurn(NextEligiblePlayer(t.s, p.ID, false))
	t.snapshotStacks()
	t.log(types.LogKindPlacementConfirmed, p.ID, t.s.TurnPlayerID, nil)
	return nil
}

func (t *transition) startBid(a StartBid) *Rejection {
	if rej := t.requirePhase(a.Kind(), types.PhasePlacement); rej != nil {
		return rej
	}
	p, rej := t.requireTurn(a.PlayerID)
	if rej != nil {
		return rej
	}
	if len(p.Stack) == 0 {
		return reject(RejectionIllegalAction, "player %s has no stacked cards", p.ID)
	}
	total := TotalStackedCards(t.s)
	if a.Amount < 1 || a.Amount > total {
		return reject(RejectionInvalidBidAmount, "bid must be between 1 and %d", total)
	}

	t.s.BidAmount = a.Amount
	t.s.HighestBidderID = p.ID
	t.s.BidStarterID = p.ID
	amount := a.Amount
	t.log(types.LogKindBidStarted, p.ID, "", &amount)

	if a.Amount == total {
		t.enterResolution()
		return nil
	}
	t.setPhase(types.PhaseBidding)
	t.advanceBidding(p.ID)
	return nil
}

func (t *transition) raiseBid(a RaiseBid) *Rejection {
	if rej := t.requirePhase(a.Kind(), types.PhaseBidding); rej != nil {
		return rej
	}
	p, rej := t.requireTurn(a.PlayerID)
	if rej != nil {
		return rej
	}
	if p.Passed {
		return reject(RejectionNotYourTurn, "player %s has already passed", p.ID)
	}
	total := TotalStackedCards(t.s)
	if a.Amount <= t.s.BidAmount || a.Amount > total {
		return reject(RejectionInvalidBidAmount, "bid must be greater than %d and at most %d", t.s.BidAmount, total)
	}

	t.s.BidAmount = a.Amount
	t.s.HighestBidderID = p.ID
	amount := a.Amount
	t.log(types.LogKindBidRaised, p.ID, "", &amount)

	if a.Amount == total {
		t.enterResolution()
		return nil
	}
	t.advanceBidding(p.ID)
	return nil
}

func (t *transition) pass(a Pass) *Rejection {
	if rej := t.requirePhase(a.Kind(), types.PhaseBidding); rej != nil {
		return rej
	}
	p, rej := t.requireTurn(a.PlayerID)
	if rej != nil {
		return rej
	}
	if p.ID == t.s.HighestBidderID {
		return reject(RejectionIllegalAction, "the highest bidder cannot pass")
	}
	if p.Passed {
		return reject(RejectionNotYourTurn, "player %s has already passed", p.ID)
	}
	p.Passed = true
	t.log(types.LogKindPassed, p.ID, "", nil)
	t.advanceBidding(p.ID)
	return nil
}

// advanceBidding hands the turn to the next bidder or closes the auction.
func (t *transition) advanceBidding(fromID string) {
	if ActivePlayerCount(t.s) <= 1 {
		t.enterResolution()
		return
	}
	t.passTurn(NextEligiblePlayer(t.s, fromID, true))
}

func (t *transition) enterResolution() {
	t.s.CardsRemainingToReveal = t.s.BidAmount
	t.s.RevealingPlayerID = t.s.HighestBidderID
	t.s.TurnPlayerID = t.s.HighestBidderID
	t.s.RevealedCards = []types.RevealedCard{}
	t.setPhase(types.PhaseResolution)
}

func (t *transition) revealCard(a RevealCard) *Rejection {
	if rej := t.requirePhase(a.Kind(), types.PhaseResolution); rej != nil {
		return rej
	}
	p, rej := t.requirePlayer(a.PlayerID)
	if rej != nil {
		return rej
	}
	if p.ID != t.s.RevealingPlayerID {
		return reject(RejectionNotYourTurn, "only %s may reveal cards", t.s.RevealingPlayerID)
	}
	target, _ := t.s.Player(a.TargetPlayerID)
	if target == nil {
		return reject(RejectionInvalidTarget, "player %s is not in this match", a.TargetPlayerID)
	}
	if !target.Alive {
		return reject(RejectionInvalidTarget, "player %s has been eliminated", target.ID)
	}
	if !HasHiddenCards(target) {
		return reject(RejectionInvalidTarget, "player %s has no hidden cards", target.ID)
	}
	if target.ID != p.ID && HasHiddenCards(p) {
		return reject(RejectionInvalidTarget, "own cards must be revealed first")
	}

	idx := TopHiddenCardIndex(target)
	target.Stack[idx].FaceUp = true
	card := target.Stack[idx]
	t.s.RevealedCards = append(t.s.RevealedCards, types.RevealedCard{PlayerID: target.ID, Card: card})

	if card.Kind == types.CardKindReaper {
		t.s.ReaperOwnerID = target.ID
		t.log(types.LogKindRevealReaper, p.ID, target.ID, nil)
		t.setPhase(types.PhasePenalty)
		t.s.TurnPlayerID = PenaltySelectorID(t.s)
		return nil
	}

	t.log(types.LogKindRevealAngel, p.ID, target.ID, nil)
	t.s.CardsRemainingToReveal--
	if t.s.CardsRemainingToReveal > 0 {
		return nil
	}
	p.RoundWins++
	t.log(types.LogKindBidSucceeded, p.ID, "", nil)
	if !t.checkWinner() {
		t.setPhase(types.PhaseRoundEnd)
	}
	return nil
}

// checkWinner moves the match to game_over if someone has won.
func (t *transition) checkWinner() bool {
	winner := WinnerID(t.s)
	if winner == "" {
		return false
	}
	t.s.WinnerID = winner
	t.s.TurnPlayerID = winner
	t.setPhase(types.PhaseGameOver)
	t.log(types.LogKindGameWon, winner, "", nil)
	return true
}

func (t *transition) selectPenaltyCard(a SelectPenaltyCard) *Rejection {
	if rej := t.requirePhase(a.Kind(), types.PhasePenalty); rej != nil {
		return rej
	}
	p, rej := t.requirePlayer(a.PlayerID)
	if rej != nil {
		return rej
	}
	selector := PenaltySelectorID(t.s)
	if p.ID != selector {
		return reject(RejectionNotYourTurn, "only %s may choose the discarded card", selector)
	}
	bidder, _ := t.s.Player(t.s.HighestBidderID)
	if bidder == nil {
		return reject(RejectionNotFound, "bidder %s is not in this match", t.s.HighestBidderID)
	}
	if a.CardIndex < 0 || a.CardIndex >= bidder.Remaining() {
		return reject(RejectionInvalidCardIndex, "card index %d is out of range", a.CardIndex)
	}

	if a.CardIndex < len(bidder.Hand) {
		takeCard(&bidder.Hand, a.CardIndex)
	} else {
		takeCard(&bidder.Stack, a.CardIndex-len(bidder.Hand))
	}
	bidder.EliminatedCardTally++
	t.log(types.LogKindCardDiscarded, p.ID, bidder.ID, nil)

	if bidder.Remaining() > 0 {
		t.setPhase(types.PhaseRoundEnd)
		return nil
	}

	bidder.Alive = false
	bidder.Stack = []types.Card{}
	t.log(types.LogKindPlayerEliminated, p.ID, bidder.ID, nil)
	if t.checkWinner() {
		return nil
	}
	if t.s.ReaperOwnerID == bidder.ID {
		t.s.TurnPlayerID = NextEligiblePlayer(t.s, bidder.ID, false)
		t.setPhase(types.PhaseNextPlayerSelection)
		return nil
	}
	t.setPhase(types.PhaseRoundEnd)
	return nil
}

func (t *transition) selectNextPlayer(a SelectNextPlayer) *Rejection {
	if rej := t.requirePhase(a.Kind(), types.PhaseNextPlayerSelection); rej != nil {
		return rej
	}
	p, rej := t.requirePlayer(a.PlayerID)
	if rej != nil {
		return rej
	}
	if a.NextPlayerIndex < 0 || a.NextPlayerIndex >= len(t.s.Players) {
		return reject(RejectionInvalidTarget, "no player at index %d", a.NextPlayerIndex)
	}
	next := t.s.Players[a.NextPlayerIndex]
	if !next.Alive {
		return reject(RejectionInvalidTarget, "cannot select eliminated player")
	}
	t.log(types.LogKindNextPlayerSelected, p.ID, next.ID, nil)
	t.startNextRound(next.ID)
	return nil
}

func (t *transition) advanceRound(a AdvanceRound) *Rejection {
	if rej := t.requirePhase(a.Kind(), types.PhaseRoundEnd); rej != nil {
		return rej
	}
	p, rej := t.requirePlayer(a.PlayerID)
	if rej != nil {
		return rej
	}
	leader := t.nextLeader()
	t.log(types.LogKindRoundAdvanced, p.ID, leader, nil)
	t.startNextRound(leader)
	return nil
}

// nextLeader is the previous bidder, or the reaper owner if the bidder is
// gone, or failing both the next living player after the bidder.
func (t *transition) nextLeader() string {
	if bidder, _ := t.s.Player(t.s.HighestBidderID); bidder != nil && bidder.Alive {
		return bidder.ID
	}
	if owner, _ := t.s.Player(t.s.ReaperOwnerID); owner != nil && owner.Alive {
		return owner.ID
	}
	return NextEligiblePlayer(t.s, t.s.HighestBidderID, false)
}

func (t *transition) startNextRound(leaderID string) {
	for _, p := range t.s.Players {
		returnToHand(p)
		p.Ready = false
		p.Passed = false
	}
	t.s.BidAmount = 0
	t.s.HighestBidderID = ""
	t.s.BidStarterID = ""
	t.s.ReaperOwnerID = ""
	t.s.RevealedCards = []types.RevealedCard{}
	t.s.CardsRemainingToReveal = 0
	t.s.RevealingPlayerID = ""
	t.s.TurnStartStackCounts = map[string]int{}
	t.s.TurnPlayerID = leaderID
	t.s.RoundNumber++
	t.setPhase(types.PhaseRoundSetup)
}

// returnToHand moves every stacked card back to the hand face-down.
func returnToHand(p *types.Player) {
	for _, c := range p.Stack {
		c.FaceUp = false
		p.Hand = append(p.Hand, c)
	}
	p.Stack = []types.Card{}
}

func takeCard(cards *[]types.Card, idx int) types.Card {
	s := *cards
	card := s[idx]
	out := make([]types.Card, 0, len(s)-1)
	out = append(out, s[:idx]...)
	out = append(out, s[idx+1:]...)
	*cards = out
	return card
}
