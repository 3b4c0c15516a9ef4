package game

import "github.com/cbodonnell/angelreaper/pkg/game/types"

// ViewFor returns a copy of state as seen by viewerID. Every face-down card
// not owned by the viewer has its kind masked. An empty viewerID masks all
// face-down cards.
func ViewFor(state *types.MatchState, viewerID string) *types.MatchState {
	view := state.Clone()
	if view == nil {
		return nil
	}
	for _, p := range view.Players {
		if p.ID == viewerID && viewerID != "" {
			continue
		}
		maskCards(p.Hand)
		maskCards(p.Stack)
	}
	return view
}

func maskCards(cards []types.Card) {
	for i := range cards {
		if !cards[i].FaceUp {
			cards[i].Kind = types.CardKindHidden
		}
	}
}
