package models

import (
	"time"

	"github.com/cbodonnell/angelreaper/pkg/game/types"
)

// Match is a persisted match document. Version increases by one on every
// successful save and is the compare-and-swap token for SaveMatch.
type Match struct {
	ID        string            `json:"id"`
	State     *types.MatchState `json:"state"`
	Version   int64             `json:"version"`
	CreatedAt time.Time         `json:"createdAt"`
	UpdatedAt time.Time         `json:"updatedAt"`
}
