package constants

const (
	// MinPlayers is the smallest roster a match accepts
	MinPlayers int = 2
	// MaxPlayers is the largest roster a match accepts
	MaxPlayers int = 6

	// StartingAngels is the number of angel cards dealt to each player
	StartingAngels int = 3
	// StartingReapers is the number of reaper cards dealt to each player
	StartingReapers int = 1
	// StartingCards is the number of cards each player begins a match with
	StartingCards int = StartingAngels + StartingReapers

	// RoundWinsToWin is the number of successful bids that wins the match
	RoundWinsToWin int = 2
)

// Palette holds the color tag for each seat, indexed by turn order.
var Palette = [MaxPlayers]string{
	"crimson",
	"azure",
	"amber",
	"jade",
	"violet",
	"slate",
}
