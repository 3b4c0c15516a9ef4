package workers

import (
	"context"
	"errors"

	"github.com/cbodonnell/angelreaper/pkg/game"
	"github.com/cbodonnell/angelreaper/pkg/matches"
	"github.com/cbodonnell/angelreaper/pkg/messages"
	"github.com/cbodonnell/angelreaper/pkg/network"
	"github.com/cbodonnell/angelreaper/pkg/repositories"
	"github.com/cbodonnell/angelreaper/pkg/repositories/models"
)

// FeedSender delivers envelopes to feed subscribers.
type FeedSender interface {
	GetMatchClients(matchID string) []*network.Client
	SendReliableMessageToClient(ctx context.Context, clientID uint32, msg *messages.Envelope) error
	SendErrorToClient(ctx context.Context, clientID uint32, matchID string, payload *messages.ErrorPayload) error
}

var _ FeedSender = &network.NetworkManager{}

// MatchService is the part of the match manager the workers drive.
type MatchService interface {
	View(ctx context.Context, matchID string, viewerID string) (*models.Match, error)
	Submit(ctx context.Context, callerID string, matchID string, action game.Action) (*models.Match, error)
	Takeover(ctx context.Context, matchID string, action game.Action) (*models.Match, error)
}

var _ MatchService = &matches.MatchManager{}

// matchUpdateEnvelope builds the update message for one viewer. An empty action marks a snapshot.
func matchUpdateEnvelope(match *models.Match, viewerID string, action game.ActionKind) (*messages.Envelope, error) {
	view := game.ViewFor(match.State, viewerID)
	return messages.NewEnvelope(messages.MessageTypeServerMatchUpdate, match.ID, match.Version, &messages.MatchUpdate{
		Action:  action,
		Actors:  game.CurrentActors(match.State),
		State:   view,
		Version: match.Version,
	})
}

// errorPayload classifies err for a feed subscriber.
func errorPayload(err error) *messages.ErrorPayload {
	var rejection *game.Rejection
	switch {
	case errors.As(err, &rejection):
		return &messages.ErrorPayload{Code: messages.ErrorCodeRejected, Rejection: rejection.Kind, Message: rejection.Message}
	case errors.Is(err, matches.ErrPermissionDenied):
		return &messages.ErrorPayload{Code: messages.ErrorCodePermissionDenied, Message: err.Error()}
	case errors.Is(err, matches.ErrRateLimited):
		return &messages.ErrorPayload{Code: messages.ErrorCodeRateLimited, Message: err.Error()}
	case repositories.IsConflict(err):
		return &messages.ErrorPayload{Code: messages.ErrorCodeConflict, Message: "the match changed, try again"}
	case repositories.IsNotFound(err):
		return &messages.ErrorPayload{Code: messages.ErrorCodeNotFound, Message: "match not found"}
	default:
		return &messages.ErrorPayload{Code: messages.ErrorCodeInternal, Message: "internal error"}
	}
}
