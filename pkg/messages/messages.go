package messages

import (
	"encoding/json"

	"github.com/cbodonnell/angelreaper/pkg/game"
	"github.com/cbodonnell/angelreaper/pkg/game/types"
)

const (
	// MessageBufferSize represents the maximum size of an inbound message
	MessageBufferSize = 4096
)

type MessageType byte

// Message types
const (
	MessageTypeClientPing MessageType = iota + 1
	MessageTypeServerPong
	MessageTypeClientAction
	MessageTypeServerMatchUpdate
	MessageTypeServerError
)

func (t MessageType) String() string {
	switch t {
	case MessageTypeClientPing:
		return "ping"
	case MessageTypeServerPong:
		return "pong"
	case MessageTypeClientAction:
		return "action"
	case MessageTypeServerMatchUpdate:
		return "update"
	case MessageTypeServerError:
		return "error"
	default:
		return "unknown"
	}
}

// Envelope is the unit exchanged on the subscription feed.
type Envelope struct {
	Type    MessageType
	MatchID string
	Version int64
	Payload json.RawMessage
}

// MatchUpdate is the payload of MessageTypeServerMatchUpdate.
type MatchUpdate struct {
	Action  game.ActionKind   `json:"action,omitempty"`
	Actors  []string          `json:"actors"`
	State   *types.MatchState `json:"state"`
	Version int64             `json:"version"`
}

// ErrorCode classifies a MessageTypeServerError payload.
type ErrorCode string

const (
	ErrorCodeBadRequest       ErrorCode = "bad_request"
	ErrorCodeRejected         ErrorCode = "rejected"
	ErrorCodePermissionDenied ErrorCode = "permission_denied"
	ErrorCodeRateLimited      ErrorCode = "rate_limited"
	ErrorCodeConflict         ErrorCode = "conflict"
	ErrorCodeNotFound         ErrorCode = "not_found"
	ErrorCodeInternal         ErrorCode = "internal"
)

// ErrorPayload is the payload of MessageTypeServerError.
type ErrorPayload struct {
	Code ErrorCode `json:"code"`
	// Rejection is set when Code is ErrorCodeRejected.
	Rejection game.RejectionKind `json:"rejection,omitempty"`
	Message   string             `json:"message"`
}

// NewEnvelope marshals payload into an envelope of the given type.
func NewEnvelope(t MessageType, matchID string, version int64, payload interface{}) (*Envelope, error) {
	var raw json.RawMessage
	if payload != nil {
		b, err := json.Marshal(payload)
		if err != nil {
			return nil, err
		}
		raw = b
	}
	return &Envelope{
		Type:    t,
		MatchID: matchID,
		Version: version,
		Payload: raw,
	}, nil
}
