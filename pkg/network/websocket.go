package network

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cbodonnell/angelreaper/pkg/messages"
	"nhooyr.io/websocket"
)

// WriteTimeout bounds a single write to a subscriber.
const WriteTimeout = 5 * time.Second

// ErrMalformedMessage wraps a frame that could not be decoded. The connection stays usable.
var ErrMalformedMessage = errors.New("malformed message")

// WriteMessageToWS writes an Envelope to a WebSocket connection
func WriteMessageToWS(ctx context.Context, conn *websocket.Conn, msg *messages.Envelope) error {
	b, err := messages.SerializeEnvelope(msg)
	if err != nil {
		return fmt.Errorf("failed to serialize message: %v", err)
	}

	ctx, cancel := context.WithTimeout(ctx, WriteTimeout)
	defer cancel()
	if err := conn.Write(ctx, websocket.MessageBinary, b); err != nil {
		return fmt.Errorf("failed to write message to WebSocket connection: %v", err)
	}

	return nil
}

// ReadMessageFromWS reads an Envelope from a WebSocket connection
func ReadMessageFromWS(ctx context.Context, conn *websocket.Conn) (*messages.Envelope, error) {
	_, b, err := conn.Read(ctx)
	if err != nil {
		return nil, err
	}

	msg, err := messages.DeserializeEnvelope(b)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedMessage, err)
	}

	return msg, nil
}

// isNormalClose reports whether err is the peer closing the connection cleanly.
func isNormalClose(err error) bool {
	switch websocket.CloseStatus(err) {
	case websocket.StatusNormalClosure, websocket.StatusGoingAway:
		return true
	}
	return false
}
