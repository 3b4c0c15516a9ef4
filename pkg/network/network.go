package network

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/cbodonnell/angelreaper/pkg/game"
	"github.com/cbodonnell/angelreaper/pkg/log"
	"github.com/cbodonnell/angelreaper/pkg/messages"
	"github.com/cbodonnell/angelreaper/pkg/queue"
	"nhooyr.io/websocket"
)

// InboundAction is an action received on a subscriber's feed.
type InboundAction struct {
	ClientID uint32
	UserID   string
	MatchID  string
	Action   game.Action
}

type NetworkManager struct {
	ClientManager  *ClientManager
	ActionQueue    queue.Queue[InboundAction]
	originPatterns []string
}

type NewNetworkManagerOptions struct {
	ClientManager *ClientManager
	ActionQueue   queue.Queue[InboundAction]
	// OriginPatterns restricts cross-origin feeds. Empty accepts any origin.
	OriginPatterns []string
}

func NewNetworkManager(options NewNetworkManagerOptions) *NetworkManager {
	return &NetworkManager{
		ClientManager:  options.ClientManager,
		ActionQueue:    options.ActionQueue,
		originPatterns: options.OriginPatterns,
	}
}

// ServeFeed upgrades the request to a websocket and serves the subscriber
// until it disconnects. The caller has already authenticated userID.
func (n *NetworkManager) ServeFeed(w http.ResponseWriter, r *http.Request, userID string, matchID string) {
	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		OriginPatterns:     n.originPatterns,
		InsecureSkipVerify: len(n.originPatterns) == 0,
	})
	if err != nil {
		log.Error("Failed to upgrade to WebSocket: %v", err)
		return
	}
	conn.SetReadLimit(messages.MessageBufferSize)

	clientID, err := n.ClientManager.ConnectClient(conn, userID, matchID)
	if err != nil {
		log.Error("Failed to connect client: %v", err)
		conn.Close(websocket.StatusTryAgainLater, "server is full")
		return
	}
	log.Info("Client %d (%s) subscribed to match %s", clientID, userID, matchID)

	ctx := r.Context()
	defer func() {
		n.ClientManager.DisconnectClient(clientID)
		conn.Close(websocket.StatusNormalClosure, "")
		log.Info("Client %d disconnected", clientID)
	}()

	for {
		msg, err := ReadMessageFromWS(ctx, conn)
		if err != nil {
			if errors.Is(err, ErrMalformedMessage) {
				log.Warn("Malformed message from client %d: %v", clientID, err)
				n.sendError(ctx, clientID, matchID, messages.ErrorCodeBadRequest, "", err.Error())
				continue
			}
			if !isNormalClose(err) && ctx.Err() == nil {
				log.Error("Error reading WebSocket message from client %d: %v", clientID, err)
			}
			log.Trace("Connection closed for client %d", clientID)
			return
		}

		n.handleMessage(ctx, clientID, userID, matchID, msg)
	}
}

func (n *NetworkManager) handleMessage(ctx context.Context, clientID uint32, userID string, matchID string, msg *messages.Envelope) {
	switch msg.Type {
	case messages.MessageTypeClientPing:
		pong := &messages.Envelope{Type: messages.MessageTypeServerPong, MatchID: matchID}
		if err := n.SendReliableMessageToClient(ctx, clientID, pong); err != nil {
			log.Error("Failed to send pong: %v", err)
		}
	case messages.MessageTypeClientAction:
		if msg.MatchID != "" && msg.MatchID != matchID {
			n.sendError(ctx, clientID, matchID, messages.ErrorCodeBadRequest, "", fmt.Sprintf("feed is subscribed to match %s", matchID))
			return
		}
		action, err := messages.DecodeAction(msg.Payload)
		if err != nil {
			n.sendError(ctx, clientID, matchID, messages.ErrorCodeBadRequest, "", err.Error())
			return
		}
		inbound := InboundAction{
			ClientID: clientID,
			UserID:   userID,
			MatchID:  matchID,
			Action:   action,
		}
		if err := n.ActionQueue.Enqueue(inbound); err != nil {
			log.Error("Failed to enqueue action from client %d: %v", clientID, err)
			n.sendError(ctx, clientID, matchID, messages.ErrorCodeRateLimited, "", "server is busy")
		}
	default:
		log.Warn("Unexpected message type %s from client %d", msg.Type, clientID)
		n.sendError(ctx, clientID, matchID, messages.ErrorCodeBadRequest, "", fmt.Sprintf("unexpected message type %s", msg.Type))
	}
}

func (n *NetworkManager) sendError(ctx context.Context, clientID uint32, matchID string, code messages.ErrorCode, rejection game.RejectionKind, message string) {
	if err := n.SendErrorToClient(ctx, clientID, matchID, &messages.ErrorPayload{Code: code, Rejection: rejection, Message: message}); err != nil {
		log.Error("Failed to send error to client %d: %v", clientID, err)
	}
}

// SendErrorToClient sends an error envelope to a single client.
func (n *NetworkManager) SendErrorToClient(ctx context.Context, clientID uint32, matchID string, payload *messages.ErrorPayload) error {
	msg, err := messages.NewEnvelope(messages.MessageTypeServerError, matchID, 0, payload)
	if err != nil {
		return fmt.Errorf("failed to create error message: %v", err)
	}
	return n.SendReliableMessageToClient(ctx, clientID, msg)
}

func (n *NetworkManager) SendReliableMessageToClient(ctx context.Context, clientID uint32, msg *messages.Envelope) error {
	client, err := n.ClientManager.GetClient(clientID)
	if err != nil {
		return fmt.Errorf("failed to get client %d: %v", clientID, err)
	}

	if err := WriteMessageToWS(ctx, client.WSConn, msg); err != nil {
		return fmt.Errorf("failed to send message to client %d: %v", clientID, err)
	}

	return nil
}

// CloseAll closes every subscriber connection, e.g. on shutdown.
func (n *NetworkManager) CloseAll() {
	for _, client := range n.ClientManager.GetClients() {
		client.WSConn.Close(websocket.StatusGoingAway, "server shutting down")
	}
}

// GetMatchClients returns the clients subscribed to matchID.
func (n *NetworkManager) GetMatchClients(matchID string) []*Client {
	return n.ClientManager.GetMatchClients(matchID)
}
