package workers

import (
	"context"

	"github.com/cbodonnell/angelreaper/pkg/log"
	"github.com/cbodonnell/angelreaper/pkg/network"
)

type ConnectionEventWorker struct {
	connectionEventChan <-chan network.ClientEvent
	matches             MatchService
	sender              FeedSender
}

type NewConnectionEventWorkerOptions struct {
	ConnectionEventChan <-chan network.ClientEvent
	Matches             MatchService
	Sender              FeedSender
}

// NewConnectionEventWorker creates a new ConnectionEventWorker.
// The worker processes client events like connect and disconnect
// and sends each new subscriber a snapshot of its match.
func NewConnectionEventWorker(opts NewConnectionEventWorkerOptions) *ConnectionEventWorker {
	return &ConnectionEventWorker{
		connectionEventChan: opts.ConnectionEventChan,
		matches:             opts.Matches,
		sender:              opts.Sender,
	}
}

func (w *ConnectionEventWorker) Start(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case event := <-w.connectionEventChan:
			switch event.Type {
			case network.ClientEventTypeConnect:
				w.handleClientConnect(ctx, event)
			case network.ClientEventTypeDisconnect:
				log.Debug("Client %d left match %s", event.ClientID, event.MatchID)
			default:
				log.Error("Unknown client event type: %v", event.Type)
			}
		}
	}
}

func (w *ConnectionEventWorker) handleClientConnect(ctx context.Context, event network.ClientEvent) {
	match, err := w.matches.View(ctx, event.MatchID, event.UserID)
	if err != nil {
		log.Warn("Failed to load match %s for client %d: %v", event.MatchID, event.ClientID, err)
		if err := w.sender.SendErrorToClient(ctx, event.ClientID, event.MatchID, errorPayload(err)); err != nil {
			log.Error("Failed to send error to client %d: %v", event.ClientID, err)
		}
		return
	}

	// View already redacted the state for this user
	msg, err := matchUpdateEnvelope(match, event.UserID, "")
	if err != nil {
		log.Error("Failed to create snapshot for client %d: %v", event.ClientID, err)
		return
	}
	if err := w.sender.SendReliableMessageToClient(ctx, event.ClientID, msg); err != nil {
		log.Error("Failed to send snapshot to client %d: %v", event.ClientID, err)
	}
}
