package workers

import (
	"context"

	"github.com/cbodonnell/angelreaper/pkg/log"
	"github.com/cbodonnell/angelreaper/pkg/network"
	"github.com/cbodonnell/angelreaper/pkg/queue"
)

type ActionWorker struct {
	actionQueue queue.Queue[network.InboundAction]
	matches     MatchService
	sender      FeedSender
}

type NewActionWorkerOptions struct {
	ActionQueue queue.Queue[network.InboundAction]
	Matches     MatchService
	Sender      FeedSender
}

// NewActionWorker creates a new ActionWorker.
// The worker drains actions received on feeds and submits them to the match
// manager, reporting failures back to the sending client.
func NewActionWorker(opts NewActionWorkerOptions) *ActionWorker {
	return &ActionWorker{
		actionQueue: opts.ActionQueue,
		matches:     opts.Matches,
		sender:      opts.Sender,
	}
}

func (w *ActionWorker) Start(ctx context.Context) {
	for {
		inbound, err := w.actionQueue.Dequeue(ctx)
		if err != nil {
			return
		}
		w.handle(ctx, inbound)
	}
}

func (w *ActionWorker) handle(ctx context.Context, inbound network.InboundAction) {
	_, err := w.matches.Submit(ctx, inbound.UserID, inbound.MatchID, inbound.Action)
	if err == nil {
		return
	}
	payload := errorPayload(err)
	log.Debug("Action %s from client %d in match %s failed: %v", inbound.Action.Kind(), inbound.ClientID, inbound.MatchID, err)
	if err := w.sender.SendErrorToClient(ctx, inbound.ClientID, inbound.MatchID, payload); err != nil {
		log.Error("Failed to send error to client %d: %v", inbound.ClientID, err)
	}
}
