package workers

import (
	"context"

	"github.com/cbodonnell/angelreaper/pkg/game"
	"github.com/cbodonnell/angelreaper/pkg/log"
	"github.com/cbodonnell/angelreaper/pkg/matches"
	"github.com/cbodonnell/angelreaper/pkg/queue"
)

type BroadcastWorker struct {
	updates queue.Queue[matches.Update]
	sender  FeedSender
}

type NewBroadcastWorkerOptions struct {
	Updates queue.Queue[matches.Update]
	Sender  FeedSender
}

// NewBroadcastWorker creates a new BroadcastWorker.
// The worker pushes every stored match change to the match's subscribers,
// each seeing only their own face-down cards.
func NewBroadcastWorker(opts NewBroadcastWorkerOptions) *BroadcastWorker {
	return &BroadcastWorker{
		updates: opts.Updates,
		sender:  opts.Sender,
	}
}

func (w *BroadcastWorker) Start(ctx context.Context) {
	for {
		update, err := w.updates.Dequeue(ctx)
		if err != nil {
			return
		}
		w.broadcast(ctx, update)
	}
}

func (w *BroadcastWorker) broadcast(ctx context.Context, update matches.Update) {
	var kind game.ActionKind
	if update.Action != nil {
		kind = update.Action.Kind()
	}
	for _, client := range w.sender.GetMatchClients(update.Match.ID) {
		msg, err := matchUpdateEnvelope(update.Match, client.UserID, kind)
		if err != nil {
			log.Error("Failed to create match update for client %d: %v", client.ID, err)
			continue
		}
		if err := w.sender.SendReliableMessageToClient(ctx, client.ID, msg); err != nil {
			log.Error("Failed to send match update to client %d: %v", client.ID, err)
		}
	}
}
