package services

import (
	"context"

	types "github.com/sixtyoneeightyjake/mojocodefinal/internal/domain"
	"github.com/sixtyoneeightyjake/mojocodefinal/internal/realtime"
)

type ChatHistoryNotifier interface {
	ChatSaved(ctx context.Context, userID string, row *types.ChatSession)
	ChatCreated(ctx context.Context, userID string, row *types.ChatSession)
	ChatUpdated(ctx context.Context, userID, urlID string, description *string)
	ChatDeleted(ctx context.Context, userID string, row *types.ChatSession)
}

type chatHistoryNotifier struct {
	emit SSEEmitter
}

func NewChatHistoryNotifier(emit SSEEmitter) ChatHistoryNotifier {
	return &chatHistoryNotifier{emit: emit}
}

func (n *chatHistoryNotifier) send(ctx context.Context, userID string, ev realtime.SSEEvent, data realtime.ChatEvent) {
	if n == nil || n.emit == nil || userID == "" {
		return
	}
	n.emit.Emit(ctx, realtime.NewChatMessage(userID, ev, data))
}

func rowEvent(row *types.ChatSession) realtime.ChatEvent {
	if row == nil {
		return realtime.ChatEvent{}
	}
	return realtime.ChatEvent{ChatID: row.ID, URLID: row.URLID, Description: row.DescriptionValue()}
}

func (n *chatHistoryNotifier) ChatSaved(ctx context.Context, userID string, row *types.ChatSession) {
	n.send(ctx, userID, realtime.SSEEventChatSaved, rowEvent(row))
}

func (n *chatHistoryNotifier) ChatCreated(ctx context.Context, userID string, row *types.ChatSession) {
	n.send(ctx, userID, realtime.SSEEventChatCreated, rowEvent(row))
}

func (n *chatHistoryNotifier) ChatUpdated(ctx context.Context, userID, urlID string, description *string) {
	ev := realtime.ChatEvent{URLID: urlID}
	if description != nil {
		ev.Description = *description
	}
	n.send(ctx, userID, realtime.SSEEventChatUpdated, ev)
}

func (n *chatHistoryNotifier) ChatDeleted(ctx context.Context, userID string, row *types.ChatSession) {
	n.send(ctx, userID, realtime.SSEEventChatDeleted, rowEvent(row))
}
