package services

import (
	"context"

	"github.com/sixtyoneeightyjake/mojocodefinal/internal/platform/logger"
	"github.com/sixtyoneeightyjake/mojocodefinal/internal/realtime"
	"github.com/sixtyoneeightyjake/mojocodefinal/internal/realtime/bus"
)

type SSEEmitter interface {
	Emit(ctx context.Context, msg realtime.SSEMessage)
}

type HubEmitter struct{ Hub *realtime.SSEHub }

func (e *HubEmitter) Emit(ctx context.Context, msg realtime.SSEMessage) {
	e.Hub.Broadcast(msg)
}

// BusEmitter publishes through a Bus so every API instance sees the event.
type BusEmitter struct {
	Bus bus.Bus
	Log *logger.Logger
}

func (e *BusEmitter) Emit(ctx context.Context, msg realtime.SSEMessage) {
	if err := e.Bus.Publish(context.WithoutCancel(ctx), msg); err != nil && e.Log != nil {
		e.Log.Warn("chat event publish failed", "event", msg.Event, "error", err)
	}
}
