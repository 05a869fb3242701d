package realtime

import (
	"sync"

	"github.com/google/uuid"

	"github.com/sixtyoneeightyjake/mojocodefinal/internal/platform/logger"
)

const outboundBuffer = 16

type SSEClient struct {
	ID       uuid.UUID
	UserID   string
	Channels map[string]bool
	Outbound chan SSEMessage
	done     chan struct{}
	once     sync.Once
	Logger   *logger.Logger
}
