package bus

import (
	"context"
	"fmt"
	"sync"

	"github.com/sixtyoneeightyjake/mojocodefinal/internal/realtime"
)

// memoryBus delivers synchronously to every forwarder registered in this process.
type memoryBus struct {
	mu         sync.RWMutex
	forwarders map[int]func(realtime.SSEMessage)
	next       int
	closed     bool
}

func NewMemoryBus() Bus {
	return &memoryBus{forwarders: make(map[int]func(realtime.SSEMessage))}
}

func (b *memoryBus) Publish(ctx context.Context, msg realtime.SSEMessage) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	b.mu.RLock()
	defer b.mu.RUnlock()
	if b.closed {
		return fmt.Errorf("memory bus closed")
	}
	for _, fn := range b.forwarders {
		fn(msg)
	}
	return nil
}

func (b *memoryBus) StartForwarder(ctx context.Context, onMsg func(m realtime.SSEMessage)) error {
	if onMsg == nil {
		return fmt.Errorf("onMsg callback required")
	}
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return fmt.Errorf("memory bus closed")
	}
	id := b.next
	b.next++
	b.forwarders[id] = onMsg
	b.mu.Unlock()

	go func() {
		<-ctx.Done()
		b.mu.Lock()
		delete(b.forwarders, id)
		b.mu.Unlock()
	}()
	return nil
}

func (b *memoryBus) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.closed = true
	b.forwarders = make(map[int]func(realtime.SSEMessage))
	return nil
}
