package events

import (
	"context"
	"log/slog"
	"sync"
)

// Event is anything that can be published on the bus.
type Event interface {
	EventName() string
}

// HandlerFunc consumes a published event.
type HandlerFunc func(ctx context.Context, e Event)

// Publisher is the sending half of the bus, what domain services depend on.
type Publisher interface {
	Publish(ctx context.Context, e Event)
}

// Bus is an in-process pub/sub dispatcher. Handlers run asynchronously so a
// slow subscriber never blocks the request path.
type Bus struct {
	mu       sync.RWMutex
	handlers map[string][]HandlerFunc
	logger   *slog.Logger
}

func NewBus(logger *slog.Logger) *Bus {
	return &Bus{
		handlers: make(map[string][]HandlerFunc),
		logger:   logger,
	}
}

func (b *Bus) Subscribe(name string, h HandlerFunc) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.handlers[name] = append(b.handlers[name], h)
}

func (b *Bus) Publish(ctx context.Context, e Event) {
	b.mu.RLock()
	subs := b.handlers[e.EventName()]
	b.mu.RUnlock()

	for _, h := range subs {
		go func(h HandlerFunc) {
			defer func() {
				if r := recover(); r != nil {
					b.logger.Error("event handler panicked",
						"event", e.EventName(),
						"panic", r)
				}
			}()
			h(ctx, e)
		}(h)
	}
}
