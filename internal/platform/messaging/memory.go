package messaging

import (
	"context"
	"log/slog"
	"sync"

	"strangler/contexts/migration-control/arbiter-service/ports"
)

// Memory is an in-process publish/subscribe bus for local runs and tests.
// Publish never blocks on a slow subscriber; the message is dropped instead.
type Memory struct {
	mu          sync.RWMutex
	subscribers map[string][]chan ports.Message
	logger      *slog.Logger
}

func NewMemory(logger *slog.Logger) *Memory {
	return &Memory{
		subscribers: make(map[string][]chan ports.Message),
		logger:      logger,
	}
}

func (m *Memory) Publish(ctx context.Context, topic string, value []byte) error {
	m.mu.RLock()
	subs := append([]chan ports.Message(nil), m.subscribers[topic]...)
	m.mu.RUnlock()

	msg := ports.Message{Topic: topic, Value: append([]byte(nil), value...)}
	for _, sub := range subs {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case sub <- msg:
		default:
			if m.logger != nil {
				m.logger.Warn("dropping message for slow subscriber",
					"event", "memory_bus_publish_drop",
					"module", "internal/platform/messaging",
					"layer", "platform",
					"topic", topic,
				)
			}
		}
	}
	return nil
}

func (m *Memory) Subscribe(
	ctx context.Context,
	topic string,
	consumerGroup string,
	handler func(context.Context, ports.Message) error,
) error {
	ch := make(chan ports.Message, 128)

	m.mu.Lock()
	m.subscribers[topic] = append(m.subscribers[topic], ch)
	m.mu.Unlock()

	go func() {
		for {
			select {
			case <-ctx.Done():
				m.removeSubscriber(topic, ch)
				return
			case msg := <-ch:
				if err := handler(ctx, msg); err != nil && m.logger != nil {
					m.logger.Error("consumer handler failed",
						"event", "memory_bus_consume_failed",
						"module", "internal/platform/messaging",
						"layer", "platform",
						"topic", topic,
						"consumer_group", consumerGroup,
						"error", err.Error(),
					)
				}
			}
		}
	}()
	return nil
}

func (m *Memory) removeSubscriber(topic string, target chan ports.Message) {
	m.mu.Lock()
	defer m.mu.Unlock()

	items := m.subscribers[topic]
	if len(items) == 0 {
		return
	}
	filtered := make([]chan ports.Message, 0, len(items))
	for _, item := range items {
		if item != target {
			filtered = append(filtered, item)
		}
	}
	m.subscribers[topic] = filtered
}
