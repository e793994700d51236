package messaging

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"

	"strangler/contexts/migration-control/arbiter-service/ports"
	"strangler/internal/shared/retry"

	"github.com/segmentio/kafka-go"
)

// Kafka consumes topics through consumer-group readers. Delivery is
// at-least-once: offsets are committed after the handler returns, whatever it
// returned.
type Kafka struct {
	brokers    []string
	retryDelay time.Duration
	logger     *slog.Logger

	mu      sync.Mutex
	readers []*kafka.Reader
}

func NewKafka(brokers []string, retryDelay time.Duration, logger *slog.Logger) (*Kafka, error) {
	if len(brokers) == 0 {
		return nil, errors.New("kafka brokers are required")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Kafka{
		brokers:    append([]string(nil), brokers...),
		retryDelay: retryDelay,
		logger:     logger,
	}, nil
}

// WaitForBroker dials the first reachable broker, retrying with a fixed delay
// until one answers or ctx ends.
func (k *Kafka) WaitForBroker(ctx context.Context) error {
	policy := retry.Fixed{
		Delay: k.retryDelay,
		OnRetry: func(attempt int, err error) {
			k.logger.Warn("kafka broker not reachable, retrying",
				"event", "kafka_connect_retry",
				"module", "internal/platform/messaging",
				"layer", "platform",
				"brokers", k.brokers,
				"attempt", attempt,
				"error", err.Error(),
			)
		},
	}
	return policy.Do(ctx, func(ctx context.Context) error {
		var errs []error
		for _, broker := range k.brokers {
			conn, err := kafka.DialContext(ctx, "tcp", broker)
			if err != nil {
				errs = append(errs, fmt.Errorf("dial %s: %w", broker, err))
				continue
			}
			_ = conn.Close()
			return nil
		}
		return errors.Join(errs...)
	})
}

func (k *Kafka) Subscribe(
	ctx context.Context,
	topic string,
	consumerGroup string,
	handler func(context.Context, ports.Message) error,
) error {
	go func() {
		if err := k.WaitForBroker(ctx); err != nil {
			return
		}
		reader := kafka.NewReader(kafka.ReaderConfig{
			Brokers:     k.brokers,
			GroupID:     consumerGroup,
			Topic:       topic,
			StartOffset: kafka.LastOffset,
			MinBytes:    1,
			MaxBytes:    10e6,
		})
		k.track(reader)

		k.logger.Info("kafka consumer started",
			"event", "kafka_consumer_started",
			"module", "internal/platform/messaging",
			"layer", "platform",
			"topic", topic,
			"consumer_group", consumerGroup,
		)
		k.consume(ctx, reader, topic, consumerGroup, handler)
	}()
	return nil
}

func (k *Kafka) consume(
	ctx context.Context,
	reader *kafka.Reader,
	topic string,
	consumerGroup string,
	handler func(context.Context, ports.Message) error,
) {
	defer k.untrack(reader)

	for {
		msg, err := reader.FetchMessage(ctx)
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, io.EOF) {
				return
			}
			k.logger.Warn("kafka fetch failed, retrying",
				"event", "kafka_fetch_retry",
				"module", "internal/platform/messaging",
				"layer", "platform",
				"topic", topic,
				"consumer_group", consumerGroup,
				"error", err.Error(),
			)
			if !sleep(ctx, k.retryDelay) {
				return
			}
			continue
		}

		if err := handler(ctx, toMessage(msg)); err != nil {
			k.logger.Error("consumer handler failed",
				"event", "kafka_consume_failed",
				"module", "internal/platform/messaging",
				"layer", "platform",
				"topic", topic,
				"consumer_group", consumerGroup,
				"partition", msg.Partition,
				"offset", msg.Offset,
				"error", err.Error(),
			)
		}
		if err := reader.CommitMessages(ctx, msg); err != nil && ctx.Err() == nil {
			k.logger.Warn("kafka commit failed",
				"event", "kafka_commit_failed",
				"module", "internal/platform/messaging",
				"layer", "platform",
				"topic", topic,
				"consumer_group", consumerGroup,
				"offset", msg.Offset,
				"error", err.Error(),
			)
		}
	}
}

// Close stops every reader started by Subscribe.
func (k *Kafka) Close() error {
	k.mu.Lock()
	readers := k.readers
	k.readers = nil
	k.mu.Unlock()

	var errs []error
	for _, reader := range readers {
		if err := reader.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (k *Kafka) track(reader *kafka.Reader) {
	k.mu.Lock()
	defer k.mu.Unlock()
	k.readers = append(k.readers, reader)
}

func (k *Kafka) untrack(reader *kafka.Reader) {
	k.mu.Lock()
	found := false
	filtered := k.readers[:0]
	for _, item := range k.readers {
		if item == reader {
			found = true
			continue
		}
		filtered = append(filtered, item)
	}
	k.readers = filtered
	k.mu.Unlock()

	if found {
		_ = reader.Close()
	}
}

func toMessage(msg kafka.Message) ports.Message {
	return ports.Message{
		Topic:     msg.Topic,
		Partition: msg.Partition,
		Offset:    msg.Offset,
		Key:       msg.Key,
		Value:     msg.Value,
	}
}

func sleep(ctx context.Context, delay time.Duration) bool {
	if delay <= 0 {
		delay = retry.DefaultDelay
	}
	timer := time.NewTimer(delay)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}
