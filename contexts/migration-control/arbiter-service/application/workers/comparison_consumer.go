package workers

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	application "strangler/contexts/migration-control/arbiter-service/application"
	"strangler/contexts/migration-control/arbiter-service/application/commands"
	"strangler/contexts/migration-control/arbiter-service/domain/entities"
	domainerrors "strangler/contexts/migration-control/arbiter-service/domain/errors"
	"strangler/contexts/migration-control/arbiter-service/ports"
	eventsv1 "strangler/contracts/gen/events/v1"
)

const defaultShadowConsumerGroup = "arbiter-shadow-group"

// ShadowComparisonConsumer feeds router-side HTTP status comparisons into the
// consistency counters.
type ShadowComparisonConsumer struct {
	Subscriber    ports.EventSubscriber
	Record        commands.RecordComparisonUseCase
	Dedup         *Deduplicator
	Topic         string
	ConsumerGroup string
	Logger        *slog.Logger
}

func (c ShadowComparisonConsumer) Start(ctx context.Context) error {
	topic := c.Topic
	if topic == "" {
		topic = eventsv1.ShadowComparisonTopic
	}
	group := c.ConsumerGroup
	if group == "" {
		group = defaultShadowConsumerGroup
	}
	return c.Subscriber.Subscribe(ctx, topic, group, c.Handle)
}

// Handle processes one message. Errors are logged and returned so the broker
// adapter can report them; the offset advances either way.
func (c ShadowComparisonConsumer) Handle(ctx context.Context, msg ports.Message) error {
	logger := application.ResolveLogger(c.Logger)

	var payload eventsv1.ShadowComparison
	if err := json.Unmarshal(msg.Value, &payload); err != nil {
		logger.Warn("shadow comparison payload malformed, skipping",
			"event", "arbiter_shadow_payload_malformed",
			"module", "migration-control/arbiter-service",
			"layer", "worker",
			"topic", msg.Topic,
			"offset", msg.Offset,
			"error", err.Error(),
		)
		return fmt.Errorf("%w: %v", domainerrors.ErrInvalidEvent, err)
	}

	if payload.TransactionID != "" {
		seen, err := c.Dedup.Seen(ctx, entities.ScopeHTTPStatus, payload.TransactionID)
		if err != nil {
			return err
		}
		if seen {
			logger.Debug("shadow comparison already counted",
				"event", "arbiter_shadow_event_replayed",
				"module", "migration-control/arbiter-service",
				"layer", "worker",
				"transaction_id", payload.TransactionID,
			)
			return nil
		}
	}

	_, err := c.Record.Execute(ctx, commands.RecordComparisonCommand{
		Event: entities.ComparisonEvent{
			TransactionID: payload.TransactionID,
			ServiceType:   payload.ServiceType,
			LegacyStatus:  payload.LegacyStatus,
			ModernStatus:  payload.ModernStatus,
		},
	})
	if err != nil && payload.TransactionID != "" {
		if releaseErr := c.Dedup.Release(ctx, entities.ScopeHTTPStatus, payload.TransactionID); releaseErr != nil {
			logger.Warn("dedup release failed",
				"event", "arbiter_shadow_event_release_failed",
				"module", "migration-control/arbiter-service",
				"layer", "worker",
				"transaction_id", payload.TransactionID,
				"error", releaseErr.Error(),
			)
		}
	}
	return err
}

// Deduplicator suppresses repeated deliveries of one transaction per signal.
// A nil Deduplicator counts every delivery, which is the default.
type Deduplicator struct {
	State ports.StateStore
	TTL   time.Duration
}

func (d *Deduplicator) Seen(ctx context.Context, signal entities.CounterScope, transactionID string) (bool, error) {
	if d == nil || d.State == nil {
		return false, nil
	}
	ttl := d.TTL
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return d.State.ReserveEvent(ctx, dedupKey(signal, transactionID), ttl)
}

// Release gives a reserved transaction back when it was not counted, so a
// redelivery is processed instead of suppressed.
func (d *Deduplicator) Release(ctx context.Context, signal entities.CounterScope, transactionID string) error {
	if d == nil || d.State == nil {
		return nil
	}
	return d.State.ReleaseEvent(context.WithoutCancel(ctx), dedupKey(signal, transactionID))
}

func dedupKey(signal entities.CounterScope, transactionID string) string {
	return string(signal) + ":" + transactionID
}
