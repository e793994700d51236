package workers

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	application "strangler/contexts/migration-control/arbiter-service/application"
	"strangler/contexts/migration-control/arbiter-service/application/commands"
	"strangler/contexts/migration-control/arbiter-service/domain/entities"
	domainerrors "strangler/contexts/migration-control/arbiter-service/domain/errors"
	"strangler/contexts/migration-control/arbiter-service/ports"
	eventsv1 "strangler/contracts/gen/events/v1"
)

const defaultStateUpdateConsumerGroup = "arbiter-db-group"

// StateUpdateConsumer forwards account state updates to reconciliation.
type StateUpdateConsumer struct {
	Subscriber    ports.EventSubscriber
	Reconcile     commands.ReconcileUseCase
	Dedup         *Deduplicator
	Topic         string
	ConsumerGroup string
	Logger        *slog.Logger
}

func (c StateUpdateConsumer) Start(ctx context.Context) error {
	topic := c.Topic
	if topic == "" {
		topic = eventsv1.StateUpdateTopic
	}
	group := c.ConsumerGroup
	if group == "" {
		group = defaultStateUpdateConsumerGroup
	}
	return c.Subscriber.Subscribe(ctx, topic, group, c.Handle)
}

func (c StateUpdateConsumer) Handle(ctx context.Context, msg ports.Message) error {
	logger := application.ResolveLogger(c.Logger)

	var payload eventsv1.StateUpdate
	if err := json.Unmarshal(msg.Value, &payload); err != nil {
		logger.Warn("state update payload malformed, skipping",
			"event", "arbiter_state_update_payload_malformed",
			"module", "migration-control/arbiter-service",
			"layer", "worker",
			"topic", msg.Topic,
			"offset", msg.Offset,
			"error", err.Error(),
		)
		return fmt.Errorf("%w: %v", domainerrors.ErrInvalidEvent, err)
	}

	event := entities.StateUpdateEvent{
		TransactionID: payload.TransactionID,
		AccountNumber: payload.AccountNumber,
		ServiceType:   payload.ServiceType,
	}
	if err := event.Validate(); err != nil {
		logger.Warn("state update missing required fields, skipping",
			"event", "arbiter_state_update_invalid",
			"module", "migration-control/arbiter-service",
			"layer", "worker",
			"topic", msg.Topic,
			"offset", msg.Offset,
			"transaction_id", payload.TransactionID,
			"account_number", payload.AccountNumber,
		)
		return err
	}

	seen, err := c.Dedup.Seen(ctx, entities.ScopeBalance, event.TransactionID)
	if err != nil {
		return err
	}
	if seen {
		logger.Debug("state update already reconciled",
			"event", "arbiter_state_update_replayed",
			"module", "migration-control/arbiter-service",
			"layer", "worker",
			"transaction_id", event.TransactionID,
		)
		return nil
	}

	result, err := c.Reconcile.Execute(ctx, commands.ReconcileCommand{Event: event})
	if err != nil || result.Abandoned {
		if releaseErr := c.Dedup.Release(ctx, entities.ScopeBalance, event.TransactionID); releaseErr != nil {
			logger.Warn("dedup release failed",
				"event", "arbiter_state_update_release_failed",
				"module", "migration-control/arbiter-service",
				"layer", "worker",
				"transaction_id", event.TransactionID,
				"error", releaseErr.Error(),
			)
		}
	}
	return err
}
