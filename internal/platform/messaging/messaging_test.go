package messaging

import (
	"context"
	"errors"
	"testing"
	"time"

	"strangler/contexts/migration-control/arbiter-service/ports"

	"github.com/segmentio/kafka-go"
)

func TestMemoryDeliversToSubscribersAndSurvivesHandlerErrors(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	bus := NewMemory(nil)
	received := make(chan ports.Message, 2)
	err := bus.Subscribe(ctx, "shadow-requests", "arbiter-shadow-group", func(_ context.Context, msg ports.Message) error {
		received <- msg
		return errors.New("malformed")
	})
	if err != nil {
		t.Fatalf("subscribe: %v", err)
	}

	for _, payload := range []string{`{"transaction_id":"tx-1"}`, `{"transaction_id":"tx-2"}`} {
		if err := bus.Publish(ctx, "shadow-requests", []byte(payload)); err != nil {
			t.Fatalf("publish: %v", err)
		}
	}

	for i := 0; i < 2; i++ {
		select {
		case msg := <-received:
			if msg.Topic != "shadow-requests" {
				t.Fatalf("unexpected topic %q", msg.Topic)
			}
		case <-time.After(time.Second):
			t.Fatalf("timed out waiting for message %d", i+1)
		}
	}
}

func TestMemoryIgnoresOtherTopics(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	bus := NewMemory(nil)
	received := make(chan ports.Message, 1)
	if err := bus.Subscribe(ctx, "db-state-updates", "arbiter-db-group", func(_ context.Context, msg ports.Message) error {
		received <- msg
		return nil
	}); err != nil {
		t.Fatalf("subscribe: %v", err)
	}
	if err := bus.Publish(ctx, "shadow-requests", []byte(`{}`)); err != nil {
		t.Fatalf("publish: %v", err)
	}

	select {
	case msg := <-received:
		t.Fatalf("unexpected delivery: %+v", msg)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestToMessageCopiesCoordinates(t *testing.T) {
	msg := toMessage(kafka.Message{
		Topic:     "db-state-updates",
		Partition: 2,
		Offset:    41,
		Key:       []byte("ACC-1"),
		Value:     []byte(`{"transaction_id":"tx-1"}`),
	})
	if msg.Topic != "db-state-updates" || msg.Partition != 2 || msg.Offset != 41 {
		t.Fatalf("unexpected coordinates: %+v", msg)
	}
	if string(msg.Key) != "ACC-1" {
		t.Fatalf("unexpected key %q", msg.Key)
	}
}

func TestNewKafkaRequiresBrokers(t *testing.T) {
	if _, err := NewKafka(nil, time.Second, nil); err == nil {
		t.Fatalf("expected error without brokers")
	}
}

func TestWaitForBrokerStopsWithContext(t *testing.T) {
	bus, err := NewKafka([]string{"127.0.0.1:1"}, 10*time.Millisecond, nil)
	if err != nil {
		t.Fatalf("new kafka: %v", err)
	}
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	if err := bus.WaitForBroker(ctx); err == nil {
		t.Fatalf("expected unreachable broker error")
	}
}
