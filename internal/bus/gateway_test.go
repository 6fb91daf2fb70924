package bus

import (
	"testing"
)

// Gateway tests verify configuration validation and lifecycle handling.
// Integration tests with a real Kafka cluster are excluded from unit tests.

func TestNewGateway_RequiresBrokers(t *testing.T) {
	_, err := NewGateway(Config{Topic: "device-data"})
	if err == nil {
		t.Error("expected error for empty brokers list")
	}
}

func TestNewGateway_RequiresTopic(t *testing.T) {
	_, err := NewGateway(Config{Brokers: []string{"localhost:9092"}})
	if err == nil {
		t.Error("expected error for missing topic")
	}
}

func TestNewGateway_DefaultConsumerGroup(t *testing.T) {
	g, err := NewGateway(Config{
		Brokers: []string{"localhost:9092"},
		Topic:   "device-data",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer g.Close()

	if g.config.ConsumerGroup != "databridge-socketio" {
		t.Errorf("expected default consumer group, got %s", g.config.ConsumerGroup)
	}
}

func TestGateway_CloseIsIdempotent(t *testing.T) {
	g, err := NewGateway(Config{
		Brokers: []string{"localhost:9092"},
		Topic:   "device-data",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	g.Close()
	if err := g.Close(); err != nil {
		t.Errorf("second Close should be a no-op, got %v", err)
	}
}

func TestGateway_EventsClosedAfterClose(t *testing.T) {
	g, err := NewGateway(Config{
		Brokers: []string{"localhost:9092"},
		Topic:   "device-data",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	g.Close()

	if _, ok := <-g.Events(); ok {
		t.Error("events channel should be closed after Close")
	}
}
