package bus

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/segmentio/kafka-go"
)

// ErrTopicCreationFailed is returned when the bus rejects a topic creation
// request. It does not invalidate a topic name that was already recorded;
// naming and bus-side creation are separate failure domains.
var ErrTopicCreationFailed = errors.New("topic creation failed")

// Config holds the Kafka connection settings for the gateway.
type Config struct {
	Brokers       []string // list of broker addresses
	ConsumerGroup string   // consumer group ID
	Topic         string   // the fixed device-data topic to consume
}

// Event is one raw envelope received from the bus. Tenant comes from the
// message key, which upstream producers set to the owning tenant.
type Event struct {
	Tenant  string
	Payload []byte
}

// Gateway is the only component that talks to Kafka. It consumes the fixed
// device-data topic into a bounded channel and issues topic creation
// requests on behalf of the topic registry. Events are handed over in the
// order the bus delivers them; no reordering happens here.
type Gateway struct {
	config Config
	reader *kafka.Reader
	client *kafka.Client

	events chan Event
	cancel context.CancelFunc
	done   chan struct{}

	mu     sync.Mutex
	closed bool
}

// NewGateway creates a Gateway and starts the consume loop. Call Close() to
// stop the consumer and release the events channel.
func NewGateway(config Config) (*Gateway, error) {
	if len(config.Brokers) == 0 {
		return nil, fmt.Errorf("at least one Kafka broker address is required")
	}
	if config.Topic == "" {
		return nil, fmt.Errorf("a consume topic is required")
	}
	if config.ConsumerGroup == "" {
		config.ConsumerGroup = "databridge-socketio"
	}

	ctx, cancel := context.WithCancel(context.Background())

	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:  config.Brokers,
		Topic:    config.Topic,
		GroupID:  config.ConsumerGroup,
		MinBytes: 1,
		MaxBytes: 10e6, // 10MB
		MaxWait:  500 * time.Millisecond,
	})

	g := &Gateway{
		config: config,
		reader: reader,
		client: &kafka.Client{Addr: kafka.TCP(config.Brokers...)},
		events: make(chan Event, 256),
		cancel: cancel,
		done:   make(chan struct{}),
	}

	go g.consumeLoop(ctx)

	return g, nil
}

// Events returns the channel the consume loop delivers envelopes on. The
// channel is closed when the gateway shuts down.
func (g *Gateway) Events() <-chan Event {
	return g.events
}

func (g *Gateway) consumeLoop(ctx context.Context) {
	defer close(g.events)
	defer close(g.done)

	for {
		msg, err := g.reader.ReadMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return // shutting down
			}
			log.Printf("bus: consumer error: %v", err)
			continue
		}

		if len(msg.Key) == 0 {
			log.Printf("bus: dropping message without tenant key (partition %d offset %d)", msg.Partition, msg.Offset)
			continue
		}

		select {
		case g.events <- Event{Tenant: string(msg.Key), Payload: msg.Value}:
		case <-ctx.Done():
			return
		}
	}
}

// CreateTopic asks the bus to create a topic with the given partition count
// and replication factor. Only the winner of a provisioning race calls this,
// so the request is issued at most once per topic name.
func (g *Gateway) CreateTopic(ctx context.Context, name string, partitions, replication int) error {
	resp, err := g.client.CreateTopics(ctx, &kafka.CreateTopicsRequest{
		Topics: []kafka.TopicConfig{{
			Topic:             name,
			NumPartitions:     partitions,
			ReplicationFactor: replication,
		}},
	})
	if err != nil {
		return fmt.Errorf("%w: %v", ErrTopicCreationFailed, err)
	}
	if topicErr := resp.Errors[name]; topicErr != nil {
		return fmt.Errorf("%w: %v", ErrTopicCreationFailed, topicErr)
	}
	return nil
}

// Metadata issues a bounded metadata request, used by the health surface to
// probe bus connectivity.
func (g *Gateway) Metadata(ctx context.Context) error {
	if _, err := g.client.Metadata(ctx, &kafka.MetadataRequest{}); err != nil {
		return fmt.Errorf("kafka metadata: %w", err)
	}
	return nil
}

// Close stops the consume loop and the reader. It is safe to call more than
// once.
func (g *Gateway) Close() error {
	g.mu.Lock()
	if g.closed {
		g.mu.Unlock()
		return nil
	}
	g.closed = true
	g.mu.Unlock()

	g.cancel()
	err := g.reader.Close()
	<-g.done
	return err
}
