// Package events publishes registry lifecycle notifications to Kafka so
// external collaborators (receipt enrichment, reporting) can react to new
// data without polling. The producer is optional: when no brokers are
// configured the service runs with the no-op implementation.
package events

import (
	"context"
	"encoding/json"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/google/uuid"
	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

var jsonMarshal = json.Marshal

type EventType string

const (
	BatchIngested EventType = "registry_batch_ingested"
	IndexRebuilt  EventType = "registry_index_rebuilt"
	StatePurged   EventType = "registry_state_purged"
)

// Event is the wire payload for one lifecycle notification.
type Event struct {
	ID     string    `json:"id"`
	Type   EventType `json:"type"`
	Count  int64     `json:"count"`
	Detail string    `json:"detail,omitempty"`
	At     time.Time `json:"at"`
}

type KafkaWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

type Producer struct {
	writer    KafkaWriter // Use interface instead of concrete type
	events    chan Event
	logger    *zap.Logger
	closeChan chan struct{}
}

func NewProducer(brokers []string, logger *zap.Logger, topic string) (*Producer, error) {
	// Create topic if it doesn't exist; brokers may still be coming up when
	// an administrative run starts, so dial with backoff.
	var conn *kafka.Conn
	err := backoff.Retry(func() error {
		var dialErr error
		conn, dialErr = kafka.Dial("tcp", brokers[0])
		return dialErr
	}, backoff.WithMaxRetries(backoff.NewExponentialBackOff(), 5))
	if err != nil {
		return nil, err
	}
	defer conn.Close()

	topicConfigs := []kafka.TopicConfig{
		{
			Topic:             topic,
			NumPartitions:     3,
			ReplicationFactor: 1,
		},
	}

	if err := conn.CreateTopics(topicConfigs...); err != nil {
		logger.Warn("failed to create topic (may already exist)", zap.Error(err))
	}
	p := &Producer{
		writer: &kafka.Writer{
			Addr:     kafka.TCP(brokers...),
			Balancer: &kafka.LeastBytes{},
			Topic:    topic,
		},
		events:    make(chan Event, 1000), // Buffered channel
		logger:    logger.Named("kafka_producer"),
		closeChan: make(chan struct{}),
	}

	go p.eventLoop()
	return p, nil
}

func (p *Producer) Produce(eventType EventType, count int64, detail string) {
	event := Event{
		ID:     uuid.New().String(),
		Type:   eventType,
		Count:  count,
		Detail: detail,
		At:     time.Now().UTC(),
	}
	select {
	case p.events <- event:
	default:
		p.logger.Warn("Kafka producer queue full, dropping event",
			zap.String("event_type", string(eventType)),
			zap.String("event_id", event.ID),
		)
	}
}

func (p *Producer) eventLoop() {
	for {
		select {
		case event := <-p.events:
			p.sendEvent(context.Background(), event)
		case <-p.closeChan:
			return
		}
	}
}

func (p *Producer) sendEvent(ctx context.Context, event Event) {
	value, err := jsonMarshal(event)
	if err != nil {
		p.logger.Error("Failed to serialize event",
			zap.Error(err),
			zap.String("event_id", event.ID),
		)
		return
	}
	err = p.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(event.ID),
		Value: value,
	})
	if err != nil {
		p.logger.Error("Failed to produce event",
			zap.Error(err),
			zap.String("event_type", string(event.Type)),
			zap.String("event_id", event.ID),
		)
		return
	}
}

func (p *Producer) Close() {
	close(p.closeChan)
	if err := p.writer.Close(); err != nil {
		p.logger.Error("Failed to close Kafka writer", zap.Error(err))
	}
}

// NoopProducer satisfies the controller's producer interface when eventing
// is not configured.
type NoopProducer struct{}

func (NoopProducer) Produce(EventType, int64, string) {}

func (NoopProducer) Close() {}
