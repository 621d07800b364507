package notifications

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/IBM/sarama"

	"tix/pkg/logger"
)

// Producer publishes booking events for downstream consumers.
type Producer interface {
	PublishBookingEvent(ctx context.Context, event *BookingEvent) error
	Close() error
}

// KafkaConfig contains configuration for the Kafka booking event producer
type KafkaConfig struct {
	Brokers   []string
	Topic     string
	RetryMax  int
	TimeoutMs int
}

// DefaultKafkaConfig returns a default producer configuration
func DefaultKafkaConfig() *KafkaConfig {
	return &KafkaConfig{
		Brokers:   []string{"localhost:9092"},
		Topic:     "booking-events",
		RetryMax:  3,
		TimeoutMs: 10000,
	}
}

// KafkaProducer publishes booking events to Kafka.
type KafkaProducer struct {
	producer sarama.SyncProducer
	config   *KafkaConfig
	log      *logger.Logger
}

// NewKafkaProducer creates a new Kafka booking event producer
func NewKafkaProducer(config *KafkaConfig) (Producer, error) {
	if config == nil {
		config = DefaultKafkaConfig()
	}

	saramaConfig := sarama.NewConfig()
	saramaConfig.Producer.Return.Successes = true
	saramaConfig.Producer.Return.Errors = true
	saramaConfig.Producer.RequiredAcks = sarama.WaitForAll
	saramaConfig.Producer.Compression = sarama.CompressionSnappy
	saramaConfig.Producer.Retry.Max = config.RetryMax
	saramaConfig.Producer.Timeout = time.Duration(config.TimeoutMs) * time.Millisecond
	// Hash partitioner keeps all events for one purchase on one partition.
	saramaConfig.Producer.Partitioner = sarama.NewHashPartitioner

	producer, err := sarama.NewSyncProducer(config.Brokers, saramaConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create Kafka producer: %w", err)
	}

	return &KafkaProducer{
		producer: producer,
		config:   config,
		log:      logger.GetDefault(),
	}, nil
}

// PublishBookingEvent publishes a single booking event to Kafka
func (p *KafkaProducer) PublishBookingEvent(ctx context.Context, event *BookingEvent) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal booking event: %w", err)
	}

	key := event.PurchaseID
	if key == "" {
		key = event.ID.String()
	}

	partition, offset, err := p.producer.SendMessage(&sarama.ProducerMessage{
		Topic:     p.config.Topic,
		Key:       sarama.StringEncoder(key),
		Value:     sarama.ByteEncoder(payload),
		Timestamp: event.OccurredAt,
	})
	if err != nil {
		return fmt.Errorf("failed to publish booking event: %w", err)
	}

	p.log.Debug("Booking event published",
		slog.String("topic", p.config.Topic),
		slog.String("type", string(event.Type)),
		slog.Int64("partition", int64(partition)),
		slog.Int64("offset", offset),
	)
	return nil
}

// Close shuts down the underlying Kafka producer
func (p *KafkaProducer) Close() error {
	return p.producer.Close()
}

// NopProducer drops all events. Used when Kafka is disabled.
type NopProducer struct{}

func NewNopProducer() Producer {
	return NopProducer{}
}

func (NopProducer) PublishBookingEvent(ctx context.Context, event *BookingEvent) error {
	return nil
}

func (NopProducer) Close() error {
	return nil
}
