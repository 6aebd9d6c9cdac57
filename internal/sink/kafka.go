package sink

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/Shopify/sarama"

	"github.com/i474232898/wind-power-dashboard/internal/weather"
)

// KafkaSink publishes observations as JSON, keyed by their timestamp so a
// compacted topic keeps the latest reading per instant.
type KafkaSink struct {
	producer sarama.SyncProducer
	topic    string
}

// NewKafkaSink connects a synchronous producer to brokers.
func NewKafkaSink(brokers []string, topic string) (*KafkaSink, error) {
	producer, err := sarama.NewSyncProducer(brokers, newProducerConfig())
	if err != nil {
		return nil, fmt.Errorf("failed to create kafka producer: %w", err)
	}
	return NewKafkaSinkWithProducer(producer, topic), nil
}

// NewKafkaSinkWithProducer wraps an existing producer.
func NewKafkaSinkWithProducer(producer sarama.SyncProducer, topic string) *KafkaSink {
	return &KafkaSink{producer: producer, topic: topic}
}

func newProducerConfig() *sarama.Config {
	cfg := sarama.NewConfig()
	cfg.Producer.Return.Successes = true
	cfg.Producer.RequiredAcks = sarama.WaitForAll
	cfg.Producer.Retry.Max = 3
	cfg.Producer.Timeout = 5 * time.Second
	return cfg
}

func (s *KafkaSink) Name() string { return "kafka" }

// Write sends obs. The producer has its own timeout; ctx is only checked
// before sending.
func (s *KafkaSink) Write(ctx context.Context, obs weather.Observation) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	payload, err := json.Marshal(obs)
	if err != nil {
		return fmt.Errorf("encode observation: %w", err)
	}

	partition, offset, err := s.producer.SendMessage(&sarama.ProducerMessage{
		Topic: s.topic,
		Key:   sarama.StringEncoder(obs.Timestamp.UTC().Format(time.RFC3339)),
		Value: sarama.ByteEncoder(payload),
	})
	if err != nil {
		return fmt.Errorf("kafka send: %w", err)
	}

	log.Printf("DEBUG: sink: kafka %s[%d]@%d", s.topic, partition, offset)
	return nil
}

func (s *KafkaSink) Close() error {
	return s.producer.Close()
}
