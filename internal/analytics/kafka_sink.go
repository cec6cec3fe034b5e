package analytics

import (
	"context"
	"encoding/json"
	"fmt"

	kafkago "github.com/segmentio/kafka-go"

	"noesis/internal/tools/kafka"
)

// KafkaSink publishes analytics events to a configured Kafka topic, reusing
// the same Writer abstraction the kafka_send_message tool writes through.
type KafkaSink struct {
	producer kafka.Writer
	topic    string
}

// NewKafkaSink builds a Kafka-backed Sink from broker addresses and a topic.
func NewKafkaSink(brokers, topic string) (*KafkaSink, error) {
	producer, err := kafka.NewProducerFromBrokers(brokers)
	if err != nil {
		return nil, fmt.Errorf("analytics kafka sink: %w", err)
	}
	return &KafkaSink{producer: producer, topic: topic}, nil
}

// Send marshals ev as JSON and writes it to the configured topic.
func (k *KafkaSink) Send(ctx context.Context, ev Event) error {
	body, err := json.Marshal(ev)
	if err != nil {
		return err
	}
	return k.producer.WriteMessages(ctx, kafkago.Message{
		Topic: k.topic,
		Key:   []byte(ev.Type),
		Value: body,
	})
}
