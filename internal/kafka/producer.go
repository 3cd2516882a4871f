package kafka

import (
	"context"
	"encoding/json"
	"time"

	"github.com/segmentio/kafka-go"

	"careerpilot/internal/models"
)

// EnvelopeProducer publishes channel envelopes.
type EnvelopeProducer interface {
	WriteEnvelope(ctx context.Context, topic string, env models.Envelope) error
}

// Producer wraps a Kafka writer for publishing envelopes. The writer carries
// no default topic; each message names its own.
type Producer struct {
	writer MessageWriter
}

// NewProducer creates a Kafka producer for the given broker.
func NewProducer(broker string) *Producer {
	return &Producer{
		writer: &kafka.Writer{
			Addr:                   kafka.TCP(broker),
			Balancer:               &kafka.Hash{},
			AllowAutoTopicCreation: false,
		},
	}
}

// NewProducerWithWriter builds a producer using a custom writer (tests).
func NewProducerWithWriter(writer MessageWriter) *Producer {
	return &Producer{writer: writer}
}

// Close shuts down the underlying writer.
func (p *Producer) Close() error {
	return p.writer.Close()
}

// WriteEnvelope publishes env to topic, keyed by session so one session's
// messages stay on one partition in order.
func (p *Producer) WriteEnvelope(ctx context.Context, topic string, env models.Envelope) error {
	payload, err := json.Marshal(env)
	if err != nil {
		return err
	}

	msg := kafka.Message{
		Topic: topic,
		Key:   []byte(env.SessionID),
		Value: payload,
		Time:  time.Now().UTC(),
	}

	return p.writer.WriteMessages(ctx, msg)
}
