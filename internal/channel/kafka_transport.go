package channel

import (
	"context"
	"sync"

	"github.com/cockroachdb/errors"
	kgo "github.com/segmentio/kafka-go"
	"go.uber.org/zap"

	"careerpilot/internal/kafka"
	"careerpilot/internal/logger"
	"careerpilot/internal/models"
)

// KafkaTopics names the two channel topics.
type KafkaTopics struct {
	Coordinator string
	Workers     string
}

// KafkaTransport carries envelopes over Kafka. Envelopes for the coordinator go
// to the coordinator topic and every other address to the workers topic. Each
// process consumes one of them and routes records to its registered addresses.
type KafkaTransport struct {
	producer kafka.EnvelopeProducer
	consumer *kafka.Consumer
	topics   KafkaTopics
	log      *zap.Logger

	mu       sync.RWMutex
	handlers map[string]Handler
}

// NewKafkaTransport builds a transport that publishes through producer and reads with consumer.
func NewKafkaTransport(producer kafka.EnvelopeProducer, consumer *kafka.Consumer, topics KafkaTopics, log *zap.Logger) *KafkaTransport {
	return &KafkaTransport{
		producer: producer,
		consumer: consumer,
		topics:   topics,
		log:      logger.Component(logger.OrNop(log), "kafka-transport"),
		handlers: make(map[string]Handler),
	}
}

// Send publishes env to the topic serving its destination.
func (t *KafkaTransport) Send(ctx context.Context, env models.Envelope) error {
	topic := t.topics.Workers
	if env.To == CoordinatorAddress {
		topic = t.topics.Coordinator
	}
	if err := t.producer.WriteEnvelope(ctx, topic, env); err != nil {
		return errors.Wrapf(err, "publish %s to %s", env.Type, topic)
	}
	return nil
}

// Register binds a local address.
func (t *KafkaTransport) Register(address string, h Handler) (func(), error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if _, ok := t.handlers[address]; ok {
		return nil, errors.Newf("address %s already registered", address)
	}
	t.handlers[address] = h
	return func() {
		t.mu.Lock()
		delete(t.handlers, address)
		t.mu.Unlock()
	}, nil
}

// Run pumps records to local handlers until ctx ends.
func (t *KafkaTransport) Run(ctx context.Context) {
	t.consumer.Run(ctx, t.route)
}

func (t *KafkaTransport) route(_ context.Context, msg kgo.Message) error {
	env, err := DecodeEnvelope(msg.Value)
	if err != nil {
		return err
	}
	t.mu.RLock()
	h, ok := t.handlers[env.To]
	t.mu.RUnlock()
	if !ok {
		// Addressed to another process sharing the topic.
		t.log.Debug("no local receiver",
			zap.String(logger.FieldAddress, env.To),
			zap.String(logger.FieldType, string(env.Type)),
		)
		return nil
	}
	h(env)
	return nil
}
