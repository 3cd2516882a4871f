package kafka

import (
	"context"
	"time"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"

	"careerpilot/internal/logger"
)

const fetchRetryDelay = 500 * time.Millisecond

// Consumer fetches records, hands each to a handler and commits it afterwards.
type Consumer struct {
	reader MessageReader
	log    *zap.Logger
}

// NewReader builds a group reader for topic.
func NewReader(broker, topic, groupID string) *kafka.Reader {
	return kafka.NewReader(kafka.ReaderConfig{
		Brokers: []string{broker},
		Topic:   topic,
		GroupID: groupID,
	})
}

// NewConsumer wraps reader.
func NewConsumer(reader MessageReader, log *zap.Logger) *Consumer {
	return &Consumer{reader: reader, log: logger.OrNop(log)}
}

// Run consumes until ctx is cancelled. Handler errors are logged and the record
// is committed anyway; a poison record must not stall the partition.
func (c *Consumer) Run(ctx context.Context, handle func(ctx context.Context, msg kafka.Message) error) {
	for {
		msg, err := c.reader.FetchMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			c.log.Warn("fetch error", zap.Error(err))
			select {
			case <-ctx.Done():
				return
			case <-time.After(fetchRetryDelay):
			}
			continue
		}

		if err := handle(ctx, msg); err != nil {
			c.log.Warn("message handling failed",
				zap.String(logger.FieldTopic, msg.Topic),
				zap.Int("partition", msg.Partition),
				zap.Int64("offset", msg.Offset),
				zap.Error(err),
			)
		}
		if err := c.reader.CommitMessages(ctx, msg); err != nil && ctx.Err() == nil {
			c.log.Warn("commit error", zap.Int64("offset", msg.Offset), zap.Error(err))
		}
	}
}

// Close closes the reader.
func (c *Consumer) Close() error {
	return c.reader.Close()
}
