package kafka

import (
	"context"

	"github.com/segmentio/kafka-go"
)

//go:generate mockgen -destination=../../mocks/mock_kafka.go -package=mocks careerpilot/internal/kafka MessageReader,MessageWriter

// MessageReader abstracts kafka.Reader.
type MessageReader interface {
	FetchMessage(ctx context.Context) (kafka.Message, error)
	CommitMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// MessageWriter abstracts kafka.Writer.
type MessageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}
