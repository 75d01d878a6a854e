// Package consumer wraps franz-go group consumption behind a small
// poll-and-handle loop so feature code only deals with Messages.
package consumer

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/twmb/franz-go/pkg/kgo"
)

// Message is a single record delivered from Kafka.
type Message struct {
	Topic     string
	Partition int32
	Offset    int64
	Key       []byte
	Value     []byte
	Timestamp time.Time
}

// Handler processes one message. Returning an error leaves the message
// uncommitted so it is redelivered; handlers must therefore be idempotent.
type Handler interface {
	Handle(ctx context.Context, msg *Message) error
}

// Config holds group consumption settings.
type Config struct {
	Brokers []string
	Group   string
	Topics  []string
}

// Consumer polls a consumer group and dispatches records to a Handler.
type Consumer struct {
	client  *kgo.Client
	handler Handler
	logger  *slog.Logger
}

func New(cfg Config, handler Handler, logger *slog.Logger) (*Consumer, error) {
	client, err := kgo.NewClient(
		kgo.SeedBrokers(cfg.Brokers...),
		kgo.ConsumerGroup(cfg.Group),
		kgo.ConsumeTopics(cfg.Topics...),
		kgo.DisableAutoCommit(),
	)
	if err != nil {
		return nil, fmt.Errorf("create kafka consumer: %w", err)
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Consumer{client: client, handler: handler, logger: logger}, nil
}

// Run polls until the context is cancelled or the client is closed.
// Offsets are committed only for records the handler accepted, giving
// at-least-once delivery.
func (c *Consumer) Run(ctx context.Context) error {
	for {
		fetches := c.client.PollFetches(ctx)
		if fetches.IsClientClosed() {
			return nil
		}
		if err := ctx.Err(); err != nil {
			return err
		}

		fetches.EachError(func(topic string, partition int32, err error) {
			c.logger.Error("kafka fetch error",
				"topic", topic,
				"partition", partition,
				"error", err,
			)
		})

		var handled []*kgo.Record
		iter := fetches.RecordIter()
		for !iter.Done() {
			record := iter.Next()
			msg := &Message{
				Topic:     record.Topic,
				Partition: record.Partition,
				Offset:    record.Offset,
				Key:       record.Key,
				Value:     record.Value,
				Timestamp: record.Timestamp,
			}
			if err := c.handler.Handle(ctx, msg); err != nil {
				c.logger.Error("handle kafka message",
					"topic", msg.Topic,
					"partition", msg.Partition,
					"offset", msg.Offset,
					"error", err,
				)
				// Stop here so the failed record and everything after it
				// is redelivered.
				break
			}
			handled = append(handled, record)
		}

		if len(handled) > 0 {
			if err := c.client.CommitRecords(ctx, handled...); err != nil {
				c.logger.Error("commit kafka offsets", "error", err)
			}
		}
	}
}

// Close releases the client. A blocked Run returns once the client closes.
func (c *Consumer) Close() {
	c.client.Close()
}
