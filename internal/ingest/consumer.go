// Package ingest consumes order events from Kafka into the order store.
package ingest

import (
	"context"
	"errors"
	"fmt"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"

	"github.com/ignite/commerce-insights/internal/config"
	"github.com/ignite/commerce-insights/internal/domain"
	"github.com/ignite/commerce-insights/internal/metrics"
)

type kafkaZapLogger struct {
	log *zap.SugaredLogger
}

func (l kafkaZapLogger) Printf(msg string, args ...interface{}) {
	l.log.Debugf(msg, args...)
}

type kafkaZapErrorLogger struct {
	log *zap.SugaredLogger
}

func (l kafkaZapErrorLogger) Printf(msg string, args ...interface{}) {
	l.log.Errorf(msg, args...)
}

// MessageReader is the subset of *kafka.Reader the consumer uses.
type MessageReader interface {
	FetchMessage(ctx context.Context) (kafka.Message, error)
	CommitMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// OrderStore persists orders. inserted is false for re-delivered orders.
type OrderStore interface {
	InsertOrder(ctx context.Context, o domain.Order) (inserted bool, err error)
}

// Invalidator drops cached views derived from orders.
type Invalidator interface {
	InvalidateAll(ctx context.Context) (int, error)
}

// NewReader builds a consumer-group reader for cfg.
func NewReader(cfg config.IngestConfig, log *zap.SugaredLogger) (*kafka.Reader, error) {
	if len(cfg.Brokers) == 0 || cfg.Topic == "" || cfg.GroupID == "" {
		log.Errorw("Kafka configuration validation failed",
			"brokers", cfg.Brokers, "topic", cfg.Topic, "group_id", cfg.GroupID)
		return nil, ErrInvalidKafkaConfig
	}
	return kafka.NewReader(kafka.ReaderConfig{
		Brokers:     cfg.Brokers,
		GroupID:     cfg.GroupID,
		Topic:       cfg.Topic,
		Logger:      kafkaZapLogger{log.Named("kafka-reader")},
		ErrorLogger: kafkaZapErrorLogger{log.Named("kafka-reader-error")},
	}), nil
}

// Consumer stores each order event and invalidates dashboard caches when a
// new order lands. Offsets are committed only after the order is stored.
type Consumer struct {
	reader MessageReader
	store  OrderStore
	cache  Invalidator
	log    *zap.SugaredLogger
}

// NewConsumer creates a consumer. cache may be nil.
func NewConsumer(reader MessageReader, store OrderStore, cache Invalidator, log *zap.SugaredLogger) *Consumer {
	return &Consumer{reader: reader, store: store, cache: cache, log: log}
}

// Run consumes until ctx is cancelled or a fetch/store failure occurs. It
// closes the reader before returning.
func (c *Consumer) Run(ctx context.Context) error {
	c.log.Info("Starting order consumer loop")
	defer func() {
		if err := c.reader.Close(); err != nil {
			c.log.Errorw("Failed to close Kafka reader cleanly", "error", err)
		}
		c.log.Info("Order consumer loop stopped")
	}()

	for {
		m, err := c.reader.FetchMessage(ctx)
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) || ctx.Err() != nil {
				return context.Canceled
			}
			return fmt.Errorf("%w: %w", ErrKafkaFetchFailed, err)
		}

		if err := c.handle(ctx, m); err != nil {
			return err
		}
		if err := c.reader.CommitMessages(ctx, m); err != nil {
			if ctx.Err() != nil {
				return context.Canceled
			}
			return fmt.Errorf("commit offset %d: %w", m.Offset, err)
		}
	}
}

// handle stores one message. Undecodable messages are logged and skipped so
// they never block the partition.
func (c *Consumer) handle(ctx context.Context, m kafka.Message) error {
	ev, err := DecodeOrderEvent(m.Value)
	if err != nil {
		metrics.IngestMessages.WithLabelValues("invalid").Inc()
		c.log.Warnw("Skipping invalid order event",
			"partition", m.Partition, "offset", m.Offset, "error", err)
		return nil
	}

	inserted, err := c.store.InsertOrder(ctx, ev.Order())
	if err != nil {
		metrics.IngestMessages.WithLabelValues("error").Inc()
		return fmt.Errorf("%w: order %s: %w", ErrStoreFailed, ev.OrderID, err)
	}
	if !inserted {
		metrics.IngestMessages.WithLabelValues("duplicate").Inc()
		c.log.Debugw("Order already stored", "order_id", ev.OrderID)
		return nil
	}

	metrics.IngestMessages.WithLabelValues("stored").Inc()
	if c.cache != nil {
		if _, err := c.cache.InvalidateAll(ctx); err != nil {
			c.log.Warnw("Dashboard cache invalidation failed", "order_id", ev.OrderID, "error", err)
		}
	}
	return nil
}
