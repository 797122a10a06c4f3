package messaging

import (
	"context"
	"fmt"
	"strconv"

	"github.com/segmentio/kafka-go"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
	"go.opentelemetry.io/otel/trace"
)

var consumerTracer = otel.Tracer("messaging/consumer")

// MessageReader is the part of *kafka.Reader the consumer uses.
type MessageReader interface {
	FetchMessage(ctx context.Context) (kafka.Message, error)
	CommitMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

type Consumer struct {
	reader   MessageReader
	topic    string
	groupID  string
	consumed metric.Int64Counter
}

type ConsumerOption func(*kafka.ReaderConfig)

func WithStartOffset(offset int64) ConsumerOption {
	return func(cfg *kafka.ReaderConfig) {
		cfg.StartOffset = offset
	}
}

func NewConsumer(brokers []string, topic, groupID string, opts ...ConsumerOption) *Consumer {
	cfg := kafka.ReaderConfig{
		Brokers: brokers,
		Topic:   topic,
		GroupID: groupID,
	}
	for _, opt := range opts {
		opt(&cfg)
	}
	return newConsumer(kafka.NewReader(cfg), topic, groupID)
}

func newConsumer(r MessageReader, topic, groupID string) *Consumer {
	consumed, err := otel.Meter("storefront/messaging").Int64Counter("storefront.events.consumed",
		metric.WithDescription("Order events processed by the consumer"),
		metric.WithUnit("{event}"),
	)
	if err != nil {
		consumed = noop.Int64Counter{}
	}
	return &Consumer{reader: r, topic: topic, groupID: groupID, consumed: consumed}
}

// Handler processes one message. eventType comes from the event-type
// header and is empty for messages published without one.
type Handler func(ctx context.Context, eventType string, payload []byte) error

// Consume fetches messages until ctx is done or handler fails. A message
// is committed only after handler returns nil, so a failed message is
// redelivered to the group after a restart.
func (c *Consumer) Consume(ctx context.Context, handler Handler) error {
	for {
		msg, err := c.reader.FetchMessage(ctx)
		if err != nil {
			return err
		}

		if err := c.processMessage(ctx, msg, handler); err != nil {
			return fmt.Errorf("process offset %d: %w", msg.Offset, err)
		}

		if err := c.reader.CommitMessages(ctx, msg); err != nil {
			return fmt.Errorf("commit offset %d: %w", msg.Offset, err)
		}
	}
}

func (c *Consumer) processMessage(ctx context.Context, msg kafka.Message, handler Handler) error {
	parentCtx := otel.GetTextMapPropagator().Extract(ctx, NewHeaderCarrier(&msg))
	eventType := header(&msg, EventTypeHeader)

	spanCtx, span := consumerTracer.Start(parentCtx, "process "+c.topic,
		trace.WithSpanKind(trace.SpanKindConsumer),
		trace.WithAttributes(
			semconv.MessagingSystemKafka,
			semconv.MessagingOperationName("process"),
			semconv.MessagingOperationTypeDeliver,
			semconv.MessagingDestinationName(c.topic),
			semconv.MessagingKafkaConsumerGroup(c.groupID),
			semconv.MessagingKafkaMessageOffset(int(msg.Offset)),
			semconv.MessagingDestinationPartitionID(strconv.Itoa(msg.Partition)),
			semconv.MessagingKafkaMessageKey(string(msg.Key)),
			attribute.String("messaging.event_type", eventType),
		),
	)
	defer span.End()

	err := handler(spanCtx, eventType, msg.Value)

	result := "ok"
	if err != nil {
		result = "error"
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	c.consumed.Add(spanCtx, 1, metric.WithAttributes(
		attribute.String("event_type", eventType),
		attribute.String("result", result),
	))

	return err
}

func (c *Consumer) Close() error {
	return c.reader.Close()
}
