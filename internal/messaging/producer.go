package messaging

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
	"go.opentelemetry.io/otel/trace"
)

var producerTracer = otel.Tracer("messaging/producer")

// MessageWriter is the part of *kafka.Writer the producer uses.
type MessageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// Producer publishes order events to one topic. It satisfies
// orders.Publisher.
type Producer struct {
	writer    MessageWriter
	topic     string
	published metric.Int64Counter
}

func NewProducer(brokers []string, topic string) *Producer {
	return newProducer(&kafka.Writer{
		Addr:                   kafka.TCP(brokers...),
		Topic:                  topic,
		Balancer:               &kafka.Hash{},
		AllowAutoTopicCreation: true,
		RequiredAcks:           kafka.RequireAll,
		BatchTimeout:           50 * time.Millisecond,
	}, topic)
}

func newProducer(w MessageWriter, topic string) *Producer {
	published, err := otel.Meter("storefront/messaging").Int64Counter("storefront.events.published",
		metric.WithDescription("Order events handed to Kafka"),
		metric.WithUnit("{event}"),
	)
	if err != nil {
		published = noop.Int64Counter{}
	}
	return &Producer{writer: w, topic: topic, published: published}
}

// Publish writes event as JSON keyed by key. The hash balancer sends every
// event of one order to the same partition, so they are consumed in
// publish order.
func (p *Producer) Publish(ctx context.Context, key, eventType string, event any) error {
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal %s event: %w", eventType, err)
	}

	msg := kafka.Message{
		Key:   []byte(key),
		Value: data,
		Headers: []kafka.Header{
			{Key: EventTypeHeader, Value: []byte(eventType)},
		},
	}

	ctx, span := producerTracer.Start(ctx, "send "+p.topic,
		trace.WithSpanKind(trace.SpanKindProducer),
		trace.WithAttributes(
			semconv.MessagingSystemKafka,
			semconv.MessagingOperationName("send"),
			semconv.MessagingOperationTypePublish,
			semconv.MessagingDestinationName(p.topic),
			semconv.MessagingKafkaMessageKey(key),
			attribute.String("messaging.event_type", eventType),
		),
	)
	defer span.End()

	otel.GetTextMapPropagator().Inject(ctx, NewHeaderCarrier(&msg))

	result := "ok"
	if err = p.writer.WriteMessages(ctx, msg); err != nil {
		result = "error"
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	p.published.Add(ctx, 1, metric.WithAttributes(
		attribute.String("event_type", eventType),
		attribute.String("result", result),
	))
	if err != nil {
		return fmt.Errorf("write %s event: %w", eventType, err)
	}

	return nil
}

func (p *Producer) Close() error {
	return p.writer.Close()
}
