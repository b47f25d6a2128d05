package notifier

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"storefront-service/models"
	awspkg "storefront-service/pkg/aws"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

// EventPublisher delivers order events to downstream consumers.
type EventPublisher interface {
	Publish(ctx context.Context, event models.OrderEvent) error
}

type NoopPublisher struct{}

func (NoopPublisher) Publish(context.Context, models.OrderEvent) error { return nil }

// SNSEventPublisher publishes to an SNS topic with the event type as a
// message attribute so subscriptions can filter on it.
type SNSEventPublisher struct {
	client   awspkg.SNSPublisher
	topicArn string
}

func NewSNSEventPublisher(client awspkg.SNSPublisher, topicArn string) *SNSEventPublisher {
	return &SNSEventPublisher{client: client, topicArn: topicArn}
}

func (p *SNSEventPublisher) Publish(ctx context.Context, event models.OrderEvent) error {
	data, err := json.Marshal(event)
	if err != nil {
		return err
	}
	return p.client.Publish(ctx, p.topicArn, data, map[string]string{"eventType": event.Type})
}

// MessageWriter is satisfied by *kafka.Writer.
type MessageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// KafkaEventPublisher keys messages by order id so one order's events stay ordered.
type KafkaEventPublisher struct {
	writer MessageWriter
	topic  string
}

func NewKafkaEventPublisher(brokers []string, topic string) *KafkaEventPublisher {
	w := &kafka.Writer{
		Addr:                   kafka.TCP(brokers...),
		Topic:                  topic,
		Balancer:               &kafka.Hash{},
		AllowAutoTopicCreation: true,
	}
	zap.L().Info("Kafka producer initialized", zap.String("topic", topic), zap.Strings("brokers", brokers))
	return &KafkaEventPublisher{writer: w, topic: topic}
}

func (p *KafkaEventPublisher) Publish(ctx context.Context, event models.OrderEvent) error {
	data, err := json.Marshal(event)
	if err != nil {
		return err
	}
	msg := kafka.Message{
		Key:     []byte(event.OrderID),
		Value:   data,
		Headers: []kafka.Header{{Key: "eventType", Value: []byte(event.Type)}},
	}
	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("kafka publish to %s failed: %w", p.topic, err)
	}
	return nil
}

func (p *KafkaEventPublisher) Close() error {
	return p.writer.Close()
}

// MultiPublisher fans an event out to every configured publisher and joins
// their errors.
type MultiPublisher []EventPublisher

func (m MultiPublisher) Publish(ctx context.Context, event models.OrderEvent) error {
	var errs []error
	for _, p := range m {
		if err := p.Publish(ctx, event); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// MetricCounter is satisfied by *awspkg.MetricsClient.
type MetricCounter interface {
	RecordCount(ctx context.Context, metricName string, dimensions map[string]string) error
}

// MetricsPublisher turns order events into CloudWatch counters.
type MetricsPublisher struct {
	metrics MetricCounter
}

func NewMetricsPublisher(metrics MetricCounter) *MetricsPublisher {
	return &MetricsPublisher{metrics: metrics}
}

func (p *MetricsPublisher) Publish(ctx context.Context, event models.OrderEvent) error {
	switch event.Type {
	case models.EventOrderCreated:
		return p.metrics.RecordCount(ctx, awspkg.MetricOrdersCreated, map[string]string{"PaymentMethod": event.PaymentMethod})
	case models.EventOrderStatusChanged:
		return p.metrics.RecordCount(ctx, awspkg.MetricOrderTransition, map[string]string{"Status": event.Status})
	}
	return nil
}
