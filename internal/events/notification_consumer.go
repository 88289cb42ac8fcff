package events

import (
	"context"
	"encoding/json"

	"github.com/jayzilla/service-booking/internal/contracts/events"
	"github.com/jayzilla/service-booking/internal/platform/kafka"
	kafkago "github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

// SubmissionNotifier sends customer notifications for new service requests.
type SubmissionNotifier interface {
	ServiceRequestSubmitted(ctx context.Context, evt events.ServiceRequestSubmittedEvent) error
}

// NotificationConsumer sends confirmations for submitted service requests.
type NotificationConsumer struct {
	consumer *kafka.Consumer
	notifier SubmissionNotifier
	logger   *zap.Logger
}

// NewNotificationConsumer creates a new NotificationConsumer.
func NewNotificationConsumer(
	brokers []string,
	groupID string,
	notifier SubmissionNotifier,
	logger *zap.Logger,
) *NotificationConsumer {
	consumer := kafka.NewConsumer(brokers, groupID, events.TopicServiceRequestEvents, logger)
	return &NotificationConsumer{
		consumer: consumer,
		notifier: notifier,
		logger:   logger,
	}
}

// Start begins consuming service request events. This blocks until the context is cancelled.
func (c *NotificationConsumer) Start(ctx context.Context) error {
	return c.consumer.Consume(ctx, c.handleMessage)
}

// Close closes the underlying Kafka consumer.
func (c *NotificationConsumer) Close() error {
	return c.consumer.Close()
}

// handleMessage never asks for redelivery: a failed email must not be re-sent
// alongside ones that already went out.
func (c *NotificationConsumer) handleMessage(ctx context.Context, msg kafkago.Message) error {
	var cloudEvent kafka.CloudEvent
	if err := json.Unmarshal(msg.Value, &cloudEvent); err != nil {
		c.logger.Error("failed to parse cloud event from service request topic",
			zap.Error(err),
		)
		return nil
	}
	if cloudEvent.Type != events.ServiceRequestSubmitted {
		return nil
	}

	var evt events.ServiceRequestSubmittedEvent
	if err := cloudEvent.ParseData(&evt); err != nil {
		c.logger.Error("failed to parse ServiceRequestSubmittedEvent data", zap.Error(err))
		return nil
	}

	if err := c.notifier.ServiceRequestSubmitted(ctx, evt); err != nil {
		c.logger.Error("failed to send submission notification",
			zap.String("reference", evt.ReferenceNumber),
			zap.Error(err),
		)
		return nil
	}

	c.logger.Info("submission notification sent",
		zap.String("reference", evt.ReferenceNumber),
	)
	return nil
}
