package events

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/jayzilla/service-booking/internal/application"
	"github.com/jayzilla/service-booking/internal/contracts/events"
	"github.com/jayzilla/service-booking/internal/platform/domain"
	"github.com/jayzilla/service-booking/internal/platform/kafka"
	kafkago "github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

// PaymentSettler applies settlement outcomes to service requests.
type PaymentSettler interface {
	MarkPaid(ctx context.Context, paymentReference string, amountCents int64) (*application.ServiceRequestDTO, error)
	MarkPaymentFailed(ctx context.Context, paymentReference string) (*application.ServiceRequestDTO, error)
	MarkRefunded(ctx context.Context, paymentReference string) (*application.ServiceRequestDTO, error)
}

// PaymentEventConsumer listens to payment events and settles service requests.
type PaymentEventConsumer struct {
	consumer *kafka.Consumer
	settler  PaymentSettler
	logger   *zap.Logger
}

// NewPaymentEventConsumer creates a new PaymentEventConsumer.
func NewPaymentEventConsumer(
	brokers []string,
	groupID string,
	settler PaymentSettler,
	logger *zap.Logger,
) *PaymentEventConsumer {
	consumer := kafka.NewConsumer(brokers, groupID, events.TopicPaymentEvents, logger)
	return &PaymentEventConsumer{
		consumer: consumer,
		settler:  settler,
		logger:   logger,
	}
}

// Start begins consuming payment events. This blocks until the context is cancelled.
func (c *PaymentEventConsumer) Start(ctx context.Context) error {
	return c.consumer.Consume(ctx, c.handleMessage)
}

// Close closes the underlying Kafka consumer.
func (c *PaymentEventConsumer) Close() error {
	return c.consumer.Close()
}

func (c *PaymentEventConsumer) handleMessage(ctx context.Context, msg kafkago.Message) error {
	var cloudEvent kafka.CloudEvent
	if err := json.Unmarshal(msg.Value, &cloudEvent); err != nil {
		c.logger.Error("failed to parse cloud event from payment topic",
			zap.Error(err),
			zap.String("raw", string(msg.Value)),
		)
		return nil // Don't retry malformed messages
	}

	switch cloudEvent.Type {
	case events.PaymentSucceeded, events.PaymentManualConfirmed, events.PaymentFailed, events.PaymentRefunded:
	default:
		c.logger.Debug("ignoring unhandled payment event type",
			zap.String("type", cloudEvent.Type),
		)
		return nil
	}

	var evt events.PaymentEvent
	if err := cloudEvent.ParseData(&evt); err != nil || evt.PaymentReference == "" {
		c.logger.Error("failed to parse payment event data",
			zap.String("type", cloudEvent.Type),
			zap.Error(err),
		)
		return nil // Don't retry malformed data
	}

	var err error
	switch cloudEvent.Type {
	case events.PaymentSucceeded, events.PaymentManualConfirmed:
		_, err = c.settler.MarkPaid(ctx, evt.PaymentReference, evt.AmountCents)
	case events.PaymentFailed:
		_, err = c.settler.MarkPaymentFailed(ctx, evt.PaymentReference)
	case events.PaymentRefunded:
		_, err = c.settler.MarkRefunded(ctx, evt.PaymentReference)
	}

	if err != nil {
		if permanent(err) {
			c.logger.Warn("dropping payment event",
				zap.String("type", cloudEvent.Type),
				zap.String("payment_reference", evt.PaymentReference),
				zap.Error(err),
			)
			return nil
		}
		return err
	}

	c.logger.Info("payment event applied",
		zap.String("type", cloudEvent.Type),
		zap.String("payment_reference", evt.PaymentReference),
	)
	return nil
}

// permanent reports errors a redelivery cannot fix.
func permanent(err error) bool {
	var (
		notFound *domain.NotFoundError
		invalid  *domain.ValidationError
		state    *domain.InvalidStateError
	)
	return errors.As(err, &notFound) || errors.As(err, &invalid) || errors.As(err, &state)
}
