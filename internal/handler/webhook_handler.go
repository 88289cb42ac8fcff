package handler

import (
	"context"
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/jayzilla/service-booking/internal/application"
	"github.com/jayzilla/service-booking/internal/payment"
	"github.com/jayzilla/service-booking/internal/platform/domain"
	"github.com/jayzilla/service-booking/internal/platform/response"
	"go.uber.org/zap"
)

// maxWebhookBody bounds the webhook payload Stripe may send.
const maxWebhookBody = 1 << 20

// WebhookVerifier checks a processor callback's signature and decodes it.
type WebhookVerifier interface {
	ParseWebhook(payload []byte, signature string) (payment.WebhookEvent, error)
}

// PaymentSettler applies verified payment outcomes.
type PaymentSettler interface {
	MarkPaid(ctx context.Context, paymentReference string, amountCents int64) (*application.ServiceRequestDTO, error)
	MarkPaymentFailed(ctx context.Context, paymentReference string) (*application.ServiceRequestDTO, error)
}

// StripeWebhookHandler receives Stripe payment callbacks.
type StripeWebhookHandler struct {
	verifier WebhookVerifier
	settler  PaymentSettler
	logger   *zap.Logger
}

// NewStripeWebhookHandler creates a new StripeWebhookHandler.
func NewStripeWebhookHandler(verifier WebhookVerifier, settler PaymentSettler, logger *zap.Logger) *StripeWebhookHandler {
	return &StripeWebhookHandler{verifier: verifier, settler: settler, logger: logger}
}

// RegisterRoutes registers the webhook route. It carries no auth: the signature is the credential.
func (h *StripeWebhookHandler) RegisterRoutes(r *gin.RouterGroup) {
	r.POST("/api/v1/payments/stripe/webhook", h.HandleWebhook)
}

// HandleWebhook handles POST /api/v1/payments/stripe/webhook.
// Events that can never apply are acknowledged with 200 so Stripe stops retrying;
// transient failures answer 500 so Stripe redelivers.
func (h *StripeWebhookHandler) HandleWebhook(c *gin.Context) {
	payload, err := io.ReadAll(io.LimitReader(c.Request.Body, maxWebhookBody+1))
	if err != nil {
		response.BadRequest(c, "failed to read body")
		return
	}
	if len(payload) > maxWebhookBody {
		h.logger.Warn("rejected oversize stripe webhook", zap.Int("limit", maxWebhookBody))
		response.Fail(c, http.StatusRequestEntityTooLarge, "payload_too_large", "webhook body exceeds limit", nil)
		return
	}

	evt, err := h.verifier.ParseWebhook(payload, c.GetHeader("Stripe-Signature"))
	if err != nil {
		h.logger.Warn("rejected stripe webhook", zap.Error(err))
		response.BadRequest(c, "invalid webhook signature")
		return
	}

	ctx := c.Request.Context()
	switch evt.Kind {
	case payment.WebhookSucceeded:
		_, err = h.settler.MarkPaid(ctx, evt.IntentID, evt.AmountCents)
	case payment.WebhookFailed:
		_, err = h.settler.MarkPaymentFailed(ctx, evt.IntentID)
	default:
		c.JSON(http.StatusOK, gin.H{"received": true})
		return
	}

	if err != nil {
		var (
			notFound *domain.NotFoundError
			invalid  *domain.ValidationError
			state    *domain.InvalidStateError
		)
		if errors.As(err, &notFound) || errors.As(err, &invalid) || errors.As(err, &state) {
			h.logger.Warn("ignoring stripe webhook",
				zap.String("event_id", evt.ID),
				zap.String("intent_id", evt.IntentID),
				zap.Error(err),
			)
			c.JSON(http.StatusOK, gin.H{"received": true})
			return
		}
		h.logger.Error("failed to apply stripe webhook",
			zap.String("event_id", evt.ID),
			zap.String("intent_id", evt.IntentID),
			zap.Error(err),
		)
		response.Error(c, err)
		return
	}

	h.logger.Info("stripe webhook applied",
		zap.String("event_id", evt.ID),
		zap.String("type", evt.Type),
		zap.String("intent_id", evt.IntentID),
	)
	c.JSON(http.StatusOK, gin.H{"received": true})
}
