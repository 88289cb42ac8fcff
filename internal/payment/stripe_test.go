package payment

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/jayzilla/service-booking/internal/domain/catalog"
	"github.com/stripe/stripe-go/v76/webhook"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const testWebhookSecret = "whsec_test"

func signedPayload(t *testing.T, eventType string, object map[string]interface{}) ([]byte, string) {
	t.Helper()
	payload, err := json.Marshal(map[string]interface{}{
		"id":     "evt_1",
		"object": "event",
		"type":   eventType,
		"data":   map[string]interface{}{"object": object},
	})
	require.NoError(t, err)

	signed := webhook.GenerateTestSignedPayload(&webhook.UnsignedPayload{
		Payload:   payload,
		Secret:    testWebhookSecret,
		Timestamp: time.Now(),
	})
	return signed.Payload, signed.Header
}

func TestParseWebhook(t *testing.T) {
	g := NewStripeGateway("sk_test", testWebhookSecret, zap.NewNop())

	t.Run("succeeded", func(t *testing.T) {
		payload, sig := signedPayload(t, "payment_intent.succeeded", map[string]interface{}{
			"id": "pi_123", "object": "payment_intent", "amount": 25000,
		})
		evt, err := g.ParseWebhook(payload, sig)
		require.NoError(t, err)
		assert.Equal(t, WebhookSucceeded, evt.Kind)
		assert.Equal(t, "pi_123", evt.IntentID)
		assert.Equal(t, int64(25000), evt.AmountCents)
	})

	t.Run("failed", func(t *testing.T) {
		payload, sig := signedPayload(t, "payment_intent.payment_failed", map[string]interface{}{
			"id": "pi_456", "object": "payment_intent",
		})
		evt, err := g.ParseWebhook(payload, sig)
		require.NoError(t, err)
		assert.Equal(t, WebhookFailed, evt.Kind)
		assert.Equal(t, "pi_456", evt.IntentID)
	})

	t.Run("ignored type", func(t *testing.T) {
		payload, sig := signedPayload(t, "customer.created", map[string]interface{}{"id": "cus_1", "object": "customer"})
		evt, err := g.ParseWebhook(payload, sig)
		require.NoError(t, err)
		assert.Equal(t, WebhookIgnored, evt.Kind)
	})

	t.Run("bad signature", func(t *testing.T) {
		payload, _ := signedPayload(t, "payment_intent.succeeded", map[string]interface{}{"id": "pi_1"})
		_, err := g.ParseWebhook(payload, "t=1,v1=deadbeef")
		assert.Error(t, err)
	})
}

func TestManualInstructions(t *testing.T) {
	cfg := ManualConfig{CashAppTag: "$jayzilla", ZelleEmail: "payments@jayzilla.com"}

	assert.Equal(t, "REF-SR-ABC234", ManualReference(catalog.PaymentZelle, "SR-ABC234"))
	assert.Equal(t, "PP-SR-ABC234", ManualReference(catalog.PaymentPayPal, "SR-ABC234"))

	assert.Contains(t, cfg.Instructions(catalog.PaymentCashApp, "$75.00", "REF-SR-ABC234"), "$jayzilla")
	assert.Contains(t, cfg.Instructions(catalog.PaymentZelle, "$75.00", "REF-SR-ABC234"), "payments@jayzilla.com")
	assert.Contains(t, cfg.Instructions(catalog.PaymentPayPal, "$75.00", "PP-SR-ABC234"), "invoice")
	assert.Empty(t, cfg.Instructions(catalog.PaymentCard, "$75.00", ""))
}
