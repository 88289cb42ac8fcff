package payment

import (
	"context"
	"fmt"

	"github.com/jayzilla/service-booking/internal/domain/catalog"
)

// IntentRequest describes a card charge to prepare.
type IntentRequest struct {
	AmountCents  int64
	Currency     string
	RequestID    string
	Reference    string
	ReceiptEmail string
}

// Intent is a prepared card charge the client confirms with its secret.
type Intent struct {
	ID           string
	ClientSecret string
	Status       string
}

// Gateway creates card payment intents.
type Gateway interface {
	CreateIntent(ctx context.Context, req IntentRequest) (*Intent, error)
}

// WebhookKind classifies processor callbacks the service acts on.
type WebhookKind string

const (
	WebhookSucceeded WebhookKind = "succeeded"
	WebhookFailed    WebhookKind = "failed"
	WebhookIgnored   WebhookKind = "ignored"
)

// WebhookEvent is a verified processor callback.
type WebhookEvent struct {
	ID          string
	Kind        WebhookKind
	Type        string
	IntentID    string
	AmountCents int64
}

// ManualConfig holds the payee details shown for out-of-band methods.
type ManualConfig struct {
	CashAppTag string
	ZelleEmail string
	PayPalMe   string
}

// ManualReference is the reference a customer quotes when paying out of band.
func ManualReference(method catalog.PaymentMethod, requestReference string) string {
	if method == catalog.PaymentPayPal {
		return "PP-" + requestReference
	}
	return "REF-" + requestReference
}

// Instructions returns the customer-facing payment instructions for a manual method.
// Card payments have none.
func (c ManualConfig) Instructions(method catalog.PaymentMethod, amount, reference string) string {
	switch method {
	case catalog.PaymentCashApp:
		return fmt.Sprintf("Send %s via Cash App to %s and include reference %s in the note.", amount, c.CashAppTag, reference)
	case catalog.PaymentZelle:
		return fmt.Sprintf("Send %s via Zelle to %s and include reference %s in the memo.", amount, c.ZelleEmail, reference)
	case catalog.PaymentPayPal:
		if c.PayPalMe == "" {
			return fmt.Sprintf("We will email a PayPal invoice for %s with reference %s.", amount, reference)
		}
		return fmt.Sprintf("Send %s via PayPal to %s and include reference %s.", amount, c.PayPalMe, reference)
	}
	return ""
}
