package notification

import (
	"context"
	"errors"
	"testing"

	"github.com/jayzilla/service-booking/internal/contracts/events"
	"github.com/jayzilla/service-booking/internal/payment"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeMailer struct {
	sent []Email
	err  error
}

func (f *fakeMailer) Send(_ context.Context, email Email) error {
	if f.err != nil {
		return f.err
	}
	f.sent = append(f.sent, email)
	return nil
}

type fakeTexter struct {
	to   []string
	body []string
	err  error
}

func (f *fakeTexter) SendText(_ context.Context, to, body string) error {
	f.to = append(f.to, to)
	f.body = append(f.body, body)
	return f.err
}

func submittedEvent(method, status, reference string) events.ServiceRequestSubmittedEvent {
	return events.ServiceRequestSubmittedEvent{
		ReferenceNumber:  "SR-ABC234",
		CustomerName:     "Jane Doe",
		CustomerEmail:    "jane@example.com",
		CustomerPhone:    "555-123-4567",
		Address:          "12 Elm St",
		PreferredDate:    "2026-03-14",
		LineItems:        []events.LineItem{{Label: "Base Price", Amount: "30"}, {Label: "Area Cost", Amount: "20"}},
		Total:            "75",
		PaymentMethod:    method,
		PaymentStatus:    status,
		PaymentReference: reference,
	}
}

var testManual = payment.ManualConfig{CashAppTag: "$jayzilla", ZelleEmail: "payments@jayzilla.com"}

func TestNotifier_ManualPaymentInstructions(t *testing.T) {
	mailer := &fakeMailer{}
	texter := &fakeTexter{}
	n := NewNotifier(mailer, texter, testManual, zap.NewNop())

	err := n.ServiceRequestSubmitted(context.Background(), submittedEvent("zelle", "pending", "REF-SR-ABC234"))
	require.NoError(t, err)

	require.Len(t, mailer.sent, 1)
	email := mailer.sent[0]
	assert.Equal(t, subjectPending, email.Subject)
	assert.Equal(t, "jane@example.com", email.ToAddress)
	assert.Contains(t, email.PlainText, "payments@jayzilla.com")
	assert.Contains(t, email.PlainText, "REF-SR-ABC234")
	assert.Contains(t, email.PlainText, "Total: $75.00")
	assert.Contains(t, email.HTML, "Base Price")

	require.Len(t, texter.to, 1)
	assert.Equal(t, "+15551234567", texter.to[0])
	assert.Contains(t, texter.body[0], "SR-ABC234")
}

func TestNotifier_PaidConfirmation(t *testing.T) {
	mailer := &fakeMailer{}
	n := NewNotifier(mailer, nil, testManual, zap.NewNop())

	require.NoError(t, n.ServiceRequestSubmitted(context.Background(), submittedEvent("card", "paid", "pi_1")))
	require.Len(t, mailer.sent, 1)
	assert.Equal(t, subjectConfirmed, mailer.sent[0].Subject)
	assert.NotContains(t, mailer.sent[0].PlainText, "Payment:")
}

func TestNotifier_SMSFailureIsNotFatal(t *testing.T) {
	mailer := &fakeMailer{}
	texter := &fakeTexter{err: errors.New("twilio down")}
	n := NewNotifier(mailer, texter, testManual, zap.NewNop())

	assert.NoError(t, n.ServiceRequestSubmitted(context.Background(), submittedEvent("cashapp", "pending", "REF-SR-ABC234")))
	assert.Len(t, mailer.sent, 1)
}

func TestNotifier_EmailFailure(t *testing.T) {
	n := NewNotifier(&fakeMailer{err: errors.New("sendgrid down")}, nil, testManual, zap.NewNop())
	assert.Error(t, n.ServiceRequestSubmitted(context.Background(), submittedEvent("card", "pending", "pi_1")))
}

func TestE164(t *testing.T) {
	assert.Equal(t, "+15551234567", E164("555-123-4567"))
	assert.Equal(t, "+15551234567", E164("1 (555) 123-4567"))
}
