//go:build integration

package main_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jayzilla/service-booking/internal/contracts/events"
	"github.com/jayzilla/service-booking/internal/domain/attachment"
	"github.com/jayzilla/service-booking/internal/domain/wizard"
	"github.com/jayzilla/service-booking/internal/platform/auth"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var pngBytes = []byte{0x89, 'P', 'N', 'G', '\r', '\n', 0x1a, '\n', 0, 0, 0, 0x0d, 'I', 'H', 'D', 'R'}

// TestManualPayment_SubmitThenSettle submits a Zelle request, then publishes a manual
// payment confirmation and expects the request to be marked paid.
func TestManualPayment_SubmitThenSettle(t *testing.T) {
	infra := setupContainers(t)
	defer infra.Cleanup()

	stack := setupBookingStack(t, infra)
	defer stack.CleanupProducer()
	defer func() { _ = stack.Consumer.Close() }()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = stack.Consumer.Start(ctx) }()
	time.Sleep(3 * time.Second) // Wait for consumer group join.

	owner := uuid.New()
	photo := attachment.Staged{Filename: "yard.png", Data: pngBytes}
	result, err := stack.Wizard.SubmitDirect(ctx, owner, lawnFields("zelle"), []attachment.Staged{photo}, "75.00")
	require.NoError(t, err)
	require.True(t, result.Result.OK, "%+v", result.Result)
	require.NotNil(t, result.Receipt)
	receipt := result.Receipt
	assert.Equal(t, "REF-"+receipt.ReferenceID, receipt.PaymentReference)
	assert.Contains(t, receipt.Instructions, "payments@example.com")

	// Assert: submitted event on the service request topic.
	ce := consumeOneEvent(t, infra.KafkaBrokers, events.TopicServiceRequestEvents,
		events.ServiceRequestSubmitted, 15*time.Second)
	var submitted events.ServiceRequestSubmittedEvent
	require.NoError(t, ce.ParseData(&submitted))
	assert.Equal(t, receipt.ReferenceID, submitted.ReferenceNumber)
	assert.Equal(t, int64(7500), submitted.TotalCents)
	assert.Equal(t, 1, submitted.AttachmentCount)

	dto, err := stack.Requests.Get(ctx, receipt.RequestID, owner, auth.RoleCustomer)
	require.NoError(t, err)
	require.Len(t, dto.Attachments, 1)
	assert.Equal(t, "image/png", dto.Attachments[0].ContentType)

	// Publish the back-office confirmation.
	publishTestEvent(t, infra.KafkaBrokers, events.TopicPaymentEvents, "back-office",
		events.PaymentManualConfirmed, events.PaymentEvent{
			PaymentReference: receipt.PaymentReference,
			AmountCents:      7500,
			Currency:         "USD",
			OccurredAt:       time.Now().UTC(),
		})

	model := waitForPaymentStatus(t, infra.DB, receipt.RequestID, "paid", 15*time.Second)
	assert.NotNil(t, model.PaidAt)
	assert.Equal(t, int64(2), model.Version)

	ce = consumeOneEvent(t, infra.KafkaBrokers, events.TopicServiceRequestEvents,
		events.ServiceRequestPaid, 15*time.Second)
	var paid events.ServiceRequestPaidEvent
	require.NoError(t, ce.ParseData(&paid))
	assert.Equal(t, receipt.RequestID, paid.RequestID)
}

// TestWizardSession_RedisRoundTrip walks a stored session to review and submits it.
func TestWizardSession_RedisRoundTrip(t *testing.T) {
	infra := setupContainers(t)
	defer infra.Cleanup()

	stack := setupBookingStack(t, infra)
	defer stack.CleanupProducer()

	ctx := context.Background()
	owner := uuid.New()
	fields := lawnFields("cashapp")

	view, err := stack.Wizard.Start(ctx, owner)
	require.NoError(t, err)

	for _, step := range [][]wizard.Field{
		{wizard.FieldCategory, wizard.FieldLawnSubType, wizard.FieldLawnSize, wizard.FieldLawnCondition},
		{wizard.FieldName, wizard.FieldEmail, wizard.FieldPhone},
		{wizard.FieldAddress, wizard.FieldPreferredDate},
	} {
		input := map[wizard.Field]string{}
		for _, f := range step {
			input[f] = fields[f]
		}
		res, err := stack.Wizard.Advance(ctx, view.ID, owner, input)
		require.NoError(t, err)
		require.True(t, res.Result.OK, "%+v", res.Result.Errors)
	}

	reloaded, err := stack.Wizard.Get(ctx, view.ID, owner)
	require.NoError(t, err)
	assert.Equal(t, wizard.StepReview, reloaded.Step)
	require.NotNil(t, reloaded.Quote)
	assert.Equal(t, "$75.00", reloaded.Quote.TotalDisplay)

	submitted, err := stack.Wizard.Submit(ctx, view.ID, owner, map[wizard.Field]string{wizard.FieldPaymentMethod: "cashapp"})
	require.NoError(t, err)
	require.NotNil(t, submitted.Receipt)
	assert.Equal(t, 0, submitted.Session.StepIndex)

	list, err := stack.Requests.ListOwn(ctx, owner, 1, 10)
	require.NoError(t, err)
	assert.Equal(t, int64(1), list.Total)
}
