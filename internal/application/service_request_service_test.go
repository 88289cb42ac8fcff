package application

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jayzilla/service-booking/internal/contracts/events"
	"github.com/jayzilla/service-booking/internal/domain/attachment"
	"github.com/jayzilla/service-booking/internal/domain/pricing"
	"github.com/jayzilla/service-booking/internal/domain/servicerequest"
	"github.com/jayzilla/service-booking/internal/domain/wizard"
	"github.com/jayzilla/service-booking/internal/payment"
	"github.com/jayzilla/service-booking/internal/platform/auth"
	"github.com/jayzilla/service-booking/internal/platform/domain"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

var pngBytes = []byte{0x89, 'P', 'N', 'G', '\r', '\n', 0x1a, '\n', 0, 0, 0, 0x0d, 'I', 'H', 'D', 'R'}

type serviceFixture struct {
	svc       *ServiceRequestService
	repo      *memRequestRepo
	atts      *memAttachmentRepo
	store     *fakeStore
	gateway   *fakeGateway
	publisher *fakePublisher
}

func newServiceFixture() *serviceFixture {
	f := &serviceFixture{
		repo:      newMemRequestRepo(),
		atts:      &memAttachmentRepo{},
		store:     &fakeStore{},
		gateway:   &fakeGateway{},
		publisher: &fakePublisher{},
	}
	f.svc = NewServiceRequestService(
		f.repo, f.atts, f.store, f.gateway,
		payment.ManualConfig{CashAppTag: "$jayzilla", ZelleEmail: "payments@jayzilla.com"},
		pricing.NewStandardCalculator(),
		f.publisher,
		zap.NewNop(),
	)
	return f
}

func lawnFields(method string) map[wizard.Field]string {
	return map[wizard.Field]string{
		wizard.FieldCategory:      "lawncare",
		wizard.FieldLawnSubType:   "mowing",
		wizard.FieldLawnSize:      "1000",
		wizard.FieldLawnCondition: "poor",
		wizard.FieldName:          "Jane Doe",
		wizard.FieldEmail:         "jane@example.com",
		wizard.FieldPhone:         "555-123-4567",
		wizard.FieldAddress:       "12 Elm St",
		wizard.FieldPreferredDate: time.Now().AddDate(0, 0, 7).Format(wizard.DateLayout),
		wizard.FieldPaymentMethod: method,
	}
}

func packageFor(t *testing.T, owner uuid.UUID, fields map[wizard.Field]string, files ...attachment.Staged) wizard.SubmissionPackage {
	t.Helper()
	quote := pricing.NewStandardCalculator().Quote(wizard.PricingInputFrom(fields))
	require.NotNil(t, quote)
	return wizard.SubmissionPackage{OwnerID: owner, Fields: fields, Attachments: files, Quote: *quote}
}

func submissionKind(t *testing.T, err error) wizard.SubmissionErrorKind {
	t.Helper()
	var subErr *wizard.SubmissionError
	require.True(t, errors.As(err, &subErr), "expected SubmissionError, got %v", err)
	return subErr.Kind
}

func TestSubmit_ManualPayment(t *testing.T) {
	f := newServiceFixture()
	owner := uuid.New()
	photo := attachment.Staged{Filename: "yard.png", ContentType: "image/png", Size: int64(len(pngBytes)), Data: pngBytes}

	receipt, err := f.svc.Submit(context.Background(), packageFor(t, owner, lawnFields("zelle"), photo))
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(receipt.ReferenceID, "SR-"))
	assert.Equal(t, "REF-"+receipt.ReferenceID, receipt.PaymentReference)
	assert.Equal(t, "pending", receipt.PaymentStatus)
	assert.True(t, receipt.Total.Equal(decimal.NewFromInt(75)))
	assert.Contains(t, receipt.Instructions, "payments@jayzilla.com")
	assert.Empty(t, receipt.ClientSecret)
	assert.Empty(t, f.gateway.requests)

	saved, err := f.repo.FindByID(context.Background(), receipt.RequestID)
	require.NoError(t, err)
	assert.Equal(t, servicerequest.StatusPending, saved.Status())
	assert.Equal(t, int64(7500), saved.TotalCents())

	require.Len(t, f.atts.saved, 1)
	assert.Equal(t, "https://cdn.test/"+receipt.ReferenceID+"/yard.png", f.atts.saved[0].URL())
	assert.Equal(t, []string{events.ServiceRequestSubmitted}, f.publisher.types())
}

func TestSubmit_CardPayment(t *testing.T) {
	f := newServiceFixture()

	receipt, err := f.svc.Submit(context.Background(), packageFor(t, uuid.New(), lawnFields("card")))
	require.NoError(t, err)

	require.Len(t, f.gateway.requests, 1)
	assert.Equal(t, int64(7500), f.gateway.requests[0].AmountCents)
	assert.Equal(t, "jane@example.com", f.gateway.requests[0].ReceiptEmail)
	assert.True(t, strings.HasPrefix(receipt.PaymentReference, "pi_"))
	assert.NotEmpty(t, receipt.ClientSecret)
	assert.Empty(t, receipt.Instructions)
}

func TestSubmit_Rejections(t *testing.T) {
	owner := uuid.New()

	t.Run("quote mismatch", func(t *testing.T) {
		f := newServiceFixture()
		pkg := packageFor(t, owner, lawnFields("card"))
		pkg.Quote.Total = pkg.Quote.Total.Sub(decimal.NewFromInt(10))

		_, err := f.svc.Submit(context.Background(), pkg)
		assert.Equal(t, wizard.SubmissionRejected, submissionKind(t, err))
		assert.Empty(t, f.gateway.requests)
	})

	t.Run("invalid email", func(t *testing.T) {
		f := newServiceFixture()
		fields := lawnFields("card")
		fields[wizard.FieldEmail] = "not-an-email"

		_, err := f.svc.Submit(context.Background(), packageFor(t, owner, fields))
		assert.Equal(t, wizard.SubmissionRejected, submissionKind(t, err))

		var subErr *wizard.SubmissionError
		require.ErrorAs(t, err, &subErr)
		require.Len(t, subErr.Fields, 1)
		assert.Equal(t, wizard.FieldEmail, subErr.Fields[0].Field)
	})

	t.Run("missing measure maps to category field", func(t *testing.T) {
		f := newServiceFixture()
		fields := lawnFields("card")
		delete(fields, wizard.FieldLawnSize)
		pkg := wizard.SubmissionPackage{OwnerID: owner, Fields: fields}

		_, err := f.svc.Submit(context.Background(), pkg)
		var subErr *wizard.SubmissionError
		require.ErrorAs(t, err, &subErr)
		assert.Equal(t, wizard.SubmissionRejected, subErr.Kind)
		require.NotEmpty(t, subErr.Fields)
		assert.Equal(t, wizard.FieldLawnSize, subErr.Fields[0].Field)
	})
}

func TestSubmit_RetryableFailures(t *testing.T) {
	owner := uuid.New()
	photo := attachment.Staged{Filename: "yard.png", ContentType: "image/png", Size: int64(len(pngBytes)), Data: pngBytes}

	t.Run("storage down", func(t *testing.T) {
		f := newServiceFixture()
		f.store.err = errBoom

		_, err := f.svc.Submit(context.Background(), packageFor(t, owner, lawnFields("zelle"), photo))
		assert.Equal(t, wizard.SubmissionRetryable, submissionKind(t, err))
		assert.Empty(t, f.repo.byID)
		assert.Empty(t, f.publisher.types())
	})

	t.Run("payment processor down", func(t *testing.T) {
		f := newServiceFixture()
		f.gateway.err = errBoom

		_, err := f.svc.Submit(context.Background(), packageFor(t, owner, lawnFields("card"), photo))
		assert.Equal(t, wizard.SubmissionRetryable, submissionKind(t, err))
		assert.Empty(t, f.repo.byID)
		assert.Equal(t, f.store.puts, f.store.deleted, "uploaded files are cleaned up")
	})

	t.Run("database down", func(t *testing.T) {
		f := newServiceFixture()
		f.repo.saveErr = errBoom

		_, err := f.svc.Submit(context.Background(), packageFor(t, owner, lawnFields("cashapp"), photo))
		assert.Equal(t, wizard.SubmissionRetryable, submissionKind(t, err))
		assert.Len(t, f.store.deleted, 1)
	})
}

func submitOne(t *testing.T, f *serviceFixture, owner uuid.UUID, method string) wizard.Receipt {
	t.Helper()
	receipt, err := f.svc.Submit(context.Background(), packageFor(t, owner, lawnFields(method)))
	require.NoError(t, err)
	return receipt
}

func TestServiceRequestLifecycle(t *testing.T) {
	ctx := context.Background()
	f := newServiceFixture()
	receipt := submitOne(t, f, uuid.New(), "card")

	dto, err := f.svc.Confirm(ctx, receipt.RequestID)
	require.NoError(t, err)
	assert.Equal(t, "confirmed", dto.Status)
	assert.Equal(t, int64(2), dto.Version)

	_, err = f.svc.Complete(ctx, receipt.RequestID)
	var stateErr *domain.InvalidStateError
	assert.ErrorAs(t, err, &stateErr)

	_, err = f.svc.Start(ctx, receipt.RequestID)
	require.NoError(t, err)
	dto, err = f.svc.Complete(ctx, receipt.RequestID)
	require.NoError(t, err)
	assert.Equal(t, "completed", dto.Status)
	assert.NotNil(t, dto.CompletedAt)

	assert.Equal(t, []string{
		events.ServiceRequestSubmitted,
		events.ServiceRequestConfirmed,
		events.ServiceRequestStarted,
		events.ServiceRequestCompleted,
	}, f.publisher.types())

	stats, err := f.svc.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), stats.TotalRequests)
	assert.Equal(t, int64(1), stats.ByStatus["completed"])
}

func TestCancel_Ownership(t *testing.T) {
	ctx := context.Background()
	f := newServiceFixture()
	owner := uuid.New()
	receipt := submitOne(t, f, owner, "zelle")

	var forbidden *domain.ForbiddenError
	_, err := f.svc.Cancel(ctx, receipt.RequestID, uuid.New(), auth.RoleCustomer, "not mine")
	assert.ErrorAs(t, err, &forbidden)

	dto, err := f.svc.Cancel(ctx, receipt.RequestID, owner, auth.RoleCustomer, "plans changed")
	require.NoError(t, err)
	assert.Equal(t, "cancelled", dto.Status)
	assert.Equal(t, "plans changed", dto.CancelNote)
}

func TestGet_Visibility(t *testing.T) {
	ctx := context.Background()
	f := newServiceFixture()
	owner := uuid.New()
	receipt := submitOne(t, f, owner, "paypal")

	dto, err := f.svc.GetByReference(ctx, receipt.ReferenceID, owner, auth.RoleCustomer)
	require.NoError(t, err)
	assert.Equal(t, "PP-"+receipt.ReferenceID, dto.PaymentReference)

	_, err = f.svc.Get(ctx, receipt.RequestID, uuid.New(), auth.RoleAdmin)
	assert.NoError(t, err)

	var forbidden *domain.ForbiddenError
	_, err = f.svc.Get(ctx, receipt.RequestID, uuid.New(), auth.RoleCustomer)
	assert.ErrorAs(t, err, &forbidden)

	page, err := f.svc.ListOwn(ctx, owner, 0, 0)
	require.NoError(t, err)
	assert.Equal(t, int64(1), page.Total)
	assert.Equal(t, 20, page.Limit)
}

func TestMarkPaid(t *testing.T) {
	ctx := context.Background()
	f := newServiceFixture()
	receipt := submitOne(t, f, uuid.New(), "card")

	var validationErr *domain.ValidationError
	_, err := f.svc.MarkPaid(ctx, receipt.PaymentReference, 100)
	assert.ErrorAs(t, err, &validationErr)

	dto, err := f.svc.MarkPaid(ctx, receipt.PaymentReference, 7500)
	require.NoError(t, err)
	assert.Equal(t, "paid", dto.PaymentStatus)
	assert.NotNil(t, dto.PaidAt)

	again, err := f.svc.MarkPaid(ctx, receipt.PaymentReference, 7500)
	require.NoError(t, err)
	assert.Equal(t, dto.Version, again.Version, "repeat settlement does not write")

	dto, err = f.svc.MarkRefunded(ctx, receipt.PaymentReference)
	require.NoError(t, err)
	assert.Equal(t, "refunded", dto.PaymentStatus)

	var notFound *domain.NotFoundError
	_, err = f.svc.MarkPaymentFailed(ctx, "pi_unknown")
	assert.ErrorAs(t, err, &notFound)
}

func TestCreatePaymentIntent(t *testing.T) {
	ctx := context.Background()
	f := newServiceFixture()
	owner := uuid.New()
	card := submitOne(t, f, owner, "card")
	zelle := submitOne(t, f, owner, "zelle")

	intent, err := f.svc.CreatePaymentIntent(ctx, card.RequestID, owner)
	require.NoError(t, err)
	assert.Equal(t, card.PaymentReference, intent.IntentID)
	assert.Equal(t, int64(7500), intent.AmountCents)

	var validationErr *domain.ValidationError
	_, err = f.svc.CreatePaymentIntent(ctx, zelle.RequestID, owner)
	assert.ErrorAs(t, err, &validationErr)

	var forbidden *domain.ForbiddenError
	_, err = f.svc.CreatePaymentIntent(ctx, card.RequestID, uuid.New())
	assert.ErrorAs(t, err, &forbidden)
}

func TestListAll_StatusFilter(t *testing.T) {
	ctx := context.Background()
	f := newServiceFixture()
	first := submitOne(t, f, uuid.New(), "card")
	submitOne(t, f, uuid.New(), "card")
	_, err := f.svc.Confirm(ctx, first.RequestID)
	require.NoError(t, err)

	page, err := f.svc.ListAll(ctx, "confirmed", 1, 20)
	require.NoError(t, err)
	assert.Equal(t, int64(1), page.Total)

	var validationErr *domain.ValidationError
	_, err = f.svc.ListAll(ctx, "shipped", 1, 20)
	assert.ErrorAs(t, err, &validationErr)
}
