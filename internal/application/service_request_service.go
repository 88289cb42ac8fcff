package application

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/jayzilla/service-booking/internal/contracts/events"
	"github.com/jayzilla/service-booking/internal/domain/attachment"
	"github.com/jayzilla/service-booking/internal/domain/catalog"
	"github.com/jayzilla/service-booking/internal/domain/pricing"
	"github.com/jayzilla/service-booking/internal/domain/servicerequest"
	"github.com/jayzilla/service-booking/internal/domain/wizard"
	"github.com/jayzilla/service-booking/internal/payment"
	"github.com/jayzilla/service-booking/internal/platform/auth"
	"github.com/jayzilla/service-booking/internal/platform/domain"
	"github.com/jayzilla/service-booking/internal/platform/kafka"
	"github.com/jayzilla/service-booking/internal/storage"
	"go.uber.org/zap"
)

const eventSource = "service-booking"

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	if err := v.RegisterValidation("positive_number", func(fl validator.FieldLevel) bool {
		return wizard.IsPositiveNumber(fl.Field().String())
	}); err != nil {
		panic(err)
	}
	return v
}

// EventPublisher publishes CloudEvents to a topic.
type EventPublisher interface {
	PublishEvent(ctx context.Context, topic string, event kafka.CloudEvent) error
}

// submissionForm is the server-side shape check of a submission package.
type submissionForm struct {
	Category      string `validate:"required,oneof=transportation lawncare"`
	SubType       string `validate:"required"`
	Tier          string `validate:"required"`
	Measure       string `validate:"required,positive_number"`
	Name          string `validate:"required,max=100"`
	Email         string `validate:"required,email"`
	Phone         string `validate:"required,min=10,max=20"`
	Address       string `validate:"required,max=300"`
	State         string `validate:"omitempty,max=50"`
	PreferredDate string `validate:"required,datetime=2006-01-02"`
	Notes         string `validate:"max=2000"`
	PaymentMethod string `validate:"required,oneof=card paypal cashapp zelle"`
}

// ServiceRequestService is the application service orchestrating service request use cases.
type ServiceRequestService struct {
	repo        servicerequest.Repository
	attachments attachment.Repository
	store       storage.Store
	gateway     payment.Gateway
	manual      payment.ManualConfig
	calc        pricing.Calculator
	publisher   EventPublisher
	logger      *zap.Logger
}

// NewServiceRequestService creates a new ServiceRequestService. gateway may be nil
// when card payments are not configured.
func NewServiceRequestService(
	repo servicerequest.Repository,
	attachments attachment.Repository,
	store storage.Store,
	gateway payment.Gateway,
	manual payment.ManualConfig,
	calc pricing.Calculator,
	publisher EventPublisher,
	logger *zap.Logger,
) *ServiceRequestService {
	return &ServiceRequestService{
		repo:        repo,
		attachments: attachments,
		store:       store,
		gateway:     gateway,
		manual:      manual,
		calc:        calc,
		publisher:   publisher,
		logger:      logger,
	}
}

// Submit accepts a finished wizard package. It implements wizard.Submitter.
// Refused data yields a rejected SubmissionError; infrastructure failures yield a retryable one.
func (s *ServiceRequestService) Submit(ctx context.Context, pkg wizard.SubmissionPackage) (wizard.Receipt, error) {
	in := wizard.PricingInputFrom(pkg.Fields)
	form := submissionForm{
		Category:      string(in.Category),
		SubType:       in.SubType,
		Tier:          in.Tier,
		Measure:       in.Measure,
		Name:          pkg.Fields[wizard.FieldName],
		Email:         pkg.Fields[wizard.FieldEmail],
		Phone:         pkg.Fields[wizard.FieldPhone],
		Address:       pkg.Fields[wizard.FieldAddress],
		State:         pkg.Fields[wizard.FieldState],
		PreferredDate: pkg.Fields[wizard.FieldPreferredDate],
		Notes:         pkg.Fields[wizard.FieldNotes],
		PaymentMethod: pkg.Fields[wizard.FieldPaymentMethod],
	}
	if err := validate.Struct(form); err != nil {
		return wizard.Receipt{}, wizard.NewRejectedError("The request was rejected. Review the highlighted fields.", formErrors(in.Category, err))
	}

	quote := s.calc.Quote(in)
	if quote == nil {
		return wizard.Receipt{}, wizard.NewRejectedError("The price could not be calculated.", nil)
	}
	if !quote.Equal(pkg.Quote) {
		s.logger.Warn("submitted quote does not match server price",
			zap.String("client_total", pkg.Quote.Total.String()),
			zap.String("server_total", quote.Total.String()),
		)
		return wizard.Receipt{}, wizard.NewRejectedError("Prices have changed. Review the updated total and submit again.", nil)
	}

	preferredDate, err := time.Parse(wizard.DateLayout, form.PreferredDate)
	if err != nil {
		return wizard.Receipt{}, wizard.NewRejectedError("Invalid preferred date.", []wizard.FieldError{{Field: wizard.FieldPreferredDate, Message: "use YYYY-MM-DD"}})
	}

	method := catalog.PaymentMethod(form.PaymentMethod)
	req, err := servicerequest.NewServiceRequest(
		pkg.OwnerID,
		servicerequest.ServiceSpec{Category: in.Category, SubType: in.SubType, Tier: in.Tier, Measure: in.Measure},
		servicerequest.Contact{Name: form.Name, Email: form.Email, Phone: form.Phone},
		servicerequest.Location{Address: form.Address, State: form.State},
		preferredDate,
		form.Notes,
		*quote,
		method,
	)
	if err != nil {
		return wizard.Receipt{}, wizard.NewRejectedError(err.Error(), nil)
	}

	stored, err := s.uploadAttachments(ctx, req, pkg.Attachments)
	if err != nil {
		return wizard.Receipt{}, wizard.NewRetryableError("Uploading your photos failed. Please try again.", err)
	}

	receipt := wizard.Receipt{
		ReferenceID:   req.ReferenceNumber(),
		RequestID:     req.ID(),
		Total:         req.Total(),
		Currency:      req.Currency(),
		PaymentMethod: string(method),
	}
	if method.IsManual() {
		reference := payment.ManualReference(method, req.ReferenceNumber())
		if err := req.AttachPaymentReference(reference); err != nil {
			return wizard.Receipt{}, err
		}
		receipt.Instructions = s.manual.Instructions(method, pricing.FormatAmount(req.Total()), reference)
	} else {
		intent, err := s.createIntent(ctx, req)
		if err != nil {
			s.discard(ctx, stored)
			return wizard.Receipt{}, wizard.NewRetryableError("Payment could not be started. Please try again.", err)
		}
		if err := req.AttachPaymentReference(intent.ID); err != nil {
			return wizard.Receipt{}, err
		}
		receipt.ClientSecret = intent.ClientSecret
	}

	if err := s.repo.Save(ctx, req); err != nil {
		s.discard(ctx, stored)
		return wizard.Receipt{}, wizard.NewRetryableError("Saving your request failed. Please try again.", err)
	}

	if len(stored) > 0 {
		if err := s.attachments.SaveAll(ctx, stored); err != nil {
			s.logger.Error("failed to save attachment records",
				zap.String("reference", req.ReferenceNumber()),
				zap.Error(err),
			)
		}
	}

	s.publishSubmitted(ctx, req, len(stored))

	receipt.PaymentStatus = string(req.PaymentStatus())
	receipt.PaymentReference = req.PaymentReference()
	s.logger.Info("service request submitted",
		zap.String("reference", req.ReferenceNumber()),
		zap.String("category", string(in.Category)),
		zap.String("payment_method", string(method)),
	)
	return receipt, nil
}

// Get retrieves a request visible to the caller. Customers only see their own.
func (s *ServiceRequestService) Get(ctx context.Context, id, userID uuid.UUID, role auth.Role) (*ServiceRequestDTO, error) {
	req, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return s.visible(ctx, req, userID, role)
}

// GetByReference retrieves a request by its reference number.
func (s *ServiceRequestService) GetByReference(ctx context.Context, reference string, userID uuid.UUID, role auth.Role) (*ServiceRequestDTO, error) {
	req, err := s.repo.FindByReference(ctx, reference)
	if err != nil {
		return nil, err
	}
	return s.visible(ctx, req, userID, role)
}

// ListOwn retrieves paginated requests for a customer.
func (s *ServiceRequestService) ListOwn(ctx context.Context, ownerID uuid.UUID, page, limit int) (*domain.PaginatedResult[ServiceRequestDTO], error) {
	page, limit = domain.NormalizePage(page, limit)
	reqs, total, err := s.repo.FindByOwnerID(ctx, ownerID, page, limit)
	if err != nil {
		return nil, err
	}

	dtos := make([]ServiceRequestDTO, len(reqs))
	for i, r := range reqs {
		dtos[i] = toServiceRequestDTO(r, nil)
	}
	result := domain.NewPaginatedResult(dtos, total, page, limit)
	return &result, nil
}

// Confirm accepts a pending request (admin).
func (s *ServiceRequestService) Confirm(ctx context.Context, id uuid.UUID) (*ServiceRequestDTO, error) {
	return s.transition(ctx, id, events.ServiceRequestConfirmed, "", (*servicerequest.ServiceRequest).Confirm)
}

// Start marks work as started (admin).
func (s *ServiceRequestService) Start(ctx context.Context, id uuid.UUID) (*ServiceRequestDTO, error) {
	return s.transition(ctx, id, events.ServiceRequestStarted, "", (*servicerequest.ServiceRequest).Start)
}

// Complete marks work as done (admin).
func (s *ServiceRequestService) Complete(ctx context.Context, id uuid.UUID) (*ServiceRequestDTO, error) {
	return s.transition(ctx, id, events.ServiceRequestCompleted, "", (*servicerequest.ServiceRequest).Complete)
}

// Cancel cancels a non-terminal request. Customers may only cancel their own.
func (s *ServiceRequestService) Cancel(ctx context.Context, id, userID uuid.UUID, role auth.Role, reason string) (*ServiceRequestDTO, error) {
	req, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if role != auth.RoleAdmin && req.OwnerID() != userID {
		return nil, domain.NewForbiddenError("service request does not belong to this user")
	}
	return s.apply(ctx, req, events.ServiceRequestCancelled, reason, func(r *servicerequest.ServiceRequest) error {
		return r.Cancel(reason)
	})
}

// ListAll returns a paginated list of all requests, optionally filtered by status (admin).
func (s *ServiceRequestService) ListAll(ctx context.Context, status string, page, limit int) (*domain.PaginatedResult[ServiceRequestDTO], error) {
	var filter servicerequest.Status
	if status != "" {
		parsed, err := servicerequest.ParseStatus(status)
		if err != nil {
			return nil, domain.NewValidationError(err.Error())
		}
		filter = parsed
	}

	page, limit = domain.NormalizePage(page, limit)
	reqs, total, err := s.repo.ListAll(ctx, filter, page, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list service requests: %w", err)
	}

	dtos := make([]ServiceRequestDTO, len(reqs))
	for i, r := range reqs {
		dtos[i] = toServiceRequestDTO(r, nil)
	}
	result := domain.NewPaginatedResult(dtos, total, page, limit)
	return &result, nil
}

// Stats returns aggregate request counts (admin).
func (s *ServiceRequestService) Stats(ctx context.Context) (*StatsDTO, error) {
	counts, err := s.repo.CountByStatus(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get service request stats: %w", err)
	}

	var total int64
	for _, c := range counts {
		total += c
	}
	return &StatsDTO{TotalRequests: total, ByStatus: counts}, nil
}

// CreatePaymentIntent (re)initiates card payment for an unpaid request.
func (s *ServiceRequestService) CreatePaymentIntent(ctx context.Context, id, userID uuid.UUID) (*PaymentIntentDTO, error) {
	req, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if req.OwnerID() != userID {
		return nil, domain.NewForbiddenError("service request does not belong to this user")
	}
	if req.PaymentMethod() != catalog.PaymentCard {
		return nil, domain.NewValidationError(fmt.Sprintf("%s payments are settled manually", req.PaymentMethod().Label()))
	}
	if req.PaymentStatus() == servicerequest.PaymentPaid || req.PaymentStatus() == servicerequest.PaymentRefunded {
		return nil, domain.NewInvalidStateError("payment "+string(req.PaymentStatus()), "payment pending")
	}
	if req.Status().IsTerminal() {
		return nil, domain.NewInvalidStateError(string(req.Status()), "payment pending")
	}

	intent, err := s.createIntent(ctx, req)
	if err != nil {
		return nil, err
	}
	if intent.ID != req.PaymentReference() {
		if err := req.AttachPaymentReference(intent.ID); err != nil {
			return nil, err
		}
		req.IncrementVersion()
		if err := s.repo.Update(ctx, req); err != nil {
			return nil, err
		}
	}

	return &PaymentIntentDTO{
		RequestID:    req.ID(),
		IntentID:     intent.ID,
		ClientSecret: intent.ClientSecret,
		AmountCents:  req.TotalCents(),
		Currency:     req.Currency(),
	}, nil
}

// MarkPaid settles the request a payment reference belongs to. amountCents of 0 skips
// the amount check. Repeated calls are no-ops.
func (s *ServiceRequestService) MarkPaid(ctx context.Context, paymentReference string, amountCents int64) (*ServiceRequestDTO, error) {
	req, err := s.repo.FindByPaymentReference(ctx, paymentReference)
	if err != nil {
		return nil, err
	}
	if req.PaymentStatus() == servicerequest.PaymentPaid {
		result := toServiceRequestDTO(req, nil)
		return &result, nil
	}
	if amountCents != 0 && amountCents != req.TotalCents() {
		return nil, domain.NewValidationError(fmt.Sprintf("paid amount %d does not match total %d", amountCents, req.TotalCents()))
	}

	if err := req.MarkPaid(); err != nil {
		return nil, err
	}
	req.IncrementVersion()
	if err := s.repo.Update(ctx, req); err != nil {
		return nil, err
	}

	evt := events.ServiceRequestPaidEvent{
		RequestID:        req.ID(),
		ReferenceNumber:  req.ReferenceNumber(),
		PaymentMethod:    string(req.PaymentMethod()),
		PaymentReference: req.PaymentReference(),
		TotalCents:       req.TotalCents(),
		PaidAt:           *req.PaidAt(),
	}
	s.publishEvent(ctx, events.TopicServiceRequestEvents, events.ServiceRequestPaid, req.ID().String(), evt)

	s.logger.Info("service request paid",
		zap.String("reference", req.ReferenceNumber()),
		zap.String("payment_reference", paymentReference),
	)
	result := toServiceRequestDTO(req, nil)
	return &result, nil
}

// MarkPaymentFailed records a failed payment.
func (s *ServiceRequestService) MarkPaymentFailed(ctx context.Context, paymentReference string) (*ServiceRequestDTO, error) {
	return s.paymentUpdate(ctx, paymentReference, (*servicerequest.ServiceRequest).MarkPaymentFailed)
}

// MarkRefunded records a refund.
func (s *ServiceRequestService) MarkRefunded(ctx context.Context, paymentReference string) (*ServiceRequestDTO, error) {
	return s.paymentUpdate(ctx, paymentReference, (*servicerequest.ServiceRequest).Refund)
}

// --- Helpers ---

func (s *ServiceRequestService) visible(ctx context.Context, req *servicerequest.ServiceRequest, userID uuid.UUID, role auth.Role) (*ServiceRequestDTO, error) {
	if role != auth.RoleAdmin && req.OwnerID() != userID {
		return nil, domain.NewForbiddenError("service request does not belong to this user")
	}
	atts, err := s.attachments.FindByRequestID(ctx, req.ID())
	if err != nil {
		return nil, fmt.Errorf("failed to load attachments: %w", err)
	}
	result := toServiceRequestDTO(req, atts)
	return &result, nil
}

func (s *ServiceRequestService) transition(ctx context.Context, id uuid.UUID, eventType, reason string, fn func(*servicerequest.ServiceRequest) error) (*ServiceRequestDTO, error) {
	req, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return s.apply(ctx, req, eventType, reason, fn)
}

func (s *ServiceRequestService) apply(ctx context.Context, req *servicerequest.ServiceRequest, eventType, reason string, fn func(*servicerequest.ServiceRequest) error) (*ServiceRequestDTO, error) {
	if err := fn(req); err != nil {
		return nil, err
	}
	req.IncrementVersion()
	if err := s.repo.Update(ctx, req); err != nil {
		return nil, err
	}

	evt := events.ServiceRequestStatusChangedEvent{
		RequestID:       req.ID(),
		ReferenceNumber: req.ReferenceNumber(),
		OwnerID:         req.OwnerID(),
		Status:          string(req.Status()),
		Reason:          reason,
		ChangedAt:       req.UpdatedAt(),
	}
	s.publishEvent(ctx, events.TopicServiceRequestEvents, eventType, req.ID().String(), evt)

	result := toServiceRequestDTO(req, nil)
	return &result, nil
}

func (s *ServiceRequestService) paymentUpdate(ctx context.Context, paymentReference string, fn func(*servicerequest.ServiceRequest) error) (*ServiceRequestDTO, error) {
	req, err := s.repo.FindByPaymentReference(ctx, paymentReference)
	if err != nil {
		return nil, err
	}
	before := req.PaymentStatus()
	if err := fn(req); err != nil {
		return nil, err
	}
	if req.PaymentStatus() != before {
		req.IncrementVersion()
		if err := s.repo.Update(ctx, req); err != nil {
			return nil, err
		}
		s.logger.Info("payment status changed",
			zap.String("reference", req.ReferenceNumber()),
			zap.String("from", string(before)),
			zap.String("to", string(req.PaymentStatus())),
		)
	}
	result := toServiceRequestDTO(req, nil)
	return &result, nil
}

func (s *ServiceRequestService) createIntent(ctx context.Context, req *servicerequest.ServiceRequest) (*payment.Intent, error) {
	if s.gateway == nil {
		return nil, domain.NewUnavailableError("card payments are not configured", nil)
	}
	intent, err := s.gateway.CreateIntent(ctx, payment.IntentRequest{
		AmountCents:  req.TotalCents(),
		Currency:     req.Currency(),
		RequestID:    req.ID().String(),
		Reference:    req.ReferenceNumber(),
		ReceiptEmail: req.Contact().Email,
	})
	if err != nil {
		return nil, domain.NewUnavailableError("payment processor unavailable", err)
	}
	return intent, nil
}

func (s *ServiceRequestService) uploadAttachments(ctx context.Context, req *servicerequest.ServiceRequest, files []attachment.Staged) ([]*attachment.Attachment, error) {
	stored := make([]*attachment.Attachment, 0, len(files))
	for i, f := range files {
		obj, err := s.store.Put(ctx, req.ReferenceNumber(), f)
		if err != nil {
			s.discard(ctx, stored)
			return nil, err
		}
		att, err := attachment.NewAttachment(req.ID(), i, f.Filename, f.ContentType, f.Size, obj.URL, obj.Key)
		if err != nil {
			s.discard(ctx, stored)
			return nil, err
		}
		stored = append(stored, att)
	}
	return stored, nil
}

func (s *ServiceRequestService) discard(ctx context.Context, stored []*attachment.Attachment) {
	for _, a := range stored {
		if err := s.store.Delete(ctx, a.StorageKey()); err != nil {
			s.logger.Warn("failed to remove orphaned attachment",
				zap.String("key", a.StorageKey()),
				zap.Error(err),
			)
		}
	}
}

func (s *ServiceRequestService) publishSubmitted(ctx context.Context, req *servicerequest.ServiceRequest, attachmentCount int) {
	items := make([]events.LineItem, len(req.LineItems()))
	for i, li := range req.LineItems() {
		items[i] = events.LineItem{Label: li.Label, Amount: li.Amount.String()}
	}
	evt := events.ServiceRequestSubmittedEvent{
		RequestID:        req.ID(),
		ReferenceNumber:  req.ReferenceNumber(),
		OwnerID:          req.OwnerID(),
		Category:         string(req.Spec().Category),
		ServiceType:      req.Spec().SubType,
		CustomerName:     req.Contact().Name,
		CustomerEmail:    req.Contact().Email,
		CustomerPhone:    req.Contact().Phone,
		Address:          req.Location().Address,
		PreferredDate:    req.PreferredDate().Format(wizard.DateLayout),
		LineItems:        items,
		Total:            req.Total().String(),
		TotalCents:       req.TotalCents(),
		Currency:         req.Currency(),
		PaymentMethod:    string(req.PaymentMethod()),
		PaymentStatus:    string(req.PaymentStatus()),
		PaymentReference: req.PaymentReference(),
		AttachmentCount:  attachmentCount,
		SubmittedAt:      req.CreatedAt(),
	}
	s.publishEvent(ctx, events.TopicServiceRequestEvents, events.ServiceRequestSubmitted, req.ID().String(), evt)
}

func (s *ServiceRequestService) publishEvent(ctx context.Context, topic, eventType, key string, data interface{}) {
	cloudEvent, err := kafka.NewCloudEvent(eventSource, eventType, data)
	if err != nil {
		s.logger.Error("failed to create cloud event",
			zap.String("event_type", eventType),
			zap.Error(err),
		)
		return
	}

	if err := s.publisher.PublishEvent(ctx, topic, cloudEvent.WithSubject(key)); err != nil {
		s.logger.Error("failed to publish event",
			zap.String("topic", topic),
			zap.String("event_type", eventType),
			zap.Error(err),
		)
	}
}

// formErrors maps validator failures onto wizard fields under the active category.
func formErrors(category catalog.Category, err error) []wizard.FieldError {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return nil
	}

	sub := wizard.CategoryFields(category)
	names := map[string]wizard.Field{
		"Category":      wizard.FieldCategory,
		"Name":          wizard.FieldName,
		"Email":         wizard.FieldEmail,
		"Phone":         wizard.FieldPhone,
		"Address":       wizard.FieldAddress,
		"State":         wizard.FieldState,
		"PreferredDate": wizard.FieldPreferredDate,
		"Notes":         wizard.FieldNotes,
		"PaymentMethod": wizard.FieldPaymentMethod,
	}
	// category fields are ordered sub type, measure, tier
	if len(sub) == 3 {
		names["SubType"] = sub[0]
		names["Measure"] = sub[1]
		names["Tier"] = sub[2]
	}

	out := make([]wizard.FieldError, 0, len(verrs))
	for _, fe := range verrs {
		field, ok := names[fe.Field()]
		if !ok {
			field = wizard.Field(fe.Field())
		}
		out = append(out, wizard.FieldError{Field: field, Message: fmt.Sprintf("failed %s check", fe.Tag())})
	}
	return out
}
