package servicerequest

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"time"

	"github.com/google/uuid"
	"github.com/jayzilla/service-booking/internal/domain/catalog"
	"github.com/jayzilla/service-booking/internal/domain/pricing"
	"github.com/jayzilla/service-booking/internal/platform/domain"
	"github.com/shopspring/decimal"
)

const referenceChars = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"

// ServiceRequest is the aggregate root for a submitted booking.
type ServiceRequest struct {
	id              uuid.UUID
	referenceNumber string
	ownerID         uuid.UUID
	status          Status
	spec            ServiceSpec
	contact         Contact
	location        Location
	preferredDate   time.Time
	notes           string

	lineItems []pricing.LineItem
	total     decimal.Decimal
	currency  string

	paymentMethod    catalog.PaymentMethod
	paymentStatus    PaymentStatus
	paymentReference string

	confirmedAt *time.Time
	startedAt   *time.Time
	completedAt *time.Time
	cancelledAt *time.Time
	paidAt      *time.Time
	cancelNote  string

	version   int64
	createdAt time.Time
	updatedAt time.Time
}

// generateReferenceNumber creates a reference number in the format "SR-XXXXXX".
func generateReferenceNumber() (string, error) {
	result := make([]byte, 6)
	for i := range result {
		n, err := rand.Int(rand.Reader, big.NewInt(int64(len(referenceChars))))
		if err != nil {
			return "", fmt.Errorf("failed to generate reference number: %w", err)
		}
		result[i] = referenceChars[n.Int64()]
	}
	return "SR-" + string(result), nil
}

// NewServiceRequest creates a new ServiceRequest with status=pending and payment pending.
func NewServiceRequest(
	ownerID uuid.UUID,
	spec ServiceSpec,
	contact Contact,
	location Location,
	preferredDate time.Time,
	notes string,
	quote pricing.Quote,
	paymentMethod catalog.PaymentMethod,
) (*ServiceRequest, error) {
	if ownerID == uuid.Nil {
		return nil, domain.NewValidationError("owner ID is required")
	}
	if !spec.Category.IsValid() {
		return nil, domain.NewValidationError(fmt.Sprintf("invalid service category: %s", spec.Category))
	}
	if !catalog.ValidSubType(spec.Category, spec.SubType) {
		return nil, domain.NewValidationError(fmt.Sprintf("invalid service type: %s", spec.SubType))
	}
	if !catalog.ValidTier(spec.Category, spec.Tier) {
		return nil, domain.NewValidationError(fmt.Sprintf("invalid size or condition: %s", spec.Tier))
	}
	if contact.Name == "" || contact.Email == "" || contact.Phone == "" {
		return nil, domain.NewValidationError("name, email and phone are required")
	}
	if location.Address == "" {
		return nil, domain.NewValidationError("address is required")
	}
	if preferredDate.IsZero() {
		return nil, domain.NewValidationError("preferred date is required")
	}
	if !paymentMethod.IsValid() {
		return nil, domain.NewValidationError(fmt.Sprintf("invalid payment method: %s", paymentMethod))
	}
	if len(quote.Items) == 0 || !quote.Total.IsPositive() {
		return nil, domain.NewValidationError("quote total must be positive")
	}

	reference, err := generateReferenceNumber()
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	return &ServiceRequest{
		id:              uuid.New(),
		referenceNumber: reference,
		ownerID:         ownerID,
		status:          StatusPending,
		spec:            spec,
		contact:         contact,
		location:        location,
		preferredDate:   preferredDate,
		notes:           notes,
		lineItems:       append([]pricing.LineItem(nil), quote.Items...),
		total:           quote.Total,
		currency:        quote.Currency,
		paymentMethod:   paymentMethod,
		paymentStatus:   PaymentPending,
		version:         1,
		createdAt:       now,
		updatedAt:       now,
	}, nil
}

// ReconstructServiceRequest rebuilds a ServiceRequest from persistence data (no validation).
func ReconstructServiceRequest(
	id uuid.UUID,
	referenceNumber string,
	ownerID uuid.UUID,
	status Status,
	spec ServiceSpec,
	contact Contact,
	location Location,
	preferredDate time.Time,
	notes string,
	lineItems []pricing.LineItem,
	total decimal.Decimal,
	currency string,
	paymentMethod catalog.PaymentMethod,
	paymentStatus PaymentStatus,
	paymentReference string,
	confirmedAt *time.Time,
	startedAt *time.Time,
	completedAt *time.Time,
	cancelledAt *time.Time,
	paidAt *time.Time,
	cancelNote string,
	version int64,
	createdAt time.Time,
	updatedAt time.Time,
) *ServiceRequest {
	return &ServiceRequest{
		id:               id,
		referenceNumber:  referenceNumber,
		ownerID:          ownerID,
		status:           status,
		spec:             spec,
		contact:          contact,
		location:         location,
		preferredDate:    preferredDate,
		notes:            notes,
		lineItems:        lineItems,
		total:            total,
		currency:         currency,
		paymentMethod:    paymentMethod,
		paymentStatus:    paymentStatus,
		paymentReference: paymentReference,
		confirmedAt:      confirmedAt,
		startedAt:        startedAt,
		completedAt:      completedAt,
		cancelledAt:      cancelledAt,
		paidAt:           paidAt,
		cancelNote:       cancelNote,
		version:          version,
		createdAt:        createdAt,
		updatedAt:        updatedAt,
	}
}

// --- Getters ---

// ID returns the request's unique identifier.
func (r *ServiceRequest) ID() uuid.UUID { return r.id }

// ReferenceNumber returns the customer-facing reference.
func (r *ServiceRequest) ReferenceNumber() string { return r.referenceNumber }

// OwnerID returns the customer's user ID.
func (r *ServiceRequest) OwnerID() uuid.UUID { return r.ownerID }

// Status returns the current lifecycle status.
func (r *ServiceRequest) Status() Status { return r.status }

// Spec returns the requested service.
func (r *ServiceRequest) Spec() ServiceSpec { return r.spec }

// Contact returns the contact details.
func (r *ServiceRequest) Contact() Contact { return r.contact }

// Location returns the service location.
func (r *ServiceRequest) Location() Location { return r.location }

// PreferredDate returns the requested service date.
func (r *ServiceRequest) PreferredDate() time.Time { return r.preferredDate }

// Notes returns the customer's notes.
func (r *ServiceRequest) Notes() string { return r.notes }

// LineItems returns the priced line items.
func (r *ServiceRequest) LineItems() []pricing.LineItem { return r.lineItems }

// Total returns the quoted total.
func (r *ServiceRequest) Total() decimal.Decimal { return r.total }

// TotalCents returns the total rounded to cents.
func (r *ServiceRequest) TotalCents() int64 {
	return pricing.Quote{Total: r.total}.TotalCents()
}

// Currency returns the currency code.
func (r *ServiceRequest) Currency() string { return r.currency }

// PaymentMethod returns the chosen payment method.
func (r *ServiceRequest) PaymentMethod() catalog.PaymentMethod { return r.paymentMethod }

// PaymentStatus returns the settlement status.
func (r *ServiceRequest) PaymentStatus() PaymentStatus { return r.paymentStatus }

// PaymentReference returns the processor or manual payment reference.
func (r *ServiceRequest) PaymentReference() string { return r.paymentReference }

// ConfirmedAt returns when the request was confirmed.
func (r *ServiceRequest) ConfirmedAt() *time.Time { return r.confirmedAt }

// StartedAt returns when work started.
func (r *ServiceRequest) StartedAt() *time.Time { return r.startedAt }

// CompletedAt returns when work completed.
func (r *ServiceRequest) CompletedAt() *time.Time { return r.completedAt }

// CancelledAt returns when the request was cancelled.
func (r *ServiceRequest) CancelledAt() *time.Time { return r.cancelledAt }

// PaidAt returns when payment settled.
func (r *ServiceRequest) PaidAt() *time.Time { return r.paidAt }

// CancelNote returns the cancellation reason.
func (r *ServiceRequest) CancelNote() string { return r.cancelNote }

// Version returns the entity version for optimistic locking.
func (r *ServiceRequest) Version() int64 { return r.version }

// CreatedAt returns the creation timestamp.
func (r *ServiceRequest) CreatedAt() time.Time { return r.createdAt }

// UpdatedAt returns the last-updated timestamp.
func (r *ServiceRequest) UpdatedAt() time.Time { return r.updatedAt }

// --- Behavior ---

// Confirm transitions the request from pending to confirmed.
func (r *ServiceRequest) Confirm() error {
	at, err := r.transition(StatusConfirmed)
	if err != nil {
		return err
	}
	r.confirmedAt = &at
	return nil
}

// Start transitions the request from confirmed to in_progress.
func (r *ServiceRequest) Start() error {
	at, err := r.transition(StatusInProgress)
	if err != nil {
		return err
	}
	r.startedAt = &at
	return nil
}

// Complete transitions the request from in_progress to completed.
func (r *ServiceRequest) Complete() error {
	at, err := r.transition(StatusCompleted)
	if err != nil {
		return err
	}
	r.completedAt = &at
	return nil
}

// Cancel transitions the request to cancelled if it is not in a terminal state.
func (r *ServiceRequest) Cancel(reason string) error {
	at, err := r.transition(StatusCancelled)
	if err != nil {
		return err
	}
	r.cancelNote = reason
	r.cancelledAt = &at
	return nil
}

// AttachPaymentReference records the processor or manual reference once.
func (r *ServiceRequest) AttachPaymentReference(reference string) error {
	if reference == "" {
		return domain.NewValidationError("payment reference is required")
	}
	if r.paymentReference != "" && r.paymentReference != reference {
		return domain.NewConflictError("payment reference already set")
	}
	r.paymentReference = reference
	r.updatedAt = time.Now().UTC()
	return nil
}

// MarkPaid records settlement. Repeating it on a paid request is a no-op.
func (r *ServiceRequest) MarkPaid() error {
	if r.paymentStatus == PaymentPaid {
		return nil
	}
	at, err := r.transitionPayment(PaymentPaid)
	if err != nil {
		return err
	}
	r.paidAt = &at
	return nil
}

// MarkPaymentFailed records a declined or failed payment.
func (r *ServiceRequest) MarkPaymentFailed() error {
	if r.paymentStatus == PaymentFailed {
		return nil
	}
	_, err := r.transitionPayment(PaymentFailed)
	return err
}

// Refund records that a settled payment was returned.
func (r *ServiceRequest) Refund() error {
	_, err := r.transitionPayment(PaymentRefunded)
	return err
}

// IncrementVersion bumps the version for optimistic locking.
func (r *ServiceRequest) IncrementVersion() {
	r.version++
	r.updatedAt = time.Now().UTC()
}

func (r *ServiceRequest) transition(target Status) (time.Time, error) {
	if !r.status.CanTransitionTo(target) {
		return time.Time{}, domain.NewInvalidStateError(string(r.status), string(target))
	}
	now := time.Now().UTC()
	r.status = target
	r.updatedAt = now
	return now, nil
}

func (r *ServiceRequest) transitionPayment(target PaymentStatus) (time.Time, error) {
	if !r.paymentStatus.CanTransitionTo(target) {
		return time.Time{}, domain.NewInvalidStateError("payment "+string(r.paymentStatus), "payment "+string(target))
	}
	now := time.Now().UTC()
	r.paymentStatus = target
	r.updatedAt = now
	return now, nil
}
