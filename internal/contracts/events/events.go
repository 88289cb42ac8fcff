// Package events defines the Kafka topics, CloudEvent types and payloads
// exchanged by the booking service.
package events

import (
	"time"

	"github.com/google/uuid"
)

// Topics.
const (
	TopicServiceRequestEvents = "service-request.events"
	TopicPaymentEvents        = "payment.events"
)

// Service request event types.
const (
	ServiceRequestSubmitted = "service_request.submitted"
	ServiceRequestConfirmed = "service_request.confirmed"
	ServiceRequestStarted   = "service_request.started"
	ServiceRequestCompleted = "service_request.completed"
	ServiceRequestCancelled = "service_request.cancelled"
	ServiceRequestPaid      = "service_request.paid"
)

// Payment event types.
const (
	PaymentSucceeded       = "payment.succeeded"
	PaymentFailed          = "payment.failed"
	PaymentManualConfirmed = "payment.manual_confirmed"
	PaymentRefunded        = "payment.refunded"
)

// LineItem is a priced row carried on the wire as a decimal string.
type LineItem struct {
	Label  string `json:"label"`
	Amount string `json:"amount"`
}

// ServiceRequestSubmittedEvent is published after a request is persisted.
type ServiceRequestSubmittedEvent struct {
	RequestID        uuid.UUID  `json:"request_id"`
	ReferenceNumber  string     `json:"reference_number"`
	OwnerID          uuid.UUID  `json:"owner_id"`
	Category         string     `json:"category"`
	ServiceType      string     `json:"service_type"`
	CustomerName     string     `json:"customer_name"`
	CustomerEmail    string     `json:"customer_email"`
	CustomerPhone    string     `json:"customer_phone"`
	Address          string     `json:"address"`
	PreferredDate    string     `json:"preferred_date"`
	LineItems        []LineItem `json:"line_items"`
	Total            string     `json:"total"`
	TotalCents       int64      `json:"total_cents"`
	Currency         string     `json:"currency"`
	PaymentMethod    string     `json:"payment_method"`
	PaymentStatus    string     `json:"payment_status"`
	PaymentReference string     `json:"payment_reference"`
	AttachmentCount  int        `json:"attachment_count"`
	SubmittedAt      time.Time  `json:"submitted_at"`
}

// ServiceRequestStatusChangedEvent is published on every lifecycle transition.
type ServiceRequestStatusChangedEvent struct {
	RequestID       uuid.UUID `json:"request_id"`
	ReferenceNumber string    `json:"reference_number"`
	OwnerID         uuid.UUID `json:"owner_id"`
	Status          string    `json:"status"`
	Reason          string    `json:"reason,omitempty"`
	ChangedAt       time.Time `json:"changed_at"`
}

// ServiceRequestPaidEvent is published when payment settles.
type ServiceRequestPaidEvent struct {
	RequestID        uuid.UUID `json:"request_id"`
	ReferenceNumber  string    `json:"reference_number"`
	PaymentMethod    string    `json:"payment_method"`
	PaymentReference string    `json:"payment_reference"`
	TotalCents       int64     `json:"total_cents"`
	PaidAt           time.Time `json:"paid_at"`
}

// PaymentEvent is consumed from the payment topic. Manual confirmations are
// produced by back-office reconciliation of PayPal, Cash App and Zelle transfers.
type PaymentEvent struct {
	PaymentReference string    `json:"payment_reference"`
	AmountCents      int64     `json:"amount_cents"`
	Currency         string    `json:"currency"`
	OccurredAt       time.Time `json:"occurred_at"`
}
