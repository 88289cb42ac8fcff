package wizard

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jayzilla/service-booking/internal/domain/attachment"
	"github.com/jayzilla/service-booking/internal/domain/pricing"
	"github.com/shopspring/decimal"
)

// Submitter accepts a finished booking. It is called at most once per Submit.
type Submitter interface {
	Submit(ctx context.Context, pkg SubmissionPackage) (Receipt, error)
}

// SubmitterFunc adapts a function to Submitter.
type SubmitterFunc func(ctx context.Context, pkg SubmissionPackage) (Receipt, error)

// Submit calls f.
func (f SubmitterFunc) Submit(ctx context.Context, pkg SubmissionPackage) (Receipt, error) {
	return f(ctx, pkg)
}

// SubmissionPackage is everything sent to the Submitter.
type SubmissionPackage struct {
	OwnerID     uuid.UUID
	Fields      map[Field]string
	Attachments []attachment.Staged
	Quote       pricing.Quote
}

// Receipt is returned by a successful submission.
type Receipt struct {
	ReferenceID      string          `json:"reference_id"`
	RequestID        uuid.UUID       `json:"request_id"`
	Total            decimal.Decimal `json:"total"`
	Currency         string          `json:"currency"`
	PaymentMethod    string          `json:"payment_method"`
	PaymentStatus    string          `json:"payment_status"`
	PaymentReference string          `json:"payment_reference,omitempty"`
	ClientSecret     string          `json:"client_secret,omitempty"`
	Instructions     string          `json:"payment_instructions,omitempty"`
}

// SubmissionErrorKind tells the caller whether resubmitting can help.
type SubmissionErrorKind string

const (
	// SubmissionRetryable covers transport, storage and timeout failures.
	SubmissionRetryable SubmissionErrorKind = "retryable"
	// SubmissionRejected means the receiving side refused the data.
	SubmissionRejected SubmissionErrorKind = "rejected"
)

// SubmissionError is returned by Submit when the Submitter fails.
type SubmissionError struct {
	Kind    SubmissionErrorKind
	Message string
	Fields  []FieldError
	Err     error
}

// NewRetryableError wraps a failure that may succeed on resubmission.
func NewRetryableError(message string, err error) *SubmissionError {
	return &SubmissionError{Kind: SubmissionRetryable, Message: message, Err: err}
}

// NewRejectedError reports data refused by the receiving side.
func NewRejectedError(message string, fields []FieldError) *SubmissionError {
	return &SubmissionError{Kind: SubmissionRejected, Message: message, Fields: fields}
}

func (e *SubmissionError) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *SubmissionError) Unwrap() error { return e.Err }

// Retryable reports whether resubmitting the same draft may succeed.
func (e *SubmissionError) Retryable() bool { return e.Kind == SubmissionRetryable }

func classifySubmissionError(err error) *SubmissionError {
	var subErr *SubmissionError
	if errors.As(err, &subErr) {
		return subErr
	}
	return NewRetryableError("submission failed, please try again", err)
}
