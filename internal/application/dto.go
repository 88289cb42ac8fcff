package application

import (
	"time"

	"github.com/google/uuid"
	"github.com/jayzilla/service-booking/internal/domain/attachment"
	"github.com/jayzilla/service-booking/internal/domain/pricing"
	"github.com/jayzilla/service-booking/internal/domain/servicerequest"
)

// LineItemDTO is a priced row rendered for clients.
type LineItemDTO struct {
	Label   string `json:"label"`
	Amount  string `json:"amount"`
	Display string `json:"display"`
}

// AttachmentDTO is a stored attachment.
type AttachmentDTO struct {
	ID          uuid.UUID `json:"id"`
	Filename    string    `json:"filename"`
	ContentType string    `json:"content_type"`
	Size        int64     `json:"size"`
	URL         string    `json:"url"`
	Position    int       `json:"position"`
}

// ServiceRequestDTO is the response representation of a service request.
type ServiceRequestDTO struct {
	ID               uuid.UUID                  `json:"id"`
	ReferenceNumber  string                     `json:"reference_number"`
	OwnerID          uuid.UUID                  `json:"owner_id"`
	Status           string                     `json:"status"`
	Service          servicerequest.ServiceSpec `json:"service"`
	Contact          servicerequest.Contact     `json:"contact"`
	Location         servicerequest.Location    `json:"location"`
	PreferredDate    string                     `json:"preferred_date"`
	Notes            string                     `json:"notes,omitempty"`
	LineItems        []LineItemDTO              `json:"line_items"`
	Total            string                     `json:"total"`
	TotalCents       int64                      `json:"total_cents"`
	Currency         string                     `json:"currency"`
	PaymentMethod    string                     `json:"payment_method"`
	PaymentStatus    string                     `json:"payment_status"`
	PaymentReference string                     `json:"payment_reference,omitempty"`
	Attachments      []AttachmentDTO            `json:"attachments,omitempty"`
	ConfirmedAt      *time.Time                 `json:"confirmed_at,omitempty"`
	StartedAt        *time.Time                 `json:"started_at,omitempty"`
	CompletedAt      *time.Time                 `json:"completed_at,omitempty"`
	CancelledAt      *time.Time                 `json:"cancelled_at,omitempty"`
	PaidAt           *time.Time                 `json:"paid_at,omitempty"`
	CancelNote       string                     `json:"cancel_note,omitempty"`
	Version          int64                      `json:"version"`
	CreatedAt        time.Time                  `json:"created_at"`
	UpdatedAt        time.Time                  `json:"updated_at"`
}

// StatsDTO holds service request statistics for the admin dashboard.
type StatsDTO struct {
	TotalRequests int64            `json:"total_requests"`
	ByStatus      map[string]int64 `json:"by_status"`
}

// PaymentIntentDTO is returned when a card payment is (re)initiated.
type PaymentIntentDTO struct {
	RequestID    uuid.UUID `json:"request_id"`
	IntentID     string    `json:"intent_id"`
	ClientSecret string    `json:"client_secret"`
	AmountCents  int64     `json:"amount_cents"`
	Currency     string    `json:"currency"`
}

func toLineItemDTOs(items []pricing.LineItem) []LineItemDTO {
	out := make([]LineItemDTO, len(items))
	for i, li := range items {
		out[i] = LineItemDTO{
			Label:   li.Label,
			Amount:  li.Amount.String(),
			Display: pricing.FormatAmount(li.Amount),
		}
	}
	return out
}

func toAttachmentDTOs(atts []*attachment.Attachment) []AttachmentDTO {
	if len(atts) == 0 {
		return nil
	}
	out := make([]AttachmentDTO, len(atts))
	for i, a := range atts {
		out[i] = AttachmentDTO{
			ID:          a.ID(),
			Filename:    a.Filename(),
			ContentType: a.ContentType(),
			Size:        a.Size(),
			URL:         a.URL(),
			Position:    a.Position(),
		}
	}
	return out
}

func toServiceRequestDTO(r *servicerequest.ServiceRequest, atts []*attachment.Attachment) ServiceRequestDTO {
	return ServiceRequestDTO{
		ID:               r.ID(),
		ReferenceNumber:  r.ReferenceNumber(),
		OwnerID:          r.OwnerID(),
		Status:           string(r.Status()),
		Service:          r.Spec(),
		Contact:          r.Contact(),
		Location:         r.Location(),
		PreferredDate:    r.PreferredDate().Format("2006-01-02"),
		Notes:            r.Notes(),
		LineItems:        toLineItemDTOs(r.LineItems()),
		Total:            r.Total().String(),
		TotalCents:       r.TotalCents(),
		Currency:         r.Currency(),
		PaymentMethod:    string(r.PaymentMethod()),
		PaymentStatus:    string(r.PaymentStatus()),
		PaymentReference: r.PaymentReference(),
		Attachments:      toAttachmentDTOs(atts),
		ConfirmedAt:      r.ConfirmedAt(),
		StartedAt:        r.StartedAt(),
		CompletedAt:      r.CompletedAt(),
		CancelledAt:      r.CancelledAt(),
		PaidAt:           r.PaidAt(),
		CancelNote:       r.CancelNote(),
		Version:          r.Version(),
		CreatedAt:        r.CreatedAt(),
		UpdatedAt:        r.UpdatedAt(),
	}
}
