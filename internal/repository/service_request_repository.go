package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jayzilla/service-booking/internal/domain/catalog"
	"github.com/jayzilla/service-booking/internal/domain/pricing"
	"github.com/jayzilla/service-booking/internal/domain/servicerequest"
	"github.com/jayzilla/service-booking/internal/platform/domain"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// ServiceRequestModel is the GORM model for the service_requests table.
type ServiceRequestModel struct {
	ID               uuid.UUID       `gorm:"type:uuid;primaryKey"`
	ReferenceNumber  string          `gorm:"uniqueIndex;not null;size:20"`
	OwnerID          uuid.UUID       `gorm:"type:uuid;index;not null"`
	Status           string          `gorm:"not null;size:30;index"`
	Category         string          `gorm:"not null;size:30;index"`
	Service          json.RawMessage `gorm:"type:jsonb;not null"`
	Contact          json.RawMessage `gorm:"type:jsonb;not null"`
	Location         json.RawMessage `gorm:"type:jsonb;not null"`
	PreferredDate    time.Time       `gorm:"type:date;not null"`
	Notes            string          `gorm:"size:2000"`
	LineItems        json.RawMessage `gorm:"type:jsonb;not null"`
	Total            decimal.Decimal `gorm:"type:numeric(12,4);not null"`
	TotalCents       int64           `gorm:"not null"`
	Currency         string          `gorm:"not null;size:3;default:'USD'"`
	PaymentMethod    string          `gorm:"not null;size:20"`
	PaymentStatus    string          `gorm:"not null;size:20;index"`
	PaymentReference string          `gorm:"size:100;index"`
	ConfirmedAt      *time.Time      `gorm:""`
	StartedAt        *time.Time      `gorm:""`
	CompletedAt      *time.Time      `gorm:""`
	CancelledAt      *time.Time      `gorm:""`
	PaidAt           *time.Time      `gorm:""`
	CancelNote       string          `gorm:"size:500"`
	Version          int64           `gorm:"not null;default:1"`
	CreatedAt        time.Time       `gorm:"not null"`
	UpdatedAt        time.Time       `gorm:"not null"`
}

// TableName returns the table name for the GORM model.
func (ServiceRequestModel) TableName() string {
	return "service_requests"
}

// GormServiceRequestRepository is the GORM-based implementation of servicerequest.Repository.
type GormServiceRequestRepository struct {
	db *gorm.DB
}

// NewGormServiceRequestRepository creates a new GormServiceRequestRepository.
func NewGormServiceRequestRepository(db *gorm.DB) *GormServiceRequestRepository {
	return &GormServiceRequestRepository{db: db}
}

// FindByID retrieves a request by its unique identifier.
func (r *GormServiceRequestRepository) FindByID(ctx context.Context, id uuid.UUID) (*servicerequest.ServiceRequest, error) {
	return r.findOne(ctx, "id = ?", id, id.String())
}

// FindByReference retrieves a request by its reference number.
func (r *GormServiceRequestRepository) FindByReference(ctx context.Context, reference string) (*servicerequest.ServiceRequest, error) {
	return r.findOne(ctx, "reference_number = ?", reference, reference)
}

// FindByPaymentReference retrieves the request a payment belongs to.
func (r *GormServiceRequestRepository) FindByPaymentReference(ctx context.Context, paymentReference string) (*servicerequest.ServiceRequest, error) {
	return r.findOne(ctx, "payment_reference = ?", paymentReference, paymentReference)
}

func (r *GormServiceRequestRepository) findOne(ctx context.Context, query string, arg interface{}, key string) (*servicerequest.ServiceRequest, error) {
	var model ServiceRequestModel
	if err := r.db.WithContext(ctx).Where(query, arg).First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.NewNotFoundError("ServiceRequest", key)
		}
		return nil, fmt.Errorf("failed to find service request: %w", err)
	}
	return toDomainServiceRequest(&model)
}

// FindByOwnerID retrieves requests for a specific owner with pagination.
func (r *GormServiceRequestRepository) FindByOwnerID(ctx context.Context, ownerID uuid.UUID, page, limit int) ([]*servicerequest.ServiceRequest, int64, error) {
	return r.page(r.db.WithContext(ctx).Where("owner_id = ?", ownerID), page, limit)
}

// ListAll retrieves all requests with pagination, optionally filtered by status (admin).
func (r *GormServiceRequestRepository) ListAll(ctx context.Context, status servicerequest.Status, page, limit int) ([]*servicerequest.ServiceRequest, int64, error) {
	q := r.db.WithContext(ctx)
	if status != "" {
		q = q.Where("status = ?", string(status))
	}
	return r.page(q, page, limit)
}

func (r *GormServiceRequestRepository) page(q *gorm.DB, page, limit int) ([]*servicerequest.ServiceRequest, int64, error) {
	var total int64
	if err := q.Session(&gorm.Session{}).Model(&ServiceRequestModel{}).Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count service requests: %w", err)
	}

	var models []ServiceRequestModel
	offset := (page - 1) * limit
	if err := q.Session(&gorm.Session{}).
		Order("created_at DESC").
		Offset(offset).
		Limit(limit).
		Find(&models).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to list service requests: %w", err)
	}

	reqs := make([]*servicerequest.ServiceRequest, len(models))
	for i := range models {
		req, err := toDomainServiceRequest(&models[i])
		if err != nil {
			return nil, 0, err
		}
		reqs[i] = req
	}
	return reqs, total, nil
}

// CountByStatus returns request counts grouped by status (admin).
func (r *GormServiceRequestRepository) CountByStatus(ctx context.Context) (map[string]int64, error) {
	type statusCount struct {
		Status string
		Count  int64
	}
	var results []statusCount
	if err := r.db.WithContext(ctx).Model(&ServiceRequestModel{}).
		Select("status, count(*) as count").
		Group("status").
		Find(&results).Error; err != nil {
		return nil, fmt.Errorf("failed to count by status: %w", err)
	}

	counts := make(map[string]int64)
	for _, sc := range results {
		counts[sc.Status] = sc.Count
	}
	return counts, nil
}

// Save persists a new request.
func (r *GormServiceRequestRepository) Save(ctx context.Context, req *servicerequest.ServiceRequest) error {
	model, err := toServiceRequestModel(req)
	if err != nil {
		return fmt.Errorf("failed to convert service request to model: %w", err)
	}
	if err := r.db.WithContext(ctx).Create(model).Error; err != nil {
		return fmt.Errorf("failed to save service request: %w", err)
	}
	return nil
}

// Update persists changes with optimistic locking. The aggregate's version has
// already been incremented, so the stored row must hold version-1.
func (r *GormServiceRequestRepository) Update(ctx context.Context, req *servicerequest.ServiceRequest) error {
	model, err := toServiceRequestModel(req)
	if err != nil {
		return fmt.Errorf("failed to convert service request to model: %w", err)
	}

	expectedVersion := req.Version() - 1
	result := r.db.WithContext(ctx).
		Model(&ServiceRequestModel{}).
		Where("id = ? AND version = ?", model.ID, expectedVersion).
		Updates(map[string]interface{}{
			"status":            model.Status,
			"payment_status":    model.PaymentStatus,
			"payment_reference": model.PaymentReference,
			"confirmed_at":      model.ConfirmedAt,
			"started_at":        model.StartedAt,
			"completed_at":      model.CompletedAt,
			"cancelled_at":      model.CancelledAt,
			"paid_at":           model.PaidAt,
			"cancel_note":       model.CancelNote,
			"version":           model.Version,
			"updated_at":        model.UpdatedAt,
		})

	if result.Error != nil {
		return fmt.Errorf("failed to update service request: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return domain.NewConflictError("service request was modified by another transaction")
	}
	return nil
}

// --- Conversion Helpers ---

func toServiceRequestModel(req *servicerequest.ServiceRequest) (*ServiceRequestModel, error) {
	serviceJSON, err := json.Marshal(req.Spec())
	if err != nil {
		return nil, fmt.Errorf("failed to marshal service spec: %w", err)
	}
	contactJSON, err := json.Marshal(req.Contact())
	if err != nil {
		return nil, fmt.Errorf("failed to marshal contact: %w", err)
	}
	locationJSON, err := json.Marshal(req.Location())
	if err != nil {
		return nil, fmt.Errorf("failed to marshal location: %w", err)
	}
	itemsJSON, err := json.Marshal(req.LineItems())
	if err != nil {
		return nil, fmt.Errorf("failed to marshal line items: %w", err)
	}

	return &ServiceRequestModel{
		ID:               req.ID(),
		ReferenceNumber:  req.ReferenceNumber(),
		OwnerID:          req.OwnerID(),
		Status:           string(req.Status()),
		Category:         string(req.Spec().Category),
		Service:          serviceJSON,
		Contact:          contactJSON,
		Location:         locationJSON,
		PreferredDate:    req.PreferredDate(),
		Notes:            req.Notes(),
		LineItems:        itemsJSON,
		Total:            req.Total(),
		TotalCents:       req.TotalCents(),
		Currency:         req.Currency(),
		PaymentMethod:    string(req.PaymentMethod()),
		PaymentStatus:    string(req.PaymentStatus()),
		PaymentReference: req.PaymentReference(),
		ConfirmedAt:      req.ConfirmedAt(),
		StartedAt:        req.StartedAt(),
		CompletedAt:      req.CompletedAt(),
		CancelledAt:      req.CancelledAt(),
		PaidAt:           req.PaidAt(),
		CancelNote:       req.CancelNote(),
		Version:          req.Version(),
		CreatedAt:        req.CreatedAt(),
		UpdatedAt:        req.UpdatedAt(),
	}, nil
}

func toDomainServiceRequest(m *ServiceRequestModel) (*servicerequest.ServiceRequest, error) {
	var spec servicerequest.ServiceSpec
	if err := json.Unmarshal(m.Service, &spec); err != nil {
		return nil, fmt.Errorf("failed to unmarshal service spec: %w", err)
	}
	var contact servicerequest.Contact
	if err := json.Unmarshal(m.Contact, &contact); err != nil {
		return nil, fmt.Errorf("failed to unmarshal contact: %w", err)
	}
	var location servicerequest.Location
	if err := json.Unmarshal(m.Location, &location); err != nil {
		return nil, fmt.Errorf("failed to unmarshal location: %w", err)
	}
	var items []pricing.LineItem
	if err := json.Unmarshal(m.LineItems, &items); err != nil {
		return nil, fmt.Errorf("failed to unmarshal line items: %w", err)
	}

	status, err := servicerequest.ParseStatus(m.Status)
	if err != nil {
		return nil, err
	}

	return servicerequest.ReconstructServiceRequest(
		m.ID,
		m.ReferenceNumber,
		m.OwnerID,
		status,
		spec,
		contact,
		location,
		m.PreferredDate,
		m.Notes,
		items,
		m.Total,
		m.Currency,
		catalog.PaymentMethod(m.PaymentMethod),
		servicerequest.PaymentStatus(m.PaymentStatus),
		m.PaymentReference,
		m.ConfirmedAt,
		m.StartedAt,
		m.CompletedAt,
		m.CancelledAt,
		m.PaidAt,
		m.CancelNote,
		m.Version,
		m.CreatedAt,
		m.UpdatedAt,
	), nil
}
