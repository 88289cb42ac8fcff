package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jayzilla/service-booking/internal/domain/attachment"
	"gorm.io/gorm"
)

// AttachmentModel is the GORM model for the service_request_attachments table.
type AttachmentModel struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey"`
	RequestID   uuid.UUID `gorm:"type:uuid;not null;index"`
	Position    int       `gorm:"not null"`
	Filename    string    `gorm:"type:varchar(255);not null"`
	ContentType string    `gorm:"type:varchar(100);not null"`
	Size        int64     `gorm:"not null"`
	URL         string    `gorm:"type:text;not null"`
	StorageKey  string    `gorm:"type:text;not null"`
	CreatedAt   time.Time `gorm:"not null"`
}

// TableName sets the table name.
func (AttachmentModel) TableName() string { return "service_request_attachments" }

// GormAttachmentRepository implements attachment.Repository using GORM.
type GormAttachmentRepository struct {
	db *gorm.DB
}

// NewGormAttachmentRepository creates a new GormAttachmentRepository.
func NewGormAttachmentRepository(db *gorm.DB) *GormAttachmentRepository {
	return &GormAttachmentRepository{db: db}
}

// SaveAll persists a request's attachments in one statement.
func (r *GormAttachmentRepository) SaveAll(ctx context.Context, atts []*attachment.Attachment) error {
	if len(atts) == 0 {
		return nil
	}
	models := make([]AttachmentModel, len(atts))
	for i, a := range atts {
		models[i] = toAttachmentModel(a)
	}
	if err := r.db.WithContext(ctx).Create(&models).Error; err != nil {
		return fmt.Errorf("failed to save attachments: %w", err)
	}
	return nil
}

// FindByRequestID returns a request's attachments in upload order.
func (r *GormAttachmentRepository) FindByRequestID(ctx context.Context, requestID uuid.UUID) ([]*attachment.Attachment, error) {
	var models []AttachmentModel
	if err := r.db.WithContext(ctx).Where("request_id = ?", requestID).Order("position ASC").Find(&models).Error; err != nil {
		return nil, fmt.Errorf("failed to find attachments: %w", err)
	}

	atts := make([]*attachment.Attachment, len(models))
	for i := range models {
		atts[i] = toAttachmentDomain(&models[i])
	}
	return atts, nil
}

func toAttachmentModel(a *attachment.Attachment) AttachmentModel {
	return AttachmentModel{
		ID:          a.ID(),
		RequestID:   a.RequestID(),
		Position:    a.Position(),
		Filename:    a.Filename(),
		ContentType: a.ContentType(),
		Size:        a.Size(),
		URL:         a.URL(),
		StorageKey:  a.StorageKey(),
		CreatedAt:   a.CreatedAt(),
	}
}

func toAttachmentDomain(m *AttachmentModel) *attachment.Attachment {
	return attachment.Reconstruct(
		m.ID,
		m.RequestID,
		m.Position,
		m.Filename,
		m.ContentType,
		m.Size,
		m.URL,
		m.StorageKey,
		m.CreatedAt,
	)
}
