package attachment

import (
	"context"

	"github.com/google/uuid"
)

// Repository defines persistence operations for stored attachments.
type Repository interface {
	SaveAll(ctx context.Context, attachments []*Attachment) error
	FindByRequestID(ctx context.Context, requestID uuid.UUID) ([]*Attachment, error)
}
