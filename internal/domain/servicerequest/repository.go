package servicerequest

import (
	"context"

	"github.com/google/uuid"
)

// Repository defines the persistence contract for service request aggregates.
type Repository interface {
	// FindByID retrieves a request by its unique identifier.
	FindByID(ctx context.Context, id uuid.UUID) (*ServiceRequest, error)

	// FindByReference retrieves a request by its customer-facing reference number.
	FindByReference(ctx context.Context, reference string) (*ServiceRequest, error)

	// FindByPaymentReference retrieves the request a payment belongs to.
	FindByPaymentReference(ctx context.Context, paymentReference string) (*ServiceRequest, error)

	// FindByOwnerID retrieves requests belonging to a customer with pagination.
	FindByOwnerID(ctx context.Context, ownerID uuid.UUID, page, limit int) ([]*ServiceRequest, int64, error)

	// ListAll retrieves all requests with pagination, optionally filtered by status (admin).
	ListAll(ctx context.Context, status Status, page, limit int) ([]*ServiceRequest, int64, error)

	// CountByStatus returns request counts grouped by status (admin).
	CountByStatus(ctx context.Context) (map[string]int64, error)

	// Save persists a new request.
	Save(ctx context.Context, req *ServiceRequest) error

	// Update persists changes to an existing request with optimistic locking.
	// The request's version must already be incremented.
	Update(ctx context.Context, req *ServiceRequest) error
}
