package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jayzilla/service-booking/internal/domain/attachment"
	"github.com/jayzilla/service-booking/internal/domain/catalog"
	"github.com/jayzilla/service-booking/internal/domain/pricing"
	"github.com/jayzilla/service-booking/internal/domain/servicerequest"
	"github.com/jayzilla/service-booking/internal/platform/domain"
	"github.com/shopspring/decimal"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const (
	serviceRequestCollection = "service_requests"
	attachmentCollection     = "attachments"
)

type lineItemDocument struct {
	Label  string `bson:"label"`
	Amount string `bson:"amount"`
}

// serviceRequestDocument is the stored shape of a service request. IDs are strings.
type serviceRequestDocument struct {
	ID               string                     `bson:"_id"`
	ReferenceNumber  string                     `bson:"reference_number"`
	OwnerID          string                     `bson:"owner_id"`
	Status           string                     `bson:"status"`
	Service          servicerequest.ServiceSpec `bson:"service"`
	Contact          servicerequest.Contact     `bson:"contact"`
	Location         servicerequest.Location    `bson:"location"`
	PreferredDate    time.Time                  `bson:"preferred_date"`
	Notes            string                     `bson:"notes,omitempty"`
	LineItems        []lineItemDocument         `bson:"line_items"`
	Total            string                     `bson:"total"`
	TotalCents       int64                      `bson:"total_cents"`
	Currency         string                     `bson:"currency"`
	PaymentMethod    string                     `bson:"payment_method"`
	PaymentStatus    string                     `bson:"payment_status"`
	PaymentReference string                     `bson:"payment_reference,omitempty"`
	ConfirmedAt      *time.Time                 `bson:"confirmed_at,omitempty"`
	StartedAt        *time.Time                 `bson:"started_at,omitempty"`
	CompletedAt      *time.Time                 `bson:"completed_at,omitempty"`
	CancelledAt      *time.Time                 `bson:"cancelled_at,omitempty"`
	PaidAt           *time.Time                 `bson:"paid_at,omitempty"`
	CancelNote       string                     `bson:"cancel_note,omitempty"`
	Version          int64                      `bson:"version"`
	CreatedAt        time.Time                  `bson:"created_at"`
	UpdatedAt        time.Time                  `bson:"updated_at"`
}

// MongoServiceRequestRepository implements servicerequest.Repository on MongoDB.
type MongoServiceRequestRepository struct {
	coll *mongo.Collection
}

// NewMongoServiceRequestRepository creates the repository and its indexes.
func NewMongoServiceRequestRepository(ctx context.Context, db *mongo.Database) (*MongoServiceRequestRepository, error) {
	r := &MongoServiceRequestRepository{coll: db.Collection(serviceRequestCollection)}
	indexes := []mongo.IndexModel{
		{Keys: bson.D{{Key: "reference_number", Value: 1}}, Options: options.Index().SetUnique(true)},
		{Keys: bson.D{{Key: "owner_id", Value: 1}, {Key: "created_at", Value: -1}}},
		{Keys: bson.D{{Key: "status", Value: 1}}},
		{Keys: bson.D{{Key: "payment_reference", Value: 1}}, Options: options.Index().SetSparse(true)},
	}
	if _, err := r.coll.Indexes().CreateMany(ctx, indexes); err != nil {
		return nil, fmt.Errorf("failed to create service request indexes: %w", err)
	}
	return r, nil
}

func (r *MongoServiceRequestRepository) FindByID(ctx context.Context, id uuid.UUID) (*servicerequest.ServiceRequest, error) {
	return r.findOne(ctx, bson.M{"_id": id.String()}, id.String())
}

func (r *MongoServiceRequestRepository) FindByReference(ctx context.Context, reference string) (*servicerequest.ServiceRequest, error) {
	return r.findOne(ctx, bson.M{"reference_number": reference}, reference)
}

func (r *MongoServiceRequestRepository) FindByPaymentReference(ctx context.Context, paymentReference string) (*servicerequest.ServiceRequest, error) {
	return r.findOne(ctx, bson.M{"payment_reference": paymentReference}, paymentReference)
}

func (r *MongoServiceRequestRepository) findOne(ctx context.Context, filter bson.M, key string) (*servicerequest.ServiceRequest, error) {
	var doc serviceRequestDocument
	if err := r.coll.FindOne(ctx, filter).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.NewNotFoundError("ServiceRequest", key)
		}
		return nil, fmt.Errorf("failed to find service request: %w", err)
	}
	return fromServiceRequestDocument(&doc)
}

func (r *MongoServiceRequestRepository) FindByOwnerID(ctx context.Context, ownerID uuid.UUID, page, limit int) ([]*servicerequest.ServiceRequest, int64, error) {
	return r.page(ctx, bson.M{"owner_id": ownerID.String()}, page, limit)
}

func (r *MongoServiceRequestRepository) ListAll(ctx context.Context, status servicerequest.Status, page, limit int) ([]*servicerequest.ServiceRequest, int64, error) {
	filter := bson.M{}
	if status != "" {
		filter["status"] = string(status)
	}
	return r.page(ctx, filter, page, limit)
}

func (r *MongoServiceRequestRepository) page(ctx context.Context, filter bson.M, page, limit int) ([]*servicerequest.ServiceRequest, int64, error) {
	total, err := r.coll.CountDocuments(ctx, filter)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to count service requests: %w", err)
	}

	opts := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: -1}}).
		SetSkip(int64((page - 1) * limit)).
		SetLimit(int64(limit))
	cursor, err := r.coll.Find(ctx, filter, opts)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list service requests: %w", err)
	}
	defer cursor.Close(ctx)

	var docs []serviceRequestDocument
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, 0, fmt.Errorf("failed to decode service requests: %w", err)
	}

	reqs := make([]*servicerequest.ServiceRequest, len(docs))
	for i := range docs {
		req, err := fromServiceRequestDocument(&docs[i])
		if err != nil {
			return nil, 0, err
		}
		reqs[i] = req
	}
	return reqs, total, nil
}

func (r *MongoServiceRequestRepository) CountByStatus(ctx context.Context) (map[string]int64, error) {
	pipeline := mongo.Pipeline{
		{{Key: "$group", Value: bson.D{{Key: "_id", Value: "$status"}, {Key: "count", Value: bson.D{{Key: "$sum", Value: 1}}}}}},
	}
	cursor, err := r.coll.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, fmt.Errorf("failed to count by status: %w", err)
	}
	defer cursor.Close(ctx)

	var rows []struct {
		Status string `bson:"_id"`
		Count  int64  `bson:"count"`
	}
	if err := cursor.All(ctx, &rows); err != nil {
		return nil, fmt.Errorf("failed to decode status counts: %w", err)
	}

	counts := make(map[string]int64, len(rows))
	for _, row := range rows {
		counts[row.Status] = row.Count
	}
	return counts, nil
}

func (r *MongoServiceRequestRepository) Save(ctx context.Context, req *servicerequest.ServiceRequest) error {
	if _, err := r.coll.InsertOne(ctx, toServiceRequestDocument(req)); err != nil {
		return fmt.Errorf("failed to save service request: %w", err)
	}
	return nil
}

// Update replaces the document when the stored version is the one the aggregate was loaded at.
func (r *MongoServiceRequestRepository) Update(ctx context.Context, req *servicerequest.ServiceRequest) error {
	filter := bson.M{"_id": req.ID().String(), "version": req.Version() - 1}
	result, err := r.coll.ReplaceOne(ctx, filter, toServiceRequestDocument(req))
	if err != nil {
		return fmt.Errorf("failed to update service request: %w", err)
	}
	if result.MatchedCount == 0 {
		return domain.NewConflictError("service request was modified by another transaction")
	}
	return nil
}

func toServiceRequestDocument(req *servicerequest.ServiceRequest) serviceRequestDocument {
	items := make([]lineItemDocument, len(req.LineItems()))
	for i, li := range req.LineItems() {
		items[i] = lineItemDocument{Label: li.Label, Amount: li.Amount.String()}
	}
	return serviceRequestDocument{
		ID:               req.ID().String(),
		ReferenceNumber:  req.ReferenceNumber(),
		OwnerID:          req.OwnerID().String(),
		Status:           string(req.Status()),
		Service:          req.Spec(),
		Contact:          req.Contact(),
		Location:         req.Location(),
		PreferredDate:    req.PreferredDate(),
		Notes:            req.Notes(),
		LineItems:        items,
		Total:            req.Total().String(),
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
	}
}

func fromServiceRequestDocument(doc *serviceRequestDocument) (*servicerequest.ServiceRequest, error) {
	id, err := uuid.Parse(doc.ID)
	if err != nil {
		return nil, fmt.Errorf("invalid service request id %q: %w", doc.ID, err)
	}
	ownerID, err := uuid.Parse(doc.OwnerID)
	if err != nil {
		return nil, fmt.Errorf("invalid owner id %q: %w", doc.OwnerID, err)
	}
	status, err := servicerequest.ParseStatus(doc.Status)
	if err != nil {
		return nil, err
	}
	total, err := decimal.NewFromString(doc.Total)
	if err != nil {
		return nil, fmt.Errorf("invalid total %q: %w", doc.Total, err)
	}
	items := make([]pricing.LineItem, len(doc.LineItems))
	for i, li := range doc.LineItems {
		amount, err := decimal.NewFromString(li.Amount)
		if err != nil {
			return nil, fmt.Errorf("invalid line item amount %q: %w", li.Amount, err)
		}
		items[i] = pricing.LineItem{Label: li.Label, Amount: amount}
	}

	return servicerequest.ReconstructServiceRequest(
		id,
		doc.ReferenceNumber,
		ownerID,
		status,
		doc.Service,
		doc.Contact,
		doc.Location,
		doc.PreferredDate.UTC(),
		doc.Notes,
		items,
		total,
		doc.Currency,
		catalog.PaymentMethod(doc.PaymentMethod),
		servicerequest.PaymentStatus(doc.PaymentStatus),
		doc.PaymentReference,
		doc.ConfirmedAt,
		doc.StartedAt,
		doc.CompletedAt,
		doc.CancelledAt,
		doc.PaidAt,
		doc.CancelNote,
		doc.Version,
		doc.CreatedAt.UTC(),
		doc.UpdatedAt.UTC(),
	), nil
}

type attachmentDocument struct {
	ID          string    `bson:"_id"`
	RequestID   string    `bson:"request_id"`
	Position    int       `bson:"position"`
	Filename    string    `bson:"filename"`
	ContentType string    `bson:"content_type"`
	Size        int64     `bson:"size"`
	URL         string    `bson:"url"`
	StorageKey  string    `bson:"storage_key"`
	CreatedAt   time.Time `bson:"created_at"`
}

// MongoAttachmentRepository implements attachment.Repository on MongoDB.
type MongoAttachmentRepository struct {
	coll *mongo.Collection
}

// NewMongoAttachmentRepository creates a new MongoAttachmentRepository.
func NewMongoAttachmentRepository(db *mongo.Database) *MongoAttachmentRepository {
	return &MongoAttachmentRepository{coll: db.Collection(attachmentCollection)}
}

func (r *MongoAttachmentRepository) SaveAll(ctx context.Context, atts []*attachment.Attachment) error {
	if len(atts) == 0 {
		return nil
	}
	docs := make([]interface{}, len(atts))
	for i, a := range atts {
		docs[i] = attachmentDocument{
			ID:          a.ID().String(),
			RequestID:   a.RequestID().String(),
			Position:    a.Position(),
			Filename:    a.Filename(),
			ContentType: a.ContentType(),
			Size:        a.Size(),
			URL:         a.URL(),
			StorageKey:  a.StorageKey(),
			CreatedAt:   a.CreatedAt(),
		}
	}
	if _, err := r.coll.InsertMany(ctx, docs); err != nil {
		return fmt.Errorf("failed to save attachments: %w", err)
	}
	return nil
}

func (r *MongoAttachmentRepository) FindByRequestID(ctx context.Context, requestID uuid.UUID) ([]*attachment.Attachment, error) {
	cursor, err := r.coll.Find(ctx, bson.M{"request_id": requestID.String()},
		options.Find().SetSort(bson.D{{Key: "position", Value: 1}}))
	if err != nil {
		return nil, fmt.Errorf("failed to find attachments: %w", err)
	}
	defer cursor.Close(ctx)

	var docs []attachmentDocument
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("failed to decode attachments: %w", err)
	}

	atts := make([]*attachment.Attachment, 0, len(docs))
	for _, d := range docs {
		id, err := uuid.Parse(d.ID)
		if err != nil {
			return nil, fmt.Errorf("invalid attachment id %q: %w", d.ID, err)
		}
		atts = append(atts, attachment.Reconstruct(id, requestID, d.Position, d.Filename, d.ContentType, d.Size, d.URL, d.StorageKey, d.CreatedAt.UTC()))
	}
	return atts, nil
}
