package application

import (
	"context"
	"errors"
	"sort"
	"sync"

	"github.com/google/uuid"
	"github.com/jayzilla/service-booking/internal/domain/attachment"
	"github.com/jayzilla/service-booking/internal/domain/servicerequest"
	"github.com/jayzilla/service-booking/internal/payment"
	"github.com/jayzilla/service-booking/internal/platform/domain"
	"github.com/jayzilla/service-booking/internal/platform/kafka"
	"github.com/jayzilla/service-booking/internal/storage"
)

type memRequestRepo struct {
	mu      sync.Mutex
	byID    map[uuid.UUID]*servicerequest.ServiceRequest
	saveErr error
}

func newMemRequestRepo() *memRequestRepo {
	return &memRequestRepo{byID: make(map[uuid.UUID]*servicerequest.ServiceRequest)}
}

func (r *memRequestRepo) FindByID(_ context.Context, id uuid.UUID) (*servicerequest.ServiceRequest, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	req, ok := r.byID[id]
	if !ok {
		return nil, domain.NewNotFoundError("service_request", id.String())
	}
	return req, nil
}

func (r *memRequestRepo) find(match func(*servicerequest.ServiceRequest) bool, key string) (*servicerequest.ServiceRequest, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, req := range r.byID {
		if match(req) {
			return req, nil
		}
	}
	return nil, domain.NewNotFoundError("service_request", key)
}

func (r *memRequestRepo) FindByReference(_ context.Context, ref string) (*servicerequest.ServiceRequest, error) {
	return r.find(func(req *servicerequest.ServiceRequest) bool { return req.ReferenceNumber() == ref }, ref)
}

func (r *memRequestRepo) FindByPaymentReference(_ context.Context, ref string) (*servicerequest.ServiceRequest, error) {
	return r.find(func(req *servicerequest.ServiceRequest) bool { return req.PaymentReference() == ref }, ref)
}

func (r *memRequestRepo) list(match func(*servicerequest.ServiceRequest) bool) []*servicerequest.ServiceRequest {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*servicerequest.ServiceRequest
	for _, req := range r.byID {
		if match(req) {
			out = append(out, req)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt().After(out[j].CreatedAt()) })
	return out
}

func (r *memRequestRepo) FindByOwnerID(_ context.Context, owner uuid.UUID, _, _ int) ([]*servicerequest.ServiceRequest, int64, error) {
	out := r.list(func(req *servicerequest.ServiceRequest) bool { return req.OwnerID() == owner })
	return out, int64(len(out)), nil
}

func (r *memRequestRepo) ListAll(_ context.Context, status servicerequest.Status, _, _ int) ([]*servicerequest.ServiceRequest, int64, error) {
	out := r.list(func(req *servicerequest.ServiceRequest) bool { return status == "" || req.Status() == status })
	return out, int64(len(out)), nil
}

func (r *memRequestRepo) CountByStatus(_ context.Context) (map[string]int64, error) {
	counts := map[string]int64{}
	for _, req := range r.list(func(*servicerequest.ServiceRequest) bool { return true }) {
		counts[string(req.Status())]++
	}
	return counts, nil
}

func (r *memRequestRepo) Save(_ context.Context, req *servicerequest.ServiceRequest) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.saveErr != nil {
		return r.saveErr
	}
	r.byID[req.ID()] = req
	return nil
}

func (r *memRequestRepo) Update(_ context.Context, req *servicerequest.ServiceRequest) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.byID[req.ID()] = req
	return nil
}

type memAttachmentRepo struct {
	saved []*attachment.Attachment
}

func (r *memAttachmentRepo) SaveAll(_ context.Context, atts []*attachment.Attachment) error {
	r.saved = append(r.saved, atts...)
	return nil
}

func (r *memAttachmentRepo) FindByRequestID(_ context.Context, id uuid.UUID) ([]*attachment.Attachment, error) {
	var out []*attachment.Attachment
	for _, a := range r.saved {
		if a.RequestID() == id {
			out = append(out, a)
		}
	}
	return out, nil
}

type fakeStore struct {
	puts    []string
	deleted []string
	err     error
}

func (s *fakeStore) Put(_ context.Context, folder string, f attachment.Staged) (storage.Object, error) {
	if s.err != nil {
		return storage.Object{}, s.err
	}
	key := folder + "/" + f.Filename
	s.puts = append(s.puts, key)
	return storage.Object{Key: key, URL: "https://cdn.test/" + key}, nil
}

func (s *fakeStore) Delete(_ context.Context, key string) error {
	s.deleted = append(s.deleted, key)
	return nil
}

type fakeGateway struct {
	requests []payment.IntentRequest
	err      error
}

func (g *fakeGateway) CreateIntent(_ context.Context, req payment.IntentRequest) (*payment.Intent, error) {
	if g.err != nil {
		return nil, g.err
	}
	g.requests = append(g.requests, req)
	return &payment.Intent{ID: "pi_" + req.RequestID[:8], ClientSecret: "secret_" + req.RequestID[:8], Status: "requires_payment_method"}, nil
}

type fakePublisher struct {
	mu     sync.Mutex
	events []kafka.CloudEvent
}

func (p *fakePublisher) PublishEvent(_ context.Context, _ string, evt kafka.CloudEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, evt)
	return nil
}

func (p *fakePublisher) types() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, len(p.events))
	for i, e := range p.events {
		out[i] = e.Type
	}
	return out
}

var errBoom = errors.New("boom")
