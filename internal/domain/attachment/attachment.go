package attachment

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Attachment is a stored image belonging to a service request.
type Attachment struct {
	id          uuid.UUID
	requestID   uuid.UUID
	filename    string
	contentType string
	size        int64
	url         string
	storageKey  string
	position    int
	createdAt   time.Time
}

// NewAttachment records a file that has already been written to the attachment store.
func NewAttachment(requestID uuid.UUID, position int, filename, contentType string, size int64, url, storageKey string) (*Attachment, error) {
	if requestID == uuid.Nil {
		return nil, fmt.Errorf("service request ID is required")
	}
	if url == "" {
		return nil, fmt.Errorf("attachment URL is required")
	}
	if size <= 0 || size > MaxFileSize {
		return nil, fmt.Errorf("invalid attachment size: %d", size)
	}

	return &Attachment{
		id:          uuid.New(),
		requestID:   requestID,
		filename:    filename,
		contentType: contentType,
		size:        size,
		url:         url,
		storageKey:  storageKey,
		position:    position,
		createdAt:   time.Now().UTC(),
	}, nil
}

// Reconstruct rebuilds an Attachment from persistence.
func Reconstruct(id, requestID uuid.UUID, position int, filename, contentType string, size int64, url, storageKey string, createdAt time.Time) *Attachment {
	return &Attachment{
		id:          id,
		requestID:   requestID,
		filename:    filename,
		contentType: contentType,
		size:        size,
		url:         url,
		storageKey:  storageKey,
		position:    position,
		createdAt:   createdAt,
	}
}

// Getters.
func (a *Attachment) ID() uuid.UUID        { return a.id }
func (a *Attachment) RequestID() uuid.UUID { return a.requestID }
func (a *Attachment) Filename() string     { return a.filename }
func (a *Attachment) ContentType() string  { return a.contentType }
func (a *Attachment) Size() int64          { return a.size }
func (a *Attachment) URL() string          { return a.url }
func (a *Attachment) StorageKey() string   { return a.storageKey }
func (a *Attachment) Position() int        { return a.position }
func (a *Attachment) CreatedAt() time.Time { return a.createdAt }
