// Package storage persists submitted attachment images.
package storage

import (
	"context"

	"github.com/jayzilla/service-booking/internal/domain/attachment"
)

// Object is a stored file.
type Object struct {
	Key string
	URL string
}

// Store writes attachment files under a folder and returns where they live.
type Store interface {
	Put(ctx context.Context, folder string, file attachment.Staged) (Object, error)
	Delete(ctx context.Context, key string) error
}
