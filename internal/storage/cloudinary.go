package storage

import (
	"bytes"
	"context"
	"fmt"

	"github.com/cloudinary/cloudinary-go/v2"
	"github.com/cloudinary/cloudinary-go/v2/api/uploader"
	"github.com/google/uuid"
	"github.com/jayzilla/service-booking/internal/domain/attachment"
	"go.uber.org/zap"
)

// CloudinaryStore uploads attachments to Cloudinary.
type CloudinaryStore struct {
	cld        *cloudinary.Cloudinary
	rootFolder string
	logger     *zap.Logger
}

// NewCloudinaryStore creates a store under rootFolder in the given cloud.
func NewCloudinaryStore(cloudName, apiKey, apiSecret, rootFolder string, logger *zap.Logger) (*CloudinaryStore, error) {
	cld, err := cloudinary.NewFromParams(cloudName, apiKey, apiSecret)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize cloudinary: %w", err)
	}
	return &CloudinaryStore{cld: cld, rootFolder: rootFolder, logger: logger}, nil
}

// Put uploads file into rootFolder/folder.
func (s *CloudinaryStore) Put(ctx context.Context, folder string, file attachment.Staged) (Object, error) {
	params := uploader.UploadParams{
		Folder:   s.rootFolder + "/" + folder,
		PublicID: uuid.New().String(),
	}
	result, err := s.cld.Upload.Upload(ctx, bytes.NewReader(file.Data), params)
	if err != nil {
		return Object{}, fmt.Errorf("failed to upload %s: %w", file.Filename, err)
	}
	if result.Error.Message != "" {
		return Object{}, fmt.Errorf("cloudinary rejected %s: %s", file.Filename, result.Error.Message)
	}
	if result.PublicID == "" {
		return Object{}, fmt.Errorf("no public ID returned for %s", file.Filename)
	}

	s.logger.Debug("attachment uploaded",
		zap.String("public_id", result.PublicID),
		zap.Int64("size", file.Size),
	)
	return Object{Key: result.PublicID, URL: result.SecureURL}, nil
}

// Delete removes an uploaded file by public ID.
func (s *CloudinaryStore) Delete(ctx context.Context, key string) error {
	if _, err := s.cld.Upload.Destroy(ctx, uploader.DestroyParams{PublicID: key}); err != nil {
		return fmt.Errorf("failed to delete %s: %w", key, err)
	}
	return nil
}
