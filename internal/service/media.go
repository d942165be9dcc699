package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"blogapi/internal/storage"
)

const (
	coverFolder     = "cover"
	thumbnailFolder = "thumbnail"
)

type MediaUploader interface {
	UploadDataURI(ctx context.Context, dataURI, ownerID, folder string) (*storage.UploadedImage, error)
	Remove(ctx context.Context, key string) error
}

// resolvedMedia is the URL to store for an image field. Key is set only when
// the value was uploaded by this request.
type resolvedMedia struct {
	URL *string
	Key string
}

type mediaResolver struct {
	uploader MediaUploader
	logger   *slog.Logger
}

// resolve passes hosted URLs through and uploads anything else as a data URI.
func (m *mediaResolver) resolve(ctx context.Context, value, ownerID, folder string) (resolvedMedia, error) {
	if value == "" {
		return resolvedMedia{}, nil
	}

	if strings.HasPrefix(value, "http") {
		return resolvedMedia{URL: &value}, nil
	}

	uploaded, err := m.uploader.UploadDataURI(ctx, value, ownerID, folder)
	if err != nil {
		if errors.Is(err, storage.ErrInvalidDataURI) {
			return resolvedMedia{}, fmt.Errorf("%w: %s: %v", ErrInvalidMedia, folder, err)
		}
		m.logger.Error("image upload failed", "folder", folder, "owner_id", ownerID, "error", err)
		return resolvedMedia{}, fmt.Errorf("%w: %s: %w", ErrMediaUpload, folder, err)
	}

	return resolvedMedia{URL: &uploaded.URL, Key: uploaded.Key}, nil
}

// discard removes blobs uploaded for a request that did not persist.
func (m *mediaResolver) discard(ctx context.Context, media ...resolvedMedia) {
	for _, item := range media {
		if item.Key == "" {
			continue
		}
		if err := m.uploader.Remove(ctx, item.Key); err != nil {
			m.logger.Warn("remove orphaned image failed", "key", item.Key, "error", err)
		}
	}
}
