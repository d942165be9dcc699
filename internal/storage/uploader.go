package storage

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
)

type UploadedImage struct {
	Key string
	URL string
}

// ImageUploader stores data-URI images under "<folder>/<owner>/<hex id>.<ext>".
type ImageUploader struct {
	storage Storage
	newID   func() string
}

func NewImageUploader(storage Storage) *ImageUploader {
	return &ImageUploader{
		storage: storage,
		newID: func() string {
			return strings.ReplaceAll(uuid.NewString(), "-", "")
		},
	}
}

func (u *ImageUploader) UploadDataURI(ctx context.Context, dataURI, ownerID, folder string) (*UploadedImage, error) {
	decoded, err := DecodeDataURI(dataURI)
	if err != nil {
		return nil, err
	}

	key := fmt.Sprintf("%s/%s/%s.%s", folder, ownerID, u.newID(), decoded.Extension)

	if err := u.storage.Upload(ctx, key, decoded.ContentType, bytes.NewReader(decoded.Data), int64(len(decoded.Data))); err != nil {
		return nil, err
	}

	url, err := u.storage.URL(ctx, key)
	if err != nil {
		// the object is unreachable without a URL
		if delErr := u.storage.Delete(ctx, key); delErr != nil {
			return nil, errors.Join(err, fmt.Errorf("remove %s: %w", key, delErr))
		}
		return nil, err
	}

	return &UploadedImage{Key: key, URL: url}, nil
}

func (u *ImageUploader) Remove(ctx context.Context, key string) error {
	return u.storage.Delete(ctx, key)
}
