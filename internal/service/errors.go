package service

import (
	"errors"
	"fmt"
)

var (
	ErrValidation         = errors.New("validation failed")
	ErrConflict           = errors.New("conflict")
	ErrNotFound           = errors.New("not found")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrUnauthenticated    = errors.New("unauthenticated")
	ErrForbidden          = errors.New("forbidden")
	ErrMediaUpload        = errors.New("media upload failed")
	ErrStore              = errors.New("store unavailable")

	ErrSlugConflict   = fmt.Errorf("%w: slug already exists", ErrConflict)
	ErrDuplicateEmail = fmt.Errorf("%w: could not process the request", ErrConflict)
	ErrInvalidMedia   = fmt.Errorf("%w: invalid image data", ErrValidation)
	ErrEmptySlug      = fmt.Errorf("%w: slug is empty after normalization", ErrValidation)
)

// storeError hides the upstream error text from callers while keeping it in the chain.
func storeError(op string, err error) error {
	return fmt.Errorf("%w: %s: %w", ErrStore, op, err)
}
