package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"blogapi/internal/docstore"
	"blogapi/internal/models"
)

// ScanIndex checks uniqueness by scanning the owning collection for attr.
// Two concurrent claims of the same value can both succeed.
type ScanIndex struct {
	table docstore.Table
	attr  string
}

func NewScanIndex(table docstore.Table, attr string) *ScanIndex {
	return &ScanIndex{table: table, attr: attr}
}

func (i *ScanIndex) Claim(ctx context.Context, value, ownerID string) error {
	items, err := i.table.Scan(ctx, docstore.Filter{
		Attr:       i.attr,
		Value:      value,
		ExcludeKey: ownerID,
	})
	if err != nil {
		return fmt.Errorf("scan %s.%s: %w", i.table.Name(), i.attr, err)
	}

	if len(items) > 0 {
		return ErrTaken
	}

	return nil
}

// Release is a no-op: the value is freed when the owning record changes.
func (i *ScanIndex) Release(ctx context.Context, value, ownerID string) error {
	return nil
}

// ReservationIndex records each claimed value as a "<namespace>#<value>"
// document created with a conditional write, so only one owner can win.
type ReservationIndex struct {
	table     docstore.Table
	namespace string
	now       func() time.Time
}

func NewReservationIndex(store docstore.Store, namespace string) *ReservationIndex {
	return &ReservationIndex{
		table:     store.Table(UniqueKeysCollection, "key"),
		namespace: namespace,
		now:       time.Now,
	}
}

func (i *ReservationIndex) key(value string) string {
	return i.namespace + "#" + value
}

func (i *ReservationIndex) Claim(ctx context.Context, value, ownerID string) error {
	key := i.key(value)

	item, err := docstore.Encode(models.UniqueKey{
		Key:       key,
		OwnerID:   ownerID,
		CreatedAt: i.now().UTC(),
	})
	if err != nil {
		return err
	}

	err = i.table.Put(ctx, key, item)
	if err == nil {
		return nil
	}
	if !errors.Is(err, docstore.ErrConditionFailed) {
		return fmt.Errorf("reserve %s: %w", key, err)
	}

	owner, err := i.owner(ctx, key)
	if err != nil {
		// released between the put and the read; the caller may retry
		if errors.Is(err, docstore.ErrNotFound) {
			return ErrTaken
		}
		return err
	}

	if owner != ownerID {
		return ErrTaken
	}

	return nil
}

func (i *ReservationIndex) Release(ctx context.Context, value, ownerID string) error {
	key := i.key(value)

	owner, err := i.owner(ctx, key)
	if err != nil {
		if errors.Is(err, docstore.ErrNotFound) {
			return nil
		}
		return err
	}

	if owner != ownerID {
		return nil
	}

	if err := i.table.Delete(ctx, key); err != nil && !errors.Is(err, docstore.ErrNotFound) {
		return fmt.Errorf("release %s: %w", key, err)
	}

	return nil
}

func (i *ReservationIndex) owner(ctx context.Context, key string) (string, error) {
	item, err := i.table.Get(ctx, key)
	if err != nil {
		return "", err
	}

	var reservation models.UniqueKey
	if err := docstore.Decode(item, &reservation); err != nil {
		return "", err
	}

	return reservation.OwnerID, nil
}
