package repository

import (
	"context"
	"errors"
	"fmt"

	"blogapi/internal/docstore"
	"blogapi/internal/models"
)

type userRepository struct {
	table docstore.Table
}

func NewUserRepository(store docstore.Store) UserRepository {
	return &userRepository{table: store.Table(UsersCollection, "id")}
}

func (r *userRepository) Create(ctx context.Context, user *models.User) error {
	item, err := docstore.Encode(user)
	if err != nil {
		return err
	}

	if err := r.table.Put(ctx, user.ID, item); err != nil {
		if errors.Is(err, docstore.ErrConditionFailed) {
			return fmt.Errorf("user %s: %w", user.ID, ErrAlreadyExists)
		}
		return fmt.Errorf("create user: %w", err)
	}

	return nil
}

func (r *userRepository) GetByID(ctx context.Context, userID string) (*models.User, error) {
	item, err := r.table.Get(ctx, userID)
	if err != nil {
		if errors.Is(err, docstore.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("get user %s: %w", userID, err)
	}

	return decodeUser(item)
}

func (r *userRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	items, err := r.table.Scan(ctx, docstore.Filter{Attr: "email", Value: email})
	if err != nil {
		return nil, fmt.Errorf("get user by email: %w", err)
	}

	if len(items) == 0 {
		return nil, ErrUserNotFound
	}

	return decodeUser(items[0])
}

func decodeUser(item docstore.Item) (*models.User, error) {
	var user models.User
	if err := docstore.Decode(item, &user); err != nil {
		return nil, err
	}
	return &user, nil
}
