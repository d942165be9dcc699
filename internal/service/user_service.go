package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"time"

	"github.com/google/uuid"

	"blogapi/internal/models"
	"blogapi/internal/repository"
)

type RegisterRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Name     string `json:"name" validate:"required"`
	Password string `json:"password" validate:"required,min=6,max=72"`
	Role     string `json:"role" validate:"omitempty,oneof=user moderator editor manager admin"`
	Picture  string `json:"picture"`
}

type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type RefreshRequest struct {
	RefreshToken string `json:"refresh_token" validate:"required"`
}

type UserView struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	Name      string    `json:"name"`
	Role      string    `json:"role"`
	Picture   string    `json:"picture"`
	CreatedAt time.Time `json:"created_at"`
}

type AuthResult struct {
	User         UserView `json:"user"`
	AccessToken  string   `json:"access_token"`
	RefreshToken string   `json:"refresh_token"`
	TokenType    string   `json:"token_type"`
}

type UserService interface {
	Register(ctx context.Context, req RegisterRequest) (*AuthResult, error)
	Login(ctx context.Context, email, password string) (*AuthResult, error)
	Refresh(ctx context.Context, refreshToken string) (*AuthResult, error)
}

type userService struct {
	userRepo   repository.UserRepository
	emailIndex repository.UniqueIndex
	auth       AuthService
	hasher     PasswordHasher
	logger     *slog.Logger
	now        func() time.Time
}

func NewUserService(
	userRepo repository.UserRepository,
	emailIndex repository.UniqueIndex,
	auth AuthService,
	hasher PasswordHasher,
	logger *slog.Logger,
) UserService {
	return &userService{
		userRepo:   userRepo,
		emailIndex: emailIndex,
		auth:       auth,
		hasher:     hasher,
		logger:     logger,
		now:        time.Now,
	}
}

func (s *userService) Register(ctx context.Context, req RegisterRequest) (*AuthResult, error) {
	if req.Email == "" || req.Name == "" || req.Password == "" {
		return nil, fmt.Errorf("%w: all fields are required", ErrValidation)
	}
	if len(req.Password) > maxPasswordBytes {
		return nil, fmt.Errorf("%w: password must be at most %d bytes", ErrValidation, maxPasswordBytes)
	}
	if req.Role != "" && !slices.Contains(models.Roles, req.Role) {
		return nil, fmt.Errorf("%w: unknown role %q", ErrValidation, req.Role)
	}

	user := &models.User{
		ID:        uuid.NewString(),
		Email:     req.Email,
		Name:      req.Name,
		Role:      req.Role,
		Picture:   req.Picture,
		CreatedAt: s.now().UTC(),
	}
	if user.Role == "" {
		user.Role = models.RoleUser
	}
	if user.Picture == "" {
		user.Picture = models.DefaultPicture
	}

	if err := s.emailIndex.Claim(ctx, user.Email, user.ID); err != nil {
		if errors.Is(err, repository.ErrTaken) {
			return nil, ErrDuplicateEmail
		}
		s.logger.Error("claim email failed", "error", err)
		return nil, storeError("claim email", err)
	}

	hash, err := s.hasher.Hash(req.Password)
	if err != nil {
		s.releaseEmail(ctx, user)
		return nil, err
	}
	user.PasswordHash = hash

	if err := s.userRepo.Create(ctx, user); err != nil {
		s.releaseEmail(ctx, user)
		s.logger.Error("create user failed", "user_id", user.ID, "error", err)
		return nil, storeError("create user", err)
	}

	return s.authResult(user)
}

func (s *userService) releaseEmail(ctx context.Context, user *models.User) {
	if err := s.emailIndex.Release(ctx, user.Email, user.ID); err != nil {
		s.logger.Warn("release email reservation failed", "user_id", user.ID, "error", err)
	}
}

func (s *userService) Login(ctx context.Context, email, password string) (*AuthResult, error) {
	if email == "" || password == "" {
		return nil, fmt.Errorf("%w: all fields are required", ErrValidation)
	}

	user, err := s.userRepo.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return nil, ErrInvalidCredentials
		}
		s.logger.Error("lookup user by email failed", "error", err)
		return nil, storeError("get user", err)
	}

	if !s.hasher.Verify(user.PasswordHash, password) {
		return nil, ErrInvalidCredentials
	}

	return s.authResult(user)
}

func (s *userService) Refresh(ctx context.Context, refreshToken string) (*AuthResult, error) {
	userID, err := s.auth.ParseRefreshToken(refreshToken)
	if err != nil {
		return nil, err
	}

	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return nil, fmt.Errorf("%w: unknown user", ErrUnauthenticated)
		}
		s.logger.Error("lookup user failed", "user_id", userID, "error", err)
		return nil, storeError("get user", err)
	}

	return s.authResult(user)
}

func (s *userService) authResult(user *models.User) (*AuthResult, error) {
	tokens, err := s.auth.IssueTokens(user)
	if err != nil {
		s.logger.Error("issue tokens failed", "user_id", user.ID, "error", err)
		return nil, err
	}

	return &AuthResult{
		User: UserView{
			ID:        user.ID,
			Email:     user.Email,
			Name:      user.Name,
			Role:      user.Role,
			Picture:   user.Picture,
			CreatedAt: user.CreatedAt,
		},
		AccessToken:  tokens.AccessToken,
		RefreshToken: tokens.RefreshToken,
		TokenType:    "bearer",
	}, nil
}
