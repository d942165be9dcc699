package service

import (
	"log/slog"

	"blogapi/internal/config"
	"blogapi/internal/repository"
)

type Service struct {
	User UserService
	Post PostService
	Auth AuthService
}

type Dependencies struct {
	Users      repository.UserRepository
	Posts      repository.PostRepository
	SlugIndex  repository.UniqueIndex
	EmailIndex repository.UniqueIndex
	Uploader   MediaUploader
}

func NewService(deps Dependencies, cfg *config.Config, logger *slog.Logger) *Service {
	auth := NewAuthService(cfg)

	return &Service{
		User: NewUserService(deps.Users, deps.EmailIndex, auth, NewPasswordHasher(), logger),
		Post: NewPostService(deps.Posts, deps.SlugIndex, deps.Uploader, cfg, logger),
		Auth: auth,
	}
}
