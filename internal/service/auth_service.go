package service

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"blogapi/internal/config"
	"blogapi/internal/models"
)

const (
	tokenTypeAccess  = "access"
	tokenTypeRefresh = "refresh"
)

// Actor is the authenticated caller taken from an access token.
type Actor struct {
	UserID string
	Name   string
	Role   string
}

type TokenPair struct {
	AccessToken  string
	RefreshToken string
}

type AuthService interface {
	IssueTokens(user *models.User) (*TokenPair, error)
	ParseAccessToken(tokenString string) (*Actor, error)
	ParseRefreshToken(tokenString string) (string, error)
}

type tokenClaims struct {
	Name string `json:"name,omitempty"`
	Role string `json:"role,omitempty"`
	Type string `json:"type"`
	jwt.RegisteredClaims
}

type authService struct {
	secret          []byte
	accessDuration  time.Duration
	refreshDuration time.Duration
	now             func() time.Time
}

func NewAuthService(cfg *config.Config) AuthService {
	return &authService{
		secret:          []byte(cfg.JWTSecretKey),
		accessDuration:  cfg.AccessTokenDuration,
		refreshDuration: cfg.RefreshTokenDuration,
		now:             time.Now,
	}
}

func (s *authService) IssueTokens(user *models.User) (*TokenPair, error) {
	accessToken, err := s.sign(tokenClaims{
		Name: user.Name,
		Role: user.Role,
		Type: tokenTypeAccess,
	}, user.ID, s.accessDuration)
	if err != nil {
		return nil, fmt.Errorf("sign access token: %w", err)
	}

	refreshToken, err := s.sign(tokenClaims{
		Type: tokenTypeRefresh,
	}, user.ID, s.refreshDuration)
	if err != nil {
		return nil, fmt.Errorf("sign refresh token: %w", err)
	}

	return &TokenPair{AccessToken: accessToken, RefreshToken: refreshToken}, nil
}

func (s *authService) sign(claims tokenClaims, subject string, ttl time.Duration) (string, error) {
	now := s.now()
	claims.RegisteredClaims = jwt.RegisteredClaims{
		Subject:   subject,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(s.secret)
}

func (s *authService) ParseAccessToken(tokenString string) (*Actor, error) {
	claims, err := s.parse(tokenString, tokenTypeAccess)
	if err != nil {
		return nil, err
	}

	return &Actor{
		UserID: claims.Subject,
		Name:   claims.Name,
		Role:   claims.Role,
	}, nil
}

// ParseRefreshToken returns the user id a valid refresh token was issued for.
func (s *authService) ParseRefreshToken(tokenString string) (string, error) {
	claims, err := s.parse(tokenString, tokenTypeRefresh)
	if err != nil {
		return "", err
	}
	return claims.Subject, nil
}

func (s *authService) parse(tokenString, tokenType string) (*tokenClaims, error) {
	claims := &tokenClaims{}

	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return s.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnauthenticated, err)
	}

	if !token.Valid {
		return nil, fmt.Errorf("%w: invalid token", ErrUnauthenticated)
	}

	if claims.Type != tokenType {
		return nil, fmt.Errorf("%w: expected %s token", ErrUnauthenticated, tokenType)
	}

	if claims.Subject == "" {
		return nil, fmt.Errorf("%w: token has no subject", ErrUnauthenticated)
	}

	return claims, nil
}
