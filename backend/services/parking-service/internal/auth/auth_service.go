package auth

import (
	"context"
	"errors"
	"strings"

	"go.uber.org/zap"
)

// ErrInvalidCredentials represents login failure.
var ErrInvalidCredentials = errors.New("auth: invalid credentials")

// AuthService authenticates the configured operator account.
type AuthService struct {
	username     string
	passwordHash string
	hasher       Hasher
	tokenizer    *TokenService
	logger       *zap.Logger
}

// NewAuthService hashes the operator password once and returns the service.
func NewAuthService(username, password string, hasher Hasher, tokenizer *TokenService, logger *zap.Logger) (*AuthService, error) {
	username = strings.TrimSpace(username)
	if username == "" {
		return nil, errors.New("auth: username required")
	}
	hash, err := hasher.Hash(password)
	if err != nil {
		return nil, err
	}
	return &AuthService{
		username:     username,
		passwordHash: hash,
		hasher:       hasher,
		tokenizer:    tokenizer,
		logger:       logger,
	}, nil
}

// Login checks credentials and produces a JWT.
func (s *AuthService) Login(_ context.Context, username, password string) (string, error) {
	username = strings.TrimSpace(username)
	if username == "" || password == "" {
		return "", ErrInvalidCredentials
	}
	if username != s.username {
		return "", ErrInvalidCredentials
	}
	if err := s.hasher.Compare(s.passwordHash, password); err != nil {
		s.logger.Warn("login rejected", zap.String("username", username))
		return "", ErrInvalidCredentials
	}

	token, err := s.tokenizer.GenerateToken(username)
	if err != nil {
		return "", err
	}
	s.logger.Info("operator logged in", zap.String("username", username))
	return token, nil
}

// Tokens returns the token service used for validation.
func (s *AuthService) Tokens() *TokenService {
	return s.tokenizer
}
