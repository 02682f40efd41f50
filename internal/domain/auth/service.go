package auth

import (
	"context"
	"fmt"
	"log"
	"time"

	"golang.org/x/crypto/bcrypt"
)

// TokenIssuer abstracts the JWT service for testability.
type TokenIssuer interface {
	GenerateToken(userID int64, username string) (string, error)
	TTL() time.Duration
}

type Service struct {
	repo Repository
	jwt  TokenIssuer
}

func NewService(repo Repository, jwt TokenIssuer) *Service {
	return &Service{repo: repo, jwt: jwt}
}

// LoginResult is what a successful login hands back to the client.
type LoginResult struct {
	Token     string `json:"token"`
	User      *User  `json:"user"`
	ExpiresIn int64  `json:"expires_in"`
}

func (s *Service) Login(ctx context.Context, username, password string) (*LoginResult, error) {
	user, err := s.repo.GetByUsername(ctx, username)
	if err != nil {
		// Do not leak whether the username exists.
		return nil, ErrInvalidCredentials
	}

	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)) != nil {
		return nil, ErrInvalidCredentials
	}

	token, err := s.jwt.GenerateToken(user.ID, user.Username)
	if err != nil {
		return nil, fmt.Errorf("generate token: %w", err)
	}

	now := time.Now()
	user.LastLogin = &now
	if err := s.repo.Update(ctx, user); err != nil {
		// Last-login is bookkeeping, not worth failing the login over.
		log.Printf("auth: update last_login for %s: %v", user.Username, err)
	}

	return &LoginResult{
		Token:     token,
		User:      user,
		ExpiresIn: int64(s.jwt.TTL().Seconds()),
	}, nil
}

// ResetPassword replaces the password of an existing user.
func (s *Service) ResetPassword(ctx context.Context, username, newPassword string) error {
	user, err := s.repo.GetByUsername(ctx, username)
	if err != nil {
		return err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}

	user.PasswordHash = string(hash)
	return s.repo.Update(ctx, user)
}

// SeedDefaultAdmin creates the default account when the user table is empty,
// so a fresh install is usable out of the box.
func (s *Service) SeedDefaultAdmin(ctx context.Context, username, password, email string) error {
	n, err := s.repo.Count(ctx)
	if err != nil {
		return err
	}
	if n > 0 {
		return nil
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}

	user := &User{
		Username:     username,
		Email:        email,
		PasswordHash: string(hash),
		CreatedAt:    time.Now(),
	}
	if err := s.repo.Create(ctx, user); err != nil {
		return fmt.Errorf("seed default admin: %w", err)
	}
	log.Printf("auth: seeded default user %q", username)
	return nil
}
