// Package auth covers accounts and tokens: registration, login, identity
// lookup, JWT issue and verification.
package auth

import (
	"context"
	"errors"
	"fmt"

	"github.com/alphabot-ai/devconnect/internal/model"
	"github.com/alphabot-ai/devconnect/internal/store"
)

type Service struct {
	users      store.UserStore
	tokens     *TokenService
	bcryptCost int
	// dummyHash is compared against when the email is unknown so that a
	// missing account costs the same as a wrong password.
	dummyHash string
}

func NewService(users store.UserStore, tokens *TokenService, bcryptCost int) (*Service, error) {
	dummy, err := HashPassword("devconnect-dummy-password", bcryptCost)
	if err != nil {
		return nil, err
	}
	return &Service{users: users, tokens: tokens, bcryptCost: bcryptCost, dummyHash: dummy}, nil
}

func (s *Service) Tokens() *TokenService {
	return s.tokens
}

// Register creates a user and returns a token for it.
func (s *Service) Register(ctx context.Context, name, email, password string) (string, error) {
	hash, err := HashPassword(password, s.bcryptCost)
	if err != nil {
		return "", err
	}
	user := model.User{
		Name:     name,
		Email:    email,
		Password: hash,
		Avatar:   GravatarURL(email),
	}
	if err := s.users.CreateUser(ctx, &user); err != nil {
		if errors.Is(err, store.ErrDuplicateEmail) {
			return "", ErrUserExists
		}
		return "", fmt.Errorf("create user: %w", err)
	}
	return s.tokens.Issue(user.ID)
}

// Login returns a token for the account matching email and password. Unknown
// email and wrong password both yield ErrInvalidCredentials.
func (s *Service) Login(ctx context.Context, email, password string) (string, error) {
	user, err := s.users.FindUserByEmail(ctx, email)
	if err != nil {
		if !errors.Is(err, store.ErrNotFound) {
			return "", fmt.Errorf("find user: %w", err)
		}
		CheckPassword(s.dummyHash, password)
		return "", ErrInvalidCredentials
	}
	if !CheckPassword(user.Password, password) {
		return "", ErrInvalidCredentials
	}
	return s.tokens.Issue(user.ID)
}

// Me loads the user behind an authenticated request.
func (s *Service) Me(ctx context.Context, userID string) (model.User, error) {
	user, err := s.users.GetUser(ctx, userID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return model.User{}, ErrUnknownUser
		}
		return model.User{}, fmt.Errorf("get user: %w", err)
	}
	user.Password = ""
	return user, nil
}
