// Package auth handles account registration, login and the credentials the
// client persists between runs. Field validation happens client-side before
// any network call; backend rejections surface verbatim.
package auth

import (
	"context"
	"fmt"

	"github.com/industrialchat/chatclient/internal/api"
)

// Backend is the slice of the API client the auth flows need.
type Backend interface {
	Register(ctx context.Context, body api.RegisterRequest) error
	Login(ctx context.Context, body api.LoginRequest) (api.LoginResponse, error)
}

// Service runs the register and login flows.
type Service struct {
	backend Backend
	creds   *CredentialStore
}

// NewService wires the auth flows to a backend and a credential store.
func NewService(backend Backend, creds *CredentialStore) *Service {
	return &Service{backend: backend, creds: creds}
}

type registerForm struct {
	Username string `validate:"required"`
	Email    string `validate:"required,email"`
	Password string `validate:"required,min=6"`
}

type loginForm struct {
	Email    string `validate:"required"`
	Password string `validate:"required"`
}

// Register creates an account. A *ValidationError is returned before any
// network call when required fields are missing or malformed.
func (s *Service) Register(ctx context.Context, username, email, password string) error {
	form := registerForm{Username: username, Email: email, Password: password}
	if err := checkStruct(form); err != nil {
		return err
	}

	return s.backend.Register(ctx, api.RegisterRequest{
		Username: username,
		Email:    email,
		Password: password,
	})
}

// Login authenticates and persists the token and user id for later
// authenticated calls.
func (s *Service) Login(ctx context.Context, email, password string) (Credentials, error) {
	form := loginForm{Email: email, Password: password}
	if err := checkStruct(form); err != nil {
		return Credentials{}, err
	}

	resp, err := s.backend.Login(ctx, api.LoginRequest{Email: email, Password: password})
	if err != nil {
		return Credentials{}, err
	}

	creds := Credentials{Token: resp.Token, UserID: resp.UserID}
	if err := s.creds.Save(creds); err != nil {
		return Credentials{}, fmt.Errorf("persist credentials: %w", err)
	}
	return creds, nil
}

// Logout drops the persisted credentials.
func (s *Service) Logout() error {
	return s.creds.Clear()
}
