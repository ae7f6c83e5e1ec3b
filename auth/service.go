// Package auth issues and verifies guest sessions. There are no accounts:
// a guest picks a display name, gets a fresh player id, and carries both in
// a signed token for the lifetime of the session.
package auth

import (
	"errors"
	"strings"
	"unicode/utf8"

	"github.com/google/uuid"
)

var (
	ErrInvalidName  = errors.New("invalid-name")
	ErrInvalidToken = errors.New("invalid-token")
)

const maxNameLength = 20

type TokenManager interface {
	Generate(id, name string) string
	Verify(token string) (id, name string, err error)
}

type Guest struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Token string `json:"token"`
}

type Service struct {
	tokens TokenManager
}

func NewService(tokens TokenManager) *Service {
	return &Service{tokens: tokens}
}

// CreateGuest validates the display name and mints an identity for it.
func (s *Service) CreateGuest(name string) (Guest, error) {
	name = strings.TrimSpace(name)
	if name == "" || utf8.RuneCountInString(name) > maxNameLength {
		return Guest{}, ErrInvalidName
	}

	id := uuid.NewString()
	return Guest{
		ID:    id,
		Name:  name,
		Token: s.tokens.Generate(id, name),
	}, nil
}

// VerifyToken resolves a session token back to its identity.
func (s *Service) VerifyToken(token string) (id, name string, err error) {
	id, name, err = s.tokens.Verify(token)
	if err != nil {
		return "", "", ErrInvalidToken
	}
	return id, name, nil
}
