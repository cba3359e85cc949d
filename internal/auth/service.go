package auth

import (
	"context"
	"strings"

	"readsync/internal/apperr"
	"readsync/pkg/models"
)

// Users is the credential store the auth service depends on.
type Users interface {
	Create(ctx context.Context, name, email, passwordHash string) (models.User, error)
	FindByEmail(ctx context.Context, email string) (models.User, bool, error)
	FindByID(ctx context.Context, id string) (models.User, bool, error)
}

const msgInvalidCredentials = "Invalid credentials."

type Service struct {
	users  Users
	hasher Hasher
	tokens *Tokens
}

func NewService(users Users, hasher Hasher, tokens *Tokens) *Service {
	return &Service{users: users, hasher: hasher, tokens: tokens}
}

// Session is what register and login hand back to the client.
type Session struct {
	Token string        `json:"token"`
	User  models.Public `json:"user"`
}

func (s *Service) Register(ctx context.Context, name, email, password string) (Session, error) {
	name = strings.TrimSpace(name)
	email = strings.TrimSpace(email)
	if name == "" || email == "" || password == "" {
		return Session{}, apperr.InvalidInput("Name, email, and password are required.")
	}

	// Check before hashing; the UNIQUE constraint still backs this up on insert.
	_, exists, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		return Session{}, apperr.Internal(err)
	}
	if exists {
		return Session{}, apperr.Conflict("A user with that email already exists.")
	}

	hash, err := s.hasher.Hash(password)
	if err != nil {
		return Session{}, apperr.Internal(err)
	}
	u, err := s.users.Create(ctx, name, email, hash)
	if err != nil {
		if apperr.IsKind(err, apperr.KindConflict) {
			return Session{}, err
		}
		return Session{}, apperr.Internal(err)
	}
	return s.session(u)
}

// Login fails with the same Unauthenticated message whether the email is
// unknown or the password is wrong.
func (s *Service) Login(ctx context.Context, email, password string) (Session, error) {
	email = strings.TrimSpace(email)
	if email == "" || password == "" {
		return Session{}, apperr.InvalidInput("Email and password are required.")
	}
	u, ok, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		return Session{}, apperr.Internal(err)
	}
	if !ok || !s.hasher.Compare(u.PasswordHash, password) {
		return Session{}, apperr.Unauthenticated(msgInvalidCredentials)
	}
	return s.session(u)
}

// Authenticate verifies a bearer token and re-reads its user from the store.
func (s *Service) Authenticate(ctx context.Context, token string) (models.User, error) {
	claims, err := s.tokens.Verify(token)
	if err != nil {
		return models.User{}, err
	}
	u, ok, err := s.users.FindByID(ctx, claims.Subject)
	if err != nil {
		return models.User{}, apperr.Internal(err)
	}
	if !ok {
		return models.User{}, apperr.Unauthenticated("User does not exist.")
	}
	return u, nil
}

func (s *Service) session(u models.User) (Session, error) {
	token, err := s.tokens.Issue(u)
	if err != nil {
		return Session{}, apperr.Internal(err)
	}
	return Session{Token: token, User: u.Public()}, nil
}
