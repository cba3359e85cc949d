package book

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"readsync/internal/apperr"
	"readsync/pkg/models"
)

const (
	msgNotFound      = "Book not found."
	msgRequired      = "Title and author are required."
	msgBadIdentifier = "Invalid book identifier."
	msgUnknownOwner  = "User does not exist."
)

// Store is the book persistence the service needs; *Repo implements it.
type Store interface {
	ListByUser(ctx context.Context, userID string) ([]models.Book, error)
	GetByIDForUser(ctx context.Context, id, userID string) (models.Book, bool, error)
	Create(ctx context.Context, userID string, f Fields) (models.Book, error)
	Update(ctx context.Context, userID, id string, f Fields) (models.Book, bool, error)
	Delete(ctx context.Context, userID, id string) (bool, error)
}

// Service applies normalization and the progress rules around the store.
// Every method is scoped to the calling user.
type Service struct {
	store Store
}

func NewService(store Store) *Service {
	return &Service{store: store}
}

func (s *Service) List(ctx context.Context, userID string) ([]models.Book, error) {
	books, err := s.store.ListByUser(ctx, userID)
	if err != nil {
		return nil, apperr.Internal(err)
	}
	return books, nil
}

func (s *Service) Get(ctx context.Context, userID, id string) (models.Book, error) {
	if err := checkID(id); err != nil {
		return models.Book{}, err
	}
	b, ok, err := s.store.GetByIDForUser(ctx, id, userID)
	if err != nil {
		return models.Book{}, apperr.Internal(err)
	}
	if !ok {
		return models.Book{}, apperr.NotFound(msgNotFound)
	}
	return b, nil
}

// Create requires a non-empty title and author after trimming. Nothing is
// written when validation fails.
func (s *Service) Create(ctx context.Context, userID string, raw map[string]any) (models.Book, error) {
	f, err := Normalize(raw)
	if err != nil {
		return models.Book{}, err
	}
	if f.Title.Value == "" || f.Author.Value == "" {
		return models.Book{}, apperr.InvalidInput(msgRequired)
	}
	ApplyCreateDefaults(&f)

	b, err := s.store.Create(ctx, userID, f)
	if errors.Is(err, ErrUnknownOwner) {
		// The account was deleted after its token was checked.
		return models.Book{}, apperr.Unauthenticated(msgUnknownOwner)
	}
	if err != nil {
		return models.Book{}, apperr.Internal(err)
	}
	return b, nil
}

// Update applies raw to the caller's book.
func (s *Service) Update(ctx context.Context, userID, id string, raw map[string]any) (models.Book, error) {
	return s.UpdateFrom(ctx, userID, id, func() (map[string]any, error) { return raw, nil })
}

// UpdateFrom resolves ownership before calling read, so a caller who does not
// own id gets NotFound even when the body cannot be read or parsed.
func (s *Service) UpdateFrom(ctx context.Context, userID, id string, read func() (map[string]any, error)) (models.Book, error) {
	if _, err := s.Get(ctx, userID, id); err != nil {
		return models.Book{}, err
	}
	raw, err := read()
	if err != nil {
		return models.Book{}, err
	}

	f, err := Normalize(raw)
	if err != nil {
		return models.Book{}, err
	}
	if (f.Title.Set && f.Title.Value == "") || (f.Author.Set && f.Author.Value == "") {
		return models.Book{}, apperr.InvalidInput(msgRequired)
	}

	b, ok, err := s.store.Update(ctx, userID, id, f)
	if err != nil {
		return models.Book{}, apperr.Internal(err)
	}
	if !ok {
		// Deleted between the ownership check and the write.
		return models.Book{}, apperr.NotFound(msgNotFound)
	}
	return b, nil
}

func (s *Service) Delete(ctx context.Context, userID, id string) error {
	if err := checkID(id); err != nil {
		return err
	}
	ok, err := s.store.Delete(ctx, userID, id)
	if err != nil {
		return apperr.Internal(err)
	}
	if !ok {
		return apperr.NotFound(msgNotFound)
	}
	return nil
}

func checkID(id string) error {
	if _, err := uuid.Parse(id); err != nil {
		return apperr.InvalidInput(msgBadIdentifier)
	}
	return nil
}
