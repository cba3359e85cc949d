package user

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"readsync/internal/apperr"
	"readsync/pkg/database"
	"readsync/pkg/models"
)

// Repo owns user identity records. Emails are stored lower-cased so the
// UNIQUE constraint on the column is case-insensitive.
type Repo struct {
	db *sql.DB
}

func NewRepo(db *sql.DB) *Repo {
	return &Repo{db: db}
}

// Create inserts a user; a taken email fails with a Conflict error.
func (r *Repo) Create(ctx context.Context, name, email, passwordHash string) (models.User, error) {
	u := models.User{
		ID:           uuid.NewString(),
		Name:         strings.TrimSpace(name),
		Email:        normalizeEmail(email),
		PasswordHash: passwordHash,
		CreatedAt:    time.Now().UTC(),
	}
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO users(id, name, email, password_hash, created_at) VALUES(?,?,?,?,?)`,
		u.ID, u.Name, u.Email, u.PasswordHash, u.CreatedAt)
	if err != nil {
		if database.IsUniqueViolation(err) {
			return models.User{}, apperr.Conflict("A user with that email already exists.")
		}
		return models.User{}, fmt.Errorf("insert user: %w", err)
	}
	return u, nil
}

func (r *Repo) FindByEmail(ctx context.Context, email string) (models.User, bool, error) {
	return r.findOne(ctx, `SELECT id, name, email, password_hash, created_at FROM users WHERE email = ?`, normalizeEmail(email))
}

func (r *Repo) FindByID(ctx context.Context, id string) (models.User, bool, error) {
	return r.findOne(ctx, `SELECT id, name, email, password_hash, created_at FROM users WHERE id = ?`, id)
}

func (r *Repo) findOne(ctx context.Context, query string, arg any) (models.User, bool, error) {
	var u models.User
	err := r.db.QueryRowContext(ctx, query, arg).Scan(&u.ID, &u.Name, &u.Email, &u.PasswordHash, &u.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return models.User{}, false, nil
	}
	if err != nil {
		return models.User{}, false, fmt.Errorf("select user: %w", err)
	}
	return u, true, nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
