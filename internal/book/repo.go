package book

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"readsync/pkg/database"
	"readsync/pkg/models"
)

// ErrUnknownOwner is returned by Create when the owning user row is gone.
var ErrUnknownOwner = errors.New("book owner does not exist")

const bookColumns = `id, user_id, title, author, pages, current_page, status, isbn, cover_url, start_date, end_date, created_at, updated_at`

// Repo persists books. Every query filters on user_id, so a row owned by
// someone else is indistinguishable from a missing one.
type Repo struct {
	db  *sql.DB
	now func() time.Time
}

func NewRepo(db *sql.DB) *Repo {
	return &Repo{db: db, now: func() time.Time { return time.Now().UTC() }}
}

// ListByUser returns the user's books, newest first.
func (r *Repo) ListByUser(ctx context.Context, userID string) ([]models.Book, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+bookColumns+` FROM books WHERE user_id = ? ORDER BY created_at DESC, rowid DESC`, userID)
	if err != nil {
		return nil, fmt.Errorf("list books: %w", err)
	}
	defer rows.Close()

	res := []models.Book{}
	for rows.Next() {
		b, err := scanBook(rows)
		if err != nil {
			return nil, err
		}
		res = append(res, b)
	}
	return res, rows.Err()
}

func (r *Repo) GetByIDForUser(ctx context.Context, id, userID string) (models.Book, bool, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+bookColumns+` FROM books WHERE id = ? AND user_id = ?`, id, userID)
	b, err := scanBook(row)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Book{}, false, nil
	}
	if err != nil {
		return models.Book{}, false, err
	}
	return b, true, nil
}

// Create inserts a book built from f (defaults already applied) and returns
// the row as stored.
func (r *Repo) Create(ctx context.Context, userID string, f Fields) (models.Book, error) {
	id := uuid.NewString()
	now := r.now()
	status := models.StatusPlanned
	if f.Status.Set && !f.Status.Null {
		status = f.Status.Value
	}
	_, err := r.db.ExecContext(ctx, `
	INSERT INTO books(id, user_id, title, author, pages, current_page, status, isbn, cover_url, start_date, end_date, created_at, updated_at)
	VALUES(?,?,?,?,?,?,?,?,?,?,?,?,?)`,
		id, userID, f.Title.Value, f.Author.Value, f.Pages.Ptr(), f.CurrentPage.Value, string(status),
		f.ISBN.Ptr(), f.CoverURL.Ptr(), f.StartDate.Ptr(), f.EndDate.Ptr(), now, now)
	if database.IsForeignKeyViolation(err) {
		return models.Book{}, ErrUnknownOwner
	}
	if err != nil {
		return models.Book{}, fmt.Errorf("insert book: %w", err)
	}

	b, ok, err := r.GetByIDForUser(ctx, id, userID)
	if err != nil {
		return models.Book{}, err
	}
	if !ok {
		return models.Book{}, fmt.Errorf("insert book: row %s not readable after insert", id)
	}
	return b, nil
}

// Update writes the set fields of f. When pages or current_page is part of
// the update, current_page is re-clamped inside the same statement against
// the new pages value or, if pages is not being changed, the stored one.
// An empty f returns the stored record untouched.
func (r *Repo) Update(ctx context.Context, userID, id string, f Fields) (models.Book, bool, error) {
	if f.Empty() {
		return r.GetByIDForUser(ctx, id, userID)
	}

	var (
		sets []string
		args []any
	)
	set := func(col string, v any) {
		sets = append(sets, col+" = ?")
		args = append(args, v)
	}
	if f.Title.Set {
		set("title", f.Title.Value)
	}
	if f.Author.Set {
		set("author", f.Author.Value)
	}
	if f.Pages.Set {
		set("pages", f.Pages.Ptr())
	}
	if TouchesProgress(f) {
		cur, curArgs := "current_page", []any(nil)
		if f.CurrentPage.Set {
			cur, curArgs = "?", []any{f.CurrentPage.Value}
		}
		limit, limitArgs := "pages", []any(nil)
		if f.Pages.Set {
			limit, limitArgs = "?", []any{f.Pages.Ptr()}
		}
		// SET expressions see the pre-update row, so a new pages value is
		// bound again instead of read from the column.
		sets = append(sets, fmt.Sprintf(
			"current_page = CASE WHEN %[2]s IS NULL THEN MAX(%[1]s, 0) ELSE MIN(MAX(%[1]s, 0), %[2]s) END",
			cur, limit))
		// placeholder order: limit, cur, cur, limit
		args = append(args, limitArgs...)
		args = append(args, curArgs...)
		args = append(args, curArgs...)
		args = append(args, limitArgs...)
	}
	if f.Status.Set {
		set("status", string(f.Status.Value))
	}
	if f.ISBN.Set {
		set("isbn", f.ISBN.Ptr())
	}
	if f.CoverURL.Set {
		set("cover_url", f.CoverURL.Ptr())
	}
	if f.StartDate.Set {
		set("start_date", f.StartDate.Ptr())
	}
	if f.EndDate.Set {
		set("end_date", f.EndDate.Ptr())
	}
	set("updated_at", r.now())
	args = append(args, id, userID)

	res, err := r.db.ExecContext(ctx,
		`UPDATE books SET `+strings.Join(sets, ", ")+` WHERE id = ? AND user_id = ?`, args...)
	if err != nil {
		return models.Book{}, false, fmt.Errorf("update book: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return models.Book{}, false, fmt.Errorf("update book: %w", err)
	}
	if n == 0 {
		return models.Book{}, false, nil
	}
	return r.GetByIDForUser(ctx, id, userID)
}

// Delete hard-deletes the book; false means nothing matched id and owner.
func (r *Repo) Delete(ctx context.Context, userID, id string) (bool, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM books WHERE id = ? AND user_id = ?`, id, userID)
	if err != nil {
		return false, fmt.Errorf("delete book: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("delete book: %w", err)
	}
	return n > 0, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanBook(s scanner) (models.Book, error) {
	var (
		b      models.Book
		pages  sql.NullInt64
		status string
	)
	var isbn, coverURL, startDate, endDate sql.NullString
	err := s.Scan(&b.ID, &b.UserID, &b.Title, &b.Author, &pages, &b.CurrentPage, &status,
		&isbn, &coverURL, &startDate, &endDate, &b.CreatedAt, &b.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.Book{}, err
		}
		return models.Book{}, fmt.Errorf("scan book: %w", err)
	}
	if pages.Valid {
		n := int(pages.Int64)
		b.Pages = &n
	}
	b.Status = models.BookStatus(status)
	b.ISBN = nullString(isbn)
	b.CoverURL = nullString(coverURL)
	b.StartDate = nullString(startDate)
	b.EndDate = nullString(endDate)
	return b, nil
}

func nullString(ns sql.NullString) *string {
	if !ns.Valid {
		return nil
	}
	s := ns.String
	return &s
}
