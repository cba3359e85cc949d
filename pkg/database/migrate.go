package database

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
)

type querier interface {
	Exec(query string, args ...any) (sql.Result, error)
	Query(query string, args ...any) (*sql.Rows, error)
}

var schema = []string{
	`CREATE TABLE IF NOT EXISTS users (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		email TEXT NOT NULL UNIQUE,
		password_hash TEXT NOT NULL,
		created_at DATETIME NOT NULL
	);`,
	`CREATE TABLE IF NOT EXISTS books (
		id TEXT PRIMARY KEY,
		user_id TEXT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
		title TEXT NOT NULL,
		author TEXT NOT NULL,
		pages INTEGER,
		current_page INTEGER NOT NULL DEFAULT 0,
		status TEXT NOT NULL DEFAULT 'planned',
		isbn TEXT,
		cover_url TEXT,
		start_date TEXT,
		end_date TEXT,
		created_at DATETIME NOT NULL,
		updated_at DATETIME NOT NULL
	);`,
	`CREATE INDEX IF NOT EXISTS idx_books_user_created ON books(user_id, created_at);`,
}

// Migrate creates the schema. A database whose users table still has integer
// row ids is first copied into the uuid schema.
func Migrate(db *sql.DB) error {
	if err := upgradeIntegerIDs(db); err != nil {
		return err
	}
	return createSchema(db)
}

func createSchema(q querier) error {
	for i, s := range schema {
		if _, err := q.Exec(s); err != nil {
			return fmt.Errorf("migrate stmt %d: %w", i, err)
		}
	}
	return nil
}

// upgradeIntegerIDs gives every legacy user and book a uuid and rewrites
// books.user_id to match, all in one transaction. Books whose user is gone
// are dropped.
func upgradeIntegerIDs(db *sql.DB) error {
	users, err := tableColumns(db, "users")
	if err != nil {
		return err
	}
	books, err := tableColumns(db, "books")
	if err != nil {
		return err
	}
	if !integerID(users) {
		if integerID(books) {
			return errors.New("migrate: books has integer ids but users does not; cannot upgrade")
		}
		return nil
	}
	hasBooks := len(books) > 0
	if hasBooks && !integerID(books) {
		return errors.New("migrate: users has integer ids but books does not; cannot upgrade")
	}

	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("migrate: begin upgrade: %w", err)
	}
	defer tx.Rollback()

	if hasBooks {
		if err := ensureBookColumns(tx, "books"); err != nil {
			return err
		}
	}
	steps := []string{
		`ALTER TABLE users RENAME TO legacy_users`,
		`DROP INDEX IF EXISTS idx_books_user_created`,
		`CREATE TEMP TABLE legacy_user_ids (old_id INTEGER PRIMARY KEY, new_id TEXT NOT NULL)`,
	}
	if hasBooks {
		steps = append(steps,
			`ALTER TABLE books RENAME TO legacy_books`,
			`CREATE TEMP TABLE legacy_book_ids (old_id INTEGER PRIMARY KEY, new_id TEXT NOT NULL)`,
		)
	}
	for _, s := range steps {
		if _, err := tx.Exec(s); err != nil {
			return fmt.Errorf("migrate: %s: %w", s, err)
		}
	}
	if err := createSchema(tx); err != nil {
		return err
	}

	if err := assignIDs(tx, "legacy_users", "legacy_user_ids"); err != nil {
		return err
	}
	_, err = tx.Exec(`
	INSERT INTO users(id, name, email, password_hash, created_at)
	SELECT m.new_id, u.name, lower(trim(u.email)), u.password_hash, COALESCE(u.created_at, CURRENT_TIMESTAMP)
	FROM legacy_users u JOIN legacy_user_ids m ON m.old_id = u.id`)
	if IsUniqueViolation(err) {
		return fmt.Errorf("migrate: legacy emails collide once lower-cased: %w", err)
	}
	if err != nil {
		return fmt.Errorf("migrate: copy users: %w", err)
	}

	if hasBooks {
		if err := assignIDs(tx, "legacy_books", "legacy_book_ids"); err != nil {
			return err
		}
		if _, err := tx.Exec(`
		INSERT INTO books(id, user_id, title, author, pages, current_page, status, isbn, cover_url,
			start_date, end_date, created_at, updated_at)
		SELECT bm.new_id, um.new_id, COALESCE(b.title, ''), COALESCE(b.author, ''), b.pages,
			COALESCE(b.current_page, 0), COALESCE(b.status, 'planned'), b.isbn, b.cover_url,
			b.start_date, b.end_date, COALESCE(b.created_at, CURRENT_TIMESTAMP),
			COALESCE(b.updated_at, b.created_at, CURRENT_TIMESTAMP)
		FROM legacy_books b
		JOIN legacy_book_ids bm ON bm.old_id = b.id
		JOIN legacy_user_ids um ON um.old_id = b.user_id`); err != nil {
			return fmt.Errorf("migrate: copy books: %w", err)
		}
		steps = []string{`DROP TABLE legacy_books`, `DROP TABLE legacy_book_ids`}
	} else {
		steps = nil
	}
	steps = append(steps, `DROP TABLE legacy_users`, `DROP TABLE legacy_user_ids`)
	for _, s := range steps {
		if _, err := tx.Exec(s); err != nil {
			return fmt.Errorf("migrate: %s: %w", s, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("migrate: commit upgrade: %w", err)
	}
	return nil
}

// assignIDs records a fresh uuid for every row id of table in idTable.
func assignIDs(q querier, table, idTable string) error {
	rows, err := q.Query(`SELECT id FROM ` + table)
	if err != nil {
		return fmt.Errorf("migrate: read %s ids: %w", table, err)
	}
	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			rows.Close()
			return fmt.Errorf("migrate: scan %s id: %w", table, err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return err
	}
	rows.Close()

	for _, id := range ids {
		if _, err := q.Exec(`INSERT INTO `+idTable+`(old_id, new_id) VALUES(?, ?)`, id, uuid.NewString()); err != nil {
			return fmt.Errorf("migrate: map %s id %d: %w", table, id, err)
		}
	}
	return nil
}

// ensureBookColumns adds the progress and metadata columns to a legacy books
// table created before they existed.
func ensureBookColumns(q querier, table string) error {
	have, err := tableColumns(q, table)
	if err != nil {
		return err
	}
	columns := []struct{ name, definition string }{
		{"current_page", "INTEGER NOT NULL DEFAULT 0"},
		{"isbn", "TEXT"},
		{"cover_url", "TEXT"},
	}
	for _, c := range columns {
		if _, ok := have[c.name]; ok {
			continue
		}
		if _, err := q.Exec(fmt.Sprintf(`ALTER TABLE %s ADD COLUMN %s %s`, table, c.name, c.definition)); err != nil {
			return fmt.Errorf("add %s.%s: %w", table, c.name, err)
		}
	}
	return nil
}

// tableColumns maps column name to declared type. It is empty when the table
// does not exist.
func tableColumns(q querier, table string) (map[string]string, error) {
	rows, err := q.Query(fmt.Sprintf(`PRAGMA table_info(%s)`, table))
	if err != nil {
		return nil, fmt.Errorf("read %s columns: %w", table, err)
	}
	defer rows.Close()
	cols := map[string]string{}
	for rows.Next() {
		var (
			cid       int
			name      string
			colType   string
			notNull   int
			dfltValue sql.NullString
			pk        int
		)
		if err := rows.Scan(&cid, &name, &colType, &notNull, &dfltValue, &pk); err != nil {
			return nil, fmt.Errorf("scan %s column: %w", table, err)
		}
		cols[name] = colType
	}
	return cols, rows.Err()
}

// integerID reports whether the id column has integer affinity.
func integerID(cols map[string]string) bool {
	t, ok := cols["id"]
	return ok && strings.Contains(strings.ToUpper(t), "INT")
}
