package database

import (
	"database/sql"
	"fmt"
	"strings"

	_ "github.com/mattn/go-sqlite3"
)

// Open opens the SQLite database at dbPath with foreign keys enforced.
func Open(dbPath string) (*sql.DB, error) {
	db, err := sql.Open("sqlite3", withPragmas(dbPath))
	if err != nil {
		return nil, err
	}
	// One connection serializes writes and keeps ":memory:" databases alive between calls.
	db.SetMaxOpenConns(1)
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping sqlite: %w", err)
	}
	return db, nil
}

func withPragmas(dsn string) string {
	sep := "?"
	if strings.Contains(dsn, "?") {
		sep = "&"
	}
	return dsn + sep + "_foreign_keys=on&_busy_timeout=5000"
}
