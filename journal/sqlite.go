package journal

import (
	"database/sql"

	_ "github.com/mattn/go-sqlite3"
)

type SQLite struct {
	db *sql.DB
}

func NewSQLite(path string) (*SQLite, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, err
	}
	// Purchases and decay ticks write from different goroutines.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(Schema); err != nil {
		db.Close()
		return nil, err
	}

	return &SQLite{db: db}, nil
}

func (j *SQLite) RecordChange(e Event) error {
	_, err := j.db.Exec(`
		INSERT INTO price_changes
		(event_id, time, item, reason, price_before, price_after)
		VALUES (?, ?, ?, ?, ?, ?)`,
		e.ID, e.Time.UTC(), e.Item, e.Reason, e.Before, e.After,
	)
	return err
}

func (j *SQLite) Close() error {
	return j.db.Close()
}
