package bank

import (
	"database/sql"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"
)

// Timestamps are stored as millisecond UTC integers so date-range
// comparisons stay plain integer comparisons in SQL.

func toMillis(value time.Time) int64 {
	return value.UTC().UnixMilli()
}

func fromMillis(value int64) time.Time {
	return time.UnixMilli(value).UTC()
}

const transfersSchema = `
CREATE TABLE IF NOT EXISTS transfers (
	seq           INTEGER PRIMARY KEY AUTOINCREMENT,
	id            TEXT NOT NULL,
	from_bank     TEXT NOT NULL,
	from_account  TEXT NOT NULL,
	to_bank       TEXT NOT NULL,
	to_account    TEXT NOT NULL,
	amount        INTEGER NOT NULL,
	transfer_date INTEGER NOT NULL
);
`

const queryTransfersSQL = `
SELECT id, from_bank, from_account, to_bank, to_account, amount, transfer_date
FROM transfers
WHERE ((from_bank = ?1 AND from_account = ?2) OR (to_bank = ?1 AND to_account = ?2))
  AND (?3 IS NULL OR transfer_date >= ?3)
  AND (?4 IS NULL OR transfer_date <= ?4)
ORDER BY seq;
`

const insertTransferSQL = `
INSERT INTO transfers (id, from_bank, from_account, to_bank, to_account, amount, transfer_date)
VALUES (?, ?, ?, ?, ?, ?, ?);
`

// SQLiteStore implements TransferStore over a single SQLite file. The seq
// column preserves insertion order across restarts.
type SQLiteStore struct {
	db *sql.DB
}

// OpenSQLiteStore opens the store at path and creates the schema if needed.
func OpenSQLiteStore(path string) (*SQLiteStore, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("storage path is required")
	}

	dsn := filepath.Clean(path) + "?_journal_mode=WAL&_busy_timeout=5000&_synchronous=NORMAL"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping sqlite db: %w", err)
	}
	if _, err := db.Exec(transfersSchema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create transfers table: %w", err)
	}
	return &SQLiteStore{db: db}, nil
}

// Close releases the underlying database handle.
func (s *SQLiteStore) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

func (s *SQLiteStore) Append(t Transfer) error {
	_, err := s.db.Exec(insertTransferSQL,
		t.ID, t.FromBank, t.FromAccount, t.ToBank, t.ToAccount, t.Amount, toMillis(t.Date))
	if err != nil {
		return fmt.Errorf("insert transfer: %w", err)
	}
	return nil
}

func (s *SQLiteStore) Query(bank, accountNumber string, from, to *time.Time) ([]Transfer, error) {
	var fromArg, toArg any
	if from != nil {
		fromArg = toMillis(*from)
	}
	if to != nil {
		toArg = toMillis(*to)
	}

	rows, err := s.db.Query(queryTransfersSQL, bank, accountNumber, fromArg, toArg)
	if err != nil {
		return nil, fmt.Errorf("query transfers: %w", err)
	}
	defer rows.Close()

	var out []Transfer
	for rows.Next() {
		var t Transfer
		var date int64
		if err := rows.Scan(&t.ID, &t.FromBank, &t.FromAccount, &t.ToBank, &t.ToAccount, &t.Amount, &date); err != nil {
			return nil, fmt.Errorf("scan transfer: %w", err)
		}
		t.Date = fromMillis(date)
		out = append(out, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate transfers: %w", err)
	}
	return out, nil
}
