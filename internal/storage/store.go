// Package storage persists user documents and tabular workout rows.
// The DocumentStore interface mirrors a per-user file/spreadsheet model:
// named JSON or text documents plus append-only row sheets.
package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

// DocumentStore is the persistence boundary for all user data.
type DocumentStore interface {
	// Load returns the document content, or (nil, nil) when the key
	// does not exist.
	Load(ctx context.Context, user, key string) ([]byte, error)

	// Save creates or overwrites a document and returns its ID.
	Save(ctx context.Context, user, key string, doc []byte) (string, error)

	// AppendRow appends one row of cells to a named sheet.
	AppendRow(ctx context.Context, user, sheet string, row []string) error

	// ReadRows returns all rows of a sheet in insertion order.
	ReadRows(ctx context.Context, user, sheet string) ([][]string, error)

	// ListKeys returns document keys with the given prefix, sorted.
	ListKeys(ctx context.Context, user, prefix string) ([]string, error)
}

// SQLiteStore implements DocumentStore on a local sqlite database.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore opens (creating if needed) the database at path.
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	s := &SQLiteStore{db: db}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	return s, nil
}

// NewSQLiteStoreWithDB wraps an existing database connection.
func NewSQLiteStoreWithDB(db *sql.DB) (*SQLiteStore, error) {
	s := &SQLiteStore{db: db}
	if err := s.migrate(); err != nil {
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return s, nil
}

func (s *SQLiteStore) migrate() error {
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS documents (
			id TEXT PRIMARY KEY,
			user TEXT NOT NULL,
			key TEXT NOT NULL,
			content BLOB NOT NULL,
			updated_at TEXT NOT NULL,
			UNIQUE(user, key)
		);

		CREATE TABLE IF NOT EXISTS sheet_rows (
			id TEXT PRIMARY KEY,
			user TEXT NOT NULL,
			sheet TEXT NOT NULL,
			cells TEXT NOT NULL,
			created_at TEXT NOT NULL
		);

		CREATE INDEX IF NOT EXISTS idx_documents_user_key ON documents(user, key);
		CREATE INDEX IF NOT EXISTS idx_sheet_rows_user_sheet ON sheet_rows(user, sheet);
	`)
	return err
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// Load returns the document content, or (nil, nil) when absent.
func (s *SQLiteStore) Load(ctx context.Context, user, key string) ([]byte, error) {
	var content []byte
	err := s.db.QueryRowContext(ctx,
		`SELECT content FROM documents WHERE user = ? AND key = ?`,
		user, key,
	).Scan(&content)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", key, err)
	}
	return content, nil
}

// Save creates or overwrites a document, returning its ID.
func (s *SQLiteStore) Save(ctx context.Context, user, key string, doc []byte) (string, error) {
	now := time.Now().UTC().Format(time.RFC3339)

	var existingID string
	err := s.db.QueryRowContext(ctx,
		`SELECT id FROM documents WHERE user = ? AND key = ?`,
		user, key,
	).Scan(&existingID)

	if err == sql.ErrNoRows {
		id, _ := uuid.NewV7()
		_, err = s.db.ExecContext(ctx,
			`INSERT INTO documents (id, user, key, content, updated_at) VALUES (?, ?, ?, ?, ?)`,
			id.String(), user, key, doc, now,
		)
		if err != nil {
			return "", fmt.Errorf("insert %s: %w", key, err)
		}
		return id.String(), nil
	} else if err != nil {
		return "", fmt.Errorf("check existing %s: %w", key, err)
	}

	_, err = s.db.ExecContext(ctx,
		`UPDATE documents SET content = ?, updated_at = ? WHERE user = ? AND key = ?`,
		doc, now, user, key,
	)
	if err != nil {
		return "", fmt.Errorf("update %s: %w", key, err)
	}
	return existingID, nil
}

// AppendRow appends one row of cells to a sheet.
func (s *SQLiteStore) AppendRow(ctx context.Context, user, sheet string, row []string) error {
	cells, err := json.Marshal(row)
	if err != nil {
		return fmt.Errorf("marshal row: %w", err)
	}

	id, _ := uuid.NewV7()
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO sheet_rows (id, user, sheet, cells, created_at) VALUES (?, ?, ?, ?, ?)`,
		id.String(), user, sheet, string(cells), time.Now().UTC().Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("append row to %s: %w", sheet, err)
	}
	return nil
}

// ReadRows returns all rows of a sheet in insertion order.
func (s *SQLiteStore) ReadRows(ctx context.Context, user, sheet string) ([][]string, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT cells FROM sheet_rows WHERE user = ? AND sheet = ? ORDER BY id`,
		user, sheet,
	)
	if err != nil {
		return nil, fmt.Errorf("read rows from %s: %w", sheet, err)
	}
	defer rows.Close()

	var result [][]string
	for rows.Next() {
		var cells string
		if err := rows.Scan(&cells); err != nil {
			return nil, fmt.Errorf("scan row: %w", err)
		}
		var row []string
		if err := json.Unmarshal([]byte(cells), &row); err != nil {
			return nil, fmt.Errorf("unmarshal row: %w", err)
		}
		result = append(result, row)
	}
	return result, rows.Err()
}

// ListKeys returns document keys with the given prefix, sorted.
func (s *SQLiteStore) ListKeys(ctx context.Context, user, prefix string) ([]string, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT key FROM documents WHERE user = ? AND key LIKE ? ORDER BY key`,
		user, prefix+"%",
	)
	if err != nil {
		return nil, fmt.Errorf("list keys: %w", err)
	}
	defer rows.Close()

	var keys []string
	for rows.Next() {
		var key string
		if err := rows.Scan(&key); err != nil {
			return nil, fmt.Errorf("scan key: %w", err)
		}
		keys = append(keys, key)
	}
	return keys, rows.Err()
}
