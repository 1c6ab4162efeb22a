// -- internal/form/ledger/cache.go --
package ledger

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"
)

// Cache is the persistent cross-run answer store. Answers a human has
// confirmed once are keyed by normalized question text, so the same
// question on another site resolves without re-asking.
type Cache struct {
	db *sql.DB
}

const cacheSchema = `
CREATE TABLE IF NOT EXISTS answers (
    question_key TEXT PRIMARY KEY,
    question     TEXT NOT NULL,
    answer       TEXT NOT NULL,
    updated_at   TIMESTAMP NOT NULL
);
`

// OpenCache opens (creating if needed) the SQLite answer cache at path.
func OpenCache(path string) (*Cache, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("failed to create cache dir: %w", err)
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open answer cache: %w", err)
	}
	// The pipeline is the sole writer; a single connection sidesteps
	// SQLITE_BUSY under the pure-Go driver.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(cacheSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize answer cache: %w", err)
	}
	return &Cache{db: db}, nil
}

// Close releases the underlying database.
func (c *Cache) Close() error {
	return c.db.Close()
}

// questionKey normalizes question text for cache identity: lowercase,
// collapsed whitespace, stripped punctuation tails.
func questionKey(question string) string {
	fields := strings.Fields(strings.ToLower(question))
	key := strings.Join(fields, " ")
	return strings.TrimRight(key, " ?:*.")
}

// Get returns the stored answer for a question, if any.
func (c *Cache) Get(ctx context.Context, question string) (string, bool, error) {
	key := questionKey(question)
	if key == "" {
		return "", false, nil
	}
	var answer string
	err := c.db.QueryRowContext(ctx,
		`SELECT answer FROM answers WHERE question_key = ?`, key).Scan(&answer)
	if err == sql.ErrNoRows {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("answer cache lookup failed: %w", err)
	}
	return answer, true, nil
}

// Put stores or refreshes the answer for a question.
func (c *Cache) Put(ctx context.Context, question, answer string) error {
	key := questionKey(question)
	if key == "" || strings.TrimSpace(answer) == "" {
		return nil
	}
	_, err := c.db.ExecContext(ctx, `
		INSERT INTO answers (question_key, question, answer, updated_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(question_key) DO UPDATE SET
		    answer = excluded.answer,
		    updated_at = excluded.updated_at`,
		key, question, answer, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("answer cache write failed: %w", err)
	}
	return nil
}
