//go:build sqlite_fts5

package index

import (
	"database/sql"
	"fmt"
	"strings"
)

func initFTS(conn *sql.DB) error {
	_, err := conn.Exec(`
		CREATE VIRTUAL TABLE IF NOT EXISTS documents_fts USING fts5(
			path UNINDEXED,
			title,
			body,
			sections,
			tokenize = 'unicode61 remove_diacritics 2'
		);
	`)
	return err
}

func ftsUpsert(tx *sql.Tx, path, title, body string, sections []string) error {
	if _, err := tx.Exec(`DELETE FROM documents_fts WHERE path = ?`, path); err != nil {
		return fmt.Errorf("index: clear fts: %w", err)
	}
	_, err := tx.Exec(`INSERT INTO documents_fts (path, title, body, sections) VALUES (?, ?, ?, ?)`,
		path, title, body, strings.Join(sections, " "))
	if err != nil {
		return fmt.Errorf("index: upsert fts: %w", err)
	}
	return nil
}

func ftsDelete(tx *sql.Tx, path string) error {
	if _, err := tx.Exec(`DELETE FROM documents_fts WHERE path = ?`, path); err != nil {
		return fmt.Errorf("index: delete fts: %w", err)
	}
	return nil
}

// Search runs an FTS5 MATCH query ranked by relevance, with a highlighted
// body snippet per result.
func (db *DB) Search(query string, limit int) ([]SearchResult, error) {
	rows, err := db.conn.Query(`
		SELECT path, title, snippet(documents_fts, 2, '<b>', '</b>', '...', 64)
		FROM documents_fts
		WHERE documents_fts MATCH ?
		ORDER BY rank
		LIMIT ?
	`, query, searchLimit(limit))
	if err != nil {
		return nil, fmt.Errorf("index: search: %w", err)
	}
	return scanResults(rows)
}
