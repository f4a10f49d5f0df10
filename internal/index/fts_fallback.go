//go:build !sqlite_fts5

package index

import (
	"database/sql"
	"fmt"
)

func initFTS(_ *sql.DB) error { return nil }

// Bodies live in the documents table already.
func ftsUpsert(_ *sql.Tx, _, _, _ string, _ []string) error { return nil }

func ftsDelete(_ *sql.Tx, _ string) error { return nil }

// Search matches query as a substring of the title, section titles, or body.
// Results are ordered by path; the snippet is the start of the body.
func (db *DB) Search(query string, limit int) ([]SearchResult, error) {
	like := "%" + query + "%"
	rows, err := db.conn.Query(`
		SELECT path, title, substr(body, 1, 200)
		FROM documents
		WHERE title LIKE ? OR sections LIKE ? OR body LIKE ?
		ORDER BY path
		LIMIT ?
	`, like, like, like, searchLimit(limit))
	if err != nil {
		return nil, fmt.Errorf("index: search: %w", err)
	}
	return scanResults(rows)
}
