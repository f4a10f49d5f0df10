package index

import (
	"log/slog"
	"time"

	"github.com/starford/tikibase/internal/checksum"
)

// Source is one document as seen by the latest scan.
type Source struct {
	Path     string
	Title    string
	Sections []string
	Text     string
	// Links are the root-relative paths of the documents this one links to.
	Links []string
}

// Sync brings the index up to date with the documents of a scan:
//   - new/changed documents are upserted
//   - documents that are gone are deleted from the index
func Sync(db *DB, sources []Source, logger *slog.Logger) error {
	checksums, err := db.AllChecksums()
	if err != nil {
		return err
	}

	now := time.Now()
	seen := make(map[string]struct{}, len(sources))
	for _, src := range sources {
		seen[src.Path] = struct{}{}

		cs := checksum.Text(src.Text)
		if checksums[src.Path] == cs {
			continue
		}
		row := DocumentRow{
			Path:      src.Path,
			Title:     src.Title,
			Checksum:  cs,
			Sections:  src.Sections,
			UpdatedAt: now,
		}
		if err := db.UpsertDocument(row, src.Text, src.Links); err != nil {
			logger.Warn("sync: index failed", slog.String("path", src.Path), slog.String("error", err.Error()))
		} else {
			logger.Debug("sync: indexed", slog.String("path", src.Path))
		}
	}

	// Remove stale entries.
	for p := range checksums {
		if _, ok := seen[p]; ok {
			continue
		}
		if err := db.DeleteDocument(p); err != nil {
			logger.Warn("sync: delete failed", slog.String("path", p), slog.String("error", err.Error()))
		} else {
			logger.Debug("sync: removed stale", slog.String("path", p))
		}
	}

	return nil
}
