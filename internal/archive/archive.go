// Package archive persists crawled pages in a local SQLite database so the
// index can be rebuilt (minisearch reindex) without refetching anything.
// Like the index itself, the archive is replaced wholesale per crawl.
package archive

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/glebarez/sqlite"

	"github.com/SiddhantNarel/mini-search-engine/internal/crawler"
)

const schema = `
CREATE TABLE IF NOT EXISTS pages (
	id         INTEGER PRIMARY KEY AUTOINCREMENT,
	url        TEXT NOT NULL,
	title      TEXT NOT NULL,
	text       TEXT NOT NULL,
	fetched_at TIMESTAMP NOT NULL
);
`

// Archive stores crawled pages in crawl order.
type Archive struct {
	db *sql.DB
}

// Open opens (creating if necessary) the archive database at path.
func Open(path string) (*Archive, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening archive %s: %w", path, err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating archive schema: %w", err)
	}
	return &Archive{db: db}, nil
}

// Replace swaps the archive contents for the given pages inside a single
// transaction, mirroring the index's rebuild-not-merge lifecycle: a reader
// never sees a mix of two crawls.
func (a *Archive) Replace(ctx context.Context, pages []crawler.Page) error {
	tx, err := a.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning archive transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM pages`); err != nil {
		return fmt.Errorf("clearing archive: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO pages (url, title, text, fetched_at) VALUES (?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("preparing archive insert: %w", err)
	}
	defer stmt.Close()

	now := time.Now().UTC()
	for _, page := range pages {
		if _, err := stmt.ExecContext(ctx, page.URL, page.Title, page.Text, now); err != nil {
			return fmt.Errorf("inserting page %s: %w", page.URL, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing archive: %w", err)
	}
	return nil
}

// Pages returns all archived pages in crawl order.
func (a *Archive) Pages(ctx context.Context) ([]crawler.Page, error) {
	rows, err := a.db.QueryContext(ctx,
		`SELECT url, title, text FROM pages ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("querying archive: %w", err)
	}
	defer rows.Close()

	var pages []crawler.Page
	for rows.Next() {
		var page crawler.Page
		if err := rows.Scan(&page.URL, &page.Title, &page.Text); err != nil {
			return nil, fmt.Errorf("scanning archived page: %w", err)
		}
		pages = append(pages, page)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating archive: %w", err)
	}
	return pages, nil
}

// Count returns the number of archived pages.
func (a *Archive) Count(ctx context.Context) (int, error) {
	var count int
	if err := a.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM pages`).Scan(&count); err != nil {
		return 0, fmt.Errorf("counting archived pages: %w", err)
	}
	return count, nil
}

// Close closes the underlying database.
func (a *Archive) Close() error {
	return a.db.Close()
}
