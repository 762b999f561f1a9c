// Package catalog keeps a local SQLite record of ingested documents. The
// vector index remains the source of truth for chunk content; the catalog only
// powers listing and stats.
package catalog

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "github.com/mattn/go-sqlite3"

	"github.com/hyperjump/bunko/internal/models"
)

// Catalog is a SQLite-backed document catalog.
type Catalog struct {
	db *sql.DB
}

// NewCatalog opens or creates the catalog database at dbPath and initializes
// the schema. Parent directories are created if they do not exist.
func NewCatalog(dbPath string) (*Catalog, error) {
	if dir := filepath.Dir(dbPath); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create catalog directory: %w", err)
		}
	}
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open catalog database: %w", err)
	}
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to enable WAL: %w", err)
	}
	if err := initSchema(db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}
	return &Catalog{db: db}, nil
}

func initSchema(db *sql.DB) error {
	schema := `
	CREATE TABLE IF NOT EXISTS documents (
		id TEXT PRIMARY KEY,
		filename TEXT,
		content_type TEXT,
		chunk_total INTEGER NOT NULL,
		ingested_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	);

	CREATE INDEX IF NOT EXISTS idx_documents_ingested_at ON documents(ingested_at);
	`
	_, err := db.Exec(schema)
	return err
}

// Record inserts or replaces a catalog entry. Re-ingesting a document ID
// overwrites its previous entry.
func (c *Catalog) Record(ctx context.Context, entry models.CatalogEntry) error {
	_, err := c.db.ExecContext(ctx,
		`INSERT OR REPLACE INTO documents (id, filename, content_type, chunk_total, ingested_at)
		 VALUES (?, ?, ?, ?, ?)`,
		entry.ID, entry.Filename, entry.ContentType, entry.ChunkTotal, entry.IngestedAt,
	)
	return err
}

// Remove deletes a catalog entry. Removing an absent entry is not an error.
func (c *Catalog) Remove(ctx context.Context, documentID string) error {
	_, err := c.db.ExecContext(ctx, `DELETE FROM documents WHERE id = ?`, documentID)
	return err
}

// Get returns the catalog entry for a document ID.
func (c *Catalog) Get(ctx context.Context, documentID string) (*models.CatalogEntry, error) {
	var entry models.CatalogEntry
	err := c.db.QueryRowContext(ctx,
		`SELECT id, filename, content_type, chunk_total, ingested_at
		 FROM documents WHERE id = ?`, documentID,
	).Scan(&entry.ID, &entry.Filename, &entry.ContentType, &entry.ChunkTotal, &entry.IngestedAt)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("document not found: %s", documentID)
	}
	if err != nil {
		return nil, err
	}
	return &entry, nil
}

// List returns catalog entries ordered by ingest time, newest first.
func (c *Catalog) List(ctx context.Context, offset, limit int) ([]*models.CatalogEntry, error) {
	rows, err := c.db.QueryContext(ctx,
		`SELECT id, filename, content_type, chunk_total, ingested_at
		 FROM documents ORDER BY ingested_at DESC LIMIT ? OFFSET ?`,
		limit, offset,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []*models.CatalogEntry
	for rows.Next() {
		var entry models.CatalogEntry
		if err := rows.Scan(&entry.ID, &entry.Filename, &entry.ContentType, &entry.ChunkTotal, &entry.IngestedAt); err != nil {
			return nil, err
		}
		entries = append(entries, &entry)
	}
	return entries, rows.Err()
}

// Count returns the number of cataloged documents.
func (c *Catalog) Count(ctx context.Context) (int64, error) {
	var count int64
	err := c.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM documents`).Scan(&count)
	return count, err
}

// Close closes the database connection.
func (c *Catalog) Close() error {
	return c.db.Close()
}
