package dataset

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3"

	verrors "github.com/veridex/veridex/internal/errors"
)

// Record describes a registered dataset.
type Record struct {
	// Name is the handle runs refer to, e.g. "books_200M_uint64".
	Name string
	// ObjectPath locates the blob in object storage.
	ObjectPath string
	// ElementCount is the declared number of elements.
	ElementCount int64
	// ElementWidth is the element size in bytes; always 8 for now.
	ElementWidth int
	// RegisteredAt records when the dataset entered the catalog.
	RegisteredAt time.Time
}

// Catalog maps dataset names to their storage locations so runs can
// target a dataset by name instead of a raw path. Backed by SQLite.
type Catalog struct {
	db *sql.DB
}

// OpenCatalog opens (creating if necessary) the catalog database at
// dbPath.
func OpenCatalog(dbPath string) (*Catalog, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, verrors.NewCatalogError(verrors.CodeUnexpected, "failed to open catalog database", err)
	}

	schema := `
	CREATE TABLE IF NOT EXISTS datasets (
		name          TEXT PRIMARY KEY,
		object_path   TEXT NOT NULL,
		element_count INTEGER NOT NULL,
		element_width INTEGER NOT NULL DEFAULT 8,
		registered_at TIMESTAMP NOT NULL
	)`
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, verrors.NewCatalogError(verrors.CodeUnexpected, "failed to create catalog schema", err)
	}

	return &Catalog{db: db}, nil
}

// Register adds a dataset to the catalog. Registering a name twice is an
// error; re-pointing a name at new data should be explicit (Unregister
// first).
func (c *Catalog) Register(ctx context.Context, rec Record) error {
	if rec.Name == "" {
		return verrors.NewCatalogError(verrors.CodeUnexpected, "dataset name is required", nil)
	}
	if rec.ElementWidth == 0 {
		rec.ElementWidth = 8
	}
	if rec.RegisteredAt.IsZero() {
		rec.RegisteredAt = time.Now().UTC()
	}

	_, err := c.db.ExecContext(ctx,
		`INSERT INTO datasets (name, object_path, element_count, element_width, registered_at)
		 VALUES (?, ?, ?, ?, ?)`,
		rec.Name, rec.ObjectPath, rec.ElementCount, rec.ElementWidth, rec.RegisteredAt)
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint failed") {
			return verrors.NewCatalogError(verrors.CodeDuplicateName,
				fmt.Sprintf("dataset %q is already registered", rec.Name), err)
		}
		return verrors.NewCatalogError(verrors.CodeUnexpected, "failed to register dataset", err)
	}
	return nil
}

// Get retrieves a dataset record by name.
func (c *Catalog) Get(ctx context.Context, name string) (*Record, error) {
	row := c.db.QueryRowContext(ctx,
		`SELECT name, object_path, element_count, element_width, registered_at
		 FROM datasets WHERE name = ?`, name)

	var rec Record
	err := row.Scan(&rec.Name, &rec.ObjectPath, &rec.ElementCount, &rec.ElementWidth, &rec.RegisteredAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, verrors.NewCatalogError(verrors.CodeDatasetNotFound,
			fmt.Sprintf("dataset %q is not registered", name), nil)
	}
	if err != nil {
		return nil, verrors.NewCatalogError(verrors.CodeUnexpected, "failed to read dataset record", err)
	}
	return &rec, nil
}

// List returns all registered datasets, newest first.
func (c *Catalog) List(ctx context.Context) ([]*Record, error) {
	rows, err := c.db.QueryContext(ctx,
		`SELECT name, object_path, element_count, element_width, registered_at
		 FROM datasets ORDER BY registered_at DESC`)
	if err != nil {
		return nil, verrors.NewCatalogError(verrors.CodeUnexpected, "failed to list datasets", err)
	}
	defer rows.Close()

	var records []*Record
	for rows.Next() {
		var rec Record
		if err := rows.Scan(&rec.Name, &rec.ObjectPath, &rec.ElementCount, &rec.ElementWidth, &rec.RegisteredAt); err != nil {
			return nil, verrors.NewCatalogError(verrors.CodeUnexpected, "failed to scan dataset record", err)
		}
		records = append(records, &rec)
	}
	return records, rows.Err()
}

// Unregister removes a dataset record. Removing an unknown name is a
// no-op.
func (c *Catalog) Unregister(ctx context.Context, name string) error {
	_, err := c.db.ExecContext(ctx, `DELETE FROM datasets WHERE name = ?`, name)
	if err != nil {
		return verrors.NewCatalogError(verrors.CodeUnexpected, "failed to unregister dataset", err)
	}
	return nil
}

// Close closes the catalog database.
func (c *Catalog) Close() error {
	return c.db.Close()
}
