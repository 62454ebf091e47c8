package postgres

import (
	"context"
	"database/sql"
	"time"

	"github.com/Magazine-LFA/editorial/internal/model"
	"github.com/Magazine-LFA/editorial/internal/repository"
)

// DocumentPostgres is a PostgreSQL implementation of repository.DocumentRepository.
// It uses database/sql with parameterized queries and contains no business logic.
type DocumentPostgres struct {
	db *sql.DB
}

// NewDocumentPostgres creates a new DocumentPostgres repository.
func NewDocumentPostgres(db *sql.DB) *DocumentPostgres {
	return &DocumentPostgres{db: db}
}

var _ repository.DocumentRepository = (*DocumentPostgres)(nil)

const documentColumns = `id, title, slug, type, file_url, views, is_deleted, deleted_at, scheduled_date, created_at, updated_at`

func scanDocument(row interface{ Scan(...any) error }) (*model.Document, error) {
	var d model.Document
	if err := row.Scan(
		&d.ID,
		&d.Title,
		&d.Slug,
		&d.Type,
		&d.FileURL,
		&d.Views,
		&d.IsDeleted,
		&d.DeletedAt,
		&d.ScheduledDate,
		&d.CreatedAt,
		&d.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &d, nil
}

// Create inserts a new document row and returns the stored record.
// The slug uniqueness constraint makes the database the tie-breaker for
// concurrent uploads of same-titled documents.
func (r *DocumentPostgres) Create(ctx context.Context, doc *model.Document) (*model.Document, error) {
	const q = `
		INSERT INTO documents (id, title, slug, type, file_url, views, is_deleted, scheduled_date, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $9)
		RETURNING ` + documentColumns
	row := r.db.QueryRowContext(ctx, q,
		doc.ID,
		doc.Title,
		doc.Slug,
		doc.Type,
		doc.FileURL,
		doc.Views,
		doc.IsDeleted,
		doc.ScheduledDate,
		doc.CreatedAt,
	)
	return scanDocument(row)
}

// FindByID fetches a single document by its ID.
func (r *DocumentPostgres) FindByID(ctx context.Context, id string) (*model.Document, error) {
	const q = `SELECT ` + documentColumns + ` FROM documents WHERE id = $1`
	return scanDocument(r.db.QueryRowContext(ctx, q, id))
}

// FindBySlug fetches a single document by its slug, optionally hiding
// soft-deleted rows.
func (r *DocumentPostgres) FindBySlug(ctx context.Context, slug string, excludeDeleted bool) (*model.Document, error) {
	q := `SELECT ` + documentColumns + ` FROM documents WHERE slug = $1`
	if excludeDeleted {
		q += ` AND is_deleted = FALSE`
	}
	return scanDocument(r.db.QueryRowContext(ctx, q, slug))
}

// List returns documents matching the filter, newest first.
func (r *DocumentPostgres) List(ctx context.Context, f repository.ListFilter) ([]model.Document, error) {
	q := `SELECT ` + documentColumns + ` FROM documents`
	var (
		conds []string
		args  []any
	)
	if f.Type != "" {
		args = append(args, f.Type)
		conds = append(conds, `type = $1`)
	}
	if f.ExcludeDeleted {
		conds = append(conds, `is_deleted = FALSE`)
	}
	for i, c := range conds {
		if i == 0 {
			q += ` WHERE ` + c
		} else {
			q += ` AND ` + c
		}
	}
	q += ` ORDER BY created_at DESC, id DESC`

	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := make([]model.Document, 0)
	for rows.Next() {
		d, err := scanDocument(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, *d)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

// SetDeletion flips the soft-delete pair in one partial UPDATE. Flipping an
// already-deleted (or already-active) document is a no-op at the row level,
// which keeps the operation idempotent. Returns sql.ErrNoRows for an
// unknown id.
func (r *DocumentPostgres) SetDeletion(ctx context.Context, id string, deleted bool, deletedAt *time.Time) error {
	const q = `
		UPDATE documents
		SET is_deleted = $2, deleted_at = $3, updated_at = now()
		WHERE id = $1`
	res, err := r.db.ExecContext(ctx, q, id, deleted, deletedAt)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// IncrementViews bumps the counter atomically at the database so no view is
// lost under concurrent readers.
func (r *DocumentPostgres) IncrementViews(ctx context.Context, id string) (*model.Document, error) {
	const q = `
		UPDATE documents
		SET views = views + 1, updated_at = now()
		WHERE id = $1
		RETURNING ` + documentColumns
	return scanDocument(r.db.QueryRowContext(ctx, q, id))
}
