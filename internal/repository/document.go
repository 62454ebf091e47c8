package repository

import (
	"context"
	"time"

	"github.com/Magazine-LFA/editorial/internal/model"
)

// DocumentRepository defines data access for documents using SQL queries only.
// No business logic here — strictly persistence operations.
type DocumentRepository interface {
	// Create inserts a new document record. Constraint violations (notably
	// the slug uniqueness constraint) surface as driver errors for the
	// service to classify. Returns the stored document.
	Create(ctx context.Context, doc *model.Document) (*model.Document, error)

	// FindByID returns a document by its ID, sql.ErrNoRows when absent.
	FindByID(ctx context.Context, id string) (*model.Document, error)

	// FindBySlug returns a document by its slug, sql.ErrNoRows when absent.
	// With excludeDeleted set, soft-deleted documents count as absent.
	FindBySlug(ctx context.Context, slug string, excludeDeleted bool) (*model.Document, error)

	// List returns documents matching the filter, newest first.
	List(ctx context.Context, f ListFilter) ([]model.Document, error)

	// SetDeletion updates only the soft-delete pair (is_deleted, deleted_at)
	// of a document. It is a partial update: no other column is touched.
	SetDeletion(ctx context.Context, id string, deleted bool, deletedAt *time.Time) error

	// IncrementViews atomically bumps the view counter by one and returns
	// the updated document. Never read-modify-write.
	IncrementViews(ctx context.Context, id string) (*model.Document, error)
}

// ListFilter narrows List results. Zero value means all documents.
type ListFilter struct {
	Type           model.DocumentType
	ExcludeDeleted bool
}
