package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"io"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/Magazine-LFA/editorial/internal/model"
	"github.com/Magazine-LFA/editorial/internal/repository"
	"github.com/Magazine-LFA/editorial/internal/slug"
	"github.com/Magazine-LFA/editorial/internal/storage"
)

// UploadInput carries the metadata accompanying an uploaded PDF.
type UploadInput struct {
	Title         string
	Type          model.DocumentType
	FileName      string
	Size          int64
	ContentType   string
	ScheduledDate *time.Time
}

// DocumentService defines the document lifecycle and view accounting use cases.
type DocumentService interface {
	// Upload stores the PDF in the storage backend, then creates its
	// metadata record. A storage failure aborts before any record exists;
	// a persistence failure after a successful store leaves the blob
	// orphaned (logged, not compensated).
	Upload(ctx context.Context, r io.Reader, in UploadInput) (*model.Document, error)

	// SoftDelete flags a document deleted. Idempotent. Storage-object
	// removal (when enabled) is best-effort and never aborts the operation.
	SoftDelete(ctx context.Context, id string) error

	// Restore clears the deletion flag. Idempotent.
	Restore(ctx context.Context, id string) error

	// Get returns a single document by its ID.
	Get(ctx context.Context, id string) (*model.Document, error)

	// List returns documents newest first, optionally filtered by type and
	// with soft-deleted documents hidden.
	List(ctx context.Context, docType model.DocumentType, includeDeleted bool) ([]model.Document, error)

	// RecordView resolves a published document by slug and applies the view
	// accounting policy. lastViewedAt is the reader's prior-view timestamp
	// (nil when the reader presented no token). The returned flag tells the
	// caller whether the view was counted, i.e. whether to issue a fresh
	// token to the reader.
	RecordView(ctx context.Context, s string, lastViewedAt *time.Time) (*model.Document, bool, error)
}

// Config tunes the lifecycle and view accounting policies.
type Config struct {
	// RemoveOnDelete enables the best-effort storage removal on soft delete.
	// Off by default: the object is retained so a later Restore never leaves
	// the file URL dangling.
	RemoveOnDelete bool
	// DedupWindow is the span during which repeated views from the same
	// reader are not counted. Zero means every qualifying read counts.
	DedupWindow time.Duration
}

type documentService struct {
	store storage.Backend
	repo  repository.DocumentRepository
	cfg   Config
}

// NewDocumentService constructs a DocumentService.
func NewDocumentService(store storage.Backend, repo repository.DocumentRepository, cfg Config) DocumentService {
	return &documentService{store: store, repo: repo, cfg: cfg}
}

func (s *documentService) Upload(ctx context.Context, r io.Reader, in UploadInput) (*model.Document, error) {
	title := strings.TrimSpace(in.Title)
	if title == "" {
		return nil, &ValidationError{Field: "title", Reason: "must not be empty"}
	}
	if !in.Type.Valid() {
		return nil, &ValidationError{Field: "type", Reason: "must be magazine or editorial"}
	}
	if !strings.HasSuffix(strings.ToLower(in.FileName), ".pdf") {
		return nil, &ValidationError{Field: "file", Reason: "only PDF files are allowed"}
	}
	if r == nil || in.Size == 0 {
		return nil, &ValidationError{Field: "file", Reason: "must not be empty"}
	}

	sl := slug.Make(title)
	objectName := storage.ObjectName(sl, time.Now())

	fileURL, err := s.store.Store(ctx, objectName, r, storage.PutOptions{
		Size:        in.Size,
		ContentType: in.ContentType,
		Metadata:    map[string]string{"original-filename": in.FileName},
	})
	if err != nil {
		return nil, &StorageError{Op: "store", Err: err}
	}

	now := time.Now().UTC()
	doc := &model.Document{
		ID:            uuid.New().String(),
		Title:         title,
		Slug:          sl,
		Type:          in.Type,
		FileURL:       fileURL,
		Views:         0,
		IsDeleted:     false,
		ScheduledDate: in.ScheduledDate,
		CreatedAt:     now,
	}
	stored, err := s.repo.Create(ctx, doc)
	if err != nil {
		// The stored blob stays behind; a sweeper can reclaim it later.
		logJSON(map[string]any{
			"component": "service",
			"event":     "upload_orphaned_object",
			"object":    objectName,
			"error":     err.Error(),
		})
		return nil, &PersistenceError{Op: "create", Err: err}
	}
	return stored, nil
}

func (s *documentService) SoftDelete(ctx context.Context, id string) error {
	doc, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ErrNotFound
		}
		return &PersistenceError{Op: "find", Err: err}
	}
	if doc.IsDeleted {
		// Already deleted; do not touch the storage object again.
		return nil
	}

	if s.cfg.RemoveOnDelete {
		objectName := storage.ObjectNameFromURL(doc.FileURL)
		if err := s.store.Remove(ctx, objectName); err != nil {
			// Storage cleanup is advisory. The metadata state machine
			// proceeds regardless.
			logJSON(map[string]any{
				"component": "service",
				"event":     "soft_delete_storage_cleanup_failed",
				"document":  doc.ID,
				"object":    objectName,
				"error":     err.Error(),
			})
		}
	}

	now := time.Now().UTC()
	if err := s.repo.SetDeletion(ctx, id, true, &now); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ErrNotFound
		}
		return &PersistenceError{Op: "delete", Err: err}
	}
	return nil
}

func (s *documentService) Restore(ctx context.Context, id string) error {
	doc, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ErrNotFound
		}
		return &PersistenceError{Op: "find", Err: err}
	}
	if !doc.IsDeleted {
		return nil
	}
	if err := s.repo.SetDeletion(ctx, id, false, nil); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ErrNotFound
		}
		return &PersistenceError{Op: "restore", Err: err}
	}
	return nil
}

func (s *documentService) Get(ctx context.Context, id string) (*model.Document, error) {
	if id == "" {
		return nil, &ValidationError{Field: "id", Reason: "must not be empty"}
	}
	doc, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, &PersistenceError{Op: "find", Err: err}
	}
	return doc, nil
}

func (s *documentService) List(ctx context.Context, docType model.DocumentType, includeDeleted bool) ([]model.Document, error) {
	if docType != "" && !docType.Valid() {
		return nil, &ValidationError{Field: "type", Reason: "must be magazine or editorial"}
	}
	items, err := s.repo.List(ctx, repository.ListFilter{
		Type:           docType,
		ExcludeDeleted: !includeDeleted,
	})
	if err != nil {
		return nil, &PersistenceError{Op: "list", Err: err}
	}
	return items, nil
}

func (s *documentService) RecordView(ctx context.Context, sl string, lastViewedAt *time.Time) (*model.Document, bool, error) {
	if sl == "" {
		return nil, false, &ValidationError{Field: "slug", Reason: "must not be empty"}
	}
	doc, err := s.repo.FindBySlug(ctx, sl, true)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, false, ErrNotFound
		}
		return nil, false, &PersistenceError{Op: "find", Err: err}
	}

	if s.cfg.DedupWindow > 0 && lastViewedAt != nil && time.Since(*lastViewedAt) < s.cfg.DedupWindow {
		// The reader's token is still valid; return the stored state as is.
		return doc, false, nil
	}

	updated, err := s.repo.IncrementViews(ctx, doc.ID)
	if err != nil {
		return nil, false, &PersistenceError{Op: "increment views", Err: err}
	}
	return updated, true, nil
}

func logJSON(data map[string]any) {
	data["ts"] = time.Now().UTC().Format(time.RFC3339Nano)
	if _, ok := data["level"]; !ok {
		data["level"] = "warn"
	}
	b, err := json.Marshal(data)
	if err != nil {
		log.Printf("failed to marshal service log: %v", err)
		return
	}
	log.SetFlags(0)
	log.Println(string(b))
}
