package model

import "time"

// DocumentType distinguishes the two publication kinds the service accepts.
type DocumentType string

const (
	TypeMagazine  DocumentType = "magazine"
	TypeEditorial DocumentType = "editorial"
)

// Valid reports whether t is one of the known document types.
func (t DocumentType) Valid() bool {
	return t == TypeMagazine || t == TypeEditorial
}

// Document is the metadata record of one published PDF.
// This is a pure domain model with no database-specific dependencies or tags.
// It can be used across layers (HTTP, service, storage) without coupling to persistence.
type Document struct {
	ID            string       `json:"id"`
	Title         string       `json:"title"`
	Slug          string       `json:"slug"`
	Type          DocumentType `json:"type"`
	FileURL       string       `json:"file_url"`
	Views         int64        `json:"views"`
	IsDeleted     bool         `json:"is_deleted"`
	DeletedAt     *time.Time   `json:"deleted_at,omitempty"`
	ScheduledDate *time.Time   `json:"scheduled_date,omitempty"`
	CreatedAt     time.Time    `json:"created_at"`
	UpdatedAt     time.Time    `json:"updated_at"`
}
