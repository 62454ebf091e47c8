package storage

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"
)

// Package storage contains the blob storage capability consumed by the
// document lifecycle. Implementations persist a binary object under a name
// and hand back a retrievable URL; they must rely on streaming I/O only.

// PutOptions define optional parameters for storing objects.
// Size should be the exact number of bytes if known; if unknown, set to -1
// and the implementation will buffer/chunk as supported by the backend.
type PutOptions struct {
	Size        int64
	ContentType string
	Metadata    map[string]string
}

// Backend is the polymorphic storage capability. Two production
// implementations exist (GCS and S3-compatible buckets) plus an in-memory
// one for tests; callers depend only on this interface.
type Backend interface {
	// Store uploads an object under the given name and returns a URL the
	// object can later be retrieved from.
	Store(ctx context.Context, objectName string, r io.Reader, opt PutOptions) (string, error)
	// Remove deletes an object by name.
	Remove(ctx context.Context, objectName string) error
}

// ObjectName builds the storage object name for a document upload.
// The millisecond timestamp keeps repeated uploads of same-titled
// documents from colliding.
func ObjectName(slug string, now time.Time) string {
	return fmt.Sprintf("%s-%d.pdf", slug, now.UnixMilli())
}

// ObjectNameFromURL extracts the object name from a file URL produced by
// Store. Object names never contain slashes, so the last path segment is
// always the full name.
func ObjectNameFromURL(fileURL string) string {
	if i := strings.LastIndex(fileURL, "/"); i >= 0 {
		return fileURL[i+1:]
	}
	return fileURL
}
