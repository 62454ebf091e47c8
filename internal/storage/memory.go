package storage

import (
	"context"
	"fmt"
	"io"
	"sync"
)

// memoryBackend keeps objects in a process-local map. It backs tests and
// local development where no bucket is reachable.
type memoryBackend struct {
	mu      sync.RWMutex
	objects map[string][]byte
}

// NewMemory creates an in-memory storage backend.
func NewMemory() Backend {
	return &memoryBackend{objects: make(map[string][]byte)}
}

func (b *memoryBackend) Store(ctx context.Context, objectName string, r io.Reader, opt PutOptions) (string, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return "", err
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	b.objects[objectName] = data
	return "memory://" + objectName, nil
}

func (b *memoryBackend) Remove(ctx context.Context, objectName string) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if _, exists := b.objects[objectName]; !exists {
		return fmt.Errorf("object %s not found", objectName)
	}
	delete(b.objects, objectName)
	return nil
}
