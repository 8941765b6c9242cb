package storage

import (
	"context"
	"errors"
)

var (
	ErrNotFound = errors.New("document not found")
	ErrConflict = errors.New("document already exists")
)

// Container is a document collection keyed by id. Implementations give
// per-document atomicity for each call and nothing across calls.
type Container interface {
	// Read decodes the document stored under id into out. It returns
	// ErrNotFound when no such document exists.
	Read(ctx context.Context, id string, out interface{}) error
	// Upsert creates the document if absent and overwrites it otherwise.
	Upsert(ctx context.Context, id string, doc interface{}) error
	// Create inserts a new document and returns ErrConflict if id is taken.
	Create(ctx context.Context, id string, doc interface{}) error
}
