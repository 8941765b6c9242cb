package storage

import (
	"context"
	"encoding/json"
	"sync"
)

// MemoryContainer keeps JSON-encoded documents in memory. Documents are
// copied on every call, so callers never share state with the store.
type MemoryContainer struct {
	mu   sync.RWMutex
	docs map[string][]byte
}

func NewMemoryContainer() *MemoryContainer {
	return &MemoryContainer{docs: make(map[string][]byte)}
}

func (c *MemoryContainer) Read(ctx context.Context, id string, out interface{}) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	c.mu.RLock()
	raw, ok := c.docs[id]
	c.mu.RUnlock()
	if !ok {
		return ErrNotFound
	}
	return json.Unmarshal(raw, out)
}

func (c *MemoryContainer) Upsert(ctx context.Context, id string, doc interface{}) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	raw, err := json.Marshal(doc)
	if err != nil {
		return err
	}
	c.mu.Lock()
	c.docs[id] = raw
	c.mu.Unlock()
	return nil
}

func (c *MemoryContainer) Create(ctx context.Context, id string, doc interface{}) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	raw, err := json.Marshal(doc)
	if err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, exists := c.docs[id]; exists {
		return ErrConflict
	}
	c.docs[id] = raw
	return nil
}

// Len returns the number of stored documents.
func (c *MemoryContainer) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.docs)
}
