package storage

import (
	"context"
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"sync"
)

// JSONContainer is a file-backed Container for local development. The whole
// collection lives in one JSON file that is rewritten on every write.
type JSONContainer struct {
	mu       sync.RWMutex
	filePath string
	docs     map[string]json.RawMessage
}

// NewJSONContainer opens (or starts) the collection file at dataDir/filename.
func NewJSONContainer(dataDir, filename string) (*JSONContainer, error) {
	// Ensure data directory exists
	if err := os.MkdirAll(dataDir, 0755); err != nil {
		return nil, err
	}

	c := &JSONContainer{
		filePath: filepath.Join(dataDir, filename),
		docs:     make(map[string]json.RawMessage),
	}
	if err := c.load(); err != nil {
		return nil, err
	}
	return c, nil
}

func (c *JSONContainer) Read(ctx context.Context, id string, out interface{}) error {
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

func (c *JSONContainer) Upsert(ctx context.Context, id string, doc interface{}) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	raw, err := json.Marshal(doc)
	if err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	prev, had := c.docs[id]
	c.docs[id] = raw
	if err := c.save(); err != nil {
		if had {
			c.docs[id] = prev
		} else {
			delete(c.docs, id)
		}
		return err
	}
	return nil
}

func (c *JSONContainer) Create(ctx context.Context, id string, doc interface{}) error {
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
	if err := c.save(); err != nil {
		delete(c.docs, id)
		return err
	}
	return nil
}

func (c *JSONContainer) load() error {
	file, err := os.Open(c.filePath)
	if err != nil {
		if os.IsNotExist(err) {
			// File doesn't exist yet, not an error
			return nil
		}
		return err
	}
	defer file.Close()

	if err := json.NewDecoder(file).Decode(&c.docs); err != nil && err != io.EOF {
		return err
	}
	if c.docs == nil {
		c.docs = make(map[string]json.RawMessage)
	}
	return nil
}

// save must be called with c.mu held.
func (c *JSONContainer) save() error {
	// Write to temp file first, then rename (atomic operation)
	tempFile := c.filePath + ".tmp"
	file, err := os.Create(tempFile)
	if err != nil {
		return err
	}

	encoder := json.NewEncoder(file)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(c.docs); err != nil {
		file.Close()
		os.Remove(tempFile)
		return err
	}

	if err := file.Close(); err != nil {
		os.Remove(tempFile)
		return err
	}

	return os.Rename(tempFile, c.filePath)
}
