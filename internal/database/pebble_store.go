// file: internal/database/pebble_store.go
// version: 2.0.0
// guid: 0c1d2e3f-4a5b-6c7d-8e9f-0a1b2c3d4e5f

package database

import (
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/cockroachdb/pebble/v2"
)

// PebbleKV implements KV on PebbleDB (LSM key-value store).
//
// Key Schema:
// - kv:<key> -> raw value (the book collection lives under kv:books)
type PebbleKV struct {
	db *pebble.DB
}

// NewPebbleKV opens or creates a PebbleDB directory at path.
func NewPebbleKV(path string) (*PebbleKV, error) {
	if path == "" {
		return nil, fmt.Errorf("pebble store requires a path")
	}
	db, err := pebble.Open(path, &pebble.Options{
		FormatMajorVersion: pebble.FormatNewest,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open PebbleDB: %w", err)
	}
	log.Printf("[DEBUG] PebbleDB opened at %s", path)
	return &PebbleKV{db: db}, nil
}

func pebbleKey(key string) []byte {
	return []byte("kv:" + key)
}

// Read returns a copy of the stored value.
func (p *PebbleKV) Read(ctx context.Context, key string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	value, closer, err := p.db.Get(pebbleKey(key))
	if errors.Is(err, pebble.ErrNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	defer closer.Close()

	out := make([]byte, len(value))
	copy(out, value)
	return out, nil
}

// Write stores value with a synced write.
func (p *PebbleKV) Write(ctx context.Context, key string, value []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return p.db.Set(pebbleKey(key), value, pebble.Sync)
}

// Close closes the database
func (p *PebbleKV) Close() error {
	return p.db.Close()
}
