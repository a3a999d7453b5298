// file: internal/database/store.go
// version: 3.0.0
// guid: 8a9b0c1d-2e3f-4a5b-6c7d-8e9f0a1b2c3d

package database

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// ErrNotFound is returned by KV.Read when nothing is stored under the key.
var ErrNotFound = errors.New("key not found")

// DefaultStorageKey is the key the book collection is stored under.
const DefaultStorageKey = "books"

// KV is the persistence capability the book store needs: read a value,
// write a value. Backends are swappable so the store can be tested
// without any real storage engine.
type KV interface {
	Read(ctx context.Context, key string) ([]byte, error)
	Write(ctx context.Context, key string, value []byte) error
	Close() error
}

// Options selects and configures a KV backend.
type Options struct {
	Type string // pebble (default), sqlite, bolt, postgres, mysql, memory
	Path string // file or directory for embedded engines
	DSN  string // connection string for postgres and mysql

	// EnableSQLite must be true to use SQLite (cgo, cross-compilation pain).
	EnableSQLite bool
}

// SupportedTypes lists the backend names Open accepts.
var SupportedTypes = []string{"pebble", "sqlite", "bolt", "postgres", "mysql", "memory"}

// Open creates the KV backend described by opts.
func Open(ctx context.Context, opts Options) (KV, error) {
	switch strings.ToLower(opts.Type) {
	case "pebble", "":
		kv, err := NewPebbleKV(opts.Path)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize PebbleDB store: %w", err)
		}
		return kv, nil
	case "sqlite", "sqlite3":
		if !opts.EnableSQLite {
			return nil, fmt.Errorf("SQLite3 is not enabled. To use SQLite3, you must explicitly enable it with --enable-sqlite3-i-know-the-risks or set 'enable_sqlite3_i_know_the_risks: true' in your config file. PebbleDB is the recommended database")
		}
		kv, err := NewSQLiteKV(opts.Path)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize SQLite store: %w", err)
		}
		return kv, nil
	case "bolt", "bbolt":
		kv, err := NewBoltKV(opts.Path)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize bbolt store: %w", err)
		}
		return kv, nil
	case "postgres", "postgresql":
		if opts.DSN == "" {
			return nil, fmt.Errorf("postgres store requires a DSN (--db-dsn)")
		}
		kv, err := NewPostgresKV(ctx, opts.DSN)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize Postgres store: %w", err)
		}
		return kv, nil
	case "mysql":
		if opts.DSN == "" {
			return nil, fmt.Errorf("mysql store requires a DSN (--db-dsn)")
		}
		kv, err := NewMySQLKV(opts.DSN)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize MySQL store: %w", err)
		}
		return kv, nil
	case "memory":
		return NewMemoryKV(), nil
	default:
		return nil, fmt.Errorf("unsupported database type: %s (supported: %s)", opts.Type, strings.Join(SupportedTypes, ", "))
	}
}
