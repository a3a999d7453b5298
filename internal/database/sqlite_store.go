// file: internal/database/sqlite_store.go
// version: 2.0.0
// guid: 8b9c0d1e-2f3a-4b5c-6d7e-8f9a0b1c2d3e

package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	_ "github.com/go-sql-driver/mysql"
	_ "github.com/mattn/go-sqlite3"
)

// sqlDialect holds the statements that differ between SQL engines.
type sqlDialect struct {
	driver string
	schema string
	read   string
	upsert string
}

var sqliteDialect = sqlDialect{
	driver: "sqlite3",
	schema: `CREATE TABLE IF NOT EXISTS kv_store (
		store_key TEXT PRIMARY KEY,
		store_value BLOB NOT NULL,
		updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
	)`,
	read: `SELECT store_value FROM kv_store WHERE store_key = ?`,
	upsert: `INSERT INTO kv_store (store_key, store_value, updated_at) VALUES (?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT(store_key) DO UPDATE SET store_value = excluded.store_value, updated_at = CURRENT_TIMESTAMP`,
}

var mysqlDialect = sqlDialect{
	driver: "mysql",
	schema: `CREATE TABLE IF NOT EXISTS kv_store (
		store_key VARCHAR(191) NOT NULL PRIMARY KEY,
		store_value LONGBLOB NOT NULL,
		updated_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP ON UPDATE CURRENT_TIMESTAMP
	)`,
	read: `SELECT store_value FROM kv_store WHERE store_key = ?`,
	upsert: `INSERT INTO kv_store (store_key, store_value) VALUES (?, ?)
		ON DUPLICATE KEY UPDATE store_value = VALUES(store_value)`,
}

// SQLKV implements KV on a database/sql table. It backs both the SQLite
// and the MySQL stores.
type SQLKV struct {
	db      *sql.DB
	dialect sqlDialect
}

// NewSQLiteKV opens or creates a SQLite database file at path.
func NewSQLiteKV(path string) (*SQLKV, error) {
	if path == "" {
		return nil, fmt.Errorf("sqlite store requires a path")
	}
	return newSQLKV(sqliteDialect, path)
}

// NewMySQLKV connects to MySQL with a go-sql-driver DSN
// (user:pass@tcp(host:3306)/dbname).
func NewMySQLKV(dsn string) (*SQLKV, error) {
	return newSQLKV(mysqlDialect, dsn)
}

func newSQLKV(d sqlDialect, dsn string) (*SQLKV, error) {
	db, err := sql.Open(d.driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s database: %w", d.driver, err)
	}

	// Test connection
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping %s database: %w", d.driver, err)
	}

	if _, err := db.Exec(d.schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}

	return &SQLKV{db: db, dialect: d}, nil
}

func (s *SQLKV) Read(ctx context.Context, key string) ([]byte, error) {
	var value []byte
	err := s.db.QueryRowContext(ctx, s.dialect.read, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return value, nil
}

func (s *SQLKV) Write(ctx context.Context, key string, value []byte) error {
	_, err := s.db.ExecContext(ctx, s.dialect.upsert, key, value)
	return err
}

func (s *SQLKV) Close() error {
	return s.db.Close()
}
