package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "github.com/go-sql-driver/mysql"
)

const sqlTimeout = 5 * time.Second

// Statements of the MySQL key-value table
const (
	createKVTable = `CREATE TABLE IF NOT EXISTS kv_store (
	k VARCHAR(191) NOT NULL PRIMARY KEY,
	v LONGBLOB NOT NULL,
	updated_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP ON UPDATE CURRENT_TIMESTAMP
) CHARACTER SET utf8mb4`
	selectKV = `SELECT v FROM kv_store WHERE k = ?`
	upsertKV = `INSERT INTO kv_store (k, v) VALUES (?, ?) ON DUPLICATE KEY UPDATE v = VALUES(v)`
)

// SQLKV stores every key as a row of the kv_store table
type SQLKV struct {
	db *sql.DB
}

// OpenMySQLKV opens a MySQL database by DSN and prepares the kv_store table
func OpenMySQLKV(dsn string) (*SQLKV, error) {
	db, err := sql.Open("mysql", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), sqlTimeout)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	db.SetMaxOpenConns(5)
	db.SetMaxIdleConns(2)
	db.SetConnMaxLifetime(5 * time.Minute)

	kv := NewSQLKV(db)
	if err := kv.Migrate(); err != nil {
		_ = db.Close()
		return nil, err
	}
	return kv, nil
}

// NewSQLKV wraps an open database
func NewSQLKV(db *sql.DB) *SQLKV {
	return &SQLKV{db: db}
}

// Migrate creates the kv_store table if it does not exist
func (s *SQLKV) Migrate() error {
	ctx, cancel := context.WithTimeout(context.Background(), sqlTimeout)
	defer cancel()

	if _, err := s.db.ExecContext(ctx, createKVTable); err != nil {
		return fmt.Errorf("failed to create kv_store table: %w", err)
	}
	return nil
}

// Get implements KV
func (s *SQLKV) Get(key string) ([]byte, bool, error) {
	ctx, cancel := context.WithTimeout(context.Background(), sqlTimeout)
	defer cancel()

	var value []byte
	err := s.db.QueryRowContext(ctx, selectKV, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("failed to get %s: %w", key, err)
	}
	return value, true, nil
}

// Set implements KV
func (s *SQLKV) Set(key string, value []byte) error {
	ctx, cancel := context.WithTimeout(context.Background(), sqlTimeout)
	defer cancel()

	if _, err := s.db.ExecContext(ctx, upsertKV, key, value); err != nil {
		return fmt.Errorf("failed to set %s: %w", key, err)
	}
	return nil
}

// Close closes the database
func (s *SQLKV) Close() error {
	return s.db.Close()
}
