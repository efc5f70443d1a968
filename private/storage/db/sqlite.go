// Copyright 2025 RPKI-viz Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//   http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package db provides helpers to open and set up the sqlite databases used
// for durable state.
package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/url"
	"runtime"
	"strings"
)

// Sqler contains the common functions implemented by *sql.DB and *sql.Tx.
type Sqler interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// Reader is the read-only subset of *sql.DB.
type Reader interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
	Stats() sql.DBStats
}

// SqliteConfig allows configuring the sqlite database instance.
type SqliteConfig struct {
	MaxOpenReadConns int
	MaxIdleReadConns int
}

// Sqlite bundles a write connection pool, limited to one open connection to
// avoid lock contention, and a read connection pool. The Full connection can
// be used to perform any operation, including reads and opening transactions.
// The ReadOnly connection should only be used for read operations.
type Sqlite struct {
	Full     *sql.DB
	ReadOnly Reader
}

// NewSqlite creates a new sqlite database at the given path, with a read and
// a write connection pool.
//
// Transactions are started with BEGIN IMMEDIATE so that SQLite respects
// busy_timeout when the database is locked by another connection, and the
// journal is in WAL mode so that readers do not block the writer and vice
// versa.
func NewSqlite(path string, cfg *SqliteConfig) (*Sqlite, error) {
	c := func() SqliteConfig {
		if cfg != nil {
			return *cfg
		}
		return SqliteConfig{}
	}()

	// In-memory databases break the assumption of independent read and write
	// pools over the same durable file.
	if strings.Contains(path, ":memory:") {
		return nil, fmt.Errorf("in-memory sqlite database not supported")
	}

	connParams := make(url.Values)
	addPragmas(connParams)

	connURL := path + "?" + connParams.Encode()
	if !strings.HasPrefix(path, "file:") {
		connURL = "file:" + connURL
	}

	write, err := sql.Open(driverName(), connURL)
	if err != nil {
		return nil, fmt.Errorf("opening write database: %w", err)
	}
	write.SetMaxOpenConns(1)

	read, err := sql.Open(driverName(), connURL)
	if err != nil {
		defer write.Close()
		return nil, fmt.Errorf("opening read database: %w", err)
	}
	if c.MaxOpenReadConns == 0 {
		c.MaxOpenReadConns = max(4, runtime.NumCPU())
	}
	read.SetMaxOpenConns(c.MaxOpenReadConns)
	if c.MaxIdleReadConns != 0 {
		read.SetMaxIdleConns(c.MaxIdleReadConns)
	}

	return &Sqlite{
		Full:     write,
		ReadOnly: read,
	}, nil
}

// Setup checks the schema version of the database and applies the schema if
// the database is new. A database with a different schema version than the
// given one is rejected to prevent data corruption.
func (db *Sqlite) Setup(schema string, schemaVersion int) error {
	var existingVersion int
	if err := db.Full.QueryRow("PRAGMA user_version;").Scan(&existingVersion); err != nil {
		return fmt.Errorf("checking database schema version: %w", err)
	}
	switch {
	case existingVersion == 0:
		if _, err := db.Full.Exec(schema); err != nil {
			return fmt.Errorf("applying schema: %w", err)
		}
		_, err := db.Full.Exec(fmt.Sprintf("PRAGMA user_version = %d", schemaVersion))
		if err != nil {
			return fmt.Errorf("writing schema version: %w", err)
		}
		return nil
	case existingVersion != schemaVersion:
		return fmt.Errorf("database schema version mismatch: expected %d, have %d",
			schemaVersion, existingVersion,
		)
	default:
		return nil
	}
}

// BeginTx starts a transaction on the write pool.
func (db *Sqlite) BeginTx(ctx context.Context, opts *sql.TxOptions) (*sql.Tx, error) {
	return db.Full.BeginTx(ctx, opts)
}

// Close closes both connection pools.
func (db *Sqlite) Close() error {
	var errs []error
	if err := db.Full.Close(); err != nil {
		errs = append(errs, fmt.Errorf("closing write db: %w", err))
	}
	if err := db.ReadOnly.(*sql.DB).Close(); err != nil {
		errs = append(errs, fmt.Errorf("closing read db: %w", err))
	}
	return errors.Join(errs...)
}
