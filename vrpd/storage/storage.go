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

// Package storage defines the persistent state interface of the VRP daemon
// and the factory for its database backend.
package storage

import (
	"context"
	"io"
	"time"

	"github.com/Arjun4522/RPKI-viz/pkg/log"
	"github.com/Arjun4522/RPKI-viz/pkg/vrp"
	"github.com/Arjun4522/RPKI-viz/private/config"
	"github.com/Arjun4522/RPKI-viz/private/storage/db"
	"github.com/Arjun4522/RPKI-viz/vrpd/storage/sqlite"
)

// Backend indicates the database backend type.
type Backend string

const (
	// BackendSqlite indicates an sqlite backend.
	BackendSqlite Backend = "sqlite"
	// DefaultPath is the default connection string for the state database.
	DefaultPath = "/share/data/vrpd.state.db"
)

// StateDB is the persistent snapshot history of the daemon. Implementations
// must be safe for concurrent use; the daemon has a single writer and
// multiple readers.
type StateDB interface {
	io.Closer
	// Commit durably stores the snapshot together with the diff that led to
	// it, and publishes the snapshot's serial as the current one. The write
	// is atomic: after a crash either the previous or the new serial is
	// current, never a partial state.
	Commit(ctx context.Context, snap *vrp.Snapshot, diff *vrp.Diff) error
	// LoadLatest returns the currently published snapshot. The entry set is
	// verified against the stored content hash; a snapshot that fails
	// verification is skipped in favor of the newest intact predecessor.
	// Returns db.ErrNotFound if no intact snapshot exists.
	LoadLatest(ctx context.Context) (*vrp.Snapshot, error)
	// Snapshot returns the snapshot with the given serial, or db.ErrNotFound.
	Snapshot(ctx context.Context, serial uint64) (*vrp.Snapshot, error)
	// Diff returns the stored diff from serial from to serial to. Only
	// diffs between consecutively observed states are stored; anything else
	// yields db.ErrNotFound.
	Diff(ctx context.Context, from, to uint64) (*vrp.Diff, error)
	// DeleteOlderThan removes snapshots captured before the cutoff and
	// returns the number of deleted snapshots. The current and the
	// immediately preceding snapshot are always retained.
	DeleteOlderThan(ctx context.Context, cutoff time.Time) (int, error)
}

var _ (config.Config) = (*DBConfig)(nil)

// DBConfig is the configuration for the connection to the state database.
type DBConfig struct {
	Connection       string `toml:"connection,omitempty"`
	MaxOpenReadConns int    `toml:"max_open_read_conns,omitempty"`
	MaxIdleReadConns int    `toml:"max_idle_read_conns,omitempty"`
}

func (cfg *DBConfig) InitDefaults() {
	if cfg.Connection == "" {
		cfg.Connection = DefaultPath
	}
}

func (cfg *DBConfig) Validate() error {
	return nil
}

// Sample writes a config sample to the writer.
func (cfg *DBConfig) Sample(dst io.Writer, path config.Path, ctx config.CtxMap) {
	config.WriteString(dst, dbSample)
}

// ConfigName is the key in the toml file.
func (cfg *DBConfig) ConfigName() string {
	return "db"
}

// NewStateStorage connects the sqlite state database.
func NewStateStorage(c DBConfig) (StateDB, error) {
	log.Info("Connecting StateDB", "backend", BackendSqlite, "connection", c.Connection)
	return sqlite.New(c.Connection, &db.SqliteConfig{
		MaxOpenReadConns: c.MaxOpenReadConns,
		MaxIdleReadConns: c.MaxIdleReadConns,
	})
}
