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

// Package sqlite implements the state database on top of sqlite.
package sqlite

import (
	"context"
	"database/sql"
	"net/netip"
	"slices"
	"time"

	"github.com/Arjun4522/RPKI-viz/pkg/log"
	"github.com/Arjun4522/RPKI-viz/pkg/vrp"
	"github.com/Arjun4522/RPKI-viz/private/storage/db"
)

type Backend struct {
	db *db.Sqlite
}

// New returns a new SQLite backend opening a database at the given path. If
// no database exists a new database is created. If the schema version of the
// stored database is different from the one in schema.go, an error is
// returned.
func New(path string, cfg *db.SqliteConfig) (*Backend, error) {
	database, err := db.NewSqlite(path, cfg)
	if err != nil {
		return nil, err
	}
	if err := database.Setup(Schema, SchemaVersion); err != nil {
		database.Close()
		return nil, err
	}
	return &Backend{db: database}, nil
}

// Close closes the database.
func (b *Backend) Close() error {
	return b.db.Close()
}

// DB returns the underlying write connection pool.
func (b *Backend) DB() *sql.DB {
	return b.db.Full
}

// Commit stores the snapshot and its diff, and publishes the snapshot's
// serial, in a single transaction. The marker row is written last; readers
// only observe the new serial once the whole state is durable.
func (b *Backend) Commit(ctx context.Context, snap *vrp.Snapshot, diff *vrp.Diff) error {
	if snap == nil || diff == nil {
		return db.NewInputDataError("nil snapshot or diff", nil)
	}
	if snap.Serial != diff.ToSerial {
		return db.NewInputDataError("serial mismatch between snapshot and diff", nil,
			"snapshot", snap.Serial, "diff", diff.ToSerial)
	}
	if snap.ContentHash == "" {
		return db.NewInputDataError("missing content hash", nil, "serial", snap.Serial)
	}

	tx, err := b.db.BeginTx(ctx, nil)
	if err != nil {
		return db.NewTxError("begin commit tx", err)
	}
	defer tx.Rollback()

	query := `INSERT INTO Snapshots (Serial, ContentHash, CapturedAt, EntryCount)
		VALUES (?, ?, ?, ?)`
	if _, err := tx.ExecContext(ctx, query,
		snap.Serial, snap.ContentHash, snap.CapturedAt.UTC().Unix(), len(snap.Entries),
	); err != nil {
		return db.NewWriteError("insert snapshot", err, "serial", snap.Serial)
	}
	if err := insertEntries(ctx, tx, snap.Serial, snap.Entries); err != nil {
		return err
	}

	query = `INSERT INTO Diffs (ToSerial, FromSerial, Unchanged) VALUES (?, ?, ?)`
	if _, err := tx.ExecContext(ctx, query,
		diff.ToSerial, diff.FromSerial, diff.Unchanged,
	); err != nil {
		return db.NewWriteError("insert diff", err, "to_serial", diff.ToSerial)
	}
	if err := insertDiffEntries(ctx, tx, diff.ToSerial, true, diff.Added); err != nil {
		return err
	}
	if err := insertDiffEntries(ctx, tx, diff.ToSerial, false, diff.Removed); err != nil {
		return err
	}

	query = `INSERT INTO Marker (RowID, CurrentSerial) VALUES (0, ?)
		ON CONFLICT (RowID) DO UPDATE SET CurrentSerial = excluded.CurrentSerial`
	if _, err := tx.ExecContext(ctx, query, snap.Serial); err != nil {
		return db.NewWriteError("publish serial", err, "serial", snap.Serial)
	}
	if err := tx.Commit(); err != nil {
		return db.NewTxError("commit snapshot", err, "serial", snap.Serial)
	}
	return nil
}

func insertEntries(ctx context.Context, tx *sql.Tx, serial uint64, entries []vrp.Entry) error {
	query := `INSERT INTO Entries (Serial, Asn, Prefix, MaxLength, TrustAnchor)
		VALUES (?, ?, ?, ?, ?)`
	stmt, err := tx.PrepareContext(ctx, query)
	if err != nil {
		return db.NewWriteError("prepare entry insert", err)
	}
	defer stmt.Close()
	for _, e := range entries {
		if _, err := stmt.ExecContext(ctx,
			serial, uint32(e.ASN), e.Prefix.String(), e.MaxLength, e.TrustAnchor,
		); err != nil {
			return db.NewWriteError("insert entry", err, "serial", serial, "entry", e)
		}
	}
	return nil
}

func insertDiffEntries(ctx context.Context, tx *sql.Tx, toSerial uint64, added bool,
	entries []vrp.Entry) error {

	query := `INSERT INTO DiffEntries (ToSerial, Added, Asn, Prefix, MaxLength, TrustAnchor)
		VALUES (?, ?, ?, ?, ?, ?)`
	stmt, err := tx.PrepareContext(ctx, query)
	if err != nil {
		return db.NewWriteError("prepare diff entry insert", err)
	}
	defer stmt.Close()
	for _, e := range entries {
		if _, err := stmt.ExecContext(ctx,
			toSerial, added, uint32(e.ASN), e.Prefix.String(), e.MaxLength, e.TrustAnchor,
		); err != nil {
			return db.NewWriteError("insert diff entry", err,
				"to_serial", toSerial, "entry", e)
		}
	}
	return nil
}

// LoadLatest returns the published snapshot, skipping snapshots whose stored
// entries no longer hash to the recorded content hash. This recovers from
// partially destroyed databases without serving a state that was never
// observed upstream.
func (b *Backend) LoadLatest(ctx context.Context) (*vrp.Snapshot, error) {
	var current uint64
	err := b.db.ReadOnly.QueryRowContext(ctx,
		`SELECT CurrentSerial FROM Marker WHERE RowID = 0`).Scan(&current)
	switch {
	case err == sql.ErrNoRows:
		return nil, db.ErrNotFound
	case err != nil:
		return nil, db.NewReadError("read current serial", err)
	}

	rows, err := b.db.ReadOnly.QueryContext(ctx,
		`SELECT Serial FROM Snapshots WHERE Serial <= ? ORDER BY Serial DESC`, current)
	if err != nil {
		return nil, db.NewReadError("list snapshot serials", err)
	}
	defer rows.Close()
	var serials []uint64
	for rows.Next() {
		var serial uint64
		if err := rows.Scan(&serial); err != nil {
			return nil, db.NewReadError("scan snapshot serial", err)
		}
		serials = append(serials, serial)
	}
	if err := rows.Err(); err != nil {
		return nil, db.NewReadError("list snapshot serials", err)
	}

	logger := log.FromCtx(ctx)
	for _, serial := range serials {
		snap, err := b.Snapshot(ctx, serial)
		if err != nil {
			return nil, err
		}
		if hash := vrp.HashEntries(snap.Entries); hash != snap.ContentHash {
			logger.Error("Skipping snapshot with inconsistent content hash",
				"serial", serial, "stored", snap.ContentHash, "computed", hash)
			continue
		}
		return snap, nil
	}
	return nil, db.ErrNotFound
}

// Snapshot returns the snapshot with the given serial. The content hash is
// the stored one; it is not recomputed here.
func (b *Backend) Snapshot(ctx context.Context, serial uint64) (*vrp.Snapshot, error) {
	snap := &vrp.Snapshot{Serial: serial}
	var capturedAt int64
	var count int
	err := b.db.ReadOnly.QueryRowContext(ctx,
		`SELECT ContentHash, CapturedAt, EntryCount FROM Snapshots WHERE Serial = ?`,
		serial).Scan(&snap.ContentHash, &capturedAt, &count)
	switch {
	case err == sql.ErrNoRows:
		return nil, db.ErrNotFound
	case err != nil:
		return nil, db.NewReadError("read snapshot", err, "serial", serial)
	}
	snap.CapturedAt = time.Unix(capturedAt, 0).UTC()

	snap.Entries, err = b.loadEntries(ctx,
		`SELECT Asn, Prefix, MaxLength, TrustAnchor FROM Entries WHERE Serial = ?`, serial)
	if err != nil {
		return nil, err
	}
	return snap, nil
}

// Diff returns the stored diff between the two serials.
func (b *Backend) Diff(ctx context.Context, from, to uint64) (*vrp.Diff, error) {
	d := &vrp.Diff{ToSerial: to}
	var storedFrom uint64
	err := b.db.ReadOnly.QueryRowContext(ctx,
		`SELECT FromSerial, Unchanged FROM Diffs WHERE ToSerial = ?`, to).
		Scan(&storedFrom, &d.Unchanged)
	switch {
	case err == sql.ErrNoRows:
		return nil, db.ErrNotFound
	case err != nil:
		return nil, db.NewReadError("read diff", err, "from", from, "to", to)
	}
	if storedFrom != from {
		return nil, db.ErrNotFound
	}
	d.FromSerial = from

	d.Added, err = b.loadEntries(ctx,
		`SELECT Asn, Prefix, MaxLength, TrustAnchor FROM DiffEntries
			WHERE ToSerial = ? AND Added`, to)
	if err != nil {
		return nil, err
	}
	d.Removed, err = b.loadEntries(ctx,
		`SELECT Asn, Prefix, MaxLength, TrustAnchor FROM DiffEntries
			WHERE ToSerial = ? AND NOT Added`, to)
	if err != nil {
		return nil, err
	}
	return d, nil
}

func (b *Backend) loadEntries(ctx context.Context, query string,
	args ...any) ([]vrp.Entry, error) {

	rows, err := b.db.ReadOnly.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, db.NewReadError("read entries", err)
	}
	defer rows.Close()
	var entries []vrp.Entry
	for rows.Next() {
		var e vrp.Entry
		var asn uint32
		var prefix string
		if err := rows.Scan(&asn, &prefix, &e.MaxLength, &e.TrustAnchor); err != nil {
			return nil, db.NewReadError("scan entry", err)
		}
		e.ASN = vrp.ASN(asn)
		if e.Prefix, err = netip.ParsePrefix(prefix); err != nil {
			return nil, db.NewDataError("stored prefix invalid", err, "prefix", prefix)
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, db.NewReadError("read entries", err)
	}
	slices.SortFunc(entries, vrp.Compare)
	return entries, nil
}

// DeleteOlderThan removes snapshots captured before the cutoff, except the
// current and the immediately preceding one, together with every diff that
// touches a removed snapshot.
func (b *Backend) DeleteOlderThan(ctx context.Context, cutoff time.Time) (int, error) {
	tx, err := b.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, db.NewTxError("begin retention tx", err)
	}
	defer tx.Rollback()

	var current uint64
	err = tx.QueryRowContext(ctx,
		`SELECT CurrentSerial FROM Marker WHERE RowID = 0`).Scan(&current)
	switch {
	case err == sql.ErrNoRows:
		return 0, nil
	case err != nil:
		return 0, db.NewReadError("read current serial", err)
	}

	query := `DELETE FROM Snapshots WHERE CapturedAt < ? AND Serial NOT IN (
		SELECT Serial FROM Snapshots WHERE Serial <= ? ORDER BY Serial DESC LIMIT 2)`
	res, err := tx.ExecContext(ctx, query, cutoff.UTC().Unix(), current)
	if err != nil {
		return 0, db.NewWriteError("delete expired snapshots", err)
	}
	deleted, err := res.RowsAffected()
	if err != nil {
		return 0, db.NewWriteError("delete expired snapshots", err)
	}
	// A diff is dangling when either endpoint snapshot is gone. FromSerial 0
	// is the empty pre-history and never has a snapshot row.
	query = `DELETE FROM Diffs WHERE ToSerial NOT IN (SELECT Serial FROM Snapshots)
		OR (FromSerial != 0 AND FromSerial NOT IN (SELECT Serial FROM Snapshots))`
	if _, err := tx.ExecContext(ctx, query); err != nil {
		return 0, db.NewWriteError("delete dangling diffs", err)
	}
	if err := tx.Commit(); err != nil {
		return 0, db.NewTxError("commit retention", err)
	}
	return int(deleted), nil
}
