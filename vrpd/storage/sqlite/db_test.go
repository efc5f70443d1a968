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

package sqlite_test

import (
	"context"
	"fmt"
	"net/netip"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Arjun4522/RPKI-viz/pkg/log"
	"github.com/Arjun4522/RPKI-viz/pkg/vrp"
	"github.com/Arjun4522/RPKI-viz/private/storage/db"
	"github.com/Arjun4522/RPKI-viz/vrpd/storage/sqlite"
)

func TestMain(m *testing.M) {
	log.Discard()
	os.Exit(m.Run())
}

func setupDB(t *testing.T) *sqlite.Backend {
	t.Helper()
	b, err := sqlite.New(filepath.Join(t.TempDir(), "state.db"), nil)
	require.NoError(t, err)
	t.Cleanup(func() { b.Close() })
	return b
}

func entry(t *testing.T, asn uint32, prefix string, maxLength int, ta string) vrp.Entry {
	t.Helper()
	e := vrp.Entry{
		ASN:         vrp.ASN(asn),
		Prefix:      netip.MustParsePrefix(prefix),
		MaxLength:   maxLength,
		TrustAnchor: ta,
	}
	require.NoError(t, e.Validate())
	return e
}

func commitSnapshot(t *testing.T, b *sqlite.Backend, prev *vrp.Snapshot,
	entries []vrp.Entry, capturedAt time.Time) *vrp.Snapshot {
	t.Helper()
	snap := vrp.NewSnapshot(entries, capturedAt)
	d := vrp.ComputeDiff(prev, snap)
	snap.Serial = d.ToSerial
	ctx, cancelF := context.WithTimeout(context.Background(), time.Second)
	defer cancelF()
	require.NoError(t, b.Commit(ctx, snap, d))
	return snap
}

func TestCommitLoadRoundTrip(t *testing.T) {
	b := setupDB(t)
	ctx, cancelF := context.WithTimeout(context.Background(), time.Second)
	defer cancelF()

	_, err := b.LoadLatest(ctx)
	assert.ErrorIs(t, err, db.ErrNotFound)

	capturedAt := time.Unix(1700000000, 0).UTC()
	entries := []vrp.Entry{
		entry(t, 65000, "192.0.2.0/24", 24, "arin"),
		entry(t, 65002, "2001:db8::/32", 48, "apnic"),
	}
	snap := commitSnapshot(t, b, nil, entries, capturedAt)
	require.Equal(t, uint64(1), snap.Serial)

	loaded, err := b.LoadLatest(ctx)
	require.NoError(t, err)
	assert.Equal(t, snap, loaded)
}

func TestCommitAdvancesSerial(t *testing.T) {
	b := setupDB(t)
	ctx, cancelF := context.WithTimeout(context.Background(), time.Second)
	defer cancelF()

	capturedAt := time.Unix(1700000000, 0).UTC()
	first := commitSnapshot(t, b, nil,
		[]vrp.Entry{entry(t, 65000, "192.0.2.0/24", 24, "arin")}, capturedAt)
	second := commitSnapshot(t, b, first,
		[]vrp.Entry{
			entry(t, 65000, "192.0.2.0/24", 24, "arin"),
			entry(t, 65001, "198.51.100.0/24", 25, "ripe"),
		}, capturedAt.Add(10*time.Minute))
	require.Equal(t, uint64(2), second.Serial)

	loaded, err := b.LoadLatest(ctx)
	require.NoError(t, err)
	assert.Equal(t, second, loaded)

	// Historic snapshots stay addressable by serial.
	loaded, err = b.Snapshot(ctx, first.Serial)
	require.NoError(t, err)
	assert.Equal(t, first, loaded)

	_, err = b.Snapshot(ctx, 99)
	assert.ErrorIs(t, err, db.ErrNotFound)
}

func TestDiffRetrieval(t *testing.T) {
	b := setupDB(t)
	ctx, cancelF := context.WithTimeout(context.Background(), time.Second)
	defer cancelF()

	capturedAt := time.Unix(1700000000, 0).UTC()
	kept := entry(t, 65000, "192.0.2.0/24", 24, "arin")
	removed := entry(t, 65001, "198.51.100.0/24", 25, "ripe")
	added := entry(t, 65002, "2001:db8::/32", 48, "apnic")

	first := commitSnapshot(t, b, nil, []vrp.Entry{kept, removed}, capturedAt)
	commitSnapshot(t, b, first, []vrp.Entry{kept, added}, capturedAt.Add(10*time.Minute))

	d, err := b.Diff(ctx, 1, 2)
	require.NoError(t, err)
	assert.Equal(t, uint64(1), d.FromSerial)
	assert.Equal(t, uint64(2), d.ToSerial)
	assert.Equal(t, []vrp.Entry{added}, d.Added)
	assert.Equal(t, []vrp.Entry{removed}, d.Removed)
	assert.Equal(t, 1, d.Unchanged)

	// Only diffs between consecutively observed states exist.
	_, err = b.Diff(ctx, 0, 2)
	assert.ErrorIs(t, err, db.ErrNotFound)
	_, err = b.Diff(ctx, 2, 3)
	assert.ErrorIs(t, err, db.ErrNotFound)
}

func TestDuplicateSerialRejected(t *testing.T) {
	b := setupDB(t)
	ctx, cancelF := context.WithTimeout(context.Background(), time.Second)
	defer cancelF()

	capturedAt := time.Unix(1700000000, 0).UTC()
	snap := commitSnapshot(t, b, nil,
		[]vrp.Entry{entry(t, 65000, "192.0.2.0/24", 24, "arin")}, capturedAt)

	again := vrp.NewSnapshot(
		[]vrp.Entry{entry(t, 65001, "198.51.100.0/24", 25, "ripe")}, capturedAt)
	again.Serial = snap.Serial
	err := b.Commit(ctx, again, &vrp.Diff{FromSerial: 0, ToSerial: snap.Serial})
	assert.ErrorIs(t, err, db.ErrWriteFailed)

	// The failed commit must not have disturbed the published state.
	loaded, err := b.LoadLatest(ctx)
	require.NoError(t, err)
	assert.Equal(t, snap, loaded)
}

// TestLoadSkipsInconsistentSnapshot simulates a destroyed entry set: the
// published snapshot no longer hashes to its recorded content hash, so the
// loader falls back to the newest intact predecessor.
func TestLoadSkipsInconsistentSnapshot(t *testing.T) {
	tmpF := filepath.Join(t.TempDir(), "state.db")
	b, err := sqlite.New(tmpF, nil)
	require.NoError(t, err)
	defer b.Close()
	ctx, cancelF := context.WithTimeout(context.Background(), time.Second)
	defer cancelF()

	capturedAt := time.Unix(1700000000, 0).UTC()
	first := commitSnapshot(t, b, nil,
		[]vrp.Entry{entry(t, 65000, "192.0.2.0/24", 24, "arin")}, capturedAt)
	second := commitSnapshot(t, b, first,
		[]vrp.Entry{
			entry(t, 65000, "192.0.2.0/24", 24, "arin"),
			entry(t, 65001, "198.51.100.0/24", 25, "ripe"),
		}, capturedAt.Add(10*time.Minute))

	corruptor, err := sqlite.New(tmpF, nil)
	require.NoError(t, err)
	_, err = corruptor.DB().Exec(`DELETE FROM Entries WHERE Serial = ? AND Asn = 65001`,
		second.Serial)
	require.NoError(t, err)
	require.NoError(t, corruptor.Close())

	loaded, err := b.LoadLatest(ctx)
	require.NoError(t, err)
	assert.Equal(t, first, loaded)
}

func TestDeleteOlderThan(t *testing.T) {
	b := setupDB(t)
	ctx, cancelF := context.WithTimeout(context.Background(), time.Second)
	defer cancelF()

	capturedAt := time.Unix(1700000000, 0).UTC()
	prev := (*vrp.Snapshot)(nil)
	var snaps []*vrp.Snapshot
	for i := 0; i < 4; i++ {
		snap := commitSnapshot(t, b, prev,
			[]vrp.Entry{entry(t, uint32(65000+i), "192.0.2.0/24", 24, "arin")},
			capturedAt.Add(time.Duration(i)*10*time.Minute))
		snaps = append(snaps, snap)
		prev = snap
	}

	// Cutoff after all captures: everything but current and previous goes.
	deleted, err := b.DeleteOlderThan(ctx, capturedAt.Add(time.Hour))
	require.NoError(t, err)
	assert.Equal(t, 2, deleted)

	_, err = b.Snapshot(ctx, snaps[0].Serial)
	assert.ErrorIs(t, err, db.ErrNotFound)
	_, err = b.Snapshot(ctx, snaps[1].Serial)
	assert.ErrorIs(t, err, db.ErrNotFound)
	for _, snap := range snaps[2:] {
		loaded, err := b.Snapshot(ctx, snap.Serial)
		require.NoError(t, err)
		assert.Equal(t, snap, loaded)
	}

	// The diff into the oldest surviving snapshot lost its base.
	_, err = b.Diff(ctx, snaps[1].Serial, snaps[2].Serial)
	assert.ErrorIs(t, err, db.ErrNotFound)
	d, err := b.Diff(ctx, snaps[2].Serial, snaps[3].Serial)
	require.NoError(t, err)
	assert.Equal(t, snaps[3].Serial, d.ToSerial)
}

func TestDeleteOlderThanKeepsInitialDiff(t *testing.T) {
	b := setupDB(t)
	ctx, cancelF := context.WithTimeout(context.Background(), time.Second)
	defer cancelF()

	capturedAt := time.Unix(1700000000, 0).UTC()
	snap := commitSnapshot(t, b, nil,
		[]vrp.Entry{entry(t, 65000, "192.0.2.0/24", 24, "arin")}, capturedAt)

	// Serial 0 has no snapshot row; the diff into the first snapshot must
	// survive retention as long as its target does.
	deleted, err := b.DeleteOlderThan(ctx, capturedAt.Add(time.Hour))
	require.NoError(t, err)
	assert.Zero(t, deleted)
	d, err := b.Diff(ctx, 0, snap.Serial)
	require.NoError(t, err)
	assert.Equal(t, snap.Serial, d.ToSerial)
}

// TestOpenExisting tests that New does not overwrite an existing database if
// versions match.
func TestOpenExisting(t *testing.T) {
	tmpF := filepath.Join(t.TempDir(), "state.db")
	b, err := sqlite.New(tmpF, nil)
	require.NoError(t, err)
	capturedAt := time.Unix(1700000000, 0).UTC()
	snap := commitSnapshot(t, b, nil,
		[]vrp.Entry{entry(t, 65000, "192.0.2.0/24", 24, "arin")}, capturedAt)
	require.NoError(t, b.Close())

	b, err = sqlite.New(tmpF, nil)
	require.NoError(t, err)
	defer b.Close()
	ctx, cancelF := context.WithTimeout(context.Background(), time.Second)
	defer cancelF()
	loaded, err := b.LoadLatest(ctx)
	require.NoError(t, err)
	assert.Equal(t, snap, loaded)
}

// TestOpenNewer tests that New does not open an existing database of a newer
// schema version.
func TestOpenNewer(t *testing.T) {
	tmpF := filepath.Join(t.TempDir(), "state.db")
	b, err := sqlite.New(tmpF, nil)
	require.NoError(t, err)
	_, err = b.DB().Exec(fmt.Sprintf("PRAGMA user_version = %d", sqlite.SchemaVersion+1))
	require.NoError(t, err)
	require.NoError(t, b.Close())

	_, err = sqlite.New(tmpF, nil)
	assert.Error(t, err)
}
