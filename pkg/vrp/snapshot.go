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

package vrp

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"slices"
	"time"

	"go4.org/netipx"
)

// Snapshot is the set of VRPs observed at a point in time. The entries are
// deduplicated and in canonical order, so that two snapshots with the same
// VRP set have the same content hash regardless of upstream ordering. A
// snapshot must not be modified after it has been published.
type Snapshot struct {
	// Serial identifies the distinct observed state. It is assigned when the
	// snapshot is committed, see ComputeDiff.
	Serial uint64
	// ContentHash is the hex encoded SHA-256 over the canonical entry set.
	ContentHash string
	// CapturedAt is the time the snapshot was fetched from upstream.
	CapturedAt time.Time
	// Entries in canonical order.
	Entries []Entry
}

// NewSnapshot builds a snapshot from the given entries. The input is
// deduplicated by uniqueness key and brought into canonical order before the
// content hash is computed; the input slice is not modified.
func NewSnapshot(entries []Entry, capturedAt time.Time) *Snapshot {
	seen := make(map[Key]struct{}, len(entries))
	canonical := make([]Entry, 0, len(entries))
	for _, e := range entries {
		if _, ok := seen[e.Key()]; ok {
			continue
		}
		seen[e.Key()] = struct{}{}
		canonical = append(canonical, e)
	}
	slices.SortFunc(canonical, Compare)
	return &Snapshot{
		ContentHash: hashEntries(canonical),
		CapturedAt:  capturedAt,
		Entries:     canonical,
	}
}

// Count returns the number of entries in the snapshot.
func (s *Snapshot) Count() int {
	return len(s.Entries)
}

// Compare defines the canonical order of entries: by prefix, then origin AS,
// then max length, then trust anchor.
func Compare(a, b Entry) int {
	if c := netipx.ComparePrefix(a.Prefix, b.Prefix); c != 0 {
		return c
	}
	if a.ASN != b.ASN {
		if a.ASN < b.ASN {
			return -1
		}
		return 1
	}
	if a.MaxLength != b.MaxLength {
		return a.MaxLength - b.MaxLength
	}
	switch {
	case a.TrustAnchor < b.TrustAnchor:
		return -1
	case a.TrustAnchor > b.TrustAnchor:
		return 1
	default:
		return 0
	}
}

// HashEntries computes the content hash over an entry set. The entries must
// already be in canonical order.
func HashEntries(entries []Entry) string {
	return hashEntries(entries)
}

func hashEntries(entries []Entry) string {
	h := sha256.New()
	for _, e := range entries {
		fmt.Fprintf(h, "%s\n", e)
	}
	return hex.EncodeToString(h.Sum(nil))
}
