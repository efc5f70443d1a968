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
	"slices"
)

// Diff describes the change between two snapshots. Applying Added and
// Removed to the entry set of the from-snapshot reconstructs the entry set
// of the to-snapshot exactly.
type Diff struct {
	FromSerial uint64
	ToSerial   uint64
	// Added entries, in canonical order.
	Added []Entry
	// Removed entries, in canonical order.
	Removed []Entry
	// Unchanged is the number of entries common to both snapshots.
	Unchanged int
}

// Empty reports whether the diff carries no change.
func (d *Diff) Empty() bool {
	return len(d.Added) == 0 && len(d.Removed) == 0
}

// ComputeDiff computes the change from prev to next over the entry
// uniqueness key. The serial is only advanced for real changes: if the
// content hashes of prev and next are equal, the returned diff is empty and
// ToSerial equals prev.Serial, so the serial counts distinct observed states
// rather than polling cycles. A nil prev yields a diff from serial 0 to
// serial 1 that adds all entries of next.
//
// ComputeDiff does not modify either snapshot; the caller assigns
// diff.ToSerial to next before committing.
func ComputeDiff(prev, next *Snapshot) *Diff {
	if prev == nil {
		return &Diff{
			FromSerial: 0,
			ToSerial:   1,
			Added:      slices.Clone(next.Entries),
		}
	}
	if prev.ContentHash == next.ContentHash {
		return &Diff{
			FromSerial: prev.Serial,
			ToSerial:   prev.Serial,
			Unchanged:  len(prev.Entries),
		}
	}

	prevKeys := make(map[Key]struct{}, len(prev.Entries))
	for _, e := range prev.Entries {
		prevKeys[e.Key()] = struct{}{}
	}
	d := &Diff{
		FromSerial: prev.Serial,
		ToSerial:   prev.Serial + 1,
	}
	nextKeys := make(map[Key]struct{}, len(next.Entries))
	for _, e := range next.Entries {
		nextKeys[e.Key()] = struct{}{}
		if _, ok := prevKeys[e.Key()]; ok {
			d.Unchanged++
		} else {
			d.Added = append(d.Added, e)
		}
	}
	for _, e := range prev.Entries {
		if _, ok := nextKeys[e.Key()]; !ok {
			d.Removed = append(d.Removed, e)
		}
	}
	return d
}

// Apply replays the diff on top of the given entry set and returns the
// resulting set in canonical order. The input must be the entry set the diff
// was computed from.
func (d *Diff) Apply(base []Entry) []Entry {
	removed := make(map[Key]struct{}, len(d.Removed))
	for _, e := range d.Removed {
		removed[e.Key()] = struct{}{}
	}
	result := make([]Entry, 0, len(base)+len(d.Added)-len(d.Removed))
	for _, e := range base {
		if _, ok := removed[e.Key()]; !ok {
			result = append(result, e)
		}
	}
	result = append(result, d.Added...)
	slices.SortFunc(result, Compare)
	return result
}
