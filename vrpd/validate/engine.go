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

// Package validate answers route-origin validation queries against the
// current VRP snapshot, following the procedure of RFC 6811.
package validate

import (
	"net/netip"
	"sync/atomic"

	"github.com/Arjun4522/RPKI-viz/pkg/private/serrors"
	"github.com/Arjun4522/RPKI-viz/pkg/vrp"
)

// ErrNoSnapshot indicates that no snapshot has been published yet, neither
// from the database at startup nor from a completed ingestion cycle.
var ErrNoSnapshot = serrors.New("no snapshot available")

// State is the outcome of route-origin validation.
type State string

const (
	// StateValid means at least one VRP authorizes the announcement.
	StateValid State = "valid"
	// StateInvalid means VRPs cover the prefix but none authorizes the
	// announcement, either because of the origin AS or the prefix length.
	StateInvalid State = "invalid"
	// StateNotFound means no VRP covers the prefix.
	StateNotFound State = "not-found"
)

// Result is a route-origin validation verdict together with the evidence it
// was derived from.
type Result struct {
	// State is the verdict.
	State State
	// Matched are the VRPs that authorize the announcement, in canonical
	// order. Empty unless State is StateValid.
	Matched []vrp.Entry
	// Covering are the VRPs that cover the prefix without authorizing the
	// announcement, in canonical order.
	Covering []vrp.Entry
	// Serial is the serial of the snapshot the verdict is based on.
	Serial uint64
}

// Engine validates announcements against an atomically swapped snapshot.
// Queries never block ingestion and always see a complete snapshot, either
// the one from before or the one from after a swap.
type Engine struct {
	snapshot atomic.Pointer[vrp.Snapshot]
}

// New returns an engine without a snapshot. Validation queries fail with
// ErrNoSnapshot until the first Update.
func New() *Engine {
	return &Engine{}
}

// Update publishes the given snapshot to subsequent queries. In-flight
// queries continue against the snapshot they started with.
func (e *Engine) Update(snap *vrp.Snapshot) {
	e.snapshot.Store(snap)
}

// Current returns the published snapshot, or nil if none was published yet.
func (e *Engine) Current() *vrp.Snapshot {
	return e.snapshot.Load()
}

// Validate classifies the announcement of prefix by the given origin AS.
// The prefix must be in masked form. The verdict is valid if any VRP matches,
// invalid if VRPs cover the prefix but none matches, and not-found if the
// prefix is outside the validated address space.
func (e *Engine) Validate(prefix netip.Prefix, asn vrp.ASN) (*Result, error) {
	snap := e.snapshot.Load()
	if snap == nil {
		return nil, ErrNoSnapshot
	}
	res := &Result{
		State:  StateNotFound,
		Serial: snap.Serial,
	}
	for _, entry := range snap.Entries {
		if !entry.Covers(prefix) {
			continue
		}
		if entry.Matches(prefix, asn) {
			res.Matched = append(res.Matched, entry)
		} else {
			res.Covering = append(res.Covering, entry)
		}
	}
	switch {
	case len(res.Matched) > 0:
		res.State = StateValid
	case len(res.Covering) > 0:
		res.State = StateInvalid
	}
	return res, nil
}
