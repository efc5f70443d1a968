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

package ingest

import (
	"context"
	"sync"
	"time"

	"github.com/Arjun4522/RPKI-viz/pkg/log"
	"github.com/Arjun4522/RPKI-viz/pkg/vrp"
	"github.com/Arjun4522/RPKI-viz/vrpd"
	"github.com/Arjun4522/RPKI-viz/vrpd/storage"
	"github.com/Arjun4522/RPKI-viz/vrpd/validate"
)

// Task is the periodic ingestion cycle: fetch the upstream export, normalize
// it into a snapshot, and, if the content changed, commit and publish it.
// Task implements periodic.Task; the periodic runner guarantees that at most
// one cycle is in flight.
type Task struct {
	Client  *Client
	DB      storage.StateDB
	Engine  *validate.Engine
	Metrics *vrpd.Metrics
	Health  *Health
}

// Name returns the tasks name.
func (t *Task) Name() string {
	return "vrpd_ingest"
}

// Run executes one ingestion cycle. Failures leave the published snapshot
// untouched; the next tick retries.
func (t *Task) Run(ctx context.Context) {
	logger := log.FromCtx(ctx)
	t.Health.attempt(time.Now())

	raw, err := t.Client.Fetch(ctx)
	if err != nil {
		t.Metrics.FetchFailuresTotal.Inc()
		t.Health.failure(err)
		logger.Error("Fetching upstream export failed", "err", err)
		return
	}
	payload, err := vrp.ParsePayload(raw)
	if err != nil {
		t.Metrics.SnapshotRejectedTotal.Inc()
		t.Health.failure(err)
		logger.Error("Upstream export unusable", "err", err)
		return
	}
	if payload.Rejected > 0 {
		logger.Info("Dropped malformed upstream records", "count", payload.Rejected)
	}

	// The store keeps CapturedAt at second resolution; truncate up front so
	// the published snapshot and the persisted one stay identical.
	now := time.Now().UTC().Truncate(time.Second)
	next := vrp.NewSnapshot(payload.Entries, now)
	prev := t.Engine.Current()
	diff := vrp.ComputeDiff(prev, next)
	if prev != nil && diff.ToSerial == prev.Serial {
		// Same content as the published snapshot. The fetch succeeded, but
		// the serial must not advance.
		t.Metrics.SnapshotRejectedTotal.Inc()
		t.Metrics.LastSuccessfulFetch.Set(float64(now.Unix()))
		t.Health.success(now)
		logger.Debug("Upstream content unchanged", "serial", prev.Serial)
		return
	}

	next.Serial = diff.ToSerial
	if err := t.DB.Commit(ctx, next, diff); err != nil {
		t.Metrics.SnapshotRejectedTotal.Inc()
		t.Health.failure(err)
		logger.Error("Committing snapshot failed", "serial", next.Serial, "err", err)
		return
	}
	t.Engine.Update(next)

	t.Metrics.SnapshotAcceptedTotal.Inc()
	t.Metrics.VRPCount.Set(float64(next.Count()))
	t.Metrics.SerialNumber.Set(float64(next.Serial))
	t.Metrics.LastSuccessfulFetch.Set(float64(now.Unix()))
	t.Health.success(now)
	logger.Info("Published new snapshot", "serial", next.Serial,
		"entries", next.Count(), "added", len(diff.Added), "removed", len(diff.Removed))
}

// Health tracks the recent ingestion outcomes for the health endpoint.
type Health struct {
	mu                  sync.Mutex
	lastAttempt         time.Time
	lastSuccess         time.Time
	consecutiveFailures int
	lastError           error
}

// Status is a point-in-time copy of the ingestion health.
type Status struct {
	// LastAttempt is the start time of the most recent cycle, zero before
	// the first cycle.
	LastAttempt time.Time
	// LastSuccess is the completion time of the most recent successful
	// cycle, zero if none succeeded yet.
	LastSuccess time.Time
	// ConsecutiveFailures counts the failed cycles since the last success.
	ConsecutiveFailures int
	// LastError is the error of the most recent failed cycle, nil after a
	// success.
	LastError error
}

// Status returns a copy of the current health state.
func (h *Health) Status() Status {
	h.mu.Lock()
	defer h.mu.Unlock()
	return Status{
		LastAttempt:         h.lastAttempt,
		LastSuccess:         h.lastSuccess,
		ConsecutiveFailures: h.consecutiveFailures,
		LastError:           h.lastError,
	}
}

func (h *Health) attempt(now time.Time) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.lastAttempt = now
}

func (h *Health) success(now time.Time) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.lastSuccess = now
	h.consecutiveFailures = 0
	h.lastError = nil
}

func (h *Health) failure(err error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.consecutiveFailures++
	h.lastError = err
}
