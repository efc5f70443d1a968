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

package ingest_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Arjun4522/RPKI-viz/pkg/log"
	"github.com/Arjun4522/RPKI-viz/vrpd"
	"github.com/Arjun4522/RPKI-viz/vrpd/ingest"
	"github.com/Arjun4522/RPKI-viz/vrpd/storage/sqlite"
	"github.com/Arjun4522/RPKI-viz/vrpd/validate"
)

func TestMain(m *testing.M) {
	log.Discard()
	os.Exit(m.Run())
}

const exportOne = `{
	"metadata": {"generated": 1700000000},
	"roas": [
		{"asn": "AS65000", "prefix": "192.0.2.0/24", "maxLength": 24, "ta": "arin"}
	]
}`

const exportTwo = `{
	"metadata": {"generated": 1700000600},
	"roas": [
		{"asn": "AS65000", "prefix": "192.0.2.0/24", "maxLength": 24, "ta": "arin"},
		{"asn": "AS65001", "prefix": "198.51.100.0/24", "maxLength": 25, "ta": "ripe"}
	]
}`

func newTestMetrics() *vrpd.Metrics {
	return &vrpd.Metrics{
		FetchFailuresTotal:    prometheus.NewCounter(prometheus.CounterOpts{Name: "f"}),
		LastSuccessfulFetch:   prometheus.NewGauge(prometheus.GaugeOpts{Name: "l"}),
		VRPCount:              prometheus.NewGauge(prometheus.GaugeOpts{Name: "v"}),
		SerialNumber:          prometheus.NewGauge(prometheus.GaugeOpts{Name: "s"}),
		SnapshotAcceptedTotal: prometheus.NewCounter(prometheus.CounterOpts{Name: "a"}),
		SnapshotRejectedTotal: prometheus.NewCounter(prometheus.CounterOpts{Name: "r"}),
	}
}

func newTestTask(t *testing.T, url string) *ingest.Task {
	t.Helper()
	db, err := sqlite.New(filepath.Join(t.TempDir(), "state.db"), nil)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return &ingest.Task{
		Client:  &ingest.Client{URL: url, Timeout: time.Second},
		DB:      db,
		Engine:  validate.New(),
		Metrics: newTestMetrics(),
		Health:  &ingest.Health{},
	}
}

func TestClientFetch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/json", r.URL.Path)
		assert.Equal(t, "application/json", r.Header.Get("Accept"))
		w.Write([]byte(exportOne))
	}))
	defer srv.Close()

	c := &ingest.Client{URL: srv.URL, Timeout: time.Second}
	raw, err := c.Fetch(context.Background())
	require.NoError(t, err)
	assert.Equal(t, exportOne, string(raw))
}

func TestClientFetchErrors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer srv.Close()

	c := &ingest.Client{URL: srv.URL, Timeout: time.Second}
	_, err := c.Fetch(context.Background())
	assert.ErrorIs(t, err, ingest.ErrFetch)

	c = &ingest.Client{URL: "http://127.0.0.1:1", Timeout: 100 * time.Millisecond}
	_, err = c.Fetch(context.Background())
	assert.ErrorIs(t, err, ingest.ErrFetch)
}

func TestRunPublishesSnapshot(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(exportOne))
	}))
	defer srv.Close()

	task := newTestTask(t, srv.URL)
	task.Run(context.Background())

	snap := task.Engine.Current()
	require.NotNil(t, snap)
	assert.Equal(t, uint64(1), snap.Serial)
	assert.Equal(t, 1, snap.Count())

	stored, err := task.DB.LoadLatest(context.Background())
	require.NoError(t, err)
	assert.Equal(t, snap, stored)

	status := task.Health.Status()
	assert.False(t, status.LastSuccess.IsZero())
	assert.Zero(t, status.ConsecutiveFailures)
	assert.NoError(t, status.LastError)
	assert.Equal(t, 1.0, testutil.ToFloat64(task.Metrics.SnapshotAcceptedTotal))
}

func TestRunUnchangedContentKeepsSerial(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(exportOne))
	}))
	defer srv.Close()

	task := newTestTask(t, srv.URL)
	task.Run(context.Background())
	task.Run(context.Background())

	snap := task.Engine.Current()
	require.NotNil(t, snap)
	assert.Equal(t, uint64(1), snap.Serial)
	assert.Equal(t, 1.0, testutil.ToFloat64(task.Metrics.SnapshotAcceptedTotal))
	assert.Equal(t, 1.0, testutil.ToFloat64(task.Metrics.SnapshotRejectedTotal))
	assert.Zero(t, task.Health.Status().ConsecutiveFailures)
}

func TestRunChangedContentAdvancesSerial(t *testing.T) {
	var second atomic.Bool
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if second.Swap(true) {
			w.Write([]byte(exportTwo))
			return
		}
		w.Write([]byte(exportOne))
	}))
	defer srv.Close()

	task := newTestTask(t, srv.URL)
	task.Run(context.Background())
	task.Run(context.Background())

	snap := task.Engine.Current()
	require.NotNil(t, snap)
	assert.Equal(t, uint64(2), snap.Serial)
	assert.Equal(t, 2, snap.Count())

	d, err := task.DB.Diff(context.Background(), 1, 2)
	require.NoError(t, err)
	require.Len(t, d.Added, 1)
	assert.Empty(t, d.Removed)
}

func TestRunFetchFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusBadGateway)
	}))
	defer srv.Close()

	task := newTestTask(t, srv.URL)
	task.Run(context.Background())

	assert.Nil(t, task.Engine.Current())
	status := task.Health.Status()
	assert.Equal(t, 1, status.ConsecutiveFailures)
	assert.ErrorIs(t, status.LastError, ingest.ErrFetch)
	assert.Equal(t, 1.0, testutil.ToFloat64(task.Metrics.FetchFailuresTotal))
}

func TestRunMalformedPayload(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"metadata": null, "roas": null}`))
	}))
	defer srv.Close()

	task := newTestTask(t, srv.URL)
	task.Run(context.Background())

	assert.Nil(t, task.Engine.Current())
	assert.Equal(t, 1, task.Health.Status().ConsecutiveFailures)
	assert.Equal(t, 1.0, testutil.ToFloat64(task.Metrics.SnapshotRejectedTotal))
}

func TestRunFailureResetOnSuccess(t *testing.T) {
	var fail atomic.Bool
	fail.Store(true)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if fail.Load() {
			http.Error(w, "boom", http.StatusBadGateway)
			return
		}
		w.Write([]byte(exportOne))
	}))
	defer srv.Close()

	task := newTestTask(t, srv.URL)
	task.Run(context.Background())
	task.Run(context.Background())
	assert.Equal(t, 2, task.Health.Status().ConsecutiveFailures)

	fail.Store(false)
	task.Run(context.Background())
	status := task.Health.Status()
	assert.Zero(t, status.ConsecutiveFailures)
	assert.NoError(t, status.LastError)
	require.NotNil(t, task.Engine.Current())
}
