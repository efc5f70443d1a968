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

// Package vrpd contains the glue that ties the VRP daemon together.
package vrpd

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/Arjun4522/RPKI-viz/pkg/private/prom"
	"github.com/Arjun4522/RPKI-viz/pkg/vrp"
)

// Metrics defines the metrics exposed by the VRP daemon.
type Metrics struct {
	FetchFailuresTotal    prometheus.Counter
	LastSuccessfulFetch   prometheus.Gauge
	VRPCount              prometheus.Gauge
	SerialNumber          prometheus.Gauge
	SnapshotAcceptedTotal prometheus.Counter
	SnapshotRejectedTotal prometheus.Counter
	APIRequestsTotal      *prometheus.CounterVec
	APIRequestDuration    *prometheus.HistogramVec
}

func NewMetrics() *Metrics {
	return &Metrics{
		FetchFailuresTotal: promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "rpki_fetch_failures_total",
				Help: "Total number of failed fetches from the upstream validator.",
			},
		),
		LastSuccessfulFetch: promauto.NewGauge(
			prometheus.GaugeOpts{
				Name: "rpki_last_successful_fetch_timestamp",
				Help: "Unix timestamp of the last successful upstream fetch.",
			},
		),
		VRPCount: promauto.NewGauge(
			prometheus.GaugeOpts{
				Name: "rpki_vrp_count",
				Help: "Number of VRP entries in the current snapshot.",
			},
		),
		SerialNumber: promauto.NewGauge(
			prometheus.GaugeOpts{
				Name: "rpki_serial_number",
				Help: "Serial of the current snapshot.",
			},
		),
		SnapshotAcceptedTotal: promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "rpki_snapshot_accepted_total",
				Help: "Total number of ingestion cycles that produced a new snapshot.",
			},
		),
		SnapshotRejectedTotal: promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "rpki_snapshot_rejected_total",
				Help: "Total number of ingestion cycles discarded as unchanged or unusable.",
			},
		),
		APIRequestsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "rpki_api_requests_total",
				Help: "Total number of API requests.",
			},
			[]string{prom.LabelEndpoint, prom.LabelMethod, prom.LabelStatus},
		),
		APIRequestDuration: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "rpki_api_request_duration_seconds",
				Help:    "API request latencies.",
				Buckets: prom.DefaultLatencyBuckets,
			},
			[]string{prom.LabelEndpoint},
		),
	}
}

// RegisterSnapshotAge exposes the age of the current snapshot as a gauge
// computed at scrape time.
func (m *Metrics) RegisterSnapshotAge(current func() *vrp.Snapshot) {
	promauto.NewGaugeFunc(
		prometheus.GaugeOpts{
			Name: "rpki_snapshot_age_seconds",
			Help: "Age of the current snapshot.",
		},
		func() float64 {
			snap := current()
			if snap == nil {
				return 0
			}
			return time.Since(snap.CapturedAt).Seconds()
		},
	)
}
