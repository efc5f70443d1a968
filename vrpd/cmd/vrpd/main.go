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

package main

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"golang.org/x/sync/errgroup"

	"github.com/Arjun4522/RPKI-viz/pkg/log"
	"github.com/Arjun4522/RPKI-viz/pkg/private/serrors"
	"github.com/Arjun4522/RPKI-viz/private/app/launcher"
	"github.com/Arjun4522/RPKI-viz/private/env"
	"github.com/Arjun4522/RPKI-viz/private/periodic"
	"github.com/Arjun4522/RPKI-viz/private/storage/cleaner"
	"github.com/Arjun4522/RPKI-viz/private/storage/db"
	"github.com/Arjun4522/RPKI-viz/vrpd"
	"github.com/Arjun4522/RPKI-viz/vrpd/api"
	"github.com/Arjun4522/RPKI-viz/vrpd/config"
	"github.com/Arjun4522/RPKI-viz/vrpd/ingest"
	"github.com/Arjun4522/RPKI-viz/vrpd/storage"
	"github.com/Arjun4522/RPKI-viz/vrpd/validate"
)

func main() {
	var cfg config.Config
	application := launcher.Application{
		TOMLConfig: &cfg,
		ShortName:  "VRP Daemon",
		Main: func(ctx context.Context) error {
			return realMain(ctx, &cfg)
		},
	}
	application.Run()
}

func realMain(ctx context.Context, cfg *config.Config) error {
	metrics := vrpd.NewMetrics()

	stateDB, err := storage.NewStateStorage(cfg.DB)
	if err != nil {
		return serrors.Wrap("creating state database", err)
	}
	defer stateDB.Close()

	engine := validate.New()
	snap, err := stateDB.LoadLatest(ctx)
	switch {
	case err == nil:
		engine.Update(snap)
		metrics.VRPCount.Set(float64(snap.Count()))
		metrics.SerialNumber.Set(float64(snap.Serial))
		log.Info("Restored snapshot from database",
			"serial", snap.Serial, "entries", snap.Count())
	case errors.Is(err, db.ErrNotFound):
		log.Info("No snapshot in database, waiting for first ingestion cycle")
	default:
		return serrors.Wrap("loading latest snapshot", err)
	}
	metrics.RegisterSnapshotAge(engine.Current)

	health := &ingest.Health{}
	task := &ingest.Task{
		Client: &ingest.Client{
			URL:     cfg.Ingest.Upstream,
			Timeout: cfg.Ingest.FetchTimeout.Duration,
		},
		DB:      stateDB,
		Engine:  engine,
		Metrics: metrics,
		Health:  health,
	}
	runner := periodic.Start(task, cfg.Ingest.Interval.Duration, cfg.Ingest.Interval.Duration)
	defer runner.Kill()
	// Fetch right away instead of waiting out the first period.
	runner.TriggerRun()

	stateCleaner := periodic.Start(
		cleaner.New(
			func(ctx context.Context) (int, error) {
				return stateDB.DeleteOlderThan(ctx,
					time.Now().Add(-cfg.Ingest.Retention.Duration))
			},
			"vrpd_state",
			cleanerMetrics(),
		),
		time.Hour,
		time.Hour,
	)
	defer stateCleaner.Kill()

	server := &api.Server{
		DB:        stateDB,
		Engine:    engine,
		Health:    health,
		Refresher: runner,
		Metrics:   metrics,
	}
	httpServer := &http.Server{
		Addr:    cfg.API.Addr,
		Handler: server.Handler(),
	}

	g, errCtx := errgroup.WithContext(ctx)
	g.Go(func() error {
		defer log.HandlePanic()
		log.Info("Exposing API", "addr", cfg.API.Addr)
		err := httpServer.ListenAndServe()
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return serrors.Wrap("serving HTTP API", err, "addr", cfg.API.Addr)
		}
		return nil
	})
	g.Go(func() error {
		defer log.HandlePanic()
		return cfg.Metrics.ServePrometheus(errCtx)
	})
	g.Go(func() error {
		defer log.HandlePanic()
		<-errCtx.Done()
		shutdownCtx, cancelF := context.WithTimeout(
			context.Background(), env.ShutdownGraceInterval)
		defer cancelF()
		return httpServer.Shutdown(shutdownCtx)
	})
	return g.Wait()
}

func cleanerMetrics() cleaner.Metrics {
	return cleaner.Metrics{
		ErrorsTotal: promauto.NewCounter(prometheus.CounterOpts{
			Name: "rpki_state_cleaner_errors_total",
			Help: "Total number of failed state cleanup runs.",
		}),
		RunsTotal: promauto.NewCounter(prometheus.CounterOpts{
			Name: "rpki_state_cleaner_runs_total",
			Help: "Total number of successful state cleanup runs.",
		}),
		DeletedTotal: promauto.NewCounter(prometheus.CounterOpts{
			Name: "rpki_state_cleaner_deleted_snapshots_total",
			Help: "Total number of snapshots removed by retention.",
		}),
	}
}
