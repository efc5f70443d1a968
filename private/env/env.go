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

// Package env contains common configuration and initialization code shared by
// the service binaries. If something is specific to one binary, it should go
// into that binary's code and not here.
package env

import (
	"context"
	"errors"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/Arjun4522/RPKI-viz/pkg/log"
	"github.com/Arjun4522/RPKI-viz/pkg/private/serrors"
	"github.com/Arjun4522/RPKI-viz/private/config"
)

const (
	// ShutdownGraceInterval is the time applications wait after issuing a
	// clean shutdown signal, before forcefully tearing down the application.
	ShutdownGraceInterval = 5 * time.Second

	// HandlerTimeout is the time after which an http handler gives up on a
	// request and returns an error instead.
	HandlerTimeout = time.Minute
)

func init() {
	os.Setenv("TZ", "UTC")
}

var _ config.Config = (*General)(nil)

// General contains the generic service configuration.
type General struct {
	config.NoDefaulter
	// ID is the service element ID. It is used as instance label in logs and
	// metrics.
	ID string `toml:"id,omitempty"`
}

// Validate checks that an element ID is set.
func (cfg *General) Validate() error {
	if cfg.ID == "" {
		return serrors.New("no element id specified")
	}
	return nil
}

// Sample writes the sample configuration of the general block to dst.
func (cfg *General) Sample(dst io.Writer, _ config.Path, ctx config.CtxMap) {
	config.WriteString(dst, generalSample(ctx[config.ID]))
}

// ConfigName returns the name this config should have in a TOML file.
func (cfg *General) ConfigName() string {
	return "general"
}

var _ config.Config = (*Metrics)(nil)

// Metrics configures the optional dedicated prometheus listener.
type Metrics struct {
	config.NoDefaulter
	config.NoValidator
	// Prometheus contains the address to export prometheus metrics on. If
	// not set, metrics are only available via the service API listener.
	Prometheus string `toml:"prometheus,omitempty"`
}

// Sample writes the sample configuration of the metrics block to dst.
func (cfg *Metrics) Sample(dst io.Writer, _ config.Path, _ config.CtxMap) {
	config.WriteString(dst, metricsSample)
}

// ConfigName returns the name this config should have in a TOML file.
func (cfg *Metrics) ConfigName() string {
	return "metrics"
}

// ServePrometheus starts a HTTP server that serves the default prometheus
// registry on /metrics, until ctx is cancelled. It is a no-op if no address
// is configured.
func (cfg *Metrics) ServePrometheus(ctx context.Context) error {
	if cfg.Prometheus == "" {
		return nil
	}
	handler := promhttp.InstrumentMetricHandler(
		prometheus.DefaultRegisterer,
		promhttp.HandlerFor(
			prometheus.DefaultGatherer,
			promhttp.HandlerOpts{Timeout: HandlerTimeout},
		),
	)
	mux := http.NewServeMux()
	mux.Handle("/metrics", handler)
	log.Info("Exporting prometheus metrics", "addr", cfg.Prometheus)

	server := &http.Server{Addr: cfg.Prometheus, Handler: mux}
	go func() {
		defer log.HandlePanic()
		<-ctx.Done()
		server.Close()
	}()
	err := server.ListenAndServe()
	if err != nil && !errors.Is(err, http.ErrServerClosed) {
		return serrors.Wrap("serving prometheus metrics", err)
	}
	return nil
}
