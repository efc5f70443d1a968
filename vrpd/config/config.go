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

// Package config contains the configuration of the VRP daemon.
package config

import (
	"io"
	"net/url"
	"time"

	"github.com/Arjun4522/RPKI-viz/pkg/log"
	"github.com/Arjun4522/RPKI-viz/pkg/private/serrors"
	"github.com/Arjun4522/RPKI-viz/pkg/private/util"
	"github.com/Arjun4522/RPKI-viz/private/config"
	"github.com/Arjun4522/RPKI-viz/private/env"
	"github.com/Arjun4522/RPKI-viz/vrpd/storage"
)

const idSample = "vrpd-1"

var _ config.Config = (*Config)(nil)

type Config struct {
	General env.General      `toml:"general,omitempty"`
	Logging log.Config       `toml:"log,omitempty"`
	Metrics env.Metrics      `toml:"metrics,omitempty"`
	API     API              `toml:"api,omitempty"`
	Ingest  Ingest           `toml:"ingest,omitempty"`
	DB      storage.DBConfig `toml:"db,omitempty"`
}

func (cfg *Config) InitDefaults() {
	config.InitAll(
		&cfg.General,
		&cfg.Logging,
		&cfg.Metrics,
		&cfg.API,
		&cfg.Ingest,
		&cfg.DB,
	)
}

func (cfg *Config) Validate() error {
	return config.ValidateAll(
		&cfg.General,
		&cfg.Logging,
		&cfg.Metrics,
		&cfg.API,
		&cfg.Ingest,
		&cfg.DB,
	)
}

func (cfg *Config) Sample(dst io.Writer, path config.Path, _ config.CtxMap) {
	config.WriteSample(dst, path, config.CtxMap{config.ID: idSample},
		&cfg.General,
		&cfg.Logging,
		&cfg.Metrics,
		&cfg.API,
		&cfg.Ingest,
		&cfg.DB,
	)
}

func (cfg *Config) ConfigName() string {
	return "vrpd_config"
}

// API contains the config for the HTTP API listener.
type API struct {
	config.NoValidator
	// Addr is the address the API listens on (host:port or ip:port or
	// :port).
	Addr string `toml:"addr,omitempty"`
}

func (cfg *API) InitDefaults() {
	if cfg.Addr == "" {
		cfg.Addr = ":8080"
	}
}

func (cfg *API) Sample(dst io.Writer, path config.Path, ctx config.CtxMap) {
	config.WriteString(dst, apiSample)
}

func (cfg *API) ConfigName() string {
	return "api"
}

// Ingest contains the config for the upstream polling cycle.
type Ingest struct {
	// Upstream is the base URL of the upstream RPKI validator. The JSON
	// export is fetched from the /json path below it.
	Upstream string `toml:"upstream,omitempty"`
	// Interval is the time between two ingestion cycles.
	Interval util.DurWrap `toml:"interval,omitempty"`
	// FetchTimeout bounds a single fetch attempt.
	FetchTimeout util.DurWrap `toml:"fetch_timeout,omitempty"`
	// Retention is how long historic snapshots are kept. The current and
	// the previous snapshot are kept regardless.
	Retention util.DurWrap `toml:"retention,omitempty"`
}

func (cfg *Ingest) InitDefaults() {
	if cfg.Upstream == "" {
		cfg.Upstream = "http://routinator:8323"
	}
	if cfg.Interval.Duration == 0 {
		cfg.Interval.Duration = 10 * time.Minute
	}
	if cfg.FetchTimeout.Duration == 0 {
		cfg.FetchTimeout.Duration = time.Minute
	}
	if cfg.Retention.Duration == 0 {
		cfg.Retention.Duration = 7 * 24 * time.Hour
	}
}

func (cfg *Ingest) Validate() error {
	u, err := url.Parse(cfg.Upstream)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return serrors.New("upstream must be a http(s) URL", "upstream", cfg.Upstream)
	}
	if cfg.Interval.Duration <= 0 {
		return serrors.New("interval must be positive", "interval", cfg.Interval)
	}
	if cfg.FetchTimeout.Duration <= 0 {
		return serrors.New("fetch_timeout must be positive",
			"fetch_timeout", cfg.FetchTimeout)
	}
	if cfg.Retention.Duration < cfg.Interval.Duration {
		return serrors.New("retention must not be shorter than the interval",
			"retention", cfg.Retention, "interval", cfg.Interval)
	}
	return nil
}

func (cfg *Ingest) Sample(dst io.Writer, path config.Path, ctx config.CtxMap) {
	config.WriteString(dst, ingestSample)
}

func (cfg *Ingest) ConfigName() string {
	return "ingest"
}
