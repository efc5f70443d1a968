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

// Package ingest polls the upstream RPKI validator and turns its JSON export
// into committed snapshots.
package ingest

import (
	"context"
	"errors"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/Arjun4522/RPKI-viz/pkg/private/serrors"
)

// ErrFetch indicates that the upstream export could not be retrieved.
var ErrFetch = errors.New("fetching upstream export")

const (
	// DefaultTimeout bounds a single fetch attempt.
	DefaultTimeout = 60 * time.Second

	userAgent = "vrpd"
)

// Client fetches the JSON VRP export from an upstream validator.
type Client struct {
	// URL is the base URL of the validator, e.g. "http://routinator:8323".
	// The export is expected at the "/json" path below it.
	URL string
	// Timeout bounds a single fetch attempt. Defaults to DefaultTimeout.
	Timeout time.Duration
	// Client is the HTTP client to use. Defaults to http.DefaultClient.
	Client *http.Client
}

// Fetch retrieves the raw JSON export. All failure modes, including non-200
// responses, are reported as ErrFetch.
func (c *Client) Fetch(ctx context.Context) ([]byte, error) {
	timeout := c.Timeout
	if timeout == 0 {
		timeout = DefaultTimeout
	}
	ctx, cancelF := context.WithTimeout(ctx, timeout)
	defer cancelF()

	url := strings.TrimSuffix(c.URL, "/") + "/json"
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, serrors.JoinNoStack(ErrFetch, err, "url", url)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", "application/json")

	client := c.Client
	if client == nil {
		client = http.DefaultClient
	}
	rep, err := client.Do(req)
	if err != nil {
		return nil, serrors.JoinNoStack(ErrFetch, err, "url", url)
	}
	defer rep.Body.Close()
	if rep.StatusCode != http.StatusOK {
		return nil, serrors.JoinNoStack(ErrFetch, nil, "url", url, "status", rep.Status)
	}
	raw, err := io.ReadAll(rep.Body)
	if err != nil {
		return nil, serrors.JoinNoStack(ErrFetch, err, "url", url)
	}
	return raw, nil
}
