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

// Package api exposes the daemon state over HTTP.
package api

import (
	"errors"
	"net/http"
	"net/netip"
	"slices"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/goccy/go-json"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/Arjun4522/RPKI-viz/pkg/log"
	"github.com/Arjun4522/RPKI-viz/pkg/vrp"
	"github.com/Arjun4522/RPKI-viz/private/storage/db"
	"github.com/Arjun4522/RPKI-viz/vrpd"
	"github.com/Arjun4522/RPKI-viz/vrpd/ingest"
	"github.com/Arjun4522/RPKI-viz/vrpd/storage"
	"github.com/Arjun4522/RPKI-viz/vrpd/validate"
)

// Refresher triggers an out-of-schedule ingestion cycle. Triggers arriving
// while a cycle is in flight or already queued coalesce.
type Refresher interface {
	TryTriggerRun() bool
}

// Server implements the HTTP API of the daemon.
type Server struct {
	DB     storage.StateDB
	Engine *validate.Engine
	Health *ingest.Health
	// Refresher is optional; without it the refresh endpoint reports the
	// feature as unavailable.
	Refresher Refresher
	// Metrics is optional; without it requests are not measured.
	Metrics *vrpd.Metrics
}

// Handler returns the HTTP handler with all routes attached.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
	}))
	r.Use(s.observe)
	r.Get("/health", s.health)
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())
	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/state", s.state)
		r.Get("/vrps", s.vrps)
		r.Get("/diff", s.diff)
		r.Get("/validate", s.validate)
		r.Post("/validate", s.validate)
		r.Post("/refresh", s.refresh)
	})
	return r
}

func (s *Server) observe(next http.Handler) http.Handler {
	if s.Metrics == nil {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		endpoint := chi.RouteContext(r.Context()).RoutePattern()
		s.Metrics.APIRequestsTotal.
			WithLabelValues(endpoint, r.Method, strconv.Itoa(status)).Inc()
		s.Metrics.APIRequestDuration.
			WithLabelValues(endpoint).Observe(time.Since(start).Seconds())
	})
}

type healthRep struct {
	Status              string     `json:"status"`
	Serial              *uint64    `json:"serial,omitempty"`
	LastAttempt         *time.Time `json:"lastAttempt,omitempty"`
	LastSuccess         *time.Time `json:"lastSuccess,omitempty"`
	ConsecutiveFailures int        `json:"consecutiveFailures"`
	LastError           string     `json:"lastError,omitempty"`
}

func (s *Server) health(w http.ResponseWriter, r *http.Request) {
	rep := healthRep{Status: "healthy"}
	if s.Health != nil {
		status := s.Health.Status()
		rep.ConsecutiveFailures = status.ConsecutiveFailures
		if !status.LastAttempt.IsZero() {
			rep.LastAttempt = &status.LastAttempt
		}
		if !status.LastSuccess.IsZero() {
			rep.LastSuccess = &status.LastSuccess
		}
		if status.LastError != nil {
			rep.LastError = status.LastError.Error()
		}
	}
	snap := s.Engine.Current()
	if snap == nil {
		rep.Status = "unhealthy"
		writeJSON(w, http.StatusServiceUnavailable, rep)
		return
	}
	rep.Serial = &snap.Serial
	writeJSON(w, http.StatusOK, rep)
}

type stateRep struct {
	Serial     uint64    `json:"serial"`
	VRPCount   int       `json:"vrp_count"`
	Hash       string    `json:"hash"`
	LastUpdate time.Time `json:"last_update"`
}

func (s *Server) state(w http.ResponseWriter, r *http.Request) {
	snap := s.Engine.Current()
	if snap == nil {
		writeError(w, http.StatusServiceUnavailable, "no snapshot available yet")
		return
	}
	writeJSON(w, http.StatusOK, stateRep{
		Serial:     snap.Serial,
		VRPCount:   snap.Count(),
		Hash:       snap.ContentHash,
		LastUpdate: snap.CapturedAt,
	})
}

type vrpsRep struct {
	Serial     uint64      `json:"serial"`
	CapturedAt time.Time   `json:"capturedAt"`
	VRPs       []vrp.Entry `json:"vrps"`
}

func (s *Server) vrps(w http.ResponseWriter, r *http.Request) {
	snap := s.Engine.Current()
	if snap == nil {
		writeError(w, http.StatusServiceUnavailable, "no snapshot available yet")
		return
	}
	entries := snap.Entries
	if q := r.URL.Query().Get("asn"); q != "" {
		asn, err := vrp.ParseASN(q)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid asn: "+q)
			return
		}
		entries = filterEntries(entries, func(e vrp.Entry) bool { return e.ASN == asn })
	}
	if q := r.URL.Query().Get("prefix"); q != "" {
		prefix, err := netip.ParsePrefix(q)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid prefix: "+q)
			return
		}
		entries = filterEntries(entries, func(e vrp.Entry) bool { return e.Prefix == prefix })
	}
	if ta := r.URL.Query().Get("ta"); ta != "" {
		entries = filterEntries(entries, func(e vrp.Entry) bool { return e.TrustAnchor == ta })
	}
	if entries == nil {
		entries = []vrp.Entry{}
	}
	writeJSON(w, http.StatusOK, vrpsRep{
		Serial:     snap.Serial,
		CapturedAt: snap.CapturedAt,
		VRPs:       entries,
	})
}

func filterEntries(entries []vrp.Entry, keep func(vrp.Entry) bool) []vrp.Entry {
	var filtered []vrp.Entry
	for _, e := range entries {
		if keep(e) {
			filtered = append(filtered, e)
		}
	}
	return filtered
}

type diffRep struct {
	FromSerial uint64      `json:"fromSerial"`
	ToSerial   uint64      `json:"toSerial"`
	Added      []vrp.Entry `json:"added"`
	Removed    []vrp.Entry `json:"removed"`
	Unchanged  int         `json:"unchanged"`
}

func (s *Server) diff(w http.ResponseWriter, r *http.Request) {
	from, err := strconv.ParseUint(r.URL.Query().Get("from"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid from serial")
		return
	}
	to, err := strconv.ParseUint(r.URL.Query().Get("to"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid to serial")
		return
	}
	d, err := s.DB.Diff(r.Context(), from, to)
	switch {
	case errors.Is(err, db.ErrNotFound):
		writeError(w, http.StatusNotFound, "no diff between the given serials")
		return
	case err != nil:
		log.FromCtx(r.Context()).Error("Reading diff failed",
			"from", from, "to", to, "err", err)
		writeError(w, http.StatusInternalServerError, "reading diff failed")
		return
	}
	rep := diffRep{
		FromSerial: d.FromSerial,
		ToSerial:   d.ToSerial,
		Added:      d.Added,
		Removed:    d.Removed,
		Unchanged:  d.Unchanged,
	}
	if rep.Added == nil {
		rep.Added = []vrp.Entry{}
	}
	if rep.Removed == nil {
		rep.Removed = []vrp.Entry{}
	}
	writeJSON(w, http.StatusOK, rep)
}

type validateReq struct {
	ASN    *vrp.ASN `json:"asn"`
	Prefix string   `json:"prefix"`
}

type validateRep struct {
	Valid        bool           `json:"valid"`
	State        validate.State `json:"state"`
	Prefix       netip.Prefix   `json:"prefix"`
	ASN          vrp.ASN        `json:"asn"`
	Serial       uint64         `json:"serial"`
	MatchingVRPs []vrp.Entry    `json:"matching_vrps"`
	Matched      []vrp.Entry    `json:"matched"`
	Covering     []vrp.Entry    `json:"covering"`
}

func (s *Server) validate(w http.ResponseWriter, r *http.Request) {
	rawASN := r.URL.Query().Get("asn")
	rawPrefix := r.URL.Query().Get("prefix")
	if r.Method == http.MethodPost {
		var req validateReq
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		if req.ASN == nil || req.Prefix == "" {
			writeError(w, http.StatusBadRequest, "missing asn or prefix")
			return
		}
		rawASN = req.ASN.String()
		rawPrefix = req.Prefix
	}
	prefix, err := netip.ParsePrefix(rawPrefix)
	if err != nil || prefix != prefix.Masked() {
		writeError(w, http.StatusBadRequest, "invalid prefix")
		return
	}
	asn, err := vrp.ParseASN(rawASN)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid asn")
		return
	}
	res, err := s.Engine.Validate(prefix, asn)
	if err != nil {
		writeError(w, http.StatusServiceUnavailable, "no snapshot available yet")
		return
	}
	matching := make([]vrp.Entry, 0, len(res.Matched)+len(res.Covering))
	matching = append(matching, res.Matched...)
	matching = append(matching, res.Covering...)
	slices.SortFunc(matching, vrp.Compare)
	rep := validateRep{
		Valid:        res.State == validate.StateValid,
		State:        res.State,
		Prefix:       prefix,
		ASN:          asn,
		Serial:       res.Serial,
		MatchingVRPs: matching,
		Matched:      res.Matched,
		Covering:     res.Covering,
	}
	if rep.Matched == nil {
		rep.Matched = []vrp.Entry{}
	}
	if rep.Covering == nil {
		rep.Covering = []vrp.Entry{}
	}
	writeJSON(w, http.StatusOK, rep)
}

func (s *Server) refresh(w http.ResponseWriter, r *http.Request) {
	if s.Refresher == nil {
		writeError(w, http.StatusServiceUnavailable, "refresh not available")
		return
	}
	// Requests during an in-flight or already-queued cycle coalesce.
	s.Refresher.TryTriggerRun()
	writeJSON(w, http.StatusAccepted, map[string]string{"status": "scheduled"})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Error("Encoding API response failed", "err", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
