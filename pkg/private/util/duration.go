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

// Package util contains small helpers shared across packages, most notably
// the human-readable duration format used in configuration files.
package util

import (
	"fmt"
	"regexp"
	"strconv"
	"time"

	"github.com/Arjun4522/RPKI-viz/pkg/private/serrors"
)

const (
	day  = 24 * time.Hour
	week = 7 * day
	year = 365 * day
)

var durationRegexp = regexp.MustCompile(`^([+\-]?\d+)(\w*)$`)

var unitMap = map[string]time.Duration{
	"ns": time.Nanosecond,
	"us": time.Microsecond,
	"µs": time.Microsecond,
	"ms": time.Millisecond,
	"s":  time.Second,
	"m":  time.Minute,
	"h":  time.Hour,
	"d":  day,
	"w":  week,
	"y":  year,
}

// ParseDuration parses a duration of the form "<int><unit>", where unit is
// one of ns, us, ms, s, m, h, d, w, y. A bare integer or an unknown unit is
// an error.
func ParseDuration(s string) (time.Duration, error) {
	match := durationRegexp.FindStringSubmatch(s)
	if match == nil {
		return 0, serrors.New("invalid duration", "input", s)
	}
	unit, ok := unitMap[match[2]]
	if !ok {
		return 0, serrors.New("unknown duration unit", "input", s, "unit", match[2])
	}
	n, err := strconv.ParseInt(match[1], 10, 64)
	if err != nil {
		return 0, serrors.Wrap("invalid duration value", err, "input", s)
	}
	return time.Duration(n) * unit, nil
}

var fmtUnits = []struct {
	unit   time.Duration
	suffix string
}{
	{year, "y"},
	{week, "w"},
	{day, "d"},
	{time.Hour, "h"},
	{time.Minute, "m"},
	{time.Second, "s"},
	{time.Millisecond, "ms"},
	{time.Microsecond, "us"},
	{time.Nanosecond, "ns"},
}

// FmtDuration formats the duration using the largest unit that divides it
// evenly.
func FmtDuration(d time.Duration) string {
	if d == 0 {
		return "0s"
	}
	for _, u := range fmtUnits {
		if d%u.unit == 0 {
			return fmt.Sprintf("%d%s", d/u.unit, u.suffix)
		}
	}
	return d.String()
}
