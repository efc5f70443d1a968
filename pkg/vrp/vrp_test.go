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

package vrp_test

import (
	"net/netip"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Arjun4522/RPKI-viz/pkg/vrp"
)

func TestParseASN(t *testing.T) {
	testCases := map[string]struct {
		input     string
		expected  vrp.ASN
		assertErr assert.ErrorAssertionFunc
	}{
		"prefixed": {
			input:     "AS64496",
			expected:  64496,
			assertErr: assert.NoError,
		},
		"lowercase prefix": {
			input:     "as64496",
			expected:  64496,
			assertErr: assert.NoError,
		},
		"bare decimal": {
			input:     "64496",
			expected:  64496,
			assertErr: assert.NoError,
		},
		"as zero": {
			input:     "AS0",
			expected:  0,
			assertErr: assert.NoError,
		},
		"max": {
			input:     "AS4294967295",
			expected:  4294967295,
			assertErr: assert.NoError,
		},
		"overflow": {
			input:     "AS4294967296",
			assertErr: assert.Error,
		},
		"negative": {
			input:     "-1",
			assertErr: assert.Error,
		},
		"garbage": {
			input:     "ASfoo",
			assertErr: assert.Error,
		},
		"empty": {
			input:     "",
			assertErr: assert.Error,
		},
	}
	for name, tc := range testCases {
		t.Run(name, func(t *testing.T) {
			asn, err := vrp.ParseASN(tc.input)
			tc.assertErr(t, err)
			if err != nil {
				return
			}
			assert.Equal(t, tc.expected, asn)
		})
	}
}

func TestEntryValidate(t *testing.T) {
	testCases := map[string]struct {
		entry     vrp.Entry
		assertErr assert.ErrorAssertionFunc
	}{
		"valid v4": {
			entry:     mustEntry(t, "AS65000", "192.0.2.0/24", 24, "arin"),
			assertErr: assert.NoError,
		},
		"valid v6": {
			entry:     mustEntry(t, "AS65000", "2001:db8::/32", 48, "ripe"),
			assertErr: assert.NoError,
		},
		"max length below prefix length": {
			entry:     mustEntry(t, "AS65000", "192.0.2.0/24", 22, "arin"),
			assertErr: assert.Error,
		},
		"negative max length": {
			entry:     mustEntry(t, "AS65000", "192.0.2.0/24", -1, "arin"),
			assertErr: assert.Error,
		},
		"max length beyond family": {
			entry:     mustEntry(t, "AS65000", "192.0.2.0/24", 33, "arin"),
			assertErr: assert.Error,
		},
		"host bits set": {
			entry:     mustEntry(t, "AS65000", "192.0.2.1/24", 24, "arin"),
			assertErr: assert.Error,
		},
		"empty trust anchor": {
			entry:     mustEntry(t, "AS65000", "192.0.2.0/24", 24, ""),
			assertErr: assert.Error,
		},
	}
	for name, tc := range testCases {
		t.Run(name, func(t *testing.T) {
			tc.assertErr(t, tc.entry.Validate())
		})
	}
}

func TestEntryCovers(t *testing.T) {
	entry := mustEntry(t, "AS65000", "192.0.2.0/24", 28, "arin")
	testCases := map[string]struct {
		prefix  string
		covered bool
	}{
		"equal":            {prefix: "192.0.2.0/24", covered: true},
		"more specific":    {prefix: "192.0.2.128/25", covered: true},
		"at max length":    {prefix: "192.0.2.0/28", covered: true},
		"beyond max":       {prefix: "192.0.2.0/29", covered: true},
		"less specific":    {prefix: "192.0.0.0/16", covered: false},
		"unrelated":        {prefix: "203.0.113.0/24", covered: false},
		"different family": {prefix: "2001:db8::/32", covered: false},
	}
	for name, tc := range testCases {
		t.Run(name, func(t *testing.T) {
			p := netip.MustParsePrefix(tc.prefix)
			assert.Equal(t, tc.covered, entry.Covers(p))
		})
	}
}

func TestEntryMatches(t *testing.T) {
	entry := mustEntry(t, "AS65000", "192.0.2.0/24", 28, "arin")
	testCases := map[string]struct {
		prefix  string
		asn     string
		matches bool
	}{
		"exact":         {prefix: "192.0.2.0/24", asn: "AS65000", matches: true},
		"at max length": {prefix: "192.0.2.0/28", asn: "AS65000", matches: true},
		"beyond max":    {prefix: "192.0.2.0/29", asn: "AS65000", matches: false},
		"wrong origin":  {prefix: "192.0.2.0/24", asn: "AS65001", matches: false},
		"not covered":   {prefix: "203.0.113.0/24", asn: "AS65000", matches: false},
	}
	for name, tc := range testCases {
		t.Run(name, func(t *testing.T) {
			p := netip.MustParsePrefix(tc.prefix)
			a, err := vrp.ParseASN(tc.asn)
			require.NoError(t, err)
			assert.Equal(t, tc.matches, entry.Matches(p, a))
		})
	}
}

func mustEntry(t *testing.T, asn, prefix string, maxLength int, ta string) vrp.Entry {
	t.Helper()
	a, err := vrp.ParseASN(asn)
	require.NoError(t, err)
	return vrp.Entry{
		ASN:         a,
		Prefix:      netip.MustParsePrefix(prefix),
		MaxLength:   maxLength,
		TrustAnchor: ta,
	}
}
