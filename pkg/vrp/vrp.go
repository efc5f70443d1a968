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

// Package vrp contains the model for Validated ROA Payloads (VRPs): the
// entry type, canonical snapshots with deterministic content hashes, and the
// diff computation between snapshots.
package vrp

import (
	"fmt"
	"net/netip"
	"strconv"
	"strings"

	"github.com/Arjun4522/RPKI-viz/pkg/private/serrors"
)

// MaxASN is the largest assignable autonomous system number.
const MaxASN = 1<<32 - 1

// ASN is an autonomous system number.
type ASN uint32

// ParseASN parses an AS number in decimal or in "AS"-prefixed notation, e.g.
// "AS64496" or "64496".
func ParseASN(s string) (ASN, error) {
	digits := s
	if len(s) >= 2 && strings.EqualFold(s[:2], "AS") {
		digits = s[2:]
	}
	asn, err := strconv.ParseUint(digits, 10, 32)
	if err != nil {
		return 0, serrors.New("invalid AS number", "input", s)
	}
	return ASN(asn), nil
}

func (a ASN) String() string {
	return fmt.Sprintf("AS%d", uint32(a))
}

// MarshalText implements encoding.TextMarshaler, the wire form is
// "AS"-prefixed.
func (a ASN) MarshalText() ([]byte, error) {
	return []byte(a.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (a *ASN) UnmarshalText(text []byte) error {
	parsed, err := ParseASN(string(text))
	if err != nil {
		return err
	}
	*a = parsed
	return nil
}

// Entry is a single Validated ROA Payload: the assertion that the given
// origin AS is authorized to announce the given prefix, up to MaxLength.
// Entries are immutable values; they are identified by the full
// (ASN, Prefix, MaxLength, TrustAnchor) tuple.
type Entry struct {
	ASN         ASN          `json:"asn"`
	Prefix      netip.Prefix `json:"prefix"`
	MaxLength   int          `json:"maxLength"`
	TrustAnchor string       `json:"ta"`
}

// Key is the uniqueness key of an Entry. It is a comparable value and can be
// used as a map key.
type Key struct {
	ASN         ASN
	Prefix      netip.Prefix
	MaxLength   int
	TrustAnchor string
}

// Key returns the uniqueness key of the entry.
func (e Entry) Key() Key {
	return Key{
		ASN:         e.ASN,
		Prefix:      e.Prefix,
		MaxLength:   e.MaxLength,
		TrustAnchor: e.TrustAnchor,
	}
}

func (e Entry) String() string {
	return fmt.Sprintf("%s|%s|%d|%s", e.ASN, e.Prefix, e.MaxLength, e.TrustAnchor)
}

// Validate checks the entry against the schema constraints: the prefix must
// be in canonical (masked) form, and the max length must be between the
// prefix length and the address-family bound.
func (e Entry) Validate() error {
	if !e.Prefix.IsValid() {
		return serrors.New("invalid prefix")
	}
	if e.Prefix != e.Prefix.Masked() {
		return serrors.New("prefix has host bits set", "prefix", e.Prefix)
	}
	familyBits := 32
	if e.Prefix.Addr().Is6() {
		familyBits = 128
	}
	if e.MaxLength < e.Prefix.Bits() || e.MaxLength > familyBits {
		return serrors.New("max length out of bounds",
			"maxLength", e.MaxLength, "prefix", e.Prefix)
	}
	if e.TrustAnchor == "" {
		return serrors.New("empty trust anchor")
	}
	return nil
}

// Covers reports whether this entry's prefix covers the candidate prefix:
// same address family and the candidate is contained in (or equal to) the
// entry's prefix. Coverage deliberately ignores the max length; a route
// covered only by entries whose max length it exceeds is invalid rather than
// unknown.
func (e Entry) Covers(p netip.Prefix) bool {
	if e.Prefix.Addr().Is6() != p.Addr().Is6() {
		return false
	}
	return e.Prefix.Contains(p.Addr()) && e.Prefix.Bits() <= p.Bits()
}

// Matches reports whether an announcement of the candidate prefix by the
// given origin AS is authorized by this entry: the entry covers the prefix,
// the prefix length does not exceed the declared max length, and the origin
// matches.
func (e Entry) Matches(p netip.Prefix, asn ASN) bool {
	return e.Covers(p) && p.Bits() <= e.MaxLength && e.ASN == asn
}
